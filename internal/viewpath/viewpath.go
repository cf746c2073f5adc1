// Package viewpath builds the object key layout shared by the dataset
// store, the sink, and the publisher.
//
// Facet input:   {inputPath}/{datasetID}/{attempt}/{facet}.ndjson
// Staged output: {targetPath}/{datasetID}/{attempt}/view/{generation}/
// Live pointer:  {targetPath}/{datasetID}/view/_CURRENT
package viewpath

import (
	"strconv"
	"strings"
)

const (
	Separator   = "/"
	PointerName = "_CURRENT"
)

func Join(parts ...string) string {
	trimmed := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.Trim(p, Separator)
		if p != "" {
			trimmed = append(trimmed, p)
		}
	}
	return strings.Join(trimmed, Separator)
}

func DatasetAttempt(base, datasetID string, attempt int) string {
	return Join(base, datasetID, strconv.Itoa(attempt))
}

func FacetObject(inputPath, datasetID string, attempt int, facet string) string {
	return Join(DatasetAttempt(inputPath, datasetID, attempt), strings.ToLower(facet)+".ndjson")
}

// LivePrefix is the destination path prefix the publish lock is scoped to.
func LivePrefix(targetPath, datasetID string) string {
	return Join(targetPath, datasetID, "view")
}

func StagedGeneration(targetPath, datasetID string, attempt int, generation string) string {
	return Join(DatasetAttempt(targetPath, datasetID, attempt), "view", generation)
}

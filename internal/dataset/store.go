// Package dataset loads keyed facet datasets into immutable in-memory
// mappings. All facet loads for a run happen concurrently and complete
// before the join phase starts.
package dataset

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/animus-labs/facetview/internal/domain"
)

// Kind names one facet dataset within a dataset attempt.
type Kind string

const (
	KindCore     Kind = "core"
	KindTemporal Kind = "temporal"
	KindLocation Kind = "location"
	KindTaxon    Kind = "taxon"
	KindMedia    Kind = "media"
	KindMetadata Kind = "metadata"
)

// Store reads one facet dataset as a raw NDJSON stream. A legitimately
// absent facet yields an empty stream, never an error; errors mean an actual
// access failure.
type Store interface {
	Read(ctx context.Context, kind Kind, datasetID string, attempt int) (io.ReadCloser, error)
}

type keyed interface {
	RecordKey() domain.Key
}

// decodeMapped reads an NDJSON stream into a key-indexed mapping. A facet
// dataset maps each key to at most one record; on duplicates the last record
// wins.
func decodeMapped[T keyed](r io.Reader) (map[domain.Key]T, error) {
	out := make(map[domain.Key]T)
	dec := json.NewDecoder(r)
	for {
		var rec T
		if err := dec.Decode(&rec); err != nil {
			if errors.Is(err, io.EOF) {
				return out, nil
			}
			return nil, fmt.Errorf("decode record %d: %w", len(out)+1, err)
		}
		if rec.RecordKey() == "" {
			return nil, fmt.Errorf("record %d has no key", len(out)+1)
		}
		out[rec.RecordKey()] = rec
	}
}

// decodeMetadata reads the singleton metadata dataset and reports how many
// records the stream actually held.
func decodeMetadata(r io.Reader) (domain.DatasetMetadata, int, error) {
	var meta domain.DatasetMetadata
	count := 0
	dec := json.NewDecoder(r)
	for {
		var rec domain.DatasetMetadata
		if err := dec.Decode(&rec); err != nil {
			if errors.Is(err, io.EOF) {
				return meta, count, nil
			}
			return domain.DatasetMetadata{}, count, fmt.Errorf("decode metadata: %w", err)
		}
		meta = rec
		count++
	}
}

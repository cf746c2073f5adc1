package metrics

import (
	"context"
	"encoding/json"
	"io"
	"time"
)

// NDJSONExporter appends run snapshots as newline-delimited JSON.
type NDJSONExporter struct {
	enc *json.Encoder
	now func() time.Time
}

func NewNDJSONExporter(w io.Writer) *NDJSONExporter {
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(true)
	return &NDJSONExporter{enc: enc, now: time.Now}
}

func (e *NDJSONExporter) Export(ctx context.Context, snapshot Snapshot) error {
	return e.enc.Encode(exportLine{
		ExportedAt: e.now().UTC().Format(time.RFC3339Nano),
		Snapshot:   snapshot,
	})
}

type exportLine struct {
	ExportedAt string `json:"exportedAt"`
	Snapshot
}

package metrics

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"
)

var errFirst = errors.New("export failed")

func TestCountersSnapshot(t *testing.T) {
	c := NewCounters()
	c.AddLoaded("core", 3)
	c.AddLoaded("taxon", 2)
	c.AddLoaded("core", 1)
	c.IncJoined()
	c.IncJoined()
	c.IncDropped()
	c.AddWritten(2)
	c.IncBatchDispatched()

	snap := c.Snapshot()
	if snap.RecordsLoaded["core"] != 4 || snap.RecordsLoaded["taxon"] != 2 {
		t.Fatalf("loaded=%v", snap.RecordsLoaded)
	}
	if snap.RecordsJoined != 2 || snap.RecordsDropped != 1 || snap.RecordsWritten != 2 || snap.BatchesDispatched != 1 {
		t.Fatalf("snapshot=%+v", snap)
	}

	// The snapshot is a copy: later increments must not leak into it.
	c.AddLoaded("core", 10)
	if snap.RecordsLoaded["core"] != 4 {
		t.Fatalf("snapshot mutated: %v", snap.RecordsLoaded)
	}
}

func TestCountersConcurrent(t *testing.T) {
	c := NewCounters()
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			c.AddLoaded("core", 1)
			c.IncJoined()
			c.AddWritten(1)
		}()
	}
	wg.Wait()

	snap := c.Snapshot()
	if snap.RecordsLoaded["core"] != 50 || snap.RecordsJoined != 50 || snap.RecordsWritten != 50 {
		t.Fatalf("snapshot=%+v", snap)
	}
}

type recordingExporter struct {
	exports int
	err     error
}

func (e *recordingExporter) Export(ctx context.Context, snapshot Snapshot) error {
	e.exports++
	return e.err
}

func TestMultiExporterFansOut(t *testing.T) {
	a := &recordingExporter{}
	b := &recordingExporter{}
	m := NewMultiExporter(a, b)

	if err := m.Export(context.Background(), Snapshot{}); err != nil {
		t.Fatalf("Export: %v", err)
	}
	if a.exports != 1 || b.exports != 1 {
		t.Fatalf("exports=%d/%d, want 1/1", a.exports, b.exports)
	}
}

func TestMultiExporterFailureDoesNotStopOthers(t *testing.T) {
	a := &recordingExporter{err: errFirst}
	b := &recordingExporter{}
	m := NewMultiExporter(a, b)

	if err := m.Export(context.Background(), Snapshot{}); err != errFirst {
		t.Fatalf("err=%v, want first exporter's error", err)
	}
	if b.exports != 1 {
		t.Fatalf("second exporter exports=%d, want 1 despite first failing", b.exports)
	}
}

func TestNDJSONExporter(t *testing.T) {
	var buf bytes.Buffer
	e := NewNDJSONExporter(&buf)
	e.now = func() time.Time { return time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC) }

	snap := Snapshot{
		RecordsLoaded:     map[string]int64{"core": 3},
		RecordsJoined:     3,
		RecordsWritten:    3,
		BatchesDispatched: 2,
	}
	if err := e.Export(context.Background(), snap); err != nil {
		t.Fatalf("Export: %v", err)
	}
	if err := e.Export(context.Background(), snap); err != nil {
		t.Fatalf("second Export: %v", err)
	}

	lines := bytes.Split(bytes.TrimSpace(buf.Bytes()), []byte("\n"))
	if len(lines) != 2 {
		t.Fatalf("lines=%d, want 2", len(lines))
	}
	var decoded struct {
		ExportedAt    string           `json:"exportedAt"`
		RecordsLoaded map[string]int64 `json:"recordsLoaded"`
		RecordsJoined int64            `json:"recordsJoined"`
	}
	if err := json.Unmarshal(lines[0], &decoded); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if decoded.ExportedAt != "2026-03-01T12:00:00Z" {
		t.Fatalf("exportedAt=%q", decoded.ExportedAt)
	}
	if decoded.RecordsLoaded["core"] != 3 || decoded.RecordsJoined != 3 {
		t.Fatalf("decoded=%+v", decoded)
	}
}

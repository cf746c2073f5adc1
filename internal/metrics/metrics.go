// Package metrics counts records as they move through the pipeline. Counters
// are flushed exactly once at run completion, on success and failure alike.
package metrics

import (
	"context"
	"sync"
	"sync/atomic"
)

type Counters struct {
	mu     sync.Mutex
	loaded map[string]int64

	joined   atomic.Int64
	dropped  atomic.Int64
	written  atomic.Int64
	batches  atomic.Int64
	degraded atomic.Int64
}

func NewCounters() *Counters {
	return &Counters{loaded: make(map[string]int64)}
}

func (c *Counters) AddLoaded(facet string, n int64) {
	c.mu.Lock()
	c.loaded[facet] += n
	c.mu.Unlock()
}

func (c *Counters) IncJoined()          { c.joined.Add(1) }
func (c *Counters) IncDropped()         { c.dropped.Add(1) }
func (c *Counters) AddWritten(n int64)  { c.written.Add(n) }
func (c *Counters) IncBatchDispatched() { c.batches.Add(1) }
func (c *Counters) IncFacetDegraded()   { c.degraded.Add(1) }

// Snapshot is the exported form of the counters.
type Snapshot struct {
	RecordsLoaded     map[string]int64 `json:"recordsLoaded"`
	RecordsJoined     int64            `json:"recordsJoined"`
	RecordsDropped    int64            `json:"recordsDropped"`
	RecordsWritten    int64            `json:"recordsWritten"`
	BatchesDispatched int64            `json:"batchesDispatched"`
	FacetsDegraded    int64            `json:"facetsDegraded"`
}

func (c *Counters) Snapshot() Snapshot {
	c.mu.Lock()
	loaded := make(map[string]int64, len(c.loaded))
	for k, v := range c.loaded {
		loaded[k] = v
	}
	c.mu.Unlock()

	return Snapshot{
		RecordsLoaded:     loaded,
		RecordsJoined:     c.joined.Load(),
		RecordsDropped:    c.dropped.Load(),
		RecordsWritten:    c.written.Load(),
		BatchesDispatched: c.batches.Load(),
		FacetsDegraded:    c.degraded.Load(),
	}
}

// Exporter receives the final snapshot once per run.
type Exporter interface {
	Export(ctx context.Context, snapshot Snapshot) error
}

// NoopExporter discards the snapshot; used when no metrics destination is
// configured.
type NoopExporter struct{}

func (NoopExporter) Export(ctx context.Context, snapshot Snapshot) error { return nil }

// MultiExporter fans the snapshot out to every destination. Every exporter is
// attempted even after a failure; the first error is returned.
type MultiExporter []Exporter

func NewMultiExporter(exporters ...Exporter) MultiExporter {
	return MultiExporter(exporters)
}

func (m MultiExporter) Export(ctx context.Context, snapshot Snapshot) error {
	var firstErr error
	for _, e := range m {
		if err := e.Export(ctx, snapshot); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

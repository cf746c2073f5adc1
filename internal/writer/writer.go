// Package writer groups the view record sequence into bounded batches and
// dispatches them to a sink, inline or concurrently.
package writer

import (
	"context"
	"fmt"
	"iter"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"github.com/animus-labs/facetview/internal/domain"
	"github.com/animus-labs/facetview/internal/metrics"
)

// Batch is one dispatch unit. Seq numbers batches from zero in dispatch
// order so a retried run overwrites the same sink objects instead of
// duplicating them.
type Batch struct {
	Seq     int
	Records []domain.ViewRecord
}

// Sink receives batches. It must tolerate at-least-once redelivery: a batch
// may be written again by a retried run, keyed identically.
type Sink interface {
	WriteBatch(ctx context.Context, batch Batch) error
}

type Writer struct {
	sink         Sink
	logger       *slog.Logger
	counters     *metrics.Counters
	batchMaxSize int
	concurrency  int
	syncMode     bool
}

func New(sink Sink, logger *slog.Logger, counters *metrics.Counters, batchMaxSize, concurrency int, syncMode bool) (*Writer, error) {
	if sink == nil {
		return nil, fmt.Errorf("sink is required")
	}
	if counters == nil {
		return nil, fmt.Errorf("counters are required")
	}
	if batchMaxSize < 1 {
		return nil, fmt.Errorf("batchMaxSize must be > 0")
	}
	if concurrency < 1 {
		return nil, fmt.Errorf("concurrency must be >= 1")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Writer{
		sink:         sink,
		logger:       logger,
		counters:     counters,
		batchMaxSize: batchMaxSize,
		concurrency:  concurrency,
		syncMode:     syncMode,
	}, nil
}

// Write consumes the sequence, dispatching a batch whenever batchMaxSize
// records have accumulated and once more for any remainder. An empty batch
// is never dispatched. Write returns only after every dispatched batch has
// completed; the first dispatch failure aborts the rest (already-dispatched
// batches are not retracted).
func (w *Writer) Write(ctx context.Context, records iter.Seq[domain.ViewRecord]) error {
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(w.concurrency)

	buf := make([]domain.ViewRecord, 0, w.batchMaxSize)
	seq := 0

	dispatch := func(b Batch) error {
		if err := w.sink.WriteBatch(gctx, b); err != nil {
			return fmt.Errorf("batch %d: %w", b.Seq, err)
		}
		w.counters.IncBatchDispatched()
		w.counters.AddWritten(int64(len(b.Records)))
		w.logger.Debug("batch dispatched", "batch", b.Seq, "records", len(b.Records))
		return nil
	}

	flush := func() error {
		if len(buf) == 0 {
			return nil
		}
		b := Batch{Seq: seq, Records: buf}
		seq++
		buf = make([]domain.ViewRecord, 0, w.batchMaxSize)
		if w.syncMode {
			return dispatch(b)
		}
		g.Go(func() error { return dispatch(b) })
		return nil
	}

	var loopErr error
	for rec := range records {
		// A failed concurrent dispatch cancels gctx; stop consuming.
		if gctx.Err() != nil {
			break
		}
		buf = append(buf, rec)
		if len(buf) >= w.batchMaxSize {
			if err := flush(); err != nil {
				loopErr = err
				break
			}
		}
	}
	if loopErr == nil && gctx.Err() == nil {
		loopErr = flush()
	}

	// Write barrier: every outstanding dispatch completes before we return.
	waitErr := g.Wait()

	err := loopErr
	if err == nil {
		err = waitErr
	}
	if err == nil {
		err = ctx.Err()
	}
	if err != nil {
		return &domain.WriteError{Err: err}
	}
	return nil
}

// Package run sequences one pipeline run: load all facets, join, write the
// staged view, publish it, and report the outcome. The worker pool (an
// errgroup bounded by the configured concurrency) is scoped to the run and
// torn down on every exit path by the phase barriers.
package run

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/animus-labs/facetview/internal/config"
	"github.com/animus-labs/facetview/internal/dataset"
	"github.com/animus-labs/facetview/internal/domain"
	"github.com/animus-labs/facetview/internal/join"
	"github.com/animus-labs/facetview/internal/lineage"
	"github.com/animus-labs/facetview/internal/metrics"
	"github.com/animus-labs/facetview/internal/publish"
	"github.com/animus-labs/facetview/internal/viewpath"
	"github.com/animus-labs/facetview/internal/writer"
)

type Phase string

const (
	PhaseInit        Phase = "INIT"
	PhaseLoading     Phase = "LOADING"
	PhaseJoining     Phase = "JOINING"
	PhaseWriting     Phase = "WRITING"
	PhaseLockAcquire Phase = "LOCK_ACQUIRE"
	PhasePublishing  Phase = "PUBLISHING"
	PhaseLockRelease Phase = "LOCK_RELEASE"
	PhaseDone        Phase = "DONE"
	PhaseFailed      Phase = "FAILED"
)

// SinkFactory builds the sink for a run's staged generation prefix. The
// prefix is chosen per run, so the sink cannot be constructed up front.
type SinkFactory func(stagedPrefix string) (writer.Sink, error)

// PublishRecorder receives a lineage record after a successful publish.
type PublishRecorder interface {
	RecordPublish(ctx context.Context, record lineage.PublishRecord) (int64, error)
}

// Report is what a run hands back: the terminal phase, where it failed (if
// anywhere), and the record counters.
type Report struct {
	RunID      string
	DatasetID  string
	Attempt    int
	Generation string
	Phase      Phase
	FailedIn   Phase
	Counters   metrics.Snapshot
}

type Params struct {
	Config      config.Config
	Loader      *dataset.Loader
	NewSink     SinkFactory
	Coordinator *publish.Coordinator
	Counters    *metrics.Counters
	Exporter    metrics.Exporter
	Lineage     PublishRecorder
	Logger      *slog.Logger
}

type Controller struct {
	cfg         config.Config
	loader      *dataset.Loader
	newSink     SinkFactory
	coordinator *publish.Coordinator
	counters    *metrics.Counters
	exporter    metrics.Exporter
	lineage     PublishRecorder
	logger      *slog.Logger

	newGeneration func() string
	now           func() time.Time
}

func NewController(p Params) (*Controller, error) {
	if err := p.Config.Validate(); err != nil {
		return nil, err
	}
	if p.Loader == nil {
		return nil, fmt.Errorf("loader is required")
	}
	if p.NewSink == nil {
		return nil, fmt.Errorf("sink factory is required")
	}
	if p.Coordinator == nil {
		return nil, fmt.Errorf("publish coordinator is required")
	}
	if p.Counters == nil {
		return nil, fmt.Errorf("counters are required")
	}
	if p.Exporter == nil {
		p.Exporter = metrics.NoopExporter{}
	}
	if p.Logger == nil {
		p.Logger = slog.Default()
	}
	return &Controller{
		cfg:           p.Config,
		loader:        p.Loader,
		newSink:       p.NewSink,
		coordinator:   p.Coordinator,
		counters:      p.Counters,
		exporter:      p.Exporter,
		lineage:       p.Lineage,
		logger:        p.Logger,
		newGeneration: func() string { return "gen-" + uuid.NewString() },
		now:           time.Now,
	}, nil
}

// Run executes the full phase sequence. Metrics are flushed exactly once, on
// success and failure alike, before Run returns.
func (c *Controller) Run(ctx context.Context) (Report, error) {
	report := Report{
		RunID:     uuid.NewString(),
		DatasetID: c.cfg.DatasetID,
		Attempt:   c.cfg.Attempt,
		Phase:     PhaseInit,
	}
	logger := c.logger.With("run", report.RunID, "dataset", c.cfg.DatasetID, "attempt", c.cfg.Attempt)

	report.Generation = c.newGeneration()
	staged := viewpath.StagedGeneration(c.cfg.TargetPath, c.cfg.DatasetID, c.cfg.Attempt, report.Generation)
	live := viewpath.LivePrefix(c.cfg.TargetPath, c.cfg.DatasetID)

	report.Phase = PhaseLoading
	logger.Info("loading facet datasets")
	facets, err := c.loader.LoadAll(ctx, c.cfg.DatasetID, c.cfg.Attempt)
	if err != nil {
		return c.fail(ctx, logger, report, PhaseLoading, err)
	}

	report.Phase = PhaseJoining
	engine, err := join.NewEngine(facets, logger, c.counters)
	if err != nil {
		return c.fail(ctx, logger, report, PhaseJoining, err)
	}

	report.Phase = PhaseWriting
	logger.Info("writing staged view", "staged", staged, "syncMode", c.cfg.SyncMode)
	sink, err := c.newSink(staged)
	if err != nil {
		return c.fail(ctx, logger, report, PhaseWriting, err)
	}
	w, err := writer.New(sink, logger, c.counters, c.cfg.BatchMaxSize, c.cfg.Concurrency, c.cfg.SyncMode)
	if err != nil {
		return c.fail(ctx, logger, report, PhaseWriting, err)
	}
	if err := w.Write(ctx, engine.Records()); err != nil {
		return c.fail(ctx, logger, report, PhaseWriting, err)
	}

	report.Phase = PhaseLockAcquire
	if err := c.coordinator.Publish(ctx, staged, live); err != nil {
		return c.fail(ctx, logger, report, publishFailurePhase(err), err)
	}
	report.Phase = PhaseLockRelease

	c.recordLineage(ctx, logger, report)

	report.Phase = PhaseDone
	c.flushMetrics(ctx, logger, &report)
	logger.Info("run complete",
		"generation", report.Generation,
		"joined", report.Counters.RecordsJoined,
		"dropped", report.Counters.RecordsDropped,
		"written", report.Counters.RecordsWritten,
		"batches", report.Counters.BatchesDispatched)
	return report, nil
}

func (c *Controller) fail(ctx context.Context, logger *slog.Logger, report Report, phase Phase, err error) (Report, error) {
	report.FailedIn = phase
	report.Phase = PhaseFailed
	c.flushMetrics(ctx, logger, &report)
	logger.Error("run failed",
		"phase", string(phase),
		"error", err,
		"joined", report.Counters.RecordsJoined,
		"dropped", report.Counters.RecordsDropped,
		"written", report.Counters.RecordsWritten)
	return report, fmt.Errorf("%s: %w", phase, err)
}

func (c *Controller) flushMetrics(ctx context.Context, logger *slog.Logger, report *Report) {
	report.Counters = c.counters.Snapshot()
	// Flush must survive run cancellation.
	exportCtx := context.WithoutCancel(ctx)
	if err := c.exporter.Export(exportCtx, report.Counters); err != nil {
		logger.Warn("metrics export failed", "error", err)
	}
}

func (c *Controller) recordLineage(ctx context.Context, logger *slog.Logger, report Report) {
	if c.lineage == nil {
		return
	}
	_, err := c.lineage.RecordPublish(ctx, lineage.PublishRecord{
		OccurredAt: c.now().UTC(),
		RunID:      report.RunID,
		DatasetID:  report.DatasetID,
		Attempt:    report.Attempt,
		Generation: report.Generation,
		Metadata:   c.counters.Snapshot(),
	})
	if err != nil {
		// The view is already live; lineage is advisory.
		logger.Warn("lineage record failed", "error", err)
	}
}

func publishFailurePhase(err error) Phase {
	var lockErr *domain.LockError
	if errors.As(err, &lockErr) {
		return PhaseLockAcquire
	}
	var pubErr *domain.PublishError
	if errors.As(err, &pubErr) {
		return PhasePublishing
	}
	return PhasePublishing
}

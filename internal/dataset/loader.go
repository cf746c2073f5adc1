package dataset

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"github.com/animus-labs/facetview/internal/domain"
	"github.com/animus-labs/facetview/internal/metrics"
)

// Facets holds every loaded mapping for one run. The maps are built once by
// LoadAll and treated as immutable snapshots from then on.
type Facets struct {
	Core     map[domain.Key]domain.CoreRecord
	Temporal map[domain.Key]domain.TemporalRecord
	Location map[domain.Key]domain.LocationRecord
	Taxon    map[domain.Key]domain.TaxonRecord
	Media    map[domain.Key]domain.MediaRecord
	Metadata domain.DatasetMetadata
}

type Loader struct {
	store       Store
	logger      *slog.Logger
	counters    *metrics.Counters
	concurrency int
}

func NewLoader(store Store, logger *slog.Logger, counters *metrics.Counters, concurrency int) (*Loader, error) {
	if store == nil {
		return nil, fmt.Errorf("store is required")
	}
	if counters == nil {
		return nil, fmt.Errorf("counters are required")
	}
	if concurrency < 1 {
		return nil, fmt.Errorf("concurrency must be >= 1")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Loader{store: store, logger: logger, counters: counters, concurrency: concurrency}, nil
}

// LoadAll reads every facet dataset concurrently and waits for all of them.
// The core dataset and the metadata singleton are mandatory; an I/O failure
// on any other facet degrades that facet to an empty mapping.
func (l *Loader) LoadAll(ctx context.Context, datasetID string, attempt int) (*Facets, error) {
	facets := &Facets{}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(l.concurrency)

	g.Go(func() error {
		core, err := loadFacet[domain.CoreRecord](gctx, l, KindCore, datasetID, attempt)
		if err != nil {
			return &domain.LoadError{Facet: string(KindCore), Err: err}
		}
		facets.Core = core
		return nil
	})

	g.Go(func() error {
		meta, count, err := l.loadMetadata(gctx, datasetID, attempt)
		if err != nil {
			return &domain.LoadError{Facet: string(KindMetadata), Err: err}
		}
		if count != 1 {
			return &domain.ConfigurationError{
				Reason: fmt.Sprintf("metadata dataset yielded %d records, want exactly 1", count),
			}
		}
		facets.Metadata = meta
		return nil
	})

	g.Go(func() error {
		facets.Temporal = loadOptional[domain.TemporalRecord](gctx, l, KindTemporal, datasetID, attempt)
		return nil
	})
	g.Go(func() error {
		facets.Location = loadOptional[domain.LocationRecord](gctx, l, KindLocation, datasetID, attempt)
		return nil
	})
	g.Go(func() error {
		facets.Taxon = loadOptional[domain.TaxonRecord](gctx, l, KindTaxon, datasetID, attempt)
		return nil
	})
	g.Go(func() error {
		facets.Media = loadOptional[domain.MediaRecord](gctx, l, KindMedia, datasetID, attempt)
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}

	if len(facets.Core) == 0 {
		return nil, &domain.ConfigurationError{Reason: "core dataset is missing or empty"}
	}
	if err := facets.Metadata.Validate(); err != nil {
		return nil, &domain.ConfigurationError{Reason: "metadata: " + err.Error()}
	}

	return facets, nil
}

func loadFacet[T keyed](ctx context.Context, l *Loader, kind Kind, datasetID string, attempt int) (map[domain.Key]T, error) {
	r, err := l.store.Read(ctx, kind, datasetID, attempt)
	if err != nil {
		return nil, err
	}
	defer closeQuietly(l.logger, string(kind), r)

	m, err := decodeMapped[T](r)
	if err != nil {
		return nil, err
	}
	l.counters.AddLoaded(string(kind), int64(len(m)))
	l.logger.Info("facet loaded", "facet", string(kind), "records", len(m))
	return m, nil
}

// loadOptional absorbs failures: the facet degrades to an empty mapping and
// the run continues.
func loadOptional[T keyed](ctx context.Context, l *Loader, kind Kind, datasetID string, attempt int) map[domain.Key]T {
	m, err := loadFacet[T](ctx, l, kind, datasetID, attempt)
	if err != nil {
		l.counters.IncFacetDegraded()
		l.logger.Warn("optional facet degraded to empty", "facet", string(kind), "error", err)
		return make(map[domain.Key]T)
	}
	return m
}

func (l *Loader) loadMetadata(ctx context.Context, datasetID string, attempt int) (domain.DatasetMetadata, int, error) {
	r, err := l.store.Read(ctx, KindMetadata, datasetID, attempt)
	if err != nil {
		return domain.DatasetMetadata{}, 0, err
	}
	defer closeQuietly(l.logger, string(KindMetadata), r)
	return decodeMetadata(r)
}

func closeQuietly(logger *slog.Logger, facet string, c io.Closer) {
	if err := c.Close(); err != nil {
		logger.Warn("close facet stream", "facet", facet, "error", err)
	}
}

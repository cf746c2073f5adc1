// Package join produces the denormalized view record sequence, one record
// per core-dataset key.
package join

import (
	"fmt"
	"iter"
	"log/slog"

	"github.com/animus-labs/facetview/internal/dataset"
	"github.com/animus-labs/facetview/internal/domain"
	"github.com/animus-labs/facetview/internal/metrics"
)

type Engine struct {
	facets   *dataset.Facets
	logger   *slog.Logger
	counters *metrics.Counters
}

func NewEngine(facets *dataset.Facets, logger *slog.Logger, counters *metrics.Counters) (*Engine, error) {
	if facets == nil {
		return nil, fmt.Errorf("facets are required")
	}
	if err := facets.Metadata.Validate(); err != nil {
		return nil, &domain.ConfigurationError{Reason: "metadata: " + err.Error()}
	}
	if counters == nil {
		return nil, fmt.Errorf("counters are required")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{facets: facets, logger: logger, counters: counters}, nil
}

// Records yields one view record per core key, in unspecified order. A key
// whose conversion fails is dropped, logged, and counted; the sequence
// continues. The sequence is restartable only by re-invoking Records.
func (e *Engine) Records() iter.Seq[domain.ViewRecord] {
	return func(yield func(domain.ViewRecord) bool) {
		for key, core := range e.facets.Core {
			view, err := Convert(core, e.facets, e.facets.Metadata)
			if err != nil {
				e.counters.IncDropped()
				e.logger.Warn("record dropped", "key", string(key), "error", err)
				continue
			}
			e.counters.IncJoined()
			if !yield(view) {
				return
			}
		}
	}
}

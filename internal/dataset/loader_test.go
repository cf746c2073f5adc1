package dataset

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/animus-labs/facetview/internal/domain"
	"github.com/animus-labs/facetview/internal/metrics"
)

type fakeStore struct {
	objects map[Kind]string
	errs    map[Kind]error
}

func (s *fakeStore) Read(ctx context.Context, kind Kind, datasetID string, attempt int) (io.ReadCloser, error) {
	if err := s.errs[kind]; err != nil {
		return nil, err
	}
	return io.NopCloser(strings.NewReader(s.objects[kind])), nil
}

const metaLine = `{"datasetId":"d1","attempt":1,"title":"Birds of Here","publisher":"Museum","license":"CC0"}` + "\n"

func newTestLoader(t *testing.T, store Store) (*Loader, *metrics.Counters) {
	t.Helper()
	counters := metrics.NewCounters()
	l, err := NewLoader(store, nil, counters, 2)
	if err != nil {
		t.Fatalf("NewLoader: %v", err)
	}
	return l, counters
}

func TestLoadAll(t *testing.T) {
	store := &fakeStore{objects: map[Kind]string{
		KindCore: `{"key":"A","occurrenceId":"occ-a"}
{"key":"B","occurrenceId":"occ-b"}
{"key":"C","occurrenceId":"occ-c"}
`,
		KindTaxon: `{"key":"A","scientificName":"Turdus merula"}
{"key":"C","scientificName":"Passer domesticus"}
`,
		KindMetadata: metaLine,
	}}
	l, counters := newTestLoader(t, store)

	facets, err := l.LoadAll(context.Background(), "d1", 1)
	if err != nil {
		t.Fatalf("LoadAll: %v", err)
	}
	if len(facets.Core) != 3 {
		t.Fatalf("core=%d, want 3", len(facets.Core))
	}
	if len(facets.Taxon) != 2 {
		t.Fatalf("taxon=%d, want 2", len(facets.Taxon))
	}
	if len(facets.Temporal) != 0 || len(facets.Location) != 0 || len(facets.Media) != 0 {
		t.Fatal("absent optional facets must load as empty maps")
	}
	if facets.Metadata.Title != "Birds of Here" {
		t.Fatalf("metadata title=%q", facets.Metadata.Title)
	}

	snap := counters.Snapshot()
	if snap.RecordsLoaded["core"] != 3 || snap.RecordsLoaded["taxon"] != 2 {
		t.Fatalf("loaded counters=%v", snap.RecordsLoaded)
	}
	if snap.FacetsDegraded != 0 {
		t.Fatalf("facetsDegraded=%d, want 0 when only absent", snap.FacetsDegraded)
	}
}

func TestLoadAllMetadataMissing(t *testing.T) {
	store := &fakeStore{objects: map[Kind]string{
		KindCore: `{"key":"A"}` + "\n",
	}}
	l, _ := newTestLoader(t, store)

	_, err := l.LoadAll(context.Background(), "d1", 1)
	var cfgErr *domain.ConfigurationError
	if !errors.As(err, &cfgErr) {
		t.Fatalf("err=%v, want ConfigurationError", err)
	}
}

func TestLoadAllMetadataAmbiguous(t *testing.T) {
	store := &fakeStore{objects: map[Kind]string{
		KindCore:     `{"key":"A"}` + "\n",
		KindMetadata: metaLine + metaLine,
	}}
	l, _ := newTestLoader(t, store)

	_, err := l.LoadAll(context.Background(), "d1", 1)
	var cfgErr *domain.ConfigurationError
	if !errors.As(err, &cfgErr) {
		t.Fatalf("err=%v, want ConfigurationError", err)
	}
}

func TestLoadAllCoreMissing(t *testing.T) {
	store := &fakeStore{objects: map[Kind]string{
		KindMetadata: metaLine,
	}}
	l, _ := newTestLoader(t, store)

	_, err := l.LoadAll(context.Background(), "d1", 1)
	var cfgErr *domain.ConfigurationError
	if !errors.As(err, &cfgErr) {
		t.Fatalf("err=%v, want ConfigurationError", err)
	}
}

func TestLoadAllCoreIOFailureIsFatal(t *testing.T) {
	store := &fakeStore{
		objects: map[Kind]string{KindMetadata: metaLine},
		errs:    map[Kind]error{KindCore: errors.New("connection reset")},
	}
	l, _ := newTestLoader(t, store)

	_, err := l.LoadAll(context.Background(), "d1", 1)
	var loadErr *domain.LoadError
	if !errors.As(err, &loadErr) {
		t.Fatalf("err=%v, want LoadError", err)
	}
	if loadErr.Facet != "core" {
		t.Fatalf("facet=%q, want core", loadErr.Facet)
	}
}

func TestLoadAllOptionalFacetDegrades(t *testing.T) {
	store := &fakeStore{
		objects: map[Kind]string{
			KindCore:     `{"key":"A"}` + "\n",
			KindMetadata: metaLine,
		},
		errs: map[Kind]error{KindTaxon: errors.New("connection reset")},
	}
	l, counters := newTestLoader(t, store)

	facets, err := l.LoadAll(context.Background(), "d1", 1)
	if err != nil {
		t.Fatalf("LoadAll: %v", err)
	}
	if len(facets.Taxon) != 0 {
		t.Fatalf("taxon=%d, want empty after degradation", len(facets.Taxon))
	}
	// A degraded facet is visible in the snapshot, unlike a merely absent one.
	if got := counters.Snapshot().FacetsDegraded; got != 1 {
		t.Fatalf("facetsDegraded=%d, want 1", got)
	}
}

func TestDecodeMappedDuplicateKeyLastWins(t *testing.T) {
	in := `{"key":"A","occurrenceId":"first"}
{"key":"A","occurrenceId":"second"}
`
	m, err := decodeMapped[domain.CoreRecord](strings.NewReader(in))
	if err != nil {
		t.Fatalf("decodeMapped: %v", err)
	}
	if len(m) != 1 || m["A"].OccurrenceID != "second" {
		t.Fatalf("m=%v", m)
	}
}

func TestDecodeMappedRejectsMissingKey(t *testing.T) {
	if _, err := decodeMapped[domain.CoreRecord](strings.NewReader(`{"occurrenceId":"x"}` + "\n")); err == nil {
		t.Fatal("decodeMapped succeeded, want error")
	}
}

func TestDecodeMappedRejectsGarbage(t *testing.T) {
	if _, err := decodeMapped[domain.CoreRecord](strings.NewReader("not json\n")); err == nil {
		t.Fatal("decodeMapped succeeded, want error")
	}
}

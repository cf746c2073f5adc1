package join

import (
	"errors"
	"fmt"

	"github.com/animus-labs/facetview/internal/dataset"
	"github.com/animus-labs/facetview/internal/domain"
)

// Convert merges one core record with the facet records for the same key and
// the dataset metadata into a single view record. It is a pure function of
// its inputs: missing facets contribute zero values, never nils.
func Convert(core domain.CoreRecord, facets *dataset.Facets, meta domain.DatasetMetadata) (domain.ViewRecord, error) {
	if core.Key == "" {
		return domain.ViewRecord{}, &domain.ConversionError{Key: core.Key, Err: errors.New("empty record key")}
	}

	view := domain.ViewRecord{
		Key:             core.Key,
		OccurrenceID:    core.OccurrenceID,
		BasisOfRecord:   core.BasisOfRecord,
		IndividualCount: core.IndividualCount,
		Sex:             core.Sex,
		LifeStage:       core.LifeStage,

		DatasetID:        meta.DatasetID,
		DatasetTitle:     meta.Title,
		DatasetPublisher: meta.Publisher,
		DatasetLicense:   meta.License,
		CrawledAt:        meta.CrawledAt,
	}

	if t, ok := facets.Temporal[core.Key]; ok {
		if err := checkTemporal(t); err != nil {
			return domain.ViewRecord{}, &domain.ConversionError{Key: core.Key, Err: err}
		}
		view.EventDate = t.EventDate
		view.Year = t.Year
		view.Month = t.Month
		view.Day = t.Day
	}

	if l, ok := facets.Location[core.Key]; ok {
		if err := checkLocation(l); err != nil {
			return domain.ViewRecord{}, &domain.ConversionError{Key: core.Key, Err: err}
		}
		view.Country = l.Country
		view.CountryCode = l.CountryCode
		view.StateProvince = l.StateProvince
		view.DecimalLatitude = l.DecimalLatitude
		view.DecimalLongitude = l.DecimalLongitude
		view.HasCoordinate = l.HasCoordinate
	}

	if t, ok := facets.Taxon[core.Key]; ok {
		view.ScientificName = t.ScientificName
		view.TaxonRank = t.Rank
		view.Kingdom = t.Kingdom
		view.Phylum = t.Phylum
		view.Class = t.Class
		view.Order = t.Order
		view.Family = t.Family
		view.Genus = t.Genus
	}

	if m, ok := facets.Media[core.Key]; ok {
		view.Media = m.Items
	}

	return view, nil
}

func checkTemporal(t domain.TemporalRecord) error {
	if t.Month < 0 || t.Month > 12 {
		return fmt.Errorf("month %d out of range", t.Month)
	}
	if t.Day < 0 || t.Day > 31 {
		return fmt.Errorf("day %d out of range", t.Day)
	}
	return nil
}

func checkLocation(l domain.LocationRecord) error {
	if !l.HasCoordinate {
		return nil
	}
	if l.DecimalLatitude < -90 || l.DecimalLatitude > 90 {
		return fmt.Errorf("latitude %v out of range", l.DecimalLatitude)
	}
	if l.DecimalLongitude < -180 || l.DecimalLongitude > 180 {
		return fmt.Errorf("longitude %v out of range", l.DecimalLongitude)
	}
	return nil
}

// Package domain holds the record types flowing through the view pipeline.
package domain

import (
	"errors"
	"strings"
	"time"
)

// Key identifies one logical occurrence within a dataset and crawl attempt.
// It is treated as opaque everywhere outside the dataset store.
type Key string

// CoreRecord is the primary facet and the join driver: every key present in
// the core dataset yields exactly one ViewRecord unless conversion drops it.
type CoreRecord struct {
	Key             Key    `json:"key"`
	OccurrenceID    string `json:"occurrenceId"`
	BasisOfRecord   string `json:"basisOfRecord"`
	IndividualCount int    `json:"individualCount"`
	Sex             string `json:"sex"`
	LifeStage       string `json:"lifeStage"`
}

type TemporalRecord struct {
	Key       Key    `json:"key"`
	EventDate string `json:"eventDate"`
	Year      int    `json:"year"`
	Month     int    `json:"month"`
	Day       int    `json:"day"`
}

type LocationRecord struct {
	Key              Key     `json:"key"`
	Country          string  `json:"country"`
	CountryCode      string  `json:"countryCode"`
	StateProvince    string  `json:"stateProvince"`
	DecimalLatitude  float64 `json:"decimalLatitude"`
	DecimalLongitude float64 `json:"decimalLongitude"`
	HasCoordinate    bool    `json:"hasCoordinate"`
}

type TaxonRecord struct {
	Key            Key    `json:"key"`
	ScientificName string `json:"scientificName"`
	Rank           string `json:"rank"`
	Kingdom        string `json:"kingdom"`
	Phylum         string `json:"phylum"`
	Class          string `json:"class"`
	Order          string `json:"order"`
	Family         string `json:"family"`
	Genus          string `json:"genus"`
}

type MediaItem struct {
	Type    string `json:"type"`
	Format  string `json:"format"`
	URI     string `json:"uri"`
	Title   string `json:"title"`
	License string `json:"license"`
}

type MediaRecord struct {
	Key   Key         `json:"key"`
	Items []MediaItem `json:"items"`
}

// DatasetMetadata is the run-wide singleton record. Exactly one per dataset
// attempt; it is stamped onto every ViewRecord.
type DatasetMetadata struct {
	DatasetID string    `json:"datasetId"`
	Attempt   int       `json:"attempt"`
	Title     string    `json:"title"`
	Publisher string    `json:"publisher"`
	License   string    `json:"license"`
	CrawledAt time.Time `json:"crawledAt"`
}

func (r CoreRecord) RecordKey() Key     { return r.Key }
func (r TemporalRecord) RecordKey() Key { return r.Key }
func (r LocationRecord) RecordKey() Key { return r.Key }
func (r TaxonRecord) RecordKey() Key    { return r.Key }
func (r MediaRecord) RecordKey() Key    { return r.Key }

func (m DatasetMetadata) Validate() error {
	if strings.TrimSpace(m.DatasetID) == "" {
		return errors.New("dataset id is required")
	}
	if m.Attempt < 1 {
		return errors.New("attempt must be >= 1")
	}
	return nil
}

// ViewRecord is the denormalized output record: core fields, every facet's
// fields (zero values when the facet is absent for the key), and the dataset
// metadata.
type ViewRecord struct {
	Key Key `json:"key"`

	OccurrenceID    string `json:"occurrenceId"`
	BasisOfRecord   string `json:"basisOfRecord"`
	IndividualCount int    `json:"individualCount"`
	Sex             string `json:"sex,omitempty"`
	LifeStage       string `json:"lifeStage,omitempty"`

	EventDate string `json:"eventDate,omitempty"`
	Year      int    `json:"year,omitempty"`
	Month     int    `json:"month,omitempty"`
	Day       int    `json:"day,omitempty"`

	Country          string  `json:"country,omitempty"`
	CountryCode      string  `json:"countryCode,omitempty"`
	StateProvince    string  `json:"stateProvince,omitempty"`
	DecimalLatitude  float64 `json:"decimalLatitude,omitempty"`
	DecimalLongitude float64 `json:"decimalLongitude,omitempty"`
	HasCoordinate    bool    `json:"hasCoordinate"`

	ScientificName string `json:"scientificName,omitempty"`
	TaxonRank      string `json:"taxonRank,omitempty"`
	Kingdom        string `json:"kingdom,omitempty"`
	Phylum         string `json:"phylum,omitempty"`
	Class          string `json:"class,omitempty"`
	Order          string `json:"order,omitempty"`
	Family         string `json:"family,omitempty"`
	Genus          string `json:"genus,omitempty"`

	Media []MediaItem `json:"media,omitempty"`

	DatasetID        string    `json:"datasetId"`
	DatasetTitle     string    `json:"datasetTitle,omitempty"`
	DatasetPublisher string    `json:"datasetPublisher,omitempty"`
	DatasetLicense   string    `json:"datasetLicense,omitempty"`
	CrawledAt        time.Time `json:"crawledAt"`
}

// Package lineage records published view generations in Postgres so the
// platform can answer which generation a dataset attempt produced.
package lineage

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
)

type PublishRecord struct {
	OccurredAt time.Time
	RunID      string
	DatasetID  string
	Attempt    int
	Generation string
	Metadata   any
}

func (r PublishRecord) Validate() error {
	if r.OccurredAt.IsZero() {
		return errors.New("OccurredAt is required")
	}
	if strings.TrimSpace(r.RunID) == "" {
		return errors.New("RunID is required")
	}
	if strings.TrimSpace(r.DatasetID) == "" {
		return errors.New("DatasetID is required")
	}
	if r.Attempt < 1 {
		return errors.New("Attempt must be >= 1")
	}
	if strings.TrimSpace(r.Generation) == "" {
		return errors.New("Generation is required")
	}
	return nil
}

type QueryRower interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

type Recorder struct {
	q QueryRower
}

func NewRecorder(q QueryRower) (*Recorder, error) {
	if q == nil {
		return nil, errors.New("queryer is required")
	}
	return &Recorder{q: q}, nil
}

func (rec *Recorder) RecordPublish(ctx context.Context, record PublishRecord) (int64, error) {
	if record.OccurredAt.IsZero() {
		record.OccurredAt = time.Now().UTC()
	}
	if err := record.Validate(); err != nil {
		return 0, err
	}

	metadata := record.Metadata
	if metadata == nil {
		metadata = map[string]any{}
	}
	metadataJSON, err := json.Marshal(metadata)
	if err != nil {
		return 0, fmt.Errorf("marshal metadata: %w", err)
	}

	integrity, err := ComputeIntegritySHA256(record, metadataJSON)
	if err != nil {
		return 0, err
	}

	var id int64
	err = rec.q.QueryRowContext(
		ctx,
		`INSERT INTO view_publications (
			occurred_at,
			run_id,
			dataset_id,
			attempt,
			generation,
			metadata,
			integrity_sha256
		) VALUES ($1,$2,$3,$4,$5,$6,$7)
		RETURNING publication_id`,
		record.OccurredAt.UTC(),
		strings.TrimSpace(record.RunID),
		strings.TrimSpace(record.DatasetID),
		record.Attempt,
		strings.TrimSpace(record.Generation),
		metadataJSON,
		integrity,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("insert view publication: %w", err)
	}
	return id, nil
}

func ComputeIntegritySHA256(record PublishRecord, metadataJSON []byte) (string, error) {
	type integrityInput struct {
		OccurredAt time.Time       `json:"occurred_at"`
		RunID      string          `json:"run_id"`
		DatasetID  string          `json:"dataset_id"`
		Attempt    int             `json:"attempt"`
		Generation string          `json:"generation"`
		Metadata   json.RawMessage `json:"metadata"`
	}

	in := integrityInput{
		OccurredAt: record.OccurredAt.UTC(),
		RunID:      strings.TrimSpace(record.RunID),
		DatasetID:  strings.TrimSpace(record.DatasetID),
		Attempt:    record.Attempt,
		Generation: strings.TrimSpace(record.Generation),
		Metadata:   metadataJSON,
	}

	blob, err := json.Marshal(in)
	if err != nil {
		return "", fmt.Errorf("marshal integrity: %w", err)
	}
	sum := sha256.Sum256(blob)
	return hex.EncodeToString(sum[:]), nil
}

package metrics

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"

	"github.com/minio/minio-go/v7"
)

// MinioExporter writes the final snapshot as one JSON object, mirroring the
// per-attempt metrics file the indexing tooling reads back.
type MinioExporter struct {
	client *minio.Client
	bucket string
	key    string
}

func NewMinioExporter(client *minio.Client, bucket, key string) (*MinioExporter, error) {
	if client == nil {
		return nil, fmt.Errorf("minio client is required")
	}
	if bucket == "" || key == "" {
		return nil, fmt.Errorf("bucket and key are required")
	}
	return &MinioExporter{client: client, bucket: bucket, key: key}, nil
}

func (e *MinioExporter) Export(ctx context.Context, snapshot Snapshot) error {
	raw, err := json.MarshalIndent(snapshot, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal snapshot: %w", err)
	}
	_, err = e.client.PutObject(ctx, e.bucket, e.key, bytes.NewReader(raw), int64(len(raw)), minio.PutObjectOptions{
		ContentType: "application/json",
	})
	if err != nil {
		return fmt.Errorf("put %s: %w", e.key, err)
	}
	return nil
}

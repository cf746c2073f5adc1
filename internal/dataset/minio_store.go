package dataset

import (
	"bytes"
	"context"
	"fmt"
	"io"

	"github.com/minio/minio-go/v7"

	"github.com/animus-labs/facetview/internal/viewpath"
)

// MinioStore reads facet datasets from the interpreted-input bucket, one
// NDJSON object per facet under {inputPath}/{datasetID}/{attempt}/.
type MinioStore struct {
	client    *minio.Client
	bucket    string
	inputPath string
}

func NewMinioStore(client *minio.Client, bucket, inputPath string) (*MinioStore, error) {
	if client == nil {
		return nil, fmt.Errorf("minio client is required")
	}
	if bucket == "" {
		return nil, fmt.Errorf("bucket is required")
	}
	return &MinioStore{client: client, bucket: bucket, inputPath: inputPath}, nil
}

func (s *MinioStore) Read(ctx context.Context, kind Kind, datasetID string, attempt int) (io.ReadCloser, error) {
	key := viewpath.FacetObject(s.inputPath, datasetID, attempt, string(kind))

	_, err := s.client.StatObject(ctx, s.bucket, key, minio.StatObjectOptions{})
	if err != nil {
		if minio.ToErrorResponse(err).Code == "NoSuchKey" {
			return io.NopCloser(bytes.NewReader(nil)), nil
		}
		return nil, fmt.Errorf("stat %s: %w", key, err)
	}

	obj, err := s.client.GetObject(ctx, s.bucket, key, minio.GetObjectOptions{})
	if err != nil {
		return nil, fmt.Errorf("get %s: %w", key, err)
	}
	return obj, nil
}

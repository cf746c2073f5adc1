// Package sink writes view batches to the staged generation prefix in the
// views bucket, one NDJSON object per batch.
package sink

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"

	"github.com/minio/minio-go/v7"

	"github.com/animus-labs/facetview/internal/viewpath"
	"github.com/animus-labs/facetview/internal/writer"
)

const ndjsonContentType = "application/x-ndjson"

type MinioSink struct {
	client       *minio.Client
	bucket       string
	stagedPrefix string
}

func NewMinioSink(client *minio.Client, bucket, stagedPrefix string) (*MinioSink, error) {
	if client == nil {
		return nil, fmt.Errorf("minio client is required")
	}
	if bucket == "" {
		return nil, fmt.Errorf("bucket is required")
	}
	if stagedPrefix == "" {
		return nil, fmt.Errorf("staged prefix is required")
	}
	return &MinioSink{client: client, bucket: bucket, stagedPrefix: stagedPrefix}, nil
}

// WriteBatch puts the batch as part-{seq}.ndjson under the staged prefix.
// Batch numbering makes redelivery overwrite the same object, so a retried
// run cannot duplicate records in the staged generation.
func (s *MinioSink) WriteBatch(ctx context.Context, batch writer.Batch) error {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	for _, rec := range batch.Records {
		if err := enc.Encode(rec); err != nil {
			return fmt.Errorf("encode record %s: %w", rec.Key, err)
		}
	}

	key := viewpath.Join(s.stagedPrefix, fmt.Sprintf("part-%05d.ndjson", batch.Seq))
	_, err := s.client.PutObject(ctx, s.bucket, key, &buf, int64(buf.Len()), minio.PutObjectOptions{
		ContentType: ndjsonContentType,
	})
	if err != nil {
		return fmt.Errorf("put %s: %w", key, err)
	}
	return nil
}

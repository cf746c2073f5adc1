package publish

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/minio/minio-go/v7"

	"github.com/animus-labs/facetview/internal/viewpath"
)

// MinioSwapper publishes in an object store, where a prefix cannot be
// renamed atomically. Visibility is instead carried by a single pointer
// object ({live}/_CURRENT) naming the current generation prefix: one
// PutObject flips it, so readers resolve either the old generation or the
// new one, never a mixture. The superseded generation is removed afterwards,
// best-effort.
type MinioSwapper struct {
	client *minio.Client
	bucket string
	logger *slog.Logger
}

func NewMinioSwapper(client *minio.Client, bucket string, logger *slog.Logger) (*MinioSwapper, error) {
	if client == nil {
		return nil, fmt.Errorf("minio client is required")
	}
	if bucket == "" {
		return nil, fmt.Errorf("bucket is required")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &MinioSwapper{client: client, bucket: bucket, logger: logger}, nil
}

func (s *MinioSwapper) Swap(ctx context.Context, staged, live string) error {
	pointerKey := viewpath.Join(live, viewpath.PointerName)

	previous, err := s.currentGeneration(ctx, pointerKey)
	if err != nil {
		return fmt.Errorf("read pointer %s: %w", pointerKey, err)
	}

	body := strings.NewReader(staged + "\n")
	_, err = s.client.PutObject(ctx, s.bucket, pointerKey, body, int64(len(staged)+1), minio.PutObjectOptions{
		ContentType: "text/plain",
	})
	if err != nil {
		// The pointer still names the previous generation; nothing changed
		// for readers.
		return fmt.Errorf("flip pointer %s: %w", pointerKey, err)
	}

	if previous != "" && previous != staged {
		s.removeGeneration(ctx, previous)
	}
	return nil
}

func (s *MinioSwapper) currentGeneration(ctx context.Context, pointerKey string) (string, error) {
	obj, err := s.client.GetObject(ctx, s.bucket, pointerKey, minio.GetObjectOptions{})
	if err != nil {
		return "", err
	}
	defer func() { _ = obj.Close() }()

	raw, err := io.ReadAll(obj)
	if err != nil {
		if minio.ToErrorResponse(err).Code == "NoSuchKey" {
			return "", nil
		}
		return "", err
	}
	return strings.TrimSpace(string(raw)), nil
}

// removeGeneration deletes a superseded generation's objects. Failures are
// logged, not surfaced: the publish already succeeded and leftover objects
// are unreachable through the pointer.
func (s *MinioSwapper) removeGeneration(ctx context.Context, prefix string) {
	opts := minio.ListObjectsOptions{Prefix: prefix + viewpath.Separator, Recursive: true}
	for obj := range s.client.ListObjects(ctx, s.bucket, opts) {
		if obj.Err != nil {
			s.logger.Warn("list superseded generation", "prefix", prefix, "error", obj.Err)
			return
		}
		if err := s.client.RemoveObject(ctx, s.bucket, obj.Key, minio.RemoveObjectOptions{}); err != nil {
			s.logger.Warn("remove superseded object", "key", obj.Key, "error", err)
		}
	}
}

package objectstore

import (
	"errors"
	"fmt"
	"strings"

	"github.com/animus-labs/facetview/internal/platform/env"
)

type Config struct {
	Endpoint    string
	AccessKey   string
	SecretKey   string
	Region      string
	UseSSL      bool
	BucketInput string
	BucketViews string
}

func ConfigFromEnv() (Config, error) {
	useSSL, err := env.Bool("FACETVIEW_MINIO_USE_SSL", false)
	if err != nil {
		return Config{}, err
	}
	cfg := Config{
		Endpoint:    env.String("FACETVIEW_MINIO_ENDPOINT", "localhost:9000"),
		AccessKey:   env.String("FACETVIEW_MINIO_ACCESS_KEY", "facetview"),
		SecretKey:   env.String("FACETVIEW_MINIO_SECRET_KEY", "facetviewminio"),
		Region:      env.String("FACETVIEW_MINIO_REGION", "us-east-1"),
		UseSSL:      useSSL,
		BucketInput: env.String("FACETVIEW_MINIO_BUCKET_INPUT", "interpreted"),
		BucketViews: env.String("FACETVIEW_MINIO_BUCKET_VIEWS", "views"),
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) Validate() error {
	if strings.TrimSpace(c.Endpoint) == "" {
		return errors.New("endpoint is required")
	}
	if strings.TrimSpace(c.AccessKey) == "" {
		return errors.New("access key is required")
	}
	if strings.TrimSpace(c.SecretKey) == "" {
		return errors.New("secret key is required")
	}
	if strings.TrimSpace(c.Region) == "" {
		return errors.New("region is required")
	}
	if strings.TrimSpace(c.BucketInput) == "" {
		return errors.New("input bucket is required")
	}
	if strings.TrimSpace(c.BucketViews) == "" {
		return errors.New("views bucket is required")
	}
	if strings.Contains(c.Endpoint, "://") {
		return fmt.Errorf("endpoint must not include scheme: %q", c.Endpoint)
	}
	return nil
}

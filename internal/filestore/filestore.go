// Package filestore persists the opaque document payloads a campaign
// references: the uploaded leads CSV and the template HTML body. Documents
// are keyed by campaign id and stored either on local disk or in S3,
// selected by configuration.
package filestore

import (
	"context"
	"errors"
	"fmt"

	"github.com/ignite/campaign-runner/internal/config"
)

// ErrNotFound reports a document key with no stored payload.
var ErrNotFound = errors.New("filestore: document not found")

// Store is the document contract the services depend on.
type Store interface {
	Put(ctx context.Context, key string, data []byte) error
	Get(ctx context.Context, key string) ([]byte, error)
	Delete(ctx context.Context, key string) error
}

// LeadsKey returns the document key for a campaign's recipient file.
func LeadsKey(campaignID string) string {
	return "leads_" + campaignID + ".csv"
}

// TemplateKey returns the document key for a campaign's template body.
func TemplateKey(campaignID string) string {
	return "template_" + campaignID + ".html"
}

// New builds the store the configuration selects: "s3" when a bucket is
// configured, local disk otherwise.
func New(ctx context.Context, cfg config.StorageConfig) (Store, error) {
	switch cfg.Type {
	case "s3":
		if cfg.S3Bucket == "" {
			return nil, fmt.Errorf("filestore: s3 storage selected but no bucket configured")
		}
		return NewS3(ctx, cfg.S3Bucket, cfg.AWSRegion, cfg.GetAWSProfile())
	case "local", "":
		return NewLocal(cfg.LocalPath)
	default:
		return nil, fmt.Errorf("filestore: unknown storage type %q", cfg.Type)
	}
}

package archive

import (
	"context"
	"errors"
	"fmt"

	gcs "cloud.google.com/go/storage"
	"google.golang.org/api/option"
)

// GCSConfig configures the GCS uploader.
type GCSConfig struct {
	Bucket          string // Required
	CredentialsFile string // Optional: path to service account JSON file
	CredentialsJSON []byte // Optional: service account JSON content
	// ClientOptions are appended after the credential options.
	ClientOptions []option.ClientOption
}

// GCSUploader uploads objects to a Google Cloud Storage bucket.
type GCSUploader struct {
	client *gcs.Client
	bucket string
}

// NewGCSUploader creates an uploader. Without credentials it uses
// Application Default Credentials.
func NewGCSUploader(ctx context.Context, cfg GCSConfig) (*GCSUploader, error) {
	if cfg.Bucket == "" {
		return nil, errors.New("gcs bucket is required")
	}

	var opts []option.ClientOption
	if cfg.CredentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(cfg.CredentialsFile))
	} else if len(cfg.CredentialsJSON) > 0 {
		opts = append(opts, option.WithCredentialsJSON(cfg.CredentialsJSON))
	}
	opts = append(opts, cfg.ClientOptions...)

	client, err := gcs.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create GCS client: %w", err)
	}
	return &GCSUploader{client: client, bucket: cfg.Bucket}, nil
}

// Upload writes one object.
func (u *GCSUploader) Upload(ctx context.Context, key string, body []byte, contentType string) error {
	writer := u.client.Bucket(u.bucket).Object(key).NewWriter(ctx)
	writer.ContentType = contentType

	if _, err := writer.Write(body); err != nil {
		writer.Close() // #nosec G104 -- best-effort cleanup in error path
		return fmt.Errorf("failed to write object: %w", err)
	}
	if err := writer.Close(); err != nil {
		return fmt.Errorf("failed to finalize object: %w", err)
	}
	return nil
}

// Close closes the GCS client.
func (u *GCSUploader) Close() error {
	return u.client.Close()
}

var _ Uploader = (*GCSUploader)(nil)

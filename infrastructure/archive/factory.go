package archive

import (
	"context"
	"fmt"

	"github.com/YagmurCemGul/boltinsight-production-sub002/domain/config"
)

// New builds the archiver selected by cfg. It returns nil for the none
// driver so callers can skip archival entirely.
func New(ctx context.Context, cfg config.ArchiveConfig) (Archiver, error) {
	var (
		uploader Uploader
		err      error
	)

	switch cfg.Driver {
	case "", config.ArchiveNone:
		return nil, nil
	case config.ArchiveFilesystem:
		uploader, err = NewFilesystemUploader(cfg.Path)
	case config.ArchiveS3:
		uploader, err = NewS3Uploader(ctx, S3Config{
			Bucket:   cfg.Bucket,
			Region:   cfg.Region,
			Endpoint: cfg.Endpoint,
		})
	case config.ArchiveGCS:
		uploader, err = NewGCSUploader(ctx, GCSConfig{
			Bucket:          cfg.Bucket,
			CredentialsFile: cfg.CredentialsFile,
		})
	case config.ArchiveAzure:
		uploader, err = NewAzureUploader(AzureConfig{
			Container:        cfg.Bucket,
			AccountName:      cfg.AccountName,
			ConnectionString: cfg.ConnectionString,
		})
	default:
		return nil, fmt.Errorf("%w: archive driver %q", config.ErrUnknownDriver, cfg.Driver)
	}
	if err != nil {
		return nil, err
	}
	return NewObjectArchiver(uploader, WithPrefix(cfg.Prefix)), nil
}

package archive

import (
	"context"
	"errors"
	"fmt"

	"github.com/Azure/azure-sdk-for-go/sdk/azidentity"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob/blob"
)

// AzureConfig configures the Azure Blob uploader.
type AzureConfig struct {
	Container        string // Required
	AccountName      string // Azure Storage account name
	AccountKey       string // Optional: storage account key
	ConnectionString string // Optional: full connection string
	// If neither AccountKey nor ConnectionString is provided, uses DefaultAzureCredential.
}

// AzureUploader uploads block blobs to a container.
type AzureUploader struct {
	client    *azblob.Client
	container string
}

// NewAzureUploader creates an uploader from cfg.
func NewAzureUploader(cfg AzureConfig) (*AzureUploader, error) {
	if cfg.Container == "" {
		return nil, errors.New("azure container is required")
	}
	if cfg.AccountName == "" && cfg.ConnectionString == "" {
		return nil, errors.New("account name or connection string is required")
	}

	var (
		client *azblob.Client
		err    error
	)
	serviceURL := fmt.Sprintf("https://%s.blob.core.windows.net/", cfg.AccountName)

	switch {
	case cfg.ConnectionString != "":
		client, err = azblob.NewClientFromConnectionString(cfg.ConnectionString, nil)
		if err != nil {
			return nil, fmt.Errorf("failed to create client from connection string: %w", err)
		}
	case cfg.AccountKey != "":
		cred, credErr := azblob.NewSharedKeyCredential(cfg.AccountName, cfg.AccountKey)
		if credErr != nil {
			return nil, fmt.Errorf("failed to create shared key credential: %w", credErr)
		}
		client, err = azblob.NewClientWithSharedKeyCredential(serviceURL, cred, nil)
		if err != nil {
			return nil, fmt.Errorf("failed to create client with shared key: %w", err)
		}
	default:
		cred, credErr := azidentity.NewDefaultAzureCredential(nil)
		if credErr != nil {
			return nil, fmt.Errorf("failed to create default credential: %w", credErr)
		}
		client, err = azblob.NewClient(serviceURL, cred, nil)
		if err != nil {
			return nil, fmt.Errorf("failed to create client with default credential: %w", err)
		}
	}

	return &AzureUploader{client: client, container: cfg.Container}, nil
}

// Upload writes one block blob.
func (u *AzureUploader) Upload(ctx context.Context, key string, body []byte, contentType string) error {
	_, err := u.client.UploadBuffer(ctx, u.container, key, body, &azblob.UploadBufferOptions{
		HTTPHeaders: &blob.HTTPHeaders{BlobContentType: &contentType},
	})
	if err != nil {
		return fmt.Errorf("failed to upload blob: %w", err)
	}
	return nil
}

var _ Uploader = (*AzureUploader)(nil)

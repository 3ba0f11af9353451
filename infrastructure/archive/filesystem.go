package archive

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
)

// FilesystemUploader writes objects below a base directory.
type FilesystemUploader struct {
	basePath string
}

// NewFilesystemUploader creates the base directory if needed.
func NewFilesystemUploader(basePath string) (*FilesystemUploader, error) {
	if basePath == "" {
		return nil, fmt.Errorf("archive path is required")
	}
	if err := os.MkdirAll(basePath, 0750); err != nil {
		return nil, fmt.Errorf("failed to create archive directory: %w", err)
	}
	return &FilesystemUploader{basePath: basePath}, nil
}

// Path returns the file path for key.
func (u *FilesystemUploader) Path(key string) string {
	return filepath.Join(u.basePath, filepath.FromSlash(key))
}

// Upload writes body atomically through a temp file and rename.
func (u *FilesystemUploader) Upload(ctx context.Context, key string, body []byte, _ string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	target := u.Path(key)
	if err := os.MkdirAll(filepath.Dir(target), 0750); err != nil {
		return fmt.Errorf("failed to create archive path: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(target), ".archive-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	if _, err := tmp.Write(body); err != nil {
		tmp.Close()           // #nosec G104 -- best-effort cleanup in error path
		os.Remove(tmp.Name()) // #nosec G104 -- best-effort cleanup in error path
		return fmt.Errorf("failed to write archive: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name()) // #nosec G104 -- best-effort cleanup in error path
		return fmt.Errorf("failed to close archive: %w", err)
	}
	if err := os.Chmod(tmp.Name(), 0640); err != nil {
		os.Remove(tmp.Name()) // #nosec G104 -- best-effort cleanup in error path
		return fmt.Errorf("failed to set archive permissions: %w", err)
	}
	if err := os.Rename(tmp.Name(), target); err != nil {
		os.Remove(tmp.Name()) // #nosec G104 -- best-effort cleanup in error path
		return fmt.Errorf("failed to move archive into place: %w", err)
	}
	return nil
}

var _ Uploader = (*FilesystemUploader)(nil)

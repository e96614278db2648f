package blobstore

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"

	"github.com/dmitrijs2005/filekeeper/internal/filex"
)

// DiskVault stores blobs under <base>/<userID>/<name> on the local
// filesystem. The handle is the full file path.
type DiskVault struct {
	base string
}

// NewDiskVault creates the base directory if missing and returns a vault
// rooted there.
func NewDiskVault(base string) (*DiskVault, error) {
	if err := filex.EnsureDir(base); err != nil {
		return nil, err
	}
	return &DiskVault{base: base}, nil
}

func (v *DiskVault) Save(ctx context.Context, userID int64, name string, r io.Reader) (string, error) {
	dir := filepath.Join(v.base, strconv.FormatInt(userID, 10))
	if err := filex.EnsureDir(dir); err != nil {
		return "", err
	}

	path := filepath.Join(dir, name)
	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("create %s: %w", path, err)
	}

	if _, err := io.Copy(f, r); err != nil {
		f.Close()
		os.Remove(path)
		return "", fmt.Errorf("write %s: %w", path, err)
	}
	if err := f.Close(); err != nil {
		return "", fmt.Errorf("close %s: %w", path, err)
	}

	return path, nil
}

func (v *DiskVault) Remove(ctx context.Context, handle string) error {
	if err := os.Remove(handle); err != nil {
		return fmt.Errorf("remove %s: %w", handle, err)
	}
	return nil
}

package filex

import (
	"fmt"
	"os"
)

// EnsureDir creates dir (and any missing parents) with 0o770 permissions.
// Existing directories are left untouched.
func EnsureDir(dir string) error {
	if err := os.MkdirAll(dir, 0o770); err != nil {
		return fmt.Errorf("mkdir %s: %w", dir, err)
	}
	return nil
}

package workspace_fs

import (
	"context"
	"errors"
	"os"
	"path/filepath"
)

type Cleaner struct{}

func New() *Cleaner { return &Cleaner{} }

// Clean removes the workspace tree. Refuses obviously wrong targets so a
// misconfigured run cannot wipe the filesystem root or a home directory.
func (c *Cleaner) Clean(_ context.Context, dir string) error {
	if dir == "" {
		return errors.New("workspace path is empty")
	}

	abs, err := filepath.Abs(dir)
	if err != nil {
		return err
	}
	if abs == string(filepath.Separator) {
		return errors.New("refusing to remove filesystem root")
	}
	if home, err := os.UserHomeDir(); err == nil && abs == home {
		return errors.New("refusing to remove home directory")
	}

	return os.RemoveAll(abs)
}

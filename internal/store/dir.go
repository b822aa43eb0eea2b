package store

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
)

// DirSink writes documents into a local directory.
type DirSink struct {
	dir string
}

func NewDirSink(dir string) (*DirSink, error) {
	if dir == "" {
		dir = "."
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create directory %s: %w", dir, err)
	}
	return &DirSink{dir: dir}, nil
}

func (d *DirSink) Write(ctx context.Context, name string, fill FillFunc) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	tmp, err := os.CreateTemp(d.dir, "."+name+".*")
	if err != nil {
		return "", fmt.Errorf("failed to create file for %s: %w", name, err)
	}
	defer func() {
		_ = os.Remove(tmp.Name())
	}()

	if _, err := fill(tmp); err != nil {
		_ = tmp.Close()
		return "", err
	}
	if err := tmp.Close(); err != nil {
		return "", fmt.Errorf("failed to write %s: %w", name, err)
	}

	dst := filepath.Join(d.dir, name)
	if err := os.Rename(tmp.Name(), dst); err != nil {
		return "", fmt.Errorf("failed to move %s into place: %w", name, err)
	}
	return dst, nil
}

func (d *DirSink) Type() string {
	return "dir"
}

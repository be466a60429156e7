package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

const (
	fileDirPermissions = 0700
	filePermissions    = 0600
)

// fileEnvelope is the on-disk layout of a FileBackend blob.
type fileEnvelope struct {
	Version int             `json:"version"`
	Key     string          `json:"key"`
	Data    json.RawMessage `json:"data"`
}

// FileBackend stores each key as <dir>/<key>.json.
//
// Writes go to a temporary file in the same directory, are fsynced, then
// renamed over the target, so readers see either the old or the new blob.
type FileBackend struct {
	dir string
}

// NewFileBackend returns a backend rooted at dir. The directory is created
// on first write.
func NewFileBackend(dir string) *FileBackend {
	return &FileBackend{dir: dir}
}

// Dir returns the backend's root directory.
func (b *FileBackend) Dir() string { return b.dir }

func (b *FileBackend) path(key string) (string, error) {
	if key == "" || strings.ContainsAny(key, `/\`) || key == "." || key == ".." {
		return "", fmt.Errorf("invalid storage key %q", key)
	}
	return filepath.Join(b.dir, key+".json"), nil
}

// Read implements Backend.
func (b *FileBackend) Read(_ context.Context, key string) (Blob, bool, error) {
	p, err := b.path(key)
	if err != nil {
		return Blob{}, false, err
	}

	raw, err := os.ReadFile(p)
	if errors.Is(err, fs.ErrNotExist) {
		return Blob{}, false, nil
	}
	if err != nil {
		return Blob{}, false, fmt.Errorf("reading %s: %w", p, err)
	}

	var env fileEnvelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return Blob{}, false, fmt.Errorf("%w: %s: %w", ErrCorrupt, p, err)
	}
	return Blob{Version: env.Version, Data: env.Data}, true, nil
}

// Write implements Backend.
func (b *FileBackend) Write(ctx context.Context, key string, blob Blob) error {
	p, err := b.path(key)
	if err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	raw, err := json.MarshalIndent(fileEnvelope{Version: blob.Version, Key: key, Data: blob.Data}, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding envelope: %w", err)
	}

	if err := os.MkdirAll(b.dir, fileDirPermissions); err != nil {
		return fmt.Errorf("creating storage directory: %w", err)
	}

	tmp, err := os.CreateTemp(b.dir, key+".*.tmp")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	tmpName := tmp.Name()
	committed := false
	defer func() {
		if !committed {
			os.Remove(tmpName) //nolint:errcheck // Best effort cleanup
		}
	}()

	if _, err := tmp.Write(raw); err != nil {
		tmp.Close() //nolint:errcheck // Already failing
		return fmt.Errorf("writing temp file: %w", err)
	}
	if err := tmp.Chmod(filePermissions); err != nil {
		tmp.Close() //nolint:errcheck // Already failing
		return fmt.Errorf("setting permissions: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close() //nolint:errcheck // Already failing
		return fmt.Errorf("syncing temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("closing temp file: %w", err)
	}
	if err := os.Rename(tmpName, p); err != nil {
		return fmt.Errorf("replacing %s: %w", p, err)
	}
	committed = true
	return nil
}

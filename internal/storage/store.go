package storage

import (
	"context"
	"encoding/json"
	"fmt"
)

// Blob is the unit a Backend reads and writes.
type Blob struct {
	Version int
	Data    json.RawMessage
}

// Backend is a key-addressed blob store.
//
// Read returns found=false with a nil error when nothing is stored under key.
// Implementations must be safe for concurrent use.
type Backend interface {
	Read(ctx context.Context, key string) (blob Blob, found bool, err error)
	Write(ctx context.Context, key string, blob Blob) error
}

// MigrateFunc upgrades data written with an older schema version to the
// current one.
type MigrateFunc func(fromVersion int, data json.RawMessage) (json.RawMessage, error)

// Option configures a Store.
type Option func(*Store)

// WithMigrate installs a hook for blobs older than the store's version.
// Without one, older blobs are decoded as-is.
func WithMigrate(fn MigrateFunc) Option {
	return func(s *Store) { s.migrate = fn }
}

// Store reads and writes a single versioned blob.
type Store struct {
	backend Backend
	key     string
	version int
	migrate MigrateFunc
}

// New returns a Store for key at the given schema version.
func New(backend Backend, key string, version int, opts ...Option) *Store {
	s := &Store{backend: backend, key: key, version: version}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Key returns the storage key.
func (s *Store) Key() string { return s.key }

// Version returns the schema version written by Save.
func (s *Store) Version() int { return s.version }

// Load decodes the stored blob into v.
//
// Returns:
//   - found: false when nothing has been saved yet (v is untouched)
//   - error: wrapping ErrIO, ErrCorrupt or ErrUnsupportedVersion
func (s *Store) Load(ctx context.Context, v any) (bool, error) {
	blob, found, err := s.backend.Read(ctx, s.key)
	if err != nil {
		return false, fmt.Errorf("%w: reading %s: %w", ErrIO, s.key, err)
	}
	if !found {
		return false, nil
	}

	if blob.Version > s.version {
		return false, fmt.Errorf("%w: %s has version %d, supported %d",
			ErrUnsupportedVersion, s.key, blob.Version, s.version)
	}

	data := blob.Data
	if blob.Version < s.version && s.migrate != nil {
		data, err = s.migrate(blob.Version, data)
		if err != nil {
			return false, fmt.Errorf("migrating %s from version %d: %w", s.key, blob.Version, err)
		}
	}

	if len(data) == 0 || string(data) == "null" {
		return true, nil
	}
	if err := json.Unmarshal(data, v); err != nil {
		return false, fmt.Errorf("%w: decoding %s: %w", ErrCorrupt, s.key, err)
	}
	return true, nil
}

// Save encodes v and replaces the stored blob in full.
func (s *Store) Save(ctx context.Context, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encoding %s: %w", s.key, err)
	}

	if err := s.backend.Write(ctx, s.key, Blob{Version: s.version, Data: data}); err != nil {
		return fmt.Errorf("%w: writing %s: %w", ErrIO, s.key, err)
	}
	return nil
}

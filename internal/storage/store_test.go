package storage

import (
	"context"
	"encoding/json"
	"errors"
	"path/filepath"
	"sync"
	"testing"

	"github.com/kimballen/acre-Intrusion/internal/infrastructure/config"
	"github.com/kimballen/acre-Intrusion/internal/infrastructure/database"
	"github.com/kimballen/acre-Intrusion/migrations"
)

type table map[string]string

// memBackend is an in-memory Backend with failure injection.
type memBackend struct {
	mu       sync.Mutex
	blobs    map[string]Blob
	readErr  error
	writeErr error
	writes   int
}

func newMemBackend() *memBackend {
	return &memBackend{blobs: make(map[string]Blob)}
}

func (m *memBackend) Read(_ context.Context, key string) (Blob, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.readErr != nil {
		return Blob{}, false, m.readErr
	}
	b, ok := m.blobs[key]
	return b, ok, nil
}

func (m *memBackend) Write(_ context.Context, key string, blob Blob) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.writeErr != nil {
		return m.writeErr
	}
	m.writes++
	m.blobs[key] = blob
	return nil
}

func openTestDB(t *testing.T) *database.DB {
	t.Helper()
	ctx := context.Background()
	db, err := database.Open(ctx, config.DatabaseConfig{
		Path:        filepath.Join(t.TempDir(), "test.db"),
		WALMode:     true,
		BusyTimeout: 5,
	})
	if err != nil {
		t.Fatalf("opening test database: %v", err)
	}
	t.Cleanup(func() { db.Close() }) //nolint:errcheck // Test cleanup
	if err := db.Migrate(ctx, migrations.FS); err != nil {
		t.Fatalf("migrating test database: %v", err)
	}
	return db
}

// backends returns every real backend, freshly created.
func backends(t *testing.T) map[string]Backend {
	t.Helper()
	return map[string]Backend{
		"sqlite": NewSQLiteBackend(openTestDB(t)),
		"file":   NewFileBackend(filepath.Join(t.TempDir(), ".storage")),
	}
}

func TestStore_RoundTrip(t *testing.T) {
	for name, backend := range backends(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			s := New(backend, "acre_intrusion_pins", 1)

			var got table
			found, err := s.Load(ctx, &got)
			if err != nil {
				t.Fatalf("Load() on empty backend error = %v", err)
			}
			if found {
				t.Fatal("Load() on empty backend reported found")
			}

			want := table{"admin": "x", "alice": "y"}
			if err := s.Save(ctx, want); err != nil {
				t.Fatalf("Save() error = %v", err)
			}
			if err := s.Save(ctx, table{"admin": "z"}); err != nil {
				t.Fatalf("second Save() error = %v", err)
			}

			got = nil
			found, err = s.Load(ctx, &got)
			if err != nil || !found {
				t.Fatalf("Load() = %v, %v; want found", found, err)
			}
			if len(got) != 1 || got["admin"] != "z" {
				t.Errorf("Load() = %v, want only the last saved table", got)
			}
		})
	}
}

func TestStore_KeysAreIndependent(t *testing.T) {
	for name, backend := range backends(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			a := New(backend, "a", 1)
			b := New(backend, "b", 1)

			if err := a.Save(ctx, table{"k": "a"}); err != nil {
				t.Fatalf("Save() error = %v", err)
			}
			var got table
			found, err := b.Load(ctx, &got)
			if err != nil || found {
				t.Errorf("b.Load() = %v, %v; want not found", found, err)
			}
		})
	}
}

func TestStore_ReadFailureIsIO(t *testing.T) {
	mem := newMemBackend()
	mem.readErr = errors.New("disk on fire")
	s := New(mem, "k", 1)

	_, err := s.Load(context.Background(), &table{})
	if !errors.Is(err, ErrIO) {
		t.Errorf("Load() error = %v, want ErrIO", err)
	}
}

func TestStore_WriteFailureIsIO(t *testing.T) {
	mem := newMemBackend()
	mem.writeErr = errors.New("read-only filesystem")
	s := New(mem, "k", 1)

	err := s.Save(context.Background(), table{})
	if !errors.Is(err, ErrIO) {
		t.Errorf("Save() error = %v, want ErrIO", err)
	}
}

func TestStore_NewerVersionRejected(t *testing.T) {
	mem := newMemBackend()
	mem.blobs["k"] = Blob{Version: 2, Data: json.RawMessage(`{}`)}

	_, err := New(mem, "k", 1).Load(context.Background(), &table{})
	if !errors.Is(err, ErrUnsupportedVersion) {
		t.Errorf("Load() error = %v, want ErrUnsupportedVersion", err)
	}
}

func TestStore_MigrateOlderVersion(t *testing.T) {
	mem := newMemBackend()
	mem.blobs["k"] = Blob{Version: 1, Data: json.RawMessage(`["alice"]`)}

	var calledWith int
	s := New(mem, "k", 2, WithMigrate(func(from int, data json.RawMessage) (json.RawMessage, error) {
		calledWith = from
		return json.RawMessage(`{"alice":"migrated"}`), nil
	}))

	var got table
	found, err := s.Load(context.Background(), &got)
	if err != nil || !found {
		t.Fatalf("Load() = %v, %v", found, err)
	}
	if calledWith != 1 {
		t.Errorf("migrate called with version %d, want 1", calledWith)
	}
	if got["alice"] != "migrated" {
		t.Errorf("Load() = %v, want migrated data", got)
	}
}

func TestStore_CorruptData(t *testing.T) {
	mem := newMemBackend()
	mem.blobs["k"] = Blob{Version: 1, Data: json.RawMessage(`"not a table"`)}

	_, err := New(mem, "k", 1).Load(context.Background(), &table{})
	if !errors.Is(err, ErrCorrupt) {
		t.Errorf("Load() error = %v, want ErrCorrupt", err)
	}
}

func TestNewBackend(t *testing.T) {
	db := openTestDB(t)

	tests := []struct {
		name    string
		cfg     config.StorageConfig
		db      SQLDB
		want    string
		wantErr bool
	}{
		{name: "sqlite", cfg: config.StorageConfig{Backend: "sqlite"}, db: db, want: "*storage.SQLiteBackend"},
		{name: "sqlite without db", cfg: config.StorageConfig{Backend: "sqlite"}, wantErr: true},
		{name: "file", cfg: config.StorageConfig{Backend: "file", Dir: t.TempDir()}, want: "*storage.FileBackend"},
		{name: "unknown", cfg: config.StorageConfig{Backend: "redis"}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b, err := NewBackend(tt.cfg, tt.db)
			if (err != nil) != tt.wantErr {
				t.Fatalf("NewBackend() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr {
				return
			}
			switch b.(type) {
			case *SQLiteBackend:
				if tt.want != "*storage.SQLiteBackend" {
					t.Errorf("got SQLiteBackend, want %s", tt.want)
				}
			case *FileBackend:
				if tt.want != "*storage.FileBackend" {
					t.Errorf("got FileBackend, want %s", tt.want)
				}
			}
		})
	}
}

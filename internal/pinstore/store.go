package pinstore

import (
	"context"
	"fmt"
	"maps"
	"slices"
	"sync"

	"github.com/kimballen/acre-Intrusion/internal/infrastructure/logging"
)

// Persistence identifiers for the credential table.
const (
	StorageKey     = "acre_intrusion_pins"
	StorageVersion = 1
)

// AdminIdentity is the reserved identity that unlocks credential administration.
const AdminIdentity = "admin"

// Record is one stored credential.
type Record struct {
	PINHash string `json:"pin_hash"`
	Salt    string `json:"salt"`
}

// BlobStore persists the whole credential table. *storage.Store satisfies it.
type BlobStore interface {
	Load(ctx context.Context, v any) (found bool, err error)
	Save(ctx context.Context, v any) error
}

// Store is the in-memory credential table mirrored to a BlobStore.
//
// Thread Safety:
//   - All methods are safe for concurrent use.
//   - Mutations are serialised; key derivation runs outside the lock.
type Store struct {
	mu      sync.RWMutex
	records map[string]Record
	blobs   BlobStore
	logger  *logging.Logger
}

// New returns an empty Store. Call Load to read the persisted table.
func New(blobs BlobStore, logger *logging.Logger) *Store {
	return &Store{
		records: make(map[string]Record),
		blobs:   blobs,
		logger:  logger.With("component", "pinstore"),
	}
}

// Load replaces the in-memory table with the persisted one. Nothing
// persisted yet yields an empty table. On error the current table is kept
// and the error wraps storage.ErrIO for backend failures.
func (s *Store) Load(ctx context.Context) error {
	loaded := make(map[string]Record)
	if _, err := s.blobs.Load(ctx, &loaded); err != nil {
		return fmt.Errorf("loading credentials: %w", err)
	}

	s.mu.Lock()
	s.records = loaded
	s.mu.Unlock()

	s.logger.Info("credentials loaded", "identities", len(loaded), "admin_configured", loaded[AdminIdentity].PINHash != "")
	return nil
}

// StorePIN sets identity's PIN with a fresh salt and persists the table.
// An existing record is overwritten. If persisting fails the table is left
// as it was.
func (s *Store) StorePIN(ctx context.Context, identity, pin string) error {
	if identity == "" {
		return ErrEmptyIdentity
	}

	hash, salt, err := HashPIN(pin, "")
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	existed, err := s.putLocked(ctx, identity, Record{PINHash: hash, Salt: salt})
	if err != nil {
		return err
	}

	s.logger.Info("pin stored", "identity", identity, "replaced", existed)
	return nil
}

// CreateAdmin stores the first admin PIN. It returns ErrAdminExists if an
// admin is already configured; the check and the write hold one lock.
func (s *Store) CreateAdmin(ctx context.Context, pin string) error {
	hash, salt, err := HashPIN(pin, "")
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.records[AdminIdentity]; ok {
		return ErrAdminExists
	}
	if _, err := s.putLocked(ctx, AdminIdentity, Record{PINHash: hash, Salt: salt}); err != nil {
		return err
	}

	s.logger.Info("admin pin created")
	return nil
}

// putLocked sets identity's record and persists the table, restoring the
// previous record if persisting fails. Caller holds s.mu for writing.
func (s *Store) putLocked(ctx context.Context, identity string, rec Record) (bool, error) {
	prev, existed := s.records[identity]
	s.records[identity] = rec

	if err := s.saveLocked(ctx); err != nil {
		if existed {
			s.records[identity] = prev
		} else {
			delete(s.records, identity)
		}
		return existed, err
	}
	return existed, nil
}

// StoreAdminPIN is StorePIN for the admin identity.
func (s *Store) StoreAdminPIN(ctx context.Context, pin string) error {
	return s.StorePIN(ctx, AdminIdentity, pin)
}

// Verify checks pin against identity's record, or against every record
// when identity is empty. It never fails: anything that is not a match is
// false.
func (s *Store) Verify(pin, identity string) bool {
	if identity == "" {
		_, ok := s.Match(pin)
		return ok
	}
	if pin == "" {
		return false
	}

	s.mu.RLock()
	rec, ok := s.records[identity]
	s.mu.RUnlock()

	return matches(pin, rec) && ok
}

// VerifyAdmin checks pin against the admin record.
func (s *Store) VerifyAdmin(pin string) bool {
	return s.Verify(pin, AdminIdentity)
}

// Match checks pin against every record and returns the identity it
// belongs to. Every record is hashed regardless of where the match is.
// If several identities share the PIN the first in sorted order wins.
func (s *Store) Match(pin string) (string, bool) {
	if pin == "" {
		return "", false
	}

	s.mu.RLock()
	snapshot := maps.Clone(s.records)
	s.mu.RUnlock()

	var matched string
	found := 0
	for _, identity := range slices.Sorted(maps.Keys(snapshot)) {
		hit := matches(pin, snapshot[identity])
		if hit && found == 0 {
			matched = identity
		}
		if hit {
			found++
		}
	}
	return matched, found > 0
}

// Remove deletes identity and persists the table. The admin identity is
// refused with ErrProtectedIdentity. Removing an unknown identity is a
// no-op that does not write.
func (s *Store) Remove(ctx context.Context, identity string) error {
	if identity == AdminIdentity {
		return ErrProtectedIdentity
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	prev, ok := s.records[identity]
	if !ok {
		return nil
	}
	delete(s.records, identity)

	if err := s.saveLocked(ctx); err != nil {
		s.records[identity] = prev
		return err
	}

	s.logger.Info("identity removed", "identity", identity)
	return nil
}

// Identities returns every stored identity, admin included, sorted.
func (s *Store) Identities() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Sorted(maps.Keys(s.records))
}

// UserRecords returns a copy of every record except admin.
func (s *Store) UserRecords() map[string]Record {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make(map[string]Record, len(s.records))
	for identity, rec := range s.records {
		if identity != AdminIdentity {
			out[identity] = rec
		}
	}
	return out
}

// HasIdentity reports whether identity has a stored PIN.
func (s *Store) HasIdentity(identity string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.records[identity]
	return ok
}

// HasAdmin reports whether an admin PIN is configured.
func (s *Store) HasAdmin() bool {
	return s.HasIdentity(AdminIdentity)
}

// saveLocked persists the full table. Caller holds s.mu for writing.
func (s *Store) saveLocked(ctx context.Context) error {
	if err := s.blobs.Save(ctx, s.records); err != nil {
		s.logger.Error("persisting credentials failed", "error", err)
		return fmt.Errorf("saving credentials: %w", err)
	}
	return nil
}

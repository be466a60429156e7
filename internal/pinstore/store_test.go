package pinstore

import (
	"context"
	"encoding/json"
	"errors"
	"path/filepath"
	"slices"
	"sync"
	"testing"

	"github.com/kimballen/acre-Intrusion/internal/infrastructure/logging"
	"github.com/kimballen/acre-Intrusion/internal/storage"
)

// fakeBlobs is an in-memory BlobStore that round-trips through JSON and can
// be told to fail.
type fakeBlobs struct {
	mu      sync.Mutex
	data    []byte
	saves   int
	loadErr error
	saveErr error
}

func (f *fakeBlobs) Load(_ context.Context, v any) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.loadErr != nil {
		return false, f.loadErr
	}
	if f.data == nil {
		return false, nil
	}
	return true, json.Unmarshal(f.data, v)
}

func (f *fakeBlobs) Save(_ context.Context, v any) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.saveErr != nil {
		return f.saveErr
	}
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	f.data = data
	f.saves++
	return nil
}

func newTestStore(t *testing.T) (*Store, *fakeBlobs) {
	t.Helper()
	blobs := &fakeBlobs{}
	s := New(blobs, logging.Discard())
	if err := s.Load(context.Background()); err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	return s, blobs
}

func mustStore(t *testing.T, s *Store, identity, pin string) {
	t.Helper()
	if err := s.StorePIN(context.Background(), identity, pin); err != nil {
		t.Fatalf("StorePIN(%q) error = %v", identity, err)
	}
}

func TestStore_EmptyTable(t *testing.T) {
	s, _ := newTestStore(t)

	if s.Verify("123456", "") {
		t.Error("untargeted Verify on empty table = true")
	}
	if s.Verify("123456", "alice") {
		t.Error("targeted Verify on empty table = true")
	}
	if s.VerifyAdmin("123456") {
		t.Error("VerifyAdmin on empty table = true")
	}
	if s.HasAdmin() {
		t.Error("HasAdmin on empty table = true")
	}
	if got := s.Identities(); len(got) != 0 {
		t.Errorf("Identities() = %v, want empty", got)
	}
}

func TestStore_RoundTrip(t *testing.T) {
	s, _ := newTestStore(t)
	mustStore(t, s, "alice", "111111")

	if !s.Verify("111111", "alice") {
		t.Error("Verify(correct, alice) = false")
	}
	if s.Verify("111112", "alice") {
		t.Error("Verify(wrong, alice) = true")
	}
	if s.Verify("", "alice") {
		t.Error("Verify(empty, alice) = true")
	}
	if s.Verify("111111", "bob") {
		t.Error("Verify(alice's pin, bob) = true")
	}
}

func TestStore_SaltUniqueness(t *testing.T) {
	s, _ := newTestStore(t)
	mustStore(t, s, "alice", "222222")
	first := s.UserRecords()["alice"]

	mustStore(t, s, "alice", "222222")
	second := s.UserRecords()["alice"]

	if first.Salt == second.Salt {
		t.Error("re-storing the same PIN reused the salt")
	}
	if first.PINHash == second.PINHash {
		t.Error("re-storing the same PIN produced the same hash")
	}
	if !s.Verify("222222", "alice") {
		t.Error("Verify after overwrite = false")
	}
}

func TestStore_LastWriteWins(t *testing.T) {
	s, _ := newTestStore(t)
	mustStore(t, s, "alice", "111111")
	mustStore(t, s, "alice", "333333")

	if s.Verify("111111", "alice") {
		t.Error("old PIN still verifies after overwrite")
	}
	if !s.Verify("333333", "alice") {
		t.Error("new PIN does not verify")
	}
}

func TestStore_UntargetedMatch(t *testing.T) {
	s, _ := newTestStore(t)
	if err := s.StoreAdminPIN(context.Background(), "999999"); err != nil {
		t.Fatalf("StoreAdminPIN() error = %v", err)
	}
	mustStore(t, s, "alice", "111111")
	mustStore(t, s, "bob", "222222")

	tests := []struct {
		pin      string
		want     bool
		identity string
	}{
		{"111111", true, "alice"},
		{"222222", true, "bob"},
		{"999999", true, "admin"},
		{"000000", false, ""},
		{"", false, ""},
	}
	for _, tt := range tests {
		if got := s.Verify(tt.pin, ""); got != tt.want {
			t.Errorf("Verify(%q, \"\") = %v, want %v", tt.pin, got, tt.want)
		}
		identity, ok := s.Match(tt.pin)
		if ok != tt.want || identity != tt.identity {
			t.Errorf("Match(%q) = (%q, %v), want (%q, %v)", tt.pin, identity, ok, tt.identity, tt.want)
		}
	}
}

func TestStore_MatchSharedPINPicksFirstSorted(t *testing.T) {
	s, _ := newTestStore(t)
	mustStore(t, s, "zoe", "555555")
	mustStore(t, s, "carol", "555555")

	identity, ok := s.Match("555555")
	if !ok || identity != "carol" {
		t.Errorf("Match() = (%q, %v), want (carol, true)", identity, ok)
	}
}

func TestStore_AdminProtection(t *testing.T) {
	s, blobs := newTestStore(t)
	if err := s.StoreAdminPIN(context.Background(), "999999"); err != nil {
		t.Fatalf("StoreAdminPIN() error = %v", err)
	}
	savesBefore := blobs.saves

	err := s.Remove(context.Background(), AdminIdentity)
	if !errors.Is(err, ErrProtectedIdentity) {
		t.Errorf("Remove(admin) error = %v, want ErrProtectedIdentity", err)
	}
	if !s.HasAdmin() || !s.VerifyAdmin("999999") {
		t.Error("admin record changed after refused removal")
	}
	if blobs.saves != savesBefore {
		t.Error("refused removal wrote to storage")
	}
}

func TestStore_Remove(t *testing.T) {
	s, blobs := newTestStore(t)
	mustStore(t, s, "alice", "111111")
	mustStore(t, s, "bob", "222222")

	if err := s.Remove(context.Background(), "alice"); err != nil {
		t.Fatalf("Remove(alice) error = %v", err)
	}
	if s.Verify("111111", "alice") || s.Verify("111111", "") {
		t.Error("removed identity still verifies")
	}
	if !s.Verify("222222", "bob") {
		t.Error("other identity affected by removal")
	}

	savesBefore := blobs.saves
	if err := s.Remove(context.Background(), "nobody"); err != nil {
		t.Errorf("Remove(unknown) error = %v", err)
	}
	if blobs.saves != savesBefore {
		t.Error("removing an unknown identity wrote to storage")
	}
}

func TestStore_Enumeration(t *testing.T) {
	s, _ := newTestStore(t)
	if err := s.StoreAdminPIN(context.Background(), "999999"); err != nil {
		t.Fatal(err)
	}
	mustStore(t, s, "bob", "222222")
	mustStore(t, s, "alice", "111111")

	if got, want := s.Identities(), []string{"admin", "alice", "bob"}; !slices.Equal(got, want) {
		t.Errorf("Identities() = %v, want %v", got, want)
	}

	users := s.UserRecords()
	if _, ok := users[AdminIdentity]; ok {
		t.Error("UserRecords() includes admin")
	}
	if len(users) != 2 {
		t.Errorf("UserRecords() has %d entries, want 2", len(users))
	}

	// The copy must not alias the store.
	delete(users, "alice")
	if !s.HasIdentity("alice") {
		t.Error("mutating UserRecords() result changed the store")
	}
}

func TestStore_EmptyIdentityRejected(t *testing.T) {
	s, _ := newTestStore(t)
	if err := s.StorePIN(context.Background(), "", "111111"); !errors.Is(err, ErrEmptyIdentity) {
		t.Errorf("StorePIN(\"\") error = %v, want ErrEmptyIdentity", err)
	}
}

func TestStore_FailedSaveLeavesTableUnchanged(t *testing.T) {
	s, blobs := newTestStore(t)
	mustStore(t, s, "alice", "111111")
	before := s.UserRecords()["alice"]

	blobs.saveErr = errors.New("disk full")
	ctx := context.Background()

	if err := s.StorePIN(ctx, "alice", "444444"); err == nil {
		t.Fatal("StorePIN() with failing save succeeded")
	}
	if err := s.StorePIN(ctx, "bob", "222222"); err == nil {
		t.Fatal("StorePIN(new) with failing save succeeded")
	}
	if err := s.Remove(ctx, "alice"); err == nil {
		t.Fatal("Remove() with failing save succeeded")
	}

	if got := s.UserRecords()["alice"]; got != before {
		t.Error("alice's record changed despite failed save")
	}
	if s.HasIdentity("bob") {
		t.Error("bob was added despite failed save")
	}
	if !s.Verify("111111", "alice") {
		t.Error("alice's original PIN no longer verifies")
	}
}

func TestStore_CreateAdmin(t *testing.T) {
	ctx := context.Background()
	s, blobs := newTestStore(t)

	blobs.saveErr = errors.New("disk full")
	if err := s.CreateAdmin(ctx, "123456"); err == nil {
		t.Fatal("CreateAdmin() with failing save succeeded")
	}
	if s.HasAdmin() {
		t.Fatal("admin created despite failed save")
	}
	blobs.saveErr = nil

	if err := s.CreateAdmin(ctx, "123456"); err != nil {
		t.Fatalf("CreateAdmin() error = %v", err)
	}
	if err := s.CreateAdmin(ctx, "654321"); !errors.Is(err, ErrAdminExists) {
		t.Errorf("second CreateAdmin() error = %v, want ErrAdminExists", err)
	}
	if !s.VerifyAdmin("123456") || s.VerifyAdmin("654321") {
		t.Error("refused CreateAdmin replaced the admin PIN")
	}
}

func TestStore_CreateAdminConcurrent(t *testing.T) {
	s, _ := newTestStore(t)
	pins := []string{"111111", "222222", "333333", "444444"}

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		winners []string
	)
	for _, pin := range pins {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := s.CreateAdmin(context.Background(), pin)
			switch {
			case err == nil:
				mu.Lock()
				winners = append(winners, pin)
				mu.Unlock()
			case !errors.Is(err, ErrAdminExists):
				t.Errorf("CreateAdmin(%s) error = %v", pin, err)
			}
		}()
	}
	wg.Wait()

	if len(winners) != 1 {
		t.Fatalf("CreateAdmin succeeded for %v, want exactly one", winners)
	}
	for _, pin := range pins {
		if got := s.VerifyAdmin(pin); got != (pin == winners[0]) {
			t.Errorf("VerifyAdmin(%s) = %v", pin, got)
		}
	}
}

func TestStore_LoadFailureIsIO(t *testing.T) {
	blobs := &fakeBlobs{loadErr: storage.ErrIO}
	s := New(blobs, logging.Discard())

	err := s.Load(context.Background())
	if !errors.Is(err, storage.ErrIO) {
		t.Errorf("Load() error = %v, want storage.ErrIO", err)
	}
}

func TestStore_LoadIsIdempotent(t *testing.T) {
	s, _ := newTestStore(t)
	mustStore(t, s, "alice", "111111")

	for range 2 {
		if err := s.Load(context.Background()); err != nil {
			t.Fatalf("Load() error = %v", err)
		}
	}
	if got := s.Identities(); !slices.Equal(got, []string{"alice"}) {
		t.Errorf("Identities() after reload = %v", got)
	}
}

// Persistence across restart through both real backends.
func TestStore_PersistsAcrossInstances(t *testing.T) {
	backend := storage.NewFileBackend(filepath.Join(t.TempDir(), ".storage"))
	ctx := context.Background()

	first := New(storage.New(backend, StorageKey, StorageVersion), logging.Discard())
	if err := first.Load(ctx); err != nil {
		t.Fatal(err)
	}
	if err := first.StoreAdminPIN(ctx, "999999"); err != nil {
		t.Fatal(err)
	}
	mustStore(t, first, "alice", "111111")

	second := New(storage.New(backend, StorageKey, StorageVersion), logging.Discard())
	if err := second.Load(ctx); err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if !second.VerifyAdmin("999999") || !second.Verify("111111", "alice") {
		t.Error("credentials did not survive reload")
	}
}

// A table written by an earlier deployment verifies unchanged.
func TestStore_VerifiesExistingTable(t *testing.T) {
	blobs := &fakeBlobs{data: []byte(`{"admin":{"pin_hash":"` + vectorHash + `","salt":"` + vectorSalt + `"}}`)}
	s := New(blobs, logging.Discard())
	if err := s.Load(context.Background()); err != nil {
		t.Fatal(err)
	}
	if !s.VerifyAdmin("123456") {
		t.Error("VerifyAdmin rejected a PIN from an existing table")
	}
}

func TestStore_ConcurrentAccess(t *testing.T) {
	s, _ := newTestStore(t)
	mustStore(t, s, "alice", "111111")

	var wg sync.WaitGroup
	for i := range 4 {
		wg.Add(2)
		go func() {
			defer wg.Done()
			if !s.Verify("111111", "alice") {
				t.Error("concurrent Verify = false")
			}
		}()
		go func() {
			defer wg.Done()
			identity := []string{"u0", "u1", "u2", "u3"}[i]
			if err := s.StorePIN(context.Background(), identity, "123123"); err != nil {
				t.Errorf("concurrent StorePIN error = %v", err)
			}
		}()
	}
	wg.Wait()

	if got := len(s.Identities()); got != 5 {
		t.Errorf("Identities() = %d entries, want 5", got)
	}
}

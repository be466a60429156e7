package pinstore

import (
	"encoding/base64"
	"testing"
)

// Known answer for PBKDF2-HMAC-SHA256(pin, salt string bytes, 100000, 32).
const (
	vectorSalt = "c2FsdHNhbHRzYWx0c2FsdA=="
	vectorHash = "Dw/jmMyiWCyXfDhViY0bUqExeaKHvzSu8yd5mJf26ac="
)

func TestHashPIN_KnownAnswer(t *testing.T) {
	hash, salt, err := HashPIN("123456", vectorSalt)
	if err != nil {
		t.Fatalf("HashPIN() error = %v", err)
	}
	if salt != vectorSalt {
		t.Errorf("salt = %q, want the one passed in", salt)
	}
	if hash != vectorHash {
		t.Errorf("HashPIN(123456) = %q, want %q", hash, vectorHash)
	}

	other, _, _ := HashPIN("000000", vectorSalt)
	if other == vectorHash {
		t.Error("different PINs produced the same hash")
	}
}

func TestHashPIN_Deterministic(t *testing.T) {
	h1, salt, err := HashPIN("482913", "")
	if err != nil {
		t.Fatalf("HashPIN() error = %v", err)
	}
	h2, _, err := HashPIN("482913", salt)
	if err != nil {
		t.Fatalf("HashPIN() error = %v", err)
	}
	if h1 != h2 {
		t.Error("same PIN and salt produced different hashes")
	}
}

func TestHashPIN_FreshSalt(t *testing.T) {
	_, salt, err := HashPIN("482913", "")
	if err != nil {
		t.Fatalf("HashPIN() error = %v", err)
	}

	raw, err := base64.StdEncoding.DecodeString(salt)
	if err != nil {
		t.Fatalf("salt %q is not standard base64: %v", salt, err)
	}
	if len(raw) != saltLen {
		t.Errorf("salt decodes to %d bytes, want %d", len(raw), saltLen)
	}

	hash, _, _ := HashPIN("482913", salt)
	key, err := base64.StdEncoding.DecodeString(hash)
	if err != nil {
		t.Fatalf("hash is not standard base64: %v", err)
	}
	if len(key) != kdfKeyLen {
		t.Errorf("hash decodes to %d bytes, want %d", len(key), kdfKeyLen)
	}

	seen := map[string]bool{salt: true}
	for range 5 {
		_, s, _ := HashPIN("482913", "")
		if seen[s] {
			t.Fatalf("salt %q generated twice", s)
		}
		seen[s] = true
	}
}

func TestMatches_IncompleteRecord(t *testing.T) {
	tests := []Record{
		{},
		{PINHash: vectorHash},
		{Salt: vectorSalt},
	}
	for _, rec := range tests {
		if matches("123456", rec) {
			t.Errorf("matches(%+v) = true, want false", rec)
		}
	}
	if !matches("123456", Record{PINHash: vectorHash, Salt: vectorSalt}) {
		t.Error("matches() rejected the known-answer record")
	}
}

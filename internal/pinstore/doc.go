// Package pinstore keeps the table of PIN credentials that gates every
// arm and disarm command.
//
// Each identity (a user name, or the reserved "admin") maps to a salted
// PBKDF2-HMAC-SHA256 hash of its PIN. The table lives in memory inside one
// long-lived Store and is written back in full through a storage.Store on
// every mutation. Reloading is explicit via Load.
//
// # Verification
//
// Verify never returns an error: unknown identities, empty PINs and an
// empty table all verify as false. Hash comparison is constant time, an
// untargeted check hashes against every record without stopping at the
// first match, and a targeted check of a missing identity still performs
// one key derivation so its timing matches a real miss.
//
// An untargeted check accepts any stored PIN, the admin PIN included.
// Callers that must distinguish the two use VerifyAdmin or Match.
//
// # Security
//
// PINs, hashes and salts are never logged. Only identities are.
package pinstore

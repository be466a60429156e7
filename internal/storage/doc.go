// Package storage persists versioned JSON blobs under a fixed key.
//
// A Store owns one key (for example "acre_intrusion_pins") and one schema
// version. It wraps the caller's data in an envelope
//
//	{"version": 1, "key": "acre_intrusion_pins", "data": {...}}
//
// and hands it to a Backend. Two backends exist: SQLiteBackend keeps rows
// in the storage_blobs table of the main database, FileBackend keeps one
// <key>.json file per key and replaces it atomically.
//
// Absence is not an error: Load reports found=false and leaves the
// destination untouched. Every backend failure is wrapped with ErrIO so
// callers can tell "nothing stored yet" from "could not read".
package storage

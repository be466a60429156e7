// Package api implements the HTTP REST API and WebSocket server for Acre
// Intrusion Core.
//
// This package provides:
//   - Area listing and code-gated arm/disarm commands
//   - First-run admin setup and installer unlock
//   - Session-protected user PIN management and audit queries
//   - WebSocket hub broadcasting area.state_changed events
//   - Prometheus metrics on /metrics
//
// # Security
//
// Alarm users never hold a session: every arm or disarm request carries a
// six-digit code that is checked against the credential table. Installers
// exchange the admin PIN for a short-lived JWT on /api/v1/setup/unlock.
// Both code-bearing endpoints are rate limited per client address.
//
// PINs, hashes and tokens are never logged or returned.
package api

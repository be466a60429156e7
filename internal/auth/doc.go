// Package auth issues and checks installer sessions and throttles PIN
// attempts.
//
// An installer unlocks the options surface with the admin PIN and receives
// a short-lived HS256 JWT carrying the installer role. The token is
// validated by signature and expiry only; nothing is stored server-side,
// so restarting the core (or rotating security.jwt.secret) ends every
// session.
//
// PIN attempts on unlock and alarm commands are limited per client by a
// token bucket keyed on the remote address.
package auth

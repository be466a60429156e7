// Package setup implements installer credential administration: creating
// the admin PIN on first run, unlocking with it, and managing user PINs.
//
// Both the HTTP API and acrectl drive the same Service, so validation and
// audit behaviour are identical whichever surface an installer uses.
package setup

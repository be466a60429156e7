// Package audit records who armed or disarmed an area and which
// credential administration actions ran.
//
// Entries never carry PIN, hash or salt material. A rejected code is
// recorded as pin_rejected with the area it was aimed at and no identity.
package audit

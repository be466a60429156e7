// Package alarm implements the code-gated intrusion areas.
//
// A Registry holds the last known state of every area reported by the
// panel gateway. A Controller turns disarm/arm requests into gateway mode
// changes, but only after the supplied code verifies against the
// credential store; a bad or missing code is logged, audited and refused
// without the gateway ever being contacted.
//
// Modes map to the panel's vocabulary:
//
//	disarm    -> unset
//	arm_home  -> part_set_a
//	arm_night -> part_set_b
//	arm_away  -> full_set
package alarm

// Package gateway connects the alarm controller to the intrusion panel
// gateway over MQTT.
//
// Outbound, ChangeMode publishes a mode request on acre/{site}/area/{id}/set.
// Inbound, retained messages on acre/{site}/area/+/state keep the
// alarm.Registry current. The gateway owns the panel connection; this
// package only speaks its topic contract.
package gateway

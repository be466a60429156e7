// Package influxdb provides InfluxDB connectivity for Acre Intrusion Core.
//
// It wraps the official influxdb-client-go v2 library and records two
// measurements:
//   - alarm_command: every arm/disarm attempt, tagged by area, action and result
//   - area_state: each area's mode and derived alarm state when it changes
//
// # Usage
//
//	client, err := influxdb.Connect(ctx, cfg.InfluxDB)
//	if errors.Is(err, influxdb.ErrDisabled) {
//	    // telemetry off; a nil *Client is safe to write to
//	}
//	defer client.Close()
//
//	client.WriteAlarmCommand("1", "arm_away", "accepted")
//
// # Thread Safety
//
// All methods are safe for concurrent use. Writes are non-blocking and
// batched according to batch_size and flush_interval; asynchronous write
// errors are delivered to the SetOnError callback.
package influxdb

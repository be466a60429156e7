package influxdb

import (
	"time"

	"github.com/influxdata/influxdb-client-go/v2/api/write"
)

// Measurement names.
const (
	measurementAlarmCommand = "alarm_command"
	measurementAreaState    = "area_state"
)

// WriteAlarmCommand records one arm/disarm attempt.
//
// Parameters:
//   - areaID: Area the command targeted
//   - action: disarm, arm_home, arm_night or arm_away
//   - result: accepted, rejected or failed
//
// The acting identity is not written; it lives in the audit trail.
func (c *Client) WriteAlarmCommand(areaID, action, result string) {
	c.WritePoint(measurementAlarmCommand,
		map[string]string{
			"area_id": areaID,
			"action":  action,
			"result":  result,
		},
		map[string]any{
			"count": 1,
		},
	)
}

// WriteAreaState records an area's mode and derived alarm state at ts.
func (c *Client) WriteAreaState(areaID, mode, state string, verifiedAlarm bool, ts time.Time) {
	if !c.IsConnected() {
		return
	}
	if ts.IsZero() {
		ts = time.Now()
	}

	c.writeAPI.WritePoint(write.NewPoint(measurementAreaState,
		map[string]string{
			"area_id": areaID,
		},
		map[string]any{
			"mode":           mode,
			"state":          state,
			"verified_alarm": verifiedAlarm,
		},
		ts,
	))
}

// WritePoint writes a custom point stamped now.
func (c *Client) WritePoint(measurement string, tags map[string]string, fields map[string]any) {
	if !c.IsConnected() {
		return
	}
	c.writeAPI.WritePoint(write.NewPoint(measurement, tags, fields, time.Now()))
}

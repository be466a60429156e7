package alarm

import (
	"fmt"
	"time"
)

// Mode is the panel's arming mode for an area.
type Mode string

// Panel modes.
const (
	ModeUnset    Mode = "unset"
	ModePartSetA Mode = "part_set_a"
	ModePartSetB Mode = "part_set_b"
	ModeFullSet  Mode = "full_set"
)

// ParseMode validates s as a panel mode.
func ParseMode(s string) (Mode, error) {
	switch m := Mode(s); m {
	case ModeUnset, ModePartSetA, ModePartSetB, ModeFullSet:
		return m, nil
	default:
		return "", fmt.Errorf("unknown mode %q", s)
	}
}

// State is the alarm state shown to users.
type State string

// Alarm states.
const (
	StateDisarmed   State = "disarmed"
	StateArmedHome  State = "armed_home"
	StateArmedNight State = "armed_night"
	StateArmedAway  State = "armed_away"
	StateTriggered  State = "triggered"
	StateUnknown    State = "unknown"
)

// Action is a user request against an area.
type Action string

// Supported actions.
const (
	ActionDisarm   Action = "disarm"
	ActionArmHome  Action = "arm_home"
	ActionArmNight Action = "arm_night"
	ActionArmAway  Action = "arm_away"
)

// Mode returns the panel mode an action requests.
func (a Action) Mode() (Mode, error) {
	switch a {
	case ActionDisarm:
		return ModeUnset, nil
	case ActionArmHome:
		return ModePartSetA, nil
	case ActionArmNight:
		return ModePartSetB, nil
	case ActionArmAway:
		return ModeFullSet, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownAction, string(a))
	}
}

// Actions lists every supported action.
func Actions() []Action {
	return []Action{ActionDisarm, ActionArmHome, ActionArmNight, ActionArmAway}
}

// CodeFormat is the pattern clients should enforce for codes.
const CodeFormat = `^[0-9]{6}$`

// Area is one intrusion area as last reported by the gateway.
type Area struct {
	ID            string    `json:"id"`
	Name          string    `json:"name"`
	Mode          Mode      `json:"mode"`
	VerifiedAlarm bool      `json:"verified_alarm"`
	LastChangedBy string    `json:"last_changed_by,omitempty"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// State derives the alarm state. A verified alarm wins over any mode.
func (a Area) State() State {
	if a.VerifiedAlarm {
		return StateTriggered
	}
	switch a.Mode {
	case ModeUnset:
		return StateDisarmed
	case ModePartSetA:
		return StateArmedHome
	case ModePartSetB:
		return StateArmedNight
	case ModeFullSet:
		return StateArmedAway
	default:
		return StateUnknown
	}
}

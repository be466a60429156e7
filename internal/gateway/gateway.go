package gateway

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/kimballen/acre-Intrusion/internal/alarm"
	"github.com/kimballen/acre-Intrusion/internal/infrastructure/logging"
	"github.com/kimballen/acre-Intrusion/internal/infrastructure/mqtt"
)

// Broker is the part of *mqtt.Client the adapter needs.
type Broker interface {
	Publish(topic string, payload []byte, qos byte, retained bool) error
	Subscribe(topic string, qos byte, handler mqtt.MessageHandler) error
}

// ModeRequest is published to an area's set topic.
type ModeRequest struct {
	Mode        alarm.Mode `json:"mode"`
	RequestedBy string     `json:"requested_by,omitempty"`
	Timestamp   time.Time  `json:"timestamp"`
}

// StateMessage is what the gateway publishes on an area's state topic.
type StateMessage struct {
	Name          string     `json:"name"`
	Mode          alarm.Mode `json:"mode"`
	VerifiedAlarm bool       `json:"verified_alarm"`
	ChangedBy     string     `json:"changed_by,omitempty"`
	Timestamp     time.Time  `json:"timestamp"`
}

// Adapter implements alarm.Gateway over MQTT.
type Adapter struct {
	broker   Broker
	topics   mqtt.Topics
	qos      byte
	registry *alarm.Registry
	logger   *logging.Logger
	now      func() time.Time
}

// New creates an adapter publishing at qos on topics and feeding registry.
func New(broker Broker, topics mqtt.Topics, qos byte, registry *alarm.Registry, logger *logging.Logger) *Adapter {
	if logger == nil {
		logger = logging.Default()
	}
	return &Adapter{
		broker:   broker,
		topics:   topics,
		qos:      qos,
		registry: registry,
		logger:   logger.With("component", "gateway"),
		now:      time.Now,
	}
}

// Start subscribes to the state topics of every area.
func (a *Adapter) Start() error {
	if err := a.broker.Subscribe(a.topics.AllAreaStates(), a.qos, a.handleState); err != nil {
		return fmt.Errorf("subscribing to area states: %w", err)
	}
	a.logger.Info("gateway adapter started", "topic", a.topics.AllAreaStates())
	return nil
}

// ChangeMode asks the panel to put areaID into mode. The request is not
// retained so a reconnecting gateway never replays a stale command.
func (a *Adapter) ChangeMode(ctx context.Context, areaID string, mode alarm.Mode, requestedBy string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	payload, err := json.Marshal(ModeRequest{
		Mode:        mode,
		RequestedBy: requestedBy,
		Timestamp:   a.now().UTC(),
	})
	if err != nil {
		return fmt.Errorf("%w: %w", ErrPublish, err)
	}

	if err := a.broker.Publish(a.topics.AreaSet(areaID), payload, a.qos, false); err != nil {
		return fmt.Errorf("%w: area %s: %w", ErrPublish, areaID, err)
	}

	a.logger.Debug("mode change published", "area_id", areaID, "mode", mode)
	return nil
}

func (a *Adapter) handleState(topic string, payload []byte) error {
	areaID, err := a.topics.ParseAreaState(topic)
	if err != nil {
		return err
	}

	var msg StateMessage
	if err := json.Unmarshal(payload, &msg); err != nil {
		return fmt.Errorf("%w: area %s: %w", ErrInvalidPayload, areaID, err)
	}
	if _, err := alarm.ParseMode(string(msg.Mode)); err != nil {
		return fmt.Errorf("%w: area %s: %w", ErrInvalidPayload, areaID, err)
	}

	changed := a.registry.Update(alarm.Area{
		ID:            areaID,
		Name:          msg.Name,
		Mode:          msg.Mode,
		VerifiedAlarm: msg.VerifiedAlarm,
		LastChangedBy: msg.ChangedBy,
		UpdatedAt:     msg.Timestamp,
	})
	if changed {
		a.logger.Info("area state changed", "area_id", areaID, "mode", msg.Mode, "verified_alarm", msg.VerifiedAlarm)
	}
	return nil
}

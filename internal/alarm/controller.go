package alarm

import (
	"context"
	"fmt"

	"github.com/kimballen/acre-Intrusion/internal/audit"
	"github.com/kimballen/acre-Intrusion/internal/infrastructure/influxdb"
	"github.com/kimballen/acre-Intrusion/internal/infrastructure/logging"
	"github.com/kimballen/acre-Intrusion/internal/infrastructure/metrics"
)

// Verifier checks a code against every stored credential and reports
// which identity it belongs to. *pinstore.Store satisfies it.
type Verifier interface {
	Match(pin string) (identity string, ok bool)
}

// Gateway forwards mode changes to the intrusion panel.
type Gateway interface {
	ChangeMode(ctx context.Context, areaID string, mode Mode, requestedBy string) error
}

// Deps are the Controller's collaborators. Audit, Telemetry and Metrics
// may be nil.
type Deps struct {
	Verifier  Verifier
	Gateway   Gateway
	Registry  *Registry
	Audit     *audit.Recorder
	Telemetry *influxdb.Client
	Metrics   *metrics.Metrics
	Logger    *logging.Logger
}

// Controller gates area commands behind code verification.
type Controller struct {
	verifier  Verifier
	gateway   Gateway
	registry  *Registry
	audit     *audit.Recorder
	telemetry *influxdb.Client
	metrics   *metrics.Metrics
	logger    *logging.Logger
}

// NewController wires a Controller from deps.
func NewController(deps Deps) *Controller {
	return &Controller{
		verifier:  deps.Verifier,
		gateway:   deps.Gateway,
		registry:  deps.Registry,
		audit:     deps.Audit,
		telemetry: deps.Telemetry,
		metrics:   deps.Metrics,
		logger:    deps.Logger.With("component", "alarm"),
	}
}

// Disarm sets the area to unset.
func (c *Controller) Disarm(ctx context.Context, areaID, code string) error {
	return c.Command(ctx, areaID, ActionDisarm, code)
}

// ArmHome sets the area to part_set_a.
func (c *Controller) ArmHome(ctx context.Context, areaID, code string) error {
	return c.Command(ctx, areaID, ActionArmHome, code)
}

// ArmNight sets the area to part_set_b.
func (c *Controller) ArmNight(ctx context.Context, areaID, code string) error {
	return c.Command(ctx, areaID, ActionArmNight, code)
}

// ArmAway sets the area to full_set.
func (c *Controller) ArmAway(ctx context.Context, areaID, code string) error {
	return c.Command(ctx, areaID, ActionArmAway, code)
}

// Command verifies code and, only if it matches a stored credential,
// asks the gateway to apply action to the area.
//
// Returns:
//   - ErrUnknownAction, ErrAreaNotFound: request is malformed
//   - ErrInvalidCode: the gateway was not contacted
//   - ErrGateway: the code was good but the panel did not take the command
func (c *Controller) Command(ctx context.Context, areaID string, action Action, code string) error {
	mode, err := action.Mode()
	if err != nil {
		return err
	}
	if _, ok := c.registry.Get(areaID); !ok {
		return fmt.Errorf("%w: %s", ErrAreaNotFound, areaID)
	}

	identity, ok := "", false
	if code != "" {
		identity, ok = c.verifier.Match(code)
	}
	c.metrics.PINVerification("alarm", ok)
	if !ok {
		c.logger.Warn("invalid code for alarm command", "area_id", areaID, "action", string(action))
		c.record(ctx, audit.ActionPINRejected, areaID, "", action)
		c.outcome(areaID, action, metrics.ResultRejected)
		return ErrInvalidCode
	}

	if err := c.gateway.ChangeMode(ctx, areaID, mode, identity); err != nil {
		c.logger.Error("gateway rejected mode change",
			"area_id", areaID, "mode", string(mode), "identity", identity, "error", err)
		c.outcome(areaID, action, metrics.ResultFailed)
		return fmt.Errorf("%w: %w", ErrGateway, err)
	}

	c.registry.SetChangedBy(areaID, identity)

	auditAction := audit.ActionArm
	if action == ActionDisarm {
		auditAction = audit.ActionDisarm
	}
	c.record(ctx, auditAction, areaID, identity, action)
	c.outcome(areaID, action, metrics.ResultAccepted)

	c.logger.Info("alarm command sent", "area_id", areaID, "mode", string(mode), "identity", identity)
	return nil
}

func (c *Controller) record(ctx context.Context, auditAction, areaID, identity string, action Action) {
	c.audit.Record(ctx, auditAction, audit.EntityArea, areaID, identity, map[string]any{
		"action": string(action),
	})
}

func (c *Controller) outcome(areaID string, action Action, result string) {
	c.metrics.AlarmCommand(string(action), result)
	c.telemetry.WriteAlarmCommand(areaID, string(action), result)
}

// States lists every alarm state, for gauges that need the full set.
func States() []string {
	return []string{
		string(StateDisarmed), string(StateArmedHome), string(StateArmedNight),
		string(StateArmedAway), string(StateTriggered), string(StateUnknown),
	}
}

// ObserveAreas subscribes telemetry and metrics to registry changes.
func ObserveAreas(registry *Registry, telemetry *influxdb.Client, m *metrics.Metrics) {
	states := States()
	registry.Subscribe(func(a Area) {
		state := string(a.State())
		m.SetAreaState(a.ID, state, states)
		telemetry.WriteAreaState(a.ID, string(a.Mode), state, a.VerifiedAlarm, a.UpdatedAt)
	})
}

package alarm

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/kimballen/acre-Intrusion/internal/audit"
	"github.com/kimballen/acre-Intrusion/internal/infrastructure/config"
	"github.com/kimballen/acre-Intrusion/internal/infrastructure/logging"
)

// fakeVerifier accepts a fixed code per identity.
type fakeVerifier map[string]string

func (f fakeVerifier) Match(pin string) (string, bool) {
	for identity, code := range f {
		if code == pin {
			return identity, true
		}
	}
	return "", false
}

type modeChange struct {
	areaID      string
	mode        Mode
	requestedBy string
}

type fakeGateway struct {
	mu    sync.Mutex
	calls []modeChange
	err   error
}

func (g *fakeGateway) ChangeMode(_ context.Context, areaID string, mode Mode, requestedBy string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.calls = append(g.calls, modeChange{areaID, mode, requestedBy})
	return g.err
}

type memAudit struct {
	mu      sync.Mutex
	entries []audit.Entry
}

func (m *memAudit) Create(_ context.Context, e *audit.Entry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries = append(m.entries, *e)
	return nil
}

func (m *memAudit) List(context.Context, audit.Filter) (*audit.ListResult, error) {
	return &audit.ListResult{}, nil
}

type fixture struct {
	controller *Controller
	gateway    *fakeGateway
	registry   *Registry
	audit      *memAudit
	logs       *bytes.Buffer
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		gateway:  &fakeGateway{},
		registry: NewRegistry(),
		audit:    &memAudit{},
		logs:     &bytes.Buffer{},
	}
	f.registry.Update(Area{ID: "1", Name: "Ground floor", Mode: ModeUnset})

	logger := logging.NewWithWriter(config.LoggingConfig{Level: "debug"}, "test", f.logs)
	f.controller = NewController(Deps{
		Verifier: fakeVerifier{"alice": "111111", "admin": "999999"},
		Gateway:  f.gateway,
		Registry: f.registry,
		Audit:    audit.NewRecorder(f.audit, audit.SourceAPI, logger),
		Logger:   logger,
	})
	return f
}

func TestController_ValidCodeSendsMode(t *testing.T) {
	tests := []struct {
		name string
		call func(*Controller) error
		mode Mode
	}{
		{"disarm", func(c *Controller) error { return c.Disarm(context.Background(), "1", "111111") }, ModeUnset},
		{"arm home", func(c *Controller) error { return c.ArmHome(context.Background(), "1", "111111") }, ModePartSetA},
		{"arm night", func(c *Controller) error { return c.ArmNight(context.Background(), "1", "111111") }, ModePartSetB},
		{"arm away", func(c *Controller) error { return c.ArmAway(context.Background(), "1", "111111") }, ModeFullSet},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			if err := tt.call(f.controller); err != nil {
				t.Fatalf("command error = %v", err)
			}
			if len(f.gateway.calls) != 1 {
				t.Fatalf("gateway called %d times, want 1", len(f.gateway.calls))
			}
			want := modeChange{"1", tt.mode, "alice"}
			if f.gateway.calls[0] != want {
				t.Errorf("gateway call = %+v, want %+v", f.gateway.calls[0], want)
			}

			a, _ := f.registry.Get("1")
			if a.LastChangedBy != "alice" {
				t.Errorf("LastChangedBy = %q, want alice", a.LastChangedBy)
			}
			if len(f.audit.entries) != 1 || f.audit.entries[0].Identity != "alice" {
				t.Errorf("audit entries = %+v", f.audit.entries)
			}
		})
	}
}

func TestController_AuditActions(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	if err := f.controller.ArmAway(ctx, "1", "999999"); err != nil {
		t.Fatal(err)
	}
	if err := f.controller.Disarm(ctx, "1", "999999"); err != nil {
		t.Fatal(err)
	}

	if got := f.audit.entries[0].Action; got != audit.ActionArm {
		t.Errorf("first audit action = %q, want arm", got)
	}
	if got := f.audit.entries[1].Action; got != audit.ActionDisarm {
		t.Errorf("second audit action = %q, want disarm", got)
	}
	if f.audit.entries[1].Identity != "admin" {
		t.Errorf("admin code identity = %q, want admin", f.audit.entries[1].Identity)
	}
}

func TestController_InvalidCodeNeverReachesGateway(t *testing.T) {
	for _, code := range []string{"", "000000", "11111", "1111111"} {
		t.Run("code="+code, func(t *testing.T) {
			f := newFixture(t)

			err := f.controller.Disarm(context.Background(), "1", code)
			if !errors.Is(err, ErrInvalidCode) {
				t.Errorf("Disarm() error = %v, want ErrInvalidCode", err)
			}
			if len(f.gateway.calls) != 0 {
				t.Errorf("gateway called %d times, want 0", len(f.gateway.calls))
			}
			if !strings.Contains(f.logs.String(), `"level":"WARN"`) {
				t.Error("rejected code was not logged as a warning")
			}
			if len(f.audit.entries) != 1 || f.audit.entries[0].Action != audit.ActionPINRejected {
				t.Errorf("audit entries = %+v, want one pin_rejected", f.audit.entries)
			}
		})
	}
}

func TestController_UnknownArea(t *testing.T) {
	f := newFixture(t)

	err := f.controller.ArmAway(context.Background(), "99", "111111")
	if !errors.Is(err, ErrAreaNotFound) {
		t.Errorf("ArmAway() error = %v, want ErrAreaNotFound", err)
	}
	if len(f.gateway.calls) != 0 {
		t.Error("gateway called for unknown area")
	}
}

func TestController_UnknownAction(t *testing.T) {
	f := newFixture(t)

	err := f.controller.Command(context.Background(), "1", Action("arm_vacation"), "111111")
	if !errors.Is(err, ErrUnknownAction) {
		t.Errorf("Command() error = %v, want ErrUnknownAction", err)
	}
}

func TestController_GatewayFailure(t *testing.T) {
	f := newFixture(t)
	f.gateway.err = errors.New("broker unreachable")

	err := f.controller.ArmAway(context.Background(), "1", "111111")
	if !errors.Is(err, ErrGateway) {
		t.Errorf("ArmAway() error = %v, want ErrGateway", err)
	}
	a, _ := f.registry.Get("1")
	if a.LastChangedBy != "" {
		t.Error("LastChangedBy set although the gateway failed")
	}
	if len(f.audit.entries) != 0 {
		t.Errorf("audit entries = %+v, want none", f.audit.entries)
	}
}

func TestObserveAreas(t *testing.T) {
	r := NewRegistry()
	// nil telemetry and metrics must be tolerated.
	ObserveAreas(r, nil, nil)
	r.Update(Area{ID: "1", Mode: ModeFullSet})
}

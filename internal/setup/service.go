package setup

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"slices"

	"github.com/kimballen/acre-Intrusion/internal/audit"
	"github.com/kimballen/acre-Intrusion/internal/infrastructure/logging"
	"github.com/kimballen/acre-Intrusion/internal/infrastructure/metrics"
	"github.com/kimballen/acre-Intrusion/internal/pinstore"
)

// Credentials is the credential table the service administers.
// *pinstore.Store satisfies it.
type Credentials interface {
	StorePIN(ctx context.Context, identity, pin string) error
	StoreAdminPIN(ctx context.Context, pin string) error
	CreateAdmin(ctx context.Context, pin string) error
	VerifyAdmin(pin string) bool
	Remove(ctx context.Context, identity string) error
	HasIdentity(identity string) bool
	HasAdmin() bool
	UserRecords() map[string]pinstore.Record
}

// Status summarises the credential table without exposing it.
type Status struct {
	AdminConfigured bool `json:"admin_configured"`
	Users           int  `json:"users"`
}

// Service performs credential administration with validation and audit.
type Service struct {
	creds   Credentials
	audit   *audit.Recorder
	metrics *metrics.Metrics
	logger  *logging.Logger
}

// NewService creates a Service. rec and m may be nil.
func NewService(creds Credentials, rec *audit.Recorder, m *metrics.Metrics, logger *logging.Logger) *Service {
	if logger == nil {
		logger = logging.Default()
	}
	s := &Service{
		creds:   creds,
		audit:   rec,
		metrics: m,
		logger:  logger.With("component", "setup"),
	}
	s.refreshGauge()
	return s
}

// Status reports whether first-run setup is done and how many users exist.
func (s *Service) Status() Status {
	return Status{
		AdminConfigured: s.creds.HasAdmin(),
		Users:           len(s.creds.UserRecords()),
	}
}

// SetupAdmin stores the first admin PIN. It refuses once an admin exists;
// use ChangeAdminPIN after unlocking instead.
func (s *Service) SetupAdmin(ctx context.Context, pin string) error {
	if err := ValidatePIN(pin); err != nil {
		return err
	}
	if err := s.creds.CreateAdmin(ctx, pin); err != nil {
		if errors.Is(err, pinstore.ErrAdminExists) {
			return ErrAdminExists
		}
		return fmt.Errorf("storing admin pin: %w", err)
	}

	s.audit.Record(ctx, audit.ActionAdminSetup, audit.EntityCredential, pinstore.AdminIdentity, pinstore.AdminIdentity, nil)
	s.logger.Info("admin pin configured")
	s.refreshGauge()
	return nil
}

// Unlock verifies the admin PIN that gates every other mutation.
func (s *Service) Unlock(pin string) error {
	if !s.creds.HasAdmin() {
		return ErrAdminNotConfigured
	}
	ok := s.creds.VerifyAdmin(pin)
	s.metrics.PINVerification("unlock", ok)
	if !ok {
		s.logger.Warn("admin pin rejected")
		return ErrInvalidAdminPIN
	}
	return nil
}

// AddUser stores a PIN for name. An existing user's PIN is replaced.
func (s *Service) AddUser(ctx context.Context, name, pin string) error {
	if err := ValidateUsername(name); err != nil {
		return err
	}
	if err := ValidatePIN(pin); err != nil {
		return err
	}

	replaced := s.creds.HasIdentity(name)
	if err := s.creds.StorePIN(ctx, name, pin); err != nil {
		return fmt.Errorf("storing pin for %s: %w", name, err)
	}

	s.audit.Record(ctx, audit.ActionUserAdd, audit.EntityCredential, name, pinstore.AdminIdentity,
		map[string]any{"replaced": replaced})
	s.refreshGauge()
	return nil
}

// ModifyUser replaces an existing user's PIN.
func (s *Service) ModifyUser(ctx context.Context, name, pin string) error {
	if err := ValidateUsername(name); err != nil {
		return err
	}
	if err := ValidatePIN(pin); err != nil {
		return err
	}
	if !s.creds.HasIdentity(name) {
		return fmt.Errorf("%w: %s", ErrUserNotFound, name)
	}
	if err := s.creds.StorePIN(ctx, name, pin); err != nil {
		return fmt.Errorf("storing pin for %s: %w", name, err)
	}

	s.audit.Record(ctx, audit.ActionUserModify, audit.EntityCredential, name, pinstore.AdminIdentity, nil)
	return nil
}

// RemoveUser deletes a user. The admin identity cannot be removed.
func (s *Service) RemoveUser(ctx context.Context, name string) error {
	if name == pinstore.AdminIdentity {
		return pinstore.ErrProtectedIdentity
	}
	if !s.creds.HasIdentity(name) {
		return fmt.Errorf("%w: %s", ErrUserNotFound, name)
	}
	if err := s.creds.Remove(ctx, name); err != nil {
		return fmt.Errorf("removing %s: %w", name, err)
	}

	s.audit.Record(ctx, audit.ActionUserRemove, audit.EntityCredential, name, pinstore.AdminIdentity, nil)
	s.refreshGauge()
	return nil
}

// ChangeAdminPIN replaces the admin PIN.
func (s *Service) ChangeAdminPIN(ctx context.Context, pin string) error {
	if err := ValidatePIN(pin); err != nil {
		return err
	}
	if !s.creds.HasAdmin() {
		return ErrAdminNotConfigured
	}
	if err := s.creds.StoreAdminPIN(ctx, pin); err != nil {
		return fmt.Errorf("storing admin pin: %w", err)
	}

	s.audit.Record(ctx, audit.ActionAdminChange, audit.EntityCredential, pinstore.AdminIdentity, pinstore.AdminIdentity, nil)
	s.logger.Info("admin pin changed")
	return nil
}

// Users returns user names in sorted order, admin excluded.
func (s *Service) Users() []string {
	return slices.Sorted(maps.Keys(s.creds.UserRecords()))
}

func (s *Service) refreshGauge() {
	s.metrics.SetCredentials(len(s.creds.UserRecords()))
}

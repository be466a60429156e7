package audit

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/kimballen/acre-Intrusion/internal/infrastructure/logging"
)

const (
	defaultLimit = 50
	maxLimit     = 200

	// timeFormat has fixed-width fractions so created_at sorts as text.
	timeFormat = "2006-01-02T15:04:05.000000000Z"
)

// Repository stores and lists audit entries.
type Repository interface {
	Create(ctx context.Context, entry *Entry) error
	List(ctx context.Context, filter Filter) (*ListResult, error)
}

// SQLiteRepository keeps entries in the audit_logs table.
type SQLiteRepository struct {
	db *sql.DB
}

// NewSQLiteRepository creates a repository over db.
func NewSQLiteRepository(db *sql.DB) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

// Create inserts entry. ID and CreatedAt are filled in if empty.
func (r *SQLiteRepository) Create(ctx context.Context, entry *Entry) error {
	if entry.ID == "" {
		entry.ID = "aud-" + uuid.NewString()[:8]
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}

	var details *string
	if entry.Details != nil {
		b, err := json.Marshal(entry.Details)
		if err != nil {
			return fmt.Errorf("marshalling audit details: %w", err)
		}
		s := string(b)
		details = &s
	}

	_, err := r.db.ExecContext(ctx,
		`INSERT INTO audit_logs (id, action, entity_type, entity_id, identity, source, details, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		entry.ID, entry.Action, entry.EntityType,
		nullableString(entry.EntityID), nullableString(entry.Identity),
		entry.Source, details,
		entry.CreatedAt.UTC().Format(timeFormat),
	)
	if err != nil {
		return fmt.Errorf("inserting audit entry: %w", err)
	}
	return nil
}

// nullableString maps "" to SQL NULL.
func nullableString(s string) any {
	if s == "" {
		return nil
	}
	return s
}

// List returns entries matching filter, most recent first.
func (r *SQLiteRepository) List(ctx context.Context, filter Filter) (*ListResult, error) {
	if filter.Limit <= 0 {
		filter.Limit = defaultLimit
	}
	if filter.Limit > maxLimit {
		filter.Limit = maxLimit
	}
	if filter.Offset < 0 {
		filter.Offset = 0
	}

	var (
		conditions []string
		args       []any
	)
	for column, value := range map[string]string{
		"action":      filter.Action,
		"entity_type": filter.EntityType,
		"entity_id":   filter.EntityID,
		"identity":    filter.Identity,
	} {
		if value != "" {
			conditions = append(conditions, column+" = ?")
			args = append(args, value)
		}
	}

	where := ""
	if len(conditions) > 0 {
		where = "WHERE " + strings.Join(conditions, " AND ")
	}

	var total int
	countQuery := "SELECT COUNT(*) FROM audit_logs " + where //nolint:gosec // WHERE built from fixed column names and placeholders
	if err := r.db.QueryRowContext(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, fmt.Errorf("counting audit entries: %w", err)
	}

	query := "SELECT id, action, entity_type, entity_id, identity, source, details, created_at FROM audit_logs " + //nolint:gosec // as above
		where + " ORDER BY created_at DESC, id DESC LIMIT ? OFFSET ?"
	args = append(args, filter.Limit, filter.Offset)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying audit entries: %w", err)
	}
	defer rows.Close()

	entries := []Entry{}
	for rows.Next() {
		var (
			e                           Entry
			entityID, identity, details sql.NullString
			createdAt                   string
		)
		if err := rows.Scan(&e.ID, &e.Action, &e.EntityType,
			&entityID, &identity, &e.Source, &details, &createdAt); err != nil {
			return nil, fmt.Errorf("scanning audit entry: %w", err)
		}

		e.EntityID = entityID.String
		e.Identity = identity.String
		if details.Valid && details.String != "" {
			var d map[string]any
			if json.Unmarshal([]byte(details.String), &d) == nil {
				e.Details = d
			}
		}

		e.CreatedAt, err = time.Parse(timeFormat, createdAt)
		if err != nil {
			return nil, fmt.Errorf("parsing audit timestamp %q: %w", createdAt, err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating audit entries: %w", err)
	}

	return &ListResult{
		Entries: entries,
		Total:   total,
		Limit:   filter.Limit,
		Offset:  filter.Offset,
	}, nil
}

// Recorder writes entries on behalf of domain code, where a failure to
// audit must not undo an action that already happened. Errors are logged.
type Recorder struct {
	repo   Repository
	source string
	logger *logging.Logger
}

// NewRecorder returns a Recorder that stamps every entry with source.
// A nil repo makes Record a no-op.
func NewRecorder(repo Repository, source string, logger *logging.Logger) *Recorder {
	return &Recorder{repo: repo, source: source, logger: logger.With("component", "audit")}
}

// Record stores one entry.
func (r *Recorder) Record(ctx context.Context, action, entityType, entityID, identity string, details map[string]any) {
	if r == nil || r.repo == nil {
		return
	}
	entry := &Entry{
		Action:     action,
		EntityType: entityType,
		EntityID:   entityID,
		Identity:   identity,
		Source:     r.source,
		Details:    details,
	}
	if err := r.repo.Create(ctx, entry); err != nil {
		r.logger.Error("writing audit entry failed", "action", action, "entity_id", entityID, "error", err)
	}
}

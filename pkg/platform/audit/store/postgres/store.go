package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	audit "schemematch/pkg/platform/audit"
	txctx "schemematch/pkg/platform/tx"
)

// Schema creates the audit table. Applied by the server at startup and by
// integration tests.
const Schema = `
CREATE TABLE IF NOT EXISTS scheme_audit_events (
	id              UUID PRIMARY KEY,
	category        TEXT NOT NULL,
	timestamp       TIMESTAMPTZ NOT NULL,
	subject         TEXT NOT NULL,
	action          TEXT NOT NULL,
	decision        TEXT NOT NULL DEFAULT '',
	reason          TEXT NOT NULL DEFAULT '',
	request_id      TEXT NOT NULL DEFAULT '',
	actor_id        TEXT NOT NULL DEFAULT '',
	catalog_version BIGINT NOT NULL DEFAULT 0
);
CREATE INDEX IF NOT EXISTS scheme_audit_events_subject_idx ON scheme_audit_events (subject, timestamp);
`

// Store implements audit.Store on PostgreSQL.
type Store struct {
	db *sql.DB
}

// New creates a new PostgreSQL audit store.
func New(db *sql.DB) *Store {
	return &Store{db: db}
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// Append inserts one event, inside the context's transaction when it carries
// one. The category is always derived from the action.
func (s *Store) Append(ctx context.Context, event audit.Event) error {
	var exec execer = s.db
	if tx, ok := txctx.From(ctx); ok {
		exec = tx
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}
	query := `
		INSERT INTO scheme_audit_events (
			id, category, timestamp, subject, action,
			decision, reason, request_id, actor_id, catalog_version
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`
	_, err := exec.ExecContext(ctx, query,
		uuid.New(),
		string(audit.AuditEvent(event.Action).Category()),
		event.Timestamp,
		event.Subject,
		event.Action,
		event.Decision,
		event.Reason,
		event.RequestID,
		event.ActorID,
		int64(event.CatalogVersion), //nolint:gosec // versions stay far below MaxInt64
	)
	if err != nil {
		return fmt.Errorf("insert audit event: %w", err)
	}
	return nil
}

// ListBySubject returns events for one subject, oldest first.
func (s *Store) ListBySubject(ctx context.Context, subject string) ([]audit.Event, error) {
	query := `
		SELECT category, timestamp, subject, action, decision, reason,
			   request_id, actor_id, catalog_version
		FROM scheme_audit_events
		WHERE subject = $1
		ORDER BY timestamp ASC
	`
	rows, err := s.db.QueryContext(ctx, query, subject)
	if err != nil {
		return nil, fmt.Errorf("query audit events: %w", err)
	}
	defer rows.Close()

	return scanEvents(rows)
}

// ListRecent returns the N most recent events, newest last.
func (s *Store) ListRecent(ctx context.Context, limit int) ([]audit.Event, error) {
	query := `
		SELECT category, timestamp, subject, action, decision, reason,
			   request_id, actor_id, catalog_version
		FROM (
			SELECT * FROM scheme_audit_events ORDER BY timestamp DESC LIMIT $1
		) recent
		ORDER BY timestamp ASC
	`
	rows, err := s.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("query audit events: %w", err)
	}
	defer rows.Close()

	return scanEvents(rows)
}

func scanEvents(rows *sql.Rows) ([]audit.Event, error) {
	events := []audit.Event{}
	for rows.Next() {
		var (
			category string
			version  int64
			event    audit.Event
		)
		err := rows.Scan(
			&category,
			&event.Timestamp,
			&event.Subject,
			&event.Action,
			&event.Decision,
			&event.Reason,
			&event.RequestID,
			&event.ActorID,
			&version,
		)
		if err != nil {
			return nil, fmt.Errorf("scan audit event: %w", err)
		}
		event.Category = audit.EventCategory(category)
		event.CatalogVersion = uint64(version) //nolint:gosec // column is never negative
		events = append(events, event)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate audit events: %w", err)
	}
	return events, nil
}

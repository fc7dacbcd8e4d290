package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/lib/pq"
	"golang.org/x/sync/errgroup"

	"schemematch/internal/scheme/catalog"
	txctx "schemematch/pkg/platform/tx"
)

// PostgresSchema creates the catalog tables.
const PostgresSchema = `
CREATE TABLE IF NOT EXISTS scheme_programs (
	id                 TEXT PRIMARY KEY,
	name               TEXT NOT NULL,
	description        TEXT NOT NULL DEFAULT '',
	deadline           TIMESTAMPTZ,
	required_documents TEXT[] NOT NULL DEFAULT '{}',
	schema_ref         TEXT NOT NULL DEFAULT '',
	criteria           JSONB NOT NULL DEFAULT '[]',
	active             BOOLEAN NOT NULL DEFAULT TRUE
);
CREATE TABLE IF NOT EXISTS scheme_field_schemas (
	id          TEXT PRIMARY KEY,
	fields      JSONB NOT NULL DEFAULT '[]',
	constraints JSONB NOT NULL DEFAULT '[]'
);
`

// PostgresFormatVersion is the document format rows are read as.
const PostgresFormatVersion = "1.0.0"

// PostgresSource reads programs and schemas from their tables. Rows with
// active = false are withdrawn and never loaded.
type PostgresSource struct {
	db *sql.DB
}

func NewPostgresSource(db *sql.DB) *PostgresSource {
	return &PostgresSource{db: db}
}

func (s *PostgresSource) Name() string { return "postgres" }

// Load reads both tables concurrently.
func (s *PostgresSource) Load(ctx context.Context) (*catalog.Document, error) {
	doc := &catalog.Document{Version: PostgresFormatVersion}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		programs, err := s.loadPrograms(ctx)
		doc.Programs = programs
		return err
	})
	g.Go(func() error {
		schemas, err := s.loadSchemas(ctx)
		doc.Schemas = schemas
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return doc, nil
}

func (s *PostgresSource) loadPrograms(ctx context.Context) ([]catalog.ProgramSpec, error) {
	query := `
		SELECT id, name, description, deadline, required_documents, schema_ref, criteria
		FROM scheme_programs
		WHERE active
		ORDER BY id
	`
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query programs: %w", err)
	}
	defer rows.Close()

	programs := []catalog.ProgramSpec{}
	for rows.Next() {
		var (
			p        catalog.ProgramSpec
			deadline sql.NullTime
			criteria []byte
		)
		if err := rows.Scan(&p.ID, &p.Name, &p.Description, &deadline,
			pq.Array(&p.RequiredDocuments), &p.Schema, &criteria); err != nil {
			return nil, fmt.Errorf("scan program: %w", err)
		}
		if deadline.Valid {
			p.Deadline = deadline.Time.UTC().Format(time.RFC3339Nano)
		}
		if err := json.Unmarshal(criteria, &p.Criteria); err != nil {
			return nil, fmt.Errorf("decode criteria of program %s: %w", p.ID, err)
		}
		programs = append(programs, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate programs: %w", err)
	}
	return programs, nil
}

func (s *PostgresSource) loadSchemas(ctx context.Context) ([]catalog.SchemaSpec, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, fields, constraints FROM scheme_field_schemas ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("query field schemas: %w", err)
	}
	defer rows.Close()

	schemas := []catalog.SchemaSpec{}
	for rows.Next() {
		var (
			schema              catalog.SchemaSpec
			fields, constraints []byte
		)
		if err := rows.Scan(&schema.ID, &fields, &constraints); err != nil {
			return nil, fmt.Errorf("scan field schema: %w", err)
		}
		if err := json.Unmarshal(fields, &schema.Fields); err != nil {
			return nil, fmt.Errorf("decode fields of schema %s: %w", schema.ID, err)
		}
		if err := json.Unmarshal(constraints, &schema.Constraints); err != nil {
			return nil, fmt.Errorf("decode constraints of schema %s: %w", schema.ID, err)
		}
		schemas = append(schemas, schema)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate field schemas: %w", err)
	}
	return schemas, nil
}

// Replace swaps the table contents for doc in one transaction, joining the
// caller's transaction when ctx carries one. Used by schemectl import and by
// tests to seed the tables.
func (s *PostgresSource) Replace(ctx context.Context, doc *catalog.Document) error {
	deadlines := make([]*time.Time, len(doc.Programs))
	for i, p := range doc.Programs {
		if p.Deadline == "" {
			continue
		}
		t, err := catalog.ParseDeadline(p.Deadline)
		if err != nil {
			return fmt.Errorf("program %s: %w", p.ID, err)
		}
		// TIMESTAMPTZ rounds to microseconds, which would push an
		// end-of-day deadline into the next day.
		t = t.Truncate(time.Microsecond)
		deadlines[i] = &t
	}

	return txctx.Run(ctx, s.db, func(ctx context.Context) error {
		tx, _ := txctx.From(ctx)
		return replaceIn(ctx, tx, doc, deadlines)
	})
}

func replaceIn(ctx context.Context, tx *sql.Tx, doc *catalog.Document, deadlines []*time.Time) error {
	if _, err := tx.ExecContext(ctx, `DELETE FROM scheme_programs`); err != nil {
		return fmt.Errorf("clear programs: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM scheme_field_schemas`); err != nil {
		return fmt.Errorf("clear field schemas: %w", err)
	}

	for i, p := range doc.Programs {
		criteria, err := json.Marshal(nonNil(p.Criteria))
		if err != nil {
			return fmt.Errorf("encode criteria of program %s: %w", p.ID, err)
		}
		_, err = tx.ExecContext(ctx, `
			INSERT INTO scheme_programs (id, name, description, deadline, required_documents, schema_ref, criteria)
			VALUES ($1, $2, $3, $4, $5, $6, $7)
		`, p.ID, p.Name, p.Description, deadlines[i], pq.Array(nonNil(p.RequiredDocuments)), p.Schema, criteria)
		if err != nil {
			return fmt.Errorf("insert program %s: %w", p.ID, err)
		}
	}
	for _, schema := range doc.Schemas {
		fields, err := json.Marshal(nonNil(schema.Fields))
		if err != nil {
			return fmt.Errorf("encode fields of schema %s: %w", schema.ID, err)
		}
		constraints, err := json.Marshal(nonNil(schema.Constraints))
		if err != nil {
			return fmt.Errorf("encode constraints of schema %s: %w", schema.ID, err)
		}
		_, err = tx.ExecContext(ctx, `
			INSERT INTO scheme_field_schemas (id, fields, constraints) VALUES ($1, $2, $3)
		`, schema.ID, fields, constraints)
		if err != nil {
			return fmt.Errorf("insert field schema %s: %w", schema.ID, err)
		}
	}
	return nil
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}

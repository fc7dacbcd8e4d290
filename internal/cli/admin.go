package cli

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/lib/pq"
	"github.com/spf13/cobra"

	"schemematch/internal/scheme/catalog"
	"schemematch/internal/scheme/store"
	audit "schemematch/pkg/platform/audit"
	"schemematch/pkg/platform/audit/consumer"
	"schemematch/pkg/platform/audit/publishers/kafka"
	auditpg "schemematch/pkg/platform/audit/store/postgres"
	"schemematch/pkg/platform/middleware/auth"
	txctx "schemematch/pkg/platform/tx"
)

func newImportCommand(e *env) *cobra.Command {
	var actor string
	cmd := &cobra.Command{
		Use:   "import",
		Short: "Replace the postgres catalog tables with a catalog document",
		Long: "import compiles the document first and refuses to write one the server " +
			"would reject. The running server picks the change up on its next refresh.",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			path, err := e.require(keyCatalog)
			if err != nil {
				return err
			}
			dsn, err := e.require(keyDSN)
			if err != nil {
				return err
			}

			doc, err := store.NewFileSource(path).Load(ctx)
			if err != nil {
				return err
			}
			if _, err := catalog.New().RefreshDocument(doc); err != nil {
				return err
			}

			db, err := sql.Open("postgres", dsn)
			if err != nil {
				return fmt.Errorf("open postgres: %w", err)
			}
			defer db.Close()
			for _, ddl := range []string{store.PostgresSchema, auditpg.Schema} {
				if _, err := db.ExecContext(ctx, ddl); err != nil {
					return fmt.Errorf("create tables: %w", err)
				}
			}

			// The catalog swap and its audit record commit together.
			err = txctx.Run(ctx, db, func(ctx context.Context) error {
				if err := store.NewPostgresSource(db).Replace(ctx, doc); err != nil {
					return err
				}
				return auditpg.New(db).Append(ctx, audit.Event{
					Subject:  "catalog",
					Action:   string(audit.EventCatalogImported),
					Decision: path,
					Reason:   "format " + doc.Version,
					ActorID:  actor,
				})
			})
			if err != nil {
				return err
			}
			e.logger.InfoContext(ctx, "catalog imported", "programs", len(doc.Programs), "schemas", len(doc.Schemas))
			return e.print(map[string]int{"programs": len(doc.Programs), "schemas": len(doc.Schemas)})
		},
	}
	cmd.Flags().String(keyCatalog, "", "catalog document (yaml or json)")
	cmd.Flags().String(keyDSN, "", "postgres connection string")
	cmd.Flags().StringVar(&actor, "actor", app, "operator recorded in the audit trail")
	return cmd
}

func newTokenCommand(e *env) *cobra.Command {
	var (
		subject string
		role    string
		ttl     time.Duration
	)
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Mint an operator bearer token for the admin endpoints",
		RunE: func(cmd *cobra.Command, _ []string) error {
			key, err := e.require(keyJWTKey)
			if err != nil {
				return err
			}
			if subject == "" {
				return fmt.Errorf("--subject is required")
			}
			token, err := auth.NewSigner(key, e.v.GetString(keyJWTIss)).IssueToken(subject, role, ttl)
			if err != nil {
				return err
			}
			return e.print(map[string]string{"token": token, "expires_in": ttl.String()})
		},
	}
	cmd.Flags().String(keyJWTKey, "", "HS256 signing key shared with the server")
	cmd.Flags().String(keyJWTIss, "schemematch", "token issuer")
	cmd.Flags().StringVar(&subject, "subject", "", "operator identity recorded in audit events")
	cmd.Flags().StringVar(&role, "role", auth.RoleAdmin, "role claim")
	cmd.Flags().DurationVar(&ttl, "ttl", time.Hour, "token lifetime")
	return cmd
}

func newAuditSinkCommand(e *env) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "audit-sink",
		Short: "Copy audit events from the Kafka topic into the postgres audit table",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			dsn, err := e.require(keyDSN)
			if err != nil {
				return err
			}
			brokers := e.v.GetStringSlice(keyBrokers)
			if len(brokers) == 0 {
				return fmt.Errorf("--%s (or %s_BROKERS) is required", keyBrokers, envPrefix)
			}

			db, err := sql.Open("postgres", dsn)
			if err != nil {
				return fmt.Errorf("open postgres: %w", err)
			}
			defer db.Close()
			if _, err := db.ExecContext(ctx, auditpg.Schema); err != nil {
				return fmt.Errorf("create audit table: %w", err)
			}

			topic := e.v.GetString(keyTopic)
			client, err := consumer.NewClient(brokers, topic, e.v.GetString(keyGroup))
			if err != nil {
				return err
			}
			defer client.Close()

			e.logger.InfoContext(ctx, "audit sink started", "topic", topic, "brokers", brokers)
			sink := consumer.New(client, consumer.NewStoreRouter(auditpg.New(db), e.logger), e.logger)
			return sink.Run(ctx)
		},
	}
	cmd.Flags().String(keyDSN, "", "postgres connection string")
	cmd.Flags().StringSlice(keyBrokers, nil, "kafka seed brokers")
	cmd.Flags().String(keyTopic, kafka.DefaultTopic, "audit topic")
	cmd.Flags().String(keyGroup, consumer.DefaultGroup, "consumer group")
	return cmd
}

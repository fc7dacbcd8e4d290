// Package cli implements schemectl, the operator tool for checking profiles
// against a catalog file and managing catalog storage.
package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"schemematch/internal/platform/logger"
)

const (
	app       = "schemectl"
	envPrefix = "SCHEMECTL"
)

// Config keys shared by flags, SCHEMECTL_* variables and the config file.
const (
	keyCatalog  = "catalog"
	keyProfile  = "profile"
	keyAsOf     = "as-of"
	keyLimit    = "limit"
	keyMapping  = "mapping"
	keyDSN      = "dsn"
	keyJWTKey   = "jwt-signing-key"
	keyJWTIss   = "jwt-issuer"
	keyLogLevel = "log-level"
	keyBrokers  = "brokers"
	keyTopic    = "topic"
	keyGroup    = "group"
)

// env holds what every subcommand needs. One per root command, so tests can
// build independent command trees.
type env struct {
	v      *viper.Viper
	out    io.Writer
	logger *slog.Logger
}

// NewRootCommand builds the schemectl command tree writing results to out.
// Precedence: flags, then SCHEMECTL_* environment, then the config file.
func NewRootCommand(out io.Writer) *cobra.Command {
	e := &env{v: viper.New(), out: out}
	var cfgFile string

	root := &cobra.Command{
		Use:           app,
		Short:         "schemectl matches applicant profiles against a benefit catalog",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if err := e.v.BindPFlags(cmd.Flags()); err != nil {
				return err
			}
			if cfgFile != "" {
				e.v.SetConfigFile(cfgFile)
				if err := e.v.ReadInConfig(); err != nil {
					return fmt.Errorf("read config %s: %w", cfgFile, err)
				}
			}
			e.logger = logger.NewWithWriter(os.Stderr, e.v.GetString(keyLogLevel))
			return nil
		},
	}

	e.v.SetEnvPrefix(envPrefix)
	e.v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	e.v.AutomaticEnv()

	root.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (yaml, json or toml)")
	root.PersistentFlags().String(keyLogLevel, "warn", "log level: debug, info, warn, error")

	root.AddCommand(
		newMatchCommand(e),
		newGapsCommand(e),
		newMapCommand(e),
		newValidateCommand(e),
		newImportCommand(e),
		newTokenCommand(e),
		newAuditSinkCommand(e),
	)
	return root
}

// Execute runs schemectl with os.Args until it finishes or is interrupted.
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	return NewRootCommand(os.Stdout).ExecuteContext(ctx)
}

func (e *env) print(v any) error {
	enc := json.NewEncoder(e.out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// require returns the value of key or an error naming the flag and variable.
func (e *env) require(key string) (string, error) {
	v := strings.TrimSpace(e.v.GetString(key))
	if v == "" {
		return "", fmt.Errorf("--%s (or %s_%s) is required", key, envPrefix, strings.ToUpper(strings.ReplaceAll(key, "-", "_")))
	}
	return v, nil
}

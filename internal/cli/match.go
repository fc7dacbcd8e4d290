package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"schemematch/internal/scheme/catalog"
	"schemematch/internal/scheme/handler"
	"schemematch/internal/scheme/matcher"
	"schemematch/internal/scheme/models"
	"schemematch/internal/scheme/service"
	"schemematch/internal/scheme/store"
)

func newMatchCommand(e *env) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "match",
		Short: "List the programs a profile is eligible for, best first",
		RunE: func(cmd *cobra.Command, _ []string) error {
			svc, profile, asOf, err := e.load(cmd.Context())
			if err != nil {
				return err
			}
			results, err := svc.FindEligible(cmd.Context(), profile, asOf)
			if err != nil {
				return err
			}
			return e.print(handler.EligibleFrom(results, asOf))
		},
	}
	addProfileFlags(cmd)
	return cmd
}

func newGapsCommand(e *env) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "gaps",
		Short: "Explain the open programs a profile narrowly misses",
		RunE: func(cmd *cobra.Command, _ []string) error {
			svc, profile, asOf, err := e.load(cmd.Context())
			if err != nil {
				return err
			}
			gaps, err := svc.ExplainGaps(cmd.Context(), profile, asOf, e.v.GetInt(keyLimit))
			if err != nil {
				return err
			}
			return e.print(handler.GapsFrom(gaps, asOf))
		},
	}
	addProfileFlags(cmd)
	cmd.Flags().Int(keyLimit, matcher.DefaultGapLimit, "maximum number of programs to explain")
	return cmd
}

func newMapCommand(e *env) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "map <program-id>",
		Short: "Resolve a program's application form fields from a profile",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, profile, _, err := e.load(cmd.Context())
			if err != nil {
				return err
			}
			result, err := svc.MapFields(cmd.Context(), args[0], profile)
			if err != nil {
				return err
			}
			return e.print(handler.MappingFrom(result))
		},
	}
	addProfileFlags(cmd)
	return cmd
}

func newValidateCommand(e *env) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate <program-id>",
		Short: "Check a mapping result, as printed by map, against the program's form",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := e.service(cmd.Context())
			if err != nil {
				return err
			}
			path, err := e.require(keyMapping)
			if err != nil {
				return err
			}
			var mapping handler.MappingResponse
			if err := readJSON(path, &mapping); err != nil {
				return err
			}
			violations, err := svc.Validate(cmd.Context(), args[0], models.MappingResult{
				ProgramID: args[0],
				SchemaID:  mapping.SchemaID,
				Values:    mapping.Values,
				Missing:   mapping.Missing,
				Invalid:   mapping.Invalid,
				Complete:  mapping.Complete,
			})
			if err != nil {
				return err
			}
			return e.print(handler.ValidateFrom(violations))
		},
	}
	cmd.Flags().String(keyCatalog, "", "catalog document (yaml or json)")
	cmd.Flags().String(keyMapping, "", "mapping result json")
	return cmd
}

func addProfileFlags(cmd *cobra.Command) {
	cmd.Flags().String(keyCatalog, "", "catalog document (yaml or json)")
	cmd.Flags().String(keyProfile, "", "profile json")
	cmd.Flags().String(keyAsOf, "", "evaluation time, RFC3339 or YYYY-MM-DD (default now)")
}

// service loads the catalog file into a fresh in-process façade.
func (e *env) service(ctx context.Context) (*service.Service, error) {
	path, err := e.require(keyCatalog)
	if err != nil {
		return nil, err
	}
	doc, err := store.NewFileSource(path).Load(ctx)
	if err != nil {
		return nil, err
	}
	c := catalog.New()
	if _, err := c.RefreshDocument(doc, catalog.WithSource("file")); err != nil {
		return nil, err
	}
	return service.New(c, matcher.New(matcher.DefaultConfig()), service.WithLogger(e.logger)), nil
}

func (e *env) load(ctx context.Context) (*service.Service, *models.Profile, time.Time, error) {
	svc, err := e.service(ctx)
	if err != nil {
		return nil, nil, time.Time{}, err
	}
	path, err := e.require(keyProfile)
	if err != nil {
		return nil, nil, time.Time{}, err
	}
	var profile models.Profile
	if err := readJSON(path, &profile); err != nil {
		return nil, nil, time.Time{}, err
	}
	asOf, err := parseAsOf(e.v.GetString(keyAsOf))
	if err != nil {
		return nil, nil, time.Time{}, err
	}
	return svc, &profile, asOf, nil
}

// parseAsOf reads an RFC3339 instant or a bare date, taken as UTC midnight.
func parseAsOf(raw string) (time.Time, error) {
	if raw == "" {
		return time.Now(), nil
	}
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return t, nil
	}
	t, err := time.Parse(time.DateOnly, raw)
	if err != nil {
		return time.Time{}, fmt.Errorf("--%s must be RFC3339 or YYYY-MM-DD: %q", keyAsOf, raw)
	}
	return t, nil
}

func readJSON(path string, v any) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	dec := json.NewDecoder(f)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("decode %s: %w", path, err)
	}
	return nil
}

// Copyright 2026 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"
	"text/tabwriter"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
	"github.com/spf13/cobra"

	"github.com/canonical/workspace-service/migrations"
)

var migrateCommands = map[string]bool{"up": true, "down": true, "status": true, "check": true}

// migrateCmd performs DB migrations
var migrateCmd = &cobra.Command{
	Use:   "migrate [up|down [version]|status|check]",
	Short: "Run database migrations",
	Long:  `Apply, roll back or inspect the schema migrations embedded in the binary, up is the default`,
	Args:  customValidArgs(),
	RunE:  runMigrate,
}

func customValidArgs() cobra.PositionalArgs {
	return func(cmd *cobra.Command, args []string) error {
		if err := cobra.MaximumNArgs(2)(cmd, args); err != nil {
			return err
		}

		if len(args) == 0 {
			return nil
		}

		if !migrateCommands[args[0]] {
			return fmt.Errorf("invalid first argument: %q", args[0])
		}

		if len(args) == 1 {
			return nil
		}

		if args[0] != "down" {
			return fmt.Errorf("only down accepts a target version, got %q", args)
		}

		if v, err := strconv.Atoi(args[1]); err != nil || v < 0 {
			return fmt.Errorf("invalid version number: %q", args[1])
		}

		return nil
	}
}

func init() {
	migrateCmd.Flags().String("dsn", os.Getenv("DSN"), "PostgreSQL DSN connection string, defaults to $DSN")
	migrateCmd.Flags().StringP("format", "f", "text", "Output format (text or json)")

	rootCmd.AddCommand(migrateCmd)
}

func runMigrate(cmd *cobra.Command, args []string) error {
	dsn, _ := cmd.Flags().GetString("dsn")
	format, _ := cmd.Flags().GetString("format")

	if dsn == "" {
		return fmt.Errorf("a DSN is required, pass --dsn or set $DSN")
	}

	config, err := pgx.ParseConfig(dsn)
	if err != nil {
		return fmt.Errorf("invalid DSN: %v", err)
	}

	db := stdlib.OpenDB(*config)
	defer db.Close()

	ctx := cmd.Context()

	if err := db.PingContext(ctx); err != nil {
		return fmt.Errorf("failed to connect to the database: %v", err)
	}

	var opts []goose.ProviderOption
	if format == "json" {
		opts = append(opts, goose.WithLogger(goose.NopLogger()))
	}

	provider, err := goose.NewProvider(goose.DialectPostgres, db, migrations.EmbedMigrations, opts...)
	if err != nil {
		return fmt.Errorf("failed to load migrations: %w", err)
	}

	m := &migrator{provider: provider, json: format == "json", out: cmd.OutOrStdout()}

	command := "up"
	if len(args) > 0 {
		command = args[0]
	}

	switch command {
	case "down":
		target := int64(-1)
		if len(args) > 1 {
			v, _ := strconv.Atoi(args[1])
			target = int64(v)
		}

		return m.down(cmd, target)
	case "status":
		return m.status(cmd)
	case "check":
		return m.check(cmd)
	default:
		return m.up(cmd)
	}
}

type migrator struct {
	provider *goose.Provider
	json     bool
	out      io.Writer
}

func (m *migrator) report(results []*goose.MigrationResult) error {
	if m.json {
		if results == nil {
			results = []*goose.MigrationResult{}
		}

		return json.NewEncoder(m.out).Encode(map[string]any{"applied": results})
	}

	for _, r := range results {
		fmt.Fprintf(m.out, "%s %s in %s\n", r.Direction, r.Source.Path, r.Duration)
	}

	return nil
}

func (m *migrator) up(cmd *cobra.Command) error {
	results, err := m.provider.Up(cmd.Context())
	if err != nil {
		return err
	}

	return m.report(results)
}

// down rolls back the last migration, or every migration above target when it is set
func (m *migrator) down(cmd *cobra.Command, target int64) error {
	if target >= 0 {
		results, err := m.provider.DownTo(cmd.Context(), target)
		if err != nil {
			return err
		}

		return m.report(results)
	}

	result, err := m.provider.Down(cmd.Context())
	if err != nil {
		return err
	}

	return m.report([]*goose.MigrationResult{result})
}

func (m *migrator) status(cmd *cobra.Command) error {
	statuses, err := m.provider.Status(cmd.Context())
	if err != nil {
		return err
	}

	if m.json {
		return json.NewEncoder(m.out).Encode(statuses)
	}

	w := tabwriter.NewWriter(m.out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "APPLIED AT\tMIGRATION")

	for _, s := range statuses {
		appliedAt := "pending"
		if s.State == goose.StateApplied {
			appliedAt = s.AppliedAt.Format(time.RFC3339)
		}

		fmt.Fprintf(w, "%s\t%s\n", appliedAt, s.Source.Path)
	}

	return w.Flush()
}

// check fails while migrations are pending so deployments can gate on it
func (m *migrator) check(cmd *cobra.Command) error {
	ctx := cmd.Context()

	pending, err := m.provider.HasPending(ctx)
	if err != nil {
		return fmt.Errorf("failed to check pending migrations: %w", err)
	}

	current, err := m.provider.GetDBVersion(ctx)
	if err != nil {
		return fmt.Errorf("failed to read the schema version: %w", err)
	}

	if m.json {
		state := "ok"
		if pending {
			state = "pending"
		}

		if err := json.NewEncoder(m.out).Encode(map[string]any{"status": state, "version": current}); err != nil {
			return err
		}
	}

	if pending {
		return fmt.Errorf("migrations are pending: current version %d", current)
	}

	if !m.json {
		fmt.Fprintf(m.out, "Database is up to date (version %d)\n", current)
	}

	return nil
}

// Copyright 2026 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/canonical/workspace-service/internal/entities"
	"github.com/canonical/workspace-service/internal/logging"
	"github.com/canonical/workspace-service/internal/monitoring"
	"github.com/canonical/workspace-service/internal/storage"
	"github.com/canonical/workspace-service/internal/tracing"
	"github.com/canonical/workspace-service/pkg/events"
	"github.com/canonical/workspace-service/pkg/invitation"
	"github.com/canonical/workspace-service/pkg/mail"
	"github.com/canonical/workspace-service/pkg/resolver"
)

// purgeCmd runs the janitor once, for deployments that schedule it outside the server
var purgeCmd = &cobra.Command{
	Use:   "purge",
	Short: "Delete expired tokens and sessions",
	Long:  `Delete expired tokens and sessions, the database is configured through the same environment as serve`,
	RunE: func(cmd *cobra.Command, args []string) error {
		specs := loadSpecs()
		specs.TracingEnabled = false

		logger := logging.NewLogger(specs.LogLevel)
		defer logger.Sync()

		monitor := monitoring.NewNoopMonitor("workspace-service", logger)
		tracer := tracing.NewNoopTracer()

		dbClient, err := newDBClient(specs, tracer, monitor, logger)
		if err != nil {
			return err
		}
		defer dbClient.Close()

		registry := entities.DefaultRegistry()
		s := storage.NewStorage(dbClient, registry, tracer, monitor, logger)

		service := invitation.NewService(
			invitation.Config{},
			s,
			dbClient,
			resolver.NewResolver(s, registry, tracer, monitor, logger),
			mail.NewLogSender(logger),
			events.NewNotifier(1, tracer, monitor, logger),
			tracer,
			monitor,
			logger,
		)

		tokens, sessions, err := service.PurgeExpired(cmd.Context())
		if err != nil {
			return fmt.Errorf("failed to purge expired rows: %w", err)
		}

		fmt.Fprintf(cmd.OutOrStdout(), "Purged %d tokens and %d sessions\n", tokens, sessions)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(purgeCmd)
}

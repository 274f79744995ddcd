// Copyright 2026 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

package cmd

import (
	"context"
	"os"

	"github.com/spf13/cobra"
)

var (
	apiEndpoint string
	apiToken    string
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:          "app",
	Short:        "Workspace Service",
	Long:         `Workspace Service CLI for running the API and managing organizations and their members.`,
	SilenceUsage: true,
}

// Execute runs the command picked from the arguments, called once by main.main()
func Execute() {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&apiEndpoint, "endpoint", "http://localhost:8080", "API server endpoint")
	rootCmd.PersistentFlags().StringVar(&apiToken, "token", os.Getenv("WORKSPACE_TOKEN"), "Bearer token sent to the API, defaults to $WORKSPACE_TOKEN")
}

// Copyright 2026 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/spf13/cobra"

	"github.com/canonical/workspace-service/pkg/status"
)

var remoteVersion bool

// versionCmd represents the version command
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Get the application's version",
	Long:  `Get the version of this binary, or with --remote the one of the server behind --endpoint`,
	RunE: func(cmd *cobra.Command, args []string) error {
		info := status.ReadBuildInfo()

		if remoteVersion {
			c := newAPIClient(apiEndpoint, apiToken)

			req, err := http.NewRequestWithContext(cmd.Context(), http.MethodGet, c.endpoint+"/version", nil)
			if err != nil {
				return err
			}

			resp, err := c.client.Do(req)
			if err != nil {
				return fmt.Errorf("request failed: %w", err)
			}
			defer resp.Body.Close()

			if resp.StatusCode != http.StatusOK {
				body, _ := io.ReadAll(resp.Body)
				return fmt.Errorf("api error (status %d): %s", resp.StatusCode, string(body))
			}

			if err := json.NewDecoder(resp.Body).Decode(&info); err != nil {
				return fmt.Errorf("failed to decode version: %w", err)
			}
		}

		fmt.Fprintf(cmd.OutOrStdout(), "App Version: %s\n", info.Version)

		if info.CommitHash != "" {
			fmt.Fprintf(cmd.OutOrStdout(), "Commit: %s\n", info.CommitHash)
		}

		if info.GoVersion != "" {
			fmt.Fprintf(cmd.OutOrStdout(), "Go: %s\n", info.GoVersion)
		}

		return nil
	},
}

func init() {
	versionCmd.Flags().BoolVar(&remoteVersion, "remote", false, "Ask the server for its version")
	rootCmd.AddCommand(versionCmd)
}

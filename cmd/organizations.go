// Copyright 2026 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

package cmd

import (
	"fmt"
	"net/http"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/canonical/workspace-service/internal/entities"
	"github.com/canonical/workspace-service/internal/types"
	"github.com/canonical/workspace-service/pkg/authentication"
	"github.com/canonical/workspace-service/pkg/entity"
)

var organizationsCmd = &cobra.Command{
	Use:     "organizations",
	Aliases: []string{"orgs"},
	Short:   "Manage organizations",
}

var organizationSlug string

var createOrganizationCmd = &cobra.Command{
	Use:   "create [name]",
	Short: "Create an organization, the caller becomes its admin",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		client := newAPIClient(apiEndpoint, apiToken)

		org := new(types.Entity)
		err := client.do(cmd.Context(), http.MethodPost, "/organizations", entity.CreateRequest{Name: args[0], Slug: organizationSlug}, org)
		if err != nil {
			return fmt.Errorf("failed to create organization: %w", err)
		}

		cmd.Printf("Organization created: %s (ID: %s, slug: %s)\n", org.Name, org.ID, org.Slug)
		return nil
	},
}

var renameOrganizationCmd = &cobra.Command{
	Use:   "rename [id-or-slug] [name]",
	Short: "Rename an organization",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		client := newAPIClient(apiEndpoint, apiToken)

		org := new(types.Entity)
		err := client.do(cmd.Context(), http.MethodPatch, "/organizations/"+args[0], entity.UpdateRequest{Name: &args[1]}, org)
		if err != nil {
			return fmt.Errorf("failed to rename organization: %w", err)
		}

		cmd.Printf("Organization renamed: %s\n", org.Name)
		return nil
	},
}

var deleteOrganizationCmd = &cobra.Command{
	Use:   "delete [id-or-slug]",
	Short: "Delete an organization with everything it contains",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		client := newAPIClient(apiEndpoint, apiToken)

		if err := client.do(cmd.Context(), http.MethodDelete, "/organizations/"+args[0], nil, nil); err != nil {
			return fmt.Errorf("failed to delete organization: %w", err)
		}

		cmd.Printf("Organization deleted: %s\n", args[0])
		return nil
	},
}

var listOrganizationsCmd = &cobra.Command{
	Use:   "list",
	Short: "List the organizations of the authenticated user",
	RunE: func(cmd *cobra.Command, args []string) error {
		client := newAPIClient(apiEndpoint, apiToken)

		menu := make(authentication.Menu)
		if err := client.do(cmd.Context(), http.MethodGet, "/me/menu", nil, &menu); err != nil {
			return fmt.Errorf("failed to list organizations: %w", err)
		}

		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 3, ' ', 0)
		fmt.Fprintln(w, "ID\tSLUG\tNAME\tROLE")
		for _, item := range menu[entities.Organization] {
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", item.Entity.ID, item.Entity.Slug, item.Entity.Name, item.Membership.Role)
		}
		return w.Flush()
	},
}

func init() {
	rootCmd.AddCommand(organizationsCmd)
	organizationsCmd.AddCommand(createOrganizationCmd)
	organizationsCmd.AddCommand(renameOrganizationCmd)
	organizationsCmd.AddCommand(deleteOrganizationCmd)
	organizationsCmd.AddCommand(listOrganizationsCmd)

	createOrganizationCmd.Flags().StringVar(&organizationSlug, "slug", "", "Slug of the organization, derived from the name when empty")
}

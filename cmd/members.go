// Copyright 2026 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

package cmd

import (
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/canonical/workspace-service/internal/types"
	"github.com/canonical/workspace-service/pkg/invitation"
	"github.com/canonical/workspace-service/pkg/membership"
)

var membersCmd = &cobra.Command{
	Use:   "members",
	Short: "Manage organization members",
}

var (
	membersPage int64
	membersSize int64
	inviteRole  string
)

var listMembersCmd = &cobra.Command{
	Use:   "list [organization]",
	Short: "List the members of an organization",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		client := newAPIClient(apiEndpoint, apiToken)

		q := url.Values{}
		q.Set("page", strconv.FormatInt(membersPage, 10))
		q.Set("size", strconv.FormatInt(membersSize, 10))

		members := make([]*types.Member, 0)
		if err := client.do(cmd.Context(), http.MethodGet, "/organizations/"+args[0]+"/members?"+q.Encode(), nil, &members); err != nil {
			return fmt.Errorf("failed to list members: %w", err)
		}

		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 3, ' ', 0)
		fmt.Fprintln(w, "USER_ID\tEMAIL\tNAME\tROLE\tMEMBERSHIP_ID")
		for _, m := range members {
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", m.User.ID, m.User.Email, m.User.Name, m.Membership.Role, m.Membership.ID)
		}
		return w.Flush()
	},
}

var inviteMembersCmd = &cobra.Command{
	Use:   "invite [organization] [email...]",
	Short: "Invite users to an organization by email",
	Args:  cobra.MinimumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		client := newAPIClient(apiEndpoint, apiToken)

		result := new(invitation.InviteResult)
		req := membership.InviteRequest{Emails: args[1:], Role: types.Role(inviteRole)}
		if err := client.do(cmd.Context(), http.MethodPost, "/organizations/"+args[0]+"/members/invite", req, result); err != nil {
			return fmt.Errorf("failed to invite users: %w", err)
		}

		if len(result.Invited) > 0 {
			cmd.Printf("Invited: %s\n", strings.Join(result.Invited, ", "))
		}
		if len(result.Skipped) > 0 {
			cmd.Printf("Already members: %s\n", strings.Join(result.Skipped, ", "))
		}
		return nil
	},
}

var updateMemberCmd = &cobra.Command{
	Use:   "update [organization] [user-id] [role]",
	Short: "Change the role of a member",
	Args:  cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		client := newAPIClient(apiEndpoint, apiToken)

		role := types.Role(args[2])
		m := new(types.Membership)
		if err := client.do(cmd.Context(), http.MethodPatch, "/organizations/"+args[0]+"/members/"+args[1], membership.UpdateRequest{Role: &role}, m); err != nil {
			return fmt.Errorf("failed to update member: %w", err)
		}

		cmd.Printf("Member updated: %s\nNew Role: %s\n", m.UserID, m.Role)
		return nil
	},
}

var removeMembersCmd = &cobra.Command{
	Use:   "remove [membership-id...]",
	Short: "Remove memberships, a member may always remove its own",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		client := newAPIClient(apiEndpoint, apiToken)

		result := new(membership.DeleteResult)
		if err := client.do(cmd.Context(), http.MethodDelete, "/memberships?ids="+url.QueryEscape(strings.Join(args, ",")), nil, result); err != nil {
			return fmt.Errorf("failed to remove members: %w", err)
		}

		for _, id := range result.Deleted {
			cmd.Printf("Removed: %s\n", id)
		}
		for _, e := range result.Errors {
			cmd.Printf("Not removed: %s (%s)\n", e.ID, e.Type)
		}
		return nil
	},
}

func init() {
	organizationsCmd.AddCommand(membersCmd)
	membersCmd.AddCommand(listMembersCmd)
	membersCmd.AddCommand(inviteMembersCmd)
	membersCmd.AddCommand(updateMemberCmd)
	membersCmd.AddCommand(removeMembersCmd)

	listMembersCmd.Flags().Int64Var(&membersPage, "page", 1, "Page number")
	listMembersCmd.Flags().Int64Var(&membersSize, "size", 100, "Page size")
	inviteMembersCmd.Flags().StringVar(&inviteRole, "role", string(types.RoleMember), "Role granted on acceptance (admin or member)")
}

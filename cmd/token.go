// Copyright 2026 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

package cmd

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/coreos/go-oidc/v3/oidc"
	"github.com/spf13/cobra"
	"golang.org/x/oauth2/clientcredentials"
)

var (
	clientID     string
	clientSecret string
	tokenURL     string
	issuerURL    string
	scopes       []string
	tokenOutput  string
)

// tokenCmd fetches a bearer token for the --token flag of the API commands, the service
// maps it to the user owning the verified email of the token
var tokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Get an access token using the client credentials flow",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		if tokenURL == "" {
			if issuerURL == "" {
				return fmt.Errorf("either --token-url or --issuer-url must be provided")
			}

			provider, err := oidc.NewProvider(ctx, issuerURL)
			if err != nil {
				return fmt.Errorf("failed to discover token endpoint of %s: %w", issuerURL, err)
			}
			tokenURL = provider.Endpoint().TokenURL
		}

		config := &clientcredentials.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			TokenURL:     tokenURL,
			Scopes:       scopes,
		}

		token, err := config.Token(ctx)
		if err != nil {
			return fmt.Errorf("failed to get token: %w", err)
		}

		if tokenOutput == "json" {
			return json.NewEncoder(cmd.OutOrStdout()).Encode(map[string]any{
				"access_token": token.AccessToken,
				"token_type":   token.Type(),
				"expiry":       token.Expiry,
			})
		}

		fmt.Fprintln(cmd.OutOrStdout(), token.AccessToken)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(tokenCmd)

	tokenCmd.Flags().StringVar(&clientID, "client-id", "", "Client ID")
	tokenCmd.Flags().StringVar(&clientSecret, "client-secret", "", "Client Secret")
	tokenCmd.Flags().StringVar(&tokenURL, "token-url", "", "Token URL")
	tokenCmd.Flags().StringVar(&issuerURL, "issuer-url", os.Getenv("OIDC_ISSUER"), "Issuer URL (for OIDC discovery), defaults to $OIDC_ISSUER")
	tokenCmd.Flags().StringVarP(&tokenOutput, "output", "o", "text", "Output format (text prints the bare token, json adds its type and expiry)")
	tokenCmd.Flags().StringSliceVar(&scopes, "scopes", []string{"openid", "email"}, "Scopes (comma-separated), include the scope the service requires")

	_ = tokenCmd.MarkFlagRequired("client-id")
	_ = tokenCmd.MarkFlagRequired("client-secret")
}

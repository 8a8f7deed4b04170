package commands

import (
	"context"
	"fmt"
	"time"

	"github.com/benvon/smart-auth/internal/services/oidc"
	"github.com/spf13/cobra"
)

// NewCheckOAuthCmd creates the check-oauth command
func NewCheckOAuthCmd(load ConfigLoader) *cobra.Command {
	var (
		probe    bool
		certsURL string
	)

	cmd := &cobra.Command{
		Use:   "check-oauth",
		Short: "Report which OAuth providers are configured",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := load()
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}
			out := cmd.OutOrStdout()

			if cfg.GoogleEnabled() {
				fmt.Fprintf(out, "google: enabled (client id %s)\n", cfg.GoogleClientID)
				if probe {
					ctx, cancel := context.WithTimeout(cmd.Context(), 10*time.Second)
					defer cancel()

					keys, err := oidc.NewJWKSManager(nil).GetJWKS(ctx, certsURL)
					if err != nil {
						return fmt.Errorf("google signing keys unreachable: %w", err)
					}
					fmt.Fprintf(out, "google: %d signing keys at %s\n", keys.Len(), certsURL)
				}
			} else {
				fmt.Fprintln(out, "google: disabled (set GOOGLE_CLIENT_ID)")
			}

			if cfg.GitHubEnabled() {
				exchanger := oidc.NewGitHubExchanger(cfg.GitHubClientID, cfg.GitHubClientSecret)
				fmt.Fprintf(out, "github: enabled (authorize at %s)\n", exchanger.AuthCodeURL("state"))
			} else {
				fmt.Fprintln(out, "github: disabled (set GITHUB_CLIENT_ID and GITHUB_CLIENT_SECRET)")
			}

			return nil
		},
	}

	cmd.Flags().BoolVar(&probe, "probe", false, "Fetch Google signing keys to confirm they are reachable")
	cmd.Flags().StringVar(&certsURL, "certs-url", oidc.GoogleCertsURL, "Google JWKS URL used by --probe")

	return cmd
}

package cmd

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roomdesk/roomdesk/internal/config"
	"github.com/roomdesk/roomdesk/internal/google"
)

func newLoginCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Authorize roomdesk to access your Google calendar and room directory",
		Long: `Authorize roomdesk with your Google account for the stdio transport.

The command prints an authorization URL. Open it in a browser, sign in,
grant access, and paste the authorization code back into the terminal.
The token is stored under your user cache directory and refreshed
automatically from then on.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}
			if cfg.Google.ClientID == "" {
				cfg.Google.ClientID = os.Getenv("GOOGLE_CLIENT_ID")
			}
			if cfg.Google.ClientSecret == "" {
				cfg.Google.ClientSecret = os.Getenv("GOOGLE_CLIENT_SECRET")
			}
			if err := cfg.Validate(); err != nil {
				return err
			}

			conf := google.Config{
				ClientID:     cfg.Google.ClientID,
				ClientSecret: cfg.Google.ClientSecret,
				// The login flow always uses the out-of-band redirect.
			}

			fmt.Println("Visit this URL in your browser:")
			fmt.Println()
			fmt.Printf("  %s\n", conf.AuthURL("state-token"))
			fmt.Println()
			fmt.Print("Enter the authorization code: ")

			reader := bufio.NewReader(cmd.InOrStdin())
			line, err := reader.ReadString('\n')
			if err != nil {
				return fmt.Errorf("failed to read authorization code: %w", err)
			}
			authCode := strings.TrimSpace(line)
			if authCode == "" {
				return fmt.Errorf("authorization code is required")
			}

			if err := conf.SaveToken(cmd.Context(), authCode); err != nil {
				return err
			}

			fmt.Println("Authorization complete. The token has been saved.")
			return nil
		},
	}

	cmd.Flags().StringVar(&configPath, "config", "", "Path to the config file (default: $XDG_CONFIG_HOME/roomdesk/config.toml)")

	return cmd
}

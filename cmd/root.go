package cmd

import (
	"os"

	"github.com/spf13/cobra"
)

// rootCmd represents the base command for the roomdesk application
var rootCmd = &cobra.Command{
	Use:   "roomdesk",
	Short: "Meeting-room booking backend for Google Workspace",
	Long: `roomdesk books conference rooms in your organization's Google Workspace.
It checks live room availability before every booking, update, and resize,
so double bookings are rejected instead of silently created.

It can run as:
  - An HTTP API server for a browser client (default)
  - An MCP (Model Context Protocol) server for AI assistants`,
	SilenceUsage: true,
}

// version will be set by main
var version = "dev"

// SetVersion sets the version for the root command
func SetVersion(v string) {
	version = v
	rootCmd.Version = v
}

// Execute is the main entry point for the CLI application
func Execute() {
	rootCmd.SetVersionTemplate(`{{printf "roomdesk version %s\n" .Version}}`)

	// If no subcommand is provided, run the serve command by default
	if len(os.Args) == 1 {
		os.Args = append(os.Args, "serve")
	}

	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.AddCommand(newServeCmd())
	rootCmd.AddCommand(newLoginCmd())
	rootCmd.AddCommand(newVersionCmd())
}

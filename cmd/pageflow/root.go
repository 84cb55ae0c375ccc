package main

import (
	"fmt"
	"os"

	"github.com/aretw0/pageflow/internal/cli"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "pageflow",
	Short: "pageflow navigates a static site without full page reloads",
	Long: `pageflow swaps the content region of a static multi-page site on navigation,
animates the change with a transition overlay and keeps the browser history in sync.
It can browse a site in the terminal, serve headless sessions over HTTP or MCP, and
check that every page loads.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	// Persistent flags (available to all commands)
	rootCmd.PersistentFlags().String("dir", ".", "Directory containing the site documents")
	rootCmd.PersistentFlags().String("config", "", "Site manifest (default: <dir>/pageflow.yaml)")
	rootCmd.PersistentFlags().String("log-level", "warn", "Log level: debug, info, warn, error")
}

// setup resolves the shared flags. A positional argument stands in for --dir.
func setup(cmd *cobra.Command, args []string) (*cli.App, error) {
	dir, _ := cmd.Flags().GetString("dir")
	if !cmd.Flags().Changed("dir") && len(args) > 0 {
		dir = args[0]
	}
	configPath, _ := cmd.Flags().GetString("config")
	level, _ := cmd.Flags().GetString("log-level")

	opts := cli.Options{Dir: dir, ConfigPath: configPath, LogLevel: level}
	if cmd.Flags().Lookup("preset") != nil {
		opts.Preset, _ = cmd.Flags().GetString("preset")
	}
	return cli.Setup(opts, os.Stderr)
}

package main

import (
	"os"

	"github.com/aretw0/pageflow/internal/cli"
	"github.com/spf13/cobra"
)

var browseCmd = &cobra.Command{
	Use:   "browse [dir]",
	Short: "Browse the site in the terminal",
	Long: `Opens the site in an interactive terminal browser. Commands:
  go <page|href>   navigate to a page id or follow a link
  back, forward    traverse history
  hover <href>     preload a link target
  pages            list the pages
  quit             exit`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := setup(cmd, args)
		if err != nil {
			return err
		}
		start, _ := cmd.Flags().GetString("start")
		headless, _ := cmd.Flags().GetBool("headless")

		ctx := cli.NewSignalContext(cmd.Context())
		defer ctx.Cancel()
		return cli.RunBrowse(ctx, app, cli.BrowseOptions{Start: start, Headless: headless}, os.Stdin, os.Stdout)
	},
}

func init() {
	rootCmd.AddCommand(browseCmd)
	browseCmd.Flags().String("preset", "", "Transition preset: spa, instant, motion, simple, smooth, none")
	browseCmd.Flags().String("start", "", "Location to open (default: the landing page)")
	browseCmd.Flags().Bool("headless", false, "Run in headless mode (no prompts, no colors)")

	// Make 'browse' the default if no command is provided.
	rootCmd.RunE = browseCmd.RunE
	rootCmd.Flags().AddFlagSet(browseCmd.Flags())
}

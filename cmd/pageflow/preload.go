package main

import (
	"os"

	"github.com/aretw0/pageflow/internal/cli"
	"github.com/spf13/cobra"
)

var preloadCmd = &cobra.Command{
	Use:   "preload [dir]",
	Short: "Load every page once and report failures",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := setup(cmd, args)
		if err != nil {
			return err
		}
		ctx := cli.NewSignalContext(cmd.Context())
		defer ctx.Cancel()
		return cli.RunPreload(ctx, app, os.Stdout)
	},
}

func init() {
	rootCmd.AddCommand(preloadCmd)
}

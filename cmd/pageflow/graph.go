package main

import (
	"os"

	"github.com/aretw0/pageflow/internal/cli"
	"github.com/aretw0/pageflow/pkg/adapters/redis"
	"github.com/aretw0/pageflow/pkg/ports"
	"github.com/spf13/cobra"
)

// graphCmd represents the graph command
var graphCmd = &cobra.Command{
	Use:   "graph [dir]",
	Short: "Export the site map visualization",
	Long:  `Follows the links of every page and outputs a Mermaid diagram (graph LR) of the site.`,
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := setup(cmd, args)
		if err != nil {
			return err
		}
		sessionID, _ := cmd.Flags().GetString("session")
		redisAddr, _ := cmd.Flags().GetString("redis")

		var store ports.SnapshotStore
		if sessionID != "" && redisAddr != "" {
			rs := redis.New(redisAddr, "", 0)
			defer rs.Close()
			store = rs
		}
		return cli.RunGraph(cmd.Context(), app, os.Stdout, store, sessionID)
	},
}

func init() {
	rootCmd.AddCommand(graphCmd)
	graphCmd.Flags().String("session", "", "Highlight the pages visited by this session")
	graphCmd.Flags().String("redis", "", "Redis address holding the session")
}

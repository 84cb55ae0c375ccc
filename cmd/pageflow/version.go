package main

import (
	"fmt"
	"strings"

	"github.com/aretw0/pageflow"
	"github.com/spf13/cobra"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number of pageflow",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "pageflow version %s\n", strings.TrimSpace(pageflow.Version))
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}

package main

import (
	"encoding/base64"
	"fmt"
	"os"

	"github.com/aretw0/pageflow/internal/cli"
	"github.com/spf13/cobra"
)

// sessionKeyEnv holds a base64 AES-256 key that enables encrypted session storage.
const sessionKeyEnv = "PAGEFLOW_SESSION_KEY"

var serveCmd = &cobra.Command{
	Use:   "serve [dir]",
	Short: "Start the HTTP server",
	Long: `Serves the site directory together with a JSON API for headless navigation
sessions, Server-Sent Events per session and Prometheus metrics.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := setup(cmd, args)
		if err != nil {
			return err
		}
		port, _ := cmd.Flags().GetString("port")
		redisAddr, _ := cmd.Flags().GetString("redis")
		redisPassword, _ := cmd.Flags().GetString("redis-password")
		redisDB, _ := cmd.Flags().GetInt("redis-db")
		ttl, _ := cmd.Flags().GetDuration("session-ttl")
		redact, _ := cmd.Flags().GetStringSlice("redact")

		var key []byte
		if encoded := os.Getenv(sessionKeyEnv); encoded != "" {
			if key, err = base64.StdEncoding.DecodeString(encoded); err != nil {
				return fmt.Errorf("%s must be base64: %w", sessionKeyEnv, err)
			}
		}

		ctx := cli.NewSignalContext(cmd.Context())
		defer ctx.Cancel()
		return cli.RunServe(ctx, app, cli.ServeOptions{
			Port:          port,
			RedisAddr:     redisAddr,
			RedisPassword: redisPassword,
			RedisDB:       redisDB,
			SessionTTL:    ttl,
			SessionKey:    key,
			Redact:        redact,
		})
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringP("port", "p", "8080", "Port to listen on")
	serveCmd.Flags().String("redis", "", "Redis address for sessions (default: in-memory)")
	serveCmd.Flags().String("redis-password", "", "Redis password")
	serveCmd.Flags().Int("redis-db", 0, "Redis database")
	serveCmd.Flags().Duration("session-ttl", 0, "Session expiry in Redis (0 keeps sessions)")
	serveCmd.Flags().StringSlice("redact", nil, "Mask query parameters matching these patterns in stored history")
}

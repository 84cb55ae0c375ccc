package cli

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/aretw0/pageflow/pkg/adapters/mcp"
	"github.com/aretw0/pageflow/pkg/adapters/memory"
	"github.com/aretw0/pageflow/pkg/observability"
	"github.com/aretw0/pageflow/pkg/session"
)

// RunMCP serves the MCP tools over stdio or SSE.
func RunMCP(ctx context.Context, app *App, transport string, port int) error {
	mgr := session.NewManager(memory.NewStore(), app.Registry, app.NewCache(nil),
		session.WithLifecycleHooks(observability.LoggingHooks(app.Logger)),
		session.WithLogger(app.Logger),
	)
	srv := mcp.NewServer(mgr, app.Logger)

	switch transport {
	case "stdio":
		app.Logger.Info("starting pageflow MCP server (stdio)")
		return srv.ServeStdio()
	case "sse":
		app.Logger.Info("starting pageflow MCP server (SSE)", "port", port)
		if err := srv.ServeSSE(ctx, port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	default:
		return fmt.Errorf("unknown transport: %s. Supported: stdio, sse", transport)
	}
}

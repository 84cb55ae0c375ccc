package cli

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"time"

	pfhttp "github.com/aretw0/pageflow/pkg/adapters/http"
	"github.com/aretw0/pageflow/pkg/adapters/memory"
	"github.com/aretw0/pageflow/pkg/adapters/redis"
	"github.com/aretw0/pageflow/pkg/observability"
	"github.com/aretw0/pageflow/pkg/persistence/middleware"
	"github.com/aretw0/pageflow/pkg/ports"
	"github.com/aretw0/pageflow/pkg/session"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// ServeOptions configure the HTTP server.
type ServeOptions struct {
	Port string
	// RedisAddr enables the Redis session store and locker.
	RedisAddr     string
	RedisPassword string
	RedisDB       int
	SessionTTL    time.Duration

	// SessionKey enables AES-256 encryption of stored snapshots.
	SessionKey []byte
	// Redact masks query parameters matching these patterns in stored history.
	Redact []string
}

// BuildServer wires the HTTP adapter. The returned cleanup releases the session store.
func BuildServer(app *App, sopts ServeOptions) (*pfhttp.Server, func(), error) {
	promRegistry := prometheus.NewRegistry()
	promRegistry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	metrics := observability.NewMetrics(promRegistry)

	streams := pfhttp.NewStreamManager(app.Logger)
	sessionOpts := []session.Option{
		session.WithLifecycleHooks(metrics.Hooks().Merge(observability.LoggingHooks(app.Logger))),
		session.WithEventSink(streams.Publish),
		session.WithLogger(app.Logger),
	}

	var store ports.SnapshotStore = memory.NewStore()
	cleanup := func() {}
	if sopts.RedisAddr != "" {
		var storeOpts []redis.Option
		if sopts.SessionTTL > 0 {
			storeOpts = append(storeOpts, redis.WithTTL(sopts.SessionTTL))
		}
		rs := redis.New(sopts.RedisAddr, sopts.RedisPassword, sopts.RedisDB, storeOpts...)
		store = rs
		sessionOpts = append(sessionOpts, session.WithLocker(redis.NewLocker(rs.Client(), redis.DefaultPrefix)))
		cleanup = func() {
			if err := rs.Close(); err != nil {
				app.Logger.Warn("closing redis client failed", "err", err)
			}
		}
		app.Logger.Info("using redis session store", "addr", sopts.RedisAddr)
	}

	store, err := protect(store, sopts)
	if err != nil {
		cleanup()
		return nil, nil, err
	}

	mgr := session.NewManager(store, app.Registry, app.NewCache(metrics), sessionOpts...)

	serverOpts := []pfhttp.Option{
		pfhttp.WithStreams(streams),
		pfhttp.WithMetricsHandler(promhttp.HandlerFor(promRegistry, promhttp.HandlerOpts{})),
		pfhttp.WithLogger(app.Logger),
	}
	if app.Site.BaseURL == "" {
		serverOpts = append(serverOpts, pfhttp.WithStatic(os.DirFS(app.Dir)))
	}
	return pfhttp.NewServer(mgr, serverOpts...), cleanup, nil
}

// RunServe serves the HTTP API until ctx is cancelled.
func RunServe(ctx context.Context, app *App, sopts ServeOptions) error {
	server, cleanup, err := BuildServer(app, sopts)
	if err != nil {
		return err
	}
	defer cleanup()

	if app.Site.PreloadEnabled() {
		go server.Sessions.Cache().PreloadAll(context.WithoutCancel(ctx))
	}

	srv := &http.Server{
		Addr:              ":" + sopts.Port,
		Handler:           server.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	serverErrors := make(chan error, 1)
	go func() {
		app.Logger.Info("starting pageflow server", "addr", srv.Addr, "dir", app.Dir)
		serverErrors <- srv.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		return fmt.Errorf("server error: %w", err)
	case <-ctx.Done():
		app.Logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			app.Logger.Warn("graceful shutdown did not complete", "err", err)
			if closeErr := srv.Close(); closeErr != nil && !errors.Is(closeErr, http.ErrServerClosed) {
				return closeErr
			}
		}
		app.Logger.Info("pageflow server stopped gracefully")
		return nil
	}
}

// protect wraps the session store with the configured at-rest protections.
func protect(store ports.SnapshotStore, sopts ServeOptions) (ports.SnapshotStore, error) {
	var mws []middleware.Middleware
	if len(sopts.Redact) > 0 {
		mw, err := middleware.NewRedactionMiddleware(sopts.Redact)
		if err != nil {
			return nil, err
		}
		mws = append(mws, mw)
	}
	if len(sopts.SessionKey) > 0 {
		mw, err := middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{ActiveKey: sopts.SessionKey})
		if err != nil {
			return nil, fmt.Errorf("invalid session key: %w", err)
		}
		mws = append(mws, mw)
	}
	return middleware.Chain(store, mws...), nil
}

package observability

import (
	"context"
	"log/slog"

	"github.com/aretw0/pageflow/pkg/domain"
)

// LoggingHooks returns lifecycle hooks that log every navigation event.
// Rejections are logged at debug level, fallbacks at warn.
func LoggingHooks(logger *slog.Logger) domain.LifecycleHooks {
	log := func(level slog.Level) func(context.Context, *domain.NavigationEvent) {
		return func(ctx context.Context, ev *domain.NavigationEvent) {
			attrs := []any{"from", ev.From, "to", ev.To}
			if ev.Direction != "" {
				attrs = append(attrs, "direction", ev.Direction)
			}
			if ev.Duration > 0 {
				attrs = append(attrs, "duration", ev.Duration)
			}
			if ev.Error != "" {
				attrs = append(attrs, "err", ev.Error)
			}
			logger.Log(ctx, level, string(ev.Type), attrs...)
		}
	}
	return domain.LifecycleHooks{
		OnBegin:    log(slog.LevelDebug),
		OnComplete: log(slog.LevelInfo),
		OnRejected: log(slog.LevelDebug),
		OnFallback: log(slog.LevelWarn),
		OnRestore:  log(slog.LevelInfo),
	}
}

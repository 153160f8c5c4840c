// Package botmw provides middlewares for bot handler.
package botmw

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/Semior001/newsportal/pkg/botx"
	"github.com/samber/lo"
)

// Logger is a middleware that logs all requests
func Logger(lg *slog.Logger) botx.Middleware {
	return func(next botx.Handler) botx.Handler {
		return func(ctx context.Context, req botx.Request) ([]botx.Response, error) {
			args := []any{
				slog.String("chat_id", req.Chat.ID),
				slog.String("chat_username", req.Chat.Username),
				slog.String("command", req.Command()),
			}

			if lg.Enabled(ctx, slog.LevelDebug) {
				lg.DebugContext(ctx, "request received", append(args, slog.String("text", req.Text))...)
			} else {
				lg.InfoContext(ctx, "request received", args...)
			}

			start := time.Now()
			res, err := next(ctx, req)

			if lg.Enabled(ctx, slog.LevelDebug) {
				lg.DebugContext(ctx, "request processed",
					slog.Any("responses", res),
					slog.Duration("duration", time.Since(start)),
					slog.Any("err", err),
				)
				return res, err
			}

			lg.InfoContext(ctx, "request processed",
				slog.Any("responses", lo.Map(res, func(r botx.Response, _ int) botx.Response {
					return botx.Response{ChatID: r.ChatID}
				})),
				slog.Duration("duration", time.Since(start)),
				slog.Any("err", err),
			)

			return res, err
		}
	}
}

// Recover is a middleware that recovers from panics and turns them into errors.
func Recover(lg *slog.Logger) botx.Middleware {
	return func(next botx.Handler) botx.Handler {
		return func(ctx context.Context, req botx.Request) (resps []botx.Response, err error) {
			defer func() {
				if r := recover(); r != nil {
					lg.ErrorContext(ctx, "panic recovered", slog.Any("panic", r))
					resps, err = nil, fmt.Errorf("panic: %v", r)
				}
			}()

			return next(ctx, req)
		}
	}
}

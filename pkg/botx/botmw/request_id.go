package botmw

import (
	"context"
	"fmt"

	"github.com/Semior001/newsportal/pkg/botx"
	"github.com/Semior001/newsportal/pkg/logx"
	"github.com/google/uuid"
)

// RequestID is a middleware that adds request id to context.
func RequestID() botx.Middleware {
	return func(next botx.Handler) botx.Handler {
		return func(ctx context.Context, req botx.Request) ([]botx.Response, error) {
			if _, ok := logx.RequestIDFromContext(ctx); ok {
				return next(ctx, req)
			}

			return next(logx.ContextWithRequestID(ctx, uuid.NewString()), req)
		}
	}
}

// ErrorMessage is sent to the requester when the handler failed
// without answering to them.
const ErrorMessage = "Algo deu errado. Tente novamente mais tarde."

// AppendRequestIDOnError is a middleware that adds request id to the responses
// of a failed handler, so the user can refer to it.
func AppendRequestIDOnError() botx.Middleware {
	return func(next botx.Handler) botx.Handler {
		return func(ctx context.Context, req botx.Request) (resps []botx.Response, err error) {
			resps, err = next(ctx, req)
			if err == nil {
				return resps, nil
			}

			reqID, _ := logx.RequestIDFromContext(ctx)

			hasRequester := false
			for i := range resps {
				resps[i].Text += fmt.Sprintf("\n\nID da requisição: `%s`", reqID)
				if resps[i].ChatID == req.Chat.ID {
					hasRequester = true
				}
			}

			if !hasRequester {
				resps = append(resps, botx.Response{
					ChatID: req.Chat.ID,
					Text:   fmt.Sprintf("%s\n\nID da requisição: `%s`", ErrorMessage, reqID),
				})
			}

			return resps, err
		}
	}
}

package telegram

import (
	"context"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

type Command interface {
	IsCommand(*tgbotapi.Update) bool
	HandleCommand(ctx context.Context, update *tgbotapi.Update)
}

type Callback interface {
	IsCallback(*tgbotapi.Update) bool
	HandleCallback(ctx context.Context, update *tgbotapi.Update)
}

// router dispatches an update to the first handler that claims it, so
// registration order doubles as precedence.
type router struct {
	handlers []any
}

func NewRouter(handlers []any) *router {
	return &router{
		handlers: handlers,
	}
}

func (r *router) HandleUpdate(ctx context.Context, update *tgbotapi.Update) {
	for _, h := range r.handlers {
		if cmd, ok := h.(Command); ok && cmd.IsCommand(update) {
			cmd.HandleCommand(ctx, update)
			return
		}
		if cb, ok := h.(Callback); ok && cb.IsCallback(update) {
			cb.HandleCallback(ctx, update)
			return
		}
	}
}

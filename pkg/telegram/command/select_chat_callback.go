package command

import (
	"context"
	"log/slog"
	"strconv"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/dchernykh/avatarchat-telegram-bot/pkg/domain"
	"github.com/dchernykh/avatarchat-telegram-bot/pkg/logger"
)

type selectChatCallback struct {
	chatService ChatService
}

func NewSelectChatCallback(chatService ChatService) *selectChatCallback {
	return &selectChatCallback{
		chatService: chatService,
	}
}

func (s *selectChatCallback) IsCallback(update *tgbotapi.Update) bool {
	return update.CallbackQuery != nil &&
		strings.HasPrefix(update.CallbackQuery.Data, domain.SelectChatCallbackPrefix)
}

func (s *selectChatCallback) HandleCallback(ctx context.Context, update *tgbotapi.Update) {
	raw := strings.TrimPrefix(update.CallbackQuery.Data, domain.SelectChatCallbackPrefix)
	chatID, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		slog.ErrorContext(ctx, "parsing chat callback id", "data", update.CallbackQuery.Data, logger.Err(err))
		return
	}

	s.chatService.SelectChat(ctx, update.CallbackQuery.Message.Chat.ID, chatID)
}

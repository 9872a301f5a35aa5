package command

import (
	"context"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

type ChatService interface {
	SendChatList(ctx context.Context, tgChatID int64)
	SelectChat(ctx context.Context, tgChatID, chatID int64)
	SendMessage(ctx context.Context, tgChatID int64, text string)
}

type showChats struct {
	chatService ChatService
}

func NewShowChats(chatService ChatService) *showChats {
	return &showChats{
		chatService: chatService,
	}
}

func (s *showChats) IsCommand(update *tgbotapi.Update) bool {
	if update.Message == nil {
		return false
	}

	return strings.HasPrefix(update.Message.Text, "/chats")
}

func (s *showChats) HandleCommand(ctx context.Context, update *tgbotapi.Update) {
	s.chatService.SendChatList(ctx, update.Message.Chat.ID)
}

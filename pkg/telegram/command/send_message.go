package command

import (
	"context"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// sendMessage is the fallthrough handler: any plain text outside a command
// flow goes to the active companion chat. Register it last.
type sendMessage struct {
	chatService ChatService
	stateRepo   StateReader
}

func NewSendMessage(chatService ChatService, stateRepo StateReader) *sendMessage {
	return &sendMessage{
		chatService: chatService,
		stateRepo:   stateRepo,
	}
}

func (s *sendMessage) IsCommand(update *tgbotapi.Update) bool {
	if update.Message == nil || update.Message.Text == "" {
		return false
	}
	if strings.HasPrefix(update.Message.Text, "/") {
		return false
	}

	state, _ := s.stateRepo.Get(update.Message.Chat.ID)
	return !state.AwaitingCharacterForm
}

func (s *sendMessage) HandleCommand(ctx context.Context, update *tgbotapi.Update) {
	s.chatService.SendMessage(ctx, update.Message.Chat.ID, update.Message.Text)
}

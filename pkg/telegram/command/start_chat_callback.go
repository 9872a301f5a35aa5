package command

import (
	"context"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/dchernykh/avatarchat-telegram-bot/pkg/domain"
)

type startChatCallback struct {
	characterService CharacterService
}

func NewStartChatCallback(characterService CharacterService) *startChatCallback {
	return &startChatCallback{
		characterService: characterService,
	}
}

func (s *startChatCallback) IsCallback(update *tgbotapi.Update) bool {
	return update.CallbackQuery != nil &&
		strings.HasPrefix(update.CallbackQuery.Data, domain.StartChatCallbackPrefix)
}

func (s *startChatCallback) HandleCallback(ctx context.Context, update *tgbotapi.Update) {
	s.characterService.StartChat(
		ctx,
		update.CallbackQuery.Message.Chat.ID,
		update.CallbackQuery.From.ID,
		update.CallbackQuery.Data,
	)
}

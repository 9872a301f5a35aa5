package command

import (
	"context"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

type CharacterService interface {
	SendCharacterList(ctx context.Context, tgChatID int64)
	RequestCharacterForm(ctx context.Context, tgChatID int64)
	CreateCharacter(ctx context.Context, tgChatID, tgUserID int64, text string)
	StartChat(ctx context.Context, tgChatID, tgUserID int64, callbackData string)
}

type showCharacters struct {
	characterService CharacterService
}

func NewShowCharacters(characterService CharacterService) *showCharacters {
	return &showCharacters{
		characterService: characterService,
	}
}

func (s *showCharacters) IsCommand(update *tgbotapi.Update) bool {
	if update.Message == nil {
		return false
	}

	return strings.HasPrefix(update.Message.Text, "/characters")
}

func (s *showCharacters) HandleCommand(ctx context.Context, update *tgbotapi.Update) {
	s.characterService.SendCharacterList(ctx, update.Message.Chat.ID)
}

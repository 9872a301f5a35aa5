package command

import (
	"context"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

type newCharacter struct {
	characterService CharacterService
}

func NewNewCharacter(characterService CharacterService) *newCharacter {
	return &newCharacter{
		characterService: characterService,
	}
}

func (n *newCharacter) IsCommand(update *tgbotapi.Update) bool {
	if update.Message == nil {
		return false
	}

	return strings.HasPrefix(update.Message.Text, "/newcharacter")
}

func (n *newCharacter) HandleCommand(ctx context.Context, update *tgbotapi.Update) {
	n.characterService.RequestCharacterForm(ctx, update.Message.Chat.ID)
}

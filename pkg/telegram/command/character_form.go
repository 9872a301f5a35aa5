package command

import (
	"context"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/dchernykh/avatarchat-telegram-bot/pkg/domain"
)

type StateReader interface {
	Get(tgChatID int64) (domain.State, bool)
}

// characterForm consumes the plain message that follows /newcharacter.
// It must be registered before the default message handler.
type characterForm struct {
	characterService CharacterService
	stateRepo        StateReader
}

func NewCharacterForm(characterService CharacterService, stateRepo StateReader) *characterForm {
	return &characterForm{
		characterService: characterService,
		stateRepo:        stateRepo,
	}
}

func (c *characterForm) IsCommand(update *tgbotapi.Update) bool {
	if update.Message == nil || update.Message.Text == "" {
		return false
	}
	if strings.HasPrefix(update.Message.Text, "/") {
		return false
	}

	state, _ := c.stateRepo.Get(update.Message.Chat.ID)
	return state.AwaitingCharacterForm
}

func (c *characterForm) HandleCommand(ctx context.Context, update *tgbotapi.Update) {
	c.characterService.CreateCharacter(ctx, update.Message.Chat.ID, update.Message.From.ID, update.Message.Text)
}

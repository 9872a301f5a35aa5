package command

import (
	"context"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

type logout struct {
	profileService ProfileService
}

func NewLogout(profileService ProfileService) *logout {
	return &logout{
		profileService: profileService,
	}
}

func (l *logout) IsCommand(update *tgbotapi.Update) bool {
	if update.Message == nil {
		return false
	}

	return strings.HasPrefix(update.Message.Text, "/logout")
}

func (l *logout) HandleCommand(ctx context.Context, update *tgbotapi.Update) {
	l.profileService.Logout(ctx, update.Message.Chat.ID, update.Message.From.ID)
}

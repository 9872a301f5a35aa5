package command

import (
	"context"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

type ProfileService interface {
	Login(ctx context.Context, tgChatID, tgUserID int64, username, name string)
	Logout(ctx context.Context, tgChatID, tgUserID int64)
}

type start struct {
	profileService ProfileService
}

func NewStart(profileService ProfileService) *start {
	return &start{
		profileService: profileService,
	}
}

func (s *start) IsCommand(update *tgbotapi.Update) bool {
	if update.Message == nil {
		return false
	}

	return strings.HasPrefix(update.Message.Text, "/start")
}

func (s *start) HandleCommand(ctx context.Context, update *tgbotapi.Update) {
	from := update.Message.From

	username := from.UserName
	if username == "" {
		username = from.FirstName
	}
	name := strings.TrimSpace(from.FirstName + " " + from.LastName)
	if name == "" {
		name = username
	}

	s.profileService.Login(ctx, update.Message.Chat.ID, from.ID, username, name)
}

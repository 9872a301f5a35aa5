package command

import (
	"context"
	"fmt"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/dchernykh/avatarchat-telegram-bot/pkg/domain"
)

type BalanceProvider interface {
	GetBalanceMessage(ctx context.Context) (string, error)
}

type balance struct {
	provider   BalanceProvider
	responseCh chan<- domain.Response
}

func NewBalance(provider BalanceProvider, responseCh chan<- domain.Response) *balance {
	return &balance{
		provider:   provider,
		responseCh: responseCh,
	}
}

func (b *balance) IsCommand(update *tgbotapi.Update) bool {
	if update.Message == nil {
		return false
	}

	return strings.HasPrefix(update.Message.Text, "/balance")
}

func (b *balance) HandleCommand(ctx context.Context, update *tgbotapi.Update) {
	text, err := b.provider.GetBalanceMessage(ctx)
	if err != nil {
		text = fmt.Sprintf("Failed to get balance: %v", err)
	}

	b.responseCh <- domain.Response{
		ChatID: update.Message.Chat.ID,
		Text:   text,
	}
}

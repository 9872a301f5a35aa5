package command

import (
	"context"
	"testing"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/stretchr/testify/assert"

	"github.com/dchernykh/avatarchat-telegram-bot/pkg/domain"
)

type fakeChatService struct {
	sent []string
}

func (f *fakeChatService) SendChatList(_ context.Context, _ int64) {}

func (f *fakeChatService) SelectChat(_ context.Context, _, _ int64) {}

func (f *fakeChatService) SendMessage(_ context.Context, _ int64, text string) {
	f.sent = append(f.sent, text)
}

type fakeStateReader struct {
	state domain.State
}

func (f *fakeStateReader) Get(_ int64) (domain.State, bool) {
	return f.state, true
}

func messageUpdate(text string) *tgbotapi.Update {
	return &tgbotapi.Update{
		Message: &tgbotapi.Message{
			Text: text,
			Chat: &tgbotapi.Chat{ID: 1},
			From: &tgbotapi.User{ID: 100},
		},
	}
}

func TestSendMessage_IsCommand(t *testing.T) {
	tests := []struct {
		name         string
		update       *tgbotapi.Update
		awaitingForm bool
		want         bool
	}{
		{name: "plain text", update: messageUpdate("привет"), want: true},
		{name: "slash command", update: messageUpdate("/start"), want: false},
		{name: "empty text", update: messageUpdate(""), want: false},
		{name: "awaiting character form", update: messageUpdate("Имя: Алиса"), awaitingForm: true, want: false},
		{name: "callback update", update: &tgbotapi.Update{CallbackQuery: &tgbotapi.CallbackQuery{}}, want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			stateRepo := &fakeStateReader{state: domain.State{AwaitingCharacterForm: tt.awaitingForm}}
			cmd := NewSendMessage(&fakeChatService{}, stateRepo)

			assert.Equal(t, tt.want, cmd.IsCommand(tt.update))
		})
	}
}

func TestCharacterForm_ClaimsTextWhileAwaiting(t *testing.T) {
	stateRepo := &fakeStateReader{state: domain.State{AwaitingCharacterForm: true}}
	form := NewCharacterForm(nil, stateRepo)
	fallback := NewSendMessage(&fakeChatService{}, stateRepo)

	update := messageUpdate("Имя: Алиса")
	assert.True(t, form.IsCommand(update))
	assert.False(t, fallback.IsCommand(update))

	assert.False(t, form.IsCommand(messageUpdate("/newcharacter")))
}

func TestSendMessage_HandleForwardsText(t *testing.T) {
	svc := &fakeChatService{}
	cmd := NewSendMessage(svc, &fakeStateReader{})

	cmd.HandleCommand(context.Background(), messageUpdate("привет"))

	assert.Equal(t, []string{"привет"}, svc.sent)
}

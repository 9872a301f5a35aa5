package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dchernykh/avatarchat-telegram-bot/pkg/domain"
	"github.com/dchernykh/avatarchat-telegram-bot/pkg/repository"
)

type fakeChatAPI struct {
	messages  []domain.ChatMessage
	listErr   error
	reply     string
	sendErr   error
	sendCalls int
	onSend    func()
}

func (f *fakeChatAPI) ListMessages(_ context.Context, _ int64) ([]domain.ChatMessage, error) {
	return f.messages, f.listErr
}

func (f *fakeChatAPI) SendMessage(_ context.Context, _, _ int64, _ string) (string, error) {
	f.sendCalls++
	if f.onSend != nil {
		f.onSend()
	}
	return f.reply, f.sendErr
}

func drain(ch chan domain.Response) []domain.Response {
	var out []domain.Response
	for {
		select {
		case r := <-ch:
			out = append(out, r)
		default:
			return out
		}
	}
}

// chatsStore widens ChatsRepository with the accessors the assertions need.
type chatsStore interface {
	ChatsRepository
	SetChats(tgChatID int64, chats []domain.Chat)
	Typing(tgChatID int64) bool
}

func setupChatService(api *fakeChatAPI) (*chatService, chatsStore, chan domain.Response) {
	chatsRepo := repository.NewChatsRepository()
	avatarsRepo := repository.NewAvatarsRepository()
	responseCh := make(chan domain.Response, 10)

	avatarsRepo.ReplaceAll(1, []domain.Avatar{
		{ID: 9, Name: "Алиса", ImageStatus: domain.ImageStatusReady},
	})
	chatsRepo.SetChats(1, []domain.Chat{{ID: 5, CharacterID: 9}})

	svc := NewChatService(api, chatsRepo, avatarsRepo, responseCh)
	return svc, chatsRepo, responseCh
}

func TestSendMessage_WhitespaceIsIgnored(t *testing.T) {
	api := &fakeChatAPI{}
	svc, chatsRepo, responseCh := setupChatService(api)
	chatsRepo.SetActive(1, 5)

	svc.SendMessage(context.Background(), 1, "   \n  ")

	assert.Zero(t, api.sendCalls)
	assert.Empty(t, drain(responseCh))
	assert.Empty(t, chatsRepo.Messages(1))
}

func TestSendMessage_NoActiveChatHintsWithoutAPICall(t *testing.T) {
	api := &fakeChatAPI{}
	svc, chatsRepo, responseCh := setupChatService(api)

	svc.SendMessage(context.Background(), 1, "привет")

	assert.Zero(t, api.sendCalls)
	assert.Empty(t, chatsRepo.Messages(1))

	responses := drain(responseCh)
	require.Len(t, responses, 1)
	assert.Contains(t, responses[0].Text, "/chats")
}

func TestSendMessage_UserMessageAppendedBeforeNetworkCall(t *testing.T) {
	api := &fakeChatAPI{reply: "ответ"}
	svc, chatsRepo, responseCh := setupChatService(api)
	chatsRepo.SetActive(1, 5)

	var seenDuringSend int
	api.onSend = func() {
		seenDuringSend = len(chatsRepo.Messages(1))
	}

	svc.SendMessage(context.Background(), 1, "привет")

	assert.Equal(t, 1, seenDuringSend, "user message must be in the transcript when the request goes out")

	messages := chatsRepo.Messages(1)
	require.Len(t, messages, 2)
	assert.Equal(t, domain.SenderUser, messages[0].Sender)
	assert.Equal(t, "привет", messages[0].Text)
	assert.NotEmpty(t, messages[0].ID)
	assert.Equal(t, domain.SenderAI, messages[1].Sender)
	assert.Equal(t, "ответ", messages[1].Text)
	assert.NotEqual(t, messages[0].ID, messages[1].ID)

	responses := drain(responseCh)
	require.Len(t, responses, 2)
	assert.True(t, responses[0].Typing)
	assert.Equal(t, "ответ", responses[1].Text)
	assert.False(t, chatsRepo.Typing(1))
}

func TestSendMessage_FailureKeepsOptimisticMessage(t *testing.T) {
	api := &fakeChatAPI{sendErr: &domain.APIError{StatusCode: 500, Body: "boom"}}
	svc, chatsRepo, responseCh := setupChatService(api)
	chatsRepo.SetActive(1, 5)

	svc.SendMessage(context.Background(), 1, "привет")

	messages := chatsRepo.Messages(1)
	require.Len(t, messages, 1)
	assert.Equal(t, domain.SenderUser, messages[0].Sender)

	responses := drain(responseCh)
	require.Len(t, responses, 2)
	assert.True(t, responses[0].Typing)
	require.Error(t, responses[1].Err)

	assert.False(t, chatsRepo.Typing(1), "typing indicator must clear on failure")
}

func TestSelectChat_ReplacesHistory(t *testing.T) {
	history := []domain.ChatMessage{
		{ID: "1", ChatID: 5, Sender: domain.SenderUser, Text: "раньше", SentAt: time.Now()},
		{ID: "2", ChatID: 5, Sender: domain.SenderAI, Text: "давно", SentAt: time.Now()},
	}
	api := &fakeChatAPI{messages: history}
	svc, chatsRepo, responseCh := setupChatService(api)

	chatsRepo.AppendMessage(1, domain.ChatMessage{ID: "stale", Sender: domain.SenderUser, Text: "старое"})

	svc.SelectChat(context.Background(), 1, 5)

	messages := chatsRepo.Messages(1)
	require.Len(t, messages, 2)
	assert.Equal(t, "раньше", messages[0].Text)

	active, ok := chatsRepo.Active(1)
	require.True(t, ok)
	assert.Equal(t, int64(5), active.ID)

	responses := drain(responseCh)
	require.Len(t, responses, 1)
	assert.Contains(t, responses[0].Text, "Алиса")
	assert.Contains(t, responses[0].Text, "раньше")
}

func TestSelectChat_UnknownChat(t *testing.T) {
	api := &fakeChatAPI{}
	svc, chatsRepo, responseCh := setupChatService(api)

	svc.SelectChat(context.Background(), 1, 42)

	_, ok := chatsRepo.Active(1)
	assert.False(t, ok)

	responses := drain(responseCh)
	require.Len(t, responses, 1)
	assert.Contains(t, responses[0].Text, "Такого чата нет")
}

func TestSelectChat_ListErrorIsReported(t *testing.T) {
	api := &fakeChatAPI{listErr: errors.New("backend down")}
	svc, _, responseCh := setupChatService(api)

	svc.SelectChat(context.Background(), 1, 5)

	responses := drain(responseCh)
	require.Len(t, responses, 1)
	require.Error(t, responses[0].Err)
}

func TestSendChatList_LabelsButtonsWithCharacterNames(t *testing.T) {
	api := &fakeChatAPI{}
	svc, _, responseCh := setupChatService(api)

	svc.SendChatList(context.Background(), 1)

	responses := drain(responseCh)
	require.Len(t, responses, 1)
	require.NotNil(t, responses[0].Keyboard)
	require.Len(t, responses[0].Keyboard.Buttons, 1)
	assert.Equal(t, "Алиса", responses[0].Keyboard.Buttons[0].Label)
	assert.Equal(t, "chat:5", responses[0].Keyboard.Buttons[0].Data)
}

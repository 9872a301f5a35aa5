package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/dchernykh/avatarchat-telegram-bot/pkg/domain"
	"github.com/dchernykh/avatarchat-telegram-bot/pkg/logger"
)

const transcriptTail = 10

type ChatAPI interface {
	ListMessages(ctx context.Context, chatID int64) ([]domain.ChatMessage, error)
	SendMessage(ctx context.Context, chatID, avatarID int64, text string) (string, error)
}

type ChatsRepository interface {
	Chats(tgChatID int64) []domain.Chat
	SetActive(tgChatID, chatID int64)
	Active(tgChatID int64) (domain.Chat, bool)
	ReplaceMessages(tgChatID int64, messages []domain.ChatMessage)
	AppendMessage(tgChatID int64, message domain.ChatMessage)
	Messages(tgChatID int64) []domain.ChatMessage
	SetTyping(tgChatID int64, typing bool)
}

type AvatarsReader interface {
	All(tgChatID int64) []domain.Avatar
	GetByID(tgChatID, avatarID int64) (domain.Avatar, bool)
}

type chatService struct {
	api         ChatAPI
	chatsRepo   ChatsRepository
	avatarsRepo AvatarsReader
	responseCh  chan<- domain.Response
}

func NewChatService(
	api ChatAPI,
	chatsRepo ChatsRepository,
	avatarsRepo AvatarsReader,
	responseCh chan<- domain.Response,
) *chatService {
	return &chatService{
		api:         api,
		chatsRepo:   chatsRepo,
		avatarsRepo: avatarsRepo,
		responseCh:  responseCh,
	}
}

// SendChatList shows the user's chats as an inline keyboard, labelled by
// companion name.
func (s *chatService) SendChatList(ctx context.Context, tgChatID int64) {
	chats := s.chatsRepo.Chats(tgChatID)
	if len(chats) == 0 {
		s.responseCh <- domain.Response{
			ChatID: tgChatID,
			Text:   "У вас пока нет чатов. Выберите персонажа командой /characters.",
		}
		return
	}

	buttons := make([]domain.KeyboardButton, 0, len(chats))
	for _, chat := range chats {
		label := fmt.Sprintf("Чат %d", chat.ID)
		if avatar, ok := s.avatarsRepo.GetByID(tgChatID, chat.CharacterID); ok {
			label = avatar.Name
		}
		buttons = append(buttons, domain.KeyboardButton{
			Label: label,
			Data:  fmt.Sprintf("%s%d", domain.SelectChatCallbackPrefix, chat.ID),
		})
	}

	s.responseCh <- domain.Response{
		ChatID: tgChatID,
		Keyboard: &domain.Keyboard{
			Title:         "💬 Ваши чаты:",
			Buttons:       buttons,
			ButtonsPerRow: 2,
		},
	}
}

// SelectChat makes chatID the active conversation and reloads its history
// from the backend, replacing whatever transcript was cached before.
func (s *chatService) SelectChat(ctx context.Context, tgChatID, chatID int64) {
	var selected *domain.Chat
	for _, chat := range s.chatsRepo.Chats(tgChatID) {
		if chat.ID == chatID {
			c := chat
			selected = &c
			break
		}
	}
	if selected == nil {
		s.responseCh <- domain.Response{ChatID: tgChatID, Text: "Такого чата нет. Список: /chats."}
		return
	}

	s.chatsRepo.SetActive(tgChatID, chatID)

	messages, err := s.api.ListMessages(ctx, chatID)
	if err != nil {
		slog.ErrorContext(ctx, "fetching chat history", "chat_id", chatID, logger.Err(err))
		s.responseCh <- domain.Response{ChatID: tgChatID, Err: err}
		return
	}
	s.chatsRepo.ReplaceMessages(tgChatID, messages)

	name := "собеседник"
	if avatar, ok := s.avatarsRepo.GetByID(tgChatID, selected.CharacterID); ok {
		name = avatar.Name
	}
	s.responseCh <- domain.Response{
		ChatID: tgChatID,
		Text:   s.renderTranscript(name, messages),
	}
}

// SendMessage relays the user's text to the active companion. The user
// message goes into the transcript before the network call; a failed call
// keeps it there, matching what the user already saw on screen.
func (s *chatService) SendMessage(ctx context.Context, tgChatID int64, text string) {
	text = strings.TrimSpace(text)
	if text == "" {
		return
	}

	chat, ok := s.chatsRepo.Active(tgChatID)
	if !ok {
		s.responseCh <- domain.Response{
			ChatID: tgChatID,
			Text:   "Сначала выберите чат: /chats или /characters.",
		}
		return
	}

	avatar, ok := s.avatarsRepo.GetByID(tgChatID, chat.CharacterID)
	if !ok {
		s.responseCh <- domain.Response{
			ChatID: tgChatID,
			Text:   "Персонаж этого чата не найден. Откройте /characters.",
		}
		return
	}

	s.chatsRepo.AppendMessage(tgChatID, domain.ChatMessage{
		ID:     uuid.NewString(),
		ChatID: chat.ID,
		Sender: domain.SenderUser,
		Text:   text,
		SentAt: time.Now(),
	})

	s.chatsRepo.SetTyping(tgChatID, true)
	s.responseCh <- domain.Response{ChatID: tgChatID, Typing: true}
	defer s.chatsRepo.SetTyping(tgChatID, false)

	reply, err := s.api.SendMessage(ctx, chat.ID, avatar.ID, text)
	if err != nil {
		slog.ErrorContext(ctx, "sending chat message", "chat_id", chat.ID, logger.Err(err))
		s.responseCh <- domain.Response{ChatID: tgChatID, Err: err}
		return
	}

	s.chatsRepo.AppendMessage(tgChatID, domain.ChatMessage{
		ID:     uuid.NewString(),
		ChatID: chat.ID,
		Sender: domain.SenderAI,
		Text:   reply,
		SentAt: time.Now(),
	})

	s.responseCh <- domain.Response{ChatID: tgChatID, Text: reply}
}

func (s *chatService) renderTranscript(name string, messages []domain.ChatMessage) string {
	if len(messages) == 0 {
		return fmt.Sprintf("Чат с «%s» открыт. Напишите первое сообщение!", name)
	}

	tail := messages
	if len(tail) > transcriptTail {
		tail = tail[len(tail)-transcriptTail:]
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Чат с «%s»:\n\n", name)
	for _, m := range tail {
		icon := "🧑"
		if m.Sender == domain.SenderAI {
			icon = "🤖"
		}
		fmt.Fprintf(&b, "%s [%s] %s\n", icon, m.SentAt.Local().Format("15:04"), m.Text)
	}
	return b.String()
}

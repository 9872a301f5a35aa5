package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/dchernykh/avatarchat-telegram-bot/pkg/domain"
	"github.com/dchernykh/avatarchat-telegram-bot/pkg/logger"
)

type CharacterAPI interface {
	CreateAvatar(ctx context.Context, userID int64, draft domain.AvatarDraft) (domain.Avatar, error)
	CreateChat(ctx context.Context, userID, avatarID int64) (domain.Chat, error)
	ListMessages(ctx context.Context, chatID int64) ([]domain.ChatMessage, error)
}

type AvatarsRepository interface {
	All(tgChatID int64) []domain.Avatar
	GetByID(tgChatID, avatarID int64) (domain.Avatar, bool)
	Append(tgChatID int64, avatar domain.Avatar)
}

type ChatsWriter interface {
	Append(tgChatID int64, chat domain.Chat)
	SetActive(tgChatID, chatID int64)
	ReplaceMessages(tgChatID int64, messages []domain.ChatMessage)
}

type StateRepository interface {
	Save(tgChatID int64, state domain.State)
	Get(tgChatID int64) (domain.State, bool)
	Clear(tgChatID int64)
}

type ProfileReader interface {
	GetByTelegramID(ctx context.Context, telegramUserID int64) (*domain.UserProfile, error)
}

type PollerStarter interface {
	StartPoller(tgChatID int64, avatar domain.Avatar)
}

const characterFormHint = `Опишите нового персонажа, каждая строка с новой строки:

Имя: Алиса
Характер: весёлая и любознательная
Особенности: любит загадки
Возраст: 25
Пол: женский
Увлечения: шахматы, астрономия

Обязательно только имя, остальное можно пропустить.`

type characterService struct {
	api         CharacterAPI
	avatarsRepo AvatarsRepository
	chatsRepo   ChatsWriter
	stateRepo   StateRepository
	profileRepo ProfileReader
	pollers     PollerStarter
	responseCh  chan<- domain.Response
}

func NewCharacterService(
	api CharacterAPI,
	avatarsRepo AvatarsRepository,
	chatsRepo ChatsWriter,
	stateRepo StateRepository,
	profileRepo ProfileReader,
	pollers PollerStarter,
	responseCh chan<- domain.Response,
) *characterService {
	return &characterService{
		api:         api,
		avatarsRepo: avatarsRepo,
		chatsRepo:   chatsRepo,
		stateRepo:   stateRepo,
		profileRepo: profileRepo,
		pollers:     pollers,
		responseCh:  responseCh,
	}
}

// SendCharacterList shows every known companion as an inline keyboard.
// Characters whose portrait is not ready yet are shown but marked, and
// starting a chat with them is refused until the image settles.
func (s *characterService) SendCharacterList(ctx context.Context, tgChatID int64) {
	avatars := s.avatarsRepo.All(tgChatID)
	if len(avatars) == 0 {
		s.responseCh <- domain.Response{
			ChatID: tgChatID,
			Text:   "Персонажей пока нет. Создайте первого: /newcharacter.",
		}
		return
	}

	buttons := make([]domain.KeyboardButton, 0, len(avatars))
	for _, a := range avatars {
		label := a.Name
		switch a.ImageStatus {
		case domain.ImageStatusPending:
			label = "⏳ " + label
		case domain.ImageStatusFailed:
			label = "❌ " + label
		}
		buttons = append(buttons, domain.KeyboardButton{
			Label: label,
			Data:  fmt.Sprintf("%s%d", domain.StartChatCallbackPrefix, a.ID),
		})
	}

	s.responseCh <- domain.Response{
		ChatID: tgChatID,
		Keyboard: &domain.Keyboard{
			Title:         "🎭 Выберите персонажа:",
			Buttons:       buttons,
			ButtonsPerRow: 2,
		},
	}
}

// RequestCharacterForm puts the chat into form-filling mode: the next
// plain message is parsed as a character description.
func (s *characterService) RequestCharacterForm(ctx context.Context, tgChatID int64) {
	s.stateRepo.Save(tgChatID, domain.State{AwaitingCharacterForm: true})
	s.responseCh <- domain.Response{ChatID: tgChatID, Text: characterFormHint}
}

// CreateCharacter parses the submitted form, registers the avatar on the
// backend and starts watching its portrait generation.
func (s *characterService) CreateCharacter(ctx context.Context, tgChatID, tgUserID int64, text string) {
	draft, err := parseCharacterForm(text)
	if err != nil {
		s.responseCh <- domain.Response{ChatID: tgChatID, Text: err.Error()}
		return
	}

	profile, err := s.profileRepo.GetByTelegramID(ctx, tgUserID)
	if err != nil {
		slog.ErrorContext(ctx, "fetching profile", "tg_user_id", tgUserID, logger.Err(err))
		s.responseCh <- domain.Response{
			ChatID: tgChatID,
			Text:   "Сначала выполните /start, чтобы войти.",
		}
		return
	}

	avatar, err := s.api.CreateAvatar(ctx, profile.BackendID, draft)
	if err != nil {
		slog.ErrorContext(ctx, "creating avatar", logger.Err(err))
		s.responseCh <- domain.Response{ChatID: tgChatID, Err: err}
		return
	}

	s.avatarsRepo.Append(tgChatID, avatar)
	s.pollers.StartPoller(tgChatID, avatar)
	s.stateRepo.Clear(tgChatID)

	s.responseCh <- domain.Response{
		ChatID: tgChatID,
		Text:   fmt.Sprintf("🎨 Персонаж «%s» создаётся, портрет уже рисуется. Я напишу, когда всё будет готово.", avatar.Name),
	}
}

// StartChat creates (or reuses) a conversation with the chosen character
// and makes it active. Only characters with a ready portrait qualify.
func (s *characterService) StartChat(ctx context.Context, tgChatID, tgUserID int64, callbackData string) {
	avatarID, err := parseCallbackID(callbackData, domain.StartChatCallbackPrefix)
	if err != nil {
		slog.ErrorContext(ctx, "parsing character callback", "data", callbackData, logger.Err(err))
		return
	}

	avatar, ok := s.avatarsRepo.GetByID(tgChatID, avatarID)
	if !ok {
		s.responseCh <- domain.Response{ChatID: tgChatID, Text: "Персонаж не найден. Список: /characters."}
		return
	}

	switch avatar.ImageStatus {
	case domain.ImageStatusPending:
		s.responseCh <- domain.Response{
			ChatID: tgChatID,
			Text:   fmt.Sprintf("⏳ Портрет «%s» ещё рисуется, подождите немного.", avatar.Name),
		}
		return
	case domain.ImageStatusFailed:
		s.responseCh <- domain.Response{
			ChatID: tgChatID,
			Text:   fmt.Sprintf("❌ Портрет «%s» не получился, создайте персонажа заново.", avatar.Name),
		}
		return
	}

	profile, err := s.profileRepo.GetByTelegramID(ctx, tgUserID)
	if err != nil {
		slog.ErrorContext(ctx, "fetching profile", "tg_user_id", tgUserID, logger.Err(err))
		s.responseCh <- domain.Response{ChatID: tgChatID, Text: "Сначала выполните /start, чтобы войти."}
		return
	}

	chat, err := s.api.CreateChat(ctx, profile.BackendID, avatar.ID)
	if err != nil {
		slog.ErrorContext(ctx, "creating chat", "avatar_id", avatar.ID, logger.Err(err))
		s.responseCh <- domain.Response{ChatID: tgChatID, Err: err}
		return
	}

	s.chatsRepo.Append(tgChatID, chat)
	s.chatsRepo.SetActive(tgChatID, chat.ID)

	messages, err := s.api.ListMessages(ctx, chat.ID)
	if err != nil {
		slog.WarnContext(ctx, "fetching new chat history", "chat_id", chat.ID, logger.Err(err))
		messages = nil
	}
	s.chatsRepo.ReplaceMessages(tgChatID, messages)

	s.responseCh <- domain.Response{
		ChatID: tgChatID,
		Text:   fmt.Sprintf("💬 Чат с «%s» открыт. Напишите что-нибудь!", avatar.Name),
	}
}

// parseCharacterForm understands "Ключ: значение" lines; a line without a
// colon on the first position becomes the name. Only the name is required.
func parseCharacterForm(text string) (domain.AvatarDraft, error) {
	var draft domain.AvatarDraft

	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		key, value, found := strings.Cut(line, ":")
		if !found {
			if draft.Name == "" {
				draft.Name = line
			}
			continue
		}

		value = strings.TrimSpace(value)
		switch strings.ToLower(strings.TrimSpace(key)) {
		case "имя", "name":
			draft.Name = value
		case "характер", "personality":
			draft.Personality = value
		case "особенности", "features":
			draft.Features = value
		case "возраст", "age":
			if age, err := strconv.Atoi(value); err == nil {
				draft.Age = age
			}
		case "пол", "sex", "gender":
			draft.Gender = value
		case "увлечения", "hobbies":
			draft.Hobbies = value
		}
	}

	if strings.TrimSpace(draft.Name) == "" {
		return domain.AvatarDraft{}, errors.New("Не хватает имени. Добавьте строку «Имя: ...» и отправьте описание ещё раз.")
	}

	return draft, nil
}

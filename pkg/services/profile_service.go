package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/dchernykh/avatarchat-telegram-bot/pkg/domain"
	"github.com/dchernykh/avatarchat-telegram-bot/pkg/logger"
)

type ProfileAPI interface {
	UpsertUser(ctx context.Context, username string) (int64, error)
	ListAvatars(ctx context.Context, userID int64) ([]domain.Avatar, error)
	ListChats(ctx context.Context, userID int64) ([]domain.Chat, error)
	ListMessages(ctx context.Context, chatID int64) ([]domain.ChatMessage, error)
}

type ProfileRepository interface {
	Save(ctx context.Context, profile domain.UserProfile) error
	GetByTelegramID(ctx context.Context, telegramUserID int64) (*domain.UserProfile, error)
	Delete(ctx context.Context, telegramUserID int64) error
}

type SessionChats interface {
	SetChats(tgChatID int64, chats []domain.Chat)
	SetActive(tgChatID, chatID int64)
	ReplaceMessages(tgChatID int64, messages []domain.ChatMessage)
	Clear(tgChatID int64)
}

type SessionAvatars interface {
	ReplaceAll(tgChatID int64, avatars []domain.Avatar)
	Clear(tgChatID int64)
}

type SessionState interface {
	Clear(tgChatID int64)
}

type PollerManager interface {
	StartPoller(tgChatID int64, avatar domain.Avatar)
	StopChatPollers(tgChatID int64)
}

type profileService struct {
	api         ProfileAPI
	profileRepo ProfileRepository
	chatsRepo   SessionChats
	avatarsRepo SessionAvatars
	stateRepo   SessionState
	pollers     PollerManager
	responseCh  chan<- domain.Response
}

func NewProfileService(
	api ProfileAPI,
	profileRepo ProfileRepository,
	chatsRepo SessionChats,
	avatarsRepo SessionAvatars,
	stateRepo SessionState,
	pollers PollerManager,
	responseCh chan<- domain.Response,
) *profileService {
	return &profileService{
		api:         api,
		profileRepo: profileRepo,
		chatsRepo:   chatsRepo,
		avatarsRepo: avatarsRepo,
		stateRepo:   stateRepo,
		pollers:     pollers,
		responseCh:  responseCh,
	}
}

// Login signs the telegram user into the companion backend, restores
// their characters and chats, and opens the most recent chat. A returning
// user keeps their backend identity; a new one is registered first.
func (s *profileService) Login(ctx context.Context, tgChatID, tgUserID int64, username, name string) {
	profile, err := s.profileRepo.GetByTelegramID(ctx, tgUserID)
	if err != nil {
		if !errors.Is(err, domain.ErrNotFound) {
			slog.ErrorContext(ctx, "fetching profile", "tg_user_id", tgUserID, logger.Err(err))
			s.responseCh <- domain.Response{ChatID: tgChatID, Err: err}
			return
		}

		backendID, err := s.api.UpsertUser(ctx, username)
		if err != nil {
			slog.ErrorContext(ctx, "registering user", "username", username, logger.Err(err))
			s.responseCh <- domain.Response{ChatID: tgChatID, Err: err}
			return
		}

		profile = &domain.UserProfile{
			TelegramUserID: tgUserID,
			Name:           name,
			BackendID:      backendID,
		}
		if err := s.profileRepo.Save(ctx, *profile); err != nil {
			slog.ErrorContext(ctx, "saving profile", "tg_user_id", tgUserID, logger.Err(err))
			s.responseCh <- domain.Response{ChatID: tgChatID, Err: err}
			return
		}
	}

	avatars, err := s.api.ListAvatars(ctx, profile.BackendID)
	if err != nil {
		slog.ErrorContext(ctx, "fetching avatars", "user_id", profile.BackendID, logger.Err(err))
		s.responseCh <- domain.Response{ChatID: tgChatID, Err: err}
		return
	}
	s.avatarsRepo.ReplaceAll(tgChatID, avatars)

	// A restart may have killed pollers for portraits still in flight.
	for _, a := range avatars {
		if !a.ImageStatus.Terminal() {
			s.pollers.StartPoller(tgChatID, a)
		}
	}

	chats, err := s.api.ListChats(ctx, profile.BackendID)
	if err != nil {
		slog.ErrorContext(ctx, "fetching chats", "user_id", profile.BackendID, logger.Err(err))
		s.responseCh <- domain.Response{ChatID: tgChatID, Err: err}
		return
	}
	s.chatsRepo.SetChats(tgChatID, chats)

	if len(chats) > 0 {
		first := chats[0]
		s.chatsRepo.SetActive(tgChatID, first.ID)
		if messages, err := s.api.ListMessages(ctx, first.ID); err == nil {
			s.chatsRepo.ReplaceMessages(tgChatID, messages)
		} else {
			slog.WarnContext(ctx, "fetching chat history", "chat_id", first.ID, logger.Err(err))
		}
	}

	s.responseCh <- domain.Response{
		ChatID: tgChatID,
		Text: fmt.Sprintf(
			"Привет, %s! Персонажей: %d, чатов: %d.\n\n/characters — выбрать собеседника\n/newcharacter — создать нового\n/chats — ваши чаты",
			name, len(avatars), len(chats)),
	}
}

// Logout drops everything tied to the user: live pollers, cached chats and
// characters, the form state, and the stored profile.
func (s *profileService) Logout(ctx context.Context, tgChatID, tgUserID int64) {
	s.pollers.StopChatPollers(tgChatID)
	s.chatsRepo.Clear(tgChatID)
	s.avatarsRepo.Clear(tgChatID)
	s.stateRepo.Clear(tgChatID)

	if err := s.profileRepo.Delete(ctx, tgUserID); err != nil {
		slog.ErrorContext(ctx, "deleting profile", "tg_user_id", tgUserID, logger.Err(err))
		s.responseCh <- domain.Response{ChatID: tgChatID, Err: err}
		return
	}

	s.responseCh <- domain.Response{
		ChatID: tgChatID,
		Text:   "👋 Вы вышли. Чтобы начать заново, отправьте /start.",
	}
}

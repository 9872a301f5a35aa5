package repository

import (
	"sync"

	"github.com/dchernykh/avatarchat-telegram-bot/pkg/domain"
)

// avatarsRepository is the client-side cache of backend-owned avatars,
// keyed by telegram chat. It is eventually consistent: image updates
// arrive from pollers via an id-keyed merge.
type avatarsRepository struct {
	mu      sync.RWMutex
	avatars map[int64][]domain.Avatar
}

func NewAvatarsRepository() *avatarsRepository {
	return &avatarsRepository{
		avatars: make(map[int64][]domain.Avatar),
	}
}

func (r *avatarsRepository) ReplaceAll(tgChatID int64, avatars []domain.Avatar) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.avatars[tgChatID] = avatars
}

func (r *avatarsRepository) Append(tgChatID int64, avatar domain.Avatar) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.avatars[tgChatID] = append(r.avatars[tgChatID], avatar)
}

func (r *avatarsRepository) All(tgChatID int64) []domain.Avatar {
	r.mu.RLock()
	defer r.mu.RUnlock()

	avatars := make([]domain.Avatar, len(r.avatars[tgChatID]))
	copy(avatars, r.avatars[tgChatID])
	return avatars
}

func (r *avatarsRepository) GetByID(tgChatID, avatarID int64) (domain.Avatar, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, a := range r.avatars[tgChatID] {
		if a.ID == avatarID {
			return a, true
		}
	}
	return domain.Avatar{}, false
}

// UpdateImage applies an id-keyed merge: only the matching avatar is
// touched, others stay as they are. An empty imageURL keeps the cached one.
func (r *avatarsRepository) UpdateImage(tgChatID, avatarID int64, imageURL string, status domain.ImageStatus) {
	r.mu.Lock()
	defer r.mu.Unlock()

	avatars := r.avatars[tgChatID]
	for i := range avatars {
		if avatars[i].ID != avatarID {
			continue
		}
		if imageURL != "" {
			avatars[i].ImageURL = imageURL
		}
		avatars[i].ImageStatus = status
		return
	}
}

func (r *avatarsRepository) Clear(tgChatID int64) {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.avatars, tgChatID)
}

package repository

import (
	"sync"

	"github.com/dchernykh/avatarchat-telegram-bot/pkg/domain"
)

type stateRepository struct {
	mu    sync.RWMutex
	state map[int64]domain.State
}

func NewStateRepository() *stateRepository {
	return &stateRepository{
		state: make(map[int64]domain.State),
	}
}

func (s *stateRepository) Save(tgChatID int64, state domain.State) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.state[tgChatID] = state
}

func (s *stateRepository) Get(tgChatID int64) (domain.State, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	state, exists := s.state[tgChatID]
	return state, exists
}

func (s *stateRepository) Clear(tgChatID int64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.state, tgChatID)
}

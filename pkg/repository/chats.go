package repository

import (
	"sync"

	"github.com/dchernykh/avatarchat-telegram-bot/pkg/domain"
)

type chatState struct {
	chats        []domain.Chat
	activeChatID int64
	hasActive    bool
	messages     []domain.ChatMessage
	typing       bool
}

// chatsRepository holds per-telegram-chat conversation state: the chat
// list, the active chat, and the message list of the active chat. All
// mutations are whole-replacement or append; messages are never merged.
type chatsRepository struct {
	mu    sync.RWMutex
	state map[int64]*chatState
}

func NewChatsRepository() *chatsRepository {
	return &chatsRepository{
		state: make(map[int64]*chatState),
	}
}

// get returns the state for tgChatID, creating it if needed. Callers must
// hold the write lock.
func (r *chatsRepository) get(tgChatID int64) *chatState {
	s, ok := r.state[tgChatID]
	if !ok {
		s = &chatState{}
		r.state[tgChatID] = s
	}
	return s
}

func (r *chatsRepository) SetChats(tgChatID int64, chats []domain.Chat) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.get(tgChatID).chats = chats
}

func (r *chatsRepository) Chats(tgChatID int64) []domain.Chat {
	r.mu.RLock()
	defer r.mu.RUnlock()

	s, ok := r.state[tgChatID]
	if !ok {
		return nil
	}
	chats := make([]domain.Chat, len(s.chats))
	copy(chats, s.chats)
	return chats
}

func (r *chatsRepository) Append(tgChatID int64, chat domain.Chat) {
	r.mu.Lock()
	defer r.mu.Unlock()

	s := r.get(tgChatID)
	s.chats = append(s.chats, chat)
}

// SetActive replaces the active chat. The message list is owned by the
// active chat and must be replaced separately via ReplaceMessages.
func (r *chatsRepository) SetActive(tgChatID, chatID int64) {
	r.mu.Lock()
	defer r.mu.Unlock()

	s := r.get(tgChatID)
	s.activeChatID = chatID
	s.hasActive = true
}

func (r *chatsRepository) Active(tgChatID int64) (domain.Chat, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	s, ok := r.state[tgChatID]
	if !ok || !s.hasActive {
		return domain.Chat{}, false
	}
	for _, c := range s.chats {
		if c.ID == s.activeChatID {
			return c, true
		}
	}
	return domain.Chat{}, false
}

func (r *chatsRepository) ReplaceMessages(tgChatID int64, messages []domain.ChatMessage) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.get(tgChatID).messages = messages
}

func (r *chatsRepository) AppendMessage(tgChatID int64, message domain.ChatMessage) {
	r.mu.Lock()
	defer r.mu.Unlock()

	s := r.get(tgChatID)
	s.messages = append(s.messages, message)
}

func (r *chatsRepository) Messages(tgChatID int64) []domain.ChatMessage {
	r.mu.RLock()
	defer r.mu.RUnlock()

	s, ok := r.state[tgChatID]
	if !ok {
		return nil
	}
	messages := make([]domain.ChatMessage, len(s.messages))
	copy(messages, s.messages)
	return messages
}

func (r *chatsRepository) SetTyping(tgChatID int64, typing bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.get(tgChatID).typing = typing
}

func (r *chatsRepository) Typing(tgChatID int64) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	s, ok := r.state[tgChatID]
	return ok && s.typing
}

func (r *chatsRepository) Clear(tgChatID int64) {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.state, tgChatID)
}

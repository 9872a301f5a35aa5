package watcher

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/dchernykh/avatarchat-telegram-bot/pkg/domain"
)

type pollerKey struct {
	TgChatID int64
	AvatarID int64
}

// Manager tracks the live image pollers, at most one per (telegram chat,
// avatar) pair. It also runs as a worker so that shutdown stops every poller.
type Manager struct {
	api         AvatarGetter
	cache       AvatarCache
	interval    time.Duration
	maxAttempts int
	responseCh  chan<- domain.Response

	mu      sync.Mutex
	pollers map[pollerKey]*ImagePoller
}

func NewManager(
	api AvatarGetter,
	cache AvatarCache,
	interval time.Duration,
	maxAttempts int,
	responseCh chan<- domain.Response,
) *Manager {
	return &Manager{
		api:         api,
		cache:       cache,
		interval:    interval,
		maxAttempts: maxAttempts,
		responseCh:  responseCh,
		pollers:     make(map[pollerKey]*ImagePoller),
	}
}

// StartPoller begins watching the avatar's image unless it is already
// terminal or a poller for it is running.
func (m *Manager) StartPoller(tgChatID int64, avatar domain.Avatar) {
	if avatar.ImageStatus.Terminal() {
		return
	}

	key := pollerKey{TgChatID: tgChatID, AvatarID: avatar.ID}

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.pollers[key]; exists {
		return
	}

	p := NewImagePoller(tgChatID, avatar, m.api, m.cache, m.interval, m.maxAttempts, m.responseCh, func() {
		m.mu.Lock()
		delete(m.pollers, key)
		m.mu.Unlock()
	})
	m.pollers[key] = p
	p.Start()
}

// StopChatPollers cancels every poller belonging to the telegram chat.
// Used on logout so that no stale completion message arrives later.
func (m *Manager) StopChatPollers(tgChatID int64) {
	m.mu.Lock()
	var stopping []*ImagePoller
	for key, p := range m.pollers {
		if key.TgChatID == tgChatID {
			stopping = append(stopping, p)
			delete(m.pollers, key)
		}
	}
	m.mu.Unlock()

	for _, p := range stopping {
		p.Stop()
	}

	if len(stopping) > 0 {
		slog.Info("stopped avatar image pollers", "tg_chat_id", tgChatID, "count", len(stopping))
	}
}

func (m *Manager) Shutdown() {
	m.mu.Lock()
	var stopping []*ImagePoller
	for key, p := range m.pollers {
		stopping = append(stopping, p)
		delete(m.pollers, key)
	}
	m.mu.Unlock()

	for _, p := range stopping {
		p.Stop()
	}
}

func (m *Manager) Count() int {
	m.mu.Lock()
	defer m.mu.Unlock()

	return len(m.pollers)
}

func (m *Manager) Name() string { return "avatar_image_watcher" }

func (m *Manager) Start(ctx context.Context) error {
	<-ctx.Done()
	m.Shutdown()
	return nil
}

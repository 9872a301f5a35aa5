package watcher

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dchernykh/avatarchat-telegram-bot/pkg/domain"
)

type scriptedGetter struct {
	mu      sync.Mutex
	results []getResult
	calls   int
}

type getResult struct {
	avatar domain.Avatar
	err    error
}

func (g *scriptedGetter) GetAvatar(_ context.Context, _ int64) (domain.Avatar, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	i := g.calls
	if i >= len(g.results) {
		i = len(g.results) - 1
	}
	g.calls++
	return g.results[i].avatar, g.results[i].err
}

func (g *scriptedGetter) callCount() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.calls
}

type recordingCache struct {
	mu      sync.Mutex
	updates []cacheUpdate
}

type cacheUpdate struct {
	TgChatID int64
	AvatarID int64
	ImageURL string
	Status   domain.ImageStatus
}

func (c *recordingCache) UpdateImage(tgChatID, avatarID int64, imageURL string, status domain.ImageStatus) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.updates = append(c.updates, cacheUpdate{tgChatID, avatarID, imageURL, status})
}

func (c *recordingCache) last() (cacheUpdate, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.updates) == 0 {
		return cacheUpdate{}, false
	}
	return c.updates[len(c.updates)-1], true
}

func pendingAvatar() domain.Avatar {
	return domain.Avatar{ID: 5, Name: "Алиса", ImageStatus: domain.ImageStatusPending}
}

func TestImagePoller_StopsOnReady(t *testing.T) {
	getter := &scriptedGetter{results: []getResult{
		{avatar: pendingAvatar()},
		{avatar: domain.Avatar{ID: 5, Name: "Алиса", ImageURL: "http://x/5.png", ImageStatus: domain.ImageStatusReady}},
	}}
	cache := &recordingCache{}
	responseCh := make(chan domain.Response, 1)

	done := make(chan struct{})
	p := NewImagePoller(1, pendingAvatar(), getter, cache, time.Millisecond, 20, responseCh, func() { close(done) })
	p.Start()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("poller did not finish")
	}

	update, ok := cache.last()
	require.True(t, ok)
	assert.Equal(t, domain.ImageStatusReady, update.Status)
	assert.Equal(t, "http://x/5.png", update.ImageURL)

	resp := <-responseCh
	require.NotNil(t, resp.Image)
	assert.Equal(t, "http://x/5.png", resp.Image.URL)
	assert.Contains(t, resp.Image.Caption, "Алиса")
}

func TestImagePoller_ReportsFailedStatus(t *testing.T) {
	getter := &scriptedGetter{results: []getResult{
		{avatar: domain.Avatar{ID: 5, Name: "Алиса", ImageStatus: domain.ImageStatusFailed}},
	}}
	cache := &recordingCache{}
	responseCh := make(chan domain.Response, 1)

	done := make(chan struct{})
	p := NewImagePoller(1, pendingAvatar(), getter, cache, time.Millisecond, 20, responseCh, func() { close(done) })
	p.Start()

	<-done

	update, ok := cache.last()
	require.True(t, ok)
	assert.Equal(t, domain.ImageStatusFailed, update.Status)

	resp := <-responseCh
	assert.Nil(t, resp.Image)
	assert.Contains(t, resp.Text, "не удалась")
}

func TestImagePoller_ToleratesTransientErrors(t *testing.T) {
	getter := &scriptedGetter{results: []getResult{
		{err: errors.New("connection refused")},
		{err: errors.New("connection refused")},
		{avatar: domain.Avatar{ID: 5, Name: "Алиса", ImageURL: "http://x/5.png", ImageStatus: domain.ImageStatusReady}},
	}}
	cache := &recordingCache{}
	responseCh := make(chan domain.Response, 1)

	done := make(chan struct{})
	p := NewImagePoller(1, pendingAvatar(), getter, cache, time.Millisecond, 20, responseCh, func() { close(done) })
	p.Start()

	<-done

	assert.Equal(t, 3, getter.callCount())
	update, _ := cache.last()
	assert.Equal(t, domain.ImageStatusReady, update.Status)
}

func TestImagePoller_BudgetExhaustionMarksFailed(t *testing.T) {
	getter := &scriptedGetter{results: []getResult{
		{avatar: pendingAvatar()},
	}}
	cache := &recordingCache{}
	responseCh := make(chan domain.Response, 1)

	done := make(chan struct{})
	p := NewImagePoller(1, pendingAvatar(), getter, cache, time.Millisecond, 3, responseCh, func() { close(done) })
	p.Start()

	<-done

	assert.Equal(t, 3, getter.callCount())

	update, ok := cache.last()
	require.True(t, ok)
	assert.Equal(t, domain.ImageStatusFailed, update.Status)
	assert.Empty(t, update.ImageURL)

	resp := <-responseCh
	assert.Contains(t, resp.Text, "Не дождался")
}

func TestImagePoller_StopCancelsSilently(t *testing.T) {
	getter := &scriptedGetter{results: []getResult{
		{avatar: pendingAvatar()},
	}}
	cache := &recordingCache{}
	responseCh := make(chan domain.Response, 1)

	p := NewImagePoller(1, pendingAvatar(), getter, cache, time.Hour, 20, responseCh, func() {})
	p.Start()
	p.Stop()

	_, updated := cache.last()
	assert.False(t, updated)
	assert.Empty(t, responseCh)
}

func TestManager_OnePollerPerAvatar(t *testing.T) {
	getter := &scriptedGetter{results: []getResult{{avatar: pendingAvatar()}}}
	cache := &recordingCache{}
	responseCh := make(chan domain.Response, 1)

	m := NewManager(getter, cache, time.Hour, 20, responseCh)
	defer m.Shutdown()

	m.StartPoller(1, pendingAvatar())
	m.StartPoller(1, pendingAvatar())
	assert.Equal(t, 1, m.Count())

	m.StartPoller(2, pendingAvatar())
	assert.Equal(t, 2, m.Count())
}

func TestManager_SkipsTerminalAvatars(t *testing.T) {
	m := NewManager(&scriptedGetter{results: []getResult{{}}}, &recordingCache{}, time.Hour, 20, nil)
	defer m.Shutdown()

	m.StartPoller(1, domain.Avatar{ID: 5, ImageStatus: domain.ImageStatusReady})
	m.StartPoller(1, domain.Avatar{ID: 6, ImageStatus: domain.ImageStatusFailed})
	assert.Zero(t, m.Count())
}

func TestManager_StopChatPollersIsScoped(t *testing.T) {
	getter := &scriptedGetter{results: []getResult{{avatar: pendingAvatar()}}}
	m := NewManager(getter, &recordingCache{}, time.Hour, 20, make(chan domain.Response, 1))
	defer m.Shutdown()

	m.StartPoller(1, pendingAvatar())
	m.StartPoller(1, domain.Avatar{ID: 6, ImageStatus: domain.ImageStatusPending})
	m.StartPoller(2, pendingAvatar())

	m.StopChatPollers(1)
	assert.Equal(t, 1, m.Count())
}

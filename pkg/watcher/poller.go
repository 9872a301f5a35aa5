package watcher

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/dchernykh/avatarchat-telegram-bot/pkg/domain"
)

type AvatarGetter interface {
	GetAvatar(ctx context.Context, avatarID int64) (domain.Avatar, error)
}

type AvatarCache interface {
	UpdateImage(tgChatID, avatarID int64, imageURL string, status domain.ImageStatus)
}

// ImagePoller watches a single avatar whose portrait is still being
// generated. It re-fetches the avatar on a fixed interval until the status
// becomes terminal or the attempt budget runs out, then reports the outcome
// to the user and stops. A poller is single-use.
type ImagePoller struct {
	tgChatID    int64
	avatarID    int64
	avatarName  string
	api         AvatarGetter
	cache       AvatarCache
	interval    time.Duration
	maxAttempts int
	responseCh  chan<- domain.Response

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
	onDone func()
}

func NewImagePoller(
	tgChatID int64,
	avatar domain.Avatar,
	api AvatarGetter,
	cache AvatarCache,
	interval time.Duration,
	maxAttempts int,
	responseCh chan<- domain.Response,
	onDone func(),
) *ImagePoller {
	ctx, cancel := context.WithCancel(context.Background())
	return &ImagePoller{
		tgChatID:    tgChatID,
		avatarID:    avatar.ID,
		avatarName:  avatar.Name,
		api:         api,
		cache:       cache,
		interval:    interval,
		maxAttempts: maxAttempts,
		responseCh:  responseCh,
		ctx:         ctx,
		cancel:      cancel,
		onDone:      onDone,
	}
}

func (p *ImagePoller) Start() {
	p.wg.Add(1)
	go func() {
		defer p.wg.Done()
		defer p.onDone()
		p.run()
	}()
}

// Stop cancels the poll loop without reporting an outcome. Safe to call
// more than once.
func (p *ImagePoller) Stop() {
	p.cancel()
	p.wg.Wait()
}

func (p *ImagePoller) run() {
	slog.Info("avatar image poll started",
		"tg_chat_id", p.tgChatID, "avatar_id", p.avatarID, "attempts", p.maxAttempts)

	for attempt := 1; attempt <= p.maxAttempts; attempt++ {
		avatar, err := p.api.GetAvatar(p.ctx, p.avatarID)
		if err != nil {
			if p.ctx.Err() != nil {
				return
			}
			// Transient fetch errors spend an attempt but do not fail the avatar.
			slog.Warn("avatar image poll attempt failed",
				"avatar_id", p.avatarID, "attempt", attempt, "err", err)
		} else if avatar.ImageStatus.Terminal() {
			p.finish(avatar)
			return
		}

		select {
		case <-p.ctx.Done():
			return
		case <-time.After(p.interval):
		}
	}

	// Budget exhausted: treat generation as failed so the user is not left
	// staring at a spinner forever.
	slog.Warn("avatar image poll exhausted", "avatar_id", p.avatarID)
	p.cache.UpdateImage(p.tgChatID, p.avatarID, "", domain.ImageStatusFailed)
	p.respond(domain.Response{
		ChatID: p.tgChatID,
		Text:   fmt.Sprintf("⏳ Не дождался портрета для «%s». Попробуйте создать персонажа заново.", p.avatarName),
	})
}

func (p *ImagePoller) finish(avatar domain.Avatar) {
	p.cache.UpdateImage(p.tgChatID, p.avatarID, avatar.ImageURL, avatar.ImageStatus)

	switch avatar.ImageStatus {
	case domain.ImageStatusReady:
		slog.Info("avatar image ready", "avatar_id", p.avatarID, "url", avatar.ImageURL)
		p.respond(domain.Response{
			ChatID: p.tgChatID,
			Image: &domain.RemoteImage{
				URL:     avatar.ImageURL,
				Caption: fmt.Sprintf("✨ Персонаж «%s» готов! Начните чат командой /characters.", p.avatarName),
			},
		})
	case domain.ImageStatusFailed:
		slog.Warn("avatar image generation failed", "avatar_id", p.avatarID)
		p.respond(domain.Response{
			ChatID: p.tgChatID,
			Text:   fmt.Sprintf("😔 Генерация портрета для «%s» не удалась.", p.avatarName),
		})
	}
}

func (p *ImagePoller) respond(resp domain.Response) {
	select {
	case p.responseCh <- resp:
	case <-p.ctx.Done():
	}
}

package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/caarlos0/env/v9"

	"github.com/dchernykh/avatarchat-telegram-bot/pkg/auth"
	"github.com/dchernykh/avatarchat-telegram-bot/pkg/avatarchat"
	"github.com/dchernykh/avatarchat-telegram-bot/pkg/database"
	"github.com/dchernykh/avatarchat-telegram-bot/pkg/digitalocean"
	"github.com/dchernykh/avatarchat-telegram-bot/pkg/domain"
	"github.com/dchernykh/avatarchat-telegram-bot/pkg/logger"
	"github.com/dchernykh/avatarchat-telegram-bot/pkg/repository"
	"github.com/dchernykh/avatarchat-telegram-bot/pkg/services"
	"github.com/dchernykh/avatarchat-telegram-bot/pkg/telegram"
	"github.com/dchernykh/avatarchat-telegram-bot/pkg/telegram/command"
	"github.com/dchernykh/avatarchat-telegram-bot/pkg/watcher"
	"github.com/dchernykh/avatarchat-telegram-bot/pkg/workers"
)

type Config struct {
	TelegramBotToken          string        `env:"TELEGRAM_BOT_TOKEN,required"`
	TelegramAuthorizedUserIDs []int64       `env:"TELEGRAM_AUTHORIZED_USER_IDS" envSeparator:" "`
	AvatarChatBaseURL         string        `env:"AVATAR_CHAT_BASE_URL" envDefault:"http://127.0.0.1:8000"`
	AvatarPollInterval        time.Duration `env:"AVATAR_POLL_INTERVAL" envDefault:"3s"`
	AvatarPollAttempts        int           `env:"AVATAR_POLL_ATTEMPTS" envDefault:"20"`
	PgURL                     string        `env:"DATABASE_URL"`
	PgHost                    string        `env:"DB_HOST" envDefault:"localhost:65432"`
	DigitalOceanToken         string        `env:"DIGITAL_OCEAN_TOKEN"`
}

func main() {
	slog.SetDefault(slog.New(logger.NewHandler(os.Stderr, logger.DefaultOptions)))

	if err := runMain(); err != nil {
		slog.Error("shutting down due to error", logger.Err(err))
		os.Exit(1)
	}
	slog.Info("shutdown complete")
}

func runMain() error {
	workerGroup, err := setupWorkers()
	if err != nil {
		return err
	}

	ctx, cancelFn := context.WithCancel(context.Background())
	defer cancelFn()

	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGHUP)
		select {
		case s := <-sigCh:
			slog.Info("shutting down due to signal", "signal", s.String())
			cancelFn()
		case <-ctx.Done():
		}
	}()

	return workerGroup.Start(ctx)
}

func setupWorkers() (workers.Group, error) {
	cfg := Config{}
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("parsing env config: %w", err)
	}

	var worker workers.Worker
	var workerGroup workers.Group

	telegramClient, err := telegram.NewClient(cfg.TelegramBotToken)
	if err != nil {
		return nil, fmt.Errorf("creating telegram client: %w", err)
	}
	authenticator := auth.NewAuthenticator(cfg.TelegramAuthorizedUserIDs)

	db, err := database.NewPostgres(cfg.PgURL, cfg.PgHost)
	if err != nil {
		return nil, fmt.Errorf("creating db: %w", err)
	}

	apiClient, err := avatarchat.NewClient(cfg.AvatarChatBaseURL)
	if err != nil {
		return nil, fmt.Errorf("creating avatar chat client: %w", err)
	}

	profileRepository := repository.NewProfileRepository(db)
	chatsRepository := repository.NewChatsRepository()
	avatarsRepository := repository.NewAvatarsRepository()
	stateRepository := repository.NewStateRepository()

	responseCh := make(chan domain.Response)

	watcherManager := watcher.NewManager(
		apiClient,
		avatarsRepository,
		cfg.AvatarPollInterval,
		cfg.AvatarPollAttempts,
		responseCh,
	)

	profileService := services.NewProfileService(
		apiClient,
		profileRepository,
		chatsRepository,
		avatarsRepository,
		stateRepository,
		watcherManager,
		responseCh,
	)

	chatService := services.NewChatService(
		apiClient,
		chatsRepository,
		avatarsRepository,
		responseCh,
	)

	characterService := services.NewCharacterService(
		apiClient,
		avatarsRepository,
		chatsRepository,
		stateRepository,
		profileRepository,
		watcherManager,
		responseCh,
	)

	handlers := []any{
		command.NewStart(profileService),
		command.NewLogout(profileService),
		command.NewShowCharacters(characterService),
		command.NewNewCharacter(characterService),
		command.NewShowChats(chatService),
		command.NewStartChatCallback(characterService),
		command.NewSelectChatCallback(chatService),
		command.NewBalance(digitalocean.NewClient(cfg.DigitalOceanToken), responseCh),
		command.NewCharacterForm(characterService, stateRepository),
		command.NewSendMessage(chatService, stateRepository),
	}
	router := telegram.NewRouter(handlers)

	workerGroup = append(workerGroup, watcherManager)

	if worker, err = workers.
		NewTelegramUpdateListener(
			telegramClient,
			authenticator,
			router,
			responseCh,
		); err == nil {
		workerGroup = append(workerGroup, worker)
	} else {
		return nil, err
	}

	return workerGroup, nil
}

package telegram

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/dchernykh/avatarchat-telegram-bot/pkg/domain"
	"github.com/dchernykh/avatarchat-telegram-bot/pkg/logger"
	"github.com/dchernykh/avatarchat-telegram-bot/pkg/render"
)

type client struct {
	bot       *tgbotapi.BotAPI
	updatesCh tgbotapi.UpdatesChannel
}

func NewClient(token string) (*client, error) {
	bot, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("creating bot api instance: %v", err)
	}

	slog.Info("authorized on telegram", "account", bot.Self.UserName)

	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60

	return &client{
		bot:       bot,
		updatesCh: bot.GetUpdatesChan(u),
	}, nil
}

func (c *client) GetUpdates() tgbotapi.UpdatesChannel {
	return c.updatesCh
}

func (c *client) AcknowledgeCallback(ctx context.Context, callbackQueryID string) {
	if _, err := c.bot.Request(tgbotapi.NewCallback(callbackQueryID, "")); err != nil {
		slog.ErrorContext(ctx, "acknowledging callback", logger.Err(err))
	}
}

// SendResponse delivers one response to its telegram chat. Exactly one of
// the response's aspects is acted on, checked in order: typing indicator,
// error, image, keyboard, text.
func (c *client) SendResponse(ctx context.Context, response *domain.Response) {
	switch {
	case response.Typing:
		c.sendTyping(ctx, response.ChatID)
	case response.Err != nil:
		c.sendError(ctx, response.ChatID, response.Err)
	case response.Image != nil:
		c.sendImage(ctx, response.ChatID, response.Image)
	case response.Keyboard != nil:
		c.sendKeyboard(ctx, response.ChatID, response.Keyboard)
	case response.Text != "":
		c.sendText(ctx, response.ChatID, response.Text)
	}
}

func (c *client) sendTyping(ctx context.Context, chatID int64) {
	if _, err := c.bot.Request(tgbotapi.NewChatAction(chatID, tgbotapi.ChatTyping)); err != nil {
		slog.ErrorContext(ctx, "sending typing action", "chatID", chatID, logger.Err(err))
	}
}

func (c *client) sendError(ctx context.Context, chatID int64, err error) {
	msg := tgbotapi.NewMessage(chatID, "⚠️ "+userFacing(err))
	if _, sendErr := c.bot.Send(msg); sendErr != nil {
		slog.ErrorContext(ctx, "sending error message", "chatID", chatID, logger.Err(sendErr))
	}
}

func (c *client) sendImage(ctx context.Context, chatID int64, image *domain.RemoteImage) {
	photo := tgbotapi.NewPhoto(chatID, tgbotapi.FileURL(image.URL))
	photo.Caption = image.Caption
	if _, err := c.bot.Send(photo); err != nil {
		slog.ErrorContext(ctx, "sending photo", "chatID", chatID, "url", image.URL, logger.Err(err))
		// The caption still carries the news even if the image upload fails.
		c.sendText(ctx, chatID, image.Caption)
	}
}

func (c *client) sendKeyboard(ctx context.Context, chatID int64, keyboard *domain.Keyboard) {
	perRow := keyboard.ButtonsPerRow
	if perRow < 1 {
		perRow = 1
	}

	var rows [][]tgbotapi.InlineKeyboardButton
	var row []tgbotapi.InlineKeyboardButton
	for _, b := range keyboard.Buttons {
		row = append(row, tgbotapi.NewInlineKeyboardButtonData(b.Label, b.Data))
		if len(row) == perRow {
			rows = append(rows, row)
			row = nil
		}
	}
	if len(row) > 0 {
		rows = append(rows, row)
	}

	msg := tgbotapi.NewMessage(chatID, keyboard.Title)
	msg.ReplyMarkup = tgbotapi.NewInlineKeyboardMarkup(rows...)
	if _, err := c.bot.Send(msg); err != nil {
		slog.ErrorContext(ctx, "sending keyboard", "chatID", chatID, logger.Err(err))
	}
}

func (c *client) sendText(ctx context.Context, chatID int64, text string) {
	msg := tgbotapi.NewMessage(chatID, render.ToHTML(text))
	msg.ParseMode = tgbotapi.ModeHTML

	if _, err := c.bot.Send(msg); err != nil {
		slog.WarnContext(ctx, "sending html message, retrying as plain text", "chatID", chatID, logger.Err(err))

		plain := tgbotapi.NewMessage(chatID, text)
		if _, err := c.bot.Send(plain); err != nil {
			slog.ErrorContext(ctx, "sending plain message", "chatID", chatID, logger.Err(err))
		}
	}
}

// userFacing maps backend failures to short Russian phrases; raw error text
// never reaches the chat.
func userFacing(err error) string {
	var apiErr *domain.APIError
	if errors.As(err, &apiErr) {
		if apiErr.StatusCode == http.StatusNotFound {
			return "Сервер не нашёл запрошенные данные. Попробуйте /start."
		}
		return fmt.Sprintf("Сервер ответил ошибкой (%d). Попробуйте ещё раз позже.", apiErr.StatusCode)
	}

	var transportErr *domain.TransportError
	if errors.As(err, &transportErr) {
		return "Не удалось связаться с сервером. Проверьте, что он запущен, и попробуйте ещё раз."
	}

	return "Что-то пошло не так. Попробуйте ещё раз."
}

package avatarchat

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/dchernykh/avatarchat-telegram-bot/pkg/domain"
)

// Client talks to the avatar-chat backend. The backend speaks snake_case
// JSON; every method normalizes responses into domain shapes, renaming
// avatar_id to CharacterID and resolving relative image URLs against the
// base URL.
type Client struct {
	baseURL string
	hc      *http.Client
}

func NewClient(baseURL string) (*Client, error) {
	if baseURL == "" {
		return nil, fmt.Errorf("base URL is empty")
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		hc:      &http.Client{Timeout: 60 * time.Second},
	}, nil
}

type userPayload struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
}

type avatarPayload struct {
	ID          int64   `json:"id"`
	Name        string  `json:"name"`
	Personality string  `json:"personality"`
	Features    string  `json:"features"`
	Age         int     `json:"age"`
	Gender      string  `json:"gender"`
	Hobbies     string  `json:"hobbies"`
	ImageURL    *string `json:"image_url"`
	ImageStatus string  `json:"image_status"`
	IsSystem    bool    `json:"is_system"`
}

type avatarCreatePayload struct {
	Name        string `json:"name"`
	Personality string `json:"personality,omitempty"`
	Features    string `json:"features,omitempty"`
	Age         int    `json:"age,omitempty"`
	Gender      string `json:"gender,omitempty"`
	Hobbies     string `json:"hobbies,omitempty"`
}

type chatPayload struct {
	ID       int64 `json:"id"`
	AvatarID int64 `json:"avatar_id"`
}

type messagePayload struct {
	ID        int64  `json:"id"`
	ChatID    int64  `json:"chat_id"`
	Role      string `json:"role"`
	Content   string `json:"content"`
	CreatedAt string `json:"created_at"`
}

// UpsertUser creates or re-creates the backend user record for the given
// username and returns its persistent id.
func (c *Client) UpsertUser(ctx context.Context, username string) (int64, error) {
	if username == "" {
		return 0, fmt.Errorf("username is empty")
	}

	var user userPayload
	body := map[string]any{"username": username}
	if err := c.doJSON(ctx, http.MethodPost, "/users/", body, &user); err != nil {
		return 0, fmt.Errorf("upserting user: %w", err)
	}
	return user.ID, nil
}

// ListAvatars returns all avatars owned by userID.
func (c *Client) ListAvatars(ctx context.Context, userID int64) ([]domain.Avatar, error) {
	var payload []avatarPayload
	path := fmt.Sprintf("/users/%d/avatars/", userID)
	if err := c.doJSON(ctx, http.MethodGet, path, nil, &payload); err != nil {
		return nil, fmt.Errorf("listing avatars: %w", err)
	}

	avatars := make([]domain.Avatar, 0, len(payload))
	for _, p := range payload {
		avatars = append(avatars, c.toAvatar(p))
	}
	return avatars, nil
}

// CreateAvatar submits generation inputs. The returned avatar is pending:
// the portrait is generated out-of-band on the backend.
func (c *Client) CreateAvatar(ctx context.Context, userID int64, draft domain.AvatarDraft) (domain.Avatar, error) {
	if draft.Name == "" {
		return domain.Avatar{}, fmt.Errorf("avatar name is empty")
	}

	body := avatarCreatePayload{
		Name:        draft.Name,
		Personality: draft.Personality,
		Features:    draft.Features,
		Age:         draft.Age,
		Gender:      draft.Gender,
		Hobbies:     draft.Hobbies,
	}

	var payload avatarPayload
	path := fmt.Sprintf("/users/%d/avatars/", userID)
	if err := c.doJSON(ctx, http.MethodPost, path, body, &payload); err != nil {
		return domain.Avatar{}, fmt.Errorf("creating avatar: %w", err)
	}
	return c.toAvatar(payload), nil
}

// GetAvatar re-fetches a single avatar, including its current image status.
func (c *Client) GetAvatar(ctx context.Context, avatarID int64) (domain.Avatar, error) {
	var payload avatarPayload
	path := fmt.Sprintf("/avatars/%d/", avatarID)
	if err := c.doJSON(ctx, http.MethodGet, path, nil, &payload); err != nil {
		return domain.Avatar{}, fmt.Errorf("fetching avatar: %w", err)
	}
	return c.toAvatar(payload), nil
}

// ListChats returns all chat sessions of userID.
func (c *Client) ListChats(ctx context.Context, userID int64) ([]domain.Chat, error) {
	var payload []chatPayload
	path := fmt.Sprintf("/users/%d/chats/", userID)
	if err := c.doJSON(ctx, http.MethodGet, path, nil, &payload); err != nil {
		return nil, fmt.Errorf("listing chats: %w", err)
	}

	chats := make([]domain.Chat, 0, len(payload))
	for _, p := range payload {
		chats = append(chats, domain.Chat{ID: p.ID, CharacterID: p.AvatarID})
	}
	return chats, nil
}

// CreateChat starts a new chat session between userID and avatarID.
func (c *Client) CreateChat(ctx context.Context, userID, avatarID int64) (domain.Chat, error) {
	var payload chatPayload
	path := fmt.Sprintf("/users/%d/chats/?avatar_id=%d", userID, avatarID)
	if err := c.doJSON(ctx, http.MethodPost, path, nil, &payload); err != nil {
		return domain.Chat{}, fmt.Errorf("creating chat: %w", err)
	}
	return domain.Chat{ID: payload.ID, CharacterID: payload.AvatarID}, nil
}

// ListMessages returns the full message history of a chat in insertion order.
func (c *Client) ListMessages(ctx context.Context, chatID int64) ([]domain.ChatMessage, error) {
	var payload []messagePayload
	path := fmt.Sprintf("/chats/%d/messages/", chatID)
	if err := c.doJSON(ctx, http.MethodGet, path, nil, &payload); err != nil {
		return nil, fmt.Errorf("listing messages: %w", err)
	}

	messages := make([]domain.ChatMessage, 0, len(payload))
	for _, p := range payload {
		sender := domain.SenderUser
		if p.Role == "assistant" {
			sender = domain.SenderAI
		}
		messages = append(messages, domain.ChatMessage{
			ID:     strconv.FormatInt(p.ID, 10),
			ChatID: p.ChatID,
			Sender: sender,
			Text:   p.Content,
			SentAt: parseCreatedAt(p.CreatedAt),
		})
	}
	return messages, nil
}

// SendMessage posts a user message and returns the completed assistant
// reply. There is no streaming: the HTTP response is the whole reply.
func (c *Client) SendMessage(ctx context.Context, chatID, avatarID int64, text string) (string, error) {
	body := map[string]any{"avatar_id": avatarID, "message": text}

	var payload struct {
		Reply string `json:"reply"`
	}
	path := fmt.Sprintf("/api/assistant/%d/", chatID)
	if err := c.doJSON(ctx, http.MethodPost, path, body, &payload); err != nil {
		return "", fmt.Errorf("sending message: %w", err)
	}
	return payload.Reply, nil
}

func (c *Client) doJSON(ctx context.Context, method, path string, body, out any) error {
	var reqBody io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshaling request: %w", err)
		}
		reqBody = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.hc.Do(req)
	if err != nil {
		return &domain.TransportError{Op: method + " " + path, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		raw, _ := io.ReadAll(resp.Body)
		return &domain.APIError{StatusCode: resp.StatusCode, Body: string(raw)}
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("decoding response: %w", err)
		}
	}
	return nil
}

func (c *Client) toAvatar(p avatarPayload) domain.Avatar {
	a := domain.Avatar{
		ID:          p.ID,
		Name:        p.Name,
		Personality: p.Personality,
		Features:    p.Features,
		Age:         p.Age,
		Gender:      p.Gender,
		Hobbies:     p.Hobbies,
		ImageStatus: domain.ImageStatus(p.ImageStatus),
		IsSystem:    p.IsSystem,
	}
	if p.ImageURL != nil {
		a.ImageURL = c.absoluteURL(*p.ImageURL)
	}
	return a
}

func (c *Client) absoluteURL(u string) string {
	if u == "" || strings.HasPrefix(u, "http") {
		return u
	}
	return c.baseURL + u
}

// parseCreatedAt parses backend timestamps, which are stored in UTC and may
// arrive without a zone designator.
func parseCreatedAt(raw string) time.Time {
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return t
	}
	t, err := time.Parse("2006-01-02T15:04:05", raw)
	if err != nil {
		return time.Time{}
	}
	return t
}

package avatarchat

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dchernykh/avatarchat-telegram-bot/pkg/domain"
)

func TestListChats_RenamesAvatarID(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/users/7/chats/", r.URL.Path)
		_, _ = w.Write([]byte(`[{"id":5,"avatar_id":9},{"id":6,"avatar_id":2}]`))
	}))
	defer srv.Close()

	client, err := NewClient(srv.URL)
	require.NoError(t, err)

	chats, err := client.ListChats(context.Background(), 7)
	require.NoError(t, err)

	require.Len(t, chats, 2)
	assert.Equal(t, domain.Chat{ID: 5, CharacterID: 9}, chats[0])
	assert.Equal(t, domain.Chat{ID: 6, CharacterID: 2}, chats[1])
}

func TestListAvatars_ResolvesRelativeImageURL(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`[
			{"id":1,"name":"Алиса","image_url":"/media/1.png","image_status":"ready"},
			{"id":2,"name":"Боб","image_url":"http://cdn.example.com/2.png","image_status":"ready"},
			{"id":3,"name":"Ева","image_url":null,"image_status":"pending"}
		]`))
	}))
	defer srv.Close()

	client, err := NewClient(srv.URL)
	require.NoError(t, err)

	avatars, err := client.ListAvatars(context.Background(), 1)
	require.NoError(t, err)

	require.Len(t, avatars, 3)
	assert.Equal(t, srv.URL+"/media/1.png", avatars[0].ImageURL)
	assert.Equal(t, "http://cdn.example.com/2.png", avatars[1].ImageURL)
	assert.Empty(t, avatars[2].ImageURL)
	assert.Equal(t, domain.ImageStatusPending, avatars[2].ImageStatus)
}

func TestListMessages_MapsRoles(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chats/3/messages/", r.URL.Path)
		_, _ = w.Write([]byte(`[
			{"id":10,"chat_id":3,"role":"user","content":"привет","created_at":"2025-06-01T10:00:00"},
			{"id":11,"chat_id":3,"role":"assistant","content":"здравствуйте","created_at":"2025-06-01T10:00:05"}
		]`))
	}))
	defer srv.Close()

	client, err := NewClient(srv.URL)
	require.NoError(t, err)

	messages, err := client.ListMessages(context.Background(), 3)
	require.NoError(t, err)

	require.Len(t, messages, 2)
	assert.Equal(t, "10", messages[0].ID)
	assert.Equal(t, domain.SenderUser, messages[0].Sender)
	assert.Equal(t, domain.SenderAI, messages[1].Sender)
	assert.Equal(t, "здравствуйте", messages[1].Text)
	assert.False(t, messages[0].SentAt.IsZero())
}

func TestSendMessage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/assistant/4/", r.URL.Path)

		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.EqualValues(t, 9, body["avatar_id"])
		assert.Equal(t, "как дела?", body["message"])

		_, _ = w.Write([]byte(`{"reply":"отлично!"}`))
	}))
	defer srv.Close()

	client, err := NewClient(srv.URL)
	require.NoError(t, err)

	reply, err := client.SendMessage(context.Background(), 4, 9, "как дела?")
	require.NoError(t, err)
	assert.Equal(t, "отлично!", reply)
}

func TestCreateChat_PassesAvatarIDAsQuery(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/users/7/chats/", r.URL.Path)
		assert.Equal(t, "3", r.URL.Query().Get("avatar_id"))
		_, _ = w.Write([]byte(`{"id":12,"avatar_id":3}`))
	}))
	defer srv.Close()

	client, err := NewClient(srv.URL)
	require.NoError(t, err)

	chat, err := client.CreateChat(context.Background(), 7, 3)
	require.NoError(t, err)
	assert.Equal(t, domain.Chat{ID: 12, CharacterID: 3}, chat)
}

func TestDoJSON_NonOKStatusIsAPIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer srv.Close()

	client, err := NewClient(srv.URL)
	require.NoError(t, err)

	_, err = client.GetAvatar(context.Background(), 1)
	require.Error(t, err)

	var apiErr *domain.APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusInternalServerError, apiErr.StatusCode)
	assert.Contains(t, apiErr.Body, "boom")
}

func TestDoJSON_NetworkFailureIsTransportError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close()

	client, err := NewClient(srv.URL)
	require.NoError(t, err)

	_, err = client.ListAvatars(context.Background(), 1)
	require.Error(t, err)

	var transportErr *domain.TransportError
	require.ErrorAs(t, err, &transportErr)
}

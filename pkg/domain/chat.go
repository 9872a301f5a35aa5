package domain

import "time"

// Chat is a conversation thread bound to exactly one avatar.
type Chat struct {
	ID          int64
	CharacterID int64
}

const (
	SenderUser = "user"
	SenderAI   = "ai"
)

// ChatMessage is a single message within a chat. Server-assigned messages
// carry the backend numeric id as a string; optimistic local messages carry
// a generated UUID until the history is reloaded.
type ChatMessage struct {
	ID     string
	ChatID int64
	Sender string
	Text   string
	SentAt time.Time
}

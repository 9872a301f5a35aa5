package domain

// UserProfile joins the Telegram identity with the backend-assigned user id.
type UserProfile struct {
	TelegramUserID int64
	Name           string
	BackendID      int64
}

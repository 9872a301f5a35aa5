package auth

import "log/slog"

type authenticator struct {
	authorizedUserIDs []int64
}

// NewAuthenticator builds the allow-list check. An empty list means the bot
// is open to everyone.
func NewAuthenticator(authorizedUserIDs []int64) *authenticator {
	slog.Info("telegram authorized user IDs", "user_ids", authorizedUserIDs)

	return &authenticator{
		authorizedUserIDs: authorizedUserIDs,
	}
}

func (a *authenticator) IsAuthorized(userID int64) bool {
	if len(a.authorizedUserIDs) == 0 {
		return true
	}
	for _, id := range a.authorizedUserIDs {
		if userID == id {
			return true
		}
	}
	return false
}

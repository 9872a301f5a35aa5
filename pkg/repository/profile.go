package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dchernykh/avatarchat-telegram-bot/pkg/domain"
)

// profileRepository persists the signed-in user profile, the durable
// equivalent of the browser's single local-storage entry. Rows are removed
// on logout.
type profileRepository struct {
	db *sql.DB
}

func NewProfileRepository(db *sql.DB) *profileRepository {
	return &profileRepository{db: db}
}

func (p *profileRepository) Save(ctx context.Context, profile domain.UserProfile) error {
	const query = `
		INSERT INTO profiles (telegram_user_id, name, backend_id)
		VALUES ($1, $2, $3)
		ON CONFLICT (telegram_user_id)
		DO UPDATE SET
			name = EXCLUDED.name,
			backend_id = EXCLUDED.backend_id
	`

	_, err := p.db.ExecContext(ctx, query, profile.TelegramUserID, profile.Name, profile.BackendID)
	if err != nil {
		return fmt.Errorf("saving profile: %w", err)
	}

	return nil
}

func (p *profileRepository) GetByTelegramID(ctx context.Context, telegramUserID int64) (*domain.UserProfile, error) {
	const query = `
		SELECT telegram_user_id, name, backend_id
		FROM profiles
		WHERE telegram_user_id = $1
	`

	var profile domain.UserProfile
	err := p.db.QueryRowContext(ctx, query, telegramUserID).
		Scan(&profile.TelegramUserID, &profile.Name, &profile.BackendID)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("fetching profile by telegram id: %w", err)
	}

	return &profile, nil
}

func (p *profileRepository) Delete(ctx context.Context, telegramUserID int64) error {
	const query = `
		DELETE FROM profiles
		WHERE telegram_user_id = $1
	`

	if _, err := p.db.ExecContext(ctx, query, telegramUserID); err != nil {
		return fmt.Errorf("deleting profile: %w", err)
	}

	return nil
}

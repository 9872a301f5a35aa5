package database

import (
	"database/sql"
	"fmt"
	"log/slog"

	migrate "github.com/rubenv/sql-migrate"
	"github.com/uptrace/bun/driver/pgdriver"
)

// NewPostgres opens the database and applies pending migrations. When url
// is empty a local DSN is built from host.
func NewPostgres(url, host string) (*sql.DB, error) {
	dsn := url
	if dsn == "" {
		dsn = fmt.Sprintf("postgres://postgres:postgres@%s/postgres?sslmode=disable", host)
	}

	db := sql.OpenDB(pgdriver.NewConnector(pgdriver.WithDSN(dsn)))
	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("pinging db: %w", err)
	}

	if err := applyMigrations(db); err != nil {
		return nil, fmt.Errorf("applying migrations: %w", err)
	}

	return db, nil
}

func applyMigrations(db *sql.DB) error {
	migrations := &migrate.MemoryMigrationSource{
		Migrations: []*migrate.Migration{
			{
				Id: "1_create_profiles",
				Up: []string{`
					CREATE TABLE profiles (
						telegram_user_id BIGINT PRIMARY KEY,
						name TEXT NOT NULL,
						backend_id BIGINT NOT NULL,
						created_at TIMESTAMPTZ NOT NULL DEFAULT now()
					)`},
				Down: []string{`DROP TABLE profiles`},
			},
		},
	}

	n, err := migrate.Exec(db, "postgres", migrations, migrate.Up)
	if err != nil {
		return err
	}

	slog.Info("migrations applied", "count", n)
	return nil
}

package db

import (
	"errors"
	"os"

	"github.com/jmoiron/sqlx"
)

// ErrNoTestDatabase is returned when TEST_DATABASE_URL is unset.
var ErrNoTestDatabase = errors.New("TEST_DATABASE_URL environment variable is not set")

// InitTestDB connects to TEST_DATABASE_URL and applies migrations.
func InitTestDB(migrationsPath string) (*sqlx.DB, error) {
	dbURL := os.Getenv("TEST_DATABASE_URL")
	if dbURL == "" {
		return nil, ErrNoTestDatabase
	}

	conn, err := Connect(dbURL)
	if err != nil {
		return nil, err
	}
	if err := RunMigrations(conn, migrationsPath); err != nil {
		conn.Close()
		return nil, err
	}
	return conn, nil
}

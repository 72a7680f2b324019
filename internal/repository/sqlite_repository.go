package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/sqlite"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	_ "modernc.org/sqlite"

	"github.com/pr-poehali-dev/digital-goods-marketplace/internal/domain"
)

// storageNamespace is the fixed key prefix every cart snapshot is
// stored under.
const storageNamespace = "cart"

func storageKey(sessionID string) string {
	return fmt.Sprintf("%s:%s", storageNamespace, sessionID)
}

// SQLiteRepository persists cart snapshots in a local SQLite database:
// one row per session, holding the full serialized line collection.
type SQLiteRepository struct {
	db *sql.DB
}

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite allows a single writer; one pooled connection also keeps
	// :memory: databases stable across calls.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &SQLiteRepository{db: db}, nil
}

func (r *SQLiteRepository) RunMigrations(migrationsPath string) error {
	driver, err := sqlite.WithInstance(r.db, &sqlite.Config{})
	if err != nil {
		return fmt.Errorf("could not create migration driver: %w", err)
	}

	m, err := migrate.NewWithDatabaseInstance(
		fmt.Sprintf("file://%s", migrationsPath),
		"sqlite",
		driver,
	)
	if err != nil {
		return fmt.Errorf("could not create migrate instance: %w", err)
	}

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("could not run migrations: %w", err)
	}

	return nil
}

func (r *SQLiteRepository) GetCart(ctx context.Context, sessionID string) ([]domain.CartLine, error) {
	query := `SELECT payload FROM cart_snapshots WHERE storage_key = $1`

	var payload []byte
	err := r.db.QueryRowContext(ctx, query, storageKey(sessionID)).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrCartNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query cart snapshot: %w", err)
	}

	var lines []domain.CartLine
	if err := json.Unmarshal(payload, &lines); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCartCorrupt, err)
	}

	return lines, nil
}

func (r *SQLiteRepository) UpsertCart(ctx context.Context, sessionID string, lines []domain.CartLine) error {
	payload, err := json.Marshal(lines)
	if err != nil {
		return fmt.Errorf("failed to marshal cart snapshot: %w", err)
	}

	query := `
		INSERT INTO cart_snapshots (storage_key, payload, updated_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (storage_key) DO UPDATE SET payload = $2, updated_at = $3
	`

	if _, err := r.db.ExecContext(ctx, query, storageKey(sessionID), payload, time.Now().UTC()); err != nil {
		return fmt.Errorf("failed to upsert cart snapshot: %w", err)
	}

	return nil
}

func (r *SQLiteRepository) DeleteCart(ctx context.Context, sessionID string) error {
	query := `DELETE FROM cart_snapshots WHERE storage_key = $1`

	if _, err := r.db.ExecContext(ctx, query, storageKey(sessionID)); err != nil {
		return fmt.Errorf("failed to delete cart snapshot: %w", err)
	}

	return nil
}

func (r *SQLiteRepository) Close() error {
	return r.db.Close()
}

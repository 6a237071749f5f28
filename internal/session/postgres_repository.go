package session

import (
	"context"
	"database/sql"
	"embed"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	_ "github.com/lib/pq"
	"github.com/pusit-hanp/capstone-image-store/internal/domain"
)

//go:embed migrations/*.sql
var migrations embed.FS

// PostgresRepository keeps one jsonb document per user.
type PostgresRepository struct {
	db *sql.DB
}

func NewPostgresRepository(dsn string) (*PostgresRepository, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	db.SetMaxOpenConns(20)
	db.SetMaxIdleConns(5)
	return &PostgresRepository{db: db}, nil
}

func (r *PostgresRepository) RunMigrations() error {
	source, err := iofs.New(migrations, "migrations")
	if err != nil {
		return fmt.Errorf("could not open migrations: %w", err)
	}

	driver, err := postgres.WithInstance(r.db, &postgres.Config{
		MigrationsTable: "sessions_schema_migrations",
	})
	if err != nil {
		return fmt.Errorf("could not create migration driver: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", source, "postgres", driver)
	if err != nil {
		return fmt.Errorf("could not create migrate instance: %w", err)
	}

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("could not run migrations: %w", err)
	}

	return nil
}

func (r *PostgresRepository) Load(ctx context.Context, userID string) (*domain.UserSnapshot, error) {
	var doc []byte
	err := r.db.QueryRowContext(ctx,
		`SELECT document FROM session_snapshots WHERE user_id = $1`, userID).Scan(&doc)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrSnapshotNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query snapshot: %w", err)
	}

	var snapshot domain.UserSnapshot
	if err := json.Unmarshal(doc, &snapshot); err != nil {
		return nil, fmt.Errorf("failed to unmarshal snapshot: %w", err)
	}
	snapshot.Normalize()

	return &snapshot, nil
}

func (r *PostgresRepository) Save(ctx context.Context, snapshot *domain.UserSnapshot) error {
	doc, err := json.Marshal(snapshot)
	if err != nil {
		return fmt.Errorf("failed to marshal snapshot: %w", err)
	}

	query := `INSERT INTO session_snapshots (user_id, document, updated_at)
	          VALUES ($1, $2, NOW())
	          ON CONFLICT (user_id) DO UPDATE SET document = EXCLUDED.document, updated_at = NOW()`

	if _, err := r.db.ExecContext(ctx, query, snapshot.ID, string(doc)); err != nil {
		return fmt.Errorf("failed to save snapshot: %w", err)
	}
	return nil
}

func (r *PostgresRepository) Delete(ctx context.Context, userID string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM session_snapshots WHERE user_id = $1`, userID)
	if err != nil {
		return fmt.Errorf("failed to delete snapshot: %w", err)
	}

	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}
	if n == 0 {
		return ErrSnapshotNotFound
	}
	return nil
}

func (r *PostgresRepository) Close() error {
	return r.db.Close()
}

package database

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"

	"github.com/noah-isme/lesson-engine/pkg/config"
)

// NewPostgres returns a configured PostgreSQL client.
func NewPostgres(cfg config.DatabaseConfig) (*sqlx.DB, error) {
	dsn := fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		cfg.Host,
		cfg.Port,
		cfg.User,
		cfg.Password,
		cfg.Name,
		cfg.SSLMode,
	)

	db, err := sqlx.Open("postgres", dsn)
	if err != nil {
		return nil, err
	}

	if cfg.MaxOpenConns > 0 {
		db.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	if cfg.MaxIdleConns > 0 {
		db.SetMaxIdleConns(cfg.MaxIdleConns)
	}

	db.SetConnMaxLifetime(1 * time.Hour)
	db.SetConnMaxIdleTime(30 * time.Minute)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}

	return db, nil
}

// schema holds the tables the engine host reads from and writes to. Sessions
// and teachers are owned by the surrounding scheduling store; the statements
// only create them for local development.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS teachers (
		id TEXT PRIMARY KEY,
		full_name TEXT NOT NULL,
		branch_id TEXT NOT NULL,
		subjects TEXT[] NOT NULL DEFAULT '{}',
		active BOOLEAN NOT NULL DEFAULT TRUE,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE TABLE IF NOT EXISTS lesson_sessions (
		id TEXT PRIMARY KEY,
		session_date DATE NOT NULL,
		start_time TIME NOT NULL,
		end_time TIME NOT NULL,
		teacher_id TEXT NULL,
		classroom_id TEXT NULL,
		branch_id TEXT NOT NULL,
		group_id TEXT NULL,
		subject TEXT NOT NULL DEFAULT '',
		student_ids TEXT[] NOT NULL DEFAULT '{}',
		kind TEXT NOT NULL,
		status TEXT NOT NULL DEFAULT 'scheduled'
	)`,
	`CREATE INDEX IF NOT EXISTS idx_lesson_sessions_branch_date ON lesson_sessions (branch_id, session_date)`,
	`CREATE INDEX IF NOT EXISTS idx_lesson_sessions_teacher_date ON lesson_sessions (teacher_id, session_date)`,
	`CREATE TABLE IF NOT EXISTS substitution_requests (
		id TEXT PRIMARY KEY,
		session_id TEXT NULL,
		branch_id TEXT NOT NULL,
		original_teacher_id TEXT NOT NULL,
		substitute_teacher_id TEXT NOT NULL,
		substitution_date DATE NOT NULL,
		start_time TIME NOT NULL,
		end_time TIME NOT NULL,
		reason TEXT NULL,
		status TEXT NOT NULL,
		requested_by TEXT NOT NULL,
		approved_by TEXT NULL,
		created_at TIMESTAMPTZ NOT NULL,
		updated_at TIMESTAMPTZ NOT NULL,
		approved_at TIMESTAMPTZ NULL,
		completed_at TIMESTAMPTZ NULL,
		cancelled_at TIMESTAMPTZ NULL,
		CHECK (original_teacher_id <> substitute_teacher_id)
	)`,
	`CREATE INDEX IF NOT EXISTS idx_substitutions_substitute_date ON substitution_requests (substitute_teacher_id, substitution_date)`,
}

// EnsureSchema creates missing tables and indexes.
func EnsureSchema(ctx context.Context, db *sqlx.DB) error {
	for _, stmt := range schema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("ensure schema: %w", err)
		}
	}
	return nil
}

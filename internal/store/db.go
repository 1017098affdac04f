// Package store provides SQLite-backed persistence for the town state:
// buildings, tasks, settlement history, player profiles, squads, market
// catalog, and sprint metadata. Settlement runs inside a single transaction
// so a grading either fully applies or fully fails.
package store

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"
)

// Querier is the subset of sqlx satisfied by both *sqlx.DB and *sqlx.Tx,
// so every query helper works inside and outside a transaction.
type Querier interface {
	sqlx.ExtContext
	GetContext(ctx context.Context, dest any, query string, args ...any) error
	SelectContext(ctx context.Context, dest any, query string, args ...any) error
}

// Store wraps a SQLite connection.
type Store struct {
	conn *sqlx.DB
}

// Open opens or creates a SQLite database at the given path.
func Open(path string) (*Store, error) {
	conn, err := sqlx.Open("sqlite", path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}

	s := &Store{conn: conn}
	if err := s.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.conn.Close()
}

// DB exposes the connection for read queries outside a transaction.
func (s *Store) DB() Querier {
	return s.conn
}

// WithTx runs fn inside a transaction, rolling back on error.
func (s *Store) WithTx(ctx context.Context, fn func(q Querier) error) error {
	tx, err := s.conn.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}

	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	if err := fn(tx); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	committed = true
	return nil
}

func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS buildings (
		id TEXT PRIMARY KEY,
		owner_id TEXT NOT NULL,
		squad_id TEXT NOT NULL,
		type TEXT NOT NULL,
		level INTEGER NOT NULL,
		pos_x INTEGER NOT NULL,
		pos_z INTEGER NOT NULL,
		placed INTEGER NOT NULL,
		concluded_points INTEGER NOT NULL DEFAULT 0
	);

	CREATE TABLE IF NOT EXISTS tasks (
		id TEXT PRIMARY KEY,
		building_id TEXT NOT NULL,
		squad_id TEXT NOT NULL,
		creator_id TEXT NOT NULL,
		assignee_id TEXT,
		content TEXT NOT NULL,
		created_at TIMESTAMP NOT NULL,
		status TEXT NOT NULL,
		size INTEGER NOT NULL,
		complexity INTEGER NOT NULL,
		rule TEXT NOT NULL,
		rule_multiplier REAL NOT NULL,
		participants_json TEXT NOT NULL,
		distribution_json TEXT,
		limiter_kind TEXT,
		quantity_limit INTEGER,
		quantity_count INTEGER,
		deadline TIMESTAMP,
		period TEXT,
		renewal_pending INTEGER NOT NULL DEFAULT 0,
		rating INTEGER,
		feedback TEXT,
		final_points INTEGER,
		final_xp INTEGER,
		final_coins INTEGER,
		evidence_link TEXT,
		delivery_notes TEXT,
		reflections TEXT,
		sprint_history_json TEXT NOT NULL DEFAULT '[]'
	);

	CREATE TABLE IF NOT EXISTS task_history (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		task_id TEXT NOT NULL,
		ts TIMESTAMP NOT NULL,
		rating INTEGER NOT NULL,
		points INTEGER NOT NULL,
		xp INTEGER NOT NULL,
		coins INTEGER NOT NULL,
		participants_json TEXT NOT NULL,
		feedback TEXT,
		sprint INTEGER NOT NULL
	);

	CREATE TABLE IF NOT EXISTS players (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		squad_id TEXT NOT NULL,
		role TEXT NOT NULL,
		document TEXT,
		level INTEGER NOT NULL,
		current_xp INTEGER NOT NULL,
		next_level_xp INTEGER NOT NULL,
		total_points INTEGER NOT NULL,
		coins INTEGER NOT NULL,
		reputation REAL NOT NULL,
		streak INTEGER NOT NULL DEFAULT 0
	);

	CREATE TABLE IF NOT EXISTS squads (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		color TEXT NOT NULL,
		description TEXT
	);

	CREATE TABLE IF NOT EXISTS market_items (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		description TEXT,
		cost INTEGER NOT NULL,
		stock INTEGER NOT NULL,
		category TEXT NOT NULL,
		active INTEGER NOT NULL DEFAULT 1
	);

	CREATE TABLE IF NOT EXISTS purchases (
		id TEXT PRIMARY KEY,
		item_id TEXT NOT NULL,
		user_id TEXT NOT NULL,
		user_name TEXT NOT NULL,
		item_name TEXT NOT NULL,
		item_cost INTEGER NOT NULL,
		ts TIMESTAMP NOT NULL,
		status TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS meta (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_tasks_building ON tasks(building_id);
	CREATE INDEX IF NOT EXISTS idx_tasks_squad ON tasks(squad_id);
	CREATE INDEX IF NOT EXISTS idx_history_task ON task_history(task_id);
	CREATE INDEX IF NOT EXISTS idx_purchases_user ON purchases(user_id);
	`
	_, err := s.conn.Exec(schema)
	return err
}

// SetMeta stores a key-value pair in town metadata.
func SetMeta(ctx context.Context, q Querier, key, value string) error {
	_, err := q.ExecContext(ctx,
		"INSERT OR REPLACE INTO meta (key, value) VALUES (?, ?)",
		key, value,
	)
	return err
}

// GetMeta retrieves a metadata value; ok is false when the key is absent.
func GetMeta(ctx context.Context, q Querier, key string) (string, bool, error) {
	var value string
	err := q.GetContext(ctx, &value, "SELECT value FROM meta WHERE key = ?", key)
	if err != nil {
		if isNoRows(err) {
			return "", false, nil
		}
		return "", false, err
	}
	return value, true, nil
}

// Package sqlite implements the repository interfaces using SQLite as the
// storage backend.
//
// WHY modernc.org/sqlite INSTEAD OF github.com/mattn/go-sqlite3?
// mattn/go-sqlite3 uses CGo, which means you need a C compiler installed and
// cross-compilation becomes painful. modernc.org/sqlite is a pure Go
// translation of the SQLite C code — works everywhere Go works.
//
// The store keeps four tables: users, questions, answers, and votes. The
// votes table replaces the per-document up/down voter arrays of the original
// data model with one row per (document, user) pair; the primary key makes
// "a user is in at most one vote set per document" a constraint the database
// enforces rather than an invariant the code has to preserve.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	// Side-effect import: registers the "sqlite" driver with database/sql.
	_ "modernc.org/sqlite"

	"github.com/rs/xid"
)

// DB wraps a sql.DB connection pool and provides the repository methods.
// One *DB implements all four repository interfaces — the interfaces exist
// so the service layer can be tested against fakes, not to force separate
// store objects.
type DB struct {
	conn *sql.DB
}

// New creates a new SQLite database connection and runs migrations.
//
// dbPath examples:
//   - "data/quest.db" → file-based database (persistent)
//   - ":memory:"      → in-memory database (great for tests, lost on close)
func New(dbPath string) (*DB, error) {
	conn, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("sqlite: opening database: %w", err)
	}

	// Force an immediate connection so a bad path or permissions issue
	// surfaces here instead of on the first query.
	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: pinging database: %w", err)
	}

	// WAL mode allows concurrent reads while a write is in progress —
	// important for a web server where multiple requests hit the DB.
	if _, err := conn.Exec("PRAGMA journal_mode=WAL"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: setting WAL mode: %w", err)
	}

	// Foreign keys are OFF by default in SQLite for backwards compatibility.
	if _, err := conn.Exec("PRAGMA foreign_keys=ON"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: enabling foreign keys: %w", err)
	}

	db := &DB{conn: conn}

	if err := db.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: running migrations: %w", err)
	}

	return db, nil
}

// Close closes the database connection pool.
func (db *DB) Close() error {
	return db.conn.Close()
}

// migrate creates the schema. CREATE TABLE IF NOT EXISTS keeps this safe to
// run on every start; a tracked migration tool is overkill at this scale.
func (db *DB) migrate() error {
	_, err := db.conn.Exec(`
		CREATE TABLE IF NOT EXISTS users (
			id            TEXT PRIMARY KEY,
			email         TEXT NOT NULL UNIQUE,
			username      TEXT NOT NULL,
			password_hash TEXT NOT NULL,
			avatar        TEXT NOT NULL DEFAULT 'default.png',
			bio           TEXT NOT NULL DEFAULT '',
			role          TEXT NOT NULL DEFAULT 'user',
			banned_until  DATETIME,
			created_at    DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		);
	`)
	if err != nil {
		return fmt.Errorf("creating users table: %w", err)
	}

	_, err = db.conn.Exec(`
		CREATE TABLE IF NOT EXISTS questions (
			id         TEXT PRIMARY KEY,
			title      TEXT NOT NULL,
			detail     TEXT NOT NULL DEFAULT '',
			author_id  TEXT NOT NULL REFERENCES users(id),
			pinned     INTEGER NOT NULL DEFAULT 0,
			created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		);
		CREATE INDEX IF NOT EXISTS idx_questions_author ON questions(author_id);
		CREATE INDEX IF NOT EXISTS idx_questions_created_at ON questions(created_at);
	`)
	if err != nil {
		return fmt.Errorf("creating questions table: %w", err)
	}

	_, err = db.conn.Exec(`
		CREATE TABLE IF NOT EXISTS answers (
			id          TEXT PRIMARY KEY,
			question_id TEXT NOT NULL REFERENCES questions(id),
			body        TEXT NOT NULL,
			author_id   TEXT NOT NULL REFERENCES users(id),
			pinned      INTEGER NOT NULL DEFAULT 0,
			created_at  DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		);
		CREATE INDEX IF NOT EXISTS idx_answers_question ON answers(question_id);
		CREATE INDEX IF NOT EXISTS idx_answers_author ON answers(author_id);
	`)
	if err != nil {
		return fmt.Errorf("creating answers table: %w", err)
	}

	// The composite primary key is the vote invariant: one row per
	// (document, user), so a user cannot sit in both direction sets.
	_, err = db.conn.Exec(`
		CREATE TABLE IF NOT EXISTS votes (
			doc_kind   TEXT NOT NULL CHECK (doc_kind IN ('question', 'answer')),
			doc_id     TEXT NOT NULL,
			user_id    TEXT NOT NULL REFERENCES users(id),
			direction  INTEGER NOT NULL CHECK (direction IN (1, -1)),
			created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			PRIMARY KEY (doc_kind, doc_id, user_id)
		);
		CREATE INDEX IF NOT EXISTS idx_votes_doc ON votes(doc_kind, doc_id);
	`)
	if err != nil {
		return fmt.Errorf("creating votes table: %w", err)
	}

	return nil
}

// EnsureAdmin guarantees the bootstrap admin account exists with the admin
// role. It runs on every start in lieu of a one-time migration: create the
// account if the email is unknown, fix the role if a previous version left
// it demoted. Both paths are idempotent.
func (db *DB) EnsureAdmin(ctx context.Context, email, username, passwordHash string) error {
	email = strings.ToLower(strings.TrimSpace(email))

	var id, role string
	err := db.conn.QueryRowContext(ctx,
		`SELECT id, role FROM users WHERE email = ?`, email,
	).Scan(&id, &role)

	switch {
	case err == sql.ErrNoRows:
		_, err = db.conn.ExecContext(ctx,
			`INSERT INTO users (id, email, username, password_hash, avatar, bio, role, created_at)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			xid.New().String(), email, username, passwordHash,
			"default.png", "Keeps the community in order", "admin", time.Now(),
		)
		if err != nil {
			return fmt.Errorf("sqlite: creating bootstrap admin: %w", err)
		}
	case err != nil:
		return fmt.Errorf("sqlite: looking up bootstrap admin: %w", err)
	case role != "admin":
		if _, err := db.conn.ExecContext(ctx,
			`UPDATE users SET role = 'admin' WHERE id = ?`, id,
		); err != nil {
			return fmt.Errorf("sqlite: restoring bootstrap admin role: %w", err)
		}
	}

	return nil
}

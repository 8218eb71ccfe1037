package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/rs/xid"

	"github.com/bupang/quest/internal/apperror"
	"github.com/bupang/quest/internal/model"
	"github.com/bupang/quest/internal/repository"
)

// compile-time check that *DB implements repository.UserRepository
var _ repository.UserRepository = (*DB)(nil)

// Create stores a new user record.
//
// Email uniqueness is enforced by the UNIQUE constraint — we don't pre-check
// with a SELECT, because that leaves a race window between check and insert.
// Instead we attempt the INSERT and translate the constraint violation into
// apperror.ErrConflict so the service layer can report "already registered".
func (db *DB) Create(ctx context.Context, user *model.User) error {
	user.ID = xid.New().String()
	user.Email = strings.ToLower(strings.TrimSpace(user.Email))
	user.CreatedAt = time.Now()

	_, err := db.conn.ExecContext(ctx,
		`INSERT INTO users (id, email, username, password_hash, avatar, bio, role, banned_until, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		user.ID,
		user.Email,
		user.Username,
		user.PasswordHash,
		user.Avatar,
		user.Bio,
		user.Role,
		user.BannedUntil,
		user.CreatedAt,
	)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed: users.email") {
			return apperror.Conflict("this email is already registered")
		}
		return fmt.Errorf("sqlite: creating user (email=%s): %w", user.Email, err)
	}

	return nil
}

const userColumns = `id, email, username, password_hash, avatar, bio, role, banned_until, created_at`

func scanUser(row *sql.Row) (*model.User, error) {
	var u model.User
	err := row.Scan(
		&u.ID,
		&u.Email,
		&u.Username,
		&u.PasswordHash,
		&u.Avatar,
		&u.Bio,
		&u.Role,
		&u.BannedUntil,
		&u.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// GetByEmail retrieves a user by email (case-insensitive).
// Returns apperror.ErrNotFound if no account uses that email.
func (db *DB) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))

	u, err := scanUser(db.conn.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE email = ?`, email,
	))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, apperror.NotFound("user", email)
		}
		return nil, fmt.Errorf("sqlite: getting user by email %s: %w", email, err)
	}
	return u, nil
}

// GetByID retrieves a user by their internal ID.
func (db *DB) GetByID(ctx context.Context, id string) (*model.User, error) {
	u, err := scanUser(db.conn.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE id = ?`, id,
	))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, apperror.NotFound("user", id)
		}
		return nil, fmt.Errorf("sqlite: getting user %s: %w", id, err)
	}
	return u, nil
}

// UpdateProfile writes username and bio, and the avatar reference only when
// the caller supplied a new one. The avatar file itself is handled upstream;
// this layer only ever sees the filename.
func (db *DB) UpdateProfile(ctx context.Context, id, username, bio, avatar string) error {
	var (
		result sql.Result
		err    error
	)
	if avatar != "" {
		result, err = db.conn.ExecContext(ctx,
			`UPDATE users SET username = ?, bio = ?, avatar = ? WHERE id = ?`,
			username, bio, avatar, id,
		)
	} else {
		result, err = db.conn.ExecContext(ctx,
			`UPDATE users SET username = ?, bio = ? WHERE id = ?`,
			username, bio, id,
		)
	}
	if err != nil {
		return fmt.Errorf("sqlite: updating profile for user %s: %w", id, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite: checking rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return apperror.NotFound("user", id)
	}
	return nil
}

// SetBannedUntil stamps the ban expiry on a user.
func (db *DB) SetBannedUntil(ctx context.Context, id string, until time.Time) error {
	result, err := db.conn.ExecContext(ctx,
		`UPDATE users SET banned_until = ? WHERE id = ?`, until, id,
	)
	if err != nil {
		return fmt.Errorf("sqlite: banning user %s: %w", id, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite: checking rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return apperror.NotFound("user", id)
	}
	return nil
}

// SetRole updates a user's role.
func (db *DB) SetRole(ctx context.Context, id, role string) error {
	result, err := db.conn.ExecContext(ctx,
		`UPDATE users SET role = ? WHERE id = ?`, role, id,
	)
	if err != nil {
		return fmt.Errorf("sqlite: setting role for user %s: %w", id, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite: checking rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return apperror.NotFound("user", id)
	}
	return nil
}

// Stats aggregates a user's contribution counters in one round trip per
// figure: owned question/answer counts, and the total up-votes received
// across both collections. Down-votes are not subtracted here.
func (db *DB) Stats(ctx context.Context, id string) (*model.UserStats, error) {
	stats := &model.UserStats{}

	err := db.conn.QueryRowContext(ctx,
		`SELECT bio FROM users WHERE id = ?`, id,
	).Scan(&stats.Bio)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, apperror.NotFound("user", id)
		}
		return nil, fmt.Errorf("sqlite: stats bio for user %s: %w", id, err)
	}

	err = db.conn.QueryRowContext(ctx,
		`SELECT
			(SELECT COUNT(*) FROM questions WHERE author_id = ?),
			(SELECT COUNT(*) FROM answers WHERE author_id = ?),
			(SELECT COUNT(*) FROM votes v JOIN questions q
				ON v.doc_kind = 'question' AND v.doc_id = q.id
				WHERE q.author_id = ? AND v.direction = 1)
			+
			(SELECT COUNT(*) FROM votes v JOIN answers a
				ON v.doc_kind = 'answer' AND v.doc_id = a.id
				WHERE a.author_id = ? AND v.direction = 1)`,
		id, id, id, id,
	).Scan(&stats.QuestionCount, &stats.AnswerCount, &stats.VotesReceived)
	if err != nil {
		return nil, fmt.Errorf("sqlite: stats counters for user %s: %w", id, err)
	}

	return stats, nil
}

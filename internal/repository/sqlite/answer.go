package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/rs/xid"

	"github.com/bupang/quest/internal/apperror"
	"github.com/bupang/quest/internal/model"
	"github.com/bupang/quest/internal/repository"
)

// compile-time check that *DB implements repository.AnswerRepository
var _ repository.AnswerRepository = (*DB)(nil)

// previewLength is how much of an answer body shows up on a public profile.
const previewLength = 50

// CreateAnswer inserts a new answer under an existing question. The foreign
// key on question_id turns a dangling question reference into an error here
// rather than an orphaned row.
func (db *DB) CreateAnswer(ctx context.Context, a *model.Answer) error {
	a.ID = xid.New().String()
	a.CreatedAt = time.Now()

	_, err := db.conn.ExecContext(ctx,
		`INSERT INTO answers (id, question_id, body, author_id, pinned, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		a.ID, a.QuestionID, a.Body, a.AuthorID, a.Pinned, a.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("sqlite: creating answer: %w", err)
	}
	return nil
}

// GetAnswerByID retrieves the bare answer row, used for ownership checks.
func (db *DB) GetAnswerByID(ctx context.Context, id string) (*model.Answer, error) {
	var a model.Answer
	err := db.conn.QueryRowContext(ctx,
		`SELECT id, question_id, body, author_id, pinned, created_at
		 FROM answers WHERE id = ?`, id,
	).Scan(&a.ID, &a.QuestionID, &a.Body, &a.AuthorID, &a.Pinned, &a.CreatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, apperror.NotFound("answer", id)
		}
		return nil, fmt.Errorf("sqlite: getting answer %s: %w", id, err)
	}
	return &a, nil
}

// DeleteAnswer removes one answer and its vote rows. The parent question is
// left alone — deleting an answer never cascades upward.
func (db *DB) DeleteAnswer(ctx context.Context, id string) error {
	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("sqlite: beginning delete transaction: %w", err)
	}

	if _, err := tx.ExecContext(ctx,
		`DELETE FROM votes WHERE doc_kind = 'answer' AND doc_id = ?`, id,
	); err != nil {
		tx.Rollback()
		return fmt.Errorf("sqlite: deleting votes for answer %s: %w", id, err)
	}

	result, err := tx.ExecContext(ctx, `DELETE FROM answers WHERE id = ?`, id)
	if err != nil {
		tx.Rollback()
		return fmt.Errorf("sqlite: deleting answer %s: %w", id, err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		tx.Rollback()
		return fmt.Errorf("sqlite: checking rows affected: %w", err)
	}
	if rowsAffected == 0 {
		tx.Rollback()
		return apperror.NotFound("answer", id)
	}

	return tx.Commit()
}

// TogglePinAnswer flips the pin flag and returns the new state.
func (db *DB) TogglePinAnswer(ctx context.Context, id string) (bool, error) {
	return db.togglePin(ctx, "answers", "answer", id)
}

// ListAnswersByAuthor returns a user's answers for their public profile,
// newest first. Each row carries the parent question's title so the profile
// can link back, and a short body preview instead of the full text.
func (db *DB) ListAnswersByAuthor(ctx context.Context, authorID string) ([]model.ProfileAnswer, error) {
	rows, err := db.conn.QueryContext(ctx,
		`SELECT a.id, a.question_id, q.title, a.body, a.created_at,
		        COALESCE((SELECT SUM(direction) FROM votes
		                  WHERE doc_kind = 'answer' AND doc_id = a.id), 0)
		 FROM answers a
		 JOIN questions q ON q.id = a.question_id
		 WHERE a.author_id = ?
		 ORDER BY a.created_at DESC`,
		authorID,
	)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing answers by author %s: %w", authorID, err)
	}
	defer rows.Close()

	list := []model.ProfileAnswer{}
	for rows.Next() {
		var (
			pa   model.ProfileAnswer
			body string
		)
		if err := rows.Scan(&pa.ID, &pa.QuestionID, &pa.QuestionTitle, &body, &pa.CreatedAt, &pa.Score); err != nil {
			return nil, fmt.Errorf("sqlite: scanning profile answer: %w", err)
		}
		pa.Preview = preview(body)
		list = append(list, pa)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating profile answers: %w", err)
	}
	return list, nil
}

// preview truncates a body to previewLength runes. Truncation happens on
// runes, not bytes, so a multibyte character is never split in half.
func preview(body string) string {
	runes := []rune(body)
	if len(runes) <= previewLength {
		return body
	}
	return string(runes[:previewLength]) + "..."
}

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

// compile-time check that *DB implements repository.QuestionRepository
var _ repository.QuestionRepository = (*DB)(nil)

// CreateQuestion inserts a new question. ID and CreatedAt are set here, on
// the caller's struct (pointer receiver), matching how every insert in this
// package behaves.
func (db *DB) CreateQuestion(ctx context.Context, q *model.Question) error {
	q.ID = xid.New().String()
	q.CreatedAt = time.Now()

	_, err := db.conn.ExecContext(ctx,
		`INSERT INTO questions (id, title, detail, author_id, pinned, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		q.ID, q.Title, q.Detail, q.AuthorID, q.Pinned, q.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("sqlite: creating question: %w", err)
	}
	return nil
}

// GetQuestionByID retrieves the bare question row (no joins). Used by the
// moderation path to resolve ownership before a policy check.
func (db *DB) GetQuestionByID(ctx context.Context, id string) (*model.Question, error) {
	var q model.Question
	err := db.conn.QueryRowContext(ctx,
		`SELECT id, title, detail, author_id, pinned, created_at
		 FROM questions WHERE id = ?`, id,
	).Scan(&q.ID, &q.Title, &q.Detail, &q.AuthorID, &q.Pinned, &q.CreatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, apperror.NotFound("question", id)
		}
		return nil, fmt.Errorf("sqlite: getting question %s: %w", id, err)
	}
	return &q, nil
}

// ListQuestions returns the board listing: every question joined with its
// author, ordered pinned-first then newest-first.
//
// SCORE AND VOTE STATE AS SUBQUERIES:
// Directions are stored as +1/-1, so SUM(direction) IS the net score — no
// separate up/down counting needed. The caller's own vote comes from a
// point lookup on the votes primary key; an empty callerID simply matches
// nothing and every row reports "none".
func (db *DB) ListQuestions(ctx context.Context, callerID string) ([]model.QuestionSummary, error) {
	rows, err := db.conn.QueryContext(ctx,
		`SELECT q.id, q.title, q.detail, q.author_id, q.pinned, q.created_at,
		        u.username, u.avatar, u.role,
		        COALESCE((SELECT SUM(direction) FROM votes
		                  WHERE doc_kind = 'question' AND doc_id = q.id), 0) AS score,
		        (SELECT COUNT(*) FROM answers a WHERE a.question_id = q.id) AS answer_count,
		        COALESCE((SELECT direction FROM votes
		                  WHERE doc_kind = 'question' AND doc_id = q.id AND user_id = ?), 0) AS my_vote
		 FROM questions q
		 JOIN users u ON u.id = q.author_id
		 ORDER BY q.pinned DESC, q.created_at DESC`,
		callerID,
	)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing questions: %w", err)
	}
	defer rows.Close()

	var list []model.QuestionSummary
	for rows.Next() {
		var (
			s      model.QuestionSummary
			myVote int
		)
		if err := rows.Scan(
			&s.ID, &s.Title, &s.Detail, &s.AuthorID, &s.Pinned, &s.CreatedAt,
			&s.Author.Username, &s.Author.Avatar, &s.Author.Role,
			&s.Score, &s.AnswerCount, &myVote,
		); err != nil {
			return nil, fmt.Errorf("sqlite: scanning question row: %w", err)
		}
		s.Author.ID = s.AuthorID
		s.MyVote = model.MyVote(myVote)
		list = append(list, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating questions: %w", err)
	}

	return list, nil
}

// GetQuestionDetail joins the question with its author and all its answers
// with theirs. Answers come back pinned-first, then by net score descending;
// creation time breaks ties so the order is stable.
func (db *DB) GetQuestionDetail(ctx context.Context, id, callerID string) (*model.QuestionDetail, error) {
	var (
		d      model.QuestionDetail
		myVote int
	)
	err := db.conn.QueryRowContext(ctx,
		`SELECT q.id, q.title, q.detail, q.author_id, q.pinned, q.created_at,
		        u.username, u.avatar, u.role,
		        COALESCE((SELECT SUM(direction) FROM votes
		                  WHERE doc_kind = 'question' AND doc_id = q.id), 0),
		        COALESCE((SELECT direction FROM votes
		                  WHERE doc_kind = 'question' AND doc_id = q.id AND user_id = ?), 0)
		 FROM questions q
		 JOIN users u ON u.id = q.author_id
		 WHERE q.id = ?`,
		callerID, id,
	).Scan(
		&d.ID, &d.Title, &d.Detail, &d.AuthorID, &d.Pinned, &d.CreatedAt,
		&d.Author.Username, &d.Author.Avatar, &d.Author.Role,
		&d.Score, &myVote,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, apperror.NotFound("question", id)
		}
		return nil, fmt.Errorf("sqlite: getting question detail %s: %w", id, err)
	}
	d.Author.ID = d.AuthorID
	d.MyVote = model.MyVote(myVote)

	rows, err := db.conn.QueryContext(ctx,
		`SELECT a.id, a.question_id, a.body, a.author_id, a.pinned, a.created_at,
		        u.username, u.avatar, u.role,
		        COALESCE((SELECT SUM(direction) FROM votes
		                  WHERE doc_kind = 'answer' AND doc_id = a.id), 0) AS score,
		        COALESCE((SELECT direction FROM votes
		                  WHERE doc_kind = 'answer' AND doc_id = a.id AND user_id = ?), 0)
		 FROM answers a
		 JOIN users u ON u.id = a.author_id
		 WHERE a.question_id = ?
		 ORDER BY a.pinned DESC, score DESC, a.created_at ASC`,
		callerID, id,
	)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing answers for question %s: %w", id, err)
	}
	defer rows.Close()

	d.Answers = []model.AnswerView{}
	for rows.Next() {
		var (
			av   model.AnswerView
			vote int
		)
		if err := rows.Scan(
			&av.ID, &av.QuestionID, &av.Body, &av.AuthorID, &av.Pinned, &av.CreatedAt,
			&av.Author.Username, &av.Author.Avatar, &av.Author.Role,
			&av.Score, &vote,
		); err != nil {
			return nil, fmt.Errorf("sqlite: scanning answer row: %w", err)
		}
		av.Author.ID = av.AuthorID
		av.MyVote = model.MyVote(vote)
		d.Answers = append(d.Answers, av)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating answers: %w", err)
	}
	d.AnswerCount = len(d.Answers)

	return &d, nil
}

// DeleteQuestion removes a question and everything hanging off it: the
// votes on its answers, the answers themselves, the votes on the question,
// and finally the question row — all in one transaction so a crash can't
// leave orphaned answers behind.
func (db *DB) DeleteQuestion(ctx context.Context, id string) error {
	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("sqlite: beginning delete transaction: %w", err)
	}

	// Order matters: child votes and answers go before the question row so
	// foreign keys stay satisfied throughout.
	if _, err := tx.ExecContext(ctx,
		`DELETE FROM votes WHERE doc_kind = 'answer'
		 AND doc_id IN (SELECT id FROM answers WHERE question_id = ?)`, id,
	); err != nil {
		tx.Rollback()
		return fmt.Errorf("sqlite: deleting answer votes for question %s: %w", id, err)
	}
	if _, err := tx.ExecContext(ctx,
		`DELETE FROM answers WHERE question_id = ?`, id,
	); err != nil {
		tx.Rollback()
		return fmt.Errorf("sqlite: deleting answers for question %s: %w", id, err)
	}
	if _, err := tx.ExecContext(ctx,
		`DELETE FROM votes WHERE doc_kind = 'question' AND doc_id = ?`, id,
	); err != nil {
		tx.Rollback()
		return fmt.Errorf("sqlite: deleting votes for question %s: %w", id, err)
	}

	result, err := tx.ExecContext(ctx, `DELETE FROM questions WHERE id = ?`, id)
	if err != nil {
		tx.Rollback()
		return fmt.Errorf("sqlite: deleting question %s: %w", id, err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		tx.Rollback()
		return fmt.Errorf("sqlite: checking rows affected: %w", err)
	}
	if rowsAffected == 0 {
		tx.Rollback()
		return apperror.NotFound("question", id)
	}

	return tx.Commit()
}

// TogglePinQuestion flips the pin flag and returns the new state.
func (db *DB) TogglePinQuestion(ctx context.Context, id string) (bool, error) {
	return db.togglePin(ctx, "questions", "question", id)
}

// togglePin flips the pinned flag on a row of the given table in a single
// UPDATE, then reads the new state back. Shared by questions and answers.
func (db *DB) togglePin(ctx context.Context, table, resource, id string) (bool, error) {
	result, err := db.conn.ExecContext(ctx,
		`UPDATE `+table+` SET pinned = NOT pinned WHERE id = ?`, id,
	)
	if err != nil {
		return false, fmt.Errorf("sqlite: toggling pin on %s %s: %w", resource, id, err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("sqlite: checking rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return false, apperror.NotFound(resource, id)
	}

	var pinned bool
	if err := db.conn.QueryRowContext(ctx,
		`SELECT pinned FROM `+table+` WHERE id = ?`, id,
	).Scan(&pinned); err != nil {
		return false, fmt.Errorf("sqlite: reading pin state of %s %s: %w", resource, id, err)
	}
	return pinned, nil
}

// ListQuestionsByAuthor returns a user's questions for their public
// profile, newest first, each with its net score.
func (db *DB) ListQuestionsByAuthor(ctx context.Context, authorID string) ([]model.ProfileQuestion, error) {
	rows, err := db.conn.QueryContext(ctx,
		`SELECT q.id, q.title, q.created_at,
		        COALESCE((SELECT SUM(direction) FROM votes
		                  WHERE doc_kind = 'question' AND doc_id = q.id), 0)
		 FROM questions q
		 WHERE q.author_id = ?
		 ORDER BY q.created_at DESC`,
		authorID,
	)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing questions by author %s: %w", authorID, err)
	}
	defer rows.Close()

	list := []model.ProfileQuestion{}
	for rows.Next() {
		var pq model.ProfileQuestion
		if err := rows.Scan(&pq.ID, &pq.Title, &pq.CreatedAt, &pq.Score); err != nil {
			return nil, fmt.Errorf("sqlite: scanning profile question: %w", err)
		}
		list = append(list, pq)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating profile questions: %w", err)
	}
	return list, nil
}

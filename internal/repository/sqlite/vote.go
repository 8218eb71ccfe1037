package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/bupang/quest/internal/apperror"
	"github.com/bupang/quest/internal/model"
	"github.com/bupang/quest/internal/repository"
)

// compile-time check that *DB implements repository.VoteRepository
var _ repository.VoteRepository = (*DB)(nil)

// UpdateVote applies the vote toggle for one (document, user) pair inside a
// transaction:
//
//	same direction already on file → delete the row (un-vote)
//	opposite direction on file     → flip it
//	nothing on file                → insert
//
// Reading the current vote and writing the new state in the same transaction
// means two racing requests serialize at the database; the score is always
// recomputed from the rows, never adjusted by a delta, so it cannot drift.
func (db *DB) UpdateVote(ctx context.Context, kind model.DocKind, docID, userID string, direction model.VoteDirection) (int, error) {
	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("sqlite: beginning vote transaction: %w", err)
	}

	exists, err := db.docExists(ctx, tx, kind, docID)
	if err != nil {
		tx.Rollback()
		return 0, err
	}
	if !exists {
		tx.Rollback()
		return 0, apperror.NotFound(string(kind), docID)
	}

	var current int
	err = tx.QueryRowContext(ctx,
		`SELECT direction FROM votes WHERE doc_kind = ? AND doc_id = ? AND user_id = ?`,
		kind, docID, userID,
	).Scan(&current)

	switch {
	case err == sql.ErrNoRows:
		_, err = tx.ExecContext(ctx,
			`INSERT INTO votes (doc_kind, doc_id, user_id, direction)
			 VALUES (?, ?, ?, ?)`,
			kind, docID, userID, int(direction),
		)
		if err != nil {
			tx.Rollback()
			return 0, fmt.Errorf("sqlite: inserting vote: %w", err)
		}
	case err != nil:
		tx.Rollback()
		return 0, fmt.Errorf("sqlite: reading current vote: %w", err)
	case current == int(direction):
		_, err = tx.ExecContext(ctx,
			`DELETE FROM votes WHERE doc_kind = ? AND doc_id = ? AND user_id = ?`,
			kind, docID, userID,
		)
		if err != nil {
			tx.Rollback()
			return 0, fmt.Errorf("sqlite: removing vote: %w", err)
		}
	default:
		_, err = tx.ExecContext(ctx,
			`UPDATE votes SET direction = ? WHERE doc_kind = ? AND doc_id = ? AND user_id = ?`,
			int(direction), kind, docID, userID,
		)
		if err != nil {
			tx.Rollback()
			return 0, fmt.Errorf("sqlite: switching vote: %w", err)
		}
	}

	var score int
	if err := tx.QueryRowContext(ctx,
		`SELECT COALESCE(SUM(direction), 0) FROM votes WHERE doc_kind = ? AND doc_id = ?`,
		kind, docID,
	).Scan(&score); err != nil {
		tx.Rollback()
		return 0, fmt.Errorf("sqlite: computing net score: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("sqlite: committing vote: %w", err)
	}
	return score, nil
}

// NetScore recomputes up-votes minus down-votes for a document. Directions
// are stored as +1/-1 so this is a plain SUM.
func (db *DB) NetScore(ctx context.Context, kind model.DocKind, docID string) (int, error) {
	var score int
	err := db.conn.QueryRowContext(ctx,
		`SELECT COALESCE(SUM(direction), 0) FROM votes WHERE doc_kind = ? AND doc_id = ?`,
		kind, docID,
	).Scan(&score)
	if err != nil {
		return 0, fmt.Errorf("sqlite: computing net score: %w", err)
	}
	return score, nil
}

// docExists checks the target document inside the voting transaction so a
// vote can never be recorded against a row deleted moments earlier.
func (db *DB) docExists(ctx context.Context, tx *sql.Tx, kind model.DocKind, docID string) (bool, error) {
	table := "questions"
	if kind == model.KindAnswer {
		table = "answers"
	}

	var one int
	err := tx.QueryRowContext(ctx,
		`SELECT 1 FROM `+table+` WHERE id = ?`, docID,
	).Scan(&one)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("sqlite: checking %s %s: %w", kind, docID, err)
	}
	return true, nil
}

// Package repository declares the storage interfaces the service layer
// programs against. The sqlite subpackage provides the implementation; tests
// substitute in-memory fakes.
//
// Caller identity is always an explicit parameter — there is no ambient
// "current user" anywhere in the data layer, so every method is reentrant.
package repository

import (
	"context"
	"time"

	"github.com/bupang/quest/internal/model"
)

// UserRepository owns the users collection.
type UserRepository interface {
	// Create stores a new user. Returns apperror.ErrConflict if the email
	// is already registered (uniqueness is enforced by the store).
	Create(ctx context.Context, user *model.User) error
	GetByEmail(ctx context.Context, email string) (*model.User, error)
	GetByID(ctx context.Context, id string) (*model.User, error)

	// UpdateProfile applies a partial update: username and bio are always
	// written, the avatar reference only when non-empty.
	UpdateProfile(ctx context.Context, id, username, bio, avatar string) error

	// SetBannedUntil stamps the ban expiry. A past timestamp is a valid,
	// already-expired ban.
	SetBannedUntil(ctx context.Context, id string, until time.Time) error
	SetRole(ctx context.Context, id, role string) error

	// Stats aggregates question/answer counts and up-votes received.
	Stats(ctx context.Context, id string) (*model.UserStats, error)

	// EnsureAdmin creates the bootstrap admin account if absent, or corrects
	// its role if present without admin rights. Idempotent.
	EnsureAdmin(ctx context.Context, email, username, passwordHash string) error
}

// QuestionRepository owns the questions collection and its joined reads.
type QuestionRepository interface {
	CreateQuestion(ctx context.Context, q *model.Question) error
	GetQuestionByID(ctx context.Context, id string) (*model.Question, error)

	// ListQuestions returns the board: pinned first, then newest first, each
	// row joined with its author and carrying score, answer count, and the
	// caller's vote state (callerID may be empty for anonymous reads).
	ListQuestions(ctx context.Context, callerID string) ([]model.QuestionSummary, error)

	// GetQuestionDetail joins the question with its author and all answers
	// with theirs; answers come back pinned-first then score-descending.
	GetQuestionDetail(ctx context.Context, id, callerID string) (*model.QuestionDetail, error)

	// DeleteQuestion removes the question, all its answers, and every vote
	// row referencing any of them, in one transaction.
	DeleteQuestion(ctx context.Context, id string) error

	TogglePinQuestion(ctx context.Context, id string) (bool, error)
	ListQuestionsByAuthor(ctx context.Context, authorID string) ([]model.ProfileQuestion, error)
}

// AnswerRepository owns the answers collection.
type AnswerRepository interface {
	CreateAnswer(ctx context.Context, a *model.Answer) error
	GetAnswerByID(ctx context.Context, id string) (*model.Answer, error)

	// DeleteAnswer removes one answer and its votes; the parent question is
	// never touched.
	DeleteAnswer(ctx context.Context, id string) error

	TogglePinAnswer(ctx context.Context, id string) (bool, error)
	ListAnswersByAuthor(ctx context.Context, authorID string) ([]model.ProfileAnswer, error)
}

// VoteRepository maintains the per-document voter sets.
type VoteRepository interface {
	// UpdateVote applies the toggle semantics for one (document, user) pair
	// atomically and returns the fresh net score:
	//   - same direction already recorded → remove the vote (un-vote)
	//   - opposite direction recorded     → switch it
	//   - no vote recorded                → add it
	// Returns apperror.ErrNotFound if the document does not exist.
	UpdateVote(ctx context.Context, kind model.DocKind, docID, userID string, direction model.VoteDirection) (int, error)

	// NetScore recomputes up-votes minus down-votes for a document.
	NetScore(ctx context.Context, kind model.DocKind, docID string) (int, error)
}

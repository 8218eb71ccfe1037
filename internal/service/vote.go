// Package service — voting.
package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/bupang/quest/internal/apperror"
	"github.com/bupang/quest/internal/model"
	"github.com/bupang/quest/internal/repository"
)

// VoteService applies vote toggles to questions and answers.
type VoteService struct {
	votes  repository.VoteRepository
	logger *slog.Logger
}

// NewVoteService creates a VoteService.
func NewVoteService(votes repository.VoteRepository, logger *slog.Logger) *VoteService {
	return &VoteService{votes: votes, logger: logger}
}

// Vote applies one press of a vote button and returns the document's fresh
// net score. The semantics live in the repository transaction:
//
//	pressing the direction already held  → removes the vote
//	pressing the opposite direction      → switches it
//	pressing with no vote on file        → adds it
//
// Voting stays open for banned users — the ban gates posting content, not
// reacting to it.
func (s *VoteService) Vote(ctx context.Context, userID string, kind model.DocKind, docID string, direction model.VoteDirection) (int, error) {
	if !kind.Valid() {
		return 0, apperror.ValidationFailed("kind", fmt.Sprintf("unknown content kind %q", kind))
	}
	if !direction.Valid() {
		return 0, apperror.ValidationFailed("direction", "direction must be \"up\" or \"down\"")
	}
	if docID == "" {
		return 0, apperror.ValidationFailed("id", "document ID is required")
	}

	score, err := s.votes.UpdateVote(ctx, kind, docID, userID, direction)
	if err != nil {
		return 0, err
	}

	s.logger.Info("vote updated",
		slog.String("kind", string(kind)),
		slog.String("docID", docID),
		slog.String("userID", userID),
		slog.Int("score", score),
	)

	return score, nil
}

// Score returns the current net score of a document.
func (s *VoteService) Score(ctx context.Context, kind model.DocKind, docID string) (int, error) {
	if !kind.Valid() {
		return 0, apperror.ValidationFailed("kind", fmt.Sprintf("unknown content kind %q", kind))
	}
	return s.votes.NetScore(ctx, kind, docID)
}

// Package service — moderation: bans, content removal, and pinning.
package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/bupang/quest/internal/apperror"
	"github.com/bupang/quest/internal/model"
	"github.com/bupang/quest/internal/repository"
)

// CanModify is the single ownership rule for destructive actions: admins can
// touch anything, everyone else only their own content. Every delete path
// goes through this one function so the rule cannot drift between question
// and answer handling.
func CanModify(caller *model.User, ownerID string) bool {
	return caller.IsAdmin() || caller.ID == ownerID
}

// ModerationService handles admin and owner actions on users and content.
//
// The caller's identity arrives as an explicit ID on every method and the
// caller record is re-read from the database each time — a demoted admin
// loses their powers on their next request, token or not.
type ModerationService struct {
	users     repository.UserRepository
	questions repository.QuestionRepository
	answers   repository.AnswerRepository
	logger    *slog.Logger
}

// NewModerationService creates a ModerationService.
func NewModerationService(
	users repository.UserRepository,
	questions repository.QuestionRepository,
	answers repository.AnswerRepository,
	logger *slog.Logger,
) *ModerationService {
	return &ModerationService{
		users:     users,
		questions: questions,
		answers:   answers,
		logger:    logger,
	}
}

// CheckBanned reports whether a user is banned right now, and until when.
func (s *ModerationService) CheckBanned(ctx context.Context, userID string) (bool, *time.Time, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return false, nil, err
	}
	banned, until := user.IsBanned(time.Now())
	return banned, until, nil
}

// BanUser bans target for the given number of days, counted from now.
// Admin only. Admin accounts cannot be banned, not even by other admins.
//
// days may be zero or negative: the resulting expiry is already in the past,
// which effectively lifts any current ban. That is the unban mechanism —
// there is no separate unban call.
func (s *ModerationService) BanUser(ctx context.Context, callerID, targetID string, days int) (time.Time, error) {
	caller, err := s.users.GetByID(ctx, callerID)
	if err != nil {
		return time.Time{}, err
	}
	if !caller.IsAdmin() {
		return time.Time{}, apperror.Forbidden("only admins can ban users")
	}

	target, err := s.users.GetByID(ctx, targetID)
	if err != nil {
		return time.Time{}, err
	}
	if target.IsAdmin() {
		return time.Time{}, apperror.Forbidden("admin accounts cannot be banned")
	}

	until := time.Now().Add(time.Duration(days) * 24 * time.Hour)
	if err := s.users.SetBannedUntil(ctx, targetID, until); err != nil {
		return time.Time{}, err
	}

	s.logger.Info("user banned",
		slog.String("targetID", targetID),
		slog.String("by", callerID),
		slog.Int("days", days),
		slog.Time("until", until),
	)

	return until, nil
}

// DeleteContent removes a question (with all its answers and votes) or a
// single answer. Permitted for the content's owner and for admins.
func (s *ModerationService) DeleteContent(ctx context.Context, callerID string, kind model.DocKind, id string) error {
	if !kind.Valid() {
		return apperror.ValidationFailed("kind", fmt.Sprintf("unknown content kind %q", kind))
	}

	caller, err := s.users.GetByID(ctx, callerID)
	if err != nil {
		return err
	}

	var ownerID string
	switch kind {
	case model.KindQuestion:
		q, err := s.questions.GetQuestionByID(ctx, id)
		if err != nil {
			return err
		}
		ownerID = q.AuthorID
	case model.KindAnswer:
		a, err := s.answers.GetAnswerByID(ctx, id)
		if err != nil {
			return err
		}
		ownerID = a.AuthorID
	}

	if !CanModify(caller, ownerID) {
		return apperror.Forbidden("you can only delete your own content")
	}

	if kind == model.KindQuestion {
		err = s.questions.DeleteQuestion(ctx, id)
	} else {
		err = s.answers.DeleteAnswer(ctx, id)
	}
	if err != nil {
		return err
	}

	s.logger.Info("content deleted",
		slog.String("kind", string(kind)),
		slog.String("id", id),
		slog.String("by", callerID),
	)

	return nil
}

// TogglePin flips the pinned flag on a question or answer and returns the
// new state. Admin only — pinning is a curation tool, not an owner action.
func (s *ModerationService) TogglePin(ctx context.Context, callerID string, kind model.DocKind, id string) (bool, error) {
	if !kind.Valid() {
		return false, apperror.ValidationFailed("kind", fmt.Sprintf("unknown content kind %q", kind))
	}

	caller, err := s.users.GetByID(ctx, callerID)
	if err != nil {
		return false, err
	}
	if !caller.IsAdmin() {
		return false, apperror.Forbidden("only admins can pin content")
	}

	var pinned bool
	if kind == model.KindQuestion {
		pinned, err = s.questions.TogglePinQuestion(ctx, id)
	} else {
		pinned, err = s.answers.TogglePinAnswer(ctx, id)
	}
	if err != nil {
		return false, err
	}

	s.logger.Info("pin toggled",
		slog.String("kind", string(kind)),
		slog.String("id", id),
		slog.Bool("pinned", pinned),
		slog.String("by", callerID),
	)

	return pinned, nil
}

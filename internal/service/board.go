// Package service — the question board: asking, answering, and the public
// read paths.
package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/bupang/quest/internal/apperror"
	"github.com/bupang/quest/internal/model"
	"github.com/bupang/quest/internal/repository"
)

// Validation constants for board content.
const (
	MaxTitleLength  = 150
	MaxDetailLength = 10000
	MaxAnswerLength = 10000
)

// BoardService handles questions, answers, profiles, and stats.
type BoardService struct {
	users     repository.UserRepository
	questions repository.QuestionRepository
	answers   repository.AnswerRepository
	logger    *slog.Logger
}

// NewBoardService creates a BoardService.
func NewBoardService(
	users repository.UserRepository,
	questions repository.QuestionRepository,
	answers repository.AnswerRepository,
	logger *slog.Logger,
) *BoardService {
	return &BoardService{
		users:     users,
		questions: questions,
		answers:   answers,
		logger:    logger,
	}
}

// ensureNotBanned is the write gate: every content-posting operation calls
// it first. A ban only bites while its expiry is strictly in the future —
// at the exact boundary instant the user may post again.
func (s *BoardService) ensureNotBanned(ctx context.Context, userID string) (*model.User, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if banned, until := user.IsBanned(time.Now()); banned {
		return nil, apperror.Banned(*until)
	}
	return user, nil
}

// AskQuestion validates and posts a new question for authorID.
// Returns apperror.ErrBanned if the author is under an active ban.
func (s *BoardService) AskQuestion(ctx context.Context, authorID, title, detail string) (*model.Question, error) {
	title = strings.TrimSpace(title)
	detail = strings.TrimSpace(detail)

	if title == "" {
		return nil, apperror.ValidationFailed("title", "question title is required")
	}
	if len(title) > MaxTitleLength {
		return nil, apperror.ValidationFailed("title",
			fmt.Sprintf("title must be %d characters or less", MaxTitleLength))
	}
	if len(detail) > MaxDetailLength {
		return nil, apperror.ValidationFailed("detail",
			fmt.Sprintf("detail must be %d characters or less", MaxDetailLength))
	}

	if _, err := s.ensureNotBanned(ctx, authorID); err != nil {
		return nil, err
	}

	question := &model.Question{
		Title:    title,
		Detail:   detail,
		AuthorID: authorID,
	}
	if err := s.questions.CreateQuestion(ctx, question); err != nil {
		s.logger.Error("failed to create question",
			slog.String("authorID", authorID),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("creating question: %w", err)
	}

	s.logger.Info("question posted",
		slog.String("id", question.ID),
		slog.String("authorID", authorID),
	)

	return question, nil
}

// PostAnswer validates and posts a new answer under an existing question.
// Returns apperror.ErrNotFound if the question is gone and
// apperror.ErrBanned if the author is under an active ban.
func (s *BoardService) PostAnswer(ctx context.Context, authorID, questionID, body string) (*model.Answer, error) {
	body = strings.TrimSpace(body)

	if body == "" {
		return nil, apperror.ValidationFailed("body", "answer body is required")
	}
	if len(body) > MaxAnswerLength {
		return nil, apperror.ValidationFailed("body",
			fmt.Sprintf("answer must be %d characters or less", MaxAnswerLength))
	}

	// The question must still exist — answering a deleted question is a 404,
	// not a silent orphan.
	if _, err := s.questions.GetQuestionByID(ctx, questionID); err != nil {
		return nil, err
	}

	if _, err := s.ensureNotBanned(ctx, authorID); err != nil {
		return nil, err
	}

	answer := &model.Answer{
		QuestionID: questionID,
		Body:       body,
		AuthorID:   authorID,
	}
	if err := s.answers.CreateAnswer(ctx, answer); err != nil {
		s.logger.Error("failed to create answer",
			slog.String("questionID", questionID),
			slog.String("authorID", authorID),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("creating answer: %w", err)
	}

	s.logger.Info("answer posted",
		slog.String("id", answer.ID),
		slog.String("questionID", questionID),
		slog.String("authorID", authorID),
	)

	return answer, nil
}

// ListQuestions returns the board for the given caller. callerID may be
// empty — anonymous readers see every row with myVote "none".
func (s *BoardService) ListQuestions(ctx context.Context, callerID string) ([]model.QuestionSummary, error) {
	list, err := s.questions.ListQuestions(ctx, callerID)
	if err != nil {
		s.logger.Error("failed to list questions", slog.String("error", err.Error()))
		return nil, fmt.Errorf("listing questions: %w", err)
	}
	if list == nil {
		list = []model.QuestionSummary{}
	}
	return list, nil
}

// GetQuestion returns one question with all its answers.
func (s *BoardService) GetQuestion(ctx context.Context, id, callerID string) (*model.QuestionDetail, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, apperror.ValidationFailed("id", "question ID is required")
	}
	return s.questions.GetQuestionDetail(ctx, id, callerID)
}

// PublicProfile assembles a user's public page: identity fields plus
// everything they have posted, with per-item scores.
func (s *BoardService) PublicProfile(ctx context.Context, userID string) (*model.PublicProfile, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	questions, err := s.questions.ListQuestionsByAuthor(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("listing profile questions: %w", err)
	}
	answers, err := s.answers.ListAnswersByAuthor(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("listing profile answers: %w", err)
	}

	return &model.PublicProfile{
		UserID:    user.ID,
		Username:  user.Username,
		Avatar:    user.Avatar,
		Bio:       user.Bio,
		Role:      user.Role,
		JoinedAt:  user.CreatedAt,
		Questions: questions,
		Answers:   answers,
	}, nil
}

// UserStats returns the caller's dashboard counters.
//
// This read is deliberately fail-soft: the dashboard is decoration, and a
// broken counter should never make the page error out. Any failure is
// logged and zeroed stats come back instead.
func (s *BoardService) UserStats(ctx context.Context, userID string) *model.UserStats {
	stats, err := s.users.Stats(ctx, userID)
	if err != nil {
		s.logger.Warn("failed to load user stats, serving zeroes",
			slog.String("userID", userID),
			slog.String("error", err.Error()),
		)
		return &model.UserStats{}
	}
	return stats
}

// Package service — account and authentication business logic.
//
// AuthService sits between the HTTP handlers and the repository/auth
// utilities:
//
//	AuthHandler (HTTP) → AuthService (business rules) → UserRepository (DB)
//	                   ↘ TokenService (JWT) / PasswordService (bcrypt)
//
// Two login paths end in the same place: email+password and GitHub OAuth
// both resolve to a user row and an issued JWT. Accounts are keyed by email,
// so a GitHub login with an email that already has a password account simply
// signs into that account.
package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/rs/xid"

	"github.com/bupang/quest/internal/apperror"
	"github.com/bupang/quest/internal/auth"
	"github.com/bupang/quest/internal/model"
	"github.com/bupang/quest/internal/repository"
)

// Validation constants for account fields.
const (
	MaxUsernameLength = 30
	MinPasswordLength = 8
	MaxBioLength      = 500
)

// AuthService handles registration, login, and profile updates.
type AuthService struct {
	users     repository.UserRepository
	tokens    *auth.TokenService
	passwords *auth.PasswordService
	logger    *slog.Logger
}

// NewAuthService creates an AuthService with all required dependencies.
func NewAuthService(
	users repository.UserRepository,
	tokens *auth.TokenService,
	passwords *auth.PasswordService,
	logger *slog.Logger,
) *AuthService {
	return &AuthService{
		users:     users,
		tokens:    tokens,
		passwords: passwords,
		logger:    logger,
	}
}

// AuthResult bundles the user record with the issued JWT so the handler can
// set the cookie and write the response in one step.
type AuthResult struct {
	User  *model.User
	Token string
}

// Register creates a new account with the default avatar and bio and logs
// the user straight in.
//
// Email uniqueness is left to the repository: it attempts the insert and
// reports apperror.ErrConflict on a duplicate, which closes the check-then-
// insert race a pre-flight SELECT would leave open.
func (s *AuthService) Register(ctx context.Context, email, username, password string) (*AuthResult, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	username = strings.TrimSpace(username)

	if email == "" || !strings.Contains(email, "@") {
		return nil, apperror.ValidationFailed("email", "a valid email address is required")
	}
	if username == "" {
		return nil, apperror.ValidationFailed("username", "username is required")
	}
	if len(username) > MaxUsernameLength {
		return nil, apperror.ValidationFailed("username",
			fmt.Sprintf("username must be %d characters or less", MaxUsernameLength))
	}
	if len(password) < MinPasswordLength {
		return nil, apperror.ValidationFailed("password",
			fmt.Sprintf("password must be at least %d characters", MinPasswordLength))
	}

	hash, err := s.passwords.Hash(password)
	if err != nil {
		return nil, apperror.ValidationFailed("password", err.Error())
	}

	user := &model.User{
		Email:        email,
		Username:     username,
		PasswordHash: hash,
		Avatar:       model.DefaultAvatar,
		Bio:          model.DefaultBio,
		Role:         model.RoleUser,
	}

	if err := s.users.Create(ctx, user); err != nil {
		return nil, err
	}

	s.logger.Info("user registered",
		slog.String("userID", user.ID),
		slog.String("username", user.Username),
	)

	token, err := s.tokens.Generate(user.ID)
	if err != nil {
		return nil, fmt.Errorf("service/auth: generating token for user %s: %w", user.ID, err)
	}

	return &AuthResult{User: user, Token: token}, nil
}

// Login verifies email+password credentials and issues a session token.
//
// Wrong email and wrong password produce the SAME error message, so a caller
// probing the login endpoint cannot tell which half was wrong and harvest
// registered emails.
func (s *AuthService) Login(ctx context.Context, email, password string) (*AuthResult, error) {
	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		return nil, apperror.Unauthorized("invalid email or password")
	}

	if err := s.passwords.Verify(user.PasswordHash, password); err != nil {
		return nil, apperror.Unauthorized("invalid email or password")
	}

	s.logger.Info("user logged in", slog.String("userID", user.ID))

	token, err := s.tokens.Generate(user.ID)
	if err != nil {
		return nil, fmt.Errorf("service/auth: generating token for user %s: %w", user.ID, err)
	}

	return &AuthResult{User: user, Token: token}, nil
}

// LoginOrRegisterGitHub completes the GitHub OAuth callback: find the
// account by the GitHub email, creating it on first login, then issue a
// token. The account gets a random throwaway password hash, so it can only
// ever be entered through OAuth.
func (s *AuthService) LoginOrRegisterGitHub(ctx context.Context, ghUser *auth.GitHubUser) (*AuthResult, error) {
	if ghUser == nil {
		return nil, fmt.Errorf("service/auth: GitHub user must not be nil")
	}
	if ghUser.Email == "" {
		return nil, apperror.Unauthorized("your GitHub account has no accessible email address")
	}

	user, err := s.users.GetByEmail(ctx, ghUser.Email)
	if err != nil {
		// First login with this email — provision an account.
		hash, hashErr := s.passwords.Hash(xid.New().String() + xid.New().String())
		if hashErr != nil {
			return nil, fmt.Errorf("service/auth: hashing placeholder password: %w", hashErr)
		}

		user = &model.User{
			Email:        ghUser.Email,
			Username:     ghUser.Login,
			PasswordHash: hash,
			Avatar:       model.DefaultAvatar,
			Bio:          model.DefaultBio,
			Role:         model.RoleUser,
		}
		if err := s.users.Create(ctx, user); err != nil {
			return nil, err
		}

		s.logger.Info("user registered via GitHub",
			slog.String("userID", user.ID),
			slog.String("login", ghUser.Login),
		)
	} else {
		s.logger.Info("user logged in via GitHub", slog.String("userID", user.ID))
	}

	token, err := s.tokens.Generate(user.ID)
	if err != nil {
		return nil, fmt.Errorf("service/auth: generating token for user %s: %w", user.ID, err)
	}

	return &AuthResult{User: user, Token: token}, nil
}

// GetUserByID returns the full user record for an internal ID. Used by the
// /api/me handler after the middleware extracts the ID from the JWT.
func (s *AuthService) GetUserByID(ctx context.Context, id string) (*model.User, error) {
	if id == "" {
		return nil, fmt.Errorf("service/auth: user ID must not be empty")
	}
	return s.users.GetByID(ctx, id)
}

// ValidateToken validates a JWT string and returns the userID it encodes.
// Thin delegation so callers only need the service package.
func (s *AuthService) ValidateToken(tokenStr string) (string, error) {
	userID, err := s.tokens.Validate(tokenStr)
	if err != nil {
		return "", fmt.Errorf("service/auth: %w", err)
	}
	return userID, nil
}

// UpdateProfile applies a profile edit for the calling user and returns the
// fresh record. An empty avatar means "keep the current one" — the handler
// only passes a filename when a new image was actually uploaded.
func (s *AuthService) UpdateProfile(ctx context.Context, userID, username, bio, avatar string) (*model.User, error) {
	username = strings.TrimSpace(username)
	bio = strings.TrimSpace(bio)

	if username == "" {
		return nil, apperror.ValidationFailed("username", "username is required")
	}
	if len(username) > MaxUsernameLength {
		return nil, apperror.ValidationFailed("username",
			fmt.Sprintf("username must be %d characters or less", MaxUsernameLength))
	}
	if len(bio) > MaxBioLength {
		return nil, apperror.ValidationFailed("bio",
			fmt.Sprintf("bio must be %d characters or less", MaxBioLength))
	}

	if err := s.users.UpdateProfile(ctx, userID, username, bio, avatar); err != nil {
		return nil, err
	}

	s.logger.Info("profile updated", slog.String("userID", userID))

	return s.users.GetByID(ctx, userID)
}

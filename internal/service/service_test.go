package service

import (
	"context"
	"log/slog"
	"os"
	"testing"

	"golang.org/x/crypto/bcrypt"

	"github.com/bupang/quest/internal/auth"
	"github.com/bupang/quest/internal/model"
	"github.com/bupang/quest/internal/repository/sqlite"
)

// testEnv wires every service against one in-memory SQLite database. The
// same *DB satisfies all repository interfaces, so these tests exercise the
// real queries, not fakes — ":memory:" keeps them fast.
type testEnv struct {
	db         *sqlite.DB
	auth       *AuthService
	board      *BoardService
	moderation *ModerationService
	votes      *VoteService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	db, err := sqlite.New(":memory:")
	if err != nil {
		t.Fatalf("opening in-memory database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	tokens, err := auth.NewTokenService("test-secret-at-least-16-chars!!")
	if err != nil {
		t.Fatalf("NewTokenService: %v", err)
	}
	passwords := auth.NewPasswordServiceForTest(bcrypt.MinCost)
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))

	return &testEnv{
		db:         db,
		auth:       NewAuthService(db, tokens, passwords, logger),
		board:      NewBoardService(db, db, db, logger),
		moderation: NewModerationService(db, db, db, logger),
		votes:      NewVoteService(db, logger),
	}
}

// registerUser registers a regular account and returns it.
func (e *testEnv) registerUser(t *testing.T, email, username string) *model.User {
	t.Helper()
	result, err := e.auth.Register(context.Background(), email, username, "password123")
	if err != nil {
		t.Fatalf("registering %s: %v", email, err)
	}
	return result.User
}

// registerAdmin provisions the bootstrap admin and returns the account.
func (e *testEnv) registerAdmin(t *testing.T) *model.User {
	t.Helper()
	ctx := context.Background()
	if err := e.db.EnsureAdmin(ctx, "admin@example.com", "admin", "hash"); err != nil {
		t.Fatalf("EnsureAdmin: %v", err)
	}
	admin, err := e.auth.GetUserByID(ctx, mustGetIDByEmail(t, e, "admin@example.com"))
	if err != nil {
		t.Fatalf("loading admin: %v", err)
	}
	return admin
}

func mustGetIDByEmail(t *testing.T, e *testEnv, email string) string {
	t.Helper()
	u, err := e.db.GetByEmail(context.Background(), email)
	if err != nil {
		t.Fatalf("GetByEmail(%s): %v", email, err)
	}
	return u.ID
}

package sqlite

import (
	"context"
	"testing"

	"github.com/bupang/quest/internal/model"
)

// newTestDB returns a *DB backed by an in-memory SQLite database, with the
// schema migrated. The database disappears when the test closes it.
func newTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := New(":memory:")
	if err != nil {
		t.Fatalf("failed to open in-memory database: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

// createTestUser inserts a regular user and fails the test on error.
func createTestUser(t *testing.T, db *DB, email, username string) *model.User {
	t.Helper()
	user := &model.User{
		Email:        email,
		Username:     username,
		PasswordHash: "$2a$04$notarealhashbutlongenough",
		Avatar:       model.DefaultAvatar,
		Bio:          model.DefaultBio,
		Role:         model.RoleUser,
	}
	if err := db.Create(context.Background(), user); err != nil {
		t.Fatalf("failed to create test user: %v", err)
	}
	return user
}

// createTestQuestion inserts a question and fails the test on error.
func createTestQuestion(t *testing.T, db *DB, authorID, title string) *model.Question {
	t.Helper()
	q := &model.Question{
		Title:    title,
		Detail:   "details for " + title,
		AuthorID: authorID,
	}
	if err := db.CreateQuestion(context.Background(), q); err != nil {
		t.Fatalf("failed to create test question: %v", err)
	}
	return q
}

// createTestAnswer inserts an answer and fails the test on error.
func createTestAnswer(t *testing.T, db *DB, questionID, authorID, body string) *model.Answer {
	t.Helper()
	a := &model.Answer{
		QuestionID: questionID,
		Body:       body,
		AuthorID:   authorID,
	}
	if err := db.CreateAnswer(context.Background(), a); err != nil {
		t.Fatalf("failed to create test answer: %v", err)
	}
	return a
}

// =========================================================================
// BOOTSTRAP ADMIN TESTS
// =========================================================================

func TestEnsureAdmin_CreatesAccount(t *testing.T) {
	db := newTestDB(t)

	if err := db.EnsureAdmin(context.Background(), "admin@example.com", "admin", "hash"); err != nil {
		t.Fatalf("EnsureAdmin() error = %v", err)
	}

	admin, err := db.GetByEmail(context.Background(), "admin@example.com")
	if err != nil {
		t.Fatalf("GetByEmail() after EnsureAdmin: %v", err)
	}
	if admin.Role != model.RoleAdmin {
		t.Errorf("Role = %q, want %q", admin.Role, model.RoleAdmin)
	}
}

func TestEnsureAdmin_Idempotent(t *testing.T) {
	db := newTestDB(t)

	if err := db.EnsureAdmin(context.Background(), "admin@example.com", "admin", "hash"); err != nil {
		t.Fatalf("EnsureAdmin() first run: %v", err)
	}
	first, _ := db.GetByEmail(context.Background(), "admin@example.com")

	// Second run must not create a second account or change the ID.
	if err := db.EnsureAdmin(context.Background(), "admin@example.com", "admin", "hash"); err != nil {
		t.Fatalf("EnsureAdmin() second run: %v", err)
	}
	second, _ := db.GetByEmail(context.Background(), "admin@example.com")

	if first.ID != second.ID {
		t.Errorf("EnsureAdmin() changed account ID: %q → %q", first.ID, second.ID)
	}
}

func TestEnsureAdmin_RestoresDemotedRole(t *testing.T) {
	db := newTestDB(t)

	if err := db.EnsureAdmin(context.Background(), "admin@example.com", "admin", "hash"); err != nil {
		t.Fatalf("EnsureAdmin() setup: %v", err)
	}
	admin, _ := db.GetByEmail(context.Background(), "admin@example.com")

	// Simulate a demotion, then run the bootstrap step again.
	if err := db.SetRole(context.Background(), admin.ID, model.RoleUser); err != nil {
		t.Fatalf("SetRole() setup: %v", err)
	}
	if err := db.EnsureAdmin(context.Background(), "admin@example.com", "admin", "hash"); err != nil {
		t.Fatalf("EnsureAdmin() after demotion: %v", err)
	}

	restored, _ := db.GetByEmail(context.Background(), "admin@example.com")
	if restored.Role != model.RoleAdmin {
		t.Errorf("Role after re-run = %q, want %q", restored.Role, model.RoleAdmin)
	}
}

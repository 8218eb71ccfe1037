package service

import (
	"context"
	"errors"
	"testing"

	"github.com/bupang/quest/internal/apperror"
	"github.com/bupang/quest/internal/model"
)

// =========================================================================
// OWNERSHIP RULE TESTS
// =========================================================================

func TestCanModify(t *testing.T) {
	admin := &model.User{ID: "admin1", Role: model.RoleAdmin}
	owner := &model.User{ID: "owner1", Role: model.RoleUser}
	stranger := &model.User{ID: "other1", Role: model.RoleUser}

	tests := []struct {
		name    string
		caller  *model.User
		ownerID string
		want    bool
	}{
		{"admin can modify anything", admin, "owner1", true},
		{"admin can modify own content", admin, "admin1", true},
		{"owner can modify own content", owner, "owner1", true},
		{"stranger cannot modify", stranger, "owner1", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CanModify(tt.caller, tt.ownerID); got != tt.want {
				t.Errorf("CanModify() = %v, want %v", got, tt.want)
			}
		})
	}
}

// =========================================================================
// BAN TESTS
// =========================================================================

func TestBanUser_NonAdminForbidden(t *testing.T) {
	env := newTestEnv(t)
	caller := env.registerUser(t, "caller@example.com", "caller")
	target := env.registerUser(t, "target@example.com", "target")

	_, err := env.moderation.BanUser(context.Background(), caller.ID, target.ID, 3)
	if !errors.Is(err, apperror.ErrForbidden) {
		t.Errorf("BanUser() by non-admin = %v, want ErrForbidden", err)
	}
}

func TestBanUser_CannotBanAdmin(t *testing.T) {
	env := newTestEnv(t)
	admin := env.registerAdmin(t)

	_, err := env.moderation.BanUser(context.Background(), admin.ID, admin.ID, 3)
	if !errors.Is(err, apperror.ErrForbidden) {
		t.Errorf("BanUser() on admin = %v, want ErrForbidden", err)
	}
}

func TestBanUser_UnknownTarget(t *testing.T) {
	env := newTestEnv(t)
	admin := env.registerAdmin(t)

	_, err := env.moderation.BanUser(context.Background(), admin.ID, "ghost", 3)
	if !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("BanUser() on unknown user = %v, want ErrNotFound", err)
	}
}

func TestBanThenLift(t *testing.T) {
	env := newTestEnv(t)
	admin := env.registerAdmin(t)
	user := env.registerUser(t, "target@example.com", "target")
	ctx := context.Background()

	if _, err := env.moderation.BanUser(ctx, admin.ID, user.ID, 3); err != nil {
		t.Fatalf("BanUser() error = %v", err)
	}
	banned, until, err := env.moderation.CheckBanned(ctx, user.ID)
	if err != nil {
		t.Fatalf("CheckBanned() error = %v", err)
	}
	if !banned || until == nil {
		t.Fatalf("CheckBanned() = %v, %v; want banned with expiry", banned, until)
	}

	// Re-banning with zero days sets the expiry to now, which is not
	// strictly in the future — the ban is lifted.
	if _, err := env.moderation.BanUser(ctx, admin.ID, user.ID, 0); err != nil {
		t.Fatalf("BanUser() lift error = %v", err)
	}
	banned, _, err = env.moderation.CheckBanned(ctx, user.ID)
	if err != nil {
		t.Fatalf("CheckBanned() after lift error = %v", err)
	}
	if banned {
		t.Error("user still banned after lifting the ban")
	}

	if _, err := env.board.AskQuestion(ctx, user.ID, "posting again", ""); err != nil {
		t.Errorf("AskQuestion() after lifted ban = %v, want nil", err)
	}
}

// =========================================================================
// DELETE TESTS
// =========================================================================

func TestDeleteContent_Permissions(t *testing.T) {
	env := newTestEnv(t)
	admin := env.registerAdmin(t)
	owner := env.registerUser(t, "owner@example.com", "owner")
	stranger := env.registerUser(t, "stranger@example.com", "stranger")
	ctx := context.Background()

	newQuestion := func(t *testing.T) string {
		t.Helper()
		q, err := env.board.AskQuestion(ctx, owner.ID, "delete me", "")
		if err != nil {
			t.Fatalf("AskQuestion(): %v", err)
		}
		return q.ID
	}

	t.Run("stranger forbidden", func(t *testing.T) {
		id := newQuestion(t)
		err := env.moderation.DeleteContent(ctx, stranger.ID, model.KindQuestion, id)
		if !errors.Is(err, apperror.ErrForbidden) {
			t.Errorf("DeleteContent() by stranger = %v, want ErrForbidden", err)
		}
	})

	t.Run("owner allowed", func(t *testing.T) {
		id := newQuestion(t)
		if err := env.moderation.DeleteContent(ctx, owner.ID, model.KindQuestion, id); err != nil {
			t.Errorf("DeleteContent() by owner = %v, want nil", err)
		}
		if _, err := env.board.GetQuestion(ctx, id, ""); !errors.Is(err, apperror.ErrNotFound) {
			t.Errorf("question still readable after delete: %v", err)
		}
	})

	t.Run("admin allowed", func(t *testing.T) {
		id := newQuestion(t)
		if err := env.moderation.DeleteContent(ctx, admin.ID, model.KindQuestion, id); err != nil {
			t.Errorf("DeleteContent() by admin = %v, want nil", err)
		}
	})
}

func TestDeleteContent_Answer(t *testing.T) {
	env := newTestEnv(t)
	asker := env.registerUser(t, "asker@example.com", "asker")
	answerer := env.registerUser(t, "answerer@example.com", "answerer")
	ctx := context.Background()

	q, _ := env.board.AskQuestion(ctx, asker.ID, "a question", "")
	a, err := env.board.PostAnswer(ctx, answerer.ID, q.ID, "an answer")
	if err != nil {
		t.Fatalf("PostAnswer(): %v", err)
	}

	// The question's author does not own the answer.
	err = env.moderation.DeleteContent(ctx, asker.ID, model.KindAnswer, a.ID)
	if !errors.Is(err, apperror.ErrForbidden) {
		t.Errorf("DeleteContent() by question author = %v, want ErrForbidden", err)
	}

	if err := env.moderation.DeleteContent(ctx, answerer.ID, model.KindAnswer, a.ID); err != nil {
		t.Errorf("DeleteContent() by answer author = %v, want nil", err)
	}

	detail, err := env.board.GetQuestion(ctx, q.ID, "")
	if err != nil {
		t.Fatalf("GetQuestion(): %v", err)
	}
	if len(detail.Answers) != 0 {
		t.Errorf("question still has %d answers after delete, want 0", len(detail.Answers))
	}
}

func TestDeleteContent_InvalidKind(t *testing.T) {
	env := newTestEnv(t)
	user := env.registerUser(t, "user@example.com", "user")

	err := env.moderation.DeleteContent(context.Background(), user.ID, model.DocKind("comment"), "x")
	if !errors.Is(err, apperror.ErrValidation) {
		t.Errorf("DeleteContent() with bad kind = %v, want ErrValidation", err)
	}
}

// =========================================================================
// PIN TESTS
// =========================================================================

func TestTogglePin(t *testing.T) {
	env := newTestEnv(t)
	admin := env.registerAdmin(t)
	user := env.registerUser(t, "user@example.com", "user")
	ctx := context.Background()

	q, _ := env.board.AskQuestion(ctx, user.ID, "pin me", "")
	a, err := env.board.PostAnswer(ctx, user.ID, q.ID, "pin me too")
	if err != nil {
		t.Fatalf("PostAnswer(): %v", err)
	}

	if _, err := env.moderation.TogglePin(ctx, user.ID, model.KindQuestion, q.ID); !errors.Is(err, apperror.ErrForbidden) {
		t.Errorf("TogglePin() by non-admin = %v, want ErrForbidden", err)
	}

	pinned, err := env.moderation.TogglePin(ctx, admin.ID, model.KindQuestion, q.ID)
	if err != nil {
		t.Fatalf("TogglePin() error = %v", err)
	}
	if !pinned {
		t.Error("first toggle should pin")
	}
	pinned, err = env.moderation.TogglePin(ctx, admin.ID, model.KindQuestion, q.ID)
	if err != nil {
		t.Fatalf("TogglePin() error = %v", err)
	}
	if pinned {
		t.Error("second toggle should unpin")
	}

	pinned, err = env.moderation.TogglePin(ctx, admin.ID, model.KindAnswer, a.ID)
	if err != nil {
		t.Fatalf("TogglePin() on answer error = %v", err)
	}
	if !pinned {
		t.Error("first toggle on answer should pin")
	}
}

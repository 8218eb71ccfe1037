package service

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/bupang/quest/internal/apperror"
	"github.com/bupang/quest/internal/model"
)

// =========================================================================
// POSTING TESTS
// =========================================================================

func TestAskQuestion_TrimsAndStores(t *testing.T) {
	env := newTestEnv(t)
	user := env.registerUser(t, "asker@example.com", "asker")

	q, err := env.board.AskQuestion(context.Background(), user.ID, "  How do I test this?  ", "details")
	if err != nil {
		t.Fatalf("AskQuestion() error = %v", err)
	}
	if q.Title != "How do I test this?" {
		t.Errorf("Title = %q, want trimmed title", q.Title)
	}
	if q.ID == "" {
		t.Error("AskQuestion() did not assign an ID")
	}
}

func TestAskQuestion_Validation(t *testing.T) {
	env := newTestEnv(t)
	user := env.registerUser(t, "asker@example.com", "asker")
	ctx := context.Background()

	if _, err := env.board.AskQuestion(ctx, user.ID, "   ", "details"); !errors.Is(err, apperror.ErrValidation) {
		t.Errorf("empty title error = %v, want ErrValidation", err)
	}
	longTitle := strings.Repeat("t", MaxTitleLength+1)
	if _, err := env.board.AskQuestion(ctx, user.ID, longTitle, ""); !errors.Is(err, apperror.ErrValidation) {
		t.Errorf("long title error = %v, want ErrValidation", err)
	}
}

func TestPostAnswer_UnknownQuestion(t *testing.T) {
	env := newTestEnv(t)
	user := env.registerUser(t, "answerer@example.com", "answerer")

	_, err := env.board.PostAnswer(context.Background(), user.ID, "ghost", "my answer")
	if !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("PostAnswer() error = %v, want ErrNotFound", err)
	}
}

// =========================================================================
// BAN GATE TESTS
// =========================================================================

func TestBannedUserCannotPost(t *testing.T) {
	env := newTestEnv(t)
	admin := env.registerAdmin(t)
	user := env.registerUser(t, "banned@example.com", "banned")
	other := env.registerUser(t, "other@example.com", "other")
	ctx := context.Background()

	q, err := env.board.AskQuestion(ctx, other.ID, "open question", "")
	if err != nil {
		t.Fatalf("setup question: %v", err)
	}

	if _, err := env.moderation.BanUser(ctx, admin.ID, user.ID, 3); err != nil {
		t.Fatalf("BanUser() error = %v", err)
	}

	if _, err := env.board.AskQuestion(ctx, user.ID, "banned question", ""); !errors.Is(err, apperror.ErrBanned) {
		t.Errorf("AskQuestion() while banned = %v, want ErrBanned", err)
	}
	if _, err := env.board.PostAnswer(ctx, user.ID, q.ID, "banned answer"); !errors.Is(err, apperror.ErrBanned) {
		t.Errorf("PostAnswer() while banned = %v, want ErrBanned", err)
	}

	// The ban gates posting, not voting.
	if _, err := env.votes.Vote(ctx, user.ID, model.KindQuestion, q.ID, model.VoteUp); err != nil {
		t.Errorf("Vote() while banned = %v, want nil", err)
	}
}

func TestExpiredBanAllowsPosting(t *testing.T) {
	env := newTestEnv(t)
	admin := env.registerAdmin(t)
	user := env.registerUser(t, "reformed@example.com", "reformed")
	ctx := context.Background()

	// Negative days put the expiry in the past — an already-lifted ban.
	if _, err := env.moderation.BanUser(ctx, admin.ID, user.ID, -1); err != nil {
		t.Fatalf("BanUser() error = %v", err)
	}

	if _, err := env.board.AskQuestion(ctx, user.ID, "back again", ""); err != nil {
		t.Errorf("AskQuestion() after expired ban = %v, want nil", err)
	}
}

func TestBannedErrorCarriesExpiry(t *testing.T) {
	env := newTestEnv(t)
	admin := env.registerAdmin(t)
	user := env.registerUser(t, "banned@example.com", "banned")
	ctx := context.Background()

	until, err := env.moderation.BanUser(ctx, admin.ID, user.ID, 7)
	if err != nil {
		t.Fatalf("BanUser() error = %v", err)
	}

	_, err = env.board.AskQuestion(ctx, user.ID, "nope", "")
	if !errors.Is(err, apperror.ErrBanned) {
		t.Fatalf("error = %v, want ErrBanned", err)
	}
	want := "you are banned until " + until.Format("2006-01-02 15:04")
	if err.Error() != want {
		t.Errorf("error message = %q, want %q", err.Error(), want)
	}
}

// =========================================================================
// READ PATH TESTS
// =========================================================================

// TestBoardScenario walks the main happy path end to end: two users, one
// question, one answer, one up-vote, then the listing as each viewer.
func TestBoardScenario(t *testing.T) {
	env := newTestEnv(t)
	alice := env.registerUser(t, "alice@example.com", "alice")
	bob := env.registerUser(t, "bob@example.com", "bob")
	ctx := context.Background()

	q, err := env.board.AskQuestion(ctx, alice.ID, "What is a closure?", "details")
	if err != nil {
		t.Fatalf("AskQuestion(): %v", err)
	}
	if _, err := env.board.PostAnswer(ctx, bob.ID, q.ID, "a function plus its environment"); err != nil {
		t.Fatalf("PostAnswer(): %v", err)
	}
	score, err := env.votes.Vote(ctx, bob.ID, model.KindQuestion, q.ID, model.VoteUp)
	if err != nil {
		t.Fatalf("Vote(): %v", err)
	}
	if score != 1 {
		t.Errorf("score after vote = %d, want 1", score)
	}

	// Bob sees his own vote.
	list, err := env.board.ListQuestions(ctx, bob.ID)
	if err != nil {
		t.Fatalf("ListQuestions(): %v", err)
	}
	if len(list) != 1 {
		t.Fatalf("listing has %d rows, want 1", len(list))
	}
	row := list[0]
	if row.Score != 1 || row.AnswerCount != 1 || row.MyVote != model.MyVoteUp {
		t.Errorf("bob's view = score %d, answers %d, myVote %q; want 1, 1, %q",
			row.Score, row.AnswerCount, row.MyVote, model.MyVoteUp)
	}

	// Alice sees the same score but no vote of her own.
	list, _ = env.board.ListQuestions(ctx, alice.ID)
	if list[0].MyVote != model.MyVoteNone {
		t.Errorf("alice's myVote = %q, want %q", list[0].MyVote, model.MyVoteNone)
	}

	// The detail view carries the answer with its author.
	detail, err := env.board.GetQuestion(ctx, q.ID, bob.ID)
	if err != nil {
		t.Fatalf("GetQuestion(): %v", err)
	}
	if len(detail.Answers) != 1 {
		t.Fatalf("detail has %d answers, want 1", len(detail.Answers))
	}
	if detail.Answers[0].Author.Username != "bob" {
		t.Errorf("answer author = %q, want %q", detail.Answers[0].Author.Username, "bob")
	}
}

func TestPublicProfile(t *testing.T) {
	env := newTestEnv(t)
	user := env.registerUser(t, "profiled@example.com", "profiled")
	ctx := context.Background()

	q, _ := env.board.AskQuestion(ctx, user.ID, "my question", "")
	if _, err := env.board.PostAnswer(ctx, user.ID, q.ID, "my own answer"); err != nil {
		t.Fatalf("PostAnswer(): %v", err)
	}

	profile, err := env.board.PublicProfile(ctx, user.ID)
	if err != nil {
		t.Fatalf("PublicProfile() error = %v", err)
	}
	if profile.Username != "profiled" {
		t.Errorf("Username = %q, want %q", profile.Username, "profiled")
	}
	if len(profile.Questions) != 1 || len(profile.Answers) != 1 {
		t.Errorf("profile has %d questions and %d answers, want 1 and 1",
			len(profile.Questions), len(profile.Answers))
	}
}

func TestPublicProfile_UnknownUser(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.board.PublicProfile(context.Background(), "ghost")
	if !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("PublicProfile() error = %v, want ErrNotFound", err)
	}
}

// =========================================================================
// STATS TESTS
// =========================================================================

func TestUserStats_FailSoftForUnknownUser(t *testing.T) {
	env := newTestEnv(t)

	// No error surface at all: a broken or missing counter degrades to
	// zeroed stats rather than failing the dashboard.
	stats := env.board.UserStats(context.Background(), "ghost")
	if stats == nil {
		t.Fatal("UserStats() returned nil")
	}
	if stats.QuestionCount != 0 || stats.AnswerCount != 0 || stats.VotesReceived != 0 || stats.Bio != "" {
		t.Errorf("UserStats() for unknown user = %+v, want zero value", stats)
	}
}

func TestUserStats_CountsForRealUser(t *testing.T) {
	env := newTestEnv(t)
	user := env.registerUser(t, "counted@example.com", "counted")
	voter := env.registerUser(t, "voter@example.com", "voter")
	ctx := context.Background()

	q, _ := env.board.AskQuestion(ctx, user.ID, "counted question", "")
	if _, err := env.votes.Vote(ctx, voter.ID, model.KindQuestion, q.ID, model.VoteUp); err != nil {
		t.Fatalf("Vote(): %v", err)
	}

	stats := env.board.UserStats(ctx, user.ID)
	if stats.QuestionCount != 1 {
		t.Errorf("QuestionCount = %d, want 1", stats.QuestionCount)
	}
	if stats.VotesReceived != 1 {
		t.Errorf("VotesReceived = %d, want 1", stats.VotesReceived)
	}
}

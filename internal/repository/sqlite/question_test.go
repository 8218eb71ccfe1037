package sqlite

import (
	"context"
	"errors"
	"testing"

	"github.com/bupang/quest/internal/apperror"
	"github.com/bupang/quest/internal/model"
)

// =========================================================================
// LISTING TESTS
// =========================================================================

func TestListQuestions_PinnedFirstThenNewest(t *testing.T) {
	db := newTestDB(t)
	author := createTestUser(t, db, "lister@example.com", "lister")
	ctx := context.Background()

	older := createTestQuestion(t, db, author.ID, "older question")
	newer := createTestQuestion(t, db, author.ID, "newer question")
	pinnedQ := createTestQuestion(t, db, author.ID, "pinned question")
	if _, err := db.TogglePinQuestion(ctx, pinnedQ.ID); err != nil {
		t.Fatalf("TogglePinQuestion() setup: %v", err)
	}

	list, err := db.ListQuestions(ctx, "")
	if err != nil {
		t.Fatalf("ListQuestions() error = %v", err)
	}
	if len(list) != 3 {
		t.Fatalf("ListQuestions() returned %d rows, want 3", len(list))
	}

	// Pinned row leads regardless of age, the rest follow newest-first.
	if list[0].ID != pinnedQ.ID {
		t.Errorf("list[0] = %q, want pinned question %q", list[0].ID, pinnedQ.ID)
	}
	if list[1].ID != newer.ID {
		t.Errorf("list[1] = %q, want %q", list[1].ID, newer.ID)
	}
	if list[2].ID != older.ID {
		t.Errorf("list[2] = %q, want %q", list[2].ID, older.ID)
	}
}

func TestListQuestions_CarriesAuthorScoreAndMyVote(t *testing.T) {
	db := newTestDB(t)
	author := createTestUser(t, db, "asker@example.com", "asker")
	voter := createTestUser(t, db, "voter@example.com", "voter")
	ctx := context.Background()

	q := createTestQuestion(t, db, author.ID, "voted question")
	createTestAnswer(t, db, q.ID, voter.ID, "an answer")
	if _, err := db.UpdateVote(ctx, model.KindQuestion, q.ID, voter.ID, model.VoteUp); err != nil {
		t.Fatalf("vote setup: %v", err)
	}

	// As the voter: score 1, own vote visible.
	list, err := db.ListQuestions(ctx, voter.ID)
	if err != nil {
		t.Fatalf("ListQuestions() error = %v", err)
	}
	row := list[0]
	if row.Author.Username != "asker" {
		t.Errorf("Author.Username = %q, want %q", row.Author.Username, "asker")
	}
	if row.Score != 1 {
		t.Errorf("Score = %d, want 1", row.Score)
	}
	if row.AnswerCount != 1 {
		t.Errorf("AnswerCount = %d, want 1", row.AnswerCount)
	}
	if row.MyVote != model.MyVoteUp {
		t.Errorf("MyVote = %q, want %q", row.MyVote, model.MyVoteUp)
	}

	// As the author (didn't vote): same score, myVote none.
	list, _ = db.ListQuestions(ctx, author.ID)
	if list[0].MyVote != model.MyVoteNone {
		t.Errorf("author's MyVote = %q, want %q", list[0].MyVote, model.MyVoteNone)
	}

	// Anonymous: also none.
	list, _ = db.ListQuestions(ctx, "")
	if list[0].MyVote != model.MyVoteNone {
		t.Errorf("anonymous MyVote = %q, want %q", list[0].MyVote, model.MyVoteNone)
	}
}

// =========================================================================
// DETAIL TESTS
// =========================================================================

func TestGetQuestionDetail_AnswersPinnedThenByScore(t *testing.T) {
	db := newTestDB(t)
	author := createTestUser(t, db, "author@example.com", "author")
	voter := createTestUser(t, db, "voter@example.com", "voter")
	ctx := context.Background()

	q := createTestQuestion(t, db, author.ID, "detail question")
	low := createTestAnswer(t, db, q.ID, author.ID, "low score answer")
	high := createTestAnswer(t, db, q.ID, author.ID, "high score answer")
	pinned := createTestAnswer(t, db, q.ID, author.ID, "pinned answer")

	if _, err := db.UpdateVote(ctx, model.KindAnswer, high.ID, voter.ID, model.VoteUp); err != nil {
		t.Fatalf("vote setup: %v", err)
	}
	if _, err := db.UpdateVote(ctx, model.KindAnswer, low.ID, voter.ID, model.VoteDown); err != nil {
		t.Fatalf("vote setup: %v", err)
	}
	if _, err := db.TogglePinAnswer(ctx, pinned.ID); err != nil {
		t.Fatalf("pin setup: %v", err)
	}

	detail, err := db.GetQuestionDetail(ctx, q.ID, "")
	if err != nil {
		t.Fatalf("GetQuestionDetail() error = %v", err)
	}
	if detail.AnswerCount != 3 {
		t.Fatalf("AnswerCount = %d, want 3", detail.AnswerCount)
	}

	if detail.Answers[0].ID != pinned.ID {
		t.Errorf("answers[0] = %q, want pinned answer", detail.Answers[0].ID)
	}
	if detail.Answers[1].ID != high.ID {
		t.Errorf("answers[1] = %q, want high-score answer", detail.Answers[1].ID)
	}
	if detail.Answers[2].ID != low.ID {
		t.Errorf("answers[2] = %q, want low-score answer", detail.Answers[2].ID)
	}
}

func TestGetQuestionDetail_NotFound(t *testing.T) {
	db := newTestDB(t)

	_, err := db.GetQuestionDetail(context.Background(), "ghost", "")
	if !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("GetQuestionDetail() error = %v, want ErrNotFound", err)
	}
}

// =========================================================================
// DELETE TESTS
// =========================================================================

func TestDeleteQuestion_CascadesToAnswersAndVotes(t *testing.T) {
	db := newTestDB(t)
	author := createTestUser(t, db, "author@example.com", "author")
	voter := createTestUser(t, db, "voter@example.com", "voter")
	ctx := context.Background()

	q := createTestQuestion(t, db, author.ID, "doomed question")
	a1 := createTestAnswer(t, db, q.ID, author.ID, "answer one")
	createTestAnswer(t, db, q.ID, author.ID, "answer two")
	createTestAnswer(t, db, q.ID, voter.ID, "answer three")

	if _, err := db.UpdateVote(ctx, model.KindQuestion, q.ID, voter.ID, model.VoteUp); err != nil {
		t.Fatalf("vote setup: %v", err)
	}
	if _, err := db.UpdateVote(ctx, model.KindAnswer, a1.ID, voter.ID, model.VoteUp); err != nil {
		t.Fatalf("vote setup: %v", err)
	}

	if err := db.DeleteQuestion(ctx, q.ID); err != nil {
		t.Fatalf("DeleteQuestion() error = %v", err)
	}

	if _, err := db.GetQuestionByID(ctx, q.ID); !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("question still present after delete: %v", err)
	}
	if _, err := db.GetAnswerByID(ctx, a1.ID); !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("answer still present after cascade delete: %v", err)
	}

	// Vote rows are gone too — the score of the deleted answer is zero.
	score, err := db.NetScore(ctx, model.KindAnswer, a1.ID)
	if err != nil {
		t.Fatalf("NetScore() error = %v", err)
	}
	if score != 0 {
		t.Errorf("NetScore of deleted answer = %d, want 0", score)
	}
}

func TestDeleteQuestion_NotFound(t *testing.T) {
	db := newTestDB(t)

	err := db.DeleteQuestion(context.Background(), "ghost")
	if !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("DeleteQuestion() error = %v, want ErrNotFound", err)
	}
}

// =========================================================================
// PIN TESTS
// =========================================================================

func TestTogglePinQuestion_FlipsBothWays(t *testing.T) {
	db := newTestDB(t)
	author := createTestUser(t, db, "pinner@example.com", "pinner")
	q := createTestQuestion(t, db, author.ID, "pin me")
	ctx := context.Background()

	pinned, err := db.TogglePinQuestion(ctx, q.ID)
	if err != nil {
		t.Fatalf("TogglePinQuestion() error = %v", err)
	}
	if !pinned {
		t.Error("first toggle should pin")
	}

	pinned, err = db.TogglePinQuestion(ctx, q.ID)
	if err != nil {
		t.Fatalf("TogglePinQuestion() second error = %v", err)
	}
	if pinned {
		t.Error("second toggle should unpin")
	}
}

func TestTogglePinQuestion_NotFound(t *testing.T) {
	db := newTestDB(t)

	_, err := db.TogglePinQuestion(context.Background(), "ghost")
	if !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("TogglePinQuestion() error = %v, want ErrNotFound", err)
	}
}

// =========================================================================
// PROFILE LISTING TESTS
// =========================================================================

func TestListQuestionsByAuthor(t *testing.T) {
	db := newTestDB(t)
	author := createTestUser(t, db, "prolific@example.com", "prolific")
	other := createTestUser(t, db, "other@example.com", "other")

	createTestQuestion(t, db, author.ID, "mine one")
	createTestQuestion(t, db, author.ID, "mine two")
	createTestQuestion(t, db, other.ID, "not mine")

	list, err := db.ListQuestionsByAuthor(context.Background(), author.ID)
	if err != nil {
		t.Fatalf("ListQuestionsByAuthor() error = %v", err)
	}
	if len(list) != 2 {
		t.Errorf("got %d questions, want 2", len(list))
	}
}

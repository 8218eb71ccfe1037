package model

import "time"

// Question is a content record owned by a user. Vote state lives in the
// votes relation, not on the question row — net score is always derived.
type Question struct {
	ID        string    `json:"id"        db:"id"`
	Title     string    `json:"title"     db:"title"`
	Detail    string    `json:"detail"    db:"detail"`
	AuthorID  string    `json:"authorId"  db:"author_id"`
	Pinned    bool      `json:"pinned"    db:"pinned"`
	CreatedAt time.Time `json:"createdAt" db:"created_at"`
}

// Answer is attached to exactly one question. The question owns its answers
// for cascade-delete purposes only; answers are otherwise independent.
type Answer struct {
	ID         string    `json:"id"         db:"id"`
	QuestionID string    `json:"questionId" db:"question_id"`
	Body       string    `json:"body"       db:"body"`
	AuthorID   string    `json:"authorId"   db:"author_id"`
	Pinned     bool      `json:"pinned"     db:"pinned"`
	CreatedAt  time.Time `json:"createdAt"  db:"created_at"`
}

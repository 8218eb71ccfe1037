package model

import "time"

// Read models. These are the joined shapes the repository assembles for the
// board: content rows combined with their author's public fields, a derived
// net score, and the caller's own vote state. They are what handlers encode
// straight to JSON.

// AuthorInfo is the slice of a user that rides along with content rows so
// clients can render the byline and decide whether to show owner controls.
type AuthorInfo struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Avatar   string `json:"avatar"`
	Role     string `json:"role"`
}

// QuestionSummary is one row of the board listing.
type QuestionSummary struct {
	Question
	Author      AuthorInfo `json:"author"`
	Score       int        `json:"score"` // up-votes minus down-votes, recomputed per query
	AnswerCount int        `json:"answerCount"`
	MyVote      string     `json:"myVote"` // "none" | "up" | "down" for the calling user
}

// AnswerView is an answer joined with its author and vote state, as shown on
// the question detail page.
type AnswerView struct {
	Answer
	Author AuthorInfo `json:"author"`
	Score  int        `json:"score"`
	MyVote string     `json:"myVote"`
}

// QuestionDetail is the full question page: the question with its author,
// plus all answers ordered pinned-first then score-descending.
type QuestionDetail struct {
	Question
	Author      AuthorInfo   `json:"author"`
	Score       int          `json:"score"`
	MyVote      string       `json:"myVote"`
	AnswerCount int          `json:"answerCount"`
	Answers     []AnswerView `json:"answers"`
}

// ProfileQuestion is a question as listed on its author's public profile.
type ProfileQuestion struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	CreatedAt time.Time `json:"createdAt"`
	Score     int       `json:"score"`
}

// ProfileAnswer is an answer as listed on its author's public profile: a
// short preview plus the parent question's title so the entry is clickable.
type ProfileAnswer struct {
	ID            string    `json:"id"`
	QuestionID    string    `json:"questionId"`
	QuestionTitle string    `json:"questionTitle"`
	Preview       string    `json:"preview"` // first 50 chars, "..." appended when truncated
	CreatedAt     time.Time `json:"createdAt"`
	Score         int       `json:"score"`
}

// PublicProfile is everything shown on a user's public page.
type PublicProfile struct {
	UserID    string            `json:"userId"`
	Username  string            `json:"username"`
	Avatar    string            `json:"avatar"`
	Bio       string            `json:"bio"`
	Role      string            `json:"role"`
	JoinedAt  time.Time         `json:"joinedAt"`
	Questions []ProfileQuestion `json:"questions"`
	Answers   []ProfileAnswer   `json:"answers"`
}

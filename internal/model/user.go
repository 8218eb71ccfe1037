// Package model defines the data structures used throughout the application.
package model

import "time"

// User roles. There are exactly two — moderation rights hang off RoleAdmin.
const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

// Defaults applied at registration. Clients rely on both being non-empty.
const (
	DefaultAvatar = "default.png"
	DefaultBio    = "This user hasn't written anything yet"
)

// User represents a registered account.
//
// WHY BannedUntil *time.Time?
// A nil pointer means "never banned". A past timestamp means "was banned,
// ban expired". Only a strictly future timestamp counts as an active ban —
// the boundary instant itself resolves to not-banned. Using a pointer keeps
// the three states distinct without a separate flag that could drift.
//
// PasswordHash is an opaque bcrypt string; it never leaves the server
// (json:"-") and the model never inspects its contents.
type User struct {
	ID           string     `json:"id"        db:"id"`
	Email        string     `json:"email"     db:"email"` // unique, stored lower-case
	Username     string     `json:"username"  db:"username"`
	PasswordHash string     `json:"-"         db:"password_hash"`
	Avatar       string     `json:"avatar"    db:"avatar"` // filename reference, not bytes
	Bio          string     `json:"bio"       db:"bio"`
	Role         string     `json:"role"      db:"role"`
	BannedUntil  *time.Time `json:"bannedUntil,omitempty" db:"banned_until"`
	CreatedAt    time.Time  `json:"createdAt" db:"created_at"`
}

// IsAdmin reports whether the user holds the admin role.
func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

// IsBanned reports whether the user is banned as of now, and the expiry.
// True only while the ban expiry is strictly in the future.
func (u *User) IsBanned(now time.Time) (bool, *time.Time) {
	if u.BannedUntil != nil && u.BannedUntil.After(now) {
		return true, u.BannedUntil
	}
	return false, nil
}

// UserStats summarises a user's contribution counters for their dashboard.
// VotesReceived sums the up-votes on everything they have posted — down-votes
// are deliberately not subtracted (it is a "reputation received" number, not
// a net score).
type UserStats struct {
	QuestionCount int    `json:"questionCount"`
	AnswerCount   int    `json:"answerCount"`
	VotesReceived int    `json:"votesReceived"`
	Bio           string `json:"bio"`
}

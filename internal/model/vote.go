package model

// DocKind selects which collection a vote, pin, or delete targets.
type DocKind string

const (
	KindQuestion DocKind = "question"
	KindAnswer   DocKind = "answer"
)

// Valid reports whether the kind names a known collection.
func (k DocKind) Valid() bool {
	return k == KindQuestion || k == KindAnswer
}

// VoteDirection is stored as +1 / -1 so that a net score is a plain SUM.
type VoteDirection int

const (
	VoteUp   VoteDirection = 1
	VoteDown VoteDirection = -1
)

// Valid reports whether the direction is one of the two stored values.
func (d VoteDirection) Valid() bool {
	return d == VoteUp || d == VoteDown
}

// Caller-visible vote states on a document.
const (
	MyVoteNone = "none"
	MyVoteUp   = "up"
	MyVoteDown = "down"
)

// MyVote converts a stored direction (0 when the caller has not voted) into
// the wire representation.
func MyVote(direction int) string {
	switch VoteDirection(direction) {
	case VoteUp:
		return MyVoteUp
	case VoteDown:
		return MyVoteDown
	default:
		return MyVoteNone
	}
}

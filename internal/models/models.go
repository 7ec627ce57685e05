package models

import (
	"time"
)

// IdeaStatus is the lifecycle state of an idea.
type IdeaStatus string

const (
	// StatusPending is the initial state; the only state that accepts votes.
	StatusPending IdeaStatus = "pending"
	// StatusAdopted means an admin accepted the idea for realization.
	StatusAdopted IdeaStatus = "adopted"
	// StatusRejected is terminal; no further transitions are possible.
	StatusRejected IdeaStatus = "rejected"
	// StatusTransformed means a project has been derived from an adopted idea.
	// ProjectRef is set in the same write that sets this status.
	StatusTransformed IdeaStatus = "transformed"
)

// Valid reports whether s is one of the known status values.
func (s IdeaStatus) Valid() bool {
	switch s {
	case StatusPending, StatusAdopted, StatusRejected, StatusTransformed:
		return true
	}
	return false
}

// Idea represents a community-submitted idea going through the voting lifecycle.
type Idea struct {
	ID          string     `db:"id" json:"id"`
	Title       string     `db:"title" json:"title"`
	Description string     `db:"description" json:"description"`
	Content     string     `db:"content" json:"content,omitempty"`
	Language    string     `db:"language" json:"language,omitempty"`
	AuthorID    string     `db:"author_id" json:"authorId"`
	Status      IdeaStatus `db:"status" json:"status"`
	VoteCount   int        `db:"vote_count" json:"voteCount"`
	AdoptedBy   *string    `db:"adopted_by" json:"adoptedBy,omitempty"`
	AdoptedAt   *time.Time `db:"adopted_at" json:"adoptedAt,omitempty"`
	ProjectRef  *string    `db:"project_ref" json:"projectRef,omitempty"`
	CreatedAt   time.Time  `db:"created_at" json:"createdAt"`
	UpdatedAt   time.Time  `db:"updated_at" json:"updatedAt"`
}

// IdeaVote is one ledger entry: a single user's vote on a single idea.
// The (idea_id, voter_id) pair is the primary key, so a voter can hold at
// most one entry per idea ever. Idea.VoteCount is the materialized sum of
// the weights of these entries.
type IdeaVote struct {
	IdeaID    string    `db:"idea_id" json:"ideaId"`
	VoterID   string    `db:"voter_id" json:"voterId"`
	Weight    int       `db:"weight" json:"weight"`
	CreatedAt time.Time `db:"created_at" json:"createdAt"`
}

// Actor is the authenticated identity performing an operation.
type Actor struct {
	UserID string
	Admin  bool
}

// VoteCountDrift is one idea whose cached vote_count disagrees with the sum
// of its ledger entries. Produced by the reconciliation audit only; drift is
// never corrected automatically.
type VoteCountDrift struct {
	IdeaID    string `db:"idea_id"`
	VoteCount int    `db:"vote_count"`
	LedgerSum int    `db:"ledger_sum"`
}

package domain

import (
	"context"
	"time"
)

const (
	PollMinOptions = 2
	PollMaxOptions = 4
)

// Poll is a time-boxed exactly-one-choice vote attached to a post.
// TotalVotes and the per-option votes move together or not at all.
type Poll struct {
	ID         int64
	PostID     int64
	Question   string
	TotalVotes int64
	ExpiresAt  time.Time
	CreatedAt  time.Time
	Options    []PollOption // ordered, 2-4 members, text immutable
}

// Closed reports whether the poll expired as of now. Monotonic: the server
// clock decides, the client countdown is advisory only.
func (p Poll) Closed(now time.Time) bool {
	return !now.Before(p.ExpiresAt)
}

type PollOption struct {
	ID       int64
	PollID   int64
	Position int
	Text     string
	Votes    int64
}

// PollVote records one cast vote. At most one per (poll, user); once cast
// it is permanent: no change, no retraction.
type PollVote struct {
	PollID    int64
	UserID    int64
	OptionID  int64
	CreatedAt time.Time
}

// PollOptionView is one option in a snapshot, with display math applied.
type PollOptionView struct {
	ID      int64  `json:"id"`
	Text    string `json:"text"`
	Votes   int64  `json:"votes"`
	Percent int    `json:"percent"`
	Leading bool   `json:"leading"`
}

// PollSnapshot is the read-path view of a poll for one viewer.
// Leading marks the max-vote option; on exact ties the first option in
// declared order wins, which is a documented ambiguity, not a bug.
type PollSnapshot struct {
	PollID        int64            `json:"poll_id"`
	Question      string           `json:"question"`
	ExpiresAt     time.Time        `json:"expires_at"`
	Closed        bool             `json:"closed"`
	TotalVotes    int64            `json:"total_votes"`
	VotedOptionID int64            `json:"voted_option_id,omitempty"`
	Options       []PollOptionView `json:"options"`
}

type PollResult struct {
	Accepted bool
	Snapshot PollSnapshot
}

type PollRepository interface {
	// Store creates the poll and its options, backfilling IDs.
	Store(ctx context.Context, p *Poll) error

	// GetByID retrieves the poll with options in declared order.
	// Returns ErrNotFound if it doesn't exist.
	GetByID(ctx context.Context, id int64) (Poll, error)

	// CastVote inserts the vote and bumps the chosen option's votes and
	// the poll's total_votes in ONE transaction. The unique index on
	// (poll_id, user_id) turns a duplicate into ErrAlreadyVoted.
	CastVote(ctx context.Context, vote PollVote) error

	// GetVote returns the viewer's vote, or ErrNotFound.
	GetVote(ctx context.Context, pollID, userID int64) (PollVote, error)
}

type PollUsecase interface {
	Create(ctx context.Context, p *Poll) error

	// CastVote evaluates expiry on the server clock, then records the
	// vote atomically. Returns the post-vote snapshot either way.
	CastVote(ctx context.Context, pollID, userID, optionID int64) (PollResult, error)

	Snapshot(ctx context.Context, pollID, viewerID int64) (PollSnapshot, error)
}

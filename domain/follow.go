package domain

import (
	"context"
	"time"
)

// FollowEdge is a directed user-to-user relation.
// Invariant: follower != following, at most one edge per ordered pair.
type FollowEdge struct {
	FollowerID  int64
	FollowingID int64
	CreatedAt   time.Time
}

// FollowResult reports the state after a set-following call. FollowerCount
// is the followee's authoritative follower count.
type FollowResult struct {
	Following     bool
	FollowerCount int64
}

// Relationship is the viewer-relative read of one user: whether the viewer
// follows them plus both follow counts from the edge table.
type Relationship struct {
	Following      bool
	FollowersCount int64
	FollowingCount int64
}

type FollowRepository interface {
	// SetState drives the edge to desired idempotently. Returns whether
	// anything changed.
	SetState(ctx context.Context, followerID, followingID int64, desired bool) (changed bool, err error)

	IsFollowing(ctx context.Context, followerID, followingID int64) (bool, error)

	CountFollowers(ctx context.Context, userID int64) (int64, error)
	CountFollowing(ctx context.Context, userID int64) (int64, error)

	FetchFollowerIDs(ctx context.Context, userID int64, limit int64) ([]int64, error)
	FetchFollowingIDs(ctx context.Context, userID int64, limit int64) ([]int64, error)
}

type FollowUsecase interface {
	// SetFollowing drives the follow edge. Self-follow returns
	// ErrInvalidTarget. Transition to true emits a follow notification.
	SetFollowing(ctx context.Context, followerID, followingID int64, desired bool) (FollowResult, error)

	// Relationship reads the viewer's follow state toward userID plus the
	// user's follow counts, counted live from the edge table.
	Relationship(ctx context.Context, viewerID, userID int64) (Relationship, error)

	Followers(ctx context.Context, userID int64, limit int64) ([]User, error)
	Following(ctx context.Context, userID int64, limit int64) ([]User, error)
}

package domain

import (
	"context"
	"time"
)

const (
	// 默认每个用户只加载最近的300条互动记录进缓存
	EngagedSetLimit = 300
)

// EngagementKind is the interaction relation a toggle acts on.
type EngagementKind string

const (
	KindLike     EngagementKind = "like"
	KindRepost   EngagementKind = "repost"
	KindBookmark EngagementKind = "bookmark"
)

func (k EngagementKind) Valid() bool {
	switch k {
	case KindLike, KindRepost, KindBookmark:
		return true
	}
	return false
}

// Counter returns the cached counter column driven by this kind.
// Bookmarks keep no denormalized column; their count is read live.
func (k EngagementKind) Counter() (CounterKind, bool) {
	switch k {
	case KindLike:
		return CounterLikes, true
	case KindRepost:
		return CounterReposts, true
	}
	return "", false
}

// EngagementEdge is one (actor, target, kind) relation record. At most one
// edge exists per key; that uniqueness is the core correctness contract.
type EngagementEdge struct {
	PostID    int64
	UserID    int64
	Kind      EngagementKind
	CreatedAt time.Time
}

// EngagementResult is what a toggle or set-state returns to the caller.
// Count is the authoritative server-side number, never a client echo.
type EngagementResult struct {
	On    bool
	Count int64
}

// EngagementSummary is the read-path view of one post for one viewer.
type EngagementSummary struct {
	Post   Post
	Viewer map[EngagementKind]bool
}

// EngagementRepository is the durable edge store. The unique index on
// (post_id, user_id, kind) is what serializes conflicting writes.
type EngagementRepository interface {
	// Toggle flips the edge inside one transaction: delete if present,
	// insert otherwise. Returns the resulting state.
	// A duplicate-insert race surfaces as ErrConflict for the loser.
	Toggle(ctx context.Context, edge EngagementEdge) (on bool, err error)

	// SetState drives the edge to desired idempotently. Returns whether
	// anything changed; repeated calls with the same desired are no-ops.
	SetState(ctx context.Context, edge EngagementEdge, desired bool) (changed bool, err error)

	// IsEngaged reports whether the edge exists.
	IsEngaged(ctx context.Context, edge EngagementEdge) (bool, error)

	// CountEdges counts edges of a kind referencing the post. Source of
	// truth for the reconciliation sweep.
	CountEdges(ctx context.Context, postID int64, kind EngagementKind) (int64, error)

	// FetchEngagedTargets 从边表中按 post_id DESC 选择该用户的记录, 限制条数
	FetchEngagedTargets(ctx context.Context, userID int64, kind EngagementKind, limit int64) ([]int64, error)
}

// EngagementSetCache is the redis fast path: a per-(user, kind) set of
// engaged post IDs, mutated by an atomic script so the membership check
// and the buffered count bump can't tear.
type EngagementSetCache interface {
	// MarkEngaged adds the edge to the set. Returns false if it was
	// already a member. Returns ErrCacheMiss when the set isn't loaded.
	MarkEngaged(ctx context.Context, edge EngagementEdge) (bool, error)

	// ClearEngaged removes the edge from the set. Returns false if it
	// wasn't a member. Returns ErrCacheMiss when the set isn't loaded.
	ClearEngaged(ctx context.Context, edge EngagementEdge) (bool, error)

	// IsEngaged checks membership. Returns ErrCacheMiss when unloaded.
	IsEngaged(ctx context.Context, edge EngagementEdge) (bool, error)

	// SetEngagedTargets loads the set from the durable store.
	SetEngagedTargets(ctx context.Context, userID int64, kind EngagementKind, postIDs []int64) error
}

type EngagementUsecase interface {
	// Toggle is the convenience primitive: flip whatever state the server
	// currently holds. Racy by nature under true concurrency; clients that
	// need exactly-once semantics must use SetState.
	Toggle(ctx context.Context, userID, postID int64, kind EngagementKind) (EngagementResult, error)

	// SetState is the idempotent, race-safe primitive of record.
	SetState(ctx context.Context, userID, postID int64, kind EngagementKind, desired bool) (EngagementResult, error)

	// ListEngagedPosts lists the caller's own engaged posts, newest first.
	ListEngagedPosts(ctx context.Context, userID int64, kind EngagementKind, limit int64) ([]Post, error)

	// Summary returns the post's counters plus the viewer's own edge states.
	Summary(ctx context.Context, viewerID, postID int64) (EngagementSummary, error)
}

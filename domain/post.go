package domain

import (
	"context"
	"time"
)

// Post is the engagement target. The four counters are denormalized
// aggregates owned by the counter reconciler; nothing else writes them.
type Post struct {
	ID           int64     // Unique identifier for the post
	User         User      // Author information
	Content      string    // Post body content
	LikesCount   int64     // Cached number of like edges
	RepostsCount int64     // Cached number of repost edges
	RepliesCount int64     // Cached number of replies
	ViewsCount   int64     // Cached number of views
	UpdatedAt    time.Time // Last update timestamp
	CreatedAt    time.Time // Creation timestamp
}

// CounterKind names one denormalized counter column on a post.
type CounterKind string

const (
	CounterLikes   CounterKind = "likes"
	CounterReposts CounterKind = "reposts"
	CounterReplies CounterKind = "replies"
	CounterViews   CounterKind = "views"
)

func (k CounterKind) Valid() bool {
	switch k {
	case CounterLikes, CounterReposts, CounterReplies, CounterViews:
		return true
	}
	return false
}

// EdgeBacked reports whether the counter can be recomputed from an edge
// table. Views and replies only ever move by buffered deltas.
func (k CounterKind) EdgeBacked() bool {
	return k == CounterLikes || k == CounterReposts
}

// CounterChange is one pending counter mutation, produced by the usecase
// layer and consumed by the reconcile worker.
type CounterChange struct {
	PostID int64
	Kind   CounterKind
	Delta  int64
}

// PostRepository defines the contract for post persistence.
type PostRepository interface {
	// GetByID retrieves a single post by its ID.
	// Returns ErrNotFound if the post doesn't exist.
	GetByID(ctx context.Context, id int64) (Post, error)

	// GetByIDs retrieves posts by given IDs, silently skipping missing ones.
	GetByIDs(ctx context.Context, ids []int64) ([]Post, error)

	// Store creates a new post and backfills the ID.
	Store(ctx context.Context, p *Post) error

	// AddCounter applies a signed delta to one counter column atomically,
	// clamped so the stored value never drops below zero.
	// Returns the new value.
	AddCounter(ctx context.Context, id int64, kind CounterKind, delta int64) (int64, error)

	// Recount recomputes an edge-backed counter from its edge table and
	// overwrites the cached column. Idempotent; safe to call at any time.
	Recount(ctx context.Context, id int64, kind CounterKind) (int64, error)

	// ApplyCounterChanges applies a netted batch inside one transaction:
	// edge-backed kinds are recounted, buffered kinds get clamped deltas.
	ApplyCounterChanges(ctx context.Context, changes []CounterChange) error

	// FetchIDs pages over post IDs, used to seed the bloom filter.
	FetchIDs(ctx context.Context, cursor, limit int64) ([]int64, error)
}

// PostCache is the redis-backed display cache for posts and their counters.
type PostCache interface {
	GetPost(ctx context.Context, id int64) (Post, bool, error)
	SetPost(ctx context.Context, p *Post, ttl time.Duration) error
	DeletePost(ctx context.Context, id int64) error

	GetCount(ctx context.Context, id int64, kind CounterKind) (int64, error)
	SetCount(ctx context.Context, id int64, kind CounterKind, value int64) error

	// IncrViews buffers one view into the views hash.
	IncrViews(ctx context.Context, id int64) (int64, error)
	// FetchAndResetViews atomically drains the views buffer.
	FetchAndResetViews(ctx context.Context) (map[int64]int64, error)
}

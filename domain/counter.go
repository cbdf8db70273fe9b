package domain

import "context"

// CounterReconciler is the only component allowed to mutate displayed
// counts. Everything else hands it a delta or asks for a sweep.
type CounterReconciler interface {
	// Apply moves one post counter by delta atomically, clamped at zero
	// so a stray -1 arriving before its +1 can't drive it negative.
	// Returns the authoritative new count.
	Apply(ctx context.Context, postID int64, kind CounterKind, delta int64) (int64, error)

	// Recount recomputes an edge-backed post counter from the edge table
	// and overwrites the cached value. Idempotent correctness backstop.
	Recount(ctx context.Context, postID int64, kind CounterKind) (int64, error)

	// ApplyUser moves one follow counter by delta, clamped at zero.
	ApplyUser(ctx context.Context, userID int64, kind UserCounterKind, delta int64) (int64, error)

	// RecountFollows recomputes both of a user's follow counters from the
	// follow edge table and overwrites the cached columns. Same backstop
	// contract as Recount for posts.
	RecountFollows(ctx context.Context, userID int64) (followers, following int64, err error)
}

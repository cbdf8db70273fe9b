package domain

import "context"

// ReconcileWorker repairs counter drift in the background: usecases report
// which (post, kind) pairs they touched, the worker dedupes and periodically
// recounts them, and it drains the buffered views hash on the same tick.
type ReconcileWorker interface {
	Start(ctx context.Context)

	// Touch marks a counter as possibly stale. Never blocks; a full
	// queue drops the hint, the periodic sweep catches up later.
	Touch(postID int64, kind CounterKind)
}

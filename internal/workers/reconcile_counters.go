package workers

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/pulsefeed/engagement-core/domain"
)

type touchKey struct {
	postID int64
	kind   domain.CounterKind
}

// reconcileWorker repairs counter drift: usecases report which (post, kind)
// pairs they touched, and the worker periodically recounts them from the
// edge tables. It also drains the buffered views hash on each flush, so a
// crash between an edge write and a counter write only ever leaves drift
// until the next sweep.
type reconcileWorker struct {
	postRepo  domain.PostRepository
	postCache domain.PostCache
	ch        chan touchKey
}

var _ domain.ReconcileWorker = (*reconcileWorker)(nil)

func NewReconcileWorker(pr domain.PostRepository, pc domain.PostCache) *reconcileWorker {
	return &reconcileWorker{
		postRepo:  pr,
		postCache: pc,
		ch:        make(chan touchKey, 1024),
	}
}

// Touch marks a counter as possibly stale. Never blocks; a dropped hint
// just means the repair waits for a later sweep.
func (w *reconcileWorker) Touch(postID int64, kind domain.CounterKind) {
	select {
	case w.ch <- touchKey{postID, kind}:
	default:
		logrus.Info("reconcileWorker's channel is full, touch dropped")
	}
}

func (w *reconcileWorker) Start(ctx context.Context) {
	ticker := time.NewTicker(1 * time.Second)
	defer ticker.Stop()

	const batchSize = 100
	batch := make(map[touchKey]struct{}, batchSize)
	for {
		select {
		case key := <-w.ch:
			batch[key] = struct{}{}
			if len(batch) >= batchSize {
				w.flush(ctx, batch)
				batch = make(map[touchKey]struct{}, batchSize)
			}
		case <-ticker.C:
			w.flush(ctx, batch)
			batch = make(map[touchKey]struct{}, batchSize)
		case <-ctx.Done():
			logrus.Info("shutting down reconcileWorker, flushing remaining touches...")
			w.flush(context.Background(), batch)
			return
		}
	}
}

func (w *reconcileWorker) flush(ctx context.Context, batch map[touchKey]struct{}) {
	changes := make([]domain.CounterChange, 0, len(batch))
	for key := range batch {
		changes = append(changes, domain.CounterChange{
			PostID: key.postID,
			Kind:   key.kind,
		})
	}

	views, err := w.postCache.FetchAndResetViews(ctx)
	if err != nil {
		logrus.Errorf("failed to drain views buffer: %v", err)
	}
	for postID, delta := range views {
		changes = append(changes, domain.CounterChange{
			PostID: postID,
			Kind:   domain.CounterViews,
			Delta:  delta,
		})
	}

	if len(changes) == 0 {
		return
	}
	if err := w.postRepo.ApplyCounterChanges(ctx, changes); err != nil {
		logrus.Errorf("failed to apply counter changes: %v", err)
	}
}

package engagement

import (
	"context"
	"errors"
	"sync"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/pulsefeed/engagement-core/domain"
)

type Service struct {
	engagementRepo domain.EngagementRepository
	postRepo       domain.PostRepository
	setCache       domain.EngagementSetCache
	postCache      domain.PostCache
	reconciler     domain.CounterReconciler
	reconcileWkr   domain.ReconcileWorker
	dispatcher     domain.NotificationDispatcher
	bloomRepo      domain.BloomRepository
}

var _ domain.EngagementUsecase = (*Service)(nil)

// NewService will create a new engagement service object
func NewService(
	e domain.EngagementRepository,
	p domain.PostRepository,
	sc domain.EngagementSetCache,
	pc domain.PostCache,
	cr domain.CounterReconciler,
	rw domain.ReconcileWorker,
	nd domain.NotificationDispatcher,
	br domain.BloomRepository,
) *Service {
	return &Service{
		engagementRepo: e,
		postRepo:       p,
		setCache:       sc,
		postCache:      pc,
		reconciler:     cr,
		reconcileWkr:   rw,
		dispatcher:     nd,
		bloomRepo:      br,
	}
}

func (s *Service) mustExist(ctx context.Context, postID int64) error {
	exists, err := s.bloomRepo.Exists(ctx, postID)
	if err == nil && !exists {
		logrus.Warnf("bloom filter says post %d does not exist", postID)
		return domain.ErrInvalidTarget
	}
	return nil
}

// Toggle is the convenience primitive: flip whatever the server currently
// holds. Two racing toggles for one key serialize on the unique index; the
// loser of an insert race gets ErrConflict and should re-read and retry.
func (s *Service) Toggle(ctx context.Context, userID, postID int64, kind domain.EngagementKind) (domain.EngagementResult, error) {
	if !kind.Valid() {
		return domain.EngagementResult{}, domain.ErrBadParamInput
	}
	if err := s.mustExist(ctx, postID); err != nil {
		return domain.EngagementResult{}, err
	}

	edge := domain.EngagementEdge{PostID: postID, UserID: userID, Kind: kind}
	on, err := s.engagementRepo.Toggle(ctx, edge)
	if err != nil {
		return domain.EngagementResult{}, err
	}

	return s.afterChange(ctx, edge, on, true)
}

// SetState is the idempotent, race-safe primitive of record. Repeated
// calls with the same desired value are no-ops after the first.
func (s *Service) SetState(ctx context.Context, userID, postID int64, kind domain.EngagementKind, desired bool) (domain.EngagementResult, error) {
	if !kind.Valid() {
		return domain.EngagementResult{}, domain.ErrBadParamInput
	}
	if err := s.mustExist(ctx, postID); err != nil {
		return domain.EngagementResult{}, err
	}

	edge := domain.EngagementEdge{PostID: postID, UserID: userID, Kind: kind}
	changed, err := s.engagementRepo.SetState(ctx, edge, desired)
	if err != nil {
		return domain.EngagementResult{}, err
	}

	return s.afterChange(ctx, edge, desired, changed)
}

// afterChange runs the shared post-write path: mirror the redis fast path,
// move the counter through the reconciler, emit the notification, and
// return the authoritative state.
func (s *Service) afterChange(ctx context.Context, edge domain.EngagementEdge, on, changed bool) (domain.EngagementResult, error) {
	if changed {
		s.mirrorSetCache(ctx, edge, on)
	}

	count, err := s.settleCount(ctx, edge, on, changed)
	if err != nil {
		return domain.EngagementResult{}, err
	}

	if changed && on {
		s.notifyOwner(ctx, edge)
	}

	return domain.EngagementResult{On: on, Count: count}, nil
}

// settleCount produces the authoritative count for the response. A real
// state change moves the counter through the reconciler; a no-op just reads.
func (s *Service) settleCount(ctx context.Context, edge domain.EngagementEdge, on, changed bool) (int64, error) {
	counterKind, hasCounter := edge.Kind.Counter()

	if !hasCounter {
		// bookmarks keep no denormalized column, count live
		return s.engagementRepo.CountEdges(ctx, edge.PostID, edge.Kind)
	}

	if changed {
		delta := int64(1)
		if !on {
			delta = -1
		}
		count, err := s.reconciler.Apply(ctx, edge.PostID, counterKind, delta)
		// the edge committed either way, so the sweep must see this key:
		// on failure the touch is the only thing that repairs the drift
		s.reconcileWkr.Touch(edge.PostID, counterKind)
		if err != nil {
			logrus.Errorf("counter apply failed for post %d: %v", edge.PostID, err)
		} else {
			return count, nil
		}
	}

	post, err := s.postRepo.GetByID(ctx, edge.PostID)
	if err != nil {
		return 0, err
	}
	if counterKind == domain.CounterLikes {
		return post.LikesCount, nil
	}
	return post.RepostsCount, nil
}

// mirrorSetCache keeps the per-user engaged set in step with the durable
// store, backfilling from the edge table on a cold set. Cache failures are
// logged and swallowed; the DB already committed.
func (s *Service) mirrorSetCache(ctx context.Context, edge domain.EngagementEdge, on bool) {
	op := s.setCache.ClearEngaged
	if on {
		op = s.setCache.MarkEngaged
	}

	_, err := op(ctx, edge)
	if err == nil {
		return
	}
	if !errors.Is(err, domain.ErrCacheMiss) {
		logrus.Errorf("failed to mirror engaged set: %v", err)
		return
	}

	// 未命中缓存: 去数据库加载该用户的互动记录再重试
	engaged, err := s.engagementRepo.FetchEngagedTargets(ctx, edge.UserID, edge.Kind, domain.EngagedSetLimit)
	if err != nil {
		logrus.Errorf("failed to FetchEngagedTargets from repo: %v", err)
		return
	}
	if err = s.setCache.SetEngagedTargets(ctx, edge.UserID, edge.Kind, engaged); err != nil {
		logrus.Errorf("failed to SetEngagedTargets to redis: %v", err)
		return
	}
	if _, err = op(ctx, edge); err != nil {
		logrus.Errorf("failed to mirror engaged set after backfill: %v", err)
	}
}

func (s *Service) notifyOwner(ctx context.Context, edge domain.EngagementEdge) {
	post, err := s.postRepo.GetByID(ctx, edge.PostID)
	if err != nil {
		logrus.Warnf("skipping notification, post %d unavailable: %v", edge.PostID, err)
		return
	}

	var notifyType domain.NotificationType
	switch edge.Kind {
	case domain.KindLike:
		notifyType = domain.NotifyLike
	case domain.KindRepost:
		notifyType = domain.NotifyRepost
	default:
		return // bookmarks are private, no fan-out
	}

	s.dispatcher.Dispatch(domain.Notification{
		RecipientID: post.User.ID,
		ActorID:     edge.UserID,
		Type:        notifyType,
		TargetID:    edge.PostID,
	})
}

func (s *Service) ListEngagedPosts(ctx context.Context, userID int64, kind domain.EngagementKind, limit int64) ([]domain.Post, error) {
	if !kind.Valid() {
		return nil, domain.ErrBadParamInput
	}
	ids, err := s.engagementRepo.FetchEngagedTargets(ctx, userID, kind, limit)
	if err != nil {
		return nil, err
	}
	return s.postRepo.GetByIDs(ctx, ids)
}

// Summary returns the post's counters plus the viewer's own edge states,
// checking all kinds concurrently. Reading a summary counts as a view.
func (s *Service) Summary(ctx context.Context, viewerID, postID int64) (domain.EngagementSummary, error) {
	if err := s.mustExist(ctx, postID); err != nil {
		return domain.EngagementSummary{}, err
	}

	post, err := s.postRepo.GetByID(ctx, postID)
	if err != nil {
		return domain.EngagementSummary{}, err
	}

	deltaViews, err := s.postCache.IncrViews(ctx, postID)
	if err != nil {
		logrus.Errorf("failed to IncrViews from redis: %v", err)
	} else {
		post.ViewsCount += deltaViews
	}

	summary := domain.EngagementSummary{
		Post:   post,
		Viewer: make(map[domain.EngagementKind]bool),
	}

	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)
	for _, kind := range []domain.EngagementKind{domain.KindLike, domain.KindRepost, domain.KindBookmark} {
		kind := kind
		g.Go(func() error {
			engaged, err := s.viewerState(gctx, viewerID, postID, kind)
			if err != nil {
				return err
			}
			mu.Lock()
			summary.Viewer[kind] = engaged
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return domain.EngagementSummary{}, err
	}

	return summary, nil
}

func (s *Service) viewerState(ctx context.Context, viewerID, postID int64, kind domain.EngagementKind) (bool, error) {
	edge := domain.EngagementEdge{PostID: postID, UserID: viewerID, Kind: kind}

	engaged, err := s.setCache.IsEngaged(ctx, edge)
	if err == nil {
		return engaged, nil
	}
	if errors.Is(err, domain.ErrCacheMiss) {
		targets, err := s.engagementRepo.FetchEngagedTargets(ctx, viewerID, kind, domain.EngagedSetLimit)
		if err != nil {
			return false, err
		}
		if err := s.setCache.SetEngagedTargets(ctx, viewerID, kind, targets); err != nil {
			logrus.Warnf("failed to SetEngagedTargets to redis: %v", err)
		}
		for _, id := range targets {
			if id == postID {
				return true, nil
			}
		}
		return false, nil
	}

	logrus.Warnf("engaged set read failed, falling back to repo: %v", err)
	return s.engagementRepo.IsEngaged(ctx, edge)
}

// InitBloomFilter 启动时把全量 post ID 灌进布隆过滤器
func (s *Service) InitBloomFilter(ctx context.Context) error {
	const pageSize = 1000
	var cursor int64
	for {
		ids, err := s.postRepo.FetchIDs(ctx, cursor, pageSize)
		if err != nil {
			return err
		}
		if len(ids) == 0 {
			return nil
		}
		if err := s.bloomRepo.BulkAdd(ctx, ids); err != nil {
			return err
		}
		cursor = ids[len(ids)-1]
	}
}

package repository

import (
	"context"
	"errors"
	"strconv"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/singleflight"

	"github.com/pulsefeed/engagement-core/domain"
)

const (
	postCacheTTL = 10 * time.Minute
)

// postCoordinator 协调层，协调缓存和数据库
// Reads are cache-first with logical expiry; counter writes go through the
// DB first and the cache is refreshed with the authoritative value after.
type postCoordinator struct {
	db            domain.PostRepository
	cache         domain.PostCache
	rebuildGroup  singleflight.Group
	mu            sync.Mutex
	rebuildingMap map[int64]bool // 正在重建的帖子ID
}

var _ domain.PostRepository = (*postCoordinator)(nil)

// NewPostCoordinator 创建协调层repository
func NewPostCoordinator(db domain.PostRepository, cache domain.PostCache) *postCoordinator {
	return &postCoordinator{
		db:            db,
		cache:         cache,
		rebuildingMap: make(map[int64]bool),
	}
}

// GetByID 使用逻辑过期策略避免缓存击穿
func (r *postCoordinator) GetByID(ctx context.Context, id int64) (domain.Post, error) {
	post, expired, err := r.cache.GetPost(ctx, id)
	if err == nil {
		if expired {
			go r.rebuildPostCache(context.Background(), id)
		}
		r.overlayFreshCounts(ctx, &post)
		return post, nil
	}
	if !errors.Is(err, domain.ErrCacheMiss) {
		logrus.Warnf("cache get error: %v", err)
	}

	// 缓存未命中，使用singleflight避免缓存击穿
	key := "post:" + strconv.FormatInt(id, 10)
	result, err, _ := r.rebuildGroup.Do(key, func() (interface{}, error) {
		p, err := r.db.GetByID(ctx, id)
		if err != nil {
			return nil, err
		}

		_ = r.cache.SetPost(context.Background(), &p, postCacheTTL)
		_ = r.cache.SetCount(ctx, p.ID, domain.CounterLikes, p.LikesCount)
		_ = r.cache.SetCount(ctx, p.ID, domain.CounterReposts, p.RepostsCount)

		return p, nil
	})
	if err != nil {
		return domain.Post{}, err
	}

	post = result.(domain.Post)
	return post, nil
}

// overlayFreshCounts merges the buffered counter values over the snapshot;
// the snapshot's columns may lag behind by a reconciliation interval.
func (r *postCoordinator) overlayFreshCounts(ctx context.Context, post *domain.Post) {
	if likes, err := r.cache.GetCount(ctx, post.ID, domain.CounterLikes); err == nil {
		post.LikesCount = likes
	}
	if reposts, err := r.cache.GetCount(ctx, post.ID, domain.CounterReposts); err == nil {
		post.RepostsCount = reposts
	}
}

func (r *postCoordinator) GetByIDs(ctx context.Context, ids []int64) ([]domain.Post, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	posts := make([]domain.Post, 0, len(ids))
	missed := make([]int64, 0, len(ids))
	for _, id := range ids {
		post, _, err := r.cache.GetPost(ctx, id)
		if err != nil {
			missed = append(missed, id)
			continue
		}
		r.overlayFreshCounts(ctx, &post)
		posts = append(posts, post)
	}

	if len(missed) == 0 {
		return posts, nil
	}

	fromDB, err := r.db.GetByIDs(ctx, missed)
	if err != nil {
		return nil, err
	}

	// 异步更新缓存
	go func(data []domain.Post) {
		for i := range data {
			_ = r.cache.SetPost(context.Background(), &data[i], postCacheTTL)
		}
	}(fromDB)

	posts = append(posts, fromDB...)
	return posts, nil
}

func (r *postCoordinator) Store(ctx context.Context, p *domain.Post) error {
	return r.db.Store(ctx, p)
}

// AddCounter writes through to the DB and refreshes the cached count with
// the authoritative result. Never the other way around.
func (r *postCoordinator) AddCounter(ctx context.Context, id int64, kind domain.CounterKind, delta int64) (int64, error) {
	newCount, err := r.db.AddCounter(ctx, id, kind, delta)
	if err != nil {
		return 0, err
	}
	if err := r.cache.SetCount(ctx, id, kind, newCount); err != nil {
		logrus.Warnf("failed to refresh cached count for post %d: %v", id, err)
	}
	return newCount, nil
}

func (r *postCoordinator) Recount(ctx context.Context, id int64, kind domain.CounterKind) (int64, error) {
	count, err := r.db.Recount(ctx, id, kind)
	if err != nil {
		return 0, err
	}
	if err := r.cache.SetCount(ctx, id, kind, count); err != nil {
		logrus.Warnf("failed to refresh cached count for post %d: %v", id, err)
	}
	return count, nil
}

func (r *postCoordinator) ApplyCounterChanges(ctx context.Context, changes []domain.CounterChange) error {
	if err := r.db.ApplyCounterChanges(ctx, changes); err != nil {
		return err
	}

	// 缓存里的计数交由下一次读回源修正
	for _, change := range changes {
		if err := r.cache.DeletePost(ctx, change.PostID); err != nil {
			logrus.Warnf("failed to invalidate post %d after reconcile: %v", change.PostID, err)
		}
	}
	return nil
}

func (r *postCoordinator) FetchIDs(ctx context.Context, cursor, limit int64) ([]int64, error) {
	return r.db.FetchIDs(ctx, cursor, limit)
}

// rebuildPostCache 异步重建帖子缓存
func (r *postCoordinator) rebuildPostCache(ctx context.Context, id int64) {
	r.mu.Lock()
	if r.rebuildingMap[id] {
		r.mu.Unlock()
		return
	}
	r.rebuildingMap[id] = true
	r.mu.Unlock()

	defer func() {
		r.mu.Lock()
		delete(r.rebuildingMap, id)
		r.mu.Unlock()
	}()

	key := "rebuild:" + strconv.FormatInt(id, 10)
	_, err, _ := r.rebuildGroup.Do(key, func() (any, error) {
		post, err := r.db.GetByID(ctx, id)
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				_ = r.cache.DeletePost(ctx, id)
			}
			return nil, err
		}

		if err := r.cache.SetPost(ctx, &post, postCacheTTL); err != nil {
			logrus.Errorf("failed to set post cache: %v", err)
			return nil, err
		}
		return nil, nil
	})

	if err != nil {
		logrus.Errorf("rebuildPostCache failed for id %d: %v", id, err)
	}
}

package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/pulsefeed/engagement-core/domain"
	"github.com/pulsefeed/engagement-core/internal/repository/cache"
)

const (
	KeyPost            = "post:%d"
	KeyCount           = "post:count:%s:%d"
	KeyViewsBuffer     = "post:views:buffer"
	KeyViewsProcessing = "post:views:processing"

	countTTL = time.Hour
)

type postCache struct {
	client *redis.Client
}

var _ domain.PostCache = (*postCache)(nil)

func NewPostCache(client *redis.Client) *postCache {
	return &postCache{
		client,
	}
}

// postEnvelope mirrors cache.DataWithLogicalExpire with a typed payload so
// the read side doesn't go through map[string]any.
type postEnvelope struct {
	Data      domain.Post `json:"data"`
	ExpireAt  time.Time   `json:"expire_at"`
	CreatedAt time.Time   `json:"created_at"`
}

func (c *postCache) GetPost(ctx context.Context, id int64) (domain.Post, bool, error) {
	key := fmt.Sprintf(KeyPost, id)
	data, err := c.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return domain.Post{}, false, domain.ErrCacheMiss
	} else if err != nil {
		return domain.Post{}, false, err
	}

	var env postEnvelope
	if err = json.Unmarshal(data, &env); err != nil {
		return domain.Post{}, false, err
	}
	expired := time.Now().After(env.ExpireAt)
	return env.Data, expired, nil
}

func (c *postCache) SetPost(ctx context.Context, p *domain.Post, ttl time.Duration) error {
	key := fmt.Sprintf(KeyPost, p.ID)
	data, err := json.Marshal(cache.NewDataWithLogicalExpire(p, ttl))
	if err != nil {
		return err
	}
	// 物理TTL放宽, 逻辑过期由读方判断
	return c.client.Set(ctx, key, data, 10*ttl).Err()
}

func (c *postCache) DeletePost(ctx context.Context, id int64) error {
	keys := []string{fmt.Sprintf(KeyPost, id)}
	for _, kind := range []domain.CounterKind{domain.CounterLikes, domain.CounterReposts, domain.CounterReplies, domain.CounterViews} {
		keys = append(keys, fmt.Sprintf(KeyCount, kind, id))
	}
	return c.client.Del(ctx, keys...).Err()
}

func (c *postCache) GetCount(ctx context.Context, id int64, kind domain.CounterKind) (int64, error) {
	key := fmt.Sprintf(KeyCount, kind, id)
	val, err := c.client.Get(ctx, key).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, domain.ErrCacheMiss
	}
	return val, err
}

func (c *postCache) SetCount(ctx context.Context, id int64, kind domain.CounterKind, value int64) error {
	key := fmt.Sprintf(KeyCount, kind, id)
	return c.client.Set(ctx, key, value, countTTL).Err()
}

func (c *postCache) IncrViews(ctx context.Context, id int64) (int64, error) {
	return c.client.HIncrBy(ctx, KeyViewsBuffer, strconv.FormatInt(id, 10), 1).Result()
}

func (c *postCache) FetchAndResetViews(ctx context.Context) (map[int64]int64, error) {
	result := make(map[int64]int64)
	err := c.client.Rename(ctx, KeyViewsBuffer, KeyViewsProcessing).Err()
	if err != nil {
		// RENAME on an absent source answers "ERR no such key", not a nil
		// reply; an idle buffer is the common case on every tick
		if errors.Is(err, redis.Nil) || strings.Contains(err.Error(), "no such key") {
			return result, nil
		}
		return result, err
	}

	data, err := c.client.HGetAll(ctx, KeyViewsProcessing).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return result, nil
		}
		return result, err
	}

	for idStr, viewsStr := range data {
		id, _ := strconv.ParseInt(idStr, 10, 64)
		views, _ := strconv.ParseInt(viewsStr, 10, 64)
		result[id] = views
	}

	c.client.Del(ctx, KeyViewsProcessing)

	return result, nil
}

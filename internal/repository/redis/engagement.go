package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/pulsefeed/engagement-core/domain"
)

const (
	KeyUserEngaged = "engaged:%s:user:%d"

	// guard member keeps the set key alive even when the user engaged
	// with nothing, so EXISTS can tell "loaded empty" from "not loaded"
	engagedSetGuard = "-1"

	engagedSetTTLSec = 1800
)

type engagementSetCache struct {
	client *redis.Client
}

var _ domain.EngagementSetCache = (*engagementSetCache)(nil)

func NewEngagementSetCache(client *redis.Client) *engagementSetCache {
	return &engagementSetCache{
		client,
	}
}

func engagedKey(userID int64, kind domain.EngagementKind) string {
	return fmt.Sprintf(KeyUserEngaged, kind, userID)
}

// markScript: membership check and the buffered count bump cannot tear.
// KEYS = {用户互动集合, 计数缓存}
// ARGV = {本次帖子ID, 集合TTL}
var markScript = redis.NewScript(`
	if redis.call('EXISTS', KEYS[1]) == 0 then
		return -1 -- 未缓存, 需要加载缓存
	end

	if redis.call('SISMEMBER', KEYS[1], ARGV[1]) == 1 then
		return 0 -- 已存在
	end

	redis.call('SADD', KEYS[1], ARGV[1])
	redis.call('EXPIRE', KEYS[1], ARGV[2])

	if redis.call('EXISTS', KEYS[2]) == 1 then
		redis.call('INCR', KEYS[2])
	end

	return 1
`)

var clearScript = redis.NewScript(`
	if redis.call('EXISTS', KEYS[1]) == 0 then
		return -1 -- 未缓存, 需要加载缓存
	end

	if redis.call('SISMEMBER', KEYS[1], ARGV[1]) == 0 then
		return 0 -- 本来就不存在
	end

	redis.call('SREM', KEYS[1], ARGV[1])
	redis.call('EXPIRE', KEYS[1], ARGV[2])

	local count = redis.call('GET', KEYS[2])
	if count and tonumber(count) > 0 then
		redis.call('DECR', KEYS[2])
	end

	return 1
`)

var isEngagedScript = redis.NewScript(`
	if redis.call('EXISTS', KEYS[1]) == 0 then
		return -1
	end
	return redis.call('SISMEMBER', KEYS[1], ARGV[1])
`)

func (c *engagementSetCache) run(ctx context.Context, script *redis.Script, edge domain.EngagementEdge) (bool, error) {
	keys := []string{
		engagedKey(edge.UserID, edge.Kind),
		fmt.Sprintf(KeyCount, countKindFor(edge.Kind), edge.PostID),
	}
	res, err := script.Run(ctx, c.client, keys, edge.PostID, engagedSetTTLSec).Int()
	if err != nil {
		return false, err
	}
	switch res {
	case -1:
		return false, domain.ErrCacheMiss
	case 0:
		return false, nil
	default:
		return true, nil
	}
}

// countKindFor picks the cached counter bumped alongside the set. Bookmarks
// have no counter column; the script's EXISTS guard makes that key a no-op.
func countKindFor(kind domain.EngagementKind) domain.CounterKind {
	if counter, ok := kind.Counter(); ok {
		return counter
	}
	return domain.CounterKind(kind)
}

func (c *engagementSetCache) MarkEngaged(ctx context.Context, edge domain.EngagementEdge) (bool, error) {
	return c.run(ctx, markScript, edge)
}

func (c *engagementSetCache) ClearEngaged(ctx context.Context, edge domain.EngagementEdge) (bool, error) {
	return c.run(ctx, clearScript, edge)
}

func (c *engagementSetCache) IsEngaged(ctx context.Context, edge domain.EngagementEdge) (bool, error) {
	keys := []string{engagedKey(edge.UserID, edge.Kind)}
	res, err := isEngagedScript.Run(ctx, c.client, keys, edge.PostID).Int()
	if err != nil {
		return false, err
	}
	if res == -1 {
		return false, domain.ErrCacheMiss
	}
	return res == 1, nil
}

func (c *engagementSetCache) SetEngagedTargets(ctx context.Context, userID int64, kind domain.EngagementKind, postIDs []int64) error {
	key := engagedKey(userID, kind)
	members := make([]any, 0, len(postIDs)+1)
	members = append(members, engagedSetGuard)
	for _, id := range postIDs {
		members = append(members, id)
	}

	pipe := c.client.TxPipeline()
	pipe.Del(ctx, key)
	pipe.SAdd(ctx, key, members...)
	pipe.Expire(ctx, key, engagedSetTTLSec*time.Second)
	_, err := pipe.Exec(ctx)
	return err
}

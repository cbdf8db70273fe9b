package redis

import (
	"context"
	"testing"
	"time"

	"github.com/go-redis/redismock/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pulsefeed/engagement-core/domain"
)

var testEdge = domain.EngagementEdge{PostID: 7, UserID: 42, Kind: domain.KindLike}

func edgeScriptArgs() ([]string, []interface{}) {
	keys := []string{"engaged:like:user:42", "post:count:likes:7"}
	return keys, []interface{}{testEdge.PostID, engagedSetTTLSec}
}

func TestMarkEngaged(t *testing.T) {
	client, mock := redismock.NewClientMock()
	c := NewEngagementSetCache(client)
	keys, args := edgeScriptArgs()

	t.Run("Added", func(t *testing.T) {
		mock.ExpectEvalSha(markScript.Hash(), keys, args...).SetVal(int64(1))

		changed, err := c.MarkEngaged(context.Background(), testEdge)
		require.NoError(t, err)
		assert.True(t, changed)
	})

	t.Run("AlreadyMember", func(t *testing.T) {
		mock.ExpectEvalSha(markScript.Hash(), keys, args...).SetVal(int64(0))

		changed, err := c.MarkEngaged(context.Background(), testEdge)
		require.NoError(t, err)
		assert.False(t, changed)
	})

	t.Run("ColdSetIsCacheMiss", func(t *testing.T) {
		mock.ExpectEvalSha(markScript.Hash(), keys, args...).SetVal(int64(-1))

		_, err := c.MarkEngaged(context.Background(), testEdge)
		assert.ErrorIs(t, err, domain.ErrCacheMiss)
	})

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestClearEngaged(t *testing.T) {
	client, mock := redismock.NewClientMock()
	c := NewEngagementSetCache(client)
	keys, args := edgeScriptArgs()

	mock.ExpectEvalSha(clearScript.Hash(), keys, args...).SetVal(int64(1))

	changed, err := c.ClearEngaged(context.Background(), testEdge)
	require.NoError(t, err)
	assert.True(t, changed)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestIsEngaged(t *testing.T) {
	client, mock := redismock.NewClientMock()
	c := NewEngagementSetCache(client)
	keys := []string{"engaged:like:user:42"}

	t.Run("Member", func(t *testing.T) {
		mock.ExpectEvalSha(isEngagedScript.Hash(), keys, testEdge.PostID).SetVal(int64(1))

		engaged, err := c.IsEngaged(context.Background(), testEdge)
		require.NoError(t, err)
		assert.True(t, engaged)
	})

	t.Run("ColdSetIsCacheMiss", func(t *testing.T) {
		mock.ExpectEvalSha(isEngagedScript.Hash(), keys, testEdge.PostID).SetVal(int64(-1))

		_, err := c.IsEngaged(context.Background(), testEdge)
		assert.ErrorIs(t, err, domain.ErrCacheMiss)
	})

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSetEngagedTargets_GuardKeepsEmptySetAlive(t *testing.T) {
	client, mock := redismock.NewClientMock()
	c := NewEngagementSetCache(client)
	key := "engaged:like:user:42"

	mock.ExpectTxPipeline()
	mock.ExpectDel(key).SetVal(1)
	// the guard member is always written, even with no engaged posts
	mock.ExpectSAdd(key, engagedSetGuard).SetVal(1)
	mock.ExpectExpire(key, engagedSetTTLSec*time.Second).SetVal(true)
	mock.ExpectTxPipelineExec()

	err := c.SetEngagedTargets(context.Background(), 42, domain.KindLike, nil)
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSetEngagedTargets_LoadsMembers(t *testing.T) {
	client, mock := redismock.NewClientMock()
	c := NewEngagementSetCache(client)
	key := "engaged:like:user:42"

	mock.ExpectTxPipeline()
	mock.ExpectDel(key).SetVal(1)
	mock.ExpectSAdd(key, engagedSetGuard, int64(9), int64(7)).SetVal(3)
	mock.ExpectExpire(key, engagedSetTTLSec*time.Second).SetVal(true)
	mock.ExpectTxPipelineExec()

	err := c.SetEngagedTargets(context.Background(), 42, domain.KindLike, []int64{9, 7})
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

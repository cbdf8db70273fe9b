package client

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pulsefeed/engagement-core/domain"
)

func TestControl_ToggleOptimisticThenConfirm(t *testing.T) {
	ctrl := NewControl(false, 5)

	send := func(ctx context.Context, desired bool) (domain.EngagementResult, error) {
		assert.True(t, desired)
		return domain.EngagementResult{On: true, Count: 6}, nil
	}

	state, err := ctrl.Toggle(context.Background(), send)
	require.NoError(t, err)
	assert.True(t, state.On)
	assert.Equal(t, int64(6), state.Count)
	assert.False(t, state.Pending)
}

func TestControl_RollbackOnError(t *testing.T) {
	ctrl := NewControl(false, 5)

	sent := make(chan struct{})
	release := make(chan struct{})
	send := func(ctx context.Context, desired bool) (domain.EngagementResult, error) {
		close(sent)
		<-release
		return domain.EngagementResult{}, domain.ErrTransient
	}

	var (
		state State
		err   error
		done  = make(chan struct{})
	)
	go func() {
		state, err = ctrl.Toggle(context.Background(), send)
		close(done)
	}()

	// while the request is in flight the predicted state is rendered
	<-sent
	mid := ctrl.Snapshot()
	assert.True(t, mid.On)
	assert.Equal(t, int64(6), mid.Count)
	assert.True(t, mid.Pending)

	close(release)
	<-done

	// 5 -> 6 -> back to 5, never 4
	require.ErrorIs(t, err, domain.ErrTransient)
	assert.False(t, state.On)
	assert.Equal(t, int64(5), state.Count)

	final := ctrl.Snapshot()
	assert.False(t, final.On)
	assert.Equal(t, int64(5), final.Count)
	assert.False(t, final.Pending)
}

func TestControl_ServerResultIsAuthoritative(t *testing.T) {
	ctrl := NewControl(false, 5)

	// another device raced us: server says on with a different count
	send := func(ctx context.Context, desired bool) (domain.EngagementResult, error) {
		return domain.EngagementResult{On: true, Count: 9}, nil
	}

	state, err := ctrl.Toggle(context.Background(), send)
	require.NoError(t, err)
	assert.True(t, state.On)
	assert.Equal(t, int64(9), state.Count)
}

func TestControl_RepeatWhilePendingIsIgnored(t *testing.T) {
	ctrl := NewControl(false, 5)

	release := make(chan struct{})
	sent := make(chan struct{})
	var calls int
	var mu sync.Mutex
	send := func(ctx context.Context, desired bool) (domain.EngagementResult, error) {
		mu.Lock()
		calls++
		mu.Unlock()
		close(sent)
		<-release
		return domain.EngagementResult{On: true, Count: 6}, nil
	}

	done := make(chan struct{})
	go func() {
		_, _ = ctrl.Toggle(context.Background(), send)
		close(done)
	}()
	<-sent

	_, err := ctrl.Toggle(context.Background(), send)
	assert.ErrorIs(t, err, ErrActionPending)

	close(release)
	<-done

	mu.Lock()
	assert.Equal(t, 1, calls)
	mu.Unlock()
}

func TestControl_PredictedCountNeverNegative(t *testing.T) {
	// inconsistent seed: off with count 0, turning off again predicts 0 not -1
	ctrl := NewControl(true, 0)

	send := func(ctx context.Context, desired bool) (domain.EngagementResult, error) {
		return domain.EngagementResult{}, errors.New("boom")
	}

	sent := make(chan struct{})
	release := make(chan struct{})
	blocking := func(ctx context.Context, desired bool) (domain.EngagementResult, error) {
		close(sent)
		<-release
		return send(ctx, desired)
	}

	done := make(chan struct{})
	go func() {
		_, _ = ctrl.Toggle(context.Background(), blocking)
		close(done)
	}()

	<-sent
	mid := ctrl.Snapshot()
	assert.Equal(t, int64(0), mid.Count)
	close(release)
	<-done
}

func TestRegistry_SeedsOnFirstSightOnly(t *testing.T) {
	reg := NewRegistry()

	a := reg.Control(1, domain.KindLike, true, 10)
	b := reg.Control(1, domain.KindLike, false, 99) // seed ignored, same control
	assert.Same(t, a, b)

	c := reg.Control(1, domain.KindRepost, false, 0)
	assert.NotSame(t, a, c)

	state := b.Snapshot()
	assert.True(t, state.On)
	assert.Equal(t, int64(10), state.Count)
}

// Package client implements the optimistic toggle controller: the
// per-(actor, target, kind) state machine that renders a predicted outcome
// immediately and reconciles or rolls back on the server response. It is
// deliberately free of any transport or UI dependency so the rollback and
// re-entrancy guarantees are testable in isolation.
package client

import (
	"context"
	"errors"
	"sync"

	"github.com/pulsefeed/engagement-core/domain"
)

// ErrActionPending is returned when the user re-triggers a control whose
// previous action is still in flight. The repeated action is ignored, never
// fired concurrently: two overlapping toggles would double-flip the state.
var ErrActionPending = errors.New("action already pending")

// SendFunc performs the network call for a desired state and returns the
// server's authoritative result.
type SendFunc func(ctx context.Context, desired bool) (domain.EngagementResult, error)

// State is what the UI renders for one control.
type State struct {
	On      bool
	Count   int64
	Pending bool
}

// Control is the state machine for a single (actor, target, kind) control.
//
//	Idle --user action--> Pending(predicted) --ok--> Idle(server result)
//	                                         --err-> Idle(previous)
type Control struct {
	mu        sync.Mutex
	on        bool
	count     int64
	pending   bool
	prevOn    bool
	prevCount int64
}

// NewControl seeds the machine with the last state the server rendered.
func NewControl(on bool, count int64) *Control {
	return &Control{on: on, count: count}
}

// Snapshot returns the currently rendered state.
func (c *Control) Snapshot() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return State{On: c.on, Count: c.count, Pending: c.pending}
}

// Toggle predicts the flipped state, renders it immediately, then sends
// setState(predicted) and reconciles:
//   - on success the server's returned state and count are adopted
//     verbatim, even when they disagree with the prediction (a race with
//     another device, say) — the server is authoritative, never the client;
//   - on failure the previous state is restored and the error surfaces as
//     retryable.
func (c *Control) Toggle(ctx context.Context, send SendFunc) (State, error) {
	c.mu.Lock()
	if c.pending {
		state := State{On: c.on, Count: c.count, Pending: true}
		c.mu.Unlock()
		return state, ErrActionPending
	}

	c.prevOn, c.prevCount = c.on, c.count
	predicted := !c.on
	predictedCount := c.count - 1
	if predicted {
		predictedCount = c.count + 1
	}
	if predictedCount < 0 {
		predictedCount = 0
	}
	c.on, c.count, c.pending = predicted, predictedCount, true
	c.mu.Unlock()

	res, err := send(ctx, predicted)

	c.mu.Lock()
	defer c.mu.Unlock()
	c.pending = false
	if err != nil {
		c.on, c.count = c.prevOn, c.prevCount
		return State{On: c.on, Count: c.count}, err
	}

	c.on, c.count = res.On, res.Count
	return State{On: c.on, Count: c.count}, nil
}

// Registry holds the client's working set of controls.
type Registry struct {
	mu       sync.Mutex
	controls map[registryKey]*Control
}

type registryKey struct {
	postID int64
	kind   domain.EngagementKind
}

func NewRegistry() *Registry {
	return &Registry{controls: make(map[registryKey]*Control)}
}

// Control returns the machine for a target, seeding it on first sight.
func (r *Registry) Control(postID int64, kind domain.EngagementKind, on bool, count int64) *Control {
	r.mu.Lock()
	defer r.mu.Unlock()
	key := registryKey{postID, kind}
	if c, ok := r.controls[key]; ok {
		return c
	}
	c := NewControl(on, count)
	r.controls[key] = c
	return c
}

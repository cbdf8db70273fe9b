package domain

import (
	"context"
	"time"
)

// User represents a user entity in the system.
// Follower counters are denormalized aggregates over the follow edge table,
// maintained by the counter reconciler like the post counters.
type User struct {
	ID             int64     // Unique identifier
	Name           string    // Display name
	Username       string    // Login username (unique)
	FollowersCount int64     // Cached number of followers
	FollowingCount int64     // Cached number of followed users
	CreatedAt      time.Time // Account creation timestamp
	UpdatedAt      time.Time // Last profile update timestamp
}

// UserCounterKind names one denormalized counter column on a user.
type UserCounterKind string

const (
	CounterFollowers UserCounterKind = "followers"
	CounterFollowing UserCounterKind = "following"
)

// UserRepository defines the contract for user data persistence.
type UserRepository interface {
	// GetByID retrieves a user by their ID.
	// Returns ErrNotFound if the user doesn't exist.
	GetByID(ctx context.Context, id int64) (User, error)

	GetByIDs(ctx context.Context, userIDs []int64) ([]User, error)

	// AddCounter applies a signed delta to one follow counter atomically,
	// clamped at zero. Returns the new value.
	AddCounter(ctx context.Context, id int64, kind UserCounterKind, delta int64) (int64, error)

	// RecountFollows recomputes both follow counters from the edge table
	// and overwrites the cached columns.
	RecountFollows(ctx context.Context, id int64) (followers, following int64, err error)
}

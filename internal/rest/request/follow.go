package request

// SetFollowing carries the desired outcome of an idempotent follow write.
type SetFollowing struct {
	Desired *bool `json:"desired" binding:"required"`
}

package request

// SetState carries the desired outcome of an idempotent engagement write.
// Desired is a pointer so an explicit false survives binding validation.
type SetState struct {
	Desired *bool `json:"desired" binding:"required"`
}

package domain

import "errors"

var (
	// ErrInternalServerError will throw if any the Internal Server Error happen
	ErrInternalServerError = errors.New("internal server error")
	// ErrNotFound will throw if the requested item is not exists
	ErrNotFound = errors.New("your requested item is not found")
	// ErrConflict will throw if the current action already exists
	ErrConflict = errors.New("your item already exist")
	// ErrBadParamInput will throw if the given request-body or params is not valid
	ErrBadParamInput = errors.New("given param is not valid")

	// ErrUnauthenticated will throw if the caller carries no identity
	ErrUnauthenticated = errors.New("caller is not authenticated")
	// ErrInvalidTarget will throw on self-follow or a nonexistent target
	ErrInvalidTarget = errors.New("target is not valid")

	// ErrAlreadyVoted will throw if the actor already voted on this poll
	ErrAlreadyVoted = errors.New("already voted on this poll")
	// ErrPollClosed will throw if the poll expired before the vote was evaluated
	ErrPollClosed = errors.New("poll is closed")

	// ErrTransient marks a retryable network/timeout failure
	ErrTransient = errors.New("transient failure, retry")

	// ErrCacheMiss 缓存未命中, 需要回源加载
	ErrCacheMiss = errors.New("cache miss")
)

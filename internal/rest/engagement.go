package rest

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/pulsefeed/engagement-core/domain"
	"github.com/pulsefeed/engagement-core/internal/rest/request"
	"github.com/pulsefeed/engagement-core/internal/rest/response"
)

// ResponseError represent the response error struct
type ResponseError struct {
	Message string `json:"message"`
}

const (
	DefaultListLimit = 20
	ListMin          = 1
	ListMax          = 100
)

// EngagementHandler represent the httphandler for engagement toggles
type EngagementHandler struct {
	Service domain.EngagementUsecase
}

func NewEngagementHandler(svc domain.EngagementUsecase) *EngagementHandler {
	return &EngagementHandler{
		Service: svc,
	}
}

func pathID(c *gin.Context, name string) (int64, bool) {
	idP, err := strconv.Atoi(c.Param(name))
	if err != nil {
		c.JSON(http.StatusNotFound, ResponseError{Message: domain.ErrNotFound.Error()})
		return 0, false
	}
	return int64(idP), true
}

func authedUserID(c *gin.Context) (int64, bool) {
	userID, exists := c.Get("user_id")
	if !exists {
		c.JSON(http.StatusUnauthorized, ResponseError{Message: domain.ErrUnauthenticated.Error()})
		return 0, false
	}
	return userID.(int64), true
}

func pathKind(c *gin.Context) (domain.EngagementKind, bool) {
	kind := domain.EngagementKind(c.Param("kind"))
	if !kind.Valid() {
		c.JSON(http.StatusBadRequest, ResponseError{Message: domain.ErrBadParamInput.Error()})
		return "", false
	}
	return kind, true
}

// Toggle flips the caller's edge of the given kind on a post. Convenience
// endpoint: under concurrent use two toggles can cancel out, clients that
// need exactly-once semantics must use SetState.
func (h *EngagementHandler) Toggle(c *gin.Context) {
	postID, ok := pathID(c, "id")
	if !ok {
		return
	}
	kind, ok := pathKind(c)
	if !ok {
		return
	}
	userID, ok := authedUserID(c)
	if !ok {
		return
	}

	res, err := h.Service.Toggle(c.Request.Context(), userID, postID, kind)
	if err != nil {
		c.JSON(getStatusCode(err), ResponseError{Message: err.Error()})
		return
	}

	c.JSON(http.StatusOK, response.NewEngagementFromDomain(res))
}

// SetState is the idempotent primitive of record: the client states the
// outcome it wants rather than blindly flipping.
func (h *EngagementHandler) SetState(c *gin.Context) {
	postID, ok := pathID(c, "id")
	if !ok {
		return
	}
	kind, ok := pathKind(c)
	if !ok {
		return
	}
	userID, ok := authedUserID(c)
	if !ok {
		return
	}

	var req request.SetState
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ResponseError{Message: err.Error()})
		return
	}

	res, err := h.Service.SetState(c.Request.Context(), userID, postID, kind, *req.Desired)
	if err != nil {
		c.JSON(getStatusCode(err), ResponseError{Message: err.Error()})
		return
	}

	c.JSON(http.StatusOK, response.NewEngagementFromDomain(res))
}

// setKind builds the per-kind convenience handlers (POST = on, DELETE = off)
func (h *EngagementHandler) setKind(kind domain.EngagementKind, desired bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		postID, ok := pathID(c, "id")
		if !ok {
			return
		}
		userID, ok := authedUserID(c)
		if !ok {
			return
		}

		res, err := h.Service.SetState(c.Request.Context(), userID, postID, kind, desired)
		if err != nil {
			c.JSON(getStatusCode(err), ResponseError{Message: err.Error()})
			return
		}

		c.JSON(http.StatusOK, response.NewEngagementFromDomain(res))
	}
}

func (h *EngagementHandler) Like(c *gin.Context)       { h.setKind(domain.KindLike, true)(c) }
func (h *EngagementHandler) Unlike(c *gin.Context)     { h.setKind(domain.KindLike, false)(c) }
func (h *EngagementHandler) Repost(c *gin.Context)     { h.setKind(domain.KindRepost, true)(c) }
func (h *EngagementHandler) Unrepost(c *gin.Context)   { h.setKind(domain.KindRepost, false)(c) }
func (h *EngagementHandler) Bookmark(c *gin.Context)   { h.setKind(domain.KindBookmark, true)(c) }
func (h *EngagementHandler) Unbookmark(c *gin.Context) { h.setKind(domain.KindBookmark, false)(c) }

// Summary returns the post counters and the viewer's own edge states.
func (h *EngagementHandler) Summary(c *gin.Context) {
	postID, ok := pathID(c, "id")
	if !ok {
		return
	}
	userID, ok := authedUserID(c)
	if !ok {
		return
	}

	summary, err := h.Service.Summary(c.Request.Context(), userID, postID)
	if err != nil {
		c.JSON(getStatusCode(err), ResponseError{Message: err.Error()})
		return
	}

	c.JSON(http.StatusOK, response.NewSummaryFromDomain(summary))
}

// ListEngaged lists the caller's own engaged posts for a kind.
func (h *EngagementHandler) ListEngaged(c *gin.Context) {
	kind, ok := pathKind(c)
	if !ok {
		return
	}
	userID, ok := authedUserID(c)
	if !ok {
		return
	}

	limit := listLimit(c)
	posts, err := h.Service.ListEngagedPosts(c.Request.Context(), userID, kind, limit)
	if err != nil {
		c.JSON(getStatusCode(err), ResponseError{Message: err.Error()})
		return
	}

	res := make([]response.Post, len(posts))
	for i := range posts {
		res[i] = response.NewPostFromDomain(&posts[i])
	}
	c.JSON(http.StatusOK, res)
}

func listLimit(c *gin.Context) int64 {
	limitS := c.Query("limit")
	limit, err := strconv.ParseInt(limitS, 10, 64)
	if err != nil || limit < ListMin || limit > ListMax {
		return DefaultListLimit
	}
	return limit
}

// getStatusCode will get the http status for a domain error
func getStatusCode(err error) int {
	if err == nil {
		return http.StatusOK
	}

	logrus.Error(err)
	switch {
	case errors.Is(err, domain.ErrInternalServerError):
		return http.StatusInternalServerError
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrConflict):
		return http.StatusConflict
	case errors.Is(err, domain.ErrAlreadyVoted):
		return http.StatusConflict
	case errors.Is(err, domain.ErrPollClosed):
		return http.StatusGone
	case errors.Is(err, domain.ErrInvalidTarget):
		return http.StatusUnprocessableEntity
	case errors.Is(err, domain.ErrUnauthenticated):
		return http.StatusUnauthorized
	case errors.Is(err, domain.ErrBadParamInput):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

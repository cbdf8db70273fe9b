package rest

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/pulsefeed/engagement-core/domain"
	"github.com/pulsefeed/engagement-core/internal/rest/request"
	"github.com/pulsefeed/engagement-core/internal/rest/response"
)

// FollowHandler represent the httphandler for the follow graph
type FollowHandler struct {
	Service domain.FollowUsecase
}

func NewFollowHandler(svc domain.FollowUsecase) *FollowHandler {
	return &FollowHandler{
		Service: svc,
	}
}

// SetFollowing drives the caller's follow edge toward the target user.
func (h *FollowHandler) SetFollowing(c *gin.Context) {
	var req request.SetFollowing
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ResponseError{Message: err.Error()})
		return
	}
	h.set(c, *req.Desired)
}

func (h *FollowHandler) Follow(c *gin.Context) {
	h.set(c, true)
}

func (h *FollowHandler) Unfollow(c *gin.Context) {
	h.set(c, false)
}

func (h *FollowHandler) set(c *gin.Context, desired bool) {
	followingID, ok := pathID(c, "id")
	if !ok {
		return
	}
	followerID, ok := authedUserID(c)
	if !ok {
		return
	}

	res, err := h.Service.SetFollowing(c.Request.Context(), followerID, followingID, desired)
	if err != nil {
		c.JSON(getStatusCode(err), ResponseError{Message: err.Error()})
		return
	}

	c.JSON(http.StatusOK, response.NewFollowFromDomain(res))
}

// Relationship answers whether the caller follows the user plus the
// user's follow counts, counted from the edge table.
func (h *FollowHandler) Relationship(c *gin.Context) {
	userID, ok := pathID(c, "id")
	if !ok {
		return
	}
	viewerID, ok := authedUserID(c)
	if !ok {
		return
	}

	rel, err := h.Service.Relationship(c.Request.Context(), viewerID, userID)
	if err != nil {
		c.JSON(getStatusCode(err), ResponseError{Message: err.Error()})
		return
	}

	c.JSON(http.StatusOK, response.NewRelationshipFromDomain(rel))
}

func (h *FollowHandler) Followers(c *gin.Context) {
	h.list(c, h.Service.Followers)
}

func (h *FollowHandler) Following(c *gin.Context) {
	h.list(c, h.Service.Following)
}

func (h *FollowHandler) list(c *gin.Context, fetch func(ctx context.Context, userID, limit int64) ([]domain.User, error)) {
	userID, ok := pathID(c, "id")
	if !ok {
		return
	}

	users, err := fetch(c.Request.Context(), userID, listLimit(c))
	if err != nil {
		c.JSON(getStatusCode(err), ResponseError{Message: err.Error()})
		return
	}

	res := make([]response.User, len(users))
	for i := range users {
		res[i] = response.NewUserFromDomain(&users[i])
	}
	c.JSON(http.StatusOK, res)
}

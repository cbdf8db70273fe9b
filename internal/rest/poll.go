package rest

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"

	"github.com/pulsefeed/engagement-core/domain"
	"github.com/pulsefeed/engagement-core/internal/rest/request"
)

var validate = validator.New()

// PollHandler represent the httphandler for polls
type PollHandler struct {
	Service domain.PollUsecase
}

func NewPollHandler(svc domain.PollUsecase) *PollHandler {
	return &PollHandler{
		Service: svc,
	}
}

func (h *PollHandler) Create(c *gin.Context) {
	if _, ok := authedUserID(c); !ok {
		return
	}

	var req request.CreatePoll
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ResponseError{Message: err.Error()})
		return
	}
	if err := validate.Struct(req); err != nil {
		c.JSON(http.StatusBadRequest, ResponseError{Message: err.Error()})
		return
	}

	poll := req.ToDomain()
	if err := h.Service.Create(c.Request.Context(), &poll); err != nil {
		c.JSON(getStatusCode(err), ResponseError{Message: err.Error()})
		return
	}

	snapshot, err := h.Service.Snapshot(c.Request.Context(), poll.ID, 0)
	if err != nil {
		c.JSON(getStatusCode(err), ResponseError{Message: err.Error()})
		return
	}
	c.JSON(http.StatusCreated, snapshot)
}

// CastVote records the caller's vote. A vote on a closed poll returns 410
// with the final snapshot in the body so the client can render results.
func (h *PollHandler) CastVote(c *gin.Context) {
	pollID, ok := pathID(c, "id")
	if !ok {
		return
	}
	userID, ok := authedUserID(c)
	if !ok {
		return
	}

	var req request.CastVote
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ResponseError{Message: err.Error()})
		return
	}
	if err := validate.Struct(req); err != nil {
		c.JSON(http.StatusBadRequest, ResponseError{Message: err.Error()})
		return
	}

	res, err := h.Service.CastVote(c.Request.Context(), pollID, userID, req.OptionID)
	if err != nil {
		if errors.Is(err, domain.ErrPollClosed) {
			c.JSON(http.StatusGone, res.Snapshot)
			return
		}
		c.JSON(getStatusCode(err), ResponseError{Message: err.Error()})
		return
	}

	c.JSON(http.StatusOK, res.Snapshot)
}

func (h *PollHandler) Snapshot(c *gin.Context) {
	pollID, ok := pathID(c, "id")
	if !ok {
		return
	}
	userID, ok := authedUserID(c)
	if !ok {
		return
	}

	snapshot, err := h.Service.Snapshot(c.Request.Context(), pollID, userID)
	if err != nil {
		c.JSON(getStatusCode(err), ResponseError{Message: err.Error()})
		return
	}

	c.JSON(http.StatusOK, snapshot)
}

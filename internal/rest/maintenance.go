package rest

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/pulsefeed/engagement-core/domain"
)

// MaintenanceHandler exposes operator-only repair endpoints.
type MaintenanceHandler struct {
	Reconciler domain.CounterReconciler
}

func NewMaintenanceHandler(r domain.CounterReconciler) *MaintenanceHandler {
	return &MaintenanceHandler{
		Reconciler: r,
	}
}

// Recount forces a recount of one edge-backed post counter from its edge
// table. Idempotent; safe to run while traffic is live.
func (h *MaintenanceHandler) Recount(c *gin.Context) {
	postID, ok := pathID(c, "id")
	if !ok {
		return
	}

	kind := domain.CounterKind(c.Param("kind"))
	if !kind.Valid() || !kind.EdgeBacked() {
		c.JSON(http.StatusBadRequest, ResponseError{Message: domain.ErrBadParamInput.Error()})
		return
	}

	count, err := h.Reconciler.Recount(c.Request.Context(), postID, kind)
	if err != nil {
		c.JSON(getStatusCode(err), ResponseError{Message: err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"post_id": postID, "kind": kind, "count": count})
}

// RecountUser rebuilds both of a user's follow counters from the follow
// edge table. Same backstop as Recount, aimed at the user columns.
func (h *MaintenanceHandler) RecountUser(c *gin.Context) {
	userID, ok := pathID(c, "id")
	if !ok {
		return
	}

	followers, following, err := h.Reconciler.RecountFollows(c.Request.Context(), userID)
	if err != nil {
		c.JSON(getStatusCode(err), ResponseError{Message: err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"user_id": userID, "followers": followers, "following": following})
}

package api

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"padaria-club-backend/internal/notification"
)

type notifyRequest struct {
	Title string `json:"title"`
	Body  string `json:"body" binding:"required"`
}

// NotifyPadaria handles POST /api/padarias/:id/notify. The owner pushes an
// arbitrary message to everyone subscribed to the padaria; expired
// subscriptions are pruned through the same path the sweep uses.
func (h *Handler) NotifyPadaria(c *gin.Context) {
	padaria, ok := h.ownedPadaria(c)
	if !ok {
		return
	}

	var req notifyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if !h.dispatcher.Enabled() {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "push delivery is not configured"})
		return
	}

	subscriptions, err := h.store.SubscriptionsForPadaria(c.Request.Context(), padaria.ID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to fetch subscriptions"})
		return
	}

	title := req.Title
	if title == "" {
		title = fmt.Sprintf("Novidade da %s", padaria.Name)
	}
	payload := notification.Payload{
		Title: title,
		Body:  req.Body,
		Icon:  h.cfg.Push.IconURL,
		URL:   fmt.Sprintf("%s/padarias/%d", h.cfg.Push.BaseURL, padaria.ID),
	}

	results := h.dispatcher.Dispatch(subscriptions, payload)
	notification.PruneExpired(c.Request.Context(), h.store, results)

	delivered := 0
	for _, r := range results {
		if r.Status == notification.StatusDelivered {
			delivered++
		}
	}

	c.JSON(http.StatusOK, gin.H{"subscribers": len(subscriptions), "delivered": delivered})
}

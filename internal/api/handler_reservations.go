package api

import (
	"errors"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"padaria-club-backend/internal/model"
	"padaria-club-backend/internal/mw"
	"padaria-club-backend/internal/notification"
)

type reservationRequest struct {
	EventID     string `json:"event_id"`
	ContactName string `json:"contact_name" binding:"required"`
}

// CreateReservation handles POST /api/padarias/:id/reservations. Public;
// callers with a valid bearer token get the reservation attached to their
// account. Free-plan owners are limited to a fixed number of reservations
// per calendar month across all their padarias.
func (h *Handler) CreateReservation(c *gin.Context) {
	padariaID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid padaria ID"})
		return
	}

	var req reservationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var padaria model.Padaria
	if err := h.store.DB().Preload("Owner").First(&padaria, padariaID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "padaria not found"})
		} else {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to retrieve padaria"})
		}
		return
	}

	if req.EventID != "" {
		var count int64
		if err := h.store.DB().Model(&model.FornadaEvent{}).
			Where("event_id = ? AND padaria_id = ?", req.EventID, padariaID).
			Count(&count).Error; err != nil || count == 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "unknown fornada event for this padaria"})
			return
		}
	}

	if padaria.Owner != nil && padaria.Owner.Plan == model.PlanFree {
		exhausted, err := h.quotaExhausted(c, *padaria.OwnerID)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to check reservation quota"})
			return
		}
		if exhausted {
			c.JSON(http.StatusTooManyRequests, gin.H{"error": "monthly reservation limit reached for this padaria"})
			return
		}
	}

	reservation := model.Reservation{
		PadariaID:   padariaID,
		EventID:     req.EventID,
		ContactName: req.ContactName,
	}
	if userID, ok := mw.UserID(c); ok {
		reservation.UserID = &userID
	}

	if err := h.store.DB().Create(&reservation).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create reservation"})
		return
	}

	h.alertOwner(c, padaria, reservation)

	c.JSON(http.StatusCreated, gin.H{"id": reservation.ID})
}

// quotaExhausted reports whether the owner already used this month's free
// reservation allowance. Month boundaries follow the configured timezone.
func (h *Handler) quotaExhausted(c *gin.Context, ownerID int64) (bool, error) {
	now := time.Now().In(h.loc)
	monthStart := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, h.loc)
	monthEnd := monthStart.AddDate(0, 1, 0)

	count, err := h.store.CountReservationsForOwner(c.Request.Context(), ownerID, monthStart, monthEnd)
	if err != nil {
		return false, err
	}
	return count >= int64(h.cfg.Quota.FreeMonthlyReservations), nil
}

// alertOwner pushes a best-effort "new reservation" notification to the
// padaria owner's own subscriptions. Failures are logged, never surfaced.
func (h *Handler) alertOwner(c *gin.Context, padaria model.Padaria, reservation model.Reservation) {
	if padaria.OwnerID == nil || !h.dispatcher.Enabled() {
		return
	}

	subscriptions, err := h.store.SubscriptionsForOwner(c.Request.Context(), *padaria.OwnerID)
	if err != nil {
		log.Printf("Error fetching owner subscriptions for padaria %d: %v", padaria.ID, err)
		return
	}
	if len(subscriptions) == 0 {
		return
	}

	payload := notification.Payload{
		Title: fmt.Sprintf("Nova reserva na %s", padaria.Name),
		Body:  fmt.Sprintf("%s acabou de reservar uma fornada.", reservation.ContactName),
		Icon:  h.cfg.Push.IconURL,
		URL:   fmt.Sprintf("%s/padarias/%d", h.cfg.Push.BaseURL, padaria.ID),
	}

	results := h.dispatcher.Dispatch(subscriptions, payload)
	notification.PruneExpired(c.Request.Context(), h.store, results)
}

// ListReservations handles GET /api/reservations: reservations across every
// padaria the caller owns, newest first.
func (h *Handler) ListReservations(c *gin.Context) {
	userID, ok := mw.UserID(c)
	if !ok {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "authentication required"})
		return
	}

	var reservations []model.Reservation
	err := h.store.DB().
		Joins("JOIN padarias ON padarias.id = reservations.padaria_id").
		Where("padarias.owner_id = ?", userID).
		Order("reservations.created_at DESC").
		Find(&reservations).Error
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to retrieve reservations"})
		return
	}

	c.JSON(http.StatusOK, reservations)
}

package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"sort"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"padaria-club-backend/internal/geo"
	"padaria-club-backend/internal/model"
	"padaria-club-backend/internal/mw"
)

// fornadaEventInput accepts both the legacy bare-string form ("16:00") and
// the richer object form ({id, time, description}). Both decode into the same
// normalized shape.
type fornadaEventInput struct {
	ID          string `json:"id"`
	Time        string `json:"time"`
	Description string `json:"description"`
}

func (e *fornadaEventInput) UnmarshalJSON(data []byte) error {
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*e = fornadaEventInput{Time: s}
		return nil
	}

	type plain fornadaEventInput
	var p plain
	if err := json.Unmarshal(data, &p); err != nil {
		return err
	}
	*e = fornadaEventInput(p)
	return nil
}

type padariaRequest struct {
	Name        string              `json:"name" binding:"required"`
	Description string              `json:"description"`
	Address     string              `json:"address"`
	Latitude    float64             `json:"latitude"`
	Longitude   float64             `json:"longitude"`
	Icon        string              `json:"icon"`
	Events      []fornadaEventInput `json:"events"`
}

// buildEvents normalizes the event inputs into model rows, minting a stable
// id for events that arrived without one.
func buildEvents(padariaID int64, inputs []fornadaEventInput) []model.FornadaEvent {
	events := make([]model.FornadaEvent, 0, len(inputs))
	for _, in := range inputs {
		id := in.ID
		if id == "" {
			id = uuid.NewString()
		}
		events = append(events, model.FornadaEvent{
			EventID:     id,
			PadariaID:   padariaID,
			Time:        in.Time,
			Description: in.Description,
		})
	}
	return events
}

type padariaResponse struct {
	ID          int64                  `json:"id"`
	Name        string                 `json:"name"`
	Description string                 `json:"description"`
	Address     string                 `json:"address"`
	Latitude    float64                `json:"latitude"`
	Longitude   float64                `json:"longitude"`
	Icon        string                 `json:"icon"`
	Events      []fornadaEventResponse `json:"events"`
	DistanceKm  *float64               `json:"distanceKm,omitempty"`
}

type fornadaEventResponse struct {
	ID          string `json:"id"`
	Time        string `json:"time"`
	Description string `json:"description,omitempty"`
}

func toPadariaResponse(p model.Padaria) padariaResponse {
	events := make([]fornadaEventResponse, len(p.Events))
	for i, e := range p.Events {
		events[i] = fornadaEventResponse{ID: e.EventID, Time: e.Time, Description: e.Description}
	}
	return padariaResponse{
		ID:          p.ID,
		Name:        p.Name,
		Description: p.Description,
		Address:     p.Address,
		Latitude:    p.Latitude,
		Longitude:   p.Longitude,
		Icon:        p.Icon,
		Events:      events,
	}
}

// ListPadarias handles GET /api/padarias. When lat and lng query parameters
// are present the listing is sorted by haversine distance and each row
// carries distanceKm.
func (h *Handler) ListPadarias(c *gin.Context) {
	padarias, err := h.store.PadariasWithEvents(c.Request.Context())
	if err != nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "failed to retrieve padarias"})
		return
	}

	responses := make([]padariaResponse, len(padarias))
	for i, p := range padarias {
		responses[i] = toPadariaResponse(p)
	}

	latStr, lngStr := c.Query("lat"), c.Query("lng")
	if latStr != "" && lngStr != "" {
		lat, errLat := strconv.ParseFloat(latStr, 64)
		lng, errLng := strconv.ParseFloat(lngStr, 64)
		if errLat != nil || errLng != nil {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid lat/lng"})
			return
		}
		for i := range responses {
			d := geo.DistanceKm(lat, lng, responses[i].Latitude, responses[i].Longitude)
			responses[i].DistanceKm = &d
		}
		sort.Slice(responses, func(i, j int) bool {
			return *responses[i].DistanceKm < *responses[j].DistanceKm
		})
	}

	c.JSON(http.StatusOK, responses)
}

// GetPadaria handles GET /api/padarias/:id.
func (h *Handler) GetPadaria(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid padaria ID"})
		return
	}

	var padaria model.Padaria
	if err := h.store.DB().Preload("Events").First(&padaria, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "padaria not found"})
		} else {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to retrieve padaria"})
		}
		return
	}

	c.JSON(http.StatusOK, toPadariaResponse(padaria))
}

// CreatePadaria handles POST /api/padarias. The authenticated caller becomes
// the owner.
func (h *Handler) CreatePadaria(c *gin.Context) {
	userID, ok := mw.UserID(c)
	if !ok {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "authentication required"})
		return
	}

	var req padariaRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	padaria := model.Padaria{
		Name:        req.Name,
		Description: req.Description,
		Address:     req.Address,
		Latitude:    req.Latitude,
		Longitude:   req.Longitude,
		Icon:        req.Icon,
		OwnerID:     &userID,
	}

	err := h.store.DB().Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&padaria).Error; err != nil {
			return err
		}
		events := buildEvents(padaria.ID, req.Events)
		if len(events) == 0 {
			return nil
		}
		return tx.Create(&events).Error
	})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create padaria"})
		return
	}

	c.JSON(http.StatusCreated, gin.H{"id": padaria.ID})
}

// ownedPadaria loads a padaria and checks the caller owns it. Writes the
// error response itself and reports ok=false when the caller should stop.
func (h *Handler) ownedPadaria(c *gin.Context) (model.Padaria, bool) {
	var padaria model.Padaria

	userID, ok := mw.UserID(c)
	if !ok {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "authentication required"})
		return padaria, false
	}

	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid padaria ID"})
		return padaria, false
	}

	if err := h.store.DB().Preload("Events").First(&padaria, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": "padaria not found"})
		} else {
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "failed to retrieve padaria"})
		}
		return padaria, false
	}

	if padaria.OwnerID == nil || *padaria.OwnerID != userID {
		c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "not the owner of this padaria"})
		return padaria, false
	}
	return padaria, true
}

// UpdatePadaria handles PUT /api/padarias/:id. The event list is replaced
// wholesale with the submitted one.
func (h *Handler) UpdatePadaria(c *gin.Context) {
	padaria, ok := h.ownedPadaria(c)
	if !ok {
		return
	}

	var req padariaRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	padaria.Name = req.Name
	padaria.Description = req.Description
	padaria.Address = req.Address
	padaria.Latitude = req.Latitude
	padaria.Longitude = req.Longitude
	padaria.Icon = req.Icon

	err := h.store.DB().Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit("Events").Save(&padaria).Error; err != nil {
			return err
		}
		if err := tx.Where("padaria_id = ?", padaria.ID).Delete(&model.FornadaEvent{}).Error; err != nil {
			return err
		}
		events := buildEvents(padaria.ID, req.Events)
		if len(events) == 0 {
			return nil
		}
		return tx.Create(&events).Error
	})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to update padaria"})
		return
	}

	c.Status(http.StatusNoContent)
}

// DeletePadaria handles DELETE /api/padarias/:id.
func (h *Handler) DeletePadaria(c *gin.Context) {
	padaria, ok := h.ownedPadaria(c)
	if !ok {
		return
	}

	err := h.store.DB().Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("padaria_id = ?", padaria.ID).Delete(&model.FornadaEvent{}).Error; err != nil {
			return err
		}
		return tx.Delete(&model.Padaria{}, padaria.ID).Error
	})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to delete padaria"})
		return
	}

	c.Status(http.StatusNoContent)
}

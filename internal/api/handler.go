package api

import (
	"time"

	"padaria-club-backend/config"
	"padaria-club-backend/internal/auth"
	"padaria-club-backend/internal/notification"
	"padaria-club-backend/internal/store"
)

// Handler holds shared dependencies for API handlers.
type Handler struct {
	store      store.Store
	dispatcher *notification.Dispatcher
	tokens     *auth.TokenIssuer
	cfg        *config.Config
	loc        *time.Location
}

// NewHandler creates a new API handler. loc is the civil timezone used for
// quota month boundaries.
func NewHandler(s store.Store, d *notification.Dispatcher, tokens *auth.TokenIssuer, cfg *config.Config, loc *time.Location) *Handler {
	return &Handler{
		store:      s,
		dispatcher: d,
		tokens:     tokens,
		cfg:        cfg,
		loc:        loc,
	}
}

package api

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/patrickmn/go-cache"
	"golang.org/x/time/rate"

	"padaria-club-backend/internal/mw"
)

// NewRouter creates and configures a new Gin router.
func NewRouter(h *Handler) *gin.Engine {
	r := gin.Default()

	cfg := h.cfg
	rateLimiter := mw.RateLimiter(rate.Limit(cfg.Server.RateLimitPerSec), cfg.Server.RateLimitBurst)

	cacheTTL := time.Duration(cfg.Server.CacheTTLSeconds) * time.Second
	cacheStore := cache.New(cacheTTL, 2*cacheTTL)
	caching := mw.Cache(cacheStore, cacheTTL)

	requireAuth := mw.Auth(h.tokens)
	optionalAuth := mw.OptionalAuth(h.tokens)

	api := r.Group("/api")
	api.Use(rateLimiter)
	{
		api.POST("/auth/register", h.Register)
		api.POST("/auth/login", h.Login)

		api.GET("/padarias", caching, h.ListPadarias)
		api.GET("/padarias/:id", h.GetPadaria)
		api.POST("/padarias", requireAuth, h.CreatePadaria)
		api.PUT("/padarias/:id", requireAuth, h.UpdatePadaria)
		api.DELETE("/padarias/:id", requireAuth, h.DeletePadaria)
		api.POST("/padarias/:id/notify", requireAuth, h.NotifyPadaria)

		api.POST("/padarias/:id/reservations", optionalAuth, h.CreateReservation)
		api.GET("/reservations", requireAuth, h.ListReservations)

		api.GET("/subscriptions", h.GetSubscription)
		api.PUT("/subscriptions", optionalAuth, h.PutSubscription)
		api.DELETE("/subscriptions", h.DeleteSubscription)
		api.GET("/vapid_public_key", h.GetVAPIDPublicKey)
	}

	return r
}

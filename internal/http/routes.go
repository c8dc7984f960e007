package http

import (
	"lingo_xp/internal/config"
	"lingo_xp/internal/http/handlers"
	"lingo_xp/internal/http/middleware"
	"lingo_xp/internal/ws"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Deps are the wired components the router needs
type Deps struct {
	Service handlers.GamificationService
	DB      handlers.Pinger
	Redis   handlers.Pinger // nil when redis is not configured
	Hub     *ws.Hub
}

func RegisterRoutes(r *gin.Engine, cfg *config.Config, deps Deps) {
	h := handlers.NewHandler(deps.Service)
	healthHandler := handlers.NewHealthHandler(deps.DB, deps.Redis, cfg.AppVersion)

	r.Use(middleware.RequestLogger())
	r.Use(middleware.CORS(cfg.AllowedOrigin))

	// Health checks (no rate limiting)
	r.GET("/health", healthHandler.Health)
	r.GET("/healthz", healthHandler.Liveness)
	r.GET("/readyz", healthHandler.Readiness)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	if deps.Hub != nil {
		r.GET("/ws/leaderboard", ws.HandleWS(deps.Hub, cfg.AllowedOrigin))
	}

	// Clients built against the bare paths keep working
	root := r.Group("")
	root.Use(middleware.RateLimit(cfg.APIRateLimit, cfg.APIRateWindow))
	registerGamificationRoutes(root, h, cfg)

	v1 := r.Group("/api/v1")
	v1.Use(middleware.RateLimit(cfg.APIRateLimit, cfg.APIRateWindow))
	registerGamificationRoutes(v1, h, cfg)
}

func registerGamificationRoutes(api *gin.RouterGroup, h *handlers.Handler, cfg *config.Config) {
	xpRL := middleware.XPRateLimit(cfg.XPRateLimit, cfg.XPRateWindow)

	g := api.Group("/gamification")
	g.POST("/sync-xp", middleware.JWT(), xpRL, h.SyncXP)
	g.POST("/add-xp", middleware.JWT(), xpRL, h.AddXP)
	g.GET("/leaderboard", h.GetLeaderboard)
	g.GET("/user-rank/:user_id", h.GetUserRank)
}

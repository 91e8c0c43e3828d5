package http

import (
	"github.com/MarcMahler/gamehub-backend/internal/config"
	"github.com/MarcMahler/gamehub-backend/internal/http/handlers"
	"github.com/MarcMahler/gamehub-backend/internal/http/middleware"
	"github.com/MarcMahler/gamehub-backend/internal/repository"
	"github.com/MarcMahler/gamehub-backend/internal/service"
	"github.com/MarcMahler/gamehub-backend/internal/ws"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
)

// RegisterRoutes wires repositories, services and handlers onto the router
// and returns the session service so callers can attach the sweeper.
func RegisterRoutes(r *gin.Engine, db *pgxpool.Pool, cfg *config.Config, version string) *service.SessionService {
	sessionRepo := repository.NewSessionRepository(db)
	participantRepo := repository.NewParticipantRepository(db)
	adminRepo := repository.NewAdminRepository(db)

	hub := ws.NewHub()
	stats := service.NewStatsService(sessionRepo, participantRepo)
	sessions := service.NewSessionService(sessionRepo, participantRepo, stats, hub)

	h := handlers.NewHandler(db, sessions, stats, participantRepo)
	adminHandler := handlers.NewAdminHandler(adminRepo)
	healthHandler := handlers.NewHealthHandler(db, version)

	// Health checks bypass rate limiting.
	r.GET("/health", healthHandler.Health)
	r.GET("/healthz", healthHandler.Liveness)
	r.GET("/readyz", healthHandler.Readiness)

	r.GET("/ws", ws.HandleWS(hub, cfg.AllowedOrigin))

	rl := middleware.RateLimit(cfg.APIRateLimit, cfg.APIRateWindow)

	v1 := r.Group("/api/v1")
	v1.Use(rl)
	registerAPIRoutes(v1, h, adminHandler)

	// Legacy /api alias kept for older clients.
	api := r.Group("/api")
	api.Use(rl)
	registerAPIRoutes(api, h, adminHandler)

	return sessions
}

func registerAPIRoutes(api *gin.RouterGroup, h *handlers.Handler, admin *handlers.AdminHandler) {
	api.POST("/auth/login", h.Login)

	// Session lifecycle. /sessions/stats is registered before the :id routes
	// so gin does not shadow it.
	api.GET("/sessions", h.ListSessions)
	api.GET("/sessions/stats", h.SessionOverview)
	api.POST("/sessions", h.CreateSession)
	api.GET("/sessions/:id", h.GetSession)
	api.POST("/sessions/:id/join", h.JoinSession)
	api.POST("/sessions/:id/move", h.RecordMove)
	api.PUT("/sessions/:id/end", h.EndSession)

	// Participant CRUD and statistics.
	api.GET("/participants", h.ListParticipants)
	api.POST("/participants", h.CreateParticipant)
	api.GET("/participants/:id", h.GetParticipant)
	api.PUT("/participants/:id", h.UpdateParticipant)
	api.DELETE("/participants/:id", h.DeleteParticipant)
	api.GET("/participants/:id/stats", h.ParticipantStats)

	// Storage introspection, authenticated.
	adminGroup := api.Group("/admin/database")
	adminGroup.Use(middleware.JWT())
	{
		adminGroup.GET("/structure", admin.Structure)
		adminGroup.GET("/tables/:name", admin.TableDetail)
	}
}

package handlers

import (
	"errors"
	"net/http"

	"github.com/MarcMahler/gamehub-backend/internal/domain"
	"github.com/MarcMahler/gamehub-backend/internal/repository"
	"github.com/MarcMahler/gamehub-backend/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
)

type Handler struct {
	DB           *pgxpool.Pool
	Sessions     *service.SessionService
	Stats        *service.StatsService
	Participants *repository.ParticipantRepository
}

func NewHandler(db *pgxpool.Pool, sessions *service.SessionService, stats *service.StatsService, participants *repository.ParticipantRepository) *Handler {
	return &Handler{
		DB:           db,
		Sessions:     sessions,
		Stats:        stats,
		Participants: participants,
	}
}

// respondError maps the domain error taxonomy onto HTTP statuses. Unknown
// errors become opaque 500s; the taxonomy is the whole caller-facing surface.
func respondError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, domain.ErrNotFound),
		errors.Is(err, domain.ErrParticipantNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, domain.ErrInvalidState),
		errors.Is(err, domain.ErrSessionFull),
		errors.Is(err, domain.ErrDuplicateParticipant),
		errors.Is(err, domain.ErrOutOfTurn),
		errors.Is(err, domain.ErrDuplicateIdentity):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.Is(err, domain.ErrInvalidGameKind),
		errors.Is(err, domain.ErrNotAParticipant):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}

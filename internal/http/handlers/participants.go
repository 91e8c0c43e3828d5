package handlers

import (
	"net/http"
	"strings"

	"github.com/MarcMahler/gamehub-backend/internal/domain"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

type createParticipantRequest struct {
	Username string `json:"username" binding:"required"`
	Email    string `json:"email" binding:"required"`
	Password string `json:"password"`
	Avatar   string `json:"avatar"`
}

// CreateParticipant handles POST /participants.
func (h *Handler) CreateParticipant(c *gin.Context) {
	var req createParticipantRequest
	if err := c.BindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "bad request"})
		return
	}
	if msg := validateIdentity(req.Username, req.Email, req.Password); msg != "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": msg})
		return
	}

	p := &domain.Participant{
		ID:       uuid.New(),
		Username: req.Username,
		Email:    strings.ToLower(req.Email),
		Avatar:   req.Avatar,
	}
	if req.Password != "" {
		hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
			return
		}
		p.PasswordHash = string(hash)
	}

	if err := h.Participants.Create(c.Request.Context(), p); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, p)
}

// ListParticipants handles GET /participants.
func (h *Handler) ListParticipants(c *gin.Context) {
	participants, err := h.Participants.List(c.Request.Context(), 100)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, participants)
}

// GetParticipant handles GET /participants/:id.
func (h *Handler) GetParticipant(c *gin.Context) {
	id, ok := participantID(c)
	if !ok {
		return
	}

	p, err := h.Participants.GetByID(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, p)
}

type updateParticipantRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Avatar   string `json:"avatar"`
}

// UpdateParticipant handles PUT /participants/:id.
func (h *Handler) UpdateParticipant(c *gin.Context) {
	id, ok := participantID(c)
	if !ok {
		return
	}

	var req updateParticipantRequest
	if err := c.BindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "bad request"})
		return
	}
	if req.Username != "" || req.Email != "" {
		if msg := validateIdentity(
			orDefault(req.Username, "placeholder"),
			orDefault(strings.ToLower(req.Email), "placeholder@example.com"),
			"",
		); msg != "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": msg})
			return
		}
	}

	p, err := h.Participants.Update(c.Request.Context(), id, req.Username, strings.ToLower(req.Email), req.Avatar)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, p)
}

// DeleteParticipant handles DELETE /participants/:id. Historical sessions
// keep their join-time snapshots and are left untouched.
func (h *Handler) DeleteParticipant(c *gin.Context) {
	id, ok := participantID(c)
	if !ok {
		return
	}

	if err := h.Participants.Delete(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "participant deleted"})
}

// ParticipantStats handles GET /participants/:id/stats.
func (h *Handler) ParticipantStats(c *gin.Context) {
	id, ok := participantID(c)
	if !ok {
		return
	}

	stats, err := h.Stats.ForParticipant(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}

	recent := make([]gin.H, 0, len(stats.Recent))
	for _, s := range stats.Recent {
		recent = append(recent, sessionView(s))
	}

	c.JSON(http.StatusOK, gin.H{
		"participant":    stats.Participant,
		"winRate":        stats.WinRate,
		"gameKindStats":  stats.ByKind,
		"recentSessions": recent,
	})
}

func participantID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid participant id"})
		return uuid.Nil, false
	}
	return id, true
}

// validateIdentity mirrors the storage constraints so malformed fields fail
// before a round trip: username 3-20 chars, plausible email, password 6+.
func validateIdentity(username, email, password string) string {
	if len(username) < 3 || len(username) > 20 {
		return "username must be 3-20 characters"
	}
	at := strings.Index(email, "@")
	if at <= 0 || at == len(email)-1 || !strings.Contains(email[at:], ".") {
		return "invalid email"
	}
	if password != "" && len(password) < 6 {
		return "password must be at least 6 characters"
	}
	return ""
}

func orDefault(v, fallback string) string {
	if v == "" {
		return fallback
	}
	return v
}

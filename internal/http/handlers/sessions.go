package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/MarcMahler/gamehub-backend/internal/domain"
	"github.com/MarcMahler/gamehub-backend/internal/repository"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type createSessionRequest struct {
	GameKind      string              `json:"gameKind" binding:"required"`
	ParticipantID string              `json:"participantId" binding:"required"`
	TimeControl   *domain.TimeControl `json:"timeControl"`
}

// CreateSession handles POST /sessions.
func (h *Handler) CreateSession(c *gin.Context) {
	var req createSessionRequest
	if err := c.BindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "bad request"})
		return
	}

	creatorID, err := uuid.Parse(req.ParticipantID)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid participantId"})
		return
	}

	sess, err := h.Sessions.Create(c.Request.Context(), domain.GameKind(req.GameKind), creatorID, req.TimeControl)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, sessionView(sess))
}

// ListSessions handles GET /sessions with status, gameKind and participant
// filters.
func (h *Handler) ListSessions(c *gin.Context) {
	f := repository.SessionFilter{
		Status:   domain.SessionStatus(c.Query("status")),
		GameKind: domain.GameKind(c.Query("gameKind")),
	}
	if p := c.Query("participant"); p != "" {
		pid, err := uuid.Parse(p)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid participant filter"})
			return
		}
		f.ParticipantID = &pid
	}

	sessions, err := h.Sessions.List(c.Request.Context(), f)
	if err != nil {
		respondError(c, err)
		return
	}

	out := make([]gin.H, 0, len(sessions))
	for _, s := range sessions {
		out = append(out, sessionView(s))
	}
	c.JSON(http.StatusOK, out)
}

// GetSession handles GET /sessions/:id.
func (h *Handler) GetSession(c *gin.Context) {
	id, ok := sessionID(c)
	if !ok {
		return
	}

	sess, err := h.Sessions.Get(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, sessionView(sess))
}

type joinSessionRequest struct {
	ParticipantID string `json:"participantId" binding:"required"`
}

// JoinSession handles POST /sessions/:id/join.
func (h *Handler) JoinSession(c *gin.Context) {
	id, ok := sessionID(c)
	if !ok {
		return
	}

	var req joinSessionRequest
	if err := c.BindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "bad request"})
		return
	}
	joinerID, err := uuid.Parse(req.ParticipantID)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid participantId"})
		return
	}

	sess, err := h.Sessions.Join(c.Request.Context(), id, joinerID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, sessionView(sess))
}

type recordMoveRequest struct {
	ParticipantID string          `json:"participantId" binding:"required"`
	Move          json.RawMessage `json:"move" binding:"required"`
}

// RecordMove handles POST /sessions/:id/move.
func (h *Handler) RecordMove(c *gin.Context) {
	id, ok := sessionID(c)
	if !ok {
		return
	}

	var req recordMoveRequest
	if err := c.BindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "bad request"})
		return
	}
	participantID, err := uuid.Parse(req.ParticipantID)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid participantId"})
		return
	}

	sess, err := h.Sessions.RecordMove(c.Request.Context(), id, participantID, req.Move)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, sessionView(sess))
}

type endSessionRequest struct {
	WinnerID string `json:"winnerId"`
	IsDraw   bool   `json:"isDraw"`
}

// EndSession handles PUT /sessions/:id/end. Winner and draw flag are
// caller-supplied; no win condition is verified server-side.
func (h *Handler) EndSession(c *gin.Context) {
	id, ok := sessionID(c)
	if !ok {
		return
	}

	var req endSessionRequest
	if err := c.BindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "bad request"})
		return
	}

	var winnerID *uuid.UUID
	if req.WinnerID != "" {
		wid, err := uuid.Parse(req.WinnerID)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid winnerId"})
			return
		}
		winnerID = &wid
	}

	sess, err := h.Sessions.End(c.Request.Context(), id, winnerID, req.IsDraw)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, sessionView(sess))
}

// SessionOverview handles GET /sessions/stats.
func (h *Handler) SessionOverview(c *gin.Context) {
	ov, err := h.Sessions.Overview(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, ov)
}

func sessionID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid session id"})
		return uuid.Nil, false
	}
	return id, true
}

// sessionView serializes a session plus its derived duration.
func sessionView(s *domain.Session) gin.H {
	view := gin.H{
		"id":           s.ID,
		"gameKind":     s.GameKind,
		"status":       s.Status,
		"participants": s.Participants,
		"isDraw":       s.IsDraw,
		"board":        s.Board,
		"moveHistory":  s.MoveHistory,
		"moveCount":    s.MoveCount,
		"createdAt":    s.CreatedAt,
	}
	if s.WinnerID != nil {
		view["winnerId"] = s.WinnerID
	}
	if s.Turn != "" {
		view["turn"] = s.Turn
	}
	if s.TimeControl != nil {
		view["timing"] = s.TimeControl
	}
	if s.Remaining != nil {
		view["remaining"] = s.Remaining
	}
	if s.StartedAt != nil {
		view["startedAt"] = s.StartedAt
	}
	if s.CompletedAt != nil {
		view["completedAt"] = s.CompletedAt
	}
	if s.LastMoveAt != nil {
		view["lastMoveAt"] = s.LastMoveAt
	}
	if d := s.DurationSeconds(); d != nil {
		view["duration"] = *d
	}
	return view
}

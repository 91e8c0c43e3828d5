package domain

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

type GameKind string

const (
	KindTicTacToe GameKind = "tictactoe"
	KindChess     GameKind = "chess"
	KindCheckers  GameKind = "checkers"
	KindConnect4  GameKind = "connect4"
)

type SessionStatus string

const (
	StatusWaiting   SessionStatus = "waiting"
	StatusActive    SessionStatus = "active"
	StatusCompleted SessionStatus = "completed"
	StatusAbandoned SessionStatus = "abandoned"
)

// Terminal reports whether no further transitions are permitted.
func (s SessionStatus) Terminal() bool {
	return s == StatusCompleted || s == StatusAbandoned
}

// PlayerSlot is the snapshot of a participant taken at join time. The live
// participant record is referenced by id only.
type PlayerSlot struct {
	ParticipantID uuid.UUID `json:"participantId"`
	DisplayName   string    `json:"displayName"`
	Side          string    `json:"side"`
	JoinedAt      time.Time `json:"joinedAt"`
}

// Move is one entry of the append-only move log. Payload is opaque
// gameKind-specific data and is never interpreted here.
type Move struct {
	ParticipantID  uuid.UUID       `json:"participantId"`
	Payload        json.RawMessage `json:"payload"`
	SubmittedAt    time.Time       `json:"submittedAt"`
	SequenceNumber int             `json:"sequenceNumber"`
}

type TimeControl struct {
	Mode             string `json:"mode"` // blitz, rapid, classical, unlimited
	LimitSeconds     int    `json:"limitSeconds"`
	IncrementSeconds int    `json:"incrementSeconds"`
}

// Session is one game instance. It owns its participant snapshots, board and
// move log; the status transitions below are the only legal ones:
//
//	waiting -> active -> completed
//	waiting|active -> abandoned
type Session struct {
	ID           uuid.UUID       `json:"id"`
	GameKind     GameKind        `json:"gameKind"`
	Status       SessionStatus   `json:"status"`
	Participants []PlayerSlot    `json:"participants"`
	WinnerID     *uuid.UUID      `json:"winnerId,omitempty"`
	IsDraw       bool            `json:"isDraw"`
	Board        json.RawMessage `json:"board"`
	Turn         string          `json:"turn,omitempty"`
	MoveHistory  []Move          `json:"moveHistory"`
	MoveCount    int             `json:"moveCount"`
	TimeControl  *TimeControl    `json:"timing,omitempty"`
	Remaining    map[string]int  `json:"remaining,omitempty"` // side -> seconds left
	CreatedAt    time.Time       `json:"createdAt"`
	StartedAt    *time.Time      `json:"startedAt,omitempty"`
	CompletedAt  *time.Time      `json:"completedAt,omitempty"`
	LastMoveAt   *time.Time      `json:"lastMoveAt,omitempty"`
}

// Slot returns the participant snapshot for the given id.
func (s *Session) Slot(participantID uuid.UUID) (PlayerSlot, bool) {
	for _, p := range s.Participants {
		if p.ParticipantID == participantID {
			return p, true
		}
	}
	return PlayerSlot{}, false
}

// AddParticipant appends the second player and transitions waiting -> active,
// stamping StartedAt exactly once.
func (s *Session) AddParticipant(slot PlayerSlot) error {
	if _, ok := s.Slot(slot.ParticipantID); ok {
		return ErrDuplicateParticipant
	}
	if len(s.Participants) >= 2 {
		return ErrSessionFull
	}
	if s.Status != StatusWaiting {
		return ErrInvalidState
	}

	s.Participants = append(s.Participants, slot)
	if len(s.Participants) == 2 {
		s.Status = StatusActive
		at := slot.JoinedAt
		s.StartedAt = &at
	}
	return nil
}

// ApplyMove appends a move with the next sequence number, increments
// MoveCount, stamps LastMoveAt and flips Turn to the other side.
func (s *Session) ApplyMove(participantID uuid.UUID, payload json.RawMessage, at time.Time) (Move, error) {
	if s.Status != StatusActive {
		return Move{}, ErrInvalidState
	}
	slot, ok := s.Slot(participantID)
	if !ok {
		return Move{}, ErrNotAParticipant
	}
	if s.Turn != "" && slot.Side != s.Turn {
		return Move{}, ErrOutOfTurn
	}

	mv := Move{
		ParticipantID:  participantID,
		Payload:        payload,
		SubmittedAt:    at,
		SequenceNumber: s.MoveCount + 1,
	}
	s.MoveHistory = append(s.MoveHistory, mv)
	s.MoveCount++
	s.LastMoveAt = &at
	s.Turn = s.nextTurn(slot.Side)
	return mv, nil
}

// nextTurn is the naive two-value alternation: the side of the other
// participant. Game kinds with multi-step turns would need their own policy.
func (s *Session) nextTurn(moved string) string {
	for _, p := range s.Participants {
		if p.Side != moved {
			return p.Side
		}
	}
	return moved
}

// Finish forces a terminal completed status. WinnerID and IsDraw are
// caller-supplied: win detection belongs to per-gameKind rule engines.
func (s *Session) Finish(winnerID *uuid.UUID, isDraw bool, at time.Time) error {
	if s.Status.Terminal() {
		return ErrInvalidState
	}
	if isDraw {
		winnerID = nil
	}
	s.Status = StatusCompleted
	s.WinnerID = winnerID
	s.IsDraw = isDraw
	s.CompletedAt = &at
	s.Turn = ""
	return nil
}

// Abandon marks the session abandoned (disconnect or forfeit handling).
func (s *Session) Abandon(at time.Time) error {
	if s.Status.Terminal() {
		return ErrInvalidState
	}
	s.Status = StatusAbandoned
	s.CompletedAt = &at
	s.Turn = ""
	return nil
}

// DurationSeconds returns how long a finished session ran, nil until both
// StartedAt and CompletedAt are set.
func (s *Session) DurationSeconds() *int {
	if s.StartedAt == nil || s.CompletedAt == nil {
		return nil
	}
	d := int(s.CompletedAt.Sub(*s.StartedAt).Round(time.Second) / time.Second)
	return &d
}

// SessionEvent is broadcast to websocket subscribers on every lifecycle step.
type SessionEvent struct {
	Type    string   `json:"type"`
	Session *Session `json:"session"`
}

const (
	EventSessionCreated    = "session_created"
	EventParticipantJoined = "participant_joined"
	EventMoveRecorded      = "move_recorded"
	EventSessionEnded      = "session_ended"
)

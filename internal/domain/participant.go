package domain

import (
	"time"

	"github.com/google/uuid"
)

// Participant is a registered identity that can join sessions. The cumulative
// counters are mutated only by the statistics aggregator when a session
// reaches a terminal completed state.
type Participant struct {
	ID           uuid.UUID `json:"id"`
	Username     string    `json:"username"`
	Email        string    `json:"email"`
	Avatar       string    `json:"avatar"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"createdAt"`
	LastActive   time.Time `json:"lastActive"`
	GamesPlayed  int64     `json:"gamesPlayed"`
	Wins         int64     `json:"wins"`
	Losses       int64     `json:"losses"`
	Draws        int64     `json:"draws"`
}

// WinRate is wins over games played, 0 when no games were played.
func (p *Participant) WinRate() float64 {
	if p.GamesPlayed == 0 {
		return 0
	}
	return float64(p.Wins) / float64(p.GamesPlayed)
}

// KindStats is the per-gameKind breakdown of a participant's record.
type KindStats struct {
	GameKind GameKind `json:"gameKind"`
	Played   int64    `json:"played"`
	Won      int64    `json:"won"`
	Lost     int64    `json:"lost"`
	Drawn    int64    `json:"drawn"`
	Rating   int64    `json:"rating"`
}

type Outcome string

const (
	OutcomeWin  Outcome = "win"
	OutcomeLoss Outcome = "loss"
	OutcomeDraw Outcome = "draw"
)

// OutcomeFor classifies a finished session from one participant's viewpoint.
func OutcomeFor(winnerID *uuid.UUID, isDraw bool, participantID uuid.UUID) Outcome {
	if isDraw {
		return OutcomeDraw
	}
	if winnerID != nil && *winnerID == participantID {
		return OutcomeWin
	}
	return OutcomeLoss
}

package service

import (
	"context"

	"github.com/MarcMahler/gamehub-backend/internal/domain"
	"github.com/MarcMahler/gamehub-backend/internal/logger"

	"github.com/google/uuid"
)

// StatsService is the statistics aggregator. The write side runs once per
// terminal transition (the absorbing terminal states are the only idempotency
// guard, there is no separate token); the read side is purely derived.
type StatsService struct {
	sessions     SessionStore
	participants ParticipantStore
}

func NewStatsService(sessions SessionStore, participants ParticipantStore) *StatsService {
	return &StatsService{sessions: sessions, participants: participants}
}

// Apply updates both participants' records for one completed session. The two
// updates are independent and may land in either order; each participant's
// own update is atomic with respect to their other concurrent games. A failed
// update is logged, not propagated: the session is already terminal and the
// caller cannot retry without double-counting the other participant.
func (s *StatsService) Apply(ctx context.Context, sess *domain.Session) {
	for _, slot := range sess.Participants {
		outcome := domain.OutcomeFor(sess.WinnerID, sess.IsDraw, slot.ParticipantID)
		if err := s.participants.ApplyResult(ctx, slot.ParticipantID, sess.GameKind, outcome); err != nil {
			logger.Error("failed to apply session result",
				"session", sess.ID, "participant", slot.ParticipantID, "error", err)
		}
	}
}

// ParticipantStats is the read-side view of one participant's record.
type ParticipantStats struct {
	Participant *domain.Participant `json:"participant"`
	WinRate     float64             `json:"winRate"`
	ByKind      []domain.KindStats  `json:"gameKindStats"`
	Recent      []*domain.Session   `json:"recentSessions"`
}

// ForParticipant assembles the cumulative counters, win rate, per-kind
// breakdown and the latest completed sessions.
func (s *StatsService) ForParticipant(ctx context.Context, id uuid.UUID) (*ParticipantStats, error) {
	p, err := s.participants.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	byKind, err := s.participants.KindStats(ctx, id)
	if err != nil {
		return nil, err
	}

	recent, err := s.sessions.RecentCompleted(ctx, id, 5)
	if err != nil {
		return nil, err
	}

	return &ParticipantStats{
		Participant: p,
		WinRate:     p.WinRate(),
		ByKind:      byKind,
		Recent:      recent,
	}, nil
}

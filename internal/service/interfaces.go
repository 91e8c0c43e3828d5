package service

import (
	"context"
	"time"

	"github.com/MarcMahler/gamehub-backend/internal/domain"
	"github.com/MarcMahler/gamehub-backend/internal/repository"

	"github.com/google/uuid"
)

// SessionStore is the persistence contract the session service works against.
// The conditional mutators return false when the compare-and-update predicate
// did not hold, so the service can re-read and classify the conflict instead
// of corrupting history.
type SessionStore interface {
	Insert(ctx context.Context, s *domain.Session) error
	Get(ctx context.Context, id uuid.UUID) (*domain.Session, error)
	List(ctx context.Context, f repository.SessionFilter) ([]*domain.Session, error)
	AppendParticipant(ctx context.Context, id uuid.UUID, slot domain.PlayerSlot) (bool, error)
	AppendMove(ctx context.Context, id uuid.UUID, mv domain.Move, nextTurn string, expectedCount int) (bool, error)
	Finish(ctx context.Context, id uuid.UUID, winnerID *uuid.UUID, isDraw bool, at time.Time) (bool, error)
	AbandonStale(ctx context.Context, waitingTTL, idleTTL time.Duration) (int64, error)
	Overview(ctx context.Context) (*domain.SessionOverview, error)
	RecentCompleted(ctx context.Context, participantID uuid.UUID, limit int) ([]*domain.Session, error)
}

// ParticipantStore is the slice of the participant repository the session and
// stats services need.
type ParticipantStore interface {
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Participant, error)
	ApplyResult(ctx context.Context, id uuid.UUID, kind domain.GameKind, outcome domain.Outcome) error
	KindStats(ctx context.Context, id uuid.UUID) ([]domain.KindStats, error)
}

// EventPublisher receives session lifecycle events for fan-out to websocket
// subscribers. Implementations must not block.
type EventPublisher interface {
	Publish(evt domain.SessionEvent)
}

package service

import (
	"context"
	"encoding/json"
	"time"

	"github.com/MarcMahler/gamehub-backend/internal/domain"
	"github.com/MarcMahler/gamehub-backend/internal/game"
	"github.com/MarcMahler/gamehub-backend/internal/logger"
	"github.com/MarcMahler/gamehub-backend/internal/repository"

	"github.com/google/uuid"
)

// SessionService is the session store: it owns the lifecycle of a game
// session from creation through join, moves and the terminal transition.
// Every mutation is a single compare-and-update against the store; losing
// racers get a conflict error, never a partially applied state.
type SessionService struct {
	sessions     SessionStore
	participants ParticipantStore
	stats        *StatsService
	events       EventPublisher
	now          func() time.Time
}

func NewSessionService(sessions SessionStore, participants ParticipantStore, stats *StatsService, events EventPublisher) *SessionService {
	return &SessionService{
		sessions:     sessions,
		participants: participants,
		stats:        stats,
		events:       events,
		now:          time.Now,
	}
}

// Create allocates a session in waiting with the creator in the first slot.
// The creator gets the first-move side and the board starts at the kind's
// canonical position.
func (s *SessionService) Create(ctx context.Context, kind domain.GameKind, creatorID uuid.UUID, tc *domain.TimeControl) (*domain.Session, error) {
	if !game.Valid(kind) {
		return nil, domain.ErrInvalidGameKind
	}

	creator, err := s.participants.GetByID(ctx, creatorID)
	if err != nil {
		return nil, err
	}

	now := s.now().UTC()
	firstSide, secondSide := game.Sides(kind)

	sess := &domain.Session{
		ID:       uuid.New(),
		GameKind: kind,
		Status:   domain.StatusWaiting,
		Participants: []domain.PlayerSlot{{
			ParticipantID: creator.ID,
			DisplayName:   creator.Username,
			Side:          firstSide,
			JoinedAt:      now,
		}},
		Board:     game.InitialBoard(kind),
		Turn:      firstSide,
		CreatedAt: now,
	}
	if tc != nil {
		sess.TimeControl = tc
		if tc.LimitSeconds > 0 {
			sess.Remaining = map[string]int{
				firstSide:  tc.LimitSeconds,
				secondSide: tc.LimitSeconds,
			}
		}
	}

	if err := s.sessions.Insert(ctx, sess); err != nil {
		return nil, err
	}

	sessionsCreated.WithLabelValues(string(kind)).Inc()
	s.publish(domain.EventSessionCreated, sess)
	return sess, nil
}

// Join fills the second slot with the complementary side and atomically
// transitions waiting -> active. Concurrent joiners racing for the slot are
// serialized by the store predicate; the loser is classified after a re-read.
func (s *SessionService) Join(ctx context.Context, sessionID, joinerID uuid.UUID) (*domain.Session, error) {
	joiner, err := s.participants.GetByID(ctx, joinerID)
	if err != nil {
		return nil, err
	}

	sess, err := s.sessions.Get(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	_, secondSide := game.Sides(sess.GameKind)
	slot := domain.PlayerSlot{
		ParticipantID: joiner.ID,
		DisplayName:   joiner.Username,
		Side:          secondSide,
		JoinedAt:      s.now().UTC(),
	}

	// Validate against the snapshot first so the common failures are
	// reported without a write attempt.
	probe := *sess
	probe.Participants = append([]domain.PlayerSlot(nil), sess.Participants...)
	if err := probe.AddParticipant(slot); err != nil {
		return nil, err
	}

	ok, err := s.sessions.AppendParticipant(ctx, sessionID, slot)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, s.classifyJoinConflict(ctx, sessionID, joinerID)
	}

	updated, err := s.sessions.Get(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	s.publish(domain.EventParticipantJoined, updated)
	return updated, nil
}

// classifyJoinConflict re-reads the session after a lost compare-and-update
// to report why the slot was not taken.
func (s *SessionService) classifyJoinConflict(ctx context.Context, sessionID, joinerID uuid.UUID) error {
	sess, err := s.sessions.Get(ctx, sessionID)
	if err != nil {
		return err
	}
	if _, ok := sess.Slot(joinerID); ok {
		return domain.ErrDuplicateParticipant
	}
	if len(sess.Participants) >= 2 {
		return domain.ErrSessionFull
	}
	return domain.ErrInvalidState
}

// RecordMove appends one move conditioned on the session's move counter being
// unchanged since the snapshot was read.
func (s *SessionService) RecordMove(ctx context.Context, sessionID, participantID uuid.UUID, payload json.RawMessage) (*domain.Session, error) {
	sess, err := s.sessions.Get(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	expected := sess.MoveCount
	mv, err := sess.ApplyMove(participantID, payload, s.now().UTC())
	if err != nil {
		return nil, err
	}

	ok, err := s.sessions.AppendMove(ctx, sessionID, mv, sess.Turn, expected)
	if err != nil {
		return nil, err
	}
	if !ok {
		// Someone else moved, or the session left active, between our read
		// and the write. Either way the step is stale.
		return nil, domain.ErrInvalidState
	}

	movesRecorded.WithLabelValues(string(sess.GameKind)).Inc()

	updated, err := s.sessions.Get(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	s.publish(domain.EventMoveRecorded, updated)
	return updated, nil
}

// End forces the terminal completed status and applies statistics exactly
// once. WinnerID and IsDraw are caller-supplied; the store does not verify a
// win condition, that hook belongs to per-gameKind rule engines.
func (s *SessionService) End(ctx context.Context, sessionID uuid.UUID, winnerID *uuid.UUID, isDraw bool) (*domain.Session, error) {
	sess, err := s.sessions.Get(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if sess.Status.Terminal() {
		return nil, domain.ErrInvalidState
	}
	if isDraw {
		winnerID = nil
	}

	at := s.now().UTC()
	ok, err := s.sessions.Finish(ctx, sessionID, winnerID, isDraw, at)
	if err != nil {
		return nil, err
	}
	if !ok {
		// A concurrent End won; statistics were already applied there.
		return nil, domain.ErrInvalidState
	}

	// Mirror the committed transition on the snapshot. Statistics must not
	// hinge on a second read succeeding: the terminal state is absorbing, so
	// a skipped Apply here could never be retried.
	_ = sess.Finish(winnerID, isDraw, at)

	result := "decided"
	if isDraw {
		result = "draw"
	}
	sessionsEnded.WithLabelValues(string(sess.GameKind), result).Inc()

	if s.stats != nil {
		s.stats.Apply(ctx, sess)
	}

	updated, err := s.sessions.Get(ctx, sessionID)
	if err != nil {
		logger.Warn("re-read after end failed, serving local snapshot",
			"session", sessionID, "error", err)
		updated = sess
	}
	s.publish(domain.EventSessionEnded, updated)
	return updated, nil
}

func (s *SessionService) Get(ctx context.Context, sessionID uuid.UUID) (*domain.Session, error) {
	return s.sessions.Get(ctx, sessionID)
}

func (s *SessionService) List(ctx context.Context, f repository.SessionFilter) ([]*domain.Session, error) {
	return s.sessions.List(ctx, f)
}

func (s *SessionService) Overview(ctx context.Context) (*domain.SessionOverview, error) {
	return s.sessions.Overview(ctx)
}

// AbandonStale delegates to the store; used by the abandonment sweeper.
func (s *SessionService) AbandonStale(ctx context.Context, waitingTTL, idleTTL time.Duration) (int64, error) {
	return s.sessions.AbandonStale(ctx, waitingTTL, idleTTL)
}

func (s *SessionService) publish(eventType string, sess *domain.Session) {
	if s.events == nil {
		return
	}
	s.events.Publish(domain.SessionEvent{Type: eventType, Session: sess})
}

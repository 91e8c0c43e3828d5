package service

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/MarcMahler/gamehub-backend/internal/domain"
	"github.com/MarcMahler/gamehub-backend/internal/repository"

	"github.com/google/uuid"
)

// memSessionStore mimics the repository's compare-and-update semantics in
// memory so service behavior can be tested without a database.
type memSessionStore struct {
	mu       sync.Mutex
	sessions map[uuid.UUID]*domain.Session
}

func newMemSessionStore() *memSessionStore {
	return &memSessionStore{sessions: make(map[uuid.UUID]*domain.Session)}
}

func cloneSession(s *domain.Session) *domain.Session {
	out := *s
	out.Participants = append([]domain.PlayerSlot(nil), s.Participants...)
	out.MoveHistory = append([]domain.Move(nil), s.MoveHistory...)
	out.Board = append(json.RawMessage(nil), s.Board...)
	if s.Remaining != nil {
		out.Remaining = make(map[string]int, len(s.Remaining))
		for k, v := range s.Remaining {
			out.Remaining[k] = v
		}
	}
	return &out
}

func (m *memSessionStore) Insert(_ context.Context, s *domain.Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions[s.ID] = cloneSession(s)
	return nil
}

func (m *memSessionStore) Get(_ context.Context, id uuid.UUID) (*domain.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return cloneSession(s), nil
}

func (m *memSessionStore) List(_ context.Context, f repository.SessionFilter) ([]*domain.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var res []*domain.Session
	for _, s := range m.sessions {
		if f.Status != "" && s.Status != f.Status {
			continue
		}
		if f.GameKind != "" && s.GameKind != f.GameKind {
			continue
		}
		if f.ParticipantID != nil {
			if _, ok := s.Slot(*f.ParticipantID); !ok {
				continue
			}
		}
		res = append(res, cloneSession(s))
	}
	return res, nil
}

func (m *memSessionStore) AppendParticipant(_ context.Context, id uuid.UUID, slot domain.PlayerSlot) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[id]
	if !ok {
		return false, domain.ErrNotFound
	}
	if s.Status != domain.StatusWaiting || len(s.Participants) != 1 {
		return false, nil
	}
	if _, dup := s.Slot(slot.ParticipantID); dup {
		return false, nil
	}
	s.Participants = append(s.Participants, slot)
	s.Status = domain.StatusActive
	at := slot.JoinedAt
	s.StartedAt = &at
	return true, nil
}

func (m *memSessionStore) AppendMove(_ context.Context, id uuid.UUID, mv domain.Move, nextTurn string, expectedCount int) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[id]
	if !ok {
		return false, domain.ErrNotFound
	}
	if s.Status != domain.StatusActive || s.MoveCount != expectedCount {
		return false, nil
	}
	s.MoveHistory = append(s.MoveHistory, mv)
	s.MoveCount++
	s.Turn = nextTurn
	at := mv.SubmittedAt
	s.LastMoveAt = &at
	return true, nil
}

func (m *memSessionStore) Finish(_ context.Context, id uuid.UUID, winnerID *uuid.UUID, isDraw bool, at time.Time) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[id]
	if !ok {
		return false, domain.ErrNotFound
	}
	if s.Status.Terminal() {
		return false, nil
	}
	s.Status = domain.StatusCompleted
	s.WinnerID = winnerID
	s.IsDraw = isDraw
	s.CompletedAt = &at
	s.Turn = ""
	return true, nil
}

func (m *memSessionStore) AbandonStale(_ context.Context, waitingTTL, idleTTL time.Duration) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := time.Now()
	var n int64
	for _, s := range m.sessions {
		switch s.Status {
		case domain.StatusWaiting:
			if now.Sub(s.CreatedAt) <= waitingTTL {
				continue
			}
		case domain.StatusActive:
			// Idle means no move since the last move, or since the session
			// started when nobody moved at all.
			last := s.StartedAt
			if s.LastMoveAt != nil {
				last = s.LastMoveAt
			}
			if last == nil || now.Sub(*last) <= idleTTL {
				continue
			}
		default:
			continue
		}
		s.Status = domain.StatusAbandoned
		s.CompletedAt = &now
		s.Turn = ""
		n++
	}
	return n, nil
}

func (m *memSessionStore) Overview(_ context.Context) (*domain.SessionOverview, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	ov := &domain.SessionOverview{}
	byKind := make(map[domain.GameKind]*domain.KindTally)
	for _, s := range m.sessions {
		ov.TotalSessions++
		t, ok := byKind[s.GameKind]
		if !ok {
			t = &domain.KindTally{GameKind: s.GameKind}
			byKind[s.GameKind] = t
		}
		t.Total++
		switch s.Status {
		case domain.StatusWaiting:
			ov.WaitingSessions++
			t.Waiting++
		case domain.StatusActive:
			ov.ActiveSessions++
			t.Active++
		case domain.StatusCompleted:
			t.Completed++
		case domain.StatusAbandoned:
			t.Abandoned++
		}
	}
	for _, t := range byKind {
		ov.ByKind = append(ov.ByKind, *t)
	}
	return ov, nil
}

func (m *memSessionStore) RecentCompleted(_ context.Context, participantID uuid.UUID, limit int) ([]*domain.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var res []*domain.Session
	for _, s := range m.sessions {
		if s.Status != domain.StatusCompleted {
			continue
		}
		if _, ok := s.Slot(participantID); !ok {
			continue
		}
		res = append(res, cloneSession(s))
		if len(res) == limit {
			break
		}
	}
	return res, nil
}

type appliedResult struct {
	participantID uuid.UUID
	kind          domain.GameKind
	outcome       domain.Outcome
}

// memParticipantStore tracks ApplyResult calls and keeps running counters so
// stats assertions read naturally.
type memParticipantStore struct {
	mu           sync.Mutex
	participants map[uuid.UUID]*domain.Participant
	applied      []appliedResult
}

func newMemParticipantStore() *memParticipantStore {
	return &memParticipantStore{participants: make(map[uuid.UUID]*domain.Participant)}
}

func (m *memParticipantStore) add(username string) uuid.UUID {
	m.mu.Lock()
	defer m.mu.Unlock()
	p := &domain.Participant{ID: uuid.New(), Username: username, CreatedAt: time.Now()}
	m.participants[p.ID] = p
	return p.ID
}

func (m *memParticipantStore) get(id uuid.UUID) domain.Participant {
	m.mu.Lock()
	defer m.mu.Unlock()
	return *m.participants[id]
}

func (m *memParticipantStore) GetByID(_ context.Context, id uuid.UUID) (*domain.Participant, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.participants[id]
	if !ok {
		return nil, domain.ErrParticipantNotFound
	}
	cp := *p
	return &cp, nil
}

func (m *memParticipantStore) ApplyResult(_ context.Context, id uuid.UUID, kind domain.GameKind, outcome domain.Outcome) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.participants[id]
	if !ok {
		return domain.ErrParticipantNotFound
	}
	p.GamesPlayed++
	switch outcome {
	case domain.OutcomeWin:
		p.Wins++
	case domain.OutcomeLoss:
		p.Losses++
	case domain.OutcomeDraw:
		p.Draws++
	}
	m.applied = append(m.applied, appliedResult{participantID: id, kind: kind, outcome: outcome})
	return nil
}

func (m *memParticipantStore) KindStats(_ context.Context, id uuid.UUID) ([]domain.KindStats, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	tallies := make(map[domain.GameKind]*domain.KindStats)
	for _, a := range m.applied {
		if a.participantID != id {
			continue
		}
		ks, ok := tallies[a.kind]
		if !ok {
			ks = &domain.KindStats{GameKind: a.kind, Rating: 1200}
			tallies[a.kind] = ks
		}
		ks.Played++
		switch a.outcome {
		case domain.OutcomeWin:
			ks.Won++
		case domain.OutcomeLoss:
			ks.Lost++
		case domain.OutcomeDraw:
			ks.Drawn++
		}
	}
	var res []domain.KindStats
	for _, ks := range tallies {
		res = append(res, *ks)
	}
	return res, nil
}

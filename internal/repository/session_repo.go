package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/MarcMahler/gamehub-backend/internal/domain"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// SessionRepository persists sessions as document-style rows: the aggregate's
// nested parts (participants, board, move log, time control) live in JSONB
// columns, while every field a compare-and-update predicate touches (status,
// move_count) stays a scalar column.
type SessionRepository struct {
	db *pgxpool.Pool
}

func NewSessionRepository(db *pgxpool.Pool) *SessionRepository {
	return &SessionRepository{db: db}
}

const sessionColumns = `id, game_kind, status, participants, winner_id, is_draw,
	board, turn, move_history, move_count, time_control, remaining,
	created_at, started_at, completed_at, last_move_at`

// SessionFilter narrows List results. Zero values mean "no filter".
type SessionFilter struct {
	Status        domain.SessionStatus
	GameKind      domain.GameKind
	ParticipantID *uuid.UUID
	Limit         int
}

func (r *SessionRepository) Insert(ctx context.Context, s *domain.Session) error {
	participants, err := json.Marshal(s.Participants)
	if err != nil {
		return err
	}
	var timeControl, remaining []byte
	if s.TimeControl != nil {
		if timeControl, err = json.Marshal(s.TimeControl); err != nil {
			return err
		}
	}
	if s.Remaining != nil {
		if remaining, err = json.Marshal(s.Remaining); err != nil {
			return err
		}
	}

	_, err = r.db.Exec(ctx,
		`INSERT INTO sessions
			(id, game_kind, status, participants, board, turn, move_history,
			 move_count, time_control, remaining, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, '[]', 0, $7, $8, $9)`,
		s.ID, s.GameKind, s.Status, participants, []byte(s.Board), s.Turn,
		timeControl, remaining, s.CreatedAt,
	)
	return err
}

func (r *SessionRepository) Get(ctx context.Context, id uuid.UUID) (*domain.Session, error) {
	row := r.db.QueryRow(ctx,
		`SELECT `+sessionColumns+` FROM sessions WHERE id = $1`, id)
	s, err := scanSession(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	return s, err
}

func (r *SessionRepository) List(ctx context.Context, f SessionFilter) ([]*domain.Session, error) {
	query := `SELECT ` + sessionColumns + ` FROM sessions WHERE 1=1`
	args := []any{}

	if f.Status != "" {
		args = append(args, f.Status)
		query += fmt.Sprintf(" AND status = $%d", len(args))
	}
	if f.GameKind != "" {
		args = append(args, f.GameKind)
		query += fmt.Sprintf(" AND game_kind = $%d", len(args))
	}
	if f.ParticipantID != nil {
		args = append(args, participantMatch(*f.ParticipantID))
		query += fmt.Sprintf(" AND participants @> $%d", len(args))
	}

	limit := f.Limit
	if limit <= 0 {
		limit = 100
	}
	args = append(args, limit)
	query += fmt.Sprintf(" ORDER BY created_at DESC LIMIT $%d", len(args))

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanSessions(rows)
}

// AppendParticipant atomically fills the second slot and flips the session to
// active. The predicate re-checks everything a concurrent joiner could have
// changed; false means the caller lost the race (or the session moved on) and
// must re-read to classify the failure.
func (r *SessionRepository) AppendParticipant(ctx context.Context, id uuid.UUID, slot domain.PlayerSlot) (bool, error) {
	slotJSON, err := json.Marshal([]domain.PlayerSlot{slot})
	if err != nil {
		return false, err
	}

	tag, err := r.db.Exec(ctx,
		`UPDATE sessions
		 SET participants = participants || $2::jsonb,
		     status = 'active',
		     started_at = $3
		 WHERE id = $1
		   AND status = 'waiting'
		   AND jsonb_array_length(participants) = 1
		   AND NOT participants @> $4::jsonb`,
		id, slotJSON, slot.JoinedAt, participantMatch(slot.ParticipantID),
	)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

// AppendMove records one move conditioned on the move counter being unchanged
// since the caller read the session. A move is either fully recorded (history,
// counter, turn, timestamp) or not at all.
func (r *SessionRepository) AppendMove(ctx context.Context, id uuid.UUID, mv domain.Move, nextTurn string, expectedCount int) (bool, error) {
	mvJSON, err := json.Marshal([]domain.Move{mv})
	if err != nil {
		return false, err
	}

	tag, err := r.db.Exec(ctx,
		`UPDATE sessions
		 SET move_history = move_history || $2::jsonb,
		     move_count = move_count + 1,
		     turn = $3,
		     last_move_at = $4
		 WHERE id = $1
		   AND status = 'active'
		   AND move_count = $5`,
		id, mvJSON, nextTurn, mv.SubmittedAt, expectedCount,
	)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

// Finish forces a terminal completed status. At most one caller can win this
// update; terminal states are absorbing.
func (r *SessionRepository) Finish(ctx context.Context, id uuid.UUID, winnerID *uuid.UUID, isDraw bool, at time.Time) (bool, error) {
	tag, err := r.db.Exec(ctx,
		`UPDATE sessions
		 SET status = 'completed',
		     winner_id = $2,
		     is_draw = $3,
		     completed_at = $4,
		     turn = ''
		 WHERE id = $1
		   AND status IN ('waiting', 'active')`,
		id, winnerID, isDraw, at,
	)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

// AbandonStale marks waiting sessions nobody joined and active sessions with
// no recent move as abandoned. Returns how many rows were transitioned.
func (r *SessionRepository) AbandonStale(ctx context.Context, waitingTTL, idleTTL time.Duration) (int64, error) {
	tag, err := r.db.Exec(ctx,
		`UPDATE sessions
		 SET status = 'abandoned',
		     completed_at = now(),
		     turn = ''
		 WHERE (status = 'waiting' AND created_at < now() - $1::interval)
		    OR (status = 'active' AND COALESCE(last_move_at, started_at) < now() - $2::interval)`,
		waitingTTL, idleTTL,
	)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

// Overview computes the per-kind per-status tallies with a single grouping
// query; nothing is cached or stored.
func (r *SessionRepository) Overview(ctx context.Context) (*domain.SessionOverview, error) {
	ov := &domain.SessionOverview{}

	err := r.db.QueryRow(ctx,
		`SELECT COUNT(*),
		        COUNT(*) FILTER (WHERE status = 'active'),
		        COUNT(*) FILTER (WHERE status = 'waiting')
		 FROM sessions`,
	).Scan(&ov.TotalSessions, &ov.ActiveSessions, &ov.WaitingSessions)
	if err != nil {
		return nil, err
	}

	rows, err := r.db.Query(ctx,
		`SELECT game_kind,
		        COUNT(*),
		        COUNT(*) FILTER (WHERE status = 'completed'),
		        COUNT(*) FILTER (WHERE status = 'active'),
		        COUNT(*) FILTER (WHERE status = 'waiting'),
		        COUNT(*) FILTER (WHERE status = 'abandoned')
		 FROM sessions
		 GROUP BY game_kind
		 ORDER BY game_kind`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var t domain.KindTally
		if err := rows.Scan(&t.GameKind, &t.Total, &t.Completed, &t.Active, &t.Waiting, &t.Abandoned); err != nil {
			return nil, err
		}
		ov.ByKind = append(ov.ByKind, t)
	}
	return ov, rows.Err()
}

// RecentCompleted returns a participant's latest finished sessions.
func (r *SessionRepository) RecentCompleted(ctx context.Context, participantID uuid.UUID, limit int) ([]*domain.Session, error) {
	if limit <= 0 {
		limit = 5
	}
	rows, err := r.db.Query(ctx,
		`SELECT `+sessionColumns+`
		 FROM sessions
		 WHERE status = 'completed' AND participants @> $1
		 ORDER BY completed_at DESC
		 LIMIT $2`,
		participantMatch(participantID), limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanSessions(rows)
}

// participantMatch builds the JSONB containment pattern used by the GIN index
// on participants.
func participantMatch(id uuid.UUID) []byte {
	b, _ := json.Marshal([]map[string]string{{"participantId": id.String()}})
	return b
}

func scanSessions(rows pgx.Rows) ([]*domain.Session, error) {
	var res []*domain.Session
	for rows.Next() {
		s, err := scanSession(rows)
		if err != nil {
			return nil, err
		}
		res = append(res, s)
	}
	return res, rows.Err()
}

func scanSession(row pgx.Row) (*domain.Session, error) {
	var (
		out          domain.Session
		participants []byte
		board        []byte
		moveHistory  []byte
		timeControl  []byte
		remaining    []byte
		startedAt    *time.Time
		completedAt  *time.Time
		lastMoveAt   *time.Time
	)

	if err := row.Scan(
		&out.ID, &out.GameKind, &out.Status, &participants, &out.WinnerID, &out.IsDraw,
		&board, &out.Turn, &moveHistory, &out.MoveCount, &timeControl, &remaining,
		&out.CreatedAt, &startedAt, &completedAt, &lastMoveAt,
	); err != nil {
		return nil, err
	}

	if err := json.Unmarshal(participants, &out.Participants); err != nil {
		return nil, err
	}
	if err := json.Unmarshal(moveHistory, &out.MoveHistory); err != nil {
		return nil, err
	}
	out.Board = json.RawMessage(board)
	if len(timeControl) > 0 {
		if err := json.Unmarshal(timeControl, &out.TimeControl); err != nil {
			return nil, err
		}
	}
	if len(remaining) > 0 {
		if err := json.Unmarshal(remaining, &out.Remaining); err != nil {
			return nil, err
		}
	}
	out.StartedAt = startedAt
	out.CompletedAt = completedAt
	out.LastMoveAt = lastMoveAt
	return &out, nil
}

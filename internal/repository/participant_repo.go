package repository

import (
	"context"
	"errors"
	"time"

	"github.com/MarcMahler/gamehub-backend/internal/domain"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

type ParticipantRepository struct {
	db *pgxpool.Pool
}

func NewParticipantRepository(db *pgxpool.Pool) *ParticipantRepository {
	return &ParticipantRepository{db: db}
}

const participantColumns = `id, username, email, COALESCE(password_hash, ''), avatar,
	created_at, last_active, games_played, wins, losses, draws`

func (r *ParticipantRepository) Create(ctx context.Context, p *domain.Participant) error {
	err := r.db.QueryRow(ctx,
		`INSERT INTO participants (id, username, email, password_hash, avatar)
		 VALUES ($1, $2, $3, NULLIF($4, ''), $5)
		 RETURNING created_at, last_active`,
		p.ID, p.Username, p.Email, p.PasswordHash, p.Avatar,
	).Scan(&p.CreatedAt, &p.LastActive)
	return mapUniqueViolation(err)
}

func (r *ParticipantRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Participant, error) {
	row := r.db.QueryRow(ctx,
		`SELECT `+participantColumns+` FROM participants WHERE id = $1`, id)
	return scanParticipant(row)
}

func (r *ParticipantRepository) GetByUsername(ctx context.Context, username string) (*domain.Participant, error) {
	row := r.db.QueryRow(ctx,
		`SELECT `+participantColumns+` FROM participants WHERE username = $1`, username)
	return scanParticipant(row)
}

func (r *ParticipantRepository) List(ctx context.Context, limit int) ([]*domain.Participant, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := r.db.Query(ctx,
		`SELECT `+participantColumns+`
		 FROM participants
		 ORDER BY created_at DESC
		 LIMIT $1`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var res []*domain.Participant
	for rows.Next() {
		p, err := scanParticipant(rows)
		if err != nil {
			return nil, err
		}
		res = append(res, p)
	}
	return res, rows.Err()
}

// Update changes identity fields and stamps last_active; statistics counters
// are out of reach here on purpose.
// Update applies a partial update: empty fields keep their stored value.
func (r *ParticipantRepository) Update(ctx context.Context, id uuid.UUID, username, email, avatar string) (*domain.Participant, error) {
	row := r.db.QueryRow(ctx,
		`UPDATE participants
		 SET username = COALESCE(NULLIF($2, ''), username),
		     email = COALESCE(NULLIF($3, ''), email),
		     avatar = COALESCE(NULLIF($4, ''), avatar),
		     last_active = now()
		 WHERE id = $1
		 RETURNING `+participantColumns,
		id, username, email, avatar,
	)
	p, err := scanParticipant(row)
	return p, mapUniqueViolation(err)
}

func (r *ParticipantRepository) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM participants WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrParticipantNotFound
	}
	return nil
}

func (r *ParticipantRepository) TouchLastActive(ctx context.Context, id uuid.UUID, at time.Time) error {
	_, err := r.db.Exec(ctx,
		`UPDATE participants SET last_active = $2 WHERE id = $1`, id, at)
	return err
}

// ApplyResult applies one terminal session outcome to a participant's record:
// the cumulative counters and the per-gameKind row move together in one
// transaction, and every change is an increment, never an overwrite, so
// concurrent games involving the same participant cannot lose updates.
func (r *ParticipantRepository) ApplyResult(ctx context.Context, id uuid.UUID, kind domain.GameKind, outcome domain.Outcome) error {
	won, lost, drawn := 0, 0, 0
	switch outcome {
	case domain.OutcomeWin:
		won = 1
	case domain.OutcomeLoss:
		lost = 1
	case domain.OutcomeDraw:
		drawn = 1
	}

	tx, err := r.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	tag, err := tx.Exec(ctx,
		`UPDATE participants
		 SET games_played = games_played + 1,
		     wins = wins + $2,
		     losses = losses + $3,
		     draws = draws + $4
		 WHERE id = $1`,
		id, won, lost, drawn,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrParticipantNotFound
	}

	_, err = tx.Exec(ctx,
		`INSERT INTO participant_kind_stats (participant_id, game_kind, played, won, lost, drawn)
		 VALUES ($1, $2, 1, $3, $4, $5)
		 ON CONFLICT (participant_id, game_kind) DO UPDATE
		 SET played = participant_kind_stats.played + 1,
		     won = participant_kind_stats.won + EXCLUDED.won,
		     lost = participant_kind_stats.lost + EXCLUDED.lost,
		     drawn = participant_kind_stats.drawn + EXCLUDED.drawn`,
		id, kind, won, lost, drawn,
	)
	if err != nil {
		return err
	}

	return tx.Commit(ctx)
}

// KindStats returns the per-gameKind breakdown of a participant's record.
func (r *ParticipantRepository) KindStats(ctx context.Context, id uuid.UUID) ([]domain.KindStats, error) {
	rows, err := r.db.Query(ctx,
		`SELECT game_kind, played, won, lost, drawn, rating
		 FROM participant_kind_stats
		 WHERE participant_id = $1
		 ORDER BY game_kind`, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var res []domain.KindStats
	for rows.Next() {
		var ks domain.KindStats
		if err := rows.Scan(&ks.GameKind, &ks.Played, &ks.Won, &ks.Lost, &ks.Drawn, &ks.Rating); err != nil {
			return nil, err
		}
		res = append(res, ks)
	}
	return res, rows.Err()
}

func scanParticipant(row pgx.Row) (*domain.Participant, error) {
	var p domain.Participant
	err := row.Scan(
		&p.ID, &p.Username, &p.Email, &p.PasswordHash, &p.Avatar,
		&p.CreatedAt, &p.LastActive, &p.GamesPlayed, &p.Wins, &p.Losses, &p.Draws,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrParticipantNotFound
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func mapUniqueViolation(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return domain.ErrDuplicateIdentity
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.ErrParticipantNotFound
	}
	return err
}

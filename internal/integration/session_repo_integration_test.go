package integration

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/MarcMahler/gamehub-backend/internal/domain"
	"github.com/MarcMahler/gamehub-backend/internal/game"
	"github.com/MarcMahler/gamehub-backend/internal/repository"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

func applyMigrations(t *testing.T, db *pgxpool.Pool) {
	t.Helper()
	migDir := filepath.Join("..", "..", "internal", "migrations")
	files, err := os.ReadDir(migDir)
	if err != nil {
		t.Fatalf("read migrations: %v", err)
	}
	for _, f := range files {
		b, err := os.ReadFile(filepath.Join(migDir, f.Name()))
		if err != nil {
			t.Fatalf("read file: %v", err)
		}
		if _, err := db.Exec(context.Background(), string(b)); err != nil {
			t.Fatalf("apply migration %s: %v", f.Name(), err)
		}
	}
}

func testPool(t *testing.T) *pgxpool.Pool {
	t.Helper()
	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		t.Skip("DATABASE_URL not set")
	}
	db, err := pgxpool.New(context.Background(), dsn)
	if err != nil {
		t.Fatalf("connect db: %v", err)
	}
	t.Cleanup(db.Close)
	applyMigrations(t, db)
	return db
}

func createParticipant(t *testing.T, repo *repository.ParticipantRepository, prefix string) *domain.Participant {
	t.Helper()
	suffix := uuid.NewString()[:8]
	p := &domain.Participant{
		ID:       uuid.New(),
		Username: fmt.Sprintf("%s_%s", prefix, suffix),
		Email:    fmt.Sprintf("%s_%s@example.com", prefix, suffix),
	}
	if err := repo.Create(context.Background(), p); err != nil {
		t.Fatalf("create participant: %v", err)
	}
	return p
}

func newWaitingSession(creator *domain.Participant, kind domain.GameKind) *domain.Session {
	first, _ := game.Sides(kind)
	now := time.Now().UTC()
	return &domain.Session{
		ID:       uuid.New(),
		GameKind: kind,
		Status:   domain.StatusWaiting,
		Participants: []domain.PlayerSlot{{
			ParticipantID: creator.ID,
			DisplayName:   creator.Username,
			Side:          first,
			JoinedAt:      now,
		}},
		Board:     game.InitialBoard(kind),
		Turn:      first,
		CreatedAt: now,
	}
}

func TestSessionRepository_InsertGetRoundtrip(t *testing.T) {
	db := testPool(t)
	ctx := context.Background()
	participants := repository.NewParticipantRepository(db)
	sessions := repository.NewSessionRepository(db)

	alice := createParticipant(t, participants, "alice")
	sess := newWaitingSession(alice, domain.KindTicTacToe)
	if err := sessions.Insert(ctx, sess); err != nil {
		t.Fatalf("insert: %v", err)
	}

	got, err := sessions.Get(ctx, sess.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Status != domain.StatusWaiting || got.GameKind != domain.KindTicTacToe {
		t.Errorf("got status=%s kind=%s", got.Status, got.GameKind)
	}
	if len(got.Participants) != 1 || got.Participants[0].ParticipantID != alice.ID {
		t.Errorf("participants = %+v", got.Participants)
	}
	if got.MoveCount != 0 || got.Turn != "x" {
		t.Errorf("moveCount=%d turn=%s", got.MoveCount, got.Turn)
	}

	if _, err := sessions.Get(ctx, uuid.New()); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("missing session err = %v, want ErrNotFound", err)
	}
}

func TestSessionRepository_AppendParticipantCAS(t *testing.T) {
	db := testPool(t)
	ctx := context.Background()
	participants := repository.NewParticipantRepository(db)
	sessions := repository.NewSessionRepository(db)

	alice := createParticipant(t, participants, "alice")
	bob := createParticipant(t, participants, "bob")
	carol := createParticipant(t, participants, "carol")

	sess := newWaitingSession(alice, domain.KindChess)
	if err := sessions.Insert(ctx, sess); err != nil {
		t.Fatalf("insert: %v", err)
	}

	slot := func(p *domain.Participant) domain.PlayerSlot {
		return domain.PlayerSlot{ParticipantID: p.ID, DisplayName: p.Username, Side: "black", JoinedAt: time.Now().UTC()}
	}

	ok, err := sessions.AppendParticipant(ctx, sess.ID, slot(bob))
	if err != nil || !ok {
		t.Fatalf("first join ok=%v err=%v", ok, err)
	}
	// Full session: the predicate must reject without error.
	if ok, err = sessions.AppendParticipant(ctx, sess.ID, slot(carol)); err != nil || ok {
		t.Fatalf("second join ok=%v err=%v, want false/nil", ok, err)
	}
	// Repeat joiner is rejected by the containment predicate, not duplicated.
	if ok, err = sessions.AppendParticipant(ctx, sess.ID, slot(bob)); err != nil || ok {
		t.Fatalf("repeat join ok=%v err=%v, want false/nil", ok, err)
	}

	got, err := sessions.Get(ctx, sess.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Status != domain.StatusActive || len(got.Participants) != 2 {
		t.Errorf("status=%s participants=%d", got.Status, len(got.Participants))
	}
	if got.StartedAt == nil {
		t.Error("startedAt not stamped")
	}
}

func TestSessionRepository_AppendMoveCAS(t *testing.T) {
	db := testPool(t)
	ctx := context.Background()
	participants := repository.NewParticipantRepository(db)
	sessions := repository.NewSessionRepository(db)

	alice := createParticipant(t, participants, "alice")
	bob := createParticipant(t, participants, "bob")
	sess := newWaitingSession(alice, domain.KindConnect4)
	if err := sessions.Insert(ctx, sess); err != nil {
		t.Fatalf("insert: %v", err)
	}
	if _, err := sessions.AppendParticipant(ctx, sess.ID, domain.PlayerSlot{
		ParticipantID: bob.ID, DisplayName: bob.Username, Side: "yellow", JoinedAt: time.Now().UTC(),
	}); err != nil {
		t.Fatalf("join: %v", err)
	}

	mv := domain.Move{
		ParticipantID:  alice.ID,
		Payload:        json.RawMessage(`{"column":3}`),
		SubmittedAt:    time.Now().UTC(),
		SequenceNumber: 1,
	}
	ok, err := sessions.AppendMove(ctx, sess.ID, mv, "yellow", 0)
	if err != nil || !ok {
		t.Fatalf("move ok=%v err=%v", ok, err)
	}
	// Stale expected count loses the compare-and-update.
	if ok, err = sessions.AppendMove(ctx, sess.ID, mv, "yellow", 0); err != nil || ok {
		t.Fatalf("stale move ok=%v err=%v, want false/nil", ok, err)
	}

	got, err := sessions.Get(ctx, sess.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.MoveCount != 1 || len(got.MoveHistory) != 1 {
		t.Errorf("moveCount=%d history=%d", got.MoveCount, len(got.MoveHistory))
	}
	if got.Turn != "yellow" {
		t.Errorf("turn = %s", got.Turn)
	}
	if got.LastMoveAt == nil {
		t.Error("lastMoveAt not stamped")
	}
}

func TestSessionRepository_FinishIsTerminal(t *testing.T) {
	db := testPool(t)
	ctx := context.Background()
	participants := repository.NewParticipantRepository(db)
	sessions := repository.NewSessionRepository(db)

	alice := createParticipant(t, participants, "alice")
	sess := newWaitingSession(alice, domain.KindCheckers)
	if err := sessions.Insert(ctx, sess); err != nil {
		t.Fatalf("insert: %v", err)
	}

	ok, err := sessions.Finish(ctx, sess.ID, &alice.ID, false, time.Now().UTC())
	if err != nil || !ok {
		t.Fatalf("finish ok=%v err=%v", ok, err)
	}
	if ok, err = sessions.Finish(ctx, sess.ID, nil, true, time.Now().UTC()); err != nil || ok {
		t.Fatalf("second finish ok=%v err=%v, want false/nil", ok, err)
	}

	got, err := sessions.Get(ctx, sess.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Status != domain.StatusCompleted || got.WinnerID == nil || *got.WinnerID != alice.ID {
		t.Errorf("status=%s winner=%v", got.Status, got.WinnerID)
	}
}

func TestSessionRepository_ListByParticipant(t *testing.T) {
	db := testPool(t)
	ctx := context.Background()
	participants := repository.NewParticipantRepository(db)
	sessions := repository.NewSessionRepository(db)

	alice := createParticipant(t, participants, "alice")
	bob := createParticipant(t, participants, "bob")

	if err := sessions.Insert(ctx, newWaitingSession(alice, domain.KindTicTacToe)); err != nil {
		t.Fatalf("insert: %v", err)
	}
	if err := sessions.Insert(ctx, newWaitingSession(bob, domain.KindTicTacToe)); err != nil {
		t.Fatalf("insert: %v", err)
	}

	listed, err := sessions.List(ctx, repository.SessionFilter{ParticipantID: &alice.ID})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(listed) != 1 || listed[0].Participants[0].ParticipantID != alice.ID {
		t.Errorf("participant filter returned %d sessions", len(listed))
	}
}

func TestSessionRepository_AbandonStale(t *testing.T) {
	db := testPool(t)
	ctx := context.Background()
	participants := repository.NewParticipantRepository(db)
	sessions := repository.NewSessionRepository(db)

	alice := createParticipant(t, participants, "alice")
	bob := createParticipant(t, participants, "bob")
	old := time.Now().UTC().Add(-2 * time.Hour)

	staleWaiting := newWaitingSession(alice, domain.KindTicTacToe)
	staleWaiting.CreatedAt = old
	freshWaiting := newWaitingSession(alice, domain.KindTicTacToe)
	for _, s := range []*domain.Session{staleWaiting, freshWaiting} {
		if err := sessions.Insert(ctx, s); err != nil {
			t.Fatalf("insert: %v", err)
		}
	}

	// Active session where nobody ever moved: idleness must fall back to
	// started_at.
	neverMoved := newWaitingSession(alice, domain.KindChess)
	neverMoved.CreatedAt = old
	if err := sessions.Insert(ctx, neverMoved); err != nil {
		t.Fatalf("insert: %v", err)
	}
	if ok, err := sessions.AppendParticipant(ctx, neverMoved.ID, domain.PlayerSlot{
		ParticipantID: bob.ID, DisplayName: bob.Username, Side: "black", JoinedAt: old,
	}); err != nil || !ok {
		t.Fatalf("join ok=%v err=%v", ok, err)
	}

	// Active session with a recent move stays untouched.
	busyActive := newWaitingSession(alice, domain.KindConnect4)
	busyActive.CreatedAt = old
	if err := sessions.Insert(ctx, busyActive); err != nil {
		t.Fatalf("insert: %v", err)
	}
	if ok, err := sessions.AppendParticipant(ctx, busyActive.ID, domain.PlayerSlot{
		ParticipantID: bob.ID, DisplayName: bob.Username, Side: "yellow", JoinedAt: old,
	}); err != nil || !ok {
		t.Fatalf("join ok=%v err=%v", ok, err)
	}
	if ok, err := sessions.AppendMove(ctx, busyActive.ID, domain.Move{
		ParticipantID:  alice.ID,
		Payload:        json.RawMessage(`{"column":1}`),
		SubmittedAt:    time.Now().UTC(),
		SequenceNumber: 1,
	}, "yellow", 0); err != nil || !ok {
		t.Fatalf("move ok=%v err=%v", ok, err)
	}

	aliceBefore, err := participants.GetByID(ctx, alice.ID)
	if err != nil {
		t.Fatalf("get participant: %v", err)
	}

	n, err := sessions.AbandonStale(ctx, time.Hour, time.Hour)
	if err != nil {
		t.Fatalf("abandon: %v", err)
	}
	if n < 2 {
		t.Errorf("abandoned %d sessions, want at least the stale pair", n)
	}

	want := map[uuid.UUID]domain.SessionStatus{
		staleWaiting.ID: domain.StatusAbandoned,
		freshWaiting.ID: domain.StatusWaiting,
		neverMoved.ID:   domain.StatusAbandoned,
		busyActive.ID:   domain.StatusActive,
	}
	for id, status := range want {
		got, err := sessions.Get(ctx, id)
		if err != nil {
			t.Fatalf("get %s: %v", id, err)
		}
		if got.Status != status {
			t.Errorf("session %s status = %s, want %s", id, got.Status, status)
		}
	}

	// Abandonment never feeds the statistics counters.
	aliceAfter, err := participants.GetByID(ctx, alice.ID)
	if err != nil {
		t.Fatalf("get participant: %v", err)
	}
	if aliceAfter.GamesPlayed != aliceBefore.GamesPlayed {
		t.Errorf("gamesPlayed changed %d -> %d", aliceBefore.GamesPlayed, aliceAfter.GamesPlayed)
	}
}

func TestParticipantRepository_UpdatePartial(t *testing.T) {
	db := testPool(t)
	ctx := context.Background()
	participants := repository.NewParticipantRepository(db)

	suffix := uuid.NewString()[:8]
	alice := &domain.Participant{
		ID:       uuid.New(),
		Username: "alice_" + suffix,
		Email:    "alice_" + suffix + "@example.com",
		Avatar:   "https://cdn.example.com/alice.png",
	}
	if err := participants.Create(ctx, alice); err != nil {
		t.Fatalf("create: %v", err)
	}

	// Renaming alone must not wipe the avatar or email.
	renamed, err := participants.Update(ctx, alice.ID, "alice2_"+suffix, "", "")
	if err != nil {
		t.Fatalf("update username: %v", err)
	}
	if renamed.Username != "alice2_"+suffix {
		t.Errorf("username = %s", renamed.Username)
	}
	if renamed.Avatar != alice.Avatar {
		t.Errorf("avatar = %q, want preserved %q", renamed.Avatar, alice.Avatar)
	}
	if renamed.Email != alice.Email {
		t.Errorf("email = %q, want preserved %q", renamed.Email, alice.Email)
	}

	// And the avatar can still be changed on its own.
	repic, err := participants.Update(ctx, alice.ID, "", "", "https://cdn.example.com/alice2.png")
	if err != nil {
		t.Fatalf("update avatar: %v", err)
	}
	if repic.Avatar != "https://cdn.example.com/alice2.png" {
		t.Errorf("avatar = %q", repic.Avatar)
	}
	if repic.Username != "alice2_"+suffix {
		t.Errorf("username = %q, want preserved", repic.Username)
	}
}

func TestParticipantRepository_ApplyResult(t *testing.T) {
	db := testPool(t)
	ctx := context.Background()
	participants := repository.NewParticipantRepository(db)

	alice := createParticipant(t, participants, "alice")

	if err := participants.ApplyResult(ctx, alice.ID, domain.KindChess, domain.OutcomeWin); err != nil {
		t.Fatalf("apply win: %v", err)
	}
	if err := participants.ApplyResult(ctx, alice.ID, domain.KindChess, domain.OutcomeDraw); err != nil {
		t.Fatalf("apply draw: %v", err)
	}
	if err := participants.ApplyResult(ctx, alice.ID, domain.KindTicTacToe, domain.OutcomeLoss); err != nil {
		t.Fatalf("apply loss: %v", err)
	}

	got, err := participants.GetByID(ctx, alice.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.GamesPlayed != 3 || got.Wins != 1 || got.Losses != 1 || got.Draws != 1 {
		t.Errorf("counters = %d/%d/%d/%d", got.GamesPlayed, got.Wins, got.Losses, got.Draws)
	}
	if want := 1.0 / 3.0; got.WinRate() != want {
		t.Errorf("winRate = %v, want %v", got.WinRate(), want)
	}

	byKind, err := participants.KindStats(ctx, alice.ID)
	if err != nil {
		t.Fatalf("kind stats: %v", err)
	}
	if len(byKind) != 2 {
		t.Fatalf("kind stats entries = %d, want 2", len(byKind))
	}
	for _, ks := range byKind {
		switch ks.GameKind {
		case domain.KindChess:
			if ks.Played != 2 || ks.Won != 1 || ks.Drawn != 1 || ks.Rating != 1200 {
				t.Errorf("chess stats = %+v", ks)
			}
		case domain.KindTicTacToe:
			if ks.Played != 1 || ks.Lost != 1 {
				t.Errorf("tictactoe stats = %+v", ks)
			}
		}
	}
}

func TestParticipantRepository_DuplicateIdentity(t *testing.T) {
	db := testPool(t)
	ctx := context.Background()
	participants := repository.NewParticipantRepository(db)

	alice := createParticipant(t, participants, "alice")
	dup := &domain.Participant{ID: uuid.New(), Username: alice.Username, Email: "other@example.com"}
	if err := participants.Create(ctx, dup); !errors.Is(err, domain.ErrDuplicateIdentity) {
		t.Errorf("duplicate username err = %v, want ErrDuplicateIdentity", err)
	}
}

// Seeds a handful of demo participants and sessions so a fresh database has
// something to show.
package main

import (
	"context"
	"encoding/json"
	"log"
	"os"

	"github.com/MarcMahler/gamehub-backend/internal/db"
	"github.com/MarcMahler/gamehub-backend/internal/domain"
	"github.com/MarcMahler/gamehub-backend/internal/repository"
	"github.com/MarcMahler/gamehub-backend/internal/service"

	"github.com/google/uuid"
)

func main() {
	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		log.Fatal("DATABASE_URL not set")
	}

	pool := db.Connect(dsn, 4)
	defer pool.Close()

	participants := repository.NewParticipantRepository(pool)
	sessions := repository.NewSessionRepository(pool)
	stats := service.NewStatsService(sessions, participants)
	svc := service.NewSessionService(sessions, participants, stats, nil)

	ctx := context.Background()

	demo := []struct {
		username string
		email    string
	}{
		{"alice_gamer", "alice@example.com"},
		{"bob_player", "bob@example.com"},
		{"carol_chess", "carol@example.com"},
	}

	ids := make([]uuid.UUID, 0, len(demo))
	for _, d := range demo {
		existing, err := participants.GetByUsername(ctx, d.username)
		if err == nil {
			log.Printf("participant %s already exists id=%s", d.username, existing.ID)
			ids = append(ids, existing.ID)
			continue
		}

		p := &domain.Participant{ID: uuid.New(), Username: d.username, Email: d.email}
		if err := participants.Create(ctx, p); err != nil {
			log.Fatalf("create participant %s: %v", d.username, err)
		}
		log.Printf("created participant %s id=%s", d.username, p.ID)
		ids = append(ids, p.ID)
	}

	// One finished tictactoe game between the first two participants.
	sess, err := svc.Create(ctx, domain.KindTicTacToe, ids[0], nil)
	if err != nil {
		log.Fatalf("create session: %v", err)
	}
	if _, err := svc.Join(ctx, sess.ID, ids[1]); err != nil {
		log.Fatalf("join session: %v", err)
	}
	moves := []string{`{"cell":4}`, `{"cell":0}`, `{"cell":8}`}
	movers := []uuid.UUID{ids[0], ids[1], ids[0]}
	for i, m := range moves {
		if _, err := svc.RecordMove(ctx, sess.ID, movers[i], json.RawMessage(m)); err != nil {
			log.Fatalf("record move %d: %v", i+1, err)
		}
	}
	if _, err := svc.End(ctx, sess.ID, &ids[0], false); err != nil {
		log.Fatalf("end session: %v", err)
	}
	log.Printf("seeded completed tictactoe session %s", sess.ID)

	// One chess game still waiting for an opponent.
	open, err := svc.Create(ctx, domain.KindChess, ids[2], &domain.TimeControl{
		Mode: "rapid", LimitSeconds: 600, IncrementSeconds: 5,
	})
	if err != nil {
		log.Fatalf("create open session: %v", err)
	}
	log.Printf("seeded waiting chess session %s", open.ID)
}

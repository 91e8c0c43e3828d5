// Applies the SQL files under internal/migrations in lexical order. Without
// -apply it only lists what would run.
package main

import (
	"context"
	"flag"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/MarcMahler/gamehub-backend/internal/db"
	"github.com/MarcMahler/gamehub-backend/internal/logger"

	"github.com/joho/godotenv"
)

func main() {
	_ = godotenv.Load()
	logger.Init("info", false)

	apply := flag.Bool("apply", false, "apply migrations instead of listing them")
	dir := flag.String("dir", filepath.Join("internal", "migrations"), "migrations directory")
	flag.Parse()

	entries, err := os.ReadDir(*dir)
	if err != nil {
		logger.Fatal("failed to read migrations dir", "dir", *dir, "error", err)
	}
	var names []string
	for _, e := range entries {
		if !e.IsDir() && strings.HasSuffix(e.Name(), ".sql") {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)

	if !*apply {
		for _, name := range names {
			logger.Info("pending migration", "file", name)
		}
		return
	}

	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		logger.Fatal("DATABASE_URL is not set")
	}
	pool := db.Connect(dsn, 2)
	defer pool.Close()

	for _, name := range names {
		sql, err := os.ReadFile(filepath.Join(*dir, name))
		if err != nil {
			logger.Fatal("failed to read migration", "file", name, "error", err)
		}
		start := time.Now()
		if _, err := pool.Exec(context.Background(), string(sql)); err != nil {
			logger.Fatal("migration failed", "file", name, "error", err)
		}
		logger.Info("applied migration", "file", name, "took", time.Since(start).Round(time.Millisecond).String())
	}
}

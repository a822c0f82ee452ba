// Command migrate applies database migrations with goose.
//
// Usage:
//
//	migrate [--dir migrations] up|down|status
//
// The database DSN comes from the application config (DATABASE_DSN).
// Exit codes: 0 = success, 1 = error.
package main

import (
	"context"
	"database/sql"
	"flag"
	"log"
	"os"

	_ "github.com/jackc/pgx/v5/stdlib" // pgx driver for database/sql
	"github.com/pressly/goose/v3"

	"github.com/heartmarshall/pulsepal-backend/internal/config"
)

func main() {
	dirFlag := flag.String("dir", "migrations", "directory with migration files")
	flag.Parse()

	if flag.NArg() != 1 {
		log.Fatal("migrate: expected exactly one command: up, down, or status")
	}
	command := flag.Arg(0)

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("migrate: load config: %v", err)
	}

	db, err := sql.Open("pgx", cfg.Database.DSN)
	if err != nil {
		log.Fatalf("migrate: open database: %v", err)
	}
	defer db.Close()

	// goose.NewProvider handles $$-delimited PL/pgSQL functions, unlike
	// the legacy API which splits on semicolons.
	provider, err := goose.NewProvider(goose.DialectPostgres, db, os.DirFS(*dirFlag))
	if err != nil {
		log.Fatalf("migrate: goose provider: %v", err)
	}

	ctx := context.Background()
	switch command {
	case "up":
		if _, err := provider.Up(ctx); err != nil {
			log.Fatalf("migrate: up: %v", err)
		}
	case "down":
		if _, err := provider.Down(ctx); err != nil {
			log.Fatalf("migrate: down: %v", err)
		}
	case "status":
		statuses, err := provider.Status(ctx)
		if err != nil {
			log.Fatalf("migrate: status: %v", err)
		}
		for _, s := range statuses {
			state := "pending"
			if !s.AppliedAt.IsZero() {
				state = s.AppliedAt.Format("2006-01-02 15:04:05")
			}
			log.Printf("%s %s", state, s.Source.Path)
		}
	default:
		log.Fatalf("migrate: unknown command %q", command)
	}
}

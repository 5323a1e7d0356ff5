package main

import (
	"database/sql"
	"flag"
	"log"
	"os"

	"github.com/leafsii/georef/internal/config"
	"github.com/leafsii/georef/internal/db/migrations"
	"github.com/pressly/goose/v3"

	_ "github.com/jackc/pgx/v5/stdlib"
	_ "modernc.org/sqlite"
)

var (
	flags = flag.NewFlagSet("migrate", flag.ExitOnError)
	to    = flags.Int64("to", 0, "target version for up-to and down-to")
)

func main() {
	flags.Parse(os.Args[1:])
	args := flags.Args()

	if len(args) < 1 {
		log.Fatal("Usage: migrate [-to VERSION] COMMAND\n\nCommands:\n  up\n  up-to\n  down\n  down-to\n  status\n  version")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	engine := cfg.Database.Engine()
	var driver, dialect string
	switch engine {
	case "postgres":
		driver, dialect = "pgx", "postgres"
	case "sqlite":
		driver, dialect = "sqlite", "sqlite3"
	default:
		log.Fatalf("Migrations need a SQL database, got DB_DRIVER=%s", engine)
	}

	db, err := sql.Open(driver, cfg.Database.DSN())
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	goose.SetBaseFS(migrations.FS)
	if err := goose.SetDialect(dialect); err != nil {
		log.Fatalf("Failed to set dialect: %v", err)
	}
	dir := migrations.Dir(engine)

	command := args[0]
	switch command {
	case "up":
		if err := goose.Up(db, dir); err != nil {
			log.Fatalf("Migration up failed: %v", err)
		}
	case "up-to":
		if err := goose.UpTo(db, dir, *to); err != nil {
			log.Fatalf("Migration up-to failed: %v", err)
		}
	case "down":
		if err := goose.Down(db, dir); err != nil {
			log.Fatalf("Migration down failed: %v", err)
		}
	case "down-to":
		if err := goose.DownTo(db, dir, *to); err != nil {
			log.Fatalf("Migration down-to failed: %v", err)
		}
	case "status":
		if err := goose.Status(db, dir); err != nil {
			log.Fatalf("Migration status failed: %v", err)
		}
	case "version":
		if err := goose.Version(db, dir); err != nil {
			log.Fatalf("Migration version failed: %v", err)
		}
	default:
		log.Fatalf("Unknown command: %s", command)
	}
}

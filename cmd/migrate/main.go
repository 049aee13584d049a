// Command migrate applies the embedded SQL schema with golang-migrate.
package main

import (
	"context"
	"database/sql"
	"errors"
	"flag"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/joho/godotenv"

	"github.com/diagnosis/restaurant-management/migrations"
	"github.com/diagnosis/restaurant-management/pkg/logger"
)

const defaultTimeout = 5 * time.Minute

func main() {
	_ = godotenv.Load()

	var (
		dbURL   = flag.String("database-url", os.Getenv("DATABASE_URL"), "Postgres connection URL")
		timeout = flag.Duration("timeout", defaultTimeout, "Lock and connect timeout")
	)
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s [options] <command> [args]\n\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "Commands:\n")
		fmt.Fprintf(os.Stderr, "  up [N]     Apply all or N up migrations\n")
		fmt.Fprintf(os.Stderr, "  down [N]   Roll back all or N migrations\n")
		fmt.Fprintf(os.Stderr, "  version    Print the current version\n")
		fmt.Fprintf(os.Stderr, "  force V    Set version V without running migrations\n\n")
		flag.PrintDefaults()
	}
	flag.Parse()

	args := flag.Args()
	if len(args) < 1 || *dbURL == "" {
		flag.Usage()
		os.Exit(2)
	}

	m, err := newMigrate(*dbURL, *timeout)
	if err != nil {
		logger.Fatal("Failed to initialise migrations", "error", err)
	}
	defer m.Close()

	if err := run(m, args[0], args[1:]); err != nil {
		logger.Fatal("Migration command failed", "command", args[0], "error", err)
	}
}

func run(m *migrate.Migrate, cmd string, args []string) error {
	switch cmd {
	case "up":
		n, err := optionalInt(args)
		if err != nil {
			return err
		}
		if n > 0 {
			return ignoreNoChange(m.Steps(n))
		}
		return ignoreNoChange(m.Up())
	case "down":
		n, err := optionalInt(args)
		if err != nil {
			return err
		}
		if n > 0 {
			return ignoreNoChange(m.Steps(-n))
		}
		return ignoreNoChange(m.Down())
	case "version":
		v, dirty, err := m.Version()
		if errors.Is(err, migrate.ErrNilVersion) {
			logger.Info("No migrations applied yet")
			return nil
		}
		if err != nil {
			return err
		}
		logger.Info("Current migration version", "version", v, "dirty", dirty)
		return nil
	case "force":
		if len(args) != 1 {
			return errors.New("force requires a version")
		}
		v, err := strconv.Atoi(args[0])
		if err != nil {
			return fmt.Errorf("invalid version %q: %w", args[0], err)
		}
		return m.Force(v)
	default:
		return fmt.Errorf("unknown command %q", cmd)
	}
}

func optionalInt(args []string) (int, error) {
	if len(args) == 0 {
		return 0, nil
	}
	n, err := strconv.Atoi(args[0])
	if err != nil || n < 0 {
		return 0, fmt.Errorf("invalid step count %q", args[0])
	}
	return n, nil
}

func ignoreNoChange(err error) error {
	if errors.Is(err, migrate.ErrNoChange) {
		logger.Info("No migrations to apply")
		return nil
	}
	if err == nil {
		logger.Info("Migrations applied")
	}
	return err
}

func newMigrate(dbURL string, timeout time.Duration) (*migrate.Migrate, error) {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	db, err := sql.Open("pgx", dbURL)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	driver, err := postgres.WithInstance(db, &postgres.Config{MigrationsTable: "schema_migrations"})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create database driver: %w", err)
	}

	src, err := iofs.New(migrations.FS, ".")
	if err != nil {
		return nil, fmt.Errorf("failed to read embedded migrations: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", src, "postgres", driver)
	if err != nil {
		return nil, fmt.Errorf("failed to create migrate instance: %w", err)
	}
	m.LockTimeout = timeout
	return m, nil
}

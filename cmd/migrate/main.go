package main

import (
	"database/sql"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/joho/godotenv"
	"github.com/lib/pq"
	"github.com/pressly/goose/v3"

	"toolrental/internal/config"
	"toolrental/internal/logger"
)

const (
	pqInvalidCatalog  = "3D000"
	pqDuplicateDBName = "42P04"
)

type options struct {
	command string
	name    string
	version int64
	dir     string
}

func main() {
	var opts options
	flag.StringVar(&opts.command, "command", "up", "Migration command: up, down, down-to, redo, reset, status, version, create")
	flag.StringVar(&opts.name, "name", "", "Migration name (required for create)")
	flag.Int64Var(&opts.version, "version", 0, "Target version for down-to command")
	flag.StringVar(&opts.dir, "dir", "migrations", "Directory holding goose migrations")
	flag.Parse()

	if err := godotenv.Load(); err != nil {
		log.Println(".env not loaded, relying on environment")
	}

	cfg := config.Load()
	logger.Initialize(cfg.Log.Level, cfg.Log.Format)

	if err := run(cfg, opts); err != nil {
		logger.Error("migration failed", "command", opts.command, "error", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config, opts options) error {
	if opts.command == "create" && opts.name == "" {
		return errors.New("migration name is required for create command")
	}

	db, err := open(cfg, opts.command == "up")
	if err != nil {
		return err
	}
	defer db.Close()

	if err := goose.SetDialect("postgres"); err != nil {
		return fmt.Errorf("set dialect: %w", err)
	}

	switch opts.command {
	case "up":
		err = goose.Up(db, opts.dir)
	case "down":
		err = goose.Down(db, opts.dir)
	case "down-to":
		err = goose.DownTo(db, opts.dir, opts.version)
	case "redo":
		err = goose.Redo(db, opts.dir)
	case "reset":
		err = goose.Reset(db, opts.dir)
	case "status":
		err = goose.Status(db, opts.dir)
	case "version":
		err = goose.Version(db, opts.dir)
	case "create":
		err = goose.Create(db, opts.dir, opts.name, "sql")
	default:
		return fmt.Errorf("unknown command %q", opts.command)
	}
	if err != nil {
		return err
	}

	logger.Info("migration command finished", "command", opts.command, "dir", opts.dir)
	return nil
}

// open connects to the configured database. When createMissing is set and the
// database does not exist yet, it is created first.
func open(cfg *config.Config, createMissing bool) (*sql.DB, error) {
	db, err := connect(cfg.DatabaseDSN())
	if err == nil {
		return db, nil
	}

	var pqErr *pq.Error
	if !createMissing || !errors.As(err, &pqErr) || pqErr.Code != pqInvalidCatalog {
		return nil, err
	}

	if err := createDatabase(cfg); err != nil {
		return nil, err
	}
	return connect(cfg.DatabaseDSN())
}

func connect(dsn string) (*sql.DB, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("connect to database: %w", err)
	}
	return db, nil
}

func createDatabase(cfg *config.Config) error {
	admin := *cfg
	admin.Database.Name = "postgres"

	db, err := connect(admin.DatabaseDSN())
	if err != nil {
		return err
	}
	defer db.Close()

	_, err = db.Exec("CREATE DATABASE " + pq.QuoteIdentifier(cfg.Database.Name))
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == pqDuplicateDBName {
			return nil
		}
		return fmt.Errorf("create database %s: %w", cfg.Database.Name, err)
	}

	logger.Info("database created", "name", cfg.Database.Name)
	return nil
}

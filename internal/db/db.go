// Package db keeps an append-only journal of published order snapshots.
// The journal is an audit trail; orders are never restored from it.
package db

import (
	"database/sql"
	"embed"
	"fmt"

	"github.com/pressly/goose/v3"
	_ "modernc.org/sqlite"
)

// MemoryPath opens a private in-memory journal.
const MemoryPath = ":memory:"

//go:embed migrations/*.sql
var embedMigrations embed.FS

type DB struct {
	*sql.DB
}

type pragma struct {
	stmt string
	desc string
	// file-backed journals only; WAL has no meaning in memory
	fileOnly bool
}

var pragmas = []pragma{
	{stmt: `PRAGMA foreign_keys = ON;`, desc: "enabling foreign keys"},
	{stmt: `PRAGMA journal_mode = WAL;`, desc: "setting WAL mode", fileOnly: true},
	{stmt: `PRAGMA busy_timeout = 5000;`, desc: "setting busy timeout", fileOnly: true},
}

// Open opens the journal at dbPath without migrating it.
func Open(dbPath string) (*DB, error) {
	sqlDB, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	// A single connection keeps an in-memory journal alive and serializes
	// sequence allocation in RecordSnapshot.
	sqlDB.SetMaxOpenConns(1)

	for _, p := range pragmas {
		if p.fileOnly && dbPath == MemoryPath {
			continue
		}
		if _, err := sqlDB.Exec(p.stmt); err != nil {
			_ = sqlDB.Close()
			return nil, fmt.Errorf("%s: %w", p.desc, err)
		}
	}

	return &DB{DB: sqlDB}, nil
}

// OpenJournal opens the journal at dbPath and brings its schema up to date.
func OpenJournal(dbPath string) (*DB, error) {
	db, err := Open(dbPath)
	if err != nil {
		return nil, err
	}
	if err := db.Migrate(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}

// OpenMemory returns a migrated journal that lives until Close.
func OpenMemory() (*DB, error) {
	return OpenJournal(MemoryPath)
}

func (db *DB) Migrate() error {
	goose.SetBaseFS(embedMigrations)
	goose.SetLogger(goose.NopLogger())

	if err := goose.SetDialect("sqlite3"); err != nil {
		return fmt.Errorf("setting dialect: %w", err)
	}

	if err := goose.Up(db.DB, "migrations"); err != nil {
		return fmt.Errorf("running migrations: %w", err)
	}

	return nil
}

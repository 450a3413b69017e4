// Package ledger is a diagnostic-only SQLite side-store recording AOL
// segment rotations and periodic DBSIZE snapshots. It never participates
// in keyspace durability or replay — losing it loses only operational
// history, never data (§2 domain stack enrichment).
package ledger

import (
	"embed"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/sqlite3"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"

	"github.com/cc-kvstore/kvstored/pkg/log"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// Ledger is a handle to the diagnostic SQLite database at a configured
// path.
type Ledger struct {
	db *sqlx.DB
}

// Open opens (creating and migrating if necessary) the SQLite database at
// path.
func Open(path string) (*Ledger, error) {
	db, err := sqlx.Connect("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("ledger: connect: %w", err)
	}

	if err := runMigrations(db, path); err != nil {
		db.Close()
		return nil, fmt.Errorf("ledger: migrate: %w", err)
	}

	return &Ledger{db: db}, nil
}

func runMigrations(db *sqlx.DB, path string) error {
	srcDriver, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return err
	}
	dbDriver, err := sqlite3.WithInstance(db.DB, &sqlite3.Config{})
	if err != nil {
		return err
	}
	m, err := migrate.NewWithInstance("iofs", srcDriver, "sqlite3", dbDriver)
	if err != nil {
		return err
	}
	if err := m.Up(); err != nil && err != migrate.ErrNoChange {
		return err
	}
	return nil
}

// RecordSegmentRotation logs that the AOL was rotated, producing a new
// segment file at path of the given size.
func (l *Ledger) RecordSegmentRotation(path string, sizeBytes int64) {
	if l == nil {
		return
	}
	q, args, err := sq.Insert("aol_segments").
		Columns("path", "size_bytes", "rotated_at").
		Values(path, sizeBytes, time.Now().UTC()).
		ToSql()
	if err != nil {
		log.Warnf("ledger: building segment-rotation insert: %s", err.Error())
		return
	}
	if _, err := l.db.Exec(q, args...); err != nil {
		log.Warnf("ledger: recording segment rotation: %s", err.Error())
	}
}

// RecordSnapshot logs the current key count at the current time.
func (l *Ledger) RecordSnapshot(keyCount int) {
	if l == nil {
		return
	}
	q, args, err := sq.Insert("dbsize_snapshots").
		Columns("key_count", "taken_at").
		Values(keyCount, time.Now().UTC()).
		ToSql()
	if err != nil {
		log.Warnf("ledger: building snapshot insert: %s", err.Error())
		return
	}
	if _, err := l.db.Exec(q, args...); err != nil {
		log.Warnf("ledger: recording snapshot: %s", err.Error())
	}
}

// Close closes the underlying database handle. Safe to call on a nil
// Ledger.
func (l *Ledger) Close() error {
	if l == nil {
		return nil
	}
	return l.db.Close()
}

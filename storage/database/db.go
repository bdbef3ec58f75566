package database

import (
	"database/sql"
	"embed"
	"net/url"
	"os"
	"path/filepath"

	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"
	"github.com/pkg/errors"
	"github.com/pressly/goose/v3"

	"github.com/smkremaja/pkl/core"
)

const (
	driverName     = "sqlite3"
	migrationsDir  = "migrations"
	busyTimeoutMs  = "5000"
	immediateLocks = "immediate"
)

//go:embed migrations/*.sql
var migrations embed.FS

func init() {
	goose.SetBaseFS(migrations)
	if err := goose.SetDialect(driverName); err != nil {
		panic(err)
	}
}

func dsn(path string) string {
	q := make(url.Values)
	q.Set("_busy_timeout", busyTimeoutMs)
	q.Set("_txlock", immediateLocks)
	return "file:" + path + "?" + q.Encode()
}

// Open opens the SQLite file at conf.Database.Path, creating its directory when needed.
// Writers are serialized: the pool holds a single connection and transactions take the write lock upfront.
func Open(conf *core.Config) (*sqlx.DB, error) {
	return OpenPath(conf.Database.Path)
}

func OpenPath(path string) (*sqlx.DB, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return nil, errors.Wrap(err, "creating database directory")
		}
	}
	db, err := sqlx.Open(driverName, dsn(path))
	if err != nil {
		return nil, errors.Wrap(err, "opening database")
	}
	db.SetMaxOpenConns(1)
	if err = db.Ping(); err != nil {
		_ = db.Close()
		return nil, errors.Wrap(err, "pinging database")
	}
	return db, nil
}

// Migrate applies every pending migration.
func Migrate(db *sql.DB) error {
	if err := goose.Up(db, migrationsDir); err != nil {
		return errors.Wrap(err, "migrating database")
	}
	return nil
}

// RunMigrations runs a goose command (up, down, status, redo, version...) against the embedded migrations.
func RunMigrations(command string, db *sql.DB, args ...string) error {
	return goose.Run(command, db, migrationsDir, args...)
}

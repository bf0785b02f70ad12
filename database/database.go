package database

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"

	"github.com/mbolis/survey-portal/config"
	"github.com/mbolis/survey-portal/log"
)

const (
	SQLite   = "sqlite3"
	Postgres = "postgres"
)

// Open connects to the configured database and brings its schema up to date.
func Open(cfg config.Config) (db *sql.DB, err error) {
	dsn := cfg.DBUrl
	switch cfg.DBDriver {
	case SQLite:
		dsn = sqliteDSN(dsn)
	case Postgres:
	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.DBDriver)
	}

	db, err = sql.Open(cfg.DBDriver, dsn)
	if err != nil {
		return
	}

	// db tuning options
	db.SetMaxOpenConns(20)
	db.SetMaxIdleConns(10)
	db.SetConnMaxIdleTime(5 * time.Minute)
	db.SetConnMaxLifetime(2 * time.Hour)

	err = db.Ping()
	if err != nil {
		db.Close()
		return
	}

	err = migrateDB(db, cfg.DBDriver)
	if err != nil {
		db.Close()
		return
	}

	log.Debugf("database.open: %s schema up to date", cfg.DBDriver)
	return
}

// sqliteDSN turns on foreign keys for every pooled connection, and waits on
// locks instead of failing when writers overlap.
func sqliteDSN(path string) string {
	sep := "?"
	if strings.Contains(path, "?") {
		sep = "&"
	}
	return path + sep + "_foreign_keys=on&_busy_timeout=5000&_journal_mode=WAL"
}

// Package store reads xDR records from a SQL table and runs the canned
// ranking queries over it.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/KaramelBytes/xdrstat/internal/xdr"
	"github.com/lib/pq"
	"github.com/rs/zerolog/log"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// ErrNoDSN is returned by Open when no connection string is configured.
var ErrNoDSN = errors.New("store: database dsn not configured")

const (
	DefaultTable = "xdr_data"
	DefaultLimit = 10
)

// Config selects the database and table.
type Config struct {
	Driver string // postgres (default) or sqlite
	DSN    string
	Table  string
	Limit  int
}

// Store runs queries against one xDR table.
type Store struct {
	db    *gorm.DB
	table string
	cols  xdr.Columns
	limit int
}

// Open connects with the configured driver.
func Open(cfg Config, cols xdr.Columns) (*Store, error) {
	if strings.TrimSpace(cfg.DSN) == "" {
		return nil, ErrNoDSN
	}
	var dialector gorm.Dialector
	switch strings.ToLower(cfg.Driver) {
	case "", "postgres", "postgresql":
		dialector = postgres.Open(cfg.DSN)
	case "sqlite", "sqlite3":
		dialector = sqlite.Open(cfg.DSN)
	default:
		return nil, fmt.Errorf("store: unsupported driver %q (use postgres or sqlite)", cfg.Driver)
	}
	db, err := gorm.Open(dialector, &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	if err != nil {
		return nil, fmt.Errorf("store: connect: %w", err)
	}
	log.Debug().Str("driver", cfg.Driver).Str("table", cfg.Table).Msg("database connected")
	return New(db, cfg.Table, cols, cfg.Limit), nil
}

// New wraps an open connection. Empty table and non-positive limit fall back
// to the defaults.
func New(db *gorm.DB, table string, cols xdr.Columns, limit int) *Store {
	if table == "" {
		table = DefaultTable
	}
	if limit <= 0 {
		limit = DefaultLimit
	}
	return &Store{db: db, table: table, cols: cols, limit: limit}
}

// Close releases the underlying connection pool.
func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func (s *Store) quotedTable() string {
	parts := strings.Split(s.table, ".")
	for i, p := range parts {
		parts[i] = pq.QuoteIdentifier(p)
	}
	return strings.Join(parts, ".")
}

func (s *Store) query(ctx context.Context, query string, args ...any) (*sql.Rows, error) {
	return s.db.WithContext(ctx).Raw(query, args...).Rows()
}

package sqlite

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/loykin/j2g/internal/constants"
)

// timeLayout is fixed-width so that text ordering matches time ordering.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// Dialect implements SQL dialect for SQLite
type Dialect struct{}

// NewDialect creates a new SQLite dialect
func NewDialect() *Dialect {
	return &Dialect{}
}

// GetPlaceholder returns SQLite-style placeholders (?)
func (s *Dialect) GetPlaceholder() string {
	return "?"
}

// ConvertTimeToStorage stores timestamps as fixed-width UTC text
func (s *Dialect) ConvertTimeToStorage(t time.Time) interface{} {
	return t.UTC().Format(timeLayout)
}

// ConvertTimeFromStorage parses the text written by ConvertTimeToStorage
func (s *Dialect) ConvertTimeFromStorage(val string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339Nano, val)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse stored time %q: %w", val, err)
	}
	return t, nil
}

// Connect opens the database with a single writer connection
func (s *Dialect) Connect(dsn string) (*sql.DB, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open SQLite connection: %w", err)
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping SQLite database: %w", err)
	}

	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	lifetime, idle := connLimits(dsn)
	db.SetConnMaxLifetime(lifetime)
	db.SetConnMaxIdleTime(idle)
	return db, nil
}

// connLimits returns the pool recycling limits. An in-memory database lives
// only as long as its connection, so it is never recycled.
func connLimits(dsn string) (lifetime, idle time.Duration) {
	if isMemory(dsn) {
		return 0, 0
	}
	return constants.DefaultSQLiteLifetime, constants.DefaultSQLiteIdleTime
}

func isMemory(dsn string) bool {
	return strings.Contains(dsn, ":memory:") || strings.Contains(dsn, "mode=memory")
}

// GetEnsureStatements returns the history table and its index
func (s *Dialect) GetEnsureStatements(conversions string) []string {
	return []string{
		fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s (id TEXT PRIMARY KEY, source_name TEXT NOT NULL, sha256 TEXT NOT NULL, profile TEXT NOT NULL, yaml TEXT NOT NULL, warnings_json TEXT NULL, created_at TEXT NOT NULL)", conversions),
		fmt.Sprintf("CREATE INDEX IF NOT EXISTS %s_created_at_idx ON %s (created_at)", conversions, conversions),
	}
}

// GetDriverName returns the driver name for logging
func (s *Dialect) GetDriverName() string {
	return "sqlite"
}

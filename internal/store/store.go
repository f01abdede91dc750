// Package store keeps the history of conversions in SQLite or PostgreSQL.
package store

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/loykin/j2g/internal/common"
	"github.com/loykin/j2g/internal/constants"
	"github.com/loykin/j2g/internal/retry"
	"github.com/loykin/j2g/internal/store/connector"
	"github.com/loykin/j2g/internal/workflow"
)

// Store records conversions through a database connector.
type Store struct {
	DB     *sql.DB
	driver string
	tn     TableNames
	conn   connector.Connector
	retry  *retry.Config
	now    func() time.Time
}

// Entry is what the caller knows about a finished conversion.
type Entry struct {
	SourceName string
	Source     string
	Profile    string
	YAML       []byte
	Warnings   []workflow.Warning
}

// Open connects to the configured database and ensures the schema.
// Transient connection errors are retried.
func Open(ctx context.Context, cfg Config) (*Store, error) {
	conn, err := newConnector(cfg.Driver)
	if err != nil {
		return nil, err
	}
	tn := cfg.TableNames
	if tn.Conversions == "" {
		tn = TableNamesWithPrefix("")
	}
	if err := validateTableNames(tn); err != nil {
		return nil, err
	}
	if cfg.DriverConfig != nil {
		if err := conn.Load(cfg.DriverConfig.ToMap()); err != nil {
			return nil, err
		}
	}
	if err := conn.Validate(); err != nil {
		return nil, err
	}

	rc := retry.DefaultRetryConfig()
	db, err := retry.WithRetryValue(ctx, rc, conn.Connect)
	if err != nil {
		return nil, fmt.Errorf("store: connect: %w", err)
	}
	s := &Store{DB: db, driver: cfg.Driver, tn: tn, conn: conn, retry: rc, now: time.Now}
	if err := s.EnsureSchema(ctx); err != nil {
		_ = conn.Close()
		return nil, err
	}
	common.FromContext(ctx).WithStore(s.Driver()).Info("conversion history ready", "table", tn.Conversions)
	return s, nil
}

// Driver returns the normalized driver name.
func (s *Store) Driver() string {
	if s.driver == "" {
		return DriverSqlite
	}
	return s.driver
}

// TableNames returns the tables in use.
func (s *Store) TableNames() TableNames {
	return s.tn
}

// EnsureSchema creates the tables if missing; it is idempotent.
func (s *Store) EnsureSchema(ctx context.Context) error {
	return retry.WithRetry(ctx, s.retry, func() error {
		return s.conn.Ensure(ctx, s.tn)
	})
}

// Record stores a conversion and returns the stored row.
func (s *Store) Record(ctx context.Context, e Entry) (Conversion, error) {
	sum := sha256.Sum256([]byte(e.Source))
	c := Conversion{
		ID:         uuid.NewString(),
		SourceName: e.SourceName,
		SHA256:     hex.EncodeToString(sum[:]),
		Profile:    e.Profile,
		YAML:       string(e.YAML),
		Warnings:   e.Warnings,
		CreatedAt:  s.now().UTC(),
	}
	err := retry.WithRetry(ctx, s.retry, func() error {
		return s.conn.Insert(ctx, s.tn, c)
	})
	if err != nil {
		return Conversion{}, fmt.Errorf("store: record conversion: %w", err)
	}
	common.FromContext(ctx).WithStore(s.Driver()).WithConversion(c.ID).Debug("conversion recorded", "source", c.SourceName)
	return c, nil
}

// Get returns a stored conversion including its YAML.
func (s *Store) Get(ctx context.Context, id string) (Conversion, error) {
	if _, err := uuid.Parse(id); err != nil {
		return Conversion{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return retry.WithRetryValue(ctx, s.retry, func() (Conversion, error) {
		c, err := s.conn.Get(ctx, s.tn, id)
		return c, permanentIfNotFound(err)
	})
}

// List returns up to limit conversions, newest first. A non-positive limit selects the default.
func (s *Store) List(ctx context.Context, limit int) ([]Conversion, error) {
	if limit <= 0 {
		limit = constants.DefaultHistoryLimit
	}
	return retry.WithRetryValue(ctx, s.retry, func() ([]Conversion, error) {
		return s.conn.List(ctx, s.tn, limit)
	})
}

// Delete removes a stored conversion.
func (s *Store) Delete(ctx context.Context, id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return retry.WithRetry(ctx, s.retry, func() error {
		return permanentIfNotFound(s.conn.Delete(ctx, s.tn, id))
	})
}

func (s *Store) Close() error {
	if s == nil || s.conn == nil {
		return nil
	}
	return s.conn.Close()
}

func permanentIfNotFound(err error) error {
	if errors.Is(err, ErrNotFound) {
		return retry.Permanent(err)
	}
	return err
}

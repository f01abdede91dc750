package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/go-viper/mapstructure/v2"
	_ "modernc.org/sqlite"

	"github.com/loykin/j2g/internal/common"
	"github.com/loykin/j2g/internal/store/connector"
)

type Store struct {
	db      *sql.DB
	dialect *Dialect
	DSN     string
}

// NewStore creates a new SQLite store
func NewStore() *Store {
	return &Store{
		dialect: NewDialect(),
	}
}

// Load reads "dsn" or "path" from config. A path is turned into a file DSN
// with a busy timeout.
func (s *Store) Load(config map[string]interface{}) error {
	var c struct {
		DSN  string `mapstructure:"dsn"`
		Path string `mapstructure:"path"`
	}
	if err := mapstructure.Decode(config, &c); err != nil {
		return fmt.Errorf("sqlite config: %w", err)
	}
	switch {
	case c.DSN != "":
		s.DSN = c.DSN
	case c.Path != "":
		s.DSN = fmt.Sprintf("file:%s?_pragma=busy_timeout(%d)&%s", c.Path, busyTimeoutMS, foreignKeysParam)
	}
	return nil
}

// Validate performs basic validation
func (s *Store) Validate() error {
	return nil
}

// Connect opens the database; an empty DSN opens an in-memory database.
func (s *Store) Connect() (*sql.DB, error) {
	if s.DSN == "" {
		s.DSN = ":memory:"
	}
	db, err := s.dialect.Connect(s.DSN)
	if err != nil {
		return nil, err
	}
	s.db = db
	common.GetLogger().WithStore(s.dialect.GetDriverName()).Debug("database connection established")
	return db, nil
}

// Close closes the database connection
func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// Ensure creates the history table
func (s *Store) Ensure(ctx context.Context, th connector.TableNames) error {
	logger := common.FromContext(ctx).WithStore(s.dialect.GetDriverName())
	for i, q := range s.dialect.GetEnsureStatements(th.Conversions) {
		if _, err := s.db.ExecContext(ctx, q); err != nil {
			logger.Error("schema statement failed", "error", err, "statement", i+1)
			return fmt.Errorf("ensure schema statement %d: %w", i+1, err)
		}
	}
	logger.Debug("schema ensured", "table", th.Conversions)
	return nil
}

// Insert writes one conversion row
func (s *Store) Insert(ctx context.Context, th connector.TableNames, c connector.Conversion) error {
	warnings, err := json.Marshal(c.Warnings)
	if err != nil {
		return fmt.Errorf("encode warnings: %w", err)
	}
	ph := s.dialect.GetPlaceholder()
	q := fmt.Sprintf("INSERT INTO %s(id, source_name, sha256, profile, yaml, warnings_json, created_at) VALUES(%s, %s, %s, %s, %s, %s, %s)",
		th.Conversions, ph, ph, ph, ph, ph, ph, ph)
	_, err = s.db.ExecContext(ctx, q, c.ID, c.SourceName, c.SHA256, c.Profile, c.YAML, string(warnings), s.dialect.ConvertTimeToStorage(c.CreatedAt))
	return err
}

// Get returns the conversion with the given id
func (s *Store) Get(ctx context.Context, th connector.TableNames, id string) (connector.Conversion, error) {
	q := fmt.Sprintf("SELECT id, source_name, sha256, profile, yaml, warnings_json, created_at FROM %s WHERE id = %s",
		th.Conversions, s.dialect.GetPlaceholder())
	c, err := s.scan(s.db.QueryRowContext(ctx, q, id), true)
	if errors.Is(err, sql.ErrNoRows) {
		return connector.Conversion{}, fmt.Errorf("%w: %s", connector.ErrNotFound, id)
	}
	return c, err
}

// List returns up to limit conversions, newest first
func (s *Store) List(ctx context.Context, th connector.TableNames, limit int) ([]connector.Conversion, error) {
	q := fmt.Sprintf("SELECT id, source_name, sha256, profile, '', warnings_json, created_at FROM %s ORDER BY created_at DESC, id DESC LIMIT %s",
		th.Conversions, s.dialect.GetPlaceholder())
	rows, err := s.db.QueryContext(ctx, q, limit)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var out []connector.Conversion
	for rows.Next() {
		c, err := s.scan(rows, false)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// Delete removes the conversion with the given id
func (s *Store) Delete(ctx context.Context, th connector.TableNames, id string) error {
	q := fmt.Sprintf("DELETE FROM %s WHERE id = %s", th.Conversions, s.dialect.GetPlaceholder())
	res, err := s.db.ExecContext(ctx, q, id)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("%w: %s", connector.ErrNotFound, id)
	}
	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func (s *Store) scan(row scanner, withYAML bool) (connector.Conversion, error) {
	var (
		c         connector.Conversion
		yamlText  string
		warnings  sql.NullString
		createdAt string
	)
	if err := row.Scan(&c.ID, &c.SourceName, &c.SHA256, &c.Profile, &yamlText, &warnings, &createdAt); err != nil {
		return connector.Conversion{}, err
	}
	if withYAML {
		c.YAML = yamlText
	}
	if warnings.Valid && warnings.String != "" {
		if err := json.Unmarshal([]byte(warnings.String), &c.Warnings); err != nil {
			return connector.Conversion{}, fmt.Errorf("decode warnings: %w", err)
		}
	}
	t, err := s.dialect.ConvertTimeFromStorage(createdAt)
	if err != nil {
		return connector.Conversion{}, err
	}
	c.CreatedAt = t
	return c, nil
}

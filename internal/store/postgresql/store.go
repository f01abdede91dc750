package postgresql

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/go-viper/mapstructure/v2"

	"github.com/loykin/j2g/internal/common"
	"github.com/loykin/j2g/internal/store/connector"
)

type Store struct {
	db      *sql.DB
	dialect *Dialect
	DSN     string
}

// NewStore creates a new PostgreSQL store
func NewStore() *Store {
	return &Store{
		dialect: NewDialect(),
	}
}

// Load accepts either {"dsn": ...} or the component fields of Config.
func (p *Store) Load(config map[string]interface{}) error {
	var c Config
	if err := mapstructure.Decode(config, &c); err != nil {
		return fmt.Errorf("postgresql config: %w", err)
	}
	p.DSN = c.BuildDSN()
	return nil
}

// Validate requires a DSN
func (p *Store) Validate() error {
	if p.DSN == "" {
		return errors.New("postgresql store requires a dsn or host")
	}
	return nil
}

// Connect establishes a connection to PostgreSQL
func (p *Store) Connect() (*sql.DB, error) {
	db, err := p.dialect.Connect(p.DSN)
	if err != nil {
		return nil, err
	}
	p.db = db
	common.GetLogger().WithStore(p.dialect.GetDriverName()).Debug("database connection established")
	return db, nil
}

// Close closes the database connection
func (p *Store) Close() error {
	if p.db != nil {
		return p.db.Close()
	}
	return nil
}

// Ensure creates the history table
func (p *Store) Ensure(ctx context.Context, th connector.TableNames) error {
	logger := common.FromContext(ctx).WithStore(p.dialect.GetDriverName())
	for i, q := range p.dialect.GetEnsureStatements(th.Conversions) {
		if _, err := p.db.ExecContext(ctx, q); err != nil {
			logger.Error("schema statement failed", "error", err, "statement", i+1)
			return fmt.Errorf("ensure schema statement %d: %w", i+1, err)
		}
	}
	logger.Debug("schema ensured", "table", th.Conversions)
	return nil
}

// Insert writes one conversion row
func (p *Store) Insert(ctx context.Context, th connector.TableNames, c connector.Conversion) error {
	warnings, err := json.Marshal(c.Warnings)
	if err != nil {
		return fmt.Errorf("encode warnings: %w", err)
	}
	q := fmt.Sprintf("INSERT INTO %s(id, source_name, sha256, profile, yaml, warnings_json, created_at) VALUES(%s, %s, %s, %s, %s, %s, %s)",
		th.Conversions,
		p.dialect.GetPlaceholder(1), p.dialect.GetPlaceholder(2), p.dialect.GetPlaceholder(3), p.dialect.GetPlaceholder(4),
		p.dialect.GetPlaceholder(5), p.dialect.GetPlaceholder(6), p.dialect.GetPlaceholder(7))
	_, err = p.db.ExecContext(ctx, q, c.ID, c.SourceName, c.SHA256, c.Profile, c.YAML, string(warnings), c.CreatedAt.UTC())
	return err
}

// Get returns the conversion with the given id
func (p *Store) Get(ctx context.Context, th connector.TableNames, id string) (connector.Conversion, error) {
	q := fmt.Sprintf("SELECT id, source_name, sha256, profile, yaml, warnings_json, created_at FROM %s WHERE id = %s",
		th.Conversions, p.dialect.GetPlaceholder(1))
	c, err := scan(p.db.QueryRowContext(ctx, q, id), true)
	if errors.Is(err, sql.ErrNoRows) {
		return connector.Conversion{}, fmt.Errorf("%w: %s", connector.ErrNotFound, id)
	}
	return c, err
}

// List returns up to limit conversions, newest first
func (p *Store) List(ctx context.Context, th connector.TableNames, limit int) ([]connector.Conversion, error) {
	q := fmt.Sprintf("SELECT id, source_name, sha256, profile, '', warnings_json, created_at FROM %s ORDER BY created_at DESC, id DESC LIMIT %s",
		th.Conversions, p.dialect.GetPlaceholder(1))
	rows, err := p.db.QueryContext(ctx, q, limit)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var out []connector.Conversion
	for rows.Next() {
		c, err := scan(rows, false)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// Delete removes the conversion with the given id
func (p *Store) Delete(ctx context.Context, th connector.TableNames, id string) error {
	q := fmt.Sprintf("DELETE FROM %s WHERE id = %s", th.Conversions, p.dialect.GetPlaceholder(1))
	res, err := p.db.ExecContext(ctx, q, id)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("%w: %s", connector.ErrNotFound, id)
	}
	return nil
}

func scan(row interface{ Scan(dest ...any) error }, withYAML bool) (connector.Conversion, error) {
	var (
		c        connector.Conversion
		yamlText string
		warnings sql.NullString
	)
	if err := row.Scan(&c.ID, &c.SourceName, &c.SHA256, &c.Profile, &yamlText, &warnings, &c.CreatedAt); err != nil {
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
	c.CreatedAt = c.CreatedAt.UTC()
	return c, nil
}

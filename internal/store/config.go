package store

import (
	"fmt"
	"regexp"

	"github.com/loykin/j2g/internal/constants"
	"github.com/loykin/j2g/internal/store/connector"
	"github.com/loykin/j2g/internal/store/postgresql"
	"github.com/loykin/j2g/internal/store/sqlite"
	"github.com/loykin/j2g/internal/util"
)

const (
	DriverSqlite     = "sqlite"
	DriverPostgresql = "postgresql"
)

type (
	SqliteConfig   = sqlite.Config
	PostgresConfig = postgresql.Config
	TableNames     = connector.TableNames
	Conversion     = connector.Conversion
)

// ErrNotFound is returned by Get and Delete for unknown ids.
var ErrNotFound = connector.ErrNotFound

type Config struct {
	Driver       string `mapstructure:"driver"`
	TableNames   TableNames
	DriverConfig DriverConfig
}

type DriverConfig interface {
	ToMap() map[string]interface{}
}

var identifier = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// TableNamesWithPrefix derives table names from an optional prefix: "app" gives app_conversions.
func TableNamesWithPrefix(prefix string) TableNames {
	if p, ok := util.TrimEmptyCheck(prefix); ok {
		return TableNames{Conversions: p + constants.ConversionsTableSuffix}
	}
	return TableNames{Conversions: constants.DefaultConversionsTable}
}

func validateTableNames(t TableNames) error {
	if !identifier.MatchString(t.Conversions) {
		return fmt.Errorf("store: invalid table name %q", t.Conversions)
	}
	return nil
}

func newConnector(driver string) (connector.Connector, error) {
	switch util.TrimWithDefault(util.TrimAndLower(driver), DriverSqlite) {
	case DriverSqlite:
		return sqlite.NewStore(), nil
	case DriverPostgresql, "postgres":
		return postgresql.NewStore(), nil
	default:
		return nil, fmt.Errorf("store: unsupported driver %q", driver)
	}
}

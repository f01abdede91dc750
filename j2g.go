// Package j2g converts declarative Jenkinsfiles into GitHub Actions workflows.
//
//	res, err := j2g.Convert(ctx, source, j2g.DefaultOptions())
//	if err != nil { ... }
//	os.WriteFile(".github/workflows/ci.yml", res.YAML, 0o644)
package j2g

import (
	"context"

	"github.com/loykin/j2g/internal/common"
	"github.com/loykin/j2g/internal/convert"
	"github.com/loykin/j2g/internal/server"
	"github.com/loykin/j2g/internal/store"
	"github.com/loykin/j2g/internal/workflow"
)

// Conversion
type (
	Options  = convert.Options
	Result   = convert.Result
	Warning  = convert.Warning
	Document = workflow.Document
)

const (
	ProfileUnified  = convert.ProfileUnified
	ProfileBasic    = convert.ProfileBasic
	ProfileEnhanced = convert.ProfileEnhanced
)

var (
	ErrJobIDCollision = convert.ErrJobIDCollision
	ErrUnknownProfile = convert.ErrUnknownProfile
)

// Convert translates a Jenkinsfile into workflow YAML. See Options for the
// available features.
func Convert(ctx context.Context, source string, opts Options) (*Result, error) {
	return convert.Convert(ctx, source, opts)
}

// ConvertString converts with the default options.
func ConvertString(source string) (string, error) {
	res, err := convert.Convert(context.Background(), source, convert.DefaultOptions())
	if err != nil {
		return "", err
	}
	return string(res.YAML), nil
}

func DefaultOptions() Options { return convert.DefaultOptions() }

func ProfileOptions(name string) (Options, error) { return convert.ProfileOptions(name) }

func OptionsFromMap(m map[string]interface{}) (Options, error) { return convert.OptionsFromMap(m) }

// History store
type (
	StoreConfig    = store.Config
	Store          = store.Store
	SqliteConfig   = store.SqliteConfig
	PostgresConfig = store.PostgresConfig
	StoredEntry    = store.Entry
	Conversion     = store.Conversion
)

const (
	DriverSqlite     = store.DriverSqlite
	DriverPostgresql = store.DriverPostgresql
)

var ErrNotFound = store.ErrNotFound

// OpenStore opens the conversion history database.
func OpenStore(ctx context.Context, cfg StoreConfig) (*Store, error) { return store.Open(ctx, cfg) }

// HTTP service
type (
	ServerConfig = server.Config
	Server       = server.Server
	AuthConfig   = server.AuthConfig
	History      = server.History
)

// NewServer creates the HTTP service. history may be nil.
func NewServer(cfg ServerConfig, history History) *Server { return server.New(cfg, history) }

// Logging
type (
	Logger   = common.Logger
	LogLevel = common.LogLevel
)

const (
	LogLevelError = common.LogLevelError
	LogLevelWarn  = common.LogLevelWarn
	LogLevelInfo  = common.LogLevelInfo
	LogLevelDebug = common.LogLevelDebug
)

func NewLogger(level LogLevel) *Logger      { return common.NewLogger(level) }
func NewJSONLogger(level LogLevel) *Logger  { return common.NewJSONLogger(level) }
func NewColorLogger(level LogLevel) *Logger { return common.NewColorLogger(level) }
func SetDefaultLogger(logger *Logger)       { common.SetDefaultLogger(logger) }
func GetLogger() *Logger                    { return common.GetLogger() }

// EnableMasking toggles masking of secret-like values in log output.
func EnableMasking(enabled bool) { common.EnableMasking(enabled) }

func IsMaskingEnabled() bool { return common.IsMaskingEnabled() }

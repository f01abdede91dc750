package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/loykin/j2g"
	"github.com/loykin/j2g/internal/client"
	"github.com/loykin/j2g/internal/constants"
	"github.com/loykin/j2g/internal/convert"
	"github.com/loykin/j2g/internal/server"
	"github.com/loykin/j2g/internal/store"
	"github.com/loykin/j2g/internal/store/postgresql"
	"github.com/loykin/j2g/internal/util"
)

type LoggingConfig struct {
	Level         string `mapstructure:"level" yaml:"level"`                   // error, warn, info, debug
	Format        string `mapstructure:"format" yaml:"format"`                 // text, json, color
	MaskSensitive *bool  `mapstructure:"mask_sensitive" yaml:"mask_sensitive"` // enable/disable sensitive data masking
	Color         *bool  `mapstructure:"color" yaml:"color"`                   // enable/disable colorized output
}

// ConvertConfig starts from a profile; set fields override it.
type ConvertConfig struct {
	Profile         string `mapstructure:"profile" yaml:"profile"`
	InjectTools     *bool  `mapstructure:"inject_tools" yaml:"inject_tools"`
	InjectSecrets   *bool  `mapstructure:"inject_secrets" yaml:"inject_secrets"`
	ExpandParallel  *bool  `mapstructure:"expand_parallel" yaml:"expand_parallel"`
	DockerBroadcast *bool  `mapstructure:"docker_broadcast" yaml:"docker_broadcast"`
	TestMatrix      *bool  `mapstructure:"test_matrix" yaml:"test_matrix"`
	BuildMatrix     *bool  `mapstructure:"build_matrix" yaml:"build_matrix"`
	Strict          *bool  `mapstructure:"strict" yaml:"strict"`
	MaxBlocks       int    `mapstructure:"max_blocks" yaml:"max_blocks"`
	MaxInputBytes   int64  `mapstructure:"max_input_bytes" yaml:"max_input_bytes"`
}

type ServerAuthConfig struct {
	JWTSecret  string `mapstructure:"jwt_secret" yaml:"jwt_secret"`
	Issuer     string `mapstructure:"issuer" yaml:"issuer"`
	Audience   string `mapstructure:"audience" yaml:"audience"`
	TTLSeconds int    `mapstructure:"ttl_seconds" yaml:"ttl_seconds"`
}

type ServerConfig struct {
	Addr           string           `mapstructure:"addr" yaml:"addr"`
	MaxUploadBytes int64            `mapstructure:"max_upload_bytes" yaml:"max_upload_bytes"`
	RequestTimeout string           `mapstructure:"request_timeout" yaml:"request_timeout"` // duration string, e.g. "30s"
	Auth           ServerAuthConfig `mapstructure:"auth" yaml:"auth"`
}

type SQLiteStoreConfig struct {
	Path string `mapstructure:"path" yaml:"path"`
}

type StoreConfig struct {
	Disabled    bool              `mapstructure:"disabled" yaml:"disabled" json:"disabled"`
	Type        string            `mapstructure:"type" yaml:"type"`
	SQLite      SQLiteStoreConfig `mapstructure:"sqlite" yaml:"sqlite"`
	Postgres    postgresql.Config `mapstructure:"postgres" yaml:"postgres"`
	TablePrefix string            `mapstructure:"table_prefix" yaml:"table_prefix"`
}

type RemoteConfig struct {
	Server   string               `mapstructure:"server" yaml:"server"`
	Token    string               `mapstructure:"token" yaml:"token"`
	Insecure bool                 `mapstructure:"insecure" yaml:"insecure"`
	Timeout  string               `mapstructure:"timeout" yaml:"timeout"`
	OAuth2   *client.OAuth2Config `mapstructure:"oauth2" yaml:"oauth2"`
}

type ConfigDoc struct {
	Logging LoggingConfig `mapstructure:"logging" yaml:"logging"`
	Convert ConvertConfig `mapstructure:"convert" yaml:"convert"`
	Server  ServerConfig  `mapstructure:"server" yaml:"server"`
	Store   StoreConfig   `mapstructure:"store" yaml:"store"`
	Remote  RemoteConfig  `mapstructure:"remote" yaml:"remote"`
}

func (c *ConfigDoc) Load(path string) error {
	clean := filepath.Clean(path)
	// Ensure path points to a regular file to avoid opening directories/special files
	if info, statErr := os.Stat(clean); statErr != nil || !info.Mode().IsRegular() {
		if statErr != nil {
			return statErr
		}
		return fmt.Errorf("not a regular file: %s", clean)
	}
	// #nosec G304 -- config path is provided intentionally by the user/CI; cleaned and validated above
	f, err := os.Open(clean)
	if err != nil {
		return err
	}
	defer func() { _ = f.Close() }()
	dec := yaml.NewDecoder(f)
	dec.KnownFields(true)
	return dec.Decode(c)
}

// ConvertOptions resolves the profile and applies the explicit overrides.
func (c *ConfigDoc) ConvertOptions() (convert.Options, error) {
	o, err := convert.ProfileOptions(c.Convert.Profile)
	if err != nil {
		return convert.Options{}, err
	}
	set := func(dst *bool, v *bool) {
		if v != nil {
			*dst = *v
		}
	}
	set(&o.InjectTools, c.Convert.InjectTools)
	set(&o.InjectSecrets, c.Convert.InjectSecrets)
	set(&o.ExpandParallel, c.Convert.ExpandParallel)
	set(&o.DockerBroadcast, c.Convert.DockerBroadcast)
	set(&o.TestMatrix, c.Convert.TestMatrix)
	set(&o.BuildMatrix, c.Convert.BuildMatrix)
	set(&o.Strict, c.Convert.Strict)
	if c.Convert.MaxBlocks > 0 {
		o.MaxBlocks = c.Convert.MaxBlocks
	}
	return o, nil
}

// MaxInputBytes returns the input size limit, defaulting when unset.
func (c *ConfigDoc) MaxInputBytes() int64 {
	if c.Convert.MaxInputBytes > 0 {
		return c.Convert.MaxInputBytes
	}
	return constants.DefaultMaxInputBytes
}

// AuthConfig returns the server auth settings; auth is off without a secret.
func (c *ConfigDoc) AuthConfig() server.AuthConfig {
	return server.AuthConfig{
		Secret:   []byte(c.Server.Auth.JWTSecret),
		Issuer:   c.Server.Auth.Issuer,
		Audience: c.Server.Auth.Audience,
	}
}

// TokenTTL returns the lifetime of issued tokens.
func (c *ConfigDoc) TokenTTL() time.Duration {
	if c.Server.Auth.TTLSeconds > 0 {
		return time.Duration(c.Server.Auth.TTLSeconds) * time.Second
	}
	return constants.DefaultTokenTTL
}

func (c *ConfigDoc) ServerConfig() (server.Config, error) {
	opts, err := c.ConvertOptions()
	if err != nil {
		return server.Config{}, err
	}
	timeout, err := parseDuration("server.request_timeout", c.Server.RequestTimeout, constants.DefaultRequestTimeout)
	if err != nil {
		return server.Config{}, err
	}
	return server.Config{
		Addr:           c.Server.Addr,
		MaxUploadBytes: c.Server.MaxUploadBytes,
		RequestTimeout: timeout,
		Auth:           c.AuthConfig(),
		Options:        opts,
	}, nil
}

// StoreConfig returns nil when the history store is disabled.
func (c *ConfigDoc) StoreConfig() *store.Config {
	if c.Store.Disabled {
		return nil
	}
	cfg := &store.Config{TableNames: store.TableNamesWithPrefix(c.Store.TablePrefix)}
	switch util.TrimAndLower(c.Store.Type) {
	case "postgres", store.DriverPostgresql:
		pg := c.Store.Postgres
		util.TrimStructFields(&pg)
		cfg.Driver = store.DriverPostgresql
		cfg.DriverConfig = &pg
	default:
		cfg.Driver = store.DriverSqlite
		cfg.DriverConfig = &store.SqliteConfig{Path: util.TrimWithDefault(c.Store.SQLite.Path, constants.DefaultSQLitePath)}
	}
	return cfg
}

func (c *ConfigDoc) ClientConfig() (client.Config, error) {
	timeout, err := parseDuration("remote.timeout", c.Remote.Timeout, constants.DefaultRemoteTimeout)
	if err != nil {
		return client.Config{}, err
	}
	return client.Config{
		Server:   c.Remote.Server,
		Token:    c.Remote.Token,
		Insecure: c.Remote.Insecure,
		Timeout:  timeout,
		OAuth2:   c.Remote.OAuth2,
	}, nil
}

func parseDuration(key, s string, def time.Duration) (time.Duration, error) {
	v, ok := util.TrimEmptyCheck(s)
	if !ok {
		return def, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil || d <= 0 {
		return 0, fmt.Errorf("invalid %s: %q", key, s)
	}
	return d, nil
}

func (c *ConfigDoc) parseLogLevel() (j2g.LogLevel, error) {
	level := util.TrimAndLower(c.Logging.Level)
	switch level {
	case "error":
		return j2g.LogLevelError, nil
	case "warn", "warning":
		return j2g.LogLevelWarn, nil
	case "info", "":
		return j2g.LogLevelInfo, nil
	case "debug":
		return j2g.LogLevelDebug, nil
	default:
		return j2g.LogLevelInfo, fmt.Errorf("invalid logging level: %s (valid: error, warn, info, debug)", c.Logging.Level)
	}
}

// SetupLogging configures the global logger based on config settings
func (c *ConfigDoc) SetupLogging() error {
	level, err := c.parseLogLevel()
	if err != nil {
		return err
	}

	var logger *j2g.Logger
	format := util.TrimAndLower(c.Logging.Format)

	useColor := false
	if c.Logging.Color != nil {
		useColor = *c.Logging.Color
	} else if format == "color" || format == "colour" {
		useColor = true
	}

	switch format {
	case "json":
		logger = j2g.NewJSONLogger(level)
	case "color", "colour":
		logger = j2g.NewColorLogger(level)
	case "text", "":
		if useColor {
			logger = j2g.NewColorLogger(level)
		} else {
			logger = j2g.NewLogger(level)
		}
	default:
		return fmt.Errorf("invalid logging format: %s (valid: text, json, color)", c.Logging.Format)
	}

	maskingEnabled := true
	if c.Logging.MaskSensitive != nil {
		maskingEnabled = *c.Logging.MaskSensitive
	}
	logger.EnableMasking(maskingEnabled)
	j2g.SetDefaultLogger(logger)
	j2g.EnableMasking(maskingEnabled)

	logger.Debug("logging configured",
		"level", util.TrimWithDefault(level.String(), "info"),
		"format", util.TrimWithDefault(format, "text"),
		"color", useColor,
		"mask_sensitive", maskingEnabled)
	return nil
}

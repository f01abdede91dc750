package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/loykin/j2g"
	"github.com/loykin/j2g/internal/convert"
	"github.com/loykin/j2g/internal/store"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(p, []byte(body), 0o600); err != nil {
		t.Fatal(err)
	}
	return p
}

func TestConfigDoc_Load_NotRegularFile(t *testing.T) {
	d := t.TempDir()
	var c ConfigDoc
	if err := c.Load(d); err == nil {
		t.Fatalf("expected error for directory path (not a regular file)")
	}
}

func TestConfigDoc_Load_UnknownField(t *testing.T) {
	var c ConfigDoc
	if err := c.Load(writeConfig(t, "convert:\n  profle: basic\n")); err == nil {
		t.Fatal("expected error for misspelled key")
	}
}

func TestConfigDoc_Load_Full(t *testing.T) {
	p := writeConfig(t, `
logging:
  level: debug
  format: json
convert:
  profile: basic
  strict: true
  inject_secrets: true
  max_blocks: 64
server:
  addr: ":9090"
  request_timeout: 5s
  auth:
    jwt_secret: s3cr3t
    issuer: j2g
    ttl_seconds: 60
store:
  type: postgres
  table_prefix: ci
  postgres:
    host: db
    user: app
    password: pw
    dbname: j2g
remote:
  server: http://j2g.internal:8080
  timeout: 10s
  oauth2:
    token_url: http://idp/token
    client_id: cid
    client_secret: sec
`)
	var c ConfigDoc
	if err := c.Load(p); err != nil {
		t.Fatalf("Load: %v", err)
	}

	opts, err := c.ConvertOptions()
	if err != nil {
		t.Fatalf("ConvertOptions: %v", err)
	}
	want := convert.Options{Profile: "basic", ExpandParallel: true, BuildMatrix: true, Strict: true, InjectSecrets: true, MaxBlocks: 64}
	if opts != want {
		t.Fatalf("options = %+v, want %+v", opts, want)
	}

	sc, err := c.ServerConfig()
	if err != nil {
		t.Fatalf("ServerConfig: %v", err)
	}
	if sc.Addr != ":9090" || sc.RequestTimeout != 5*time.Second || !sc.Auth.Enabled() || sc.Options != want {
		t.Fatalf("server config = %+v", sc)
	}
	if c.TokenTTL() != time.Minute {
		t.Fatalf("ttl = %v", c.TokenTTL())
	}

	st := c.StoreConfig()
	if st == nil || st.Driver != store.DriverPostgresql || st.TableNames.Conversions != "ci_conversions" {
		t.Fatalf("store config = %+v", st)
	}
	if dsn := st.DriverConfig.ToMap()["dsn"]; dsn != "postgres://app:pw@db:5432/j2g?sslmode=disable" {
		t.Fatalf("dsn = %v", dsn)
	}

	cc, err := c.ClientConfig()
	if err != nil {
		t.Fatalf("ClientConfig: %v", err)
	}
	if cc.Server != "http://j2g.internal:8080" || cc.Timeout != 10*time.Second || cc.OAuth2 == nil || cc.OAuth2.ClientID != "cid" {
		t.Fatalf("client config = %+v", cc)
	}
}

func TestConfigDoc_Defaults(t *testing.T) {
	var c ConfigDoc
	opts, err := c.ConvertOptions()
	if err != nil || opts != convert.DefaultOptions() {
		t.Fatalf("options = %+v, %v", opts, err)
	}
	st := c.StoreConfig()
	if st == nil || st.Driver != store.DriverSqlite || st.TableNames.Conversions != "conversions" {
		t.Fatalf("store config = %+v", st)
	}
	if got := st.DriverConfig.ToMap()["path"]; got != "j2g.db" {
		t.Fatalf("sqlite path = %v", got)
	}
	if c.MaxInputBytes() != 1<<20 {
		t.Fatalf("max input = %d", c.MaxInputBytes())
	}
	if c.AuthConfig().Enabled() {
		t.Fatal("auth should be off without a secret")
	}

	c.Store.Disabled = true
	if c.StoreConfig() != nil {
		t.Fatal("disabled store should yield nil config")
	}
}

func TestConfigDoc_Invalid(t *testing.T) {
	c := ConfigDoc{Convert: ConvertConfig{Profile: "fancy"}}
	if _, err := c.ConvertOptions(); err == nil {
		t.Fatal("expected unknown profile error")
	}
	c = ConfigDoc{Server: ServerConfig{RequestTimeout: "soon"}}
	if _, err := c.ServerConfig(); err == nil {
		t.Fatal("expected invalid duration error")
	}
}

func TestSetupLogging(t *testing.T) {
	prev := j2g.GetLogger()
	defer j2g.SetDefaultLogger(prev)

	off := false
	tests := []struct {
		name    string
		logging LoggingConfig
		level   j2g.LogLevel
		wantErr bool
	}{
		{"defaults", LoggingConfig{}, j2g.LogLevelInfo, false},
		{"json debug", LoggingConfig{Level: "debug", Format: "json"}, j2g.LogLevelDebug, false},
		{"color warn", LoggingConfig{Level: "warning", Format: "color", MaskSensitive: &off}, j2g.LogLevelWarn, false},
		{"bad level", LoggingConfig{Level: "loud"}, 0, true},
		{"bad format", LoggingConfig{Format: "xml"}, 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := ConfigDoc{Logging: tt.logging}
			err := c.SetupLogging()
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error")
				}
				return
			}
			if err != nil {
				t.Fatalf("SetupLogging: %v", err)
			}
			if j2g.GetLogger().Level() != tt.level {
				t.Fatalf("level = %v, want %v", j2g.GetLogger().Level(), tt.level)
			}
		})
	}
	j2g.EnableMasking(true)
}

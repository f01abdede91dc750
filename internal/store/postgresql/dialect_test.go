package postgresql

import (
	"strings"
	"testing"
)

func TestDialect_Placeholder(t *testing.T) {
	d := NewDialect()
	for i, want := range []string{"$1", "$2", "$10"} {
		idx := []int{1, 2, 10}[i]
		if got := d.GetPlaceholder(idx); got != want {
			t.Errorf("GetPlaceholder(%d) = %q, want %q", idx, got, want)
		}
	}
}

func TestDialect_EnsureStatements(t *testing.T) {
	stmts := NewDialect().GetEnsureStatements("conversions")
	if len(stmts) != 2 || !strings.Contains(stmts[0], "created_at TIMESTAMPTZ NOT NULL") {
		t.Fatalf("statements = %v", stmts)
	}
	if NewDialect().GetDriverName() != "postgresql" {
		t.Fatal("unexpected driver name")
	}
}

func TestConfig_BuildDSN(t *testing.T) {
	tests := []struct {
		name string
		cfg  Config
		want string
	}{
		{"explicit dsn wins", Config{DSN: " postgres://a@h/db ", Host: "other"}, "postgres://a@h/db"},
		{"components", Config{Host: "db", User: "app", Password: "p@ss", DBName: "j2g"}, "postgres://app:p%40ss@db:5432/j2g?sslmode=disable"},
		{"custom port and ssl", Config{Host: "db", Port: 6543, User: "u", Password: "p", DBName: "d", SSLMode: "require"}, "postgres://u:p@db:6543/d?sslmode=require"},
		{"nothing", Config{}, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.cfg.BuildDSN(); got != tt.want {
				t.Fatalf("BuildDSN() = %q, want %q", got, tt.want)
			}
			if got := tt.cfg.ToMap()["dsn"]; got != tt.want {
				t.Fatalf("ToMap()[dsn] = %v", got)
			}
		})
	}
}

func TestStore_LoadAndValidate(t *testing.T) {
	s := NewStore()
	if err := s.Load(map[string]interface{}{}); err != nil {
		t.Fatal(err)
	}
	if err := s.Validate(); err == nil {
		t.Fatal("expected validation error without dsn")
	}
	if err := s.Load(map[string]interface{}{"host": "db", "user": "u", "password": "p", "dbname": "d"}); err != nil {
		t.Fatal(err)
	}
	if err := s.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if !strings.HasPrefix(s.DSN, "postgres://u:p@db:5432/d") {
		t.Fatalf("DSN = %q", s.DSN)
	}
}

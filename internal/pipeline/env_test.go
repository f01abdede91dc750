package pipeline

import (
	"reflect"
	"testing"
)

func TestParseEnvironment_Order(t *testing.T) {
	env := ParseEnvironment(` A = "x" B = "y" `)
	want := Environment{{Name: "A", Value: "x"}, {Name: "B", Value: "y"}}
	if !reflect.DeepEqual(env, want) {
		t.Fatalf("ParseEnvironment = %+v, want %+v", env, want)
	}
}

func TestParseEnvironment_QuotesAndSkips(t *testing.T) {
	body := `
        REGION = 'eu-west-1'
        TOKEN = credentials('deploy-token')
        // OLD = "ignored"
        EMPTY = ""
        REGION = "us-east-1"
    `
	env := ParseEnvironment(body)
	if got := env.Names(); !reflect.DeepEqual(got, []string{"REGION", "EMPTY"}) {
		t.Fatalf("names = %v", got)
	}
	if v, _ := env.Get("REGION"); v != "us-east-1" {
		t.Fatalf("REGION = %q, want overwrite in place", v)
	}
	if _, ok := env.Get("TOKEN"); ok {
		t.Fatal("credentials() binding must not be captured")
	}
}

func TestScannerEnvironment_FirstBlockOnly(t *testing.T) {
	text := `pipeline {
  environment { FIRST = "1" }
  stages {
    stage('S') {
      environment { SECOND = "2" }
      steps { sh "x" }
    }
  }
}`
	env := NewScanner(0).Environment(text)
	if len(env) != 1 || env[0].Name != "FIRST" {
		t.Fatalf("expected only FIRST, got %+v", env)
	}
	if got := NewScanner(0).Environment("pipeline {}"); got != nil {
		t.Fatalf("expected nil environment, got %+v", got)
	}
}

package translate

import (
	"reflect"
	"testing"

	"github.com/loykin/j2g/internal/workflow"
)

func TestSteps_ShIsVerbatim(t *testing.T) {
	tr := Steps(`steps { sh "make build" }`)
	want := []workflow.Step{workflow.RunStep("make build")}
	if !reflect.DeepEqual(tr.Steps, want) {
		t.Fatalf("Steps = %+v, want %+v", tr.Steps, want)
	}
	if len(tr.Warnings) != 0 {
		t.Fatalf("unexpected warnings: %v", tr.Warnings)
	}
}

func TestSteps_SourceOrderAndKinds(t *testing.T) {
	body := `
        echo 'Starting'
        sh "npm ci"
        env "NODE_ENV = production"
        sh 'npm test -- --reporter=dot'
    `
	tr := Steps(body)
	want := []workflow.Step{
		workflow.RunStep("echo Starting"),
		workflow.RunStep("npm ci"),
		workflow.EnvStep("NODE_ENV", "production"),
		workflow.RunStep("npm test -- --reporter=dot"),
	}
	if !reflect.DeepEqual(tr.Steps, want) {
		t.Fatalf("Steps = %+v\nwant %+v", tr.Steps, want)
	}
	if len(tr.Spans) != 4 {
		t.Fatalf("expected 4 spans, got %d", len(tr.Spans))
	}
}

func TestSteps_EnvSplitsOnFirstEquals(t *testing.T) {
	tr := Steps(`env "OPTS=a=b"`)
	want := []workflow.Step{workflow.EnvStep("OPTS", "a=b")}
	if !reflect.DeepEqual(tr.Steps, want) {
		t.Fatalf("Steps = %+v", tr.Steps)
	}
}

func TestSteps_EnvWithoutEqualsWarns(t *testing.T) {
	tr := Steps(`env "BROKEN"` + "\n" + `sh "ok"`)
	if len(tr.Steps) != 1 || tr.Steps[0].Command != "ok" {
		t.Fatalf("Steps = %+v", tr.Steps)
	}
	if len(tr.Warnings) != 1 || tr.Warnings[0].Code != workflow.CodeEnvMissingEquals {
		t.Fatalf("Warnings = %+v", tr.Warnings)
	}
}

func TestSteps_NestedEchoIsNotDuplicated(t *testing.T) {
	tr := Steps(`sh "echo hi"`)
	if len(tr.Steps) != 1 || tr.Steps[0].Command != "echo hi" {
		t.Fatalf("Steps = %+v", tr.Steps)
	}
}

func TestSteps_IgnoresCommentsAndLookalikes(t *testing.T) {
	tr := Steps(`
        // sh "rm -rf /"
        ssh "host"
        publish "x"
        sh '''
make all
'''
    `)
	want := []workflow.Step{workflow.RunStep("make all")}
	if !reflect.DeepEqual(tr.Steps, want) {
		t.Fatalf("Steps = %+v", tr.Steps)
	}
}

func TestDockerSteps(t *testing.T) {
	text := "sh \"docker build -t app .\"\ndocker push registry/app:1\n"
	tr := Steps(text)

	scoped := DockerSteps(text, tr.Spans)
	if want := []workflow.Step{workflow.RunStep("docker push registry/app:1")}; !reflect.DeepEqual(scoped, want) {
		t.Fatalf("scoped DockerSteps = %+v", scoped)
	}

	all := DockerSteps(text, nil)
	want := []workflow.Step{
		workflow.RunStep("docker build -t app ."),
		workflow.RunStep("docker push registry/app:1"),
	}
	if !reflect.DeepEqual(all, want) {
		t.Fatalf("DockerSteps = %+v", all)
	}
}

func TestTrimUnbalanced(t *testing.T) {
	tests := map[string]string{
		`-t app ."`:     `-t app .`,
		`-e X="y"`:      `-e X="y"`,
		`app:latest')`:  `app:latest`,
		`--name (x)`:    `--name (x)`,
		`plain`:         `plain`,
		`"`:             ``,
		`-t app ." } }`: `-t app .`,
	}
	for in, want := range tests {
		if got := trimUnbalanced(in); got != want {
			t.Errorf("trimUnbalanced(%q) = %q, want %q", in, got, want)
		}
	}
}

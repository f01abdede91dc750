package pipeline

import (
	"errors"
	"strings"
	"testing"
)

const declarative = `pipeline {
    agent any
    environment {
        API_KEY = "abc"
        REGION = 'eu-west-1'
    }
    tools {
        nodejs 'node-18'
    }
    stages {
        stage('Build') {
            steps {
                script {
                    if (params.RELEASE) {
                        sh "make release"
                    }
                }
                sh "make build"
            }
            post {
                success { echo "built" }
            }
        }
        stage("Unit Test") {
            steps { sh "make test" }
        }
    }
}
`

func TestFindBlock_FirstMatch(t *testing.T) {
	s := NewScanner(0)
	b, ok := s.FindBlock(declarative, "environment")
	if !ok {
		t.Fatal("environment block not found")
	}
	if !strings.Contains(b.Body, `API_KEY = "abc"`) || strings.Contains(b.Body, "tools") {
		t.Fatalf("unexpected body: %q", b.Body)
	}
	if !b.Terminated {
		t.Fatal("block should be terminated")
	}
}

func TestFindBlock_Absent(t *testing.T) {
	s := NewScanner(0)
	if _, ok := s.FindBlock("pipeline { agent any }", "tools"); ok {
		t.Fatal("expected no tools block")
	}
	if len(s.Issues()) != 0 {
		t.Fatalf("absent block must not record issues: %v", s.Issues())
	}
}

func TestFindStages_NestedBracesDoNotTruncate(t *testing.T) {
	s := NewScanner(0)
	stages := s.FindStages(declarative)
	if len(stages) != 2 {
		t.Fatalf("expected 2 stages, got %d", len(stages))
	}
	if stages[0].Label != "Build" || stages[1].Label != "Unit Test" {
		t.Fatalf("labels = %q, %q", stages[0].Label, stages[1].Label)
	}
	// the if-block inside script must not cut the stage body short
	if !strings.Contains(stages[0].Body, `sh "make build"`) || !strings.Contains(stages[0].Body, "post") {
		t.Fatalf("build body truncated: %q", stages[0].Body)
	}
}

func TestFindStages_SkipsNestedStages(t *testing.T) {
	text := `stages {
  stage('Tests') {
    parallel {
      stage('A') { steps { sh "x" } }
      stage('B') { steps { sh "y" } }
    }
  }
  stage('Deploy') { steps { sh "deploy" } }
}`
	s := NewScanner(0)
	top := s.FindStages(text)
	if len(top) != 2 || top[0].Label != "Tests" || top[1].Label != "Deploy" {
		t.Fatalf("unexpected top-level stages: %+v", top)
	}
	nested := s.FindStages(top[0].Body)
	if len(nested) != 2 || nested[0].Label != "A" || nested[1].Label != "B" {
		t.Fatalf("unexpected nested stages: %+v", nested)
	}
}

func TestFindBlock_IgnoresBracesInStringsAndComments(t *testing.T) {
	text := `stage('S') {
  sh "echo } not a brace"
  // a comment with a } brace
  /* block { comment */
  sh 'echo {'
  echo "done"
}`
	s := NewScanner(0)
	stages := s.FindStages(text)
	if len(stages) != 1 {
		t.Fatalf("expected one stage, got %d", len(stages))
	}
	if !strings.Contains(stages[0].Body, `echo "done"`) {
		t.Fatalf("body truncated: %q", stages[0].Body)
	}
}

func TestFindBlock_KeywordBoundary(t *testing.T) {
	s := NewScanner(0)
	if _, ok := s.FindBlock(`poster { x } post { y }`, "post"); !ok {
		t.Fatal("post block not found")
	}
	b, _ := s.FindBlock(`poster { x } post { y }`, "post")
	if strings.TrimSpace(b.Body) != "y" {
		t.Fatalf("matched wrong block: %q", b.Body)
	}
	if stages := s.FindStages(`stages { }`); len(stages) != 0 {
		t.Fatalf("stages keyword must not match stage: %+v", stages)
	}
}

func TestFindBlock_Unterminated(t *testing.T) {
	s := NewScanner(0)
	stages := s.FindStages(`stage('Broken') { sh "x"`)
	if len(stages) != 1 {
		t.Fatalf("expected one stage, got %d", len(stages))
	}
	if stages[0].Terminated {
		t.Fatal("stage should be unterminated")
	}
	if len(s.Issues()) != 1 || !errors.Is(s.Issues()[0].Err, ErrUnterminated) {
		t.Fatalf("expected unterminated issue, got %v", s.Issues())
	}
}

func TestScanner_Budget(t *testing.T) {
	text := strings.Repeat(`stage('x') { sh "y" } `, 10)
	s := NewScanner(3)
	stages := s.FindStages(text)
	if len(stages) != 3 {
		t.Fatalf("expected budget to cap at 3 stages, got %d", len(stages))
	}
	_ = s.FindStages(text)
	issues := s.Issues()
	if len(issues) != 1 || !errors.Is(issues[0].Err, ErrBudgetExhausted) {
		t.Fatalf("expected a single budget issue, got %v", issues)
	}
}

func TestMask(t *testing.T) {
	text := "a { b }\nc"
	s := NewScanner(0)
	b, ok := s.FindBlock(text, "a")
	if !ok {
		t.Fatal("block not found")
	}
	got := Mask(text, b)
	if got != "       \nc" {
		t.Fatalf("Mask = %q", got)
	}
	if Mask(text) != text {
		t.Fatal("Mask without blocks must be identity")
	}
}

func TestStripComments(t *testing.T) {
	got := StripComments("sh \"a\" // sh \"b\"\n/* echo \"c\" */ echo \"d\"")
	if strings.Contains(got, `"b"`) || strings.Contains(got, `"c"`) {
		t.Fatalf("comments not stripped: %q", got)
	}
	if !strings.Contains(got, `sh "a"`) || !strings.Contains(got, `echo "d"`) {
		t.Fatalf("code lost: %q", got)
	}
}

func TestBlockBodyIn_RecoversMaskedBody(t *testing.T) {
	sc := NewScanner(0)
	text := `parallel { stage('a') { sh "x" } }`
	masked := Mask(text, sc.FindStages(text)...)
	par, ok := sc.FindBlock(masked, "parallel")
	if !ok {
		t.Fatal("parallel block not found")
	}
	if got := par.BodyIn(text); got != ` stage('a') { sh "x" } ` {
		t.Fatalf("BodyIn = %q", got)
	}
}

// Package translate turns recognized Jenkins step statements into workflow steps.
package translate

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/loykin/j2g/internal/pipeline"
	"github.com/loykin/j2g/internal/workflow"
)

var (
	statement = regexp.MustCompile(`\b(sh|echo|env)[ \t]+(?:'''([\s\S]*?)'''|"""([\s\S]*?)"""|"((?:[^"\\\n]|\\.)*)"|'((?:[^'\\\n]|\\.)*)')`)
	dockerCmd = regexp.MustCompile(`(docker build|docker push|docker run)\s+([^\n]+)`)
)

// Span is a byte range [Start, End) of the translated text.
type Span struct {
	Start int
	End   int
}

func (s Span) contains(i int) bool { return i >= s.Start && i < s.End }

// Translation is the outcome of scanning one stage body.
type Translation struct {
	Steps    []workflow.Step
	Warnings []workflow.Warning
	// Spans covers every recognized statement, used to avoid double-counting docker commands.
	Spans []Span
}

// Steps scans body for sh, echo and env statements in source order.
// Comments are ignored. The command text is kept verbatim, escapes included.
func Steps(body string) Translation {
	var tr Translation
	text := pipeline.StripComments(body)
	for _, loc := range statement.FindAllStringSubmatchIndex(text, -1) {
		kind := text[loc[2]:loc[3]]
		arg := ""
		for g := 2; g <= 5; g++ {
			if loc[2*g] >= 0 {
				arg = text[loc[2*g]:loc[2*g+1]]
				break
			}
		}
		tr.Spans = append(tr.Spans, Span{Start: loc[0], End: loc[1]})

		switch kind {
		case "sh":
			tr.Steps = append(tr.Steps, workflow.RunStep(strings.Trim(arg, "\r\n")))
		case "echo":
			tr.Steps = append(tr.Steps, workflow.RunStep("echo "+arg))
		case "env":
			name, value, ok := strings.Cut(arg, "=")
			if !ok {
				tr.Warnings = append(tr.Warnings, workflow.Warning{
					Code:    workflow.CodeEnvMissingEquals,
					Message: fmt.Sprintf("env %q has no '=' and was dropped", arg),
				})
				continue
			}
			tr.Steps = append(tr.Steps, workflow.EnvStep(strings.TrimSpace(name), strings.TrimSpace(value)))
		}
	}
	return tr
}

// DockerSteps returns one run step per docker build/push/run line in text,
// skipping lines that start inside one of the covered spans.
func DockerSteps(text string, covered []Span) []workflow.Step {
	text = pipeline.StripComments(text)
	var out []workflow.Step
	for _, loc := range dockerCmd.FindAllStringSubmatchIndex(text, -1) {
		if isCovered(loc[0], covered) {
			continue
		}
		verb := text[loc[2]:loc[3]]
		args := trimUnbalanced(strings.TrimSpace(text[loc[4]:loc[5]]))
		if args == "" {
			continue
		}
		out = append(out, workflow.RunStep(verb+" "+args))
	}
	return out
}

func isCovered(i int, spans []Span) bool {
	for _, s := range spans {
		if s.contains(i) {
			return true
		}
	}
	return false
}

// trimUnbalanced strips closing quotes, parentheses and braces left over from the
// surrounding Groovy call when the line was captured raw.
func trimUnbalanced(s string) string {
	for s != "" {
		last := s[len(s)-1]
		switch {
		case (last == '"' || last == '\'') && strings.Count(s, string(last))%2 == 1:
			s = strings.TrimSpace(s[:len(s)-1])
		case last == ')' && strings.Count(s, ")") > strings.Count(s, "("):
			s = strings.TrimSpace(s[:len(s)-1])
		case last == '}' && strings.Count(s, "}") > strings.Count(s, "{"):
			s = strings.TrimSpace(s[:len(s)-1])
		default:
			return s
		}
	}
	return s
}

// Package compose assembles the record of a single Jenkins stage from its body.
package compose

import (
	"strings"

	"github.com/loykin/j2g/internal/pipeline"
	"github.com/loykin/j2g/internal/translate"
	"github.com/loykin/j2g/internal/workflow"
)

// Options selects the composable stage features.
type Options struct {
	// ExpandParallel turns stages nested in a parallel block into sub-stages.
	ExpandParallel bool
	// DockerBroadcast appends the docker commands of the whole document to every stage
	// instead of detecting them per stage.
	DockerBroadcast bool
}

// Composer builds stage records for one document.
type Composer struct {
	scanner   *pipeline.Scanner
	opts      Options
	broadcast []workflow.Step
	warnings  []workflow.Warning
}

// New returns a composer for document. The scanner is shared with the caller
// so that the extraction budget covers the whole conversion.
func New(scanner *pipeline.Scanner, document string, opts Options) *Composer {
	c := &Composer{scanner: scanner, opts: opts}
	if opts.DockerBroadcast {
		c.broadcast = translate.DockerSteps(document, nil)
	}
	return c
}

// Warnings returns the problems met by every Compose call so far.
func (c *Composer) Warnings() []workflow.Warning {
	return c.warnings
}

// Compose builds the record for the stage called name with the given body.
func (c *Composer) Compose(name, body string) workflow.Stage {
	st := workflow.Stage{Name: name}

	nested := c.scanner.FindStages(body)
	outer := pipeline.Mask(body, nested...)

	var skip []pipeline.Block
	if when, ok := c.scanner.FindBlock(outer, "when"); ok {
		skip = append(skip, when)
		if expr, ok := c.scanner.FindBlock(when.Body, "expression"); ok {
			st.When = strings.TrimSpace(expr.Body)
		}
	}
	if post, ok := c.scanner.FindBlock(outer, "post"); ok {
		skip = append(skip, post)
		st.Post = c.post(post.Body)
	}

	own := body
	if c.opts.ExpandParallel && strings.Contains(body, "parallel") {
		source := body
		if par, ok := c.scanner.FindBlock(outer, "parallel"); ok {
			skip = append(skip, par)
			source = par.BodyIn(body)
		}
		subs := nested
		if source != body {
			subs = c.scanner.FindStages(source)
		}
		for _, sub := range subs {
			st.SetSubStage(workflow.SubStage{Name: sub.Label, Steps: c.steps(sub.Label, c.stripped(sub.Body))})
		}
		own = outer
	}
	// Without expansion nested stages are flattened into the parent; only the
	// parent's own post and when blocks are excluded.

	st.Steps = c.steps(name, pipeline.Mask(own, skip...))
	return st
}

// stripped masks the post and when blocks of a sub-stage body.
func (c *Composer) stripped(body string) string {
	var skip []pipeline.Block
	for _, kw := range []string{"when", "post"} {
		if b, ok := c.scanner.FindBlock(body, kw); ok {
			skip = append(skip, b)
		}
	}
	return pipeline.Mask(body, skip...)
}

func (c *Composer) steps(stage, text string) []workflow.Step {
	tr := translate.Steps(text)
	for _, w := range tr.Warnings {
		w.Stage = stage
		c.warnings = append(c.warnings, w)
	}
	steps := tr.Steps
	if c.opts.DockerBroadcast {
		steps = append(steps, c.broadcast...)
	} else {
		steps = append(steps, translate.DockerSteps(text, tr.Spans)...)
	}
	return steps
}

func (c *Composer) post(body string) map[workflow.PostCondition][]workflow.Step {
	out := make(map[workflow.PostCondition][]workflow.Step)
	for _, cond := range workflow.PostConditions {
		b, ok := c.scanner.FindBlock(body, string(cond))
		if !ok {
			continue
		}
		out[cond] = []workflow.Step{workflow.RunStep("echo " + strings.TrimSpace(b.Body))}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

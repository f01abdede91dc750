// Package convert drives a Jenkinsfile through extraction, composition and
// emission, and collects the warnings met on the way.
package convert

import (
	"context"
	"errors"
	"fmt"

	"github.com/loykin/j2g/internal/classify"
	"github.com/loykin/j2g/internal/common"
	"github.com/loykin/j2g/internal/compose"
	"github.com/loykin/j2g/internal/pipeline"
	"github.com/loykin/j2g/internal/workflow"
)

// ErrJobIDCollision is returned in strict mode when distinct stage names map to one job id.
var ErrJobIDCollision = errors.New("convert: job id collision")

// Warning is a non-fatal conversion problem.
type Warning = workflow.Warning

// Result is the outcome of a conversion.
type Result struct {
	YAML     []byte
	Document *workflow.Document
	// Stages are the composed stages in first-occurrence order.
	Stages   []workflow.Stage
	Warnings []Warning
}

// HasWarnings reports whether the conversion produced any warning.
func (r *Result) HasWarnings() bool {
	return r != nil && len(r.Warnings) > 0
}

// Convert translates source into workflow YAML. It keeps no state between calls
// and is safe to run concurrently. Errors are limited to context cancellation,
// strict-mode conflicts and YAML encoding failures.
func Convert(ctx context.Context, source string, opts Options) (*Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	logger := common.GetLogger().WithComponent("convert")

	sc := pipeline.NewScanner(opts.MaxBlocks)
	env := sc.Environment(source)
	globals := workflow.Globals{Env: env, Secrets: classify.Secrets(env)}
	if tools, ok := sc.FindBlock(source, "tools"); ok {
		for _, t := range classify.Tools(tools.Body) {
			globals.Actions = append(globals.Actions, t.Action())
		}
	}

	res := &Result{}
	composer := compose.New(sc, source, compose.Options{
		ExpandParallel:  opts.ExpandParallel,
		DockerBroadcast: opts.DockerBroadcast,
	})
	index := make(map[string]int)
	for _, b := range sc.FindStages(source) {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		st := composer.Compose(b.Label, b.Body)
		if i, ok := index[st.Name]; ok {
			res.Stages[i] = st
			res.Warnings = append(res.Warnings, Warning{
				Stage:   st.Name,
				Code:    workflow.CodeDuplicateStage,
				Message: "stage defined more than once; the last definition wins",
			})
			continue
		}
		index[st.Name] = len(res.Stages)
		res.Stages = append(res.Stages, st)
	}
	res.Warnings = append(res.Warnings, composer.Warnings()...)

	doc, warnings := workflow.Build(res.Stages, globals, workflow.BuildOptions{
		InjectTools:   opts.InjectTools,
		InjectSecrets: opts.InjectSecrets,
		TestMatrix:    opts.TestMatrix,
		BuildMatrix:   opts.BuildMatrix,
	})
	res.Document = doc
	res.Warnings = append(res.Warnings, warnings...)
	res.Warnings = append(res.Warnings, scannerWarnings(sc.Issues())...)

	if opts.Strict {
		for _, w := range res.Warnings {
			if w.Code == workflow.CodeJobIDCollision {
				return nil, fmt.Errorf("%w: stage %q: %s", ErrJobIDCollision, w.Stage, w.Message)
			}
		}
	}

	out, err := workflow.Marshal(doc)
	if err != nil {
		return nil, err
	}
	res.YAML = out

	logger.Debug("conversion finished",
		"profile", opts.Profile,
		"stages", len(res.Stages),
		"jobs", len(doc.Jobs),
		"warnings", len(res.Warnings),
		"blocks", sc.Used(),
	)
	return res, nil
}

func scannerWarnings(issues []pipeline.Issue) []Warning {
	var out []Warning
	seen := make(map[string]bool)
	for _, is := range issues {
		if seen[is.Error()] {
			continue
		}
		seen[is.Error()] = true
		w := Warning{Message: is.Error()}
		if is.Keyword == "stage" {
			w.Stage = is.Label
		}
		switch {
		case errors.Is(is.Err, pipeline.ErrBudgetExhausted):
			w.Code = workflow.CodeExtractionBudget
		default:
			w.Code = workflow.CodeUnterminatedBlock
		}
		out = append(out, w)
	}
	return out
}

package workflow

import (
	"fmt"
	"strings"

	"github.com/loykin/j2g/internal/constants"
	"github.com/loykin/j2g/internal/pipeline"
	"github.com/loykin/j2g/internal/util"
)

// BuildOptions toggles the job-level heuristics.
type BuildOptions struct {
	InjectTools   bool
	InjectSecrets bool
	TestMatrix    bool
	BuildMatrix   bool
}

// Globals are the document-wide inputs computed once per conversion.
type Globals struct {
	Env     pipeline.Environment
	Secrets []string
	// Actions are the setup actions of the recognized tools, in order.
	Actions []string
}

type builder struct {
	opts     BuildOptions
	globals  Globals
	doc      *Document
	owners   map[string]string
	warnings []Warning
}

// Build turns composed stages into a workflow document. Stages are expected
// to be unique by name; distinct names that map to the same job id replace the
// earlier job and yield a job-id-collision warning.
func Build(stages []Stage, globals Globals, opts BuildOptions) (*Document, []Warning) {
	b := &builder{
		opts:    opts,
		globals: globals,
		doc: &Document{
			Name:     constants.WorkflowName,
			Triggers: append([]string(nil), constants.Triggers...),
			Env:      globals.Env,
			Shell:    constants.DefaultShell,
		},
		owners: make(map[string]string),
	}
	for _, st := range stages {
		b.stage(st)
	}
	return b.doc, b.warnings
}

func (b *builder) stage(st Stage) {
	id := util.JobID(st.Name)
	post := b.postSteps(st)

	if !st.IsParallel() || len(st.Steps) > 0 || len(post) > 0 {
		job := &Job{ID: id, RunsOn: constants.RunnerImage, If: st.When}
		injected := b.injected()
		job.Steps = append(job.Steps, injected...)
		job.Steps = append(job.Steps, st.Steps...)
		if hasDocker(st.Steps) {
			job.Steps = append(job.Steps, RunStep(constants.DockerDetected))
		}
		job.Steps = append(job.Steps, post...)
		b.matrix(st.Name, job, len(injected))
		b.set(st.Name, job)
	}

	for _, sub := range st.Parallel {
		child := &Job{
			ID:     util.ChildJobID(id, sub.Name),
			RunsOn: constants.RunnerImage,
			Steps:  append([]Step(nil), sub.Steps...),
		}
		b.set(st.Name+"/"+sub.Name, child)
	}
}

func (b *builder) injected() []Step {
	var steps []Step
	if b.opts.InjectTools {
		for _, action := range b.globals.Actions {
			steps = append(steps, UsesStep(action))
		}
	}
	if b.opts.InjectSecrets {
		for _, name := range b.globals.Secrets {
			steps = append(steps, RunStep(constants.SecretEchoPrefix+name))
		}
	}
	return steps
}

func (b *builder) postSteps(st Stage) []Step {
	var steps []Step
	for _, cond := range PostConditions {
		actions, ok := st.Post[cond]
		if !ok {
			continue
		}
		expr, ok := cond.Expression()
		if !ok {
			b.warnings = append(b.warnings, Warning{
				Stage:   st.Name,
				Code:    CodePostUnsupported,
				Message: fmt.Sprintf("post condition %q has no GitHub Actions equivalent and was omitted", cond),
			})
			continue
		}
		for _, a := range actions {
			steps = append(steps, IfStep(expr, a.Command))
		}
	}
	return steps
}

// matrix attaches the stage-name matrices. The python announcement step follows
// the injected setup steps.
func (b *builder) matrix(name string, job *Job, setup int) {
	if b.opts.TestMatrix && strings.Contains(name, constants.TestStageMarker) {
		job.Matrix = append(job.Matrix,
			MatrixDimension{Name: "os", Values: constants.TestMatrixOS},
			MatrixDimension{Name: "node_version", Values: constants.TestMatrixNodeVersion},
		)
	}
	if b.opts.BuildMatrix && strings.Contains(name, constants.BuildStageMarker) {
		job.Matrix = append(job.Matrix, MatrixDimension{Name: "python", Values: constants.BuildMatrixPython})
		steps := make([]Step, 0, len(job.Steps)+1)
		steps = append(steps, job.Steps[:setup]...)
		steps = append(steps, RunStep(constants.PythonMatrixStep))
		job.Steps = append(steps, job.Steps[setup:]...)
	}
}

func (b *builder) set(owner string, job *Job) {
	if prev, ok := b.owners[job.ID]; ok && prev != owner {
		b.warnings = append(b.warnings, Warning{
			Stage:   owner,
			Code:    CodeJobIDCollision,
			Message: fmt.Sprintf("job id %q already produced by %q; the earlier job was replaced", job.ID, prev),
		})
	}
	b.owners[job.ID] = owner
	b.doc.SetJob(job)
}

func hasDocker(steps []Step) bool {
	for _, s := range steps {
		if strings.Contains(s.Script(), "docker") {
			return true
		}
	}
	return false
}

package workflow

import "fmt"

// StepKind tags the variant held by a Step.
type StepKind int

const (
	// Run executes a shell command.
	Run StepKind = iota
	// EnvSet exports a variable to the following steps.
	EnvSet
	// Uses invokes a reusable action.
	Uses
	// ConditionalRun executes a shell command guarded by an if expression.
	ConditionalRun
)

func (k StepKind) String() string {
	switch k {
	case Run:
		return "run"
	case EnvSet:
		return "env"
	case Uses:
		return "uses"
	case ConditionalRun:
		return "conditional-run"
	default:
		return fmt.Sprintf("StepKind(%d)", int(k))
	}
}

// Step is one workflow step. Only the fields of its Kind are meaningful.
type Step struct {
	Kind      StepKind `json:"kind"`
	Command   string   `json:"command,omitempty"`
	Name      string   `json:"name,omitempty"`
	Value     string   `json:"value,omitempty"`
	Action    string   `json:"action,omitempty"`
	Condition string   `json:"condition,omitempty"`
}

func RunStep(command string) Step { return Step{Kind: Run, Command: command} }

func EnvStep(name, value string) Step { return Step{Kind: EnvSet, Name: name, Value: value} }

func UsesStep(action string) Step { return Step{Kind: Uses, Action: action} }

func IfStep(condition, command string) Step {
	return Step{Kind: ConditionalRun, Condition: condition, Command: command}
}

// Script returns the shell text the step executes, if any.
func (s Step) Script() string {
	switch s.Kind {
	case Run, ConditionalRun:
		return s.Command
	case EnvSet:
		return fmt.Sprintf("echo \"%s=%s\" >> \"$GITHUB_ENV\"", s.Name, s.Value)
	default:
		return ""
	}
}

// Warning is a non-fatal conversion problem attached to the result.
type Warning struct {
	Stage   string `json:"stage,omitempty"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (w Warning) String() string {
	if w.Stage != "" {
		return fmt.Sprintf("[%s] stage %q: %s", w.Code, w.Stage, w.Message)
	}
	return fmt.Sprintf("[%s] %s", w.Code, w.Message)
}

// Warning codes
const (
	CodeEnvMissingEquals  = "env-missing-equals"
	CodeDuplicateStage    = "duplicate-stage"
	CodeJobIDCollision    = "job-id-collision"
	CodePostUnsupported   = "post-changed-unsupported"
	CodeUnterminatedBlock = "unterminated-block"
	CodeExtractionBudget  = "extraction-budget"
)

package workflow

import "github.com/loykin/j2g/internal/pipeline"

// PostCondition names a post block keyed on the stage outcome.
type PostCondition string

const (
	Success PostCondition = "success"
	Failure PostCondition = "failure"
	Always  PostCondition = "always"
	Changed PostCondition = "changed"
)

// PostConditions lists the recognized conditions in emission order.
var PostConditions = []PostCondition{Success, Failure, Always, Changed}

// Expression returns the GitHub Actions status check for the condition.
// Changed has no equivalent and returns false.
func (c PostCondition) Expression() (string, bool) {
	switch c {
	case Success:
		return "${{ success() }}", true
	case Failure:
		return "${{ failure() }}", true
	case Always:
		return "${{ always() }}", true
	default:
		return "", false
	}
}

// SubStage is a stage nested in a parallel block.
type SubStage struct {
	Name  string `json:"name"`
	Steps []Step `json:"steps"`
}

// Stage is the composed form of one Jenkins stage. Steps and Parallel may both be set.
type Stage struct {
	Name     string                   `json:"name"`
	Steps    []Step                   `json:"steps,omitempty"`
	Post     map[PostCondition][]Step `json:"post,omitempty"`
	When     string                   `json:"when,omitempty"`
	Parallel []SubStage               `json:"parallel,omitempty"`
}

// IsParallel reports whether the stage carries parallel sub-stages.
func (s Stage) IsParallel() bool {
	return len(s.Parallel) > 0
}

// SetSubStage adds or replaces a sub-stage, keeping the first position of a repeated name.
func (s *Stage) SetSubStage(sub SubStage) {
	for i := range s.Parallel {
		if s.Parallel[i].Name == sub.Name {
			s.Parallel[i] = sub
			return
		}
	}
	s.Parallel = append(s.Parallel, sub)
}

// MatrixDimension is one named axis of a job matrix.
type MatrixDimension struct {
	Name   string
	Values []string
}

// Job is one entry of the workflow jobs map.
type Job struct {
	ID     string
	RunsOn string
	If     string
	Matrix []MatrixDimension
	Steps  []Step
}

// Document is the workflow before serialization.
type Document struct {
	Name     string
	Triggers []string
	Env      pipeline.Environment
	Shell    string
	Jobs     []*Job
}

// Job returns the job with the given id.
func (d *Document) Job(id string) (*Job, bool) {
	for _, j := range d.Jobs {
		if j.ID == id {
			return j, true
		}
	}
	return nil, false
}

// SetJob adds job, replacing an existing job with the same id in place.
// It reports whether a job was replaced.
func (d *Document) SetJob(job *Job) bool {
	for i, j := range d.Jobs {
		if j.ID == job.ID {
			d.Jobs[i] = job
			return true
		}
	}
	d.Jobs = append(d.Jobs, job)
	return false
}

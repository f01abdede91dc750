package workflow

import (
	"bytes"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/loykin/j2g/internal/constants"
)

// Marshal renders the document as workflow YAML. Key order is fixed and the
// output carries no timestamps, so equal documents give identical bytes.
func Marshal(doc *Document) ([]byte, error) {
	root := mapping()
	put(root, "name", str(doc.Name))
	put(root, "on", seq(doc.Triggers))
	if len(doc.Env) > 0 {
		env := mapping()
		for _, v := range doc.Env {
			put(env, v.Name, str(v.Value))
		}
		put(root, "env", env)
	}
	if doc.Shell != "" {
		run := mapping()
		put(run, "shell", str(doc.Shell))
		defaults := mapping()
		put(defaults, "run", run)
		put(root, "defaults", defaults)
	}
	jobs := mapping()
	for _, j := range doc.Jobs {
		put(jobs, j.ID, jobNode(j))
	}
	put(root, "jobs", jobs)

	node := &yaml.Node{
		Kind:        yaml.DocumentNode,
		HeadComment: "# " + constants.GeneratedHeader,
		Content:     []*yaml.Node{root},
	}

	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(node); err != nil {
		return nil, fmt.Errorf("encode workflow: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, fmt.Errorf("encode workflow: %w", err)
	}
	return buf.Bytes(), nil
}

func jobNode(j *Job) *yaml.Node {
	n := mapping()
	put(n, "runs-on", str(j.RunsOn))
	if j.If != "" {
		put(n, "if", str(j.If))
	}
	if len(j.Matrix) > 0 {
		m := mapping()
		for _, dim := range j.Matrix {
			put(m, dim.Name, seq(dim.Values))
		}
		strategy := mapping()
		put(strategy, "matrix", m)
		put(n, "strategy", strategy)
	}
	steps := &yaml.Node{Kind: yaml.SequenceNode, Content: []*yaml.Node{}}
	for _, s := range j.Steps {
		steps.Content = append(steps.Content, stepNode(s))
	}
	put(n, "steps", steps)
	return n
}

func stepNode(s Step) *yaml.Node {
	n := mapping()
	switch s.Kind {
	case Uses:
		put(n, "uses", str(s.Action))
	case EnvSet:
		put(n, "name", str("Set "+s.Name))
		put(n, "run", str(s.Script()))
	case ConditionalRun:
		put(n, "if", str(s.Condition))
		put(n, "run", str(s.Command))
	default:
		put(n, "run", str(s.Command))
	}
	return n
}

func mapping() *yaml.Node {
	return &yaml.Node{Kind: yaml.MappingNode}
}

func put(m *yaml.Node, key string, value *yaml.Node) {
	m.Content = append(m.Content, str(key), value)
}

func str(v string) *yaml.Node {
	n := &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: v}
	if strings.Contains(v, "\n") {
		n.Style = yaml.LiteralStyle
	}
	return n
}

func seq(values []string) *yaml.Node {
	n := &yaml.Node{Kind: yaml.SequenceNode}
	for _, v := range values {
		n.Content = append(n.Content, str(v))
	}
	return n
}

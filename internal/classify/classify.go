// Package classify flags secret-looking variables and maps tools-block
// mentions onto GitHub setup actions. Both are naming heuristics only.
package classify

import (
	"strings"

	"github.com/loykin/j2g/internal/constants"
	"github.com/loykin/j2g/internal/pipeline"
	"github.com/loykin/j2g/internal/util"
)

// Tool is a runtime that has a dedicated setup action.
type Tool int

const (
	Node Tool = iota
	Java
	Python
)

func (t Tool) String() string {
	switch t {
	case Node:
		return "node"
	case Java:
		return "java"
	case Python:
		return "python"
	default:
		return "unknown"
	}
}

// Action returns the setup action identifier for the tool.
func (t Tool) Action() string {
	switch t {
	case Node:
		return constants.SetupNodeAction
	case Java:
		return constants.SetupJavaAction
	case Python:
		return constants.SetupPythonAction
	default:
		return ""
	}
}

// IsSecretName reports whether a variable name carries one of the secret markers.
func IsSecretName(name string) bool {
	return util.ContainsAny(name, constants.SecretMarkers...)
}

// Secrets returns the secret-looking names of env in insertion order.
func Secrets(env pipeline.Environment) []string {
	var out []string
	for _, v := range env {
		if IsSecretName(v.Name) {
			out = append(out, v.Name)
		}
	}
	return out
}

// Tools inspects a tools block body. Each tool is tested independently and the
// result is always ordered node, java, python.
func Tools(body string) []Tool {
	lower := strings.ToLower(body)
	var out []Tool
	if strings.Contains(lower, "nodejs") {
		out = append(out, Node)
	}
	if strings.Contains(lower, "jdk") || strings.Contains(lower, "java") {
		out = append(out, Java)
	}
	if strings.Contains(lower, "python") {
		out = append(out, Python)
	}
	return out
}

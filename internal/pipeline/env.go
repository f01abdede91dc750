package pipeline

import "regexp"

var envAssign = regexp.MustCompile(`\b([A-Za-z_]\w*)\s*=\s*(?:"([^"\n]*)"|'([^'\n]*)')`)

// EnvVar is one NAME = "value" pair of an environment block.
type EnvVar struct {
	Name  string
	Value string
}

// Environment is an ordered variable map. Re-assigning a name keeps its first position.
type Environment []EnvVar

// Set assigns name, overwriting in place when already present.
func (e *Environment) Set(name, value string) {
	for i := range *e {
		if (*e)[i].Name == name {
			(*e)[i].Value = value
			return
		}
	}
	*e = append(*e, EnvVar{Name: name, Value: value})
}

// Get returns the value of name.
func (e Environment) Get(name string) (string, bool) {
	for _, v := range e {
		if v.Name == name {
			return v.Value, true
		}
	}
	return "", false
}

// Names returns variable names in insertion order.
func (e Environment) Names() []string {
	out := make([]string, len(e))
	for i, v := range e {
		out[i] = v.Name
	}
	return out
}

// ParseEnvironment reads quoted assignments from an environment block body.
// Unquoted right-hand sides such as credentials('id') are not recognized.
func ParseEnvironment(body string) Environment {
	var env Environment
	for _, m := range envAssign.FindAllStringSubmatch(StripComments(body), -1) {
		value := m[2]
		if value == "" {
			value = m[3]
		}
		env.Set(m[1], value)
	}
	return env
}

// Environment returns the variables of the first environment block in text.
func (s *Scanner) Environment(text string) Environment {
	b, ok := s.FindBlock(text, "environment")
	if !ok {
		return nil
	}
	return ParseEnvironment(b.Body)
}

package common

import (
	"fmt"
	"regexp"
	"strings"
	"sync"
)

// MaskedValue replaces every hidden value.
const MaskedValue = "***MASKED***"

// SensitivePattern hides sensitive fragments of a log value.
type SensitivePattern struct {
	Name        string         // e.g. "env_assignment"
	Regex       *regexp.Regexp // matched against string values
	Replacement string         // regexp replacement template
	Keys        []string       // attribute key fragments (case-insensitive)
}

// DefaultSensitivePatterns cover Jenkinsfile credentials, bearer tokens and DSN passwords.
var DefaultSensitivePatterns = []SensitivePattern{
	{
		Name:        "env_assignment",
		Regex:       regexp.MustCompile(`\b(\w*(?:KEY|SECRET|PASSWORD|TOKEN)\w*)(\s*=\s*)(?:"[^"\n]*"|'[^'\n]*')`),
		Replacement: `${1}${2}"` + MaskedValue + `"`,
	},
	{
		Name:        "bearer_token",
		Regex:       regexp.MustCompile(`(?i)Bearer\s+[A-Za-z0-9\-._~+/]+=*`),
		Replacement: "Bearer " + MaskedValue,
		Keys:        []string{"authorization"},
	},
	{
		Name:        "dsn_password",
		Regex:       regexp.MustCompile(`([a-z][a-z0-9+.-]*://[^:/@\s]+:)[^@\s]+@`),
		Replacement: "${1}" + MaskedValue + "@",
	},
	{
		Name:        "secret",
		Regex:       regexp.MustCompile(`(?i)\b(password|client_secret|jwt_secret|token)(["'\s]*[:=]["'\s]*)[^"',}\]\s]+`),
		Replacement: "${1}${2}" + MaskedValue,
		Keys:        []string{"password", "secret", "token", "api_key", "apikey"},
	},
}

// Masker hides sensitive values in log attributes.
type Masker struct {
	mu       sync.RWMutex
	patterns []SensitivePattern
	enabled  bool
}

// NewMasker returns an enabled masker with the default patterns.
func NewMasker() *Masker {
	return NewMaskerWithPatterns(DefaultSensitivePatterns)
}

// NewMaskerWithPatterns returns an enabled masker with the given patterns.
func NewMaskerWithPatterns(patterns []SensitivePattern) *Masker {
	return &Masker{
		patterns: append([]SensitivePattern(nil), patterns...),
		enabled:  true,
	}
}

func (m *Masker) SetEnabled(enabled bool) {
	m.mu.Lock()
	m.enabled = enabled
	m.mu.Unlock()
}

func (m *Masker) IsEnabled() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.enabled
}

// AddPattern registers a pattern. A pattern with keys and no regex gets a
// `key = value` regex built from its keys.
func (m *Masker) AddPattern(pattern SensitivePattern) {
	if pattern.Regex == nil && len(pattern.Keys) > 0 {
		quoted := make([]string, len(pattern.Keys))
		for i, k := range pattern.Keys {
			quoted[i] = regexp.QuoteMeta(k)
		}
		pattern.Regex = regexp.MustCompile(fmt.Sprintf(`(?i)\b(%s)(\s*[:=]\s*)['"]?[^'",\s}\]]+['"]?`, strings.Join(quoted, "|")))
		if pattern.Replacement == "" {
			pattern.Replacement = "${1}${2}" + MaskedValue
		}
	}
	m.mu.Lock()
	m.patterns = append(m.patterns, pattern)
	m.mu.Unlock()
}

// IsSensitiveKey reports whether an attribute key names a sensitive value.
func (m *Masker) IsSensitiveKey(key string) bool {
	lower := strings.ToLower(key)
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, p := range m.patterns {
		for _, k := range p.Keys {
			if k != "" && strings.Contains(lower, strings.ToLower(k)) {
				return true
			}
		}
	}
	return false
}

// MaskString applies every pattern to input.
func (m *Masker) MaskString(input string) string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if !m.enabled {
		return input
	}
	out := input
	for _, p := range m.patterns {
		if p.Regex != nil {
			out = p.Regex.ReplaceAllString(out, p.Replacement)
		}
	}
	return out
}

// MaskValue masks value as a whole when key is sensitive, and masks string
// fragments otherwise. Non-string values under harmless keys pass through.
func (m *Masker) MaskValue(key string, value any) any {
	if !m.IsEnabled() {
		return value
	}
	if m.IsSensitiveKey(key) {
		return MaskedValue
	}
	switch v := value.(type) {
	case string:
		return m.MaskString(v)
	case error:
		return m.MaskString(v.Error())
	default:
		return value
	}
}

// MaskKeyValuePairs masks alternating key/value arguments as passed to slog.
func (m *Masker) MaskKeyValuePairs(pairs ...any) []any {
	if !m.IsEnabled() {
		return pairs
	}
	out := make([]any, len(pairs))
	copy(out, pairs)
	for i := 0; i+1 < len(out); i += 2 {
		if key, ok := out[i].(string); ok {
			out[i+1] = m.MaskValue(key, out[i+1])
		}
	}
	return out
}

var globalMasker = NewMasker()

func SetGlobalMasker(masker *Masker) {
	globalMasker = masker
}

func GetGlobalMasker() *Masker {
	return globalMasker
}

// MaskSensitiveData masks input with the global masker.
func MaskSensitiveData(input string) string {
	return globalMasker.MaskString(input)
}

func EnableMasking(enabled bool) {
	globalMasker.SetEnabled(enabled)
}

func IsMaskingEnabled() bool {
	return globalMasker.IsEnabled()
}

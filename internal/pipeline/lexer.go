package pipeline

// region classifies every byte of a Jenkinsfile fragment.
type region uint8

const (
	code region = iota
	literal
	comment
)

// classify walks text once and labels each byte as code, string literal or comment.
// Quote delimiters belong to the literal. Single-line string forms stop at a newline
// so that a stray quote cannot swallow the rest of the document.
func classify(text string) []region {
	out := make([]region, len(text))
	n := len(text)
	i := 0
	for i < n {
		c := text[i]
		switch {
		case c == '/' && i+1 < n && text[i+1] == '/':
			j := i
			for j < n && text[j] != '\n' {
				out[j] = comment
				j++
			}
			i = j
		case c == '/' && i+1 < n && text[i+1] == '*':
			j := i + 2
			for j < n && !(text[j] == '*' && j+1 < n && text[j+1] == '/') {
				j++
			}
			end := j + 2
			if end > n {
				end = n
			}
			for k := i; k < end; k++ {
				out[k] = comment
			}
			i = end
		case c == '"' || c == '\'':
			end := stringEnd(text, i)
			for k := i; k < end; k++ {
				out[k] = literal
			}
			i = end
		default:
			i++
		}
	}
	return out
}

// stringEnd returns the offset just past the string literal starting at i.
func stringEnd(text string, i int) int {
	n := len(text)
	q := text[i]
	if i+2 < n && text[i+1] == q && text[i+2] == q {
		j := i + 3
		for j < n {
			if text[j] == '\\' {
				j += 2
				continue
			}
			if j+2 < n && text[j] == q && text[j+1] == q && text[j+2] == q {
				return j + 3
			}
			j++
		}
		return n
	}
	j := i + 1
	for j < n {
		switch text[j] {
		case '\\':
			j += 2
			continue
		case q:
			return j + 1
		case '\n':
			return j
		}
		j++
	}
	return n
}

func isIdent(c byte) bool {
	return c == '_' || c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' || c >= '0' && c <= '9'
}

func isSpace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\n' || c == '\r'
}

// skipBlank advances past whitespace and comments.
func skipBlank(text string, regions []region, i int) int {
	for i < len(text) && (isSpace(text[i]) || regions[i] == comment) {
		i++
	}
	return i
}

// keywordAt reports whether the code at i is the identifier kw standing alone.
func keywordAt(text string, regions []region, i int, kw string) bool {
	if regions[i] != code || i+len(kw) > len(text) || text[i:i+len(kw)] != kw {
		return false
	}
	if i > 0 && isIdent(text[i-1]) {
		return false
	}
	if end := i + len(kw); end < len(text) && isIdent(text[end]) {
		return false
	}
	return true
}

// matchBrace returns the offset of the brace closing the one at open.
func matchBrace(text string, regions []region, open int) (int, bool) {
	depth := 0
	for i := open; i < len(text); i++ {
		if regions[i] != code {
			continue
		}
		switch text[i] {
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return i, true
			}
		}
	}
	return len(text), false
}

// StripComments blanks out comments, keeping offsets and newlines intact.
func StripComments(text string) string {
	regions := classify(text)
	buf := []byte(text)
	for i, r := range regions {
		if r == comment && buf[i] != '\n' {
			buf[i] = ' '
		}
	}
	return string(buf)
}

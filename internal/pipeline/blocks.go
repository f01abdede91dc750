package pipeline

import (
	"errors"
	"fmt"
	"strings"

	"github.com/loykin/j2g/internal/constants"
)

var (
	// ErrUnterminated marks a block whose closing brace was never found.
	ErrUnterminated = errors.New("unterminated block")
	// ErrBudgetExhausted is recorded once the scanner stops extracting blocks.
	ErrBudgetExhausted = errors.New("block extraction budget exhausted")
)

// Block is a brace-delimited span found in a Jenkinsfile fragment.
// Offsets are relative to the text the block was extracted from.
type Block struct {
	Keyword string
	// Label is the quoted name of a stage block; empty for other keywords.
	Label string
	Start int
	End   int
	// Open is the offset of the opening brace.
	Open int
	Body string
	// Terminated is false when the text ended before the closing brace.
	Terminated bool
}

// Issue is a non-fatal problem met while scanning.
type Issue struct {
	Keyword string
	Label   string
	Err     error
}

func (i Issue) Error() string {
	if i.Label != "" {
		return fmt.Sprintf("%s(%q): %v", i.Keyword, i.Label, i.Err)
	}
	return fmt.Sprintf("%s: %v", i.Keyword, i.Err)
}

// Scanner extracts named blocks with brace-depth counting.
// A Scanner is not safe for concurrent use; create one per conversion.
type Scanner struct {
	budget int
	used   int
	issues []Issue
}

// NewScanner returns a scanner allowed to extract at most maxBlocks blocks.
// A non-positive maxBlocks selects the default budget.
func NewScanner(maxBlocks int) *Scanner {
	if maxBlocks <= 0 {
		maxBlocks = constants.DefaultMaxBlocks
	}
	return &Scanner{budget: maxBlocks}
}

// Issues returns the problems recorded so far.
func (s *Scanner) Issues() []Issue {
	return s.issues
}

// Used returns how many extraction attempts have been spent.
func (s *Scanner) Used() int {
	return s.used
}

func (s *Scanner) spend() bool {
	if s.used >= s.budget {
		if s.used == s.budget {
			s.issues = append(s.issues, Issue{Keyword: "scanner", Err: ErrBudgetExhausted})
			s.used++
		}
		return false
	}
	s.used++
	return true
}

// FindBlock returns the first `keyword { ... }` block in text.
func (s *Scanner) FindBlock(text, keyword string) (Block, bool) {
	blocks := s.find(text, keyword, 1)
	if len(blocks) == 0 {
		return Block{}, false
	}
	return blocks[0], true
}

// FindBlocks returns every non-overlapping `keyword { ... }` block in text.
func (s *Scanner) FindBlocks(text, keyword string) []Block {
	return s.find(text, keyword, -1)
}

// FindStages returns the outermost `stage('name') { ... }` blocks in text.
// Stages nested inside a returned stage are skipped; call FindStages on its body to reach them.
func (s *Scanner) FindStages(text string) []Block {
	return s.find(text, "stage", -1)
}

func (s *Scanner) find(text, keyword string, limit int) []Block {
	if keyword == "" || !strings.Contains(text, keyword) {
		return nil
	}
	regions := classify(text)
	var out []Block
	for i := 0; i < len(text); i++ {
		if !keywordAt(text, regions, i, keyword) {
			continue
		}
		label, open, ok := blockHead(text, regions, i+len(keyword), keyword == "stage")
		if !ok {
			continue
		}
		if !s.spend() {
			return out
		}
		closing, terminated := matchBrace(text, regions, open)
		b := Block{
			Keyword:    keyword,
			Label:      label,
			Start:      i,
			Open:       open,
			Body:       text[open+1 : closing],
			Terminated: terminated,
		}
		if terminated {
			b.End = closing + 1
		} else {
			b.End = len(text)
			s.issues = append(s.issues, Issue{Keyword: keyword, Label: label, Err: ErrUnterminated})
		}
		out = append(out, b)
		if limit > 0 && len(out) >= limit {
			return out
		}
		i = b.End - 1
	}
	return out
}

// blockHead parses what follows a keyword: an optional `('label')` and the opening brace.
func blockHead(text string, regions []region, i int, labelled bool) (string, int, bool) {
	i = skipBlank(text, regions, i)
	label := ""
	if labelled {
		if i >= len(text) || text[i] != '(' {
			return "", 0, false
		}
		i = skipBlank(text, regions, i+1)
		if i >= len(text) || (text[i] != '\'' && text[i] != '"') {
			return "", 0, false
		}
		end := stringEnd(text, i)
		if end-i < 2 || text[end-1] != text[i] {
			return "", 0, false
		}
		label = text[i+1 : end-1]
		i = skipBlank(text, regions, end)
		if i >= len(text) || text[i] != ')' {
			return "", 0, false
		}
		i = skipBlank(text, regions, i+1)
	}
	if i >= len(text) || text[i] != '{' || regions[i] != code {
		return "", 0, false
	}
	return label, i, true
}

// BodyIn returns the body span of b taken from text, which must share b's offsets.
// It recovers the unmasked body of a block found in a masked copy of text.
func (b Block) BodyIn(text string) string {
	start := b.Open + 1
	end := start + len(b.Body)
	if start > len(text) || end > len(text) {
		return b.Body
	}
	return text[start:end]
}

// Mask blanks the given block spans in text. Newlines survive so that
// line-oriented patterns keep working on the remainder.
func Mask(text string, blocks ...Block) string {
	if len(blocks) == 0 {
		return text
	}
	buf := []byte(text)
	for _, b := range blocks {
		start, end := b.Start, b.End
		if start < 0 {
			start = 0
		}
		if end > len(buf) {
			end = len(buf)
		}
		for i := start; i < end; i++ {
			if buf[i] != '\n' {
				buf[i] = ' '
			}
		}
	}
	return string(buf)
}

// Package jsonpath implements the small JSONPath subset used by migration actions.
//
// Supported syntax:
//   - $ (root)
//   - .field or ['field'] (child access)
//   - .* or [*] (wildcard - all children)
//   - [0], [-1] (array index, negative counts from the end)
//
// Documents are the generic trees produced by JSON or YAML decoding:
// map[string]any, []any and scalars. All mutating operations work in place.
package jsonpath

import (
	"fmt"
	"strconv"
	"strings"
)

type segmentKind int

const (
	segChild segmentKind = iota
	segWildcard
	segIndex
)

type segment struct {
	kind  segmentKind
	key   string
	index int
}

// Path is a parsed JSONPath expression.
type Path struct {
	raw      string
	segments []segment
}

// String returns the original expression.
func (p *Path) String() string {
	return p.raw
}

// IsRoot reports whether the path selects only the document root ($).
func (p *Path) IsRoot() bool {
	return len(p.segments) == 0
}

// LastKey returns the key selected by the final segment and whether the
// final segment is a plain child key.
func (p *Path) LastKey() (string, bool) {
	if len(p.segments) == 0 {
		return "", false
	}
	last := p.segments[len(p.segments)-1]
	return last.key, last.kind == segChild
}

// Parse parses a JSONPath expression.
//
//	Parse("$.name")            // child
//	Parse("$.tags[0]")         // first array element
//	Parse("$.items.*.price")   // price of every item
//	Parse("$['x-legacy']")     // quoted key
func Parse(expr string) (*Path, error) {
	if expr == "" {
		return nil, fmt.Errorf("jsonpath: empty expression")
	}
	if expr[0] != '$' {
		return nil, fmt.Errorf("jsonpath: expression must start with '$'")
	}

	p := &Path{raw: expr}
	pos := 1
	for pos < len(expr) {
		var seg segment
		var err error
		switch expr[pos] {
		case '.':
			seg, pos, err = parseDot(expr, pos+1)
		case '[':
			seg, pos, err = parseBracket(expr, pos+1)
		default:
			err = fmt.Errorf("jsonpath: unexpected character %q at position %d", expr[pos], pos)
		}
		if err != nil {
			return nil, err
		}
		p.segments = append(p.segments, seg)
	}
	return p, nil
}

func parseDot(expr string, pos int) (segment, int, error) {
	if pos >= len(expr) {
		return segment{}, pos, fmt.Errorf("jsonpath: unexpected end after '.'")
	}
	if expr[pos] == '*' {
		return segment{kind: segWildcard}, pos + 1, nil
	}
	start := pos
	for pos < len(expr) && isIdentChar(expr[pos]) {
		pos++
	}
	if pos == start {
		return segment{}, pos, fmt.Errorf("jsonpath: expected identifier after '.' at position %d", pos)
	}
	return segment{kind: segChild, key: expr[start:pos]}, pos, nil
}

func parseBracket(expr string, pos int) (segment, int, error) {
	if pos >= len(expr) {
		return segment{}, pos, fmt.Errorf("jsonpath: unexpected end after '['")
	}

	switch ch := expr[pos]; {
	case ch == '*':
		if pos+1 >= len(expr) || expr[pos+1] != ']' {
			return segment{}, pos, fmt.Errorf("jsonpath: expected ']' after '[*'")
		}
		return segment{kind: segWildcard}, pos + 2, nil

	case ch == '\'' || ch == '"':
		key, next, err := parseQuoted(expr, pos+1, ch)
		if err != nil {
			return segment{}, pos, err
		}
		if next >= len(expr) || expr[next] != ']' {
			return segment{}, next, fmt.Errorf("jsonpath: expected ']' after quoted key")
		}
		return segment{kind: segChild, key: key}, next + 1, nil

	case ch == '-' || (ch >= '0' && ch <= '9'):
		end := strings.IndexByte(expr[pos:], ']')
		if end < 0 {
			return segment{}, pos, fmt.Errorf("jsonpath: expected ']' after index")
		}
		idx, err := strconv.Atoi(expr[pos : pos+end])
		if err != nil {
			return segment{}, pos, fmt.Errorf("jsonpath: invalid index %q: %w", expr[pos:pos+end], err)
		}
		return segment{kind: segIndex, index: idx}, pos + end + 1, nil

	default:
		return segment{}, pos, fmt.Errorf("jsonpath: unexpected character %q in bracket at position %d", ch, pos)
	}
}

func parseQuoted(expr string, pos int, quote byte) (string, int, error) {
	var b strings.Builder
	for pos < len(expr) {
		ch := expr[pos]
		switch {
		case ch == quote:
			return b.String(), pos + 1, nil
		case ch == '\\' && pos+1 < len(expr):
			pos++
			b.WriteByte(expr[pos])
		default:
			b.WriteByte(ch)
		}
		pos++
	}
	return "", pos, fmt.Errorf("jsonpath: unterminated quoted key")
}

// isIdentChar allows alphanumerics, underscore and hyphen (for x-* keys).
func isIdentChar(ch byte) bool {
	return ch == '_' || ch == '-' ||
		(ch >= 'a' && ch <= 'z') || (ch >= 'A' && ch <= 'Z') || (ch >= '0' && ch <= '9')
}

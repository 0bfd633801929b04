// Package path implements dotted-path parsing and emission over Value
// trees: segment lists of Key, Index and Wildcard, per spec.md §3/§4.1.
package path

import (
	"fmt"
	"strconv"
	"strings"
)

// SegmentKind discriminates the three segment shapes a dotted path can
// contain.
type SegmentKind uint8

const (
	Key SegmentKind = iota
	Index
	Wildcard
)

// Segment is one element of a Path. Only the field matching Kind is
// meaningful.
type Segment struct {
	Kind SegmentKind
	Key  string
	Idx  uint32
}

func (s Segment) String() string {
	switch s.Kind {
	case Wildcard:
		return "*"
	case Index:
		return strconv.FormatUint(uint64(s.Idx), 10)
	default:
		return s.Key
	}
}

// Path is an ordered list of Segments addressing into a Value tree.
type Path []Segment

// InvalidPathError reports a malformed dotted path string, per spec.md §7
// (ErrorKind InvalidPath).
type InvalidPathError struct {
	Text   string
	Reason string
}

func (e *InvalidPathError) Error() string {
	return fmt.Sprintf("invalid path %q: %s", e.Text, e.Reason)
}

// Parse splits text on "." and classifies each segment: a whole-segment
// non-negative integer becomes Index, "*" becomes Wildcard, anything else
// becomes Key. An empty segment (leading/trailing/doubled dot, or an empty
// string) is an InvalidPathError.
func Parse(text string) (Path, error) {
	if text == "" {
		return nil, &InvalidPathError{Text: text, Reason: "empty path"}
	}
	parts := strings.Split(text, ".")
	segs := make(Path, 0, len(parts))
	for _, part := range parts {
		if part == "" {
			return nil, &InvalidPathError{Text: text, Reason: "empty segment"}
		}
		segs = append(segs, classify(part))
	}
	return segs, nil
}

func classify(part string) Segment {
	if part == "*" {
		return Segment{Kind: Wildcard}
	}
	if n, ok := parseIndex(part); ok {
		return Segment{Kind: Index, Idx: n}
	}
	return Segment{Kind: Key, Key: part}
}

// parseIndex accepts only a whole segment of ASCII digits (no sign, no
// leading-zero ambiguity rules beyond what strconv already normalises via
// round-trip in Emit) as an Index, matching "integers that appear as whole
// segments are Index" from spec.md §3.
func parseIndex(part string) (uint32, bool) {
	for _, r := range part {
		if r < '0' || r > '9' {
			return 0, false
		}
	}
	n, err := strconv.ParseUint(part, 10, 32)
	if err != nil {
		return 0, false
	}
	return uint32(n), true
}

// Emit renders a Path back to dotted text form; Parse(Emit(p)) == p for
// every well-formed Path (spec.md §8 "Path round-trip").
func Emit(p Path) string {
	parts := make([]string, len(p))
	for i, s := range p {
		parts[i] = s.String()
	}
	return strings.Join(parts, ".")
}

// HasWildcard reports whether any segment of p is a Wildcard.
func (p Path) HasWildcard() bool {
	for _, s := range p {
		if s.Kind == Wildcard {
			return true
		}
	}
	return false
}

// WildcardCount returns how many Wildcard segments p contains.
func (p Path) WildcardCount() int {
	n := 0
	for _, s := range p {
		if s.Kind == Wildcard {
			n++
		}
	}
	return n
}

package grading

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/pmezard/go-difflib/difflib"
)

// Canonicalize replaces tabs with single spaces and trims every line.
// Canonicalize(Canonicalize(x)) == Canonicalize(x).
func Canonicalize(raw string) string {
	lines := strings.Split(strings.ReplaceAll(raw, "\t", " "), "\n")
	for i, l := range lines {
		lines[i] = strings.TrimSpace(l)
	}
	return strings.Join(lines, "\n")
}

// SortKey returns the lines of text ordered by their integer tuples, so two
// outputs holding the same records in any order produce the same slice.
// Every line must be a whitespace separated list of integers.
func SortKey(text string) ([]string, error) {
	lines := splitLines(text)
	keys := make([][]int64, len(lines))
	for i, l := range lines {
		k, err := intTuple(l)
		if err != nil {
			return nil, &FormatError{Line: i + 1, Text: l, Err: err}
		}
		keys[i] = k
	}
	idx := make([]int, len(lines))
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(a, b int) bool { return lessTuple(keys[idx[a]], keys[idx[b]]) })
	out := make([]string, len(lines))
	for i, j := range idx {
		out[i] = lines[j]
	}
	return out, nil
}

// Diff sorts both sides by SortKey and returns the unified diff lines from
// student to reference. An empty result means both hold the same records.
// A malformed reference is reported as ErrBadReference, checked before the
// student side.
func Diff(student, reference, fromName, toName string) ([]string, error) {
	b, err := SortKey(reference)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrBadReference, err)
	}
	a, err := SortKey(student)
	if err != nil {
		return nil, err
	}
	text, err := difflib.GetUnifiedDiffString(difflib.UnifiedDiff{
		A:        withEOL(a),
		B:        withEOL(b),
		FromFile: fromName,
		ToFile:   toName,
		Context:  3,
		Eol:      "\n",
	})
	if err != nil {
		return nil, err
	}
	if text == "" {
		return nil, nil
	}
	return strings.Split(strings.TrimSuffix(text, "\n"), "\n"), nil
}

func intTuple(line string) ([]int64, error) {
	fields := strings.Fields(line)
	out := make([]int64, len(fields))
	for i, f := range fields {
		v, err := strconv.ParseInt(f, 10, 64)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

func lessTuple(a, b []int64) bool {
	for i := 0; i < len(a) && i < len(b); i++ {
		if a[i] != b[i] {
			return a[i] < b[i]
		}
	}
	return len(a) < len(b)
}

// splitLines splits on \n, \r\n and \r. A trailing line break does not
// produce an empty final line.
func splitLines(s string) []string {
	if s == "" {
		return nil
	}
	s = strings.ReplaceAll(s, "\r\n", "\n")
	s = strings.ReplaceAll(s, "\r", "\n")
	return strings.Split(strings.TrimSuffix(s, "\n"), "\n")
}

func withEOL(lines []string) []string {
	out := make([]string, len(lines))
	for i, l := range lines {
		out[i] = l + "\n"
	}
	return out
}

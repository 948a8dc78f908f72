package htmlref

import "sort"

// Span is one resolved substitution: the byte range to replace and the
// bytes to put there.
type Span struct {
	Start       int
	End         int
	Replacement []byte
}

// SortSpans orders spans ascending by range start. Callers must sort
// after collecting fan-out results, since completion order is arbitrary.
func SortSpans(spans []Span) {
	sort.Slice(spans, func(i, j int) bool { return spans[i].Start < spans[j].Start })
}

// Splice rebuilds the content with each span's range replaced by its
// replacement bytes. Untouched regions are copied verbatim. Spans must
// be sorted ascending and non-overlapping.
func Splice(original []byte, spans []Span) []byte {
	out := make([]byte, 0, len(original))
	last := 0
	for _, s := range spans {
		out = append(out, original[last:s.Start]...)
		out = append(out, s.Replacement...)
		last = s.End
	}
	return append(out, original[last:]...)
}

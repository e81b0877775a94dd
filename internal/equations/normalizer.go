// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package equations

import "strings"

// Normalize rewrites the delimiters of terminated inline and display math
// regions to the canonical pairs, preserving bodies byte-for-byte. Plain
// text, code, environments and unterminated regions pass through
// verbatim. Purely textual: canonical output normalizes to itself.
func Normalize(doc Document, segs []Segment, opts Options) string {
	var b strings.Builder
	b.Grow(len(doc.Text))
	for _, seg := range segs {
		switch {
		case seg.Kind == MathInline && seg.Terminated():
			b.WriteString(opts.InlinePair[0])
			b.WriteString(seg.Body(doc.Text))
			b.WriteString(opts.InlinePair[1])
		case seg.Kind == MathDisplay && seg.Terminated():
			b.WriteString(opts.DisplayPair[0])
			b.WriteString(seg.Body(doc.Text))
			b.WriteString(opts.DisplayPair[1])
		default:
			b.WriteString(doc.Text[seg.Start:seg.End])
		}
	}
	return b.String()
}

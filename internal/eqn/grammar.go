// Package eqn implements equation placeholder extraction, damage detection,
// and positional reconciliation for translated documents.
//
// Scientific DOCX sources carry inline markers of the form <<EqnNNN.eps>>
// standing in for equation images. Translation engines frequently mangle
// them: brackets get dropped or doubled, the .eps suffix disappears,
// whitespace creeps in. The original document's placeholder sequence is
// authoritative; the translated document is repaired by substituting its
// Nth placeholder-like occurrence with the Nth original placeholder, by
// order of appearance.
package eqn

import (
	"regexp"
)

// canonicalRe matches a well-formed placeholder: <<Eqn{digits}[.eps]>>[,].
var canonicalRe = regexp.MustCompile(`(?i)<<Eqn(\d+)(\.eps)?>>(,)?`)

// damagedRe matches placeholder-like tokens with degraded bracket context:
// up to two leading angle brackets (possibly spaced), the Eqn{digits}[.eps]
// anchor, up to three trailing angle brackets (possibly spaced), and an
// optional trailing comma. The bare anchor Eqn{digits} matches too; it is
// the minimal signal that survives aggressive mangling.
var damagedRe = regexp.MustCompile(`(?i)(?:<\s*){0,2}Eqn(\d+)(\.eps)?(?:\s*>){0,3}(,)?`)

// numberRe extracts the digit run from arbitrary placeholder-like text.
var numberRe = regexp.MustCompile(`(?i)Eqn(\d+)`)

// epsRe detects the .eps suffix in arbitrary placeholder-like text.
var epsRe = regexp.MustCompile(`(?i)\.eps`)

// Placeholder is the identity of an equation placeholder. Number keeps the
// captured digit run verbatim (sources zero-pad, e.g. Eqn023), so it is a
// string rather than an int. Ordering between placeholders is positional,
// never numeric: numbers repeat and are not monotonic within a document.
type Placeholder struct {
	Number string
	EPS    bool
	Comma  bool
}

// Canonical returns the single well-formed textual form of the placeholder.
func (p Placeholder) Canonical() string {
	s := "<<Eqn" + p.Number
	if p.EPS {
		s += ".eps"
	}
	s += ">>"
	if p.Comma {
		s += ","
	}
	return s
}

// Occurrence is a located placeholder-like token inside a text block.
type Occurrence struct {
	Block      int    // index of the owning text block in traversal order
	Start      int    // byte offset of the first character within the block
	End        int    // byte offset one past the last character
	Raw        string // the captured text, exactly as it appears
	Number     string // extracted digit run ("" when unparsable)
	EPS        bool
	Comma      bool
	WellFormed bool
}

// Placeholder returns the identity carried by the occurrence.
func (o Occurrence) Placeholder() Placeholder {
	return Placeholder{Number: o.Number, EPS: o.EPS, Comma: o.Comma}
}

// IsCanonical reports whether text is exactly one well-formed placeholder.
func IsCanonical(text string) bool {
	loc := canonicalRe.FindStringIndex(text)
	return loc != nil && loc[0] == 0 && loc[1] == len(text)
}

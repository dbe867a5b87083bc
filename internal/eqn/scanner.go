package eqn

import (
	"sort"
	"strings"
)

// ScanBlock finds every placeholder occurrence in one text block, in
// left-to-right order, non-overlapping. Well-formed matches take priority:
// a damaged candidate whose span overlaps a well-formed match is discarded,
// so a well-formed placeholder is never reclassified from one of its
// sub-spans.
func ScanBlock(block int, text string) []Occurrence {
	if !strings.Contains(strings.ToLower(text), "eqn") {
		return nil
	}

	var found []Occurrence

	for _, m := range canonicalRe.FindAllStringSubmatchIndex(text, -1) {
		// A canonical-looking span sitting inside extra angle brackets
		// (<<Eqn1>>> or <<<Eqn1>>) is part of a larger damaged token;
		// leave it for the damaged pass.
		if m[1] < len(text) && text[m[1]] == '>' {
			continue
		}
		if m[0] > 0 && text[m[0]-1] == '<' {
			continue
		}
		found = append(found, occurrenceAt(block, text, m, true))
	}

	for _, m := range damagedRe.FindAllStringSubmatchIndex(text, -1) {
		if overlapsAny(found, m[0], m[1]) {
			continue
		}
		found = append(found, occurrenceAt(block, text, m, false))
	}

	sort.Slice(found, func(i, j int) bool {
		return found[i].Start < found[j].Start
	})

	return found
}

// ScanBlocks scans a whole document's text blocks and concatenates the
// per-block occurrence lists in traversal order. The result defines the
// document's placeholder sequence.
func ScanBlocks(blocks []string) []Occurrence {
	var all []Occurrence
	for i, text := range blocks {
		all = append(all, ScanBlock(i, text)...)
	}
	return all
}

// occurrenceAt builds an Occurrence from a submatch index sextet
// (whole, number group, eps group, comma group).
func occurrenceAt(block int, text string, m []int, wellFormed bool) Occurrence {
	o := Occurrence{
		Block:      block,
		Start:      m[0],
		End:        m[1],
		Raw:        text[m[0]:m[1]],
		WellFormed: wellFormed,
	}
	if m[2] >= 0 {
		o.Number = text[m[2]:m[3]]
	}
	o.EPS = m[4] >= 0
	o.Comma = m[6] >= 0
	return o
}

func overlapsAny(existing []Occurrence, start, end int) bool {
	for _, o := range existing {
		if start < o.End && end > o.Start {
			return true
		}
	}
	return false
}

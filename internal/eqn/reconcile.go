package eqn

import (
	"fmt"
	"sort"

	"docx-translator/internal/logger"
	"docx-translator/internal/types"
)

// Substitution is one planned replacement: the candidate occurrence in the
// translated document and the exact text that must take its place.
type Substitution struct {
	Occ         Occurrence
	Replacement string
}

// Result is the outcome of reconciling one document pair.
type Result struct {
	CanonicalCount int
	CandidateCount int
	Substitutions  []Substitution
	// Truncated is set in tolerant mode when the longer sequence was cut
	// to the shorter length.
	Truncated bool
	// StrippedExtras is set when the original had no placeholders and
	// candidate occurrences were removed.
	StrippedExtras bool
}

// Changed reports whether applying the plan would modify the document.
func (r *Result) Changed() bool {
	for _, s := range r.Substitutions {
		if s.Occ.Raw != s.Replacement {
			return true
		}
	}
	return false
}

// Reconcile maps the translated document's candidate occurrence sequence
// onto the original document's canonical sequence by position: candidate[i]
// is replaced by canonical[i]'s exact text, whatever the candidate looked
// like. Position of appearance is the only reliable correspondence signal;
// the number inside a damaged occurrence is itself frequently corrupted.
//
// With an empty canonical sequence any candidate occurrences are anomalous
// extras and are stripped. With differing non-zero lengths, strict mode
// fails the document naming both counts and tolerant mode truncates the
// longer sequence and flags the discrepancy.
func Reconcile(canonical, candidate []Occurrence, mode types.ReconcileMode) (*Result, error) {
	res := &Result{
		CanonicalCount: len(canonical),
		CandidateCount: len(candidate),
	}

	if len(canonical) == 0 {
		if len(candidate) == 0 {
			return res, nil
		}
		logger.Warn("original has no placeholders, stripping extras from translation",
			logger.Int("extras", len(candidate)))
		res.StrippedExtras = true
		for _, o := range candidate {
			res.Substitutions = append(res.Substitutions, Substitution{Occ: o, Replacement: ""})
		}
		return res, nil
	}

	if len(canonical) != len(candidate) {
		if mode == types.ModeStrict {
			return nil, types.NewAppErrorWithDetails(types.ErrLengthMismatch,
				"placeholder count mismatch",
				fmt.Sprintf("%d in original vs %d in translation", len(canonical), len(candidate)),
				nil)
		}
		logger.Warn("placeholder count mismatch, truncating",
			logger.Int("original", len(canonical)),
			logger.Int("translation", len(candidate)))
		res.Truncated = true
	}

	n := len(candidate)
	if len(canonical) < n {
		n = len(canonical)
	}

	for i := 0; i < n; i++ {
		res.Substitutions = append(res.Substitutions, Substitution{
			Occ:         candidate[i],
			Replacement: canonical[i].Raw,
		})
	}

	logger.Debug("reconciliation plan built",
		logger.Int("canonical", len(canonical)),
		logger.Int("candidate", len(candidate)),
		logger.Int("substitutions", len(res.Substitutions)),
		logger.Bool("truncated", res.Truncated))

	return res, nil
}

// ApplyToBlocks rewrites the affected text blocks according to the plan.
// Replacements within a block are applied in descending offset order so
// earlier offsets stay valid. Blocks without substitutions are returned
// unchanged. The second return value is the number of replacements whose
// text actually changed.
func ApplyToBlocks(blocks []string, subs []Substitution) ([]string, int) {
	perBlock := make(map[int][]Substitution)
	for _, s := range subs {
		perBlock[s.Occ.Block] = append(perBlock[s.Occ.Block], s)
	}

	out := make([]string, len(blocks))
	copy(out, blocks)

	changed := 0
	for block, list := range perBlock {
		if block < 0 || block >= len(out) {
			continue
		}
		sort.Slice(list, func(i, j int) bool {
			return list[i].Occ.Start > list[j].Occ.Start
		})
		text := out[block]
		for _, s := range list {
			if s.Occ.End > len(text) || s.Occ.Start > s.Occ.End {
				continue
			}
			if text[s.Occ.Start:s.Occ.End] != s.Occ.Raw {
				// Block mutated since scanning; skip rather than corrupt.
				continue
			}
			text = text[:s.Occ.Start] + s.Replacement + text[s.Occ.End:]
			if s.Occ.Raw != s.Replacement {
				changed++
			}
		}
		out[block] = text
	}

	return out, changed
}

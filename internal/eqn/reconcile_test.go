package eqn

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"docx-translator/internal/types"
)

func TestReconcilePositionalCorrectness(t *testing.T) {
	// Candidate content is fully discarded in favor of positional lookup:
	// the numbers inside damaged candidates are themselves unreliable.
	canonical := ScanBlocks([]string{"<<Eqn1>> <<Eqn2.eps>> <<Eqn3>>"})
	candidate := ScanBlocks([]string{"Eqn1.eps>> and <<Eqn2 and EqN3>>"})
	require.Len(t, canonical, 3)
	require.Len(t, candidate, 3)

	res, err := Reconcile(canonical, candidate, types.ModeStrict)
	require.NoError(t, err)
	require.Len(t, res.Substitutions, 3)

	assert.Equal(t, "<<Eqn1>>", res.Substitutions[0].Replacement)
	assert.Equal(t, "<<Eqn2.eps>>", res.Substitutions[1].Replacement)
	assert.Equal(t, "<<Eqn3>>", res.Substitutions[2].Replacement)
}

func TestReconcileLengthMismatchStrict(t *testing.T) {
	canonical := ScanBlocks([]string{"<<Eqn1>> <<Eqn2>> <<Eqn3>>"})
	candidate := ScanBlocks([]string{"<<Eqn1>> <<Eqn2>>"})

	_, err := Reconcile(canonical, candidate, types.ModeStrict)
	require.Error(t, err)

	var appErr *types.AppError
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, types.ErrLengthMismatch, appErr.Code)
	// The error must name both counts.
	assert.Contains(t, appErr.Error(), "3")
	assert.Contains(t, appErr.Error(), "2")
}

func TestReconcileLengthMismatchTolerant(t *testing.T) {
	canonical := ScanBlocks([]string{"<<Eqn1>> <<Eqn2>> <<Eqn3>>"})
	candidate := ScanBlocks([]string{"Eqn5>> <<Eqn6"})

	res, err := Reconcile(canonical, candidate, types.ModeTolerant)
	require.NoError(t, err)
	assert.True(t, res.Truncated)
	require.Len(t, res.Substitutions, 2)
	assert.Equal(t, "<<Eqn1>>", res.Substitutions[0].Replacement)
	assert.Equal(t, "<<Eqn2>>", res.Substitutions[1].Replacement)
}

func TestReconcileTolerantExtraCandidates(t *testing.T) {
	// Extra candidates are truncated from the end of the sequence.
	canonical := ScanBlocks([]string{"<<Eqn1>>"})
	candidate := ScanBlocks([]string{"Eqn8>> Eqn9>> Eqn10>>"})

	res, err := Reconcile(canonical, candidate, types.ModeTolerant)
	require.NoError(t, err)
	assert.True(t, res.Truncated)
	require.Len(t, res.Substitutions, 1)
	assert.Equal(t, "<<Eqn1>>", res.Substitutions[0].Replacement)
}

func TestReconcileZeroPlaceholderPassThrough(t *testing.T) {
	res, err := Reconcile(nil, nil, types.ModeStrict)
	require.NoError(t, err)
	assert.Empty(t, res.Substitutions)
	assert.False(t, res.Changed())
	assert.False(t, res.StrippedExtras)
}

func TestReconcileStripsAnomalousExtras(t *testing.T) {
	candidate := ScanBlocks([]string{"text Eqn4>> more <<Eqn5>> text"})
	require.Len(t, candidate, 2)

	res, err := Reconcile(nil, candidate, types.ModeStrict)
	require.NoError(t, err)
	assert.True(t, res.StrippedExtras)
	require.Len(t, res.Substitutions, 2)
	for _, s := range res.Substitutions {
		assert.Equal(t, "", s.Replacement)
	}

	blocks, changed := ApplyToBlocks([]string{"text Eqn4>> more <<Eqn5>> text"}, res.Substitutions)
	assert.Equal(t, 2, changed)
	assert.Equal(t, "text  more  text", blocks[0])
}

func TestReconcileIdempotent(t *testing.T) {
	text := "intro <<Eqn1>> middle <<Eqn2.eps>>, end"
	canonical := ScanBlocks([]string{text})
	candidate := ScanBlocks([]string{text})

	res, err := Reconcile(canonical, candidate, types.ModeStrict)
	require.NoError(t, err)
	assert.False(t, res.Changed())

	blocks, changed := ApplyToBlocks([]string{text}, res.Substitutions)
	assert.Equal(t, 0, changed)
	assert.Equal(t, text, blocks[0])
}

func TestApplyToBlocksDescendingOffsets(t *testing.T) {
	// Replacements longer than the originals must not shift the spans of
	// earlier occurrences within the same block.
	original := "<<Eqn100.eps>> gap <<Eqn200.eps>> gap <<Eqn300.eps>>"
	translated := "Eqn1>> gap Eqn2>> gap Eqn3>>"

	canonical := ScanBlocks([]string{original})
	candidate := ScanBlocks([]string{translated})

	res, err := Reconcile(canonical, candidate, types.ModeStrict)
	require.NoError(t, err)

	blocks, changed := ApplyToBlocks([]string{translated}, res.Substitutions)
	assert.Equal(t, 3, changed)
	assert.Equal(t, original, blocks[0])
}

func TestApplyToBlocksAcrossBlocks(t *testing.T) {
	origBlocks := []string{"<<Eqn1>>", "body", "<<Eqn2>> and <<Eqn3>>,"}
	transBlocks := []string{"Eqn7>>", "body", "<<Eqn8 and Eqn9,"}

	canonical := ScanBlocks(origBlocks)
	candidate := ScanBlocks(transBlocks)

	res, err := Reconcile(canonical, candidate, types.ModeStrict)
	require.NoError(t, err)

	blocks, changed := ApplyToBlocks(transBlocks, res.Substitutions)
	assert.Equal(t, 3, changed)
	assert.Equal(t, "<<Eqn1>>", blocks[0])
	assert.Equal(t, "body", blocks[1])
	assert.Equal(t, "<<Eqn2>> and <<Eqn3>>,", blocks[2])

	// Re-running on the patched output is a no-op.
	rescanned := ScanBlocks(blocks)
	res2, err := Reconcile(canonical, rescanned, types.ModeStrict)
	require.NoError(t, err)
	assert.False(t, res2.Changed())
}

func TestApplyToBlocksSkipsStaleSpans(t *testing.T) {
	subs := []Substitution{{
		Occ:         Occurrence{Block: 0, Start: 0, End: 8, Raw: "<<Eqn1>>"},
		Replacement: "<<Eqn2>>",
	}}
	blocks, changed := ApplyToBlocks([]string{"mutated text"}, subs)
	assert.Equal(t, 0, changed)
	assert.Equal(t, "mutated text", blocks[0])
}

func TestReconcileManyOccurrencesSameNumber(t *testing.T) {
	// Duplicate numbers are legal; position alone drives the mapping.
	orig := strings.Repeat("<<Eqn1.eps>> ", 4)
	trans := strings.Repeat("Eqn1>> ", 4)

	canonical := ScanBlocks([]string{orig})
	candidate := ScanBlocks([]string{trans})

	res, err := Reconcile(canonical, candidate, types.ModeStrict)
	require.NoError(t, err)
	require.Len(t, res.Substitutions, 4)
	for _, s := range res.Substitutions {
		assert.Equal(t, "<<Eqn1.eps>>", s.Replacement)
	}
}

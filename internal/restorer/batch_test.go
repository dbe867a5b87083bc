package restorer

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"docx-translator/internal/types"
)

func TestRunBatch(t *testing.T) {
	root := t.TempDir()
	translations := filepath.Join(root, "translations")
	originals := filepath.Join(root, "originals")
	output := filepath.Join(root, "restored")

	writeDocxParas(t, filepath.Join(originals, "a.docx"), "see <<Eqn1.eps>>")
	writeDocxParas(t, filepath.Join(translations, "a_to_en_us.docx"), "voir Eqn1.eps>>")
	writeDocxParas(t, filepath.Join(originals, "sub", "b.docx"), "plain")
	writeDocxParas(t, filepath.Join(translations, "sub", "b_to_en_us.docx"), "simple")

	pairs, unmatched, err := FindPairs(translations, originals)
	require.NoError(t, err)
	require.Empty(t, unmatched)
	require.Len(t, pairs, 2)

	batch := Run(context.Background(), pairs, translations, output, BatchOptions{
		Options: Options{Mode: types.ModeStrict, Strategy: types.PatchStructured},
		Workers: 2,
	})

	assert.Equal(t, 2, batch.Succeeded)
	assert.Equal(t, 0, batch.Failed)
	assert.Equal(t, 1, batch.TotalReplaced)

	// Outputs mirror the translation folder structure.
	assert.Equal(t, []string{"voir <<Eqn1.eps>>"},
		blockTexts(t, filepath.Join(output, "a_to_en_us.docx")))
	assert.Equal(t, []string{"simple"},
		blockTexts(t, filepath.Join(output, "sub", "b_to_en_us.docx")))
}

func TestRunSkipsExistingOutput(t *testing.T) {
	root := t.TempDir()
	translations := filepath.Join(root, "translations")
	originals := filepath.Join(root, "originals")
	output := filepath.Join(root, "restored")

	writeDocxParas(t, filepath.Join(originals, "a.docx"), "text")
	writeDocxParas(t, filepath.Join(translations, "a_to_en_us.docx"), "texte")
	require.NoError(t, os.MkdirAll(output, 0755))
	require.NoError(t, os.WriteFile(filepath.Join(output, "a_to_en_us.docx"), []byte("old"), 0644))

	pairs, _, err := FindPairs(translations, originals)
	require.NoError(t, err)

	batch := Run(context.Background(), pairs, translations, output, BatchOptions{
		Options: Options{Mode: types.ModeStrict},
	})

	assert.Equal(t, 1, batch.Skipped)
	data, err := os.ReadFile(filepath.Join(output, "a_to_en_us.docx"))
	require.NoError(t, err)
	assert.Equal(t, "old", string(data))
}

func TestRunDryRunWritesNothing(t *testing.T) {
	root := t.TempDir()
	translations := filepath.Join(root, "translations")
	originals := filepath.Join(root, "originals")
	output := filepath.Join(root, "restored")

	writeDocxParas(t, filepath.Join(originals, "a.docx"), "<<Eqn1>> and <<Eqn2>>")
	writeDocxParas(t, filepath.Join(translations, "a_to_en_us.docx"), "Eqn1>> only")

	pairs, _, err := FindPairs(translations, originals)
	require.NoError(t, err)

	batch := Run(context.Background(), pairs, translations, output, BatchOptions{
		Options: Options{Mode: types.ModeStrict},
		DryRun:  true,
	})

	assert.Equal(t, 1, batch.Warnings)
	assert.Contains(t, batch.Results[0].Message, "2 in original vs 1 in translation")

	_, statErr := os.Stat(output)
	assert.True(t, os.IsNotExist(statErr))
}

func TestRunCancelledContext(t *testing.T) {
	root := t.TempDir()
	translations := filepath.Join(root, "translations")
	originals := filepath.Join(root, "originals")

	writeDocxParas(t, filepath.Join(originals, "a.docx"), "text")
	writeDocxParas(t, filepath.Join(translations, "a_to_en_us.docx"), "texte")

	pairs, _, err := FindPairs(translations, originals)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	batch := Run(ctx, pairs, translations, filepath.Join(root, "restored"), BatchOptions{})
	assert.Equal(t, 1, batch.Skipped)
	assert.Equal(t, "run cancelled", batch.Results[0].Message)
}

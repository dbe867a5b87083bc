package report

import (
	"encoding/json"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"docx-translator/internal/restorer"
	"docx-translator/internal/types"
)

func sampleBatch() *restorer.BatchResult {
	audit := make([]restorer.AuditEntry, MaxAuditEntries+5)
	for i := range audit {
		audit[i] = restorer.AuditEntry{Location: "document/paragraph[0]", Damaged: "Eqn1>>", Fixed: "<<Eqn1>>"}
	}
	return &restorer.BatchResult{
		Results: []*restorer.DocumentResult{
			{
				TranslationPath:  "t/a_to_en_us.docx",
				OriginalPath:     "o/a.docx",
				OutputPath:       "r/a_to_en_us.docx",
				Outcome:          types.OutcomeSuccess,
				Message:          "replaced 55 placeholders (55 damaged repaired)",
				OriginalCount:    55,
				TranslationCount: 55,
				Replaced:         55,
				DamagedFixed:     55,
				Audit:            audit,
			},
			{
				TranslationPath: "t/b_to_en_us.docx",
				OriginalPath:    "o/b.docx",
				Outcome:         types.OutcomeFailed,
				Message:         "placeholder count mismatch",
			},
		},
		Succeeded:         1,
		Failed:            1,
		TotalReplaced:     55,
		TotalDamagedFixed: 55,
	}
}

func TestBuildOrdersFailuresFirst(t *testing.T) {
	unmatched := []restorer.Unmatched{{Translation: "t/loose.docx", ExpectedOriginal: "o/loose.docx"}}
	r := Build(sampleBatch(), unmatched, types.ModeStrict, types.PatchStructured, time.Now())

	assert.Equal(t, 2, r.TotalFiles)
	assert.Equal(t, "strict", r.Mode)
	assert.Equal(t, "structured", r.Strategy)

	require.Len(t, r.Documents, 2)
	assert.Equal(t, types.OutcomeFailed, r.Documents[0].Outcome)
	assert.Equal(t, types.OutcomeSuccess, r.Documents[1].Outcome)
}

func TestBuildCapsAudit(t *testing.T) {
	r := Build(sampleBatch(), nil, types.ModeTolerant, types.PatchRaw, time.Now())

	var success *DocumentReport
	for i := range r.Documents {
		if r.Documents[i].Outcome == types.OutcomeSuccess {
			success = &r.Documents[i]
		}
	}
	require.NotNil(t, success)
	assert.Len(t, success.Audit, MaxAuditEntries)
	assert.Equal(t, 5, success.AuditOmitted)
}

func TestTextSummary(t *testing.T) {
	unmatched := []restorer.Unmatched{{Translation: "t/loose.docx", ExpectedOriginal: "o/loose.docx"}}
	r := Build(sampleBatch(), unmatched, types.ModeStrict, types.PatchStructured, time.Now())

	text := r.Text()
	assert.Contains(t, text, "2 total, 1 ok, 0 warnings, 1 failed, 0 skipped")
	assert.Contains(t, text, "55 placeholders (55 repaired from damage)")
	assert.Contains(t, text, "[FAILED] t/b_to_en_us.docx")
	assert.Contains(t, text, "Unmatched translations (1):")
	assert.Contains(t, text, "more repairs omitted")
}

func TestWriteProducesTxtAndJSON(t *testing.T) {
	dir := t.TempDir()
	r := Build(sampleBatch(), nil, types.ModeStrict, types.PatchStructured, time.Now())

	txtPath, err := r.Write(dir)
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(txtPath, ".txt"))

	jsonPath := strings.TrimSuffix(txtPath, ".txt") + ".json"
	data, err := os.ReadFile(jsonPath)
	require.NoError(t, err)

	var decoded RunReport
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, 2, decoded.TotalFiles)
	assert.Equal(t, 55, decoded.TotalReplaced)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 2)
}

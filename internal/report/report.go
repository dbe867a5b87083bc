// Package report renders batch run reports. Every run produces a plain
// text summary for the operator and a JSON file that downstream tooling
// can consume.
package report

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"docx-translator/internal/logger"
	"docx-translator/internal/restorer"
	"docx-translator/internal/types"
)

// MaxAuditEntries caps the damaged placeholder audit carried per document.
// Heavily damaged documents can have thousands of entries; the cap keeps
// reports readable while still naming the worst offenders.
const MaxAuditEntries = 50

// DocumentReport is the per-document section of a run report.
type DocumentReport struct {
	Translation   string                 `json:"translation"`
	Original      string                 `json:"original"`
	Output        string                 `json:"output,omitempty"`
	Outcome       types.DocumentOutcome  `json:"outcome"`
	Message       string                 `json:"message"`
	OriginalCount int                    `json:"original_placeholders"`
	FoundCount    int                    `json:"translation_placeholders"`
	Replaced      int                    `json:"replaced"`
	DamagedFixed  int                    `json:"damaged_fixed"`
	Truncated     bool                   `json:"truncated,omitempty"`
	Audit         []restorer.AuditEntry  `json:"audit,omitempty"`
	AuditOmitted  int                    `json:"audit_omitted,omitempty"`
}

// RunReport is one batch run, ready for rendering.
type RunReport struct {
	StartedAt  time.Time        `json:"started_at"`
	FinishedAt time.Time        `json:"finished_at"`
	Mode       string           `json:"mode"`
	Strategy   string           `json:"strategy"`

	TotalFiles int `json:"total_files"`
	Succeeded  int `json:"succeeded"`
	Warnings   int `json:"warnings"`
	Failed     int `json:"failed"`
	Skipped    int `json:"skipped"`

	TotalReplaced     int `json:"total_replaced"`
	TotalDamagedFixed int `json:"total_damaged_fixed"`

	Documents []DocumentReport      `json:"documents"`
	Unmatched []restorer.Unmatched  `json:"unmatched,omitempty"`
}

// Build assembles a run report from batch results.
func Build(batch *restorer.BatchResult, unmatched []restorer.Unmatched, mode types.ReconcileMode, strategy types.PatchStrategy, startedAt time.Time) *RunReport {
	r := &RunReport{
		StartedAt:  startedAt,
		FinishedAt: time.Now(),
		Mode:       mode.String(),
		Strategy:   strategy.String(),

		TotalFiles: len(batch.Results),
		Succeeded:  batch.Succeeded,
		Warnings:   batch.Warnings,
		Failed:     batch.Failed,
		Skipped:    batch.Skipped,

		TotalReplaced:     batch.TotalReplaced,
		TotalDamagedFixed: batch.TotalDamagedFixed,

		Unmatched: unmatched,
	}

	for _, res := range batch.Results {
		doc := DocumentReport{
			Translation:   res.TranslationPath,
			Original:      res.OriginalPath,
			Output:        res.OutputPath,
			Outcome:       res.Outcome,
			Message:       res.Message,
			OriginalCount: res.OriginalCount,
			FoundCount:    res.TranslationCount,
			Replaced:      res.Replaced,
			DamagedFixed:  res.DamagedFixed,
			Truncated:     res.Truncated,
		}
		if len(res.Audit) > MaxAuditEntries {
			doc.Audit = res.Audit[:MaxAuditEntries]
			doc.AuditOmitted = len(res.Audit) - MaxAuditEntries
		} else {
			doc.Audit = res.Audit
		}
		r.Documents = append(r.Documents, doc)
	}

	// Failures first so they are visible without scrolling.
	sort.SliceStable(r.Documents, func(i, j int) bool {
		return outcomeRank(r.Documents[i].Outcome) < outcomeRank(r.Documents[j].Outcome)
	})

	return r
}

func outcomeRank(o types.DocumentOutcome) int {
	switch o {
	case types.OutcomeFailed:
		return 0
	case types.OutcomeWarning:
		return 1
	case types.OutcomeSkipped:
		return 2
	default:
		return 3
	}
}

// Text renders the report as a human-readable summary.
func (r *RunReport) Text() string {
	var sb strings.Builder

	sb.WriteString("EQUATION PLACEHOLDER RESTORATION REPORT\n")
	sb.WriteString(strings.Repeat("=", 60) + "\n")
	fmt.Fprintf(&sb, "Started:   %s\n", r.StartedAt.Format(time.RFC3339))
	fmt.Fprintf(&sb, "Finished:  %s\n", r.FinishedAt.Format(time.RFC3339))
	fmt.Fprintf(&sb, "Mode:      %s, patch strategy: %s\n\n", r.Mode, r.Strategy)

	fmt.Fprintf(&sb, "Files:     %d total, %d ok, %d warnings, %d failed, %d skipped\n",
		r.TotalFiles, r.Succeeded, r.Warnings, r.Failed, r.Skipped)
	fmt.Fprintf(&sb, "Replaced:  %d placeholders (%d repaired from damage)\n",
		r.TotalReplaced, r.TotalDamagedFixed)

	if len(r.Unmatched) > 0 {
		fmt.Fprintf(&sb, "\nUnmatched translations (%d):\n", len(r.Unmatched))
		for _, u := range r.Unmatched {
			fmt.Fprintf(&sb, "  %s (expected original: %s)\n", u.Translation, u.ExpectedOriginal)
		}
	}

	sb.WriteString("\n" + strings.Repeat("-", 60) + "\n")
	for _, doc := range r.Documents {
		fmt.Fprintf(&sb, "[%s] %s\n", strings.ToUpper(string(doc.Outcome)), doc.Translation)
		fmt.Fprintf(&sb, "    %s\n", doc.Message)
		if doc.OriginalCount > 0 || doc.FoundCount > 0 {
			fmt.Fprintf(&sb, "    placeholders: %d in original, %d in translation\n",
				doc.OriginalCount, doc.FoundCount)
		}
		for _, a := range doc.Audit {
			fmt.Fprintf(&sb, "    %-40s %q -> %q\n", a.Location, a.Damaged, a.Fixed)
		}
		if doc.AuditOmitted > 0 {
			fmt.Fprintf(&sb, "    ... %d more repairs omitted\n", doc.AuditOmitted)
		}
	}

	return sb.String()
}

// Write saves the report into dir as a timestamped pair of .txt and .json
// files and returns the text report's path.
func (r *RunReport) Write(dir string) (string, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", types.NewAppErrorWithDetails(types.ErrDocumentWrite,
			"failed to create report directory", dir, err)
	}

	stamp := r.FinishedAt.Format("20060102_150405")
	txtPath := filepath.Join(dir, "restoration_report_"+stamp+".txt")
	jsonPath := filepath.Join(dir, "restoration_report_"+stamp+".json")

	if err := os.WriteFile(txtPath, []byte(r.Text()), 0644); err != nil {
		return "", types.NewAppErrorWithDetails(types.ErrDocumentWrite,
			"failed to write report", txtPath, err)
	}

	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return "", types.NewAppError(types.ErrInternal, "failed to encode report", err)
	}
	if err := os.WriteFile(jsonPath, data, 0644); err != nil {
		return "", types.NewAppErrorWithDetails(types.ErrDocumentWrite,
			"failed to write report", jsonPath, err)
	}

	logger.Info("report written",
		logger.String("txt", txtPath),
		logger.String("json", jsonPath))

	return txtPath, nil
}

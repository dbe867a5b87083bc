// Package restorer drives equation placeholder restoration for translated
// documents: it scans an original and its translation, builds a positional
// reconciliation plan, and patches the translation so every placeholder
// matches the original's exact text.
package restorer

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"docx-translator/internal/docx"
	"docx-translator/internal/eqn"
	"docx-translator/internal/logger"
	"docx-translator/internal/pdfinfo"
	"docx-translator/internal/types"
)

// Options selects how a document pair is reconciled and patched.
type Options struct {
	Mode     types.ReconcileMode
	Strategy types.PatchStrategy
}

// AuditEntry records one damaged placeholder and the text that replaced it.
type AuditEntry struct {
	Location string
	Damaged  string
	Fixed    string
}

// DocumentResult is the outcome of processing one document pair.
type DocumentResult struct {
	TranslationPath string
	OriginalPath    string
	OutputPath      string

	Outcome types.DocumentOutcome
	Message string
	Err     error

	OriginalCount    int
	TranslationCount int
	Replaced         int
	DamagedFixed     int
	Truncated        bool
	StrippedExtras   bool
	MissedRaw        int
	Audit            []AuditEntry
}

func failed(result *DocumentResult, msg string, err error) *DocumentResult {
	result.Outcome = types.OutcomeFailed
	result.Message = msg
	result.Err = err
	logger.Error("document failed", err,
		logger.String("translation", result.TranslationPath),
		logger.String("reason", msg))
	return result
}

// RestoreDocument restores one translated .docx against its original and
// writes the result to outPath. The translation is copied byte for byte
// when there is nothing to change.
func RestoreDocument(origPath, transPath, outPath string, opts Options) *DocumentResult {
	result := &DocumentResult{
		TranslationPath: transPath,
		OriginalPath:    origPath,
		OutputPath:      outPath,
	}

	orig, err := docx.Open(origPath)
	if err != nil {
		return failed(result, "failed to read original", err)
	}
	canonical := eqn.ScanBlocks(orig.BlockTexts())
	result.OriginalCount = len(canonical)

	trans, err := docx.Open(transPath)
	if err != nil {
		return failed(result, "failed to read translation", err)
	}
	candidates := eqn.ScanBlocks(trans.BlockTexts())
	result.TranslationCount = len(candidates)

	plan, err := eqn.Reconcile(canonical, candidates, opts.Mode)
	if err != nil {
		return failed(result, "placeholder count mismatch", err)
	}
	result.Truncated = plan.Truncated
	result.StrippedExtras = plan.StrippedExtras

	if len(canonical) == 0 && len(candidates) == 0 {
		if err := copyFile(transPath, outPath); err != nil {
			return failed(result, "failed to copy document", err)
		}
		result.Outcome = types.OutcomeSuccess
		result.Message = "no placeholders found, file copied"
		return result
	}

	if !plan.Changed() {
		if err := copyFile(transPath, outPath); err != nil {
			return failed(result, "failed to copy document", err)
		}
		result.Outcome = types.OutcomeSuccess
		result.Message = fmt.Sprintf("all %d placeholders already intact, file copied", len(candidates))
		return result
	}

	for _, s := range plan.Substitutions {
		if s.Occ.Raw == s.Replacement {
			continue
		}
		if !s.Occ.WellFormed {
			result.DamagedFixed++
		}
		loc := ""
		if s.Occ.Block >= 0 && s.Occ.Block < len(trans.Blocks()) {
			loc = trans.Blocks()[s.Occ.Block].Location
		}
		result.Audit = append(result.Audit, AuditEntry{
			Location: loc,
			Damaged:  s.Occ.Raw,
			Fixed:    s.Replacement,
		})
	}

	switch opts.Strategy {
	case types.PatchRaw:
		if err := applyRaw(trans, plan, result); err != nil {
			return failed(result, "raw patch failed", err)
		}
	default:
		if err := applyStructured(trans, plan, result); err != nil {
			return failed(result, "structured patch failed", err)
		}
	}

	if err := os.MkdirAll(filepath.Dir(outPath), 0755); err != nil {
		return failed(result, "failed to create output directory", err)
	}
	if err := trans.Save(outPath); err != nil {
		return failed(result, "failed to save document", err)
	}

	result.Outcome = types.OutcomeSuccess
	if result.Truncated || result.StrippedExtras || result.MissedRaw > 0 {
		result.Outcome = types.OutcomeWarning
	}
	switch {
	case result.StrippedExtras:
		result.Message = fmt.Sprintf("removed %d extra placeholders", result.Replaced)
	case result.MissedRaw > 0:
		result.Message = fmt.Sprintf("replaced %d placeholders, %d could not be located",
			result.Replaced, result.MissedRaw)
	default:
		result.Message = fmt.Sprintf("replaced %d placeholders (%d damaged repaired)",
			result.Replaced, result.DamagedFixed)
	}

	logger.Info("document restored",
		logger.String("translation", filepath.Base(transPath)),
		logger.Int("replaced", result.Replaced),
		logger.Int("damaged_fixed", result.DamagedFixed),
		logger.Bool("truncated", result.Truncated))

	return result
}

// applyStructured rewrites every affected paragraph as a single run.
func applyStructured(trans *docx.Document, plan *eqn.Result, result *DocumentResult) error {
	texts := trans.BlockTexts()
	newTexts, changed := eqn.ApplyToBlocks(texts, plan.Substitutions)
	result.Replaced = changed

	for i := range newTexts {
		if newTexts[i] == texts[i] {
			continue
		}
		if err := trans.SetBlockText(i, newTexts[i]); err != nil {
			return err
		}
	}
	return nil
}

// applyRaw splices replacements into the serialized XML, preserving run
// structure. Placeholders split across runs cannot be located this way
// and are counted in MissedRaw.
func applyRaw(trans *docx.Document, plan *eqn.Result, result *DocumentResult) error {
	if err := trans.VerifyEncoding(); err != nil {
		return err
	}

	var repls []docx.Replacement
	for _, s := range plan.Substitutions {
		if s.Occ.Raw == s.Replacement {
			continue
		}
		repls = append(repls, docx.Replacement{
			BlockIndex: s.Occ.Block,
			Old:        s.Occ.Raw,
			New:        s.Replacement,
		})
	}

	result.MissedRaw = trans.ApplyRaw(repls)
	result.Replaced = len(repls) - result.MissedRaw
	return nil
}

// VerifyPDF scans a translated PDF against its original. PDFs are never
// patched; the result reports counts and damage so the pair can be fixed
// upstream.
func VerifyPDF(origPath, transPath string, mode types.ReconcileMode) *DocumentResult {
	result := &DocumentResult{
		TranslationPath: transPath,
		OriginalPath:    origPath,
	}

	origPages, err := pdfinfo.PageTexts(origPath)
	if err != nil {
		return failed(result, "failed to read original PDF", err)
	}
	canonical := eqn.ScanBlocks(origPages)
	result.OriginalCount = len(canonical)

	transPages, err := pdfinfo.PageTexts(transPath)
	if err != nil {
		return failed(result, "failed to read translated PDF", err)
	}
	candidates := eqn.ScanBlocks(transPages)
	result.TranslationCount = len(candidates)

	damaged := 0
	for _, o := range candidates {
		if !o.WellFormed {
			damaged++
			result.Audit = append(result.Audit, AuditEntry{
				Location: fmt.Sprintf("page[%d]", o.Block),
				Damaged:  o.Raw,
			})
		}
	}

	switch {
	case len(canonical) != len(candidates):
		msg := fmt.Sprintf("%d in original vs %d in translation", len(canonical), len(candidates))
		if mode == types.ModeStrict {
			return failed(result, "placeholder count mismatch",
				types.NewAppErrorWithDetails(types.ErrLengthMismatch,
					"placeholder count mismatch", msg, nil))
		}
		result.Outcome = types.OutcomeWarning
		result.Message = "placeholder count mismatch: " + msg
	case damaged > 0:
		result.Outcome = types.OutcomeWarning
		result.Message = fmt.Sprintf("%d damaged placeholders found", damaged)
	default:
		result.Outcome = types.OutcomeSuccess
		result.Message = fmt.Sprintf("all %d placeholders verified", len(candidates))
	}

	return result
}

func copyFile(src, dst string) error {
	data, err := os.ReadFile(src)
	if err != nil {
		return types.NewAppErrorWithDetails(types.ErrDocumentRead,
			"failed to read document", src, err)
	}
	if err := os.MkdirAll(filepath.Dir(dst), 0755); err != nil {
		return types.NewAppErrorWithDetails(types.ErrDocumentWrite,
			"failed to create output directory", filepath.Dir(dst), err)
	}
	if err := os.WriteFile(dst, data, 0644); err != nil {
		return types.NewAppErrorWithDetails(types.ErrDocumentWrite,
			"failed to write document", dst, err)
	}
	return nil
}

// IsPDF reports whether a path names a PDF file.
func IsPDF(path string) bool {
	return strings.EqualFold(filepath.Ext(path), ".pdf")
}

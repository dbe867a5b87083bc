package restorer

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"docx-translator/internal/docx"
	"docx-translator/internal/eqn"
	"docx-translator/internal/logger"
	"docx-translator/internal/types"
)

// BatchOptions configures a batch run over many document pairs.
type BatchOptions struct {
	Options
	Workers int
	// DryRun scans and reports without writing any output.
	DryRun bool
}

// BatchResult aggregates a whole run.
type BatchResult struct {
	Results []*DocumentResult

	Succeeded int
	Warnings  int
	Failed    int
	Skipped   int

	TotalReplaced     int
	TotalDamagedFixed int
}

// Run processes every pair with a bounded worker pool. Output files mirror
// the translation folder structure under outputRoot; existing outputs are
// skipped so interrupted runs can resume. Cancelling the context stops new
// documents from starting while in-flight documents finish.
func Run(ctx context.Context, pairs []Pair, translationsRoot, outputRoot string, opts BatchOptions) *BatchResult {
	if opts.Workers <= 0 {
		opts.Workers = 1
	}

	logger.Info("batch run starting",
		logger.Int("pairs", len(pairs)),
		logger.Int("workers", opts.Workers),
		logger.String("mode", opts.Mode.String()),
		logger.Bool("dry_run", opts.DryRun))

	sem := make(chan struct{}, opts.Workers)
	var wg sync.WaitGroup
	var mu sync.Mutex

	results := make([]*DocumentResult, len(pairs))

	for i, pair := range pairs {
		if ctx.Err() != nil {
			results[i] = &DocumentResult{
				TranslationPath: pair.Translation,
				OriginalPath:    pair.Original,
				Outcome:         types.OutcomeSkipped,
				Message:         "run cancelled",
			}
			continue
		}

		wg.Add(1)
		go func(idx int, p Pair) {
			defer wg.Done()

			sem <- struct{}{}
			defer func() { <-sem }()

			res := processPair(ctx, p, translationsRoot, outputRoot, opts)

			mu.Lock()
			results[idx] = res
			mu.Unlock()
		}(i, pair)
	}

	wg.Wait()

	batch := &BatchResult{Results: results}
	for _, r := range results {
		switch r.Outcome {
		case types.OutcomeSuccess:
			batch.Succeeded++
		case types.OutcomeWarning:
			batch.Warnings++
		case types.OutcomeFailed:
			batch.Failed++
		case types.OutcomeSkipped:
			batch.Skipped++
		}
		batch.TotalReplaced += r.Replaced
		batch.TotalDamagedFixed += r.DamagedFixed
	}

	logger.Info("batch run finished",
		logger.Int("succeeded", batch.Succeeded),
		logger.Int("warnings", batch.Warnings),
		logger.Int("failed", batch.Failed),
		logger.Int("skipped", batch.Skipped),
		logger.Int("replaced", batch.TotalReplaced))

	return batch
}

func processPair(ctx context.Context, p Pair, translationsRoot, outputRoot string, opts BatchOptions) *DocumentResult {
	if ctx.Err() != nil {
		return &DocumentResult{
			TranslationPath: p.Translation,
			OriginalPath:    p.Original,
			Outcome:         types.OutcomeSkipped,
			Message:         "run cancelled",
		}
	}

	if IsPDF(p.Translation) {
		return VerifyPDF(p.Original, p.Translation, opts.Mode)
	}

	outPath := outputPath(p.Translation, translationsRoot, outputRoot)

	if _, err := os.Stat(outPath); err == nil {
		return &DocumentResult{
			TranslationPath: p.Translation,
			OriginalPath:    p.Original,
			OutputPath:      outPath,
			Outcome:         types.OutcomeSkipped,
			Message:         "output already exists",
		}
	}

	if opts.DryRun {
		return previewDocument(p, outPath, opts)
	}

	return RestoreDocument(p.Original, p.Translation, outPath, opts.Options)
}

// previewDocument scans a pair and reports what a real run would do.
func previewDocument(p Pair, outPath string, opts BatchOptions) *DocumentResult {
	result := &DocumentResult{
		TranslationPath: p.Translation,
		OriginalPath:    p.Original,
		OutputPath:      outPath,
	}

	orig, err := docx.Open(p.Original)
	if err != nil {
		return failed(result, "failed to read original", err)
	}
	canonical := eqn.ScanBlocks(orig.BlockTexts())
	result.OriginalCount = len(canonical)

	trans, err := docx.Open(p.Translation)
	if err != nil {
		return failed(result, "failed to read translation", err)
	}
	candidates := eqn.ScanBlocks(trans.BlockTexts())
	result.TranslationCount = len(candidates)

	for _, o := range candidates {
		if !o.WellFormed {
			result.DamagedFixed++
		}
	}

	result.Outcome = types.OutcomeSuccess
	result.Message = fmt.Sprintf("would reconcile %d placeholders (%d damaged)",
		len(candidates), result.DamagedFixed)
	if len(canonical) != len(candidates) {
		result.Outcome = types.OutcomeWarning
		result.Message = fmt.Sprintf("count mismatch: %d in original vs %d in translation",
			len(canonical), len(candidates))
	}
	return result
}

// outputPath mirrors the translation's position under the output root.
func outputPath(translation, translationsRoot, outputRoot string) string {
	rel, err := filepath.Rel(translationsRoot, translation)
	if err != nil {
		rel = filepath.Base(translation)
	}
	return filepath.Join(outputRoot, rel)
}

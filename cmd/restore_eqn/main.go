// Command restore_eqn reconciles equation placeholders in translated
// documents against their originals. It accepts either a single document
// pair or two folder trees, repairs damaged placeholders, and writes a run
// report.
//
// Exit codes: 0 on full success, 1 when any document failed or a
// translation had no matching original, 2 on usage errors or partial
// success (tolerated mismatches, stripped extras, or unpatchable spans).
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"docx-translator/internal/logger"
	"docx-translator/internal/report"
	"docx-translator/internal/restorer"
	"docx-translator/internal/types"
)

func init() {
	logger.Init(&logger.Config{
		LogFilePath:   "restore_eqn.log",
		Level:         logger.LevelInfo,
		EnableConsole: false,
	})
}

func main() {
	defer logger.Close()

	original := flag.String("original", "", "Original document or folder of originals")
	translation := flag.String("translation", "", "Translated document or folder of translations")
	output := flag.String("output", "./restored", "Output folder for restored documents")
	reportDir := flag.String("report", "./reports", "Folder for run reports")
	force := flag.Bool("force", false, "Tolerate placeholder count mismatches by truncating the longer sequence")
	raw := flag.Bool("raw", false, "Patch placeholder bytes in place instead of rewriting paragraphs")
	dryRun := flag.Bool("dry-run", false, "Scan and report without writing output")
	workers := flag.Int("workers", 2, "Concurrent documents")
	verbose := flag.Bool("verbose", false, "Log to console as well as the log file")
	flag.Parse()

	if *original == "" || *translation == "" {
		fmt.Fprintln(os.Stderr, "Usage: restore_eqn -original <path> -translation <path> [-output <dir>] [-force] [-raw] [-dry-run]")
		os.Exit(2)
	}

	if *verbose {
		logger.Init(&logger.Config{
			LogFilePath:   "restore_eqn.log",
			Level:         logger.LevelDebug,
			EnableConsole: true,
		})
	}

	opts := restorer.Options{
		Mode:     types.ModeStrict,
		Strategy: types.PatchStructured,
	}
	if *force {
		opts.Mode = types.ModeTolerant
	}
	if *raw {
		opts.Strategy = types.PatchRaw
	}

	origInfo, err := os.Stat(*original)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Cannot access original: %v\n", err)
		os.Exit(2)
	}
	transInfo, err := os.Stat(*translation)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Cannot access translation: %v\n", err)
		os.Exit(2)
	}
	if origInfo.IsDir() != transInfo.IsDir() {
		fmt.Fprintln(os.Stderr, "Original and translation must both be files or both be folders")
		os.Exit(2)
	}

	// Interrupt finishes in-flight documents, then stops.
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if !origInfo.IsDir() {
		os.Exit(runSingle(*original, *translation, *output, opts))
	}

	os.Exit(runBatch(ctx, *original, *translation, *output, *reportDir, opts, *workers, *dryRun))
}

func runSingle(original, translation, output string, opts restorer.Options) int {
	var res *restorer.DocumentResult
	if restorer.IsPDF(translation) {
		res = restorer.VerifyPDF(original, translation, opts.Mode)
	} else {
		outPath := output
		if info, err := os.Stat(output); err == nil && info.IsDir() {
			outPath = filepath.Join(output, "restored_"+filepath.Base(translation))
		}
		res = restorer.RestoreDocument(original, translation, outPath, opts)
	}

	fmt.Printf("[%s] %s\n", res.Outcome, res.Message)
	for _, a := range res.Audit {
		fmt.Printf("  %-40s %q -> %q\n", a.Location, a.Damaged, a.Fixed)
	}
	switch res.Outcome {
	case types.OutcomeFailed:
		fmt.Fprintf(os.Stderr, "Error: %v\n", res.Err)
		return 1
	case types.OutcomeWarning:
		return 2
	}
	return 0
}

func runBatch(ctx context.Context, originals, translations, output, reportDir string, opts restorer.Options, workers int, dryRun bool) int {
	startedAt := time.Now()

	pairs, unmatched, err := restorer.FindPairs(translations, originals)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Pair discovery failed: %v\n", err)
		return 2
	}
	if len(pairs) == 0 && len(unmatched) == 0 {
		fmt.Println("No documents found to process.")
		return 0
	}

	fmt.Printf("Found %d pairs (%d translations without originals)\n", len(pairs), len(unmatched))

	batch := restorer.Run(ctx, pairs, translations, output, restorer.BatchOptions{
		Options: opts,
		Workers: workers,
		DryRun:  dryRun,
	})

	run := report.Build(batch, unmatched, opts.Mode, opts.Strategy, startedAt)
	fmt.Println(run.Text())

	if !dryRun {
		if path, err := run.Write(reportDir); err != nil {
			fmt.Fprintf(os.Stderr, "Failed to write report: %v\n", err)
		} else {
			fmt.Printf("Report written to %s\n", path)
		}
	}

	if batch.Failed > 0 || len(unmatched) > 0 {
		return 1
	}
	if batch.Warnings > 0 {
		return 2
	}
	return 0
}

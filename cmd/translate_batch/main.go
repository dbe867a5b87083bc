// Command translate_batch sends every .docx in a folder to DeepL for
// document translation, then reconciles equation placeholders in the
// results against the originals. Outputs carry a _to_<lang> suffix so the
// two stages pair up without extra bookkeeping.
//
// Exit codes: 0 on success, 1 when any document failed, 2 on usage or
// configuration errors.
package main

import (
	"context"
	"flag"
	"fmt"
	"io/fs"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"sync"
	"syscall"
	"time"

	"docx-translator/internal/config"
	"docx-translator/internal/cost"
	"docx-translator/internal/logger"
	"docx-translator/internal/report"
	"docx-translator/internal/restorer"
	"docx-translator/internal/translator"
	"docx-translator/internal/types"
)

func init() {
	logger.Init(&logger.Config{
		LogFilePath:   "translate_batch.log",
		Level:         logger.LevelInfo,
		EnableConsole: false,
	})
}

type jobResult struct {
	file   string
	output string
	billed int64
	err    error
}

func main() {
	defer logger.Close()

	input := flag.String("input", "", "Folder with .docx files to translate")
	output := flag.String("output", "", "Output folder (default: <input>_to_<target>)")
	source := flag.String("source", "RU", "Source language code")
	target := flag.String("target", "EN-US", "Target language code")
	configPath := flag.String("config", "", "Config file path (default: ~/.config/docx-translator/config.json)")
	workers := flag.Int("workers", 0, "Concurrent translations (default: from config)")
	pacing := flag.Int("pacing", 0, "Milliseconds between document submissions (default: from config)")
	skipQuota := flag.Bool("skip-quota-check", false, "Do not verify remaining character quota before starting")
	noRestore := flag.Bool("no-restore", false, "Skip the placeholder restoration stage after translation")
	flag.Parse()

	if *input == "" {
		fmt.Fprintln(os.Stderr, "Usage: translate_batch -input <folder> [-output <folder>] [-source RU] [-target EN-US]")
		os.Exit(2)
	}

	mgr, err := config.NewManager(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Config error: %v\n", err)
		os.Exit(2)
	}
	if err := mgr.Load(); err != nil {
		fmt.Fprintf(os.Stderr, "Config error: %v\n", err)
		os.Exit(2)
	}

	apiKey := mgr.GetAPIKey()
	if apiKey == "" {
		fmt.Fprintf(os.Stderr, "DeepL API key not configured. Set %s or add it to %s\n",
			config.EnvDeepLAPIKey, mgr.GetConfigPath())
		os.Exit(2)
	}

	src, tgt, err := translator.ResolvePair(*source, *target, types.DefaultLanguagePairs())
	if err != nil {
		fmt.Fprintf(os.Stderr, "Language error: %v\n", err)
		os.Exit(2)
	}

	outDir := *output
	if outDir == "" {
		outDir = strings.TrimRight(*input, string(os.PathSeparator)) + targetSuffix(tgt)
	}

	files, err := findDocx(*input)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Input error: %v\n", err)
		os.Exit(2)
	}
	if len(files) == 0 {
		fmt.Println("No .docx files found.")
		return
	}
	fmt.Printf("Translating %d documents %s -> %s into %s\n", len(files), src, tgt, outDir)

	client := translator.NewClient(apiKey, mgr.GetBaseURL())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if !*skipQuota {
		fc, err := cost.CountFolder(*input)
		if err == nil {
			if err := client.CheckQuota(ctx, int64(fc.TotalChars)); err != nil {
				fmt.Fprintf(os.Stderr, "Quota check failed: %v\n", err)
				os.Exit(2)
			}
			fmt.Printf("Quota check passed for %d characters\n", fc.TotalChars)
		} else {
			fmt.Fprintf(os.Stderr, "Warning: could not pre-count characters: %v\n", err)
		}
	}

	concurrency := *workers
	if concurrency <= 0 {
		concurrency = mgr.GetConcurrency()
	}
	pace := time.Duration(*pacing) * time.Millisecond
	if *pacing <= 0 {
		pace = time.Duration(mgr.GetConfig().RequestPacingMS) * time.Millisecond
	}

	results := translateAll(ctx, client, files, *input, outDir, src, tgt, concurrency, pace)

	failedCount := 0
	var totalBilled int64
	for _, r := range results {
		if r.err != nil {
			failedCount++
			fmt.Printf("  FAILED  %s: %v\n", r.file, r.err)
			continue
		}
		if r.output == "" {
			fmt.Printf("  SKIPPED %s (output exists)\n", r.file)
			continue
		}
		totalBilled += r.billed
		fmt.Printf("  OK      %s (%d chars billed)\n", r.file, r.billed)
	}

	fmt.Printf("\nDone: %d ok, %d failed, %d characters billed\n",
		len(results)-failedCount, failedCount, totalBilled)

	restoreFailed := 0
	if !*noRestore {
		restoreFailed = restoreTranslated(ctx, results, outDir)
	}

	if failedCount > 0 || restoreFailed > 0 {
		os.Exit(1)
	}
}

// restoreTranslated reconciles placeholders in the freshly translated
// documents against the inputs they came from. Results land in a sibling
// _restored tree next to the translation output. Returns the number of
// documents that failed restoration.
func restoreTranslated(ctx context.Context, results []jobResult, outDir string) int {
	startedAt := time.Now()

	var pairs []restorer.Pair
	for _, r := range results {
		if r.err != nil || r.output == "" || restorer.IsPDF(r.output) {
			continue
		}
		pairs = append(pairs, restorer.Pair{Translation: r.output, Original: r.file})
	}
	if len(pairs) == 0 {
		return 0
	}

	restoredDir := strings.TrimRight(outDir, string(os.PathSeparator)) + "_restored"
	fmt.Printf("\nRestoring placeholders in %d documents into %s\n", len(pairs), restoredDir)

	opts := restorer.BatchOptions{
		Options: restorer.Options{
			Mode:     types.ModeTolerant,
			Strategy: types.PatchStructured,
		},
		Workers: 2,
	}
	batch := restorer.Run(ctx, pairs, outDir, restoredDir, opts)

	run := report.Build(batch, nil, opts.Mode, opts.Strategy, startedAt)
	fmt.Println(run.Text())
	if path, err := run.Write(restoredDir); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to write restoration report: %v\n", err)
	} else {
		fmt.Printf("Report written to %s\n", path)
	}

	return batch.Failed
}

// translateAll runs document jobs through a bounded worker pool. Submissions
// are paced so the API is not hit in bursts; cancelling the context stops
// new submissions.
func translateAll(ctx context.Context, client *translator.Client, files []string, inputRoot, outDir, src, tgt string, concurrency int, pace time.Duration) []jobResult {
	if concurrency <= 0 {
		concurrency = 1
	}

	sem := make(chan struct{}, concurrency)
	var wg sync.WaitGroup
	var mu sync.Mutex

	results := make([]jobResult, len(files))

	for i, file := range files {
		if ctx.Err() != nil {
			results[i] = jobResult{file: file, err: ctx.Err()}
			continue
		}
		if i > 0 && pace > 0 {
			select {
			case <-ctx.Done():
			case <-time.After(pace):
			}
		}

		wg.Add(1)
		go func(idx int, path string) {
			defer wg.Done()

			sem <- struct{}{}
			defer func() { <-sem }()

			res := jobResult{file: path}

			rel, err := filepath.Rel(inputRoot, path)
			if err != nil {
				rel = filepath.Base(path)
			}
			outPath := filepath.Join(outDir, suffixedName(rel, tgt))

			if _, err := os.Stat(outPath); err == nil {
				mu.Lock()
				results[idx] = res // output empty marks a skip
				mu.Unlock()
				return
			}

			res.billed, res.err = client.TranslateDocument(ctx, path, outPath, src, tgt)
			if res.err == nil {
				res.output = outPath
			}

			mu.Lock()
			results[idx] = res
			mu.Unlock()
		}(i, file)
	}

	wg.Wait()
	return results
}

func findDocx(root string) ([]string, error) {
	var files []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || strings.HasPrefix(d.Name(), "~$") {
			return nil
		}
		if strings.EqualFold(filepath.Ext(path), ".docx") {
			files = append(files, path)
		}
		return nil
	})
	return files, err
}

// targetSuffix converts a language code to a file name suffix, "_to_en_us"
// for EN-US.
func targetSuffix(target string) string {
	return "_to_" + strings.ToLower(strings.ReplaceAll(target, "-", "_"))
}

// suffixedName inserts the target suffix before the extension, preserving
// any folder components.
func suffixedName(rel, target string) string {
	ext := filepath.Ext(rel)
	return strings.TrimSuffix(rel, ext) + targetSuffix(target) + ext
}

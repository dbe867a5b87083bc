// Command char_count counts billable characters in a folder of documents
// and writes a CSV report next to them. Use it before a translation run to
// estimate how much DeepL quota the batch will consume.
package main

import (
	"flag"
	"fmt"
	"os"

	"docx-translator/internal/cost"
	"docx-translator/internal/logger"
)

func init() {
	logger.Init(&logger.Config{
		LogFilePath:   "char_count.log",
		Level:         logger.LevelInfo,
		EnableConsole: false,
	})
}

func main() {
	defer logger.Close()

	folder := flag.String("folder", "", "Folder with .docx and .pdf files to count")
	noReport := flag.Bool("no-report", false, "Print totals only, do not write the CSV report")
	flag.Parse()

	if *folder == "" {
		fmt.Fprintln(os.Stderr, "Usage: char_count -folder <path> [-no-report]")
		os.Exit(2)
	}

	fc, err := cost.CountFolder(*folder)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Count failed: %v\n", err)
		os.Exit(2)
	}

	failures := 0
	for _, f := range fc.Files {
		if f.Err != "" {
			failures++
			fmt.Printf("  %-50s ERROR: %s\n", f.RelPath, f.Err)
			continue
		}
		fmt.Printf("  %-50s %10d chars %4d units (%s)\n", f.RelPath, f.CharCount, f.Units, f.Method)
	}

	fmt.Printf("\nTotal: %d files, %d characters, %d units of %d chars\n",
		fc.TotalFiles, fc.TotalChars, fc.TotalUnits, cost.CharThreshold)

	if !*noReport {
		path, err := fc.WriteReport()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to write report: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("Report written to %s\n", path)
	}

	if failures > 0 {
		os.Exit(1)
	}
}

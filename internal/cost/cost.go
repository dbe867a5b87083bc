// Package cost counts billable characters in documents and aggregates
// them into per-folder reports. Character totals are expressed both raw
// and as 50k-character accounting units, the granularity translation
// budgets are tracked in.
package cost

import (
	"encoding/csv"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"docx-translator/internal/docx"
	"docx-translator/internal/logger"
	"docx-translator/internal/pdfinfo"
	"docx-translator/internal/types"
)

// CharThreshold is the number of characters that makes up one accounting
// unit ("document") in usage reports.
const CharThreshold = 50000

// FileCount is the character count of a single file.
type FileCount struct {
	RelPath   string
	CharCount int
	Units     int    // accounting units, ceil(CharCount / CharThreshold)
	Method    string // docx or pdf
	Err       string // non-empty when counting failed
}

// FolderCount aggregates a folder scan.
type FolderCount struct {
	Folder     string
	Files      []FileCount
	TotalFiles int
	TotalChars int
	TotalUnits int
}

// units converts a character count to accounting units, rounding up.
func units(chars int) int {
	if chars <= 0 {
		return 0
	}
	return (chars-1)/CharThreshold + 1
}

// CountDocx counts the characters of every text block in a .docx file.
func CountDocx(path string) (int, error) {
	doc, err := docx.Open(path)
	if err != nil {
		return 0, err
	}
	total := 0
	for _, text := range doc.BlockTexts() {
		total += len([]rune(text))
	}
	return total, nil
}

// CountPDF counts the characters of a PDF's extractable text.
func CountPDF(path string) (int, error) {
	pages, err := pdfinfo.PageTexts(path)
	if err != nil {
		return 0, err
	}
	total := 0
	for _, text := range pages {
		total += len([]rune(text))
	}
	return total, nil
}

// countable reports whether a file participates in a folder count.
// Office lock files (~$ prefix) are skipped.
func countable(name string) bool {
	if strings.HasPrefix(name, "~$") {
		return false
	}
	switch strings.ToLower(filepath.Ext(name)) {
	case ".docx", ".pdf":
		return true
	}
	return false
}

// CountFolder walks a folder recursively and counts every .docx and .pdf
// in it. A file that fails to count is recorded with its error rather
// than aborting the walk.
func CountFolder(folder string) (*FolderCount, error) {
	fi, err := os.Stat(folder)
	if err != nil || !fi.IsDir() {
		return nil, types.NewAppErrorWithDetails(types.ErrInvalidInput,
			"not a directory", folder, err)
	}

	result := &FolderCount{Folder: folder}

	err = filepath.WalkDir(folder, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !countable(d.Name()) {
			return nil
		}

		rel, relErr := filepath.Rel(folder, path)
		if relErr != nil {
			rel = path
		}

		fc := FileCount{RelPath: rel}
		var chars int
		var countErr error
		if strings.EqualFold(filepath.Ext(path), ".pdf") {
			fc.Method = "pdf"
			chars, countErr = CountPDF(path)
		} else {
			fc.Method = "docx"
			chars, countErr = CountDocx(path)
		}
		if countErr != nil {
			fc.Err = countErr.Error()
			logger.Warn("character count failed",
				logger.String("file", rel),
				logger.Err(countErr))
		} else {
			fc.CharCount = chars
			fc.Units = units(chars)
		}

		result.Files = append(result.Files, fc)
		result.TotalFiles++
		result.TotalChars += fc.CharCount
		result.TotalUnits += fc.Units
		return nil
	})
	if err != nil {
		return nil, types.NewAppErrorWithDetails(types.ErrDocumentRead,
			"folder walk failed", folder, err)
	}

	sort.Slice(result.Files, func(i, j int) bool {
		return result.Files[i].RelPath < result.Files[j].RelPath
	})

	logger.Info("folder counted",
		logger.String("folder", folder),
		logger.Int("files", result.TotalFiles),
		logger.Int("chars", result.TotalChars),
		logger.Int("units", result.TotalUnits))

	return result, nil
}

// WriteReport writes the count as a CSV report into the counted folder.
// The file name carries the date and the unit total, e.g. 31.08.2026_7.csv,
// and the returned path points at it.
func (fc *FolderCount) WriteReport() (string, error) {
	name := fmt.Sprintf("%s_%d.csv", time.Now().Format("02.01.2006"), fc.TotalUnits)
	path := filepath.Join(fc.Folder, name)

	f, err := os.Create(path)
	if err != nil {
		return "", types.NewAppErrorWithDetails(types.ErrDocumentWrite,
			"failed to create report", path, err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	rows := [][]string{
		{"path", "characters", "units", "method", "error"},
	}
	for _, file := range fc.Files {
		rows = append(rows, []string{
			file.RelPath,
			strconv.Itoa(file.CharCount),
			strconv.Itoa(file.Units),
			file.Method,
			file.Err,
		})
	}
	rows = append(rows,
		[]string{},
		[]string{"total files", strconv.Itoa(fc.TotalFiles)},
		[]string{"total characters", strconv.Itoa(fc.TotalChars)},
		[]string{"total units", strconv.Itoa(fc.TotalUnits)},
	)
	if err := w.WriteAll(rows); err != nil {
		return "", types.NewAppErrorWithDetails(types.ErrDocumentWrite,
			"failed to write report", path, err)
	}
	return path, nil
}

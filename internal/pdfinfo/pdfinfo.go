// Package pdfinfo provides read-only PDF inspection: structural validation,
// page counting, and plain text extraction. PDF output is not produced
// anywhere in the tool; translated PDFs are only scanned and verified.
package pdfinfo

import (
	"os"
	"path/filepath"
	"strings"
	"unicode"

	"github.com/ledongthuc/pdf"
	"github.com/pdfcpu/pdfcpu/pkg/api"

	"docx-translator/internal/logger"
	"docx-translator/internal/types"
)

// Info describes a PDF file.
type Info struct {
	FilePath  string
	FileName  string
	PageCount int
	FileSize  int64
	HasText   bool
}

// Inspect validates a PDF structurally and returns its basic properties.
func Inspect(path string) (*Info, error) {
	fi, err := os.Stat(path)
	if err != nil {
		return nil, types.NewAppErrorWithDetails(types.ErrDocumentRead,
			"failed to access PDF", path, err)
	}
	if fi.IsDir() {
		return nil, types.NewAppErrorWithDetails(types.ErrDocumentRead,
			"path is a directory, not a PDF", path, nil)
	}

	if err := api.ValidateFile(path, nil); err != nil {
		return nil, types.NewAppErrorWithDetails(types.ErrDocumentRead,
			"PDF failed structural validation", path, err)
	}

	f, r, err := pdf.Open(path)
	if err != nil {
		return nil, types.NewAppErrorWithDetails(types.ErrDocumentRead,
			"failed to open PDF", path, err)
	}
	defer f.Close()

	info := &Info{
		FilePath:  path,
		FileName:  filepath.Base(path),
		PageCount: r.NumPage(),
		FileSize:  fi.Size(),
	}

	// Probe the leading pages for extractable text; scanned PDFs carry
	// images only and yield nothing to scan or count.
	probe := 3
	if r.NumPage() < probe {
		probe = r.NumPage()
	}
	nonSpace := 0
	for pageNum := 1; pageNum <= probe && nonSpace <= 50; pageNum++ {
		page := r.Page(pageNum)
		if page.V.IsNull() {
			continue
		}
		content, err := page.GetPlainText(nil)
		if err != nil {
			continue
		}
		for _, c := range content {
			if !unicode.IsSpace(c) {
				nonSpace++
			}
		}
	}
	info.HasText = nonSpace > 50

	logger.Debug("PDF inspected",
		logger.String("path", path),
		logger.Int("pages", info.PageCount),
		logger.Bool("has_text", info.HasText))

	return info, nil
}

// PageTexts extracts the plain text of every page, one string per page.
// Pages that fail extraction yield an empty string rather than aborting
// the whole document.
func PageTexts(path string) ([]string, error) {
	f, r, err := pdf.Open(path)
	if err != nil {
		return nil, types.NewAppErrorWithDetails(types.ErrDocumentRead,
			"failed to open PDF", path, err)
	}
	defer f.Close()

	texts := make([]string, 0, r.NumPage())
	for pageNum := 1; pageNum <= r.NumPage(); pageNum++ {
		page := r.Page(pageNum)
		if page.V.IsNull() {
			texts = append(texts, "")
			continue
		}
		content, err := page.GetPlainText(nil)
		if err != nil {
			logger.Warn("page text extraction failed",
				logger.String("path", path),
				logger.Int("page", pageNum),
				logger.Err(err))
			texts = append(texts, "")
			continue
		}
		texts = append(texts, content)
	}
	return texts, nil
}

// Text extracts the whole document's plain text with pages joined by
// blank lines.
func Text(path string) (string, error) {
	pages, err := PageTexts(path)
	if err != nil {
		return "", err
	}
	return strings.Join(pages, "\n\n"), nil
}

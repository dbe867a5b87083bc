// Package docx reads and patches WordprocessingML (.docx) documents.
//
// A .docx file is a zip archive; the parts that carry visible text are
// word/document.xml plus the word/headerN.xml and word/footerN.xml parts.
// The package works directly on the serialized part XML rather than a DOM:
// paragraphs are located by tag scanning, their plain text is assembled
// from <w:t> runs, and patches are written back either by rebuilding a
// paragraph as a single run (structured) or by in-place substring
// replacement (raw).
package docx

import (
	"archive/zip"
	"bytes"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"docx-translator/internal/logger"
	"docx-translator/internal/types"
)

const documentPart = "word/document.xml"

// Block is one text-bearing paragraph in document traversal order.
type Block struct {
	Part     string // zip part name owning the paragraph
	Location string // human-readable position, e.g. body/paragraph[3]
	Text     string // plain text assembled from the paragraph's runs

	start, end int // byte span of <w:p>...</w:p> within the part XML
}

// Document is an opened .docx archive with its text blocks extracted.
type Document struct {
	path      string
	partOrder []string          // zip entry order, preserved on save
	parts     map[string][]byte // raw bytes per entry
	modified  map[string]bool
	blocks    []Block
}

// Open reads a .docx file and extracts its text blocks in the fixed
// traversal order: body paragraphs, then tables (rows top-to-bottom, cells
// left-to-right, cell paragraphs top-to-bottom), then header parts, then
// footer parts. Both documents of a pair must be walked with this same
// order for positional correspondence to hold.
func Open(path string) (*Document, error) {
	r, err := zip.OpenReader(path)
	if err != nil {
		return nil, types.NewAppErrorWithDetails(types.ErrDocumentRead,
			"failed to open document", path, err)
	}
	defer r.Close()

	d := &Document{
		path:     path,
		parts:    make(map[string][]byte),
		modified: make(map[string]bool),
	}

	for _, f := range r.File {
		rc, err := f.Open()
		if err != nil {
			return nil, types.NewAppErrorWithDetails(types.ErrDocumentRead,
				"failed to read archive entry", f.Name, err)
		}
		data, err := io.ReadAll(rc)
		rc.Close()
		if err != nil {
			return nil, types.NewAppErrorWithDetails(types.ErrDocumentRead,
				"failed to read archive entry", f.Name, err)
		}
		d.partOrder = append(d.partOrder, f.Name)
		d.parts[f.Name] = data
	}

	if _, ok := d.parts[documentPart]; !ok {
		return nil, types.NewAppErrorWithDetails(types.ErrDocumentRead,
			"not a WordprocessingML document", path, nil)
	}

	d.extractBlocks()

	logger.Debug("document opened",
		logger.String("path", path),
		logger.Int("parts", len(d.partOrder)),
		logger.Int("blocks", len(d.blocks)))

	return d, nil
}

// Path returns the file the document was opened from.
func (d *Document) Path() string { return d.path }

// Blocks returns the document's text blocks in traversal order.
func (d *Document) Blocks() []Block { return d.blocks }

// BlockTexts returns just the plain text of every block, in traversal order.
func (d *Document) BlockTexts() []string {
	texts := make([]string, len(d.blocks))
	for i, b := range d.blocks {
		texts[i] = b.Text
	}
	return texts
}

// textParts returns the text-bearing part names in traversal order:
// the main document, then headers, then footers, each group numerically
// sorted so repeated walks of an unchanged file are byte-identical.
func (d *Document) textParts() []string {
	var headers, footers []string
	for _, name := range d.partOrder {
		switch {
		case strings.HasPrefix(name, "word/header") && strings.HasSuffix(name, ".xml"):
			headers = append(headers, name)
		case strings.HasPrefix(name, "word/footer") && strings.HasSuffix(name, ".xml"):
			footers = append(footers, name)
		}
	}
	sort.Strings(headers)
	sort.Strings(footers)

	parts := []string{documentPart}
	parts = append(parts, headers...)
	parts = append(parts, footers...)
	return parts
}

func (d *Document) extractBlocks() {
	d.blocks = nil
	for _, part := range d.textParts() {
		xml := string(d.parts[part])
		d.blocks = append(d.blocks, walkPart(part, xml)...)
	}
}

// walkPart parses one part's XML into blocks: paragraphs outside tables
// first, then tables with their rows, cells, and cell paragraphs. Nested
// tables are flattened into the owning outer cell in document order.
func walkPart(part, xml string) []Block {
	type cell struct{ paras []Block }
	type row struct{ cells []cell }
	type table struct{ rows []row }

	var body []Block
	var tables []table
	tblDepth := 0

	label := partLabel(part)

	pos := 0
	for {
		lt := strings.Index(xml[pos:], "<")
		if lt == -1 {
			break
		}
		tagStart := pos + lt
		tagEnd := strings.Index(xml[tagStart:], ">")
		if tagEnd == -1 {
			break
		}
		tagEnd += tagStart // index of '>'
		tag := xml[tagStart : tagEnd+1]

		switch {
		case tagMatches(tag, "<w:tbl"):
			tblDepth++
			if tblDepth == 1 {
				tables = append(tables, table{})
			}
			pos = tagEnd + 1

		case tag == "</w:tbl>":
			if tblDepth > 0 {
				tblDepth--
			}
			pos = tagEnd + 1

		case tagMatches(tag, "<w:tr") && tblDepth == 1:
			t := &tables[len(tables)-1]
			t.rows = append(t.rows, row{})
			pos = tagEnd + 1

		case tagMatches(tag, "<w:tc") && tblDepth == 1:
			t := &tables[len(tables)-1]
			if len(t.rows) > 0 {
				r := &t.rows[len(t.rows)-1]
				r.cells = append(r.cells, cell{})
			}
			pos = tagEnd + 1

		case tagMatches(tag, "<w:p"):
			var parEnd int
			if strings.HasSuffix(tag, "/>") {
				parEnd = tagEnd + 1
			} else {
				close := strings.Index(xml[tagEnd:], "</w:p>")
				if close == -1 {
					pos = tagEnd + 1
					continue
				}
				parEnd = tagEnd + close + len("</w:p>")
			}

			b := Block{
				Part:  part,
				Text:  paragraphText(xml[tagStart:parEnd]),
				start: tagStart,
				end:   parEnd,
			}

			if tblDepth == 0 {
				b.Location = fmt.Sprintf("%s/paragraph[%d]", label, len(body))
				body = append(body, b)
			} else if len(tables) > 0 {
				t := &tables[len(tables)-1]
				if len(t.rows) > 0 {
					r := &t.rows[len(t.rows)-1]
					if len(r.cells) > 0 {
						c := &r.cells[len(r.cells)-1]
						b.Location = fmt.Sprintf("%s/table[%d]/row[%d]/cell[%d]/paragraph[%d]",
							label, len(tables)-1, len(t.rows)-1, len(r.cells)-1, len(c.paras))
						c.paras = append(c.paras, b)
					}
				}
			}
			pos = parEnd

		default:
			pos = tagEnd + 1
		}
	}

	blocks := body
	for _, t := range tables {
		for _, r := range t.rows {
			for _, c := range r.cells {
				blocks = append(blocks, c.paras...)
			}
		}
	}
	return blocks
}

func partLabel(part string) string {
	name := strings.TrimPrefix(part, "word/")
	return strings.TrimSuffix(name, ".xml")
}

// tagMatches reports whether tag is the named element, not a longer name
// sharing the prefix (<w:p must not match <w:pPr).
func tagMatches(tag, prefix string) bool {
	if !strings.HasPrefix(tag, prefix) {
		return false
	}
	rest := tag[len(prefix):]
	return len(rest) > 0 && (rest[0] == '>' || rest[0] == ' ' || rest[0] == '/')
}

// paragraphText assembles the plain text of one <w:p> element: the contents
// of its <w:t> runs with tabs and breaks mapped to \t and \n.
func paragraphText(par string) string {
	var sb strings.Builder
	pos := 0
	for {
		lt := strings.Index(par[pos:], "<")
		if lt == -1 {
			break
		}
		tagStart := pos + lt
		tagEnd := strings.Index(par[tagStart:], ">")
		if tagEnd == -1 {
			break
		}
		tagEnd += tagStart
		tag := par[tagStart : tagEnd+1]

		switch {
		case tagMatches(tag, "<w:t") && !strings.HasSuffix(tag, "/>"):
			close := strings.Index(par[tagEnd:], "</w:t>")
			if close == -1 {
				pos = tagEnd + 1
				continue
			}
			sb.WriteString(unescapeXML(par[tagEnd+1 : tagEnd+close]))
			pos = tagEnd + close + len("</w:t>")
		case tagMatches(tag, "<w:tab"):
			sb.WriteString("\t")
			pos = tagEnd + 1
		case tagMatches(tag, "<w:br"):
			sb.WriteString("\n")
			pos = tagEnd + 1
		default:
			pos = tagEnd + 1
		}
	}
	return sb.String()
}

// Save writes the document to outPath, rebuilding the zip with modified
// parts and copying every untouched part verbatim.
func (d *Document) Save(outPath string) error {
	var buf bytes.Buffer
	w := zip.NewWriter(&buf)

	for _, name := range d.partOrder {
		fw, err := w.Create(name)
		if err != nil {
			w.Close()
			return types.NewAppErrorWithDetails(types.ErrDocumentWrite,
				"failed to create archive entry", name, err)
		}
		if _, err := fw.Write(d.parts[name]); err != nil {
			w.Close()
			return types.NewAppErrorWithDetails(types.ErrDocumentWrite,
				"failed to write archive entry", name, err)
		}
	}

	if err := w.Close(); err != nil {
		return types.NewAppError(types.ErrDocumentWrite, "failed to finalize archive", err)
	}

	if err := os.WriteFile(outPath, buf.Bytes(), 0644); err != nil {
		return types.NewAppErrorWithDetails(types.ErrDocumentWrite,
			"failed to write document", outPath, err)
	}

	logger.Debug("document saved", logger.String("path", outPath))
	return nil
}

package docx

import (
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"golang.org/x/text/encoding/ianaindex"
	"golang.org/x/text/encoding/unicode"

	"docx-translator/internal/logger"
	"docx-translator/internal/types"
)

// Replacement is one substring substitution inside a block, in the block's
// plain-text terms. Raw patching locates Old in the serialized XML and
// substitutes New in place, leaving run structure intact.
type Replacement struct {
	BlockIndex int
	Old        string
	New        string
}

// SetBlockText rewrites block i as a single run carrying text. Paragraph
// properties and the first run's properties are preserved; all other run
// structure in the paragraph is discarded.
func (d *Document) SetBlockText(i int, text string) error {
	if i < 0 || i >= len(d.blocks) {
		return types.NewAppErrorWithDetails(types.ErrInternal,
			"block index out of range", fmt.Sprintf("index %d of %d", i, len(d.blocks)), nil)
	}
	b := d.blocks[i]
	xml := string(d.parts[b.Part])
	par := xml[b.start:b.end]

	rebuilt := rebuildParagraph(par, text)
	d.parts[b.Part] = []byte(xml[:b.start] + rebuilt + xml[b.end:])
	d.modified[b.Part] = true

	// Spans after the edited paragraph shift by the length delta.
	delta := len(rebuilt) - (b.end - b.start)
	d.blocks[i].Text = text
	d.blocks[i].end = b.start + len(rebuilt)
	for j := range d.blocks {
		if d.blocks[j].Part == b.Part && d.blocks[j].start > b.start {
			d.blocks[j].start += delta
			d.blocks[j].end += delta
		}
	}
	return nil
}

var (
	pPrRe = regexp.MustCompile(`(?s)<w:pPr[ >].*?</w:pPr>|<w:pPr/>`)
	rPrRe = regexp.MustCompile(`(?s)<w:rPr[ >].*?</w:rPr>|<w:rPr/>`)
)

// rebuildParagraph collapses a <w:p> element to a single run holding text.
// The opening tag, the paragraph properties, and the first run's properties
// survive the rewrite.
func rebuildParagraph(par, text string) string {
	openEnd := strings.Index(par, ">")
	open := par[:openEnd+1]
	if strings.HasSuffix(open, "/>") {
		open = strings.TrimSuffix(open, "/>") + ">"
	}

	pPr := pPrRe.FindString(par)
	// The paragraph mark's own run properties live inside w:pPr, so the
	// first run's properties are searched after it.
	rest := par
	if loc := pPrRe.FindStringIndex(par); loc != nil {
		rest = par[loc[1]:]
	}
	rPr := rPrRe.FindString(rest)

	if text == "" {
		return open + pPr + "</w:p>"
	}
	return open + pPr +
		"<w:r>" + rPr +
		`<w:t xml:space="preserve">` + escapeXML(text) + "</w:t>" +
		"</w:r></w:p>"
}

// ApplyRaw performs the raw patch strategy: each replacement's old text is
// located within its block's serialized paragraph and substituted in place,
// then a per-block cursor advances past the substitution so a later identical
// old text matches the next occurrence rather than the same one. The return
// value is the number of replacements that could not be located, which
// happens when a placeholder is split across runs.
func (d *Document) ApplyRaw(repls []Replacement) int {
	sort.SliceStable(repls, func(a, b int) bool {
		return repls[a].BlockIndex < repls[b].BlockIndex
	})

	cursors := make(map[int]int) // block index -> offset past the last edit
	missed := 0

	for _, r := range repls {
		if r.BlockIndex < 0 || r.BlockIndex >= len(d.blocks) {
			missed++
			continue
		}
		b := d.blocks[r.BlockIndex]
		xml := string(d.parts[b.Part])
		from := b.start + cursors[r.BlockIndex]

		old := escapeXML(r.Old)
		idx := strings.Index(xml[from:b.end], old)
		if idx == -1 {
			logger.Warn("raw patch target not found, likely split across runs",
				logger.String("part", b.Part),
				logger.String("location", b.Location),
				logger.String("text", r.Old))
			missed++
			continue
		}
		idx += from

		repl := escapeXML(r.New)
		d.parts[b.Part] = []byte(xml[:idx] + repl + xml[idx+len(old):])
		d.modified[b.Part] = true

		delta := len(repl) - len(old)
		cursors[r.BlockIndex] = idx + len(repl) - b.start
		d.blocks[r.BlockIndex].end += delta
		for j := range d.blocks {
			if d.blocks[j].Part == b.Part && d.blocks[j].start > b.start {
				d.blocks[j].start += delta
				d.blocks[j].end += delta
			}
		}
	}

	// Re-derive block texts from the edited XML.
	d.extractBlocks()
	return missed
}

// VerifyEncoding checks that every text-bearing part declares UTF-8 (or no
// encoding at all, which the XML spec defaults to UTF-8). Raw patching
// splices literal bytes and is only sound when the part encoding matches
// the replacement encoding.
func (d *Document) VerifyEncoding() error {
	for _, part := range d.textParts() {
		name := declaredEncoding(string(d.parts[part]))
		if name == "" {
			continue
		}
		enc, err := ianaindex.IANA.Encoding(name)
		if err != nil || enc != unicode.UTF8 {
			return types.NewAppErrorWithDetails(types.ErrDocumentRead,
				"unsupported part encoding", fmt.Sprintf("%s declares %q", part, name), nil)
		}
	}
	return nil
}

var encodingRe = regexp.MustCompile(`encoding="([^"]+)"`)

func declaredEncoding(xml string) string {
	declEnd := strings.Index(xml, "?>")
	if !strings.HasPrefix(xml, "<?xml") || declEnd == -1 {
		return ""
	}
	m := encodingRe.FindStringSubmatch(xml[:declEnd])
	if m == nil {
		return ""
	}
	return m[1]
}

func escapeXML(s string) string {
	var sb strings.Builder
	for _, r := range s {
		switch r {
		case '&':
			sb.WriteString("&amp;")
		case '<':
			sb.WriteString("&lt;")
		case '>':
			sb.WriteString("&gt;")
		case '"':
			sb.WriteString("&quot;")
		case '\'':
			sb.WriteString("&apos;")
		default:
			sb.WriteRune(r)
		}
	}
	return sb.String()
}

func unescapeXML(s string) string {
	if !strings.Contains(s, "&") {
		return s
	}
	var sb strings.Builder
	for i := 0; i < len(s); {
		if s[i] != '&' {
			sb.WriteByte(s[i])
			i++
			continue
		}
		semi := strings.IndexByte(s[i:], ';')
		if semi == -1 {
			sb.WriteByte(s[i])
			i++
			continue
		}
		ent := s[i+1 : i+semi]
		switch {
		case ent == "amp":
			sb.WriteString("&")
		case ent == "lt":
			sb.WriteString("<")
		case ent == "gt":
			sb.WriteString(">")
		case ent == "quot":
			sb.WriteString(`"`)
		case ent == "apos":
			sb.WriteString("'")
		case strings.HasPrefix(ent, "#"):
			code := ent[1:]
			base := 10
			if strings.HasPrefix(code, "x") || strings.HasPrefix(code, "X") {
				code = code[1:]
				base = 16
			}
			n, err := strconv.ParseInt(code, base, 32)
			if err != nil {
				sb.WriteString(s[i : i+semi+1])
			} else {
				sb.WriteRune(rune(n))
			}
		default:
			sb.WriteString(s[i : i+semi+1])
		}
		i += semi + 1
	}
	return sb.String()
}

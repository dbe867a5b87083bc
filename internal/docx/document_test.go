package docx

import (
	"archive/zip"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const contentTypesXML = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>` +
	`<Types xmlns="http://schemas.openxmlformats.org/package/2006/content-types">` +
	`<Default Extension="xml" ContentType="application/xml"/></Types>`

func para(text string) string {
	return `<w:p><w:r><w:t xml:space="preserve">` + escapeXML(text) + `</w:t></w:r></w:p>`
}

func wrapBody(inner string) string {
	return `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>` +
		`<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main">` +
		`<w:body>` + inner + `</w:body></w:document>`
}

// writeDocx builds a minimal .docx in dir from named parts.
func writeDocx(t *testing.T, dir, name string, parts map[string]string) string {
	t.Helper()

	path := filepath.Join(dir, name)
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()

	w := zip.NewWriter(f)
	write := func(entry, content string) {
		fw, err := w.Create(entry)
		require.NoError(t, err)
		_, err = fw.Write([]byte(content))
		require.NoError(t, err)
	}
	write("[Content_Types].xml", contentTypesXML)
	for entry, content := range parts {
		write(entry, content)
	}
	require.NoError(t, w.Close())
	return path
}

func simpleDocx(t *testing.T, dir, name string, paragraphs ...string) string {
	t.Helper()
	body := ""
	for _, p := range paragraphs {
		body += para(p)
	}
	return writeDocx(t, dir, name, map[string]string{
		"word/document.xml": wrapBody(body),
	})
}

func TestOpenBodyParagraphs(t *testing.T) {
	dir := t.TempDir()
	path := simpleDocx(t, dir, "a.docx", "first", "second <<Eqn1.eps>>", "third")

	doc, err := Open(path)
	require.NoError(t, err)

	texts := doc.BlockTexts()
	require.Len(t, texts, 3)
	assert.Equal(t, "first", texts[0])
	assert.Equal(t, "second <<Eqn1.eps>>", texts[1])
	assert.Equal(t, "third", texts[2])
	assert.Equal(t, "document/paragraph[1]", doc.Blocks()[1].Location)
}

func TestOpenRejectsNonDocx(t *testing.T) {
	dir := t.TempDir()

	_, err := Open(filepath.Join(dir, "missing.docx"))
	assert.Error(t, err)

	// A zip with no word/document.xml is not a document.
	path := writeDocx(t, dir, "empty.docx", nil)
	_, err = Open(path)
	assert.Error(t, err)
}

func TestMultiRunParagraphText(t *testing.T) {
	dir := t.TempDir()
	body := `<w:p>` +
		`<w:r><w:rPr><w:b/></w:rPr><w:t>bold &amp; </w:t></w:r>` +
		`<w:r><w:t>plain</w:t></w:r>` +
		`<w:r><w:tab/><w:t>tabbed</w:t><w:br/></w:r>` +
		`</w:p>`
	path := writeDocx(t, dir, "runs.docx", map[string]string{
		"word/document.xml": wrapBody(body),
	})

	doc, err := Open(path)
	require.NoError(t, err)
	require.Len(t, doc.Blocks(), 1)
	assert.Equal(t, "bold & plain\ttabbed\n", doc.Blocks()[0].Text)
}

func TestTraversalOrderTablesAfterBody(t *testing.T) {
	dir := t.TempDir()
	// In the XML the table sits between the two body paragraphs; the
	// traversal still yields body paragraphs first, then table cells.
	body := para("before") +
		`<w:tbl>` +
		`<w:tr><w:tc>` + para("r0c0") + `</w:tc><w:tc>` + para("r0c1") + `</w:tc></w:tr>` +
		`<w:tr><w:tc>` + para("r1c0a") + para("r1c0b") + `</w:tc><w:tc>` + para("r1c1") + `</w:tc></w:tr>` +
		`</w:tbl>` +
		para("after")
	path := writeDocx(t, dir, "tbl.docx", map[string]string{
		"word/document.xml": wrapBody(body),
	})

	doc, err := Open(path)
	require.NoError(t, err)

	want := []string{"before", "after", "r0c0", "r0c1", "r1c0a", "r1c0b", "r1c1"}
	assert.Equal(t, want, doc.BlockTexts())
	assert.Equal(t, "document/table[0]/row[1]/cell[0]/paragraph[1]", doc.Blocks()[5].Location)
}

func TestNestedTableFlattensIntoCell(t *testing.T) {
	dir := t.TempDir()
	inner := `<w:tbl><w:tr><w:tc>` + para("inner") + `</w:tc></w:tr></w:tbl>`
	body := `<w:tbl><w:tr><w:tc>` + para("outer") + inner + para("tail") + `</w:tc></w:tr></w:tbl>`
	path := writeDocx(t, dir, "nested.docx", map[string]string{
		"word/document.xml": wrapBody(body),
	})

	doc, err := Open(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"outer", "inner", "tail"}, doc.BlockTexts())
}

func TestHeadersAndFootersFollowBody(t *testing.T) {
	dir := t.TempDir()
	hdr := `<w:hdr xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main">` +
		para("header text") + `</w:hdr>`
	ftr := `<w:ftr xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main">` +
		para("footer text") + `</w:ftr>`
	path := writeDocx(t, dir, "hf.docx", map[string]string{
		"word/footer1.xml":  ftr,
		"word/document.xml": wrapBody(para("body")),
		"word/header1.xml":  hdr,
	})

	doc, err := Open(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"body", "header text", "footer text"}, doc.BlockTexts())
	assert.Equal(t, "header1/paragraph[0]", doc.Blocks()[1].Location)
	assert.Equal(t, "footer1/paragraph[0]", doc.Blocks()[2].Location)
}

func TestEmptyAndSelfClosingParagraphs(t *testing.T) {
	dir := t.TempDir()
	body := `<w:p/>` + para("only") + `<w:p><w:pPr><w:jc w:val="center"/></w:pPr></w:p>`
	path := writeDocx(t, dir, "empty.docx", map[string]string{
		"word/document.xml": wrapBody(body),
	})

	doc, err := Open(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"", "only", ""}, doc.BlockTexts())
}

func TestSaveRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := simpleDocx(t, dir, "in.docx", "alpha", "beta")

	doc, err := Open(path)
	require.NoError(t, err)

	out := filepath.Join(dir, "out.docx")
	require.NoError(t, doc.Save(out))

	reopened, err := Open(out)
	require.NoError(t, err)
	assert.Equal(t, []string{"alpha", "beta"}, reopened.BlockTexts())
}

package document

import (
	"archive/zip"
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func buildDOCX(t *testing.T, documentXML string) []byte {
	t.Helper()

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)

	w, err := zw.Create("word/document.xml")
	require.NoError(t, err)
	_, err = w.Write([]byte(documentXML))
	require.NoError(t, err)

	require.NoError(t, zw.Close())
	return buf.Bytes()
}

func TestExtractTextPlain(t *testing.T) {
	out, err := ExtractText("note.txt", []byte("chest pain for 2 days"))
	require.NoError(t, err)
	assert.Equal(t, "chest pain for 2 days", out)
}

func TestExtractTextUnsupportedExtension(t *testing.T) {
	for _, name := range []string{"scan.png", "note.rtf", "noextension"} {
		_, err := ExtractText(name, []byte("data"))
		assert.ErrorIs(t, err, ErrUnsupportedFormat, "file %s", name)
	}
}

func TestExtractTextExtensionCaseInsensitive(t *testing.T) {
	out, err := ExtractText("NOTE.TXT", []byte("hello"))
	require.NoError(t, err)
	assert.Equal(t, "hello", out)
}

func TestExtractDOCX(t *testing.T) {
	const docXML = `<?xml version="1.0" encoding="UTF-8"?>
<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main">
  <w:body>
    <w:p><w:r><w:t>Chief Complaint: </w:t></w:r><w:r><w:t>chest pain</w:t></w:r></w:p>
    <w:p><w:r><w:t>BP: 150/90</w:t></w:r></w:p>
  </w:body>
</w:document>`

	out, err := ExtractText("visit.docx", buildDOCX(t, docXML))
	require.NoError(t, err)

	// Runs in one paragraph join without separators; paragraphs break lines.
	assert.Contains(t, out, "Chief Complaint: chest pain\n")
	assert.Contains(t, out, "BP: 150/90\n")
}

func TestExtractDOCXEmptyBody(t *testing.T) {
	const docXML = `<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main"><w:body></w:body></w:document>`

	_, err := ExtractText("empty.docx", buildDOCX(t, docXML))
	assert.ErrorIs(t, err, ErrEmptyDocument)
}

func TestExtractDOCXMissingDocumentPart(t *testing.T) {
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	w, err := zw.Create("word/styles.xml")
	require.NoError(t, err)
	_, err = w.Write([]byte("<styles/>"))
	require.NoError(t, err)
	require.NoError(t, zw.Close())

	_, err = ExtractText("broken.docx", buf.Bytes())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "word/document.xml")
}

func TestExtractDOCXNotAZip(t *testing.T) {
	_, err := ExtractText("corrupt.docx", []byte("this is not a zip archive"))
	require.Error(t, err)
}

func TestExtractPDFInvalidBytes(t *testing.T) {
	_, err := ExtractText("corrupt.pdf", []byte("not a pdf"))
	require.Error(t, err)
}

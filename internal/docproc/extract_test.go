package docproc

import (
	"archive/zip"
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDetectType(t *testing.T) {
	tests := []struct {
		filename    string
		contentType string
		want        string
	}{
		{"resume.pdf", "", TypePDF},
		{"upload.bin", "application/pdf", TypePDF},
		{"contract.DOCX", "", TypeDocx},
		{"upload.bin", "application/vnd.openxmlformats-officedocument.wordprocessingml.document", TypeDocx},
		{"employees.csv", "", TypeCSV},
		{"notes.txt", "", TypeTxt},
		{"mystery", "application/octet-stream", TypeTxt},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, DetectType(tt.filename, tt.contentType), tt.filename)
	}
}

func TestExtractCSV(t *testing.T) {
	out, err := ExtractText([]byte("name,salary\nAlice,100000\nBob,90000"), TypeCSV)
	require.NoError(t, err)
	assert.Equal(t, "name, salary\nAlice, 100000\nBob, 90000", out)

	_, err = ExtractText([]byte(""), TypeCSV)
	assert.Error(t, err)
}

func TestExtractTxtLatin1Fallback(t *testing.T) {
	out, err := ExtractText([]byte{'r', 0xE9, 's', 'u', 'm', 0xE9}, TypeTxt)
	require.NoError(t, err)
	assert.Equal(t, "résumé", out)
}

func TestExtractDocx(t *testing.T) {
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	w, err := zw.Create("word/document.xml")
	require.NoError(t, err)
	_, err = w.Write([]byte(`<?xml version="1.0"?>` +
		`<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main">` +
		`<w:body>` +
		`<w:p><w:r><w:t>Employment Agreement</w:t></w:r></w:p>` +
		`<w:p><w:r><w:t>Both parties </w:t></w:r><w:r><w:t>agree as follows.</w:t></w:r></w:p>` +
		`</w:body></w:document>`))
	require.NoError(t, err)
	require.NoError(t, zw.Close())

	out, err := ExtractText(buf.Bytes(), TypeDocx)
	require.NoError(t, err)
	assert.Equal(t, "Employment Agreement\n\nBoth parties agree as follows.", out)
}

func TestExtractDocxRejectsGarbage(t *testing.T) {
	_, err := ExtractText([]byte("not a zip archive"), TypeDocx)
	assert.Error(t, err)
}

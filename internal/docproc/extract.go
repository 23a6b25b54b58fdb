// Package docproc turns uploaded files into text chunks ready for embedding.
package docproc

import (
	"encoding/csv"
	"fmt"
	"strings"
	"unicode/utf8"
)

// Document types recognized by the pipeline.
const (
	TypePDF  = "pdf"
	TypeDocx = "docx"
	TypeCSV  = "csv"
	TypeTxt  = "txt"
)

// DetectType classifies a file by extension, falling back to the declared
// content type. Anything unrecognized is treated as plain text.
func DetectType(filename, contentType string) string {
	name := strings.ToLower(filename)
	ct := strings.ToLower(contentType)
	switch {
	case strings.HasSuffix(name, ".pdf") || strings.Contains(ct, "pdf"):
		return TypePDF
	case strings.HasSuffix(name, ".docx") || strings.Contains(ct, "word"):
		return TypeDocx
	case strings.HasSuffix(name, ".csv") || strings.Contains(ct, "csv"):
		return TypeCSV
	default:
		return TypeTxt
	}
}

// ExtractText pulls plain text out of the file bytes according to docType.
func ExtractText(data []byte, docType string) (string, error) {
	switch docType {
	case TypePDF:
		return extractPDF(data)
	case TypeDocx:
		return extractDocx(data)
	case TypeCSV:
		return extractCSV(data)
	default:
		return decodeText(data), nil
	}
}

// extractCSV renders the csv as comma-joined lines, one row per line.
func extractCSV(data []byte) (string, error) {
	reader := csv.NewReader(strings.NewReader(decodeText(data)))
	reader.FieldsPerRecord = -1
	var lines []string
	for {
		record, err := reader.Read()
		if err != nil {
			break
		}
		lines = append(lines, strings.Join(record, ", "))
	}
	if len(lines) == 0 {
		return "", fmt.Errorf("csv has no rows")
	}
	return strings.Join(lines, "\n"), nil
}

// decodeText returns the bytes as a string, stripping bytes that are not
// valid utf-8 rather than failing on legacy encodings.
func decodeText(data []byte) string {
	if utf8.Valid(data) {
		return string(data)
	}
	var b strings.Builder
	b.Grow(len(data))
	for _, c := range data {
		if c < utf8.RuneSelf {
			b.WriteByte(c)
		} else {
			b.WriteRune(rune(c)) // latin-1 view of the byte
		}
	}
	return b.String()
}

package services

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/ledongthuc/pdf"
)

var ErrUnsupportedDocument = errors.New("unsupported document type")

// MaxKnowledgeBytes caps how much extracted text is kept per podcast.
const MaxKnowledgeBytes = 64 << 10

// ExtractKnowledge reads a .pdf or .txt document and returns its cleaned text,
// whitespace-collapsed and truncated to MaxKnowledgeBytes.
func ExtractKnowledge(filename string, r io.Reader) (string, error) {
	var raw string
	var err error
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".pdf":
		raw, err = ExtractTextFromPDF(r)
	case ".txt":
		raw, err = ExtractTextFromTXT(r)
	default:
		return "", fmt.Errorf("%w: %s", ErrUnsupportedDocument, filepath.Ext(filename))
	}
	if err != nil {
		return "", err
	}
	return truncateUTF8(strings.Join(strings.Fields(PreCleanText(raw)), " "), MaxKnowledgeBytes), nil
}

func ExtractTextFromPDF(r io.Reader) (string, error) {
	var buf bytes.Buffer
	if _, err := io.Copy(&buf, r); err != nil {
		return "", fmt.Errorf("read pdf: %w", err)
	}

	reader, err := pdf.NewReader(bytes.NewReader(buf.Bytes()), int64(buf.Len()))
	if err != nil {
		return "", fmt.Errorf("open pdf: %w", err)
	}

	var text strings.Builder
	for i := 1; i <= reader.NumPage(); i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		content, err := page.GetPlainText(nil)
		if err != nil {
			continue
		}
		text.WriteString(content)
		text.WriteByte('\n')
	}
	return text.String(), nil
}

func ExtractTextFromTXT(r io.Reader) (string, error) {
	b, err := io.ReadAll(r)
	if err != nil {
		return "", fmt.Errorf("read txt: %w", err)
	}
	if !utf8.Valid(b) {
		return "", fmt.Errorf("%w: text is not valid UTF-8", ErrUnsupportedDocument)
	}
	return string(b), nil
}

func truncateUTF8(s string, max int) string {
	if len(s) <= max {
		return s
	}
	s = s[:max]
	for !utf8.ValidString(s) {
		s = s[:len(s)-1]
	}
	return s
}

// Package extract turns uploaded files into plain text.
package extract

import (
	"bytes"
	"os"
	"strings"

	"github.com/ledongthuc/pdf"
	"github.com/otiai10/gosseract/v2"

	"github.com/docchat/backend/internal/errs"
)

type Extractor struct{}

func NewExtractor() *Extractor {
	return &Extractor{}
}

// Extract reads the file at path and returns its text. fileType is the
// lowercase extension without the dot.
func (e *Extractor) Extract(path, fileType string) (string, error) {
	switch strings.ToLower(fileType) {
	case "txt", "md":
		return e.extractPlain(path)
	case "pdf":
		return e.extractPDF(path)
	case "png", "jpg", "jpeg", "webp":
		return e.extractImage(path)
	default:
		return "", &errs.UnsupportedTypeError{Type: fileType}
	}
}

func (e *Extractor) extractPlain(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", errs.Wrap(errs.ErrExtraction, err)
	}
	return string(data), nil
}

func (e *Extractor) extractPDF(path string) (string, error) {
	f, r, err := pdf.Open(path)
	if err != nil {
		return "", errs.Wrap(errs.ErrExtraction, err)
	}
	defer f.Close()

	rd, err := r.GetPlainText()
	if err != nil {
		return "", errs.Wrap(errs.ErrExtraction, err)
	}

	var buf bytes.Buffer
	if _, err := buf.ReadFrom(rd); err != nil {
		return "", errs.Wrap(errs.ErrExtraction, err)
	}
	return buf.String(), nil
}

func (e *Extractor) extractImage(path string) (string, error) {
	client := gosseract.NewClient()
	defer client.Close()

	if err := client.SetLanguage("eng"); err != nil {
		return "", errs.Wrap(errs.ErrExtraction, err)
	}
	if err := client.SetImage(path); err != nil {
		return "", errs.Wrap(errs.ErrExtraction, err)
	}

	text, err := client.Text()
	if err != nil {
		return "", errs.Wrap(errs.ErrExtraction, err)
	}
	return text, nil
}

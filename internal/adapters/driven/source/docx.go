package source

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"fmt"
	"io"
	"strings"

	"github.com/custodia-labs/taxonomist/internal/core/domain"
)

// wordDocument is the subset of word/document.xml holding visible text.
type wordDocument struct {
	Body struct {
		Paragraphs []struct {
			Runs []struct {
				Text []string `xml:"t"`
			} `xml:"r"`
		} `xml:"p"`
	} `xml:"body"`
}

// docxText returns the paragraphs of a Word document, one per line.
func docxText(data []byte) (string, error) {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("%w: not a docx archive: %w", domain.ErrInvalidInput, err)
	}

	for _, f := range zr.File {
		if f.Name != "word/document.xml" {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			return "", fmt.Errorf("open document.xml: %w", err)
		}
		content, err := io.ReadAll(rc)
		_ = rc.Close()
		if err != nil {
			return "", fmt.Errorf("read document.xml: %w", err)
		}

		var doc wordDocument
		if err := xml.Unmarshal(content, &doc); err != nil {
			return "", fmt.Errorf("%w: document.xml: %w", domain.ErrInvalidInput, err)
		}

		lines := make([]string, 0, len(doc.Body.Paragraphs))
		for _, p := range doc.Body.Paragraphs {
			var line strings.Builder
			for _, r := range p.Runs {
				for _, t := range r.Text {
					line.WriteString(t)
				}
			}
			lines = append(lines, line.String())
		}
		return strings.TrimSpace(strings.Join(lines, "\n")), nil
	}

	return "", fmt.Errorf("%w: docx has no word/document.xml", domain.ErrInvalidInput)
}

// Package document converts raw files into plain text and splits that text
// into ordered chunk spans under a configurable strategy.
package document

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/google/uuid"

	"github.com/ashita-ai/bunsho/internal/integrity"
	"github.com/ashita-ai/bunsho/internal/model"
)

// Parser converts supported files (.txt, .md, .html, .htm) into plain text
// plus basic metadata. It holds no state and is safe for concurrent use.
type Parser struct{}

// NewParser creates a Parser.
func NewParser() *Parser {
	return &Parser{}
}

// fileTypeFor maps a lowercase extension to its FileType.
func fileTypeFor(ext string) (model.FileType, bool) {
	switch ext {
	case ".txt":
		return model.FileTypeTXT, true
	case ".md", ".markdown":
		return model.FileTypeMarkdown, true
	case ".html", ".htm":
		return model.FileTypeHTML, true
	default:
		return "", false
	}
}

// Parse reads and converts a file, returning its plain-text content and
// metadata. Unknown extensions fail with *UnsupportedFileTypeError before
// the file is read; read or conversion failures fail with *ParsingError.
func (p *Parser) Parse(path string) (string, model.DocumentMetadata, error) {
	ext := strings.ToLower(filepath.Ext(path))
	fileType, ok := fileTypeFor(ext)
	if !ok {
		return "", model.DocumentMetadata{}, &UnsupportedFileTypeError{Ext: ext}
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return "", model.DocumentMetadata{}, &ParsingError{Path: path, Err: err}
	}

	var content string
	pageCount := 1
	switch fileType {
	case model.FileTypeTXT, model.FileTypeMarkdown:
		content = string(raw)
	case model.FileTypeHTML:
		content, err = extractHTMLText(raw)
		if err != nil {
			return "", model.DocumentMetadata{}, &ParsingError{Path: path, Err: err}
		}
		pageCount = 0 // HTML carries no pagination.
	}

	meta := model.DocumentMetadata{
		DocID:       uuid.New(),
		Filename:    filepath.Base(path),
		FileType:    fileType,
		UploadTime:  time.Now().UTC(),
		PageCount:   pageCount,
		ContentHash: integrity.HashBytes(raw),
	}
	return content, meta, nil
}

// extractHTMLText strips markup and returns the visible text of an HTML
// document, one block element per line.
func extractHTMLText(raw []byte) (string, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(raw))
	if err != nil {
		return "", fmt.Errorf("parse html: %w", err)
	}
	doc.Find("script, style, noscript").Remove()

	root := doc.Find("body")
	if root.Length() == 0 {
		root = doc.Selection
	}

	var b strings.Builder
	root.Find("h1, h2, h3, h4, h5, h6, p, li, td, th, pre, blockquote").Each(func(_ int, s *goquery.Selection) {
		text := strings.TrimSpace(s.Text())
		if text == "" {
			return
		}
		b.WriteString(text)
		b.WriteString("\n")
	})

	// Fallback for documents without block structure.
	if b.Len() == 0 {
		return strings.TrimSpace(root.Text()), nil
	}
	return strings.TrimRight(b.String(), "\n"), nil
}

// Package extract provides text extraction from uploaded document formats.
package extract

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// SupportedExtensions lists the file extensions the extractor accepts.
var SupportedExtensions = []string{".txt", ".md", ".pdf", ".docx", ".xlsx"}

// Supported reports whether files with the given extension can be extracted.
func Supported(ext string) bool {
	ext = strings.ToLower(ext)
	for _, s := range SupportedExtensions {
		if ext == s {
			return true
		}
	}
	return false
}

// Extractor extracts plain text from document files.
type Extractor struct{}

// NewExtractor returns a new Extractor.
func NewExtractor() *Extractor {
	return &Extractor{}
}

// Extract reads the file at path and returns its text content.
// Plain text files (.txt, .md) are returned as-is after UTF-8 validation;
// PDF, DOCX, and Excel content is extracted from the binary format.
func (e *Extractor) Extract(path string) (string, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read file: %w", err)
	}
	ext := strings.ToLower(filepath.Ext(path))
	return e.ExtractBytes(content, ext)
}

// ExtractBytes extracts text from content based on the given extension.
// ext should include the leading dot (e.g. ".pdf"). Unknown extensions are
// treated as plain text.
func (e *Extractor) ExtractBytes(content []byte, ext string) (string, error) {
	switch strings.ToLower(ext) {
	case ".pdf":
		return extractPDF(content)
	case ".docx":
		return extractDOCX(content)
	case ".xlsx":
		return extractExcel(content)
	default:
		return extractPlain(content)
	}
}

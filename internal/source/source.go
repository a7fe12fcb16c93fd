// Package source reads document files into the Docs document model so the
// decompiler can turn them into MEBDF Markdown.
package source

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"google.golang.org/api/docs/v1"
)

// Source converts raw file bytes into a Docs document.
type Source interface {
	Load(r io.Reader, filename string) (*docs.Document, error)
}

// SupportedExtensions lists file extensions this service can read.
var SupportedExtensions = map[string]bool{
	".json": true,
	".docx": true,
	".html": true,
	".htm":  true,
	".pdf":  true,
	".txt":  true,
}

// ForFile returns the source for a filename.
func ForFile(filename string) (Source, error) {
	ext := strings.ToLower(filepath.Ext(filename))
	switch ext {
	case ".json":
		return &JSONSource{}, nil
	case ".docx":
		return &DOCXSource{}, nil
	case ".html", ".htm":
		return &HTMLSource{}, nil
	case ".pdf":
		return &PDFSource{}, nil
	case ".txt":
		return &TextSource{}, nil
	default:
		return nil, fmt.Errorf("unsupported file extension: %s", ext)
	}
}

// IsSupportedExtension checks if a file extension is supported.
func IsSupportedExtension(filename string) bool {
	ext := strings.ToLower(filepath.Ext(filename))
	return SupportedExtensions[ext]
}

// baseTitle is the filename without directory or extension.
func baseTitle(filename string) string {
	base := filepath.Base(filename)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

package source

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"google.golang.org/api/docs/v1"
)

// JSONSource reads a saved documents.get response. Unknown fields are
// ignored.
type JSONSource struct{}

func (s *JSONSource) Load(r io.Reader, filename string) (*docs.Document, error) {
	var doc docs.Document
	if err := json.NewDecoder(r).Decode(&doc); err != nil {
		return nil, fmt.Errorf("decode document json: %w", err)
	}
	if doc.Body == nil && len(doc.Tabs) == 0 {
		return nil, errors.New("document json has no body or tabs")
	}
	if doc.Title == "" {
		doc.Title = baseTitle(filename)
	}
	return &doc, nil
}

package source

import (
	"bufio"
	"io"
	"strings"

	"google.golang.org/api/docs/v1"
)

// TextSource handles plain text files. Blank lines separate paragraphs;
// the lines of a paragraph are joined with spaces.
type TextSource struct{}

func (s *TextSource) Load(r io.Reader, filename string) (*docs.Document, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	var b Builder
	var current []string
	flush := func() {
		if len(current) > 0 {
			b.Add(Paragraph{Runs: []Run{{Text: strings.Join(current, " ")}}})
			current = nil
		}
	}

	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			flush()
			continue
		}
		current = append(current, line)
	}
	flush()

	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return b.Document("", baseTitle(filename))
}

package source

import (
	"bytes"
	"fmt"
	"io"
	"maps"
	"math"
	"os"
	"os/exec"
	"slices"
	"strings"

	pdflib "github.com/ledongthuc/pdf"
	"google.golang.org/api/docs/v1"
)

// PDFSource handles PDF files. Text keeps the bold, italic, family and
// weight its font names carry; lines set noticeably larger than the body
// become headings. If the Go reader fails and FallbackPdftotext is set,
// pdftotext supplies unstyled text instead.
type PDFSource struct {
	FallbackPdftotext bool
}

func (s *PDFSource) Load(r io.Reader, filename string) (*docs.Document, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read pdf: %w", err)
	}

	lines, err := pdfLines(data)
	if err != nil && s.FallbackPdftotext {
		var text string
		text, err = extractPdftotext(data)
		if err == nil {
			return (&TextSource{}).Load(strings.NewReader(strings.ReplaceAll(text, "\f", "\n\n")), filename)
		}
	}
	if err != nil {
		return nil, fmt.Errorf("extract pdf text: %w", err)
	}

	var b Builder
	body := bodySize(lines)
	var cur *Paragraph
	var prev *pdfLine
	flush := func() {
		if cur != nil {
			b.Add(*cur)
			cur = nil
		}
	}
	for i := range lines {
		ln := &lines[i]
		style := headingStyle(ln.size, body)
		if cur == nil || prev == nil || ln.page != prev.page || style != cur.NamedStyle || breaksParagraph(prev, ln) {
			flush()
			cur = &Paragraph{NamedStyle: style}
		} else {
			cur.Runs = append(cur.Runs, Run{Text: " "})
		}
		for _, r := range ln.runs {
			cur.Runs = append(cur.Runs, Run{Text: r.text, Style: pdfStyle(r.font)})
		}
		prev = ln
	}
	flush()
	return b.Document("", baseTitle(filename))
}

type pdfLine struct {
	page int
	y    float64
	size float64
	runs []pdfRun
}

type pdfRun struct {
	text, font string
}

// pdfLines groups the positioned glyphs of every page into lines of runs.
func pdfLines(data []byte) (lines []pdfLine, err error) {
	// The reader panics on some malformed files.
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("read pdf: %v", p)
		}
	}()
	reader, err := pdflib.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, err
	}
	for i := 1; i <= reader.NumPage(); i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		var cur *pdfLine
		var lastFont string
		var lastEnd float64
		for _, t := range page.Content().Text {
			if t.S == "" {
				continue
			}
			if cur == nil || math.Abs(t.Y-cur.y) > t.FontSize/2 {
				if cur != nil {
					lines = append(lines, *cur)
				}
				cur = &pdfLine{page: i, y: t.Y, size: t.FontSize}
				lastFont = ""
			} else if gap := t.X - lastEnd; gap > t.FontSize*0.2 && !strings.HasPrefix(t.S, " ") {
				appendText(cur, " ", lastFont)
			}
			cur.size = math.Max(cur.size, t.FontSize)
			appendText(cur, t.S, t.Font)
			lastFont = t.Font
			lastEnd = t.X + t.W
		}
		if cur != nil {
			lines = append(lines, *cur)
		}
	}
	return lines, nil
}

// appendText extends the last run when the font is unchanged.
func appendText(ln *pdfLine, s, font string) {
	if n := len(ln.runs); n > 0 && ln.runs[n-1].font == font {
		ln.runs[n-1].text += s
		return
	}
	ln.runs = append(ln.runs, pdfRun{text: s, font: font})
}

func pdfStyle(font string) *docs.TextStyle {
	face := parseFontName(font)
	ts := &docs.TextStyle{Bold: face.bold, Italic: face.italic}
	if face.family != "" {
		ts.WeightedFontFamily = &docs.WeightedFontFamily{FontFamily: face.family, Weight: int64(face.weight)}
	}
	return ts
}

// bodySize is the most common line size, weighted by text length.
func bodySize(lines []pdfLine) float64 {
	weight := map[float64]int{}
	for _, ln := range lines {
		for _, r := range ln.runs {
			weight[math.Round(ln.size)] += len(r.text)
		}
	}
	best, bestN := 0.0, -1
	for _, size := range slices.Sorted(maps.Keys(weight)) {
		if weight[size] > bestN {
			best, bestN = size, weight[size]
		}
	}
	return best
}

func headingStyle(size, body float64) string {
	if body <= 0 {
		return ""
	}
	switch ratio := size / body; {
	case ratio >= 1.6:
		return "HEADING_1"
	case ratio >= 1.3:
		return "HEADING_2"
	case ratio >= 1.15:
		return "HEADING_3"
	}
	return ""
}

// breaksParagraph reports a vertical gap wider than ordinary line spacing.
func breaksParagraph(prev, ln *pdfLine) bool {
	return prev.y-ln.y > 1.8*math.Max(prev.size, ln.size) || ln.y > prev.y
}

func extractPdftotext(data []byte) (string, error) {
	tmp, err := os.CreateTemp("", "gdocmark-pdf-*.pdf")
	if err != nil {
		return "", fmt.Errorf("create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return "", fmt.Errorf("write temp file: %w", err)
	}
	tmp.Close()

	out, err := exec.Command("pdftotext", "-layout", tmp.Name(), "-").Output()
	if err != nil {
		return "", fmt.Errorf("pdftotext: %w", err)
	}
	return string(out), nil
}

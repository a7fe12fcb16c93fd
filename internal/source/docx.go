package source

import (
	"bytes"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/fumiama/go-docx"
	"google.golang.org/api/docs/v1"
)

// DOCXSource handles .docx files, including Docs' own "Download as Word"
// output. Numbering definitions are not read, so list items are bullets
// unless their paragraph style names a numbered list. Table cells become
// plain paragraphs.
type DOCXSource struct{}

func (s *DOCXSource) Load(r io.Reader, filename string) (*docs.Document, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read docx: %w", err)
	}
	doc, err := docx.Parse(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("parse docx: %w", err)
	}

	var b Builder
	for _, item := range doc.Document.Body.Items {
		switch it := item.(type) {
		case *docx.Paragraph:
			b.Add(docxParagraph(doc, it))
		case *docx.Table:
			docxTable(&b, doc, it)
		}
	}
	return b.Document("", baseTitle(filename))
}

func docxTable(b *Builder, doc *docx.Docx, t *docx.Table) {
	for _, row := range t.TableRows {
		for _, cell := range row.TableCells {
			for _, p := range cell.Paragraphs {
				b.Add(docxParagraph(doc, p))
			}
			for _, nested := range cell.Tables {
				docxTable(b, doc, nested)
			}
		}
	}
}

func docxParagraph(doc *docx.Docx, para *docx.Paragraph) Paragraph {
	p := Paragraph{NamedStyle: docxNamedStyle(para)}
	if props := para.Properties; props != nil && props.NumProperties != nil {
		level := 0
		if props.NumProperties.Ilvl != nil {
			level, _ = strconv.Atoi(props.NumProperties.Ilvl.Val)
		}
		ordered := props.Style != nil && strings.Contains(strings.ToLower(props.Style.Val), "number")
		p.Bullet = &Bullet{Ordered: ordered, Level: level}
		p.NamedStyle = ""
	}

	for _, child := range para.Children {
		switch c := child.(type) {
		case *docx.Run:
			p.Runs = append(p.Runs, Run{Text: docxRunText(c), Style: docxStyle(c.RunProperties)})
		case *docx.Hyperlink:
			text := docxRunText(&c.Run)
			if text == "" {
				text = c.Run.InstrText
			}
			style := docxStyle(c.Run.RunProperties)
			if style == nil {
				style = &docs.TextStyle{}
			}
			if target, err := doc.ReferTarget(c.ID); err == nil {
				style.Link = &docs.Link{Url: target}
				// Word's hyperlink character style underlines and colors;
				// Docs links carry both by default.
				style.Underline = false
				style.ForegroundColor = nil
			}
			p.Runs = append(p.Runs, Run{Text: text, Style: style})
		}
	}
	return p
}

func docxRunText(run *docx.Run) string {
	var buf strings.Builder
	for _, rc := range run.Children {
		switch x := rc.(type) {
		case *docx.Text:
			buf.WriteString(x.Text)
		case *docx.Tab:
			buf.WriteByte('\t')
		case *docx.BarterRabbet:
			buf.WriteByte('\v')
		}
	}
	return buf.String()
}

func docxNamedStyle(para *docx.Paragraph) string {
	if para.Properties == nil || para.Properties.Style == nil {
		return ""
	}
	style := strings.ToLower(strings.ReplaceAll(para.Properties.Style.Val, " ", ""))
	switch style {
	case "title":
		return "TITLE"
	case "subtitle":
		return "SUBTITLE"
	}
	if n, ok := strings.CutPrefix(style, "heading"); ok {
		if level, err := strconv.Atoi(n); err == nil && level >= 1 && level <= 6 {
			return "HEADING_" + n
		}
	}
	return ""
}

func docxStyle(rp *docx.RunProperties) *docs.TextStyle {
	if rp == nil {
		return nil
	}
	ts := &docs.TextStyle{
		Bold:          rp.Bold != nil,
		Italic:        rp.Italic != nil,
		Underline:     rp.Underline != nil && rp.Underline.Val != "none",
		Strikethrough: rp.Strike != nil && rp.Strike.Val != "false" && rp.Strike.Val != "0",
	}
	if rp.Color != nil && rp.Color.Val != "auto" {
		if c, ok := hexColor(rp.Color.Val); ok && !isBlack(c) {
			ts.ForegroundColor = c
		}
	}
	if rp.Highlight != nil {
		if hex, ok := wordHighlights[rp.Highlight.Val]; ok {
			ts.BackgroundColor, _ = hexColor(hex)
		}
	} else if rp.Shade != nil && rp.Shade.Fill != "" && rp.Shade.Fill != "auto" {
		if c, ok := hexColor(rp.Shade.Fill); ok {
			ts.BackgroundColor = c
		}
	}
	if rp.Fonts != nil && rp.Fonts.ASCII != "" {
		ts.WeightedFontFamily = &docs.WeightedFontFamily{FontFamily: rp.Fonts.ASCII, Weight: 400}
	}
	if rp.VertAlign != nil {
		switch rp.VertAlign.Val {
		case "superscript":
			ts.BaselineOffset = "SUPERSCRIPT"
		case "subscript":
			ts.BaselineOffset = "SUBSCRIPT"
		}
	}
	return ts
}

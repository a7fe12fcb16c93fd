package docsim

import (
	"encoding/json"
	"slices"
	"unicode/utf16"

	"google.golang.org/api/docs/v1"
)

// Render returns the document as documents.get would.
func (d *Document) Render(documentID, title string) *docs.Document {
	out := &docs.Document{
		DocumentId: documentID,
		Title:      title,
		Body: &docs.Body{Content: []*docs.StructuralElement{
			{EndIndex: 1, SectionBreak: &docs.SectionBreak{}},
		}},
	}

	start := 0
	for i, u := range d.units {
		if u.c != newline {
			continue
		}
		out.Body.Content = append(out.Body.Content, d.renderParagraph(start, i))
		start = i + 1
	}

	if len(d.ranges) > 0 {
		out.NamedRanges = map[string]docs.NamedRanges{}
		for _, r := range d.ranges {
			nr := out.NamedRanges[r.name]
			nr.Name = r.name
			nr.NamedRanges = append(nr.NamedRanges, &docs.NamedRange{
				Name:         r.name,
				NamedRangeId: r.id,
				Ranges:       []*docs.Range{{StartIndex: int64(r.start), EndIndex: int64(r.end)}},
			})
			out.NamedRanges[r.name] = nr
		}
	}
	if len(d.objects) > 0 {
		out.InlineObjects = map[string]docs.InlineObject{}
		for id, o := range d.objects {
			if d.referenced(id) {
				out.InlineObjects[id] = *o
			}
		}
	}
	if len(d.lists) > 0 {
		out.Lists = map[string]docs.List{}
		for id, l := range d.lists {
			out.Lists[id] = l
		}
	}
	return out
}

func (d *Document) referenced(object string) bool {
	return slices.ContainsFunc(d.units, func(u unit) bool { return u.object == object })
}

// renderParagraph renders units [first, last], last being the newline.
func (d *Document) renderParagraph(first, last int) *docs.StructuralElement {
	props := d.units[last].para
	style := &docs.ParagraphStyle{NamedStyleType: "NORMAL_TEXT"}
	if props.namedStyle != "" {
		style.NamedStyleType = props.namedStyle
	}
	p := &docs.Paragraph{ParagraphStyle: style, Bullet: props.bullet}

	runStart := first
	var runCodes []uint16
	var runStyle *docs.TextStyle
	flush := func(end int) {
		if len(runCodes) == 0 {
			return
		}
		p.Elements = append(p.Elements, &docs.ParagraphElement{
			StartIndex: int64(runStart + 1),
			EndIndex:   int64(end + 1),
			TextRun: &docs.TextRun{
				Content:   string(utf16.Decode(runCodes)),
				TextStyle: styleOrEmpty(runStyle),
			},
		})
		runCodes = nil
	}

	for i := first; i <= last; i++ {
		u := d.units[i]
		if u.object != "" {
			flush(i)
			p.Elements = append(p.Elements, &docs.ParagraphElement{
				StartIndex:          int64(i + 1),
				EndIndex:            int64(i + 2),
				InlineObjectElement: &docs.InlineObjectElement{InlineObjectId: u.object, TextStyle: styleOrEmpty(u.style)},
			})
			continue
		}
		if len(runCodes) > 0 && !sameStyle(runStyle, u.style) {
			flush(i)
		}
		if len(runCodes) == 0 {
			runStart = i
			runStyle = u.style
		}
		runCodes = append(runCodes, u.c)
	}
	flush(last + 1)

	return &docs.StructuralElement{
		StartIndex: int64(first + 1),
		EndIndex:   int64(last + 2),
		Paragraph:  p,
	}
}

func styleOrEmpty(s *docs.TextStyle) *docs.TextStyle {
	if s == nil {
		return &docs.TextStyle{}
	}
	return s
}

func sameStyle(a, b *docs.TextStyle) bool {
	if a == b {
		return true
	}
	ja, err := json.Marshal(styleOrEmpty(a))
	if err != nil {
		return false
	}
	jb, err := json.Marshal(styleOrEmpty(b))
	if err != nil {
		return false
	}
	return string(ja) == string(jb)
}

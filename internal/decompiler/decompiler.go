// Package decompiler turns a Google Docs document back into MEBDF Markdown.
//
// Each paragraph's runs are written through a stack of open frames (link,
// span, bold, italic) so that a style shared by neighbouring runs is opened
// once. Embed markers come back from their named ranges, heading anchors
// from their h.* named ranges or the paragraph's heading id.
package decompiler

import (
	"errors"
	"fmt"
	"maps"
	"slices"
	"strings"
	"unicode/utf16"

	"github.com/dgallion1/gdocmark/internal/anchor"
	"github.com/dgallion1/gdocmark/internal/compiler"
	"github.com/dgallion1/gdocmark/internal/mebdf"
	"google.golang.org/api/docs/v1"
)

// Options tunes how document fonts map back to directives.
type Options struct {
	// MonospaceFamily at the default weight becomes {!mono}.
	// compiler.DefaultMonospaceFamily if empty.
	MonospaceFamily string
	// DefaultFontFamily at an implied weight produces no directive.
	DefaultFontFamily string
}

// Result is the decompiled Markdown plus notes about document styling
// that has no MEBDF form and was left out.
type Result struct {
	Markdown string
	Warnings []string
}

type block struct {
	text string
	list bool
}

type decompiler struct {
	opts    Options
	embeds  map[int64]mebdf.EmbedMarker
	anchors map[int64]string
	lists   map[string]docs.List
	objects map[string]docs.InlineObject
	dropped map[string]bool

	blocks []block
	list   listState
}

// listState numbers and indents the items of the list being written.
type listState struct {
	id     string
	counts map[int64]int
	widths map[int64]int
}

// Decompile renders doc as MEBDF Markdown. Documents without a legacy body
// are read from their first tab.
func Decompile(doc *docs.Document, opts Options) (*Result, error) {
	if doc == nil {
		return nil, errors.New("decompile: nil document")
	}
	if opts.MonospaceFamily == "" {
		opts.MonospaceFamily = compiler.DefaultMonospaceFamily
	}
	d := &decompiler{
		opts:    opts,
		embeds:  map[int64]mebdf.EmbedMarker{},
		anchors: map[int64]string{},
		dropped: map[string]bool{},
	}

	body, named := doc.Body, doc.NamedRanges
	d.lists, d.objects = doc.Lists, doc.InlineObjects
	if body == nil && len(doc.Tabs) > 0 && doc.Tabs[0].DocumentTab != nil {
		tab := doc.Tabs[0].DocumentTab
		body, named = tab.Body, tab.NamedRanges
		d.lists, d.objects = tab.Lists, tab.InlineObjects
	}
	d.index(named)

	if body != nil {
		for _, el := range body.Content {
			if err := d.element(el); err != nil {
				return nil, err
			}
		}
	}

	res := &Result{Markdown: d.join()}
	for _, name := range slices.Sorted(maps.Keys(d.dropped)) {
		res.Warnings = append(res.Warnings, fmt.Sprintf("%s has no MEBDF form and was dropped", name))
	}
	return res, nil
}

// index records the start of every embed and anchor named range.
func (d *decompiler) index(named map[string]docs.NamedRanges) {
	for name, group := range named {
		marker, isEmbed := mebdf.ParseRangeName(name)
		isAnchor := anchor.IsAnchor(name)
		if !isEmbed && !isAnchor {
			continue
		}
		for _, nr := range group.NamedRanges {
			for _, r := range nr.Ranges {
				switch {
				case isEmbed && r.EndIndex-r.StartIndex == 1:
					d.embeds[r.StartIndex] = marker
				case isAnchor:
					if cur, ok := d.anchors[r.StartIndex]; !ok || name < cur {
						d.anchors[r.StartIndex] = name
					}
				}
			}
		}
	}
}

func (d *decompiler) element(el *docs.StructuralElement) error {
	switch {
	case el.Paragraph != nil:
		return d.paragraph(el)
	case el.Table != nil:
		return &UnsupportedStructureError{Element: "table", Index: el.StartIndex}
	case el.TableOfContents != nil:
		return &UnsupportedStructureError{Element: "table of contents", Index: el.StartIndex}
	}
	// Section breaks carry no text.
	return nil
}

func (d *decompiler) paragraph(el *docs.StructuralElement) error {
	p := el.Paragraph
	level := headingLevel(p.ParagraphStyle)

	ps, err := d.pieces(p.Elements)
	if err != nil {
		return err
	}
	ps = normalizeEdges(trimBreaks(ps))

	var id string
	if level > 0 {
		id = d.anchors[el.StartIndex]
		if id == "" && p.ParagraphStyle != nil && anchor.IsAnchor(p.ParagraphStyle.HeadingId) {
			id = p.ParagraphStyle.HeadingId
		}
	}
	if blank(ps) && id == "" {
		if p.Bullet == nil {
			d.list = listState{}
		}
		return nil
	}

	var prefix, indent string
	if p.Bullet != nil {
		prefix, indent = d.listMarker(p.Bullet)
	} else {
		d.list = listState{}
	}
	if level > 0 {
		prefix += strings.Repeat("#", level) + " "
	}

	w := newWriter(level > 0, indent)
	if id != "" {
		w.raw("{^ " + id + "}")
		if !blank(ps) {
			w.raw(" ")
		}
	}
	for _, pc := range ps {
		switch {
		case pc.brk:
			w.lineBreak()
		case pc.embed != nil:
			w.embed(*pc.embed)
		case pc.image != "":
			w.image(pc.image)
		default:
			w.text(pc.text, pc.styles)
		}
	}
	d.blocks = append(d.blocks, block{text: prefix + w.String(), list: p.Bullet != nil})
	return nil
}

// listMarker returns the item's marker line prefix and the indent its
// continuation lines need.
func (d *decompiler) listMarker(b *docs.Bullet) (string, string) {
	if d.list.id != b.ListId || d.list.counts == nil {
		d.list = listState{id: b.ListId, counts: map[int64]int{}, widths: map[int64]int{}}
	}
	level := b.NestingLevel
	for l := range d.list.counts {
		if l > level {
			delete(d.list.counts, l)
		}
	}
	d.list.counts[level]++

	marker := "- "
	if d.ordered(b.ListId, level) {
		marker = fmt.Sprintf("%d. ", d.list.counts[level])
	}
	indent := 0
	for l := range level {
		w, ok := d.list.widths[l]
		if !ok {
			w = 2
		}
		indent += w
	}
	d.list.widths[level] = len(marker)
	pad := strings.Repeat(" ", indent)
	return pad + marker, pad + strings.Repeat(" ", len(marker))
}

func (d *decompiler) ordered(listID string, level int64) bool {
	l, ok := d.lists[listID]
	if !ok || l.ListProperties == nil || level >= int64(len(l.ListProperties.NestingLevels)) {
		return false
	}
	return isOrderedGlyph(l.ListProperties.NestingLevels[level].GlyphType)
}

func isOrderedGlyph(g string) bool {
	switch g {
	case "DECIMAL", "ZERO_DECIMAL", "UPPER_ALPHA", "ALPHA", "UPPER_ROMAN", "ROMAN":
		return true
	}
	return false
}

func headingLevel(ps *docs.ParagraphStyle) int {
	if ps == nil {
		return 0
	}
	switch ps.NamedStyleType {
	case "TITLE", "HEADING_1":
		return 1
	case "SUBTITLE", "HEADING_2":
		return 2
	case "HEADING_3":
		return 3
	case "HEADING_4":
		return 4
	case "HEADING_5":
		return 5
	case "HEADING_6":
		return 6
	}
	return 0
}

// join separates blocks by blank lines, keeping list items tight.
func (d *decompiler) join() string {
	if len(d.blocks) == 0 {
		return ""
	}
	var sb strings.Builder
	for i, b := range d.blocks {
		if i > 0 {
			if b.list && d.blocks[i-1].list {
				sb.WriteString("\n")
			} else {
				sb.WriteString("\n\n")
			}
		}
		sb.WriteString(b.text)
	}
	sb.WriteString("\n")
	return sb.String()
}

// piece is one run of a paragraph: styled text, an embed, an image with a
// known source, or a hard line break.
type piece struct {
	text   string
	styles mebdf.StyleSet
	embed  *mebdf.EmbedMarker
	image  string
	brk    bool
}

func (d *decompiler) pieces(els []*docs.ParagraphElement) ([]piece, error) {
	var out []piece
	for _, e := range els {
		switch {
		case e.TextRun != nil:
			styles, err := d.styles(e.TextRun.TextStyle)
			if err != nil {
				return nil, fmt.Errorf("text at %d: %w", e.StartIndex, err)
			}
			out = append(out, d.textPieces(e.TextRun.Content, e.StartIndex, styles)...)
		case e.InlineObjectElement != nil:
			out = append(out, d.inlineObject(e))
		case e.Equation != nil:
			m, ok := d.embeds[e.StartIndex]
			if !ok {
				m = mebdf.EmbedMarker{Kind: mebdf.EmbedEquation}
			}
			out = append(out, piece{embed: &m})
		default:
			return nil, &UnsupportedStructureError{Element: elementName(e), Index: e.StartIndex}
		}
	}
	return out, nil
}

func (d *decompiler) textPieces(content string, start int64, styles mebdf.StyleSet) []piece {
	var out []piece
	var buf strings.Builder
	flush := func() {
		if buf.Len() > 0 {
			out = append(out, piece{text: buf.String(), styles: styles})
			buf.Reset()
		}
	}
	idx := start
	for _, r := range content {
		switch {
		case r == '\n':
		case r == '\v':
			flush()
			out = append(out, piece{brk: true})
		case r == 0xFFFC:
			if m, ok := d.embeds[idx]; ok {
				flush()
				out = append(out, piece{embed: &m})
			} else {
				buf.WriteRune(r)
			}
		default:
			buf.WriteRune(r)
		}
		if n := utf16.RuneLen(r); n > 0 {
			idx += int64(n)
		} else {
			idx++
		}
	}
	flush()
	return out
}

// inlineObject prefers the embed marker recorded for the position, then an
// image's source URI, then the object id.
func (d *decompiler) inlineObject(e *docs.ParagraphElement) piece {
	if m, ok := d.embeds[e.StartIndex]; ok {
		return piece{embed: &m}
	}
	id := e.InlineObjectElement.InlineObjectId
	var emb *docs.EmbeddedObject
	if obj, ok := d.objects[id]; ok && obj.InlineObjectProperties != nil {
		emb = obj.InlineObjectProperties.EmbeddedObject
	}
	switch {
	case emb != nil && emb.LinkedContentReference != nil && emb.LinkedContentReference.SheetsChartReference != nil:
		return piece{embed: &mebdf.EmbedMarker{Kind: mebdf.EmbedChart, ID: id}}
	case emb != nil && emb.ImageProperties != nil && emb.ImageProperties.SourceUri != "":
		return piece{image: emb.ImageProperties.SourceUri}
	}
	return piece{embed: &mebdf.EmbedMarker{Kind: mebdf.EmbedImage, ID: id}}
}

func elementName(e *docs.ParagraphElement) string {
	switch {
	case e.HorizontalRule != nil:
		return "horizontal rule"
	case e.PageBreak != nil:
		return "page break"
	case e.ColumnBreak != nil:
		return "column break"
	case e.FootnoteReference != nil:
		return "footnote reference"
	case e.AutoText != nil:
		return "auto text"
	case e.Person != nil:
		return "person chip"
	case e.RichLink != nil:
		return "rich link"
	}
	return "unknown element"
}

// trimBreaks drops line breaks at either end of a paragraph, where
// Markdown cannot express them.
func trimBreaks(ps []piece) []piece {
	for len(ps) > 0 && ps[0].brk {
		ps = ps[1:]
	}
	for len(ps) > 0 && ps[len(ps)-1].brk {
		ps = ps[:len(ps)-1]
	}
	return ps
}

func blank(ps []piece) bool {
	for _, p := range ps {
		if p.embed != nil || p.image != "" || strings.TrimSpace(p.text) != "" {
			return false
		}
	}
	return true
}

// normalizeEdges moves whitespace at the edge of a bold or italic run out
// of the emphasis unless the neighbouring run carries it too. Emphasis
// delimiters next to whitespace do not open or close.
func normalizeEdges(ps []piece) []piece {
	out := make([]piece, 0, len(ps))
	for i, p := range ps {
		if p.text == "" || !(p.styles.Has(mebdf.KindBold) || p.styles.Has(mebdf.KindItalic)) {
			out = append(out, p)
			continue
		}
		core := strings.TrimLeft(p.text, " \t")
		lead := p.text[:len(p.text)-len(core)]
		trimmed := strings.TrimRight(core, " \t")
		trail := core[len(trimmed):]

		if lead != "" {
			out = append(out, piece{text: lead, styles: edgeStyles(p.styles, neighbour(ps, i-1))})
		}
		if trimmed != "" {
			out = append(out, piece{text: trimmed, styles: p.styles})
		}
		if trail != "" {
			out = append(out, piece{text: trail, styles: edgeStyles(p.styles, neighbour(ps, i+1))})
		}
	}
	return out
}

func neighbour(ps []piece, i int) mebdf.StyleSet {
	if i < 0 || i >= len(ps) || ps[i].text == "" {
		return nil
	}
	return ps[i].styles
}

func edgeStyles(s, next mebdf.StyleSet) mebdf.StyleSet {
	for _, k := range []mebdf.AttrKind{mebdf.KindBold, mebdf.KindItalic} {
		if !next.Has(k) {
			s = s.Without(k)
		}
	}
	return s
}

// Package compiler turns MEBDF-annotated Markdown into a Google Docs
// batchUpdate request list.
//
// Requests are ordered so that no request invalidates an index computed
// for a later one:
//
//  1. insertText for every paragraph, at purely additive offsets
//  2. updateParagraphStyle for headings
//  3. updateTextStyle for every non-empty style range
//  4. deleteContentRange + insertInlineImage for resolved images (net zero)
//  5. createNamedRange for heading anchors and embed markers
//  6. createParagraphBullets, one per top-level list, last list first
//
// Bullets go last because Docs strips the leading tabs that carry the
// nesting level, which shifts everything after the list.
package compiler

import (
	"fmt"
	"slices"
	"strings"

	"github.com/dgallion1/gdocmark/internal/anchor"
	"github.com/dgallion1/gdocmark/internal/fontweight"
	"github.com/dgallion1/gdocmark/internal/mebdf"
	"github.com/dgallion1/gdocmark/internal/mebdf/mdext"
	"github.com/dgallion1/gdocmark/internal/offset"
	"github.com/dgallion1/gdocmark/internal/runs"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
	"google.golang.org/api/docs/v1"
)

// DefaultMonospaceFamily renders mono spans and Markdown code.
const DefaultMonospaceFamily = "Courier New"

// Options control compilation. The zero value inserts at index 1, generates
// no anchors and leaves every image embed as a placeholder.
type Options struct {
	// BaseIndex is the document index content is inserted at.
	BaseIndex int
	// GenerateAnchors gives headings without {^ ...} a fresh anchor id.
	GenerateAnchors bool
	// MonospaceFamily is the font for mono; DefaultMonospaceFamily if empty.
	MonospaceFamily string
	// ImageURI resolves an image embed id to a fetchable URL.
	ImageURI func(id string) (string, bool)
	// Catalog, when set, turns unknown family/weight pairs into warnings.
	Catalog fontweight.Catalog
}

// Batch is a compiled request list.
type Batch struct {
	Requests []*docs.Request
	// Warnings are advisory; the batch is valid regardless.
	Warnings []string
	// End is the index just past the inserted content.
	End int
}

// UpdateRequest wraps the requests for documents.batchUpdate.
func (b *Batch) UpdateRequest() *docs.BatchUpdateDocumentRequest {
	return &docs.BatchUpdateDocumentRequest{Requests: b.Requests}
}

type paragraph struct {
	start     int // first index, list tabs included
	textStart int // first index of the paragraph text
	textEnd   int // index of the terminating newline
	heading   int
	anchor    string
	layout    *runs.Layout
}

type listSpan struct {
	start, end int
	ordered    bool
}

type compiler struct {
	src      []byte
	opts     Options
	pos      *offset.Tracker
	inserts  []*docs.Request
	paras    []*paragraph
	lists    []listSpan
	ordered  bool // kind of the enclosing top-level list
	warnings []string
}

// Compile parses src and returns the request batch. It is transactional: on
// error no batch is returned.
func Compile(src []byte, opts Options) (*Batch, error) {
	if opts.BaseIndex <= 0 {
		opts.BaseIndex = 1
	}
	if opts.MonospaceFamily == "" {
		opts.MonospaceFamily = DefaultMonospaceFamily
	}

	md := goldmark.New(goldmark.WithExtensions(mdext.MEBDF))
	doc := md.Parser().Parse(text.NewReader(src))

	c := &compiler{
		src:  src,
		opts: opts,
		pos:  offset.NewTracker(opts.BaseIndex),
	}
	if err := c.blocks(doc, 0); err != nil {
		return nil, err
	}
	return c.finish()
}

func (c *compiler) blocks(parent ast.Node, lists int) error {
	for n := parent.FirstChild(); n != nil; n = n.NextSibling() {
		if err := c.block(n, lists); err != nil {
			return err
		}
	}
	return nil
}

// block compiles one block node. lists is the number of enclosing lists.
func (c *compiler) block(n ast.Node, lists int) error {
	switch n := n.(type) {
	case *ast.Heading:
		return c.textBlock(n, lists, n.Level)
	case *ast.Paragraph, *ast.TextBlock:
		return c.textBlock(n, lists, 0)
	case *ast.List:
		start := c.pos.Pos()
		if lists == 0 {
			c.ordered = n.IsOrdered()
		}
		for item := n.FirstChild(); item != nil; item = item.NextSibling() {
			if item.FirstChild() == nil {
				if err := c.emit(listPrefix(lists+1), &mebdf.Result{}, 0); err != nil {
					return err
				}
				continue
			}
			if err := c.blocks(item, lists+1); err != nil {
				return err
			}
		}
		if lists == 0 && c.pos.Pos() > start {
			c.lists = append(c.lists, listSpan{start: start, end: c.pos.Pos(), ordered: n.IsOrdered()})
		}
		// One bullet preset covers a whole top-level list.
		if lists > 0 && n.IsOrdered() != c.ordered && c.pos.Pos() > start {
			c.warnings = append(c.warnings, fmt.Sprintf(
				"[%d,%d): %s list nested in %s list takes the outer list's bullets",
				start, c.pos.Pos(), listKind(n.IsOrdered()), listKind(c.ordered)))
		}
		return nil
	case *ast.FencedCodeBlock, *ast.CodeBlock:
		return c.codeBlock(n, lists)
	case *ast.ThematicBreak:
		return &UnsupportedStructureError{Construct: "thematic break", Offset: blockOffset(n)}
	case *ast.HTMLBlock:
		return &UnsupportedStructureError{Construct: "HTML block", Offset: blockOffset(n)}
	case *ast.Blockquote:
		return &UnsupportedStructureError{Construct: "block quote", Offset: blockOffset(n)}
	}
	return &UnsupportedStructureError{Construct: n.Kind().String(), Offset: blockOffset(n)}
}

func (c *compiler) textBlock(n ast.Node, lists, heading int) error {
	b := mebdf.NewBuilder()
	if err := c.inlines(b, n, nil, heading > 0); err != nil {
		return err
	}
	res, err := b.Finish()
	if err != nil {
		return err
	}
	return c.emit(listPrefix(lists), res, heading)
}

// codeBlock emits one monospace paragraph per line. MEBDF tokens are not
// recognised inside code.
func (c *compiler) codeBlock(n ast.Node, lists int) error {
	lines := n.Lines()
	for i := 0; i < lines.Len(); i++ {
		seg := lines.At(i)
		line := strings.TrimRight(string(seg.Value(c.src)), "\r\n")
		res := &mebdf.Result{}
		if line != "" {
			res.Items = []mebdf.Item{mebdf.TextRun{Text: line, Styles: mebdf.NewStyleSet(mebdf.Monospace())}}
			res.Visible = offset.Units(line)
		}
		if err := c.emit(listPrefix(lists), res, 0); err != nil {
			return err
		}
	}
	return nil
}

// inlines feeds the inline children of parent to b. md carries the styles
// contributed by enclosing Markdown syntax.
func (c *compiler) inlines(b *mebdf.Builder, parent ast.Node, md mebdf.StyleSet, heading bool) error {
	for n := parent.FirstChild(); n != nil; n = n.NextSibling() {
		switch n := n.(type) {
		case *ast.Text:
			b.Text(unescape(n.Segment.Value(c.src)), md)
			switch {
			case n.HardLineBreak():
				b.Text("\v", md)
			case n.SoftLineBreak():
				b.Text(" ", md)
			}
		case *ast.String:
			b.Text(string(n.Value), md)
		case *ast.CodeSpan:
			b.Text(codeSpanText(n, c.src), md.With(mebdf.Monospace()))
		case *ast.Emphasis:
			attr := mebdf.Italic()
			if n.Level >= 2 {
				attr = mebdf.Bold()
			}
			if err := c.inlines(b, n, md.With(attr), heading); err != nil {
				return err
			}
		case *ast.Link:
			if err := c.inlines(b, n, md.With(mebdf.Link(unescape(n.Destination))), heading); err != nil {
				return err
			}
		case *ast.AutoLink:
			b.Text(string(n.Label(c.src)), md.With(mebdf.Link(string(n.URL(c.src)))))
		case *ast.Image:
			b.Embed(mebdf.EmbedMarker{Kind: mebdf.EmbedImage, URI: unescape(n.Destination)})
		case *ast.RawHTML:
			off := -1
			if n.Segments.Len() > 0 {
				off = n.Segments.At(0).Start
			}
			return &UnsupportedStructureError{Construct: "raw HTML", Offset: off}
		case *mdext.Invalid:
			return n.Err
		case *mdext.Token:
			if err := c.token(b, n.Tok, heading); err != nil {
				return err
			}
		default:
			if err := c.inlines(b, n, md, heading); err != nil {
				return err
			}
		}
	}
	return nil
}

func (c *compiler) token(b *mebdf.Builder, tok mebdf.Token, heading bool) error {
	switch tok.Kind {
	case mebdf.TokenSpanOpen:
		b.Open(tok)
	case mebdf.TokenSpanClose:
		return b.Close(tok.Offset)
	case mebdf.TokenAnchor:
		if !heading {
			return &mebdf.MalformedSpanError{Offset: tok.Offset, Reason: "heading anchor outside a heading"}
		}
		return b.Anchor(tok)
	case mebdf.TokenEmbed:
		b.Embed(tok.Embed)
	}
	return nil
}

// emit inserts one paragraph: prefix, the parsed items and a newline.
func (c *compiler) emit(prefix string, res *mebdf.Result, heading int) error {
	start := c.pos.Pos()
	textStart := start + offset.Units(prefix)
	layout, err := runs.Merge(res.Items, textStart)
	if err != nil {
		return err
	}

	var sb strings.Builder
	sb.WriteString(prefix)
	for _, it := range res.Items {
		switch it := it.(type) {
		case mebdf.TextRun:
			sb.WriteString(it.Text)
		case mebdf.EmbedMarker:
			sb.WriteString(mebdf.Placeholder)
		}
	}
	sb.WriteByte('\n')
	text := sb.String()

	c.pos.Advance(text)
	c.inserts = append(c.inserts, insertText(start, text))
	c.paras = append(c.paras, &paragraph{
		start:     start,
		textStart: textStart,
		textEnd:   layout.End,
		heading:   heading,
		anchor:    res.Anchor,
		layout:    layout,
	})
	return nil
}

func (c *compiler) finish() (*Batch, error) {
	if err := c.assignAnchors(); err != nil {
		return nil, err
	}

	reqs := slices.Clone(c.inserts)
	for _, p := range c.paras {
		if p.heading > 0 {
			reqs = append(reqs, headingStyle(p.start, p.textEnd+1, p.heading))
		}
	}
	for _, p := range c.paras {
		for _, r := range p.layout.Ranges {
			if r.Styles.IsEmpty() {
				continue
			}
			c.checkFont(r)
			ts, fields := textStyle(r.Styles, c.opts.MonospaceFamily)
			reqs = append(reqs, updateTextStyle(r.Start, r.End, ts, fields))
		}
	}
	for _, p := range c.paras {
		for _, e := range p.layout.Embeds {
			if uri, ok := c.imageURI(e.Marker); ok {
				reqs = append(reqs, replaceWithImage(e.Offset, uri)...)
			}
		}
	}
	for _, p := range c.paras {
		if p.anchor != "" {
			end := max(p.textEnd, p.textStart+1)
			reqs = append(reqs, namedRange(p.anchor, p.textStart, end))
		}
		for _, e := range p.layout.Embeds {
			// Markdown images round-trip through their source URI instead.
			if e.Marker.ID == "" && e.Marker.URI != "" {
				continue
			}
			reqs = append(reqs, namedRange(e.Marker.RangeName(), e.Offset, e.Offset+1))
		}
	}
	for i := len(c.lists) - 1; i >= 0; i-- {
		l := c.lists[i]
		reqs = append(reqs, bullets(l.start, l.end, l.ordered))
	}

	return &Batch{Requests: reqs, Warnings: c.warnings, End: c.pos.Pos()}, nil
}

// assignAnchors checks explicit anchors for duplicates, then gives the
// remaining headings generated ids that cannot clash with them.
func (c *compiler) assignAnchors() error {
	gen := anchor.NewGenerator(anchor.SeedFrom(c.src))
	for _, p := range c.paras {
		if p.anchor == "" {
			continue
		}
		if err := gen.Reserve(p.anchor); err != nil {
			return err
		}
	}
	if !c.opts.GenerateAnchors {
		return nil
	}
	for _, p := range c.paras {
		if p.heading > 0 && p.anchor == "" {
			p.anchor = gen.Next()
		}
	}
	return nil
}

func (c *compiler) imageURI(m mebdf.EmbedMarker) (string, bool) {
	if m.Kind != mebdf.EmbedImage {
		return "", false
	}
	if m.URI != "" {
		return m.URI, true
	}
	if m.ID == "" || c.opts.ImageURI == nil {
		return "", false
	}
	return c.opts.ImageURI(m.ID)
}

func (c *compiler) checkFont(r runs.StyleRange) {
	fw, ok := r.Styles.Get(mebdf.KindFontWeight)
	if !ok {
		return
	}
	bold := r.Styles.Has(mebdf.KindBold)
	if fontweight.Ambiguous(fw.Weight, bold) {
		c.warnings = append(c.warnings, fmt.Sprintf(
			"[%d,%d): bold %s at weight %d renders at %d; the declared weight will not survive decompiling",
			r.Start, r.End, fw.Value, fw.Weight, fontweight.MustResolve(fw.Weight, bold)))
	}
	if c.opts.Catalog != nil && !c.opts.Catalog.Supports(fw.Value, fw.Weight) {
		c.warnings = append(c.warnings, fmt.Sprintf(
			"[%d,%d): font %q is not known to offer weight %d", r.Start, r.End, fw.Value, fw.Weight))
	}
}

func listKind(ordered bool) string {
	if ordered {
		return "numbered"
	}
	return "bulleted"
}

func listPrefix(lists int) string {
	if lists <= 1 {
		return ""
	}
	return strings.Repeat("\t", lists-1)
}

// blockOffset returns the source offset of the first line in n or its
// descendants.
func blockOffset(n ast.Node) int {
	if n.Type() == ast.TypeBlock && n.Lines().Len() > 0 {
		return n.Lines().At(0).Start
	}
	for ch := n.FirstChild(); ch != nil; ch = ch.NextSibling() {
		if off := blockOffset(ch); off >= 0 {
			return off
		}
	}
	return -1
}

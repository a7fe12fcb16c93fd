package mebdf

import (
	"strings"

	"github.com/dgallion1/gdocmark/internal/offset"
)

// Builder assembles a Result from a left-to-right stream of text, tokens and
// embeds. Parse drives it over plain strings; the Markdown compiler drives
// it over a goldmark inline tree, passing Markdown styles as extra
// attributes.
type Builder struct {
	spans  []openSpan
	items  []Item
	anchor string

	visible      int
	placeholders int
	trimLeading  bool
}

type openSpan struct {
	offset int
	styles StyleSet
}

func NewBuilder() *Builder {
	return &Builder{}
}

// Styles returns the union of the directives of all open spans.
func (b *Builder) Styles() StyleSet {
	if len(b.spans) == 0 {
		return nil
	}
	return b.spans[len(b.spans)-1].styles
}

// Empty reports whether nothing has been emitted yet.
func (b *Builder) Empty() bool {
	return len(b.items) == 0 && len(b.spans) == 0
}

// Open pushes a span. Nested spans accumulate the directives of their
// ancestors; an inner single-valued directive replaces the outer one.
func (b *Builder) Open(tok Token) {
	b.spans = append(b.spans, openSpan{
		offset: tok.Offset,
		styles: b.Styles().With(tok.Styles...),
	})
}

// Close pops the innermost span.
func (b *Builder) Close(pos int) error {
	if len(b.spans) == 0 {
		return &MalformedSpanError{Offset: pos, Reason: "{/!} without an open span"}
	}
	b.spans = b.spans[:len(b.spans)-1]
	return nil
}

// Anchor records the heading anchor. It must precede all other content.
func (b *Builder) Anchor(tok Token) error {
	if b.anchor != "" || !b.Empty() {
		return &MalformedSpanError{Offset: tok.Offset, Reason: "heading anchor must prefix the heading text"}
	}
	b.anchor = tok.Anchor
	b.trimLeading = true
	return nil
}

// Text appends text styled with the open spans plus extra.
func (b *Builder) Text(text string, extra StyleSet) {
	if b.trimLeading {
		text = strings.TrimLeft(text, " \t")
		if text == "" {
			return
		}
		b.trimLeading = false
	}
	if text == "" {
		return
	}
	styles := b.Styles().With(extra...)
	b.visible += offset.Units(text)
	if n := len(b.items); n > 0 {
		if last, ok := b.items[n-1].(TextRun); ok && last.Styles.Equal(styles) {
			b.items[n-1] = TextRun{Text: last.Text + text, Styles: styles}
			return
		}
	}
	b.items = append(b.items, TextRun{Text: text, Styles: styles})
}

// Embed appends an embed marker. Embeds never carry styles.
func (b *Builder) Embed(m EmbedMarker) {
	b.trimLeading = false
	b.placeholders++
	b.items = append(b.items, m)
}

// Finish returns the result, failing if a span is still open.
func (b *Builder) Finish() (*Result, error) {
	if len(b.spans) > 0 {
		return nil, &MalformedSpanError{Offset: b.spans[0].offset, Reason: "span is never closed with {/!}"}
	}
	return &Result{
		Items:        b.items,
		Anchor:       b.anchor,
		Visible:      b.visible,
		Placeholders: b.placeholders,
	}, nil
}

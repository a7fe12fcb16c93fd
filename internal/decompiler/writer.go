package decompiler

import (
	"strings"

	"github.com/dgallion1/gdocmark/internal/mebdf"
)

type frameKind uint8

const (
	frameLink frameKind = iota
	frameSpan
	frameBold
	frameItalic
)

// frame is one open piece of markup. Frames nest link, span, bold, italic
// from the outside in when pushed together.
type frame struct {
	kind  frameKind
	attrs mebdf.StyleSet
}

func (f frame) open() string {
	switch f.kind {
	case frameLink:
		return "["
	case frameSpan:
		return "{!" + f.attrs.Directives() + "}"
	case frameBold:
		return "**"
	}
	return "*"
}

func (f frame) close() string {
	switch f.kind {
	case frameLink:
		a, _ := f.attrs.Get(mebdf.KindLink)
		return "](" + destination(a.Value) + ")"
	case frameSpan:
		return "{/!}"
	case frameBold:
		return "**"
	}
	return "*"
}

// within reports whether everything the frame applies is in s.
func (f frame) within(s mebdf.StyleSet) bool {
	for _, a := range f.attrs {
		if !s.Contains(a) {
			return false
		}
	}
	return true
}

// writer renders one paragraph's pieces as MEBDF Markdown.
type writer struct {
	sb        strings.Builder
	stack     []frame
	lineStart bool
	heading   bool
	indent    string // prefix for lines after a hard break
}

func newWriter(heading bool, indent string) *writer {
	return &writer{lineStart: true, heading: heading, indent: indent}
}

func (w *writer) raw(s string) {
	w.sb.WriteString(s)
	w.lineStart = false
}

// sync closes the frames the next run does not carry and opens frames for
// the attributes it adds. Outer frames that still apply stay open.
func (w *writer) sync(s mebdf.StyleSet) {
	keep := 0
	for keep < len(w.stack) && w.stack[keep].within(s) {
		keep++
	}
	w.popTo(keep)

	var open mebdf.StyleSet
	for _, f := range w.stack {
		open = open.With(f.attrs...)
	}
	var link, span, bold, italic mebdf.StyleSet
	for _, a := range s {
		if open.Contains(a) {
			continue
		}
		switch {
		case a.Kind == mebdf.KindLink:
			link = link.With(a)
		case a.Kind == mebdf.KindBold:
			bold = bold.With(a)
		case a.Kind == mebdf.KindItalic:
			italic = italic.With(a)
		case a.Kind.IsDirective():
			span = span.With(a)
		}
	}
	for _, f := range []frame{{frameLink, link}, {frameSpan, span}, {frameBold, bold}, {frameItalic, italic}} {
		if f.attrs.IsEmpty() {
			continue
		}
		w.raw(f.open())
		w.stack = append(w.stack, f)
	}
}

func (w *writer) popTo(n int) {
	for len(w.stack) > n {
		f := w.stack[len(w.stack)-1]
		w.stack = w.stack[:len(w.stack)-1]
		w.raw(f.close())
	}
}

func (w *writer) text(s string, styles mebdf.StyleSet) {
	if s == "" {
		return
	}
	w.sync(styles)
	if w.lineStart {
		w.sb.WriteString(escapeLineStart(s, w.heading))
	} else {
		w.sb.WriteString(escape(s, w.heading))
	}
	w.lineStart = false
}

func (w *writer) embed(m mebdf.EmbedMarker) {
	w.raw(m.Token())
}

func (w *writer) image(uri string) {
	w.raw("![](" + destination(uri) + ")")
}

func (w *writer) lineBreak() {
	w.raw("\\\n" + w.indent)
	w.lineStart = true
}

func (w *writer) String() string {
	w.popTo(0)
	return w.sb.String()
}

// destination formats a link or image target, using the angle-bracket
// form when the plain form would end early.
func destination(u string) string {
	if strings.ContainsAny(u, " ()<>\t") {
		return "<" + strings.NewReplacer("<", "\\<", ">", "\\>").Replace(u) + ">"
	}
	return u
}

const escaped = "\\`*_[]<{&"

func escape(s string, heading bool) string {
	var sb strings.Builder
	for _, r := range s {
		if (r < 0x80 && strings.IndexByte(escaped, byte(r)) >= 0) || (heading && r == '#') {
			sb.WriteByte('\\')
		}
		sb.WriteRune(r)
	}
	return sb.String()
}

// escapeLineStart also escapes what would open a block at the start of a
// line: headings, list markers, quotes and setext underlines.
func escapeLineStart(s string, heading bool) string {
	body := strings.TrimLeft(s, " \t")
	lead := s[:len(s)-len(body)]
	if body == "" {
		return s
	}
	if strings.IndexByte("#-+=>", body[0]) >= 0 {
		return lead + "\\" + body[:1] + escape(body[1:], heading)
	}
	i := 0
	for i < len(body) && i < 9 && body[i] >= '0' && body[i] <= '9' {
		i++
	}
	if i > 0 && i < len(body) && (body[i] == '.' || body[i] == ')') {
		return lead + body[:i] + "\\" + body[i:i+1] + escape(body[i+1:], heading)
	}
	return lead + escape(body, heading)
}

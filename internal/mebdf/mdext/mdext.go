// Package mdext teaches goldmark to recognise MEBDF tokens inside Markdown
// inline content. Tokens become Token nodes; tokens that fail to scan become
// Invalid nodes so the error surfaces when the tree is compiled.
package mdext

import (
	"github.com/dgallion1/gdocmark/internal/mebdf"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/text"
	"github.com/yuin/goldmark/util"
)

var (
	KindToken   = ast.NewNodeKind("MEBDFToken")
	KindInvalid = ast.NewNodeKind("MEBDFInvalid")
)

// Token is a span open/close, heading anchor or embed marker. Tok.Offset is
// the byte offset of the token in the Markdown source.
type Token struct {
	ast.BaseInline
	Tok mebdf.Token
}

func (n *Token) Kind() ast.NodeKind {
	return KindToken
}

func (n *Token) Dump(source []byte, level int) {
	m := map[string]string{}
	switch n.Tok.Kind {
	case mebdf.TokenSpanOpen:
		m["Open"] = n.Tok.Styles.Directives()
	case mebdf.TokenSpanClose:
		m["Close"] = "true"
	case mebdf.TokenAnchor:
		m["Anchor"] = n.Tok.Anchor
	case mebdf.TokenEmbed:
		m["Embed"] = n.Tok.Embed.Token()
	}
	ast.DumpHelper(n, source, level, m, nil)
}

// Invalid holds a token that failed to scan.
type Invalid struct {
	ast.BaseInline
	Err error
}

func (n *Invalid) Kind() ast.NodeKind {
	return KindInvalid
}

func (n *Invalid) Dump(source []byte, level int) {
	ast.DumpHelper(n, source, level, map[string]string{"Err": n.Err.Error()}, nil)
}

type inlineParser struct{}

// NewParser returns the inline parser triggered by '{'.
func NewParser() parser.InlineParser {
	return &inlineParser{}
}

func (p *inlineParser) Trigger() []byte {
	return []byte{'{'}
}

func (p *inlineParser) Parse(parent ast.Node, block text.Reader, pc parser.Context) ast.Node {
	line, seg := block.PeekLine()
	tok, ok, err := mebdf.ScanFrom(string(line), seg.Start)
	if err != nil {
		// Skip the brace so the rest of the line still parses.
		block.Advance(1)
		return &Invalid{Err: err}
	}
	if !ok {
		return nil
	}
	block.Advance(tok.Len)
	return &Token{Tok: tok}
}

type extension struct{}

// MEBDF is the goldmark extension registering the token parser.
var MEBDF goldmark.Extender = &extension{}

func (e *extension) Extend(m goldmark.Markdown) {
	m.Parser().AddOptions(parser.WithInlineParsers(
		util.Prioritized(NewParser(), 100),
	))
}

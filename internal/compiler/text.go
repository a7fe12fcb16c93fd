package compiler

import (
	"strings"

	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/util"
)

// unescape resolves backslash escapes and character references in one
// pass. Escaped characters are never read as the start of a reference.
func unescape(v []byte) string {
	var sb strings.Builder
	chunk := 0
	flush := func(end int) {
		if end > chunk {
			sb.Write(util.ResolveNumericReferences(util.ResolveEntityNames(v[chunk:end])))
		}
	}
	for i := 0; i < len(v); i++ {
		if v[i] == '\\' && i+1 < len(v) && util.IsPunct(v[i+1]) {
			flush(i)
			sb.WriteByte(v[i+1])
			i++
			chunk = i + 1
		}
	}
	flush(len(v))
	return sb.String()
}

// codeSpanText returns the literal content of a code span. Line endings
// inside the span become spaces.
func codeSpanText(n *ast.CodeSpan, src []byte) string {
	var sb strings.Builder
	for c := n.FirstChild(); c != nil; c = c.NextSibling() {
		var v []byte
		switch c := c.(type) {
		case *ast.Text:
			v = c.Segment.Value(src)
		case *ast.String:
			v = c.Value
		default:
			continue
		}
		if s, ok := strings.CutSuffix(string(v), "\n"); ok {
			sb.WriteString(s)
			sb.WriteByte(' ')
			continue
		}
		sb.Write(v)
	}
	return sb.String()
}

// Package mebdf implements the inline annotation grammar that carries
// Google Docs styling inside Markdown text:
//
//	{^ h.<id>}                 heading anchor, prefixes heading text
//	{!<directives>}...{/!}     style span, nests
//	{^= [<id>] <kind>}         embed marker (image, chart, equation)
//
// Directives are highlight:<color>, underline, color:<color>, mono and
// font:<family>[:<weight>], separated by commas.
package mebdf

import "strings"

// Parse parses s in a single left-to-right pass. Offsets in returned errors
// are byte offsets into s.
func Parse(s string) (*Result, error) {
	b := NewBuilder()
	last := 0
	for i := 0; i < len(s); {
		if s[i] != '{' {
			i++
			continue
		}
		tok, ok, err := Scan(s, i)
		if err != nil {
			return nil, err
		}
		if !ok {
			i++
			continue
		}
		pending := s[last:i]
		switch tok.Kind {
		case TokenAnchor:
			if strings.TrimSpace(pending) != "" {
				return nil, &MalformedSpanError{Offset: i, Reason: "heading anchor must prefix the heading text"}
			}
			if err := b.Anchor(tok); err != nil {
				return nil, err
			}
		case TokenSpanOpen:
			b.Text(pending, nil)
			b.Open(tok)
		case TokenSpanClose:
			b.Text(pending, nil)
			if err := b.Close(i); err != nil {
				return nil, err
			}
		case TokenEmbed:
			b.Text(pending, nil)
			b.Embed(tok.Embed)
		}
		i += tok.Len
		last = i
	}
	b.Text(s[last:], nil)
	return b.Finish()
}

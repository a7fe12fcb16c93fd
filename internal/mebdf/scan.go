package mebdf

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/dgallion1/gdocmark/internal/fontweight"
)

// TokenKind identifies a MEBDF token.
type TokenKind uint8

const (
	TokenSpanOpen TokenKind = iota + 1
	TokenSpanClose
	TokenAnchor
	TokenEmbed
)

// Token is one scanned MEBDF token. Offset is the byte offset of its
// opening brace and Len the number of bytes it spans.
type Token struct {
	Kind   TokenKind
	Offset int
	Len    int

	Styles StyleSet    // TokenSpanOpen
	Anchor string      // TokenAnchor
	Embed  EmbedMarker // TokenEmbed
}

var anchorPattern = regexp.MustCompile(`^h\.[0-9A-Za-z_-]+$`)

// Scan reads the token starting at s[pos], which must be '{'. It returns
// ok=false when the brace does not start a token and is literal text.
func Scan(s string, pos int) (tok Token, ok bool, err error) {
	return ScanFrom(s[pos:], pos)
}

// ScanFrom reads the token at the start of rest. origin is the offset of
// rest[0] in the enclosing input and is added to every reported offset.
func ScanFrom(rest string, origin int) (tok Token, ok bool, err error) {
	pos := origin
	switch {
	case strings.HasPrefix(rest, "{/!}"):
		return Token{Kind: TokenSpanClose, Offset: pos, Len: 4}, true, nil

	case strings.HasPrefix(rest, "{!"):
		end := strings.IndexByte(rest, '}')
		if end < 0 {
			return Token{}, false, &MalformedSpanError{Offset: pos, Reason: "unterminated directive list"}
		}
		styles, err := parseDirectives(rest[2:end], pos+2)
		if err != nil {
			return Token{}, false, err
		}
		return Token{Kind: TokenSpanOpen, Offset: pos, Len: end + 1, Styles: styles}, true, nil

	case strings.HasPrefix(rest, "{^="):
		end := strings.IndexByte(rest, '}')
		if end < 0 {
			return Token{}, false, &MalformedSpanError{Offset: pos, Reason: "unterminated embed marker"}
		}
		m, err := parseEmbed(rest[3:end], pos)
		if err != nil {
			return Token{}, false, err
		}
		return Token{Kind: TokenEmbed, Offset: pos, Len: end + 1, Embed: m}, true, nil

	case strings.HasPrefix(rest, "{^ "), strings.HasPrefix(rest, "{^\t"):
		end := strings.IndexByte(rest, '}')
		if end < 0 {
			return Token{}, false, &MalformedSpanError{Offset: pos, Reason: "unterminated heading anchor"}
		}
		id := strings.TrimSpace(rest[2:end])
		if !anchorPattern.MatchString(id) {
			return Token{}, false, &InvalidDirectiveArgumentError{
				Offset: pos, Directive: "anchor", Arg: id, Reason: "want h.<token>",
			}
		}
		return Token{Kind: TokenAnchor, Offset: pos, Len: end + 1, Anchor: id}, true, nil
	}
	return Token{}, false, nil
}

func parseEmbed(body string, pos int) (EmbedMarker, error) {
	fields := strings.Fields(body)
	var id, kind string
	switch len(fields) {
	case 1:
		kind = fields[0]
	case 2:
		id, kind = fields[0], fields[1]
	default:
		return EmbedMarker{}, &MalformedSpanError{Offset: pos, Reason: "embed marker takes an optional id and a kind"}
	}
	k, ok := ParseEmbedKind(kind)
	if !ok {
		return EmbedMarker{}, &InvalidDirectiveArgumentError{
			Offset: pos, Directive: "embed", Arg: kind, Reason: "kind must be image, chart or equation",
		}
	}
	return EmbedMarker{Kind: k, ID: id}, nil
}

// parseDirectives parses a comma separated directive list. base is the byte
// offset of list in the scanned input.
func parseDirectives(list string, base int) (StyleSet, error) {
	var attrs []Attr
	start := 0
	for start <= len(list) {
		end := strings.IndexByte(list[start:], ',')
		if end < 0 {
			end = len(list)
		} else {
			end += start
		}
		raw := list[start:end]
		off := base + start + (len(raw) - len(strings.TrimLeft(raw, " \t")))
		part := strings.TrimSpace(raw)
		if part == "" {
			return nil, &MalformedSpanError{Offset: off, Reason: "empty directive"}
		}
		a, err := parseDirective(part, off)
		if err != nil {
			return nil, err
		}
		attrs = append(attrs, a)
		start = end + 1
	}
	return NewStyleSet(attrs...), nil
}

func parseDirective(d string, off int) (Attr, error) {
	name, arg, hasArg := strings.Cut(d, ":")
	name = strings.TrimSpace(name)
	arg = strings.TrimSpace(arg)
	switch name {
	case "underline", "mono":
		if hasArg {
			return Attr{}, &InvalidDirectiveArgumentError{Offset: off, Directive: name, Arg: arg, Reason: "takes no argument"}
		}
		if name == "mono" {
			return Monospace(), nil
		}
		return Underline(), nil

	case "highlight", "color":
		hex, ok := ParseColor(arg)
		if !ok {
			return Attr{}, &InvalidDirectiveArgumentError{Offset: off, Directive: name, Arg: arg, Reason: "want #rgb, #rrggbb or a color name"}
		}
		if name == "highlight" {
			return Highlight(hex), nil
		}
		return Color(hex), nil

	case "font":
		family, w, hasWeight := strings.Cut(arg, ":")
		family = strings.TrimSpace(family)
		if family == "" {
			return Attr{}, &InvalidDirectiveArgumentError{Offset: off, Directive: name, Arg: arg, Reason: "missing font family"}
		}
		weight := fontweight.Default
		if hasWeight {
			n, err := strconv.Atoi(strings.TrimSpace(w))
			if err != nil {
				return Attr{}, &InvalidDirectiveArgumentError{Offset: off, Directive: name, Arg: arg, Reason: "weight is not a number"}
			}
			if err := fontweight.Validate(n); err != nil {
				return Attr{}, fmt.Errorf("directive at offset %d: %w", off, err)
			}
			weight = n
		}
		return FontWeight(family, weight), nil
	}
	return Attr{}, &UnknownDirectiveError{Offset: off, Name: name}
}

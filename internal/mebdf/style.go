package mebdf

import (
	"fmt"
	"regexp"
	"slices"
	"strconv"
	"strings"

	"github.com/dgallion1/gdocmark/internal/fontweight"
)

// AttrKind identifies a style attribute. The declaration order is the
// canonical order used for set keys and for emitted directive lists.
type AttrKind uint8

const (
	KindLink AttrKind = iota + 1
	KindHighlight
	KindUnderline
	KindColor
	KindMonospace
	KindFontWeight
	KindBold
	KindItalic
)

func (k AttrKind) String() string {
	switch k {
	case KindLink:
		return "link"
	case KindHighlight:
		return "highlight"
	case KindUnderline:
		return "underline"
	case KindColor:
		return "color"
	case KindMonospace:
		return "mono"
	case KindFontWeight:
		return "font"
	case KindBold:
		return "bold"
	case KindItalic:
		return "italic"
	}
	return fmt.Sprintf("AttrKind(%d)", uint8(k))
}

// IsDirective reports whether the kind is written as a {!...} directive
// rather than by Markdown syntax.
func (k AttrKind) IsDirective() bool {
	switch k {
	case KindHighlight, KindUnderline, KindColor, KindMonospace, KindFontWeight:
		return true
	}
	return false
}

// Attr is one style attribute. Value holds the canonical "#rrggbb" color for
// highlight and color, the URL for links and the family for font weights.
type Attr struct {
	Kind   AttrKind
	Value  string
	Weight int
}

func Bold() Attr      { return Attr{Kind: KindBold} }
func Italic() Attr    { return Attr{Kind: KindItalic} }
func Underline() Attr { return Attr{Kind: KindUnderline} }
func Monospace() Attr { return Attr{Kind: KindMonospace} }

func Link(url string) Attr { return Attr{Kind: KindLink, Value: url} }

// Highlight and Color take a color already in canonical form; use
// ParseColor for user input.
func Highlight(hex string) Attr { return Attr{Kind: KindHighlight, Value: hex} }
func Color(hex string) Attr     { return Attr{Kind: KindColor, Value: hex} }

func FontWeight(family string, weight int) Attr {
	return Attr{Kind: KindFontWeight, Value: family, Weight: weight}
}

func (a Attr) key() string {
	switch a.Kind {
	case KindFontWeight:
		return a.Kind.String() + "=" + a.Value + "@" + strconv.Itoa(a.Weight)
	case KindLink, KindHighlight, KindColor:
		return a.Kind.String() + "=" + a.Value
	}
	return a.Kind.String()
}

// Directive renders the attribute as it appears inside {!...}. It returns ""
// for attributes expressed by Markdown syntax.
func (a Attr) Directive() string {
	switch a.Kind {
	case KindHighlight:
		return "highlight:" + ColorName(a.Value)
	case KindUnderline:
		return "underline"
	case KindColor:
		return "color:" + ColorName(a.Value)
	case KindMonospace:
		return "mono"
	case KindFontWeight:
		if a.Weight == 0 || a.Weight == fontweight.Default {
			return "font:" + a.Value
		}
		return "font:" + a.Value + ":" + strconv.Itoa(a.Weight)
	}
	return ""
}

func (a Attr) String() string {
	return a.key()
}

// StyleSet is an immutable, canonically ordered attribute set holding at
// most one attribute per kind.
type StyleSet []Attr

// NewStyleSet builds a set; later attributes replace earlier ones of the
// same kind.
func NewStyleSet(attrs ...Attr) StyleSet {
	return StyleSet(nil).With(attrs...)
}

// With returns a new set with attrs added, replacing any attribute of the
// same kind.
func (s StyleSet) With(attrs ...Attr) StyleSet {
	if len(attrs) == 0 {
		return s
	}
	out := make(StyleSet, 0, len(s)+len(attrs))
	out = append(out, s...)
	for _, a := range attrs {
		if i := slices.IndexFunc(out, func(b Attr) bool { return b.Kind == a.Kind }); i >= 0 {
			out[i] = a
			continue
		}
		out = append(out, a)
	}
	slices.SortFunc(out, func(a, b Attr) int { return int(a.Kind) - int(b.Kind) })
	return out
}

// Without returns a new set with the given kinds removed.
func (s StyleSet) Without(kinds ...AttrKind) StyleSet {
	out := make(StyleSet, 0, len(s))
	for _, a := range s {
		if !slices.Contains(kinds, a.Kind) {
			out = append(out, a)
		}
	}
	return out
}

// Get returns the attribute of the given kind.
func (s StyleSet) Get(kind AttrKind) (Attr, bool) {
	for _, a := range s {
		if a.Kind == kind {
			return a, true
		}
	}
	return Attr{}, false
}

func (s StyleSet) Has(kind AttrKind) bool {
	_, ok := s.Get(kind)
	return ok
}

// Contains reports whether a is in the set with an identical value.
func (s StyleSet) Contains(a Attr) bool {
	b, ok := s.Get(a.Kind)
	return ok && b == a
}

func (s StyleSet) IsEmpty() bool {
	return len(s) == 0
}

// Equal reports whether both sets hold the same attributes.
func (s StyleSet) Equal(o StyleSet) bool {
	return slices.Equal(s, o)
}

// Key is a canonical string form; equal sets have equal keys.
func (s StyleSet) Key() string {
	parts := make([]string, len(s))
	for i, a := range s {
		parts[i] = a.key()
	}
	return strings.Join(parts, ";")
}

// Directives renders the directive attributes of the set as a directive
// list, e.g. "highlight:yellow, underline".
func (s StyleSet) Directives() string {
	var parts []string
	for _, a := range s {
		if d := a.Directive(); d != "" {
			parts = append(parts, d)
		}
	}
	return strings.Join(parts, ", ")
}

var hexColorPattern = regexp.MustCompile(`^#(?:[0-9a-fA-F]{3}|[0-9a-fA-F]{6})$`)

var namedColors = map[string]string{
	"black":   "#000000",
	"white":   "#ffffff",
	"red":     "#ff0000",
	"green":   "#008000",
	"blue":    "#0000ff",
	"yellow":  "#ffff00",
	"cyan":    "#00ffff",
	"aqua":    "#00ffff",
	"magenta": "#ff00ff",
	"fuchsia": "#ff00ff",
	"orange":  "#ffa500",
	"purple":  "#800080",
	"gray":    "#808080",
	"grey":    "#808080",
	"silver":  "#c0c0c0",
	"maroon":  "#800000",
	"olive":   "#808000",
	"lime":    "#00ff00",
	"teal":    "#008080",
	"navy":    "#000080",
	"pink":    "#ffc0cb",
	"brown":   "#a52a2a",
}

// Preferred spelling when a hex value has several names.
var colorNames = map[string]string{
	"#000000": "black",
	"#ffffff": "white",
	"#ff0000": "red",
	"#008000": "green",
	"#0000ff": "blue",
	"#ffff00": "yellow",
	"#00ffff": "cyan",
	"#ff00ff": "magenta",
	"#ffa500": "orange",
	"#800080": "purple",
	"#808080": "gray",
	"#c0c0c0": "silver",
	"#800000": "maroon",
	"#808000": "olive",
	"#00ff00": "lime",
	"#008080": "teal",
	"#000080": "navy",
	"#ffc0cb": "pink",
	"#a52a2a": "brown",
}

// ParseColor accepts #rgb, #rrggbb or a named color and returns the
// lower-case #rrggbb form.
func ParseColor(s string) (string, bool) {
	s = strings.TrimSpace(s)
	if hex, ok := namedColors[strings.ToLower(s)]; ok {
		return hex, true
	}
	if !hexColorPattern.MatchString(s) {
		return "", false
	}
	s = strings.ToLower(s)
	if len(s) == 4 {
		s = string([]byte{'#', s[1], s[1], s[2], s[2], s[3], s[3]})
	}
	return s, true
}

// ColorName returns the preferred color name for hex, or hex itself.
func ColorName(hex string) string {
	if name, ok := colorNames[hex]; ok {
		return name
	}
	return hex
}

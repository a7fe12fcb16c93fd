package mebdf

import (
	"fmt"
	"strings"

	"github.com/dgallion1/gdocmark/internal/offset"
)

// Placeholder is the character an embed occupies in inserted text.
const Placeholder = "\uFFFC"

// Item is a TextRun or an EmbedMarker.
type Item interface {
	// Units is the number of document index units the item occupies.
	Units() int
}

// TextRun is a piece of text with its styles. Text is never empty.
type TextRun struct {
	Text   string
	Styles StyleSet
}

func (r TextRun) Units() int {
	return offset.Units(r.Text)
}

// EmbedKind is the type of object an embed marker stands for.
type EmbedKind uint8

const (
	EmbedImage EmbedKind = iota + 1
	EmbedChart
	EmbedEquation
)

func (k EmbedKind) String() string {
	switch k {
	case EmbedImage:
		return "image"
	case EmbedChart:
		return "chart"
	case EmbedEquation:
		return "equation"
	}
	return fmt.Sprintf("EmbedKind(%d)", uint8(k))
}

// ParseEmbedKind maps "image", "chart" or "equation" to its kind.
func ParseEmbedKind(s string) (EmbedKind, bool) {
	switch s {
	case "image":
		return EmbedImage, true
	case "chart":
		return EmbedChart, true
	case "equation":
		return EmbedEquation, true
	}
	return 0, false
}

// EmbedMarker is a non-text object. ID is empty when the marker had none.
// URI is set for images whose source is known (Markdown image syntax).
type EmbedMarker struct {
	Kind EmbedKind
	ID   string
	URI  string
}

// Units is always 1: an embed fills a single placeholder position.
func (EmbedMarker) Units() int {
	return 1
}

// Token renders the marker in MEBDF syntax.
func (m EmbedMarker) Token() string {
	if m.ID == "" {
		return "{^= " + m.Kind.String() + "}"
	}
	return "{^= " + m.ID + " " + m.Kind.String() + "}"
}

// EmbedRangePrefix starts the name of the named range that records an embed
// marker in a document.
const EmbedRangePrefix = "mebdf.embed."

// RangeName is the named range name for the marker:
// mebdf.embed.<kind>[.<id>].
func (m EmbedMarker) RangeName() string {
	if m.ID == "" {
		return EmbedRangePrefix + m.Kind.String()
	}
	return EmbedRangePrefix + m.Kind.String() + "." + m.ID
}

// ParseRangeName is the inverse of RangeName.
func ParseRangeName(name string) (EmbedMarker, bool) {
	rest, ok := strings.CutPrefix(name, EmbedRangePrefix)
	if !ok {
		return EmbedMarker{}, false
	}
	kind, id, _ := strings.Cut(rest, ".")
	k, ok := ParseEmbedKind(kind)
	if !ok {
		return EmbedMarker{}, false
	}
	return EmbedMarker{Kind: k, ID: id}, true
}

// Result is the parsed form of a piece of MEBDF text.
type Result struct {
	Items []Item
	// Anchor is the heading anchor id, if the text started with one.
	Anchor string
	// Visible counts the units of text; Placeholders counts embeds.
	Visible      int
	Placeholders int
}

// Units is the total number of index units the result occupies.
func (r *Result) Units() int {
	return r.Visible + r.Placeholders
}

package decompiler

import (
	"math"
	"strings"

	"github.com/dgallion1/gdocmark/internal/fontweight"
	"github.com/dgallion1/gdocmark/internal/mebdf"
	"google.golang.org/api/docs/v1"
)

// Docs paints links in this color unless told otherwise.
const linkBlue = "#1155cc"

// styles maps a Docs text style back to the attribute set that reproduces
// it. Attributes with no MEBDF form are reported through d.dropped.
func (d *decompiler) styles(ts *docs.TextStyle) (mebdf.StyleSet, error) {
	if ts == nil {
		return nil, nil
	}
	var attrs []mebdf.Attr

	link := linkTarget(ts.Link)
	if link != "" {
		attrs = append(attrs, mebdf.Link(link))
	}
	if hex, ok := rgbHex(ts.BackgroundColor); ok {
		attrs = append(attrs, mebdf.Highlight(hex))
	}
	if ts.Underline && link == "" {
		attrs = append(attrs, mebdf.Underline())
	}
	if hex, ok := rgbHex(ts.ForegroundColor); ok && !(link != "" && hex == linkBlue) {
		attrs = append(attrs, mebdf.Color(hex))
	}
	if f := ts.WeightedFontFamily; f != nil && f.FontFamily != "" {
		a, ok, err := d.font(f, ts.Bold)
		if err != nil {
			return nil, err
		}
		if ok {
			attrs = append(attrs, a)
		}
	}
	if ts.Bold {
		attrs = append(attrs, mebdf.Bold())
	}
	if ts.Italic {
		attrs = append(attrs, mebdf.Italic())
	}

	if ts.Strikethrough {
		d.dropped["strikethrough"] = true
	}
	if ts.SmallCaps {
		d.dropped["small caps"] = true
	}
	if ts.BaselineOffset != "" && ts.BaselineOffset != "NONE" && ts.BaselineOffset != "BASELINE_OFFSET_UNSPECIFIED" {
		d.dropped["baseline offset"] = true
	}
	if ts.FontSize != nil {
		d.dropped["font size"] = true
	}
	return mebdf.NewStyleSet(attrs...), nil
}

// font picks the directive for a weighted font family. The declared weight
// is omitted when it is the default, or when bold already renders it.
func (d *decompiler) font(f *docs.WeightedFontFamily, bold bool) (mebdf.Attr, bool, error) {
	w := int(f.Weight)
	if w == 0 {
		w = fontweight.Default
	}
	if err := fontweight.Validate(w); err != nil {
		return mebdf.Attr{}, false, err
	}
	implied := w == fontweight.Default || (bold && w == fontweight.Bold)
	switch {
	case w == fontweight.Default && strings.EqualFold(f.FontFamily, d.opts.MonospaceFamily):
		return mebdf.Monospace(), true, nil
	case implied && strings.EqualFold(f.FontFamily, d.opts.DefaultFontFamily):
		return mebdf.Attr{}, false, nil
	case implied:
		return mebdf.FontWeight(f.FontFamily, fontweight.Default), true, nil
	}
	return mebdf.FontWeight(f.FontFamily, w), true, nil
}

func linkTarget(l *docs.Link) string {
	switch {
	case l == nil:
		return ""
	case l.Url != "":
		return l.Url
	case l.HeadingId != "":
		return "#" + l.HeadingId
	case l.BookmarkId != "":
		return "#" + l.BookmarkId
	}
	return ""
}

// rgbHex converts an opaque color to "#rrggbb". A color without rgb
// components is black; a missing color is transparent.
func rgbHex(oc *docs.OptionalColor) (string, bool) {
	if oc == nil || oc.Color == nil {
		return "", false
	}
	rgb := oc.Color.RgbColor
	if rgb == nil {
		return "#000000", true
	}
	const digits = "0123456789abcdef"
	out := []byte{'#', 0, 0, 0, 0, 0, 0}
	for i, c := range []float64{rgb.Red, rgb.Green, rgb.Blue} {
		v := int(math.Round(math.Max(0, math.Min(1, c)) * 255))
		out[1+2*i] = digits[v>>4]
		out[2+2*i] = digits[v&0xf]
	}
	return string(out), true
}

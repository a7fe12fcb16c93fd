package compiler

import (
	"strconv"
	"strings"

	"github.com/dgallion1/gdocmark/internal/mebdf"
	"google.golang.org/api/docs/v1"
)

// textStyle converts a style set to the Docs payload and its field mask.
// A font directive wins over mono since both set weightedFontFamily.
func textStyle(s mebdf.StyleSet, monoFamily string) (*docs.TextStyle, string) {
	ts := &docs.TextStyle{}
	var fields []string
	for _, a := range s {
		switch a.Kind {
		case mebdf.KindLink:
			ts.Link = &docs.Link{Url: a.Value}
			fields = append(fields, "link")
		case mebdf.KindHighlight:
			ts.BackgroundColor = optionalColor(a.Value)
			fields = append(fields, "backgroundColor")
		case mebdf.KindUnderline:
			ts.Underline = true
			fields = append(fields, "underline")
		case mebdf.KindColor:
			ts.ForegroundColor = optionalColor(a.Value)
			fields = append(fields, "foregroundColor")
		case mebdf.KindMonospace:
			if s.Has(mebdf.KindFontWeight) {
				continue
			}
			ts.WeightedFontFamily = &docs.WeightedFontFamily{FontFamily: monoFamily, Weight: 400}
			fields = append(fields, "weightedFontFamily")
		case mebdf.KindFontWeight:
			ts.WeightedFontFamily = &docs.WeightedFontFamily{FontFamily: a.Value, Weight: int64(a.Weight)}
			fields = append(fields, "weightedFontFamily")
		case mebdf.KindBold:
			ts.Bold = true
			fields = append(fields, "bold")
		case mebdf.KindItalic:
			ts.Italic = true
			fields = append(fields, "italic")
		}
	}
	return ts, strings.Join(fields, ",")
}

// optionalColor converts a canonical "#rrggbb" color.
func optionalColor(hex string) *docs.OptionalColor {
	channel := func(i int) float64 {
		v, err := strconv.ParseUint(hex[i:i+2], 16, 8)
		if err != nil {
			return 0
		}
		return float64(v) / 255
	}
	if len(hex) != 7 {
		return &docs.OptionalColor{}
	}
	return &docs.OptionalColor{Color: &docs.Color{RgbColor: &docs.RgbColor{
		Red:   channel(1),
		Green: channel(3),
		Blue:  channel(5),
	}}}
}

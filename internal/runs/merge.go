// Package runs lays parsed items out at document offsets and coalesces
// them into minimal, non-overlapping style ranges.
package runs

import (
	"github.com/dgallion1/gdocmark/internal/fontweight"
	"github.com/dgallion1/gdocmark/internal/mebdf"
	"github.com/dgallion1/gdocmark/internal/offset"
)

// StyleRange is a half-open [Start, End) range sharing one style. Styles may
// be empty: unstyled text is its own bucket.
type StyleRange struct {
	Start  int
	End    int
	Styles mebdf.StyleSet
}

// EmbedAt is an embed marker placed at a document offset.
type EmbedAt struct {
	Offset int
	Marker mebdf.EmbedMarker
}

// Layout is the result of Merge.
type Layout struct {
	Ranges []StyleRange
	Embeds []EmbedAt
	// End is the offset just past the last item.
	End int
}

// Merge places items from start onwards. Adjacent runs with equal style
// sets share a range; a style change or an embed ends the current range.
// Runs that declare different weights stay apart even when they render
// alike, so every range carries the weight its text declared.
func Merge(items []mebdf.Item, start int) (*Layout, error) {
	tr := offset.NewTracker(start)
	out := &Layout{}
	cur := -1 // index of the range still open for extension

	for _, it := range items {
		switch it := it.(type) {
		case mebdf.TextRun:
			if it.Text == "" {
				continue
			}
			if fw, ok := it.Styles.Get(mebdf.KindFontWeight); ok {
				if err := fontweight.Validate(fw.Weight); err != nil {
					return nil, err
				}
			}
			s, e := tr.Advance(it.Text)
			if cur >= 0 && out.Ranges[cur].End == s && it.Styles.Equal(out.Ranges[cur].Styles) {
				out.Ranges[cur].End = e
				continue
			}
			out.Ranges = append(out.Ranges, StyleRange{Start: s, End: e, Styles: it.Styles})
			cur = len(out.Ranges) - 1
		case mebdf.EmbedMarker:
			s, _ := tr.AdvanceUnits(it.Units())
			out.Embeds = append(out.Embeds, EmbedAt{Offset: s, Marker: it})
			cur = -1
		}
	}
	out.End = tr.Pos()
	return out, nil
}

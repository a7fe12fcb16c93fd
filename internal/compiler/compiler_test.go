package compiler

import (
	"errors"
	"regexp"
	"strings"
	"testing"
	"unicode/utf16"

	"github.com/dgallion1/gdocmark/internal/anchor"
	"github.com/dgallion1/gdocmark/internal/fontweight"
	"github.com/dgallion1/gdocmark/internal/mebdf"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/api/docs/v1"
)

func compile(t *testing.T, src string, opts Options) *Batch {
	t.Helper()
	b, err := Compile([]byte(src), opts)
	require.NoError(t, err)
	return b
}

func inserts(b *Batch) []*docs.InsertTextRequest {
	var out []*docs.InsertTextRequest
	for _, r := range b.Requests {
		if r.InsertText != nil {
			out = append(out, r.InsertText)
		}
	}
	return out
}

func textStyles(b *Batch) []*docs.UpdateTextStyleRequest {
	var out []*docs.UpdateTextStyleRequest
	for _, r := range b.Requests {
		if r.UpdateTextStyle != nil {
			out = append(out, r.UpdateTextStyle)
		}
	}
	return out
}

func namedRanges(b *Batch) []*docs.CreateNamedRangeRequest {
	var out []*docs.CreateNamedRangeRequest
	for _, r := range b.Requests {
		if r.CreateNamedRange != nil {
			out = append(out, r.CreateNamedRange)
		}
	}
	return out
}

func utf16Units(s string) []uint16 {
	return utf16.Encode([]rune(s))
}

func span(r *docs.Range) [2]int64 {
	return [2]int64{r.StartIndex, r.EndIndex}
}

func TestCompile_BoldParagraph(t *testing.T) {
	b := compile(t, "Hello **world**\n", Options{})
	require.Len(t, b.Requests, 2)

	ins := b.Requests[0].InsertText
	require.NotNil(t, ins)
	assert.Equal(t, int64(1), ins.Location.Index)
	assert.Equal(t, "Hello world\n", ins.Text)

	st := b.Requests[1].UpdateTextStyle
	require.NotNil(t, st)
	assert.Equal(t, [2]int64{7, 12}, span(st.Range))
	assert.True(t, st.TextStyle.Bold)
	assert.Equal(t, "bold", st.Fields)
	assert.Equal(t, 13, b.End)
}

func TestCompile_HeadingAnchor(t *testing.T) {
	b := compile(t, "# {^ h.abc} Title\n\nBody text\n", Options{})

	ins := inserts(b)
	require.Len(t, ins, 2)
	assert.Equal(t, "Title\n", ins[0].Text)
	assert.Equal(t, int64(7), ins[1].Location.Index)
	assert.Equal(t, "Body text\n", ins[1].Text)

	var para *docs.UpdateParagraphStyleRequest
	for _, r := range b.Requests {
		if r.UpdateParagraphStyle != nil {
			para = r.UpdateParagraphStyle
		}
	}
	require.NotNil(t, para)
	assert.Equal(t, "HEADING_1", para.ParagraphStyle.NamedStyleType)
	assert.Equal(t, [2]int64{1, 7}, span(para.Range))

	nr := namedRanges(b)
	require.Len(t, nr, 1)
	assert.Equal(t, "h.abc", nr[0].Name)
	assert.Equal(t, [2]int64{1, 6}, span(nr[0].Range))
}

func TestCompile_NestingUnion(t *testing.T) {
	b := compile(t, "{!highlight:yellow}a{!underline}b{/!}c{/!}\n", Options{})
	require.Equal(t, "abc\n", inserts(b)[0].Text)

	st := textStyles(b)
	require.Len(t, st, 3)
	assert.Equal(t, [2]int64{1, 2}, span(st[0].Range))
	assert.Equal(t, "backgroundColor", st[0].Fields)
	assert.Equal(t, [2]int64{2, 3}, span(st[1].Range))
	assert.Equal(t, "backgroundColor,underline", st[1].Fields)
	assert.True(t, st[1].TextStyle.Underline)
	assert.Equal(t, [2]int64{3, 4}, span(st[2].Range))

	rgb := st[0].TextStyle.BackgroundColor.Color.RgbColor
	assert.Equal(t, 1.0, rgb.Red)
	assert.Equal(t, 1.0, rgb.Green)
	assert.Equal(t, 0.0, rgb.Blue)
}

func TestCompile_ResolvedImageEmbed(t *testing.T) {
	opts := Options{ImageURI: func(id string) (string, bool) {
		return "https://img.example/" + id + ".png", true
	}}
	b := compile(t, "x {^= img_001 image} y\n", opts)
	require.Len(t, b.Requests, 4)

	assert.Equal(t, "x "+mebdf.Placeholder+" y\n", b.Requests[0].InsertText.Text)

	del := b.Requests[1].DeleteContentRange
	require.NotNil(t, del)
	assert.Equal(t, [2]int64{3, 4}, span(del.Range))

	img := b.Requests[2].InsertInlineImage
	require.NotNil(t, img)
	assert.Equal(t, int64(3), img.Location.Index)
	assert.Equal(t, "https://img.example/img_001.png", img.Uri)

	nr := b.Requests[3].CreateNamedRange
	require.NotNil(t, nr)
	assert.Equal(t, "mebdf.embed.image.img_001", nr.Name)
	assert.Equal(t, [2]int64{3, 4}, span(nr.Range))
}

func TestCompile_PlaceholderEmbeds(t *testing.T) {
	b := compile(t, "{^= equation} and {^= c1 chart}\n", Options{})
	assert.Equal(t, mebdf.Placeholder+" and "+mebdf.Placeholder+"\n", inserts(b)[0].Text)

	nr := namedRanges(b)
	require.Len(t, nr, 2)
	assert.Equal(t, "mebdf.embed.equation", nr[0].Name)
	assert.Equal(t, [2]int64{1, 2}, span(nr[0].Range))
	assert.Equal(t, "mebdf.embed.chart.c1", nr[1].Name)
	assert.Equal(t, [2]int64{7, 8}, span(nr[1].Range))

	for _, r := range b.Requests {
		assert.Nil(t, r.InsertInlineImage)
	}
}

func TestCompile_MarkdownImage(t *testing.T) {
	b := compile(t, "![logo](https://img.example/logo.png)\n", Options{})
	require.Len(t, b.Requests, 3)
	assert.Equal(t, mebdf.Placeholder+"\n", b.Requests[0].InsertText.Text)
	assert.Equal(t, "https://img.example/logo.png", b.Requests[2].InsertInlineImage.Uri)
	assert.Empty(t, namedRanges(b))
}

func TestCompile_Lists(t *testing.T) {
	b := compile(t, "- a\n  - b\n- c\n", Options{})

	ins := inserts(b)
	require.Len(t, ins, 3)
	assert.Equal(t, "a\n", ins[0].Text)
	assert.Equal(t, int64(3), ins[1].Location.Index)
	assert.Equal(t, "\tb\n", ins[1].Text)
	assert.Equal(t, int64(6), ins[2].Location.Index)
	assert.Equal(t, "c\n", ins[2].Text)

	last := b.Requests[len(b.Requests)-1].CreateParagraphBullets
	require.NotNil(t, last)
	assert.Equal(t, [2]int64{1, 8}, span(last.Range))
	assert.Equal(t, BulletPreset, last.BulletPreset)
}

func TestCompile_ListsBulletedLastListFirst(t *testing.T) {
	b := compile(t, "1. one\n2. two\n\nbetween\n\n- x\n", Options{})

	var got []*docs.CreateParagraphBulletsRequest
	for _, r := range b.Requests {
		if r.CreateParagraphBullets != nil {
			got = append(got, r.CreateParagraphBullets)
		}
	}
	require.Len(t, got, 2)
	assert.Equal(t, BulletPreset, got[0].BulletPreset)
	assert.Equal(t, [2]int64{17, 19}, span(got[0].Range))
	assert.Equal(t, NumberedPreset, got[1].BulletPreset)
	assert.Equal(t, [2]int64{1, 9}, span(got[1].Range))
}

func TestCompile_MixedNestedListsWarn(t *testing.T) {
	b := compile(t, "1. a\n   - b\n2. c\n", Options{})
	require.Len(t, b.Warnings, 1)
	assert.Equal(t, "[3,6): bulleted list nested in numbered list takes the outer list's bullets", b.Warnings[0])

	last := b.Requests[len(b.Requests)-1].CreateParagraphBullets
	require.NotNil(t, last)
	assert.Equal(t, NumberedPreset, last.BulletPreset)
	assert.Equal(t, [2]int64{1, 8}, span(last.Range))

	b = compile(t, "- a\n  1. b\n", Options{})
	require.Len(t, b.Warnings, 1)
	assert.Contains(t, b.Warnings[0], "numbered list nested in bulleted list")

	b = compile(t, "- a\n  - b\n", Options{})
	assert.Empty(t, b.Warnings)
}

func TestCompile_CodeAndLinks(t *testing.T) {
	b := compile(t, "use `a{!b}` and [site](https://x.example)\n", Options{})
	assert.Equal(t, "use a{!b} and site\n", inserts(b)[0].Text)

	st := textStyles(b)
	require.Len(t, st, 2)
	assert.Equal(t, [2]int64{5, 10}, span(st[0].Range))
	assert.Equal(t, DefaultMonospaceFamily, st[0].TextStyle.WeightedFontFamily.FontFamily)
	assert.Equal(t, int64(400), st[0].TextStyle.WeightedFontFamily.Weight)
	assert.Equal(t, [2]int64{15, 19}, span(st[1].Range))
	assert.Equal(t, "https://x.example", st[1].TextStyle.Link.Url)
	assert.Equal(t, "link", st[1].Fields)
}

func TestCompile_CodeBlock(t *testing.T) {
	b := compile(t, "```\nx := 1\n\ny()\n```\n", Options{})
	ins := inserts(b)
	require.Len(t, ins, 3)
	assert.Equal(t, "x := 1\n", ins[0].Text)
	assert.Equal(t, "\n", ins[1].Text)
	assert.Equal(t, "y()\n", ins[2].Text)
	assert.Len(t, textStyles(b), 2)
}

func TestCompile_EscapesAndBreaks(t *testing.T) {
	b := compile(t, "\\{!mono} x \\*y\\* &amp;\\\nnext\nline\n", Options{})
	require.Len(t, b.Requests, 1)
	assert.Equal(t, "{!mono} x *y* &\vnext line\n", b.Requests[0].InsertText.Text)
}

func TestCompile_FontDirective(t *testing.T) {
	src := "{!font:Roboto:300}x{/!} **{!font:Roboto:300}y{/!}** {!font:Comic Neue:500}z{/!}\n"
	b := compile(t, src, Options{Catalog: fontweight.KnownFamilies})

	st := textStyles(b)
	require.Len(t, st, 3)
	assert.Equal(t, &docs.WeightedFontFamily{FontFamily: "Roboto", Weight: 300}, st[0].TextStyle.WeightedFontFamily)
	assert.False(t, st[0].TextStyle.Bold)
	assert.True(t, st[1].TextStyle.Bold)
	assert.Equal(t, "weightedFontFamily,bold", st[1].Fields)
	assert.Equal(t, "Comic Neue", st[2].TextStyle.WeightedFontFamily.FontFamily)

	require.Len(t, b.Warnings, 2)
	assert.Contains(t, b.Warnings[0], "renders at 400")
	assert.Contains(t, b.Warnings[1], `"Comic Neue"`)
}

func TestCompile_AdjacentFontsKeepDeclaredWeights(t *testing.T) {
	b := compile(t, "**{!font:Roboto}a{/!}{!font:Roboto:500}b{/!}**\n", Options{})

	st := textStyles(b)
	require.Len(t, st, 2)
	assert.Equal(t, [2]int64{1, 2}, span(st[0].Range))
	assert.Equal(t, int64(400), st[0].TextStyle.WeightedFontFamily.Weight)
	assert.Equal(t, [2]int64{2, 3}, span(st[1].Range))
	assert.Equal(t, int64(500), st[1].TextStyle.WeightedFontFamily.Weight)

	require.Len(t, b.Warnings, 1)
	assert.Contains(t, b.Warnings[0], "weight 500 renders at 700")
}

func TestCompile_FontOverridesMono(t *testing.T) {
	b := compile(t, "{!mono, font:Roboto Mono:500}x{/!}\n", Options{})
	st := textStyles(b)
	require.Len(t, st, 1)
	assert.Equal(t, "weightedFontFamily", st[0].Fields)
	assert.Equal(t, "Roboto Mono", st[0].TextStyle.WeightedFontFamily.FontFamily)
}

var generatedID = regexp.MustCompile(`^h\.[0-9a-f]{12}$`)

func TestCompile_GeneratedAnchors(t *testing.T) {
	src := "# One\n\n## {^ h.keep} Two\n\n### Three\n\ntext\n"
	b := compile(t, src, Options{GenerateAnchors: true})

	nr := namedRanges(b)
	require.Len(t, nr, 3)
	assert.Regexp(t, generatedID, nr[0].Name)
	assert.Equal(t, "h.keep", nr[1].Name)
	assert.Regexp(t, generatedID, nr[2].Name)
	assert.NotEqual(t, nr[0].Name, nr[2].Name)

	again := namedRanges(compile(t, src, Options{GenerateAnchors: true}))
	assert.Equal(t, nr[0].Name, again[0].Name)
	assert.Equal(t, nr[2].Name, again[2].Name)
}

func TestCompile_EmptyHeadingAnchorCoversNewline(t *testing.T) {
	b := compile(t, "# {^ h.empty}\n", Options{})
	nr := namedRanges(b)
	require.Len(t, nr, 1)
	assert.Equal(t, [2]int64{1, 2}, span(nr[0].Range))
}

func TestCompile_Errors(t *testing.T) {
	tests := []struct {
		name  string
		src   string
		check func(t *testing.T, err error)
	}{
		{"unterminated span", "{!underline}unterminated\n", func(t *testing.T, err error) {
			var e *mebdf.MalformedSpanError
			require.True(t, errors.As(err, &e))
			assert.Equal(t, 0, e.Offset)
		}},
		{"unknown directive inside emphasis", "**{!blink}x{/!}**\n", func(t *testing.T, err error) {
			var e *mebdf.UnknownDirectiveError
			require.True(t, errors.As(err, &e))
			assert.Equal(t, 4, e.Offset)
		}},
		{"bad color", "para\n\n{!color:#12}x{/!}\n", func(t *testing.T, err error) {
			var e *mebdf.InvalidDirectiveArgumentError
			require.True(t, errors.As(err, &e))
			assert.Equal(t, 8, e.Offset)
		}},
		{"bad weight", "{!font:Arial:450}x{/!}\n", func(t *testing.T, err error) {
			var e *fontweight.InvalidWeightError
			require.True(t, errors.As(err, &e))
			assert.Equal(t, 450, e.Weight)
		}},
		{"anchor outside heading", "text {^ h.abc} more\n", func(t *testing.T, err error) {
			var e *mebdf.MalformedSpanError
			require.True(t, errors.As(err, &e))
			assert.Equal(t, 5, e.Offset)
		}},
		{"span across paragraphs", "{!mono}a\n\nb{/!}\n", func(t *testing.T, err error) {
			var e *mebdf.MalformedSpanError
			require.True(t, errors.As(err, &e))
			assert.Equal(t, 0, e.Offset)
		}},
		{"duplicate anchor", "# {^ h.a} One\n\n# {^ h.a} Two\n", func(t *testing.T, err error) {
			var e *anchor.DuplicateAnchorError
			require.True(t, errors.As(err, &e))
			assert.Equal(t, "h.a", e.ID)
		}},
		{"thematic break", "para\n\n***\n", func(t *testing.T, err error) {
			var e *UnsupportedStructureError
			require.True(t, errors.As(err, &e))
			assert.Equal(t, "thematic break", e.Construct)
		}},
		{"block quote", "> quoted\n", func(t *testing.T, err error) {
			var e *UnsupportedStructureError
			require.True(t, errors.As(err, &e))
			assert.Equal(t, "block quote", e.Construct)
			assert.Equal(t, 2, e.Offset)
		}},
		{"raw html", "a <b>bold</b>\n", func(t *testing.T, err error) {
			var e *UnsupportedStructureError
			require.True(t, errors.As(err, &e))
			assert.Equal(t, 2, e.Offset)
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b, err := Compile([]byte(tt.src), Options{})
			require.Error(t, err)
			assert.Nil(t, b)
			tt.check(t, err)
		})
	}
}

const richDoc = `# {^ h.intro} Intro with **bold** text

Plain {!highlight:#ff0, color:navy}styled {!underline}nested{/!} span{/!} and *italic*.

- first {^= img_1 image}
- second with ` + "`code`" + `
  1. deep {!mono}mono{/!}

## Sub 😀 heading

{!font:Lato:300}light{/!} then **{!font:Lato:900}black{/!}** and {^= equation}.
`

func TestCompile_OffsetsMonotonicAndRangesDisjoint(t *testing.T) {
	b := compile(t, richDoc, Options{GenerateAnchors: true})

	next := int64(1)
	for _, ins := range inserts(b) {
		assert.Equal(t, next, ins.Location.Index, "insert %q", ins.Text)
		next += int64(len(utf16Units(ins.Text)))
	}
	assert.Equal(t, int64(b.End), next)

	st := textStyles(b)
	require.NotEmpty(t, st)
	for i, a := range st {
		assert.Less(t, a.Range.StartIndex, a.Range.EndIndex)
		for _, o := range st[i+1:] {
			overlap := a.Range.StartIndex < o.Range.EndIndex && o.Range.StartIndex < a.Range.EndIndex
			assert.False(t, overlap, "%v overlaps %v", span(a.Range), span(o.Range))
		}
	}

	// Every style range sits inside inserted text and never covers a newline.
	var all strings.Builder
	for _, ins := range inserts(b) {
		all.WriteString(ins.Text)
	}
	units := utf16Units(all.String())
	for _, a := range st {
		for i := a.Range.StartIndex; i < a.Range.EndIndex; i++ {
			assert.NotEqual(t, uint16('\n'), units[i-1])
		}
	}
}

func TestBatch_UpdateRequest(t *testing.T) {
	b := compile(t, "x\n", Options{})
	req := b.UpdateRequest()
	assert.Equal(t, b.Requests, req.Requests)
}

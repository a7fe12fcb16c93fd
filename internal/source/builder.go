package source

import (
	"fmt"
	"strings"

	"github.com/dgallion1/gdocmark/internal/docsim"
	"github.com/dgallion1/gdocmark/internal/mebdf"
	"github.com/dgallion1/gdocmark/internal/offset"
	"google.golang.org/api/docs/v1"
)

// Run is a piece of styled text, or an image when Image is set.
type Run struct {
	Text  string
	Style *docs.TextStyle
	Image string
}

// Bullet marks a list paragraph.
type Bullet struct {
	Ordered bool
	Level   int
}

// Paragraph is one paragraph of a document being assembled.
type Paragraph struct {
	NamedStyle string // NORMAL_TEXT when empty
	HeadingID  string
	Bullet     *Bullet
	Runs       []Run
}

func (p *Paragraph) empty() bool {
	for _, r := range p.Runs {
		if r.Image != "" || strings.TrimSpace(r.Text) != "" {
			return false
		}
	}
	return true
}

// Builder assembles paragraphs into a document by replaying the matching
// batchUpdate requests on an in-memory document, so indices, lists and
// inline objects come out exactly as the Docs API would report them.
type Builder struct {
	paras []Paragraph
}

// Add appends p unless it holds no text.
func (b *Builder) Add(p Paragraph) {
	if p.empty() {
		return
	}
	b.paras = append(b.paras, p)
}

// Len is the number of paragraphs added.
func (b *Builder) Len() int {
	return len(b.paras)
}

// Document builds the document.
func (b *Builder) Document(id, title string) (*docs.Document, error) {
	d := docsim.New()
	if len(b.paras) > 0 {
		if err := d.Apply(b.requests()); err != nil {
			return nil, fmt.Errorf("build document: %w", err)
		}
	}
	doc := d.Render(id, title)

	i := 0
	for _, el := range doc.Body.Content {
		if el.Paragraph == nil || i >= len(b.paras) {
			continue
		}
		if h := b.paras[i].HeadingID; h != "" {
			el.Paragraph.ParagraphStyle.HeadingId = h
		}
		i++
	}
	return doc, nil
}

type bulletGroup struct {
	start, end int
	ordered    bool
}

func (b *Builder) requests() []*docs.Request {
	var (
		text   strings.Builder
		styles []*docs.Request
		images []*docs.Request
		paras  []*docs.Request
		groups []bulletGroup
	)
	idx := 1
	inList := false
	for _, p := range b.paras {
		start := idx
		if p.Bullet != nil {
			tabs := strings.Repeat("\t", p.Bullet.Level)
			text.WriteString(tabs)
			idx += len(tabs)
		}
		for _, r := range p.Runs {
			if r.Image != "" {
				text.WriteString(mebdf.Placeholder)
				images = append(images,
					&docs.Request{DeleteContentRange: &docs.DeleteContentRangeRequest{Range: docRange(idx, idx+1)}},
					&docs.Request{InsertInlineImage: &docs.InsertInlineImageRequest{
						Location: &docs.Location{Index: int64(idx)}, Uri: r.Image,
					}},
				)
				idx++
				continue
			}
			t := clean(r.Text)
			n := offset.Units(t)
			if fields := styleFields(r.Style); n > 0 && fields != "" {
				styles = append(styles, &docs.Request{UpdateTextStyle: &docs.UpdateTextStyleRequest{
					Range: docRange(idx, idx+n), TextStyle: r.Style, Fields: fields,
				}})
			}
			text.WriteString(t)
			idx += n
		}
		text.WriteString("\n")
		idx++

		if p.NamedStyle != "" && p.NamedStyle != "NORMAL_TEXT" {
			paras = append(paras, &docs.Request{UpdateParagraphStyle: &docs.UpdateParagraphStyleRequest{
				Range:          docRange(start, idx),
				ParagraphStyle: &docs.ParagraphStyle{NamedStyleType: p.NamedStyle},
				Fields:         "namedStyleType",
			}})
		}
		switch {
		case p.Bullet != nil && inList:
			groups[len(groups)-1].end = idx
		case p.Bullet != nil:
			groups = append(groups, bulletGroup{start: start, end: idx, ordered: p.Bullet.Ordered})
			inList = true
		default:
			inList = false
		}
	}

	reqs := []*docs.Request{{InsertText: &docs.InsertTextRequest{
		Location: &docs.Location{Index: 1}, Text: text.String(),
	}}}
	reqs = append(reqs, styles...)
	reqs = append(reqs, paras...)
	reqs = append(reqs, images...)
	for i := len(groups) - 1; i >= 0; i-- {
		g := groups[i]
		preset := "BULLET_DISC_CIRCLE_SQUARE"
		if g.ordered {
			preset = "NUMBERED_DECIMAL_ALPHA_ROMAN"
		}
		reqs = append(reqs, &docs.Request{CreateParagraphBullets: &docs.CreateParagraphBulletsRequest{
			Range: docRange(g.start, g.end), BulletPreset: preset,
		}})
	}
	return reqs
}

func docRange(s, e int) *docs.Range {
	return &docs.Range{StartIndex: int64(s), EndIndex: int64(e)}
}

var newlines = strings.NewReplacer("\r\n", " ", "\n", " ", "\r", " ", mebdf.Placeholder, "")

func clean(s string) string {
	return newlines.Replace(s)
}

// styleFields is the updateTextStyle field mask for the set fields of ts.
func styleFields(ts *docs.TextStyle) string {
	if ts == nil {
		return ""
	}
	var f []string
	add := func(set bool, name string) {
		if set {
			f = append(f, name)
		}
	}
	add(ts.Bold, "bold")
	add(ts.Italic, "italic")
	add(ts.Underline, "underline")
	add(ts.Strikethrough, "strikethrough")
	add(ts.SmallCaps, "smallCaps")
	add(ts.BackgroundColor != nil, "backgroundColor")
	add(ts.ForegroundColor != nil, "foregroundColor")
	add(ts.WeightedFontFamily != nil, "weightedFontFamily")
	add(ts.Link != nil, "link")
	add(ts.BaselineOffset != "", "baselineOffset")
	return strings.Join(f, ",")
}

// Package docsim applies Docs batchUpdate requests to an in-memory document
// and renders the result in the shape documents.get returns. It covers the
// requests the compiler emits, with the index arithmetic of the real API:
// UTF-16 code units, body content starting at index 1, a final newline that
// can never be removed.
package docsim

import (
	"encoding/json"
	"fmt"
	"slices"
	"strings"
	"unicode/utf16"

	"google.golang.org/api/docs/v1"
)

const (
	newline     = '\n'
	placeholder = 0xFFFC
)

type unit struct {
	c      uint16
	style  *docs.TextStyle
	object string     // inline object id; c is placeholder
	para   *paraProps // set on newline units only
}

type paraProps struct {
	namedStyle string
	bullet     *docs.Bullet
}

type namedRange struct {
	id         string
	name       string
	start, end int // document indices
}

// Document is a single-segment document body. The zero value is not usable;
// call New.
type Document struct {
	units   []unit
	ranges  []namedRange
	objects map[string]*docs.InlineObject
	lists   map[string]docs.List
	nextID  int
}

// New returns an empty document: a single empty paragraph.
func New() *Document {
	return &Document{
		units:   []unit{{c: newline, para: &paraProps{}}},
		objects: map[string]*docs.InlineObject{},
		lists:   map[string]docs.List{},
	}
}

// RequestError reports the request of a batch that could not be applied.
type RequestError struct {
	Index int
	Err   error
}

func (e *RequestError) Error() string {
	return fmt.Sprintf("request %d: %v", e.Index, e.Err)
}

func (e *RequestError) Unwrap() error {
	return e.Err
}

// Apply runs the requests in order. Like documents.batchUpdate it is
// atomic: when a request fails the document is left unchanged.
func (d *Document) Apply(reqs []*docs.Request) error {
	work := d.clone()
	for i, r := range reqs {
		if err := work.apply(r); err != nil {
			return &RequestError{Index: i, Err: err}
		}
	}
	*d = *work
	return nil
}

func (d *Document) clone() *Document {
	c := &Document{
		units:   slices.Clone(d.units),
		ranges:  slices.Clone(d.ranges),
		objects: make(map[string]*docs.InlineObject, len(d.objects)),
		lists:   make(map[string]docs.List, len(d.lists)),
		nextID:  d.nextID,
	}
	for k, v := range d.objects {
		c.objects[k] = v
	}
	for k, v := range d.lists {
		c.lists[k] = v
	}
	// Paragraph props are mutated in place, so they are copied.
	for i := range c.units {
		if p := c.units[i].para; p != nil {
			cp := *p
			c.units[i].para = &cp
		}
	}
	return c
}

func (d *Document) apply(r *docs.Request) error {
	switch {
	case r.InsertText != nil:
		return d.insertText(r.InsertText)
	case r.UpdateTextStyle != nil:
		return d.updateTextStyle(r.UpdateTextStyle)
	case r.UpdateParagraphStyle != nil:
		return d.updateParagraphStyle(r.UpdateParagraphStyle)
	case r.CreateNamedRange != nil:
		return d.createNamedRange(r.CreateNamedRange)
	case r.DeleteContentRange != nil:
		return d.deleteContentRange(r.DeleteContentRange)
	case r.InsertInlineImage != nil:
		return d.insertInlineImage(r.InsertInlineImage)
	case r.CreateParagraphBullets != nil:
		return d.createParagraphBullets(r.CreateParagraphBullets)
	case r.DeleteParagraphBullets != nil:
		return d.deleteParagraphBullets(r.DeleteParagraphBullets)
	}
	return fmt.Errorf("unsupported request %s", requestKind(r))
}

func requestKind(r *docs.Request) string {
	b, err := json.Marshal(r)
	if err != nil {
		return "?"
	}
	var m map[string]json.RawMessage
	if json.Unmarshal(b, &m) != nil || len(m) == 0 {
		return "(empty)"
	}
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return strings.Join(keys, ",")
}

// end is the index just past the final newline.
func (d *Document) end() int {
	return len(d.units) + 1
}

func (d *Document) checkRange(r *docs.Range) (int, int, error) {
	if r == nil {
		return 0, 0, fmt.Errorf("missing range")
	}
	s, e := int(r.StartIndex), int(r.EndIndex)
	if s < 1 || e > d.end() || s >= e {
		return 0, 0, fmt.Errorf("invalid range [%d,%d) for document ending at %d", s, e, d.end())
	}
	return s, e, nil
}

// insertUnits inserts at document index at. Named ranges that start at or
// after the index move; ranges spanning it grow.
func (d *Document) insertUnits(at int, us []unit) {
	i := at - 1
	d.units = slices.Insert(d.units, i, us...)
	n := len(us)
	for k := range d.ranges {
		r := &d.ranges[k]
		switch {
		case r.start >= at:
			r.start += n
			r.end += n
		case r.end > at:
			r.end += n
		}
	}
}

func (d *Document) insertText(req *docs.InsertTextRequest) error {
	if req.Location == nil {
		return fmt.Errorf("insertText: missing location")
	}
	at := int(req.Location.Index)
	if at < 1 || at >= d.end() {
		return fmt.Errorf("insertText: index %d outside [1,%d)", at, d.end())
	}
	if req.Text == "" {
		return nil
	}
	// New paragraphs take the props of the paragraph the text lands in.
	props := d.paragraphAt(at)
	codes := utf16.Encode([]rune(req.Text))
	us := make([]unit, len(codes))
	for k, c := range codes {
		us[k] = unit{c: c}
		if c == newline {
			cp := *props
			us[k].para = &cp
		}
	}
	d.insertUnits(at, us)
	return nil
}

// paragraphAt returns the props of the paragraph containing index at.
func (d *Document) paragraphAt(at int) *paraProps {
	for i := at - 1; i < len(d.units); i++ {
		if d.units[i].c == newline {
			return d.units[i].para
		}
	}
	return &paraProps{}
}

func (d *Document) updateTextStyle(req *docs.UpdateTextStyleRequest) error {
	s, e, err := d.checkRange(req.Range)
	if err != nil {
		return fmt.Errorf("updateTextStyle: %w", err)
	}
	if req.TextStyle == nil {
		return fmt.Errorf("updateTextStyle: missing textStyle")
	}
	fields := strings.Split(req.Fields, ",")
	updated := map[*docs.TextStyle]*docs.TextStyle{}
	for i := s - 1; i < e-1; i++ {
		old := d.units[i].style
		if ns, ok := updated[old]; ok {
			d.units[i].style = ns
			continue
		}
		ns := &docs.TextStyle{}
		if old != nil {
			*ns = *old
		}
		if err := applyFields(ns, req.TextStyle, fields); err != nil {
			return fmt.Errorf("updateTextStyle: %w", err)
		}
		updated[old] = ns
		d.units[i].style = ns
	}
	return nil
}

func applyFields(dst, src *docs.TextStyle, fields []string) error {
	for _, f := range fields {
		switch strings.TrimSpace(f) {
		case "*":
			*dst = *src
		case "bold":
			dst.Bold = src.Bold
		case "italic":
			dst.Italic = src.Italic
		case "underline":
			dst.Underline = src.Underline
		case "strikethrough":
			dst.Strikethrough = src.Strikethrough
		case "smallCaps":
			dst.SmallCaps = src.SmallCaps
		case "backgroundColor":
			dst.BackgroundColor = src.BackgroundColor
		case "foregroundColor":
			dst.ForegroundColor = src.ForegroundColor
		case "fontSize":
			dst.FontSize = src.FontSize
		case "weightedFontFamily":
			dst.WeightedFontFamily = src.WeightedFontFamily
		case "link":
			dst.Link = src.Link
		case "baselineOffset":
			dst.BaselineOffset = src.BaselineOffset
		case "":
			return fmt.Errorf("empty field mask")
		default:
			return fmt.Errorf("unsupported text style field %q", f)
		}
	}
	return nil
}

// paragraphEnds returns the unit indices of the newlines ending paragraphs
// that overlap [s, e).
func (d *Document) paragraphEnds(s, e int) []int {
	var out []int
	for i := s - 1; i < len(d.units); i++ {
		if d.units[i].c != newline {
			continue
		}
		out = append(out, i)
		if i >= e-2 {
			break
		}
	}
	return out
}

func (d *Document) updateParagraphStyle(req *docs.UpdateParagraphStyleRequest) error {
	s, e, err := d.checkRange(req.Range)
	if err != nil {
		return fmt.Errorf("updateParagraphStyle: %w", err)
	}
	if req.ParagraphStyle == nil {
		return fmt.Errorf("updateParagraphStyle: missing paragraphStyle")
	}
	for _, f := range strings.Split(req.Fields, ",") {
		if f = strings.TrimSpace(f); f != "namedStyleType" && f != "*" {
			return fmt.Errorf("updateParagraphStyle: unsupported field %q", f)
		}
	}
	for _, i := range d.paragraphEnds(s, e) {
		d.units[i].para.namedStyle = req.ParagraphStyle.NamedStyleType
	}
	return nil
}

func (d *Document) deleteParagraphBullets(req *docs.DeleteParagraphBulletsRequest) error {
	s, e, err := d.checkRange(req.Range)
	if err != nil {
		return fmt.Errorf("deleteParagraphBullets: %w", err)
	}
	for _, i := range d.paragraphEnds(s, e) {
		d.units[i].para.bullet = nil
	}
	return nil
}

func (d *Document) newID(prefix string) string {
	d.nextID++
	return fmt.Sprintf("%s.%d", prefix, d.nextID)
}

func (d *Document) createNamedRange(req *docs.CreateNamedRangeRequest) error {
	s, e, err := d.checkRange(req.Range)
	if err != nil {
		return fmt.Errorf("createNamedRange: %w", err)
	}
	if req.Name == "" || len(req.Name) > 256 {
		return fmt.Errorf("createNamedRange: name must be 1 to 256 characters")
	}
	d.ranges = append(d.ranges, namedRange{id: d.newID("kix"), name: req.Name, start: s, end: e})
	return nil
}

func (d *Document) deleteContentRange(req *docs.DeleteContentRangeRequest) error {
	s, e, err := d.checkRange(req.Range)
	if err != nil {
		return fmt.Errorf("deleteContentRange: %w", err)
	}
	if e == d.end() {
		return fmt.Errorf("deleteContentRange: cannot delete the final newline")
	}
	d.deleteUnits(s, e)
	return nil
}

// deleteUnits removes [s, e). Named ranges shrink and disappear once empty.
func (d *Document) deleteUnits(s, e int) {
	// A deleted newline merges its paragraph into the next; the merged
	// paragraph keeps the props of the first.
	var firstProps *paraProps
	for i := s - 1; i < e-1; i++ {
		if d.units[i].c == newline {
			firstProps = d.units[i].para
			break
		}
	}
	d.units = slices.Delete(d.units, s-1, e-1)
	if firstProps != nil {
		for i := s - 1; i < len(d.units); i++ {
			if d.units[i].c == newline {
				d.units[i].para = firstProps
				break
			}
		}
	}

	n := e - s
	clamp := func(x int) int {
		switch {
		case x >= e:
			return x - n
		case x > s:
			return s
		}
		return x
	}
	kept := d.ranges[:0]
	for _, r := range d.ranges {
		r.start, r.end = clamp(r.start), clamp(r.end)
		if r.start < r.end {
			kept = append(kept, r)
		}
	}
	d.ranges = kept
}

func (d *Document) insertInlineImage(req *docs.InsertInlineImageRequest) error {
	if req.Location == nil {
		return fmt.Errorf("insertInlineImage: missing location")
	}
	at := int(req.Location.Index)
	if at < 1 || at >= d.end() {
		return fmt.Errorf("insertInlineImage: index %d outside [1,%d)", at, d.end())
	}
	if req.Uri == "" {
		return fmt.Errorf("insertInlineImage: missing uri")
	}
	id := d.newID("kix.obj")
	d.objects[id] = &docs.InlineObject{
		ObjectId: id,
		InlineObjectProperties: &docs.InlineObjectProperties{
			EmbeddedObject: &docs.EmbeddedObject{
				ImageProperties: &docs.ImageProperties{ContentUri: req.Uri, SourceUri: req.Uri},
			},
		},
	}
	d.insertUnits(at, []unit{{c: placeholder, object: id}})
	return nil
}

var presets = map[string][]string{
	"BULLET_DISC_CIRCLE_SQUARE":    {"●", "○", "■"},
	"NUMBERED_DECIMAL_ALPHA_ROMAN": {"DECIMAL", "ALPHA", "ROMAN"},
	"NUMBERED_DECIMAL_NESTED":      {"DECIMAL"},
	"BULLET_ARROW_DIAMOND_DISC":    {"➔", "◆", "●"},
}

func (d *Document) createParagraphBullets(req *docs.CreateParagraphBulletsRequest) error {
	s, e, err := d.checkRange(req.Range)
	if err != nil {
		return fmt.Errorf("createParagraphBullets: %w", err)
	}
	cycle, ok := presets[req.BulletPreset]
	if !ok {
		return fmt.Errorf("createParagraphBullets: unsupported preset %q", req.BulletPreset)
	}

	listID := d.newID("kix.list")
	levels := make([]*docs.NestingLevel, 9)
	for i := range levels {
		g := cycle[i%len(cycle)]
		if strings.HasPrefix(req.BulletPreset, "NUMBERED") {
			levels[i] = &docs.NestingLevel{GlyphType: g}
		} else {
			levels[i] = &docs.NestingLevel{GlyphSymbol: g}
		}
	}
	d.lists[listID] = docs.List{ListProperties: &docs.ListProperties{NestingLevels: levels}}

	ends := d.paragraphEnds(s, e)
	// Last paragraph first so stripping tabs leaves earlier indices intact.
	for k := len(ends) - 1; k >= 0; k-- {
		end := ends[k]
		start := 0
		if k > 0 {
			start = ends[k-1] + 1
		} else {
			start = d.paragraphStart(end)
		}
		tabs := 0
		for start+tabs < end && d.units[start+tabs].c == '\t' {
			tabs++
		}
		d.units[end].para.bullet = &docs.Bullet{ListId: listID, NestingLevel: int64(tabs)}
		if tabs > 0 {
			d.deleteUnits(start+1, start+1+tabs)
		}
	}
	return nil
}

// paragraphStart returns the unit index of the first unit of the paragraph
// ending at unit index end.
func (d *Document) paragraphStart(end int) int {
	for i := end - 1; i >= 0; i-- {
		if d.units[i].c == newline {
			return i + 1
		}
	}
	return 0
}

// Text returns the body text, including the final newline.
func (d *Document) Text() string {
	codes := make([]uint16, len(d.units))
	for i, u := range d.units {
		codes[i] = u.c
	}
	return string(utf16.Decode(codes))
}

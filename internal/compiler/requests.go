package compiler

import "google.golang.org/api/docs/v1"

func docRange(start, end int) *docs.Range {
	return &docs.Range{StartIndex: int64(start), EndIndex: int64(end)}
}

func insertText(index int, text string) *docs.Request {
	return &docs.Request{InsertText: &docs.InsertTextRequest{
		Location: &docs.Location{Index: int64(index)},
		Text:     text,
	}}
}

func updateTextStyle(start, end int, ts *docs.TextStyle, fields string) *docs.Request {
	return &docs.Request{UpdateTextStyle: &docs.UpdateTextStyleRequest{
		Range:     docRange(start, end),
		TextStyle: ts,
		Fields:    fields,
	}}
}

func headingStyle(start, end, level int) *docs.Request {
	return &docs.Request{UpdateParagraphStyle: &docs.UpdateParagraphStyleRequest{
		Range:          docRange(start, end),
		ParagraphStyle: &docs.ParagraphStyle{NamedStyleType: HeadingStyle(level)},
		Fields:         "namedStyleType",
	}}
}

func namedRange(name string, start, end int) *docs.Request {
	return &docs.Request{CreateNamedRange: &docs.CreateNamedRangeRequest{
		Name:  name,
		Range: docRange(start, end),
	}}
}

// replaceWithImage swaps the placeholder at index for an inline image. The
// delete and the insert cancel out, so no later index moves.
func replaceWithImage(index int, uri string) []*docs.Request {
	return []*docs.Request{
		{DeleteContentRange: &docs.DeleteContentRangeRequest{Range: docRange(index, index+1)}},
		{InsertInlineImage: &docs.InsertInlineImageRequest{
			Location: &docs.Location{Index: int64(index)},
			Uri:      uri,
		}},
	}
}

func bullets(start, end int, ordered bool) *docs.Request {
	preset := BulletPreset
	if ordered {
		preset = NumberedPreset
	}
	return &docs.Request{CreateParagraphBullets: &docs.CreateParagraphBulletsRequest{
		Range:        docRange(start, end),
		BulletPreset: preset,
	}}
}

const (
	BulletPreset   = "BULLET_DISC_CIRCLE_SQUARE"
	NumberedPreset = "NUMBERED_DECIMAL_ALPHA_ROMAN"
)

// HeadingStyle is the named paragraph style for a heading level.
func HeadingStyle(level int) string {
	switch level {
	case 1, 2, 3, 4, 5, 6:
		return "HEADING_" + string(rune('0'+level))
	}
	return "NORMAL_TEXT"
}

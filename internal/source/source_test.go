package source

import (
	"bytes"
	"strings"
	"testing"

	"github.com/dgallion1/gdocmark/internal/decompiler"
	"github.com/fumiama/go-docx"
	"google.golang.org/api/docs/v1"
)

func markdown(t *testing.T, doc *docs.Document) string {
	t.Helper()
	res, err := decompiler.Decompile(doc, decompiler.Options{DefaultFontFamily: "Arial"})
	if err != nil {
		t.Fatalf("decompile: %v", err)
	}
	return res.Markdown
}

func TestForFile(t *testing.T) {
	for _, name := range []string{"a.json", "b.DOCX", "c.html", "d.htm", "e.pdf", "f.txt"} {
		if _, err := ForFile(name); err != nil {
			t.Errorf("ForFile(%q): %v", name, err)
		}
		if !IsSupportedExtension(name) {
			t.Errorf("IsSupportedExtension(%q) = false", name)
		}
	}
	if _, err := ForFile("sheet.csv"); err == nil {
		t.Error("expected error for .csv")
	}
	if IsSupportedExtension("notes.md") {
		t.Error("expected .md to be unsupported")
	}
}

func TestTextSource_Paragraphs(t *testing.T) {
	input := "First line\njoined.\n\n\nSecond.\n"
	doc, err := (&TextSource{}).Load(strings.NewReader(input), "dir/notes.txt")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if doc.Title != "notes" {
		t.Errorf("expected title %q, got %q", "notes", doc.Title)
	}
	want := "First line joined.\n\nSecond.\n"
	if got := markdown(t, doc); got != want {
		t.Errorf("expected %q, got %q", want, got)
	}
}

func TestTextSource_EmptyInput(t *testing.T) {
	doc, err := (&TextSource{}).Load(strings.NewReader(""), "empty.txt")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// Section break plus the one paragraph every document keeps.
	if n := len(doc.Body.Content); n != 2 {
		t.Fatalf("expected 2 structural elements, got %d", n)
	}
	if got := markdown(t, doc); got != "" {
		t.Errorf("expected empty markdown, got %q", got)
	}
}

func TestJSONSource(t *testing.T) {
	input := `{
  "documentId": "abc",
  "futureField": {"x": 1},
  "body": {"content": [
    {"endIndex": 1, "sectionBreak": {}},
    {"startIndex": 1, "endIndex": 7, "paragraph": {
      "elements": [{"startIndex": 1, "endIndex": 7, "textRun": {"content": "Hello\n", "textStyle": {"italic": true}}}],
      "paragraphStyle": {"namedStyleType": "NORMAL_TEXT"}
    }}
  ]}
}`
	doc, err := (&JSONSource{}).Load(strings.NewReader(input), "saved.json")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if doc.DocumentId != "abc" {
		t.Errorf("expected id %q, got %q", "abc", doc.DocumentId)
	}
	if doc.Title != "saved" {
		t.Errorf("expected title %q, got %q", "saved", doc.Title)
	}
	if got := markdown(t, doc); got != "*Hello*\n" {
		t.Errorf("expected %q, got %q", "*Hello*\n", got)
	}
}

func TestJSONSource_Errors(t *testing.T) {
	if _, err := (&JSONSource{}).Load(strings.NewReader(`{"title":"x"}`), "x.json"); err == nil {
		t.Error("expected error for document without body")
	}
	if _, err := (&JSONSource{}).Load(strings.NewReader(`{`), "x.json"); err == nil {
		t.Error("expected error for truncated json")
	}
}

const exportHTML = `<html><head><title>Quarterly Notes</title><style type="text/css">
.c3{color:#000000;font-family:"Arial";font-weight:400;font-style:normal}
.c1{font-weight:700}
.c2{background-color:#ffff00}
.c4{color:#1155cc;text-decoration:underline}
.c5{font-family:"Courier New"}
</style></head><body class="c9">
<h1 id="h.abc123" class="c6"><span class="c3">Heading</span></h1>
<p class="c7"><span class="c3">Plain </span><span class="c3 c1">bold</span><span class="c3"> and </span><span class="c3 c2">marked</span></p>
<p><span class="c3 c4"><a class="c4" href="https://www.google.com/url?q=https://example.com/page&amp;sa=D&amp;ust=1">site</a></span></p>
<ul class="c8 lst-kix_abc-0 start"><li class="c9 li-bullet-0"><span class="c3">one</span></li></ul>
<ul class="c8 lst-kix_abc-1 start"><li class="c9 li-bullet-0"><span class="c3">nested</span></li></ul>
<p><span class="c3">line</span><br><span class="c3">break</span></p>
<p><span class="c5">code</span></p>
<p><img src="https://example.com/a.png" alt=""></p>
<script>ignored()</script>
</body></html>`

func TestHTMLSource_DocsExport(t *testing.T) {
	doc, err := (&HTMLSource{}).Load(strings.NewReader(exportHTML), "export.html")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if doc.Title != "Quarterly Notes" {
		t.Errorf("expected title %q, got %q", "Quarterly Notes", doc.Title)
	}
	want := "# {^ h.abc123} Heading\n\n" +
		"Plain **bold** and {!highlight:yellow}marked{/!}\n\n" +
		"[site](https://example.com/page)\n\n" +
		"- one\n  - nested\n\n" +
		"line\\\nbreak\n\n" +
		"{!mono}code{/!}\n\n" +
		"![](https://example.com/a.png)\n"
	if got := markdown(t, doc); got != want {
		t.Errorf("expected:\n%s\ngot:\n%s", want, got)
	}
}

func TestHTMLSource_CascadeOrder(t *testing.T) {
	// A later rule wins regardless of the order classes are listed in.
	input := `<style>.b{font-weight:700}.n{font-weight:400}</style><p class="n b">x</p><p class="x" style="font-weight:bold">y</p>`
	doc, err := (&HTMLSource{}).Load(strings.NewReader(input), "c.html")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := markdown(t, doc); got != "x\n\n**y**\n" {
		t.Errorf("expected %q, got %q", "x\n\n**y**\n", got)
	}
}

func TestHTMLSource_InlineStyleWithoutSemicolon(t *testing.T) {
	tests := []struct {
		style, want string
	}{
		{"font-weight:bold", "**x**\n"},
		{"font-style:italic", "*x*\n"},
		{"text-decoration:underline", "{!underline}x{/!}\n"},
		{"font-weight:700;font-style:italic", "***x***\n"},
		{"font-style:italic; font-weight:700 ; ", "***x***\n"},
	}
	for _, tt := range tests {
		input := `<p><span style="` + tt.style + `">x</span></p>`
		doc, err := (&HTMLSource{}).Load(strings.NewReader(input), "s.html")
		if err != nil {
			t.Fatalf("%q: unexpected error: %v", tt.style, err)
		}
		if got := markdown(t, doc); got != tt.want {
			t.Errorf("style %q: expected %q, got %q", tt.style, tt.want, got)
		}
	}
}

func TestHTMLSource_OrderedAndNestedLists(t *testing.T) {
	input := `<body><ol><li>first<ul><li>inner</li></ul></li><li>second</li></ol></body>`
	doc, err := (&HTMLSource{}).Load(strings.NewReader(input), "l.html")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	var bullets int
	for _, el := range doc.Body.Content {
		if el.Paragraph != nil && el.Paragraph.Bullet != nil {
			bullets++
		}
	}
	if bullets != 3 {
		t.Fatalf("expected 3 list paragraphs, got %d", bullets)
	}
	got := markdown(t, doc)
	if !strings.HasPrefix(got, "1. first\n") {
		t.Errorf("expected numbered first item, got %q", got)
	}
	if !strings.Contains(got, "   ") || !strings.Contains(got, "inner") {
		t.Errorf("expected indented nested item, got %q", got)
	}
}

func TestUnwrapRedirect(t *testing.T) {
	tests := []struct{ in, want string }{
		{"https://www.google.com/url?q=https://a.test/x&sa=D", "https://a.test/x"},
		{"https://a.test/url?q=https://b.test", "https://a.test/url?q=https://b.test"},
		{"#h.abc", "#h.abc"},
	}
	for _, tt := range tests {
		if got := unwrapRedirect(tt.in); got != tt.want {
			t.Errorf("unwrapRedirect(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestDOCXSource(t *testing.T) {
	f := docx.New().WithDefaultTheme()
	f.AddParagraph().Style("Heading1").AddText("Report")
	p := f.AddParagraph()
	p.AddText("plain ")
	p.AddText("strong").Bold()
	f.AddParagraph().NumPr("1", "0").AddText("item")
	f.AddParagraph().NumPr("1", "1").AddText("sub")

	var buf bytes.Buffer
	if _, err := f.WriteTo(&buf); err != nil {
		t.Fatalf("write docx: %v", err)
	}
	doc, err := (&DOCXSource{}).Load(&buf, "report.docx")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if doc.Title != "report" {
		t.Errorf("expected title %q, got %q", "report", doc.Title)
	}
	want := "# Report\n\nplain **strong**\n\n- item\n  - sub\n"
	if got := markdown(t, doc); got != want {
		t.Errorf("expected %q, got %q", want, got)
	}
}

func TestDOCXSource_Invalid(t *testing.T) {
	if _, err := (&DOCXSource{}).Load(strings.NewReader("not a zip"), "x.docx"); err == nil {
		t.Error("expected error for invalid docx")
	}
}

func TestPDFSource_Invalid(t *testing.T) {
	if _, err := (&PDFSource{}).Load(strings.NewReader("not a pdf"), "x.pdf"); err == nil {
		t.Error("expected error for invalid pdf")
	}
}

func TestParseFontName(t *testing.T) {
	tests := []struct {
		name string
		want fontFace
	}{
		{"ABCDEF+Roboto-LightItalic", fontFace{family: "Roboto", weight: 300, italic: true}},
		{"Arial,BoldItalic", fontFace{family: "Arial", weight: 400, bold: true, italic: true}},
		{"CourierNewPSMT", fontFace{family: "Courier New", weight: 400}},
		{"TimesNewRomanPS-BoldMT", fontFace{family: "Times New Roman", weight: 400, bold: true}},
		{"OpenSans-SemiBold", fontFace{family: "Open Sans", weight: 600}},
	}
	for _, tt := range tests {
		if got := parseFontName(tt.name); got != tt.want {
			t.Errorf("parseFontName(%q) = %+v, want %+v", tt.name, got, tt.want)
		}
	}
}

func TestHeadingStyle(t *testing.T) {
	tests := []struct {
		size float64
		want string
	}{
		{11, ""},
		{12.5, ""},
		{13, "HEADING_3"},
		{15, "HEADING_2"},
		{18, "HEADING_1"},
	}
	for _, tt := range tests {
		if got := headingStyle(tt.size, 11); got != tt.want {
			t.Errorf("headingStyle(%v, 11) = %q, want %q", tt.size, got, tt.want)
		}
	}
	if got := headingStyle(30, 0); got != "" {
		t.Errorf("expected no heading without a body size, got %q", got)
	}
}

func TestBodySize_MostText(t *testing.T) {
	lines := []pdfLine{
		{size: 18, runs: []pdfRun{{text: "Title"}}},
		{size: 11, runs: []pdfRun{{text: "a much longer body line"}}},
		{size: 11, runs: []pdfRun{{text: "another body line"}}},
	}
	if got := bodySize(lines); got != 11 {
		t.Errorf("expected body size 11, got %v", got)
	}
}

func TestBuilder_IndicesAndBullets(t *testing.T) {
	var b Builder
	b.Add(Paragraph{Runs: []Run{{Text: "ab"}}})
	b.Add(Paragraph{Runs: []Run{{Text: "  "}}})
	b.Add(Paragraph{Bullet: &Bullet{}, Runs: []Run{{Text: "c"}}})
	b.Add(Paragraph{Bullet: &Bullet{Level: 1}, Runs: []Run{{Text: "d", Style: &docs.TextStyle{Bold: true}}}})
	if b.Len() != 3 {
		t.Fatalf("expected blank paragraph to be skipped, got %d paragraphs", b.Len())
	}

	doc, err := b.Document("id1", "t")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	content := doc.Body.Content
	// Section break, three paragraphs, and the empty paragraph Docs keeps
	// after inserted text.
	if len(content) != 5 {
		t.Fatalf("expected 5 structural elements, got %d", len(content))
	}
	last := content[4].Paragraph
	if last == nil || len(last.Elements) != 1 || last.Elements[0].TextRun == nil || last.Elements[0].TextRun.Content != "\n" {
		t.Errorf("expected trailing empty paragraph, got %+v", content[4])
	}
	if content[4].StartIndex != 8 || content[4].EndIndex != 9 {
		t.Errorf("trailing paragraph: expected [8,9), got [%d,%d)", content[4].StartIndex, content[4].EndIndex)
	}
	wantRanges := [][2]int64{{1, 4}, {4, 6}, {6, 8}}
	for i, w := range wantRanges {
		el := content[i+1]
		if el.StartIndex != w[0] || el.EndIndex != w[1] {
			t.Errorf("paragraph %d: expected [%d,%d), got [%d,%d)", i, w[0], w[1], el.StartIndex, el.EndIndex)
		}
	}
	if content[3].Paragraph.Bullet == nil || content[3].Paragraph.Bullet.NestingLevel != 1 {
		t.Errorf("expected nested bullet on last paragraph")
	}
	if got := markdown(t, doc); got != "ab\n\n- c\n  - **d**\n" {
		t.Errorf("unexpected markdown %q", got)
	}
}

func TestBuilder_CleansText(t *testing.T) {
	var b Builder
	b.Add(Paragraph{Runs: []Run{{Text: "a\nb\uFFFCc"}}})
	doc, err := b.Document("", "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := markdown(t, doc); got != "a bc\n" {
		t.Errorf("expected %q, got %q", "a bc\n", got)
	}
}

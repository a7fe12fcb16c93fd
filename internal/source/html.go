package source

import (
	"fmt"
	"io"
	"net/url"
	"regexp"
	"slices"
	"strconv"
	"strings"

	"github.com/aymerick/douceur/css"
	"github.com/aymerick/douceur/parser"
	"github.com/dgallion1/gdocmark/internal/anchor"
	"github.com/dgallion1/gdocmark/internal/fontweight"
	"golang.org/x/net/html"
	"google.golang.org/api/docs/v1"
)

// HTMLSource handles HTML, in particular Docs' "Download as web page"
// export, which styles runs through classes in a <style> block. Table cells
// become plain paragraphs.
type HTMLSource struct{}

func (s *HTMLSource) Load(r io.Reader, filename string) (*docs.Document, error) {
	doc, err := html.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}

	w := &htmlWalker{}
	title := baseTitle(filename)
	if t := findTitle(doc); t != "" {
		title = t
	}
	if err := w.stylesheets(doc); err != nil {
		return nil, err
	}

	root := findBody(doc)
	if root == nil {
		root = doc
	}
	w.walk(root, htmlStyle{})
	w.flush()
	return w.b.Document("", title)
}

// htmlStyle is the inherited text style at a point in the tree.
type htmlStyle struct {
	ts     docs.TextStyle
	family string
	weight int
	pre    bool
}

func (s htmlStyle) textStyle() *docs.TextStyle {
	ts := s.ts
	if s.family != "" {
		w := s.weight
		if w == 0 {
			w = 400
		}
		ts.WeightedFontFamily = &docs.WeightedFontFamily{FontFamily: s.family, Weight: int64(w)}
	}
	return &ts
}

type htmlWalker struct {
	b     Builder
	rules []classRule
	cur   *Paragraph
	lists []htmlList
}

// classRule is a single-class CSS rule. Rules apply in stylesheet order,
// so a later rule wins over an earlier one.
type classRule struct {
	class string
	decls []*css.Declaration
}

type htmlList struct {
	ordered bool
	level   int
}

// exportListClass matches the per-level list classes of a Docs export,
// which writes nested levels as sibling lists.
var exportListClass = regexp.MustCompile(`^lst-kix_[0-9A-Za-z_]+-(\d+)$`)

func listLevel(n *html.Node, depth int) int {
	for _, c := range strings.Fields(attr(n, "class")) {
		if m := exportListClass.FindStringSubmatch(c); m != nil {
			if l, err := strconv.Atoi(m[1]); err == nil {
				return l
			}
		}
	}
	return depth
}

// stylesheets collects single-class rules from every <style> element.
func (w *htmlWalker) stylesheets(n *html.Node) error {
	if n.Type == html.ElementNode && n.Data == "style" {
		sheet, err := parser.Parse(textContent(n))
		if err != nil {
			return fmt.Errorf("parse stylesheet: %w", err)
		}
		for _, rule := range sheet.Rules {
			for _, sel := range rule.Selectors {
				if cls, ok := strings.CutPrefix(strings.TrimSpace(sel), "."); ok && !strings.ContainsAny(cls, " .:>[#") {
					w.rules = append(w.rules, classRule{class: cls, decls: rule.Declarations})
				}
			}
		}
		return nil
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if err := w.stylesheets(c); err != nil {
			return err
		}
	}
	return nil
}

func (w *htmlWalker) flush() {
	if w.cur == nil {
		return
	}
	trimEdges(w.cur.Runs)
	w.b.Add(*w.cur)
	w.cur = nil
}

func (w *htmlWalker) paragraph() *Paragraph {
	if w.cur == nil {
		w.cur = &Paragraph{}
	}
	return w.cur
}

func (w *htmlWalker) walk(n *html.Node, st htmlStyle) {
	switch n.Type {
	case html.TextNode:
		w.text(n.Data, st)
		return
	case html.ElementNode:
	default:
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			w.walk(c, st)
		}
		return
	}

	switch n.Data {
	case "script", "style", "nav", "footer", "header", "head", "title":
		return
	case "br":
		w.paragraph().Runs = append(w.paragraph().Runs, Run{Text: "\v", Style: st.textStyle()})
		return
	case "img":
		if src := attr(n, "src"); src != "" {
			w.paragraph().Runs = append(w.paragraph().Runs, Run{Image: src})
		}
		return
	case "ul", "ol":
		w.flush()
		w.lists = append(w.lists, htmlList{ordered: n.Data == "ol", level: listLevel(n, len(w.lists))})
		w.children(n, w.style(n, st))
		w.flush()
		w.lists = w.lists[:len(w.lists)-1]
		return
	}

	st = w.style(n, st)
	if !isBlock(n.Data) {
		w.children(n, st)
		return
	}

	w.flush()
	p := w.paragraph()
	switch {
	case n.Data == "li" && len(w.lists) > 0:
		l := w.lists[len(w.lists)-1]
		p.Bullet = &Bullet{Ordered: l.ordered, Level: l.level}
	case headingLevel(n.Data) > 0:
		p.NamedStyle = "HEADING_" + strconv.Itoa(headingLevel(n.Data))
	case hasClass(n, "title"):
		p.NamedStyle = "TITLE"
	case hasClass(n, "subtitle"):
		p.NamedStyle = "SUBTITLE"
	}
	if id := attr(n, "id"); p.NamedStyle != "" && anchor.IsAnchor(id) {
		p.HeadingID = id
	}
	w.children(n, st)
	w.flush()
}

func (w *htmlWalker) children(n *html.Node, st htmlStyle) {
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		w.walk(c, st)
	}
}

var spaceRun = regexp.MustCompile(`\s+`)

func (w *htmlWalker) text(s string, st htmlStyle) {
	if !st.pre {
		s = spaceRun.ReplaceAllString(s, " ")
	}
	if s == "" || (s == " " && w.cur == nil) {
		return
	}
	p := w.paragraph()
	if n := len(p.Runs); n > 0 && strings.HasPrefix(s, " ") && strings.HasSuffix(p.Runs[n-1].Text, " ") {
		s = s[1:]
	}
	if s != "" {
		p.Runs = append(p.Runs, Run{Text: s, Style: st.textStyle()})
	}
}

// style applies tag semantics, class rules and the style attribute, in
// that order.
func (w *htmlWalker) style(n *html.Node, st htmlStyle) htmlStyle {
	switch n.Data {
	case "b", "strong":
		st.ts.Bold = true
	case "i", "em":
		st.ts.Italic = true
	case "u", "ins":
		st.ts.Underline = true
	case "s", "strike", "del":
		st.ts.Strikethrough = true
	case "sup":
		st.ts.BaselineOffset = "SUPERSCRIPT"
	case "sub":
		st.ts.BaselineOffset = "SUBSCRIPT"
	case "code", "tt", "kbd", "samp":
		st.family, st.weight = "Courier New", 400
	case "pre":
		st.family, st.weight, st.pre = "Courier New", 400, true
	case "a":
		if href := attr(n, "href"); href != "" {
			st.ts.Link = &docs.Link{Url: unwrapRedirect(href)}
		}
	}
	if classes := strings.Fields(attr(n, "class")); len(classes) > 0 {
		for _, rule := range w.rules {
			if !slices.Contains(classes, rule.class) {
				continue
			}
			for _, d := range rule.decls {
				st = applyDeclaration(st, d)
			}
		}
	}
	if inline := strings.TrimSpace(attr(n, "style")); inline != "" {
		// douceur drops the value of an unterminated last declaration.
		if !strings.HasSuffix(inline, ";") {
			inline += ";"
		}
		if decls, err := parser.ParseDeclarations(inline); err == nil {
			for _, d := range decls {
				st = applyDeclaration(st, d)
			}
		}
	}
	return st
}

func applyDeclaration(st htmlStyle, d *css.Declaration) htmlStyle {
	v := strings.ToLower(strings.TrimSpace(d.Value))
	switch strings.ToLower(d.Property) {
	case "font-weight":
		switch v {
		case "bold", "bolder":
			st.ts.Bold, st.weight = true, 0
		case "normal", "lighter":
			st.ts.Bold, st.weight = false, 0
		default:
			w, err := strconv.Atoi(v)
			if err != nil || fontweight.Validate(w) != nil {
				break
			}
			st.ts.Bold, st.weight = w == 700, w
			if w == 700 || w == 400 {
				st.weight = 0
			}
		}
	case "font-style":
		st.ts.Italic = v == "italic" || v == "oblique"
	case "text-decoration", "text-decoration-line":
		st.ts.Underline = strings.Contains(v, "underline")
		st.ts.Strikethrough = strings.Contains(v, "line-through")
	case "color":
		if c, ok := hexColor(v); ok && !isBlack(c) {
			st.ts.ForegroundColor = c
		} else {
			st.ts.ForegroundColor = nil
		}
	case "background-color", "background":
		if c, ok := hexColor(v); ok {
			st.ts.BackgroundColor = c
		} else if v == "transparent" || v == "none" {
			st.ts.BackgroundColor = nil
		}
	case "font-family":
		first, _, _ := strings.Cut(d.Value, ",")
		st.family = strings.Trim(strings.TrimSpace(first), `"'`)
	case "vertical-align":
		switch v {
		case "super":
			st.ts.BaselineOffset = "SUPERSCRIPT"
		case "sub":
			st.ts.BaselineOffset = "SUBSCRIPT"
		case "baseline":
			st.ts.BaselineOffset = ""
		}
	}
	return st
}

// unwrapRedirect undoes the google.com/url?q= wrapping Docs puts on
// exported links.
func unwrapRedirect(href string) string {
	u, err := url.Parse(href)
	if err != nil || u.Path != "/url" || !strings.HasSuffix(u.Host, "google.com") {
		return href
	}
	if q := u.Query().Get("q"); q != "" {
		return q
	}
	return href
}

// trimEdges removes whitespace at the start and end of a paragraph.
func trimEdges(rs []Run) {
	for i := range rs {
		if rs[i].Image != "" {
			break
		}
		rs[i].Text = strings.TrimLeft(rs[i].Text, " ")
		if rs[i].Text != "" {
			break
		}
	}
	for i := len(rs) - 1; i >= 0; i-- {
		if rs[i].Image != "" {
			break
		}
		rs[i].Text = strings.TrimRight(rs[i].Text, " ")
		if rs[i].Text != "" {
			break
		}
	}
}

func isBlock(tag string) bool {
	switch tag {
	case "p", "div", "li", "h1", "h2", "h3", "h4", "h5", "h6",
		"pre", "blockquote", "td", "th", "tr", "table", "section", "article", "dt", "dd":
		return true
	}
	return false
}

func headingLevel(tag string) int {
	switch tag {
	case "h1":
		return 1
	case "h2":
		return 2
	case "h3":
		return 3
	case "h4":
		return 4
	case "h5":
		return 5
	case "h6":
		return 6
	}
	return 0
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

func hasClass(n *html.Node, cls string) bool {
	for _, c := range strings.Fields(attr(n, "class")) {
		if c == cls {
			return true
		}
	}
	return false
}

func textContent(n *html.Node) string {
	var buf strings.Builder
	var extract func(*html.Node)
	extract = func(n *html.Node) {
		if n.Type == html.TextNode {
			buf.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			extract(c)
		}
	}
	extract(n)
	return strings.TrimSpace(buf.String())
}

func findTitle(n *html.Node) string {
	if n.Type == html.ElementNode && n.Data == "title" {
		return textContent(n)
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if t := findTitle(c); t != "" {
			return t
		}
	}
	return ""
}

func findBody(n *html.Node) *html.Node {
	if n.Type == html.ElementNode && n.Data == "body" {
		return n
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if b := findBody(c); b != nil {
			return b
		}
	}
	return nil
}

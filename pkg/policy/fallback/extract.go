package fallback

import (
	"bytes"
	"strings"

	"policylens-be/pkg/policy"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	east "github.com/yuin/goldmark/extension/ast"
	"github.com/yuin/goldmark/text"
)

type UnitKind string

const (
	UnitTableRow UnitKind = "table_row"
	UnitListItem UnitKind = "list_item"
	UnitLink     UnitKind = "link"
)

type Cell struct {
	Header string
	Value  string
}

// Unit is one searchable structural element of a policy document.
type Unit struct {
	Kind    UnitKind
	Section string // heading path, outermost first, joined with " > "
	Heading string
	Text    string
	Excerpt string
	Anchor  string
	Cells   []Cell
	URL     string

	tokens []string
}

var markdown = goldmark.New(goldmark.WithExtensions(extension.GFM))

type extractor struct {
	src      []byte
	source   string
	headings []headingEntry
	units    []Unit
}

type headingEntry struct {
	level int
	text  string
}

// Extract walks the Markdown document and returns its table rows, list items
// and standalone links in document order.
func Extract(src []byte, sourceName string) []Unit {
	doc := markdown.Parser().Parse(text.NewReader(src))
	x := &extractor{src: src, source: sourceName}

	_ = ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		switch node := n.(type) {
		case *ast.Heading:
			x.pushHeading(node.Level, x.plainText(node, false))
			return ast.WalkSkipChildren, nil
		case *east.Table:
			x.table(node)
			return ast.WalkSkipChildren, nil
		case *ast.ListItem:
			x.listItem(node)
		case *ast.Link:
			if !insideUnit(node) {
				x.link(node, string(node.Destination), x.plainText(node, false))
			}
		case *ast.AutoLink:
			if !insideUnit(node) {
				url := string(node.URL(x.src))
				x.link(node, url, string(node.Label(x.src)))
			}
		}
		return ast.WalkContinue, nil
	})

	for i := range x.units {
		u := &x.units[i]
		u.tokens = policy.Tokens(u.Section + " " + u.Text + " " + u.URL)
	}
	return x.units
}

func (x *extractor) pushHeading(level int, title string) {
	for len(x.headings) > 0 && x.headings[len(x.headings)-1].level >= level {
		x.headings = x.headings[:len(x.headings)-1]
	}
	x.headings = append(x.headings, headingEntry{level: level, text: title})
}

func (x *extractor) newUnit(kind UnitKind) Unit {
	u := Unit{Kind: kind, Anchor: x.source}
	if len(x.headings) > 0 {
		parts := make([]string, len(x.headings))
		for i, h := range x.headings {
			parts[i] = h.text
		}
		u.Section = strings.Join(parts, " > ")
		u.Heading = x.headings[len(x.headings)-1].text
		if slug := Slugify(u.Heading); slug != "" {
			u.Anchor = x.source + "#" + slug
		}
	}
	return u
}

func (x *extractor) table(t *east.Table) {
	var headers []string
	for row := t.FirstChild(); row != nil; row = row.NextSibling() {
		switch row.(type) {
		case *east.TableHeader:
			for cell := row.FirstChild(); cell != nil; cell = cell.NextSibling() {
				headers = append(headers, x.plainText(cell, true))
			}
		case *east.TableRow:
			u := x.newUnit(UnitTableRow)
			parts := []string{}
			i := 0
			for cell := row.FirstChild(); cell != nil; cell = cell.NextSibling() {
				value := x.plainText(cell, true)
				header := ""
				if i < len(headers) {
					header = headers[i]
				}
				i++
				if value == "" {
					continue
				}
				u.Cells = append(u.Cells, Cell{Header: header, Value: value})
				if header != "" {
					parts = append(parts, header+": "+value)
				} else {
					parts = append(parts, value)
				}
			}
			if len(u.Cells) == 0 {
				continue
			}
			u.Text = strings.Join(parts, "; ")
			u.Excerpt = x.excerpt(row, false)
			x.units = append(x.units, u)
		}
	}
}

func (x *extractor) listItem(item *ast.ListItem) {
	body := x.plainText(item, true)
	if body == "" {
		return
	}
	u := x.newUnit(UnitListItem)
	u.Text = body
	u.Excerpt = x.excerpt(item, true)
	x.units = append(x.units, u)
}

func (x *extractor) link(n ast.Node, url, label string) {
	url = strings.TrimSpace(url)
	if url == "" || strings.HasPrefix(url, "#") {
		return
	}
	label = strings.TrimSpace(label)
	if label == "" {
		label = url
	}
	u := x.newUnit(UnitLink)
	u.URL = url
	u.Text = label + ": " + url
	u.Excerpt = x.excerpt(n, false)
	x.units = append(x.units, u)
}

// plainText renders inline content; links inside become "label (url)" when withURLs is set.
// Nested lists are not included.
func (x *extractor) plainText(n ast.Node, withURLs bool) string {
	var buf bytes.Buffer
	var walk func(ast.Node)
	walk = func(node ast.Node) {
		for c := node.FirstChild(); c != nil; c = c.NextSibling() {
			switch t := c.(type) {
			case *ast.List:
				continue
			case *ast.Text:
				buf.Write(t.Segment.Value(x.src))
				if t.SoftLineBreak() || t.HardLineBreak() {
					buf.WriteByte(' ')
				}
				continue
			case *ast.String:
				buf.Write(t.Value)
				continue
			case *ast.AutoLink:
				buf.Write(t.URL(x.src))
				continue
			case *ast.Link:
				walk(t)
				if withURLs && len(t.Destination) > 0 {
					buf.WriteString(" (" + string(t.Destination) + ")")
				}
				continue
			}
			if c.Type() == ast.TypeBlock && buf.Len() > 0 {
				buf.WriteByte(' ')
			}
			walk(c)
		}
	}
	walk(n)
	return strings.Join(strings.Fields(buf.String()), " ")
}

// excerpt returns the full source lines spanned by n's inline text.
func (x *extractor) excerpt(n ast.Node, skipLists bool) string {
	start, stop := -1, -1
	var visit func(ast.Node)
	visit = func(node ast.Node) {
		for c := node.FirstChild(); c != nil; c = c.NextSibling() {
			if _, isList := c.(*ast.List); isList && skipLists {
				continue
			}
			if t, ok := c.(*ast.Text); ok {
				if start < 0 || t.Segment.Start < start {
					start = t.Segment.Start
				}
				if t.Segment.Stop > stop {
					stop = t.Segment.Stop
				}
			}
			visit(c)
		}
	}
	visit(n)
	if start < 0 {
		return ""
	}
	for start > 0 && x.src[start-1] != '\n' {
		start--
	}
	for stop < len(x.src) && x.src[stop] != '\n' {
		stop++
	}
	return strings.TrimSpace(string(x.src[start:stop]))
}

func insideUnit(n ast.Node) bool {
	for p := n.Parent(); p != nil; p = p.Parent() {
		switch p.(type) {
		case *ast.ListItem, *east.TableCell:
			return true
		}
	}
	return false
}

// Slugify builds a GitHub-style heading anchor.
func Slugify(heading string) string {
	var b strings.Builder
	lastDash := false
	for _, r := range strings.ToLower(strings.TrimSpace(heading)) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			lastDash = false
		case r == ' ' || r == '-' || r == '_':
			if !lastDash && b.Len() > 0 {
				b.WriteByte('-')
				lastDash = true
			}
		}
	}
	return strings.TrimSuffix(b.String(), "-")
}

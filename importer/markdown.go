package importer

import (
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"

	"github.com/jschulte/rtf-toolkit/document"
)

// Base font size in half-points (12pt). Headings scale up from here.
const baseFontSize = 24

// Markdown builds a document tree from Markdown source using goldmark.
func Markdown(source string) (*document.Document, error) {
	md := goldmark.New()
	src := []byte(source)
	root := md.Parser().Parse(text.NewReader(src))

	b := newBuilder()
	walkMarkdown(b, root, src)
	b.flush()
	return b.doc, nil
}

func walkMarkdown(b *builder, node ast.Node, source []byte) {
	for child := node.FirstChild(); child != nil; child = child.NextSibling() {
		switch n := child.(type) {
		case *ast.Heading:
			b.flush()
			f := document.CharacterFormat{Bold: true, FontSize: headingSize(n.Level)}
			b.inlines = append(b.inlines, markdownInlines(n, source, f)...)
			b.format.SpaceAfter = 120
			b.flush()
		case *ast.Paragraph, *ast.TextBlock:
			b.flush()
			b.inlines = append(b.inlines, markdownInlines(child, source, document.CharacterFormat{FontSize: baseFontSize})...)
			b.flush()
		case *ast.List:
			walkMarkdown(b, n, source)
		case *ast.ListItem:
			b.flush()
			b.format.IndentLeft = 720
			b.text("• ", document.CharacterFormat{FontSize: baseFontSize})
			walkMarkdownListItem(b, n, source)
			b.flush()
		case *ast.Blockquote:
			b.flush()
			b.format.IndentLeft = 720
			walkMarkdown(b, n, source)
		}
	}
}

func walkMarkdownListItem(b *builder, item ast.Node, source []byte) {
	for c := item.FirstChild(); c != nil; c = c.NextSibling() {
		switch n := c.(type) {
		case *ast.List:
			walkMarkdown(b, n, source)
		default:
			b.inlines = append(b.inlines, markdownInlines(c, source, document.CharacterFormat{FontSize: baseFontSize})...)
		}
	}
}

// markdownInlines flattens a block's inline children into text runs,
// carrying emphasis down as bold/italic formatting.
func markdownInlines(node ast.Node, source []byte, format document.CharacterFormat) []document.Inline {
	var out []document.Inline
	for c := node.FirstChild(); c != nil; c = c.NextSibling() {
		switch n := c.(type) {
		case *ast.Text:
			s := string(n.Segment.Value(source))
			if n.SoftLineBreak() {
				s += " "
			} else if n.HardLineBreak() {
				s += "\n"
			}
			if s != "" {
				out = append(out, &document.TextNode{Text: s, Format: format})
			}
		case *ast.Emphasis:
			f := format
			if n.Level >= 2 {
				f.Bold = true
			} else {
				f.Italic = true
			}
			out = append(out, markdownInlines(n, source, f)...)
		default:
			if c.HasChildren() {
				out = append(out, markdownInlines(c, source, format)...)
			}
		}
	}
	return out
}

func headingSize(level int) int {
	switch {
	case level <= 1:
		return baseFontSize * 2
	case level == 2:
		return baseFontSize * 3 / 2
	default:
		return baseFontSize * 5 / 4
	}
}

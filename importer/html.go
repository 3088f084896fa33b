package importer

import (
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/jschulte/rtf-toolkit/document"
)

// HTML builds a document tree from an HTML fragment or page. Structural
// tags map to paragraphs, inline tags to character formatting, and
// <ins>/<del> elements become revision markers, so tracked changes survive
// the import.
func HTML(source string) (*document.Document, error) {
	root, err := html.Parse(strings.NewReader(source))
	if err != nil {
		return nil, err
	}
	b := newBuilder()
	walkHTML(b, root, document.CharacterFormat{FontSize: baseFontSize})
	b.flush()
	return b.doc, nil
}

func walkHTML(b *builder, n *html.Node, format document.CharacterFormat) {
	if n.Type == html.ElementNode {
		switch n.DataAtom {
		case atom.Script, atom.Style, atom.Head:
			return
		case atom.H1, atom.H2, atom.H3, atom.H4, atom.H5, atom.H6:
			b.flush()
			f := format
			f.Bold = true
			f.FontSize = headingSize(int(n.Data[1] - '0'))
			walkHTMLChildren(b, n, f)
			b.format.SpaceAfter = 120
			b.flush()
			return
		case atom.P, atom.Div:
			b.flush()
			walkHTMLChildren(b, n, format)
			b.flush()
			return
		case atom.Li:
			b.flush()
			b.format.IndentLeft = 720
			b.text("• ", format)
			walkHTMLChildren(b, n, format)
			b.flush()
			return
		case atom.Br:
			b.text("\n", format)
			return
		case atom.B, atom.Strong:
			f := format
			f.Bold = true
			walkHTMLChildren(b, n, f)
			return
		case atom.I, atom.Em:
			f := format
			f.Italic = true
			walkHTMLChildren(b, n, f)
			return
		case atom.U:
			f := format
			f.Underline = true
			walkHTMLChildren(b, n, f)
			return
		case atom.Ins:
			b.add(htmlRevision(n, format, document.Insertion))
			return
		case atom.Del:
			b.add(htmlRevision(n, format, document.Deletion))
			return
		}
	}
	if n.Type == html.TextNode {
		b.text(collapseSpace(n.Data), format)
		return
	}
	walkHTMLChildren(b, n, format)
}

func walkHTMLChildren(b *builder, n *html.Node, format document.CharacterFormat) {
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		walkHTML(b, c, format)
	}
}

// htmlRevision collects an <ins> or <del> subtree into a revision marker by
// redirecting the builder's inline sink.
func htmlRevision(n *html.Node, format document.CharacterFormat, kind document.RevisionKind) *document.RevisionNode {
	sub := newBuilder()
	walkHTMLChildren(sub, n, format)
	return &document.RevisionNode{Kind: kind, Children: sub.inlines}
}

// collapseSpace folds runs of markup whitespace into single spaces.
// A node that is whitespace-only collapses to nothing.
func collapseSpace(s string) string {
	fields := strings.Fields(s)
	if len(fields) == 0 {
		return ""
	}
	out := strings.Join(fields, " ")
	if s[0] == ' ' || s[0] == '\n' || s[0] == '\t' || s[0] == '\r' {
		out = " " + out
	}
	if last := s[len(s)-1]; last == ' ' || last == '\n' || last == '\t' || last == '\r' {
		out += " "
	}
	return out
}

// Package document defines the immutable tree produced by the parser.
//
// Nodes are created once and never mutated in place; operations that edit a
// document (the revision engine, for instance) deep-clone first and return a
// fresh tree. String fields (font names, author names, decoded text) come
// straight from untrusted input and must be escaped by any consumer that
// embeds them into markup or attributes.
package document

// Inline is an element of paragraph content: either a text run or a nested
// revision marker.
type Inline interface {
	inlineNode()
	// PlainText flattens the node to its visible text.
	PlainText() string
}

// TextNode is a run of text with a frozen snapshot of character formatting.
type TextNode struct {
	Text   string
	Format CharacterFormat
}

func (*TextNode) inlineNode() {}

func (n *TextNode) PlainText() string { return n.Text }

// RevisionKind distinguishes tracked insertions from tracked deletions.
type RevisionKind int

const (
	Insertion RevisionKind = iota
	Deletion
)

func (k RevisionKind) String() string {
	if k == Deletion {
		return "deletion"
	}
	return "insertion"
}

// RevisionNode wraps inline content annotated as a tracked change.
// Revisions may nest: an insertion can contain a later deletion.
type RevisionNode struct {
	Kind     RevisionKind
	Children []Inline
	// Author indexes into Document.Authors.
	Author int
	// DTTM is the packed revision timestamp, 0 when absent.
	DTTM int64
}

func (*RevisionNode) inlineNode() {}

func (n *RevisionNode) PlainText() string {
	var s string
	for _, c := range n.Children {
		s += c.PlainText()
	}
	return s
}

// ParagraphNode holds inline content in appearance order together with the
// paragraph formatting in effect at the paragraph break.
type ParagraphNode struct {
	Children []Inline
	Format   ParagraphFormat
}

// PlainText flattens the paragraph to its visible text.
func (p *ParagraphNode) PlainText() string {
	var s string
	for _, c := range p.Children {
		s += c.PlainText()
	}
	return s
}

// FontEntry is one font table record.
type FontEntry struct {
	Index  int
	Name   string
	Family string
}

// ColorEntry is one color table record. Index 0 is the reserved default
// ("auto") color.
type ColorEntry struct {
	R, G, B uint8
}

// RevisionAuthor is one revision table record.
type RevisionAuthor struct {
	Index int
	Name  string
}

// Document is the root of a parsed RTF tree.
type Document struct {
	Version     int
	Charset     string
	DefaultFont int
	Fonts       []FontEntry
	Colors      []ColorEntry
	Authors     []RevisionAuthor
	Paragraphs  []*ParagraphNode
}

// HasRevisions reports whether any tracked change remains in the document.
// Derived by traversal; there is no stored flag to drift out of sync.
func (d *Document) HasRevisions() bool {
	for _, p := range d.Paragraphs {
		if inlinesHaveRevisions(p.Children) {
			return true
		}
	}
	return false
}

func inlinesHaveRevisions(nodes []Inline) bool {
	for _, n := range nodes {
		if _, ok := n.(*RevisionNode); ok {
			return true
		}
	}
	return false
}

// FontByIndex returns the font table entry with the given index.
func (d *Document) FontByIndex(idx int) (FontEntry, bool) {
	for _, f := range d.Fonts {
		if f.Index == idx {
			return f, true
		}
	}
	return FontEntry{}, false
}

// AuthorName resolves a revision author index to its name, falling back to
// "Unknown" for missing or out-of-range indices.
func (d *Document) AuthorName(idx int) string {
	for _, a := range d.Authors {
		if a.Index == idx {
			return a.Name
		}
	}
	return "Unknown"
}

// PlainText flattens the whole document, one line per paragraph.
func (d *Document) PlainText() string {
	var s string
	for i, p := range d.Paragraphs {
		if i > 0 {
			s += "\n"
		}
		s += p.PlainText()
	}
	return s
}

// RenderMode selects how an external renderer should present tracked
// changes. The core produces the tree only; rendering and output escaping
// belong to the consumer.
type RenderMode int

const (
	// ShowMarkup presents insertions and deletions with revision marks.
	ShowMarkup RenderMode = iota
	// ShowFinal presents the document as if every change were accepted.
	ShowFinal
	// ShowOriginal presents the document as if every change were rejected.
	ShowOriginal
)

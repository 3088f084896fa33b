package document

// Clone returns a structurally independent deep copy of the document.
// Edits to the clone never reach the original; the revision engine relies on
// this to keep its inputs untouched.
func (d *Document) Clone() *Document {
	if d == nil {
		return nil
	}
	out := &Document{
		Version:     d.Version,
		Charset:     d.Charset,
		DefaultFont: d.DefaultFont,
		Fonts:       append([]FontEntry(nil), d.Fonts...),
		Colors:      append([]ColorEntry(nil), d.Colors...),
		Authors:     append([]RevisionAuthor(nil), d.Authors...),
	}
	if d.Paragraphs != nil {
		out.Paragraphs = make([]*ParagraphNode, len(d.Paragraphs))
		for i, p := range d.Paragraphs {
			out.Paragraphs[i] = p.Clone()
		}
	}
	return out
}

// Clone deep-copies a paragraph and its inline content.
func (p *ParagraphNode) Clone() *ParagraphNode {
	if p == nil {
		return nil
	}
	return &ParagraphNode{
		Children: CloneInlines(p.Children),
		Format:   p.Format,
	}
}

// CloneInlines deep-copies a slice of inline nodes.
func CloneInlines(nodes []Inline) []Inline {
	if nodes == nil {
		return nil
	}
	out := make([]Inline, len(nodes))
	for i, n := range nodes {
		out[i] = cloneInline(n)
	}
	return out
}

func cloneInline(n Inline) Inline {
	switch v := n.(type) {
	case *TextNode:
		c := *v
		return &c
	case *RevisionNode:
		return &RevisionNode{
			Kind:     v.Kind,
			Children: CloneInlines(v.Children),
			Author:   v.Author,
			DTTM:     v.DTTM,
		}
	default:
		return n
	}
}

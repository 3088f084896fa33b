// Package importer builds document trees from other markup formats so they
// can flow through the same revision and writer machinery as parsed RTF.
package importer

import "github.com/jschulte/rtf-toolkit/document"

// builder accumulates inline content into paragraphs.
type builder struct {
	doc     *document.Document
	inlines []document.Inline
	format  document.ParagraphFormat
}

func newBuilder() *builder {
	return &builder{doc: &document.Document{Version: 1, Charset: "ansi"}}
}

func (b *builder) text(s string, f document.CharacterFormat) {
	if s == "" {
		return
	}
	b.inlines = append(b.inlines, &document.TextNode{Text: s, Format: f})
}

func (b *builder) add(n document.Inline) {
	b.inlines = append(b.inlines, n)
}

// flush closes the current paragraph when it has content.
func (b *builder) flush() {
	if len(b.inlines) == 0 {
		return
	}
	b.doc.Paragraphs = append(b.doc.Paragraphs, &document.ParagraphNode{
		Children: b.inlines,
		Format:   b.format,
	})
	b.inlines = nil
	b.format = document.ParagraphFormat{}
}

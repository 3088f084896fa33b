// Package writer serializes a document tree back to RTF markup.
//
// Output is tree-level faithful, not byte-exact with any source: formatting
// words are re-derived from node snapshots, and each paragraph is terminated
// with an explicit \par so paragraph counts survive a round trip.
package writer

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"strings"

	"github.com/jschulte/rtf-toolkit/document"
)

// Writer emits RTF markup for document trees.
type Writer struct {
	w *bufio.Writer
}

func New(w io.Writer) *Writer {
	return &Writer{w: bufio.NewWriter(w)}
}

// Marshal renders the document to a byte slice.
func Marshal(doc *document.Document) ([]byte, error) {
	var buf bytes.Buffer
	if err := New(&buf).Write(doc); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Write serializes the document, including font, color and revision tables
// and any remaining revision markers.
func (wr *Writer) Write(doc *document.Document) error {
	version := doc.Version
	if version == 0 {
		version = 1
	}
	charset := doc.Charset
	if charset == "" {
		charset = "ansi"
	}
	fmt.Fprintf(wr.w, "{\\rtf%d\\%s\\deff%d", version, charset, doc.DefaultFont)

	wr.writeFontTable(doc.Fonts)
	wr.writeColorTable(doc.Colors)
	wr.writeRevisionTable(doc.Authors)

	wr.w.WriteByte('\n')
	for _, p := range doc.Paragraphs {
		wr.writeParagraph(p)
	}
	wr.w.WriteByte('}')
	return wr.w.Flush()
}

func (wr *Writer) writeFontTable(fonts []document.FontEntry) {
	if len(fonts) == 0 {
		return
	}
	wr.w.WriteString("{\\fonttbl")
	for _, f := range fonts {
		fmt.Fprintf(wr.w, "{\\f%d", f.Index)
		if f.Family != "" {
			fmt.Fprintf(wr.w, "\\f%s", f.Family)
		}
		wr.w.WriteByte(' ')
		escapeTo(wr.w, f.Name)
		wr.w.WriteString(";}")
	}
	wr.w.WriteByte('}')
}

func (wr *Writer) writeColorTable(colors []document.ColorEntry) {
	if len(colors) == 0 {
		return
	}
	wr.w.WriteString("{\\colortbl")
	for i, c := range colors {
		// Index 0 is the reserved default and stays componentless.
		if i > 0 {
			fmt.Fprintf(wr.w, "\\red%d\\green%d\\blue%d", c.R, c.G, c.B)
		}
		wr.w.WriteByte(';')
	}
	wr.w.WriteByte('}')
}

func (wr *Writer) writeRevisionTable(authors []document.RevisionAuthor) {
	if len(authors) == 0 {
		return
	}
	wr.w.WriteString("{\\*\\revtbl")
	for _, a := range authors {
		wr.w.WriteByte('{')
		escapeTo(wr.w, a.Name)
		wr.w.WriteString(";}")
	}
	wr.w.WriteByte('}')
}

func (wr *Writer) writeParagraph(p *document.ParagraphNode) {
	wr.w.WriteString("\\pard")
	wr.writeParagraphFormat(p.Format)
	wr.w.WriteByte(' ')
	for _, n := range p.Children {
		wr.writeInline(n)
	}
	wr.w.WriteString("\\par\n")
}

func (wr *Writer) writeParagraphFormat(f document.ParagraphFormat) {
	switch f.Alignment {
	case document.AlignRight:
		wr.w.WriteString("\\qr")
	case document.AlignCenter:
		wr.w.WriteString("\\qc")
	case document.AlignJustify:
		wr.w.WriteString("\\qj")
	}
	if f.SpaceBefore != 0 {
		fmt.Fprintf(wr.w, "\\sb%d", f.SpaceBefore)
	}
	if f.SpaceAfter != 0 {
		fmt.Fprintf(wr.w, "\\sa%d", f.SpaceAfter)
	}
	if f.IndentLeft != 0 {
		fmt.Fprintf(wr.w, "\\li%d", f.IndentLeft)
	}
	if f.IndentRight != 0 {
		fmt.Fprintf(wr.w, "\\ri%d", f.IndentRight)
	}
	if f.IndentFirst != 0 {
		fmt.Fprintf(wr.w, "\\fi%d", f.IndentFirst)
	}
}

func (wr *Writer) writeInline(n document.Inline) {
	switch v := n.(type) {
	case *document.TextNode:
		wr.writeText(v)
	case *document.RevisionNode:
		wr.writeRevision(v)
	}
}

// writeText wraps each run in its own group so formatting stays scoped to
// the run without tracking state deltas.
func (wr *Writer) writeText(n *document.TextNode) {
	words := formatWords(n.Format)
	if words == "" {
		escapeTo(wr.w, n.Text)
		return
	}
	wr.w.WriteByte('{')
	wr.w.WriteString(words)
	wr.w.WriteByte(' ')
	escapeTo(wr.w, n.Text)
	wr.w.WriteByte('}')
}

func (wr *Writer) writeRevision(n *document.RevisionNode) {
	wr.w.WriteByte('{')
	if n.Kind == document.Deletion {
		wr.w.WriteString("\\deleted")
	} else {
		wr.w.WriteString("\\revised")
	}
	fmt.Fprintf(wr.w, "\\revauth%d", n.Author)
	if n.DTTM != 0 {
		fmt.Fprintf(wr.w, "\\revdttm%d", n.DTTM)
	}
	wr.w.WriteByte(' ')
	for _, c := range n.Children {
		wr.writeInline(c)
	}
	wr.w.WriteByte('}')
}

func formatWords(f document.CharacterFormat) string {
	var b strings.Builder
	if f.Bold {
		b.WriteString("\\b")
	}
	if f.Italic {
		b.WriteString("\\i")
	}
	if f.Underline {
		b.WriteString("\\ul")
	}
	if f.FontSize != 0 {
		fmt.Fprintf(&b, "\\fs%d", f.FontSize)
	}
	if f.Font != 0 {
		fmt.Fprintf(&b, "\\f%d", f.Font)
	}
	if f.Color != 0 {
		fmt.Fprintf(&b, "\\cf%d", f.Color)
	}
	if f.Background != 0 {
		fmt.Fprintf(&b, "\\cb%d", f.Background)
	}
	return b.String()
}

// escapeTo writes text with RTF escaping: structural characters are
// backslash-escaped, bytes in the upper half emit hex escapes, and
// characters beyond one byte emit the \uN directive with a '?' alternate.
func escapeTo(w *bufio.Writer, s string) {
	for _, r := range s {
		switch {
		case r == '\\' || r == '{' || r == '}':
			w.WriteByte('\\')
			w.WriteByte(byte(r))
		case r == '\n':
			w.WriteString("\\line ")
		case r == '\t':
			w.WriteString("\\tab ")
		case r < 0x80:
			w.WriteByte(byte(r))
		case r < 0x100:
			fmt.Fprintf(w, "\\'%02x", r)
		case r > 0xffff:
			// Supplementary-plane characters have no single \uN form.
			w.WriteByte('?')
		default:
			v := int32(r)
			if v > 32767 {
				v -= 65536
			}
			fmt.Fprintf(w, "\\u%d?", v)
		}
	}
}

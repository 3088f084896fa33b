package document

// CharacterFormat is the inheritable character formatting state. The parser
// keeps a stack of these scoped to group nesting; a TextNode stores a copy
// taken at the moment the text was read, never a live reference.
type CharacterFormat struct {
	Bold      bool
	Italic    bool
	Underline bool
	// FontSize is in half-points, per the \fs control word.
	FontSize int
	// Font indexes into Document.Fonts.
	Font int
	// Color and Background index into Document.Colors.
	Color      int
	Background int
}

// Alignment is a paragraph alignment value.
type Alignment int

const (
	AlignLeft Alignment = iota
	AlignRight
	AlignCenter
	AlignJustify
)

func (a Alignment) String() string {
	switch a {
	case AlignRight:
		return "right"
	case AlignCenter:
		return "center"
	case AlignJustify:
		return "justify"
	default:
		return "left"
	}
}

// ParagraphFormat is the paragraph-level formatting captured at each
// paragraph break. Unlike CharacterFormat it is not group-scoped: the parser
// keeps a single accumulator that resets on \par and \pard.
type ParagraphFormat struct {
	Alignment   Alignment
	SpaceBefore int
	SpaceAfter  int
	// Indents are in twips, per \li, \ri and \fi.
	IndentLeft  int
	IndentRight int
	IndentFirst int
}

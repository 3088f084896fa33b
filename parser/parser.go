// Package parser builds the document tree from the scanner's token stream.
//
// Character formatting lives on a stack pushed and popped with group
// nesting; paragraph formatting lives in a single accumulator reset at each
// paragraph break. Each group is classified with one-token lookahead and
// dispatched to a destination-specific sub-parser.
package parser

import (
	"context"
	"errors"
	"io"

	"github.com/jschulte/rtf-toolkit/document"
	"github.com/jschulte/rtf-toolkit/observability"
	"github.com/jschulte/rtf-toolkit/recovery"
	"github.com/jschulte/rtf-toolkit/scanner"
	"github.com/jschulte/rtf-toolkit/security"
)

// ErrNotRTF is returned when the input does not open with an \rtf document
// group.
var ErrNotRTF = errors.New("rtf: input is not an RTF document")

// Config controls parsing. The zero value uses default limits, no recovery
// strategy (skip soft errors), no logging and no tracing.
type Config struct {
	Limits   security.Limits
	Recovery recovery.Strategy
	Logger   observability.Logger
	Tracer   observability.Tracer
}

// Parser turns RTF bytes into a *document.Document. A Parser is stateless
// and may be reused; every Parse call builds fresh scanner and parse state.
type Parser struct {
	cfg Config
}

func New(cfg Config) *Parser {
	cfg.Limits = cfg.Limits.WithDefaults()
	if cfg.Logger == nil {
		cfg.Logger = observability.NopLogger{}
	}
	if cfg.Tracer == nil {
		cfg.Tracer = observability.NopTracer()
	}
	return &Parser{cfg: cfg}
}

// Parse is a convenience entry point using the default configuration.
func Parse(data []byte) (*document.Document, error) {
	return New(Config{}).Parse(data)
}

// Parse runs a full synchronous parse over one in-memory buffer.
func (p *Parser) Parse(data []byte) (*document.Document, error) {
	_, span := p.cfg.Tracer.StartSpan(context.Background(), "rtf.parse")
	defer span.Finish()
	span.SetTag("bytes", len(data))

	sc, err := scanner.New(data, scanner.Config{Limits: p.cfg.Limits, Recovery: p.cfg.Recovery})
	if err != nil {
		span.SetError(err)
		return nil, err
	}
	r := &run{
		tokens: &tokenReader{sc: sc},
		limits: p.cfg.Limits,
		rec:    p.cfg.Recovery,
		logger: p.cfg.Logger,
		doc:    &document.Document{},
	}
	if err := r.parseDocument(); err != nil {
		span.SetError(err)
		return nil, err
	}
	span.SetTag("paragraphs", len(r.doc.Paragraphs))
	return r.doc, nil
}

// run is the state of a single parse call.
type run struct {
	tokens *tokenReader
	limits security.Limits
	rec    recovery.Strategy
	logger observability.Logger

	doc *document.Document

	// formats is the group-scoped character formatting stack.
	formats []document.CharacterFormat
	// paraFormat accumulates paragraph properties until the next break.
	paraFormat document.ParagraphFormat
	// inlines accumulates the current paragraph's content.
	inlines []document.Inline
	// curRev receives \revauth and \revdttm metadata while a revision
	// group is being parsed; nil outside one.
	curRev *document.RevisionNode

	depth int
}

func (r *run) parseDocument() error {
	tok, err := r.tokens.next()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return ErrNotRTF
		}
		return err
	}
	if tok.Type != scanner.TokenGroupStart {
		return ErrNotRTF
	}
	if first, err := r.tokens.peek(); err != nil || first.Type != scanner.TokenControlWord || first.Name != "rtf" {
		if err != nil && !errors.Is(err, io.EOF) {
			return err
		}
		return ErrNotRTF
	}

	r.formats = append(r.formats, document.CharacterFormat{})
	if err := r.parseGroup(); err != nil {
		return err
	}
	// Trailing content with no final \par still forms a paragraph.
	if len(r.inlines) > 0 {
		r.flushParagraph()
	}
	r.logger.Debug("parse complete",
		observability.Int("paragraphs", len(r.doc.Paragraphs)),
		observability.Int("fonts", len(r.doc.Fonts)),
		observability.Int("colors", len(r.doc.Colors)))
	return nil
}

// parseGroup is called with the cursor just past a '{'. It bounds the depth
// counter, pushes a copy of the inherited formatting state and guarantees
// both are unwound on every exit path.
func (r *run) parseGroup() error {
	r.depth++
	if r.depth > r.limits.MaxGroupDepth {
		return security.NewLimitError("group depth", r.limits.MaxGroupDepth, r.depth, r.tokens.sc.Pos().Offset)
	}
	r.formats = append(r.formats, r.format())
	defer func() {
		r.depth--
		r.formats = r.formats[:len(r.formats)-1]
	}()

	kind, err := r.classify()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil
		}
		return err
	}

	switch kind {
	case groupFontTable:
		r.tokens.mustNext() // \fonttbl
		return r.parseFontTable()
	case groupColorTable:
		r.tokens.mustNext() // \colortbl
		return r.parseColorTable()
	case groupRevisionTable:
		r.tokens.mustNext() // \*
		r.tokens.mustNext() // \revtbl
		return r.parseRevisionTable()
	case groupIgnorable:
		return r.skipGroup()
	case groupRevised:
		r.tokens.mustNext() // \revised
		return r.parseRevisionGroup(document.Insertion)
	case groupDeleted:
		r.tokens.mustNext() // \deleted
		return r.parseRevisionGroup(document.Deletion)
	default:
		return r.parseBody()
	}
}

// parseBody consumes inline content up to and including the group's closing
// brace. Unterminated groups at end of input are tolerated.
func (r *run) parseBody() error {
	for {
		tok, err := r.tokens.next()
		if err != nil {
			if errors.Is(err, io.EOF) {
				return r.soft(errors.New("unbalanced group at end of input"), "parser:group")
			}
			return err
		}
		switch tok.Type {
		case scanner.TokenGroupEnd:
			return nil
		case scanner.TokenGroupStart:
			if err := r.parseGroup(); err != nil {
				return err
			}
		case scanner.TokenText:
			if tok.Text != "" {
				r.appendText(tok.Text)
			}
		case scanner.TokenControlSymbol:
			// Named symbols decode to fixed characters; a stray
			// ignorable marker outside group start is meaningless.
			if tok.Symbol != scanner.SymbolIgnorable {
				r.appendText(tok.Text)
			}
		case scanner.TokenControlWord:
			if err := r.applyControlWord(tok); err != nil {
				return err
			}
		}
	}
}

// applyControlWord mutates formatting state or document header fields.
// Unknown control words are skipped.
func (r *run) applyControlWord(tok scanner.Token) error {
	top := &r.formats[len(r.formats)-1]
	switch tok.Name {
	case "par":
		if r.curRev != nil {
			// Paragraph breaks do not propagate out of a revision
			// wrapper; the marker applies to inline content only.
			return nil
		}
		r.flushParagraph()
	case "pard":
		r.paraFormat = document.ParagraphFormat{}
	case "ql":
		r.paraFormat.Alignment = document.AlignLeft
	case "qr":
		r.paraFormat.Alignment = document.AlignRight
	case "qc":
		r.paraFormat.Alignment = document.AlignCenter
	case "qj":
		r.paraFormat.Alignment = document.AlignJustify
	case "sb":
		r.paraFormat.SpaceBefore = tok.Param
	case "sa":
		r.paraFormat.SpaceAfter = tok.Param
	case "li":
		r.paraFormat.IndentLeft = tok.Param
	case "ri":
		r.paraFormat.IndentRight = tok.Param
	case "fi":
		r.paraFormat.IndentFirst = tok.Param

	case "b":
		top.Bold = !tok.HasParam || tok.Param != 0
	case "i":
		top.Italic = !tok.HasParam || tok.Param != 0
	case "ul":
		top.Underline = !tok.HasParam || tok.Param != 0
	case "ulnone":
		top.Underline = false
	case "plain":
		*top = document.CharacterFormat{Font: r.doc.DefaultFont}
	case "fs":
		if tok.HasParam {
			top.FontSize = tok.Param
		}
	case "f":
		if tok.HasParam {
			if err := r.checkIndex("font table index", r.limits.MaxFontTableSize, tok); err != nil {
				return err
			}
			top.Font = tok.Param
		}
	case "cf":
		if tok.HasParam {
			if err := r.checkIndex("color table index", r.limits.MaxColorTableSize, tok); err != nil {
				return err
			}
			top.Color = tok.Param
		}
	case "cb", "highlight":
		if tok.HasParam {
			if err := r.checkIndex("color table index", r.limits.MaxColorTableSize, tok); err != nil {
				return err
			}
			top.Background = tok.Param
		}

	case "rtf":
		if tok.HasParam {
			r.doc.Version = tok.Param
		}
	case "ansi", "mac", "pc", "pca":
		r.doc.Charset = tok.Name
	case "deff":
		if tok.HasParam {
			if err := r.checkIndex("font table index", r.limits.MaxFontTableSize, tok); err != nil {
				return err
			}
			r.doc.DefaultFont = tok.Param
		}

	case "revauth", "revauthdel":
		if r.curRev != nil && tok.HasParam {
			if err := r.checkIndex("revision table index", r.limits.MaxRevisionTableSize, tok); err != nil {
				return err
			}
			r.curRev.Author = tok.Param
		}
	case "revdttm", "revdttmdel":
		if r.curRev != nil && tok.HasParam {
			r.curRev.DTTM = int64(tok.Param)
		}

	case "tab":
		r.appendText("\t")
	case "line":
		r.appendText("\n")
	case "emdash":
		r.appendText("—")
	case "endash":
		r.appendText("–")
	case "bullet":
		r.appendText("•")
	case "lquote":
		r.appendText("‘")
	case "rquote":
		r.appendText("’")
	case "ldblquote":
		r.appendText("“")
	case "rdblquote":
		r.appendText("”")

	default:
		r.logger.Debug("skipping unknown control word", observability.String("word", tok.Name))
	}
	return nil
}

// checkIndex bounds a table index referenced from body text against the same
// limit that governs the table definition itself.
func (r *run) checkIndex(limit string, max int, tok scanner.Token) error {
	if tok.Param < 0 || tok.Param > max {
		return security.NewLimitError(limit, max, tok.Param, tok.Pos.Offset)
	}
	return nil
}

// parseRevisionGroup collects the group's interior as the children of a new
// RevisionNode, consuming interleaved author and timestamp metadata.
func (r *run) parseRevisionGroup(kind document.RevisionKind) error {
	rev := &document.RevisionNode{Kind: kind}

	outerInlines := r.inlines
	outerRev := r.curRev
	r.inlines = nil
	r.curRev = rev
	err := r.parseBody()
	rev.Children = r.inlines
	r.inlines = outerInlines
	r.curRev = outerRev
	if err != nil {
		return err
	}

	r.inlines = append(r.inlines, rev)
	r.logger.Debug("revision group",
		observability.String("kind", kind.String()),
		observability.Int("author", rev.Author))
	return nil
}

// appendText records a text run with a frozen snapshot of the current
// top-of-stack character formatting.
func (r *run) appendText(text string) {
	r.inlines = append(r.inlines, &document.TextNode{Text: text, Format: r.format()})
}

func (r *run) format() document.CharacterFormat {
	return r.formats[len(r.formats)-1]
}

// flushParagraph closes the current paragraph, even when empty, preserving
// blank lines, and resets the paragraph accumulator.
func (r *run) flushParagraph() {
	r.doc.Paragraphs = append(r.doc.Paragraphs, &document.ParagraphNode{
		Children: r.inlines,
		Format:   r.paraFormat,
	})
	r.inlines = nil
	r.paraFormat = document.ParagraphFormat{}
}

func (r *run) soft(err error, component string) error {
	if r.rec == nil {
		return nil
	}
	pos := r.tokens.sc.Pos()
	action := r.rec.OnError(err, recovery.Location{
		ByteOffset: pos.Offset,
		Line:       pos.Line,
		Column:     pos.Column,
		Component:  component,
	})
	if action == recovery.ActionFail {
		return err
	}
	return nil
}

// tokenReader adds bounded lookahead over the scanner's token stream.
type tokenReader struct {
	sc  *scanner.Scanner
	buf []scanner.Token
}

func (t *tokenReader) next() (scanner.Token, error) {
	if len(t.buf) > 0 {
		tok := t.buf[0]
		t.buf = t.buf[:copy(t.buf, t.buf[1:])]
		return tok, nil
	}
	return t.sc.Next()
}

// mustNext discards a token already seen through peek.
func (t *tokenReader) mustNext() {
	_, _ = t.next()
}

func (t *tokenReader) peek() (scanner.Token, error) {
	return t.peekAt(0)
}

// peekAt returns the n-th upcoming token without consuming it.
func (t *tokenReader) peekAt(n int) (scanner.Token, error) {
	for len(t.buf) <= n {
		tok, err := t.sc.Next()
		if err != nil {
			return scanner.Token{}, err
		}
		t.buf = append(t.buf, tok)
	}
	return t.buf[n], nil
}

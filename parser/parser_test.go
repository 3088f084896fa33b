package parser

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/jschulte/rtf-toolkit/document"
	"github.com/jschulte/rtf-toolkit/observability"
	"github.com/jschulte/rtf-toolkit/security"
)

func parse(t *testing.T, input string) *document.Document {
	t.Helper()
	doc, err := Parse([]byte(input))
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	return doc
}

func firstText(t *testing.T, p *document.ParagraphNode) *document.TextNode {
	t.Helper()
	for _, n := range p.Children {
		if tn, ok := n.(*document.TextNode); ok {
			return tn
		}
	}
	t.Fatal("paragraph has no text node")
	return nil
}

func TestParse_Header(t *testing.T) {
	doc := parse(t, `{\rtf1\ansi\deff2 Hello}`)
	if doc.Version != 1 {
		t.Fatalf("version = %d, want 1", doc.Version)
	}
	if doc.Charset != "ansi" {
		t.Fatalf("charset = %q, want ansi", doc.Charset)
	}
	if doc.DefaultFont != 2 {
		t.Fatalf("default font = %d, want 2", doc.DefaultFont)
	}
}

func TestParse_NotRTF(t *testing.T) {
	for _, input := range []string{"plain text", `{\pard no version}`} {
		if _, err := Parse([]byte(input)); !errors.Is(err, ErrNotRTF) {
			t.Fatalf("input %q: expected ErrNotRTF, got %v", input, err)
		}
	}
}

func TestParse_ParagraphCount(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  int
	}{
		{"trailing content only", `{\rtf1 one}`, 1},
		{"break plus trailing", `{\rtf1 one\par two}`, 2},
		{"trailing break without content", `{\rtf1 one\par}`, 1},
		{"blank line preserved", `{\rtf1 one\par\par two}`, 3},
		{"empty document group", `{\rtf1 }`, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc := parse(t, tt.input)
			if len(doc.Paragraphs) != tt.want {
				t.Fatalf("paragraph count = %d, want %d", len(doc.Paragraphs), tt.want)
			}
		})
	}
}

func TestParse_FormattingInheritance(t *testing.T) {
	doc := parse(t, `{\rtf1 plain {\b bold {\i bolditalic}} after}`)
	p := doc.Paragraphs[0]
	if len(p.Children) != 4 {
		t.Fatalf("expected 4 text runs, got %d", len(p.Children))
	}
	runs := make([]*document.TextNode, 4)
	for i, n := range p.Children {
		runs[i] = n.(*document.TextNode)
	}
	if runs[0].Format.Bold || runs[0].Format.Italic {
		t.Fatalf("run 0 should be unformatted: %+v", runs[0].Format)
	}
	if !runs[1].Format.Bold || runs[1].Format.Italic {
		t.Fatalf("run 1 should be bold only: %+v", runs[1].Format)
	}
	if !runs[2].Format.Bold || !runs[2].Format.Italic {
		t.Fatalf("run 2 should inherit bold and add italic: %+v", runs[2].Format)
	}
	// Group exit restores the outer state on every path.
	if runs[3].Format.Bold || runs[3].Format.Italic {
		t.Fatalf("run 3 should be unformatted again: %+v", runs[3].Format)
	}
}

func TestParse_FormatToggles(t *testing.T) {
	doc := parse(t, `{\rtf1\b on\b0 off\ul under\ulnone plain}`)
	runs := doc.Paragraphs[0].Children
	if !runs[0].(*document.TextNode).Format.Bold {
		t.Fatal("\\b should enable bold")
	}
	if runs[1].(*document.TextNode).Format.Bold {
		t.Fatal("\\b0 should disable bold")
	}
	if !runs[2].(*document.TextNode).Format.Underline {
		t.Fatal("\\ul should enable underline")
	}
	if runs[3].(*document.TextNode).Format.Underline {
		t.Fatal("\\ulnone should disable underline")
	}
}

func TestParse_TextSnapshotIsFrozen(t *testing.T) {
	// Later formatting words in the same group must not retroactively
	// change text that was already read.
	doc := parse(t, `{\rtf1 before\b after}`)
	runs := doc.Paragraphs[0].Children
	if runs[0].(*document.TextNode).Format.Bold {
		t.Fatal("formatting leaked backwards into an earlier snapshot")
	}
	if !runs[1].(*document.TextNode).Format.Bold {
		t.Fatal("formatting should apply forward")
	}
}

func TestParse_ParagraphFormatting(t *testing.T) {
	doc := parse(t, `{\rtf1\qc\sb120\sa240\li720\ri360\fi-360 centered\par left}`)
	f := doc.Paragraphs[0].Format
	if f.Alignment != document.AlignCenter {
		t.Fatalf("alignment = %v, want center", f.Alignment)
	}
	if f.SpaceBefore != 120 || f.SpaceAfter != 240 {
		t.Fatalf("spacing = %d/%d, want 120/240", f.SpaceBefore, f.SpaceAfter)
	}
	if f.IndentLeft != 720 || f.IndentRight != 360 || f.IndentFirst != -360 {
		t.Fatalf("indents = %d/%d/%d", f.IndentLeft, f.IndentRight, f.IndentFirst)
	}
	// The accumulator resets at the break; the second paragraph is default.
	if doc.Paragraphs[1].Format != (document.ParagraphFormat{}) {
		t.Fatalf("paragraph state must reset on \\par: %+v", doc.Paragraphs[1].Format)
	}
}

func TestParse_FontTable(t *testing.T) {
	doc := parse(t, `{\rtf1{\fonttbl{\f0\froman Times New Roman;}{\f1\fswiss Arial;}}body}`)
	if len(doc.Fonts) != 2 {
		t.Fatalf("font count = %d, want 2", len(doc.Fonts))
	}
	if doc.Fonts[0].Index != 0 || doc.Fonts[0].Name != "Times New Roman" || doc.Fonts[0].Family != "roman" {
		t.Fatalf("font 0 = %+v", doc.Fonts[0])
	}
	if doc.Fonts[1].Index != 1 || doc.Fonts[1].Name != "Arial" || doc.Fonts[1].Family != "swiss" {
		t.Fatalf("font 1 = %+v", doc.Fonts[1])
	}
	// Table contents never leak into document text.
	if got := doc.Paragraphs[0].PlainText(); got != "body" {
		t.Fatalf("content = %q, want body", got)
	}
}

func TestParse_FontIndexLimit(t *testing.T) {
	_, err := Parse([]byte(`{\rtf1{\fonttbl{\f9999 Huge;}}}`))
	var le *security.LimitError
	if !errors.As(err, &le) || le.Limit != "font table index" {
		t.Fatalf("expected font table index error, got %v", err)
	}
	if le.Actual != 9999 || le.Max != 1000 {
		t.Fatalf("limit error fields: %+v", le)
	}
}

func TestParse_ColorTable(t *testing.T) {
	doc := parse(t, `{\rtf1{\colortbl;\red255\green0\blue0;\red0\green0\blue255;}}`)
	if len(doc.Colors) != 3 {
		t.Fatalf("color count = %d, want 3 (reserved default + 2)", len(doc.Colors))
	}
	if doc.Colors[0] != (document.ColorEntry{}) {
		t.Fatalf("index 0 must stay the reserved default, got %+v", doc.Colors[0])
	}
	if doc.Colors[1] != (document.ColorEntry{R: 255}) {
		t.Fatalf("color 1 = %+v", doc.Colors[1])
	}
	if doc.Colors[2] != (document.ColorEntry{B: 255}) {
		t.Fatalf("color 2 = %+v", doc.Colors[2])
	}
}

func TestParse_ColorComponentsClamped(t *testing.T) {
	doc := parse(t, `{\rtf1{\colortbl;\red999\green-50\blue300;}}`)
	if len(doc.Colors) != 2 {
		t.Fatalf("color count = %d, want 2", len(doc.Colors))
	}
	want := document.ColorEntry{R: 255, G: 0, B: 255}
	if doc.Colors[1] != want {
		t.Fatalf("clamped color = %+v, want %+v", doc.Colors[1], want)
	}
}

func TestParse_BodyIndexReferencesBounded(t *testing.T) {
	tests := []struct {
		name  string
		input string
		limit string
	}{
		{"font reference", `{\rtf1\f9999 x}`, "font table index"},
		{"negative font reference", `{\rtf1\f-1 x}`, "font table index"},
		{"default font", `{\rtf1\deff9999 x}`, "font table index"},
		{"foreground color", `{\rtf1\cf2000 x}`, "color table index"},
		{"background color", `{\rtf1\cb2000 x}`, "color table index"},
		{"highlight", `{\rtf1\highlight2000 x}`, "color table index"},
		{"revision author", `{\rtf1{\revised\revauth2000 x}}`, "revision table index"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.input))
			var le *security.LimitError
			if !errors.As(err, &le) || le.Limit != tt.limit {
				t.Fatalf("expected %s error, got %v", tt.limit, err)
			}
		})
	}

	// In-range references are unaffected.
	doc := parse(t, `{\rtf1\deff1\f2\cf3\cb4 x}`)
	run := firstText(t, doc.Paragraphs[0])
	if doc.DefaultFont != 1 || run.Format.Font != 2 || run.Format.Color != 3 || run.Format.Background != 4 {
		t.Fatalf("in-range references mangled: %+v %+v", doc, run.Format)
	}
}

func TestParse_ColorTableSizeLimit(t *testing.T) {
	var b strings.Builder
	b.WriteString(`{\rtf1{\colortbl;`)
	for i := 0; i < 5; i++ {
		b.WriteString(`\red1\green2\blue3;`)
	}
	b.WriteString(`}}`)
	p := New(Config{Limits: security.Limits{MaxColorTableSize: 3}})
	_, err := p.Parse([]byte(b.String()))
	var le *security.LimitError
	if !errors.As(err, &le) || le.Limit != "color table size" {
		t.Fatalf("expected color table size error, got %v", err)
	}
}

func TestParse_RevisionTable(t *testing.T) {
	doc := parse(t, `{\rtf1{\*\revtbl{Unknown;}{John Doe;}{Jane Roe;}}x}`)
	if len(doc.Authors) != 3 {
		t.Fatalf("author count = %d, want 3", len(doc.Authors))
	}
	for i, want := range []string{"Unknown", "John Doe", "Jane Roe"} {
		if doc.Authors[i].Index != i || doc.Authors[i].Name != want {
			t.Fatalf("author %d = %+v, want %q", i, doc.Authors[i], want)
		}
	}
}

func TestParse_IgnorableDestinationSkipped(t *testing.T) {
	doc := parse(t, `{\rtf1{\*\generator Some Writer 1.0;}visible}`)
	if got := doc.PlainText(); got != "visible" {
		t.Fatalf("content = %q, want visible", got)
	}
	if doc.HasRevisions() {
		t.Fatal("no revisions expected")
	}
}

func TestParse_RevisionGroups(t *testing.T) {
	doc := parse(t, `{\rtf1{\*\revtbl{Unknown;}{John Doe;}}Text {\revised\revauth1 inserted} more{\deleted\revauth1\revdttm100 gone}.}`)
	if !doc.HasRevisions() {
		t.Fatal("document should report revisions")
	}
	p := doc.Paragraphs[0]
	var revs []*document.RevisionNode
	for _, n := range p.Children {
		if r, ok := n.(*document.RevisionNode); ok {
			revs = append(revs, r)
		}
	}
	if len(revs) != 2 {
		t.Fatalf("revision count = %d, want 2", len(revs))
	}
	if revs[0].Kind != document.Insertion || revs[0].Author != 1 || revs[0].PlainText() != "inserted" {
		t.Fatalf("insertion = %+v", revs[0])
	}
	if revs[1].Kind != document.Deletion || revs[1].DTTM != 100 || revs[1].PlainText() != "gone" {
		t.Fatalf("deletion = %+v", revs[1])
	}
}

func TestParse_NestedRevisions(t *testing.T) {
	doc := parse(t, `{\rtf1 {\revised\revauth1 kept {\deleted\revauth2 dropped}}}`)
	p := doc.Paragraphs[0]
	outer := p.Children[0].(*document.RevisionNode)
	if outer.Kind != document.Insertion {
		t.Fatalf("outer kind = %v", outer.Kind)
	}
	inner, ok := outer.Children[len(outer.Children)-1].(*document.RevisionNode)
	if !ok || inner.Kind != document.Deletion || inner.Author != 2 {
		t.Fatalf("inner revision = %+v", outer.Children)
	}
}

func TestParse_FormattingInsideRevision(t *testing.T) {
	doc := parse(t, `{\rtf1 {\revised\revauth1 plain {\b bold}}}`)
	rev := doc.Paragraphs[0].Children[0].(*document.RevisionNode)
	last := rev.Children[len(rev.Children)-1].(*document.TextNode)
	if !last.Format.Bold {
		t.Fatal("formatting inside a revision must be captured")
	}
}

func TestParse_DepthLimit(t *testing.T) {
	input := `{\rtf1 ` + strings.Repeat("{", 200) + strings.Repeat("}", 200) + `}`
	_, err := Parse([]byte(input))
	var le *security.LimitError
	if !errors.As(err, &le) || le.Limit != "group depth" {
		t.Fatalf("expected group depth error, got %v", err)
	}
}

func TestParse_DepthLimitInsideIgnorable(t *testing.T) {
	input := `{\rtf1 {\*\weird ` + strings.Repeat("{", 200) + strings.Repeat("}", 200) + `}}`
	_, err := Parse([]byte(input))
	var le *security.LimitError
	if !errors.As(err, &le) || le.Limit != "group depth" {
		t.Fatalf("skipped regions must still bound nesting, got %v", err)
	}
}

func TestParse_UnknownControlWordsSkipped(t *testing.T) {
	doc := parse(t, `{\rtf1\nosuchword\alsonot42 text}`)
	if got := doc.PlainText(); got != "text" {
		t.Fatalf("content = %q, want text", got)
	}
}

func TestParse_SpecialCharacterWords(t *testing.T) {
	doc := parse(t, `{\rtf1 a\emdash b\tab c\~d}`)
	if got := doc.PlainText(); got != "a—b\tc d" {
		t.Fatalf("content = %q", got)
	}
}

func TestParse_UnbalancedInputTolerated(t *testing.T) {
	doc := parse(t, `{\rtf1 open {\b bold`)
	if got := doc.PlainText(); got != "open bold" {
		t.Fatalf("content = %q", got)
	}
}

type recordingTracer struct {
	names []string
	span  *recordingSpan
}

type recordingSpan struct {
	tags     map[string]interface{}
	err      error
	finished bool
}

func (tr *recordingTracer) StartSpan(ctx context.Context, name string) (context.Context, observability.Span) {
	tr.names = append(tr.names, name)
	tr.span = &recordingSpan{tags: map[string]interface{}{}}
	return ctx, tr.span
}

func (s *recordingSpan) SetTag(key string, value interface{}) { s.tags[key] = value }
func (s *recordingSpan) SetError(err error)                   { s.err = err }
func (s *recordingSpan) Finish()                              { s.finished = true }

func TestParse_Tracing(t *testing.T) {
	tr := &recordingTracer{}
	p := New(Config{Tracer: tr})
	if _, err := p.Parse([]byte(`{\rtf1 one\par two}`)); err != nil {
		t.Fatalf("parse: %v", err)
	}
	if len(tr.names) != 1 || tr.names[0] != "rtf.parse" {
		t.Fatalf("span names = %v", tr.names)
	}
	if !tr.span.finished || tr.span.err != nil {
		t.Fatalf("span = %+v", tr.span)
	}
	if tr.span.tags["paragraphs"] != 2 {
		t.Fatalf("paragraph tag = %v", tr.span.tags["paragraphs"])
	}

	if _, err := p.Parse([]byte("not rtf")); err == nil {
		t.Fatal("expected parse failure")
	}
	if !errors.Is(tr.span.err, ErrNotRTF) {
		t.Fatalf("span error = %v", tr.span.err)
	}
}

func TestParse_FontSizeAndColorReferences(t *testing.T) {
	doc := parse(t, `{\rtf1{\colortbl;\red255\green0\blue0;}\fs48\cf1 big red}`)
	run := firstText(t, doc.Paragraphs[0])
	if run.Format.FontSize != 48 || run.Format.Color != 1 {
		t.Fatalf("format = %+v", run.Format)
	}
}

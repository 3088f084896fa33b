package parser

import (
	"errors"
	"io"
	"strings"

	"github.com/jschulte/rtf-toolkit/document"
	"github.com/jschulte/rtf-toolkit/observability"
	"github.com/jschulte/rtf-toolkit/scanner"
	"github.com/jschulte/rtf-toolkit/security"
)

// groupKind is the tagged result of classifying a freshly opened group.
type groupKind int

const (
	groupFormatting groupKind = iota
	groupFontTable
	groupColorTable
	groupIgnorable
	groupRevisionTable
	groupRevised
	groupDeleted
)

func (k groupKind) String() string {
	switch k {
	case groupFontTable:
		return "font-table"
	case groupColorTable:
		return "color-table"
	case groupIgnorable:
		return "ignorable"
	case groupRevisionTable:
		return "revision-table"
	case groupRevised:
		return "revised"
	case groupDeleted:
		return "deleted"
	default:
		return "formatting"
	}
}

// classify decides how to dispatch the group the cursor just entered.
// It peeks at most two tokens and consumes none.
func (r *run) classify() (groupKind, error) {
	first, err := r.tokens.peek()
	if err != nil {
		return groupFormatting, err
	}
	kind := classifyGroup(first, func() (scanner.Token, bool) {
		second, err := r.tokens.peekAt(1)
		if err != nil {
			return scanner.Token{}, false
		}
		return second, true
	})
	if kind != groupFormatting {
		r.logger.Debug("group classified", observability.String("kind", kind.String()))
	}
	return kind, nil
}

// classifyGroup maps the first token of a group (and, for ignorable
// destinations, a lazily fetched second token) to a destination kind.
func classifyGroup(first scanner.Token, second func() (scanner.Token, bool)) groupKind {
	switch first.Type {
	case scanner.TokenControlWord:
		switch first.Name {
		case "fonttbl":
			return groupFontTable
		case "colortbl":
			return groupColorTable
		case "revised":
			return groupRevised
		case "deleted":
			return groupDeleted
		}
	case scanner.TokenControlSymbol:
		if first.Symbol == scanner.SymbolIgnorable {
			if tok, ok := second(); ok &&
				tok.Type == scanner.TokenControlWord && tok.Name == "revtbl" {
				return groupRevisionTable
			}
			return groupIgnorable
		}
	}
	return groupFormatting
}

// parseFontTable consumes a \fonttbl destination through its closing brace.
// Entries appear either as subgroups ({\f0\froman Times New Roman;}) or as a
// flat run; each entry ends at a ';'. Indices are validated against the
// configured table size before insertion.
func (r *run) parseFontTable() error {
	var (
		cur     document.FontEntry
		name    strings.Builder
		started bool
		nested  int
	)
	flush := func() {
		if !started {
			return
		}
		cur.Name = strings.TrimSpace(name.String())
		r.doc.Fonts = append(r.doc.Fonts, cur)
		cur = document.FontEntry{}
		name.Reset()
		started = false
	}
	for {
		tok, err := r.tokens.next()
		if err != nil {
			if errors.Is(err, io.EOF) {
				return r.soft(errors.New("unterminated font table"), "parser:fonttbl")
			}
			return err
		}
		switch tok.Type {
		case scanner.TokenGroupStart:
			nested++
			if r.depth+nested > r.limits.MaxGroupDepth {
				return security.NewLimitError("group depth", r.limits.MaxGroupDepth, r.depth+nested, tok.Pos.Offset)
			}
		case scanner.TokenGroupEnd:
			if nested == 0 {
				flush()
				return nil
			}
			nested--
			flush()
		case scanner.TokenControlWord:
			switch tok.Name {
			case "f":
				flush()
				if tok.Param < 0 || tok.Param > r.limits.MaxFontTableSize {
					return security.NewLimitError("font table index", r.limits.MaxFontTableSize, tok.Param, tok.Pos.Offset)
				}
				cur.Index = tok.Param
				started = true
			case "froman", "fswiss", "fmodern", "fscript", "fdecor", "ftech", "fbidi", "fnil":
				cur.Family = strings.TrimPrefix(tok.Name, "f")
			}
		case scanner.TokenText:
			text := tok.Text
			for {
				idx := strings.IndexByte(text, ';')
				if idx < 0 {
					name.WriteString(text)
					break
				}
				name.WriteString(text[:idx])
				flush()
				text = text[idx+1:]
			}
		}
	}
}

// parseColorTable consumes a \colortbl destination. Entries are separated
// by ';'; the leading empty entry is the reserved default at index 0. RGB
// components outside 0-255 are clamped.
func (r *run) parseColorTable() error {
	var cur document.ColorEntry
	insert := func(pos scanner.Pos) error {
		if len(r.doc.Colors) >= r.limits.MaxColorTableSize {
			return security.NewLimitError("color table size", r.limits.MaxColorTableSize, len(r.doc.Colors)+1, pos.Offset)
		}
		r.doc.Colors = append(r.doc.Colors, cur)
		cur = document.ColorEntry{}
		return nil
	}
	for {
		tok, err := r.tokens.next()
		if err != nil {
			if errors.Is(err, io.EOF) {
				return r.soft(errors.New("unterminated color table"), "parser:colortbl")
			}
			return err
		}
		switch tok.Type {
		case scanner.TokenGroupEnd:
			return nil
		case scanner.TokenControlWord:
			switch tok.Name {
			case "red":
				cur.R = clampColor(tok.Param)
			case "green":
				cur.G = clampColor(tok.Param)
			case "blue":
				cur.B = clampColor(tok.Param)
			}
		case scanner.TokenText:
			for _, c := range tok.Text {
				if c == ';' {
					if err := insert(tok.Pos); err != nil {
						return err
					}
				}
			}
		}
	}
}

func clampColor(v int) uint8 {
	if v < 0 {
		return 0
	}
	if v > 255 {
		return 255
	}
	return uint8(v)
}

// parseRevisionTable consumes a {\*\revtbl ...} destination, collecting
// author names in appearance order. Names usually come one per subgroup,
// terminated by ';'.
func (r *run) parseRevisionTable() error {
	var (
		name   strings.Builder
		nested int
	)
	insert := func(pos scanner.Pos) error {
		n := strings.TrimSpace(name.String())
		name.Reset()
		if n == "" {
			return nil
		}
		if len(r.doc.Authors) >= r.limits.MaxRevisionTableSize {
			return security.NewLimitError("revision table size", r.limits.MaxRevisionTableSize, len(r.doc.Authors)+1, pos.Offset)
		}
		r.doc.Authors = append(r.doc.Authors, document.RevisionAuthor{Index: len(r.doc.Authors), Name: n})
		return nil
	}
	for {
		tok, err := r.tokens.next()
		if err != nil {
			if errors.Is(err, io.EOF) {
				return r.soft(errors.New("unterminated revision table"), "parser:revtbl")
			}
			return err
		}
		switch tok.Type {
		case scanner.TokenGroupStart:
			nested++
			if r.depth+nested > r.limits.MaxGroupDepth {
				return security.NewLimitError("group depth", r.limits.MaxGroupDepth, r.depth+nested, tok.Pos.Offset)
			}
		case scanner.TokenGroupEnd:
			if nested == 0 {
				if err := insert(tok.Pos); err != nil {
					return err
				}
				return nil
			}
			nested--
		case scanner.TokenText:
			text := tok.Text
			for {
				idx := strings.IndexByte(text, ';')
				if idx < 0 {
					name.WriteString(text)
					break
				}
				name.WriteString(text[:idx])
				if err := insert(tok.Pos); err != nil {
					return err
				}
				text = text[idx+1:]
			}
		}
	}
}

// skipGroup discards an ignorable destination wholesale, through its
// matching closing brace. Nesting inside the skipped region still counts
// against the depth limit.
func (r *run) skipGroup() error {
	nested := 0
	for {
		tok, err := r.tokens.next()
		if err != nil {
			if errors.Is(err, io.EOF) {
				return r.soft(errors.New("unterminated ignorable destination"), "parser:ignorable")
			}
			return err
		}
		switch tok.Type {
		case scanner.TokenGroupStart:
			nested++
			if r.depth+nested > r.limits.MaxGroupDepth {
				return security.NewLimitError("group depth", r.limits.MaxGroupDepth, r.depth+nested, tok.Pos.Offset)
			}
		case scanner.TokenGroupEnd:
			if nested == 0 {
				return nil
			}
			nested--
		}
	}
}

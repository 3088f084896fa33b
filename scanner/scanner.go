// Package scanner tokenizes brace-delimited RTF markup in a single forward
// pass over one in-memory buffer.
package scanner

import (
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/jschulte/rtf-toolkit/recovery"
	"github.com/jschulte/rtf-toolkit/security"
)

// ErrEmptyInput is returned by New before any scanning happens.
var ErrEmptyInput = errors.New("rtf: input is empty")

// errSkipToken signals an internal soft recovery: nothing was emitted and
// the main loop should continue with the next token.
var errSkipToken = errors.New("skip token")

type Config struct {
	Limits   security.Limits
	Recovery recovery.Strategy
}

// Scanner is a character-level cursor over the input buffer. It tracks
// offset, line and column, and emits the flat token stream the parser
// consumes. One Scanner serves exactly one parse call.
type Scanner struct {
	data     []byte
	pos      int
	line     int
	col      int
	limits   security.Limits
	recovery recovery.Strategy
}

// New validates the input and returns a scanner positioned at the start.
// Nil or empty input is rejected immediately, as is input larger than the
// configured maximum document size.
func New(data []byte, cfg Config) (*Scanner, error) {
	if len(data) == 0 {
		return nil, ErrEmptyInput
	}
	limits := cfg.Limits.WithDefaults()
	if len(data) > limits.MaxDocumentSize {
		return nil, security.NewLimitError("document size", limits.MaxDocumentSize, len(data), 0)
	}
	return &Scanner{
		data:     data,
		line:     1,
		col:      1,
		limits:   limits,
		recovery: cfg.Recovery,
	}, nil
}

// Pos reports the current cursor position.
func (s *Scanner) Pos() Pos {
	return Pos{Offset: s.pos, Line: s.line, Column: s.col}
}

// Next returns the next token, or io.EOF once the input is exhausted.
// Limit violations surface as *security.LimitError; recoverable
// malformations are skipped (subject to the configured recovery strategy).
func (s *Scanner) Next() (Token, error) {
	for {
		if s.pos >= len(s.data) {
			return Token{}, io.EOF
		}
		start := s.Pos()
		c := s.data[s.pos]
		switch c {
		case '{':
			s.advance()
			return Token{Type: TokenGroupStart, Pos: start}, nil
		case '}':
			s.advance()
			return Token{Type: TokenGroupEnd, Pos: start}, nil
		case '\r', '\n':
			// Raw line breaks are markup formatting, not content.
			s.advance()
			continue
		case '\\':
			tok, err := s.scanControl(start)
			if errors.Is(err, errSkipToken) {
				continue
			}
			return tok, err
		default:
			return s.scanText(start)
		}
	}
}

func (s *Scanner) advance() byte {
	c := s.data[s.pos]
	s.pos++
	if c == '\n' {
		s.line++
		s.col = 1
	} else {
		s.col++
	}
	return c
}

func (s *Scanner) peek() (byte, bool) {
	if s.pos >= len(s.data) {
		return 0, false
	}
	return s.data[s.pos], true
}

// scanControl dispatches on the character after a backslash: control word,
// hex escape, Unicode directive, literal escape or named symbol.
func (s *Scanner) scanControl(start Pos) (Token, error) {
	s.advance() // consume '\'
	c, ok := s.peek()
	if !ok {
		if err := s.soft(errors.New("dangling backslash at end of input"), "control"); err != nil {
			return Token{}, err
		}
		return Token{}, io.EOF
	}
	switch {
	case isLetter(c):
		return s.scanControlWord(start)
	case c == '\'':
		return s.scanHexEscape(start)
	case c == '\\' || c == '{' || c == '}':
		s.advance()
		return Token{Type: TokenText, Text: string(c), Pos: start}, nil
	case c == '~':
		s.advance()
		return Token{Type: TokenControlSymbol, Symbol: SymbolNonBreakingSpace, Text: " ", Pos: start}, nil
	case c == '-':
		s.advance()
		return Token{Type: TokenControlSymbol, Symbol: SymbolOptionalHyphen, Text: "­", Pos: start}, nil
	case c == '_':
		s.advance()
		return Token{Type: TokenControlSymbol, Symbol: SymbolNonBreakingHyphen, Text: "‑", Pos: start}, nil
	case c == '*':
		s.advance()
		return Token{Type: TokenControlSymbol, Symbol: SymbolIgnorable, Pos: start}, nil
	case c == '\r' || c == '\n':
		// An escaped line break is shorthand for a paragraph break.
		s.advance()
		if n, ok := s.peek(); ok && (n == '\r' || n == '\n') && n != c {
			s.advance()
		}
		return Token{Type: TokenControlWord, Name: "par", Pos: start}, nil
	default:
		s.advance()
		if err := s.soft(fmt.Errorf("unknown control symbol %q", c), "control"); err != nil {
			return Token{}, err
		}
		return Token{}, errSkipToken
	}
}

func (s *Scanner) scanControlWord(start Pos) (Token, error) {
	var name strings.Builder
	for {
		c, ok := s.peek()
		if !ok || !isLetter(c) {
			break
		}
		if name.Len() >= s.limits.MaxControlWordLength {
			return Token{}, security.NewLimitError("control word length",
				s.limits.MaxControlWordLength, name.Len()+1, s.pos)
		}
		name.WriteByte(s.advance())
	}

	param := 0
	hasParam := false
	if c, ok := s.peek(); ok && (c == '-' || isDigit(c)) {
		var digits strings.Builder
		negative := c == '-'
		if negative {
			s.advance()
		}
		for {
			c, ok := s.peek()
			if !ok || !isDigit(c) {
				break
			}
			if digits.Len() >= s.limits.MaxParamDigits {
				return Token{}, security.NewLimitError("parameter digits",
					s.limits.MaxParamDigits, digits.Len()+1, s.pos)
			}
			digits.WriteByte(s.advance())
		}
		if digits.Len() == 0 {
			// A lone '-' after a control word name is a malformed,
			// empty parameter. Skip it and keep the word.
			if err := s.soft(fmt.Errorf("empty parameter for \\%s", name.String()), "control_word"); err != nil {
				return Token{}, err
			}
		} else {
			v, err := strconv.ParseInt(digits.String(), 10, 64)
			if err != nil {
				v = math.MaxInt32
			}
			if negative {
				v = -v
			}
			param = clampParam(v)
			hasParam = true
		}
	}

	// One trailing space is part of the control word syntax.
	if c, ok := s.peek(); ok && c == ' ' {
		s.advance()
	}

	if name.String() == "u" {
		return s.emitUnicode(start, param, hasParam)
	}
	return Token{Type: TokenControlWord, Name: name.String(), Param: param, HasParam: hasParam, Pos: start}, nil
}

// emitUnicode handles the restricted \uN directive. The directive is always
// followed by one "alternate representation" character which is discarded
// whether or not the value itself is usable.
func (s *Scanner) emitUnicode(start Pos, param int, hasParam bool) (Token, error) {
	if !hasParam {
		// No value at all: leave the bare word to the parser, which
		// skips unknown control words.
		return Token{Type: TokenControlWord, Name: "u", Pos: start}, nil
	}
	s.skipAlternate()
	if param < -32768 || param > 65535 {
		if err := s.soft(fmt.Errorf("unicode value %d out of range", param), "unicode"); err != nil {
			return Token{}, err
		}
		return Token{}, errSkipToken
	}
	// Values above 32767 are conventionally written as negative numbers.
	if param < 0 {
		param += 65536
	}
	return Token{Type: TokenText, Text: string(rune(param)), Pos: start}, nil
}

// skipAlternate discards the single alternate representation character that
// follows a \uN directive. A group delimiter ends skippable data early, and
// a hex escape counts as one character.
func (s *Scanner) skipAlternate() {
	c, ok := s.peek()
	if !ok || c == '{' || c == '}' {
		return
	}
	if c != '\\' {
		s.advance()
		return
	}
	s.advance()
	if n, ok := s.peek(); ok && n == '\'' {
		s.advance()
		for i := 0; i < 2; i++ {
			if h, ok := s.peek(); ok && isHexDigit(h) {
				s.advance()
			}
		}
		return
	}
	if _, ok := s.peek(); ok {
		s.advance()
	}
}

// scanHexEscape decodes \'XX directly to the raw character code. This is a
// legacy single-byte semantic: the byte value is not mapped through the
// document's declared code page.
func (s *Scanner) scanHexEscape(start Pos) (Token, error) {
	s.advance() // consume '\''
	var hi, lo byte
	c, ok := s.peek()
	if !ok || !isHexDigit(c) {
		if err := s.soft(errors.New("malformed hex escape"), "hex"); err != nil {
			return Token{}, err
		}
		return Token{}, errSkipToken
	}
	hi = s.advance()
	c, ok = s.peek()
	if !ok || !isHexDigit(c) {
		if err := s.soft(errors.New("malformed hex escape"), "hex"); err != nil {
			return Token{}, err
		}
		return Token{}, errSkipToken
	}
	lo = s.advance()
	return Token{Type: TokenText, Text: string(rune(fromHex(hi)<<4 | fromHex(lo))), Pos: start}, nil
}

// scanText accumulates plain text until a backslash or group delimiter,
// bounded by the per-run size limit. Exceeding the limit is a hard failure,
// never silent truncation.
func (s *Scanner) scanText(start Pos) (Token, error) {
	var buf strings.Builder
	for {
		c, ok := s.peek()
		if !ok || c == '\\' || c == '{' || c == '}' {
			break
		}
		if c == '\r' || c == '\n' {
			s.advance()
			continue
		}
		if buf.Len() >= s.limits.MaxTextRunSize {
			return Token{}, security.NewLimitError("text run size",
				s.limits.MaxTextRunSize, buf.Len()+1, s.pos)
		}
		buf.WriteByte(s.advance())
	}
	return Token{Type: TokenText, Text: buf.String(), Pos: start}, nil
}

// soft routes a recoverable malformation through the recovery strategy.
// Without a strategy the scanner skips and continues.
func (s *Scanner) soft(err error, component string) error {
	if s.recovery == nil {
		return nil
	}
	action := s.recovery.OnError(err, recovery.Location{
		ByteOffset: s.pos,
		Line:       s.line,
		Column:     s.col,
		Component:  "scanner:" + component,
	})
	if action == recovery.ActionFail {
		return err
	}
	return nil
}

func clampParam(v int64) int {
	if v > math.MaxInt32 {
		return math.MaxInt32
	}
	if v < math.MinInt32 {
		return math.MinInt32
	}
	return int(v)
}

func isLetter(c byte) bool   { return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') }
func isDigit(c byte) bool    { return c >= '0' && c <= '9' }
func isHexDigit(c byte) bool { return isDigit(c) || (c >= 'a' && c <= 'f') || (c >= 'A' && c <= 'F') }

func fromHex(c byte) byte {
	switch {
	case c >= '0' && c <= '9':
		return c - '0'
	case c >= 'A' && c <= 'F':
		return c - 'A' + 10
	case c >= 'a' && c <= 'f':
		return c - 'a' + 10
	default:
		return 0
	}
}

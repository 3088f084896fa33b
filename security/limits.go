package security

import "fmt"

// Limits defines resource boundaries for parsing RTF input.
// These limits help prevent resource exhaustion attacks (deeply nested
// groups, oversized runs, runaway table definitions).
type Limits struct {
	// Maximum total document size in bytes. Default: 10 MB.
	MaxDocumentSize int

	// Maximum size of a single contiguous text run in bytes. Default: 1 MB.
	MaxTextRunSize int

	// Maximum group nesting depth. Default: 100.
	MaxGroupDepth int

	// Maximum font table index. Default: 1,000.
	MaxFontTableSize int

	// Maximum number of color table entries. Default: 1,000.
	MaxColorTableSize int

	// Maximum number of revision table authors. Default: 1,000.
	MaxRevisionTableSize int

	// Maximum control word name length. Default: 32.
	MaxControlWordLength int

	// Maximum number of digits in a control word parameter. Default: 10.
	MaxParamDigits int
}

// DefaultLimits returns a Limits struct with safe default values.
func DefaultLimits() Limits {
	return Limits{
		MaxDocumentSize:      10 * 1024 * 1024, // 10 MB
		MaxTextRunSize:       1 * 1024 * 1024,  // 1 MB
		MaxGroupDepth:        100,
		MaxFontTableSize:     1000,
		MaxColorTableSize:    1000,
		MaxRevisionTableSize: 1000,
		MaxControlWordLength: 32,
		MaxParamDigits:       10,
	}
}

// WithDefaults fills zero-valued fields from DefaultLimits.
func (l Limits) WithDefaults() Limits {
	d := DefaultLimits()
	if l.MaxDocumentSize == 0 {
		l.MaxDocumentSize = d.MaxDocumentSize
	}
	if l.MaxTextRunSize == 0 {
		l.MaxTextRunSize = d.MaxTextRunSize
	}
	if l.MaxGroupDepth == 0 {
		l.MaxGroupDepth = d.MaxGroupDepth
	}
	if l.MaxFontTableSize == 0 {
		l.MaxFontTableSize = d.MaxFontTableSize
	}
	if l.MaxColorTableSize == 0 {
		l.MaxColorTableSize = d.MaxColorTableSize
	}
	if l.MaxRevisionTableSize == 0 {
		l.MaxRevisionTableSize = d.MaxRevisionTableSize
	}
	if l.MaxControlWordLength == 0 {
		l.MaxControlWordLength = d.MaxControlWordLength
	}
	if l.MaxParamDigits == 0 {
		l.MaxParamDigits = d.MaxParamDigits
	}
	return l
}

// LimitError reports a violated resource limit. Callers should treat the
// document as hostile and reject it rather than retry unchanged.
type LimitError struct {
	// Limit names the violated bound (e.g. "group depth", "font table index").
	Limit string
	// Max is the configured bound; Actual the offending value.
	Max    int
	Actual int
	// Offset is the byte offset in the input where the violation was detected.
	Offset int
}

func (e *LimitError) Error() string {
	return fmt.Sprintf("rtf: %s limit exceeded at offset %d: %d > %d", e.Limit, e.Offset, e.Actual, e.Max)
}

// NewLimitError builds a LimitError for the named limit.
func NewLimitError(limit string, max, actual, offset int) *LimitError {
	return &LimitError{Limit: limit, Max: max, Actual: actual, Offset: offset}
}

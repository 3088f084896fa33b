package scanner

type TokenType int

const (
	TokenGroupStart    TokenType = iota // '{'
	TokenGroupEnd                       // '}'
	TokenControlWord                    // '\word' with optional signed parameter
	TokenControlSymbol                  // '\~', '\-', '\_', '\*'
	TokenText                           // plain text run or decoded escape
)

// SymbolKind identifies the named control symbols the parser special-cases.
type SymbolKind int

const (
	SymbolIgnorable         SymbolKind = iota // '\*' marks an ignorable destination
	SymbolNonBreakingSpace                    // '\~' -> U+00A0
	SymbolOptionalHyphen                      // '\-' -> U+00AD
	SymbolNonBreakingHyphen                   // '\_' -> U+2011
)

// Pos locates a token in the source buffer. Lines and columns are 1-based.
type Pos struct {
	Offset int
	Line   int
	Column int
}

// Token is one element of the flat token stream. Tokens are transient;
// nothing downstream of the parser holds on to them.
type Token struct {
	Type TokenType

	// Name and Param describe a control word. HasParam distinguishes a
	// missing parameter from an explicit zero.
	Name     string
	Param    int
	HasParam bool

	// Symbol identifies a control symbol token.
	Symbol SymbolKind

	// Text carries plain text runs and the decoded form of escapes and
	// named symbols.
	Text string

	Pos Pos
}

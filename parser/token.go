package parser

// TokenType enumerates lexical categories recognised by the Sour lexer.
type TokenType int

const (
	TokenEOF TokenType = iota
	TokenSpace
	TokenComment
	TokenIdent
	TokenKeyword
	TokenInt
	TokenString
	TokenChar
	TokenPunc
	TokenOp
	TokenUnknown
)

func (tt TokenType) String() string {
	switch tt {
	case TokenEOF:
		return "eof"
	case TokenSpace:
		return "space"
	case TokenComment:
		return "comment"
	case TokenIdent:
		return "ident"
	case TokenKeyword:
		return "kw"
	case TokenInt:
		return "int"
	case TokenString:
		return "str"
	case TokenChar:
		return "char"
	case TokenPunc:
		return "punc"
	case TokenOp:
		return "op"
	case TokenUnknown:
		return "unk"
	default:
		return "unknown"
	}
}

// Keywords lists the reserved words of the language.
var Keywords = []string{
	"func", "if", "else", "for", "while", "var", "class", "new",
	"return", "import", "export", "from", "break",
}

func isKeyword(word string) bool {
	for _, kw := range Keywords {
		if kw == word {
			return true
		}
	}
	return false
}

// Token is a single lexical unit produced by the lexer.
type Token struct {
	Type  TokenType
	Value string // raw lexeme, or the decoded content for strings and chars
	Start Position
	End   Position
	Err   string // set for malformed literals
}

// Is reports whether the token has the given type and, when value is
// non-empty, the given value.
func (t Token) Is(tt TokenType, value string) bool {
	if t.Type != tt {
		return false
	}
	return value == "" || t.Value == value
}

// Span returns the source range covered by the token.
func (t Token) Span() Span {
	return Span{Start: t.Start, End: t.End}
}

// Describe renders the token for diagnostics.
func (t Token) Describe() string {
	switch t.Type {
	case TokenEOF:
		return "end of input"
	case TokenString:
		return "string \"" + t.Value + "\""
	case TokenChar:
		return "char '" + t.Value + "'"
	case TokenSpace:
		return "whitespace"
	default:
		return t.Type.String() + " '" + t.Value + "'"
	}
}

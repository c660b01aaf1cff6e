package parser

import (
	"strings"
	"unicode"
)

// TokenStream converts characters into tokens on demand.
type TokenStream struct {
	cs     *CharStream
	cached *Token
}

// NewTokenStream returns a token stream over src.
func NewTokenStream(src string) *TokenStream {
	return &TokenStream{cs: NewCharStream(src)}
}

// Peek returns the next token without consuming it.
func (ts *TokenStream) Peek() Token {
	if ts.cached == nil {
		tok := ts.read()
		ts.cached = &tok
	}
	return *ts.cached
}

// Next consumes and returns the next token.
func (ts *TokenStream) Next() Token {
	if ts.cached != nil {
		tok := *ts.cached
		ts.cached = nil
		return tok
	}
	return ts.read()
}

// Has reports whether input remains beyond any cached token.
func (ts *TokenStream) Has() bool {
	return ts.cs.Has()
}

// All drains the stream, returning every token including the final EOF.
func (ts *TokenStream) All() []Token {
	var tokens []Token
	for {
		tok := ts.Next()
		tokens = append(tokens, tok)
		if tok.Type == TokenEOF {
			return tokens
		}
	}
}

// Tokenize splits src into tokens, including whitespace, comments and EOF.
func Tokenize(src string) []Token {
	return NewTokenStream(src).All()
}

func (ts *TokenStream) read() Token {
	cs := ts.cs
	start := cs.Position()
	if !cs.Has() {
		return Token{Type: TokenEOF, Start: start, End: start}
	}

	r := cs.Peek(0)
	switch {
	case isSpace(r):
		return ts.finish(TokenSpace, ts.takeWhile(isSpace), start)
	case isIdentifierStart(r):
		word := ts.takeWhile(isIdentifierPart)
		if isKeyword(word) {
			return ts.finish(TokenKeyword, word, start)
		}
		return ts.finish(TokenIdent, word, start)
	case isDigit(r):
		return ts.finish(TokenInt, ts.takeWhile(isDigit), start)
	case r == '"':
		return ts.scanString(start)
	case r == '\'':
		return ts.scanChar(start)
	case r == '/' && cs.Peek(1) == '/':
		value := ts.takeWhile(func(r rune) bool { return r != '\n' })
		return ts.finish(TokenComment, value, start)
	}

	if ts.match2("==") || ts.match2("++") {
		return ts.finish(TokenOp, cs.Source()[start.Index:cs.Position().Index], start)
	}
	cs.Next()
	value := string(r)
	switch r {
	case '+', '-', '*', '/', '%', '<', '>', '=':
		return ts.finish(TokenOp, value, start)
	case ':', ',', '(', ')', '{', '}', '[', ']', '.', ';':
		return ts.finish(TokenPunc, value, start)
	default:
		return ts.finish(TokenUnknown, value, start)
	}
}

func (ts *TokenStream) finish(tt TokenType, value string, start Position) Token {
	return Token{
		Type:  tt,
		Value: value,
		Start: start,
		End:   ts.cs.Position(),
	}
}

func (ts *TokenStream) takeWhile(pred func(rune) bool) string {
	var builder strings.Builder
	for ts.cs.Has() && pred(ts.cs.Peek(0)) {
		builder.WriteRune(ts.cs.Next())
	}
	return builder.String()
}

func (ts *TokenStream) match2(op string) bool {
	runes := []rune(op)
	if ts.cs.Peek(0) != runes[0] || ts.cs.Peek(1) != runes[1] {
		return false
	}
	ts.cs.Next()
	ts.cs.Next()
	return true
}

func (ts *TokenStream) scanString(start Position) Token {
	cs := ts.cs
	cs.Next() // opening quote
	var builder strings.Builder
	for {
		r := cs.Peek(0)
		switch {
		case !cs.Has(), r == '\n':
			tok := ts.finish(TokenString, builder.String(), start)
			tok.Err = "unterminated string literal"
			return tok
		case r == '"':
			cs.Next()
			return ts.finish(TokenString, builder.String(), start)
		case r == '\\':
			cs.Next()
			if !cs.Has() {
				continue
			}
			builder.WriteRune(unescape(cs.Next()))
		default:
			builder.WriteRune(cs.Next())
		}
	}
}

func (ts *TokenStream) scanChar(start Position) Token {
	cs := ts.cs
	cs.Next() // opening quote
	var runes []rune
	for {
		r := cs.Peek(0)
		switch {
		case !cs.Has(), r == '\n':
			tok := ts.finish(TokenChar, string(runes), start)
			tok.Err = "unterminated char literal"
			return tok
		case r == '\'':
			cs.Next()
			tok := ts.finish(TokenChar, string(runes), start)
			if len(runes) != 1 {
				tok.Err = "char literal must contain exactly one character"
			}
			return tok
		case r == '\\':
			cs.Next()
			if !cs.Has() {
				continue
			}
			runes = append(runes, unescape(cs.Next()))
		default:
			runes = append(runes, cs.Next())
		}
	}
}

func unescape(esc rune) rune {
	switch esc {
	case 'n':
		return '\n'
	case 't':
		return '\t'
	case 'r':
		return '\r'
	case '0':
		return 0
	default:
		return esc
	}
}

func isSpace(r rune) bool {
	return unicode.IsSpace(r)
}

func isDigit(r rune) bool {
	return r >= '0' && r <= '9'
}

func isIdentifierStart(r rune) bool {
	return (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || r == '_'
}

func isIdentifierPart(r rune) bool {
	return isIdentifierStart(r) || isDigit(r)
}

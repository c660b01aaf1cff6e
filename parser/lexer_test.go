package parser

import (
	"strings"
	"testing"
)

func significant(tokens []Token) []Token {
	var out []Token
	for _, tok := range tokens {
		if tok.Type == TokenSpace || tok.Type == TokenComment || tok.Type == TokenEOF {
			continue
		}
		out = append(out, tok)
	}
	return out
}

func TestCharStreamPositions(t *testing.T) {
	cs := NewCharStream("ab\nc")
	if got := cs.Position(); got != (Position{Index: 0, Line: 1, Column: 1}) {
		t.Fatalf("initial position = %+v", got)
	}
	for _, want := range []struct {
		r   rune
		pos Position
	}{
		{'a', Position{1, 1, 2}},
		{'b', Position{2, 1, 3}},
		{'\n', Position{3, 2, 1}},
		{'c', Position{4, 2, 2}},
	} {
		if r := cs.Next(); r != want.r {
			t.Fatalf("Next() = %q, want %q", r, want.r)
		}
		if got := cs.Position(); got != want.pos {
			t.Fatalf("after %q position = %+v, want %+v", want.r, got, want.pos)
		}
	}
	if cs.Has() {
		t.Fatalf("expected stream to be exhausted")
	}
	if r := cs.Next(); r != 0 {
		t.Fatalf("Next() at end = %q, want 0", r)
	}
	if cs.Peek(3) != 0 {
		t.Fatalf("Peek past end should be 0")
	}
}

func TestLexerIdentifiersAndKeywords(t *testing.T) {
	tokens := significant(Tokenize("func var class new if else for while return import export from break foo _bar baz123"))
	want := []struct {
		typ   TokenType
		value string
	}{
		{TokenKeyword, "func"},
		{TokenKeyword, "var"},
		{TokenKeyword, "class"},
		{TokenKeyword, "new"},
		{TokenKeyword, "if"},
		{TokenKeyword, "else"},
		{TokenKeyword, "for"},
		{TokenKeyword, "while"},
		{TokenKeyword, "return"},
		{TokenKeyword, "import"},
		{TokenKeyword, "export"},
		{TokenKeyword, "from"},
		{TokenKeyword, "break"},
		{TokenIdent, "foo"},
		{TokenIdent, "_bar"},
		{TokenIdent, "baz123"},
	}
	if len(tokens) != len(want) {
		t.Fatalf("expected %d tokens, got %d", len(want), len(tokens))
	}
	for i, w := range want {
		if tokens[i].Type != w.typ || tokens[i].Value != w.value {
			t.Fatalf("token %d = %s %q, want %s %q", i, tokens[i].Type, tokens[i].Value, w.typ, w.value)
		}
	}
}

func TestLexerOperatorsAndPunctuation(t *testing.T) {
	tokens := significant(Tokenize("a == b = c ++ + - * / % < > : , ( ) { } [ ] . ; @"))
	var got []string
	for _, tok := range tokens {
		got = append(got, tok.Type.String()+":"+tok.Value)
	}
	want := "ident:a op:== ident:b op:= ident:c op:++ op:+ op:- op:* op:/ op:% op:< op:> " +
		"punc:: punc:, punc:( punc:) punc:{ punc:} punc:[ punc:] punc:. punc:; unk:@"
	if strings.Join(got, " ") != want {
		t.Fatalf("tokens:\n got %s\nwant %s", strings.Join(got, " "), want)
	}
}

func TestLexerLiterals(t *testing.T) {
	tokens := significant(Tokenize(`42 "hi\tthere\n" 'x' '\n'`))
	if len(tokens) != 4 {
		t.Fatalf("expected 4 tokens, got %d", len(tokens))
	}
	if tokens[0].Type != TokenInt || tokens[0].Value != "42" {
		t.Fatalf("unexpected int token %+v", tokens[0])
	}
	if tokens[1].Type != TokenString || tokens[1].Value != "hi\tthere\n" {
		t.Fatalf("unexpected string token %+v", tokens[1])
	}
	if tokens[2].Type != TokenChar || tokens[2].Value != "x" {
		t.Fatalf("unexpected char token %+v", tokens[2])
	}
	if tokens[3].Value != "\n" || tokens[3].Err != "" {
		t.Fatalf("unexpected escaped char token %+v", tokens[3])
	}
}

func TestLexerMalformedLiterals(t *testing.T) {
	cases := []struct {
		src string
		err string
	}{
		{`"abc`, "unterminated string literal"},
		{"\"abc\nx\"", "unterminated string literal"},
		{`'ab'`, "char literal must contain exactly one character"},
		{`''`, "char literal must contain exactly one character"},
		{`'a`, "unterminated char literal"},
	}
	for _, tc := range cases {
		tok := Tokenize(tc.src)[0]
		if tok.Err != tc.err {
			t.Errorf("%q: Err = %q, want %q", tc.src, tok.Err, tc.err)
		}
	}
}

func TestLexerCommentsBeforeDivision(t *testing.T) {
	tokens := Tokenize("a / b // note\nc")
	var types []string
	for _, tok := range tokens {
		types = append(types, tok.Type.String())
	}
	want := "ident space op space ident space comment space ident eof"
	if strings.Join(types, " ") != want {
		t.Fatalf("types = %s, want %s", strings.Join(types, " "), want)
	}
	if tokens[6].Value != "// note" {
		t.Fatalf("comment value = %q", tokens[6].Value)
	}
}

func TestLexerTokensCoverSource(t *testing.T) {
	src := "func main() {\n  var s = \"héllo\" // ok\n  print(s)\n}\n"
	tokens := Tokenize(src)
	last := Position{Index: 0, Line: 1, Column: 1}
	for _, tok := range tokens {
		if tok.Start != last {
			t.Fatalf("token %s starts at %+v, previous ended at %+v", tok.Describe(), tok.Start, last)
		}
		last = tok.End
	}
	if last.Index != len(src) {
		t.Fatalf("tokens end at %d, source has %d bytes", last.Index, len(src))
	}
	if eof := tokens[len(tokens)-1]; eof.Type != TokenEOF || eof.Start.Line != 5 {
		t.Fatalf("unexpected final token %+v", eof)
	}
}

func TestTokenStreamPeekDoesNotConsume(t *testing.T) {
	ts := NewTokenStream("x y")
	if ts.Peek().Value != "x" || ts.Peek().Value != "x" {
		t.Fatalf("Peek should be idempotent")
	}
	if ts.Next().Value != "x" {
		t.Fatalf("Next should return peeked token")
	}
	if ts.Next().Type != TokenSpace {
		t.Fatalf("expected whitespace token")
	}
	if ts.Next().Value != "y" {
		t.Fatalf("expected y")
	}
	if !ts.Peek().Is(TokenEOF, "") {
		t.Fatalf("expected EOF")
	}
}

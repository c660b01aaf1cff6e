package parser

import (
	"strconv"
	"strings"
)

type mode int

const (
	modeUser mode = iota
	modeDefs
	modeLegacy
)

// Parse translates Sour source text into a File. It never fails outright:
// syntax problems are returned as diagnostics next to a best-effort AST.
func Parse(src, path string) (*File, []*Error) {
	p := newParser(src, path, modeUser)
	return p.parseFile(), p.errs
}

// ParseDefinitions parses a builtin definitions file: bodiless `var`, `func`
// and `class` signatures.
func ParseDefinitions(src, path string) (*File, []*Error) {
	p := newParser(src, path, modeDefs)
	return p.parseFile(), p.errs
}

type parseScope struct {
	hasError bool
	started  bool
	first    Token
	last     Token
}

type parser struct {
	ts   *TokenStream
	src  string
	path string
	mode mode

	errs      []*Error
	scopes    []*parseScope
	tokens    []Token
	lookahead *Token
	consumed  int

	doc     string
	docLine int

	recovering bool // the previous statement failed to parse
}

func newParser(src, path string, m mode) *parser {
	return &parser{
		ts:   NewTokenStream(src),
		src:  src,
		path: path,
		mode: m,
	}
}

// peek returns the next significant token, collecting comments as doc text.
func (p *parser) peek() Token {
	if p.lookahead != nil {
		return *p.lookahead
	}
	for {
		tok := p.ts.Next()
		p.tokens = append(p.tokens, tok)
		switch tok.Type {
		case TokenComment:
			p.captureDoc(tok)
			continue
		case TokenSpace:
			if strings.Count(tok.Value, "\n") > 1 {
				p.doc = ""
			}
			continue
		}
		p.lookahead = &tok
		return tok
	}
}

func (p *parser) captureDoc(tok Token) {
	text := strings.TrimSpace(strings.TrimPrefix(tok.Value, "//"))
	if p.doc != "" && p.docLine == tok.Start.Line-1 {
		p.doc += "\n" + text
	} else {
		p.doc = text
	}
	p.docLine = tok.Start.Line
}

// takeDoc returns the comment block directly above the next token.
func (p *parser) takeDoc() string {
	tok := p.peek()
	if p.doc == "" || p.docLine < tok.Start.Line-1 {
		return ""
	}
	return p.doc
}

// advance consumes the next significant token.
func (p *parser) advance() Token {
	tok := p.peek()
	if tok.Type == TokenEOF {
		return tok
	}
	p.lookahead = nil
	p.consumed++
	p.doc = ""
	for _, sc := range p.scopes {
		if !sc.started {
			sc.first = tok
			sc.started = true
		}
		sc.last = tok
	}
	if tok.Err != "" {
		p.report(LexError, tok, "%s", tok.Err)
	}
	return tok
}

func (p *parser) at(tt TokenType, value string) bool {
	return p.peek().Is(tt, value)
}

func (p *parser) atSym(value string) bool {
	tok := p.peek()
	return (tok.Type == TokenPunc || tok.Type == TokenOp) && tok.Value == value
}

func (p *parser) atKeyword(value string) bool {
	return p.at(TokenKeyword, value)
}

func (p *parser) atEOF() bool {
	return p.peek().Type == TokenEOF
}

// next consumes a token of the expected type (and value, when non-empty).
// A mismatch is reported and the actual token is returned. Word-like tokens
// are consumed anyway; punctuation is left in place so enclosing brackets
// still line up.
func (p *parser) next(tt TokenType, value string) Token {
	tok := p.peek()
	if tok.Is(tt, value) {
		return p.advance()
	}
	want := value
	if want == "" {
		want = tt.String()
	} else {
		want = "'" + want + "'"
	}
	p.report(ParseError, tok, "Expected %s but found %s", want, tok.Describe())
	switch tok.Type {
	case TokenIdent, TokenKeyword, TokenInt, TokenString, TokenChar, TokenUnknown:
		p.advance()
	}
	return tok
}

func (p *parser) nextSym(value string) Token {
	tok := p.peek()
	if (tok.Type == TokenPunc || tok.Type == TokenOp) && tok.Value == value {
		return p.advance()
	}
	tt := TokenPunc
	switch value {
	case "+", "-", "*", "/", "%", "<", ">", "=", "==", "++":
		tt = TokenOp
	}
	return p.next(tt, value)
}

func (p *parser) report(kind ErrorKind, tok Token, format string, args ...interface{}) {
	if sc := p.top(); sc != nil {
		if sc.hasError {
			return
		}
		sc.hasError = true
	}
	err := NewError(kind, tok.Span(), p.path, p.src, format, args...)
	if tok.Type == TokenEOF || (kind == LexError && tok.End.Index >= len(p.src)) {
		err.Incomplete = true
	}
	p.errs = append(p.errs, err)
}

func (p *parser) top() *parseScope {
	if len(p.scopes) == 0 {
		return nil
	}
	return p.scopes[len(p.scopes)-1]
}

func (p *parser) begin() {
	p.scopes = append(p.scopes, &parseScope{})
}

// span returns the range consumed by the innermost scope so far.
func (p *parser) span() Span {
	sc := p.top()
	if sc == nil || !sc.started {
		pos := p.peek().Start
		return Span{Start: pos, End: pos}
	}
	return Span{Start: sc.first.Start, End: sc.last.End}
}

// end closes the innermost scope, returning its span and whether an error
// occurred inside it. Errors propagate to the enclosing scope.
func (p *parser) end() (Span, bool) {
	span := p.span()
	sc := p.top()
	p.scopes = p.scopes[:len(p.scopes)-1]
	if sc.hasError {
		if parent := p.top(); parent != nil {
			parent.hasError = true
		}
	}
	return span, sc.hasError
}

// list parses `open elem (sep elem)* close`, stopping early at EOF or after
// an element reports an error.
func (p *parser) list(open, close, sep string, elem func()) {
	p.nextSym(open)
	first := true
	for !p.atEOF() && !p.atSym(close) {
		if !first {
			p.nextSym(sep)
			if sc := p.top(); sc != nil && sc.hasError {
				break
			}
			if p.atSym(close) {
				break
			}
		}
		first = false
		p.begin()
		elem()
		if _, failed := p.end(); failed {
			break
		}
	}
	p.nextSym(close)
}

func (p *parser) parseFile() *File {
	var body []Node
	for !p.atEOF() {
		if p.atSym(";") {
			p.advance()
			continue
		}
		if p.skipStray() {
			continue
		}
		body = append(body, p.parseTopLevel())
	}
	p.peek()
	return &File{
		Path:   p.path,
		Source: p.src,
		Body:   body,
		Tokens: p.tokens,
	}
}

// skipStray drops a closing delimiter left behind by a statement that failed
// to parse, so one mistake is not reported twice.
func (p *parser) skipStray() bool {
	if !p.recovering || !(p.atSym(")") || p.atSym("]") || p.atSym(",")) {
		return false
	}
	p.advance()
	return true
}

// guarded runs a statement-level production in its own scope and makes sure
// at least one token is consumed, so malformed input cannot stall the caller.
func (p *parser) guarded(parse func() Node) Node {
	before := p.consumed
	p.begin()
	n := parse()
	if p.consumed == before && !p.atEOF() {
		tok := p.advance()
		p.report(ParseError, tok, "Unexpected token %s", tok.Describe())
		if n == nil {
			n = &Bad{node: node{Loc: tok.Span()}, Token: tok}
		}
	}
	_, failed := p.end()
	p.recovering = failed
	if n == nil {
		tok := p.peek()
		n = &Bad{node: node{Loc: tok.Span()}, Token: tok}
	}
	return n
}

func (p *parser) parseTopLevel() Node {
	switch p.mode {
	case modeDefs:
		return p.guarded(p.parseDefinition)
	case modeLegacy:
		return p.guarded(p.parseLegacyStatement)
	}
	return p.guarded(func() Node {
		tok := p.peek()
		if tok.Type == TokenKeyword {
			switch tok.Value {
			case "import":
				return p.parseImport()
			case "export":
				return p.parseExport()
			case "class":
				return p.parseClass()
			case "func":
				return p.parseFunc()
			}
		}
		return p.statement()
	})
}

func (p *parser) parseStatement() Node {
	n := p.guarded(p.statement)
	if p.atSym(";") {
		p.advance()
	}
	return n
}

func (p *parser) statement() Node {
	tok := p.peek()
	if tok.Type == TokenKeyword {
		switch tok.Value {
		case "if":
			return p.parseIf()
		case "for":
			return p.parseFor()
		case "while":
			return p.parseWhile()
		case "return":
			return p.parseReturn()
		case "break":
			p.begin()
			p.advance()
			span, _ := p.end()
			return &Break{node: node{Loc: span}}
		case "var":
			return p.parseVar()
		}
	}
	return p.parseExpr()
}

func (p *parser) parseBlock() []Node {
	var stmts []Node
	p.nextSym("{")
	for !p.atEOF() && !p.atSym("}") {
		if p.atSym(";") {
			p.advance()
			continue
		}
		if p.skipStray() {
			continue
		}
		stmts = append(stmts, p.parseStatement())
	}
	p.nextSym("}")
	return stmts
}

func (p *parser) parseImport() Node {
	p.begin()
	p.advance()
	p.nextSym("*")
	p.next(TokenKeyword, "from")
	tok := p.next(TokenString, "")
	path := &StrLit{node: node{Loc: tok.Span()}, Value: tok.Value, Token: tok}
	span, _ := p.end()
	return &Import{node: node{Loc: span}, Path: path}
}

func (p *parser) parseExport() Node {
	p.begin()
	doc := p.takeDoc()
	p.advance()
	p.doc, p.docLine = doc, p.peek().Start.Line-1
	var decl Node
	switch {
	case p.atKeyword("func"):
		decl = p.parseFunc()
	case p.atKeyword("class"):
		decl = p.parseClass()
	case p.atKeyword("var"):
		decl = p.parseVar()
	default:
		tok := p.peek()
		p.report(ParseError, tok, "Expected declaration after export but found %s", tok.Describe())
		decl = &Bad{node: node{Loc: tok.Span()}, Token: tok}
	}
	span, _ := p.end()
	return &Export{node: node{Loc: span}, Decl: decl}
}

func (p *parser) parseIdent() *Ident {
	tok := p.next(TokenIdent, "")
	return &Ident{node: node{Loc: tok.Span()}, Name: tok.Value, Token: tok}
}

func (p *parser) parseType() *TypeRef {
	p.begin()
	ref := &TypeRef{Name: p.parseIdent()}
	if p.atSym("<") {
		p.list("<", ">", ",", func() {
			ref.Args = append(ref.Args, p.parseType())
		})
	}
	ref.Loc, _ = p.end()
	return ref
}

func (p *parser) parseParams() []*Param {
	var params []*Param
	p.list("(", ")", ",", func() {
		param := &Param{Name: p.parseIdent()}
		p.nextSym(":")
		param.Type = p.parseType()
		param.Loc = p.span()
		params = append(params, param)
	})
	return params
}

func (p *parser) parseFunc() Node {
	p.begin()
	doc := p.takeDoc()
	p.advance()
	name := p.parseIdent()
	params := p.parseParams()
	var ret *TypeRef
	if p.atSym(":") {
		p.advance()
		ret = p.parseType()
	}
	if p.mode == modeDefs {
		if p.atSym("{") {
			p.report(ParseError, p.peek(), "Definitions cannot have a body")
			p.parseBlock()
		}
		span, _ := p.end()
		return &FuncDef{node: node{Loc: span}, Name: name, Params: params, Ret: ret, Doc: doc}
	}
	body := p.parseBlock()
	span, _ := p.end()
	return &FuncDecl{node: node{Loc: span}, Name: name, Params: params, Ret: ret, Body: body, Doc: doc}
}

func (p *parser) parseVar() Node {
	p.begin()
	doc := p.takeDoc()
	p.advance()
	name := p.parseIdent()
	var typ *TypeRef
	if p.atSym(":") {
		p.advance()
		typ = p.parseType()
	}
	if p.mode == modeDefs {
		if typ == nil {
			p.report(ParseError, p.peek(), "Expected ':' but found %s", p.peek().Describe())
		}
		if p.atSym("=") {
			p.report(ParseError, p.peek(), "Definitions cannot have an initialiser")
			p.advance()
			p.parseExpr()
		}
		span, _ := p.end()
		return &VarDef{node: node{Loc: span}, Name: name, Type: typ, Doc: doc}
	}
	var value Node
	if p.atSym("=") {
		p.advance()
		value = p.parseExpr()
	}
	span, _ := p.end()
	return &VarDecl{node: node{Loc: span}, Name: name, Type: typ, Value: value, Doc: doc}
}

func (p *parser) parseClass() Node {
	p.begin()
	doc := p.takeDoc()
	p.advance()
	name := p.parseIdent()
	var generic []*Ident
	if p.atSym("<") {
		p.list("<", ">", ",", func() {
			generic = append(generic, p.parseIdent())
		})
	}
	isType := false
	if p.mode == modeDefs && p.atSym(":") {
		p.advance()
		tok := p.next(TokenIdent, "type")
		isType = tok.Value == "type"
	}
	var members []Node
	p.nextSym("{")
	for !p.atEOF() && !p.atSym("}") {
		if p.atSym(";") {
			p.advance()
			continue
		}
		if p.skipStray() {
			continue
		}
		members = append(members, p.guarded(func() Node {
			switch {
			case p.atKeyword("var"):
				return p.parseVar()
			case p.atKeyword("func"):
				return p.parseFunc()
			}
			return nil
		}))
	}
	p.nextSym("}")
	span, _ := p.end()

	if p.mode == modeDefs {
		def := &ClassDef{node: node{Loc: span}, Name: name, Generic: generic, IsType: isType, Doc: doc}
		for _, m := range members {
			switch m := m.(type) {
			case *VarDef:
				def.Props = append(def.Props, m)
			case *FuncDef:
				def.Methods = append(def.Methods, m)
			}
		}
		return def
	}
	decl := &ClassDecl{node: node{Loc: span}, Name: name, Generic: generic, Doc: doc}
	for _, m := range members {
		switch m := m.(type) {
		case *VarDecl:
			decl.Props = append(decl.Props, m)
		case *FuncDecl:
			decl.Methods = append(decl.Methods, m)
		}
	}
	return decl
}

func (p *parser) parseIf() Node {
	p.begin()
	p.advance()
	p.nextSym("(")
	cond := p.parseExpr()
	p.nextSym(")")
	then := p.parseBlock()
	var els []Node
	if p.atKeyword("else") {
		p.advance()
		if p.atKeyword("if") {
			els = []Node{p.guarded(p.parseIf)}
		} else {
			els = p.parseBlock()
		}
	}
	span, _ := p.end()
	return &If{node: node{Loc: span}, Cond: cond, Then: then, Else: els}
}

func (p *parser) parseFor() Node {
	p.begin()
	p.advance()
	p.nextSym("(")
	var first Node
	if p.atKeyword("var") {
		first = p.parseVar()
	} else {
		first = p.parseExpr()
	}
	p.nextSym(";")
	cond := p.parseExpr()
	p.nextSym(";")
	step := p.parseExpr()
	p.nextSym(")")
	body := p.parseBlock()
	span, _ := p.end()
	return &For{node: node{Loc: span}, Init: first, Cond: cond, Step: step, Body: body}
}

func (p *parser) parseWhile() Node {
	p.begin()
	p.advance()
	p.nextSym("(")
	cond := p.parseExpr()
	p.nextSym(")")
	body := p.parseBlock()
	span, _ := p.end()
	return &While{node: node{Loc: span}, Cond: cond, Body: body}
}

func (p *parser) parseReturn() Node {
	p.begin()
	p.advance()
	var value Node
	if !p.atEOF() && !p.atSym("}") && !p.atSym(";") {
		value = p.parseExpr()
	}
	span, _ := p.end()
	return &Return{node: node{Loc: span}, Value: value}
}

func isBinaryOp(tok Token) bool {
	if tok.Type != TokenOp {
		return false
	}
	switch tok.Value {
	case "+", "-", "*", "/", "%", "<", ">", "==":
		return true
	}
	return false
}

// parseExpr parses `postfix (op expr)?`. Chains associate to the right and
// all operators share one precedence level.
func (p *parser) parseExpr() Node {
	p.begin()
	left := p.parsePostfix()
	if tok := p.peek(); isBinaryOp(tok) {
		if sc := p.top(); sc != nil && sc.hasError {
			p.end()
			return left
		}
		op := p.advance()
		right := p.parseExpr()
		span, _ := p.end()
		return &Binary{node: node{Loc: span}, Op: op, Left: left, Right: right}
	}
	p.end()
	return left
}

func (p *parser) parsePostfix() Node {
	p.begin()
	expr := p.parsePrimary()
	for {
		if sc := p.top(); sc.hasError {
			p.end()
			return expr
		}
		switch {
		case p.atSym("."):
			p.advance()
			name := p.parseIdent()
			expr = &Dot{node: node{Loc: p.span()}, Left: expr, Name: name}
		case p.atSym("["):
			p.advance()
			index := p.parseExpr()
			p.nextSym("]")
			expr = &Index{node: node{Loc: p.span()}, Left: expr, Index: index}
		case p.atSym("("):
			args := p.parseArgs()
			expr = &Call{node: node{Loc: p.span()}, Callee: expr, Args: args}
		case p.atSym("="):
			p.advance()
			value := p.parseExpr()
			span, _ := p.end()
			return &Assign{node: node{Loc: span}, Target: expr, Value: value}
		case p.atSym("++"):
			op := p.advance()
			expr = &Unary{node: node{Loc: p.span()}, Op: op, Operand: expr}
		default:
			p.end()
			return expr
		}
	}
}

func (p *parser) parseArgs() []Node {
	var args []Node
	p.list("(", ")", ",", func() {
		args = append(args, p.parseExpr())
	})
	return args
}

func (p *parser) parsePrimary() Node {
	tok := p.peek()
	switch tok.Type {
	case TokenInt:
		p.advance()
		value, err := strconv.ParseInt(tok.Value, 10, 64)
		if err != nil {
			p.report(LexError, tok, "Integer literal %s is out of range", tok.Value)
		}
		return &NumLit{node: node{Loc: tok.Span()}, Value: value, Token: tok}
	case TokenString:
		p.advance()
		return &StrLit{node: node{Loc: tok.Span()}, Value: tok.Value, Token: tok}
	case TokenChar:
		p.advance()
		var r rune
		if runes := []rune(tok.Value); len(runes) > 0 {
			r = runes[0]
		}
		return &CharLit{node: node{Loc: tok.Span()}, Value: r, Token: tok}
	case TokenIdent:
		return p.parseIdent()
	case TokenKeyword:
		if tok.Value == "new" {
			return p.parseNew()
		}
	case TokenPunc:
		if tok.Value == "(" {
			p.advance()
			expr := p.parseExpr()
			p.nextSym(")")
			return expr
		}
	}
	if tok.Type == TokenEOF {
		p.report(ParseError, tok, "Unexpected end of input")
	} else {
		p.report(ParseError, tok, "Unexpected token %s", tok.Describe())
		if !isClosing(tok) {
			p.advance()
		}
	}
	return &Bad{node: node{Loc: tok.Span()}, Token: tok}
}

func isClosing(tok Token) bool {
	if tok.Type != TokenPunc {
		return false
	}
	switch tok.Value {
	case ")", "]", "}", ",", ";":
		return true
	}
	return false
}

func (p *parser) parseNew() Node {
	p.begin()
	p.advance()
	class := p.parseType()
	args := p.parseArgs()
	span, _ := p.end()
	return &New{node: node{Loc: span}, Class: class, Args: args}
}

func (p *parser) parseDefinition() Node {
	switch {
	case p.atKeyword("var"):
		return p.parseVar()
	case p.atKeyword("func"):
		return p.parseFunc()
	case p.atKeyword("class"):
		return p.parseClass()
	}
	return nil
}

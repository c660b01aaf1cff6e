package parser

// ParseLegacy parses the early print-only dialect: a sequence of
// `print <literal-or-identifier>` statements separated by optional `;`.
func ParseLegacy(src, path string) (*File, []*Error) {
	p := newParser(src, path, modeLegacy)
	return p.parseFile(), p.errs
}

func (p *parser) parseLegacyStatement() Node {
	if !p.at(TokenIdent, "print") {
		return nil
	}
	p.begin()
	p.advance()
	var value Node
	tok := p.peek()
	switch tok.Type {
	case TokenString, TokenChar, TokenInt, TokenIdent:
		value = p.parsePrimary()
	default:
		p.report(ParseError, tok, "Expected value after print but found %s", tok.Describe())
		value = &Bad{node: node{Loc: tok.Span()}, Token: tok}
	}
	span, _ := p.end()
	return &Print{node: node{Loc: span}, Value: value}
}

package lint

import "github.com/sergev/sour/parser"

var closers = map[string]string{"(": ")", "[": "]", "{": "}"}

var openers = map[string]string{")": "(", "]": "[", "}": "{"}

// MatchBracket finds the bracket pair around a cursor. The cursor selects
// a bracket when it sits on one or directly after one; the token holding
// the cursor wins over the token before it.
func MatchBracket(tokens []parser.Token, index int) (open, close parser.Token, ok bool) {
	at := -1
	for i, tok := range tokens {
		if !isBracket(tok) {
			continue
		}
		if tok.Start.Index == index {
			at = i
			break
		}
		if tok.End.Index == index {
			at = i
		}
	}
	if at < 0 {
		return parser.Token{}, parser.Token{}, false
	}
	tok := tokens[at]
	if want, isOpen := closers[tok.Value]; isOpen {
		depth := 0
		for _, t := range tokens[at+1:] {
			if t.Type != parser.TokenPunc {
				continue
			}
			switch t.Value {
			case tok.Value:
				depth++
			case want:
				if depth == 0 {
					return tok, t, true
				}
				depth--
			}
		}
		return parser.Token{}, parser.Token{}, false
	}
	want := openers[tok.Value]
	depth := 0
	for i := at - 1; i >= 0; i-- {
		t := tokens[i]
		if t.Type != parser.TokenPunc {
			continue
		}
		switch t.Value {
		case tok.Value:
			depth++
		case want:
			if depth == 0 {
				return t, tok, true
			}
			depth--
		}
	}
	return parser.Token{}, parser.Token{}, false
}

func isBracket(tok parser.Token) bool {
	if tok.Type != parser.TokenPunc {
		return false
	}
	_, o := closers[tok.Value]
	_, c := openers[tok.Value]
	return o || c
}

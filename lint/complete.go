package lint

import (
	"sort"
	"strings"

	"github.com/sergev/sour/check"
	"github.com/sergev/sour/parser"
)

// Candidate is one completion proposal.
type Candidate struct {
	Label  string
	Kind   string // "keyword", "variable", "function" or "class"
	Detail string
}

// Complete proposes keywords and the variables, function overloads and
// classes visible at index whose names start with the identifier typed so
// far. Names starting with an underscore are offered only when the prefix
// does too.
func Complete(res *check.Result, index int) []Candidate {
	prefix := Prefix(tokens(res), index)
	var out []Candidate
	seen := make(map[Candidate]bool)
	add := func(c Candidate) {
		key := c
		if c.Kind != "function" {
			key.Detail = ""
		}
		if !strings.HasPrefix(c.Label, prefix) || seen[key] {
			return
		}
		if strings.HasPrefix(c.Label, "_") && !strings.HasPrefix(prefix, "_") {
			return
		}
		seen[key] = true
		out = append(out, c)
	}

	for _, kw := range parser.Keywords {
		add(Candidate{Label: kw, Kind: "keyword"})
	}
	if res.Info != nil {
		for sc := res.Info.ScopeAt(index); sc != nil; sc = sc.Parent {
			for _, v := range sc.Vars() {
				if declaredAfter(res.Info, sc, v, index) {
					continue
				}
				detail := ""
				if v.Type != nil {
					detail = v.Type.String()
				}
				add(Candidate{Label: v.Name, Kind: "variable", Detail: detail})
			}
			for _, fn := range sc.AllFuncs() {
				add(Candidate{Label: fn.Name, Kind: "function", Detail: funcSignature(fn)})
			}
			for _, c := range sc.Classes() {
				add(Candidate{Label: c.Name, Kind: "class", Detail: c.Doc})
			}
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Label != out[j].Label {
			return out[i].Label < out[j].Label
		}
		return out[i].Detail < out[j].Detail
	})
	return out
}

// declaredAfter reports whether v is a local variable whose declaration
// starts at or after index. Class properties are visible throughout the class.
func declaredAfter(info *check.Info, sc *check.Scope, v *check.Var, index int) bool {
	if sc.Kind == check.ScopeClass || v.Node == nil {
		return false
	}
	if _, local := info.Defs[v.Node]; !local {
		return false
	}
	return v.Node.Span().Start.Index >= index
}

// Prefix returns the part of the identifier or keyword token before index,
// or "" when the cursor is not inside or right after one.
func Prefix(toks []parser.Token, index int) string {
	for _, tok := range toks {
		if tok.Type != parser.TokenIdent && tok.Type != parser.TokenKeyword {
			continue
		}
		if index > tok.Start.Index && index <= tok.End.Index {
			return tok.Value[:index-tok.Start.Index]
		}
	}
	return ""
}

func tokens(res *check.Result) []parser.Token {
	if res.File == nil {
		return nil
	}
	return res.File.Tokens
}

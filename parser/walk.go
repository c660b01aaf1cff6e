package parser

// Inspect traverses the tree rooted at n in depth-first order. It calls fn
// for each node; when fn returns false the node's children are skipped.
func Inspect(n Node, fn func(Node) bool) {
	if isNil(n) || !fn(n) {
		return
	}
	each := func(nodes ...Node) {
		for _, c := range nodes {
			Inspect(c, fn)
		}
	}
	switch n := n.(type) {
	case *TypeRef:
		each(n.Name)
		for _, a := range n.Args {
			each(a)
		}
	case *Param:
		each(n.Name, n.Type)
	case *FuncDecl:
		each(n.Name)
		for _, p := range n.Params {
			each(p)
		}
		each(n.Ret)
		each(n.Body...)
	case *FuncDef:
		each(n.Name)
		for _, p := range n.Params {
			each(p)
		}
		each(n.Ret)
	case *VarDecl:
		each(n.Name, n.Type, n.Value)
	case *VarDef:
		each(n.Name, n.Type)
	case *ClassDecl:
		each(n.Name)
		for _, g := range n.Generic {
			each(g)
		}
		for _, p := range n.Props {
			each(p)
		}
		for _, m := range n.Methods {
			each(m)
		}
	case *ClassDef:
		each(n.Name)
		for _, g := range n.Generic {
			each(g)
		}
		for _, p := range n.Props {
			each(p)
		}
		for _, m := range n.Methods {
			each(m)
		}
	case *If:
		each(n.Cond)
		each(n.Then...)
		each(n.Else...)
	case *For:
		each(n.Init, n.Cond, n.Step)
		each(n.Body...)
	case *While:
		each(n.Cond)
		each(n.Body...)
	case *Return:
		each(n.Value)
	case *Export:
		each(n.Decl)
	case *Import:
		each(n.Path)
	case *New:
		each(n.Class)
		each(n.Args...)
	case *Call:
		each(n.Callee)
		each(n.Args...)
	case *Binary:
		each(n.Left, n.Right)
	case *Unary:
		each(n.Operand)
	case *Dot:
		each(n.Left, n.Name)
	case *Assign:
		each(n.Target, n.Value)
	case *Index:
		each(n.Left, n.Index)
	case *Print:
		each(n.Value)
	}
}

// isNil catches typed nil pointers stored in a Node, such as an absent
// return type.
func isNil(n Node) bool {
	switch n := n.(type) {
	case nil:
		return true
	case *TypeRef:
		return n == nil
	case *Ident:
		return n == nil
	case *StrLit:
		return n == nil
	}
	return false
}

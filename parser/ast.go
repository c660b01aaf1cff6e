package parser

// NodeKind tags every AST node.
type NodeKind int

const (
	KindBad NodeKind = iota
	KindFuncDec
	KindFuncDef
	KindVarDec
	KindVarDef
	KindClassDec
	KindClassDef
	KindIf
	KindFor
	KindWhile
	KindReturn
	KindBreak
	KindExport
	KindImport
	KindNew
	KindCall
	KindOp
	KindOp2
	KindUnary
	KindDot
	KindAssign
	KindIndex
	KindStr
	KindChar
	KindNum
	KindIdent
	KindType
	KindParam
	KindPrint
)

var kindNames = [...]string{
	KindBad:      "bad",
	KindFuncDec:  "func-dec",
	KindFuncDef:  "func-def",
	KindVarDec:   "var-dec",
	KindVarDef:   "var-def",
	KindClassDec: "class-dec",
	KindClassDef: "class-def",
	KindIf:       "if",
	KindFor:      "for",
	KindWhile:    "while",
	KindReturn:   "ret",
	KindBreak:    "break",
	KindExport:   "export",
	KindImport:   "import",
	KindNew:      "new",
	KindCall:     "func-call",
	KindOp:       "op",
	KindOp2:      "op2",
	KindUnary:    "unary",
	KindDot:      "dot",
	KindAssign:   "assign",
	KindIndex:    "index",
	KindStr:      "str",
	KindChar:     "char",
	KindNum:      "num",
	KindIdent:    "ident",
	KindType:     "type",
	KindParam:    "param",
	KindPrint:    "print",
}

func (k NodeKind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return "unknown"
}

// Node represents any AST node with a source span.
type Node interface {
	Kind() NodeKind
	Span() Span
}

type node struct {
	Loc Span
}

func (n *node) Span() Span { return n.Loc }

// File is the root of a parsed Sour source file.
type File struct {
	Path   string
	Source string
	Body   []Node
	Tokens []Token // every token, including whitespace and comments
}

// Bad stands in for input that could not be parsed.
type Bad struct {
	node
	Token Token
}

func (*Bad) Kind() NodeKind { return KindBad }

// Ident refers to a variable, function, class or property name.
type Ident struct {
	node
	Name  string
	Token Token
}

func (*Ident) Kind() NodeKind { return KindIdent }

// TypeRef is a type annotation such as `byte` or `Map<string, byte>`.
type TypeRef struct {
	node
	Name *Ident
	Args []*TypeRef
}

func (*TypeRef) Kind() NodeKind { return KindType }

// Param is a typed function parameter.
type Param struct {
	node
	Name *Ident
	Type *TypeRef
}

func (*Param) Kind() NodeKind { return KindParam }

// FuncDecl is a function or method with a body.
type FuncDecl struct {
	node
	Name   *Ident
	Params []*Param
	Ret    *TypeRef // nil means void
	Body   []Node
	Doc    string
}

func (*FuncDecl) Kind() NodeKind { return KindFuncDec }

// FuncDef is a bodiless function signature from a definitions file.
type FuncDef struct {
	node
	Name   *Ident
	Params []*Param
	Ret    *TypeRef
	Doc    string
}

func (*FuncDef) Kind() NodeKind { return KindFuncDef }

// VarDecl declares a variable, optionally typed and initialised.
type VarDecl struct {
	node
	Name  *Ident
	Type  *TypeRef // may be nil
	Value Node     // may be nil
	Doc   string
}

func (*VarDecl) Kind() NodeKind { return KindVarDec }

// VarDef is a typed variable signature from a definitions file.
type VarDef struct {
	node
	Name *Ident
	Type *TypeRef
	Doc  string
}

func (*VarDef) Kind() NodeKind { return KindVarDef }

// ClassDecl declares a user class with properties and methods.
type ClassDecl struct {
	node
	Name    *Ident
	Generic []*Ident
	Props   []*VarDecl
	Methods []*FuncDecl
	Doc     string
}

func (*ClassDecl) Kind() NodeKind { return KindClassDec }

// ClassDef is a builtin class signature from a definitions file.
type ClassDef struct {
	node
	Name    *Ident
	Generic []*Ident
	IsType  bool
	Props   []*VarDef
	Methods []*FuncDef
	Doc     string
}

func (*ClassDef) Kind() NodeKind { return KindClassDef }

// If conditionally executes branches.
type If struct {
	node
	Cond Node
	Then []Node
	Else []Node // may be nil
}

func (*If) Kind() NodeKind { return KindIf }

// For is a C-style loop.
type For struct {
	node
	Init Node
	Cond Node
	Step Node
	Body []Node
}

func (*For) Kind() NodeKind { return KindFor }

// While repeats its body while the condition holds.
type While struct {
	node
	Cond Node
	Body []Node
}

func (*While) Kind() NodeKind { return KindWhile }

// Return exits the enclosing function, optionally with a value.
type Return struct {
	node
	Value Node // may be nil
}

func (*Return) Kind() NodeKind { return KindReturn }

// Break exits the innermost loop.
type Break struct {
	node
}

func (*Break) Kind() NodeKind { return KindBreak }

// Export marks a declaration as visible to importers.
type Export struct {
	node
	Decl Node
}

func (*Export) Kind() NodeKind { return KindExport }

// Import pulls the exports of another file into scope.
type Import struct {
	node
	Path *StrLit
}

func (*Import) Kind() NodeKind { return KindImport }

// New constructs a class instance.
type New struct {
	node
	Class *TypeRef
	Args  []Node
}

func (*New) Kind() NodeKind { return KindNew }

// Call invokes a function (Ident callee) or method (Dot callee).
type Call struct {
	node
	Callee Node
	Args   []Node
}

func (*Call) Kind() NodeKind { return KindCall }

// Binary is an infix operator application. `==` reports KindOp2.
type Binary struct {
	node
	Op    Token
	Left  Node
	Right Node
}

func (b *Binary) Kind() NodeKind {
	if b.Op.Value == "==" {
		return KindOp2
	}
	return KindOp
}

// Unary is the increment operator.
type Unary struct {
	node
	Op      Token
	Operand Node
}

func (*Unary) Kind() NodeKind { return KindUnary }

// Dot is a property access.
type Dot struct {
	node
	Left Node
	Name *Ident
}

func (*Dot) Kind() NodeKind { return KindDot }

// Assign stores a value into a variable, property or index.
type Assign struct {
	node
	Target Node
	Value  Node
}

func (*Assign) Kind() NodeKind { return KindAssign }

// Index reads an element through the `_get` method.
type Index struct {
	node
	Left  Node
	Index Node
}

func (*Index) Kind() NodeKind { return KindIndex }

// StrLit is a double-quoted string literal.
type StrLit struct {
	node
	Value string
	Token Token
}

func (*StrLit) Kind() NodeKind { return KindStr }

// CharLit is a single-quoted character literal.
type CharLit struct {
	node
	Value rune
	Token Token
}

func (*CharLit) Kind() NodeKind { return KindChar }

// NumLit is an integer literal.
type NumLit struct {
	node
	Value int64
	Token Token
}

func (*NumLit) Kind() NodeKind { return KindNum }

// Print is the statement of the legacy grammar.
type Print struct {
	node
	Value Node
}

func (*Print) Kind() NodeKind { return KindPrint }

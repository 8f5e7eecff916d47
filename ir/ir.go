// Package ir defines the generator-function abstract syntax tree that the
// lower package rewrites.
//
// The language modelled here is deliberately small: it carries exactly the
// node kinds spec.md §6 requires the AST to provide (statement lists,
// statement-list expressions, if/case, try/except/finally, while, block,
// break/continue, var sections, assignment, casts, calls including
// short-circuit operators, yield, literals, symbols, and the tuple/object/
// array constructors). It is not Go's own go/ast: the subject language has
// try/except/finally, which go/ast has no node for.
package ir

// Pos is an opaque, monotonically assigned identity used to keep test
// expectations stable across rewrites. It carries no source-file meaning;
// this pass never reports user-facing diagnostics (spec.md §7).
type Pos int

// Type is the minimal type lattice the pass needs: enough to declare
// :tmpResult with the function's declared return type and to describe the
// exception-table array type (spec.md §6).
type Type struct {
	Kind TypeKind
	Name string // set when Kind == TCustom
}

type TypeKind int

const (
	TVoid TypeKind = iota
	TInt
	TBool
	TAny
	TCustom
)

var (
	Void = Type{Kind: TVoid}
	Int  = Type{Kind: TInt}
	Bool = Type{Kind: TBool}
	Any  = Type{Kind: TAny}
)

func Custom(name string) Type { return Type{Kind: TCustom, Name: name} }

// Node is implemented by every statement and expression.
type Node interface {
	node()
}

// Stmt is a statement node.
type Stmt interface {
	Node
	stmtNode()
}

// Expr is an expression node.
type Expr interface {
	Node
	exprNode()
}

type baseNode struct{ P Pos }

func (baseNode) node() {}

type baseStmt struct{ baseNode }

func (baseStmt) stmtNode() {}

type baseExpr struct{ baseNode }

func (baseExpr) exprNode() {}

// ---- statements -----------------------------------------------------------

// StmtList is a sequence of statements executed in order. It is both the
// function body and the body of every state produced by the splitter.
type StmtList struct {
	baseStmt
	List []Stmt
}

// ExprStmt evaluates X for its side effects and discards the result.
type ExprStmt struct {
	baseStmt
	X Expr
}

// If is if/elif/else; Else is nil when there was no else clause in the
// source (the splitter synthesises one, see spec.md §4.5).
type If struct {
	baseStmt
	Cond Expr
	Body *StmtList
	Else Stmt // *StmtList, *If, or nil
}

// CaseArm is one arm of a Case statement. A nil Values list denotes the
// default arm.
type CaseArm struct {
	Values []Expr
	Body   *StmtList
}

// Case is a multi-way branch on Selector.
type Case struct {
	baseStmt
	Selector Expr
	Arms     []CaseArm
}

// ExceptArm catches exceptions assignable to Type (a zero Type value
// catches anything) and binds the exception to Var when Var is non-nil.
type ExceptArm struct {
	Type Type
	Var  *Ident
	Body *StmtList
}

// Try is try/except/finally. Finally is nil when the source had none; the
// splitter always synthesises a (possibly empty) finally state (spec.md
// §4.5).
type Try struct {
	baseStmt
	Body    *StmtList
	Except  []ExceptArm
	Finally *StmtList
}

// Raise re-raises the currently propagating exception when X is nil, or
// raises a new exception described by X.
type Raise struct {
	baseStmt
	X Expr
}

// Return exits the function, optionally with a value.
type Return struct {
	baseStmt
	X Expr // nil for a valueless return
}

// While loops while Cond is true.
type While struct {
	baseStmt
	Cond  Expr
	Body  *StmtList
	Label string // optional, empty if unlabelled
}

// Block is a labelled or unlabelled statement group that break can target.
type Block struct {
	baseStmt
	Label string
	Body  *StmtList
}

// Break exits the nearest enclosing While/Block, or the one named by Label.
type Break struct {
	baseStmt
	Label string
}

// Continue restarts the nearest enclosing While, or the one named by Label.
type Continue struct {
	baseStmt
	Label string
}

// VarSection declares Name with static type Type and optional initialiser.
type VarSection struct {
	baseStmt
	Name *Ident
	Type Type
	Init Expr // nil if uninitialised
}

// AssignOp distinguishes plain assignment/definition from a compound
// ("fast") assignment operator such as +=.
type AssignOp int

const (
	OpAssign AssignOp = iota // =
	OpDefine                 // :=
	OpAddAssign
	OpSubAssign
	OpMulAssign
	OpDivAssign
)

// Assign covers both plain assignment and fast (compound) assignment,
// spec.md §4.2's "assignment (plain or fast)" row.
type Assign struct {
	baseStmt
	Lhs Expr
	Op  AssignOp
	Rhs Expr
}

// GotoState is the abstract control-flow edge the splitter produces: a jump
// to the state at Target, or -1 to mean "exit". It never survives C6
// (spec.md §3, invariant list).
type GotoState struct {
	baseStmt
	Target int
}

// ---- expressions ------------------------------------------------------

// StmtListExpr is an expression whose evaluation runs Stmts and then yields
// the value of Value. C2 eliminates every occurrence that contains a yield
// before C5 runs (spec.md §3, invariant list).
type StmtListExpr struct {
	baseExpr
	Stmts []Stmt
	Value Expr
}

// BinOp enumerates binary operators, including the short-circuiting ones
// that C2 must rewrite into explicit branches when they guard a yield.
type BinOp int

const (
	OpEq BinOp = iota
	OpNe
	OpLt
	OpLe
	OpGt
	OpGe
	OpAdd
	OpSub
	OpMul
	OpDiv
	OpLAnd // short-circuit &&
	OpLOr  // short-circuit ||
)

type BinaryExpr struct {
	baseExpr
	X  Expr
	Op BinOp
	Y  Expr
}

// UnaryOp enumerates unary operators.
type UnaryOp int

const (
	OpNot UnaryOp = iota
	OpNeg
)

type UnaryExpr struct {
	baseExpr
	Op UnaryOp
	X  Expr
}

// Call invokes Fun with Args, in left-to-right evaluation order.
type Call struct {
	baseExpr
	Fun  Expr
	Args []Expr
}

// Cast converts X to Type.
type Cast struct {
	baseExpr
	Type Type
	X    Expr
}

// TupleConstr, ObjConstr and ArrayConstr build composite values; each
// element is evaluated left to right.
type TupleConstr struct {
	baseExpr
	Elts []Expr
}

type ObjField struct {
	Name  string
	Value Expr
}

type ObjConstr struct {
	baseExpr
	Type   Type
	Fields []ObjField
}

type ArrayConstr struct {
	baseExpr
	Elts []Expr
}

// IndexExpr is an indexed target such as arr[i] or map[k]. It is the
// "indexed target" spec.md §4.2's assignment row refers to when it says to
// hoist the LHS before the RHS.
type IndexExpr struct {
	baseExpr
	X     Expr
	Index Expr
}

// SelectorExpr is a field access such as obj.field.
type SelectorExpr struct {
	baseExpr
	X   Expr
	Sel string
}

// Yield suspends the generator, publishing Value to the caller, and
// evaluates to whatever the caller sends back on resumption. No Yield
// survives C6 (spec.md §3, invariant list): it is rewritten into a state
// assignment plus a return.
type Yield struct {
	baseExpr
	Value Expr // nil for a valueless yield
}

// Lit is a literal value. Value holds a Go-native representation (int64,
// bool, string, or nil).
type Lit struct {
	baseExpr
	Value any
}

// Ident references a variable, including the synthetic variables C1
// allocates. Synthetic identifiers use a colon prefix (":state", ":tmp0",
// ...), a character the surface grammar of the subject language reserves,
// so they can never collide with a user identifier (spec.md §9).
type Ident struct {
	baseExpr
	Name string
}

func (id *Ident) Synthetic() bool { return len(id.Name) > 0 && id.Name[0] == ':' }

// FuncDecl is a generator function: Body may contain Yield, and is what
// lower.Function rewrites.
type FuncDecl struct {
	Name   string
	Params []Param
	Result Type
	Body   *StmtList
}

type Param struct {
	Name string
	Type Type
}

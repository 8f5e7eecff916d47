// Package lower implements the closure-iterator lowering pass: it rewrites
// a generator function's body (ir.FuncDecl) into a flat, state-dispatching
// procedure with no suspension points, per spec.md.
//
// The pass is a pipeline of small components, C1 through C8, each in its
// own file, following the split the teacher uses across
// compiler/decls.go, compiler/desugar.go, compiler/dispatch.go and
// compiler/function.go.
package lower

import (
	"strconv"

	"github.com/genstate/closureiter/ir"
)

// EnvAccessor resolves a synthetic variable name to a field of an
// already-built closure environment object, for post-lifting mode
// (spec.md §4.1). Pre-lifting mode needs no accessor: the Context owns
// dedicated locals instead.
type EnvAccessor interface {
	Field(name string) ir.Expr
}

// synthetic variable names, reserved with a leading colon per spec.md §9.
const (
	varState         = ":state"
	varTmpResult     = ":tmpResult"
	varUnrollFinally = ":unrollFinally"
	varCurExc        = ":curExc"
	varSent          = ":sent"
)

// Context is the single mutable value threaded through every component of
// one function transform (spec.md §3, "Scope-tracking counters"). It owns
// the environment-variable manager (C1), the growing state list, and the
// parallel exception table.
type Context struct {
	postLifting bool
	env         EnvAccessor

	vars     map[string]ir.Expr
	varOrder []string
	varTypes map[string]ir.Type

	tempVarID int
	labelID   int

	blockLevel          int
	nearestFinally      int // -1 means "no enclosing finally"
	curExcHandlingState int // ET entry copied into every new state
	exitStateIdx        int

	hasExceptions bool

	states       []*State
	exceptTable  []int16
	resultType   ir.Type
}

// State is one maximal yield-free fragment of the lowered body (spec.md
// §3). Index is assigned in creation order and, after C7, renumbered to
// its final dispatch position.
type State struct {
	Index int
	Body  *ir.StmtList
}

// NewContext creates the Context for lowering one function. env is nil in
// pre-lifting mode.
func NewContext(resultType ir.Type, env EnvAccessor) *Context {
	return &Context{
		postLifting:         env != nil,
		env:                 env,
		vars:                map[string]ir.Expr{},
		varTypes:            map[string]ir.Type{},
		nearestFinally:      -1,
		curExcHandlingState: 0,
		exitStateIdx:        -1,
		resultType:          resultType,
	}
}

// ensureVar is C1's single operation: idempotent lookup-or-create of a
// synthetic variable, choosing a local (pre-lifting) or an environment
// field (post-lifting) exactly once per logical name (spec.md §4.1).
func (c *Context) ensureVar(name string, typ ir.Type) ir.Expr {
	if h, ok := c.vars[name]; ok {
		return h
	}
	var handle ir.Expr
	if c.postLifting {
		handle = c.env.Field(name)
	} else {
		handle = ir.NewIdent(name)
		c.varOrder = append(c.varOrder, name)
	}
	c.vars[name] = handle
	c.varTypes[name] = typ
	return handle
}

func (c *Context) stateVar() ir.Expr         { return c.ensureVar(varState, ir.Int) }
func (c *Context) unrollFinallyVar() ir.Expr { return c.ensureVar(varUnrollFinally, ir.Bool) }
func (c *Context) curExcVar() ir.Expr        { return c.ensureVar(varCurExc, ir.Any) }

// sentVar returns the slot runtime.Driver.Next stores the caller's resume
// argument into (Frame.Sent) before each step, read by the state a
// `tmp := yield v` assigns into once execution resumes there (spec.md §5).
func (c *Context) sentVar() ir.Expr { return c.ensureVar(varSent, ir.Any) }

// tmpResultVar returns the (single, shared) slot a `return e` inside a try
// stores its value into before unwinding to the nearest finally (spec.md
// §3). It is created at most once, with the function's declared result
// type, on first use — matching the "created at most once and only on
// first use" rule for every synthetic variable.
func (c *Context) tmpResultVar() ir.Expr {
	return c.ensureVar(varTmpResult, c.resultType)
}

// newTemp allocates a fresh uniquely-named local, used by C2 to hoist
// sub-expressions (spec.md §9, "Identifier uniqueness"). Unlike the
// synthetic control variables above, every call produces a new name: there
// is no idempotent reuse for ordinary hoisted temporaries.
func (c *Context) newTemp(typ ir.Type) *ir.Ident {
	id := c.tempVarID
	c.tempVarID++
	name := ":tmp" + strconv.Itoa(id)
	handle := ir.NewIdent(name)
	c.varOrder = append(c.varOrder, name)
	c.varTypes[name] = typ
	c.vars[name] = handle
	return handle
}

func (c *Context) newLabel() string {
	id := c.labelID
	c.labelID++
	return ":l" + strconv.Itoa(id)
}

// newState appends a state and copies the exception table entry active at
// creation time into ET[index] (spec.md §3: "Each returned exception
// -handler entry is copied into the exception table at the moment a new
// state is created").
func (c *Context) newState() *State {
	s := &State{Index: len(c.states), Body: &ir.StmtList{}}
	c.states = append(c.states, s)
	c.exceptTable = append(c.exceptTable, int16(c.curExcHandlingState))
	return s
}

// withNearestFinally saves and restores nearestFinally around fn, the
// scope-guard idiom spec.md §9 requires for every recursive case, including
// exceptional exits (a Go defer is exactly that idiom).
func (c *Context) withNearestFinally(idx int, fn func()) {
	saved := c.nearestFinally
	c.nearestFinally = idx
	defer func() { c.nearestFinally = saved }()
	fn()
}

func (c *Context) withExcHandling(idx int, fn func()) {
	saved := c.curExcHandlingState
	c.curExcHandlingState = idx
	defer func() { c.curExcHandlingState = saved }()
	fn()
}

func (c *Context) withBlockLevel(fn func()) {
	c.blockLevel++
	defer func() { c.blockLevel-- }()
	fn()
}

package lower

import (
	"context"
	"log"

	"golang.org/x/sync/errgroup"

	"github.com/genstate/closureiter/ir"
)

// batchConcurrency bounds how many functions Package lowers at once,
// mirroring the teacher's copyConcurrency constant in compiler/vendor.go.
const batchConcurrency = 16

type options struct {
	env     EnvAccessor
	verbose bool
}

// Option configures a single Function or Package call.
type Option func(*options)

// WithEnv selects post-lifting mode: synthetic control variables become
// fields on env instead of dedicated locals (spec.md §4.1).
func WithEnv(env EnvAccessor) Option {
	return func(o *options) { o.env = env }
}

// WithVerbose logs one line per pipeline stage, in the style of
// compiler/compile.go's log.Printf progress lines.
func WithVerbose(v bool) Option {
	return func(o *options) { o.verbose = v }
}

func buildOptions(opts []Option) *options {
	o := &options{}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Function runs the full C1-C8 pipeline over one generator function's body
// and returns the flattened, dispatch-driven equivalent (spec.md §2). It
// recovers InvariantError panics raised by any component and turns them
// into a plain error, so a bug in the pass never crashes its caller.
func Function(fn *ir.FuncDecl, opts ...Option) (lowered *Lowered, err error) {
	o := buildOptions(opts)

	defer func() {
		if r := recover(); r != nil {
			if ie, ok := r.(*InvariantError); ok {
				err = ie
				return
			}
			panic(r)
		}
	}()

	c := NewContext(fn.Result, o.env)

	if o.verbose {
		log.Printf("lowering function %s: normalizing", fn.Name)
	}
	body := normalizeStmtList(c, fn.Body)

	if o.verbose {
		log.Printf("lowering function %s: splitting", fn.Name)
	}
	entryState := c.newState()
	entryState.Body = splitStmtList(c, body, ir.NewGoto(-1))
	entry := entryState.Index

	if o.verbose {
		log.Printf("lowering function %s: collapsing empty states", fn.Name)
	}
	entry = collapseStates(c, entry)

	if o.verbose {
		log.Printf("lowering function %s: materializing state assignments", fn.Name)
	}
	materializeStates(c)

	if o.verbose {
		log.Printf("lowering function %s: emitting dispatcher (%d states)", fn.Name, len(c.states))
	}
	return buildDispatcher(c, fn, entry), nil
}

// Package lowers every function in fns concurrently, bounded to
// batchConcurrency in flight at once (spec.md §2, "batch compilation"),
// grounded on the teacher's errgroup-based vendoring in
// compiler/vendor.go.
func Package(fns []*ir.FuncDecl, opts ...Option) ([]*Lowered, error) {
	results := make([]*Lowered, len(fns))
	g, _ := errgroup.WithContext(context.Background())
	g.SetLimit(batchConcurrency)

	for i, fn := range fns {
		i, fn := i, fn
		g.Go(func() error {
			lowered, err := Function(fn, opts...)
			if err != nil {
				return err
			}
			results[i] = lowered
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

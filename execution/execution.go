package execution

import (
	"context"
	"runtime"

	"golang.org/x/sync/errgroup"
)

// All nodes will try to create chunks of this size. Different sizes are allowed.
// Set it before running any query.
var IdealChunkSize = 16 * 1024

const BTreeDefaultDegree = 128

type Context struct {
	Context context.Context
	// Parallelism bounds the number of chunk workers of a single kernel.
	Parallelism int
}

func NewContext(ctx context.Context, parallelism int) Context {
	if parallelism <= 0 {
		parallelism = runtime.GOMAXPROCS(0)
	}
	return Context{
		Context:     ctx,
		Parallelism: parallelism,
	}
}

// Node produces a whole materialized table. No partial results are observable.
type Node interface {
	Run(ctx Context) (*Table, error)
}

// Expression evaluates to a whole column, with one value per row of the input table.
type Expression interface {
	Evaluate(ctx Context, table *Table) (*Column, error)
}

// Group returns an errgroup bounded by the context's parallelism.
func (ctx Context) Group() *errgroup.Group {
	parent := ctx.Context
	if parent == nil {
		parent = context.Background()
	}
	g, _ := errgroup.WithContext(parent)
	if ctx.Parallelism > 0 {
		g.SetLimit(ctx.Parallelism)
	} else {
		g.SetLimit(runtime.GOMAXPROCS(0))
	}
	return g
}

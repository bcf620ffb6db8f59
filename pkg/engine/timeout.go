package engine

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"
)

// EvalTimeout bounds a single evaluation.
const EvalTimeout = 5 * time.Second

var (
	ErrTimeout    = errors.New("engine: evaluation timed out")
	ErrSuperseded = errors.New("engine: evaluation superseded by a newer request")
)

type evalResult struct {
	result *Result
	errors []EvalError
	err    error
}

// generations numbers evaluations. Only the most recent one may report.
type generations struct {
	n atomic.Uint64
}

func (g *generations) next() uint64 { return g.n.Add(1) }

func (g *generations) latest(gen uint64) bool { return g.n.Load() == gen }

// await blocks until ch delivers, ctx ends or EvalTimeout passes.
//
// An abandoned evaluation keeps running in its goroutine. It owns its own
// manager and backend, so nothing it touches is shared.
func await(ctx context.Context, ch <-chan evalResult, gen uint64, gens *generations) (*Result, []EvalError, error) {
	ctx, cancel := context.WithTimeoutCause(ctx, EvalTimeout,
		fmt.Errorf("%w after %s", ErrTimeout, EvalTimeout))
	defer cancel()

	select {
	case res := <-ch:
		if !gens.latest(gen) {
			return nil, nil, ErrSuperseded
		}
		return res.result, res.errors, res.err
	case <-ctx.Done():
		return nil, nil, context.Cause(ctx)
	}
}

// Package engine evaluates assembly scripts. It wraps zygomys in a
// sandboxed environment whose builtins place catalog parts and bond their
// connection points through an assembly.Manager.
package engine

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/danielgardiner81/MotoRouge/pkg/assembly"
	"github.com/danielgardiner81/MotoRouge/pkg/catalog"
	"github.com/danielgardiner81/MotoRouge/pkg/connect"
	"github.com/danielgardiner81/MotoRouge/pkg/part"
	"github.com/danielgardiner81/MotoRouge/pkg/physics"
	"github.com/danielgardiner81/MotoRouge/pkg/physics/record"
	zygo "github.com/glycerine/zygomys/zygo"
	"go.uber.org/zap"
)

// EvalError represents a non-fatal error encountered during evaluation,
// such as a parse error or a rejected connection.
type EvalError struct {
	Line    int
	Col     int
	Message string
}

func (e EvalError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("line %d: %s", e.Line, e.Message)
	}
	return e.Message
}

// EvalWarning is a non-fatal finding produced during evaluation.
type EvalWarning struct {
	Part    string
	Message string
}

// Result is the assembly a script built.
type Result struct {
	Assembly *assembly.Manager
	Backend  physics.Backend
	// Parts holds the definitions declared with defpart.
	Parts    map[string]*part.Definition
	Warnings []EvalWarning
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the logger handed to each evaluation's manager.
func WithLogger(l *zap.Logger) Option {
	return func(e *Engine) {
		if l != nil {
			e.log = l
		}
	}
}

// WithJointConfig sets the ball-socket spring and damper.
func WithJointConfig(cfg connect.JointConfig) Option {
	return func(e *Engine) { e.joint = cfg }
}

// WithBackend sets the factory for each evaluation's physics backend.
func WithBackend(newBackend func() physics.Backend) Option {
	return func(e *Engine) {
		if newBackend != nil {
			e.newBackend = newBackend
		}
	}
}

// Engine evaluates scripts against a part catalog. It is safe for
// concurrent use; each call to Evaluate builds a fresh sandbox, backend and
// manager.
type Engine struct {
	gens generations

	catalog    *catalog.Catalog
	log        *zap.Logger
	joint      connect.JointConfig
	newBackend func() physics.Backend
}

// NewEngine creates an engine resolving part names through cat, which may
// be nil when scripts declare all their parts with defpart.
func NewEngine(cat *catalog.Catalog, opts ...Option) *Engine {
	e := &Engine{
		catalog:    cat,
		log:        zap.NewNop(),
		joint:      connect.DefaultJointConfig(),
		newBackend: func() physics.Backend { return record.New() },
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Evaluate runs source and returns the assembly it built.
//
// Return semantics:
//   - On success: returns result + nil errors + nil error
//   - On parse/eval failure: returns nil result + eval errors + nil error
//   - On fatal failure (timeout, panic): returns nil + nil + error
func (e *Engine) Evaluate(source string) (*Result, []EvalError, error) {
	return e.EvaluateContext(context.Background(), source)
}

// EvaluateContext is Evaluate with a caller deadline on top of
// EvalTimeout. A cancelled evaluation returns ctx's error.
func (e *Engine) EvaluateContext(ctx context.Context, source string) (*Result, []EvalError, error) {
	gen := e.gens.next()

	ch := make(chan evalResult, 1)

	go func() {
		defer func() {
			if r := recover(); r != nil {
				ch <- evalResult{err: fmt.Errorf("panic during evaluation: %v", r)}
			}
		}()

		res, evalErrs, err := e.evaluate(source)
		ch <- evalResult{result: res, errors: evalErrs, err: err}
	}()

	return await(ctx, ch, gen, &e.gens)
}

func (e *Engine) evaluate(source string) (*Result, []EvalError, error) {
	backend := e.newBackend()
	res := &Result{
		Assembly: assembly.New(backend,
			assembly.WithLogger(e.log),
			assembly.WithJointConfig(e.joint)),
		Backend: backend,
		Parts:   make(map[string]*part.Definition),
	}

	// Empty source is a valid program that builds an empty assembly.
	if strings.TrimSpace(source) == "" {
		return res, nil, nil
	}

	// Sandbox mode keeps scripts away from the filesystem and syscalls.
	env := zygo.NewZlispSandbox()
	defer env.Stop()

	registerBuiltins(env, &scope{catalog: e.catalog, result: res})

	if err := env.LoadString(preprocessSource(source)); err != nil {
		return nil, parseZygomysError(err), nil
	}
	if _, err := env.Run(); err != nil {
		return nil, parseZygomysError(err), nil
	}
	return res, nil, nil
}

// linePattern matches zygomys error messages that include "Error on line N: ..."
var linePattern = regexp.MustCompile(`(?i)(?:error )?on line (\d+):\s*(.*)`)

// linePatternShort matches simpler "line N: ..." patterns.
var linePatternShort = regexp.MustCompile(`(?i)^line (\d+):\s*(.*)`)

// parseZygomysError converts a zygomys error into EvalErrors, pulling out
// the line number when the message carries one.
func parseZygomysError(err error) []EvalError {
	msg := err.Error()

	for _, re := range []*regexp.Regexp{linePattern, linePatternShort} {
		if m := re.FindStringSubmatch(msg); m != nil {
			line, _ := strconv.Atoi(m[1])
			detail := strings.TrimSpace(m[2])
			if detail == "" {
				detail = strings.TrimSpace(msg)
			}
			return []EvalError{{Line: line, Message: detail}}
		}
	}
	return []EvalError{{Message: strings.TrimSpace(msg)}}
}

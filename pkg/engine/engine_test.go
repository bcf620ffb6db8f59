package engine

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/danielgardiner81/MotoRouge/pkg/assembly"
)

func TestEvaluateEmptyString(t *testing.T) {
	eng := NewEngine(nil)

	for _, src := range []string{"", "   \n\t  \n  "} {
		res, evalErrs, err := eng.Evaluate(src)
		if err != nil {
			t.Fatalf("unexpected fatal error: %v", err)
		}
		if len(evalErrs) > 0 {
			t.Fatalf("unexpected eval errors: %v", evalErrs)
		}
		if res == nil {
			t.Fatal("expected non-nil result")
		}
		if res.Assembly.State() != assembly.Empty {
			t.Errorf("expected empty assembly, got %s", res.Assembly.State())
		}
	}
}

func TestEvaluateValidExpression(t *testing.T) {
	eng := NewEngine(nil)

	res, evalErrs, err := eng.Evaluate("(def x 10)\n(def y 20)\n(+ x y)")
	if err != nil {
		t.Fatalf("unexpected fatal error: %v", err)
	}
	if len(evalErrs) > 0 {
		t.Fatalf("unexpected eval errors: %v", evalErrs)
	}
	if len(res.Assembly.Instances()) != 0 {
		t.Errorf("plain arithmetic should not place parts")
	}
}

func TestEvaluateSyntaxError(t *testing.T) {
	eng := NewEngine(nil)

	res, evalErrs, err := eng.Evaluate("(+ 1 2)\n(+ 3")
	if err != nil {
		t.Fatalf("expected non-fatal eval error, got fatal: %v", err)
	}
	if res != nil {
		t.Fatal("expected nil result on syntax error")
	}
	if len(evalErrs) == 0 || evalErrs[0].Message == "" {
		t.Fatalf("expected a populated eval error, got %v", evalErrs)
	}
}

func TestEvaluateUndefinedSymbol(t *testing.T) {
	eng := NewEngine(nil)

	res, evalErrs, err := eng.Evaluate("(+ 1 undefined-symbol)")
	if err != nil {
		t.Fatalf("expected non-fatal eval error, got fatal: %v", err)
	}
	if res != nil {
		t.Fatal("expected nil result on eval error")
	}
	if len(evalErrs) == 0 {
		t.Fatal("expected at least one eval error for undefined symbol")
	}
}

func TestEvalErrorImplementsError(t *testing.T) {
	e := EvalError{Line: 5, Message: "something went wrong"}
	s := e.Error()
	if !strings.Contains(s, "line 5") {
		t.Errorf("Error() should contain line info, got: %s", s)
	}
	if !strings.Contains(s, "something went wrong") {
		t.Errorf("Error() should contain message, got: %s", s)
	}

	e2 := EvalError{Message: "no location"}
	if strings.Contains(e2.Error(), "line") {
		t.Errorf("Error() with no line should not contain 'line', got: %s", e2.Error())
	}
}

func TestEvaluateTimeout(t *testing.T) {
	var gens generations
	gen := gens.next()
	ch := make(chan evalResult) // never sends

	done := make(chan struct{})
	var resultErr error
	go func() {
		defer close(done)
		_, _, resultErr = await(context.Background(), ch, gen, &gens)
	}()

	select {
	case <-done:
		if !errors.Is(resultErr, ErrTimeout) {
			t.Fatalf("expected ErrTimeout, got %v", resultErr)
		}
		if !strings.Contains(resultErr.Error(), "timed out") {
			t.Errorf("expected timeout error message, got: %v", resultErr)
		}
	case <-time.After(EvalTimeout + 2*time.Second):
		t.Fatal("test itself timed out waiting for evaluation timeout")
	}
}

func TestEvaluateCancelled(t *testing.T) {
	var gens generations
	gen := gens.next()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, _, err := await(ctx, make(chan evalResult), gen, &gens)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestEvaluateGenerationDiscardsStale(t *testing.T) {
	var gens generations
	stale := gens.next()
	gens.next()

	ch := make(chan evalResult, 1)
	ch <- evalResult{}

	_, _, err := await(context.Background(), ch, stale, &gens)
	if !errors.Is(err, ErrSuperseded) {
		t.Fatalf("expected ErrSuperseded, got %v", err)
	}
}

func TestEvaluateContextSucceeds(t *testing.T) {
	res, evalErrs, err := NewEngine(nil).EvaluateContext(context.Background(), `(+ 1 2)`)
	if err != nil || len(evalErrs) > 0 {
		t.Fatalf("unexpected failure: %v %v", err, evalErrs)
	}
	if res == nil || res.Assembly == nil {
		t.Fatal("expected a result with an assembly")
	}
}

func TestParseZygomysError(t *testing.T) {
	tests := []struct {
		name     string
		msg      string
		wantLine int
		wantMsg  string
	}{
		{"error on line format", "Error on line 5: unexpected token\n", 5, "unexpected token"},
		{"no line info", "some generic error", 0, "some generic error"},
		{"line format lowercase", "error on line 12: missing paren", 12, "missing paren"},
		{"short line format", "line 3: connect failed", 3, "connect failed"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			errs := parseZygomysError(errString(tt.msg))
			if len(errs) == 0 {
				t.Fatal("expected at least one error")
			}
			e := errs[0]
			if e.Line != tt.wantLine {
				t.Errorf("line = %d, want %d", e.Line, tt.wantLine)
			}
			if !strings.Contains(e.Message, tt.wantMsg) {
				t.Errorf("message = %q, want containing %q", e.Message, tt.wantMsg)
			}
		})
	}
}

// errString is a simple error type for testing.
type errString string

func (e errString) Error() string { return string(e) }

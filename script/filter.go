// Package script compiles tengo expressions into interaction filters.
//
// A filter is a single boolean expression evaluated against the candidate:
//
//	candidate.data != "locked" && candidate.selecting < 2
//
// The candidate is exposed as a map with the keys id, state, data, interactors
// and selecting. The math, text and enum standard modules may be imported.
package script

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/d5/tengo/v2"
	"github.com/d5/tengo/v2/stdlib"
	"github.com/plus3/interact/interaction"
)

var ErrEmptyExpression = errors.New("empty filter expression")

const resultVar = "__accept"

// Filter is a compiled tengo expression. It is compiled once and run per candidate.
type Filter struct {
	expr     string
	compiled *tengo.Compiled
	logger   *slog.Logger
}

// Compile parses expr. Syntax errors and unknown identifiers are reported here
// rather than on first use.
func Compile(expr string, logger *slog.Logger) (*Filter, error) {
	expr = strings.TrimSpace(expr)
	if expr == "" {
		return nil, fmt.Errorf("script: compile: %w", ErrEmptyExpression)
	}
	if logger == nil {
		logger = slog.Default()
	}

	s := tengo.NewScript([]byte(resultVar + " := (" + expr + ")"))
	if err := s.Add("candidate", map[string]any{}); err != nil {
		return nil, fmt.Errorf("script: compile %q: %w", expr, err)
	}
	s.SetImports(stdlib.GetModuleMap("math", "text", "enum"))

	compiled, err := s.Compile()
	if err != nil {
		return nil, fmt.Errorf("script: compile %q: %w", expr, err)
	}
	return &Filter{expr: expr, compiled: compiled, logger: logger}, nil
}

// MustCompile is like Compile but panics on error.
func MustCompile(expr string) *Filter {
	f, err := Compile(expr, nil)
	if err != nil {
		panic(err)
	}
	return f
}

func (f *Filter) String() string { return f.expr }

// Filter runs the expression for candidate. Runtime errors and non-boolean
// results reject the candidate.
func (f *Filter) Filter(candidate interaction.Interactable) bool {
	accept, err := f.Eval(candidate)
	if err != nil {
		f.logger.Warn("script filter failed", "expr", f.expr, "candidate", candidate.ID(), "error", err)
		return false
	}
	return accept
}

// Eval runs the expression and returns its truthiness.
func (f *Filter) Eval(candidate interaction.Interactable) (bool, error) {
	if err := f.compiled.Set("candidate", candidateValue(candidate)); err != nil {
		return false, fmt.Errorf("script: bind candidate: %w", err)
	}
	if err := f.compiled.Run(); err != nil {
		return false, fmt.Errorf("script: run: %w", err)
	}
	result := f.compiled.Get(resultVar)
	if result.ValueType() != "bool" {
		return false, fmt.Errorf("script: %q evaluated to %s, not bool", f.expr, result.ValueType())
	}
	return result.Bool(), nil
}

func candidateValue(candidate interaction.Interactable) map[string]any {
	values := map[string]any{
		"id": int64(candidate.ID()),
	}
	if stateful, ok := candidate.(interface{ State() interaction.InteractorState }); ok {
		values["state"] = stateful.State().String()
	}
	if target, ok := candidate.(*interaction.Target); ok {
		values["interactors"] = int64(target.InteractorCount())
		values["selecting"] = int64(target.SelectingInteractorCount())
		if target.Data != nil {
			if _, err := tengo.FromInterface(target.Data); err == nil {
				values["data"] = target.Data
			}
		}
	}
	return values
}

// Package fallback runs an ordered list of strategies where the first success wins
// and a terminal strategy always produces a value.
package fallback

import (
	"context"
	"fmt"
)

// Step is one tier of a chain. Try returns a non-nil error when the tier could not
// produce a usable value; the error text becomes part of the chain's notes.
type Step[T any] struct {
	Name string
	Try  func(ctx context.Context) (T, error)
}

// Terminal is the last tier. It receives the notes collected from skipped tiers and
// must always return a value.
type Terminal[T any] struct {
	Name string
	Run  func(ctx context.Context, notes []string) T
}

// Result carries the value and the name of the tier that produced it.
type Result[T any] struct {
	Value T
	Tier  string
	Notes []string
}

// Fallback reports whether the terminal tier produced the value.
func (r Result[T]) Fallback(terminal string) bool {
	return r.Tier == terminal
}

// Resolve tries each step in order and returns the first success. A cancelled
// context stops the provider tiers but still runs the terminal tier.
func Resolve[T any](ctx context.Context, steps []Step[T], terminal Terminal[T]) Result[T] {
	var notes []string
	for _, step := range steps {
		if err := ctx.Err(); err != nil {
			notes = append(notes, fmt.Sprintf("%s skipped: %v", step.Name, err))
			continue
		}
		value, err := step.Try(ctx)
		if err == nil {
			return Result[T]{Value: value, Tier: step.Name, Notes: notes}
		}
		notes = append(notes, err.Error())
	}
	return Result[T]{Value: terminal.Run(ctx, notes), Tier: terminal.Name, Notes: notes}
}

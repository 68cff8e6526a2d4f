package fallback

import (
	"context"
	"errors"
	"testing"
)

func TestResolveFirstSuccessWins(t *testing.T) {
	var calls []string
	steps := []Step[string]{
		{Name: "remote", Try: func(ctx context.Context) (string, error) {
			calls = append(calls, "remote")
			return "", errors.New("remote unavailable")
		}},
		{Name: "local", Try: func(ctx context.Context) (string, error) {
			calls = append(calls, "local")
			return "from local", nil
		}},
	}
	terminal := Terminal[string]{Name: "simulated", Run: func(ctx context.Context, notes []string) string {
		calls = append(calls, "simulated")
		return "simulated"
	}}

	res := Resolve(context.Background(), steps, terminal)
	if res.Value != "from local" || res.Tier != "local" {
		t.Fatalf("want local result, got tier=%q value=%q", res.Tier, res.Value)
	}
	if len(calls) != 2 || calls[0] != "remote" || calls[1] != "local" {
		t.Fatalf("unexpected call order: %v", calls)
	}
	if len(res.Notes) != 1 || res.Notes[0] != "remote unavailable" {
		t.Fatalf("notes: %v", res.Notes)
	}
}

func TestResolveTerminalAlwaysRuns(t *testing.T) {
	steps := []Step[int]{
		{Name: "a", Try: func(ctx context.Context) (int, error) { return 0, errors.New("a failed") }},
		{Name: "b", Try: func(ctx context.Context) (int, error) { return 0, errors.New("b failed") }},
	}
	var seen []string
	res := Resolve(context.Background(), steps, Terminal[int]{Name: "last", Run: func(ctx context.Context, notes []string) int {
		seen = notes
		return 7
	}})
	if res.Value != 7 || !res.Fallback("last") {
		t.Fatalf("want terminal value 7, got %+v", res)
	}
	if len(seen) != 2 {
		t.Fatalf("terminal should receive both notes, got %v", seen)
	}
}

func TestResolveCancelledContextSkipsSteps(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	called := false
	steps := []Step[string]{{Name: "provider", Try: func(ctx context.Context) (string, error) {
		called = true
		return "x", nil
	}}}
	res := Resolve(ctx, steps, Terminal[string]{Name: "fallback", Run: func(ctx context.Context, notes []string) string {
		return "fallback"
	}})
	if called {
		t.Fatalf("provider step must not run on a cancelled context")
	}
	if res.Tier != "fallback" || res.Value != "fallback" {
		t.Fatalf("got %+v", res)
	}
}

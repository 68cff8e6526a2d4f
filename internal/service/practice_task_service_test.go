package service

import (
	"adaptive_learning_backend/internal/model"
	"context"
	"testing"
)

func newTestPracticeService(p *stubProvider) *PracticeTaskService {
	return NewPracticeTaskService(p, NewAssetNormalizer(), NewFallbackSynthesizer())
}

func TestEmptyTopicUsesDefaultsWithoutProvider(t *testing.T) {
	p := &stubProvider{json: map[string]any{"tasks": []any{}}}
	result := newTestPracticeService(p).Generate(context.Background(), "", 3)

	if result.Source != model.SourceDefault {
		t.Fatalf("source want=%q got=%q", model.SourceDefault, result.Source)
	}
	if len(result.Tasks) != 3 {
		t.Fatalf("want 3 tasks got %d", len(result.Tasks))
	}
	if result.Tasks[0].TaskName != "Try-catch for divide by zero" {
		t.Fatalf("unexpected first default task %q", result.Tasks[0].TaskName)
	}
	if p.calls() != 0 {
		t.Fatalf("provider must not be called for a low-signal topic, got %d calls", p.calls())
	}
}

func TestProviderTasksMergedWithDefaults(t *testing.T) {
	p := &stubProvider{json: map[string]any{"tasks": []any{
		map[string]any{
			"task_name":    "Custom exception",
			"description":  "Throw and catch your own exception type.",
			"starter_code": "public class Main {\n  public static void main(String[] args) {\n    throw new IllegalStateException();\n  }\n}",
		},
	}}}
	result := newTestPracticeService(p).Generate(context.Background(), "custom exceptions in java", 3)

	if result.Source != model.SourceAI {
		t.Fatalf("source want=ai got=%q", result.Source)
	}
	if len(result.Tasks) != 3 || result.Tasks[0].TaskName != "Custom exception" {
		t.Fatalf("unexpected tasks: %+v", result.Tasks)
	}
}

func TestCatalogFallback(t *testing.T) {
	p := &stubProvider{}
	result := newTestPracticeService(p).Generate(context.Background(), "practice java recursion problems", 2)
	if result.Source != model.SourceCatalog {
		t.Fatalf("source want=catalog got=%q", result.Source)
	}
	if len(result.Tasks) != 2 || result.Tasks[0].TaskName != "Recursive factorial" {
		t.Fatalf("unexpected tasks: %+v", result.Tasks)
	}
	if p.jsonCalls.Load() != 1 {
		t.Fatalf("provider must be tried once before the catalog, got %d", p.jsonCalls.Load())
	}
}

func TestCountIsClamped(t *testing.T) {
	s := newTestPracticeService(&stubProvider{})
	if got := len(s.Generate(context.Background(), "", 0).Tasks); got != 1 {
		t.Fatalf("count 0 want 1 task got %d", got)
	}
	if got := len(s.Generate(context.Background(), "", 99).Tasks); got != 3 {
		t.Fatalf("count 99 is limited by the default set, want 3 got %d", got)
	}
}

func TestInvalidProviderTasksFallThrough(t *testing.T) {
	p := &stubProvider{json: map[string]any{"tasks": []any{
		map[string]any{"task_name": "x", "description": "y", "starter_code": "print('no class')"},
	}}}
	result := newTestPracticeService(p).Generate(context.Background(), "Java exception handling", 3)
	if result.Source != model.SourceDefault {
		t.Fatalf("source want=default got=%q", result.Source)
	}
}

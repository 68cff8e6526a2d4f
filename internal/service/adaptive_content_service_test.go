package service

import (
	"adaptive_learning_backend/internal/model"
	"adaptive_learning_backend/internal/util"
	"context"
	"errors"
	"reflect"
	"strings"
	"testing"
)

func succeedingProvider() *stubProvider {
	return &stubProvider{
		text: "Provider explanation.",
		json: map[string]any{
			"title":         "Loops",
			"concept_nodes": []any{"init", "condition", "body", "update"},
			"tasks": []any{map[string]any{
				"task_name":    "Loop task",
				"description":  "Print 1..5",
				"starter_code": "public class Main { public static void main(String[] a) { for (int i = 1; i <= 5; i++) System.out.println(i); } }",
			}},
		},
		speech: &model.SpeechClip{Audio: []byte("mp3"), Format: "mp3"},
		image:  &model.ImageAsset{URL: "https://cdn.example.com/loops.png"},
	}
}

func TestRespondShapePerStyle(t *testing.T) {
	wantTypes := map[model.Style]reflect.Type{
		model.StyleVisual:      reflect.TypeOf(&model.VisualAssets{}),
		model.StyleAuditory:    reflect.TypeOf(&model.AuditoryAssets{}),
		model.StyleKinesthetic: reflect.TypeOf(&model.KinestheticAssets{}),
	}
	providers := map[string]*stubProvider{
		"failing":    {},
		"succeeding": succeedingProvider(),
	}
	for name, p := range providers {
		for _, style := range model.StyleOrder {
			resp, err := newTestOrchestrator(p).Respond(context.Background(), "How do Java loops work?", style)
			if err != nil {
				t.Fatalf("%s/%s: %v", name, style, err)
			}
			if resp.ResponseType != style || resp.Assets.Style() != style {
				t.Fatalf("%s/%s: wrong response type", name, style)
			}
			if got := reflect.TypeOf(resp.Assets); got != wantTypes[style] {
				t.Fatalf("%s/%s: assets type want=%v got=%v", name, style, wantTypes[style], got)
			}
			if strings.TrimSpace(resp.Text) == "" {
				t.Fatalf("%s/%s: empty text", name, style)
			}
			if resp.AIUsed != (name == "succeeding") {
				t.Fatalf("%s/%s: ai_used=%v", name, style, resp.AIUsed)
			}
			checkAssets(t, name, resp.Assets)
		}
	}
}

func checkAssets(t *testing.T, name string, assets model.AssetBundle) {
	t.Helper()
	switch a := assets.(type) {
	case *model.VisualAssets:
		if len(a.Blueprint.ConceptNodes) != 4 || a.Diagram == "" || a.Illustration == "" {
			t.Fatalf("%s: incomplete visual assets %+v", name, a)
		}
		if !strings.HasPrefix(a.RadarChart, "data:image/png;base64,") || !strings.HasPrefix(a.BarChart, "data:image/png;base64,") {
			t.Fatalf("%s: charts must be PNG data URIs", name)
		}
		if !reflect.DeepEqual(a.SuggestedDownloads, []model.ContentType{model.ContentPDF, model.ContentVideo}) {
			t.Fatalf("%s: downloads %v", name, a.SuggestedDownloads)
		}
	case *model.AuditoryAssets:
		if a.AudioScript == "" || !reflect.DeepEqual(a.SuggestedDownloads, []model.ContentType{model.ContentAudio}) {
			t.Fatalf("%s: incomplete auditory assets %+v", name, a)
		}
	case *model.KinestheticAssets:
		if len(a.Tasks) != 3 || a.StarterCode == "" || a.TaskSheet == "" {
			t.Fatalf("%s: incomplete kinesthetic assets %+v", name, a)
		}
	}
}

func TestVisualProvenance(t *testing.T) {
	resp, _ := newTestOrchestrator(succeedingProvider()).Respond(context.Background(), "Java loops", model.StyleVisual)
	a := resp.Assets.(*model.VisualAssets)
	if a.BlueprintSource != model.SourceAI || a.Blueprint.ConceptNodes[0] != "Init" {
		t.Fatalf("provider blueprint not used: %+v", a.Blueprint)
	}
	if a.IllustrationSource != model.SourceAI || a.Illustration != "https://cdn.example.com/loops.png" {
		t.Fatalf("hosted illustration not used: %q", a.Illustration)
	}

	resp, _ = newTestOrchestrator(&stubProvider{}).Respond(context.Background(), "Java loops", model.StyleVisual)
	a = resp.Assets.(*model.VisualAssets)
	if a.BlueprintSource != model.SourceFallback || a.IllustrationSource != model.SourceFallback {
		t.Fatalf("fallback sources not recorded: %+v", a)
	}
	if !strings.HasPrefix(a.Illustration, "data:image/png;base64,") {
		t.Fatalf("fallback illustration must be the rendered concept map")
	}
}

func TestKinestheticExceptionScenario(t *testing.T) {
	p := &stubProvider{}
	resp, err := newTestOrchestrator(p).Respond(context.Background(), "Java exception handling", model.StyleKinesthetic)
	if err != nil {
		t.Fatalf("Respond: %v", err)
	}
	if resp.AIUsed {
		t.Fatalf("ai_used must be false when every provider call fails")
	}
	a := resp.Assets.(*model.KinestheticAssets)
	for _, kw := range []string{"try", "catch", "finally"} {
		if !strings.Contains(a.StarterCode, kw) {
			t.Fatalf("starter code missing %q:\n%s", kw, a.StarterCode)
		}
	}
	if a.TaskSource != model.SourceDefault || len(a.Tasks) != 3 {
		t.Fatalf("want 3 default tasks got source=%q n=%d", a.TaskSource, len(a.Tasks))
	}
	defaults := NewFallbackSynthesizer().DefaultTasks(3)
	if !reflect.DeepEqual(a.Tasks, defaults) {
		t.Fatalf("tasks must come from the default set")
	}
}

func TestInvalidStyleRejectedBeforeProvider(t *testing.T) {
	p := succeedingProvider()
	o := newTestOrchestrator(p)
	if _, err := o.Respond(context.Background(), "q", "tactile"); !errors.Is(err, util.ErrInvalidLearningStyle) {
		t.Fatalf("want ErrInvalidLearningStyle got %v", err)
	}
	if _, _, err := o.GenerateAssetText(context.Background(), "", model.ContentPDF, "q", ""); !errors.Is(err, util.ErrInvalidLearningStyle) {
		t.Fatalf("want ErrInvalidLearningStyle got %v", err)
	}
	if p.calls() != 0 {
		t.Fatalf("provider called %d times for an invalid style", p.calls())
	}
}

func TestGenerateAssetText(t *testing.T) {
	text, aiUsed, err := newTestOrchestrator(succeedingProvider()).GenerateAssetText(context.Background(), model.StyleVisual, model.ContentPDF, "Loops", "")
	if err != nil || !aiUsed || text != "Provider explanation." {
		t.Fatalf("want provider text got %q ai=%v err=%v", text, aiUsed, err)
	}

	text, aiUsed, err = newTestOrchestrator(&stubProvider{}).GenerateAssetText(context.Background(), model.StyleAuditory, model.ContentAudio, "", "base notes")
	if err != nil || aiUsed {
		t.Fatalf("want fallback got ai=%v err=%v", aiUsed, err)
	}
	if !strings.Contains(text, "general programming concept") || !strings.Contains(text, "base notes") {
		t.Fatalf("unexpected fallback text:\n%s", text)
	}
}

func TestNarrationAudio(t *testing.T) {
	audio := newTestOrchestrator(succeedingProvider()).NarrationAudio(context.Background(), "script")
	if audio.Ext != "mp3" || audio.Source != model.SourceAI {
		t.Fatalf("want provider mp3 got %+v", audio.Ext)
	}

	audio = newTestOrchestrator(&stubProvider{}).NarrationAudio(context.Background(), "script")
	if audio.Ext != "wav" || audio.Source != model.SourceFallback || string(audio.Data[:4]) != "RIFF" {
		t.Fatalf("want fallback wav got ext=%s source=%s", audio.Ext, audio.Source)
	}
}

func TestCancelledContextStillAnswers(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	p := succeedingProvider()
	resp, err := newTestOrchestrator(p).Respond(ctx, "Java loops", model.StyleAuditory)
	if err != nil {
		t.Fatalf("Respond: %v", err)
	}
	if resp.AIUsed || p.textCalls.Load() != 0 {
		t.Fatalf("cancelled context must skip provider calls")
	}
	if resp.Assets.(*model.AuditoryAssets).AudioScript == "" {
		t.Fatalf("fallback script missing")
	}
}

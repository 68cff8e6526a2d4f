package service

import (
	"adaptive_learning_backend/internal/model"
	"adaptive_learning_backend/internal/util"
	"context"
	"errors"
	"testing"
)

func repeat(style model.Style, n int) []model.Style {
	out := make([]model.Style, n)
	for i := range out {
		out[i] = style
	}
	return out
}

func TestEvaluateStyle(t *testing.T) {
	v, a, k := model.StyleVisual, model.StyleAuditory, model.StyleKinesthetic
	tests := []struct {
		name    string
		answers []model.Style
		want    model.Style
	}{
		{"clear winner", append(repeat(k, 6), repeat(v, 4)...), k},
		{"visual beats auditory on tie", append(repeat(a, 5), repeat(v, 5)...), v},
		{"auditory beats kinesthetic on tie", append(repeat(k, 5), repeat(a, 5)...), a},
		{"three way tie", append(append(repeat(k, 4), repeat(a, 4)...), repeat(v, 4)...), v},
		{"no answers", nil, v},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := EvaluateStyle(tt.answers)
			if got.LearningStyle != tt.want {
				t.Fatalf("style = %s, want %s", got.LearningStyle, tt.want)
			}
			if got.VisualScore+got.AuditoryScore+got.KinestheticScore != len(tt.answers) {
				t.Fatalf("scores do not sum to answer count: %+v", got)
			}
			// 胜出风格的分数一定是最大值
			for _, s := range model.StyleOrder {
				if got.Score(s) > got.Score(got.LearningStyle) {
					t.Fatalf("%s scores higher than winner: %+v", s, got)
				}
			}
		})
	}
}

func TestSubmitTestValidation(t *testing.T) {
	env := newTestEnv(t)
	u := env.seedUser(t, "ada@example.com", "")

	answers := func(n int, value string) []string {
		out := make([]string, n)
		for i := range out {
			out[i] = value
		}
		return out
	}

	if _, err := env.styles.SubmitTest(u.ID, answers(9, "visual")); !errors.Is(err, ErrAnswerCount) {
		t.Fatalf("9 answers: %v", err)
	}
	if _, err := env.styles.SubmitTest(u.ID, answers(31, "visual")); !errors.Is(err, ErrAnswerCount) {
		t.Fatalf("31 answers: %v", err)
	}
	if _, err := env.styles.SubmitTest(u.ID, answers(10, "musical")); !errors.Is(err, util.ErrInvalidLearningStyle) {
		t.Fatalf("bad value: %v", err)
	}

	first, err := env.styles.SubmitTest(u.ID, answers(10, "Auditory"))
	if err != nil {
		t.Fatal(err)
	}
	if first.LearningStyle != model.StyleAuditory || first.AuditoryScore != 10 {
		t.Fatalf("first = %+v", first)
	}

	// 重新提交覆盖旧记录
	second, err := env.styles.SubmitTest(u.ID, answers(12, "kinesthetic"))
	if err != nil {
		t.Fatal(err)
	}
	mine, err := env.styles.Mine(u.ID)
	if err != nil {
		t.Fatal(err)
	}
	if mine.LearningStyle != model.StyleKinesthetic || mine.AuditoryScore != 0 || mine.KinestheticScore != 12 {
		t.Fatalf("mine = %+v", mine)
	}
	if second.LearningStyle != mine.LearningStyle {
		t.Fatalf("returned %s, stored %s", second.LearningStyle, mine.LearningStyle)
	}
}

func TestSelectStyle(t *testing.T) {
	env := newTestEnv(t)
	u := env.seedUser(t, "ada@example.com", "")

	if _, err := env.styles.Select(u.ID, "tactile"); !errors.Is(err, util.ErrInvalidLearningStyle) {
		t.Fatalf("invalid style: %v", err)
	}
	rec, err := env.styles.Select(u.ID, " Visual ")
	if err != nil {
		t.Fatal(err)
	}
	if rec.LearningStyle != model.StyleVisual || rec.VisualScore != 20 || rec.AuditoryScore != 0 || rec.KinestheticScore != 0 {
		t.Fatalf("record = %+v", rec)
	}

	removed, err := env.styles.Clear(u.ID)
	if err != nil || !removed {
		t.Fatalf("clear = %v %v", removed, err)
	}
	if _, err := env.styles.Mine(u.ID); !errors.Is(err, util.ErrLearningStyleNotSet) {
		t.Fatalf("mine after clear: %v", err)
	}
}

func TestGenerateQuestionsFallsBackToBank(t *testing.T) {
	env := newTestEnv(t)

	res := env.styles.GenerateQuestions(context.Background(), "football", 0)
	if res.Source != model.SourceBank {
		t.Fatalf("source = %s", res.Source)
	}
	if len(res.Questions) != DefaultQuizQuestions {
		t.Fatalf("got %d questions", len(res.Questions))
	}

	res = env.styles.GenerateQuestions(context.Background(), "", 12)
	if len(res.Questions) != 12 {
		t.Fatalf("got %d questions, want 12", len(res.Questions))
	}
}

func TestGenerateQuestionsUsesValidAIOutput(t *testing.T) {
	env := newTestEnv(t)
	var questions []any
	for i := 0; i < 15; i++ {
		questions = append(questions, map[string]any{
			"question": "When learning about football tactics, you prefer to",
			"options": []any{
				map[string]any{"text": "watch a diagram", "style": "visual"},
				map[string]any{"text": "hear the coach", "style": "auditory"},
				map[string]any{"text": "run the drill", "style": "kinesthetic"},
			},
		})
	}
	env.provider.json = map[string]any{"questions": questions}

	res := env.styles.GenerateQuestions(context.Background(), "football", 10)
	if res.Source != model.SourceAI {
		t.Fatalf("source = %s", res.Source)
	}
	if len(res.Questions) != 10 {
		t.Fatalf("got %d questions, want 10", len(res.Questions))
	}
	for _, q := range res.Questions {
		if len(q.Options) != 3 || q.Options[0].Key != "A" {
			t.Fatalf("bad question: %+v", q)
		}
	}
}

func TestGenerateQuestionsRejectsTooFewAIQuestions(t *testing.T) {
	env := newTestEnv(t)
	env.provider.json = map[string]any{"questions": []any{
		map[string]any{"question": "only one", "options": []any{
			map[string]any{"text": "a", "style": "visual"},
			map[string]any{"text": "b", "style": "auditory"},
			map[string]any{"text": "c", "style": "kinesthetic"},
		}},
	}}
	res := env.styles.GenerateQuestions(context.Background(), "chess", 10)
	if res.Source != model.SourceBank || len(res.Questions) != 10 {
		t.Fatalf("result = %s / %d", res.Source, len(res.Questions))
	}
}

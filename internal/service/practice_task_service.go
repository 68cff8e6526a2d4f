package service

import (
	"adaptive_learning_backend/internal/model"
	"adaptive_learning_backend/internal/util"
	"adaptive_learning_backend/pkg/fallback"
	"adaptive_learning_backend/pkg/logger"
	"adaptive_learning_backend/pkg/monitoring"
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"
)

const (
	DefaultPracticeTopic = "Java exception handling"
	DefaultTaskCount     = 3
	maxTaskCount         = 5
	tasksTemperature     = 0.4
)

// PracticeTaskResult 练习任务及其来源：ai / catalog / default
type PracticeTaskResult struct {
	Tasks  []model.PracticeTask `json:"tasks"`
	Source string               `json:"source"`
	Topic  string               `json:"topic"`
}

type PracticeTaskService struct {
	text       TextProvider
	normalizer *AssetNormalizer
	synth      *FallbackSynthesizer
}

func NewPracticeTaskService(text TextProvider, normalizer *AssetNormalizer, synth *FallbackSynthesizer) *PracticeTaskService {
	return &PracticeTaskService{text: text, normalizer: normalizer, synth: synth}
}

// Generate 低信号主题直接返回默认任务，否则依次尝试 AI、目录、默认任务
func (s *PracticeTaskService) Generate(ctx context.Context, topic string, count int) PracticeTaskResult {
	topic = strings.TrimSpace(topic)
	count = util.ClampInt(count, 1, maxTaskCount)

	if IsLowSignalTopic(topic) {
		monitoring.Fallbacks.WithLabelValues("practice_tasks").Inc()
		return PracticeTaskResult{Tasks: s.synth.DefaultTasks(count), Source: model.SourceDefault, Topic: topic}
	}

	steps := []fallback.Step[[]model.PracticeTask]{
		{Name: model.SourceAI, Try: func(ctx context.Context) ([]model.PracticeTask, error) {
			if s.text == nil {
				return nil, errProviderDisabled
			}
			tasks := s.normalizer.Tasks(s.text.CompleteJSON(ctx, tasksSystemPrompt, tasksUserPrompt(topic, count), tasksTemperature))
			if len(tasks) == 0 {
				return nil, errors.New("ai: no valid tasks")
			}
			return s.synth.MergeWithDefaults(tasks, count), nil
		}},
		{Name: model.SourceCatalog, Try: func(context.Context) ([]model.PracticeTask, error) {
			tasks, key, ok := s.synth.CatalogTasks(topic)
			if !ok {
				return nil, errors.New("catalog: no matching topic")
			}
			logger.Log.Debug("Practice catalog matched", zap.String("topic", topic), zap.String("key", key))
			return s.synth.MergeWithDefaults(tasks, count), nil
		}},
	}
	result := fallback.Resolve(ctx, steps, fallback.Terminal[[]model.PracticeTask]{
		Name: model.SourceDefault,
		Run: func(context.Context, []string) []model.PracticeTask {
			return s.synth.DefaultTasks(count)
		},
	})
	if result.Tier != model.SourceAI {
		monitoring.Fallbacks.WithLabelValues("practice_tasks").Inc()
	}
	return PracticeTaskResult{Tasks: result.Value, Source: result.Tier, Topic: topic}
}

const tasksSystemPrompt = "You are a Java tutor creating practical coding practice tasks. Return strict JSON only."

func tasksUserPrompt(topic string, count int) string {
	return fmt.Sprintf("Generate %d Java coding tasks for this topic: %s.\n"+
		"Output JSON object:\n"+
		"{\"tasks\": [{\"task_name\": \"...\", \"description\": \"...\", \"starter_code\": \"...\"}]}\n"+
		"Rules: starter_code must be valid Java with class Main and main method.", count, topic)
}

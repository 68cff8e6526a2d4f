package service

import (
	"adaptive_learning_backend/internal/model"
	"adaptive_learning_backend/internal/repository"
	"adaptive_learning_backend/internal/util"
	"adaptive_learning_backend/pkg/fallback"
	"adaptive_learning_backend/pkg/monitoring"
	"context"
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"
)

const (
	MinQuizAnswers       = 10
	MaxQuizAnswers       = 30
	DefaultQuizQuestions = 20
	selectedStyleScore   = 20
	quizTemperature      = 0.6
)

var ErrAnswerCount = fmt.Errorf("answers must be between %d and %d", MinQuizAnswers, MaxQuizAnswers)

const quizSystemPrompt = `You write learning style questionnaires for programming students.
Return JSON: {"questions":[{"question":"...","options":[{"text":"...","style":"visual"},{"text":"...","style":"auditory"},{"text":"...","style":"kinesthetic"}]}]}.
Every question has exactly one option per style.`

// QuizResult 生成的测评题及来源：ai / bank
type QuizResult struct {
	Questions []model.QuizQuestion `json:"questions"`
	Source    string               `json:"source"`
}

type StyleService struct {
	StyleRepo  *repository.LearningStyleRepository
	text       TextProvider
	normalizer *AssetNormalizer
	synth      *FallbackSynthesizer
}

func NewStyleService(styleRepo *repository.LearningStyleRepository, text TextProvider, normalizer *AssetNormalizer, synth *FallbackSynthesizer) *StyleService {
	return &StyleService{
		StyleRepo:  styleRepo,
		text:       text,
		normalizer: normalizer,
		synth:      synth,
	}
}

// EvaluateStyle 统计各风格票数，平局按 visual、auditory、kinesthetic 的顺序取先者
func EvaluateStyle(answers []model.Style) model.LearningStyle {
	counts := map[model.Style]int{}
	for _, a := range answers {
		counts[a]++
	}

	winner := model.StyleOrder[0]
	for _, s := range model.StyleOrder[1:] {
		if counts[s] > counts[winner] {
			winner = s
		}
	}

	return model.LearningStyle{
		LearningStyle:    winner,
		VisualScore:      counts[model.StyleVisual],
		AuditoryScore:    counts[model.StyleAuditory],
		KinestheticScore: counts[model.StyleKinesthetic],
	}
}

func (s *StyleService) Questions() []model.QuizQuestion {
	return s.synth.QuizBank()
}

func (s *StyleService) SubmitTest(userID uint, answers []string) (*model.LearningStyle, error) {
	if len(answers) < MinQuizAnswers || len(answers) > MaxQuizAnswers {
		return nil, ErrAnswerCount
	}
	styles := make([]model.Style, 0, len(answers))
	for _, a := range answers {
		style := model.Style(strings.ToLower(strings.TrimSpace(a)))
		if !style.Valid() {
			return nil, util.ErrInvalidLearningStyle
		}
		styles = append(styles, style)
	}

	result := EvaluateStyle(styles)
	result.UserID = userID
	if err := s.save(&result); err != nil {
		return nil, err
	}
	return &result, nil
}

// Select 直接选择风格，所选风格记 20 分，其余清零
func (s *StyleService) Select(userID uint, style string) (*model.LearningStyle, error) {
	chosen := model.Style(strings.ToLower(strings.TrimSpace(style)))
	if !chosen.Valid() {
		return nil, util.ErrInvalidLearningStyle
	}

	record := model.LearningStyle{UserID: userID, LearningStyle: chosen}
	switch chosen {
	case model.StyleVisual:
		record.VisualScore = selectedStyleScore
	case model.StyleAuditory:
		record.AuditoryScore = selectedStyleScore
	case model.StyleKinesthetic:
		record.KinestheticScore = selectedStyleScore
	}
	if err := s.save(&record); err != nil {
		return nil, err
	}
	return &record, nil
}

// save 覆盖已有记录，保留首次创建时间
func (s *StyleService) save(record *model.LearningStyle) error {
	existing, err := s.StyleRepo.FindByUserID(record.UserID)
	if err == nil {
		record.CreatedAt = existing.CreatedAt
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}
	return s.StyleRepo.Save(record)
}

func (s *StyleService) Mine(userID uint) (*model.LearningStyle, error) {
	record, err := s.StyleRepo.FindByUserID(userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, util.ErrLearningStyleNotSet
		}
		return nil, err
	}
	return record, nil
}

func (s *StyleService) Clear(userID uint) (bool, error) {
	return s.StyleRepo.Delete(userID)
}

// GenerateQuestions 按兴趣生成测评题，AI 结果不足时使用题库
func (s *StyleService) GenerateQuestions(ctx context.Context, interests string, count int) QuizResult {
	if count <= 0 {
		count = DefaultQuizQuestions
	}
	count = util.ClampInt(count, MinQuizAnswers, MaxQuizAnswers)
	interests = clampRunes(sanitize(interests), 200)

	steps := []fallback.Step[[]model.QuizQuestion]{
		{Name: model.SourceAI, Try: func(ctx context.Context) ([]model.QuizQuestion, error) {
			if s.text == nil {
				return nil, errProviderDisabled
			}
			questions := s.normalizer.Questions(s.text.CompleteJSON(ctx, quizSystemPrompt, quizUserPrompt(interests, count), quizTemperature))
			if len(questions) < MinQuizAnswers {
				return nil, fmt.Errorf("ai: %d valid questions", len(questions))
			}
			if len(questions) > count {
				questions = questions[:count]
			}
			return questions, nil
		}},
	}
	terminal := fallback.Terminal[[]model.QuizQuestion]{
		Name: model.SourceBank,
		Run: func(ctx context.Context, notes []string) []model.QuizQuestion {
			bank := s.synth.QuizBank()
			if len(bank) > count {
				bank = bank[:count]
			}
			return bank
		},
	}

	res := fallback.Resolve(ctx, steps, terminal)
	if res.Tier != model.SourceAI {
		monitoring.Fallbacks.WithLabelValues("style_quiz").Inc()
	}
	return QuizResult{Questions: res.Value, Source: res.Tier}
}

func quizUserPrompt(interests string, count int) string {
	if interests == "" {
		interests = "general programming"
	}
	return fmt.Sprintf("Write %d questions themed around these interests: %s.", count, interests)
}

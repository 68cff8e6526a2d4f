package service

import (
	"adaptive_learning_backend/internal/model"
	"adaptive_learning_backend/internal/repository"
	"adaptive_learning_backend/internal/util"
	"context"
	"errors"
	"strings"
)

const (
	practiceHistoryLimit   = 30
	DefaultActivityStatus  = "completed"
	maxActivityStatusRunes = 40
)

var (
	ErrEmptySource   = errors.New("source_code is required")
	ErrEmptyTaskName = errors.New("task_name is required")
)

// PracticeService 动手实验室，只对 kinesthetic 学习者开放
type PracticeService struct {
	StyleService *StyleService
	ChatRepo     *repository.ChatRepository
	PracticeRepo *repository.PracticeRepository
	Tasks        *PracticeTaskService
	Runner       *CodeRunnerService
}

func NewPracticeService(
	styleService *StyleService,
	chatRepo *repository.ChatRepository,
	practiceRepo *repository.PracticeRepository,
	tasks *PracticeTaskService,
	runner *CodeRunnerService,
) *PracticeService {
	return &PracticeService{
		StyleService: styleService,
		ChatRepo:     chatRepo,
		PracticeRepo: practiceRepo,
		Tasks:        tasks,
		Runner:       runner,
	}
}

func (s *PracticeService) ensureKinesthetic(userID uint) error {
	style, err := s.StyleService.Mine(userID)
	if err != nil {
		return err
	}
	if style.LearningStyle != model.StyleKinesthetic {
		return util.ErrPracticeRequiresKinesthetic
	}
	return nil
}

// TasksForUser 以最近一次提问为主题生成练习
func (s *PracticeService) TasksForUser(ctx context.Context, userID uint) (*PracticeTaskResult, error) {
	if err := s.ensureKinesthetic(userID); err != nil {
		return nil, err
	}
	topic, err := s.ChatRepo.LatestQuestion(userID)
	if err != nil {
		return nil, err
	}
	if topic == "" {
		topic = DefaultPracticeTopic
	}
	result := s.Tasks.Generate(ctx, topic, DefaultTaskCount)
	return &result, nil
}

func (s *PracticeService) Run(ctx context.Context, userID uint, source string) (*model.ExecutionResult, error) {
	if err := s.ensureKinesthetic(userID); err != nil {
		return nil, err
	}
	if strings.TrimSpace(source) == "" {
		return nil, ErrEmptySource
	}
	return s.Runner.Run(ctx, source), nil
}

func (s *PracticeService) Submit(userID uint, taskName, status, code string, timeSpent int) (*model.PracticeActivity, error) {
	if err := s.ensureKinesthetic(userID); err != nil {
		return nil, err
	}
	taskName = strings.TrimSpace(taskName)
	if taskName == "" {
		return nil, ErrEmptyTaskName
	}
	status = clampRunes(strings.TrimSpace(status), maxActivityStatusRunes)
	if status == "" {
		status = DefaultActivityStatus
	}
	if timeSpent < 0 {
		timeSpent = 0
	}

	activity := &model.PracticeActivity{
		UserID:        userID,
		TaskName:      clampRunes(taskName, 200),
		Status:        status,
		CodeSubmitted: code,
		TimeSpent:     timeSpent,
	}
	if err := s.PracticeRepo.Create(activity); err != nil {
		return nil, err
	}
	return activity, nil
}

func (s *PracticeService) Mine(userID uint) ([]model.PracticeActivity, error) {
	if err := s.ensureKinesthetic(userID); err != nil {
		return nil, err
	}
	return s.PracticeRepo.FindByUser(userID, practiceHistoryLimit)
}

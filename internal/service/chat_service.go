package service

import (
	"adaptive_learning_backend/internal/model"
	"adaptive_learning_backend/internal/repository"
	"adaptive_learning_backend/internal/util"
	"context"
	"errors"
	"strings"

	"gorm.io/gorm"
)

const (
	chatHistoryLimit  = 30
	maxFeedbackLength = 500
)

var ErrEmptyQuestion = errors.New("question is required")

type ChatService struct {
	ChatRepo     *repository.ChatRepository
	StyleService *StyleService
	Content      *AdaptiveContentService
}

func NewChatService(chatRepo *repository.ChatRepository, styleService *StyleService, content *AdaptiveContentService) *ChatService {
	return &ChatService{
		ChatRepo:     chatRepo,
		StyleService: styleService,
		Content:      content,
	}
}

// ChatReply 自适应回答及其保存后的记录编号
type ChatReply struct {
	*model.AdaptiveResponse
	ChatID uint `json:"chat_id"`
}

// Ask 按用户当前学习风格生成回答并保存记录
func (s *ChatService) Ask(ctx context.Context, userID uint, question string) (*ChatReply, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return nil, ErrEmptyQuestion
	}

	style, err := s.StyleService.Mine(userID)
	if err != nil {
		return nil, err
	}

	resp, err := s.Content.Respond(ctx, question, style.LearningStyle)
	if err != nil {
		return nil, err
	}

	history := &model.ChatHistory{
		UserID:            userID,
		Question:          question,
		Response:          resp.Text,
		ResponseType:      resp.ResponseType,
		LearningStyleUsed: style.LearningStyle,
		AIUsed:            resp.AIUsed,
	}
	if err := s.ChatRepo.Create(history); err != nil {
		return nil, err
	}
	return &ChatReply{AdaptiveResponse: resp, ChatID: history.ID}, nil
}

func (s *ChatService) History(userID uint) ([]model.ChatHistory, error) {
	return s.ChatRepo.FindByUser(userID, chatHistoryLimit)
}

// Feedback 只能评价自己的回答
func (s *ChatService) Feedback(userID, chatID uint, helpful bool, comment string) (*model.ChatFeedback, error) {
	chat, err := s.ChatRepo.FindByID(chatID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, util.ErrChatNotFound
		}
		return nil, err
	}
	if chat.UserID != userID {
		return nil, util.ErrChatNotFound
	}

	feedback := &model.ChatFeedback{
		UserID:  userID,
		ChatID:  chatID,
		Helpful: helpful,
		Comment: clampRunes(strings.TrimSpace(comment), maxFeedbackLength),
	}
	if err := s.ChatRepo.SaveFeedback(feedback); err != nil {
		return nil, err
	}
	return feedback, nil
}

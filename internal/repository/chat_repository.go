package repository

import (
	"adaptive_learning_backend/internal/model"
	"math"
	"time"

	"gorm.io/gorm"
)

type ChatRepository struct {
	DB *gorm.DB
}

func NewChatRepository(db *gorm.DB) *ChatRepository {
	return &ChatRepository{DB: db}
}

func (r *ChatRepository) Create(chat *model.ChatHistory) error {
	return r.DB.Create(chat).Error
}

func (r *ChatRepository) FindByID(id uint) (*model.ChatHistory, error) {
	var chat model.ChatHistory
	err := r.DB.First(&chat, id).Error
	return &chat, err
}

// FindByUser 最近的记录在前
func (r *ChatRepository) FindByUser(userID uint, limit int) ([]model.ChatHistory, error) {
	var chats []model.ChatHistory
	err := r.DB.Where("user_id = ?", userID).
		Order("timestamp DESC, id DESC").
		Limit(limit).
		Find(&chats).Error
	return chats, err
}

// LatestQuestion 用户最近一次提问，没有时返回空字符串
func (r *ChatRepository) LatestQuestion(userID uint) (string, error) {
	chats, err := r.FindByUser(userID, 1)
	if err != nil || len(chats) == 0 {
		return "", err
	}
	return chats[0].Question, nil
}

func (r *ChatRepository) Latest(limit int) ([]model.ChatHistory, error) {
	var chats []model.ChatHistory
	err := r.DB.Order("timestamp DESC, id DESC").Limit(limit).Find(&chats).Error
	return chats, err
}

func (r *ChatRepository) Count() (int64, error) {
	var count int64
	err := r.DB.Model(&model.ChatHistory{}).Count(&count).Error
	return count, err
}

func (r *ChatRepository) CountByUser(userID uint) (int64, error) {
	var count int64
	err := r.DB.Model(&model.ChatHistory{}).Where("user_id = ?", userID).Count(&count).Error
	return count, err
}

func (r *ChatRepository) Since(t time.Time) ([]model.ChatHistory, error) {
	var chats []model.ChatHistory
	err := r.DB.Where("timestamp >= ?", t).Find(&chats).Error
	return chats, err
}

// SaveFeedback 同一用户对同一回答只保留最新评价
func (r *ChatRepository) SaveFeedback(feedback *model.ChatFeedback) error {
	return r.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("user_id = ? AND chat_id = ?", feedback.UserID, feedback.ChatID).
			Delete(&model.ChatFeedback{}).Error; err != nil {
			return err
		}
		return tx.Create(feedback).Error
	})
}

type FeedbackSummary struct {
	Total     int64   `json:"total"`
	Helpful   int64   `json:"helpful"`
	NeedsWork int64   `json:"needs_work"`
	AvgRating float64 `json:"avg_rating"`
}

func (r *ChatRepository) FeedbackSummary() (FeedbackSummary, error) {
	var s FeedbackSummary
	if err := r.DB.Model(&model.ChatFeedback{}).Count(&s.Total).Error; err != nil {
		return s, err
	}
	if err := r.DB.Model(&model.ChatFeedback{}).Where("helpful = ?", true).Count(&s.Helpful).Error; err != nil {
		return s, err
	}
	s.NeedsWork = s.Total - s.Helpful
	if s.Total > 0 {
		// 有帮助记 1，需改进记 -1，保留两位小数
		s.AvgRating = math.Round(float64(s.Helpful-s.NeedsWork)/float64(s.Total)*100) / 100
	}
	return s, nil
}

func (r *ChatRepository) FeedbackSince(t time.Time) ([]model.ChatFeedback, error) {
	var rows []model.ChatFeedback
	err := r.DB.Where("created_at >= ?", t).Find(&rows).Error
	return rows, err
}

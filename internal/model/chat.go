package model

import (
	"time"
)

// ChatHistory 自适应问答记录
type ChatHistory struct {
	ID                uint      `gorm:"primaryKey;autoIncrement" json:"chat_id"`
	UserID            uint      `gorm:"index;not null" json:"user_id"`
	Question          string    `gorm:"type:text;not null" json:"question"`
	Response          string    `gorm:"type:text;not null" json:"response"`
	ResponseType      Style     `gorm:"size:20;not null" json:"response_type"`
	LearningStyleUsed Style     `gorm:"size:20;not null" json:"learning_style_used"`
	AIUsed            bool      `gorm:"default:false" json:"ai_used"`
	Timestamp         time.Time `gorm:"index;autoCreateTime" json:"timestamp"`
}

func (ChatHistory) TableName() string {
	return "chat_history"
}

// ChatFeedback 学生对某次回答的评价
type ChatFeedback struct {
	ID        uint      `gorm:"primaryKey;autoIncrement" json:"feedback_id"`
	UserID    uint      `gorm:"index;not null" json:"user_id"`
	ChatID    uint      `gorm:"index;not null" json:"chat_id"`
	Helpful   bool      `json:"helpful"`
	Comment   string    `gorm:"size:500" json:"comment"`
	CreatedAt time.Time `json:"created_at"`
}

func (ChatFeedback) TableName() string {
	return "chat_feedback"
}

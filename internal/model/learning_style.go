package model

import "time"

// Style 学习风格标签
type Style string

const (
	StyleVisual      Style = "visual"
	StyleAuditory    Style = "auditory"
	StyleKinesthetic Style = "kinesthetic"
)

// StyleOrder 固定的平局顺序
var StyleOrder = []Style{StyleVisual, StyleAuditory, StyleKinesthetic}

func (s Style) Valid() bool {
	switch s {
	case StyleVisual, StyleAuditory, StyleKinesthetic:
		return true
	}
	return false
}

// swagger:model LearningStyle
type LearningStyle struct {
	UserID           uint      `gorm:"primaryKey;autoIncrement:false" json:"user_id"`
	LearningStyle    Style     `gorm:"size:20;not null" json:"learning_style"`
	VisualScore      int       `gorm:"default:0;not null" json:"visual_score"`
	AuditoryScore    int       `gorm:"default:0;not null" json:"auditory_score"`
	KinestheticScore int       `gorm:"default:0;not null" json:"kinesthetic_score"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}

func (LearningStyle) TableName() string {
	return "learning_styles"
}

// Score 返回某个风格的分数
func (l *LearningStyle) Score(s Style) int {
	switch s {
	case StyleVisual:
		return l.VisualScore
	case StyleAuditory:
		return l.AuditoryScore
	case StyleKinesthetic:
		return l.KinestheticScore
	}
	return 0
}

// QuizOption 测评题选项，每个选项指向一种风格
type QuizOption struct {
	Key   string `yaml:"key" json:"key"`
	Text  string `yaml:"text" json:"text"`
	Style Style  `yaml:"style" json:"style"`
}

type QuizQuestion struct {
	ID       int          `yaml:"id" json:"id"`
	Question string       `yaml:"question" json:"question"`
	Options  []QuizOption `yaml:"options" json:"options"`
}

package repository

import (
	"adaptive_learning_backend/internal/model"

	"gorm.io/gorm"
)

type LearningStyleRepository struct {
	DB *gorm.DB
}

func NewLearningStyleRepository(db *gorm.DB) *LearningStyleRepository {
	return &LearningStyleRepository{DB: db}
}

func (r *LearningStyleRepository) FindByUserID(userID uint) (*model.LearningStyle, error) {
	var style model.LearningStyle
	err := r.DB.Where("user_id = ?", userID).First(&style).Error
	return &style, err
}

// Save 每个用户只保留一条，重复提交直接覆盖
func (r *LearningStyleRepository) Save(style *model.LearningStyle) error {
	return r.DB.Save(style).Error
}

func (r *LearningStyleRepository) Delete(userID uint) (bool, error) {
	res := r.DB.Where("user_id = ?", userID).Delete(&model.LearningStyle{})
	return res.RowsAffected > 0, res.Error
}

func (r *LearningStyleRepository) Count() (int64, error) {
	var count int64
	err := r.DB.Model(&model.LearningStyle{}).Count(&count).Error
	return count, err
}

type StyleCount struct {
	LearningStyle model.Style `json:"learning_style"`
	Count         int64       `json:"count"`
}

func (r *LearningStyleRepository) Distribution() ([]StyleCount, error) {
	var rows []StyleCount
	err := r.DB.Model(&model.LearningStyle{}).
		Select("learning_style, COUNT(*) AS count").
		Group("learning_style").
		Scan(&rows).Error
	return rows, err
}

package repository

import (
	"adaptive_learning_backend/internal/model"

	"gorm.io/gorm"
)

type PracticeRepository struct {
	DB *gorm.DB
}

func NewPracticeRepository(db *gorm.DB) *PracticeRepository {
	return &PracticeRepository{DB: db}
}

func (r *PracticeRepository) Create(activity *model.PracticeActivity) error {
	return r.DB.Create(activity).Error
}

func (r *PracticeRepository) FindByUser(userID uint, limit int) ([]model.PracticeActivity, error) {
	var rows []model.PracticeActivity
	err := r.DB.Where("user_id = ?", userID).
		Order("updated_at DESC, id DESC").
		Limit(limit).
		Find(&rows).Error
	return rows, err
}

func (r *PracticeRepository) Count() (int64, error) {
	var count int64
	err := r.DB.Model(&model.PracticeActivity{}).Count(&count).Error
	return count, err
}

func (r *PracticeRepository) CountByUser(userID uint) (int64, error) {
	var count int64
	err := r.DB.Model(&model.PracticeActivity{}).Where("user_id = ?", userID).Count(&count).Error
	return count, err
}

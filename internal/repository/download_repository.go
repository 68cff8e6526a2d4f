package repository

import (
	"adaptive_learning_backend/internal/model"

	"gorm.io/gorm"
)

type DownloadRepository struct {
	DB *gorm.DB
}

func NewDownloadRepository(db *gorm.DB) *DownloadRepository {
	return &DownloadRepository{DB: db}
}

// WithTx 在事务中使用
func (r *DownloadRepository) WithTx(tx *gorm.DB) *DownloadRepository {
	return &DownloadRepository{DB: tx}
}

func (r *DownloadRepository) Create(d *model.Download) error {
	return r.DB.Create(d).Error
}

func (r *DownloadRepository) FindByIDForUser(id, userID uint) (*model.Download, error) {
	var d model.Download
	err := r.DB.Where("id = ? AND user_id = ?", id, userID).First(&d).Error
	return &d, err
}

func (r *DownloadRepository) FindByUser(userID uint, limit int) ([]model.Download, error) {
	var rows []model.Download
	err := r.DB.Where("user_id = ?", userID).
		Order("timestamp DESC, id DESC").
		Limit(limit).
		Find(&rows).Error
	return rows, err
}

func (r *DownloadRepository) Delete(id uint) error {
	return r.DB.Delete(&model.Download{}, id).Error
}

func (r *DownloadRepository) Count() (int64, error) {
	var count int64
	err := r.DB.Model(&model.Download{}).Count(&count).Error
	return count, err
}

func (r *DownloadRepository) CountByUser(userID uint) (int64, error) {
	var count int64
	err := r.DB.Model(&model.Download{}).Where("user_id = ?", userID).Count(&count).Error
	return count, err
}

package repository

import (
	"adaptive_learning_backend/internal/model"
	"strings"
	"time"

	"gorm.io/gorm"
)

type UserRepository struct {
	DB *gorm.DB
}

func NewUserRepository(db *gorm.DB) *UserRepository {
	return &UserRepository{DB: db}
}

func (r *UserRepository) Create(user *model.User) error {
	return r.DB.Create(user).Error
}

func (r *UserRepository) FindByID(id uint) (*model.User, error) {
	var user model.User
	err := r.DB.First(&user, id).Error
	return &user, err
}

func (r *UserRepository) FindByEmail(email string) (*model.User, error) {
	var user model.User
	err := r.DB.Where("email = ?", strings.ToLower(strings.TrimSpace(email))).First(&user).Error
	return &user, err
}

func (r *UserRepository) Update(user *model.User) error {
	return r.DB.Save(user).Error
}

func (r *UserRepository) UpdatePassword(userID uint, hash string) error {
	return r.DB.Model(&model.User{}).
		Where("id = ?", userID).
		Update("password_hash", hash).
		Error
}

// Search 按姓名或邮箱模糊查询，按注册时间倒序
func (r *UserRepository) Search(q string, limit int) ([]model.User, error) {
	var users []model.User
	query := r.DB.Model(&model.User{})
	if q = strings.ToLower(strings.TrimSpace(q)); q != "" {
		pattern := "%" + q + "%"
		query = query.Where("LOWER(name) LIKE ? OR LOWER(email) LIKE ?", pattern, pattern)
	}
	err := query.Order("created_at DESC").Limit(limit).Find(&users).Error
	return users, err
}

func (r *UserRepository) Count() (int64, error) {
	var count int64
	err := r.DB.Model(&model.User{}).Count(&count).Error
	return count, err
}

// DeleteWithRelated 在一个事务中删除用户及其所有数据，返回被删除的下载记录以便清理文件
func (r *UserRepository) DeleteWithRelated(userID uint) ([]model.Download, error) {
	var downloads []model.Download
	err := r.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("user_id = ?", userID).Find(&downloads).Error; err != nil {
			return err
		}
		related := []any{
			&model.ChatFeedback{},
			&model.ChatHistory{},
			&model.PracticeActivity{},
			&model.Download{},
			&model.LearningStyle{},
		}
		for _, m := range related {
			if err := tx.Where("user_id = ?", userID).Delete(m).Error; err != nil {
				return err
			}
		}
		res := tx.Delete(&model.User{}, userID)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return downloads, nil
}

func (r *UserRepository) Since(t time.Time) ([]model.User, error) {
	var users []model.User
	err := r.DB.Where("created_at >= ?", t).Find(&users).Error
	return users, err
}

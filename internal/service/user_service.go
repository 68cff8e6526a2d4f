package service

import (
	"adaptive_learning_backend/internal/model"
	"adaptive_learning_backend/internal/repository"
	"adaptive_learning_backend/internal/util"
	"adaptive_learning_backend/pkg/logger"
	"context"
	"errors"
	"strings"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

type UserService struct {
	UserRepo *repository.UserRepository
	Storage  *StorageService
}

func NewUserService(userRepo *repository.UserRepository, storage *StorageService) *UserService {
	return &UserService{
		UserRepo: userRepo,
		Storage:  storage,
	}
}

func (s *UserService) GetUserByID(id uint) (*model.User, error) {
	user, err := s.UserRepo.FindByID(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, util.ErrUserNotFound
		}
		return nil, err
	}
	return user, nil
}

// ProfileUpdate 为 nil 的字段保持不变
type ProfileUpdate struct {
	Name     *string
	Email    *string
	Password *string
}

var (
	ErrEmptyName  = errors.New("name cannot be empty")
	ErrEmptyEmail = errors.New("email cannot be empty")
)

func (s *UserService) UpdateProfile(userID uint, req ProfileUpdate) (*model.User, error) {
	user, err := s.GetUserByID(userID)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if name == "" {
			return nil, ErrEmptyName
		}
		user.Name = name
	}

	if req.Email != nil {
		email := normalizeEmail(*req.Email)
		if email == "" {
			return nil, ErrEmptyEmail
		}
		existing, err := s.UserRepo.FindByEmail(email)
		if err == nil && existing.ID != userID {
			return nil, util.ErrEmailRegistered
		} else if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, err
		}
		user.Email = email
	}

	if req.Password != nil {
		hashed, err := hashPassword(*req.Password)
		if err != nil {
			return nil, err
		}
		user.PasswordHash = hashed
	}

	if err := s.UserRepo.Update(user); err != nil {
		return nil, err
	}
	return user, nil
}

// DeleteAccount 删除用户及全部关联数据，文件在事务提交后清理
func (s *UserService) DeleteAccount(ctx context.Context, userID uint) error {
	downloads, err := s.UserRepo.DeleteWithRelated(userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return util.ErrUserNotFound
		}
		return err
	}

	if s.Storage == nil {
		return nil
	}
	for _, d := range downloads {
		if err := s.Storage.Delete(ctx, d.FilePath); err != nil {
			logger.Log.Warn("Failed to remove download object",
				zap.Uint("userID", userID),
				zap.String("path", d.FilePath),
				zap.Error(err))
		}
	}
	return nil
}

package service

import (
	"adaptive_learning_backend/internal/config"
	"adaptive_learning_backend/internal/model"
	"adaptive_learning_backend/internal/repository"
	"adaptive_learning_backend/internal/util"
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

const (
	MinPasswordLength = 6
	ResetTokenTTL     = 30 * time.Minute
)

var ErrPasswordTooShort = fmt.Errorf("password must be at least %d characters", MinPasswordLength)

// ResetTokenStore 一次性密码重置令牌
type ResetTokenStore interface {
	Save(ctx context.Context, token string, userID uint, ttl time.Duration) error
	Consume(ctx context.Context, token string) (uint, bool, error)
}

type AuthService struct {
	UserRepo    *repository.UserRepository
	ResetTokens ResetTokenStore
	Cfg         *config.Config
}

func NewAuthService(userRepo *repository.UserRepository, resetTokens ResetTokenStore, cfg *config.Config) *AuthService {
	return &AuthService{
		UserRepo:    userRepo,
		ResetTokens: resetTokens,
		Cfg:         cfg,
	}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func hashPassword(password string) (string, error) {
	if len(password) < MinPasswordLength {
		return "", ErrPasswordTooShort
	}
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hashed), nil
}

func (s *AuthService) Register(name, email, password string) (*model.User, error) {
	email = normalizeEmail(email)
	_, err := s.UserRepo.FindByEmail(email)
	if err == nil {
		return nil, util.ErrEmailRegistered
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	hashed, err := hashPassword(password)
	if err != nil {
		return nil, err
	}
	user := &model.User{
		Name:         strings.TrimSpace(name),
		Email:        email,
		PasswordHash: hashed,
	}
	if err := s.UserRepo.Create(user); err != nil {
		return nil, err
	}
	return user, nil
}

func (s *AuthService) Login(email, password string) (string, *model.User, error) {
	user, err := s.UserRepo.FindByEmail(email)
	if err != nil {
		return "", nil, util.ErrInvalidCredentials
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return "", nil, util.ErrInvalidCredentials
	}

	token, err := util.GenerateJWT(user, s.Cfg.JWT.Secret, s.Cfg.JWT.ExpireTime)
	if err != nil {
		return "", nil, err
	}
	return token, user, nil
}

// ForgotPassword 邮箱不存在时返回空令牌且不报错
func (s *AuthService) ForgotPassword(ctx context.Context, email string) (string, error) {
	user, err := s.UserRepo.FindByEmail(email)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", nil
	}
	if err != nil {
		return "", err
	}

	token := strings.ReplaceAll(uuid.NewString(), "-", "")
	if err := s.ResetTokens.Save(ctx, token, user.ID, ResetTokenTTL); err != nil {
		return "", fmt.Errorf("save reset token: %w", err)
	}
	return token, nil
}

func (s *AuthService) ResetPassword(ctx context.Context, token, newPassword string) error {
	if len(newPassword) < MinPasswordLength {
		return ErrPasswordTooShort
	}
	userID, ok, err := s.ResetTokens.Consume(ctx, strings.TrimSpace(token))
	if err != nil {
		return err
	}
	if !ok {
		return util.ErrInvalidResetToken
	}
	if _, err := s.UserRepo.FindByID(userID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return util.ErrUserNotFound
		}
		return err
	}

	hashed, err := hashPassword(newPassword)
	if err != nil {
		return err
	}
	return s.UserRepo.UpdatePassword(userID, hashed)
}

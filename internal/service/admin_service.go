package service

import (
	"adaptive_learning_backend/internal/config"
	"adaptive_learning_backend/internal/model"
	"adaptive_learning_backend/internal/repository"
	"adaptive_learning_backend/internal/util"
	"context"
	"errors"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"
)

const (
	adminLatestLimit = 8
	adminUserLimit   = 200
)

var ErrDeleteSelf = errors.New("cannot delete own admin account")

// AdminPolicy 管理员邮箱白名单，支持热更新
type AdminPolicy struct {
	mu  sync.RWMutex
	cfg config.AdminConfig
}

func NewAdminPolicy(cfg config.AdminConfig) *AdminPolicy {
	return &AdminPolicy{cfg: cfg}
}

func (p *AdminPolicy) UpdateConfig(cfg config.AdminConfig) {
	p.mu.Lock()
	p.cfg = cfg
	p.mu.Unlock()
}

func (p *AdminPolicy) IsAdmin(email string) bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.cfg.IsAdminEmail(email)
}

type AdminMetrics struct {
	Users               int64 `json:"users"`
	LearningStyles      int64 `json:"learning_styles"`
	ChatMessages        int64 `json:"chat_messages"`
	PracticeSubmissions int64 `json:"practice_submissions"`
	Downloads           int64 `json:"downloads"`
}

type AdminUser struct {
	UserID        uint         `json:"user_id"`
	Name          string       `json:"name"`
	Email         string       `json:"email"`
	IsAdmin       bool         `json:"is_admin"`
	LearningStyle *model.Style `json:"learning_style,omitempty"`
	CreatedAt     time.Time    `json:"created_at"`
	Stats         *UserStats   `json:"stats,omitempty"`
}

type UserStats struct {
	Chats     int64 `json:"chats"`
	Downloads int64 `json:"downloads"`
	Practice  int64 `json:"practice"`
}

type AdminChat struct {
	ChatID       uint        `json:"chat_id"`
	UserID       uint        `json:"user_id"`
	Question     string      `json:"question"`
	ResponseType model.Style `json:"response_type"`
	Timestamp    time.Time   `json:"timestamp"`
}

type AdminSummary struct {
	Metrics     AdminMetrics `json:"metrics"`
	LatestUsers []AdminUser  `json:"latest_users"`
	LatestChats []AdminChat  `json:"latest_chats"`
}

type AdminAnalytics struct {
	StyleDistribution map[model.Style]int64      `json:"style_distribution"`
	DailySignups      []DailyCount               `json:"daily_signups"`
	DailyChats        []DailyCount               `json:"daily_chats"`
	DailyFeedback     []DailyCount               `json:"daily_feedback"`
	FeedbackSummary   repository.FeedbackSummary `json:"feedback_summary"`
}

type AdminService struct {
	Policy       *AdminPolicy
	UserRepo     *repository.UserRepository
	StyleRepo    *repository.LearningStyleRepository
	ChatRepo     *repository.ChatRepository
	PracticeRepo *repository.PracticeRepository
	DownloadRepo *repository.DownloadRepository
	UserService  *UserService
}

func NewAdminService(
	policy *AdminPolicy,
	userRepo *repository.UserRepository,
	styleRepo *repository.LearningStyleRepository,
	chatRepo *repository.ChatRepository,
	practiceRepo *repository.PracticeRepository,
	downloadRepo *repository.DownloadRepository,
	userService *UserService,
) *AdminService {
	return &AdminService{
		Policy:       policy,
		UserRepo:     userRepo,
		StyleRepo:    styleRepo,
		ChatRepo:     chatRepo,
		PracticeRepo: practiceRepo,
		DownloadRepo: downloadRepo,
		UserService:  userService,
	}
}

// RequireAdmin 校验当前用户存在且在白名单内
func (s *AdminService) RequireAdmin(userID uint) error {
	user, err := s.UserService.GetUserByID(userID)
	if err != nil {
		return err
	}
	if !s.Policy.IsAdmin(user.Email) {
		return util.ErrPermissionDenied
	}
	return nil
}

func (s *AdminService) Summary() (*AdminSummary, error) {
	var m AdminMetrics
	counters := []struct {
		dst   *int64
		count func() (int64, error)
	}{
		{&m.Users, s.UserRepo.Count},
		{&m.LearningStyles, s.StyleRepo.Count},
		{&m.ChatMessages, s.ChatRepo.Count},
		{&m.PracticeSubmissions, s.PracticeRepo.Count},
		{&m.Downloads, s.DownloadRepo.Count},
	}
	for _, c := range counters {
		n, err := c.count()
		if err != nil {
			return nil, err
		}
		*c.dst = n
	}

	users, err := s.UserRepo.Search("", adminLatestLimit)
	if err != nil {
		return nil, err
	}
	chats, err := s.ChatRepo.Latest(adminLatestLimit)
	if err != nil {
		return nil, err
	}

	summary := &AdminSummary{
		Metrics:     m,
		LatestUsers: make([]AdminUser, 0, len(users)),
		LatestChats: make([]AdminChat, 0, len(chats)),
	}
	for _, u := range users {
		summary.LatestUsers = append(summary.LatestUsers, s.adminUser(u))
	}
	for _, c := range chats {
		summary.LatestChats = append(summary.LatestChats, AdminChat{
			ChatID:       c.ID,
			UserID:       c.UserID,
			Question:     c.Question,
			ResponseType: c.ResponseType,
			Timestamp:    c.Timestamp,
		})
	}
	return summary, nil
}

func (s *AdminService) adminUser(u model.User) AdminUser {
	return AdminUser{
		UserID:    u.ID,
		Name:      u.Name,
		Email:     u.Email,
		IsAdmin:   s.Policy.IsAdmin(u.Email),
		CreatedAt: u.CreatedAt,
	}
}

// Users 用户列表，附带学习风格与使用统计
func (s *AdminService) Users(ctx context.Context, q string) ([]AdminUser, error) {
	users, err := s.UserRepo.Search(q, adminUserLimit)
	if err != nil {
		return nil, err
	}

	result := make([]AdminUser, len(users))
	g, _ := errgroup.WithContext(ctx)
	g.SetLimit(8)
	for i, u := range users {
		i, u := i, u
		g.Go(func() error {
			row := s.adminUser(u)
			style, err := s.StyleRepo.FindByUserID(u.ID)
			if err == nil {
				row.LearningStyle = &style.LearningStyle
			} else if !errors.Is(err, gorm.ErrRecordNotFound) {
				return err
			}

			stats := &UserStats{}
			if stats.Chats, err = s.ChatRepo.CountByUser(u.ID); err != nil {
				return err
			}
			if stats.Downloads, err = s.DownloadRepo.CountByUser(u.ID); err != nil {
				return err
			}
			if stats.Practice, err = s.PracticeRepo.CountByUser(u.ID); err != nil {
				return err
			}
			row.Stats = stats
			result[i] = row
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return result, nil
}

func (s *AdminService) DeleteUser(ctx context.Context, adminID, targetID uint) error {
	if adminID == targetID {
		return ErrDeleteSelf
	}
	return s.UserService.DeleteAccount(ctx, targetID)
}

func (s *AdminService) Analytics(now time.Time) (*AdminAnalytics, error) {
	now = now.UTC()
	since := now.AddDate(0, 0, -insightSeriesDays)

	rows, err := s.StyleRepo.Distribution()
	if err != nil {
		return nil, err
	}
	dist := make(map[model.Style]int64, len(rows))
	for _, r := range rows {
		dist[r.LearningStyle] = r.Count
	}

	users, err := s.UserRepo.Since(since)
	if err != nil {
		return nil, err
	}
	chats, err := s.ChatRepo.Since(since)
	if err != nil {
		return nil, err
	}
	feedback, err := s.ChatRepo.FeedbackSince(since)
	if err != nil {
		return nil, err
	}
	summary, err := s.ChatRepo.FeedbackSummary()
	if err != nil {
		return nil, err
	}

	signupDays := make([]time.Time, len(users))
	for i, u := range users {
		signupDays[i] = u.CreatedAt
	}
	chatDays := make([]time.Time, len(chats))
	for i, c := range chats {
		chatDays[i] = c.Timestamp
	}
	feedbackDays := make([]time.Time, len(feedback))
	for i, f := range feedback {
		feedbackDays[i] = f.CreatedAt
	}

	return &AdminAnalytics{
		StyleDistribution: dist,
		DailySignups:      dailySeries(signupDays, now, insightSeriesDays),
		DailyChats:        dailySeries(chatDays, now, insightSeriesDays),
		DailyFeedback:     dailySeries(feedbackDays, now, insightSeriesDays),
		FeedbackSummary:   summary,
	}, nil
}

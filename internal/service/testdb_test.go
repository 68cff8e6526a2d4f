package service

import (
	"adaptive_learning_backend/internal/config"
	"adaptive_learning_backend/internal/model"
	"adaptive_learning_backend/internal/repository"
	"adaptive_learning_backend/internal/util"
	"adaptive_learning_backend/pkg/database"
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", name)
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{Logger: gormlogger.Default.LogMode(gormlogger.Silent)})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("sql db: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })
	if err := database.Migrate(db); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

// memoryTokens 内存版重置令牌存储
type memoryTokens struct {
	mu     sync.Mutex
	tokens map[string]uint
}

func newMemoryTokens() *memoryTokens {
	return &memoryTokens{tokens: map[string]uint{}}
}

func (m *memoryTokens) Save(_ context.Context, token string, userID uint, _ time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tokens[token] = userID
	return nil
}

func (m *memoryTokens) Consume(_ context.Context, token string) (uint, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	id, ok := m.tokens[token]
	delete(m.tokens, token)
	return id, ok, nil
}

// testEnv 基于 sqlite 与替身 AI 组装的服务集合
type testEnv struct {
	db       *gorm.DB
	provider *stubProvider
	storage  *StorageService
	users    *repository.UserRepository
	styles   *StyleService
	chat     *ChatService
	practice *PracticeService
	download *DownloadService
	user     *UserService
	auth     *AuthService
	admin    *AdminService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	db := newTestDB(t)
	p := &stubProvider{}
	cfg := &config.Config{
		JWT:     config.JWTConfig{Secret: "test-secret", ExpireTime: time.Hour},
		Storage: config.StorageConfig{Type: "local", LocalPath: t.TempDir()},
		Admin:   config.AdminConfig{Emails: []string{"admin@example.com"}},
	}

	normalizer := NewAssetNormalizer()
	synth := NewFallbackSynthesizer()
	tasks := NewPracticeTaskService(p, normalizer, synth)
	content := NewAdaptiveContentService(p, p, p, normalizer, synth, NewChartRenderer(), tasks)

	userRepo := repository.NewUserRepository(db)
	styleRepo := repository.NewLearningStyleRepository(db)
	chatRepo := repository.NewChatRepository(db)
	practiceRepo := repository.NewPracticeRepository(db)
	downloadRepo := repository.NewDownloadRepository(db)

	env := &testEnv{db: db, provider: p, users: userRepo}
	env.storage = NewStorageService(cfg)
	env.styles = NewStyleService(styleRepo, p, normalizer, synth)
	env.chat = NewChatService(chatRepo, env.styles, content)
	runner := NewCodeRunnerService(config.Judge0Config{}, config.RunnerConfig{})
	runner.lookPath = noToolchain
	env.practice = NewPracticeService(env.styles, chatRepo, practiceRepo, tasks, runner)
	env.download = NewDownloadService(downloadRepo, env.styles, content, env.storage)
	env.download.probe = func(string) (*util.MediaInfo, error) { return &util.MediaInfo{Duration: 1.2}, nil }
	env.user = NewUserService(userRepo, env.storage)
	env.auth = NewAuthService(userRepo, newMemoryTokens(), cfg)
	env.admin = NewAdminService(NewAdminPolicy(cfg.Admin), userRepo, styleRepo, chatRepo, practiceRepo, downloadRepo, env.user)
	return env
}

func (e *testEnv) seedUser(t *testing.T, email string, style model.Style) *model.User {
	t.Helper()
	u := &model.User{Name: strings.Split(email, "@")[0], Email: email, PasswordHash: "x"}
	if err := e.users.Create(u); err != nil {
		t.Fatalf("create user: %v", err)
	}
	if style != "" {
		if _, err := e.styles.Select(u.ID, string(style)); err != nil {
			t.Fatalf("select style: %v", err)
		}
	}
	return u
}

package app

import (
	"adaptive_learning_backend/internal/config"
	"adaptive_learning_backend/internal/controller"
	"adaptive_learning_backend/internal/repository"
	"adaptive_learning_backend/internal/service"
	"adaptive_learning_backend/pkg/configwatcher"
	"adaptive_learning_backend/pkg/database"
	"adaptive_learning_backend/pkg/logger"
	"adaptive_learning_backend/pkg/monitoring"
	"adaptive_learning_backend/pkg/security"
	"adaptive_learning_backend/pkg/tracing"
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"gorm.io/gorm"
)

type App struct {
	Config          *config.Config
	ConfigDir       string
	Router          *gin.Engine
	DB              *gorm.DB
	Redis           *redis.Client
	tracer          *sdktrace.TracerProvider
	services        *services
	mu              sync.Mutex
	configCallbacks []func(*config.Config)
}

type repositories struct {
	user          *repository.UserRepository
	learningStyle *repository.LearningStyleRepository
	chat          *repository.ChatRepository
	practice      *repository.PracticeRepository
	download      *repository.DownloadRepository
	resetToken    *repository.ResetTokenRepository
}

type services struct {
	gateway      *service.ProviderGateway
	runner       *service.CodeRunnerService
	adminPolicy  *service.AdminPolicy
	storage      *service.StorageService
	auth         *service.AuthService
	user         *service.UserService
	style        *service.StyleService
	content      *service.AdaptiveContentService
	practiceTask *service.PracticeTaskService
	chat         *service.ChatService
	practice     *service.PracticeService
	download     *service.DownloadService
	dashboard    *service.DashboardService
	admin        *service.AdminService
}

type controllers struct {
	auth      *controller.AuthController
	style     *controller.StyleController
	chat      *controller.ChatController
	practice  *controller.PracticeController
	download  *controller.DownloadController
	dashboard *controller.DashboardController
	admin     *controller.AdminController
	health    *controller.HealthController
}

func (a *App) RegisterConfigCallback(callback func(*config.Config)) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.configCallbacks = append(a.configCallbacks, callback)
}

// applyConfig 热更新时依次通知已注册的组件
func (a *App) applyConfig(cfg *config.Config) {
	a.mu.Lock()
	callbacks := append(([]func(*config.Config))(nil), a.configCallbacks...)
	a.mu.Unlock()

	for _, cb := range callbacks {
		cb(cfg)
	}
	logger.Log.Info("Configuration reloaded")
}

func (a *App) initRepositories(db *gorm.DB, rdb *redis.Client) *repositories {
	return &repositories{
		user:          repository.NewUserRepository(db),
		learningStyle: repository.NewLearningStyleRepository(db),
		chat:          repository.NewChatRepository(db),
		practice:      repository.NewPracticeRepository(db),
		download:      repository.NewDownloadRepository(db),
		resetToken:    repository.NewResetTokenRepository(rdb),
	}
}

// speechProvider 按配置选择 OpenAI 或 Polly 语音合成
func speechProvider(cfg *config.Config, gateway *service.ProviderGateway) service.SpeechProvider {
	if strings.EqualFold(cfg.Speech.Provider, "polly") {
		logger.Log.Info("Using Amazon Polly for speech synthesis", zap.String("region", cfg.Speech.PollyRegion))
		return service.NewPollySpeechProvider(cfg.Speech, cfg.AI.Timeout())
	}
	return gateway
}

func (a *App) initServices(repos *repositories, cfg *config.Config) *services {
	s := &services{}

	s.gateway = service.NewProviderGateway(cfg.AI)
	s.runner = service.NewCodeRunnerService(cfg.Judge0, cfg.Runner)
	s.adminPolicy = service.NewAdminPolicy(cfg.Admin)
	s.storage = service.NewStorageService(cfg)

	normalizer := service.NewAssetNormalizer()
	synth := service.NewFallbackSynthesizer()
	s.practiceTask = service.NewPracticeTaskService(s.gateway, normalizer, synth)
	s.content = service.NewAdaptiveContentService(
		s.gateway,
		speechProvider(cfg, s.gateway),
		s.gateway,
		normalizer,
		synth,
		service.NewChartRenderer(),
		s.practiceTask,
	)

	s.auth = service.NewAuthService(repos.user, repos.resetToken, cfg)
	s.user = service.NewUserService(repos.user, s.storage)
	s.style = service.NewStyleService(repos.learningStyle, s.gateway, normalizer, synth)
	s.chat = service.NewChatService(repos.chat, s.style, s.content)
	s.practice = service.NewPracticeService(s.style, repos.chat, repos.practice, s.practiceTask, s.runner)
	s.download = service.NewDownloadService(repos.download, s.style, s.content, s.storage)
	s.dashboard = service.NewDashboardService(repos.chat, repos.practice, repos.download)
	s.admin = service.NewAdminService(s.adminPolicy, repos.user, repos.learningStyle, repos.chat, repos.practice, repos.download, s.user)

	a.RegisterConfigCallback(func(cfg *config.Config) {
		s.gateway.UpdateConfig(cfg.AI)
		s.runner.UpdateConfig(cfg.Judge0, cfg.Runner)
		s.adminPolicy.UpdateConfig(cfg.Admin)
	})

	return s
}

func (a *App) initControllers(s *services, db *gorm.DB, rdb *redis.Client) *controllers {
	return &controllers{
		auth:      controller.NewAuthController(s.auth, s.user, a.Config.Server.Mode == gin.ReleaseMode),
		style:     controller.NewStyleController(s.style),
		chat:      controller.NewChatController(s.chat),
		practice:  controller.NewPracticeController(s.practice),
		download:  controller.NewDownloadController(s.download),
		dashboard: controller.NewDashboardController(s.dashboard),
		admin:     controller.NewAdminController(s.admin),
		health:    controller.NewHealthController(db, rdb),
	}
}

func (a *App) setupMiddlewares(router *gin.Engine, cfg *config.Config) {
	router.Use(security.CORS(cfg.CORS.AllowedOrigins))
	router.Use(security.Secure())
	router.Use(security.RateLimiter(cfg.RateLimit.MaxRequests, time.Duration(cfg.RateLimit.WindowMinutes)*time.Minute))

	// 分布式追踪中间件
	if cfg.Tracing.Enabled {
		router.Use(tracing.GinMiddleware())
	}

	router.Use(monitoring.MetricsMiddleware())
}

func NewApp(cfg *config.Config, configDir string) *App {
	logger.InitLogger(cfg)

	logger.Log.Info("Logger initialized successfully")

	db, err := database.InitDB(&cfg.Database, cfg.Server.Mode == gin.DebugMode)
	if err != nil {
		logger.Log.Fatal("Failed to initialize database", zap.Error(err))
		log.Fatalf("Failed to initialize database: %v", err)
	}
	if err := database.Migrate(db); err != nil {
		logger.Log.Fatal("Failed to migrate database", zap.Error(err))
	}

	rdb, err := database.InitRedis(&cfg.Redis)
	if err != nil {
		logger.Log.Fatal("Failed to initialize redis", zap.Error(err))
		log.Fatalf("Failed to initialize redis: %v", err)
	}

	app := &App{
		Config:    cfg,
		ConfigDir: configDir,
		DB:        db,
		Redis:     rdb,
	}

	repos := app.initRepositories(db, rdb)
	services := app.initServices(repos, cfg)
	app.services = services
	controllers := app.initControllers(services, db, rdb)

	// 监控初始化
	monitoring.Init()

	gin.SetMode(cfg.Server.Mode)
	router := gin.Default()
	app.Router = router

	app.setupMiddlewares(router, cfg)

	if cfg.Tracing.Enabled {
		tp, err := tracing.InitTracer("adaptive-learning-backend", cfg.Tracing.CollectorEndpoint)
		if err != nil {
			logger.Log.Fatal("Failed to initialize tracing", zap.Error(err))
		}
		app.tracer = tp
	}

	app.registerRoutes(router, controllers, services)

	return app
}

func (a *App) Run() {
	srv := &http.Server{
		Addr:    ":" + a.Config.Server.Port,
		Handler: a.Router,
	}

	watchCtx, stopWatch := context.WithCancel(context.Background())
	defer stopWatch()
	go func() {
		configFile := filepath.Join(a.ConfigDir, "config.yaml")
		if err := configwatcher.WatchConfig(watchCtx, configFile, a.applyConfig); err != nil {
			logger.Log.Warn("Config hot reload disabled", zap.Error(err))
		}
	}()

	// 启动服务器
	go func() {
		logger.Log.Info("Server running", zap.String("port", a.Config.Server.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("listen: %s\n", err)
		}
	}()

	// 等待中断信号优雅地关闭服务器（设置5秒的超时时间）
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Log.Info("Shutting down server...")
	stopWatch()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Log.Error("Server forced to shutdown", zap.Error(err))
	}

	if a.tracer != nil {
		if err := a.tracer.Shutdown(ctx); err != nil {
			logger.Log.Error("Failed to shutdown tracer provider", zap.Error(err))
		}
	}
	if a.Redis != nil {
		a.Redis.Close()
	}

	logger.Log.Info("Server exiting")
}

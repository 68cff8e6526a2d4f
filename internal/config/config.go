package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Server    ServerConfig
	Database  DatabaseConfig
	JWT       JWTConfig
	Storage   StorageConfig
	Tracing   TracingConfig `mapstructure:"tracing"`
	Judge0    Judge0Config
	Redis     RedisConfig
	AI        AIConfig
	Speech    SpeechConfig    `mapstructure:"speech"`
	Runner    RunnerConfig    `mapstructure:"runner"`
	Admin     AdminConfig     `mapstructure:"admin"`
	CORS      CORSConfig      `mapstructure:"cors"`
	RateLimit RateLimitConfig `mapstructure:"rate_limit"`
	Log       LogConfig       `mapstructure:"log"`
}

// LogConfig Level 为空时 debug 模式输出 debug，其余输出 info
type LogConfig struct {
	File       string `mapstructure:"file"`
	Level      string `mapstructure:"level"`
	MaxSizeMB  int    `mapstructure:"max_size_mb"`
	MaxBackups int    `mapstructure:"max_backups"`
}

type CORSConfig struct {
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

type RateLimitConfig struct {
	MaxRequests   int `mapstructure:"max_requests"`
	WindowMinutes int `mapstructure:"window_minutes"`

	// GenerationPerMinute 每个用户每分钟可调用 AI 生成接口的次数，0 表示不限制
	GenerationPerMinute int `mapstructure:"generation_per_minute"`
}

// AIConfig 兼容 OpenAI 接口的文本、语音、图像服务
type AIConfig struct {
	BaseURL        string  `mapstructure:"base_url"`
	APIKey         string  `mapstructure:"api_key"`
	Model          string  `mapstructure:"model"`
	Temperature    float64 `mapstructure:"temperature"`
	TimeoutSeconds int     `mapstructure:"timeout_seconds"`
	TTSModel       string  `mapstructure:"tts_model"`
	TTSVoice       string  `mapstructure:"tts_voice"`
	ImageModel     string  `mapstructure:"image_model"`
	ImageSize      string  `mapstructure:"image_size"`
}

func (c AIConfig) Timeout() time.Duration {
	if c.TimeoutSeconds <= 0 {
		return 10 * time.Second
	}
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// SpeechConfig 选择语音合成通道：openai 或 polly
type SpeechConfig struct {
	Provider    string `mapstructure:"provider"`
	PollyRegion string `mapstructure:"polly_region"`
	PollyVoice  string `mapstructure:"polly_voice"`
	PollyEngine string `mapstructure:"polly_engine"`
}

type RunnerConfig struct {
	LocalTimeoutSeconds int `mapstructure:"local_timeout_seconds"`
}

func (c RunnerConfig) LocalTimeout() time.Duration {
	if c.LocalTimeoutSeconds <= 0 {
		return 12 * time.Second
	}
	return time.Duration(c.LocalTimeoutSeconds) * time.Second
}

type AdminConfig struct {
	Emails []string `mapstructure:"emails"`
}

// IsAdminEmail 大小写不敏感地匹配管理员白名单
func (c AdminConfig) IsAdminEmail(email string) bool {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return false
	}
	for _, e := range c.Emails {
		if strings.ToLower(strings.TrimSpace(e)) == email {
			return true
		}
	}
	return false
}

type ServerConfig struct {
	Port string
	Mode string
}

type DatabaseConfig struct {
	Host      string
	Port      int
	User      string
	Password  string
	DBName    string
	Charset   string
	ParseTime bool
}

type JWTConfig struct {
	Secret     string        `mapstructure:"secret"`
	ExpireTime time.Duration `mapstructure:"expire_hours"`
}

type StorageConfig struct {
	Type          string `mapstructure:"type"`
	LocalPath     string `mapstructure:"local_path"`
	MinioEndpoint string `mapstructure:"minio_endpoint"`
	MinioAccessID string `mapstructure:"minio_access_key"`
	MinioSecret   string `mapstructure:"minio_secret_key"`
	MinioBucket   string `mapstructure:"minio_bucket"`
	OSSEndpoint   string `mapstructure:"oss_endpoint"`
	OSSAccessKey  string `mapstructure:"oss_access_key"`
	OSSSecretKey  string `mapstructure:"oss_secret_key"`
	OSSBucket     string `mapstructure:"oss_bucket"`
}

type TracingConfig struct {
	Enabled           bool   `mapstructure:"enabled"`
	CollectorEndpoint string `mapstructure:"collector_endpoint"`
}

type Judge0Config struct {
	APIKey         string `mapstructure:"api_key"`
	URL            string
	Host           string
	LanguageID     int `mapstructure:"language_id"`
	TimeoutSeconds int `mapstructure:"timeout_seconds"`
}

func (c Judge0Config) Timeout() time.Duration {
	if c.TimeoutSeconds <= 0 {
		return 15 * time.Second
	}
	return time.Duration(c.TimeoutSeconds) * time.Second
}

type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

func LoadConfig(path string) (*Config, error) {
	v := viper.New()
	v.AddConfigPath(path)
	v.SetConfigName("config")
	v.SetConfigType("yaml")

	v.SetEnvPrefix("ADAPTIVE_LEARN")
	v.AutomaticEnv()

	v.SetDefault("server.port", "8080")
	v.SetDefault("server.mode", "debug")
	v.SetDefault("storage.type", "local")
	v.SetDefault("storage.local_path", "downloads")
	v.SetDefault("ai.base_url", "https://api.openai.com/v1")
	v.SetDefault("ai.model", "gpt-4o-mini")
	v.SetDefault("ai.temperature", 0.4)
	v.SetDefault("ai.timeout_seconds", 10)
	v.SetDefault("ai.tts_model", "gpt-4o-mini-tts")
	v.SetDefault("ai.tts_voice", "alloy")
	v.SetDefault("ai.image_model", "gpt-image-1")
	v.SetDefault("ai.image_size", "1024x1024")
	v.SetDefault("speech.provider", "openai")
	v.SetDefault("judge0.language_id", 62)
	v.SetDefault("judge0.timeout_seconds", 15)
	v.SetDefault("runner.local_timeout_seconds", 12)
	v.SetDefault("rate_limit.max_requests", 600)
	v.SetDefault("rate_limit.window_minutes", 1)
	v.SetDefault("rate_limit.generation_per_minute", 20)
	v.SetDefault("log.file", "logs/app.log")
	v.SetDefault("log.max_size_mb", 100)
	v.SetDefault("log.max_backups", 5)
	v.BindEnv("log.level", "LOG_LEVEL")

	// Database
	v.BindEnv("database.host", "DATABASE_HOST")
	v.BindEnv("database.port", "DATABASE_PORT")
	v.BindEnv("database.user", "DATABASE_USER")
	v.BindEnv("database.password", "DATABASE_PASSWORD")
	v.BindEnv("database.dbname", "DATABASE_NAME")

	// JWT
	v.BindEnv("jwt.secret", "JWT_SECRET")

	// Redis
	v.BindEnv("redis.host", "REDIS_HOST")
	v.BindEnv("redis.port", "REDIS_PORT")
	v.BindEnv("redis.password", "REDIS_PASSWORD")

	// Server
	v.BindEnv("server.mode", "SERVER_MODE")

	// AI
	v.BindEnv("ai.base_url", "OPENAI_BASE_URL")
	v.BindEnv("ai.api_key", "OPENAI_API_KEY")
	v.BindEnv("ai.model", "OPENAI_MODEL")
	v.BindEnv("ai.tts_model", "OPENAI_TTS_MODEL")
	v.BindEnv("ai.tts_voice", "OPENAI_TTS_VOICE")

	// Speech
	v.BindEnv("speech.provider", "SPEECH_PROVIDER")
	v.BindEnv("speech.polly_region", "AWS_REGION")

	// Storage
	v.BindEnv("storage.type", "STORAGE_TYPE")
	v.BindEnv("storage.oss_endpoint", "OSS_ENDPOINT")
	v.BindEnv("storage.oss_access_key", "OSS_ACCESS_KEY")
	v.BindEnv("storage.oss_secret_key", "OSS_SECRET_KEY")
	v.BindEnv("storage.oss_bucket", "OSS_BUCKET")
	v.BindEnv("storage.minio_endpoint", "MINIO_ENDPOINT")
	v.BindEnv("storage.minio_access_key", "MINIO_ACCESS_KEY")
	v.BindEnv("storage.minio_secret_key", "MINIO_SECRET_KEY")
	v.BindEnv("storage.minio_bucket", "MINIO_BUCKET")

	// Tracing
	v.BindEnv("tracing.enabled", "TRACING_ENABLED")
	v.BindEnv("tracing.collector_endpoint", "TRACING_COLLECTOR_ENDPOINT")

	// Judge0
	v.BindEnv("judge0.api_key", "JUDGE0_API_KEY")
	v.BindEnv("judge0.url", "JUDGE0_BASE_URL")
	v.BindEnv("judge0.host", "JUDGE0_API_HOST")

	if err := v.ReadInConfig(); err != nil {
		return nil, err
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	// ADMIN_EMAILS 以逗号分隔
	if raw := strings.TrimSpace(os.Getenv("ADMIN_EMAILS")); raw != "" {
		cfg.Admin.Emails = strings.Split(raw, ",")
	}

	cfg.JWT.ExpireTime = cfg.JWT.ExpireTime * time.Hour
	cfg.Judge0.URL = strings.TrimRight(strings.TrimSpace(cfg.Judge0.URL), "/")
	cfg.AI.BaseURL = strings.TrimRight(strings.TrimSpace(cfg.AI.BaseURL), "/")

	// 生产环境校验 JWT Secret 强度
	if cfg.Server.Mode == "release" && len(cfg.JWT.Secret) < 32 {
		return nil, fmt.Errorf("JWT secret is too short (%d chars), must be at least 32 characters in release mode", len(cfg.JWT.Secret))
	}

	if cfg.Storage.Type == "local" {
		if _, err := os.Stat(cfg.Storage.LocalPath); os.IsNotExist(err) {
			os.MkdirAll(cfg.Storage.LocalPath, 0755)
		}
	}

	return &cfg, nil
}

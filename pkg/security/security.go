package security

import (
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

// CORS 中间件 仅允许白名单中的Origin，支持Credentials
func CORS(allowedOrigins []string) gin.HandlerFunc {
	originSet := make(map[string]bool, len(allowedOrigins))
	allowAll := false
	for _, o := range allowedOrigins {
		if o == "*" {
			allowAll = true
		}
		originSet[o] = true
	}

	return func(c *gin.Context) {
		origin := c.Request.Header.Get("Origin")

		if origin != "" && (allowAll || originSet[origin]) {
			c.Writer.Header().Set("Access-Control-Allow-Origin", origin)
			c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
		}

		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, Authorization, accept, origin, Cache-Control, X-Requested-With")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS, GET, PUT, DELETE")
		// 前端下载文件时需要读取文件名，重试时需要读取等待时间
		c.Writer.Header().Set("Access-Control-Expose-Headers", "Content-Disposition, Retry-After")

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}

// Secure 中间件
func Secure() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("X-Content-Type-Options", "nosniff")
		c.Header("X-Frame-Options", "DENY")
		if c.Request.TLS != nil {
			c.Header("Strict-Transport-Security", "max-age=31536000; includeSubDomains")
		}
		c.Next()
	}
}

type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// limiterStore 按 key 保存令牌桶，定期清理长时间不活跃的条目
type limiterStore struct {
	mu      sync.Mutex
	entries map[string]*visitor
	limit   rate.Limit
	burst   int
}

func newLimiterStore(limit rate.Limit, burst int, expiry time.Duration) *limiterStore {
	s := &limiterStore{entries: make(map[string]*visitor), limit: limit, burst: burst}
	if expiry < time.Minute {
		expiry = time.Minute
	}
	go func() {
		ticker := time.NewTicker(time.Minute)
		defer ticker.Stop()
		for range ticker.C {
			s.mu.Lock()
			for key, v := range s.entries {
				if time.Since(v.lastSeen) > expiry {
					delete(s.entries, key)
				}
			}
			s.mu.Unlock()
		}
	}()
	return s
}

// reserve 返回是否放行以及需要等待的时间
func (s *limiterStore) reserve(key string) (bool, time.Duration) {
	s.mu.Lock()
	v, ok := s.entries[key]
	if !ok {
		v = &visitor{limiter: rate.NewLimiter(s.limit, s.burst)}
		s.entries[key] = v
	}
	v.lastSeen = time.Now()
	s.mu.Unlock()

	r := v.limiter.Reserve()
	if !r.OK() {
		return false, time.Second
	}
	if d := r.Delay(); d > 0 {
		r.Cancel()
		return false, d
	}
	return true, 0
}

func (s *limiterStore) middleware(key func(*gin.Context) string, message string) gin.HandlerFunc {
	return func(c *gin.Context) {
		ok, wait := s.reserve(key(c))
		if !ok {
			secs := int(wait.Seconds() + 0.999)
			if secs < 1 {
				secs = 1
			}
			c.Header("Retry-After", strconv.Itoa(secs))
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"code": http.StatusTooManyRequests, "message": message})
			return
		}
		c.Next()
	}
}

// RateLimiter 按IP限流
func RateLimiter(maxRequests int, window time.Duration) gin.HandlerFunc {
	if maxRequests <= 0 {
		maxRequests = 1
	}
	if window <= 0 {
		window = time.Minute
	}
	store := newLimiterStore(rate.Every(window/time.Duration(maxRequests)), maxRequests, window*3)
	return store.middleware(func(c *gin.Context) string { return c.ClientIP() }, "too many requests")
}

// GenerationLimiter 按用户限制 AI 生成类接口，key 为空时退回按IP
func GenerationLimiter(perMinute int, key func(*gin.Context) string) gin.HandlerFunc {
	if perMinute <= 0 {
		return func(c *gin.Context) { c.Next() }
	}
	burst := perMinute / 3
	if burst < 1 {
		burst = 1
	}
	store := newLimiterStore(rate.Every(time.Minute/time.Duration(perMinute)), burst, 10*time.Minute)
	return store.middleware(func(c *gin.Context) string {
		if k := key(c); k != "" {
			return "user:" + k
		}
		return "ip:" + c.ClientIP()
	}, "generation rate limit exceeded, try again shortly")
}

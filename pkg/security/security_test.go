package security

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
)

func serve(r *gin.Engine, method, origin, user string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, "/x", nil)
	if origin != "" {
		req.Header.Set("Origin", origin)
	}
	if user != "" {
		req.Header.Set("X-User", user)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestCORS(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(CORS([]string{"https://app.example.com"}))
	r.Any("/x", func(c *gin.Context) { c.Status(http.StatusOK) })

	w := serve(r, http.MethodGet, "https://app.example.com", "")
	if w.Header().Get("Access-Control-Allow-Origin") != "https://app.example.com" {
		t.Fatalf("allowed origin not echoed: %v", w.Header())
	}
	if w.Header().Get("Access-Control-Expose-Headers") == "" {
		t.Fatal("expose headers missing")
	}
	if w := serve(r, http.MethodGet, "https://evil.example.com", ""); w.Header().Get("Access-Control-Allow-Origin") != "" {
		t.Fatal("unknown origin allowed")
	}
	if w := serve(r, http.MethodOptions, "https://app.example.com", ""); w.Code != http.StatusNoContent {
		t.Fatalf("preflight = %d", w.Code)
	}
}

func TestGenerationLimiterPerUser(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(GenerationLimiter(3, func(c *gin.Context) string { return c.GetHeader("X-User") }))
	r.GET("/x", func(c *gin.Context) { c.Status(http.StatusOK) })

	if w := serve(r, http.MethodGet, "", "alice"); w.Code != http.StatusOK {
		t.Fatalf("first call = %d", w.Code)
	}
	w := serve(r, http.MethodGet, "", "alice")
	if w.Code != http.StatusTooManyRequests {
		t.Fatalf("burst exceeded = %d", w.Code)
	}
	if w.Header().Get("Retry-After") == "" {
		t.Fatal("missing Retry-After")
	}
	if w := serve(r, http.MethodGet, "", "bob"); w.Code != http.StatusOK {
		t.Fatalf("other user throttled = %d", w.Code)
	}
}

func TestGenerationLimiterDisabled(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(GenerationLimiter(0, func(*gin.Context) string { return "u" }))
	r.GET("/x", func(c *gin.Context) { c.Status(http.StatusOK) })
	for i := 0; i < 20; i++ {
		if w := serve(r, http.MethodGet, "", ""); w.Code != http.StatusOK {
			t.Fatalf("call %d = %d", i, w.Code)
		}
	}
}

package app

import (
	"adaptive_learning_backend/docs"
	"adaptive_learning_backend/internal/middleware"
	"adaptive_learning_backend/internal/util"
	"adaptive_learning_backend/pkg/monitoring"
	"adaptive_learning_backend/pkg/security"
	"strconv"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

func (a *App) registerRoutes(router *gin.Engine, c *controllers, s *services) {
	docs.SwaggerInfo.BasePath = "/"
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler, ginSwagger.URL("/swagger/doc.json")))

	router.GET("/metrics", monitoring.PrometheusHandler())

	// 1. 公共路由(无需登录)
	a.registerPublicRoutes(router, c)

	// 2. 需要授权的路由
	authGroup := router.Group("/api")
	authGroup.Use(middleware.AuthMiddleware(a.Config))
	{
		a.registerStudentRoutes(authGroup, c)

		// 3. 管理员相关接口
		admin := authGroup.Group("/admin")
		admin.Use(middleware.AdminMiddleware(s.admin))
		a.registerAdminRoutes(admin, c)
	}
}

func (a *App) registerPublicRoutes(router *gin.Engine, c *controllers) {
	public := router.Group("/api")
	{
		public.GET("/health", c.health.HealthCheck)

		auth := public.Group("/auth")
		auth.POST("/register", c.auth.Register)
		auth.POST("/login", c.auth.Login)
		auth.POST("/forgot-password", c.auth.ForgotPassword)
		auth.POST("/reset-password", c.auth.ResetPassword)
	}
}

// generationKey AI 生成接口按登录用户限流
func generationKey(c *gin.Context) string {
	if claims := util.GetUserFromContext(c); claims != nil {
		return strconv.FormatUint(uint64(claims.UserID), 10)
	}
	return ""
}

func (a *App) registerStudentRoutes(rg *gin.RouterGroup, c *controllers) {
	generate := security.GenerationLimiter(a.Config.RateLimit.GenerationPerMinute, generationKey)

	// 账号
	rg.GET("/auth/me", c.auth.Me)
	rg.PUT("/auth/me", c.auth.UpdateMe)
	rg.DELETE("/auth/me", c.auth.DeleteMe)
	rg.POST("/auth/logout", c.auth.Logout)

	// 学习风格
	rg.GET("/style/questions", c.style.Questions)
	rg.POST("/style/generate-questions", generate, c.style.GenerateQuestions)
	rg.POST("/style/select", c.style.Select)
	rg.POST("/style/submit-test", c.style.SubmitTest)
	rg.GET("/style/mine", c.style.Mine)
	rg.DELETE("/style/mine", c.style.Clear)

	// 自适应问答
	rg.POST("/chat", generate, c.chat.Ask)
	rg.GET("/chat/history", c.chat.History)
	rg.POST("/chat/:id/feedback", c.chat.Feedback)

	// 动手练习
	rg.GET("/practice/tasks", generate, c.practice.Tasks)
	rg.POST("/practice/run", generate, c.practice.Run)
	rg.POST("/practice/submit", c.practice.Submit)
	rg.GET("/practice/mine", c.practice.Mine)

	// 下载
	rg.POST("/downloads", generate, c.download.Create)
	rg.GET("/downloads/mine", c.download.Mine)
	rg.GET("/downloads/file/:id", c.download.File)
	rg.DELETE("/downloads/:id", c.download.Delete)

	// 看板
	rg.GET("/dashboard/insights", c.dashboard.Insights)
}

func (a *App) registerAdminRoutes(rg *gin.RouterGroup, c *controllers) {
	rg.GET("/summary", c.admin.Summary)
	rg.GET("/users", c.admin.Users)
	rg.DELETE("/users/:id", c.admin.DeleteUser)
	rg.GET("/analytics", c.admin.Analytics)
}

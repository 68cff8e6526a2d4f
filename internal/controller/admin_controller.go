package controller

import (
	"adaptive_learning_backend/internal/service"
	"adaptive_learning_backend/internal/util"
	"time"

	"github.com/gin-gonic/gin"
)

// AdminController 管理后台，路由需经过 AdminMiddleware
type AdminController struct {
	AdminService *service.AdminService
}

func NewAdminController(adminService *service.AdminService) *AdminController {
	return &AdminController{AdminService: adminService}
}

// Summary godoc
// @Summary 平台概览
// @Tags 管理员
// @Produce json
// @Security BearerAuth
// @Success 200 {object} util.Response{data=service.AdminSummary}
// @Failure 403 {object} util.Response "需要管理员权限"
// @Router /api/admin/summary [get]
func (c *AdminController) Summary(ctx *gin.Context) {
	summary, err := c.AdminService.Summary()
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	util.Success(ctx, summary)
}

// Users godoc
// @Summary 用户列表
// @Tags 管理员
// @Produce json
// @Security BearerAuth
// @Param q query string false "按姓名或邮箱搜索"
// @Success 200 {object} util.Response{data=util.ListResponse{list=[]service.AdminUser}}
// @Router /api/admin/users [get]
func (c *AdminController) Users(ctx *gin.Context) {
	users, err := c.AdminService.Users(ctx.Request.Context(), ctx.Query("q"))
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	util.Success(ctx, util.ListResponse{List: users, Total: len(users)})
}

// DeleteUser godoc
// @Summary 删除用户
// @Description 删除用户及全部关联数据，不能删除自己
// @Tags 管理员
// @Security BearerAuth
// @Param id path int true "用户ID"
// @Success 200 {object} util.Response
// @Failure 400 {object} util.Response "不能删除自己"
// @Failure 404 {object} util.Response "用户不存在"
// @Router /api/admin/users/{id} [delete]
func (c *AdminController) DeleteUser(ctx *gin.Context) {
	adminID, ok := currentUserID(ctx)
	if !ok {
		return
	}
	targetID, ok := pathID(ctx, "id")
	if !ok {
		return
	}
	if err := c.AdminService.DeleteUser(ctx.Request.Context(), adminID, targetID); err != nil {
		respondError(ctx, err)
		return
	}
	util.Success(ctx, gin.H{"message": "user deleted", "user_id": targetID})
}

// Analytics godoc
// @Summary 平台分析
// @Description 学习风格分布、近 7 天注册/问答/评价趋势与评价汇总
// @Tags 管理员
// @Produce json
// @Security BearerAuth
// @Success 200 {object} util.Response{data=service.AdminAnalytics}
// @Router /api/admin/analytics [get]
func (c *AdminController) Analytics(ctx *gin.Context) {
	analytics, err := c.AdminService.Analytics(time.Now())
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	util.Success(ctx, analytics)
}

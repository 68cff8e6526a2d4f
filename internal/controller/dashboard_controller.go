package controller

import (
	"adaptive_learning_backend/internal/service"
	"adaptive_learning_backend/internal/util"

	"github.com/gin-gonic/gin"
)

type DashboardController struct {
	DashboardService *service.DashboardService
}

func NewDashboardController(dashboardService *service.DashboardService) *DashboardController {
	return &DashboardController{DashboardService: dashboardService}
}

// @Summary 学习看板
// @Description 掌握度、连续学习天数、推荐主题及近 7 天的问答、练习、下载趋势
// @Tags 仪表盘
// @Accept json
// @Produce json
// @Security BearerAuth
// @Success 200 {object} util.Response{data=service.Insights}
// @Router /api/dashboard/insights [get]
func (c *DashboardController) Insights(ctx *gin.Context) {
	user := util.GetUserFromContext(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return
	}

	insights, err := c.DashboardService.Insights(user.UserID)
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}

	util.Success(ctx, insights)
}

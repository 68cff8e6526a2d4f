package controller

import (
	"adaptive_learning_backend/internal/service"
	"adaptive_learning_backend/internal/util"

	"github.com/gin-gonic/gin"
)

type PracticeController struct {
	PracticeService *service.PracticeService
}

func NewPracticeController(practiceService *service.PracticeService) *PracticeController {
	return &PracticeController{PracticeService: practiceService}
}

type RunCodeRequest struct {
	SourceCode string `json:"source_code"`
}

type SubmitActivityRequest struct {
	TaskName      string `json:"task_name"`
	Status        string `json:"status"`
	CodeSubmitted string `json:"code_submitted"`
	TimeSpent     int    `json:"time_spent"`
}

// Tasks godoc
// @Summary 练习任务
// @Description 以最近一次提问为主题生成练习，仅 kinesthetic 学习者可用
// @Tags 练习
// @Produce json
// @Security BearerAuth
// @Success 200 {object} util.Response{data=service.PracticeTaskResult}
// @Failure 403 {object} util.Response "非 kinesthetic 学习者"
// @Router /api/practice/tasks [get]
func (c *PracticeController) Tasks(ctx *gin.Context) {
	userID, ok := currentUserID(ctx)
	if !ok {
		return
	}
	result, err := c.PracticeService.TasksForUser(ctx.Request.Context(), userID)
	if err != nil {
		respondError(ctx, err)
		return
	}
	util.Success(ctx, result)
}

// Run godoc
// @Summary 运行 Java 代码
// @Description 依次尝试远程评测、本地编译运行、静态模拟，runner 字段标识实际执行方式
// @Tags 练习
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body RunCodeRequest true "源代码"
// @Success 200 {object} util.Response{data=model.ExecutionResult}
// @Router /api/practice/run [post]
func (c *PracticeController) Run(ctx *gin.Context) {
	userID, ok := currentUserID(ctx)
	if !ok {
		return
	}
	var req RunCodeRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}
	result, err := c.PracticeService.Run(ctx.Request.Context(), userID, req.SourceCode)
	if err != nil {
		respondError(ctx, err)
		return
	}
	util.Success(ctx, result)
}

// Submit godoc
// @Summary 提交练习记录
// @Tags 练习
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body SubmitActivityRequest true "练习记录"
// @Success 201 {object} util.Response{data=model.PracticeActivity}
// @Router /api/practice/submit [post]
func (c *PracticeController) Submit(ctx *gin.Context) {
	userID, ok := currentUserID(ctx)
	if !ok {
		return
	}
	var req SubmitActivityRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}
	activity, err := c.PracticeService.Submit(userID, req.TaskName, req.Status, req.CodeSubmitted, req.TimeSpent)
	if err != nil {
		respondError(ctx, err)
		return
	}
	util.Created(ctx, activity)
}

// Mine godoc
// @Summary 我的练习记录
// @Tags 练习
// @Produce json
// @Security BearerAuth
// @Success 200 {object} util.Response{data=util.ListResponse{list=[]model.PracticeActivity}}
// @Router /api/practice/mine [get]
func (c *PracticeController) Mine(ctx *gin.Context) {
	userID, ok := currentUserID(ctx)
	if !ok {
		return
	}
	rows, err := c.PracticeService.Mine(userID)
	if err != nil {
		respondError(ctx, err)
		return
	}
	util.Success(ctx, util.ListResponse{List: rows, Total: len(rows)})
}

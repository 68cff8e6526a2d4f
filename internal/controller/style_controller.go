package controller

import (
	"adaptive_learning_backend/internal/service"
	"adaptive_learning_backend/internal/util"
	"errors"

	"github.com/gin-gonic/gin"
)

type StyleController struct {
	StyleService *service.StyleService
}

func NewStyleController(styleService *service.StyleService) *StyleController {
	return &StyleController{StyleService: styleService}
}

type SelectStyleRequest struct {
	LearningStyle string `json:"learning_style" binding:"required"`
}

type SubmitTestRequest struct {
	Answers []string `json:"answers" binding:"required"`
}

type GenerateQuestionsRequest struct {
	Interests     string `json:"interests"`
	QuestionCount int    `json:"question_count"`
}

// Questions godoc
// @Summary 学习风格测评题库
// @Tags 学习风格
// @Produce json
// @Security BearerAuth
// @Success 200 {object} util.Response
// @Router /api/style/questions [get]
func (c *StyleController) Questions(ctx *gin.Context) {
	util.Success(ctx, gin.H{"questions": c.StyleService.Questions()})
}

// GenerateQuestions godoc
// @Summary 按兴趣生成测评题
// @Description AI 不可用时返回题库，source 为 ai 或 bank
// @Tags 学习风格
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body GenerateQuestionsRequest false "兴趣与题目数量"
// @Success 200 {object} util.Response{data=service.QuizResult}
// @Router /api/style/generate-questions [post]
func (c *StyleController) GenerateQuestions(ctx *gin.Context) {
	var req GenerateQuestionsRequest
	if err := ctx.ShouldBindJSON(&req); err != nil && ctx.Request.ContentLength > 0 {
		util.BadRequest(ctx, err.Error())
		return
	}
	util.Success(ctx, c.StyleService.GenerateQuestions(ctx.Request.Context(), req.Interests, req.QuestionCount))
}

// Select godoc
// @Summary 直接选择学习风格
// @Tags 学习风格
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body SelectStyleRequest true "visual / auditory / kinesthetic"
// @Success 200 {object} util.Response{data=model.LearningStyle}
// @Failure 400 {object} util.Response "风格无效"
// @Router /api/style/select [post]
func (c *StyleController) Select(ctx *gin.Context) {
	userID, ok := currentUserID(ctx)
	if !ok {
		return
	}
	var req SelectStyleRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}
	record, err := c.StyleService.Select(userID, req.LearningStyle)
	if err != nil {
		respondError(ctx, err)
		return
	}
	util.Success(ctx, record)
}

// SubmitTest godoc
// @Summary 提交测评答案
// @Description 10 到 30 个答案，每个答案为一种风格，票数最多者胜出
// @Tags 学习风格
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body SubmitTestRequest true "答案列表"
// @Success 200 {object} util.Response{data=model.LearningStyle}
// @Failure 400 {object} util.Response "答案数量或取值无效"
// @Router /api/style/submit-test [post]
func (c *StyleController) SubmitTest(ctx *gin.Context) {
	userID, ok := currentUserID(ctx)
	if !ok {
		return
	}
	var req SubmitTestRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}
	record, err := c.StyleService.SubmitTest(userID, req.Answers)
	if err != nil {
		respondError(ctx, err)
		return
	}
	util.Success(ctx, record)
}

// Mine godoc
// @Summary 我的学习风格
// @Tags 学习风格
// @Produce json
// @Security BearerAuth
// @Success 200 {object} util.Response{data=model.LearningStyle}
// @Router /api/style/mine [get]
func (c *StyleController) Mine(ctx *gin.Context) {
	userID, ok := currentUserID(ctx)
	if !ok {
		return
	}
	record, err := c.StyleService.Mine(userID)
	if errors.Is(err, util.ErrLearningStyleNotSet) {
		util.Success(ctx, gin.H{"learning_style": nil})
		return
	}
	if err != nil {
		respondError(ctx, err)
		return
	}
	util.Success(ctx, record)
}

// Clear godoc
// @Summary 清除学习风格
// @Tags 学习风格
// @Security BearerAuth
// @Success 200 {object} util.Response
// @Router /api/style/mine [delete]
func (c *StyleController) Clear(ctx *gin.Context) {
	userID, ok := currentUserID(ctx)
	if !ok {
		return
	}
	removed, err := c.StyleService.Clear(userID)
	if err != nil {
		respondError(ctx, err)
		return
	}
	if !removed {
		util.Success(ctx, gin.H{"message": "learning style already empty"})
		return
	}
	util.Success(ctx, gin.H{"message": "learning style removed"})
}

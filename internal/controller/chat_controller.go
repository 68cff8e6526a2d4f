package controller

import (
	"adaptive_learning_backend/internal/service"
	"adaptive_learning_backend/internal/util"

	"github.com/gin-gonic/gin"
)

type ChatController struct {
	ChatService *service.ChatService
}

func NewChatController(chatService *service.ChatService) *ChatController {
	return &ChatController{ChatService: chatService}
}

type AskRequest struct {
	Question string `json:"question" binding:"required"`
}

type FeedbackRequest struct {
	Helpful *bool  `json:"helpful" binding:"required"`
	Comment string `json:"comment"`
}

// Ask godoc
// @Summary 自适应问答
// @Description 按当前学习风格返回讲解及对应资源，AI 不可用时使用本地生成的内容
// @Tags 问答
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body AskRequest true "问题"
// @Success 200 {object} util.Response{data=service.ChatReply}
// @Failure 400 {object} util.Response "未设置学习风格"
// @Router /api/chat [post]
func (c *ChatController) Ask(ctx *gin.Context) {
	userID, ok := currentUserID(ctx)
	if !ok {
		return
	}
	var req AskRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, "question is required")
		return
	}
	reply, err := c.ChatService.Ask(ctx.Request.Context(), userID, req.Question)
	if err != nil {
		respondError(ctx, err)
		return
	}
	util.Success(ctx, reply)
}

// History godoc
// @Summary 问答记录
// @Description 最近 30 条
// @Tags 问答
// @Produce json
// @Security BearerAuth
// @Success 200 {object} util.Response{data=util.ListResponse{list=[]model.ChatHistory}}
// @Router /api/chat/history [get]
func (c *ChatController) History(ctx *gin.Context) {
	userID, ok := currentUserID(ctx)
	if !ok {
		return
	}
	rows, err := c.ChatService.History(userID)
	if err != nil {
		respondError(ctx, err)
		return
	}
	util.Success(ctx, util.ListResponse{List: rows, Total: len(rows)})
}

// Feedback godoc
// @Summary 评价回答
// @Tags 问答
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "问答ID"
// @Param body body FeedbackRequest true "评价"
// @Success 200 {object} util.Response{data=model.ChatFeedback}
// @Failure 404 {object} util.Response "记录不存在"
// @Router /api/chat/{id}/feedback [post]
func (c *ChatController) Feedback(ctx *gin.Context) {
	userID, ok := currentUserID(ctx)
	if !ok {
		return
	}
	chatID, ok := pathID(ctx, "id")
	if !ok {
		return
	}
	var req FeedbackRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}
	feedback, err := c.ChatService.Feedback(userID, chatID, *req.Helpful, req.Comment)
	if err != nil {
		respondError(ctx, err)
		return
	}
	util.Success(ctx, feedback)
}

package controller

import (
	"adaptive_learning_backend/internal/model"
	"adaptive_learning_backend/internal/service"
	"adaptive_learning_backend/internal/util"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
)

type DownloadController struct {
	DownloadService *service.DownloadService
}

func NewDownloadController(downloadService *service.DownloadService) *DownloadController {
	return &DownloadController{DownloadService: downloadService}
}

type CreateDownloadRequest struct {
	ContentType string `json:"content_type" binding:"required"`
	Topic       string `json:"topic"`
	Content     string `json:"content"`
}

type DownloadItem struct {
	model.Download
	DownloadURL string `json:"download_url"`
}

func toDownloadItem(d model.Download) DownloadItem {
	return DownloadItem{Download: d, DownloadURL: service.DownloadURL(d.ID)}
}

// Create godoc
// @Summary 生成下载资源
// @Description 资源类型受学习风格限制：visual 为 pdf/video，auditory 为 audio，kinesthetic 为 task_sheet/solution
// @Tags 下载
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body CreateDownloadRequest true "资源类型与主题"
// @Success 201 {object} util.Response{data=DownloadItem}
// @Failure 400 {object} util.Response "资源类型不允许"
// @Failure 503 {object} util.Response "存储暂时不可用，可重试"
// @Router /api/downloads [post]
func (c *DownloadController) Create(ctx *gin.Context) {
	userID, ok := currentUserID(ctx)
	if !ok {
		return
	}
	var req CreateDownloadRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	row, err := c.DownloadService.Create(ctx.Request.Context(), userID, service.DownloadRequest{
		ContentType: model.ContentType(req.ContentType),
		Topic:       req.Topic,
		Content:     req.Content,
	})
	if err != nil {
		respondError(ctx, err)
		return
	}
	util.Created(ctx, toDownloadItem(*row))
}

// Mine godoc
// @Summary 我的下载
// @Description 最近 50 条
// @Tags 下载
// @Produce json
// @Security BearerAuth
// @Success 200 {object} util.Response{data=util.ListResponse{list=[]DownloadItem}}
// @Router /api/downloads/mine [get]
func (c *DownloadController) Mine(ctx *gin.Context) {
	userID, ok := currentUserID(ctx)
	if !ok {
		return
	}
	rows, err := c.DownloadService.Mine(userID)
	if err != nil {
		respondError(ctx, err)
		return
	}
	items := make([]DownloadItem, 0, len(rows))
	for _, r := range rows {
		items = append(items, toDownloadItem(r))
	}
	util.Success(ctx, util.ListResponse{List: items, Total: len(items)})
}

// File godoc
// @Summary 下载文件
// @Tags 下载
// @Produce octet-stream
// @Security BearerAuth
// @Param id path int true "下载ID"
// @Success 200 {file} file
// @Failure 404 {object} util.Response "文件不存在"
// @Router /api/downloads/file/{id} [get]
func (c *DownloadController) File(ctx *gin.Context) {
	userID, ok := currentUserID(ctx)
	if !ok {
		return
	}
	id, ok := pathID(ctx, "id")
	if !ok {
		return
	}
	file, err := c.DownloadService.Open(ctx.Request.Context(), userID, id)
	if err != nil {
		respondError(ctx, err)
		return
	}
	defer file.Body.Close()

	ctx.DataFromReader(http.StatusOK, -1, file.ContentType, file.Body, map[string]string{
		"Content-Disposition": fmt.Sprintf(`attachment; filename="%s"`, file.Name),
	})
}

// Delete godoc
// @Summary 删除下载
// @Tags 下载
// @Security BearerAuth
// @Param id path int true "下载ID"
// @Success 200 {object} util.Response
// @Router /api/downloads/{id} [delete]
func (c *DownloadController) Delete(ctx *gin.Context) {
	userID, ok := currentUserID(ctx)
	if !ok {
		return
	}
	id, ok := pathID(ctx, "id")
	if !ok {
		return
	}
	if err := c.DownloadService.Delete(ctx.Request.Context(), userID, id); err != nil {
		respondError(ctx, err)
		return
	}
	util.Success(ctx, gin.H{"message": "download deleted", "download_id": id})
}

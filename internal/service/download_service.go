package service

import (
	"adaptive_learning_backend/internal/model"
	"adaptive_learning_backend/internal/repository"
	"adaptive_learning_backend/internal/util"
	"adaptive_learning_backend/pkg/logger"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const (
	downloadHistoryLimit = 50
	DefaultDownloadBase  = "Sample generated content"
)

type DownloadService struct {
	DownloadRepo *repository.DownloadRepository
	StyleService *StyleService
	Content      *AdaptiveContentService
	Storage      *StorageService
	probe        func(path string) (*util.MediaInfo, error)
	now          func() time.Time
}

func NewDownloadService(
	downloadRepo *repository.DownloadRepository,
	styleService *StyleService,
	content *AdaptiveContentService,
	storage *StorageService,
) *DownloadService {
	return &DownloadService{
		DownloadRepo: downloadRepo,
		StyleService: styleService,
		Content:      content,
		Storage:      storage,
		probe:        util.ProbeMedia,
		now:          time.Now,
	}
}

// DownloadRequest 生成下载资源的参数，Topic 为空时使用 Content
type DownloadRequest struct {
	ContentType model.ContentType
	Topic       string
	Content     string
}

// DownloadURL 下载文件的 API 路径
func DownloadURL(id uint) string {
	return fmt.Sprintf("/api/downloads/file/%d", id)
}

// Create 生成资源文件并登记；登记失败时删除已上传的文件
func (s *DownloadService) Create(ctx context.Context, userID uint, req DownloadRequest) (*model.Download, error) {
	style, err := s.StyleService.Mine(userID)
	if err != nil {
		return nil, err
	}
	contentType := model.ContentType(strings.TrimSpace(string(req.ContentType)))
	if !contentType.AllowedFor(style.LearningStyle) {
		return nil, fmt.Errorf("%w: %s is not allowed for %s", util.ErrContentTypeNotAllowed, contentType, style.LearningStyle)
	}

	base := strings.TrimSpace(req.Content)
	if base == "" {
		base = DefaultDownloadBase
	}
	topic := strings.TrimSpace(req.Topic)
	if topic == "" {
		topic = base
	}

	text, aiUsed, err := s.Content.GenerateAssetText(ctx, style.LearningStyle, contentType, topic, base)
	if err != nil {
		return nil, err
	}
	data, ext, source := []byte(text), "txt", model.SourceFallback
	if aiUsed {
		source = model.SourceAI
	}
	if contentType == model.ContentAudio {
		audio := s.Content.NarrationAudio(ctx, text)
		data, ext, source = audio.Data, audio.Ext, audio.Source
	}

	name := fmt.Sprintf("u%d_%s_%s_%s.%s", userID, contentType, s.now().UTC().Format(util.FileStampFormat), uuid.NewString()[:8], ext)
	tmp, err := writeTemp(name, data)
	if err != nil {
		return nil, err
	}
	defer os.Remove(tmp)

	row := &model.Download{
		UserID:      userID,
		ContentType: contentType,
		FilePath:    name,
		Source:      source,
	}
	if ext == "mp3" || ext == "wav" {
		if info, err := s.probe(tmp); err == nil {
			row.DurationSeconds = info.Duration
		} else {
			logger.Log.Debug("Audio probe skipped", zap.String("file", name), zap.Error(err))
		}
	}

	url, err := s.Storage.UploadFile(ctx, name, tmp, util.MimeByExt(ext))
	if err != nil {
		logger.Log.Error("Failed to store download", zap.String("file", name), zap.Error(err))
		return nil, util.ErrRetryable
	}
	row.URL = url

	if err := s.DownloadRepo.Create(row); err != nil {
		logger.Log.Error("Failed to record download, removing object", zap.String("file", name), zap.Error(err))
		if delErr := s.Storage.Delete(context.WithoutCancel(ctx), name); delErr != nil {
			logger.Log.Error("Failed to remove orphan object", zap.String("file", name), zap.Error(delErr))
		}
		return nil, util.ErrRetryable
	}
	return row, nil
}

func writeTemp(name string, data []byte) (string, error) {
	f, err := os.CreateTemp("", "download-*-"+filepath.Base(name))
	if err != nil {
		return "", err
	}
	if _, err := f.Write(data); err != nil {
		f.Close()
		os.Remove(f.Name())
		return "", err
	}
	if err := f.Close(); err != nil {
		os.Remove(f.Name())
		return "", err
	}
	return f.Name(), nil
}

func (s *DownloadService) Mine(userID uint) ([]model.Download, error) {
	return s.DownloadRepo.FindByUser(userID, downloadHistoryLimit)
}

func (s *DownloadService) find(userID, id uint) (*model.Download, error) {
	row, err := s.DownloadRepo.FindByIDForUser(id, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, util.ErrDownloadNotFound
		}
		return nil, err
	}
	return row, nil
}

// DownloadFile 打开的文件，调用方负责关闭 Body
type DownloadFile struct {
	Name        string
	ContentType string
	Body        io.ReadCloser
}

func (s *DownloadService) Open(ctx context.Context, userID, id uint) (*DownloadFile, error) {
	row, err := s.find(userID, id)
	if err != nil {
		return nil, err
	}
	body, err := s.Storage.Open(ctx, row.FilePath)
	if err != nil {
		logger.Log.Warn("Download object missing", zap.Uint("downloadID", id), zap.Error(err))
		return nil, util.ErrDownloadNotFound
	}
	ext := strings.TrimPrefix(path.Ext(row.FilePath), ".")
	return &DownloadFile{
		Name:        path.Base(row.FilePath),
		ContentType: util.MimeByExt(ext),
		Body:        body,
	}, nil
}

// Delete 先删记录再删文件，文件删除失败只记录日志
func (s *DownloadService) Delete(ctx context.Context, userID, id uint) error {
	row, err := s.find(userID, id)
	if err != nil {
		return err
	}
	if err := s.DownloadRepo.Delete(row.ID); err != nil {
		return err
	}
	if err := s.Storage.Delete(ctx, row.FilePath); err != nil {
		logger.Log.Warn("Failed to remove download object", zap.String("file", row.FilePath), zap.Error(err))
	}
	return nil
}

package util

import "errors"

var (
	ErrUserNotFound                = errors.New("user not found")
	ErrEmailRegistered             = errors.New("email already registered")
	ErrInvalidCredentials          = errors.New("invalid email or password")
	ErrInvalidResetToken           = errors.New("reset token is invalid or expired")
	ErrPermissionDenied            = errors.New("permission denied")
	ErrLearningStyleNotSet         = errors.New("learning style not set, take the quiz first")
	ErrInvalidLearningStyle        = errors.New("invalid learning style")
	ErrContentTypeNotAllowed       = errors.New("content type not allowed for learning style")
	ErrDownloadNotFound            = errors.New("download not found")
	ErrChatNotFound                = errors.New("chat not found")
	ErrPracticeRequiresKinesthetic = errors.New("practice tasks are available for kinesthetic learners only")
	// ErrRetryable 存储层短暂故障，已回滚，客户端可重试
	ErrRetryable = errors.New("temporary storage failure, please retry")
)

package model

import "time"

type ContentType string

const (
	ContentPDF       ContentType = "pdf"
	ContentVideo     ContentType = "video"
	ContentAudio     ContentType = "audio"
	ContentTaskSheet ContentType = "task_sheet"
	ContentSolution  ContentType = "solution"
)

// AllowedContentTypes 每种学习风格可下载的资源类型
var AllowedContentTypes = map[Style][]ContentType{
	StyleVisual:      {ContentPDF, ContentVideo},
	StyleAuditory:    {ContentAudio},
	StyleKinesthetic: {ContentTaskSheet, ContentSolution},
}

// AllowedFor 判断某风格是否允许该资源类型
func (c ContentType) AllowedFor(style Style) bool {
	for _, t := range AllowedContentTypes[style] {
		if t == c {
			return true
		}
	}
	return false
}

// Download 生成的下载资源
type Download struct {
	ID              uint        `gorm:"primaryKey;autoIncrement" json:"download_id"`
	UserID          uint        `gorm:"index;not null" json:"user_id"`
	ContentType     ContentType `gorm:"size:50;not null" json:"content_type"`
	FilePath        string      `gorm:"size:255;not null" json:"file_path"`
	URL             string      `gorm:"size:255" json:"url"`
	Source          string      `gorm:"size:20" json:"source"`
	DurationSeconds float64     `gorm:"default:0" json:"duration_seconds,omitempty"`
	Timestamp       time.Time   `gorm:"index;autoCreateTime" json:"timestamp"`
}

func (Download) TableName() string {
	return "downloads"
}

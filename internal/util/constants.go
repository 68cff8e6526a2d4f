package util

const (
	DateFormat = "2006-01-02"
	TimeFormat = "2006-01-02 15:04:05"
	// FileStampFormat 下载文件名中的时间戳
	FileStampFormat = "20060102150405"
)

const (
	StorageLocal = "local"
	StorageMinio = "minio"
	StorageOSS   = "oss"
)

const (
	MimeText        = "text/plain; charset=utf-8"
	MimeMP3         = "audio/mpeg"
	MimeWAV         = "audio/wav"
	MimePNG         = "image/png"
	MimeOctetStream = "application/octet-stream"
)

// MimeByExt 按扩展名返回下载的 Content-Type
func MimeByExt(ext string) string {
	switch ext {
	case "txt":
		return MimeText
	case "mp3":
		return MimeMP3
	case "wav":
		return MimeWAV
	case "png":
		return MimePNG
	}
	return MimeOctetStream
}

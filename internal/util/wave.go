package util

import (
	"bytes"
	"encoding/binary"
	"math"
	"time"
)

const (
	ToneSampleRate = 16000
	ToneFrequency  = 440.0
	ToneDuration   = 1200 * time.Millisecond
)

// SineWAV 生成单声道 16 位 PCM 的正弦波 WAV 文件
func SineWAV(freq float64, duration time.Duration, sampleRate int) ([]byte, error) {
	samples := int(float64(sampleRate) * duration.Seconds())
	dataSize := samples * 2

	buf := bytes.NewBuffer(make([]byte, 0, 44+dataSize))
	header := []any{
		[]byte("RIFF"),
		uint32(36 + dataSize),
		[]byte("WAVE"),
		[]byte("fmt "),
		uint32(16),             // fmt chunk 大小
		uint16(1),              // PCM
		uint16(1),              // 单声道
		uint32(sampleRate),     // 采样率
		uint32(sampleRate * 2), // 字节率
		uint16(2),              // block align
		uint16(16),             // 位深
		[]byte("data"),
		uint32(dataSize),
	}
	for _, field := range header {
		if err := binary.Write(buf, binary.LittleEndian, field); err != nil {
			return nil, err
		}
	}

	amplitude := 0.3 * math.MaxInt16
	for i := 0; i < samples; i++ {
		v := int16(amplitude * math.Sin(2*math.Pi*freq*float64(i)/float64(sampleRate)))
		if err := binary.Write(buf, binary.LittleEndian, v); err != nil {
			return nil, err
		}
	}
	return buf.Bytes(), nil
}

// FallbackTone 1.2 秒 440Hz 提示音
func FallbackTone() ([]byte, error) {
	return SineWAV(ToneFrequency, ToneDuration, ToneSampleRate)
}

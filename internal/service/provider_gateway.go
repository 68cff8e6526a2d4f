package service

import (
	"adaptive_learning_backend/internal/config"
	"adaptive_learning_backend/internal/model"
	"adaptive_learning_backend/pkg/logger"
	"adaptive_learning_backend/pkg/monitoring"
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"strings"
	"sync"

	"go.uber.org/zap"
)

// TextProvider 文本与结构化补全，空字符串或 nil 表示没有结果
type TextProvider interface {
	CompleteText(ctx context.Context, system, user string, temperature float64) string
	CompleteJSON(ctx context.Context, system, user string, temperature float64) map[string]any
}

// SpeechProvider 语音合成，nil 表示没有结果
type SpeechProvider interface {
	SynthesizeSpeech(ctx context.Context, text string) *model.SpeechClip
}

// ImageProvider 图像合成，nil 表示没有结果
type ImageProvider interface {
	SynthesizeImage(ctx context.Context, prompt string) *model.ImageAsset
}

const (
	maxSpeechInput = 4000
	maxImagePrompt = 1000
	maxErrorBody   = 512
)

var errProviderDisabled = errors.New("provider credentials not configured")

var placeholderCredentials = map[string]bool{
	"your-rapidapi-key":   true,
	"your-openai-api-key": true,
	"your-judge0-host":    true,
	"changeme":            true,
	"none":                true,
	"null":                true,
}

// isPlaceholder 空值或示例配置中的占位符都视为未配置
func isPlaceholder(v string) bool {
	v = strings.ToLower(strings.TrimSpace(v))
	return v == "" || placeholderCredentials[v]
}

// ProviderGateway 兼容 OpenAI 接口的文本、语音、图像调用，所有失败都返回零值
type ProviderGateway struct {
	mu     sync.RWMutex
	config config.AIConfig
	client *http.Client
}

func NewProviderGateway(cfg config.AIConfig) *ProviderGateway {
	return &ProviderGateway{config: cfg, client: &http.Client{}}
}

// UpdateConfig 配置热更新
func (g *ProviderGateway) UpdateConfig(cfg config.AIConfig) {
	g.mu.Lock()
	g.config = cfg
	g.mu.Unlock()
}

func (g *ProviderGateway) snapshot() config.AIConfig {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.config
}

// Enabled 是否配置了可用的 API Key
func (g *ProviderGateway) Enabled() bool {
	return !isPlaceholder(g.snapshot().APIKey)
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatCompletionRequest struct {
	Model          string            `json:"model"`
	Messages       []chatMessage     `json:"messages"`
	Temperature    float64           `json:"temperature"`
	ResponseFormat map[string]string `json:"response_format,omitempty"`
}

type chatCompletionResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
}

func (g *ProviderGateway) CompleteText(ctx context.Context, system, user string, temperature float64) string {
	text, err := g.complete(ctx, system, user, temperature, false)
	if err != nil {
		g.warn("text", err)
		return ""
	}
	monitoring.ProviderCalls.WithLabelValues("text", "ok").Inc()
	return text
}

func (g *ProviderGateway) CompleteJSON(ctx context.Context, system, user string, temperature float64) map[string]any {
	text, err := g.complete(ctx, system, user, temperature, true)
	if err != nil {
		g.warn("json", err)
		return nil
	}
	payload := extractJSON(text)
	if payload == nil {
		g.warn("json", errors.New("completion did not contain a JSON object"))
		return nil
	}
	monitoring.ProviderCalls.WithLabelValues("json", "ok").Inc()
	return payload
}

func (g *ProviderGateway) complete(ctx context.Context, system, user string, temperature float64, jsonMode bool) (string, error) {
	cfg := g.snapshot()
	if isPlaceholder(cfg.APIKey) {
		return "", errProviderDisabled
	}

	reqBody := chatCompletionRequest{
		Model: cfg.Model,
		Messages: []chatMessage{
			{Role: "system", Content: system},
			{Role: "user", Content: user},
		},
		Temperature: temperature,
	}
	if jsonMode {
		reqBody.ResponseFormat = map[string]string{"type": "json_object"}
	}

	body, err := g.post(ctx, cfg, "/chat/completions", reqBody)
	if err != nil {
		return "", err
	}

	var resp chatCompletionResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return "", fmt.Errorf("decode completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", errors.New("completion has no choices")
	}
	text := strings.TrimSpace(resp.Choices[0].Message.Content)
	if text == "" {
		return "", errors.New("completion is empty")
	}
	return text, nil
}

func (g *ProviderGateway) SynthesizeSpeech(ctx context.Context, text string) *model.SpeechClip {
	cfg := g.snapshot()
	if isPlaceholder(cfg.APIKey) {
		g.warn("speech", errProviderDisabled)
		return nil
	}
	text = strings.TrimSpace(text)
	if text == "" {
		g.warn("speech", errors.New("empty input"))
		return nil
	}

	reqBody := map[string]any{
		"model":           cfg.TTSModel,
		"voice":           cfg.TTSVoice,
		"input":           truncateRunes(text, maxSpeechInput),
		"response_format": "mp3",
	}
	audio, err := g.post(ctx, cfg, "/audio/speech", reqBody)
	if err != nil {
		g.warn("speech", err)
		return nil
	}
	if len(audio) == 0 {
		g.warn("speech", errors.New("empty audio body"))
		return nil
	}
	monitoring.ProviderCalls.WithLabelValues("speech", "ok").Inc()
	return &model.SpeechClip{Audio: audio, Format: "mp3"}
}

type imageGenerationResponse struct {
	Data []struct {
		B64JSON string `json:"b64_json"`
		URL     string `json:"url"`
	} `json:"data"`
}

func (g *ProviderGateway) SynthesizeImage(ctx context.Context, prompt string) *model.ImageAsset {
	cfg := g.snapshot()
	if isPlaceholder(cfg.APIKey) {
		g.warn("image", errProviderDisabled)
		return nil
	}

	reqBody := map[string]any{
		"model":  cfg.ImageModel,
		"prompt": truncateRunes(strings.TrimSpace(prompt), maxImagePrompt),
		"size":   cfg.ImageSize,
		"n":      1,
	}
	body, err := g.post(ctx, cfg, "/images/generations", reqBody)
	if err != nil {
		g.warn("image", err)
		return nil
	}

	var resp imageGenerationResponse
	if err := json.Unmarshal(body, &resp); err != nil || len(resp.Data) == 0 {
		g.warn("image", errors.New("undecodable image response"))
		return nil
	}
	item := resp.Data[0]
	switch {
	case item.B64JSON != "":
		data, err := base64.StdEncoding.DecodeString(item.B64JSON)
		if err != nil {
			g.warn("image", fmt.Errorf("decode b64_json: %w", err))
			return nil
		}
		monitoring.ProviderCalls.WithLabelValues("image", "ok").Inc()
		return &model.ImageAsset{Data: data, MimeType: "image/png"}
	case item.URL != "":
		monitoring.ProviderCalls.WithLabelValues("image", "ok").Inc()
		return &model.ImageAsset{URL: item.URL}
	}
	g.warn("image", errors.New("image response has neither b64_json nor url"))
	return nil
}

func (g *ProviderGateway) post(ctx context.Context, cfg config.AIConfig, path string, payload any) ([]byte, error) {
	jsonData, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, cfg.Timeout())
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, strings.TrimRight(cfg.BaseURL, "/")+path, bytes.NewReader(jsonData))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+cfg.APIKey)

	resp, err := g.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("provider error (status %d): %s", resp.StatusCode, truncateRunes(string(body), maxErrorBody))
	}
	return body, nil
}

func (g *ProviderGateway) warn(capability string, err error) {
	outcome := "error"
	if errors.Is(err, errProviderDisabled) {
		outcome = "skipped"
	}
	monitoring.ProviderCalls.WithLabelValues(capability, outcome).Inc()
	logger.Log.Warn("Provider call failed, using fallback",
		zap.String("capability", capability),
		zap.Error(err))
}

var (
	fencedJSON   = regexp.MustCompile("```(?:json)?\\s*(\\{[\\s\\S]*\\})\\s*```")
	embeddedJSON = regexp.MustCompile(`\{[\s\S]*\}`)
)

// extractJSON 依次尝试 markdown 代码块、整体解析、首个 {...} 片段
func extractJSON(text string) map[string]any {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}
	var candidates []string
	if m := fencedJSON.FindStringSubmatch(text); len(m) == 2 {
		candidates = append(candidates, m[1])
	}
	candidates = append(candidates, text)
	if m := embeddedJSON.FindString(text); m != "" {
		candidates = append(candidates, m)
	}

	for _, c := range candidates {
		var out map[string]any
		if err := json.Unmarshal([]byte(c), &out); err == nil && out != nil {
			return out
		}
	}
	return nil
}

func truncateRunes(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}

package service

import (
	"adaptive_learning_backend/internal/model"
	"adaptive_learning_backend/internal/util"
	"adaptive_learning_backend/pkg/fallback"
	"adaptive_learning_backend/pkg/logger"
	"adaptive_learning_backend/pkg/monitoring"
	"adaptive_learning_backend/pkg/tracing"
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

const (
	explanationTemperature = 0.4
	blueprintTemperature   = 0.3
	assetTemperature       = 0.5
	maxBaseContent         = 2500
)

var styleInstructions = map[model.Style]string{
	model.StyleVisual:      "Create visually structured notes with clear headings, bullets, and a flow sequence.",
	model.StyleAuditory:    "Create a spoken-style script with short sentences and natural narration pacing.",
	model.StyleKinesthetic: "Create an action-oriented task sheet with steps, checkpoints, and expected outcomes.",
}

var assetInstructions = map[string]string{
	"explanation":  "Explain the question for a student in under 250 words.",
	"blueprint":    "Describe the topic as a visual blueprint for charts and a concept map.",
	"narration":    "Write an audio narration script to be read aloud.",
	"illustration": "Draw a clean educational illustration with labelled parts and no text paragraphs.",
	string(model.ContentPDF):       "Write concise notes suitable for export as PDF.",
	string(model.ContentVideo):     "Write storyboard-style frames for a short explainer video.",
	string(model.ContentAudio):     "Write an audio narration script.",
	string(model.ContentTaskSheet): "Write a practical coding task sheet.",
	string(model.ContentSolution):  "Write a complete worked solution with explanation.",
}

func instruction(style model.Style, asset string) string {
	a, ok := assetInstructions[asset]
	if !ok {
		a = "Write useful learning content."
	}
	return styleInstructions[style] + " " + a
}

// AudioArtifact 音频下载内容，Ext 为 mp3 / wav / txt
type AudioArtifact struct {
	Data   []byte
	Ext    string
	Source string
}

// AdaptiveContentService 按学习风格生成内容：先调用 AI，校验失败后走兜底生成
type AdaptiveContentService struct {
	text       TextProvider
	speech     SpeechProvider
	image      ImageProvider
	normalizer *AssetNormalizer
	synth      *FallbackSynthesizer
	charts     *ChartRenderer
	practice   *PracticeTaskService
}

func NewAdaptiveContentService(
	text TextProvider,
	speech SpeechProvider,
	image ImageProvider,
	normalizer *AssetNormalizer,
	synth *FallbackSynthesizer,
	charts *ChartRenderer,
	practice *PracticeTaskService,
) *AdaptiveContentService {
	return &AdaptiveContentService{
		text:       text,
		speech:     speech,
		image:      image,
		normalizer: normalizer,
		synth:      synth,
		charts:     charts,
		practice:   practice,
	}
}

// Respond 生成聊天回答，返回结构只由 style 决定
func (s *AdaptiveContentService) Respond(ctx context.Context, question string, style model.Style) (*model.AdaptiveResponse, error) {
	if !style.Valid() {
		return nil, util.ErrInvalidLearningStyle
	}
	ctx, span := tracing.Tracer.Start(ctx, "adaptive.Respond")
	defer span.End()
	span.SetAttributes(attribute.String("learning_style", string(style)))

	topic := cleanTopic(question)
	explanation := s.explanation(ctx, question, style)

	resp := &model.AdaptiveResponse{
		ResponseType: style,
		Text:         explanation.Value,
		AIUsed:       explanation.Tier == model.SourceAI,
	}
	switch style {
	case model.StyleVisual:
		resp.Assets = s.visualAssets(ctx, topic)
	case model.StyleAuditory:
		resp.Assets = s.auditoryAssets(ctx, topic)
	case model.StyleKinesthetic:
		resp.Assets = s.kinestheticAssets(ctx, topic)
	}
	span.SetAttributes(attribute.Bool("ai_used", resp.AIUsed))
	return resp, nil
}

func (s *AdaptiveContentService) explanation(ctx context.Context, question string, style model.Style) fallback.Result[string] {
	return s.resolveText(ctx, "explanation",
		func(ctx context.Context) string {
			system := "You are an adaptive programming tutor. " + instruction(style, "explanation")
			return s.text.CompleteText(ctx, system, question, explanationTemperature)
		},
		func() string { return s.synth.Explanation(question, style) },
	)
}

// resolveText 文本类资源的通用链：AI 文本 -> 固定模板
func (s *AdaptiveContentService) resolveText(ctx context.Context, asset string, call func(context.Context) string, synth func() string) fallback.Result[string] {
	steps := []fallback.Step[string]{{
		Name: model.SourceAI,
		Try: func(ctx context.Context) (string, error) {
			if s.text == nil {
				return "", errProviderDisabled
			}
			text, ok := s.normalizer.Text(call(ctx))
			if !ok {
				return "", fmt.Errorf("%s: empty completion", asset)
			}
			return text, nil
		},
	}}
	result := fallback.Resolve(ctx, steps, fallback.Terminal[string]{
		Name: model.SourceFallback,
		Run: func(context.Context, []string) string {
			return synth()
		},
	})
	s.recordFallback(asset, result.Tier, result.Notes)
	return result
}

func (s *AdaptiveContentService) recordFallback(asset, tier string, notes []string) {
	if tier == model.SourceAI {
		return
	}
	monitoring.Fallbacks.WithLabelValues(asset).Inc()
	logger.Log.Debug("Using fallback content",
		zap.String("asset", asset),
		zap.String("tier", tier),
		zap.Strings("notes", notes))
}

func (s *AdaptiveContentService) visualAssets(ctx context.Context, topic string) *model.VisualAssets {
	steps := []fallback.Step[model.VisualBlueprint]{{
		Name: model.SourceAI,
		Try: func(ctx context.Context) (model.VisualBlueprint, error) {
			if s.text == nil {
				return model.VisualBlueprint{}, errProviderDisabled
			}
			system := "You design study visuals. Return strict JSON only. " + instruction(model.StyleVisual, "blueprint")
			bp, ok := s.normalizer.Blueprint(s.text.CompleteJSON(ctx, system, blueprintPrompt(topic), blueprintTemperature), topic)
			if !ok {
				return model.VisualBlueprint{}, errors.New("blueprint: no usable fields")
			}
			return bp, nil
		},
	}}
	blueprint := fallback.Resolve(ctx, steps, fallback.Terminal[model.VisualBlueprint]{
		Name: model.SourceFallback,
		Run: func(context.Context, []string) model.VisualBlueprint {
			return s.synth.Blueprint(topic)
		},
	})
	s.recordFallback("blueprint", blueprint.Tier, blueprint.Notes)
	bp := blueprint.Value

	illustration := s.illustration(ctx, topic, bp)
	// 插图走兜底时才需要绘制概念图
	charts, err := s.charts.RenderAll(ctx, bp, illustration.Tier != model.SourceAI)
	if err != nil {
		logger.Log.Warn("Chart rendering failed", zap.Error(err))
		charts = &ChartSet{}
	}
	illustrationURI := illustration.Value
	if illustration.Tier != model.SourceAI && len(charts.ConceptMap) > 0 {
		illustrationURI = PNGDataURI(charts.ConceptMap)
	}

	assets := &model.VisualAssets{
		Diagram:            s.synth.Diagram(bp),
		Blueprint:          bp,
		BlueprintSource:    blueprint.Tier,
		Illustration:       illustrationURI,
		IllustrationSource: illustration.Tier,
		SuggestedDownloads: allowedDownloads(model.StyleVisual),
	}
	if len(charts.Radar) > 0 {
		assets.RadarChart = PNGDataURI(charts.Radar)
	}
	if len(charts.Bar) > 0 {
		assets.BarChart = PNGDataURI(charts.Bar)
	}
	return assets
}

// illustration AI 图像可能是内联数据或外链，兜底值在渲染概念图后填入
func (s *AdaptiveContentService) illustration(ctx context.Context, topic string, bp model.VisualBlueprint) fallback.Result[string] {
	steps := []fallback.Step[string]{{
		Name: model.SourceAI,
		Try: func(ctx context.Context) (string, error) {
			if s.image == nil {
				return "", errProviderDisabled
			}
			prompt := fmt.Sprintf("%s Topic: %s. Key concepts: %s.", instruction(model.StyleVisual, "illustration"), topic, strings.Join(bp.ConceptNodes, ", "))
			img := s.image.SynthesizeImage(ctx, prompt)
			switch {
			case img == nil:
				return "", errors.New("illustration: no image")
			case len(img.Data) > 0:
				mime := img.MimeType
				if mime == "" {
					mime = util.MimePNG
				}
				return "data:" + mime + ";base64," + base64.StdEncoding.EncodeToString(img.Data), nil
			case img.URL != "":
				return img.URL, nil
			}
			return "", errors.New("illustration: empty image")
		},
	}}
	result := fallback.Resolve(ctx, steps, fallback.Terminal[string]{
		Name: model.SourceFallback,
		Run:  func(context.Context, []string) string { return "" },
	})
	s.recordFallback("illustration", result.Tier, result.Notes)
	return result
}

func (s *AdaptiveContentService) auditoryAssets(ctx context.Context, topic string) *model.AuditoryAssets {
	script := s.resolveText(ctx, "narration",
		func(ctx context.Context) string {
			system := "You are an adaptive programming tutor. " + instruction(model.StyleAuditory, "narration") + " Output plain text only."
			return s.text.CompleteText(ctx, system, "Topic: "+topic, explanationTemperature)
		},
		func() string { return s.synth.NarrationScript(topic) },
	)
	return &model.AuditoryAssets{
		AudioScript:        script.Value,
		ScriptSource:       script.Tier,
		SuggestedDownloads: allowedDownloads(model.StyleAuditory),
	}
}

func (s *AdaptiveContentService) kinestheticAssets(ctx context.Context, topic string) *model.KinestheticAssets {
	result := s.practice.Generate(ctx, topic, DefaultTaskCount)
	assets := &model.KinestheticAssets{
		Tasks:              result.Tasks,
		TaskSheet:          s.synth.TaskSheet(topic, result.Tasks),
		TaskSource:         result.Source,
		SuggestedDownloads: allowedDownloads(model.StyleKinesthetic),
	}
	if len(result.Tasks) > 0 {
		assets.StarterCode = result.Tasks[0].StarterCode
	}
	return assets
}

// GenerateAssetText 下载资源的正文，aiUsed 表示是否来自 AI
func (s *AdaptiveContentService) GenerateAssetText(ctx context.Context, style model.Style, contentType model.ContentType, topic, base string) (string, bool, error) {
	if !style.Valid() {
		return "", false, util.ErrInvalidLearningStyle
	}
	ctx, span := tracing.Tracer.Start(ctx, "adaptive.GenerateAssetText")
	defer span.End()
	span.SetAttributes(
		attribute.String("learning_style", string(style)),
		attribute.String("content_type", string(contentType)),
	)

	topic = strings.TrimSpace(topic)
	if topic == "" {
		topic = "general programming concept"
	}
	base = strings.TrimSpace(base)

	result := s.resolveText(ctx, string(contentType),
		func(ctx context.Context) string {
			system := "You generate educational assets. Output plain text only, no markdown tables, no code fences."
			user := fmt.Sprintf("Topic: %s\nLearning style: %s\nRequested asset: %s\nInstructions: %s\nOptional context: %s",
				topic, style, contentType, instruction(style, string(contentType)), truncateRunes(base, maxBaseContent))
			return s.text.CompleteText(ctx, system, user, assetTemperature)
		},
		func() string { return s.synth.AssetText(style, contentType, topic, base) },
	)
	return result.Value, result.Tier == model.SourceAI, nil
}

// NarrationAudio 语音合成 -> 提示音 WAV -> 纯文本
func (s *AdaptiveContentService) NarrationAudio(ctx context.Context, script string) AudioArtifact {
	steps := []fallback.Step[AudioArtifact]{
		{Name: model.SourceAI, Try: func(ctx context.Context) (AudioArtifact, error) {
			if s.speech == nil {
				return AudioArtifact{}, errProviderDisabled
			}
			clip := s.speech.SynthesizeSpeech(ctx, script)
			if clip == nil || len(clip.Audio) == 0 {
				return AudioArtifact{}, errors.New("speech: no audio")
			}
			ext := clip.Format
			if ext == "" {
				ext = "mp3"
			}
			return AudioArtifact{Data: clip.Audio, Ext: ext, Source: model.SourceAI}, nil
		}},
		{Name: "tone", Try: func(context.Context) (AudioArtifact, error) {
			wav, err := s.synth.Tone()
			if err != nil {
				return AudioArtifact{}, fmt.Errorf("tone: %w", err)
			}
			return AudioArtifact{Data: wav, Ext: "wav", Source: model.SourceFallback}, nil
		}},
	}
	result := fallback.Resolve(ctx, steps, fallback.Terminal[AudioArtifact]{
		Name: "text",
		Run: func(context.Context, []string) AudioArtifact {
			return AudioArtifact{Data: []byte(script), Ext: "txt", Source: model.SourceFallback}
		},
	})
	s.recordFallback("audio", result.Tier, result.Notes)
	return result.Value
}

func allowedDownloads(style model.Style) []model.ContentType {
	return append([]model.ContentType(nil), model.AllowedContentTypes[style]...)
}

func blueprintPrompt(topic string) string {
	return fmt.Sprintf("Topic: %s\n"+
		"Return JSON: {\"title\": \"...\", \"concept_nodes\": [4 short labels], \"flow_steps\": [5 ordered steps], "+
		"\"radar_labels\": [5 skills], \"radar_scores\": [5 integers 50-95], "+
		"\"bar_labels\": [4 labels], \"bar_scores\": [4 integers 50-95]}", topic)
}

package service

import (
	"adaptive_learning_backend/internal/model"
	"context"
	"sync/atomic"
)

// stubProvider 可控的 AI 替身，nil 字段表示调用失败
type stubProvider struct {
	text   string
	json   map[string]any
	speech *model.SpeechClip
	image  *model.ImageAsset

	textCalls   atomic.Int32
	jsonCalls   atomic.Int32
	speechCalls atomic.Int32
	imageCalls  atomic.Int32
}

func (p *stubProvider) CompleteText(context.Context, string, string, float64) string {
	p.textCalls.Add(1)
	return p.text
}

func (p *stubProvider) CompleteJSON(context.Context, string, string, float64) map[string]any {
	p.jsonCalls.Add(1)
	return p.json
}

func (p *stubProvider) SynthesizeSpeech(context.Context, string) *model.SpeechClip {
	p.speechCalls.Add(1)
	return p.speech
}

func (p *stubProvider) SynthesizeImage(context.Context, string) *model.ImageAsset {
	p.imageCalls.Add(1)
	return p.image
}

func (p *stubProvider) calls() int32 {
	return p.textCalls.Load() + p.jsonCalls.Load() + p.speechCalls.Load() + p.imageCalls.Load()
}

func newTestOrchestrator(p *stubProvider) *AdaptiveContentService {
	normalizer := NewAssetNormalizer()
	synth := NewFallbackSynthesizer()
	practice := NewPracticeTaskService(p, normalizer, synth)
	return NewAdaptiveContentService(p, p, p, normalizer, synth, NewChartRenderer(), practice)
}

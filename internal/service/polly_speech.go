package service

import (
	"adaptive_learning_backend/internal/config"
	"adaptive_learning_backend/internal/model"
	"adaptive_learning_backend/pkg/logger"
	"adaptive_learning_backend/pkg/monitoring"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/polly"
	pollytypes "github.com/aws/aws-sdk-go-v2/service/polly/types"
	"github.com/aws/smithy-go"
	"go.uber.org/zap"
)

// Polly 单次请求的文本上限
const maxPollyInput = 3000

type pollyClient interface {
	SynthesizeSpeech(ctx context.Context, params *polly.SynthesizeSpeechInput, optFns ...func(*polly.Options)) (*polly.SynthesizeSpeechOutput, error)
}

// PollySpeechProvider 基于 AWS Polly 的语音合成
type PollySpeechProvider struct {
	mu      sync.Mutex
	client  pollyClient
	cfg     config.SpeechConfig
	timeout time.Duration
}

func NewPollySpeechProvider(cfg config.SpeechConfig, timeout time.Duration) *PollySpeechProvider {
	return newPollySpeechProvider(cfg, timeout, nil)
}

func newPollySpeechProvider(cfg config.SpeechConfig, timeout time.Duration, client pollyClient) *PollySpeechProvider {
	if strings.TrimSpace(cfg.PollyRegion) == "" {
		cfg.PollyRegion = "us-east-1"
	}
	if strings.TrimSpace(cfg.PollyVoice) == "" {
		cfg.PollyVoice = "Joanna"
	}
	if strings.TrimSpace(cfg.PollyEngine) == "" {
		cfg.PollyEngine = "neural"
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &PollySpeechProvider{client: client, cfg: cfg, timeout: timeout}
}

func (p *PollySpeechProvider) SynthesizeSpeech(ctx context.Context, text string) *model.SpeechClip {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}
	client, err := p.resolveClient(ctx)
	if err != nil {
		p.warn(err)
		return nil
	}

	engine := pollytypes.EngineStandard
	if strings.EqualFold(p.cfg.PollyEngine, "neural") {
		engine = pollytypes.EngineNeural
	}

	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	input := truncateRunes(text, maxPollyInput)
	output, err := client.SynthesizeSpeech(ctx, &polly.SynthesizeSpeechInput{
		Engine:       engine,
		OutputFormat: pollytypes.OutputFormatMp3,
		Text:         &input,
		TextType:     pollytypes.TextTypeText,
		VoiceId:      pollytypes.VoiceId(p.cfg.PollyVoice),
	})
	if err != nil {
		p.warn(describePollyError(err))
		return nil
	}
	if output == nil || output.AudioStream == nil {
		p.warn(errors.New("empty audio stream"))
		return nil
	}
	defer output.AudioStream.Close()

	audio, err := io.ReadAll(output.AudioStream)
	if err != nil || len(audio) == 0 {
		p.warn(fmt.Errorf("read audio stream: %v", err))
		return nil
	}
	monitoring.ProviderCalls.WithLabelValues("speech", "ok").Inc()
	return &model.SpeechClip{Audio: audio, Format: "mp3"}
}

func (p *PollySpeechProvider) resolveClient(ctx context.Context) (pollyClient, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.client != nil {
		return p.client, nil
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(p.cfg.PollyRegion))
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}
	p.client = polly.NewFromConfig(awsCfg)
	return p.client, nil
}

func describePollyError(err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("polly timeout: %w", err)
	}
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		return fmt.Errorf("polly %s: %s", apiErr.ErrorCode(), apiErr.ErrorMessage())
	}
	return fmt.Errorf("polly transport: %w", err)
}

func (p *PollySpeechProvider) warn(err error) {
	monitoring.ProviderCalls.WithLabelValues("speech", "error").Inc()
	logger.Log.Warn("Polly synthesis failed, using fallback", zap.Error(err))
}

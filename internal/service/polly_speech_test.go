package service

import (
	"adaptive_learning_backend/internal/config"
	"bytes"
	"context"
	"errors"
	"io"
	"testing"

	"github.com/aws/aws-sdk-go-v2/service/polly"
	pollytypes "github.com/aws/aws-sdk-go-v2/service/polly/types"
	"github.com/aws/smithy-go"
)

type fakePolly struct {
	input *polly.SynthesizeSpeechInput
	audio []byte
	err   error
}

func (f *fakePolly) SynthesizeSpeech(_ context.Context, params *polly.SynthesizeSpeechInput, _ ...func(*polly.Options)) (*polly.SynthesizeSpeechOutput, error) {
	f.input = params
	if f.err != nil {
		return nil, f.err
	}
	return &polly.SynthesizeSpeechOutput{AudioStream: io.NopCloser(bytes.NewReader(f.audio))}, nil
}

func TestPollySynthesizeSpeech(t *testing.T) {
	client := &fakePolly{audio: []byte("mp3-bytes")}
	p := newPollySpeechProvider(config.SpeechConfig{PollyVoice: "Matthew"}, 0, client)

	clip := p.SynthesizeSpeech(context.Background(), "Loops repeat work.")
	if clip == nil || string(clip.Audio) != "mp3-bytes" || clip.Format != "mp3" {
		t.Fatalf("unexpected clip: %+v", clip)
	}
	if client.input.Engine != pollytypes.EngineNeural {
		t.Fatalf("engine want=neural got=%s", client.input.Engine)
	}
	if client.input.VoiceId != pollytypes.VoiceId("Matthew") {
		t.Fatalf("voice want=Matthew got=%s", client.input.VoiceId)
	}
	if client.input.OutputFormat != pollytypes.OutputFormatMp3 {
		t.Fatalf("format want=mp3 got=%s", client.input.OutputFormat)
	}
}

func TestPollyErrorsReturnNil(t *testing.T) {
	errs := []error{
		&smithy.GenericAPIError{Code: "TooManyRequestsException", Message: "slow down"},
		context.DeadlineExceeded,
		errors.New("dial tcp: refused"),
	}
	for _, e := range errs {
		p := newPollySpeechProvider(config.SpeechConfig{}, 0, &fakePolly{err: e})
		if clip := p.SynthesizeSpeech(context.Background(), "hello"); clip != nil {
			t.Fatalf("error %v must yield nil clip", e)
		}
	}
}

func TestPollyEmptyTextSkipsCall(t *testing.T) {
	client := &fakePolly{audio: []byte("x")}
	p := newPollySpeechProvider(config.SpeechConfig{}, 0, client)
	if clip := p.SynthesizeSpeech(context.Background(), "   "); clip != nil {
		t.Fatalf("empty text must yield nil")
	}
	if client.input != nil {
		t.Fatalf("client must not be called for empty text")
	}
}

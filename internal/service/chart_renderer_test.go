package service

import (
	"bytes"
	"context"
	"testing"
)

var pngMagic = []byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n'}

func TestRenderAll(t *testing.T) {
	bp := NewFallbackSynthesizer().Blueprint("Java exception handling")
	r := NewChartRenderer()

	set, err := r.RenderAll(context.Background(), bp, true)
	if err != nil {
		t.Fatalf("RenderAll: %v", err)
	}
	for name, img := range map[string][]byte{"radar": set.Radar, "bar": set.Bar, "concept": set.ConceptMap} {
		if !bytes.HasPrefix(img, pngMagic) {
			t.Fatalf("%s chart is not a PNG", name)
		}
	}

	set, err = r.RenderAll(context.Background(), bp, false)
	if err != nil {
		t.Fatalf("RenderAll: %v", err)
	}
	if set.ConceptMap != nil {
		t.Fatalf("concept map must not be rendered when not requested")
	}
}

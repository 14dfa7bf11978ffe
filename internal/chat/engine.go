package chat

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"strings"
	"time"

	"github.com/varsilias/ollama-studio/internal/stream"
	"github.com/varsilias/ollama-studio/pkg/types"
)

// Engine opens a fragment stream for a generation request.
type Engine interface {
	Chat(ctx context.Context, req types.GenerationRequest) (stream.Reader, error)
}

// EchoEngine answers without any remote call. It is used for demos and tests.
type EchoEngine struct {
	minLatency time.Duration
}

func NewEchoEngine(minLatency time.Duration) *EchoEngine { return &EchoEngine{minLatency: minLatency} }

func (e *EchoEngine) Chat(ctx context.Context, req types.GenerationRequest) (stream.Reader, error) {
	if e.minLatency > 0 {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(e.minLatency):
		}
	}
	var prompt string
	if n := len(req.Messages); n > 0 {
		prompt = req.Messages[n-1].Content
	}

	if req.Modality == types.ModalityImage {
		img, err := placeholderPNG()
		if err != nil {
			return nil, err
		}
		return stream.FromFragments([]types.Fragment{types.TextDelta("rendering"), types.ImagePayload(img)}, nil), nil
	}

	text := fmt.Sprintf("(demo:%s) you said: %s", req.Model, prompt)
	words := strings.SplitAfter(text, " ")
	frags := make([]types.Fragment, 0, len(words))
	for _, w := range words {
		frags = append(frags, types.TextDelta(w))
	}
	return stream.FromFragments(frags, nil), nil
}

func placeholderPNG() ([]byte, error) {
	img := image.NewRGBA(image.Rect(0, 0, 8, 8))
	for x := 0; x < 8; x++ {
		for y := 0; y < 8; y++ {
			img.Set(x, y, color.RGBA{R: uint8(x * 32), G: uint8(y * 32), B: 160, A: 255})
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

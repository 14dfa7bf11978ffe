package chat

import (
	"context"

	"github.com/varsilias/ollama-studio/internal/ollama"
	"github.com/varsilias/ollama-studio/internal/stream"
	"github.com/varsilias/ollama-studio/pkg/types"
)

type OllamaEngine struct {
	c *ollama.Client
}

func NewOllamaEngine(c *ollama.Client) *OllamaEngine {
	return &OllamaEngine{
		c: c,
	}
}

func (e *OllamaEngine) Chat(ctx context.Context, req types.GenerationRequest) (stream.Reader, error) {
	s, err := e.c.Chat(ctx, req)
	if err != nil {
		return nil, err
	}
	return s, nil
}

package chat

import (
	"context"
	"errors"
	"io"
	"net/url"

	"github.com/sashabaranov/go-openai"

	"github.com/varsilias/ollama-studio/internal/apperr"
	"github.com/varsilias/ollama-studio/internal/stream"
	"github.com/varsilias/ollama-studio/pkg/types"
)

// OpenAIEngine talks to the OpenAI-compatible /v1 endpoint of the hosted
// service. It only produces text; image requests are rejected.
type OpenAIEngine struct {
	client *openai.Client
}

func NewOpenAIEngine(baseURL, apiKey string) (*OpenAIEngine, error) {
	v1, err := url.JoinPath(baseURL, "/v1")
	if err != nil {
		return nil, err
	}
	cfg := openai.DefaultConfig(apiKey)
	cfg.BaseURL = v1
	return &OpenAIEngine{client: openai.NewClientWithConfig(cfg)}, nil
}

func (e *OpenAIEngine) Chat(ctx context.Context, req types.GenerationRequest) (stream.Reader, error) {
	if err := req.Validate(); err != nil {
		return nil, apperr.Invalid("request", err.Error())
	}
	if req.Modality == types.ModalityImage {
		return nil, apperr.Invalid("model", "image generation needs the native transport")
	}
	msgs := make([]openai.ChatCompletionMessage, 0, len(req.Messages))
	for _, m := range req.Messages {
		msgs = append(msgs, openai.ChatCompletionMessage{Role: openAIRole(m.Role), Content: m.Content})
	}
	s, err := e.client.CreateChatCompletionStream(ctx, openai.ChatCompletionRequest{
		Model:    req.Model,
		Messages: msgs,
		Stream:   true,
	})
	if err != nil {
		return nil, apperr.Transport("chat", err)
	}
	return &openAIStream{s: s}, nil
}

func openAIRole(r types.Role) string {
	switch r {
	case types.RoleSystem:
		return openai.ChatMessageRoleSystem
	case types.RoleAssistant:
		return openai.ChatMessageRoleAssistant
	default:
		return openai.ChatMessageRoleUser
	}
}

type openAIStream struct {
	s *openai.ChatCompletionStream
}

func (o *openAIStream) Recv() (types.Fragment, error) {
	for {
		resp, err := o.s.Recv()
		if errors.Is(err, io.EOF) {
			return types.Fragment{}, io.EOF
		}
		if err != nil {
			return types.Fragment{}, apperr.Transport("recv", err)
		}
		if len(resp.Choices) == 0 || resp.Choices[0].Delta.Content == "" {
			continue
		}
		return types.TextDelta(resp.Choices[0].Delta.Content), nil
	}
}

func (o *openAIStream) Close() error {
	o.s.Close()
	return nil
}

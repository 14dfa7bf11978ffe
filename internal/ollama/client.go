package ollama

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/varsilias/ollama-studio/internal/apperr"
	"github.com/varsilias/ollama-studio/pkg/types"
)

type Client struct {
	baseURL string
	apiKey  string
	log     *slog.Logger
	client  *http.Client
	// streams has no client-side timeout; callers bound them with a context.
	streams *http.Client
}

type TagModel struct {
	Name       string    `json:"name"`
	Model      string    `json:"model"`
	Digest     string    `json:"digest"`
	Size       int64     `json:"size"`
	ModifiedAt time.Time `json:"modified_at"`
	Details    any       `json:"details"`
}

func NewClient(baseURL, apiKey string, log *slog.Logger) *Client {
	return &Client{
		baseURL: trimSlash(baseURL),
		apiKey:  apiKey,
		log:     log,
		client:  &http.Client{Timeout: 30 * time.Second},
		streams: &http.Client{Timeout: 0},
	}
}

func (c *Client) BaseURL() string { return c.baseURL }

func (c *Client) newRequest(ctx context.Context, method, path string, body io.Reader) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}
	return req, nil
}

func (c *Client) Ping(ctx context.Context) error {
	req, err := c.newRequest(ctx, http.MethodGet, "/api/version", nil)
	if err != nil {
		return err
	}
	res, err := c.client.Do(req)
	if err != nil {
		return apperr.Transport("ping", err)
	}
	data, _ := io.ReadAll(res.Body)
	res.Body.Close()
	c.log.Debug("ping response", "response", string(data))
	if res.StatusCode >= 400 {
		return apperr.Transport("ping", fmt.Errorf("status %d", res.StatusCode))
	}
	return nil
}

// Tags lists the models visible to the API key via GET /api/tags.
func (c *Client) Tags(ctx context.Context) ([]TagModel, error) {
	req, err := c.newRequest(ctx, http.MethodGet, "/api/tags", nil)
	if err != nil {
		return nil, err
	}
	res, err := c.client.Do(req)
	if err != nil {
		return nil, apperr.Transport("tags", err)
	}
	defer res.Body.Close()
	if res.StatusCode >= 400 {
		return nil, apperr.Transport("tags", fmt.Errorf("status %s", res.Status))
	}
	var out struct {
		Models []TagModel `json:"models"`
	}
	if err := json.NewDecoder(res.Body).Decode(&out); err != nil {
		return nil, apperr.Transport("tags", err)
	}
	return out.Models, nil
}

type chatMessage struct {
	Role    string   `json:"role"`
	Content string   `json:"content"`
	Images  []string `json:"images,omitempty"`
}

type chatRequest struct {
	Model    string        `json:"model"`
	Messages []chatMessage `json:"messages"`
	Stream   bool          `json:"stream"`
}

// Chat starts a streaming POST /api/chat. The returned stream must be closed.
func (c *Client) Chat(ctx context.Context, in types.GenerationRequest) (*ChatStream, error) {
	if err := in.Validate(); err != nil {
		return nil, apperr.Invalid("request", err.Error())
	}
	payload := chatRequest{Model: in.Model, Stream: true, Messages: make([]chatMessage, 0, len(in.Messages))}
	for _, m := range in.Messages {
		payload.Messages = append(payload.Messages, chatMessage{Role: string(m.Role), Content: m.Content})
	}
	b, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal chat request: %w", err)
	}
	req, err := c.newRequest(ctx, http.MethodPost, "/api/chat", bytes.NewReader(b))
	if err != nil {
		return nil, err
	}

	c.log.Debug("ollama chat", "model", in.Model, "messages", len(in.Messages), "modality", in.Modality)
	res, err := c.streams.Do(req)
	if err != nil {
		return nil, apperr.Transport("chat", err)
	}
	if res.StatusCode >= 400 {
		defer res.Body.Close()
		body, _ := io.ReadAll(io.LimitReader(res.Body, 4096))
		return nil, apperr.Transport("chat", fmt.Errorf("status %d: %s", res.StatusCode, errorText(body)))
	}
	return newChatStream(res.Body), nil
}

// errorText pulls the message out of an {"error": "..."} body when present.
func errorText(body []byte) string {
	var e struct {
		Error string `json:"error"`
	}
	if json.Unmarshal(body, &e) == nil && e.Error != "" {
		return e.Error
	}
	return strings.TrimSpace(string(body))
}

func trimSlash(s string) string {
	if len(s) > 0 && s[len(s)-1] == '/' {
		return s[:len(s)-1]
	}
	return s
}

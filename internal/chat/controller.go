package chat

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/varsilias/ollama-studio/internal/apperr"
	"github.com/varsilias/ollama-studio/internal/artifact"
	"github.com/varsilias/ollama-studio/internal/models"
	"github.com/varsilias/ollama-studio/internal/prompt"
	"github.com/varsilias/ollama-studio/internal/session"
	"github.com/varsilias/ollama-studio/internal/stream"
	"github.com/varsilias/ollama-studio/internal/tokens"
	"github.com/varsilias/ollama-studio/pkg/types"
)

const (
	ImageFileName     = "generated.png"
	articleNameLayout = "article_20060102_150405.txt"
)

type Options struct {
	// Timeout bounds a single generation request; zero disables it.
	Timeout time.Duration
	// MaxContextTokens trims chat history sent upstream; zero disables it.
	MaxContextTokens int
	Counter          *tokens.Counter
}

// Controller runs the console actions: article, image, recommendation,
// chat turns and chat reset.
type Controller struct {
	log       *slog.Logger
	eng       Engine
	sessions  session.Store
	models    models.Manager
	artifacts *artifact.Store
	counter   *tokens.Counter
	timeout   time.Duration
	now       func() time.Time
}

func NewController(log *slog.Logger, eng Engine, store session.Store, mgr models.Manager, artifacts *artifact.Store, opts Options) *Controller {
	counter := opts.Counter
	if counter == nil {
		counter = tokens.NewApproxCounter()
	}
	if opts.MaxContextTokens > 0 {
		eng = &budgetEngine{Engine: eng, counter: counter, budget: opts.MaxContextTokens, log: log}
	}
	return &Controller{
		log:       log,
		eng:       eng,
		sessions:  store,
		models:    mgr,
		artifacts: artifacts,
		counter:   counter,
		timeout:   opts.Timeout,
		now:       time.Now,
	}
}

func (c *Controller) Models() models.Manager { return c.models }

func (c *Controller) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if c.timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, c.timeout)
}

// CheckModel reports whether model may serve kind.
func (c *Controller) CheckModel(ctx context.Context, kind models.Kind, model string) error {
	if model == "" {
		return apperr.Invalid("model", "must not be empty")
	}
	return c.models.Healthy(ctx, kind, model)
}

// ChatTurn appends text to the session and streams the assistant reply
// through publish. The reply is only committed when the stream completes.
func (c *Controller) ChatTurn(ctx context.Context, sessionID, model, text string, publish func(string)) (types.Message, error) {
	if err := c.CheckModel(ctx, models.KindCoding, model); err != nil {
		return types.Message{}, err
	}
	cs, err := c.sessions.Get(ctx, sessionID)
	if err != nil {
		return types.Message{}, err
	}
	ctx, cancel := c.withTimeout(ctx)
	defer cancel()

	start := c.now()
	c.log.Info("chat turn", "session", sessionID, "model", model, "prompt_tokens", c.counter.Messages(cs.Messages()))
	reply, err := cs.Send(ctx, c.eng, model, text, publish)
	if err != nil {
		c.log.Warn("chat turn discarded", "session", sessionID, "model", model, "err", err)
		return types.Message{}, err
	}
	c.log.Info("chat turn committed", "session", sessionID, "model", model, "latency", c.now().Sub(start))
	c.save(ctx, cs.ID())
	return reply, nil
}

// ResetChat returns the session to its preamble-only state.
func (c *Controller) ResetChat(ctx context.Context, sessionID string) error {
	cs, err := c.sessions.Get(ctx, sessionID)
	if err != nil {
		return err
	}
	cs.Reset()
	c.log.Info("chat reset", "session", sessionID)
	c.save(ctx, sessionID)
	return nil
}

// History returns the visible turns of a session, without the preamble.
func (c *Controller) History(ctx context.Context, sessionID string) ([]types.Message, error) {
	cs, err := c.sessions.Get(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	return cs.History(), nil
}

type lister interface {
	List() []session.Summary
}

// Sessions lists known chat sessions when the store can enumerate them.
func (c *Controller) Sessions() []session.Summary {
	if l, ok := c.sessions.(lister); ok {
		return l.List()
	}
	return nil
}

// save mirrors the session to the store. A failed mirror does not undo the turn.
func (c *Controller) save(ctx context.Context, sessionID string) {
	cs, err := c.sessions.Get(ctx, sessionID)
	if err != nil {
		return
	}
	if err := c.sessions.Save(context.WithoutCancel(ctx), cs); err != nil {
		c.log.Warn("session save failed", "session", sessionID, "err", err)
	}
}

type ArticleResult struct {
	Text     string
	Artifact artifact.Artifact
}

// Article streams a generated article through publish and stores it as a
// timestamped text download.
func (c *Controller) Article(ctx context.Context, p prompt.ArticleParams, publish func(string)) (ArticleResult, error) {
	req, err := prompt.Article(p)
	if err != nil {
		return ArticleResult{}, err
	}
	if err := c.CheckModel(ctx, models.KindArticle, p.Model); err != nil {
		return ArticleResult{}, err
	}
	text, err := c.generateText(ctx, "article", req, publish)
	if err != nil {
		return ArticleResult{}, err
	}
	a := c.artifacts.Put(c.now().Format(articleNameLayout), "text/plain; charset=utf-8", []byte(text))
	return ArticleResult{Text: text, Artifact: a}, nil
}

type ImageResult struct {
	Artifact artifact.Artifact
}

// Image generates a picture from promptText. A blank prompt uses the
// default scene.
func (c *Controller) Image(ctx context.Context, promptText, model string) (ImageResult, error) {
	req, err := prompt.Image(promptText, model)
	if err != nil {
		return ImageResult{}, err
	}
	if err := c.CheckModel(ctx, models.KindImage, model); err != nil {
		return ImageResult{}, err
	}
	ctx, cancel := c.withTimeout(ctx)
	defer cancel()

	start := c.now()
	r, err := c.eng.Chat(ctx, req)
	if err != nil {
		c.log.Error("image request", "model", model, "err", err)
		return ImageResult{}, err
	}
	defer r.Close()
	img, err := stream.Image(r)
	if err != nil {
		c.log.Error("image stream", "model", model, "err", err)
		return ImageResult{}, err
	}
	if img == nil {
		return ImageResult{}, &apperr.EmptyResultError{What: "image"}
	}
	c.log.Info("image generated", "model", model, "bytes", len(img), "latency", c.now().Sub(start))
	a := c.artifacts.Put(ImageFileName, http.DetectContentType(img), img)
	return ImageResult{Artifact: a}, nil
}

type RecommendResult struct {
	Text  string
	Items []prompt.Video
}

func (c *Controller) Recommend(ctx context.Context, p prompt.RecommendationParams, publish func(string)) (RecommendResult, error) {
	req, err := prompt.Recommendation(p)
	if err != nil {
		return RecommendResult{}, err
	}
	if err := c.CheckModel(ctx, models.KindRecommend, p.Model); err != nil {
		return RecommendResult{}, err
	}
	text, err := c.generateText(ctx, "recommendations", req, publish)
	if err != nil {
		return RecommendResult{}, err
	}
	return RecommendResult{Text: text, Items: prompt.ParseRecommendations(text)}, nil
}

func (c *Controller) generateText(ctx context.Context, what string, req types.GenerationRequest, publish func(string)) (string, error) {
	ctx, cancel := c.withTimeout(ctx)
	defer cancel()

	start := c.now()
	c.log.Info("generate", "what", what, "model", req.Model, "prompt_tokens", c.counter.Messages(req.Messages))
	r, err := c.eng.Chat(ctx, req)
	if err != nil {
		c.log.Error("generate request", "what", what, "model", req.Model, "err", err)
		return "", err
	}
	defer r.Close()
	text, err := stream.Text(r, publish)
	if err != nil {
		c.log.Error("generate stream", "what", what, "model", req.Model, "err", err)
		return "", err
	}
	if text == "" {
		return "", &apperr.EmptyResultError{What: what}
	}
	c.log.Info("generated", "what", what, "model", req.Model, "latency", c.now().Sub(start))
	return text, nil
}

// budgetEngine trims the oldest turns of a request so it fits the token budget.
type budgetEngine struct {
	Engine
	counter *tokens.Counter
	budget  int
	log     *slog.Logger
}

func (e *budgetEngine) Chat(ctx context.Context, req types.GenerationRequest) (stream.Reader, error) {
	msgs, trimmed := e.counter.Trim(req.Messages, e.budget)
	if trimmed {
		e.log.Debug("context trimmed", "model", req.Model, "from", len(req.Messages), "to", len(msgs))
		req.Messages = msgs
	}
	return e.Engine.Chat(ctx, req)
}

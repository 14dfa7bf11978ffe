package api

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/varsilias/ollama-studio/internal/apperr"
	"github.com/varsilias/ollama-studio/internal/artifact"
	"github.com/varsilias/ollama-studio/internal/buildinfo"
	"github.com/varsilias/ollama-studio/internal/chat"
	"github.com/varsilias/ollama-studio/internal/middleware"
	"github.com/varsilias/ollama-studio/internal/models"
	"github.com/varsilias/ollama-studio/internal/prompt"
	"github.com/varsilias/ollama-studio/internal/session"
	"github.com/varsilias/ollama-studio/pkg/utils"
)

type Handlers struct {
	log   *slog.Logger
	chat  *chat.Controller
	Admin *Admin
}

func NewHandlers(log *slog.Logger, chatCtrl *chat.Controller) *Handlers {
	return &Handlers{log: log, chat: chatCtrl}
}

func (h *Handlers) fail(w http.ResponseWriter, r *http.Request, err error) {
	status := apperr.HTTPStatus(err)
	if status >= http.StatusInternalServerError {
		h.log.Error("api request failed", "path", r.URL.Path, "req_id", middleware.GetRequestID(r.Context()), "err", err)
	}
	utils.Error(w, status, apperr.UserMessage(err))
}

func (h *Handlers) decode(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := utils.DecodeJSON(r, v); err != nil {
		utils.Error(w, http.StatusBadRequest, "invalid json")
		return false
	}
	return true
}

// Health is a basic liveness endpoint.
func (h *Handlers) Health(w http.ResponseWriter, r *http.Request) {
	utils.JSON(w, http.StatusOK, map[string]any{
		"status":    true,
		"message":   "ollama-studio",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

func (h *Handlers) Version(w http.ResponseWriter, r *http.Request) {
	utils.JSON(w, http.StatusOK, buildinfo.Get())
}

// ListModels GET /api/models[?kind=coding]
func (h *Handlers) ListModels(w http.ResponseWriter, r *http.Request) {
	mgr := h.chat.Models()
	if k := r.URL.Query().Get("kind"); k != "" {
		kind, err := models.ParseKind(k)
		if err != nil {
			h.fail(w, r, err)
			return
		}
		items, err := mgr.List(r.Context(), kind)
		if err != nil {
			h.fail(w, r, err)
			return
		}
		utils.JSON(w, http.StatusOK, map[string]any{"kind": kind, "models": items, "default": models.Default(r.Context(), mgr, kind)})
		return
	}
	out := make(map[models.Kind][]string, len(models.Kinds))
	defaults := make(map[models.Kind]string, len(models.Kinds))
	for _, kind := range models.Kinds {
		items, err := mgr.List(r.Context(), kind)
		if err != nil {
			h.fail(w, r, err)
			return
		}
		out[kind] = items
		defaults[kind] = models.Default(r.Context(), mgr, kind)
	}
	utils.JSON(w, http.StatusOK, map[string]any{"models": out, "defaults": defaults})
}

type chatRequest struct {
	Model     string `json:"model"`
	Message   string `json:"message"`
	SessionID string `json:"session_id"`
}

// Chat POST /api/chat runs one coding-assistant turn and returns the full reply.
func (h *Handlers) Chat(w http.ResponseWriter, r *http.Request) {
	var req chatRequest
	if !h.decode(w, r, &req) {
		return
	}
	if req.SessionID == "" {
		req.SessionID = session.NewID()
	}
	start := time.Now()
	msg, err := h.chat.ChatTurn(r.Context(), req.SessionID, req.Model, req.Message, nil)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	utils.JSON(w, http.StatusOK, map[string]any{
		"response":   msg.Content,
		"timestamp":  msg.Timestamp.UTC().Format(time.RFC3339),
		"latency_ms": time.Since(start).Milliseconds(),
		"model":      req.Model,
		"session_id": req.SessionID,
	})
}

// ResetChat POST /api/chat/reset
func (h *Handlers) ResetChat(w http.ResponseWriter, r *http.Request) {
	var req struct {
		SessionID string `json:"session_id"`
	}
	if !h.decode(w, r, &req) {
		return
	}
	if err := h.chat.ResetChat(r.Context(), req.SessionID); err != nil {
		h.fail(w, r, err)
		return
	}
	utils.JSON(w, http.StatusOK, map[string]any{"ok": true, "message": "Chat has been reset", "session_id": req.SessionID})
}

// GetHistory GET /api/history/{id}
func (h *Handlers) GetHistory(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "id")
	history, err := h.chat.History(r.Context(), sessionID)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	out := make([]map[string]string, 0, len(history))
	for _, m := range history {
		out = append(out, map[string]string{"role": string(m.Role), "content": m.Content})
	}
	utils.JSON(w, http.StatusOK, map[string]any{"session_id": sessionID, "history": out})
}

// ListSessions GET /api/sessions
func (h *Handlers) ListSessions(w http.ResponseWriter, r *http.Request) {
	sums := h.chat.Sessions()
	if sums == nil {
		sums = []session.Summary{}
	}
	utils.JSON(w, http.StatusOK, map[string]any{"sessions": sums})
}

type download struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	ContentType string `json:"content_type"`
	URL         string `json:"url"`
}

func downloadOf(a artifact.Artifact) download {
	return download{ID: a.ID, Name: a.Name, ContentType: a.ContentType, URL: "/ui/artifacts/" + a.ID}
}

// Article POST /api/article
func (h *Handlers) Article(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Model    string `json:"model"`
		Title    string `json:"title"`
		Keywords string `json:"keywords"`
		Length   string `json:"length"`
		Tone     string `json:"tone"`
	}
	if !h.decode(w, r, &req) {
		return
	}
	res, err := h.chat.Article(r.Context(), prompt.ArticleParams{
		Model:    req.Model,
		Title:    req.Title,
		Keywords: req.Keywords,
		Length:   prompt.Length(req.Length),
		Tone:     prompt.Tone(req.Tone),
	}, nil)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	utils.JSON(w, http.StatusOK, map[string]any{"article": res.Text, "download": downloadOf(res.Artifact)})
}

// Image POST /api/image
func (h *Handlers) Image(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Model  string `json:"model"`
		Prompt string `json:"prompt"`
	}
	if !h.decode(w, r, &req) {
		return
	}
	res, err := h.chat.Image(r.Context(), req.Prompt, req.Model)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	utils.JSON(w, http.StatusOK, map[string]any{"download": downloadOf(res.Artifact)})
}

// Recommendations POST /api/recommendations
func (h *Handlers) Recommendations(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Model   string `json:"model"`
		Country string `json:"country"`
		Topic   string `json:"topic"`
		Count   int    `json:"count"`
	}
	if !h.decode(w, r, &req) {
		return
	}
	res, err := h.chat.Recommend(r.Context(), prompt.RecommendationParams{
		Model:   req.Model,
		Country: req.Country,
		Topic:   req.Topic,
		Count:   req.Count,
	}, nil)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	items := res.Items
	if items == nil {
		items = []prompt.Video{}
	}
	utils.JSON(w, http.StatusOK, map[string]any{"text": res.Text, "items": items})
}

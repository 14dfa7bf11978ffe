package ui

import (
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/varsilias/ollama-studio/internal/apperr"
	"github.com/varsilias/ollama-studio/internal/artifact"
	"github.com/varsilias/ollama-studio/internal/buildinfo"
	"github.com/varsilias/ollama-studio/internal/models"
	"github.com/varsilias/ollama-studio/internal/prompt"
	"github.com/varsilias/ollama-studio/internal/session"
	"github.com/varsilias/ollama-studio/pkg/types"
)

var tabs = []string{"article", "image", "coding", "recommend"}

// RegisterRoutes mounts the browser console. limit, when set, wraps every
// route that calls the model service.
func RegisterRoutes(mux chi.Router, h *UI, limit func(http.Handler) http.Handler) {
	mux.Get("/", h.Home)
	mux.Get("/ui/version-pill", h.VersionPill)
	mux.Post("/ui/session/new", h.NewSession)
	mux.Post("/ui/chat/reset", h.ResetChat)
	mux.Get("/ui/artifacts/{id}", h.Artifact)

	mux.Group(func(r chi.Router) {
		if limit != nil {
			r.Use(limit)
		}
		r.Post("/ui/chat", h.ChatPost)
		r.Post("/ui/article", h.ArticlePost)
		r.Post("/ui/image", h.ImagePost)
		r.Post("/ui/recommendations", h.RecommendPost)
	})
}

type homeData struct {
	Tab                string
	SessionID          string
	Models             map[string][]string
	Lengths            []prompt.Length
	Tones              []prompt.Tone
	Countries          []string
	DefaultImagePrompt string
	MinCount           int
	MaxCount           int
	History            []MsgView
	Sessions           []session.Summary
	Build              buildinfo.Info
}

// Home shows the console. The chat session comes from ?s=<id>; a visit
// without one is redirected to a fresh session.
func (u *UI) Home(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	sid := strings.TrimSpace(q.Get("s"))
	tab := q.Get("tab")
	if sid == "" {
		http.Redirect(w, r, homeURL(session.NewID(), tab), http.StatusFound)
		return
	}
	if !validTab(tab) {
		tab = tabs[0]
	}

	catalog := make(map[string][]string, len(models.Kinds))
	for _, kind := range models.Kinds {
		items, err := u.chat.Models().List(r.Context(), kind)
		if err != nil {
			u.log.Warn("model list", "kind", kind, "err", err)
		}
		catalog[string(kind)] = items
	}

	msgs, err := u.chat.History(r.Context(), sid)
	if err != nil {
		u.log.Warn("history", "session", sid, "err", err)
	}
	hist := make([]MsgView, 0, len(msgs))
	for _, m := range msgs {
		hist = append(hist, u.messageView(m, 0))
	}

	u.render(w, "index.html", homeData{
		Tab:                tab,
		SessionID:          sid,
		Models:             catalog,
		Lengths:            prompt.Lengths,
		Tones:              prompt.Tones,
		Countries:          prompt.Countries,
		DefaultImagePrompt: prompt.DefaultImagePrompt,
		MinCount:           prompt.MinRecommendations,
		MaxCount:           prompt.MaxRecommendations,
		History:            hist,
		Sessions:           u.chat.Sessions(),
		Build:              buildinfo.Get(),
	}, http.StatusOK)
}

func validTab(tab string) bool {
	for _, t := range tabs {
		if t == tab {
			return true
		}
	}
	return false
}

func homeURL(sid, tab string) string {
	v := url.Values{"s": {sid}}
	if tab != "" {
		v.Set("tab", tab)
	}
	return "/?" + v.Encode()
}

func (u *UI) messageView(m types.Message, latency time.Duration) MsgView {
	v := MsgView{Role: string(m.Role), HTML: u.mdHTML(m.Content), Latency: latency.Milliseconds()}
	if !m.Timestamp.IsZero() {
		v.At = m.Timestamp.Format(time.RFC822)
	}
	return v
}

func (u *UI) streamError(s *sse, err error) {
	_ = s.send("error", u.errorEvent(err))
}

func (u *UI) errorEvent(err error) errorEvent {
	status := apperr.HTTPStatus(err)
	if status >= http.StatusInternalServerError {
		u.log.Error("ui request failed", "err", err)
	}
	return errorEvent{Message: apperr.UserMessage(err), Status: status}
}

// ChatPost streams one chat turn as server-sent events: the user bubble, the
// growing assistant bubble, then done or error.
func (u *UI) ChatPost(w http.ResponseWriter, r *http.Request) {
	_ = r.ParseForm()
	model := r.Form.Get("model")
	msg := r.Form.Get("message")
	sid := r.Form.Get("session_id")
	if sid == "" {
		http.Error(w, "missing session_id", http.StatusBadRequest)
		return
	}
	s, ok := newSSE(w)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}
	if strings.TrimSpace(msg) == "" {
		u.streamError(s, apperr.Invalid("message", "must not be empty"))
		return
	}
	if err := u.chat.CheckModel(r.Context(), models.KindCoding, model); err != nil {
		u.streamError(s, err)
		return
	}

	user, err := u.partial("message.html", u.messageView(types.Message{Role: types.RoleUser, Content: msg, Timestamp: time.Now()}, 0))
	if err != nil {
		u.streamError(s, err)
		return
	}
	_ = s.send("user", htmlEvent{HTML: user})

	start := time.Now()
	reply, err := u.chat.ChatTurn(r.Context(), sid, model, msg, func(text string) {
		html, err := u.partial("message.html", MsgView{Role: string(types.RoleAssistant), HTML: u.mdHTML(text)})
		if err == nil {
			_ = s.send("partial", htmlEvent{HTML: html})
		}
	})
	if err != nil {
		ev := u.errorEvent(err)
		// a failed reply keeps the user turn; a refused turn never had one
		ev.Retract = errors.Is(err, apperr.ErrTurnInFlight)
		_ = s.send("error", ev)
		return
	}
	html, err := u.partial("message.html", u.messageView(reply, time.Since(start)))
	if err != nil {
		u.streamError(s, err)
		return
	}
	_ = s.send("done", doneEvent{HTML: html, LatencyMS: time.Since(start).Milliseconds()})
}

// ResetChat clears the session and returns the emptied chat log.
func (u *UI) ResetChat(w http.ResponseWriter, r *http.Request) {
	_ = r.ParseForm()
	sid := r.Form.Get("session_id")
	if err := u.chat.ResetChat(r.Context(), sid); err != nil {
		http.Error(w, apperr.UserMessage(err), apperr.HTTPStatus(err))
		return
	}
	u.render(w, "notice.html", map[string]string{"Kind": "success", "Text": "Chat has been reset"}, http.StatusOK)
}

// ArticlePost streams the article as rendered markdown and finishes with a
// download link for the text file.
func (u *UI) ArticlePost(w http.ResponseWriter, r *http.Request) {
	_ = r.ParseForm()
	params := prompt.ArticleParams{
		Model:    r.Form.Get("model"),
		Title:    r.Form.Get("title"),
		Keywords: r.Form.Get("keywords"),
		Length:   prompt.Length(r.Form.Get("length")),
		Tone:     prompt.Tone(r.Form.Get("tone")),
	}
	s, ok := newSSE(w)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}
	start := time.Now()
	res, err := u.chat.Article(r.Context(), params, func(text string) {
		_ = s.send("partial", htmlEvent{HTML: string(u.mdHTML(text))})
	})
	if err != nil {
		u.streamError(s, err)
		return
	}
	_ = s.send("done", doneEvent{
		HTML:      string(u.mdHTML(res.Text)),
		Download:  "/ui/artifacts/" + res.Artifact.ID,
		FileName:  res.Artifact.Name,
		LatencyMS: time.Since(start).Milliseconds(),
	})
}

// RecommendPost streams the recommendation list.
func (u *UI) RecommendPost(w http.ResponseWriter, r *http.Request) {
	_ = r.ParseForm()
	count, err := strconv.Atoi(r.Form.Get("count"))
	if err != nil {
		count = prompt.MinRecommendations
	}
	params := prompt.RecommendationParams{
		Model:   r.Form.Get("model"),
		Country: r.Form.Get("country"),
		Topic:   r.Form.Get("topic"),
		Count:   count,
	}
	s, ok := newSSE(w)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}
	start := time.Now()
	res, err := u.chat.Recommend(r.Context(), params, func(text string) {
		_ = s.send("partial", htmlEvent{HTML: string(u.mdHTML(text))})
	})
	if err != nil {
		u.streamError(s, err)
		return
	}
	html, err := u.partial("recommendations.html", map[string]any{
		"Items": res.Items,
		"Raw":   u.mdHTML(res.Text),
	})
	if err != nil {
		u.streamError(s, err)
		return
	}
	_ = s.send("done", doneEvent{HTML: html, LatencyMS: time.Since(start).Milliseconds()})
}

// ImagePost generates an image and returns the preview fragment.
func (u *UI) ImagePost(w http.ResponseWriter, r *http.Request) {
	_ = r.ParseForm()
	res, err := u.chat.Image(r.Context(), r.Form.Get("prompt"), r.Form.Get("model"))
	if err != nil {
		status := apperr.HTTPStatus(err)
		if status >= http.StatusInternalServerError {
			u.log.Error("image generation failed", "err", err)
		}
		// htmx only swaps 2xx responses; the notice carries the failure.
		u.render(w, "notice.html", map[string]string{"Kind": "error", "Text": apperr.UserMessage(err)}, http.StatusOK)
		return
	}
	u.render(w, "image.html", map[string]string{
		"URL":  "/ui/artifacts/" + res.Artifact.ID,
		"Name": res.Artifact.Name,
	}, http.StatusOK)
}

// Artifact serves a produced file. ?inline=1 shows it instead of downloading.
func (u *UI) Artifact(w http.ResponseWriter, r *http.Request) {
	a, err := u.artifacts.Get(chi.URLParam(r, "id"))
	if errors.Is(err, artifact.ErrNotFound) {
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	}
	disposition := "attachment"
	if r.URL.Query().Get("inline") == "1" {
		disposition = "inline"
	}
	w.Header().Set("Content-Type", a.ContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("%s; filename=%q", disposition, a.Name))
	w.Header().Set("Content-Length", strconv.Itoa(len(a.Data)))
	w.Header().Set("Cache-Control", "private, max-age=300")
	_, _ = w.Write(a.Data)
}

// NewSession creates a fresh session ID and redirects to /?s=...
func (u *UI) NewSession(w http.ResponseWriter, r *http.Request) {
	target := homeURL(session.NewID(), "coding")

	// If this is an HTMX request, instruct client to redirect
	if r.Header.Get("HX-Request") == "true" {
		w.Header().Set("HX-Redirect", target)
		w.WriteHeader(http.StatusNoContent)
		return
	}
	http.Redirect(w, r, target, http.StatusSeeOther)
}

func (u *UI) VersionPill(w http.ResponseWriter, r *http.Request) {
	// avoid caching so rollouts show quickly
	w.Header().Set("Cache-Control", "no-store")
	u.render(w, "version-pill.html", buildinfo.Get(), http.StatusOK)
}

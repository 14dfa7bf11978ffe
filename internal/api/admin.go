package api

import (
	"context"
	"net/http"
	"time"

	"github.com/varsilias/ollama-studio/internal/ollama"
	"github.com/varsilias/ollama-studio/pkg/utils"
)

type upstream interface {
	Ping(ctx context.Context) error
	Tags(ctx context.Context) ([]ollama.TagModel, error)
}

// Admin reports on the hosted model service the console talks to.
type Admin struct {
	oc      upstream
	baseURL string
}

func NewAdmin(oc *ollama.Client) *Admin { return &Admin{oc: oc, baseURL: oc.BaseURL()} }

// Upstream GET /admin/upstream
func (a *Admin) Upstream(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	start := time.Now()
	if err := a.oc.Ping(ctx); err != nil {
		utils.JSON(w, http.StatusBadGateway, map[string]any{"reachable": false, "base_url": a.baseURL, "error": err.Error()})
		return
	}
	latency := time.Since(start)

	res := map[string]any{"reachable": true, "base_url": a.baseURL, "latency_ms": latency.Milliseconds()}
	tags, err := a.oc.Tags(ctx)
	if err != nil {
		res["tags_error"] = err.Error()
	} else {
		names := make([]string, 0, len(tags))
		for _, t := range tags {
			names = append(names, t.Name)
		}
		res["models"] = names
	}
	utils.JSON(w, http.StatusOK, res)
}

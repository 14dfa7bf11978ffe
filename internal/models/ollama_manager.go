package models

import (
	"context"
	"fmt"
	"strings"

	"github.com/varsilias/ollama-studio/internal/apperr"
	"github.com/varsilias/ollama-studio/internal/ollama"
)

type tagLister interface {
	Tags(ctx context.Context) ([]ollama.TagModel, error)
}

// OllamaManager narrows a catalogue to the models the API key can see.
type OllamaManager struct {
	c       tagLister
	catalog *StaticManager
}

func NewOllamaManager(c *ollama.Client, catalog Catalog) *OllamaManager {
	return &OllamaManager{c: c, catalog: NewStaticManager(catalog)}
}

func (m *OllamaManager) List(ctx context.Context, kind Kind) ([]string, error) {
	want, _ := m.catalog.List(ctx, kind)
	items, err := m.c.Tags(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]string, 0, len(want))
	for _, name := range want {
		if hasTag(items, name) {
			out = append(out, name)
		}
	}
	return out, nil
}

func (m *OllamaManager) Healthy(ctx context.Context, kind Kind, model string) error {
	if err := m.catalog.Healthy(ctx, kind, model); err != nil {
		return err
	}
	// best-effort: if it's in tags, we consider it healthy
	items, err := m.c.Tags(ctx)
	if err != nil {
		return err
	}
	if !hasTag(items, model) {
		return fmt.Errorf("%w: %s is not available to this API key", apperr.ErrUnknownModel, model)
	}
	return nil
}

// hasTag accepts an exact match or a bare name matching a ":latest" tag.
func hasTag(items []ollama.TagModel, name string) bool {
	for _, it := range items {
		for _, n := range []string{it.Name, it.Model} {
			if n == name || strings.TrimSuffix(n, ":latest") == name {
				return true
			}
		}
	}
	return false
}

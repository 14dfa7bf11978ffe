package models

import (
	"context"
	"errors"
	"testing"

	"github.com/varsilias/ollama-studio/internal/apperr"
	"github.com/varsilias/ollama-studio/internal/ollama"
)

func TestStaticManager(t *testing.T) {
	ctx := context.Background()
	m := NewStaticManager(DefaultCatalog())

	items, err := m.List(ctx, KindCoding)
	if err != nil {
		t.Fatal(err)
	}
	if len(items) != len(DefaultCodingModels) || items[0] != "qwen3-coder-next" {
		t.Fatalf("unexpected coding catalogue %v", items)
	}
	items[0] = "mutated"
	if Default(ctx, m, KindCoding) != "qwen3-coder-next" {
		t.Fatalf("List must return a copy")
	}

	if err := m.Healthy(ctx, KindImage, "x/z-image-turbo"); err != nil {
		t.Fatalf("image model should be known: %v", err)
	}
	if err := m.Healthy(ctx, KindImage, "gpt-oss"); !errors.Is(err, apperr.ErrUnknownModel) {
		t.Fatalf("expected ErrUnknownModel, got %v", err)
	}
}

func TestParseKind(t *testing.T) {
	for _, k := range Kinds {
		got, err := ParseKind(string(k))
		if err != nil || got != k {
			t.Fatalf("ParseKind(%q) = %q, %v", k, got, err)
		}
	}
	if _, err := ParseKind("video"); !apperr.IsValidation(err) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

type fakeTags struct {
	items []ollama.TagModel
	err   error
}

func (f fakeTags) Tags(context.Context) ([]ollama.TagModel, error) { return f.items, f.err }

func TestOllamaManager(t *testing.T) {
	ctx := context.Background()
	m := &OllamaManager{
		c:       fakeTags{items: []ollama.TagModel{{Name: "gpt-oss:latest"}, {Name: "glm-5:cloud"}}},
		catalog: NewStaticManager(DefaultCatalog()),
	}

	items, err := m.List(ctx, KindCoding)
	if err != nil {
		t.Fatal(err)
	}
	if len(items) != 2 || items[0] != "glm-5:cloud" || items[1] != "gpt-oss" {
		t.Fatalf("unexpected filtered list %v", items)
	}
	if err := m.Healthy(ctx, KindCoding, "gpt-oss"); err != nil {
		t.Fatalf("gpt-oss should be healthy: %v", err)
	}
	if err := m.Healthy(ctx, KindCoding, "devstral-2"); !errors.Is(err, apperr.ErrUnknownModel) {
		t.Fatalf("expected ErrUnknownModel for hidden model, got %v", err)
	}

	m.c = fakeTags{err: apperr.Transport("tags", errors.New("boom"))}
	if _, err := m.List(ctx, KindArticle); !apperr.IsTransport(err) {
		t.Fatalf("expected transport error, got %v", err)
	}
}

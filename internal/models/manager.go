package models

import (
	"context"
	"fmt"

	"github.com/varsilias/ollama-studio/internal/apperr"
)

// Kind names the console feature a model catalogue belongs to.
type Kind string

const (
	KindArticle   Kind = "article"
	KindImage     Kind = "image"
	KindCoding    Kind = "coding"
	KindRecommend Kind = "recommend"
)

var Kinds = []Kind{KindArticle, KindImage, KindCoding, KindRecommend}

func ParseKind(s string) (Kind, error) {
	for _, k := range Kinds {
		if string(k) == s {
			return k, nil
		}
	}
	return "", apperr.Invalid("kind", fmt.Sprintf("unknown value %q", s))
}

// Catalog maps each feature to the models offered for it. The first entry is
// the default selection.
type Catalog map[Kind][]string

var (
	DefaultArticleModels = []string{
		"qwen3.5:cloud",
		"glm-5:cloud",
		"deepseek-v3.2:cloud",
		"mistral-large-3:675b-cloud",
		"gpt-oss",
		"gemma3",
	}
	DefaultImageModels  = []string{"x/z-image-turbo"}
	DefaultCodingModels = []string{
		"qwen3-coder-next",
		"qwen3-coder",
		"devstral-2",
		"deepseek-v3.1",
		"glm-5:cloud",
		"gpt-oss",
	}
)

func DefaultCatalog() Catalog {
	return Catalog{
		KindArticle:   DefaultArticleModels,
		KindImage:     DefaultImageModels,
		KindCoding:    DefaultCodingModels,
		KindRecommend: DefaultArticleModels,
	}
}

type Manager interface {
	List(ctx context.Context, kind Kind) ([]string, error)
	Healthy(ctx context.Context, kind Kind, model string) error
}

type StaticManager struct{ items Catalog }

func NewStaticManager(items Catalog) *StaticManager { return &StaticManager{items: items} }

func (m *StaticManager) List(ctx context.Context, kind Kind) ([]string, error) {
	return append([]string(nil), m.items[kind]...), nil
}

func (m *StaticManager) Healthy(ctx context.Context, kind Kind, model string) error {
	for _, x := range m.items[kind] {
		if x == model {
			return nil
		}
	}
	return fmt.Errorf("%w: %s is not offered for %s", apperr.ErrUnknownModel, model, kind)
}

// Default returns the first model of a kind, or "" when the catalogue is empty.
func Default(ctx context.Context, m Manager, kind Kind) string {
	items, err := m.List(ctx, kind)
	if err != nil || len(items) == 0 {
		return ""
	}
	return items[0]
}

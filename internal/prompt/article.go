// Package prompt turns form input into generation requests. Nothing here
// performs I/O.
package prompt

import (
	"fmt"
	"strings"

	"github.com/varsilias/ollama-studio/internal/apperr"
	"github.com/varsilias/ollama-studio/pkg/types"
)

type Length string

const (
	LengthShort  Length = "short"
	LengthMedium Length = "medium"
	LengthLong   Length = "long"
)

// Words is the approximate article size requested from the model.
func (l Length) Words() int {
	switch l {
	case LengthShort:
		return 500
	case LengthMedium:
		return 1000
	case LengthLong:
		return 2000
	}
	return 0
}

type Tone string

const (
	ToneFormal    Tone = "formal"
	ToneCasual    Tone = "casual"
	ToneSEO       Tone = "seo"
	ToneNarrative Tone = "narrative"
)

func (t Tone) Label() string {
	switch t {
	case ToneFormal:
		return "formal"
	case ToneCasual:
		return "casual"
	case ToneSEO:
		return "SEO friendly"
	case ToneNarrative:
		return "storytelling"
	}
	return ""
}

var (
	Lengths = []Length{LengthShort, LengthMedium, LengthLong}
	Tones   = []Tone{ToneFormal, ToneCasual, ToneSEO, ToneNarrative}
)

type ArticleParams struct {
	Model    string
	Title    string
	Keywords string
	Length   Length
	Tone     Tone
}

// Article builds a single user message asking for a structured article.
func Article(p ArticleParams) (types.GenerationRequest, error) {
	if strings.TrimSpace(p.Title) == "" {
		return types.GenerationRequest{}, apperr.Invalid("title", "must not be empty")
	}
	if err := requireModel(p.Model); err != nil {
		return types.GenerationRequest{}, err
	}
	words := p.Length.Words()
	if words == 0 {
		return types.GenerationRequest{}, apperr.Invalid("length", fmt.Sprintf("unknown value %q", p.Length))
	}
	tone := p.Tone.Label()
	if tone == "" {
		return types.GenerationRequest{}, apperr.Invalid("tone", fmt.Sprintf("unknown value %q", p.Tone))
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Write an article of about %d words in a %s style.\n", words, tone)
	fmt.Fprintf(&b, "Title: %s\n", p.Title)
	if kw := strings.TrimSpace(p.Keywords); kw != "" {
		fmt.Fprintf(&b, "Keywords: %s\n", kw)
	}
	b.WriteString(`
Structure:
- Introduction
- H2 and H3 subheadings
- Informative body
- Conclusion
`)

	return types.GenerationRequest{
		Model:    strings.TrimSpace(p.Model),
		Messages: []types.Message{{Role: types.RoleUser, Content: b.String()}},
		Modality: types.ModalityText,
	}, nil
}

func requireModel(model string) error {
	if strings.TrimSpace(model) == "" {
		return apperr.Invalid("model", "must not be empty")
	}
	return nil
}

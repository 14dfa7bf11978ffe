package prompt

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/varsilias/ollama-studio/internal/apperr"
	"github.com/varsilias/ollama-studio/pkg/types"
)

const (
	MinRecommendations = 3
	MaxRecommendations = 20
)

// Countries is the fixed set offered by the recommendations tab.
var Countries = []string{
	"Indonesia",
	"Malaysia",
	"Singapore",
	"Philippines",
	"Thailand",
	"Vietnam",
	"India",
	"Japan",
	"South Korea",
	"United States",
	"United Kingdom",
	"Australia",
}

type RecommendationParams struct {
	Model   string
	Country string
	Topic   string
	Count   int
}

// ClampCount keeps n within [MinRecommendations, MaxRecommendations].
func ClampCount(n int) int {
	if n < MinRecommendations {
		return MinRecommendations
	}
	if n > MaxRecommendations {
		return MaxRecommendations
	}
	return n
}

func Recommendation(p RecommendationParams) (types.GenerationRequest, error) {
	if err := requireModel(p.Model); err != nil {
		return types.GenerationRequest{}, err
	}
	country, ok := lookupCountry(p.Country)
	if !ok {
		return types.GenerationRequest{}, apperr.Invalid("country", fmt.Sprintf("unsupported value %q", p.Country))
	}
	if p.Count < 1 {
		return types.GenerationRequest{}, apperr.Invalid("count", "must be at least 1")
	}
	n := ClampCount(p.Count)

	system := fmt.Sprintf("You are a digital culture expert who follows the most popular videos and creators in %s.", country)
	user := fmt.Sprintf(
		"Recommend exactly %d popular videos that people in %s are watching right now. "+
			"Reply only with a numbered list, one item per line, using the format:\n1. Title - Channel",
		n, country,
	)
	if topic := strings.TrimSpace(p.Topic); topic != "" {
		user += fmt.Sprintf("\nFocus on the topic: %s.", topic)
	}

	return types.GenerationRequest{
		Model: strings.TrimSpace(p.Model),
		Messages: []types.Message{
			{Role: types.RoleSystem, Content: system},
			{Role: types.RoleUser, Content: user},
		},
		Modality: types.ModalityText,
	}, nil
}

func lookupCountry(name string) (string, bool) {
	name = strings.TrimSpace(name)
	for _, c := range Countries {
		if strings.EqualFold(c, name) {
			return c, true
		}
	}
	return "", false
}

// Video is one parsed recommendation line.
type Video struct {
	Title   string `json:"title"`
	Channel string `json:"channel"`
}

var numbered = regexp.MustCompile(`^\s*\d+[.)]\s+(.+)$`)

// ParseRecommendations reads "N. Title - Channel" lines from a model reply.
// Lines that do not follow the format are skipped.
func ParseRecommendations(text string) []Video {
	var out []Video
	for _, line := range strings.Split(text, "\n") {
		m := numbered.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		item := strings.Trim(strings.TrimSpace(m[1]), "*")
		i := strings.LastIndex(item, " - ")
		if i < 0 {
			out = append(out, Video{Title: strings.TrimSpace(item)})
			continue
		}
		out = append(out, Video{
			Title:   strings.Trim(strings.TrimSpace(item[:i]), `"*`),
			Channel: strings.Trim(strings.TrimSpace(item[i+3:]), `"*`),
		})
	}
	return out
}

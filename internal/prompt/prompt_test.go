package prompt

import (
	"strings"
	"testing"

	"github.com/varsilias/ollama-studio/internal/apperr"
	"github.com/varsilias/ollama-studio/pkg/types"
)

func TestArticleContainsTitleVerbatim(t *testing.T) {
	titles := []string{"Go Concurrency Patterns", "Résumé tips: 10 ideas!", "a", "Judul <b>HTML</b> & stuff", "  Go Tips  ", "\tTabbed"}
	for _, title := range titles {
		req, err := Article(ArticleParams{Model: "gpt-oss", Title: title, Length: LengthMedium, Tone: ToneFormal})
		if err != nil {
			t.Fatalf("Article(%q) error = %v", title, err)
		}
		if len(req.Messages) != 1 || req.Messages[0].Role != types.RoleUser {
			t.Fatalf("expected a single user message, got %+v", req.Messages)
		}
		if !strings.Contains(req.Messages[0].Content, title) {
			t.Fatalf("content does not contain title %q", title)
		}
	}
}

func TestArticleStructure(t *testing.T) {
	req, err := Article(ArticleParams{
		Model:    "qwen3.5:cloud",
		Title:    "Home Gardening",
		Keywords: "tomato, balcony",
		Length:   LengthLong,
		Tone:     ToneSEO,
	})
	if err != nil {
		t.Fatal(err)
	}
	content := req.Messages[0].Content
	for _, want := range []string{"2000 words", "SEO friendly", "Keywords: tomato, balcony", "Introduction", "H2 and H3 subheadings", "Informative body", "Conclusion"} {
		if !strings.Contains(content, want) {
			t.Errorf("content missing %q:\n%s", want, content)
		}
	}
	if req.Model != "qwen3.5:cloud" || req.Modality != types.ModalityText {
		t.Fatalf("unexpected request %+v", req)
	}

	req, _ = Article(ArticleParams{Model: "m", Title: "No keywords", Length: LengthShort, Tone: ToneCasual})
	if strings.Contains(req.Messages[0].Content, "Keywords:") {
		t.Fatalf("keywords line should be omitted when empty")
	}
}

func TestArticleValidation(t *testing.T) {
	tests := []struct {
		name  string
		p     ArticleParams
		field string
	}{
		{"empty title", ArticleParams{Model: "m", Title: "  ", Length: LengthShort, Tone: ToneFormal}, "title"},
		{"empty model", ArticleParams{Title: "t", Length: LengthShort, Tone: ToneFormal}, "model"},
		{"bad length", ArticleParams{Model: "m", Title: "t", Length: "huge", Tone: ToneFormal}, "length"},
		{"bad tone", ArticleParams{Model: "m", Title: "t", Length: LengthShort, Tone: "angry"}, "tone"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Article(tt.p)
			ve, ok := err.(*apperr.ValidationError)
			if !ok {
				t.Fatalf("expected *ValidationError, got %v", err)
			}
			if ve.Field != tt.field {
				t.Fatalf("field = %q, want %q", ve.Field, tt.field)
			}
		})
	}
}

func TestImageDefaultsPrompt(t *testing.T) {
	req, err := Image("   ", "x/z-image-turbo")
	if err != nil {
		t.Fatal(err)
	}
	if req.Messages[0].Content != DefaultImagePrompt || req.Modality != types.ModalityImage {
		t.Fatalf("unexpected request %+v", req)
	}
	req, _ = Image("a red fox", "x/z-image-turbo")
	if req.Messages[0].Content != "a red fox" {
		t.Fatalf("prompt not carried through: %q", req.Messages[0].Content)
	}
	if _, err := Image("fox", ""); !apperr.IsValidation(err) {
		t.Fatalf("expected validation error for missing model, got %v", err)
	}
}

func TestRecommendationIndonesiaWithoutTopic(t *testing.T) {
	req, err := Recommendation(RecommendationParams{Model: "gpt-oss", Country: "Indonesia", Topic: "", Count: 5})
	if err != nil {
		t.Fatal(err)
	}
	if len(req.Messages) != 2 || req.Messages[0].Role != types.RoleSystem || req.Messages[1].Role != types.RoleUser {
		t.Fatalf("expected system + user messages, got %+v", req.Messages)
	}
	if !strings.Contains(req.Messages[0].Content, "digital culture expert") {
		t.Fatalf("system persona missing: %q", req.Messages[0].Content)
	}
	user := req.Messages[1].Content
	if !strings.Contains(user, "exactly 5 ") {
		t.Fatalf("user message should request exactly 5 items: %q", user)
	}
	if !strings.Contains(user, "Title - Channel") {
		t.Fatalf("format clause missing: %q", user)
	}
	if strings.Contains(user, "Focus on the topic") {
		t.Fatalf("topic clause must be absent when topic is empty: %q", user)
	}
}

func TestRecommendationTopicAndClamp(t *testing.T) {
	req, err := Recommendation(RecommendationParams{Model: "m", Country: "japan", Topic: "cooking", Count: 50})
	if err != nil {
		t.Fatal(err)
	}
	user := req.Messages[1].Content
	if !strings.Contains(user, "Focus on the topic: cooking.") {
		t.Fatalf("topic clause missing: %q", user)
	}
	if !strings.Contains(user, "exactly 20 ") || !strings.Contains(user, "in Japan") {
		t.Fatalf("expected clamped count and canonical country: %q", user)
	}

	req, _ = Recommendation(RecommendationParams{Model: "m", Country: "Japan", Count: 1})
	if !strings.Contains(req.Messages[1].Content, "exactly 3 ") {
		t.Fatalf("expected count clamped up to 3: %q", req.Messages[1].Content)
	}
}

func TestRecommendationValidation(t *testing.T) {
	if _, err := Recommendation(RecommendationParams{Model: "m", Country: "Atlantis", Count: 5}); !apperr.IsValidation(err) {
		t.Fatalf("expected validation error for unknown country, got %v", err)
	}
	if _, err := Recommendation(RecommendationParams{Model: "m", Country: "Indonesia", Count: 0}); !apperr.IsValidation(err) {
		t.Fatalf("expected validation error for zero count, got %v", err)
	}
	if _, err := Recommendation(RecommendationParams{Country: "Indonesia", Count: 5}); !apperr.IsValidation(err) {
		t.Fatalf("expected validation error for empty model, got %v", err)
	}
}

func TestParseRecommendations(t *testing.T) {
	text := `Here you go:
1. Learn Go in 10 Minutes - Fireship
2) **Street Food Jakarta** - Mark Wiens
3. Untitled video
not a list line
4. Sorting - Algorithms - CS Dojo`

	got := ParseRecommendations(text)
	want := []Video{
		{Title: "Learn Go in 10 Minutes", Channel: "Fireship"},
		{Title: "Street Food Jakarta", Channel: "Mark Wiens"},
		{Title: "Untitled video"},
		{Title: "Sorting - Algorithms", Channel: "CS Dojo"},
	}
	if len(got) != len(want) {
		t.Fatalf("got %d items, want %d: %+v", len(got), len(want), got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("item %d = %+v, want %+v", i, got[i], want[i])
		}
	}
}

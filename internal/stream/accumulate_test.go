package stream

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/varsilias/ollama-studio/pkg/types"
)

func textFrags(parts ...string) []types.Fragment {
	out := make([]types.Fragment, 0, len(parts))
	for _, p := range parts {
		out = append(out, types.TextDelta(p))
	}
	return out
}

func TestTextConcatenatesAndPublishesEveryFragment(t *testing.T) {
	tests := []struct {
		name  string
		parts []string
	}{
		{"single", []string{"hello"}},
		{"several", []string{"def ", "bubble_sort(arr):\n", "..."}},
		{"with empty deltas", []string{"a", "", "b", ""}},
		{"unicode", []string{"héllo ", "wörld ", "🚀"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var published []string
			got, err := Text(FromFragments(textFrags(tt.parts...), nil), func(s string) {
				published = append(published, s)
			})
			if err != nil {
				t.Fatalf("Text() error = %v", err)
			}
			want := strings.Join(tt.parts, "")
			if got != want {
				t.Fatalf("Text() = %q, want %q", got, want)
			}
			if len(published) != len(tt.parts) {
				t.Fatalf("publish called %d times, want %d", len(published), len(tt.parts))
			}
			for i := 1; i < len(published); i++ {
				if len(published[i]) < len(published[i-1]) {
					t.Fatalf("cumulative length decreased at %d: %q -> %q", i, published[i-1], published[i])
				}
			}
			if published[len(published)-1] != want {
				t.Fatalf("last publish = %q, want %q", published[len(published)-1], want)
			}
		})
	}
}

func TestTextEmptyStream(t *testing.T) {
	calls := 0
	got, err := Text(FromFragments(nil, nil), func(string) { calls++ })
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "" || calls != 0 {
		t.Fatalf("expected empty result without publishes, got %q after %d calls", got, calls)
	}
}

func TestTextPropagatesErrorUnchanged(t *testing.T) {
	boom := errors.New("connection reset")
	got, err := Text(FromFragments(textFrags("par", "tial"), boom), nil)
	if err != boom {
		t.Fatalf("expected the reader error unchanged, got %v", err)
	}
	if got != "partial" {
		t.Fatalf("expected partial text to be reported to the caller, got %q", got)
	}
}

func TestTextIgnoresImageFragments(t *testing.T) {
	frags := []types.Fragment{types.TextDelta("a"), types.ImagePayload([]byte{1}), types.TextDelta("b")}
	calls := 0
	got, err := Text(FromFragments(frags, nil), func(string) { calls++ })
	if err != nil {
		t.Fatal(err)
	}
	if got != "ab" || calls != 2 {
		t.Fatalf("got %q with %d publishes", got, calls)
	}
}

func TestImageKeepsLastPayload(t *testing.T) {
	second := []byte{0x89, 'P', 'N', 'G'}
	frags := []types.Fragment{
		types.TextDelta("working"),
		types.ImagePayload(second),
		types.TextDelta("done"),
	}
	got, err := Image(FromFragments(frags, nil))
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(got, second) {
		t.Fatalf("Image() = %v, want %v", got, second)
	}

	frags = append(frags, types.ImagePayload([]byte("newer")), types.ImagePayload(nil))
	got, err = Image(FromFragments(frags, nil))
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != "newer" {
		t.Fatalf("expected most recent non-empty payload, got %q", got)
	}
}

func TestImageWithoutPayload(t *testing.T) {
	got, err := Image(FromFragments(textFrags("no", "image"), nil))
	if err != nil {
		t.Fatal(err)
	}
	if got != nil {
		t.Fatalf("expected nil payload, got %v", got)
	}
}

func TestImageError(t *testing.T) {
	boom := errors.New("dropped")
	if _, err := Image(FromFragments([]types.Fragment{types.ImagePayload([]byte{1})}, boom)); err != boom {
		t.Fatalf("expected %v, got %v", boom, err)
	}
}

// Package tokens estimates prompt sizes. Hosted models use their own
// tokenizers, so counts are approximations used for logging and budgeting.
package tokens

import (
	"strings"

	"github.com/pkoukk/tiktoken-go"

	"github.com/varsilias/ollama-studio/pkg/types"
)

const (
	// every message follows <im_start>{role}\n{content}<im_end>\n
	tokensPerMessage = 4
	// every reply is primed with <im_start>assistant
	replyPriming = 3
)

type Counter struct {
	enc *tiktoken.Tiktoken
}

// NewCounter loads the cl100k_base encoding. When it cannot be loaded the
// counter falls back to a word based estimate.
func NewCounter() *Counter {
	enc, err := tiktoken.GetEncoding("cl100k_base")
	if err != nil {
		return &Counter{}
	}
	return &Counter{enc: enc}
}

// NewApproxCounter never touches the tokenizer files.
func NewApproxCounter() *Counter { return &Counter{} }

func (c *Counter) Exact() bool { return c != nil && c.enc != nil }

func (c *Counter) Text(s string) int {
	if s == "" {
		return 0
	}
	if c.Exact() {
		return len(c.enc.Encode(s, nil, nil))
	}
	// roughly 100 tokens per 75 words
	return (len(strings.Fields(s))*100 + 74) / 75
}

func (c *Counter) Messages(msgs []types.Message) int {
	total := replyPriming
	for _, m := range msgs {
		total += tokensPerMessage + c.Text(m.Content)
	}
	return total
}

// Trim drops the oldest turns after the leading system message until msgs fit
// in budget. The system message and the newest message are always kept. A
// budget of zero or less disables trimming. The input slice is not modified.
func (c *Counter) Trim(msgs []types.Message, budget int) ([]types.Message, bool) {
	if budget <= 0 || len(msgs) <= 2 || c.Messages(msgs) <= budget {
		return msgs, false
	}
	head := 0
	if msgs[0].Role == types.RoleSystem {
		head = 1
	}
	rest := msgs[head:]
	for len(rest) > 1 {
		rest = rest[1:]
		out := append(append([]types.Message{}, msgs[:head]...), rest...)
		if c.Messages(out) <= budget {
			return out, true
		}
	}
	return append(append([]types.Message{}, msgs[:head]...), rest...), true
}

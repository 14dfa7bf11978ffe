// Package conversation keeps the ordered memory of one coding-assistant chat.
//
// A Session always starts with a single system message. Turns move through
// Idle -> AwaitingResponse -> Committed or Discarded; only a cleanly finished
// stream appends an assistant message, so a failed or cancelled reply never
// becomes part of the context sent with later turns.
package conversation

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/varsilias/ollama-studio/internal/apperr"
	"github.com/varsilias/ollama-studio/internal/stream"
	"github.com/varsilias/ollama-studio/pkg/types"
)

// Preamble is the system instruction every coding session starts with.
const Preamble = `You are a Senior Software Engineer and AI Coding Assistant.
Answer professionally.
When you write code:
- Provide complete code
- Follow best practices
- Add comments`

// Transport opens a fragment stream for a request.
type Transport interface {
	Chat(ctx context.Context, req types.GenerationRequest) (stream.Reader, error)
}

type State int

const (
	StateIdle State = iota
	StateAwaitingResponse
)

func (s State) String() string {
	if s == StateAwaitingResponse {
		return "awaiting_response"
	}
	return "idle"
}

type Session struct {
	mu       sync.Mutex
	id       string
	preamble string
	messages []types.Message
	state    State
	// epoch changes on Reset so a reply that finishes after a reset is dropped.
	epoch   uint64
	created time.Time
	updated time.Time
	now     func() time.Time
}

// New creates a session holding only the system preamble.
func New(id string) *Session {
	return NewWithPreamble(id, Preamble)
}

func NewWithPreamble(id, preamble string) *Session {
	s := &Session{id: id, preamble: preamble, now: time.Now}
	s.created = s.now()
	s.updated = s.created
	s.messages = []types.Message{s.systemMessage()}
	return s
}

// Snapshot is the persisted form of a session.
type Snapshot struct {
	ID        string          `json:"id"`
	Messages  []types.Message `json:"messages"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}

// Restore rebuilds a session from a snapshot. The first message must be the
// system preamble.
func Restore(snap Snapshot) (*Session, error) {
	if snap.ID == "" {
		return nil, apperr.Invalid("session id", "empty")
	}
	if len(snap.Messages) == 0 || snap.Messages[0].Role != types.RoleSystem {
		return nil, apperr.Invalid("session", "snapshot must start with a system message")
	}
	for _, m := range snap.Messages[1:] {
		if !m.Role.Valid() {
			return nil, apperr.Invalid("session", "unknown role "+string(m.Role))
		}
	}
	msgs := make([]types.Message, len(snap.Messages))
	copy(msgs, snap.Messages)
	return &Session{
		id:       snap.ID,
		preamble: msgs[0].Content,
		messages: msgs,
		created:  snap.CreatedAt,
		updated:  snap.UpdatedAt,
		now:      time.Now,
	}, nil
}

func (s *Session) ID() string { return s.id }

// systemMessage is stamped with the creation time so every reset yields the
// same message.
func (s *Session) systemMessage() types.Message {
	return types.Message{Role: types.RoleSystem, Content: s.preamble, Timestamp: s.created}
}

// AppendUserTurn adds a user message. Blank text is rejected, as is any append
// while a reply is still streaming.
func (s *Session) AppendUserTurn(text string) error {
	if strings.TrimSpace(text) == "" {
		return apperr.Invalid("message", "must not be empty")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == StateAwaitingResponse {
		return apperr.ErrTurnInFlight
	}
	s.appendLocked(types.RoleUser, text)
	return nil
}

func (s *Session) appendLocked(role types.Role, content string) {
	s.updated = s.now()
	s.messages = append(s.messages, types.Message{Role: role, Content: content, Timestamp: s.updated})
}

// SubmitAndStream sends the whole message sequence to t and streams the reply
// through publish. The assistant message is appended only when the stream is
// exhausted without error.
func (s *Session) SubmitAndStream(ctx context.Context, t Transport, model string, publish func(string)) (types.Message, error) {
	req, epoch, err := s.begin(model, "")
	if err != nil {
		return types.Message{}, err
	}
	return s.run(ctx, t, req, epoch, publish)
}

// Send appends text as a user turn and submits it in one step, so no other
// submission can slip in between.
func (s *Session) Send(ctx context.Context, t Transport, model, text string, publish func(string)) (types.Message, error) {
	if strings.TrimSpace(text) == "" {
		return types.Message{}, apperr.Invalid("message", "must not be empty")
	}
	req, epoch, err := s.begin(model, text)
	if err != nil {
		return types.Message{}, err
	}
	return s.run(ctx, t, req, epoch, publish)
}

func (s *Session) begin(model, userText string) (types.GenerationRequest, uint64, error) {
	if strings.TrimSpace(model) == "" {
		return types.GenerationRequest{}, 0, apperr.Invalid("model", "must not be empty")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == StateAwaitingResponse {
		return types.GenerationRequest{}, 0, apperr.ErrTurnInFlight
	}
	if userText != "" {
		s.appendLocked(types.RoleUser, userText)
	}
	s.state = StateAwaitingResponse
	msgs := make([]types.Message, len(s.messages))
	copy(msgs, s.messages)
	return types.GenerationRequest{Model: model, Messages: msgs, Modality: types.ModalityText}, s.epoch, nil
}

func (s *Session) run(ctx context.Context, t Transport, req types.GenerationRequest, epoch uint64, publish func(string)) (types.Message, error) {
	text, err := s.stream(ctx, t, req, publish)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = StateIdle
	if err != nil {
		return types.Message{}, err
	}
	if text == "" {
		return types.Message{}, &apperr.EmptyResultError{What: "reply"}
	}
	if s.epoch != epoch {
		return types.Message{}, apperr.ErrSessionReset
	}
	s.appendLocked(types.RoleAssistant, text)
	return s.messages[len(s.messages)-1], nil
}

func (s *Session) stream(ctx context.Context, t Transport, req types.GenerationRequest, publish func(string)) (string, error) {
	r, err := t.Chat(ctx, req)
	if err != nil {
		return "", err
	}
	defer r.Close()
	return stream.Text(r, publish)
}

// Reset drops every turn and leaves only the system message. Calling it again
// has no further effect.
func (s *Session) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.epoch++
	s.updated = s.now()
	s.messages = []types.Message{s.systemMessage()}
}

// Messages returns a copy of the full sequence, system message included.
func (s *Session) Messages() []types.Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]types.Message, len(s.messages))
	copy(out, s.messages)
	return out
}

// History returns the turns meant for display, without the system message.
func (s *Session) History() []types.Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]types.Message, len(s.messages)-1)
	copy(out, s.messages[1:])
	return out
}

func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

func (s *Session) UpdatedAt() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.updated
}

func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	msgs := make([]types.Message, len(s.messages))
	copy(msgs, s.messages)
	return Snapshot{ID: s.id, Messages: msgs, CreatedAt: s.created, UpdatedAt: s.updated}
}

// Title is a short label taken from the first user message.
func (s *Session) Title() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, m := range s.messages {
		if m.Role == types.RoleUser {
			return clip(m.Content, 40)
		}
	}
	return ""
}

func clip(s string, n int) string {
	s = strings.Join(strings.Fields(s), " ")
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "…"
}

package ollama

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/varsilias/ollama-studio/internal/apperr"
	"github.com/varsilias/ollama-studio/pkg/types"
)

// chatChunk is one NDJSON line of a streamed /api/chat response.
type chatChunk struct {
	Message struct {
		Role    string   `json:"role"`
		Content string   `json:"content"`
		Images  []string `json:"images"`
	} `json:"message"`
	Done       bool   `json:"done"`
	DoneReason string `json:"done_reason"`
	Error      string `json:"error"`
}

// ChatStream decodes the NDJSON body into fragments. A chunk carrying both
// text and images yields the text first, then the first non-empty image.
type ChatStream struct {
	body    io.ReadCloser
	dec     *json.Decoder
	pending []types.Fragment
	done    bool
	err     error
}

func newChatStream(body io.ReadCloser) *ChatStream {
	return &ChatStream{body: body, dec: json.NewDecoder(body)}
}

func (s *ChatStream) Recv() (types.Fragment, error) {
	for {
		if len(s.pending) > 0 {
			f := s.pending[0]
			s.pending = s.pending[1:]
			return f, nil
		}
		if s.err != nil {
			return types.Fragment{}, s.err
		}
		if s.done {
			return types.Fragment{}, io.EOF
		}
		s.err = s.next()
	}
}

func (s *ChatStream) next() error {
	var chunk chatChunk
	if err := s.dec.Decode(&chunk); err != nil {
		if errors.Is(err, io.EOF) {
			// the body ended before the service said it was done
			err = io.ErrUnexpectedEOF
		}
		return apperr.Transport("recv", err)
	}
	if chunk.Error != "" {
		return apperr.Transport("recv", errors.New(chunk.Error))
	}
	if chunk.Message.Content != "" {
		s.pending = append(s.pending, types.TextDelta(chunk.Message.Content))
	}
	for i, img := range chunk.Message.Images {
		if img == "" {
			continue
		}
		b, err := base64.StdEncoding.DecodeString(img)
		if err != nil {
			return apperr.Transport("recv", fmt.Errorf("decode image %d: %w", i, err))
		}
		s.pending = append(s.pending, types.ImagePayload(b))
		break
	}
	s.done = chunk.Done
	return nil
}

func (s *ChatStream) Close() error {
	return s.body.Close()
}

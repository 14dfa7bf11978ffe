package types

import (
	"errors"
	"strings"
	"time"
)

type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

func (r Role) Valid() bool {
	switch r {
	case RoleSystem, RoleUser, RoleAssistant:
		return true
	}
	return false
}

type Message struct {
	Role      Role      `json:"role"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
}

// Modality tells the accumulator how to interpret returned fragments.
type Modality string

const (
	ModalityText  Modality = "text"
	ModalityImage Modality = "image"
)

// GenerationRequest is one call to the hosted chat API. It is not retained
// after the call completes.
type GenerationRequest struct {
	Model    string
	Messages []Message
	Modality Modality
}

func (r GenerationRequest) Validate() error {
	if strings.TrimSpace(r.Model) == "" {
		return errors.New("model is required")
	}
	if len(r.Messages) == 0 {
		return errors.New("at least one message is required")
	}
	for _, m := range r.Messages {
		if !m.Role.Valid() {
			return errors.New("invalid role: " + string(m.Role))
		}
	}
	return nil
}

type FragmentKind uint8

const (
	FragmentText FragmentKind = iota + 1
	FragmentImage
)

// Fragment is one decoded unit of a streamed response. The end of a stream is
// not a fragment: readers return io.EOF instead.
type Fragment struct {
	Kind  FragmentKind
	Text  string
	Image []byte
}

func TextDelta(s string) Fragment { return Fragment{Kind: FragmentText, Text: s} }

func ImagePayload(b []byte) Fragment { return Fragment{Kind: FragmentImage, Image: b} }

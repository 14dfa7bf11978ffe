// Package stream folds a streamed model response into its final value.
package stream

import (
	"errors"
	"io"
	"strings"

	"github.com/varsilias/ollama-studio/pkg/types"
)

// Reader is a single-pass, forward-only fragment sequence. Recv returns io.EOF
// once the remote service has signalled completion.
type Reader interface {
	Recv() (types.Fragment, error)
	Close() error
}

// Text concatenates every text delta and calls publish with the cumulative text
// after each one. Image fragments are skipped. Errors from r are returned as-is
// together with the text gathered so far; the caller decides what to keep.
func Text(r Reader, publish func(string)) (string, error) {
	var sb strings.Builder
	for {
		f, err := r.Recv()
		if errors.Is(err, io.EOF) {
			return sb.String(), nil
		}
		if err != nil {
			return sb.String(), err
		}
		if f.Kind != types.FragmentText {
			continue
		}
		sb.WriteString(f.Text)
		if publish != nil {
			publish(sb.String())
		}
	}
}

// Image keeps the last non-empty image payload and ignores text deltas. An
// exhausted stream without any payload yields nil and no error.
func Image(r Reader) ([]byte, error) {
	var last []byte
	for {
		f, err := r.Recv()
		if errors.Is(err, io.EOF) {
			return last, nil
		}
		if err != nil {
			return nil, err
		}
		if f.Kind == types.FragmentImage && len(f.Image) > 0 {
			last = f.Image
		}
	}
}

type sliceReader struct {
	frags  []types.Fragment
	pos    int
	err    error
	closed bool
}

// FromFragments returns a Reader over frags. When err is non-nil it is
// returned instead of io.EOF after the fragments are exhausted.
func FromFragments(frags []types.Fragment, err error) Reader {
	return &sliceReader{frags: frags, err: err}
}

func (s *sliceReader) Recv() (types.Fragment, error) {
	if s.closed {
		return types.Fragment{}, errors.New("stream closed")
	}
	if s.pos >= len(s.frags) {
		if s.err != nil {
			return types.Fragment{}, s.err
		}
		return types.Fragment{}, io.EOF
	}
	f := s.frags[s.pos]
	s.pos++
	return f, nil
}

func (s *sliceReader) Close() error {
	s.closed = true
	return nil
}

package apperr

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"testing"
)

func TestTransportUnwrapsCause(t *testing.T) {
	err := Transport("chat", context.Canceled)
	if !IsTransport(err) {
		t.Fatalf("expected transport error, got %T", err)
	}
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected cause to be reachable through Unwrap")
	}

	again := Transport("recv", err)
	if again != err {
		t.Fatalf("expected an existing transport error to pass through unchanged")
	}
	if Transport("noop", nil) != nil {
		t.Fatalf("expected nil for nil cause")
	}
}

func TestHTTPStatus(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"validation", Invalid("title", "required"), http.StatusBadRequest},
		{"wrapped validation", fmt.Errorf("article: %w", Invalid("title", "required")), http.StatusBadRequest},
		{"unknown model", fmt.Errorf("x: %w", ErrUnknownModel), http.StatusBadRequest},
		{"in flight", ErrTurnInFlight, http.StatusConflict},
		{"empty", &EmptyResultError{What: "image"}, http.StatusUnprocessableEntity},
		{"transport", Transport("chat", errors.New("dial")), http.StatusBadGateway},
		{"other", errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := HTTPStatus(tt.err); got != tt.want {
				t.Errorf("HTTPStatus() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestConfigurationErrorMessage(t *testing.T) {
	err := &ConfigurationError{Key: "OLLAMA_API_KEY", Reason: "must be set"}
	if got := err.Error(); got != "configuration: OLLAMA_API_KEY: must be set" {
		t.Fatalf("unexpected message %q", got)
	}
	if !IsConfiguration(fmt.Errorf("load: %w", err)) {
		t.Fatalf("expected wrapped configuration error to be detected")
	}
}

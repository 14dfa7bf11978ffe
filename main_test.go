package main

import (
	"context"
	"testing"
	"time"

	"github.com/varsilias/ollama-studio/internal/chat"
	"github.com/varsilias/ollama-studio/internal/config"
	"github.com/varsilias/ollama-studio/internal/logging"
	"github.com/varsilias/ollama-studio/internal/ollama"
)

func TestWriteTimeout(t *testing.T) {
	if got := writeTimeout(0); got != 0 {
		t.Fatalf("writeTimeout(0) = %v", got)
	}
	if got := writeTimeout(5 * time.Minute); got != 5*time.Minute+30*time.Second {
		t.Fatalf("writeTimeout(5m) = %v", got)
	}
}

func TestNewEngine(t *testing.T) {
	oc := ollama.NewClient("https://ollama.com", "k", logging.Discard())
	tests := []struct {
		transport string
		check     func(chat.Engine) bool
	}{
		{config.TransportNative, func(e chat.Engine) bool { _, ok := e.(*chat.OllamaEngine); return ok }},
		{config.TransportOpenAI, func(e chat.Engine) bool { _, ok := e.(*chat.OpenAIEngine); return ok }},
		{config.TransportEcho, func(e chat.Engine) bool { _, ok := e.(*chat.EchoEngine); return ok }},
	}
	for _, tt := range tests {
		cfg := &config.Config{Ollama: config.Ollama{BaseURL: "https://ollama.com", APIKey: "k", Transport: tt.transport}}
		eng, err := newEngine(cfg, oc)
		if err != nil {
			t.Fatalf("%s: %v", tt.transport, err)
		}
		if !tt.check(eng) {
			t.Fatalf("%s: unexpected engine %T", tt.transport, eng)
		}
	}
}

func TestJanitorStopsWithContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	ticks := make(chan struct{}, 10)
	done := make(chan struct{})
	go func() {
		janitor(ctx, time.Millisecond, func() {
			select {
			case ticks <- struct{}{}:
			default:
			}
		})
		close(done)
	}()
	<-ticks
	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatalf("janitor did not stop")
	}
}

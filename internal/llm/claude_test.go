// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/pdiddy/evidence-engine/pkg/types"
)

func claudeTestServer(t *testing.T, handler http.HandlerFunc) *httptest.Server {
	t.Helper()
	ts := httptest.NewServer(handler)
	old := claudeAPIURL
	claudeAPIURL = ts.URL
	t.Cleanup(func() {
		claudeAPIURL = old
		ts.Close()
	})
	return ts
}

func TestClaudeComplete(t *testing.T) {
	var gotAuth, gotVersion string
	ts := claudeTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("x-api-key")
		gotVersion = r.Header.Get("anthropic-version")

		var req claudeRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decoding request: %v", err)
		}
		if len(req.Messages) != 1 || req.Messages[0].Role != "user" {
			t.Errorf("messages = %+v", req.Messages)
		}

		fmt.Fprint(w, `{"content": [{"type": "text", "text": "hello"}]}`)
	})

	b := NewClaudeBackend(types.AIConfig{APIKey: "test-key", Model: "test-model"})
	b.Client = ts.Client()

	got, err := b.Complete(context.Background(), "say hello")
	if err != nil {
		t.Fatalf("Complete() error: %v", err)
	}
	if got != "hello" {
		t.Errorf("Complete() = %q, want %q", got, "hello")
	}
	if gotAuth != "test-key" {
		t.Errorf("x-api-key = %q", gotAuth)
	}
	if gotVersion == "" {
		t.Error("anthropic-version header not set")
	}
}

func TestClaudeCompleteAPIError(t *testing.T) {
	ts := claudeTestServer(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		fmt.Fprint(w, `{"error": {"type": "authentication_error"}}`)
	})

	b := NewClaudeBackend(types.AIConfig{APIKey: "bad"})
	b.Client = ts.Client()

	if _, err := b.Complete(context.Background(), "prompt"); err == nil {
		t.Error("Complete() against 401 returned nil error")
	}
}

func TestClaudeCompleteNoTextBlock(t *testing.T) {
	ts := claudeTestServer(t, func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, `{"content": []}`)
	})

	b := NewClaudeBackend(types.AIConfig{APIKey: "k"})
	b.Client = ts.Client()

	if _, err := b.Complete(context.Background(), "prompt"); err == nil {
		t.Error("Complete() with empty content returned nil error")
	}
}

func TestNewBackend(t *testing.T) {
	tests := []struct {
		name     string
		cfg      types.AIConfig
		wantName string
		wantErr  bool
	}{
		{"claude", types.AIConfig{Provider: "claude", APIKey: "k"}, "claude", false},
		{"anthropic alias", types.AIConfig{Provider: "anthropic", APIKey: "k"}, "claude", false},
		{"openai", types.AIConfig{Provider: "openai", APIKey: "k"}, "openai", false},
		{"openai without key", types.AIConfig{Provider: "openai"}, "", true},
		{"empty", types.AIConfig{}, "", true},
		{"unknown", types.AIConfig{Provider: "bard"}, "", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b, err := NewBackend(tt.cfg)
			if tt.wantErr {
				if err == nil {
					t.Error("NewBackend() = nil error, want error")
				}
				return
			}
			if err != nil {
				t.Fatalf("NewBackend() error: %v", err)
			}
			if b.Name() != tt.wantName {
				t.Errorf("Name() = %q, want %q", b.Name(), tt.wantName)
			}
		})
	}
}

func TestStripCodeFence(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{`{"a":1}`, `{"a":1}`},
		{"```json\n{\"a\":1}\n```", `{"a":1}`},
		{"```\n{\"a\":1}\n```", `{"a":1}`},
		{"  {\"a\":1}  ", `{"a":1}`},
	}
	for _, tt := range tests {
		if got := stripCodeFence(tt.in); got != tt.want {
			t.Errorf("stripCodeFence(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

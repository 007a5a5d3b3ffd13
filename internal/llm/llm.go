// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package llm talks to a generative-text service. The pipeline uses it for
// three collaborator contracts: search-query drafting, relevance
// assessment, and narrative extraction. Every contract degrades locally —
// a failed call yields a neutral or placeholder value, never a pipeline
// error.
//
// See docs/ARCHITECTURE § Collaborators.
package llm

import (
	"context"
	"fmt"
	"strings"

	"github.com/pdiddy/evidence-engine/pkg/types"
)

// Backend sends one prompt to a generative-text API and returns the raw
// text of the response. Implementations: ClaudeBackend, OpenAIBackend.
type Backend interface {
	Name() string
	Complete(ctx context.Context, prompt string) (string, error)
}

// NewBackend builds the configured backend. An unknown provider is a
// configuration error surfaced at startup, not mid-run.
func NewBackend(cfg types.AIConfig) (Backend, error) {
	switch strings.ToLower(cfg.Provider) {
	case "claude", "anthropic":
		return NewClaudeBackend(cfg), nil
	case "openai":
		return NewOpenAIBackend(cfg)
	case "":
		return nil, fmt.Errorf("no AI provider configured")
	default:
		return nil, fmt.Errorf("unknown AI provider %q (want claude or openai)", cfg.Provider)
	}
}

// stripCodeFence removes a surrounding Markdown code fence, which models
// sometimes wrap JSON responses in despite instructions.
func stripCodeFence(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}

// Package answer turns retrieved passages into a generated answer.
package answer

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/kotaehq/kotae/internal/llm"
	"github.com/kotaehq/kotae/internal/models"
	"github.com/kotaehq/kotae/internal/prompt"
)

// Assemble joins passage contents into a single context block, separated by
// blank lines, in retrieval order.
func Assemble(passages []models.Passage) string {
	parts := make([]string, len(passages))
	for i, p := range passages {
		parts[i] = p.Content
	}
	return strings.Join(parts, "\n\n")
}

// Generator fills the generation prompt with retrieved context and invokes a
// chat backend.
type Generator struct {
	backend llm.Backend
	prompts *prompt.Registry
	logger  *zap.Logger
}

// Option configures a Generator.
type Option func(*Generator)

// WithLogger sets the logger used for generation failures.
func WithLogger(l *zap.Logger) Option {
	return func(g *Generator) { g.logger = l }
}

// NewGenerator returns a generator over the given backend and prompt registry.
func NewGenerator(backend llm.Backend, prompts *prompt.Registry, opts ...Option) *Generator {
	g := &Generator{backend: backend, prompts: prompts, logger: zap.NewNop()}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Generate produces an answer for the query grounded in the given passages.
// It never returns an error: any failure, from prompt filling to the backend
// call, is folded into the returned string so a degraded answer reaches the
// caller instead of an exception.
func (g *Generator) Generate(ctx context.Context, query string, passages []models.Passage) string {
	filled, err := g.prompts.Fill(prompt.GenerationPrompt, map[string]string{
		"context":  Assemble(passages),
		"question": query,
	})
	if err != nil {
		g.logger.Error("prompt fill failed", zap.Error(err))
		return fmt.Sprintf("Failed to generate an answer: %v", err)
	}

	response, err := g.backend.Invoke(ctx, filled)
	if err != nil {
		g.logger.Error("answer generation failed", zap.String("query", query), zap.Error(err))
		return fmt.Sprintf("Failed to generate an answer: %v", err)
	}
	return extractText(response)
}

// extractText pulls answer text out of a backend response. The accepted
// shapes form a closed set: plain strings, *llm.Message, and a string
// rendering of anything else.
func extractText(response any) string {
	switch v := response.(type) {
	case string:
		return v
	case *llm.Message:
		return v.Content
	default:
		return fmt.Sprint(v)
	}
}

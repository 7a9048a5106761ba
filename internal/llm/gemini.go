package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"google.golang.org/genai"
)

// GeminiConfig configures the Gemini chat backend.
type GeminiConfig struct {
	APIKey      string
	Model       string
	Temperature float32
}

// GeminiBackend calls the Gemini API through the genai SDK.
type GeminiBackend struct {
	client      *genai.Client
	model       string
	temperature float32
}

// NewGeminiBackend returns a chat backend for the Gemini API.
func NewGeminiBackend(ctx context.Context, cfg GeminiConfig) (*GeminiBackend, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("gemini: missing API key")
	}
	if cfg.Model == "" {
		cfg.Model = "gemini-2.0-flash"
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("initialize genai client: %w", err)
	}
	return &GeminiBackend{client: client, model: cfg.Model, temperature: cfg.Temperature}, nil
}

// Invoke sends the prompt and returns the concatenated candidate text as a
// string.
func (b *GeminiBackend) Invoke(ctx context.Context, prompt string) (any, error) {
	contents := []*genai.Content{genai.NewContentFromText(prompt, genai.RoleUser)}
	config := &genai.GenerateContentConfig{
		Temperature: genai.Ptr(b.temperature),
	}

	resp, err := b.client.Models.GenerateContent(ctx, b.model, contents, config)
	if err != nil {
		return nil, fmt.Errorf("gemini generation failed: %w", err)
	}

	var text strings.Builder
	if resp != nil {
		for _, candidate := range resp.Candidates {
			if candidate.Content == nil {
				continue
			}
			for _, part := range candidate.Content.Parts {
				if part.Text != "" {
					text.WriteString(part.Text)
				}
			}
			if text.Len() > 0 {
				break
			}
		}
	}
	if text.Len() == 0 {
		return nil, errors.New("gemini: no response generated")
	}
	return text.String(), nil
}

// Package prompt stores named prompt templates and fills their placeholders.
package prompt

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"sync"
)

// ErrNotFound is returned by Get for an unregistered template name.
var ErrNotFound = errors.New("prompt not found")

// GenerationPrompt is the name of the default answer-generation template.
const GenerationPrompt = "generation_prompt"

const generationTemplate = `You are a helpful and knowledgeable assistant.

Use the following context to answer the question accurately and concisely.

Context:
{context}

Question:
{question}

Answer:`

// placeholderPattern matches {name} placeholders inside a template.
var placeholderPattern = regexp.MustCompile(`\{([a-zA-Z_][a-zA-Z0-9_]*)\}`)

// Registry holds named templates. It is safe for concurrent use; the default
// registry ships with the generation prompt preloaded.
type Registry struct {
	mu        sync.RWMutex
	templates map[string]string
}

// NewRegistry returns a registry preloaded with the default templates.
func NewRegistry() *Registry {
	return &Registry{
		templates: map[string]string{
			GenerationPrompt: generationTemplate,
		},
	}
}

// Register adds or replaces a template under the given name.
func (r *Registry) Register(name, template string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.templates[name] = template
}

// Get returns the template registered under name.
func (r *Registry) Get(name string) (string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	tmpl, ok := r.templates[name]
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrNotFound, name)
	}
	return tmpl, nil
}

// Names returns the registered template names.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.templates))
	for name := range r.templates {
		names = append(names, name)
	}
	return names
}

// Fill looks up the named template and substitutes every {placeholder} with
// its value. A placeholder with no value is an error; unused values are
// ignored.
func (r *Registry) Fill(name string, values map[string]string) (string, error) {
	tmpl, err := r.Get(name)
	if err != nil {
		return "", err
	}
	return Fill(tmpl, values)
}

// Fill substitutes {placeholder} occurrences in template with values.
func Fill(template string, values map[string]string) (string, error) {
	var missing []string
	filled := placeholderPattern.ReplaceAllStringFunc(template, func(m string) string {
		key := m[1 : len(m)-1]
		v, ok := values[key]
		if !ok {
			missing = append(missing, key)
			return m
		}
		return v
	})
	if len(missing) > 0 {
		return "", fmt.Errorf("missing placeholder values: %s", strings.Join(missing, ", "))
	}
	return filled, nil
}

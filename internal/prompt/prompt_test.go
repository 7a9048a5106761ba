package prompt

import (
	"errors"
	"strings"
	"testing"
)

func TestRegistryGet(t *testing.T) {
	r := NewRegistry()

	tmpl, err := r.Get(GenerationPrompt)
	if err != nil {
		t.Fatalf("Get(%s): %v", GenerationPrompt, err)
	}
	for _, want := range []string{"{context}", "{question}", "Answer:"} {
		if !strings.Contains(tmpl, want) {
			t.Errorf("generation template missing %q", want)
		}
	}

	if _, err := r.Get("nope"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Get(nope) = %v, want ErrNotFound", err)
	}
}

func TestRegistryRegister(t *testing.T) {
	r := NewRegistry()
	r.Register("greeting", "Hello, {name}!")

	got, err := r.Fill("greeting", map[string]string{"name": "world"})
	if err != nil {
		t.Fatalf("Fill: %v", err)
	}
	if got != "Hello, world!" {
		t.Errorf("got %q", got)
	}

	// Register overwrites.
	r.Register("greeting", "Hi, {name}.")
	got, _ = r.Fill("greeting", map[string]string{"name": "world"})
	if got != "Hi, world." {
		t.Errorf("got %q after overwrite", got)
	}
}

func TestFill(t *testing.T) {
	tests := []struct {
		name     string
		template string
		values   map[string]string
		want     string
		wantErr  bool
	}{
		{
			name:     "both placeholders",
			template: "C: {context}\nQ: {question}",
			values:   map[string]string{"context": "ctx", "question": "q"},
			want:     "C: ctx\nQ: q",
		},
		{
			name:     "repeated placeholder",
			template: "{x} and {x}",
			values:   map[string]string{"x": "a"},
			want:     "a and a",
		},
		{
			name:     "missing value",
			template: "{context} {question}",
			values:   map[string]string{"context": "ctx"},
			wantErr:  true,
		},
		{
			name:     "unused values ignored",
			template: "plain text",
			values:   map[string]string{"extra": "x"},
			want:     "plain text",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Fill(tt.template, tt.values)
			if tt.wantErr {
				if err == nil {
					t.Fatal("want error, got nil")
				}
				return
			}
			if err != nil {
				t.Fatalf("Fill: %v", err)
			}
			if got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestFillMissingNamesAll(t *testing.T) {
	_, err := Fill("{a} {b}", nil)
	if err == nil {
		t.Fatal("want error")
	}
	if !strings.Contains(err.Error(), "a") || !strings.Contains(err.Error(), "b") {
		t.Errorf("error %q should name both missing placeholders", err)
	}
}

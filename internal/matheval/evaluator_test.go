package matheval

import (
	"strings"
	"testing"
)

func TestEvaluate(t *testing.T) {
	e := NewEvaluator()
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"addition", "2+2", "4.0"},
		{"power", "2^3", "8.0"},
		{"sqrt", "sqrt(16)", "4.0"},
		{"log base 10", "log(100)", "2.0"},
		{"division", "10/4", "2.5"},
		{"natural language", "what is 2 plus 2", "4.0"},
		{"natural language power", "what is 2 to the power of 3", "8.0"},
		{"square root phrase", "square root of 16", "4.0"},
		{"nested", "sqrt(16)+2", "6.0"},
		{"parentheses", "(2+3)*4", "20.0"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := e.Evaluate(tt.in)
			if got != tt.want {
				t.Errorf("Evaluate(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestEvaluateLogIsBase10(t *testing.T) {
	e := NewEvaluator()
	// log must be base 10: log(e) would be 1.0 under natural log.
	got := e.Evaluate("log(2.718281828)")
	if got == "1.0" {
		t.Fatalf("log(e) = %q: log is natural log, want base 10", got)
	}
	if !strings.HasPrefix(got, "0.4342944819") {
		t.Errorf("log(2.718281828) = %q, want ~0.4342944819", got)
	}
}

func TestEvaluateInvalidExpression(t *testing.T) {
	e := NewEvaluator()
	tests := []struct {
		name string
		in   string
	}{
		{"dangling operators", "2 + + +"},
		{"trailing operator", "5*"},
		{"leading multiply", "*5"},
		{"empty input", ""},
		{"disallowed characters", "2 & 3"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := e.Evaluate(tt.in)
			if !strings.HasPrefix(got, "Invalid expression:") {
				t.Errorf("Evaluate(%q) = %q, want invalid-expression diagnostic", tt.in, got)
			}
			if !strings.Contains(got, "sqrt, log, sin, cos, tan") {
				t.Errorf("diagnostic %q does not name the supported operator set", got)
			}
		})
	}
}

func TestEvaluateNeverPanics(t *testing.T) {
	e := NewEvaluator()
	for _, s := range []string{"", "((((", "sqrt()", "log", "1/0", "9999^9999"} {
		got := e.Evaluate(s)
		if got == "" {
			t.Errorf("Evaluate(%q) returned empty string, want diagnostic or result", s)
		}
	}
}

func TestEvaluateNumericPassthrough(t *testing.T) {
	e := NewEvaluator()
	if got := e.Evaluate("42"); got != "42.0" {
		t.Errorf("Evaluate(42) = %q, want 42.0", got)
	}
}

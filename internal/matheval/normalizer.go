// Package matheval evaluates arithmetic and natural-language math expressions.
package matheval

import (
	"regexp"
	"strings"
	"unicode"
)

// questionPrefixes are stripped from the start of a natural-language query.
// Only the first matching prefix is removed, at most once.
var questionPrefixes = []string{
	"what is ", "what's ", "calculate ", "compute ", "find ", "what would be ",
	"can you tell me ", "tell me ", "solve ", "evaluate ",
}

// sqrtPattern matches "[the] square root of <expr>" where <expr> runs up to a
// question mark, end of string, or a following alphabetic word.
var sqrtPattern = regexp.MustCompile(`(?:the\s+)?square\s+root\s+of\s+(.+?)(?:\?|$|\s+[a-zA-Z])`)

// verbalOperators maps spoken operator words to symbols. Order matters:
// "to the power of" must be replaced before the shorter "to the".
var verbalOperators = []struct {
	pattern *regexp.Regexp
	symbol  string
}{
	{regexp.MustCompile(`\bplus\b`), "+"},
	{regexp.MustCompile(`\bminus\b`), "-"},
	{regexp.MustCompile(`\btimes\b`), "*"},
	{regexp.MustCompile(`\bdivided\s+by\b`), "/"},
	{regexp.MustCompile(`\bto\s+the\s+power\s+of\b`), "^"},
	{regexp.MustCompile(`\bto\s+the\b`), "^"},
	{regexp.MustCompile(`\bsquared\b`), "^2"},
	{regexp.MustCompile(`\bcubed\b`), "^3"},
}

// expressionChars is the set of characters allowed in a canonical expression:
// digits, arithmetic symbols, parentheses, decimal point, space, and the
// letters composing sqrt, log, sin, cos, tan.
const expressionChars = "0123456789+-*/()^.sqrtlogsincostan "

// Normalize converts a free-form natural-language math question into a
// canonical symbolic expression string. It is a best-effort heuristic, not a
// parser: it never fails, and for unintelligible input it returns an empty or
// nonsensical string that the evaluator will reject.
func Normalize(raw string) string {
	if isNumeric(raw) {
		return raw
	}
	if !containsAlpha(raw) {
		return raw
	}

	query := strings.ToLower(strings.TrimSpace(raw))

	for _, prefix := range questionPrefixes {
		if strings.HasPrefix(query, prefix) {
			query = query[len(prefix):]
			break
		}
	}

	if loc := sqrtPattern.FindStringSubmatchIndex(query); loc != nil {
		matched := query[loc[0]:loc[1]]
		inner := strings.TrimSpace(query[loc[2]:loc[3]])
		query = strings.Replace(query, matched, "sqrt("+inner+")", 1)
	}

	for _, op := range verbalOperators {
		query = op.pattern.ReplaceAllString(query, op.symbol)
	}

	query = strings.NewReplacer("?", "", "!", "").Replace(query)

	var b strings.Builder
	for _, c := range query {
		if strings.ContainsRune(expressionChars, c) {
			b.WriteRune(c)
		}
	}
	return strings.TrimSpace(b.String())
}

// isNumeric reports whether s, after trimming whitespace and removing decimal
// points, consists solely of digits.
func isNumeric(s string) bool {
	s = strings.ReplaceAll(strings.TrimSpace(s), ".", "")
	if s == "" {
		return false
	}
	for _, c := range s {
		if !unicode.IsDigit(c) {
			return false
		}
	}
	return true
}

func containsAlpha(s string) bool {
	for _, c := range s {
		if unicode.IsLetter(c) {
			return true
		}
	}
	return false
}

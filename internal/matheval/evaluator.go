package matheval

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/Knetic/govaluate"
	"github.com/expr-lang/expr"
	"go.starlark.net/starlark"
	"go.uber.org/zap"
)

// validExpression is the character set a canonical expression may use:
// digits, + - * / ( ) . ^ and the letters composing sqrt, log, sin, cos, tan.
var validExpression = regexp.MustCompile(`^[0-9+\-*/().^sqrtlogsincostan]+$`)

var whitespace = regexp.MustCompile(`\s+`)

// Strategy is one named evaluation stage: a pure function from a canonical
// expression to a result string or a failure.
type Strategy struct {
	Name string
	Eval func(expression string) (string, error)
}

// Evaluator evaluates canonical expressions through an ordered fallback chain
// of strategies, trying each stage only when the previous one failed. It is
// stateless and safe for concurrent use.
type Evaluator struct {
	strategies []Strategy
	logger     *zap.Logger
}

// Option configures an Evaluator.
type Option func(*Evaluator)

// WithLogger sets a logger for debug output on stage failures.
func WithLogger(l *zap.Logger) Option {
	return func(e *Evaluator) { e.logger = l }
}

// NewEvaluator returns an evaluator with the default strategy chain:
// float (govaluate), interpreter (expr), sandbox (Starlark).
func NewEvaluator(opts ...Option) *Evaluator {
	e := &Evaluator{
		strategies: []Strategy{
			{Name: "float", Eval: evalFloat},
			{Name: "interpreter", Eval: evalInterpreter},
			{Name: "sandbox", Eval: evalSandbox},
		},
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Evaluate evaluates a math expression, including natural-language inputs.
// It always returns a string and never panics: invalid input and exhausted
// strategy chains both produce a readable diagnostic.
func (e *Evaluator) Evaluate(expression string) string {
	cleaned := whitespace.ReplaceAllString(Normalize(expression), "")

	if !validExpression.MatchString(cleaned) || !wellFormed(cleaned) {
		return fmt.Sprintf("Invalid expression: '%s'. Please use numbers and operators (+, -, *, /, ^, sqrt, log, sin, cos, tan).", cleaned)
	}

	var lastErr error
	for _, st := range e.strategies {
		result, err := runStage(st.Eval, cleaned)
		if err == nil {
			return result
		}
		lastErr = err
		e.logger.Debug("evaluation stage failed",
			zap.String("stage", st.Name),
			zap.String("expression", cleaned),
			zap.Error(err),
		)
	}
	return fmt.Sprintf("Error: Unable to evaluate '%s'. Please check the expression. Details: %v", expression, lastErr)
}

// wellFormed rejects structurally broken operator sequences that the character
// set alone admits: a binary operator following another operator or an open
// parenthesis (unary minus excepted), a trailing operator, or a leading
// * / ^ operator.
func wellFormed(s string) bool {
	if s == "" {
		return false
	}
	if strings.ContainsRune("*/^", rune(s[0])) {
		return false
	}
	last := s[len(s)-1]
	if strings.ContainsRune("+-*/^", rune(last)) {
		return false
	}
	for i := 1; i < len(s); i++ {
		if strings.ContainsRune("+*/^", rune(s[i])) && strings.ContainsRune("+-*/^(", rune(s[i-1])) {
			return false
		}
	}
	return true
}

// runStage invokes one strategy, converting panics into stage failures so the
// chain can fall through.
func runStage(fn func(string) (string, error), expression string) (result string, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("stage panic: %v", r)
		}
	}()
	return fn(expression)
}

// floatFunctions are the function set shared by the float and interpreter
// stages. log is base 10, not natural log.
func toFloat(args ...any) (float64, error) {
	if len(args) != 1 {
		return 0, fmt.Errorf("want 1 argument, got %d", len(args))
	}
	switch v := args[0].(type) {
	case float64:
		return v, nil
	case float32:
		return float64(v), nil
	case int:
		return float64(v), nil
	case int64:
		return float64(v), nil
	default:
		return 0, fmt.Errorf("non-numeric argument %T", args[0])
	}
}

func govaluateFunctions() map[string]govaluate.ExpressionFunction {
	wrap := func(fn func(float64) float64) govaluate.ExpressionFunction {
		return func(args ...any) (any, error) {
			f, err := toFloat(args...)
			if err != nil {
				return nil, err
			}
			return fn(f), nil
		}
	}
	return map[string]govaluate.ExpressionFunction{
		"sqrt": wrap(math.Sqrt),
		"log":  wrap(math.Log10),
		"sin":  wrap(math.Sin),
		"cos":  wrap(math.Cos),
		"tan":  wrap(math.Tan),
	}
}

// evalFloat rewrites ^ to the ** exponentiation operator and evaluates with
// govaluate, which computes in float64 (well over 10 significant digits).
func evalFloat(expression string) (string, error) {
	rewritten := strings.ReplaceAll(expression, "^", "**")
	ev, err := govaluate.NewEvaluableExpressionWithFunctions(rewritten, govaluateFunctions())
	if err != nil {
		return "", err
	}
	out, err := ev.Evaluate(nil)
	if err != nil {
		return "", err
	}
	f, ok := out.(float64)
	if !ok {
		return "", fmt.Errorf("non-numeric result %T", out)
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return "", fmt.Errorf("non-finite result %v", f)
	}
	return formatNumber(f), nil
}

// evalInterpreter evaluates the unrewritten expression with the expr
// interpreter, which supports ^ as exponentiation natively. The result is
// accepted only when it is an integer or a float.
func evalInterpreter(expression string) (string, error) {
	wrap := func(fn func(float64) float64) func(args ...any) (any, error) {
		return func(args ...any) (any, error) {
			f, err := toFloat(args...)
			if err != nil {
				return nil, err
			}
			return fn(f), nil
		}
	}
	env := map[string]any{
		"sqrt": wrap(math.Sqrt),
		"log":  wrap(math.Log10),
		"sin":  wrap(math.Sin),
		"cos":  wrap(math.Cos),
		"tan":  wrap(math.Tan),
	}
	out, err := expr.Eval(expression, env)
	if err != nil {
		return "", err
	}
	switch v := out.(type) {
	case int:
		return strconv.Itoa(v), nil
	case int64:
		return strconv.FormatInt(v, 10), nil
	case float64:
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return "", fmt.Errorf("non-finite result %v", v)
		}
		return formatNumber(v), nil
	default:
		return "", fmt.Errorf("non-numeric result %T", out)
	}
}

// evalSandbox evaluates the cleaned expression in a fresh Starlark thread as a
// last resort. Only math builtins are predeclared; the thread has no file,
// network, or process access.
func evalSandbox(expression string) (string, error) {
	thread := &starlark.Thread{Name: "matheval-sandbox"}
	v, err := starlark.Eval(thread, "<expr>", expression, sandboxEnv())
	if err != nil {
		return "", err
	}
	if s, ok := starlark.AsString(v); ok {
		return s, nil
	}
	return v.String(), nil
}

func sandboxEnv() starlark.StringDict {
	builtin := func(name string, fn func(float64) float64) *starlark.Builtin {
		return starlark.NewBuiltin(name, func(t *starlark.Thread, b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
			var x starlark.Value
			if err := starlark.UnpackPositionalArgs(name, args, kwargs, 1, &x); err != nil {
				return nil, err
			}
			f, ok := starlark.AsFloat(x)
			if !ok {
				return nil, fmt.Errorf("%s: want number, got %s", name, x.Type())
			}
			return starlark.Float(fn(f)), nil
		})
	}
	return starlark.StringDict{
		"sqrt": builtin("sqrt", math.Sqrt),
		"log":  builtin("log", math.Log10),
		"sin":  builtin("sin", math.Sin),
		"cos":  builtin("cos", math.Cos),
		"tan":  builtin("tan", math.Tan),
	}
}

// formatNumber renders a float the way Python's str does: integral values keep
// a trailing ".0" (8 -> "8.0") so results are unambiguous about their type.
func formatNumber(f float64) string {
	s := strconv.FormatFloat(f, 'g', -1, 64)
	if !strings.ContainsAny(s, ".eE") {
		s += ".0"
	}
	return s
}

package rule

import (
	"errors"
	"fmt"

	"github.com/google/cel-go/cel"
)

// Rule produces a text when its condition holds over a stats activation.
// When is a CEL expression returning bool; Then is a CEL expression returning string.
// Both programs are compiled by Init.
type Rule struct {
	// Group names the rule set the rule belongs to, e.g. "insight" or "activity".
	Group string `yaml:"group"`
	// Band groups mutually exclusive rules inside a Group; only the first
	// matching rule of a band contributes. Empty means the rule stands alone.
	Band string `yaml:"band"`
	// When is the trigger condition.
	When string `yaml:"when"`
	// Then renders the resulting text.
	Then string `yaml:"then"`

	when cel.Program
	then cel.Program
}

// Init compiles When and Then against env. It fails on syntax errors, unknown
// variables, or when the expressions do not return bool and string respectively.
func (r *Rule) Init(env *cel.Env) error {
	var err error
	r.when, err = compile(env, r.When, cel.BoolType)
	if err != nil {
		return fmt.Errorf("rule when %q: %w", r.When, err)
	}
	r.then, err = compile(env, r.Then, cel.StringType)
	if err != nil {
		return fmt.Errorf("rule then %q: %w", r.Then, err)
	}
	return nil
}

func compile(env *cel.Env, expr string, want *cel.Type) (cel.Program, error) {
	if expr == "" {
		return nil, errors.New("empty expression")
	}
	ast, iss := env.Compile(expr)
	if iss.Err() != nil {
		return nil, iss.Err()
	}
	if !ast.OutputType().IsExactType(want) {
		return nil, fmt.Errorf("expression returns %s, want %s", ast.OutputType(), want)
	}
	return env.Program(ast)
}

// Eval runs the rule on activation. It returns the rendered text and true when
// the condition holds, or false when it does not.
func (r *Rule) Eval(activation map[string]any) (string, bool, error) {
	if r.when == nil || r.then == nil {
		return "", false, errors.New("rule is not initialized")
	}

	matched, _, err := r.when.Eval(activation)
	if err != nil {
		return "", false, err
	}
	if matched.Value() != true {
		return "", false, nil
	}

	text, _, err := r.then.Eval(activation)
	if err != nil {
		return "", false, err
	}
	s, ok := text.Value().(string)
	if !ok {
		return "", false, fmt.Errorf("then returned %T", text.Value())
	}
	return s, true, nil
}

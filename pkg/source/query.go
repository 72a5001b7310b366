package source

import (
	"strings"

	"github.com/expr-lang/expr"

	"github.com/matzehuels/vardump/pkg/errors"
	"github.com/matzehuels/vardump/pkg/value"
)

// Query evaluates an expr-lang expression against a decoded document and
// returns the result. An empty expression returns v unchanged.
//
// The document is bound as doc. When it is an object, its top-level keys
// are also bound as variables, so `users[0].name` and
// `doc.users[0].name` are equivalent. Objects are presented to the
// expression as maps, which means results lose document key order.
func Query(v any, expression string) (any, error) {
	expression = strings.TrimSpace(expression)
	if expression == "" {
		return v, nil
	}

	doc := toPlain(v)
	env := map[string]any{}
	if m, ok := doc.(map[string]any); ok {
		for k, x := range m {
			env[k] = x
		}
	}
	env["doc"] = doc

	program, err := expr.Compile(expression, expr.Env(env))
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidQuery, err, "compile query %q", expression)
	}
	out, err := expr.Run(program, env)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidQuery, err, "run query %q", expression)
	}
	return out, nil
}

// toPlain converts value.Object into maps expr can index by key.
func toPlain(v any) any {
	switch x := v.(type) {
	case value.Object:
		m := make(map[string]any, len(x))
		for _, mem := range x {
			m[mem.Key] = toPlain(mem.Value)
		}
		return m
	case []any:
		out := make([]any, len(x))
		for i, e := range x {
			out[i] = toPlain(e)
		}
		return out
	}
	return v
}

package workflow

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
)

var contextKeyPattern = regexp.MustCompile(`\$\{([^}]+)\}`)

// Resolve replaces every ${a.b.c} inside strings with the value found at
// that dotted path in vars. Maps and lists are resolved recursively; other
// values are returned as-is.
func Resolve(expr any, vars map[string]any) (any, error) {
	switch v := expr.(type) {
	case string:
		return resolveString(v, vars)
	case map[string]any:
		out := make(map[string]any, len(v))
		for k, item := range v {
			r, err := Resolve(item, vars)
			if err != nil {
				return nil, err
			}
			out[k] = r
		}
		return out, nil
	case []any:
		out := make([]any, len(v))
		for i, item := range v {
			r, err := Resolve(item, vars)
			if err != nil {
				return nil, err
			}
			out[i] = r
		}
		return out, nil
	default:
		return expr, nil
	}
}

func resolveString(s string, vars map[string]any) (string, error) {
	var firstErr error
	out := contextKeyPattern.ReplaceAllStringFunc(s, func(match string) string {
		path := contextKeyPattern.FindStringSubmatch(match)[1]
		v, err := lookup(vars, path)
		if err != nil {
			if firstErr == nil {
				firstErr = err
			}
			return match
		}
		return format(v)
	})
	if firstErr != nil {
		return "", firstErr
	}
	return out, nil
}

func lookup(vars map[string]any, path string) (any, error) {
	var cur any = vars
	for _, part := range strings.Split(path, ".") {
		m, ok := cur.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("path %q not found in context", path)
		}
		if cur, ok = m[part]; !ok {
			return nil, fmt.Errorf("path %q not found in context", path)
		}
	}
	return cur, nil
}

func format(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case nil:
		return "null"
	case map[string]any, []any:
		b, err := json.Marshal(t)
		if err != nil {
			return fmt.Sprint(t)
		}
		return string(b)
	default:
		return fmt.Sprint(t)
	}
}

package workflow

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
)

// DefaultMaxSteps bounds a run so that cyclic workflows terminate.
const DefaultMaxSteps = 1000

var (
	ErrStepLimit       = errors.New("workflow: step limit exceeded")
	ErrNodeNotFound    = errors.New("workflow: node not found")
	ErrUnknownFunction = errors.New("workflow: unknown function")
	ErrUnsupportedNode = errors.New("workflow: unsupported node type")
)

// Func is a callable registered for function nodes. Its result is stored in
// the run context under the node id.
type Func func(ctx context.Context, params map[string]any) (any, error)

// Doer sends the requests issued by non-simulated http nodes.
type Doer interface {
	Do(req *http.Request) (*http.Response, error)
}

type Runner struct {
	funcs    map[string]Func
	http     Doer
	out      io.Writer
	maxSteps int
}

type Option func(*Runner)

// WithFunctions registers fns, replacing any function with the same name.
func WithFunctions(fns map[string]Func) Option {
	return func(r *Runner) {
		for name, fn := range fns {
			r.funcs[name] = fn
		}
	}
}

func WithHTTPClient(d Doer) Option {
	return func(r *Runner) { r.http = d }
}

func WithOutput(w io.Writer) Option {
	return func(r *Runner) { r.out = w }
}

func WithMaxSteps(n int) Option {
	return func(r *Runner) { r.maxSteps = n }
}

// NewRunner returns a runner with the built-in functions registered.
func NewRunner(opts ...Option) *Runner {
	r := &Runner{
		funcs:    Builtins(),
		http:     http.DefaultClient,
		out:      io.Discard,
		maxSteps: DefaultMaxSteps,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Run executes wf from its start node and returns the final context: the
// workflow input under "input" plus one entry per executed node.
func (r *Runner) Run(ctx context.Context, wf *Workflow) (map[string]any, error) {
	wf = Normalize(wf)

	nodes := make(map[string]Node, len(wf.Nodes))
	for _, n := range wf.Nodes {
		nodes[n.ID] = n
	}

	input := wf.Input
	if input == nil {
		input = map[string]any{}
	}
	vars := map[string]any{"input": input}

	current := wf.Start
	if current == "" && len(wf.Nodes) > 0 {
		current = wf.Nodes[0].ID
	}
	for steps := 0; current != ""; steps++ {
		if steps >= r.maxSteps {
			return vars, fmt.Errorf("%w after %d steps", ErrStepLimit, steps)
		}
		if err := ctx.Err(); err != nil {
			return vars, err
		}

		node, ok := nodes[current]
		if !ok {
			return vars, fmt.Errorf("%w: %s", ErrNodeNotFound, current)
		}
		fmt.Fprintf(r.out, "running node %s (type=%s)\n", node.ID, node.Type)

		if node.Type == NodeEnd {
			fmt.Fprintln(r.out, "workflow finished")
			break
		}
		if err := r.exec(ctx, node, vars); err != nil {
			return vars, fmt.Errorf("node %s: %w", node.ID, err)
		}
		current = node.Next
	}
	return vars, nil
}

func (r *Runner) exec(ctx context.Context, node Node, vars map[string]any) error {
	switch node.Type {
	case NodeStart:
		return nil

	case NodeFunction:
		fn, ok := r.funcs[node.Func]
		if !ok {
			return fmt.Errorf("%w: %q", ErrUnknownFunction, node.Func)
		}
		params, err := resolveParams(node.Params, vars)
		if err != nil {
			return err
		}
		result, err := fn(ctx, params)
		if err != nil {
			return fmt.Errorf("%s: %w", node.Func, err)
		}
		vars[node.ID] = result
		return nil

	case NodeHTTP:
		return r.execHTTP(ctx, node, vars)

	case NodeLog:
		msg, err := Resolve(node.Message, vars)
		if err != nil {
			return err
		}
		fmt.Fprintf(r.out, "LOG: %v\n", msg)
		vars[node.ID] = map[string]any{"result": msg}
		return nil

	default:
		return fmt.Errorf("%w: %q", ErrUnsupportedNode, node.Type)
	}
}

func (r *Runner) execHTTP(ctx context.Context, node Node, vars map[string]any) error {
	method := strings.ToUpper(node.Method)
	if method == "" {
		method = http.MethodGet
	}
	target, err := resolveString(node.URL, vars)
	if err != nil {
		return err
	}
	params, err := resolveParams(node.Params, vars)
	if err != nil {
		return err
	}

	if node.Simulate == nil || *node.Simulate {
		fmt.Fprintf(r.out, "simulating HTTP %s %s\n", method, target)
		vars[node.ID] = map[string]any{"result": "http_simulated"}
		return nil
	}

	body, err := json.Marshal(params)
	if err != nil {
		return fmt.Errorf("encode params: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, method, target, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := r.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, target, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}
	vars[node.ID] = map[string]any{"result": string(data), "status": resp.StatusCode}
	return nil
}

func resolveParams(raw any, vars map[string]any) (map[string]any, error) {
	if raw == nil {
		return map[string]any{}, nil
	}
	resolved, err := Resolve(raw, vars)
	if err != nil {
		return nil, err
	}
	params, ok := resolved.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("params must be a mapping, got %T", resolved)
	}
	return params, nil
}

// Package workflow runs small sequential YAML workflows. Workflows are
// written either as a list of nodes or in the serverless workflow "states"
// form, which Normalize rewrites into nodes.
package workflow

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

const (
	NodeStart    = "start"
	NodeEnd      = "end"
	NodeFunction = "function"
	NodeHTTP     = "http"
	NodeLog      = "log"
	NodeNoop     = "noop"
)

type Workflow struct {
	ID     string         `yaml:"id,omitempty"`
	Start  string         `yaml:"start,omitempty"`
	Input  map[string]any `yaml:"input,omitempty"`
	Nodes  []Node         `yaml:"nodes,omitempty"`
	States []State        `yaml:"states,omitempty"`
}

type Node struct {
	ID       string `yaml:"id"`
	Type     string `yaml:"type"`
	Next     string `yaml:"next,omitempty"`
	Func     string `yaml:"func,omitempty"`
	Params   any    `yaml:"params,omitempty"`
	Message  any    `yaml:"message,omitempty"`
	Method   string `yaml:"method,omitempty"`
	URL      string `yaml:"url,omitempty"`
	Simulate *bool  `yaml:"simulate,omitempty"`
}

type State struct {
	Name       string   `yaml:"name"`
	Type       string   `yaml:"type"`
	End        any      `yaml:"end,omitempty"`
	Transition any      `yaml:"transition,omitempty"`
	Actions    []Action `yaml:"actions,omitempty"`
	Data       any      `yaml:"data,omitempty"`
}

type Action struct {
	FunctionRef *FunctionRef `yaml:"functionRef,omitempty"`
}

type FunctionRef struct {
	RefName   string         `yaml:"refName"`
	Arguments map[string]any `yaml:"arguments,omitempty"`
}

func Parse(data []byte) (*Workflow, error) {
	var wf Workflow
	if err := yaml.Unmarshal(data, &wf); err != nil {
		return nil, fmt.Errorf("parse workflow: %w", err)
	}
	return &wf, nil
}

func Load(path string) (*Workflow, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read workflow %s: %w", path, err)
	}
	return Parse(data)
}

// Normalize converts a states-based workflow into nodes. Workflows that
// already declare nodes, or declare neither, are returned unchanged.
func Normalize(wf *Workflow) *Workflow {
	if wf.Nodes != nil || wf.States == nil {
		return wf
	}

	nodes := make([]Node, 0, len(wf.States))
	for _, st := range wf.States {
		node := Node{ID: st.Name, Next: transition(st.Transition)}

		switch st.Type {
		case "event":
			node.Type = NodeStart
			if truthy(st.End) {
				node.Type = NodeEnd
			}
		case "operation":
			node.Type = NodeFunction
			if len(st.Actions) > 0 && st.Actions[0].FunctionRef != nil {
				ref := st.Actions[0].FunctionRef
				node.Func = ref.RefName
				node.Params = toAnyMap(ref.Arguments)
			}
		case "inject":
			node.Type = NodeLog
			if data, ok := st.Data.(map[string]any); ok {
				node.Message = data["message"]
			} else {
				node.Message = fmt.Sprint(st.Data)
			}
		default:
			node.Type = NodeNoop
		}
		nodes = append(nodes, node)
	}

	out := *wf
	out.Nodes = nodes
	if out.Start == "" && len(nodes) > 0 {
		out.Start = nodes[0].ID
	}
	return &out
}

// transition accepts both `transition: name` and `transition: {nextState: name}`.
func transition(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case map[string]any:
		if next, ok := t["nextState"].(string); ok {
			return next
		}
	}
	return ""
}

func truthy(v any) bool {
	switch t := v.(type) {
	case nil:
		return false
	case bool:
		return t
	case string:
		return t != ""
	case map[string]any:
		return len(t) > 0
	default:
		return true
	}
}

func toAnyMap(m map[string]any) any {
	if m == nil {
		return map[string]any{}
	}
	return m
}

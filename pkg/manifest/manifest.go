// Package manifest checks serverless workflow manifests for the fields a
// deployment needs before they are applied to a cluster.
package manifest

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// Report holds the result of validating one file. Err is set when the file
// could not be read or parsed; otherwise Problems has one entry per document.
type Report struct {
	Path     string
	Err      error
	Problems [][]string
}

// Count returns the number of problems in the report, counting a load
// failure as one.
func (r Report) Count() int {
	if r.Err != nil {
		return 1
	}
	n := 0
	for _, p := range r.Problems {
		n += len(p)
	}
	return n
}

// Parse decodes every non-empty YAML document in data. A surrounding
// markdown code fence is stripped first.
func Parse(data []byte) ([]any, error) {
	dec := yaml.NewDecoder(bytes.NewReader(stripFence(data)))

	var docs []any
	for {
		var doc any
		err := dec.Decode(&doc)
		if errors.Is(err, io.EOF) {
			return docs, nil
		}
		if err != nil {
			return nil, err
		}
		if doc != nil {
			docs = append(docs, doc)
		}
	}
}

func stripFence(data []byte) []byte {
	text := string(data)
	if !strings.HasPrefix(strings.TrimLeft(text, " \t\r\n"), "```") {
		return data
	}
	lines := strings.Split(strings.TrimRight(text, "\r\n"), "\n")
	if strings.HasPrefix(lines[0], "```") {
		lines = lines[1:]
	}
	if n := len(lines); n > 0 && strings.HasPrefix(lines[n-1], "```") {
		lines = lines[:n-1]
	}
	return []byte(strings.Join(lines, "\n"))
}

// Validate returns the problems found in a single decoded document.
func Validate(doc any) []string {
	m, ok := doc.(map[string]any)
	if !ok {
		return []string{"document is not a mapping"}
	}

	var problems []string
	if _, ok := m["apiVersion"]; !ok {
		problems = append(problems, "missing apiVersion")
	}
	if _, ok := m["kind"]; !ok {
		problems = append(problems, "missing kind")
	}
	if meta, ok := m["metadata"].(map[string]any); !ok {
		problems = append(problems, "missing metadata")
	} else if _, ok := meta["name"]; !ok {
		problems = append(problems, "missing metadata.name")
	}

	if empty(m["spec"]) {
		return append(problems, "missing spec")
	}
	spec, ok := m["spec"].(map[string]any)
	if !ok {
		return append(problems, "spec must be a mapping")
	}
	if empty(spec["flow"]) {
		return append(problems, "missing spec.flow")
	}
	flow, ok := spec["flow"].(map[string]any)
	if !ok {
		return append(problems, "spec.flow must be a mapping")
	}

	if _, ok := flow["start"]; !ok {
		problems = append(problems, "spec.flow.start is missing")
	}
	raw, ok := flow["states"]
	if !ok {
		return append(problems, "spec.flow.states is missing")
	}
	states, ok := raw.([]any)
	if !ok {
		return append(problems, "spec.flow.states must be a list")
	}
	return append(problems, validateStates(states)...)
}

func validateStates(states []any) []string {
	var problems []string
	seen := make(map[string]bool, len(states))

	for i, raw := range states {
		prefix := fmt.Sprintf("spec.flow.states[%d]", i)
		st, ok := raw.(map[string]any)
		if !ok {
			problems = append(problems, prefix+" is not a mapping")
			continue
		}

		if name, ok := st["name"]; !ok {
			problems = append(problems, prefix+" is missing name")
		} else {
			key := fmt.Sprint(name)
			if seen[key] {
				problems = append(problems, fmt.Sprintf("%s duplicate name: %s", prefix, key))
			}
			seen[key] = true
		}

		typ, ok := st["type"]
		if !ok {
			problems = append(problems, prefix+" is missing type")
			continue
		}
		switch typ {
		case "inject":
			_, hasData := st["data"]
			_, hasEnd := st["end"]
			if !hasData && !hasEnd {
				problems = append(problems, prefix+" inject without 'data'")
			}
		case "operation":
			acts, ok := st["actions"]
			if !ok {
				problems = append(problems, prefix+" operation without 'actions'")
			} else if list, ok := acts.([]any); !ok || len(list) == 0 {
				problems = append(problems, prefix+" actions empty or not a list")
			}
		}
	}
	return problems
}

func empty(v any) bool {
	switch t := v.(type) {
	case nil:
		return true
	case map[string]any:
		return len(t) == 0
	case []any:
		return len(t) == 0
	case string:
		return t == ""
	case bool:
		return !t
	}
	return false
}

// ValidateFile loads path and validates each document in it.
func ValidateFile(path string) Report {
	r := Report{Path: path}
	data, err := os.ReadFile(path)
	if err != nil {
		r.Err = err
		return r
	}
	docs, err := Parse(data)
	if err != nil {
		r.Err = fmt.Errorf("parse %s: %w", path, err)
		return r
	}
	for _, doc := range docs {
		r.Problems = append(r.Problems, Validate(doc))
	}
	return r
}

// Collect expands directories into their .yaml and .yml files, sorted by
// name. Plain file arguments are kept in the order given.
func Collect(paths ...string) ([]string, error) {
	var files []string
	for _, p := range paths {
		info, err := os.Stat(p)
		if err != nil {
			return nil, err
		}
		if !info.IsDir() {
			files = append(files, p)
			continue
		}
		entries, err := os.ReadDir(p)
		if err != nil {
			return nil, err
		}
		var found []string
		for _, e := range entries {
			ext := filepath.Ext(e.Name())
			if !e.IsDir() && (ext == ".yaml" || ext == ".yml") {
				found = append(found, filepath.Join(p, e.Name()))
			}
		}
		sort.Strings(found)
		files = append(files, found...)
	}
	return files, nil
}

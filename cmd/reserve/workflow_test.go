package main

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const tripWorkflow = `id: trip
start: begin
input:
  traveler: Ada
  flight: RH123
nodes:
  - id: begin
    type: start
    next: hello
  - id: hello
    type: function
    func: greet
    params:
      name: ${input.traveler}
    next: book
  - id: book
    type: function
    func: reserveFlight
    next: cancel
  - id: cancel
    type: function
    func: cancelFlight
    params:
      id: ${input.flight}
    next: report
  - id: report
    type: log
    message: "${hello.result} ${book.result}, ${cancel.result}"
    next: done
  - id: done
    type: end
`

const tripManifest = `apiVersion: sonataflow.org/v1alpha08
kind: SonataFlow
metadata:
  name: trip
spec:
  flow:
    start: Book
    states:
      - name: Book
        type: operation
        actions:
          - functionRef:
              refName: reserveFlight
        end: true
`

func writeTemp(t *testing.T, dir, name, body string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestReserve_WorkflowRun(t *testing.T) {
	path := writeTemp(t, t.TempDir(), "trip.yaml", tripWorkflow)

	out, err := run(t, "workflow", "run", path)
	require.NoError(t, err)
	assert.Contains(t, out, "running node book (type=function)")
	assert.Contains(t, out, "LOG: Hola, Ada! Vuelo reservado, Vuelo RH123 cancelado")
	assert.Contains(t, out, "workflow finished")
}

func TestReserve_WorkflowRunJSON(t *testing.T) {
	path := writeTemp(t, t.TempDir(), "trip.yaml", tripWorkflow)

	out, err := run(t, "wf", "run", path, "--json")
	require.NoError(t, err)

	var vars map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &vars))
	assert.Equal(t, map[string]any{"result": "Vuelo RH123 cancelado"}, vars["cancel"])
	assert.Equal(t, map[string]any{"traveler": "Ada", "flight": "RH123"}, vars["input"])
}

func TestReserve_WorkflowRunFails(t *testing.T) {
	dir := t.TempDir()
	loop := writeTemp(t, dir, "loop.yaml", `start: a
nodes:
  - {id: a, type: start, next: b}
  - {id: b, type: start, next: a}
`)

	_, err := run(t, "workflow", "run", loop, "--max-steps", "10")
	assert.ErrorContains(t, err, "step limit exceeded")

	_, err = run(t, "workflow", "run", filepath.Join(dir, "missing.yaml"))
	assert.Error(t, err)
}

func TestReserve_WorkflowValidate(t *testing.T) {
	dir := t.TempDir()
	writeTemp(t, dir, "trip.yaml", tripManifest)

	out, err := run(t, "workflow", "validate", dir)
	require.NoError(t, err)
	assert.Contains(t, out, "document[0] OK")
	assert.Contains(t, out, "validation finished: no errors")

	writeTemp(t, dir, "zz-broken.yml", "kind: SonataFlow\n")
	out, err = run(t, "workflow", "validate", dir)
	assert.ErrorContains(t, err, "validation finished: 3 problem(s) found")
	assert.Contains(t, out, "document[0] has 3 problem(s):")
	assert.Contains(t, out, "  - missing apiVersion")
}

func TestReserve_WorkflowValidateEmptyDir(t *testing.T) {
	out, err := run(t, "workflow", "validate", t.TempDir())
	require.NoError(t, err)
	assert.Contains(t, out, "no YAML files found")
}

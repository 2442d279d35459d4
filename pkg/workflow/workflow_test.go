package workflow_test

import (
	"bytes"
	"context"
	"errors"
	"net/http/httptest"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/diagnosis/travel-reservations/internal/http/router"
	"github.com/diagnosis/travel-reservations/pkg/client"
	"github.com/diagnosis/travel-reservations/pkg/workflow"
)

const greetingYAML = `
id: greeting
start: begin
input:
  name: Ada
nodes:
  - id: begin
    type: start
    next: hello
  - id: hello
    type: function
    func: greet
    params:
      name: ${input.name}
    next: shout
  - id: shout
    type: function
    func: uppercase
    params:
      message: ${hello.result}
    next: say
  - id: say
    type: log
    message: "final: ${shout.result}"
    next: done
  - id: done
    type: end
`

const statesYAML = `
id: reservations
input:
  name: Grace
states:
  - name: Begin
    type: event
    transition: Greet
  - name: Greet
    type: operation
    actions:
      - functionRef:
          refName: greet
          arguments:
            name: ${input.name}
    transition:
      nextState: Announce
  - name: Announce
    type: inject
    data:
      message: ${Greet.result}
    transition: Finish
  - name: Finish
    type: event
    end: true
`

func parse(t *testing.T, src string) *workflow.Workflow {
	t.Helper()
	wf, err := workflow.Parse([]byte(src))
	require.NoError(t, err)
	return wf
}

func TestResolve(t *testing.T) {
	vars := map[string]any{
		"input": map[string]any{"name": "Ada", "seats": 2},
		"list":  map[string]any{"items": []any{"a", "b"}},
	}

	tests := []struct {
		name string
		expr any
		want any
	}{
		{"plain string", "hola", "hola"},
		{"single key", "${input.name}", "Ada"},
		{"embedded keys", "${input.name} x${input.seats}", "Ada x2"},
		{"list rendered as json", "${list.items}", `["a","b"]`},
		{"map values", map[string]any{"who": "${input.name}"}, map[string]any{"who": "Ada"}},
		{"list values", []any{"${input.name}", 3}, []any{"Ada", 3}},
		{"non string passthrough", 42, 42},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := workflow.Resolve(tt.expr, vars)
			require.NoError(t, err)
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Fatalf("resolve (-want +got):\n%s", diff)
			}
		})
	}
}

func TestResolve_MissingPath(t *testing.T) {
	vars := map[string]any{"input": map[string]any{"name": "Ada"}}

	for _, expr := range []string{"${input.age}", "${nothing}", "${input.name.first}"} {
		_, err := workflow.Resolve(expr, vars)
		assert.ErrorContains(t, err, "not found in context", expr)
	}
}

func TestNormalize_States(t *testing.T) {
	wf := workflow.Normalize(parse(t, statesYAML))

	assert.Equal(t, "Begin", wf.Start)
	want := []workflow.Node{
		{ID: "Begin", Type: workflow.NodeStart, Next: "Greet"},
		{ID: "Greet", Type: workflow.NodeFunction, Func: "greet", Next: "Announce",
			Params: map[string]any{"name": "${input.name}"}},
		{ID: "Announce", Type: workflow.NodeLog, Message: "${Greet.result}", Next: "Finish"},
		{ID: "Finish", Type: workflow.NodeEnd},
	}
	if diff := cmp.Diff(want, wf.Nodes); diff != "" {
		t.Fatalf("nodes (-want +got):\n%s", diff)
	}
}

func TestNormalize_KeepsNodes(t *testing.T) {
	wf := parse(t, greetingYAML)
	assert.Same(t, wf, workflow.Normalize(wf))
}

func TestNormalize_UnknownStateIsNoop(t *testing.T) {
	wf := workflow.Normalize(&workflow.Workflow{States: []workflow.State{{Name: "x", Type: "switch"}}})
	require.Len(t, wf.Nodes, 1)
	assert.Equal(t, workflow.NodeNoop, wf.Nodes[0].Type)
}

func TestRunner_Nodes(t *testing.T) {
	var out bytes.Buffer
	r := workflow.NewRunner(workflow.WithOutput(&out))

	vars, err := r.Run(context.Background(), parse(t, greetingYAML))
	require.NoError(t, err)

	assert.Equal(t, map[string]any{"result": "Hola, Ada!"}, vars["hello"])
	assert.Equal(t, map[string]any{"result": "HOLA, ADA!"}, vars["shout"])
	assert.Equal(t, map[string]any{"result": "final: HOLA, ADA!"}, vars["say"])
	assert.Contains(t, out.String(), "running node hello (type=function)")
	assert.Contains(t, out.String(), "LOG: final: HOLA, ADA!")
	assert.Contains(t, out.String(), "workflow finished")
}

func TestRunner_States(t *testing.T) {
	vars, err := workflow.NewRunner().Run(context.Background(), parse(t, statesYAML))
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"result": "Hola, Grace!"}, vars["Announce"])
}

func TestRunner_Errors(t *testing.T) {
	tests := []struct {
		name  string
		nodes []workflow.Node
		want  error
		text  string
	}{
		{
			name:  "missing node",
			nodes: []workflow.Node{{ID: "a", Type: workflow.NodeStart, Next: "ghost"}},
			want:  workflow.ErrNodeNotFound,
		},
		{
			name:  "noop is not executable",
			nodes: []workflow.Node{{ID: "a", Type: workflow.NodeNoop}},
			want:  workflow.ErrUnsupportedNode,
		},
		{
			name:  "unknown function",
			nodes: []workflow.Node{{ID: "a", Type: workflow.NodeFunction, Func: "teleport"}},
			want:  workflow.ErrUnknownFunction,
		},
		{
			name: "cycle",
			nodes: []workflow.Node{
				{ID: "a", Type: workflow.NodeStart, Next: "b"},
				{ID: "b", Type: workflow.NodeStart, Next: "a"},
			},
			want: workflow.ErrStepLimit,
		},
		{
			name:  "missing function argument",
			nodes: []workflow.Node{{ID: "a", Type: workflow.NodeFunction, Func: "greet"}},
			text:  "name is required",
		},
		{
			name:  "unresolved message",
			nodes: []workflow.Node{{ID: "a", Type: workflow.NodeLog, Message: "${input.missing}"}},
			text:  "not found in context",
		},
		{
			name:  "params must be a mapping",
			nodes: []workflow.Node{{ID: "a", Type: workflow.NodeFunction, Func: "greet", Params: []any{"x"}}},
			text:  "params must be a mapping",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			wf := &workflow.Workflow{Start: "a", Nodes: tt.nodes}
			_, err := workflow.NewRunner(workflow.WithMaxSteps(50)).Run(context.Background(), wf)
			require.Error(t, err)
			if tt.want != nil {
				assert.True(t, errors.Is(err, tt.want), "got %v", err)
			}
			if tt.text != "" {
				assert.ErrorContains(t, err, tt.text)
			}
		})
	}
}

func TestRunner_CustomFunction(t *testing.T) {
	var got map[string]any
	r := workflow.NewRunner(workflow.WithFunctions(map[string]workflow.Func{
		"capture": func(_ context.Context, params map[string]any) (any, error) {
			got = params
			return map[string]any{"result": "ok"}, nil
		},
	}))

	wf := &workflow.Workflow{
		Start: "a",
		Input: map[string]any{"id": "RH123"},
		Nodes: []workflow.Node{{ID: "a", Type: workflow.NodeFunction, Func: "capture",
			Params: map[string]any{"flight": "${input.id}"}}},
	}
	vars, err := r.Run(context.Background(), wf)
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"flight": "RH123"}, got)
	assert.Equal(t, map[string]any{"result": "ok"}, vars["a"])
}

func TestRunner_HTTP(t *testing.T) {
	server := httptest.NewServer(router.New(router.Options{ServiceName: "reservations"}))
	t.Cleanup(server.Close)

	live := false
	wf := &workflow.Workflow{
		Start: "sim",
		Input: map[string]any{"base": server.URL, "id": "QK456"},
		Nodes: []workflow.Node{
			{ID: "sim", Type: workflow.NodeHTTP, Method: "post", URL: "${input.base}/flights", Next: "cancel"},
			{ID: "cancel", Type: workflow.NodeHTTP, Method: "delete", URL: "${input.base}/flights/${input.id}",
				Simulate: &live},
		},
	}

	var out bytes.Buffer
	vars, err := workflow.NewRunner(workflow.WithOutput(&out), workflow.WithHTTPClient(server.Client())).
		Run(context.Background(), wf)
	require.NoError(t, err)

	assert.Equal(t, map[string]any{"result": "http_simulated"}, vars["sim"])
	assert.Contains(t, out.String(), "simulating HTTP POST "+server.URL+"/flights")

	cancel := vars["cancel"].(map[string]any)
	assert.Equal(t, 200, cancel["status"])
	assert.JSONEq(t, `{"message":"Vuelo QK456 cancelado"}`, cancel["result"].(string))
}

func TestReservationFunctions(t *testing.T) {
	server := httptest.NewServer(router.New(router.Options{ServiceName: "reservations"}))
	t.Cleanup(server.Close)
	c, err := client.New(server.URL)
	require.NoError(t, err)

	wf := parse(t, `
start: flights
input:
  hotel: "H-9"
nodes:
  - id: flights
    type: function
    func: listFlights
    next: book
  - id: book
    type: function
    func: reserveHotel
    next: cancel
  - id: cancel
    type: function
    func: cancelHotel
    params:
      id: ${input.hotel}
    next: report
  - id: report
    type: log
    message: "${flights.count} vuelos; ${book.result}; ${cancel.result}"
`)

	vars, err := workflow.NewRunner(workflow.WithFunctions(workflow.ReservationFunctions(c))).
		Run(context.Background(), wf)
	require.NoError(t, err)

	flights := vars["flights"].(map[string]any)
	assert.Equal(t, 2, flights["count"])
	assert.Equal(t, []any{
		map[string]any{"flightNumber": "RH123", "from": "LHR", "to": "RDU"},
		map[string]any{"flightNumber": "QK456", "from": "MAD", "to": "SFO"},
	}, flights["result"])
	assert.Equal(t,
		map[string]any{"result": "2 vuelos; Hotel reservado; Reserva de hotel H-9 cancelada"},
		vars["report"])
}

func TestReservationFunctions_CancelNeedsID(t *testing.T) {
	c, err := client.New("http://127.0.0.1:1")
	require.NoError(t, err)

	fn := workflow.ReservationFunctions(c)["cancelFlight"]
	_, err = fn(context.Background(), map[string]any{})
	assert.ErrorContains(t, err, "id is required")
}

package manifest_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/diagnosis/travel-reservations/pkg/manifest"
)

const validManifest = `apiVersion: sonataflow.org/v1alpha08
kind: SonataFlow
metadata:
  name: reserve-trip
spec:
  flow:
    start: Begin
    states:
      - name: Begin
        type: inject
        data:
          message: hola
        transition: Book
      - name: Book
        type: operation
        actions:
          - functionRef:
              refName: reserveFlight
        end: true
`

func writeFile(t *testing.T, dir, name, body string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestParse(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want int
	}{
		{"single", validManifest, 1},
		{"multi document", validManifest + "---\n" + validManifest, 2},
		{"empty documents skipped", "---\n" + validManifest + "---\n", 1},
		{"fenced", "```yaml\n" + validManifest + "```\n", 1},
		{"empty", "", 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			docs, err := manifest.Parse([]byte(tt.src))
			require.NoError(t, err)
			assert.Len(t, docs, tt.want)
		})
	}
}

func TestParse_Invalid(t *testing.T) {
	_, err := manifest.Parse([]byte("kind: [unterminated"))
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want []string
	}{
		{name: "valid", src: validManifest},
		{
			name: "not a mapping",
			src:  "- a\n- b\n",
			want: []string{"document is not a mapping"},
		},
		{
			name: "missing top-level fields",
			src:  "metadata: {}\n",
			want: []string{"missing apiVersion", "missing kind", "missing metadata.name", "missing spec"},
		},
		{
			name: "missing flow",
			src:  "apiVersion: v1\nkind: SonataFlow\nmetadata: {name: x}\nspec: {other: 1}\n",
			want: []string{"missing spec.flow"},
		},
		{
			name: "missing start and states",
			src:  "apiVersion: v1\nkind: SonataFlow\nmetadata: {name: x}\nspec: {flow: {id: x}}\n",
			want: []string{"spec.flow.start is missing", "spec.flow.states is missing"},
		},
		{
			name: "states not a list",
			src:  "apiVersion: v1\nkind: SonataFlow\nmetadata: {name: x}\nspec: {flow: {start: a, states: {a: 1}}}\n",
			want: []string{"spec.flow.states must be a list"},
		},
		{
			name: "state rules",
			src: `apiVersion: v1
kind: SonataFlow
metadata:
  name: x
spec:
  flow:
    start: a
    states:
      - just-a-string
      - type: event
      - name: a
        type: inject
      - name: a
        type: operation
      - name: b
        type: operation
        actions: []
      - name: c
      - name: d
        type: inject
        end: true
`,
			want: []string{
				"spec.flow.states[0] is not a mapping",
				"spec.flow.states[1] is missing name",
				"spec.flow.states[2] inject without 'data'",
				"spec.flow.states[3] duplicate name: a",
				"spec.flow.states[3] operation without 'actions'",
				"spec.flow.states[4] actions empty or not a list",
				"spec.flow.states[5] is missing type",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			docs, err := manifest.Parse([]byte(tt.src))
			require.NoError(t, err)
			require.Len(t, docs, 1)
			assert.Equal(t, tt.want, manifest.Validate(docs[0]))
		})
	}
}

func TestValidateFile(t *testing.T) {
	dir := t.TempDir()

	good := manifest.ValidateFile(writeFile(t, dir, "good.yaml", validManifest+"---\nkind: x\n"))
	require.NoError(t, good.Err)
	require.Len(t, good.Problems, 2)
	assert.Empty(t, good.Problems[0])
	assert.Equal(t, 3, good.Count())

	broken := manifest.ValidateFile(writeFile(t, dir, "broken.yaml", "a: [b\n"))
	assert.Error(t, broken.Err)
	assert.Equal(t, 1, broken.Count())

	missing := manifest.ValidateFile(filepath.Join(dir, "nope.yaml"))
	assert.Error(t, missing.Err)
}

func TestCollect(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "b.yml", validManifest)
	writeFile(t, dir, "a.yaml", validManifest)
	writeFile(t, dir, "notes.txt", "ignored")
	require.NoError(t, os.Mkdir(filepath.Join(dir, "nested.yaml"), 0o755))
	extra := writeFile(t, t.TempDir(), "extra.yaml", validManifest)

	files, err := manifest.Collect(extra, dir)
	require.NoError(t, err)
	assert.Equal(t, []string{
		extra,
		filepath.Join(dir, "a.yaml"),
		filepath.Join(dir, "b.yml"),
	}, files)

	_, err = manifest.Collect(filepath.Join(dir, "missing"))
	assert.Error(t, err)
}

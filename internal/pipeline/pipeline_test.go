package pipeline

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cameronsjo/templer/internal/definition"
	"github.com/cameronsjo/templer/internal/render"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestProcess(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "common.yml", "image: nginx:1.27")
	writeFile(t, dir, "compose.yml.tmpl", `
services:
  {{ .name }}:
    image: {{ .image }}
    ports:
      - {{ .port }}
      - {{ .admin_port | default .omit }}
`)
	defPath := writeFile(t, dir, "definition.yml", `
include_vars:
  - common.yml
vars:
  port: 8080
templates:
  - src: compose.yml.tmpl
    dest: out/compose.yml
    vars:
      name: web
`)

	eng := render.NewEngine()
	res, err := Process(eng, defPath, false)
	require.NoError(t, err)
	require.Len(t, res.Jobs, 1)
	require.NoError(t, res.Jobs[0].Err)
	assert.False(t, res.Failed())

	content, err := os.ReadFile(filepath.Join(dir, "out", "compose.yml"))
	require.NoError(t, err)
	assert.Equal(t, `
services:
  web:
    image: nginx:1.27
    ports:
      - 8080
`, string(content))

	assert.Contains(t, res.WatchPaths, defPath)
	assert.Contains(t, res.WatchPaths, filepath.Join(dir, "common.yml"))
	assert.Contains(t, res.WatchPaths, filepath.Join(dir, "compose.yml.tmpl"))

	// only input files are watched: watching the destination or a whole
	// directory would make each pass's own write look like a change
	assert.NotContains(t, res.WatchPaths, dir)
	assert.NotContains(t, res.WatchPaths, filepath.Join(dir, "out", "compose.yml"))
	assert.NotContains(t, res.WatchPaths, filepath.Join(dir, "out"))
}

func TestProcessDoesNotWatchColocatedDest(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "compose.yml.tmpl", "name: {{ .name }}\n")
	defPath := writeFile(t, dir, "definition.yml", `
vars:
  name: web
templates:
  - src: compose.yml.tmpl
    dest: compose.yml
`)

	eng := render.NewEngine()
	res, err := Process(eng, defPath, true)
	require.NoError(t, err)
	assert.False(t, res.Failed())

	assert.Contains(t, res.WatchPaths, filepath.Join(dir, "compose.yml.tmpl"))
	assert.NotContains(t, res.WatchPaths, filepath.Join(dir, "compose.yml"))
	assert.NotContains(t, res.WatchPaths, dir)
}

func TestProcessMissingIncludeStillWatched(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "svc.tmpl", "name: {{ .name }}\n")
	defPath := writeFile(t, dir, "definition.yml", `
include_vars:
  - missing.yml
templates:
  - src: svc.tmpl
    dest: out.yml
`)

	eng := render.NewEngine()
	res, err := Process(eng, defPath, false)
	require.NoError(t, err)
	require.Len(t, res.Jobs, 1)
	assert.Error(t, res.Jobs[0].Err)

	// the absent include is watched, so creating it triggers a re-render
	assert.Contains(t, res.WatchPaths, filepath.Join(dir, "missing.yml"))
}

func TestProcessJobFailureIsolated(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "bad.tmpl", "value: {{ .not_defined }}\n")
	writeFile(t, dir, "good.tmpl", "value: ok\n")
	defPath := writeFile(t, dir, "definition.yml", `
templates:
  - src: bad.tmpl
    dest: bad.yml
  - src: good.tmpl
    dest: good.yml
`)

	eng := render.NewEngine()
	res, err := Process(eng, defPath, false)
	require.NoError(t, err)
	require.Len(t, res.Jobs, 2)

	assert.Error(t, res.Jobs[0].Err)
	var undefErr *render.UndefinedVariableError
	assert.True(t, errors.As(res.Jobs[0].Err, &undefErr))

	require.NoError(t, res.Jobs[1].Err)
	assert.True(t, res.Failed())
	assert.FileExists(t, filepath.Join(dir, "good.yml"))
	assert.NoFileExists(t, filepath.Join(dir, "bad.yml"))
}

func TestProcessLoadFailure(t *testing.T) {
	dir := t.TempDir()
	defPath := writeFile(t, dir, "definition.yml", "vars:\n  a: 1\n")

	eng := render.NewEngine()
	_, err := Process(eng, defPath, false)
	require.Error(t, err)

	var schemaErr *definition.SchemaError
	assert.True(t, errors.As(err, &schemaErr))
}

func TestProcessGlobalVarsVisibleToJobs(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "svc.tmpl", "name: {{ .prefix }}-{{ .name }}\n")
	defPath := writeFile(t, dir, "definition.yml", `
vars:
  prefix: prod
templates:
  - src: svc.tmpl
    dest: a.yml
    vars:
      name: a
  - src: svc.tmpl
    dest: b.yml
    vars:
      name: b
`)

	eng := render.NewEngine()
	res, err := Process(eng, defPath, false)
	require.NoError(t, err)
	assert.False(t, res.Failed())

	a, err := os.ReadFile(filepath.Join(dir, "a.yml"))
	require.NoError(t, err)
	assert.Equal(t, "name: prod-a\n", string(a))

	b, err := os.ReadFile(filepath.Join(dir, "b.yml"))
	require.NoError(t, err)
	assert.Equal(t, "name: prod-b\n", string(b))
}

func TestProcessMandatoryMessageSurfaces(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "svc.tmpl", "host: {{ .host | mandatory \"host must be set\" }}\n")
	defPath := writeFile(t, dir, "definition.yml", `
templates:
  - src: svc.tmpl
    dest: out.yml
`)

	eng := render.NewEngine()
	res, err := Process(eng, defPath, false)
	require.NoError(t, err)
	require.Len(t, res.Jobs, 1)

	var mErr *render.MandatoryValueError
	require.True(t, errors.As(res.Jobs[0].Err, &mErr))
	assert.Equal(t, "host must be set", mErr.Message)
}

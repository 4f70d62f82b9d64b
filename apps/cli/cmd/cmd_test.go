package cmd

import (
	"bytes"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/abdul-hamid-achik/hitchain/packages/chain"
	"github.com/abdul-hamid-achik/hitchain/packages/scenario"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return out.String(), err
}

func writeScenario(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestExitCode(t *testing.T) {
	assert.Equal(t, ExitSuccess, exitCode(nil))
	assert.Equal(t, ExitTestFailure, exitCode(withExitCode(ExitTestFailure, errors.New("x"))))
	assert.Equal(t, ExitParseError, exitCode(fmt.Errorf("load: %w", scenario.ErrInvalidScenario)))
	assert.Equal(t, ExitNetworkError, exitCode(fmt.Errorf("step: %w", chain.ErrFetchFailed)))
	assert.Equal(t, ExitUsageError, exitCode(errors.New("unknown flag")))
}

func TestVersionCommand(t *testing.T) {
	out, err := execute(t, "version")

	require.NoError(t, err)
	assert.Contains(t, out, "hitchain version dev")
	assert.Contains(t, out, "Built: unknown")
	assert.Contains(t, out, "Go: go")

	t.Cleanup(func() { shortVersionFlag = false })
	out, err = execute(t, "version", "--short")
	require.NoError(t, err)
	assert.Equal(t, "dev\n", out)
}

func TestValidateCommand(t *testing.T) {
	dir := t.TempDir()
	valid := writeScenario(t, dir, "ok.chain.yaml", "steps:\n  - path: /health\n")
	invalid := writeScenario(t, dir, "bad.chain.yaml", "steps:\n  - method: TRACE\n    path: /\n")

	out, err := execute(t, "validate", valid)
	require.NoError(t, err)
	assert.Contains(t, out, "Valid: "+valid)

	out, err = execute(t, "validate", invalid)
	require.Error(t, err)
	assert.Equal(t, ExitParseError, exitCode(err))
	assert.Contains(t, out, "unsupported method")
}

func TestValidateCommand_NoFiles(t *testing.T) {
	_, err := execute(t, "validate", t.TempDir())

	require.Error(t, err)
	assert.Equal(t, ExitUsageError, exitCode(err))
}

func TestRunCommand(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/health" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"status": "ok"}`))
	}))
	defer server.Close()

	dir := t.TempDir()
	writeScenario(t, dir, "health.chain.yaml", `name: health
steps:
  - name: health
    path: /health
    expect:
      status: 200
      fields:
        status: ok
`)

	out, err := execute(t, "run", dir, "--base-url", server.URL, "--no-color")
	require.NoError(t, err)
	assert.Contains(t, out, "health")
	assert.Contains(t, out, "1 passed")

	writeScenario(t, dir, "missing.chain.yaml", "steps:\n  - name: missing\n    path: /missing\n    expect: {status: 200}\n")

	out, err = execute(t, "run", dir, "--base-url", server.URL, "--no-color")
	require.Error(t, err)
	assert.Equal(t, ExitTestFailure, exitCode(err))
	assert.Contains(t, out, "1 failed")
}

func TestInitCommand(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "project")

	out, err := execute(t, "init", dir)
	require.NoError(t, err)
	assert.Contains(t, out, "hitchain project initialized")

	sc, err := loadScenario(filepath.Join(dir, "example.chain.yaml"))
	require.NoError(t, err)
	assert.Len(t, sc.Steps, 3)
	assert.FileExists(t, filepath.Join(dir, ".hitchain.yaml"))

	_, err = execute(t, "init", dir)
	assert.ErrorContains(t, err, "already exists")
}

func TestListCommand(t *testing.T) {
	dir := t.TempDir()
	writeScenario(t, dir, "flow.chain.yaml", `name: flow
steps:
  - name: login
    method: POST
    path: /login
    save:
      cookie: session
  - path: /me
`)

	out, err := execute(t, "list", dir)

	require.NoError(t, err)
	assert.Contains(t, out, "flow (")
	assert.Contains(t, out, "- login: POST /login")
	assert.Contains(t, out, "saves: cookie")
	assert.Contains(t, out, "- GET /me")
}

func TestCompletionCommand(t *testing.T) {
	out, err := execute(t, "completion", "bash")

	require.NoError(t, err)
	assert.Contains(t, out, "hitchain")
}

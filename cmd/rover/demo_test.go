package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	rerrors "github.com/vango-dev/rover/internal/errors"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "rover.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0644))
	return path
}

func TestDemoOutput(t *testing.T) {
	cfg := writeConfig(t, "metrics:\n  enabled: true\n")
	var out, logs bytes.Buffer

	err := runDemo(context.Background(), &out, &logs, demoOptions{configPath: cfg, steps: 2})
	require.NoError(t, err)

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, "demo", out.Bytes())
}

func TestDemoPersistsAcrossRuns(t *testing.T) {
	cfg := writeConfig(t, "log:\n  format: json\npersist:\n  path: state.db\n  keep: 1\n")

	var first, logs bytes.Buffer
	require.NoError(t, runDemo(context.Background(), &first, &logs, demoOptions{configPath: cfg, steps: 2}))
	assert.Contains(t, first.String(), `Text "double: 8"`)
	assert.Contains(t, logs.String(), `"msg":"no snapshot to restore"`)

	var second bytes.Buffer
	logs.Reset()
	require.NoError(t, runDemo(context.Background(), &second, &logs, demoOptions{configPath: cfg, steps: 1}))

	mount := strings.SplitN(second.String(), "== step 1", 2)[0]
	assert.Contains(t, mount, `Text "double: 8"`)
	assert.Contains(t, second.String(), `Text "double: 12"`)
	assert.Contains(t, logs.String(), `"msg":"snapshot restored"`)
	assert.FileExists(t, filepath.Join(filepath.Dir(cfg), "state.db"))
}

func TestDemoPersistFlagOverridesConfig(t *testing.T) {
	cfg := writeConfig(t, "")
	db := filepath.Join(t.TempDir(), "flag.db")
	var out, logs bytes.Buffer

	require.NoError(t, runDemo(context.Background(), &out, &logs, demoOptions{configPath: cfg, steps: 1, persist: db}))
	assert.FileExists(t, db)
}

func TestDemoRejectsBadConfig(t *testing.T) {
	cfg := writeConfig(t, "runtime:\n  maxEffectRuns: -5\n")
	var out, logs bytes.Buffer

	err := runDemo(context.Background(), &out, &logs, demoOptions{configPath: cfg, steps: 1})
	assert.ErrorIs(t, err, rerrors.New("R061"))
	assert.Empty(t, out.String())
}

func TestVersionShort(t *testing.T) {
	var out bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"version", "--short"})

	require.NoError(t, cmd.Execute())
	assert.Equal(t, version+"\n", out.String())
}

func TestDemoCommandFlags(t *testing.T) {
	cfg := writeConfig(t, "")
	var out bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{"demo", "--config", cfg, "--steps", "1"})

	require.NoError(t, cmd.ExecuteContext(context.Background()))
	assert.Contains(t, out.String(), "== step 1\n")
	assert.NotContains(t, out.String(), "== step 2")
}

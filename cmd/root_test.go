package cmd

import (
	"bytes"
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zjrosen/composer/internal/config"
	"github.com/zjrosen/composer/internal/presentation"
)

var manifestPath = filepath.Join("..", "internal", "loader", "testdata", "calculator.yaml")

type harness struct {
	config string
	db     string
}

func newHarness(t *testing.T) harness {
	t.Helper()
	dir := t.TempDir()
	h := harness{config: filepath.Join(dir, "config.yaml"), db: filepath.Join(dir, "composer.db")}
	require.NoError(t, config.WriteDefaultConfig(h.config))
	return h
}

// run executes the root command with fresh flag state.
func (h harness) run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	composeSave, jsonOutput, typesManifest, debugFlag, initForce = "", false, "", false, false

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(append([]string{"--config", h.config, "--db", h.db}, args...))
	t.Cleanup(func() { rootCmd.SetArgs(nil) })
	err := rootCmd.Execute()
	return out.String(), err
}

func TestValidate(t *testing.T) {
	h := newHarness(t)
	out, err := h.run(t, "validate", manifestPath)
	require.NoError(t, err)
	assert.Contains(t, out, "is valid")
	assert.Contains(t, out, "groups: calculator, display")

	out, err = h.run(t, "validate", "--json", manifestPath)
	require.NoError(t, err)
	var v presentation.ValidationDTO
	require.NoError(t, json.Unmarshal([]byte(out), &v))
	assert.Equal(t, 2, v.Instances)
	assert.Equal(t, 1, v.Connections)
	assert.Empty(t, v.Unsatisfied)
}

func TestValidate_MissingManifest(t *testing.T) {
	h := newHarness(t)
	_, err := h.run(t, "validate", filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
}

func TestCompose_SaveAndInspect(t *testing.T) {
	h := newHarness(t)

	out, err := h.run(t, "compose", manifestPath, "--save", "first")
	require.NoError(t, err)
	assert.Contains(t, out, "Groups (2)")
	assert.Contains(t, out, "Connections (1)")

	_, err = h.run(t, "compose", manifestPath, "--save", "second")
	require.NoError(t, err)

	out, err = h.run(t, "snapshot", "list", "--json")
	require.NoError(t, err)
	var snaps []presentation.SnapshotDTO
	require.NoError(t, json.Unmarshal([]byte(out), &snaps))
	require.Len(t, snaps, 2)

	out, err = h.run(t, "snapshot", "show", "first", "--json")
	require.NoError(t, err)
	var state presentation.StateDTO
	require.NoError(t, json.Unmarshal([]byte(out), &state))
	assert.Len(t, state.Groups, 2)
	assert.Len(t, state.Connections, 1)

	// Group ids differ between runs.
	out, err = h.run(t, "snapshot", "diff", "first", "second", "--json")
	require.NoError(t, err)
	var diff presentation.DiffDTO
	require.NoError(t, json.Unmarshal([]byte(out), &diff))
	assert.Positive(t, diff.Added)
	assert.Positive(t, diff.Removed)

	out, err = h.run(t, "types")
	require.NoError(t, err)
	assert.Contains(t, out, "Acme.Calculator")

	_, err = h.run(t, "snapshot", "delete", "first")
	require.NoError(t, err)
	_, err = h.run(t, "snapshot", "show", "first")
	require.Error(t, err)
}

func TestCompose_WithoutSaveStoresNothing(t *testing.T) {
	h := newHarness(t)
	_, err := h.run(t, "compose", manifestPath)
	require.NoError(t, err)

	out, err := h.run(t, "snapshot", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "no snapshots")
}

func TestTypes_FromManifest(t *testing.T) {
	h := newHarness(t)
	out, err := h.run(t, "types", "--manifest", manifestPath, "--json")
	require.NoError(t, err)

	var types []presentation.TypeDTO
	require.NoError(t, json.Unmarshal([]byte(out), &types))
	assert.Len(t, types, 8)
}

func TestInit(t *testing.T) {
	h := newHarness(t)
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")

	out, err := h.run(t, "init", path)
	require.NoError(t, err)
	assert.Contains(t, out, "wrote "+path)

	_, err = h.run(t, "init", path)
	require.Error(t, err)

	_, err = h.run(t, "init", path, "--force")
	require.NoError(t, err)
}

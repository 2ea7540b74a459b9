package cli

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newTestCLI returns a root command wired to a fresh SQLite database in a
// temp dir, plus the shared config path for subsequent invocations.
func newTestCLI(t *testing.T) string {
	t.Helper()

	dir := t.TempDir()
	configPath := filepath.Join(dir, "config.yaml")
	content := fmt.Sprintf("store:\n  backend: sqlite\n  sqlite:\n    path: %s\n",
		filepath.Join(dir, "audit.db"))
	require.NoError(t, os.WriteFile(configPath, []byte(content), 0o644))
	return configPath
}

// runCLI executes one command against the given config, returning captured
// stdout and the command error.
func runCLI(t *testing.T, configPath string, args ...string) (string, error) {
	t.Helper()

	buf := &bytes.Buffer{}
	cmd := NewRootCommand()
	cmd.SetOut(buf)
	cmd.SetErr(buf)
	cmd.SetArgs(append([]string{"--config", configPath, "--format", "json"}, args...))

	err := cmd.Execute()
	return buf.String(), err
}

// decodeData unmarshals the data payload of a JSON CLI response.
func decodeData(t *testing.T, output string) map[string]any {
	t.Helper()

	var resp CLIResponse
	require.NoError(t, json.Unmarshal([]byte(output), &resp))
	require.Equal(t, "ok", resp.Status)

	data, ok := resp.Data.(map[string]any)
	require.True(t, ok, "data should be an object, got %T", resp.Data)
	return data
}

func TestLogThenVerify(t *testing.T) {
	configPath := newTestCLI(t)

	out, err := runCLI(t, configPath, "log", "CREATE", "GRADE", "g1",
		"--user", "t1", "--user-name", "A. Jansen",
		"--new", `{"grade":8,"subject":"Math"}`,
		"--school", "sch1", "--student", "s9")
	require.NoError(t, err)

	rec := decodeData(t, out)
	id, _ := rec["id"].(string)
	require.NotEmpty(t, id)
	require.NotEmpty(t, rec["checksum"])

	out, err = runCLI(t, configPath, "verify", id)
	require.NoError(t, err, "a freshly appended record must verify")

	result := decodeData(t, out)
	assert.Equal(t, true, result["valid"])
}

func TestVerifyMissingRecordExitsWithFailure(t *testing.T) {
	configPath := newTestCLI(t)

	_, err := runCLI(t, configPath, "verify", "no-such-id")
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
}

func TestLogRejectsInvalidAction(t *testing.T) {
	configPath := newTestCLI(t)

	_, err := runCLI(t, configPath, "log", "DESTROY", "GRADE", "g1",
		"--user", "t1", "--user-name", "A. Jansen")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestLogRejectsMalformedSnapshot(t *testing.T) {
	configPath := newTestCLI(t)

	_, err := runCLI(t, configPath, "log", "CREATE", "GRADE", "g1",
		"--user", "t1", "--user-name", "A. Jansen",
		"--new", "{broken")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestHistoryAcrossInvocations(t *testing.T) {
	configPath := newTestCLI(t)

	_, err := runCLI(t, configPath, "log", "CREATE", "GRADE", "g1",
		"--user", "t1", "--user-name", "A. Jansen",
		"--new", `{"grade":6}`)
	require.NoError(t, err)

	_, err = runCLI(t, configPath, "log", "UPDATE", "GRADE", "g1",
		"--user", "t1", "--user-name", "A. Jansen",
		"--old", `{"grade":6}`, "--new", `{"grade":8}`,
		"--reason", "herkansing")
	require.NoError(t, err)

	out, err := runCLI(t, configPath, "history", "GRADE", "g1")
	require.NoError(t, err)

	h := decodeData(t, out)
	assert.Equal(t, float64(2), h["totalChanges"])
	assert.Equal(t, "A. Jansen", h["createdBy"])

	entries, ok := h["history"].([]any)
	require.True(t, ok)
	require.Len(t, entries, 2)

	newest, ok := entries[0].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, float64(2), newest["sequenceNumber"])

	changes, ok := newest["changes"].([]any)
	require.True(t, ok)
	require.Len(t, changes, 1)
	change := changes[0].(map[string]any)
	assert.Equal(t, "grade", change["field"])
	assert.Equal(t, float64(6), change["oldValue"])
	assert.Equal(t, float64(8), change["newValue"])
}

func TestRecentListsNewestFirst(t *testing.T) {
	configPath := newTestCLI(t)

	for _, id := range []string{"g1", "g2"} {
		_, err := runCLI(t, configPath, "log", "CREATE", "GRADE", id,
			"--user", "t1", "--user-name", "A. Jansen", "--new", `{"grade":7}`)
		require.NoError(t, err)
	}

	out, err := runCLI(t, configPath, "recent", "--limit", "1")
	require.NoError(t, err)

	var resp CLIResponse
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	records, ok := resp.Data.([]any)
	require.True(t, ok)
	require.Len(t, records, 1)
	rec := records[0].(map[string]any)
	assert.Equal(t, "g2", rec["entityId"])
}

func TestStats(t *testing.T) {
	configPath := newTestCLI(t)

	_, err := runCLI(t, configPath, "log", "CREATE", "GRADE", "g1",
		"--user", "t1", "--user-name", "A. Jansen",
		"--new", `{"grade":7}`, "--school", "sch1")
	require.NoError(t, err)
	_, err = runCLI(t, configPath, "log", "CREATE", "ABSENCE", "a1",
		"--user", "t2", "--user-name", "B. de Vries",
		"--new", `{"reason":"sick"}`, "--school", "sch1")
	require.NoError(t, err)

	out, err := runCLI(t, configPath, "stats", "sch1")
	require.NoError(t, err)

	stats := decodeData(t, out)
	assert.Equal(t, float64(2), stats["totalLogs"])

	byAction, ok := stats["byAction"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, float64(2), byAction["CREATE"])

	byUser, ok := stats["byUser"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, float64(1), byUser["A. Jansen (t1)"])
	assert.Equal(t, float64(1), byUser["B. de Vries (t2)"])
}

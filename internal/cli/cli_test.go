package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/tally/internal/store"
)

// executeWithInput is execute with a stdin reader, for the run command.
func executeWithInput(t *testing.T, input string, args ...string) (string, error) {
	t.Helper()
	clearTallyEnv(t)

	cmd := NewRootCommand()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetIn(strings.NewReader(input))
	cmd.SetArgs(args)

	err := cmd.Execute()
	return out.String(), err
}

func tempDB(t *testing.T) string {
	t.Helper()
	return filepath.Join(t.TempDir(), "tally.db")
}

func TestInvokeCommand_Text(t *testing.T) {
	db := tempDB(t)

	out, err := execute(t, "invoke", "increment", "--value", "48", "--db", db)
	require.NoError(t, err)
	assert.Equal(t, "increment(48) applied to default: counter = 48 (seq 1)\n", out)

	// The clock resumes from the journal on the next invocation.
	out, err = execute(t, "invoke", "decrement", "--value", "16", "--db", db)
	require.NoError(t, err)
	assert.Equal(t, "decrement(16) applied to default: counter = 32 (seq 2)\n", out)
}

func TestInvokeCommand_JSON(t *testing.T) {
	db := tempDB(t)

	out, err := execute(t, "invoke", "update", "--value", "33", "--account", "payments", "--db", db, "--format", "json")
	require.NoError(t, err)

	var resp struct {
		Status string       `json:"status"`
		Data   InvokeResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, "payments", resp.Data.Account)
	assert.Equal(t, "update(33)", resp.Data.Instruction)
	assert.Equal(t, uint32(33), resp.Data.Counter)
	assert.Equal(t, int64(1), resp.Data.Seq)
	assert.NotEmpty(t, resp.Data.EntryID)
	assert.NotEmpty(t, resp.Data.Token)
}

func TestInvokeCommand_UnknownOperation(t *testing.T) {
	_, err := execute(t, "invoke", "add", "--db", tempDB(t))
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestInvokeCommand_RequiresDatabase(t *testing.T) {
	_, err := execute(t, "invoke", "reset")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, err.Error(), "database path required")
}

func TestTraceCommand(t *testing.T) {
	db := tempDB(t)

	_, err := execute(t, "invoke", "increment", "--value", "48", "--db", db)
	require.NoError(t, err)
	_, err = execute(t, "invoke", "reset", "--db", db)
	require.NoError(t, err)

	out, err := execute(t, "trace", "--db", db)
	require.NoError(t, err)
	assert.Contains(t, out, "journal for default (2 entries):")
	assert.Contains(t, out, "increment(48)")
	assert.Contains(t, out, "reset")
}

func TestTraceCommand_JSON(t *testing.T) {
	db := tempDB(t)

	_, err := execute(t, "invoke", "increment", "--value", "7", "--db", db)
	require.NoError(t, err)

	out, err := execute(t, "trace", "--db", db, "--format", "json")
	require.NoError(t, err)

	var resp struct {
		Status string      `json:"status"`
		Data   TraceResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	require.Len(t, resp.Data.Timeline, 1)
	assert.Equal(t, "increment", resp.Data.Timeline[0].Op)
	assert.Equal(t, "0007000000", resp.Data.Timeline[0].Raw)
	assert.Equal(t, uint32(7), resp.Data.Stats.Counter)
}

func TestReplayCommand_Deterministic(t *testing.T) {
	db := tempDB(t)

	for _, args := range [][]string{
		{"invoke", "increment", "--value", "48", "--db", db},
		{"invoke", "decrement", "--value", "16", "--db", db},
	} {
		_, err := execute(t, args...)
		require.NoError(t, err)
	}

	out, err := execute(t, "replay", "--db", db)
	require.NoError(t, err)
	assert.Contains(t, out, "ok")
	assert.Contains(t, out, "1 account(s) replayed")
}

func TestReplayCommand_DetectsDivergence(t *testing.T) {
	db := tempDB(t)

	_, err := execute(t, "invoke", "increment", "--value", "48", "--db", db)
	require.NoError(t, err)

	// Corrupt the stored state out of band.
	st, err := store.Open(db)
	require.NoError(t, err)
	_, err = st.DB().ExecContext(context.Background(),
		`UPDATE accounts SET state = ? WHERE id = ?`, []byte{99, 0, 0, 0}, "default")
	require.NoError(t, err)
	require.NoError(t, st.Close())

	out, err := execute(t, "replay", "--db", db)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, out, "DIVERGED")
}

func TestRunCommand_FeedsFromStdin(t *testing.T) {
	db := tempDB(t)

	input := strings.Join([]string{
		"# warm-up",
		"0030000000",
		"",
		"payments 0221000000",
		"09", // rejected, logged, skipped
		"0110000000",
	}, "\n") + "\n"

	_, err := executeWithInput(t, input, "run", "--db", db)
	require.NoError(t, err)

	out, err := execute(t, "trace", "--db", db)
	require.NoError(t, err)
	assert.Contains(t, out, "journal for default (2 entries):")

	out, err = execute(t, "trace", "--db", db, "--account", "payments")
	require.NoError(t, err)
	assert.Contains(t, out, "journal for payments (1 entries):")
	assert.Contains(t, out, "update(33)")
}

func TestRunCommand_InvalidHexLine(t *testing.T) {
	_, err := executeWithInput(t, "zz\n", "run", "--db", tempDB(t))
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestTestCommand_PassingScenario(t *testing.T) {
	dir := t.TempDir()
	scenario := `name: smoke
steps:
  - op: increment
    value: 48
    expect:
      counter: 48
assertions:
  - type: final_counter
    counter: 48
`
	path := filepath.Join(dir, "smoke.yaml")
	require.NoError(t, os.WriteFile(path, []byte(scenario), 0o644))

	out, err := execute(t, "test", path)
	require.NoError(t, err)
	assert.Contains(t, out, "PASS  smoke")
	assert.Contains(t, out, "1/1 scenarios passed")
}

func TestTestCommand_FailingScenario(t *testing.T) {
	dir := t.TempDir()
	scenario := `name: broken
steps:
  - op: increment
    value: 48
    expect:
      counter: 49
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "broken.yaml"), []byte(scenario), 0o644))

	out, err := execute(t, "test", dir)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, out, "FAIL  broken")
}

func TestTestCommand_MissingPath(t *testing.T) {
	_, err := execute(t, "test", filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

package cli

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/santa/internal/store"
)

// execute runs the root command with args against db and returns stdout.
func execute(t *testing.T, db string, args ...string) (string, error) {
	t.Helper()
	out := &bytes.Buffer{}
	cmd := NewRootCommand()
	cmd.SetOut(out)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs(append(args, "--db", db, "--locale", "en"))
	err := cmd.Execute()
	return out.String(), err
}

func newDB(t *testing.T) string {
	t.Helper()
	t.Setenv("SANTA_OPERATOR_ID", "op")
	return filepath.Join(t.TempDir(), "santa.db")
}

func registerThree(t *testing.T, db string) {
	t.Helper()
	for _, p := range []struct{ id, label string }{{"A", "Anna"}, {"B", "Boris"}, {"C", "Chen"}} {
		out, err := execute(t, db, "submit", p.id, "--recipient", p.label, "--ozon", "Lenina 1")
		require.NoError(t, err)
		assert.Equal(t, "✅ Gift details saved!\n", out)
	}
}

func TestSubmitCommand_InvalidProfile(t *testing.T) {
	db := newDB(t)

	out, err := execute(t, db, "submit", "A", "--recipient", "   ")
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Equal(t, "❌ Say who the gift is for.\n", out)
}

func TestStartCommand(t *testing.T) {
	db := newDB(t)
	registerThree(t, db)

	out, err := execute(t, db, "start", "--closed", "B")
	require.NoError(t, err)

	assert.Contains(t, out, "--- to A ---")
	assert.Contains(t, out, "--- to C ---")
	assert.NotContains(t, out, "--- to B ---")
	assert.Contains(t, out, "🎅 **Secret Santa!**")
	assert.True(t, strings.HasSuffix(out,
		"✅ Secret Santa is on! Participants: 3.\n⚠️ Could not message 1 participants (DMs closed).\n"))

	st, err := store.Open(db)
	require.NoError(t, err)
	defer st.Close()
	roster, err := st.GetAll(t.Context())
	require.NoError(t, err)
	for id, p := range roster {
		assert.NotEqual(t, id, p.AssignedTarget)
		assert.NotEmpty(t, p.AssignedTarget)
	}
}

func TestStartCommand_NotOperator(t *testing.T) {
	db := newDB(t)
	registerThree(t, db)

	out, err := execute(t, db, "start", "--as", "A")
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Equal(t, "🔒 This command is for the organizer only.\n", out)
}

func TestStartCommand_RejectedWhileServeRuns(t *testing.T) {
	db := newDB(t)
	registerThree(t, db)

	serving, err := store.Open(db)
	require.NoError(t, err)
	defer serving.Close()
	require.NoError(t, serving.AcquireRunLock(t.Context(), "serve", time.Now(), time.Hour))

	out, err := execute(t, db, "start")
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Equal(t, "⏳ An exchange is already running, wait for it to finish.\n", out)

	roster, err := serving.GetAll(t.Context())
	require.NoError(t, err)
	for _, p := range roster {
		assert.Empty(t, p.AssignedTarget)
	}

	require.NoError(t, serving.ReleaseRunLock(t.Context(), "serve"))
	_, err = execute(t, db, "start")
	require.NoError(t, err)
}

func TestStartCommand_Insufficient(t *testing.T) {
	db := newDB(t)

	out, err := execute(t, db, "start", "--format", "json")
	require.Error(t, err)

	var resp struct {
		Status string `json:"status"`
		Data   struct {
			Code string `json:"code"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "error", resp.Status)
	assert.Equal(t, "INSUFFICIENT_PARTICIPANTS", resp.Data.Code)
}

func TestForwardCommand(t *testing.T) {
	db := newDB(t)

	t.Run("before the exchange", func(t *testing.T) {
		registerThree(t, db)
		out, err := execute(t, db, "forward", "A", "--attachment", "https://cdn.example.com/qr.png")
		require.Error(t, err)
		assert.Equal(t, "❌ You are not in the exchange or it has not started yet.\n", out)
	})

	t.Run("missing attachment", func(t *testing.T) {
		out, err := execute(t, db, "forward", "A")
		require.Error(t, err)
		assert.Equal(t, "❌ Please attach an image (QR code).\n", out)
	})

	t.Run("after the exchange", func(t *testing.T) {
		_, err := execute(t, db, "start")
		require.NoError(t, err)

		out, err := execute(t, db, "forward", "A", "--attachment", "https://cdn.example.com/qr.png", "--note", "see you")
		require.NoError(t, err)
		assert.Contains(t, out, "[attachment: https://cdn.example.com/qr.png]")
		assert.Contains(t, out, "see you")
		assert.NotContains(t, out, "--- to A ---")
		assert.True(t, strings.HasSuffix(out, "✅ QR code and message sent to your recipient!\n"))
	})
}

func TestRosterCommand(t *testing.T) {
	db := newDB(t)

	out, err := execute(t, db, "roster")
	require.NoError(t, err)
	assert.Equal(t, "No participants registered.\n", out)

	registerThree(t, db)

	out, err = execute(t, db, "roster", "--format", "json")
	require.NoError(t, err)

	var resp struct {
		Status string        `json:"status"`
		Data   []RosterEntry `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	require.Len(t, resp.Data, 3)
	assert.Equal(t, "A", resp.Data[0].ID)
	assert.Equal(t, "Anna", resp.Data[0].RecipientLabel)
	assert.Equal(t, "none", resp.Data[0].Pickup["yandex"])
	assert.Empty(t, resp.Data[0].AssignedTarget)

	out, err = execute(t, db, "roster")
	require.NoError(t, err)
	assert.Contains(t, out, `A  "Anna" -> -`)
	assert.Contains(t, out, "Participants: 3, assigned: 0")
}

func TestRunsCommand(t *testing.T) {
	db := newDB(t)

	out, err := execute(t, db, "runs")
	require.NoError(t, err)
	assert.Equal(t, "No runs recorded.\n", out)

	registerThree(t, db)
	_, err = execute(t, db, "start", "--closed", "C")
	require.NoError(t, err)

	out, err = execute(t, db, "runs", "--format", "json")
	require.NoError(t, err)
	var list struct {
		Data []store.Run `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &list))
	require.Len(t, list.Data, 1)
	run := list.Data[0]
	assert.Equal(t, "op", run.OperatorID)
	assert.Equal(t, 3, run.Participants)

	out, err = execute(t, db, "runs", run.ID)
	require.NoError(t, err)
	assert.Contains(t, out, "Run: "+run.ID)
	assert.Contains(t, out, "Delivered: 2, unreachable: 1, transport failures: 0, skipped: 0")

	out, err = execute(t, db, "runs", "--participant", "C")
	require.NoError(t, err)
	assert.Contains(t, out, "[3] C -> ")
	assert.Contains(t, out, "unreachable")

	_, err = execute(t, db, "runs", "missing-run")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))

	_, err = execute(t, db, "runs", run.ID, "--participant", "C")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "mutually exclusive")
}

func TestImportExportCommands(t *testing.T) {
	db := newDB(t)
	legacy := filepath.Join(t.TempDir(), "presents.json")
	require.NoError(t, os.WriteFile(legacy, []byte(`{
		"111": {"flm": "Петрова Мария", "ozon": "Москва, ул. Ленина, 1", "wb": "нет", "ym": "нет", "additional": "не скажу", "gift_to": "222"},
		"222": {"flm": "Иванов Иван", "ozon": "нет", "wb": "Казань", "ym": "нет", "additional": "без сладкого", "gift_to": "111"}
	}`), 0o644))

	out, err := execute(t, db, "import", legacy)
	require.NoError(t, err)
	assert.Equal(t, "Imported 2 participants from "+legacy+"\n", out)

	out, err = execute(t, db, "roster")
	require.NoError(t, err)
	assert.Contains(t, out, `111  "Петрова Мария" -> 222`)
	assert.Contains(t, out, "Participants: 2, assigned: 2")

	out, err = execute(t, db, "export")
	require.NoError(t, err)
	var doc map[string]map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &doc))
	assert.Equal(t, "нет", doc["111"]["wb"])
	assert.Equal(t, "не скажу", doc["111"]["additional"])
	assert.Equal(t, "111", doc["222"]["gift_to"])

	exported := filepath.Join(t.TempDir(), "out.json")
	_, err = execute(t, db, "export", "-o", exported)
	require.NoError(t, err)
	data, err := os.ReadFile(exported)
	require.NoError(t, err)
	assert.JSONEq(t, out, string(data))

	_, err = execute(t, db, "import", filepath.Join(t.TempDir(), "missing.json"))
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func execute(t *testing.T, args ...string) (map[string]interface{}, string) {
	t.Helper()
	cmd := newRootCmd()
	out := &bytes.Buffer{}
	cmd.SetOut(out)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs(args)
	require.NoError(t, cmd.Execute())
	var decoded map[string]interface{}
	_ = json.Unmarshal(out.Bytes(), &decoded)
	return decoded, out.String()
}

func TestRouteCommand(t *testing.T) {
	state := t.TempDir()
	resp, _ := execute(t, "route", "what is the price?", "--state-dir", state, "--env-file", "", "--log-level", "error")
	assert.EqualValues(t, "success", resp["status"])
	assert.EqualValues(t, "sales", resp["workflow"])
	assert.Contains(t, resp["message"], "25 Lakhs")
}

func TestApprovalCommands(t *testing.T) {
	state := t.TempDir()
	configFile := filepath.Join(state, "config.yaml")
	require.NoError(t, os.WriteFile(configFile, []byte("alignment:\n  founderActions:\n    - sales\n"), 0o644))
	common := []string{"--config", configFile, "--state-dir", state, "--env-file", "", "--log-level", "error"}

	resp, _ := execute(t, append([]string{"route", "I want to book a plot"}, common...)...)
	require.EqualValues(t, "pending_approval", resp["status"])
	traceID, _ := resp["trace_id"].(string)
	require.NotEmpty(t, traceID)

	_, listed := execute(t, append([]string{"approvals", "list"}, common...)...)
	assert.Contains(t, listed, traceID)

	approved, _ := execute(t, append([]string{"approvals", "approve", traceID, "--reason", "ok"}, common...)...)
	assert.EqualValues(t, "success", approved["status"])
	assert.EqualValues(t, true, approved["resumed"])

	again, _ := execute(t, append([]string{"approvals", "approve", traceID}, common...)...)
	assert.EqualValues(t, "success", again["status"])
	assert.EqualValues(t, "already resumed", again["reason"])

	_, listed = execute(t, append([]string{"approvals", "list"}, common...)...)
	assert.NotContains(t, listed, traceID)

	missing, _ := execute(t, append([]string{"approvals", "reject", "trace-missing"}, common...)...)
	assert.EqualValues(t, "not_found", missing["status"])
}

func TestLoadConfig_Env(t *testing.T) {
	t.Setenv("ROUTEGATE_REFLECTION_RETENTION", "7")
	cfg, err := loadConfig(&rootOptions{stateDir: t.TempDir()})
	require.NoError(t, err)
	assert.EqualValues(t, 7, cfg.Reflection.Retention)
	assert.NotEmpty(t, cfg.Approval.StoreURL)
	assert.NotEmpty(t, cfg.Budget.StoreURL)
}

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

// testConfig пишет конфиг с файловой sqlite: команды открывают БД заново.
func testConfig(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	body := fmt.Sprintf("logs:\n  level: error\ndatabase:\n  driver: sqlite\n  dsn: %s\n", filepath.Join(dir, "invent.db"))
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func run(t *testing.T, cfg string, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd := NewRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(append([]string{"--config", cfg}, args...))
	err := cmd.Execute()
	return out.String(), err
}

func TestMaintenanceCommands(t *testing.T) {
	cfg := testConfig(t)

	out, err := run(t, cfg, "migrate")
	require.NoError(t, err)
	assert.Contains(t, out, "schema is up to date")

	out, err = run(t, cfg, "departments", "init")
	require.NoError(t, err)
	var deps []map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &deps))
	assert.Len(t, deps, 7)

	_, err = run(t, cfg, "departments", "init")
	assert.Error(t, err)

	out, err = run(t, cfg, "validate", "--device-type", "mouse")
	require.NoError(t, err)
	var rep struct {
		Valid         bool `json:"valid"`
		TotalStations int  `json:"totalStations"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &rep))
	assert.True(t, rep.Valid)
	assert.Zero(t, rep.TotalStations)

	out, err = run(t, cfg, "bays", "sync")
	require.NoError(t, err)
	assert.Contains(t, out, `"baysCreated": 0`)

	out, err = run(t, cfg, "logs", "cleanup", "--days", "30")
	require.NoError(t, err)
	assert.Contains(t, out, `"daysKept": 30`)
}

func TestValidateRequiresDeviceType(t *testing.T) {
	_, err := run(t, testConfig(t), "validate", "--device-type", "printer")
	assert.Error(t, err)
}

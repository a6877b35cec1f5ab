package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// allConfigKeys lists every CREDKEEPER_ env var that Load() reads.
var allConfigKeys = []string{
	"CREDKEEPER_CREDENTIALS_PATH",
	"CREDKEEPER_TOKEN_ENDPOINT",
	"CREDKEEPER_CLIENT_ID",
	"CREDKEEPER_PROVIDER_ORIGIN",
	"CREDKEEPER_REFRESH_WINDOW",
	"CREDKEEPER_HTTP_TIMEOUT",
	"CREDKEEPER_BROWSER_TIMEOUT",
	"CREDKEEPER_AUDIT_DB_PATH",
	"CREDKEEPER_HOSTS_FILE",
	"CREDKEEPER_KNOWN_HOSTS_FILE",
	"CREDKEEPER_KEYCHAIN_SERVICE",
	"CREDKEEPER_WORKER_COMMAND",
}

// isolateConfigEnv saves and unsets all CREDKEEPER_ env vars so tests do
// not inherit values from the host environment. t.Cleanup restores
// original values after the test.
func isolateConfigEnv(t *testing.T) {
	t.Helper()
	for _, key := range allConfigKeys {
		if orig, ok := os.LookupEnv(key); ok {
			t.Cleanup(func() { os.Setenv(key, orig) })
		} else {
			t.Cleanup(func() { os.Unsetenv(key) })
		}
		os.Unsetenv(key)
	}
}

func TestLoad_Defaults(t *testing.T) {
	isolateConfigEnv(t)

	cfg, err := Load()

	require.NoError(t, err)
	assert.Equal(t, "https://console.anthropic.com/v1/oauth/token", cfg.TokenEndpoint)
	assert.Equal(t, 30*time.Minute, cfg.RefreshWindow)
	assert.Equal(t, 30*time.Second, cfg.HTTPTimeout)
	assert.Equal(t, 90*time.Second, cfg.BrowserTimeout)
	assert.Equal(t, "credkeeper.db", cfg.AuditDBPath)
	assert.Equal(t, "Claude Code-credentials", cfg.KeychainService)
	assert.Equal(t, "claude", cfg.WorkerCommand)
	assert.Contains(t, cfg.CredentialsPath, ".credentials.json")
}

func TestLoad_Overrides(t *testing.T) {
	isolateConfigEnv(t)
	t.Setenv("CREDKEEPER_CREDENTIALS_PATH", "/data/creds.json")
	t.Setenv("CREDKEEPER_TOKEN_ENDPOINT", "http://127.0.0.1:9999/oauth/token")
	t.Setenv("CREDKEEPER_REFRESH_WINDOW", "45m")
	t.Setenv("CREDKEEPER_WORKER_COMMAND", "/usr/local/bin/claude")

	cfg, err := Load()

	require.NoError(t, err)
	assert.Equal(t, "/data/creds.json", cfg.CredentialsPath)
	assert.Equal(t, "http://127.0.0.1:9999/oauth/token", cfg.TokenEndpoint)
	assert.Equal(t, 45*time.Minute, cfg.RefreshWindow)
	assert.Equal(t, "/usr/local/bin/claude", cfg.WorkerCommand)
}

func TestLoad_InvalidDuration(t *testing.T) {
	isolateConfigEnv(t)
	t.Setenv("CREDKEEPER_REFRESH_WINDOW", "soon")

	_, err := Load()
	assert.Error(t, err)
}

func TestLoadHosts(t *testing.T) {
	path := filepath.Join(t.TempDir(), "hosts.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
hosts:
  - name: analysis-1
    addr: 10.0.0.12:22
    user: worker
    key_file: /home/op/.ssh/id_ed25519
    store_path: /home/worker/.claude/.credentials.json
    compose_dir: /opt/chatgeist
  - name: analysis-2
    addr: 10.0.0.13:22
    user: worker
    store_path: /home/worker/.claude/.credentials.json
`), 0o600))

	hosts, err := LoadHosts(path)

	require.NoError(t, err)
	require.Len(t, hosts, 2)
	assert.Equal(t, "analysis-1", hosts[0].Name)
	assert.Equal(t, "10.0.0.12:22", hosts[0].Addr)
	assert.Equal(t, "/opt/chatgeist", hosts[0].ComposeDir)
	assert.Empty(t, hosts[1].KeyFile)
}

func TestLoadHosts_Invalid(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{name: "empty", body: "hosts: []"},
		{name: "not yaml", body: "{{{"},
		{name: "missing addr", body: "hosts:\n  - name: a\n    user: w\n    store_path: /x"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "hosts.yaml")
			require.NoError(t, os.WriteFile(path, []byte(tt.body), 0o600))

			_, err := LoadHosts(path)
			assert.Error(t, err)
		})
	}
}

func TestLoadHosts_Missing(t *testing.T) {
	_, err := LoadHosts(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

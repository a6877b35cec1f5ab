// Package config loads application configuration from environment
// variables, and the sync destinations from a YAML hosts file.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/chatgeist/credkeeper/internal/domain/model"
)

// Config holds the application configuration loaded from CREDKEEPER_*
// environment variables.
type Config struct {
	CredentialsPath string
	TokenEndpoint   string
	ClientID        string
	ProviderOrigin  string
	RefreshWindow   time.Duration
	HTTPTimeout     time.Duration
	BrowserTimeout  time.Duration
	AuditDBPath     string
	HostsFile       string
	KnownHostsFile  string
	KeychainService string
	WorkerCommand   string
}

// Load reads configuration from environment variables and returns a
// validated Config. Every variable has a working default; the zero-config
// case targets the provider's production endpoints and the CLI's standard
// credentials path.
func Load() (*Config, error) {
	home, _ := os.UserHomeDir()

	cfg := &Config{
		CredentialsPath: filepath.Join(home, ".claude", ".credentials.json"),
		TokenEndpoint:   "https://console.anthropic.com/v1/oauth/token",
		ClientID:        "9d1c250a-e61b-44d9-88ed-5944d1962f5e",
		ProviderOrigin:  "https://claude.ai",
		RefreshWindow:   30 * time.Minute,
		HTTPTimeout:     30 * time.Second,
		BrowserTimeout:  90 * time.Second,
		AuditDBPath:     "credkeeper.db",
		HostsFile:       "hosts.yaml",
		KnownHostsFile:  filepath.Join(home, ".ssh", "known_hosts"),
		KeychainService: "Claude Code-credentials",
		WorkerCommand:   "claude",
	}

	if v, ok := os.LookupEnv("CREDKEEPER_CREDENTIALS_PATH"); ok {
		cfg.CredentialsPath = v
	}
	if v, ok := os.LookupEnv("CREDKEEPER_TOKEN_ENDPOINT"); ok {
		cfg.TokenEndpoint = v
	}
	if v, ok := os.LookupEnv("CREDKEEPER_CLIENT_ID"); ok {
		cfg.ClientID = v
	}
	if v, ok := os.LookupEnv("CREDKEEPER_PROVIDER_ORIGIN"); ok {
		cfg.ProviderOrigin = v
	}
	if v, ok := os.LookupEnv("CREDKEEPER_AUDIT_DB_PATH"); ok {
		cfg.AuditDBPath = v
	}
	if v, ok := os.LookupEnv("CREDKEEPER_HOSTS_FILE"); ok {
		cfg.HostsFile = v
	}
	if v, ok := os.LookupEnv("CREDKEEPER_KNOWN_HOSTS_FILE"); ok {
		cfg.KnownHostsFile = v
	}
	if v, ok := os.LookupEnv("CREDKEEPER_KEYCHAIN_SERVICE"); ok {
		cfg.KeychainService = v
	}
	if v, ok := os.LookupEnv("CREDKEEPER_WORKER_COMMAND"); ok {
		cfg.WorkerCommand = v
	}

	var err error
	if cfg.RefreshWindow, err = durationEnv("CREDKEEPER_REFRESH_WINDOW", cfg.RefreshWindow); err != nil {
		return nil, err
	}
	if cfg.HTTPTimeout, err = durationEnv("CREDKEEPER_HTTP_TIMEOUT", cfg.HTTPTimeout); err != nil {
		return nil, err
	}
	if cfg.BrowserTimeout, err = durationEnv("CREDKEEPER_BROWSER_TIMEOUT", cfg.BrowserTimeout); err != nil {
		return nil, err
	}

	return cfg, nil
}

func durationEnv(key string, def time.Duration) (time.Duration, error) {
	v, ok := os.LookupEnv(key)
	if !ok {
		return def, nil
	}
	parsed, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("%s has invalid duration %q: %w", key, v, err)
	}
	return parsed, nil
}

// hostsFile is the YAML shape of the sync destinations file.
type hostsFile struct {
	Hosts []model.SyncTarget `yaml:"hosts"`
}

// LoadHosts reads the sync destinations. Each target must name an
// address, a user, and a store path; key_file and compose_dir may be
// empty when the host relies on agent auth or runs no compose project.
func LoadHosts(path string) ([]model.SyncTarget, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read hosts file %s: %w", path, err)
	}

	var hf hostsFile
	if err := yaml.Unmarshal(data, &hf); err != nil {
		return nil, fmt.Errorf("parse hosts file %s: %w", path, err)
	}
	if len(hf.Hosts) == 0 {
		return nil, fmt.Errorf("hosts file %s lists no hosts", path)
	}

	for i, h := range hf.Hosts {
		if h.Name == "" || h.Addr == "" || h.User == "" || h.StorePath == "" {
			return nil, fmt.Errorf("hosts file %s: host %d missing name/addr/user/store_path", path, i)
		}
	}

	return hf.Hosts, nil
}

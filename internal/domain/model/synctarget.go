package model

// SyncTarget describes one execution host: where its credential store
// lives and how to reach its sandboxed worker. Targets are configured in
// the hosts file on the primary host.
type SyncTarget struct {
	// Name is the operator-facing alias ("analysis-1").
	Name string `yaml:"name"`
	// Addr is host:port for the SSH channel.
	Addr string `yaml:"addr"`
	// User is the worker's runtime identity on the execution host.
	User string `yaml:"user"`
	// KeyFile is the path to the SSH private key on the primary host.
	KeyFile string `yaml:"key_file"`
	// StorePath is the canonical credential store location on the
	// execution host.
	StorePath string `yaml:"store_path"`
	// ComposeDir is the docker compose project directory that runs the
	// worker container.
	ComposeDir string `yaml:"compose_dir"`
}

// WorkerCall is one invocation of the sandboxed worker. AccessToken is
// filled by the credential injector immediately before the call and is
// never cached across calls.
type WorkerCall struct {
	Prompt      string
	AccessToken string
}

// Package sshsync implements the SyncTransport and WorkerController ports
// over SSH. The credential push streams the envelope to a sibling temp
// file on the execution host and renames it into place, so an interrupted
// transfer leaves either the old complete file or the new complete file.
package sshsync

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net"
	"os"
	"path"
	"strings"
	"time"

	"golang.org/x/crypto/ssh"
	"golang.org/x/crypto/ssh/agent"
	"golang.org/x/crypto/ssh/knownhosts"

	"github.com/chatgeist/credkeeper/internal/domain/model"
	"github.com/chatgeist/credkeeper/internal/domain/port/driven"
)

// Compile-time interface satisfaction checks.
var (
	_ driven.SyncTransport    = (*Transport)(nil)
	_ driven.WorkerController = (*Transport)(nil)
)

// Transport holds the SSH dialing configuration shared by pushes, worker
// recycles, and health-check invocations.
type Transport struct {
	hostKeys ssh.HostKeyCallback
	timeout  time.Duration

	// WorkerCommand is the worker binary invoked for health checks on
	// the execution host.
	WorkerCommand string
}

// New creates a Transport that verifies hosts against the given
// known_hosts file. dialTimeout bounds connection establishment; command
// execution is bounded by the caller's context.
func New(knownHostsPath string, dialTimeout time.Duration) (*Transport, error) {
	hostKeys, err := knownhosts.New(knownHostsPath)
	if err != nil {
		return nil, fmt.Errorf("load known hosts %s: %w", knownHostsPath, err)
	}
	return &Transport{
		hostKeys:      hostKeys,
		timeout:       dialTimeout,
		WorkerCommand: "claude",
	}, nil
}

// Push implements driven.SyncTransport.
func (t *Transport) Push(ctx context.Context, target model.SyncTarget, rec *model.CredentialRecord) error {
	env := model.CredentialEnvelope{ClaudeAiOauth: *rec}
	payload, err := json.MarshalIndent(&env, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal credential envelope: %w", err)
	}
	payload = append(payload, '\n')

	dir := path.Dir(target.StorePath)
	tmp := target.StorePath + ".sync-tmp"
	script := fmt.Sprintf(
		"umask 077 && mkdir -p %s && cat > %s && mv -f %s %s && chmod 600 %s",
		shellQuote(dir), shellQuote(tmp), shellQuote(tmp), shellQuote(target.StorePath), shellQuote(target.StorePath),
	)

	if _, err := t.run(ctx, target, script, payload); err != nil {
		return fmt.Errorf("%w: push to %s: %v", model.ErrSyncTransport, target.Name, err)
	}
	return nil
}

// Recycle implements driven.WorkerController by bouncing the compose
// project that runs the worker. down+up (not restart) so the container
// re-reads its env file.
func (t *Transport) Recycle(ctx context.Context, target model.SyncTarget) error {
	script := fmt.Sprintf(
		"cd %s && docker compose down && docker compose up -d",
		shellQuote(target.ComposeDir),
	)
	if _, err := t.run(ctx, target, script, nil); err != nil {
		return fmt.Errorf("recycle worker on %s: %w", target.Name, err)
	}
	return nil
}

// HealthCheck implements driven.WorkerController.
func (t *Transport) HealthCheck(ctx context.Context, target model.SyncTarget, prompt string) (string, error) {
	script := fmt.Sprintf("%s --print %s", t.WorkerCommand, shellQuote(prompt))
	out, err := t.run(ctx, target, script, nil)
	if err != nil {
		return "", fmt.Errorf("health check on %s: %w", target.Name, err)
	}
	return string(out), nil
}

// run dials the target, executes one remote command with optional stdin,
// and returns its stdout.
func (t *Transport) run(ctx context.Context, target model.SyncTarget, command string, stdin []byte) ([]byte, error) {
	client, err := t.dial(target)
	if err != nil {
		return nil, err
	}
	defer client.Close()

	session, err := client.NewSession()
	if err != nil {
		return nil, fmt.Errorf("open session: %w", err)
	}
	defer session.Close()

	if stdin != nil {
		session.Stdin = bytes.NewReader(stdin)
	}
	var stdout, stderr bytes.Buffer
	session.Stdout = &stdout
	session.Stderr = &stderr

	// ssh sessions have no context support; cancel by tearing down the
	// connection when ctx expires.
	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			client.Close()
		case <-done:
		}
	}()

	if err := session.Run(command); err != nil {
		if ctx.Err() != nil {
			return nil, fmt.Errorf("remote command: %w", ctx.Err())
		}
		return nil, fmt.Errorf("remote command: %w (stderr: %s)", err, strings.TrimSpace(stderr.String()))
	}
	return stdout.Bytes(), nil
}

func (t *Transport) dial(target model.SyncTarget) (*ssh.Client, error) {
	auth, err := t.authMethod(target)
	if err != nil {
		return nil, err
	}

	cfg := &ssh.ClientConfig{
		User:            target.User,
		Auth:            []ssh.AuthMethod{auth},
		HostKeyCallback: t.hostKeys,
		Timeout:         t.timeout,
	}
	client, err := ssh.Dial("tcp", target.Addr, cfg)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", target.Addr, err)
	}
	return client, nil
}

// authMethod selects key-file auth when the target names one, otherwise
// the SSH agent at SSH_AUTH_SOCK.
func (t *Transport) authMethod(target model.SyncTarget) (ssh.AuthMethod, error) {
	if target.KeyFile != "" {
		keyData, err := os.ReadFile(target.KeyFile)
		if err != nil {
			return nil, fmt.Errorf("read key file: %w", err)
		}
		signer, err := ssh.ParsePrivateKey(keyData)
		if err != nil {
			return nil, fmt.Errorf("parse key file %s: %w", target.KeyFile, err)
		}
		return ssh.PublicKeys(signer), nil
	}

	sock := os.Getenv("SSH_AUTH_SOCK")
	if sock == "" {
		return nil, fmt.Errorf("target %s has no key_file and SSH_AUTH_SOCK is unset", target.Name)
	}
	conn, err := net.Dial("unix", sock)
	if err != nil {
		return nil, fmt.Errorf("connect ssh agent: %w", err)
	}
	return ssh.PublicKeysCallback(agent.NewClient(conn).Signers), nil
}

// shellQuote wraps s in single quotes, escaping embedded single quotes,
// so prompts and paths survive the remote shell.
func shellQuote(s string) string {
	return "'" + strings.ReplaceAll(s, "'", `'\''`) + "'"
}

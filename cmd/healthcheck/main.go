// Command healthcheck probes the sandboxed worker on an execution host:
// it issues a trivial prompt through the credential injector and exits 0
// only if the reply contains the expected acknowledgement. Container
// healthchecks run it on a schedule.
package main

import (
	"context"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/chatgeist/credkeeper/internal/adapter/driven/claudecli"
	"github.com/chatgeist/credkeeper/internal/adapter/driven/credfile"
	"github.com/chatgeist/credkeeper/internal/application"
	"github.com/chatgeist/credkeeper/internal/config"
	"github.com/chatgeist/credkeeper/internal/domain/model"
)

const (
	probePrompt = "Reply with exactly: PONG"
	probeAck    = "PONG"
)

func main() {
	os.Exit(check())
}

func check() int {
	cfg, err := config.Load()
	if err != nil {
		return 1
	}

	ctx, cancel := context.WithTimeout(context.Background(), 90*time.Second)
	defer cancel()

	// The probe reports through its exit code only.
	logger := slog.New(slog.DiscardHandler)

	store := credfile.New(cfg.CredentialsPath)
	runner := &claudecli.Runner{Command: cfg.WorkerCommand, Timeout: 60 * time.Second}
	invoker := application.NewCredentialInjector(store, runner, logger)

	reply, err := invoker.Invoke(ctx, model.WorkerCall{Prompt: probePrompt})
	if err != nil {
		return 1
	}
	if !strings.Contains(reply, probeAck) {
		return 1
	}

	return 0
}

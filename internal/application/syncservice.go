package application

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/chatgeist/credkeeper/internal/domain/model"
	"github.com/chatgeist/credkeeper/internal/domain/port/driven"
)

const (
	// defaultHealthPrompt is the trivial prompt issued through the
	// recycled worker.
	defaultHealthPrompt = "Reply with exactly: PONG"
	// defaultAckToken must appear in the worker's reply for the health
	// check to pass.
	defaultAckToken = "PONG"
)

// SyncOptions tune one sync run.
type SyncOptions struct {
	// SkipRestart leaves the worker running: push only, no recycle and
	// no health check.
	SkipRestart bool
}

// SyncService exports a fresh credential from the primary host's vault and
// pushes it to an execution host, then recycles and health-checks the
// worker. One-shot and strictly sequential; safe to rerun.
type SyncService struct {
	vault     driven.CredentialVault
	transport driven.SyncTransport
	worker    driven.WorkerController
	logger    *slog.Logger
	now       func() time.Time

	// HealthPrompt and AckToken default to the PONG handshake.
	HealthPrompt string
	AckToken     string
}

// NewSyncService creates a SyncService. logger and now may be nil for the
// defaults.
func NewSyncService(
	vault driven.CredentialVault,
	transport driven.SyncTransport,
	worker driven.WorkerController,
	logger *slog.Logger,
	now func() time.Time,
) *SyncService {
	if logger == nil {
		logger = slog.Default()
	}
	if now == nil {
		now = time.Now
	}
	return &SyncService{
		vault:        vault,
		transport:    transport,
		worker:       worker,
		logger:       logger,
		now:          now,
		HealthPrompt: defaultHealthPrompt,
		AckToken:     defaultAckToken,
	}
}

// Run pushes the vault's current record to one execution host. The record
// is stamped with lastSyncedAt = now before transmission: a successful
// vault export proves the primary host's login is live. On health-check
// failure the pushed credential stays in place, because the failure may be
// transient worker-startup latency rather than a bad credential; no
// automatic rollback.
func (s *SyncService) Run(ctx context.Context, target model.SyncTarget, opts SyncOptions) error {
	rec, err := s.vault.Export(ctx)
	if err != nil {
		return fmt.Errorf("%w: vault export: %v", model.ErrConfiguration, err)
	}

	pushed := rec.Clone()
	pushed.LastSyncedAt = s.now().UnixMilli()

	if err := s.transport.Push(ctx, target, pushed); err != nil {
		s.logger.Error("credential push failed; execution host keeps its previous credential",
			"target", target.Name, "error", err,
		)
		return err
	}
	s.logger.Info("credential pushed", "target", target.Name, "store_path", target.StorePath)

	if opts.SkipRestart {
		s.logger.Info("worker restart skipped by request", "target", target.Name)
		return nil
	}

	// A target without a compose project has no container to bounce; the
	// health check still runs against whatever worker is installed.
	if target.ComposeDir != "" {
		if err := s.worker.Recycle(ctx, target); err != nil {
			return fmt.Errorf("%w: %s: %v", model.ErrWorkerRecycle, target.Name, err)
		}
		s.logger.Info("worker recycled", "target", target.Name)
	}

	reply, err := s.worker.HealthCheck(ctx, target, s.HealthPrompt)
	if err != nil {
		return fmt.Errorf("%w: %s: %v", model.ErrHealthCheck, target.Name, err)
	}
	if !strings.Contains(reply, s.AckToken) {
		s.logger.Error("worker reply missing acknowledgement; credential left in place for diagnosis",
			"target", target.Name, "reply", truncate(reply, 200),
		)
		return fmt.Errorf("%w: %s: reply did not contain %q", model.ErrHealthCheck, target.Name, s.AckToken)
	}

	s.logger.Info("sync complete, worker healthy", "target", target.Name)
	return nil
}

// truncate shortens s to at most n bytes, backing up to the nearest rune
// boundary so a multi-byte character is never split.
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n] + "..."
}

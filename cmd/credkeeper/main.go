// Command credkeeper keeps a sandboxed analysis worker supplied with a
// valid OAuth access credential. It runs on two kinds of hosts: execution
// hosts invoke `credkeeper refresh` from a scheduler to renew the access
// token before it expires, and the primary host invokes `credkeeper sync`
// to push a fresh credential from its vault when the refresh token nears
// expiry.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	_ "golang.org/x/crypto/x509roots/fallback" // Embed CA certs for scratch container

	"github.com/chatgeist/credkeeper/internal/adapter/driven/anthropic"
	"github.com/chatgeist/credkeeper/internal/adapter/driven/credfile"
	"github.com/chatgeist/credkeeper/internal/adapter/driven/keychain"
	"github.com/chatgeist/credkeeper/internal/adapter/driven/sqlite"
	"github.com/chatgeist/credkeeper/internal/adapter/driven/sshsync"
	"github.com/chatgeist/credkeeper/internal/application"
	"github.com/chatgeist/credkeeper/internal/config"
	"github.com/chatgeist/credkeeper/internal/domain/model"
	"github.com/chatgeist/credkeeper/internal/domain/port/driven"
)

func main() {
	if err := run(); err != nil {
		slog.Error("fatal error", "error", err)
		os.Exit(1)
	}
}

func run() error {
	if len(os.Args) < 2 {
		printUsage()
		return fmt.Errorf("subcommand required")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		return err
	}

	switch os.Args[1] {
	case "refresh":
		return runRefresh(ctx, cfg, os.Args[2:])
	case "sync":
		return runSync(ctx, cfg, os.Args[2:])
	case "status":
		return runStatus(ctx, cfg, os.Args[2:])
	case "-h", "--help", "help":
		printUsage()
		return nil
	default:
		printUsage()
		return fmt.Errorf("unknown subcommand: %q", os.Args[1])
	}
}

func printUsage() {
	fmt.Fprintf(os.Stderr, `Usage: credkeeper <subcommand> [flags]

Subcommands:
  refresh   Renew the access token if it is within the refresh window
  sync      Push the vault's credential to the execution hosts
  status    Print time-to-expiry, refresh-token age band, recent attempts

Run 'credkeeper <subcommand> --help' for subcommand flags.
`)
}

// runRefresh executes one refresh cycle on an execution host. Retries are
// left to the external scheduler interval.
func runRefresh(ctx context.Context, cfg *config.Config, args []string) error {
	fs := flag.NewFlagSet("refresh", flag.ContinueOnError)
	force := fs.Bool("force", false, "refresh even if the access token is still fresh")
	if err := fs.Parse(args); err != nil {
		return err
	}

	store := credfile.New(cfg.CredentialsPath)
	exchangers := []driven.TokenExchanger{
		anthropic.NewDirectExchanger(cfg.TokenEndpoint, cfg.ClientID, cfg.HTTPTimeout),
		anthropic.NewBrowserExchanger(cfg.TokenEndpoint, cfg.ClientID, cfg.ProviderOrigin, cfg.BrowserTimeout),
	}
	monitor := application.NewExpiryMonitor(slog.Default(), nil)

	attempts, closeAudit := openAudit(cfg.AuditDBPath)
	defer closeAudit()

	svc := application.NewRefreshService(store, exchangers, attempts, monitor, cfg.RefreshWindow, slog.Default(), nil)
	_, err := svc.Run(ctx, *force)
	return err
}

// runSync pushes the vault's credential to every configured execution
// host (or one, with --host) and recycles each host's worker.
func runSync(ctx context.Context, cfg *config.Config, args []string) error {
	fs := flag.NewFlagSet("sync", flag.ContinueOnError)
	host := fs.String("host", "", "sync only the named host")
	skipRestart := fs.Bool("skip-restart", false, "push only, leave the worker running")
	if err := fs.Parse(args); err != nil {
		return err
	}

	targets, err := config.LoadHosts(cfg.HostsFile)
	if err != nil {
		return err
	}
	if *host != "" {
		targets = filterTargets(targets, *host)
		if len(targets) == 0 {
			return fmt.Errorf("host %q not found in %s", *host, cfg.HostsFile)
		}
	}

	transport, err := sshsync.New(cfg.KnownHostsFile, 15*time.Second)
	if err != nil {
		return err
	}
	transport.WorkerCommand = cfg.WorkerCommand

	vault := keychain.New(cfg.KeychainService)
	svc := application.NewSyncService(vault, transport, transport, slog.Default(), nil)

	var failed []string
	for _, target := range targets {
		if err := svc.Run(ctx, target, application.SyncOptions{SkipRestart: *skipRestart}); err != nil {
			slog.Error("sync failed", "target", target.Name, "error", err)
			failed = append(failed, target.Name)
		}
	}
	if len(failed) > 0 {
		return fmt.Errorf("sync failed for: %s", strings.Join(failed, ", "))
	}
	return nil
}

// runStatus prints the operator-facing view of the local store.
func runStatus(ctx context.Context, cfg *config.Config, args []string) error {
	fs := flag.NewFlagSet("status", flag.ContinueOnError)
	recent := fs.Int("recent", 5, "number of recent refresh attempts to show")
	if err := fs.Parse(args); err != nil {
		return err
	}

	store := credfile.New(cfg.CredentialsPath)
	monitor := application.NewExpiryMonitor(slog.New(slog.DiscardHandler), nil)

	attempts, closeAudit := openAudit(cfg.AuditDBPath)
	defer closeAudit()

	report, err := application.NewStatusService(store, attempts, monitor, nil).Report(ctx, *recent)
	if err != nil {
		return err
	}

	fmt.Printf("store:          %s\n", store.Path())
	fmt.Printf("access token:   expires %s (%s left)\n",
		report.ExpiresAt.UTC().Format(time.RFC3339),
		report.TimeLeft.Round(time.Second),
	)
	switch report.Age.Band {
	case model.AgeBandUnknown:
		fmt.Printf("refresh token:  age unknown (never synced)\n")
	default:
		fmt.Printf("refresh token:  %s, %d days old, %d days left\n",
			report.Age.Band, int(report.Age.Age.Hours()/24), report.Age.DaysLeft)
	}
	if report.Subscription != "" {
		fmt.Printf("subscription:   %s\n", report.Subscription)
	}

	for _, a := range report.RecentAttempts {
		fmt.Printf("attempt:        %s %-10s strategy=%s %s\n",
			a.OccurredAt.UTC().Format(time.RFC3339), a.Outcome, a.Strategy, a.Detail)
	}
	return nil
}

// openAudit opens the audit log. Auditing is supplementary: an unopenable
// database degrades to a nil store rather than failing the command.
func openAudit(path string) (driven.AttemptStore, func()) {
	db, err := sqlite.NewDB(path)
	if err != nil {
		slog.Warn("audit database unavailable, continuing without it", "path", path, "error", err)
		return nil, func() {}
	}
	if err := sqlite.RunMigrations(db.Writer); err != nil {
		slog.Warn("audit migrations failed, continuing without audit", "path", path, "error", err)
		db.Close()
		return nil, func() {}
	}
	return sqlite.NewAttemptRepo(db), func() {
		if err := db.Close(); err != nil {
			slog.Error("error closing audit database", "error", err)
		}
	}
}

func filterTargets(targets []model.SyncTarget, name string) []model.SyncTarget {
	var out []model.SyncTarget
	for _, t := range targets {
		if t.Name == name {
			out = append(out, t)
		}
	}
	return out
}

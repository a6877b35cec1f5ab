// Package claudecli implements the WorkerInvoker port by shelling out to
// the provider's CLI on the execution host. The CLI is the sandboxed
// worker boundary: it reads the prompt in non-interactive mode and prints
// the reply to stdout.
package claudecli

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"time"

	"github.com/chatgeist/credkeeper/internal/domain/model"
	"github.com/chatgeist/credkeeper/internal/domain/port/driven"
)

// Compile-time interface satisfaction check.
var _ driven.WorkerInvoker = (*Runner)(nil)

// tokenEnvVar is how the worker picks up the credential for one call.
const tokenEnvVar = "CLAUDE_CODE_OAUTH_TOKEN"

// Runner invokes the worker binary once per call.
type Runner struct {
	// Command is the worker binary ("claude").
	Command string
	// Dir is the working directory for the invocation; empty means the
	// current directory.
	Dir string
	// Timeout bounds one invocation. Zero means no bound beyond ctx.
	Timeout time.Duration
}

// Invoke implements driven.WorkerInvoker. When call.AccessToken is set it
// is supplied through the environment of this single invocation only;
// the ambient environment is otherwise passed through unchanged, so a
// missing token falls back to whatever credential configuration already
// exists for the worker.
func (r *Runner) Invoke(ctx context.Context, call model.WorkerCall) (string, error) {
	if r.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.Timeout)
		defer cancel()
	}

	cmd := exec.CommandContext(ctx, r.Command, "--print", call.Prompt)
	cmd.Dir = r.Dir
	cmd.Env = os.Environ()
	if call.AccessToken != "" {
		cmd.Env = append(cmd.Env, tokenEnvVar+"="+call.AccessToken)
	}

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return "", fmt.Errorf("worker %s: %w (stderr: %s)", r.Command, err, strings.TrimSpace(stderr.String()))
	}
	return strings.TrimSpace(stdout.String()), nil
}

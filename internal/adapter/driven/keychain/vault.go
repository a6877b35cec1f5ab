// Package keychain implements the CredentialVault port over the macOS
// Keychain via the security(1) CLI. The provider's interactive login
// stores the credential envelope as a generic password; this adapter has
// read-only capability.
package keychain

import (
	"context"
	"encoding/json"
	"fmt"
	"os/exec"
	"strings"

	"github.com/chatgeist/credkeeper/internal/domain/model"
	"github.com/chatgeist/credkeeper/internal/domain/port/driven"
)

// Compile-time interface satisfaction check.
var _ driven.CredentialVault = (*Vault)(nil)

// DefaultService is the Keychain item name the provider's CLI writes.
const DefaultService = "Claude Code-credentials"

// runner executes a command and returns its stdout. Injectable so tests
// do not need a Keychain.
type runner func(ctx context.Context, name string, args ...string) ([]byte, error)

func execRunner(ctx context.Context, name string, args ...string) ([]byte, error) {
	return exec.CommandContext(ctx, name, args...).Output()
}

// Vault reads the credential envelope from the Keychain item named by
// service.
type Vault struct {
	service string
	run     runner
}

// New creates a Vault over the given Keychain service name.
func New(service string) *Vault {
	return &Vault{service: service, run: execRunner}
}

// Export implements driven.CredentialVault.
func (v *Vault) Export(ctx context.Context) (*model.CredentialRecord, error) {
	out, err := v.run(ctx, "security", "find-generic-password", "-s", v.service, "-w")
	if err != nil {
		return nil, fmt.Errorf("%w: keychain export of %q: %v", model.ErrNotFound, v.service, err)
	}

	var env model.CredentialEnvelope
	if err := json.Unmarshal([]byte(strings.TrimSpace(string(out))), &env); err != nil {
		return nil, fmt.Errorf("%w: keychain item %q is not a credential envelope: %v", model.ErrCorruptStore, v.service, err)
	}
	if err := env.ClaudeAiOauth.Validate(); err != nil {
		return nil, fmt.Errorf("%w: keychain item %q: %v", model.ErrCorruptStore, v.service, err)
	}

	rec := env.ClaudeAiOauth
	return &rec, nil
}

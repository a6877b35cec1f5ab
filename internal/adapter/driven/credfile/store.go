// Package credfile implements the CredentialStore port on a single JSON
// file, the same claudeAiOauth envelope the provider's CLI writes.
package credfile

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/natefinch/atomic"

	"github.com/chatgeist/credkeeper/internal/domain/model"
	"github.com/chatgeist/credkeeper/internal/domain/port/driven"
)

// Compile-time interface satisfaction check.
var _ driven.CredentialStore = (*Store)(nil)

// Store persists one credential record at a fixed path. Save writes to a
// sibling temp file and renames over the canonical location, so concurrent
// independent reader processes never observe a torn write.
type Store struct {
	path string
}

// New creates a Store over the given path. The path's directory is created
// on the first Save if it does not exist.
func New(path string) *Store {
	return &Store{path: path}
}

// Path returns the canonical store location, for logging.
func (s *Store) Path() string { return s.path }

// Load reads and validates the current record.
func (s *Store) Load(_ context.Context) (*model.CredentialRecord, error) {
	data, err := os.ReadFile(s.path)
	if os.IsNotExist(err) {
		return nil, fmt.Errorf("%w: %s", model.ErrNotFound, s.path)
	}
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", s.path, err)
	}

	var env model.CredentialEnvelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("%w: parse %s: %v", model.ErrCorruptStore, s.path, err)
	}
	if err := env.ClaudeAiOauth.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", model.ErrCorruptStore, s.path, err)
	}

	rec := env.ClaudeAiOauth
	return &rec, nil
}

// Save persists the full record atomically with 0600 permissions.
func (s *Store) Save(_ context.Context, rec *model.CredentialRecord) error {
	if err := rec.Validate(); err != nil {
		return fmt.Errorf("%w: refusing to persist invalid record: %v", model.ErrWrite, err)
	}

	env := model.CredentialEnvelope{ClaudeAiOauth: *rec}
	data, err := json.MarshalIndent(&env, "", "  ")
	if err != nil {
		return fmt.Errorf("%w: marshal: %v", model.ErrWrite, err)
	}
	data = append(data, '\n')

	if err := os.MkdirAll(filepath.Dir(s.path), 0o700); err != nil {
		return fmt.Errorf("%w: create store directory: %v", model.ErrWrite, err)
	}

	// atomic.WriteFile stages a temp file in the same directory and
	// renames it over the canonical path.
	if err := atomic.WriteFile(s.path, bytes.NewReader(data)); err != nil {
		return fmt.Errorf("%w: %v", model.ErrWrite, err)
	}
	if err := os.Chmod(s.path, 0o600); err != nil {
		return fmt.Errorf("%w: narrow permissions: %v", model.ErrWrite, err)
	}
	return nil
}

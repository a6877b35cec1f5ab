package credfile

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chatgeist/credkeeper/internal/domain/model"
)

func testRecord() *model.CredentialRecord {
	return &model.CredentialRecord{
		AccessToken:      "sk-ant-oat01-abc",
		RefreshToken:     "sk-ant-ort01-def",
		ExpiresAt:        time.Now().Add(8 * time.Hour).UnixMilli(),
		Scopes:           []string{"user:inference", "user:profile"},
		SubscriptionType: "max",
		RateLimitTier:    "default_claude_max_20x",
		LastSyncedAt:     time.Now().Add(-48 * time.Hour).UnixMilli(),
	}
}

func TestStore_RoundTrip(t *testing.T) {
	store := New(filepath.Join(t.TempDir(), ".credentials.json"))
	want := testRecord()

	require.NoError(t, store.Save(context.Background(), want))

	got, err := store.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestStore_LoadMissing(t *testing.T) {
	store := New(filepath.Join(t.TempDir(), "nope.json"))

	_, err := store.Load(context.Background())
	assert.ErrorIs(t, err, model.ErrNotFound)
}

func TestStore_LoadCorrupt(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".credentials.json")

	tests := []struct {
		name string
		body string
	}{
		{name: "not json", body: "<html>challenge</html>"},
		{name: "wrong shape", body: `{"claudeAiOauth": {"accessToken": ""}}`},
		{name: "missing refresh token", body: `{"claudeAiOauth": {"accessToken": "a", "expiresAt": 123}}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.NoError(t, os.WriteFile(path, []byte(tt.body), 0o600))

			_, err := New(path).Load(context.Background())
			assert.ErrorIs(t, err, model.ErrCorruptStore)
		})
	}
}

func TestStore_SaveNarrowsPermissions(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("unix permission bits")
	}

	path := filepath.Join(t.TempDir(), ".credentials.json")
	store := New(path)
	require.NoError(t, store.Save(context.Background(), testRecord()))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())
}

func TestStore_SaveCreatesDirectory(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".claude", ".credentials.json")
	store := New(path)

	require.NoError(t, store.Save(context.Background(), testRecord()))

	_, err := store.Load(context.Background())
	assert.NoError(t, err)
}

func TestStore_SaveRejectsInvalidRecord(t *testing.T) {
	store := New(filepath.Join(t.TempDir(), ".credentials.json"))

	err := store.Save(context.Background(), &model.CredentialRecord{AccessToken: "only"})
	assert.ErrorIs(t, err, model.ErrWrite)

	_, err = store.Load(context.Background())
	assert.ErrorIs(t, err, model.ErrNotFound, "rejected save must leave no file behind")
}

// TestStore_StrayTempFileDoesNotAffectLoad simulates a crash mid-write: the
// staged temp file exists but the rename never happened. The canonical
// record must stay fully readable and unchanged.
func TestStore_StrayTempFileDoesNotAffectLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ".credentials.json")
	store := New(path)
	want := testRecord()
	require.NoError(t, store.Save(context.Background(), want))

	// A half-written staging file from a crashed writer.
	stray := filepath.Join(dir, ".credentials.json.tmp123")
	require.NoError(t, os.WriteFile(stray, []byte(`{"claudeAiOauth":{"accessToken":"TORN`), 0o600))

	got, err := store.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestStore_SaveOverwritesWholesale(t *testing.T) {
	store := New(filepath.Join(t.TempDir(), ".credentials.json"))

	first := testRecord()
	require.NoError(t, store.Save(context.Background(), first))

	second := testRecord()
	second.AccessToken = "sk-ant-oat01-new"
	second.LastSyncedAt = 0 // replacement, not merge
	require.NoError(t, store.Save(context.Background(), second))

	got, err := store.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "sk-ant-oat01-new", got.AccessToken)
	assert.Zero(t, got.LastSyncedAt)
}

func TestStore_OnDiskShape(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".credentials.json")
	require.NoError(t, New(path).Save(context.Background(), testRecord()))

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	var raw map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(data, &raw))
	assert.Contains(t, raw, "claudeAiOauth")
}

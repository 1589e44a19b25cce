package state

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"omvsetup/constants"
)

const testKey = "000102030405060708090a0b0c0d0e0f101112131415161718191a1b1c1d1e1f"

func record(name string) map[string]interface{} {
	return map[string]interface{}{
		constants.ConfName:      name,
		constants.ConfHost:      "10.0.0.5",
		constants.ConfUsername:  "admin",
		constants.ConfPassword:  "openmediavault",
		constants.ConfSSL:       false,
		constants.ConfVerifySSL: true,
	}
}

func TestOpenMissingFileStartsEmpty(t *testing.T) {
	s, err := OpenFileStore(filepath.Join(t.TempDir(), "entries.json"), nil)
	require.NoError(t, err)

	names, err := s.ListDisplayNames(context.Background())
	require.NoError(t, err)
	assert.Empty(t, names)
}

func TestCreateAndReload(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "entries.json")
	ctx := context.Background()

	s, err := OpenFileStore(path, nil)
	require.NoError(t, err)

	e, err := s.Create(ctx, "nas1", record("nas1"))
	require.NoError(t, err)
	assert.NotEmpty(t, e.ID)
	assert.Equal(t, "nas1", e.Title)
	assert.Equal(t, "nas1", e.DisplayName())

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	reopened, err := OpenFileStore(path, nil)
	require.NoError(t, err)
	names, err := reopened.ListDisplayNames(ctx)
	require.NoError(t, err)
	assert.Equal(t, map[string]struct{}{"nas1": {}}, names)

	got, err := reopened.Get(ctx, e.ID)
	require.NoError(t, err)
	assert.Equal(t, record("nas1"), got.Data)
}

func TestCreateRejectsDuplicateName(t *testing.T) {
	s, err := OpenFileStore(filepath.Join(t.TempDir(), "entries.json"), nil)
	require.NoError(t, err)

	_, err = s.Create(context.Background(), "nas1", record("nas1"))
	require.NoError(t, err)
	_, err = s.Create(context.Background(), "nas1", record("nas1"))
	assert.ErrorIs(t, err, ErrDuplicateName)

	entries, err := s.Entries(context.Background())
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestUpdateOptions(t *testing.T) {
	path := filepath.Join(t.TempDir(), "entries.json")
	ctx := context.Background()
	s, err := OpenFileStore(path, nil)
	require.NoError(t, err)

	e, err := s.Create(ctx, "nas1", record("nas1"))
	require.NoError(t, err)
	assert.Equal(t, DefaultOptions(), e.EffectiveOptions())

	_, err = s.UpdateOptions(ctx, e.ID, map[string]interface{}{constants.ConfScanInterval: 30})
	require.NoError(t, err)

	reopened, err := OpenFileStore(path, nil)
	require.NoError(t, err)
	got, err := reopened.Get(ctx, e.ID)
	require.NoError(t, err)
	assert.Equal(t, map[string]interface{}{constants.ConfScanInterval: 30}, got.Options)
	assert.Equal(t, map[string]interface{}{
		constants.ConfScanInterval: 30,
		constants.ConfSmartDisable: constants.DefaultSmartDisable,
	}, got.EffectiveOptions())

	_, err = s.UpdateOptions(ctx, "missing", nil)
	assert.ErrorIs(t, err, ErrEntryNotFound)
}

func TestPasswordEncryptedAtRest(t *testing.T) {
	path := filepath.Join(t.TempDir(), "entries.json")
	box, err := NewSecretBox(testKey)
	require.NoError(t, err)

	s, err := OpenFileStore(path, box)
	require.NoError(t, err)
	e, err := s.Create(context.Background(), "nas1", record("nas1"))
	require.NoError(t, err)

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.False(t, strings.Contains(string(raw), "openmediavault"))
	assert.Contains(t, string(raw), sealedPrefix)

	reopened, err := OpenFileStore(path, box)
	require.NoError(t, err)
	got, err := reopened.Get(context.Background(), e.ID)
	require.NoError(t, err)
	assert.Equal(t, "openmediavault", got.Data[constants.ConfPassword])

	_, err = OpenFileStore(path, nil)
	assert.Error(t, err)
}

func TestPasswordWithSealedPrefixStoredVerbatim(t *testing.T) {
	ctx := context.Background()
	box, err := NewSecretBox(testKey)
	require.NoError(t, err)

	for name, b := range map[string]*SecretBox{"plain": nil, "encrypted": box} {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "entries.json")
			s, err := OpenFileStore(path, b)
			require.NoError(t, err)

			data := record("nas1")
			data[constants.ConfPassword] = sealedPrefix + "myRealPassword"
			e, err := s.Create(ctx, "nas1", data)
			require.NoError(t, err)

			reopened, err := OpenFileStore(path, b)
			require.NoError(t, err)
			got, err := reopened.Get(ctx, e.ID)
			require.NoError(t, err)
			assert.Equal(t, sealedPrefix+"myRealPassword", got.Data[constants.ConfPassword])
			assert.False(t, got.PasswordSealed)
		})
	}
}

func TestLoadVersionOneSealedPassword(t *testing.T) {
	box, err := NewSecretBox(testKey)
	require.NoError(t, err)
	sealed, err := box.Seal("hunter2")
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "entries.json")
	legacy := `{"version": 1, "entries": [{"entry_id": "e1", "title": "nas1", "data": {"display_name": "nas1", "password": "` + sealed + `"}, "options": {}}]}`
	require.NoError(t, os.WriteFile(path, []byte(legacy), 0o600))

	s, err := OpenFileStore(path, box)
	require.NoError(t, err)
	got, err := s.Get(context.Background(), "e1")
	require.NoError(t, err)
	assert.Equal(t, "hunter2", got.Data[constants.ConfPassword])
}

func TestSecretBox(t *testing.T) {
	_, err := NewSecretBox("abcd")
	assert.Error(t, err)

	box, err := NewSecretBox(testKey)
	require.NoError(t, err)

	sealed, err := box.Seal("hunter2")
	require.NoError(t, err)
	assert.True(t, IsSealed(sealed))

	plain, err := box.Open(sealed)
	require.NoError(t, err)
	assert.Equal(t, "hunter2", plain)

	_, err = box.Open("not-sealed")
	assert.Error(t, err)

	_, err = box.Open(sealedPrefix + "AAAA")
	assert.Error(t, err)
}

func TestRedacted(t *testing.T) {
	e := Entry{Data: record("nas1")}
	r := e.Redacted()
	assert.Equal(t, "**REDACTED**", r.Data[constants.ConfPassword])
	assert.Equal(t, "openmediavault", e.Data[constants.ConfPassword])
}

package settings

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidate(t *testing.T) {
	assert.NoError(t, Validate(KeyLanguage, "auto"))
	assert.NoError(t, Validate(KeyLanguage, "zh_TW"))
	assert.Error(t, Validate(KeyLanguage, "fr"))
	assert.NoError(t, Validate(KeyAddPrefix, "false"))
	assert.Error(t, Validate(KeyAddPrefix, "maybe"))
	assert.Error(t, Validate("theme", "dark"))
}

func TestDefaultsAndApply(t *testing.T) {
	s := Defaults()
	assert.Equal(t, "auto", s.Language)
	assert.True(t, s.EnablePostButton)
	assert.True(t, s.EnableOverlay)
	assert.True(t, s.AddPrefix)
	assert.False(t, s.UseTimestamp)
	assert.False(t, s.DebugMode)

	s = s.Apply(KeyUseTimestamp, "true").Apply(KeyLanguage, "ja").Apply(KeyAddPrefix, "nope")
	assert.True(t, s.UseTimestamp)
	assert.Equal(t, "ja", s.Language)
	assert.True(t, s.AddPrefix, "malformed values are ignored")

	assert.Len(t, s.Map(), len(Keys()))
}

func testStore(t *testing.T, store Store) {
	t.Helper()
	ctx := context.Background()

	var changes []Change
	cancel := store.Subscribe(func(c Change) { changes = append(changes, c) })

	_, ok, err := store.Get(ctx, KeyDebugMode)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, store.Set(ctx, KeyDebugMode, "true"))
	require.NoError(t, store.Set(ctx, KeyEnableOverlay, "false"))
	require.NoError(t, store.Set(ctx, KeyEnableOverlay, "true"))
	assert.Error(t, store.Set(ctx, "unknown", "1"))

	v, ok, err := store.Get(ctx, KeyEnableOverlay)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "true", v)

	s, err := Load(ctx, store)
	require.NoError(t, err)
	assert.True(t, s.DebugMode)
	assert.True(t, s.EnableOverlay)
	assert.True(t, s.AddPrefix)

	cancel()
	require.NoError(t, store.Set(ctx, KeyAddPrefix, "false"))

	assert.Equal(t, []Change{
		{Key: KeyDebugMode, Value: "true"},
		{Key: KeyEnableOverlay, Value: "false"},
		{Key: KeyEnableOverlay, Value: "true"},
	}, changes)

	all, err := store.All(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 3)
}

func TestMemoryStore(t *testing.T) {
	store := NewMemoryStore()
	defer store.Close()
	testStore(t, store)
}

func TestSQLiteStore(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "settings.db")
	store, err := OpenSQLite(context.Background(), path)
	require.NoError(t, err)
	testStore(t, store)
	require.NoError(t, store.Close())

	reopened, err := OpenSQLite(context.Background(), path)
	require.NoError(t, err)
	defer reopened.Close()

	s, err := Load(context.Background(), reopened)
	require.NoError(t, err)
	assert.False(t, s.AddPrefix, "values survive a reopen")
	assert.Equal(t, path, reopened.Path())
}

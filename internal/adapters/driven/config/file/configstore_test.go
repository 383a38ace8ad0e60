package file

import (
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *ConfigStore {
	t.Helper()
	store, err := NewConfigStore(t.TempDir())
	require.NoError(t, err)
	store.lookup = func(string) (string, bool) { return "", false }
	return store
}

func TestNewConfigStore_Success(t *testing.T) {
	tmpDir := t.TempDir()

	store, err := NewConfigStore(tmpDir)

	require.NoError(t, err)
	require.NotNil(t, store)
	assert.Equal(t, filepath.Join(tmpDir, "config.toml"), store.Path())
}

func TestNewConfigStore_DefaultDir(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	store, err := NewConfigStore("")

	require.NoError(t, err)
	assert.Equal(t, filepath.Join(home, ".ragdesk", "config.toml"), store.Path())
}

func TestConfigStore_SetAndGet(t *testing.T) {
	store := newTestStore(t)

	require.NoError(t, store.Set("generator.model", "gemini-1.5-flash"))

	val, ok := store.Get("generator.model")
	assert.True(t, ok)
	assert.Equal(t, "gemini-1.5-flash", val)
}

func TestConfigStore_TypedGetters(t *testing.T) {
	store := newTestStore(t)

	require.NoError(t, store.Set("s", "hello"))
	require.NoError(t, store.Set("i", 42))
	require.NoError(t, store.Set("f", 0.3))
	require.NoError(t, store.Set("b", true))
	require.NoError(t, store.Set("l", []string{"a", "b"}))

	assert.Equal(t, "hello", store.GetString("s"))
	assert.Equal(t, 42, store.GetInt("i"))
	assert.InDelta(t, 0.3, store.GetFloat("f"), 1e-9)
	assert.InDelta(t, 42.0, store.GetFloat("i"), 1e-9)
	assert.True(t, store.GetBool("b"))
	assert.Equal(t, []string{"a", "b"}, store.GetStringSlice("l"))

	// Wrong types and missing keys fall back to zero values.
	assert.Equal(t, "", store.GetString("i"))
	assert.Equal(t, 0, store.GetInt("s"))
	assert.False(t, store.GetBool("missing"))
	assert.Nil(t, store.GetStringSlice("missing"))
	assert.Zero(t, store.GetFloat("missing"))
}

func TestConfigStore_Persistence_WritesNestedTables(t *testing.T) {
	tmpDir := t.TempDir()
	store, err := NewConfigStore(tmpDir)
	require.NoError(t, err)

	require.NoError(t, store.Set("generator.model", "gemini-1.5-pro"))
	require.NoError(t, store.Set("store.batch_size", 50))

	data, err := os.ReadFile(store.Path())
	require.NoError(t, err)
	assert.Contains(t, string(data), "[generator]")
	assert.Contains(t, string(data), "[store]")

	reloaded, err := NewConfigStore(tmpDir)
	require.NoError(t, err)
	reloaded.lookup = func(string) (string, bool) { return "", false }
	assert.Equal(t, "gemini-1.5-pro", reloaded.GetString("generator.model"))
	assert.Equal(t, 50, reloaded.GetInt("store.batch_size"))
}

func TestConfigStore_Load_HandWrittenNestedFile(t *testing.T) {
	tmpDir := t.TempDir()
	content := "[memory]\nmax_memory_mb = 1024\nlazy_loading = false\n"
	require.NoError(t, os.WriteFile(filepath.Join(tmpDir, "config.toml"), []byte(content), 0o600))

	store, err := NewConfigStore(tmpDir)
	require.NoError(t, err)
	store.lookup = func(string) (string, bool) { return "", false }

	assert.Equal(t, 1024, store.GetInt("memory.max_memory_mb"))
	v, ok := store.Get("memory.lazy_loading")
	assert.True(t, ok)
	assert.Equal(t, false, v)
}

func TestConfigStore_EnvironmentOverride(t *testing.T) {
	store, err := NewConfigStore(t.TempDir())
	require.NoError(t, err)
	require.NoError(t, store.Set("retrieval.default_results", 5))

	t.Setenv("RAGDESK_RETRIEVAL_DEFAULT_RESULTS", "7")
	t.Setenv("RAGDESK_MEMORY_LAZY_LOADING", "false")
	t.Setenv("RAGDESK_GENERATOR_TEMPERATURE", "0.9")

	assert.Equal(t, 7, store.GetInt("retrieval.default_results"))
	assert.False(t, store.GetBool("memory.lazy_loading"))
	assert.InDelta(t, 0.9, store.GetFloat("generator.temperature"), 1e-9)
}

func TestEnvKey(t *testing.T) {
	assert.Equal(t, "RAGDESK_GENERATOR_MAX_OUTPUT_TOKENS", envKey("generator.max_output_tokens"))
}

func TestConfigStore_FilePermissions(t *testing.T) {
	store := newTestStore(t)
	require.NoError(t, store.Set("generator.api_key", "secret"))

	info, err := os.Stat(store.Path())
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())
}

func TestConfigStore_Load_InvalidTOML(t *testing.T) {
	tmpDir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(tmpDir, "config.toml"), []byte("not = [valid"), 0o600))

	_, err := NewConfigStore(tmpDir)

	assert.Error(t, err)
}

func TestConfigStore_Load_EmptyFile(t *testing.T) {
	tmpDir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(tmpDir, "config.toml"), []byte(""), 0o600))

	store, err := NewConfigStore(tmpDir)

	require.NoError(t, err)
	_, ok := store.Get("anything")
	assert.False(t, ok)
}

func TestConfigStore_Concurrency(t *testing.T) {
	store := newTestStore(t)

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			_ = store.Set("counter.value", n)
			_ = store.GetInt("counter.value")
		}(i)
	}
	wg.Wait()

	_, ok := store.Get("counter.value")
	assert.True(t, ok)
}

func TestNestMap_RoundTrip(t *testing.T) {
	flat := map[string]any{"a.b.c": 1, "a.d": "x", "top": true}

	nested := nestMap(flat)

	assert.Equal(t, flat, flattenMap(nested, ""))
}

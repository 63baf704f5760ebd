package file

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewConfigStore_Success(t *testing.T) {
	tmpDir := t.TempDir()

	store, err := NewConfigStore(tmpDir)

	require.NoError(t, err)
	require.NotNil(t, store)
	assert.Equal(t, filepath.Join(tmpDir, "config.toml"), store.Path())
}

func TestNewConfigStore_WithNestedDirectory(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "a", "b")

	store, err := NewConfigStore(dir)

	require.NoError(t, err)
	assert.DirExists(t, dir)
	assert.Equal(t, filepath.Join(dir, "config.toml"), store.Path())
}

func TestConfigStore_Persistence(t *testing.T) {
	tmpDir := t.TempDir()

	store1, err := NewConfigStore(tmpDir)
	require.NoError(t, err)

	require.NoError(t, store1.Set("pipeline.model", "openai/gpt-4o"))
	require.NoError(t, store1.Set("pipeline.batch_size", 50))
	require.NoError(t, store1.Set("pipeline.requests_per_second", 2.5))
	require.NoError(t, store1.Set("labeling.classifier", true))
	require.NoError(t, store1.Set("output.formats", []string{"json", "csv"}))

	// New instance loads from file
	store2, err := NewConfigStore(tmpDir)
	require.NoError(t, err)

	assert.Equal(t, "openai/gpt-4o", store2.GetString("pipeline.model"))
	assert.Equal(t, 50, store2.GetInt("pipeline.batch_size"))
	assert.InDelta(t, 2.5, store2.GetFloat("pipeline.requests_per_second"), 1e-9)
	assert.InDelta(t, 50.0, store2.GetFloat("pipeline.batch_size"), 1e-9)
	assert.True(t, store2.GetBool("labeling.classifier"))
	assert.Equal(t, []string{"json", "csv"}, store2.GetStringSlice("output.formats"))
}

func TestConfigStore_Save_WritesNestedTables(t *testing.T) {
	tmpDir := t.TempDir()
	store, err := NewConfigStore(tmpDir)
	require.NoError(t, err)

	require.NoError(t, store.Set("pipeline.use_case", "support tickets"))
	require.NoError(t, store.Set("openai.api_key", "sk-test"))

	data, err := os.ReadFile(store.Path())
	require.NoError(t, err)
	assert.Contains(t, string(data), "[pipeline]")
	assert.Contains(t, string(data), "[openai]")
	assert.NotContains(t, string(data), "pipeline.use_case")
}

func TestConfigStore_Load_HandWrittenFile(t *testing.T) {
	tmpDir := t.TempDir()
	content := `
[pipeline]
model = "ollama/llama3.2"
sample_size = 0
requests_per_second = 1

[labeling]
confidence_threshold = 0.6
`
	require.NoError(t, os.WriteFile(filepath.Join(tmpDir, "config.toml"), []byte(content), 0600))

	store, err := NewConfigStore(tmpDir)
	require.NoError(t, err)

	assert.Equal(t, "ollama/llama3.2", store.GetString("pipeline.model"))
	val, ok := store.Get("pipeline.sample_size")
	assert.True(t, ok)
	assert.EqualValues(t, 0, val)
	assert.InDelta(t, 1.0, store.GetFloat("pipeline.requests_per_second"), 1e-9)
	assert.InDelta(t, 0.6, store.GetFloat("labeling.confidence_threshold"), 1e-9)
}

func TestConfigStore_Load_NonExistent(t *testing.T) {
	store, err := NewConfigStore(t.TempDir())
	require.NoError(t, err)

	val, ok := store.Get("any_key")
	assert.False(t, ok)
	assert.Nil(t, val)
}

func TestConfigStore_FilePermissions(t *testing.T) {
	store, err := NewConfigStore(t.TempDir())
	require.NoError(t, err)

	require.NoError(t, store.Set("test", "value"))

	info, err := os.Stat(store.Path())
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())
}

func TestNewConfigStore_LoadCorruptedFile(t *testing.T) {
	tmpDir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(tmpDir, "config.toml"), []byte("not [valid toml"), 0600))

	_, err := NewConfigStore(tmpDir)
	assert.Error(t, err)
}

func TestConfigStore_TypedGetters_WrongType(t *testing.T) {
	store, err := NewConfigStore(t.TempDir())
	require.NoError(t, err)
	require.NoError(t, store.Set("key", "text"))

	assert.Zero(t, store.GetInt("key"))
	assert.Zero(t, store.GetFloat("key"))
	assert.False(t, store.GetBool("key"))
	assert.Equal(t, []string{"text"}, store.GetStringSlice("key"))
}

func TestNest_Flatten(t *testing.T) {
	got := nest(map[string]any{
		"a.b":   1,
		"a.c.d": "x",
		"top":   true,
	})

	assert.Equal(t, map[string]any{
		"a":   map[string]any{"b": 1, "c": map[string]any{"d": "x"}},
		"top": true,
	}, got)

	flat := map[string]any{}
	flatten(flat, "", got)
	assert.Equal(t, map[string]any{"a.b": 1, "a.c.d": "x", "top": true}, flat)
}

func TestNest_ValueShadowsTable(t *testing.T) {
	got := nest(map[string]any{"a": "v", "a.b": 1})
	assert.Equal(t, map[string]any{"a": "v"}, got)
}

func TestEnvOverrides(t *testing.T) {
	got := envOverrides([]string{
		"PATH=/usr/bin",
		"OPENAI_API_KEY=sk-env",
		"ANTHROPIC_API_KEY=",
		"OLLAMA_HOST=gpu-box:11434",
		"TAXONOMIST_PIPELINE_BATCH_SIZE=25",
		"TAXONOMIST_OPENAI_API_KEY=sk-prefixed",
		"TAXONOMIST_=ignored",
		"TAXONOMIST_VERBOSE=1",
	})

	assert.Equal(t, map[string]string{
		"openai.api_key":      "sk-prefixed",
		"ollama.base_url":     "http://gpu-box:11434",
		"pipeline.batch_size": "25",
	}, got)
}

func TestConfigStore_EnvironmentOverrides(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("ANTHROPIC_API_KEY", "sk-ant-env")
	t.Setenv("TAXONOMIST_PIPELINE_BATCH_SIZE", "75")
	t.Setenv("TAXONOMIST_LABELING_CLASSIFIER", "true")
	t.Setenv("TAXONOMIST_OUTPUT_FORMATS", "json,csv")

	store, err := NewConfigStore(dir)
	require.NoError(t, err)
	require.NoError(t, store.Set("pipeline.batch_size", 10))

	assert.Equal(t, "sk-ant-env", store.GetString("anthropic.api_key"))
	assert.Equal(t, 75, store.GetInt("pipeline.batch_size"))
	assert.True(t, store.GetBool("labeling.classifier"))
	assert.Equal(t, []string{"json", "csv"}, store.GetStringSlice("output.formats"))

	data, err := os.ReadFile(store.Path())
	require.NoError(t, err)
	assert.NotContains(t, string(data), "sk-ant-env")
	assert.Contains(t, string(data), "batch_size = 10")
}

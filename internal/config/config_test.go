package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestReadAppliesDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, DefaultFile)
	require.NoError(t, os.WriteFile(path, []byte(`{
		year: 2016,
		data_dir: "out",
		fetch: { concurrency: 2 },
		bulletin: { api_key: "key" },
	}`), 0644))

	config, err := Read(path)
	require.NoError(t, err)

	require.Equal(t, 2016, config.Year)
	require.Equal(t, 2, config.Fetch.Concurrency)
	require.Equal(t, filepath.Join("out", "cache"), config.Fetch.CacheDir)
	require.Equal(t, 2, config.JsonIndent)
	require.Equal(t, 2, config.RetryCount())
	require.Equal(t, "key", config.Bulletin.ApiKey)
	require.Equal(t, []int{1, 2, 3, 4}, config.Bulletin.Semesters)
	require.Equal(t, defaultModuleTypes, config.Cors.ModuleTypes)
	require.Equal(t, "warn", config.Collate.CyclePolicy)
}

func TestRetryCountZero(t *testing.T) {
	zero := 0
	config := Config{Fetch: Fetch{RetryCount: &zero}}
	require.Equal(t, 0, config.RetryCount())
}

func TestValidate(t *testing.T) {
	config := Config{}
	config.ApplyDefaults()
	require.NoError(t, config.Validate())

	config.Collate.CyclePolicy = "explode"
	config.Persist.Kind = "s3"
	err := config.Validate()
	require.Error(t, err)
	require.Contains(t, err.Error(), "Config.Collate.CyclePolicy")
	require.Contains(t, err.Error(), "Config.Persist.Kind")
}

func TestReadMissing(t *testing.T) {
	_, err := Read(filepath.Join(t.TempDir(), "nope.json5"))
	require.Error(t, err)
}

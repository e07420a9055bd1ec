package configutil

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

type testConfig struct {
	Year  int      `json:"year"`
	Dir   string   `json:"dir"`
	Types []string `json:"types"`
}

func TestReadConfig(t *testing.T) {
	dir := t.TempDir()
	name := filepath.Join(dir, "scraper.json5")

	_, err := ReadConfig[testConfig](name)
	require.ErrorIs(t, err, os.ErrNotExist)

	require.NoError(t, os.WriteFile(name, []byte(`{
		// comments are allowed
		year: 2016,
		dir: "data",
		types: ["Module", "GEM"],
	}`), 0644))

	config, err := ReadConfig[testConfig](name)
	require.NoError(t, err)
	require.Equal(t, testConfig{Year: 2016, Dir: "data", Types: []string{"Module", "GEM"}}, config)

	require.NoError(t, os.WriteFile(LocalName(name), []byte(`{ year: 2017 }`), 0644))

	config, err = ReadConfig[testConfig](name)
	require.NoError(t, err)
	require.Equal(t, 2017, config.Year)
	require.Equal(t, "data", config.Dir)
}

func TestLocalName(t *testing.T) {
	require.Equal(t, filepath.Join("a", "b.local.json5"), LocalName(filepath.Join("a", "b.json5")))
	require.Equal(t, "b.local", LocalName("b"))
}

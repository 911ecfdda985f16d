package attack

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeParams(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "attack.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadParams(t *testing.T) {
	path := writeParams(t, "delta: 0.25\nlayer: 1\nbatch_size: 16\n")

	params, err := LoadParams(path)
	require.NoError(t, err)

	fa, err := NewFeatureAdversaries(&identityModel{dim: 4}, validConfig())
	require.NoError(t, err)
	require.NoError(t, fa.SetParams(params))
	assert.Equal(t, Config{Delta: 0.25, Layer: 1, BatchSize: 16}, fa.Params())
}

func TestLoadParams_NonIntegerLayer(t *testing.T) {
	path := writeParams(t, "delta: 0.25\nlayer: 1.5\nbatch_size: 16\n")

	params, err := LoadParams(path)
	require.NoError(t, err)

	fa, err := NewFeatureAdversaries(&identityModel{dim: 4}, validConfig())
	require.NoError(t, err)

	err = fa.SetParams(params)
	var cfgErr *ConfigError
	require.ErrorAs(t, err, &cfgErr)
	assert.Equal(t, "layer", cfgErr.Param)
}

func TestLoadParams_MissingFile(t *testing.T) {
	_, err := LoadParams(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
}

func TestLoadParams_Malformed(t *testing.T) {
	path := writeParams(t, "delta: [0.1\n")
	_, err := LoadParams(path)
	require.Error(t, err)
}

package configutil

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

type testConfig struct {
	Cookie  string   `json:"cookie"`
	Port    int      `json:"port"`
	Courses []string `json:"courses"`
}

func write(t *testing.T, path, content string) {
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0700))
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))
}

func TestReadLayers(t *testing.T) {
	dir := t.TempDir()
	base := filepath.Join(dir, "config.json5")
	local := filepath.Join(dir, "config.local.json5")
	write(t, base, `{
		// comments are allowed
		cookie: "shared",
		port: 80,
		courses: ["1", "2"],
	}`)
	write(t, local, `{port: 8080, cookie: "mine"}`)

	layers, err := ReadLayers[testConfig](base)
	require.NoError(t, err)
	require.Len(t, layers, 2)
	require.Equal(t, base, layers[0].Path)
	require.Equal(t, local, layers[1].Path)

	cfg, err := layers.Merge()
	require.NoError(t, err)
	require.Equal(t, testConfig{Cookie: "mine", Port: 8080, Courses: []string{"1", "2"}}, cfg)

	require.Equal(t, local, layers.Source(func(c testConfig) bool { return c.Cookie != "" }))
	require.Equal(t, base, layers.Source(func(c testConfig) bool { return len(c.Courses) > 0 }))
	require.Equal(t, "", layers.Source(func(c testConfig) bool { return c.Port == 1 }))
}

func TestReadLayersOnlyLocal(t *testing.T) {
	dir := t.TempDir()
	write(t, filepath.Join(dir, "config.local.json5"), `{cookie: "mine"}`)

	cfg, err := ReadConfig[testConfig](filepath.Join(dir, "config.json5"))
	require.NoError(t, err)
	require.Equal(t, "mine", cfg.Cookie)
}

func TestReadConfigMissing(t *testing.T) {
	_, err := ReadConfig[testConfig](filepath.Join(t.TempDir(), "config.json5"))
	require.True(t, errors.Is(err, os.ErrNotExist))
}

func TestReadConfigInvalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json5")
	write(t, path, `{port: }`)
	_, err := ReadConfig[testConfig](path)
	require.ErrorContains(t, err, "parse "+path)
}

func TestReadRecursively(t *testing.T) {
	root := t.TempDir()
	write(t, filepath.Join(root, "telemetry.json5"), `{port: 4317}`)
	nested := filepath.Join(root, "a", "b")
	require.NoError(t, os.MkdirAll(nested, 0700))

	cfg, err := readRecursivelyFrom[testConfig](nested, "telemetry.json5")
	require.NoError(t, err)
	require.Equal(t, 4317, cfg.Port)

	_, err = readRecursivelyFrom[testConfig](nested, "missing.json5")
	require.True(t, errors.Is(err, os.ErrNotExist))
}

func TestLocalName(t *testing.T) {
	table := []struct {
		input    string
		expected string
	}{
		{input: "config.json5", expected: "config.local.json5"},
		{input: "dir/a.b.json5", expected: "dir/a.b.local.json5"},
		{input: "noext", expected: "noext.local"},
	}
	for _, row := range table {
		require.Equal(t, row.expected, LocalName(row.input))
	}
}

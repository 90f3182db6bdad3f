package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeSettings(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "settings.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoadDefaultsWithoutFile(t *testing.T) {
	s, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "config.json", s.Output)
	assert.Zero(t, s.Proxies.HTTPPort)
	assert.Zero(t, s.Proxies.SocksPort)
}

func TestLoadFile(t *testing.T) {
	path := writeSettings(t, `
output: /tmp/out.json
proxies:
  http_port: 2080
  socks_port: 2090
`)

	s, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "/tmp/out.json", s.Output)
	assert.Equal(t, 2080, s.Proxies.HTTPPort)
	assert.Equal(t, 2090, s.Proxies.SocksPort)
}

func TestLoadPartialFileKeepsDefaults(t *testing.T) {
	path := writeSettings(t, "proxies:\n  socks_port: 1090\n")

	s, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "config.json", s.Output)
	assert.Zero(t, s.Proxies.HTTPPort)
	assert.Equal(t, 1090, s.Proxies.SocksPort)
}

func TestLoadRejectsOutOfRangePorts(t *testing.T) {
	path := writeSettings(t, "proxies:\n  http_port: 70000\n")

	_, err := Load(path)
	assert.ErrorContains(t, err, "1..65535")
}

func TestLoadMissingExplicitFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("REEDCON_DATA_DIR", dir)

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.ListenAddr)
	assert.Equal(t, filepath.Join(dir, "reedcon.db"), cfg.DatabasePath)
	assert.Equal(t, 15*time.Second, cfg.RCON.Timeout)
	assert.Equal(t, 2*time.Minute, cfg.RCON.RosterInterval)
	assert.Equal(t, TransportRelay, cfg.Transport.Kind)
	assert.Equal(t, 500*time.Millisecond, cfg.Transport.ReconnectDelay)
	assert.Equal(t, 75*time.Millisecond, cfg.Transport.Docker.Coalesce)
	assert.Equal(t, "armareforger", cfg.Game)
}

func TestLoad_FileAndEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "reedcon.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
data_dir: `+dir+`
rcon:
  timeout: 5s
transport:
  kind: docker
  docker:
    container: reforger
`), 0644))
	t.Setenv("REEDCON_LISTEN_ADDR", ":9090")
	t.Setenv("REEDCON_TRANSPORT_DOCKER_CONTAINER", "reforger-2")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, ":9090", cfg.ListenAddr)
	assert.Equal(t, 5*time.Second, cfg.RCON.Timeout)
	assert.Equal(t, TransportDocker, cfg.Transport.Kind)
	assert.Equal(t, "reforger-2", cfg.Transport.Docker.Container)
}

func TestLoad_Invalid(t *testing.T) {
	t.Setenv("REEDCON_DATA_DIR", t.TempDir())
	t.Setenv("REEDCON_TRANSPORT_KIND", "telnet")

	_, err := Load("")
	assert.ErrorContains(t, err, "transport.kind")
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

package settings

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	apperr "sftpTerm/internal/error"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaults(t *testing.T) {
	dir := t.TempDir()
	v := New()
	v.Set(KeyConfigDir, dir)

	s, err := Load(v, "")
	require.NoError(t, err)

	assert.Equal(t, dir, s.ConfigDir)
	assert.Equal(t, filepath.Join(dir, "state.json"), s.StatePath)
	assert.Equal(t, filepath.Join(dir, "ssh", "known_hosts"), s.KnownHosts)
	assert.Equal(t, 10*time.Second, s.ConnectTimeout)
	assert.Equal(t, 30*time.Second, s.KeepAlive)
	assert.Equal(t, "info", s.LogLevel)
	assert.True(t, s.AcceptNewHosts)
	assert.False(t, s.PathLocks)
}

func TestConfigFileAndEnv(t *testing.T) {
	dir := t.TempDir()
	yaml := "log:\n  level: debug\nfiles:\n  path_locks: true\nssh:\n  connect_timeout: 3s\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0600))
	t.Setenv("SFTPTERM_SSH_TERM", "vt100")

	v := New()
	v.Set(KeyConfigDir, dir)
	s, err := Load(v, "")
	require.NoError(t, err)

	assert.Equal(t, "debug", s.LogLevel)
	assert.True(t, s.PathLocks)
	assert.Equal(t, 3*time.Second, s.ConnectTimeout)
	assert.Equal(t, "vt100", s.Term)
}

func TestExplicitConfigFileMustExist(t *testing.T) {
	v := New()
	v.Set(KeyConfigDir, t.TempDir())
	_, err := Load(v, filepath.Join(t.TempDir(), "missing.yaml"))
	assert.True(t, apperr.Is(err, apperr.ConfigError))
}

package logging

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
)

func TestSanitize(t *testing.T) {
	assert.Equal(t, "a b c", Sanitize("a\nb\rc"))
	assert.Equal(t, "evil fake entry", Sanitize("evil\x00 fake\x1b entry"))
	assert.Equal(t, "zażółć", Sanitize("zażółć"))
}

func TestLBeforeInitIsUsable(t *testing.T) {
	assert.NotNil(t, L())
	L().Info("no-op")
}

func TestInitWritesToFile(t *testing.T) {
	out := filepath.Join(t.TempDir(), "app.log")
	require.NoError(t, Init(Config{Level: "debug", Format: "json", OutputPath: out}))
	t.Cleanup(func() { SetLevel("info") })

	assert.True(t, L().Core().Enabled(zapcore.DebugLevel))
	SetLevel("warn")
	assert.False(t, L().Core().Enabled(zapcore.InfoLevel))
	assert.True(t, L().Core().Enabled(zapcore.WarnLevel))
	_ = Sync()
	assert.FileExists(t, out)
}

func TestPathField(t *testing.T) {
	f := Path("/tmp/a\nb")
	assert.Equal(t, "path", f.Key)
	assert.Equal(t, "/tmp/a b", f.String)
}

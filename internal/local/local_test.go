package local

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	apperr "sftpTerm/internal/error"
	"sftpTerm/internal/transport"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadDirReportsBrokenSymlink(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "ok.txt"), []byte("ok"), 0644))
	require.NoError(t, os.Mkdir(filepath.Join(dir, "sub"), 0755))
	require.NoError(t, os.Symlink(filepath.Join(dir, "missing"), filepath.Join(dir, "dangling")))

	entries, err := New(nil).ReadDir(context.Background(), dir)
	require.NoError(t, err)
	require.Len(t, entries, 3)

	byName := map[string]transport.RawEntry{}
	for _, e := range entries {
		byName[e.Name] = e
	}
	assert.NoError(t, byName["ok.txt"].Err)
	assert.Equal(t, int64(2), byName["ok.txt"].Size)
	assert.True(t, byName["sub"].IsDir)
	assert.Error(t, byName["dangling"].Err)
	assert.True(t, byName["dangling"].IsSymlink)
}

func TestPutExclusiveFailsOnExisting(t *testing.T) {
	ctx := context.Background()
	p := filepath.Join(t.TempDir(), "f.txt")
	fsys := New(nil)

	require.NoError(t, fsys.Put(ctx, nil, p, transport.PutOptions{Exclusive: true}))
	err := fsys.Put(ctx, []byte("x"), p, transport.PutOptions{Exclusive: true})
	require.Error(t, err)
	assert.True(t, apperr.Is(apperr.Classify("put", err), apperr.AlreadyExists))
}

func TestPutAppliesMode(t *testing.T) {
	ctx := context.Background()
	p := filepath.Join(t.TempDir(), "f.txt")
	require.NoError(t, os.WriteFile(p, []byte("old"), 0600))

	require.NoError(t, New(nil).Put(ctx, []byte("new"), p, transport.PutOptions{Mode: 0640}))

	info, err := os.Stat(p)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0640), info.Mode().Perm())
	data, _ := os.ReadFile(p)
	assert.Equal(t, "new", string(data))
}

func TestMkdirAndRemoveAll(t *testing.T) {
	ctx := context.Background()
	root := t.TempDir()
	fsys := New(nil)
	dir := filepath.Join(root, "d")

	require.NoError(t, fsys.Mkdir(ctx, dir))
	assert.True(t, apperr.Is(apperr.Classify("mkdir", fsys.Mkdir(ctx, dir)), apperr.AlreadyExists))

	require.NoError(t, fsys.Put(ctx, []byte("x"), filepath.Join(dir, "leaf"), transport.PutOptions{}))
	require.NoError(t, fsys.RemoveAll(ctx, dir))
	_, err := os.Stat(dir)
	assert.True(t, os.IsNotExist(err))

	err = fsys.RemoveAll(ctx, dir)
	assert.True(t, apperr.Is(apperr.Classify("rmdir", err), apperr.NotFound))
}

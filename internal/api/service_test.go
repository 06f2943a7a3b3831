package api

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"sftpTerm/internal/config"
	apperr "sftpTerm/internal/error"
	"sftpTerm/internal/files"
	"sftpTerm/internal/local"
	"sftpTerm/internal/models"
	"sftpTerm/internal/privileged"
	"sftpTerm/internal/session"
	"sftpTerm/internal/settings"
	"sftpTerm/internal/ssh"
	"sftpTerm/internal/transport/fake"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var creds = models.Credentials{Host: "example.com", Port: 22, Username: "user", Password: "pw"}

type env struct {
	svc    *Service
	remote *fake.FS
	runner *fake.Runner
	shells *fake.ShellDialer
	files  *fake.Dialer
}

func newEnv(t *testing.T) env {
	t.Helper()
	remote := fake.NewFS().
		MkdirAs("/home/user", 0o777).
		MkdirAs("/etc", 0o755).
		WriteAs("/etc/hosts", []byte("127.0.0.1 localhost"), 0o644)
	dialer := &fake.Dialer{FS: remote}
	shells := &fake.ShellDialer{}
	runner := &fake.Runner{FS: remote}

	sess := session.New(dialer, shells)
	executor := privileged.New(sess, runner)
	coord := files.New(local.New(nil), sess, executor)
	registry := config.NewManager(filepath.Join(t.TempDir(), "state.json"))
	require.NoError(t, registry.Load())

	return env{
		svc:    New(sess, coord, executor, registry, nil),
		remote: remote,
		runner: runner,
		shells: shells,
		files:  dialer,
	}
}

func TestListWhileDisconnected(t *testing.T) {
	e := newEnv(t)

	res := e.svc.List(context.Background(), "/x")
	assert.False(t, res.Success)
	assert.Equal(t, apperr.NotConnected.String(), res.Kind)
	assert.Zero(t, e.remote.Calls())
}

func TestShellFailureLeavesDisconnected(t *testing.T) {
	e := newEnv(t)
	e.shells.Err = errors.New("no pty")

	res := e.svc.Connect(context.Background(), creds)
	assert.False(t, res.Success)
	assert.Equal(t, apperr.ConnectError.String(), res.Kind)
	assert.False(t, e.svc.Connected())

	res = e.svc.List(context.Background(), "/home/user")
	assert.Equal(t, apperr.NotConnected.String(), res.Kind)
}

func TestSudoPutFlow(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	require.True(t, e.svc.Connect(ctx, creds).Success)

	src := filepath.Join(t.TempDir(), "motd")
	require.NoError(t, os.WriteFile(src, []byte("welcome"), 0o644))

	res := e.svc.Put(ctx, src, "/etc/motd", false)
	assert.False(t, res.Success)
	assert.True(t, res.NeedsSudo())

	res = e.svc.Put(ctx, src, "/etc/motd", true)
	require.True(t, res.Success, res.Error)

	res = e.svc.Get(ctx, "/etc/motd", false)
	require.True(t, res.Success, res.Error)
	assert.Equal(t, "welcome", string(res.Data))
}

func TestListAndCreate(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	require.True(t, e.svc.Connect(ctx, creds).Success)

	require.True(t, e.svc.CreateRemoteFolder(ctx, "/home/user/dir", false).Success)
	require.True(t, e.svc.CreateRemoteFile(ctx, "/home/user/file.txt", false).Success)

	res := e.svc.CreateRemoteFile(ctx, "/home/user/file.txt", false)
	assert.Equal(t, apperr.AlreadyExists.String(), res.Kind)

	res = e.svc.List(ctx, "/home/user")
	require.True(t, res.Success)
	require.Len(t, res.Files, 2)
	assert.Equal(t, "dir", res.Files[0].Name)
	assert.Equal(t, "file.txt", res.Files[1].Name)

	require.True(t, e.svc.DeleteRemote(ctx, "/home/user/dir", true, false).Success)
	res = e.svc.List(ctx, "/home/user")
	assert.Len(t, res.Files, 1)
}

func TestLocalOperations(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	dir := t.TempDir()

	require.True(t, e.svc.CreateLocalFolder(ctx, filepath.Join(dir, "sub")).Success)
	require.True(t, e.svc.CreateLocalFile(ctx, filepath.Join(dir, "a.txt")).Success)

	res := e.svc.ListLocal(ctx, dir)
	require.True(t, res.Success)
	assert.Len(t, res.Files, 2)

	require.True(t, e.svc.DeleteLocal(ctx, filepath.Join(dir, "a.txt"), false).Success)
	res = e.svc.DeleteLocal(ctx, filepath.Join(dir, "a.txt"), false)
	assert.Equal(t, apperr.NotFound.String(), res.Kind)
}

func TestRegistryRoundTrip(t *testing.T) {
	e := newEnv(t)

	res := e.svc.SaveConnection(models.Profile{Name: "box", Host: "A", Port: 22, Username: "u", Password: "1"})
	require.True(t, res.Success)
	id := res.Profile.ID

	res = e.svc.SaveConnection(models.Profile{Host: "A", Port: 22, Username: "u", Password: "2"})
	require.True(t, res.Success)
	assert.Equal(t, id, res.Profile.ID)

	res = e.svc.GetSavedConnections()
	require.Len(t, res.Profiles, 1)
	assert.Equal(t, "2", res.Profiles[0].Password)

	require.True(t, e.svc.DeleteConnection(id).Success)
	require.True(t, e.svc.DeleteConnection(id).Success)

	res = e.svc.GetSavedConnection(id)
	assert.Equal(t, apperr.NotFound.String(), res.Kind)
}

func TestConnectSaved(t *testing.T) {
	e := newEnv(t)
	saved := e.svc.SaveConnection(models.ProfileFromCredentials("box", creds))
	require.True(t, saved.Success)

	res := e.svc.ConnectSaved(context.Background(), saved.Profile.ID)
	require.True(t, res.Success, res.Error)
	assert.True(t, e.svc.Connected())
}

func TestWindowState(t *testing.T) {
	e := newEnv(t)
	require.True(t, e.svc.SaveWindowState(json.RawMessage(`{"x":1}`)).Success)
	assert.JSONEq(t, `{"x":1}`, string(e.svc.WindowState().WindowState))
}

func TestShellRoundTrip(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	res, _, cancel := e.svc.SubscribeShell()
	assert.False(t, res.Success)
	cancel()

	require.True(t, e.svc.Connect(ctx, creds).Success)
	res, out, cancel := e.svc.SubscribeShell()
	require.True(t, res.Success)
	defer cancel()

	require.True(t, e.svc.WriteShell([]byte("whoami\n")).Success)
	assert.Equal(t, "whoami\n", e.shells.Last().Input())
	require.True(t, e.svc.ResizeShell(100, 30).Success)

	go e.shells.Last().Emit("user\n")
	select {
	case chunk := <-out:
		assert.Equal(t, "user\n", string(chunk))
	case <-time.After(time.Second):
		t.Fatal("no shell output")
	}

	require.True(t, e.svc.Disconnect(ctx).Success)
	require.True(t, e.svc.Disconnect(ctx).Success)
	_, open := <-out
	assert.False(t, open)
}

func TestExecuteSudoCommand(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	require.True(t, e.svc.Connect(ctx, creds).Success)

	res := e.svc.ExecuteSudoCommand(ctx, "id")
	require.True(t, res.Success, res.Error)
	assert.Contains(t, res.Output, "uid=0")

	e.runner.Fail = 1
	res = e.svc.ExecuteSudoCommand(ctx, "id")
	assert.False(t, res.Success)
	assert.Equal(t, 1, res.ExitCode)
	assert.Contains(t, res.Output, "incorrect password")
}

func TestResetClient(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	require.True(t, e.svc.Connect(ctx, creds).Success)

	require.True(t, e.svc.ResetClient().Success)
	assert.False(t, e.svc.Connected())
}

func TestGuardRecoversPanic(t *testing.T) {
	e := newEnv(t)
	res := e.svc.guard("boom", func() Result { panic("kaboom") })
	assert.False(t, res.Success)
	assert.Contains(t, res.Error, "kaboom")
}

func TestBootstrap(t *testing.T) {
	dir := t.TempDir()
	v := settings.New()
	v.Set(settings.KeyConfigDir, dir)
	v.Set(settings.KeyPassphrase, "pass")
	s, err := settings.Load(v, "")
	require.NoError(t, err)

	svc, err := Bootstrap(Options{Settings: s})
	require.NoError(t, err)
	assert.False(t, svc.Connected())

	res := svc.SaveConnection(models.Profile{Host: "h", Username: "u", Password: "pw"})
	require.True(t, res.Success, res.Error)

	data, err := os.ReadFile(filepath.Join(dir, "state.json"))
	require.NoError(t, err)
	assert.NotContains(t, string(data), `"pw"`)
}

func TestLocalFailureDoesNotOfferSudo(t *testing.T) {
	denied := apperr.Classify("write", os.ErrPermission)
	assert.True(t, fail(denied).NeedsSudo())

	res := fail(&files.LocalError{Err: denied})
	assert.Equal(t, apperr.PermissionDenied.String(), res.Kind)
	assert.Equal(t, models.Local, res.Space)
	assert.False(t, res.NeedsSudo())
}

func TestDownloadLocalFailure(t *testing.T) {
	e := newEnv(t)
	require.True(t, e.svc.Connect(context.Background(), creds).Success)

	notDir := filepath.Join(t.TempDir(), "plain")
	require.NoError(t, os.WriteFile(notDir, []byte("x"), 0o644))

	res := e.svc.Download(context.Background(), "/etc/hosts", notDir, false)
	assert.False(t, res.Success)
	assert.Equal(t, models.Local, res.Space)
	assert.False(t, res.NeedsSudo())
}

type trustStub struct {
	host, fingerprint string
	err               error
}

func (s *trustStub) AcceptPending(host, fingerprint string) error {
	s.host, s.fingerprint = host, fingerprint
	return s.err
}

func TestUnknownHostKeyFlow(t *testing.T) {
	e := newEnv(t)
	trust := &trustStub{}
	WithHostKeys(trust)(e.svc)

	prompt := &ssh.HostKeyVerificationRequired{Host: "example.com:22", Fingerprint: "SHA256:abc"}
	e.files.Err = apperr.New(apperr.HostKeyUnknown, "unknown host key", prompt)

	res := e.svc.Connect(context.Background(), creds)
	assert.False(t, res.Success)
	assert.Equal(t, apperr.HostKeyUnknown.String(), res.Kind)
	require.NotNil(t, res.HostKey)
	assert.Equal(t, "example.com:22", res.HostKey.Host)
	assert.Equal(t, "SHA256:abc", res.HostKey.Fingerprint)
	assert.False(t, res.NeedsSudo())

	res = e.svc.AcceptHostKey(res.HostKey.Host, res.HostKey.Fingerprint)
	require.True(t, res.Success, res.Error)
	assert.Equal(t, "example.com:22", trust.host)
	assert.Equal(t, "SHA256:abc", trust.fingerprint)

	trust.err = errors.New("nothing pending")
	res = e.svc.AcceptHostKey("example.com:22", "SHA256:abc")
	assert.Equal(t, apperr.ValidationError.String(), res.Kind)

	e.files.Err = nil
	assert.True(t, e.svc.Connect(context.Background(), creds).Success)
}

func TestAcceptHostKeyWithoutStore(t *testing.T) {
	e := newEnv(t)
	res := e.svc.AcceptHostKey("h:22", "SHA256:x")
	assert.False(t, res.Success)
	assert.Equal(t, apperr.ValidationError.String(), res.Kind)
}

package privileged

import (
	"context"
	"os"
	"strings"
	"testing"

	apperr "sftpTerm/internal/error"
	"sftpTerm/internal/models"
	"sftpTerm/internal/transport"
	"sftpTerm/internal/transport/fake"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubSession struct {
	fs    transport.FileSystem
	creds models.Credentials
	err   error
}

func (s stubSession) Files() (transport.FileSystem, models.Credentials, error) {
	return s.fs, s.creds, s.err
}

const sudoSecret = "hunter2"

func setup(t *testing.T) (*Executor, *fake.FS, *fake.Runner) {
	t.Helper()
	fsys := fake.NewFS().
		MkdirAs("/etc", 0o755).
		MkdirAs("/home/user", 0o777).
		WriteAs("/etc/app.conf", []byte("old"), 0o644).
		WriteAs("/etc/shadow", []byte("root:x"), 0o600)
	runner := &fake.Runner{FS: fsys}
	creds := models.Credentials{Host: "h", Username: "user", Password: sudoSecret}
	return New(stubSession{fs: fsys, creds: creds}, runner), fsys, runner
}

func TestWriteDeniedWithoutEscalation(t *testing.T) {
	e, fsys, runner := setup(t)

	_, err := e.Execute(context.Background(), Operation{Kind: WriteFile, Path: "/etc/app.conf", Data: []byte("new")}, false)

	require.Error(t, err)
	assert.True(t, apperr.Is(err, apperr.PermissionDenied))
	assert.Empty(t, runner.Commands, "no automatic escalation")
	assert.Equal(t, os.FileMode(0o644), fsys.Mode("/etc/app.conf"))
}

func TestEscalatedWriteSucceeds(t *testing.T) {
	e, fsys, runner := setup(t)
	ctx := context.Background()
	op := Operation{Kind: WriteFile, Path: "/etc/app.conf", Data: []byte("new")}

	_, err := e.Execute(ctx, op, true)
	require.NoError(t, err)

	assert.Equal(t, os.FileMode(0o777), fsys.Mode("/etc/app.conf"))
	got, err := fsys.Get(ctx, "/etc/app.conf", transport.GetOptions{})
	require.NoError(t, err)
	assert.Equal(t, "new", string(got))

	require.Len(t, runner.Commands, 2)
	assert.Equal(t, "touch", runner.Commands[0].Name)
	assert.Equal(t, "chmod", runner.Commands[1].Name)
}

func TestEscalatedWriteIsIdempotent(t *testing.T) {
	e, fsys, _ := setup(t)
	ctx := context.Background()
	op := Operation{Kind: WriteFile, Path: "/etc/new.conf", Data: []byte("v1")}

	_, err := e.Execute(ctx, op, true)
	require.NoError(t, err)
	_, err = e.Execute(ctx, op, true)
	require.NoError(t, err)

	got, err := fsys.Get(ctx, "/etc/new.conf", transport.GetOptions{})
	require.NoError(t, err)
	assert.Equal(t, "v1", string(got))
}

func TestSecretNeverInCommand(t *testing.T) {
	e, _, runner := setup(t)
	ctx := context.Background()

	_, err := e.Execute(ctx, Operation{Kind: WriteFile, Path: "/etc/app.conf", Data: []byte("x")}, true)
	require.NoError(t, err)
	_, err = e.Execute(ctx, Operation{Kind: RunCommand, Command: transport.Command{Name: "id"}}, true)
	require.NoError(t, err)

	for _, cmd := range runner.Commands {
		line := cmd.Name + " " + strings.Join(cmd.Args, " ")
		assert.NotContains(t, line, sudoSecret)
	}
	for _, secret := range runner.Secrets {
		assert.Equal(t, sudoSecret, secret)
	}
}

func TestReadFallsBackToElevatedCat(t *testing.T) {
	e, _, runner := setup(t)
	ctx := context.Background()

	_, err := e.Execute(ctx, Operation{Kind: ReadFile, Path: "/etc/shadow"}, false)
	assert.True(t, apperr.Is(err, apperr.PermissionDenied))

	out, err := e.Execute(ctx, Operation{Kind: ReadFile, Path: "/etc/shadow"}, true)
	require.NoError(t, err)
	assert.Equal(t, "root:x", string(out.Data))
	require.Len(t, runner.Commands, 1)
	assert.Equal(t, "cat", runner.Commands[0].Name)
}

func TestReadReadableFileSkipsRunner(t *testing.T) {
	e, _, runner := setup(t)

	out, err := e.Execute(context.Background(), Operation{Kind: ReadFile, Path: "/etc/app.conf"}, true)
	require.NoError(t, err)
	assert.Equal(t, "old", string(out.Data))
	assert.Empty(t, runner.Commands)
}

func TestEscalatedDelete(t *testing.T) {
	e, fsys, runner := setup(t)
	ctx := context.Background()
	fsys.WriteAs("/etc/conf.d/a", []byte("a"), 0o644)

	_, err := e.Execute(ctx, Operation{Kind: Delete, Path: "/etc/conf.d", Recursive: true}, false)
	assert.True(t, apperr.Is(err, apperr.PermissionDenied))

	_, err = e.Execute(ctx, Operation{Kind: Delete, Path: "/etc/conf.d", Recursive: true}, true)
	require.NoError(t, err)
	assert.False(t, fsys.Exists("/etc/conf.d"))
	assert.False(t, fsys.Exists("/etc/conf.d/a"))
	assert.Equal(t, []string{"-rf", "--", "/etc/conf.d"}, runner.Commands[0].Args)
}

func TestDeleteMissingIsNotFoundInBothModes(t *testing.T) {
	e, _, runner := setup(t)
	ctx := context.Background()
	op := Operation{Kind: Delete, Path: "/etc/gone.conf"}

	_, err := e.Execute(ctx, op, false)
	assert.True(t, apperr.Is(err, apperr.NotFound))

	_, err = e.Execute(ctx, op, true)
	assert.True(t, apperr.Is(err, apperr.NotFound))

	op.Recursive = true
	_, err = e.Execute(ctx, op, true)
	assert.True(t, apperr.Is(err, apperr.NotFound))
	assert.Empty(t, runner.Commands, "rm is not run for a missing path")
}

func TestEscalatedCreateFolder(t *testing.T) {
	e, fsys, _ := setup(t)
	ctx := context.Background()

	_, err := e.Execute(ctx, Operation{Kind: CreateFolder, Path: "/etc/newdir"}, true)
	require.NoError(t, err)
	assert.True(t, fsys.Exists("/etc/newdir"))

	_, err = e.Execute(ctx, Operation{Kind: CreateFolder, Path: "/etc/newdir"}, true)
	assert.True(t, apperr.Is(err, apperr.AlreadyExists))
}

func TestCreateFileFailsOnExisting(t *testing.T) {
	e, _, _ := setup(t)
	ctx := context.Background()

	_, err := e.Execute(ctx, Operation{Kind: CreateFile, Path: "/home/user/notes.txt"}, false)
	require.NoError(t, err)

	_, err = e.Execute(ctx, Operation{Kind: CreateFile, Path: "/home/user/notes.txt"}, false)
	assert.True(t, apperr.Is(err, apperr.AlreadyExists))

	_, err = e.Execute(ctx, Operation{Kind: CreateFile, Path: "/etc/app.conf"}, true)
	assert.True(t, apperr.Is(err, apperr.AlreadyExists))
}

func TestRunCommandReportsExitCode(t *testing.T) {
	e, _, runner := setup(t)
	ctx := context.Background()

	out, err := e.Execute(ctx, Operation{Kind: RunCommand, Command: transport.Command{Name: "id"}}, true)
	require.NoError(t, err)
	assert.True(t, out.Exec.Success())
	assert.Contains(t, string(out.Exec.Output), "uid=0")

	runner.Fail = 1
	out, err = e.Execute(ctx, Operation{Kind: RunCommand, Command: transport.Command{Name: "id"}}, true)
	require.NoError(t, err)
	assert.False(t, out.Exec.Success())
	assert.Equal(t, 1, out.Exec.ExitCode)
}

func TestRunCommandRequiresEscalation(t *testing.T) {
	e, _, runner := setup(t)

	_, err := e.Execute(context.Background(), Operation{Kind: RunCommand, Command: transport.Command{Name: "id"}}, false)
	assert.True(t, apperr.Is(err, apperr.ValidationError))
	assert.Empty(t, runner.Commands)
}

func TestFailedSudoStepIsError(t *testing.T) {
	e, _, runner := setup(t)
	runner.Fail = 1

	_, err := e.Execute(context.Background(), Operation{Kind: WriteFile, Path: "/etc/app.conf", Data: []byte("x")}, true)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "incorrect password")
}

func TestNotConnected(t *testing.T) {
	e := New(stubSession{err: apperr.ErrNotConnected}, nil)

	_, err := e.Execute(context.Background(), Operation{Kind: ReadFile, Path: "/x"}, false)
	assert.True(t, apperr.Is(err, apperr.NotConnected))
}

func TestEscalationWithoutRunner(t *testing.T) {
	fsys := fake.NewFS().WriteAs("/etc/app.conf", []byte("old"), 0o644)
	e := New(stubSession{fs: fsys}, nil)

	_, err := e.Execute(context.Background(), Operation{Kind: WriteFile, Path: "/etc/app.conf", Data: []byte("x")}, true)
	assert.True(t, apperr.Is(err, apperr.PermissionDenied))
}

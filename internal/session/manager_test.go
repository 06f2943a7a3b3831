package session

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	apperr "sftpTerm/internal/error"
	"sftpTerm/internal/models"
	"sftpTerm/internal/transport/fake"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testCreds = models.Credentials{Host: "example.com", Port: 22, Username: "user", Password: "secret"}

func newManager(t *testing.T) (*Manager, *fake.Dialer, *fake.ShellDialer) {
	t.Helper()
	files := &fake.Dialer{FS: fake.NewFS()}
	shells := &fake.ShellDialer{}
	return New(files, shells), files, shells
}

func TestConnectOpensBothAdapters(t *testing.T) {
	m, files, shells := newManager(t)

	require.NoError(t, m.Connect(context.Background(), testCreds))

	assert.True(t, m.Connected())
	assert.Equal(t, Connected, m.State())
	assert.Equal(t, 1, files.Dials())
	require.NotNil(t, shells.Last())

	creds, ok := m.Credentials()
	require.True(t, ok)
	assert.Equal(t, testCreds, creds)
}

func TestConnectRollsBackSFTPWhenShellFails(t *testing.T) {
	files := &fake.Dialer{FS: fake.NewFS()}
	shells := &fake.ShellDialer{Err: errors.New("pty refused")}
	m := New(files, shells)

	err := m.Connect(context.Background(), testCreds)
	require.Error(t, err)
	assert.True(t, apperr.Is(err, apperr.ConnectError))

	assert.False(t, m.Connected())
	assert.Equal(t, Disconnected, m.State())
	assert.True(t, files.FS.Closed(), "sftp adapter must be closed on rollback")

	callsBefore := files.FS.Calls()
	_, _, err = m.Files()
	assert.True(t, apperr.Is(err, apperr.NotConnected))
	assert.Equal(t, callsBefore, files.FS.Calls())
}

func TestConnectSFTPFailureSkipsShell(t *testing.T) {
	files := &fake.Dialer{FS: fake.NewFS(), Err: errors.New("auth failed")}
	shells := &fake.ShellDialer{}
	m := New(files, shells)

	err := m.Connect(context.Background(), testCreds)
	assert.True(t, apperr.Is(err, apperr.ConnectError))
	assert.Nil(t, shells.Last())
	assert.False(t, m.Connected())
}

func TestConnectWhileConnectedFails(t *testing.T) {
	m, files, _ := newManager(t)
	require.NoError(t, m.Connect(context.Background(), testCreds))

	err := m.Connect(context.Background(), testCreds)
	assert.True(t, apperr.Is(err, apperr.AlreadyConnected))
	assert.Equal(t, 1, files.Dials())
	assert.True(t, m.Connected())
}

func TestConcurrentConnectIsBusy(t *testing.T) {
	block := make(chan struct{})
	files := &fake.Dialer{FS: fake.NewFS(), Block: block}
	m := New(files, &fake.ShellDialer{})

	first := make(chan error, 1)
	go func() { first <- m.Connect(context.Background(), testCreds) }()

	require.Eventually(t, func() bool { return files.Dials() == 1 }, time.Second, time.Millisecond)

	err := m.Connect(context.Background(), testCreds)
	assert.True(t, apperr.Is(err, apperr.Busy))

	close(block)
	require.NoError(t, <-first)
	assert.Equal(t, 1, files.Dials())
}

func TestDisconnectIsIdempotent(t *testing.T) {
	m, files, shells := newManager(t)

	require.NoError(t, m.Disconnect(context.Background()))

	require.NoError(t, m.Connect(context.Background(), testCreds))
	require.NoError(t, m.Disconnect(context.Background()))
	require.NoError(t, m.Disconnect(context.Background()))

	assert.False(t, m.Connected())
	assert.True(t, files.FS.Closed())
	assert.True(t, shells.Last().Closed())
	_, ok := m.Credentials()
	assert.False(t, ok)
}

func TestResetDropsAdapters(t *testing.T) {
	m, files, shells := newManager(t)
	require.NoError(t, m.Connect(context.Background(), testCreds))

	m.Reset()

	assert.False(t, m.Connected())
	assert.Equal(t, Disconnected, m.State())
	assert.Eventually(t, func() bool {
		return files.FS.Closed() && shells.Last().Closed()
	}, time.Second, time.Millisecond)

	// Po resecie można połączyć się ponownie
	require.NoError(t, m.Connect(context.Background(), testCreds))
	assert.True(t, m.Connected())
}

func TestSubscribeDeliversShellOutput(t *testing.T) {
	m, _, shells := newManager(t)
	require.NoError(t, m.Connect(context.Background(), testCreds))

	out, cancel, err := m.Subscribe()
	require.NoError(t, err)
	defer cancel()

	go shells.Last().Emit("welcome\n")

	select {
	case chunk := <-out:
		assert.Equal(t, "welcome\n", string(chunk))
	case <-time.After(time.Second):
		t.Fatal("no shell output")
	}
}

func TestSubscriptionClosedOnDisconnect(t *testing.T) {
	m, _, _ := newManager(t)
	require.NoError(t, m.Connect(context.Background(), testCreds))

	out, _, err := m.Subscribe()
	require.NoError(t, err)

	require.NoError(t, m.Disconnect(context.Background()))

	select {
	case _, ok := <-out:
		assert.False(t, ok)
	case <-time.After(time.Second):
		t.Fatal("subscription not closed")
	}
}

func TestReconnectDoesNotDuplicateDelivery(t *testing.T) {
	m, _, shells := newManager(t)
	ctx := context.Background()

	require.NoError(t, m.Connect(ctx, testCreds))
	old, _, err := m.Subscribe()
	require.NoError(t, err)
	require.NoError(t, m.Disconnect(ctx))

	require.NoError(t, m.Connect(ctx, testCreds))
	fresh, cancel, err := m.Subscribe()
	require.NoError(t, err)
	defer cancel()

	go shells.Last().Emit("once")

	var got []string
	timeout := time.After(time.Second)
	for len(got) == 0 {
		select {
		case chunk, ok := <-old:
			if ok {
				t.Fatalf("stale subscriber received %q", chunk)
			}
			old = nil
		case chunk := <-fresh:
			got = append(got, string(chunk))
		case <-timeout:
			t.Fatal("no output on fresh subscription")
		}
	}
	assert.Equal(t, []string{"once"}, got)
}

func TestCancelSubscription(t *testing.T) {
	m, _, _ := newManager(t)
	require.NoError(t, m.Connect(context.Background(), testCreds))

	out, cancel, err := m.Subscribe()
	require.NoError(t, err)
	cancel()
	cancel()

	_, ok := <-out
	assert.False(t, ok)
}

func TestRemoteShellExitDisconnects(t *testing.T) {
	m, files, shells := newManager(t)
	require.NoError(t, m.Connect(context.Background(), testCreds))

	require.NoError(t, shells.Last().Close())

	assert.Eventually(t, func() bool { return !m.Connected() }, time.Second, time.Millisecond)
	assert.Eventually(t, files.FS.Closed, time.Second, time.Millisecond)
}

func TestWriteAndResizeShell(t *testing.T) {
	m, _, shells := newManager(t)

	assert.True(t, apperr.Is(m.WriteShell([]byte("ls\n")), apperr.NotConnected))

	require.NoError(t, m.Connect(context.Background(), testCreds))
	require.NoError(t, m.WriteShell([]byte("ls\n")))
	require.NoError(t, m.ResizeShell(120, 40))
	assert.True(t, apperr.Is(m.ResizeShell(0, 40), apperr.ValidationError))

	assert.Equal(t, "ls\n", shells.Last().Input())
	w, h := shells.Last().Size()
	assert.Equal(t, 120, w)
	assert.Equal(t, 40, h)
}

func TestStateCallbackSequence(t *testing.T) {
	var mu sync.Mutex
	var states []State
	files := &fake.Dialer{FS: fake.NewFS()}
	m := New(files, &fake.ShellDialer{}, WithStateCallback(func(s State) {
		mu.Lock()
		states = append(states, s)
		mu.Unlock()
	}))

	require.NoError(t, m.Connect(context.Background(), testCreds))
	require.NoError(t, m.Disconnect(context.Background()))

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []State{Connecting, Connected, Disconnecting, Disconnected}, states)
}

func TestConnectValidatesCredentials(t *testing.T) {
	m, files, _ := newManager(t)
	err := m.Connect(context.Background(), models.Credentials{Host: "h"})
	assert.True(t, apperr.Is(err, apperr.ValidationError))
	assert.Equal(t, 0, files.Dials())
}

package ssh

import (
	"context"
	"crypto/ed25519"
	"crypto/rand"
	"errors"
	"io"
	"io/fs"
	"net"
	"os"
	"strings"
	"testing"
	"time"

	apperr "sftpTerm/internal/error"
	"sftpTerm/internal/models"
	"sftpTerm/internal/transport"

	"github.com/pkg/sftp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/ssh"
)

// newTestAdapter łączy adapter z serwerem SFTP w pamięci przez net.Pipe
func newTestAdapter(t *testing.T) *SFTPAdapter {
	t.Helper()
	return newTestAdapterWith(t, sftp.InMemHandler())
}

func newTestAdapterWith(t *testing.T, handlers sftp.Handlers) *SFTPAdapter {
	t.Helper()
	serverConn, clientConn := net.Pipe()

	server := sftp.NewRequestServer(serverConn, handlers)
	go server.Serve()

	client, err := sftp.NewClientPipe(clientConn, clientConn)
	require.NoError(t, err)

	adapter := NewSFTPAdapter(client, nil)
	t.Cleanup(func() {
		adapter.Close()
		server.Close()
	})
	return adapter
}

func TestSFTPAdapterPutGetRoundTrip(t *testing.T) {
	ctx := context.Background()
	a := newTestAdapter(t)

	payload := []byte("hello over sftp")
	require.NoError(t, a.Put(ctx, payload, "/greeting.txt", transport.PutOptions{}))

	got, err := a.Get(ctx, "/greeting.txt", transport.GetOptions{})
	require.NoError(t, err)
	assert.Equal(t, payload, got)

	entry, err := a.Stat(ctx, "/greeting.txt")
	require.NoError(t, err)
	assert.False(t, entry.IsDir)
	assert.Equal(t, int64(len(payload)), entry.Size)
}

func TestSFTPAdapterPutOverwrites(t *testing.T) {
	ctx := context.Background()
	a := newTestAdapter(t)

	require.NoError(t, a.Put(ctx, []byte("first version, longer"), "/f.txt", transport.PutOptions{}))
	require.NoError(t, a.Put(ctx, []byte("second"), "/f.txt", transport.PutOptions{}))

	got, err := a.Get(ctx, "/f.txt", transport.GetOptions{})
	require.NoError(t, err)
	assert.Equal(t, "second", string(got))
}

func TestSFTPAdapterReadDir(t *testing.T) {
	ctx := context.Background()
	a := newTestAdapter(t)

	require.NoError(t, a.Mkdir(ctx, "/docs"))
	require.NoError(t, a.Put(ctx, []byte("a"), "/docs/a.txt", transport.PutOptions{}))
	require.NoError(t, a.Mkdir(ctx, "/docs/sub"))

	entries, err := a.ReadDir(ctx, "/docs")
	require.NoError(t, err)

	byName := map[string]transport.RawEntry{}
	for _, e := range entries {
		byName[e.Name] = e
	}
	require.Len(t, byName, 2)
	assert.False(t, byName["a.txt"].IsDir)
	assert.True(t, byName["sub"].IsDir)
}

func TestSFTPAdapterMkdirExisting(t *testing.T) {
	ctx := context.Background()
	a := newTestAdapter(t)

	require.NoError(t, a.Mkdir(ctx, "/dir"))
	err := a.Mkdir(ctx, "/dir")
	require.Error(t, err)
	assert.True(t, apperr.Is(apperr.Classify("mkdir", err), apperr.AlreadyExists))
}

// opensshLikeWriter odpowiada na O_EXCL istniejącego pliku ogólnym
// SSH_FX_FAILURE, tak jak OpenSSH
type opensshLikeWriter struct {
	inner sftp.Handlers
}

func (w opensshLikeWriter) Filewrite(r *sftp.Request) (io.WriterAt, error) {
	if r.Pflags().Excl {
		if _, err := w.inner.FileList.Filelist(sftp.NewRequest("Stat", r.Filepath)); err == nil {
			return nil, sftp.ErrSSHFxFailure
		}
	}
	return w.inner.FilePut.Filewrite(r)
}

func TestSFTPAdapterExclusivePutExisting(t *testing.T) {
	ctx := context.Background()
	handlers := sftp.InMemHandler()
	inner := handlers
	handlers.FilePut = opensshLikeWriter{inner: inner}
	a := newTestAdapterWith(t, handlers)

	require.NoError(t, a.Put(ctx, []byte("new"), "/fresh.txt", transport.PutOptions{Exclusive: true}))
	require.NoError(t, a.Put(ctx, []byte("original"), "/taken.txt", transport.PutOptions{}))

	err := a.Put(ctx, []byte("clobber"), "/taken.txt", transport.PutOptions{Exclusive: true})
	require.Error(t, err)
	assert.ErrorIs(t, err, fs.ErrExist)
	assert.True(t, apperr.Is(apperr.Classify("create", err), apperr.AlreadyExists))

	got, err := a.Get(ctx, "/taken.txt", transport.GetOptions{})
	require.NoError(t, err)
	assert.Equal(t, "original", string(got))
}

func TestSFTPAdapterRemoveAll(t *testing.T) {
	ctx := context.Background()
	a := newTestAdapter(t)

	require.NoError(t, a.Mkdir(ctx, "/tree"))
	require.NoError(t, a.Mkdir(ctx, "/tree/nested"))
	require.NoError(t, a.Put(ctx, []byte("x"), "/tree/nested/leaf", transport.PutOptions{}))
	require.NoError(t, a.Put(ctx, []byte("y"), "/tree/top", transport.PutOptions{}))

	require.NoError(t, a.RemoveAll(ctx, "/tree"))

	_, err := a.Stat(ctx, "/tree")
	require.Error(t, err)
	assert.True(t, apperr.Is(apperr.Classify("stat", err), apperr.NotFound))
}

func TestSFTPAdapterMissingFile(t *testing.T) {
	a := newTestAdapter(t)

	_, err := a.Get(context.Background(), "/nope", transport.GetOptions{})
	require.Error(t, err)
	assert.True(t, apperr.Is(apperr.Classify("get", err), apperr.NotFound))
}

func TestSFTPAdapterCanceledContext(t *testing.T) {
	a := newTestAdapter(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := a.ReadDir(ctx, "/")
	assert.ErrorIs(t, err, context.Canceled)
}

func TestSudoCommandLine(t *testing.T) {
	cmd := transport.Command{Name: "touch", Args: []string{"/etc/my file"}}

	line := sudoCommandLine(cmd, true)
	assert.Equal(t, `sudo -S -p '' -- touch '/etc/my file'`, line)

	line = sudoCommandLine(cmd, false)
	assert.Equal(t, `sudo -n -- touch '/etc/my file'`, line)
}

func TestSudoCommandLineQuotesMetacharacters(t *testing.T) {
	cmd := transport.Command{Name: "rm", Args: []string{"-f", "/tmp/x; reboot"}}
	line := sudoCommandLine(cmd, true)

	assert.True(t, strings.HasSuffix(line, ` -f '/tmp/x; reboot'`))
}

func TestRunElevatedRejectsEmptyCommand(t *testing.T) {
	d := NewDialer()
	_, err := d.RunElevated(context.Background(), models.Credentials{Host: "127.0.0.1", Username: "u"}, transport.Command{})
	assert.True(t, apperr.Is(err, apperr.ValidationError))
}

func TestDialUnreachableHostIsConnectError(t *testing.T) {
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := listener.Addr().(*net.TCPAddr)
	listener.Close()

	d := NewDialer()
	_, err = d.DialFiles(context.Background(), models.Credentials{
		Host:     "127.0.0.1",
		Port:     addr.Port,
		Username: "u",
		Password: "p",
	})
	require.Error(t, err)
	assert.True(t, apperr.Is(err, apperr.ConnectError))
}

// startTestSSHServer uruchamia serwer SSH przyjmujący hasło "pw" i
// zwraca jego port oraz fingerprint klucza hosta
func startTestSSHServer(t *testing.T) (int, string) {
	t.Helper()
	_, priv, err := ed25519.GenerateKey(rand.Reader)
	require.NoError(t, err)
	signer, err := ssh.NewSignerFromKey(priv)
	require.NoError(t, err)

	cfg := &ssh.ServerConfig{
		PasswordCallback: func(_ ssh.ConnMetadata, pw []byte) (*ssh.Permissions, error) {
			if string(pw) == "pw" {
				return nil, nil
			}
			return nil, errors.New("access denied")
		},
	}
	cfg.AddHostKey(signer)

	listener, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	t.Cleanup(func() { listener.Close() })

	go func() {
		for {
			conn, err := listener.Accept()
			if err != nil {
				return
			}
			go func() {
				sconn, chans, reqs, err := ssh.NewServerConn(conn, cfg)
				if err != nil {
					conn.Close()
					return
				}
				go ssh.DiscardRequests(reqs)
				go func() {
					for ch := range chans {
						_ = ch.Reject(ssh.Prohibited, "no channels")
					}
				}()
				_ = sconn.Wait()
			}()
		}
	}()

	return listener.Addr().(*net.TCPAddr).Port, ssh.FingerprintSHA256(signer.PublicKey())
}

func TestUnknownHostKeyNeedsAcceptance(t *testing.T) {
	port, fingerprint := startTestSSHServer(t)
	store := NewHostKeyStore(DefaultKnownHostsPath(t.TempDir()), false, nil)
	d := NewDialer(WithHostKeys(store), WithTimeout(5*time.Second))
	creds := models.Credentials{Host: "127.0.0.1", Port: port, Username: "u", Password: "pw"}
	ctx := context.Background()

	_, err := d.dial(ctx, creds)
	require.Error(t, err)
	assert.True(t, apperr.Is(err, apperr.HostKeyUnknown))
	var unknown *HostKeyVerificationRequired
	require.ErrorAs(t, err, &unknown)
	assert.Equal(t, fingerprint, unknown.Fingerprint)

	// Inny klucz niż pokazany użytkownikowi nie zostaje zapisany
	assert.Error(t, store.AcceptPending(unknown.Host, "SHA256:something-else"))
	require.NoError(t, store.AcceptPending(unknown.Host, fingerprint))

	client, err := d.dial(ctx, creds)
	require.NoError(t, err)
	client.Close()

	assert.Error(t, store.AcceptPending(unknown.Host, fingerprint), "nothing left to accept")
}

func TestAcceptNewHostsTrustsOnFirstUse(t *testing.T) {
	port, _ := startTestSSHServer(t)
	store := NewHostKeyStore(DefaultKnownHostsPath(t.TempDir()), true, nil)
	d := NewDialer(WithHostKeys(store), WithTimeout(5*time.Second))
	creds := models.Credentials{Host: "127.0.0.1", Port: port, Username: "u", Password: "pw"}

	client, err := d.dial(context.Background(), creds)
	require.NoError(t, err)
	client.Close()

	data, err := os.ReadFile(store.Path())
	require.NoError(t, err)
	assert.Contains(t, string(data), "ssh-ed25519")
}

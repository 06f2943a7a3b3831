// internal/ssh/dial.go
package ssh

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"time"

	apperr "sftpTerm/internal/error"
	"sftpTerm/internal/models"

	"go.uber.org/zap"
	"golang.org/x/crypto/ssh"
)

const (
	defaultConnectTimeout = 10 * time.Second
	defaultKeepAlive      = 30 * time.Second
)

// Dialer otwiera połączenia SSH dla wszystkich adapterów (SFTP, powłoka, sudo).
// Każde wywołanie DialFiles/DialShell/RunElevated tworzy własne połączenie TCP.
type Dialer struct {
	timeout   time.Duration
	keepAlive time.Duration
	hostKeys  *HostKeyStore
	logger    *zap.Logger
}

type DialerOption func(*Dialer)

func WithTimeout(d time.Duration) DialerOption {
	return func(dl *Dialer) {
		if d > 0 {
			dl.timeout = d
		}
	}
}

// WithKeepAlive ustawia interwał keepalive dla powłoki (0 wyłącza)
func WithKeepAlive(d time.Duration) DialerOption {
	return func(dl *Dialer) { dl.keepAlive = d }
}

func WithHostKeys(store *HostKeyStore) DialerOption {
	return func(dl *Dialer) { dl.hostKeys = store }
}

func WithLogger(logger *zap.Logger) DialerOption {
	return func(dl *Dialer) {
		if logger != nil {
			dl.logger = logger
		}
	}
}

// NewDialer tworzy nowy Dialer
func NewDialer(opts ...DialerOption) *Dialer {
	d := &Dialer{
		timeout:   defaultConnectTimeout,
		keepAlive: defaultKeepAlive,
		logger:    zap.NewNop(),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// clientConfig buduje konfigurację klienta SSH dla danych logowania
func (d *Dialer) clientConfig(creds models.Credentials) (*ssh.ClientConfig, error) {
	var auth []ssh.AuthMethod

	if creds.KeyPath != "" {
		key, err := os.ReadFile(creds.KeyPath)
		if err != nil {
			return nil, fmt.Errorf("failed to read SSH key: %w", err)
		}
		signer, err := ssh.ParsePrivateKey(key)
		var missing *ssh.PassphraseMissingError
		if errors.As(err, &missing) && creds.Password != "" {
			// Klucz zaszyfrowany - hasło profilu służy jako passphrase
			signer, err = ssh.ParsePrivateKeyWithPassphrase(key, []byte(creds.Password))
		}
		if err != nil {
			return nil, fmt.Errorf("failed to parse SSH key: %w", err)
		}
		auth = append(auth, ssh.PublicKeys(signer))
	}

	if creds.Password != "" {
		password := creds.Password
		auth = append(auth,
			ssh.Password(password),
			// Część serwerów akceptuje tylko keyboard-interactive
			ssh.KeyboardInteractive(func(_, _ string, questions []string, _ []bool) ([]string, error) {
				answers := make([]string, len(questions))
				for i := range answers {
					answers[i] = password
				}
				return answers, nil
			}),
		)
	}

	hostKeyCallback := ssh.InsecureIgnoreHostKey()
	if d.hostKeys != nil {
		hostKeyCallback = d.hostKeys.Callback()
	}

	return &ssh.ClientConfig{
		User:            creds.Username,
		Auth:            auth,
		HostKeyCallback: hostKeyCallback,
		Timeout:         d.timeout,
	}, nil
}

// dial nawiązuje połączenie SSH z uwzględnieniem kontekstu
func (d *Dialer) dial(ctx context.Context, creds models.Credentials) (*ssh.Client, error) {
	config, err := d.clientConfig(creds)
	if err != nil {
		return nil, apperr.New(apperr.ConnectError, "invalid credentials", err)
	}

	addr := creds.Address()
	dialer := net.Dialer{Timeout: d.timeout}
	netConn, err := dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		return nil, apperr.New(apperr.ConnectError, fmt.Sprintf("dial %s", addr), err)
	}

	// Handshake nie obsługuje kontekstu - ograniczamy go deadline'em
	deadline := time.Now().Add(d.timeout)
	if ctxDeadline, ok := ctx.Deadline(); ok && ctxDeadline.Before(deadline) {
		deadline = ctxDeadline
	}
	_ = netConn.SetDeadline(deadline)

	if d.hostKeys != nil {
		d.hostKeys.forget(addr)
	}
	sshConn, chans, reqs, err := ssh.NewClientConn(netConn, addr, config)
	if err != nil {
		netConn.Close()
		if unknown := d.unknownHostKey(addr, err); unknown != nil {
			return nil, apperr.New(apperr.HostKeyUnknown,
				fmt.Sprintf("unknown host key for %s (%s)", unknown.Host, unknown.Fingerprint), unknown)
		}
		return nil, apperr.New(apperr.ConnectError, fmt.Sprintf("ssh handshake with %s", addr), err)
	}
	_ = netConn.SetDeadline(time.Time{})

	d.logger.Debug("ssh connected",
		zap.String("addr", addr),
		zap.String("user", creds.Username))
	return ssh.NewClient(sshConn, chans, reqs), nil
}

// unknownHostKey rozpoznaje odrzucenie nieznanego klucza; magazyn pamięta
// je także wtedy, gdy biblioteka nie opakowuje błędu callbacku
func (d *Dialer) unknownHostKey(addr string, err error) *HostKeyVerificationRequired {
	var unknown *HostKeyVerificationRequired
	if errors.As(err, &unknown) {
		return unknown
	}
	if d.hostKeys == nil {
		return nil
	}
	if fingerprint, ok := d.hostKeys.rejected(addr); ok {
		return &HostKeyVerificationRequired{Host: addr, Fingerprint: fingerprint}
	}
	return nil
}

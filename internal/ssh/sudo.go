// internal/ssh/sudo.go

package ssh

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	apperr "sftpTerm/internal/error"
	"sftpTerm/internal/models"
	"sftpTerm/internal/transport"

	"github.com/kballard/go-shellquote"
	"go.uber.org/zap"
	"golang.org/x/crypto/ssh"
)

// sudoCommandLine buduje linię poleceń dla sudo. Hasło nigdy nie trafia do
// linii poleceń: przy withPassword sudo czyta je ze stdin (-S) z pustym
// promptem, w przeciwnym razie działa nieinteraktywnie (-n).
func sudoCommandLine(cmd transport.Command, withPassword bool) string {
	prefix := "sudo -n --"
	if withPassword {
		prefix = "sudo -S -p '' --"
	}
	return prefix + " " + shellquote.Join(append([]string{cmd.Name}, cmd.Args...)...)
}

// lockedBuffer - stdout i stderr są zapisywane z osobnych gorutyn
type lockedBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *lockedBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *lockedBuffer) Bytes() []byte {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]byte(nil), b.buf.Bytes()...)
}

// RunElevated wykonuje polecenie przez sudo na nowym, jednorazowym
// połączeniu. Interaktywna powłoka sesji nie jest nigdy używana.
func (d *Dialer) RunElevated(ctx context.Context, creds models.Credentials, cmd transport.Command) (transport.ExecResult, error) {
	if cmd.Name == "" {
		return transport.ExecResult{}, apperr.New(apperr.ValidationError, "command cannot be empty", nil)
	}

	client, err := d.dial(ctx, creds)
	if err != nil {
		return transport.ExecResult{}, err
	}
	defer client.Close()

	return runElevated(ctx, client, creds.Password, cmd, d.logger)
}

func runElevated(ctx context.Context, client *ssh.Client, secret string, cmd transport.Command, logger *zap.Logger) (transport.ExecResult, error) {
	start := time.Now()

	session, err := client.NewSession()
	if err != nil {
		return transport.ExecResult{}, fmt.Errorf("open ssh session: %w", err)
	}
	defer session.Close()

	stdin, err := session.StdinPipe()
	if err != nil {
		return transport.ExecResult{}, fmt.Errorf("create stdin pipe: %w", err)
	}

	var stdout bytes.Buffer
	combined := &lockedBuffer{}
	session.Stdout = io.MultiWriter(&stdout, combined)
	session.Stderr = combined

	line := sudoCommandLine(cmd, secret != "")
	if err := session.Start(line); err != nil {
		return transport.ExecResult{}, fmt.Errorf("start command: %w", err)
	}

	if secret != "" {
		if _, err := io.WriteString(stdin, secret+"\n"); err != nil {
			return transport.ExecResult{}, fmt.Errorf("write to stdin: %w", err)
		}
	}
	stdin.Close()

	// Przerwanie kontekstu zamyka sesję, co kończy Wait
	waitDone := make(chan struct{})
	go func() {
		select {
		case <-ctx.Done():
			session.Close()
		case <-waitDone:
		}
	}()
	err = session.Wait()
	close(waitDone)

	result := transport.ExecResult{
		Stdout: stdout.Bytes(),
		Output: combined.Bytes(),
	}

	var exitErr *ssh.ExitError
	switch {
	case err == nil:
		result.ExitCode = 0
	case errors.As(err, &exitErr):
		result.ExitCode = exitErr.ExitStatus()
	default:
		if ctxErr := ctx.Err(); ctxErr != nil {
			return result, ctxErr
		}
		return result, fmt.Errorf("wait for command: %w", err)
	}

	logger.Debug("elevated command finished",
		zap.String("command", cmd.Name),
		zap.Int("exit_code", result.ExitCode),
		zap.Duration("elapsed", time.Since(start)))
	return result, nil
}

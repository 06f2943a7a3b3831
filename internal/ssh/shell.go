// internal/ssh/shell.go

package ssh

import (
	"context"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"sftpTerm/internal/models"
	"sftpTerm/internal/transport"

	"go.uber.org/zap"
	"golang.org/x/crypto/ssh"
)

const (
	defaultTermType   = "xterm-256color"
	defaultTermWidth  = 80
	defaultTermHeight = 24
)

// ShellAdapter reprezentuje interaktywną powłokę na własnym połączeniu SSH
type ShellAdapter struct {
	client    *ssh.Client
	session   *ssh.Session
	stdin     io.WriteCloser
	stdout    io.Reader
	keepAlive time.Duration
	logger    *zap.Logger

	stopChan  chan struct{}
	done      chan struct{}
	closeOnce sync.Once

	sizeMutex  sync.Mutex
	termWidth  int
	termHeight int
}

// DialShell otwiera połączenie i uruchamia powłokę z pseudoterminalem
func (d *Dialer) DialShell(ctx context.Context, creds models.Credentials, opts transport.ShellOptions) (transport.Shell, error) {
	client, err := d.dial(ctx, creds)
	if err != nil {
		return nil, err
	}

	shell, err := startShell(client, opts, d.keepAlive, d.logger)
	if err != nil {
		client.Close()
		return nil, err
	}
	return shell, nil
}

func startShell(client *ssh.Client, opts transport.ShellOptions, keepAlive time.Duration, logger *zap.Logger) (*ShellAdapter, error) {
	session, err := client.NewSession()
	if err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}

	termType := opts.Term
	if termType == "" {
		termType = defaultTermType
	}
	width, height := opts.Width, opts.Height
	if width <= 0 || height <= 0 {
		width, height = defaultTermWidth, defaultTermHeight
	}

	modes := ssh.TerminalModes{
		ssh.ECHO:          1,
		ssh.TTY_OP_ISPEED: 14400,
		ssh.TTY_OP_OSPEED: 14400,
		ssh.VINTR:         3,  // Ctrl+C
		ssh.VQUIT:         28, // Ctrl+\
		ssh.VERASE:        127,
		ssh.VKILL:         21, // Ctrl+U
		ssh.VEOF:          4,  // Ctrl+D
		ssh.VWERASE:       23, // Ctrl+W
		ssh.VLNEXT:        22, // Ctrl+V
		ssh.VSUSP:         26, // Ctrl+Z
	}

	if err := session.RequestPty(termType, height, width, modes); err != nil {
		session.Close()
		return nil, fmt.Errorf("failed to request PTY: %w", err)
	}

	stdin, err := session.StdinPipe()
	if err != nil {
		session.Close()
		return nil, fmt.Errorf("failed to create stdin pipe: %w", err)
	}
	stdout, err := session.StdoutPipe()
	if err != nil {
		session.Close()
		return nil, fmt.Errorf("failed to create stdout pipe: %w", err)
	}

	if err := session.Shell(); err != nil {
		session.Close()
		return nil, fmt.Errorf("failed to start shell: %w", err)
	}

	s := &ShellAdapter{
		client:     client,
		session:    session,
		stdin:      stdin,
		stdout:     stdout,
		keepAlive:  keepAlive,
		logger:     logger,
		stopChan:   make(chan struct{}),
		done:       make(chan struct{}),
		termWidth:  width,
		termHeight: height,
	}

	go s.wait()
	if keepAlive > 0 {
		go s.keepAliveLoop()
	}
	return s, nil
}

// wait czeka na zakończenie powłoki po stronie serwera
func (s *ShellAdapter) wait() {
	err := s.session.Wait()
	if err != nil && !isNormalExit(err) {
		s.logger.Warn("shell ended with error", zap.Error(err))
	}
	close(s.done)
}

func isNormalExit(err error) bool {
	if _, ok := err.(*ssh.ExitError); ok {
		return true
	}
	errStr := err.Error()
	return strings.Contains(errStr, "exit status") ||
		strings.Contains(errStr, "signal: terminated") ||
		strings.Contains(errStr, "signal: interrupt") ||
		err == io.EOF
}

// keepAliveLoop wysyła pakiety keepalive
func (s *ShellAdapter) keepAliveLoop() {
	ticker := time.NewTicker(s.keepAlive)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			_, _, err := s.client.SendRequest("keepalive@openssh.com", true, nil)
			if err != nil {
				s.logger.Warn("keepalive failed, closing shell", zap.Error(err))
				s.Close()
				return
			}
		case <-s.stopChan:
			return
		case <-s.done:
			return
		}
	}
}

func (s *ShellAdapter) Output() io.Reader {
	return s.stdout
}

func (s *ShellAdapter) Write(p []byte) (int, error) {
	return s.stdin.Write(p)
}

// Resize zmienia rozmiar pseudoterminala
func (s *ShellAdapter) Resize(width, height int) error {
	s.sizeMutex.Lock()
	defer s.sizeMutex.Unlock()

	if width == s.termWidth && height == s.termHeight {
		return nil
	}
	if err := s.session.WindowChange(height, width); err != nil {
		return fmt.Errorf("failed to update window size: %w", err)
	}
	s.termWidth = width
	s.termHeight = height
	return nil
}

func (s *ShellAdapter) Done() <-chan struct{} {
	return s.done
}

// Close zamyka sesję i połączenie
func (s *ShellAdapter) Close() error {
	var errs []string
	s.closeOnce.Do(func() {
		close(s.stopChan)

		if err := s.session.Close(); err != nil && err != io.EOF {
			errs = append(errs, fmt.Sprintf("session close error: %v", err))
		}
		if err := s.client.Close(); err != nil {
			errs = append(errs, fmt.Sprintf("client close error: %v", err))
		}
	})

	if len(errs) > 0 {
		return fmt.Errorf("close errors: %s", strings.Join(errs, "; "))
	}
	return nil
}

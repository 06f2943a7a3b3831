// internal/session/manager.go

// Package session zarządza jedną sesją: połączeniem SFTP i interaktywną
// powłoką otwartymi z tymi samymi danymi logowania.
package session

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	apperr "sftpTerm/internal/error"
	"sftpTerm/internal/logging"
	"sftpTerm/internal/models"
	"sftpTerm/internal/transport"

	"go.uber.org/zap"
)

// State to stan cyklu życia sesji
type State int

const (
	Disconnected State = iota
	Connecting
	Connected
	Disconnecting
)

func (s State) String() string {
	switch s {
	case Connecting:
		return "connecting"
	case Connected:
		return "connected"
	case Disconnecting:
		return "disconnecting"
	default:
		return "disconnected"
	}
}

// Manager jest właścicielem obu adapterów. Connect/Disconnect/Reset są
// wzajemnie wykluczające się; Connect w trakcie innej zmiany stanu zwraca Busy.
type Manager struct {
	files     transport.FileDialer
	shells    transport.ShellDialer
	shellOpts transport.ShellOptions
	logger    *zap.Logger
	onState   func(State)

	lifecycle sync.Mutex

	mu    sync.RWMutex
	state State
	fs    transport.FileSystem
	shell transport.Shell
	creds models.Credentials
	hub   *hub
}

type Option func(*Manager)

func WithLogger(logger *zap.Logger) Option {
	return func(m *Manager) {
		if logger != nil {
			m.logger = logger
		}
	}
}

func WithShellOptions(opts transport.ShellOptions) Option {
	return func(m *Manager) { m.shellOpts = opts }
}

// WithStateCallback rejestruje obserwatora zmian stanu. Callback jest
// wywoływany synchronicznie i nie może wołać metod cyklu życia.
func WithStateCallback(fn func(State)) Option {
	return func(m *Manager) { m.onState = fn }
}

// New tworzy rozłączoną sesję
func New(files transport.FileDialer, shells transport.ShellDialer, opts ...Option) *Manager {
	m := &Manager{
		files:  files,
		shells: shells,
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

func (m *Manager) setState(s State) {
	m.mu.Lock()
	prev := m.state
	m.state = s
	m.mu.Unlock()

	if prev != s {
		m.logger.Debug("session state changed",
			zap.Stringer("from", prev),
			zap.Stringer("to", s))
		if m.onState != nil {
			m.onState(s)
		}
	}
}

// Connect otwiera najpierw SFTP, potem powłokę. Błąd powłoki zamyka SFTP,
// więc sesja jest albo w pełni połączona, albo rozłączona.
func (m *Manager) Connect(ctx context.Context, creds models.Credentials) error {
	if err := creds.Validate(); err != nil {
		return apperr.New(apperr.ValidationError, "invalid connection parameters", err)
	}
	if !m.lifecycle.TryLock() {
		return apperr.ErrBusy
	}
	defer m.lifecycle.Unlock()

	if m.Connected() {
		return apperr.ErrAlreadyConnected
	}

	m.setState(Connecting)
	log := m.logger.With(logging.Host(creds.Host), zap.String("user", logging.Sanitize(creds.Username)))

	fsys, err := m.files.DialFiles(ctx, creds)
	if err != nil {
		m.setState(Disconnected)
		log.Warn("sftp connect failed", zap.Error(err))
		return connectError("sftp connection failed", err)
	}

	shell, err := m.shells.DialShell(ctx, creds, m.shellOpts)
	if err != nil {
		if closeErr := fsys.Close(); closeErr != nil {
			log.Warn("rollback: closing sftp failed", zap.Error(closeErr))
		}
		m.setState(Disconnected)
		log.Warn("shell connect failed, sftp rolled back", zap.Error(err))
		return connectError("shell connection failed", err)
	}

	h := newHub(shell.Output(), m.logger)

	m.mu.Lock()
	m.fs = fsys
	m.shell = shell
	m.creds = creds
	m.hub = h
	m.mu.Unlock()
	m.setState(Connected)

	go h.pump()
	go m.watch(shell, h)

	log.Info("session connected")
	return nil
}

func connectError(message string, err error) error {
	var appErr *apperr.AppError
	if errors.As(err, &appErr) && appErr.Type != apperr.TransportError {
		return err
	}
	return apperr.New(apperr.ConnectError, message, err)
}

// watch rozłącza sesję, gdy serwer zakończy powłokę
func (m *Manager) watch(shell transport.Shell, h *hub) {
	select {
	case <-shell.Done():
	case <-h.stop:
		return
	}

	m.lifecycle.Lock()
	defer m.lifecycle.Unlock()

	m.mu.RLock()
	current := m.shell == shell
	m.mu.RUnlock()
	if !current {
		return
	}
	m.logger.Info("remote shell ended, closing session")
	if err := m.teardown(); err != nil {
		m.logger.Warn("teardown after shell exit", zap.Error(err))
	}
}

// Disconnect zamyka oba adaptery. Wywołanie na rozłączonej sesji jest no-op.
// Dane logowania są zawsze czyszczone.
func (m *Manager) Disconnect(ctx context.Context) error {
	m.lifecycle.Lock()
	defer m.lifecycle.Unlock()

	if err := m.teardown(); err != nil {
		m.logger.Warn("disconnect finished with errors", zap.Error(err))
		return apperr.New(apperr.TransportError, "disconnect", err)
	}
	return nil
}

// teardown wymaga trzymania lifecycle
func (m *Manager) teardown() error {
	m.mu.Lock()
	fsys, shell, h := m.fs, m.shell, m.hub
	m.creds = models.Credentials{}
	m.mu.Unlock()

	if fsys == nil && shell == nil {
		m.setState(Disconnected)
		return nil
	}

	m.setState(Disconnecting)
	if h != nil {
		h.close()
	}

	var errs []string
	if shell != nil {
		if err := shell.Close(); err != nil {
			errs = append(errs, fmt.Sprintf("shell: %v", err))
		}
	}
	if fsys != nil {
		if err := fsys.Close(); err != nil {
			errs = append(errs, fmt.Sprintf("sftp: %v", err))
		}
	}

	m.mu.Lock()
	m.fs = nil
	m.shell = nil
	m.hub = nil
	m.mu.Unlock()
	m.setState(Disconnected)

	if len(errs) > 0 {
		return errors.New(strings.Join(errs, "; "))
	}
	m.logger.Info("session disconnected")
	return nil
}

// Reset porzuca adaptery bez czekania na ich zamknięcie. Zawsze się udaje.
func (m *Manager) Reset() {
	m.lifecycle.Lock()
	defer m.lifecycle.Unlock()

	m.mu.Lock()
	fsys, shell, h := m.fs, m.shell, m.hub
	m.fs = nil
	m.shell = nil
	m.hub = nil
	m.creds = models.Credentials{}
	m.mu.Unlock()

	if h != nil {
		h.close()
	}
	// Martwe połączenie może blokować Close - zamykamy w tle, błędy ignorujemy
	go func() {
		if shell != nil {
			_ = shell.Close()
		}
		if fsys != nil {
			_ = fsys.Close()
		}
	}()

	m.setState(Disconnected)
	m.logger.Info("session reset")
}

func (m *Manager) Connected() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.state == Connected && m.fs != nil && m.shell != nil
}

func (m *Manager) State() State {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.state
}

// Credentials zwraca dane aktywnej sesji
func (m *Manager) Credentials() (models.Credentials, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.state != Connected {
		return models.Credentials{}, false
	}
	return m.creds, true
}

// Files zwraca adapter SFTP razem z danymi logowania sesji. Bez aktywnej
// sesji zwraca NotConnected i nie wykonuje żadnego wywołania sieciowego.
func (m *Manager) Files() (transport.FileSystem, models.Credentials, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.state != Connected || m.fs == nil {
		return nil, models.Credentials{}, apperr.ErrNotConnected
	}
	return m.fs, m.creds, nil
}

// Subscribe zwraca strumień wyjścia powłoki. Kanał jest zamykany po
// rozłączeniu, resecie lub wywołaniu cancel.
func (m *Manager) Subscribe() (<-chan []byte, func(), error) {
	m.mu.RLock()
	h := m.hub
	m.mu.RUnlock()
	if h == nil {
		return nil, nil, apperr.ErrNotConnected
	}
	ch, cancel, ok := h.subscribe()
	if !ok {
		return nil, nil, apperr.ErrNotConnected
	}
	return ch, cancel, nil
}

// WriteShell przekazuje dane do powłoki
func (m *Manager) WriteShell(data []byte) error {
	m.mu.RLock()
	shell := m.shell
	m.mu.RUnlock()
	if shell == nil {
		return apperr.ErrNotConnected
	}
	if _, err := shell.Write(data); err != nil {
		return apperr.Classify("write to shell", err)
	}
	return nil
}

// ResizeShell zmienia rozmiar terminala zdalnego
func (m *Manager) ResizeShell(width, height int) error {
	if width <= 0 || height <= 0 {
		return apperr.New(apperr.ValidationError, fmt.Sprintf("invalid terminal size %dx%d", width, height), nil)
	}
	m.mu.RLock()
	shell := m.shell
	m.mu.RUnlock()
	if shell == nil {
		return apperr.ErrNotConnected
	}
	if err := shell.Resize(width, height); err != nil {
		return apperr.Classify("resize shell", err)
	}
	return nil
}

// internal/ssh/hostkeys.go

package ssh

import (
	"errors"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"sync"

	"sftpTerm/internal/logging"

	"go.uber.org/zap"
	"golang.org/x/crypto/ssh"
	"golang.org/x/crypto/ssh/knownhosts"
)

const knownHostsFileName = "known_hosts"

// HostKeyVerificationRequired zwracany gdy host jest nieznany, a automatyczne
// dodawanie nowych kluczy jest wyłączone
type HostKeyVerificationRequired struct {
	Host        string
	Fingerprint string
}

func (e *HostKeyVerificationRequired) Error() string {
	return fmt.Sprintf("host key verification required for %s (%s)", e.Host, e.Fingerprint)
}

// HostKeyMismatch zwracany gdy klucz hosta różni się od zapisanego
type HostKeyMismatch struct {
	Host        string
	Fingerprint string
}

func (e *HostKeyMismatch) Error() string {
	return fmt.Sprintf("host key for %s changed (got %s)", e.Host, e.Fingerprint)
}

// HostKeyStore weryfikuje klucze hostów na podstawie pliku known_hosts aplikacji.
// Odrzucone nieznane klucze czekają w pending na decyzję użytkownika.
type HostKeyStore struct {
	path      string
	acceptNew bool
	logger    *zap.Logger
	mu        sync.Mutex
	pending   map[string]ssh.PublicKey
}

// NewHostKeyStore tworzy magazyn kluczy. acceptNew=true dopisuje klucze
// nieznanych hostów przy pierwszym połączeniu.
func NewHostKeyStore(path string, acceptNew bool, logger *zap.Logger) *HostKeyStore {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &HostKeyStore{
		path:      path,
		acceptNew: acceptNew,
		logger:    logger,
		pending:   make(map[string]ssh.PublicKey),
	}
}

// DefaultKnownHostsPath zwraca ścieżkę do known_hosts w katalogu konfiguracyjnym
func DefaultKnownHostsPath(configDir string) string {
	return filepath.Join(configDir, "ssh", knownHostsFileName)
}

func (h *HostKeyStore) Path() string {
	return h.path
}

// Callback zwraca HostKeyCallback dla ssh.ClientConfig
func (h *HostKeyStore) Callback() ssh.HostKeyCallback {
	return func(hostname string, remote net.Addr, key ssh.PublicKey) error {
		h.mu.Lock()
		defer h.mu.Unlock()

		if err := h.ensureFile(); err != nil {
			return err
		}

		check, err := knownhosts.New(h.path)
		if err != nil {
			return fmt.Errorf("failed to load known_hosts: %w", err)
		}

		err = check(hostname, remote, key)
		if err == nil {
			return nil
		}

		var keyErr *knownhosts.KeyError
		if !errors.As(err, &keyErr) {
			return err
		}

		fingerprint := ssh.FingerprintSHA256(key)
		if len(keyErr.Want) > 0 {
			return &HostKeyMismatch{Host: hostname, Fingerprint: fingerprint}
		}
		if !h.acceptNew {
			h.pending[hostname] = key
			return &HostKeyVerificationRequired{Host: hostname, Fingerprint: fingerprint}
		}

		if err := h.appendKey(hostname, key); err != nil {
			return err
		}
		h.logger.Info("added new host key",
			logging.Host(hostname),
			zap.String("fingerprint", fingerprint))
		return nil
	}
}

// Accept dopisuje klucz hosta po ręcznym potwierdzeniu przez użytkownika
func (h *HostKeyStore) Accept(hostname string, key ssh.PublicKey) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.accept(hostname, key)
}

// AcceptPending zapisuje klucz odrzucony przy ostatnim połączeniu z hostem.
// Niepusty fingerprint musi się zgadzać z kluczem, który zobaczył użytkownik.
func (h *HostKeyStore) AcceptPending(hostname, fingerprint string) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	key, ok := h.pending[hostname]
	if !ok {
		return fmt.Errorf("no pending host key for %s", hostname)
	}
	if got := ssh.FingerprintSHA256(key); fingerprint != "" && got != fingerprint {
		return &HostKeyMismatch{Host: hostname, Fingerprint: got}
	}
	if err := h.accept(hostname, key); err != nil {
		return err
	}
	delete(h.pending, hostname)
	h.logger.Info("host key accepted",
		logging.Host(hostname),
		zap.String("fingerprint", ssh.FingerprintSHA256(key)))
	return nil
}

// rejected zwraca fingerprint klucza odrzuconego dla hosta
func (h *HostKeyStore) rejected(hostname string) (string, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	key, ok := h.pending[hostname]
	if !ok {
		return "", false
	}
	return ssh.FingerprintSHA256(key), true
}

// forget usuwa oczekujący klucz przed nowym uzgadnianiem
func (h *HostKeyStore) forget(hostname string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.pending, hostname)
}

func (h *HostKeyStore) accept(hostname string, key ssh.PublicKey) error {
	if err := h.ensureFile(); err != nil {
		return err
	}
	return h.appendKey(hostname, key)
}

func (h *HostKeyStore) ensureFile() error {
	if err := os.MkdirAll(filepath.Dir(h.path), 0700); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", filepath.Dir(h.path), err)
	}
	f, err := os.OpenFile(h.path, os.O_CREATE|os.O_RDONLY, 0600)
	if err != nil {
		return fmt.Errorf("failed to create known_hosts file %s: %w", h.path, err)
	}
	return f.Close()
}

func (h *HostKeyStore) appendKey(hostname string, key ssh.PublicKey) error {
	line := knownhosts.Line([]string{knownhosts.Normalize(hostname)}, key)

	f, err := os.OpenFile(h.path, os.O_APPEND|os.O_WRONLY, 0600)
	if err != nil {
		return fmt.Errorf("failed to open known_hosts file %s: %w", h.path, err)
	}
	defer f.Close()

	if _, err := f.WriteString(line + "\n"); err != nil {
		return fmt.Errorf("failed to write known_hosts file %s: %w", h.path, err)
	}
	return nil
}

// internal/transport/transport.go

// Package transport opisuje kontrakty, których warstwa sesji oczekuje od
// adapterów. Implementacje: internal/ssh (zdalnie) i internal/local (lokalnie).
package transport

import (
	"context"
	"io"
	"os"
	"time"

	"sftpTerm/internal/models"
)

// RawEntry to wpis katalogu zwrócony przez adapter. Err jest ustawiony, gdy
// nie udało się pobrać metadanych wpisu; reszta listingu pozostaje ważna.
type RawEntry struct {
	Name      string
	IsDir     bool
	IsSymlink bool
	ModTime   time.Time
	Size      int64
	Mode      os.FileMode
	Err       error
}

// GetOptions steruje otwarciem pliku do odczytu
type GetOptions struct {
	// Elevated otwiera plik wyłącznie do odczytu, bez prawa zapisu do
	// pliku i jego katalogu
	Elevated bool
}

// PutOptions steruje zapisem pliku
type PutOptions struct {
	// Mode, jeśli niezerowy, jest ustawiany po zapisie
	Mode os.FileMode
	// Exclusive kończy się błędem "already exists", gdy cel istnieje
	Exclusive bool
}

// FileSystem to operacje na plikach jednej przestrzeni adresowej
type FileSystem interface {
	ReadDir(ctx context.Context, path string) ([]RawEntry, error)
	Stat(ctx context.Context, path string) (RawEntry, error)
	Get(ctx context.Context, path string, opts GetOptions) ([]byte, error)
	Put(ctx context.Context, data []byte, path string, opts PutOptions) error
	Remove(ctx context.Context, path string) error
	RemoveAll(ctx context.Context, path string) error
	Mkdir(ctx context.Context, path string) error
	Chmod(ctx context.Context, path string, mode os.FileMode) error
	Getwd(ctx context.Context) (string, error)
	Close() error
}

// Shell to otwarta powłoka interaktywna. Output czyta wyłącznie pompa sesji;
// Done zamyka się, gdy zdalna strona zakończy powłokę.
type Shell interface {
	Output() io.Reader
	Write(p []byte) (int, error)
	Resize(width, height int) error
	Done() <-chan struct{}
	Close() error
}

// ShellOptions konfiguruje pseudoterminal
type ShellOptions struct {
	Term   string
	Width  int
	Height int
}

// FileDialer otwiera adapter SFTP
type FileDialer interface {
	DialFiles(ctx context.Context, creds models.Credentials) (FileSystem, error)
}

// ShellDialer otwiera adapter powłoki
type ShellDialer interface {
	DialShell(ctx context.Context, creds models.Credentials, opts ShellOptions) (Shell, error)
}

// Command to zdalne polecenie w postaci strukturalnej. Wywołujący nigdy nie
// wklejają argumentów do napisu powłoki.
type Command struct {
	Name string
	Args []string
}

// ExecResult to wynik zakończonego polecenia
type ExecResult struct {
	ExitCode int
	Stdout   []byte
	Output   []byte // stdout i stderr przeplecione
}

// Success mówi, czy polecenie zakończyło się kodem 0
func (r ExecResult) Success() bool {
	return r.ExitCode == 0
}

// ElevatedRunner uruchamia polecenie z eskalacją na nowym, jednorazowym
// połączeniu. Hasło trafia do sudo przez stdin i nigdy nie pojawia się
// w linii poleceń.
type ElevatedRunner interface {
	RunElevated(ctx context.Context, creds models.Credentials, cmd Command) (ExecResult, error)
}

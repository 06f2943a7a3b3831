// internal/local/local.go

package local

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"sftpTerm/internal/logging"
	"sftpTerm/internal/transport"

	"go.uber.org/zap"
)

const (
	defaultFileMode os.FileMode = 0644
	defaultDirMode  os.FileMode = 0755
)

// FileSystem to adapter lokalnego systemu plików z tym samym kontraktem co SFTP
type FileSystem struct {
	logger *zap.Logger
}

// New tworzy adapter lokalny
func New(logger *zap.Logger) *FileSystem {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &FileSystem{logger: logger}
}

func rawEntry(info fs.FileInfo) transport.RawEntry {
	return transport.RawEntry{
		Name:      info.Name(),
		IsDir:     info.IsDir(),
		IsSymlink: info.Mode()&os.ModeSymlink != 0,
		ModTime:   info.ModTime(),
		Size:      info.Size(),
		Mode:      info.Mode(),
	}
}

// ReadDir listuje katalog; wpis, którego metadanych nie da się pobrać,
// dostaje Err (np. zerwane dowiązanie)
func (l *FileSystem) ReadDir(ctx context.Context, dir string) ([]transport.RawEntry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	dirEntries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}

	entries := make([]transport.RawEntry, 0, len(dirEntries))
	for _, de := range dirEntries {
		info, err := os.Stat(filepath.Join(dir, de.Name()))
		if err != nil {
			entries = append(entries, transport.RawEntry{
				Name:      de.Name(),
				IsSymlink: de.Type()&os.ModeSymlink != 0,
				Err:       err,
			})
			continue
		}
		entry := rawEntry(info)
		entry.Name = de.Name()
		entry.IsSymlink = de.Type()&os.ModeSymlink != 0
		entries = append(entries, entry)
	}
	return entries, nil
}

func (l *FileSystem) Stat(ctx context.Context, p string) (transport.RawEntry, error) {
	if err := ctx.Err(); err != nil {
		return transport.RawEntry{}, err
	}
	info, err := os.Stat(p)
	if err != nil {
		return transport.RawEntry{}, err
	}
	return rawEntry(info), nil
}

func (l *FileSystem) Get(ctx context.Context, p string, _ transport.GetOptions) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return os.ReadFile(p)
}

// Put zapisuje plik; przy Exclusive istniejący cel kończy się fs.ErrExist
func (l *FileSystem) Put(ctx context.Context, data []byte, p string, opts transport.PutOptions) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	flags := os.O_WRONLY | os.O_CREATE | os.O_TRUNC
	if opts.Exclusive {
		flags |= os.O_EXCL
	}
	mode := defaultFileMode
	if opts.Mode != 0 {
		mode = opts.Mode
	}

	f, err := os.OpenFile(p, flags, mode)
	if err != nil {
		return err
	}
	if _, err := f.Write(data); err != nil {
		f.Close()
		return fmt.Errorf("error writing local file: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("failed to close local file: %w", err)
	}

	// OpenFile nie zmienia trybu istniejącego pliku
	if opts.Mode != 0 {
		if err := os.Chmod(p, opts.Mode); err != nil {
			l.logger.Warn("chmod after put failed", logging.Path(p), zap.Error(err))
		}
	}
	return nil
}

func (l *FileSystem) Remove(ctx context.Context, p string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return os.Remove(p)
}

// RemoveAll usuwa katalog rekursywnie; brak celu to błąd (jak po stronie SFTP)
func (l *FileSystem) RemoveAll(ctx context.Context, p string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if _, err := os.Lstat(p); err != nil {
		return err
	}
	return os.RemoveAll(p)
}

func (l *FileSystem) Mkdir(ctx context.Context, p string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return os.Mkdir(p, defaultDirMode)
}

func (l *FileSystem) Chmod(ctx context.Context, p string, mode os.FileMode) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return os.Chmod(p, mode)
}

// Getwd zwraca katalog domowy użytkownika (punkt startowy panelu lokalnego)
func (l *FileSystem) Getwd(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	return os.UserHomeDir()
}

func (l *FileSystem) Close() error {
	return nil
}

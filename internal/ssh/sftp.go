// internal/ssh/sftp.go

package ssh

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path"
	"time"

	"sftpTerm/internal/logging"
	"sftpTerm/internal/models"
	"sftpTerm/internal/transport"

	"github.com/pkg/sftp"
	"go.uber.org/zap"
	"golang.org/x/crypto/ssh"
)

// SFTPAdapter to adapter przestrzeni zdalnej oparty o pkg/sftp
type SFTPAdapter struct {
	sftpClient *sftp.Client
	sshClient  *ssh.Client // może być nil (np. połączenie przez pipe w testach)
	logger     *zap.Logger
}

// DialFiles nawiązuje połączenie SFTP
func (d *Dialer) DialFiles(ctx context.Context, creds models.Credentials) (transport.FileSystem, error) {
	sshClient, err := d.dial(ctx, creds)
	if err != nil {
		return nil, err
	}

	sftpClient, err := sftp.NewClient(sshClient)
	if err != nil {
		sshClient.Close()
		return nil, fmt.Errorf("failed to create SFTP client: %w", err)
	}

	return &SFTPAdapter{
		sftpClient: sftpClient,
		sshClient:  sshClient,
		logger:     d.logger,
	}, nil
}

// NewSFTPAdapter opakowuje istniejącego klienta SFTP
func NewSFTPAdapter(client *sftp.Client, logger *zap.Logger) *SFTPAdapter {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SFTPAdapter{sftpClient: client, logger: logger}
}

func rawEntry(info os.FileInfo) transport.RawEntry {
	return transport.RawEntry{
		Name:      info.Name(),
		IsDir:     info.IsDir(),
		IsSymlink: info.Mode()&os.ModeSymlink != 0,
		ModTime:   info.ModTime(),
		Size:      info.Size(),
		Mode:      info.Mode(),
	}
}

// ReadDir zwraca wpisy katalogu. Dowiązania symboliczne są rozwiązywane;
// gdy cel jest niedostępny, wpis dostaje Err zamiast metadanych.
func (a *SFTPAdapter) ReadDir(ctx context.Context, dir string) ([]transport.RawEntry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	infos, err := a.sftpClient.ReadDir(dir)
	if err != nil {
		return nil, err
	}

	entries := make([]transport.RawEntry, 0, len(infos))
	for _, info := range infos {
		if info.Name() == "." || info.Name() == ".." {
			continue
		}
		entry := rawEntry(info)
		if entry.IsSymlink {
			target, err := a.sftpClient.Stat(path.Join(dir, info.Name()))
			if err != nil {
				entry = transport.RawEntry{Name: info.Name(), IsSymlink: true, Err: err}
			} else {
				entry.IsDir = target.IsDir()
				entry.Size = target.Size()
				entry.ModTime = target.ModTime()
			}
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

func (a *SFTPAdapter) Stat(ctx context.Context, p string) (transport.RawEntry, error) {
	if err := ctx.Err(); err != nil {
		return transport.RawEntry{}, err
	}
	info, err := a.sftpClient.Stat(p)
	if err != nil {
		return transport.RawEntry{}, err
	}
	return rawEntry(info), nil
}

// Get pobiera cały plik do pamięci
func (a *SFTPAdapter) Get(ctx context.Context, p string, opts transport.GetOptions) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	start := time.Now()
	// Tylko O_RDONLY - nie wymaga prawa zapisu do pliku ani katalogu
	srcFile, err := a.sftpClient.OpenFile(p, os.O_RDONLY)
	if err != nil {
		return nil, err
	}
	defer srcFile.Close()

	var buf bytes.Buffer
	if _, err := srcFile.WriteTo(&buf); err != nil {
		return nil, fmt.Errorf("error reading remote file: %w", err)
	}

	a.logger.Debug("sftp get",
		logging.Path(p),
		zap.Bool("elevated", opts.Elevated),
		zap.Int("bytes", buf.Len()),
		zap.Duration("elapsed", time.Since(start)))
	return buf.Bytes(), nil
}

// Put zapisuje dane do zdalnego pliku (tworzy lub nadpisuje)
func (a *SFTPAdapter) Put(ctx context.Context, data []byte, p string, opts transport.PutOptions) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	flags := os.O_WRONLY | os.O_CREATE | os.O_TRUNC
	if opts.Exclusive {
		flags |= os.O_EXCL
		// Jak przy Mkdir: O_EXCL na istniejącym pliku wraca jako SSH_FX_FAILURE
		if _, err := a.sftpClient.Lstat(p); err == nil {
			return &fs.PathError{Op: "create", Path: p, Err: fs.ErrExist}
		}
	}

	start := time.Now()
	dstFile, err := a.sftpClient.OpenFile(p, flags)
	if err != nil {
		if opts.Exclusive {
			if _, statErr := a.sftpClient.Lstat(p); statErr == nil {
				return &fs.PathError{Op: "create", Path: p, Err: fs.ErrExist}
			}
		}
		return err
	}

	written, err := dstFile.ReadFrom(bytes.NewReader(data))
	if err != nil {
		dstFile.Close()
		return fmt.Errorf("error writing remote file: %w", err)
	}
	if written != int64(len(data)) {
		dstFile.Close()
		return fmt.Errorf("incomplete write: wrote %d bytes instead of %d", written, len(data))
	}
	if err := dstFile.Close(); err != nil {
		return fmt.Errorf("failed to close remote file: %w", err)
	}

	if opts.Mode != 0 {
		if err := a.sftpClient.Chmod(p, opts.Mode); err != nil {
			// Dane są już zapisane; tryb jest tylko dodatkiem
			a.logger.Warn("chmod after put failed", logging.Path(p), zap.Error(err))
		}
	}

	a.logger.Debug("sftp put",
		logging.Path(p),
		zap.Int("bytes", len(data)),
		zap.Duration("elapsed", time.Since(start)))
	return nil
}

func (a *SFTPAdapter) Remove(ctx context.Context, p string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return a.sftpClient.Remove(p)
}

// RemoveAll usuwa katalog rekursywnie
func (a *SFTPAdapter) RemoveAll(ctx context.Context, p string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	entries, err := a.sftpClient.ReadDir(p)
	if err != nil {
		return err
	}

	for _, entry := range entries {
		if entry.Name() == "." || entry.Name() == ".." {
			continue
		}

		fullPath := path.Join(p, entry.Name())
		if entry.IsDir() {
			if err := a.RemoveAll(ctx, fullPath); err != nil {
				return err
			}
		} else if err := a.sftpClient.Remove(fullPath); err != nil {
			return err
		}
	}

	return a.sftpClient.RemoveDirectory(p)
}

// Mkdir tworzy pojedynczy katalog; istniejący cel to błąd
func (a *SFTPAdapter) Mkdir(ctx context.Context, p string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	// Serwery zgłaszają istniejący katalog jako ogólny SSH_FX_FAILURE
	if _, err := a.sftpClient.Lstat(p); err == nil {
		return &fs.PathError{Op: "mkdir", Path: p, Err: fs.ErrExist}
	}
	return a.sftpClient.Mkdir(p)
}

func (a *SFTPAdapter) Chmod(ctx context.Context, p string, mode os.FileMode) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return a.sftpClient.Chmod(p, mode)
}

// Getwd zwraca katalog startowy sesji SFTP (zwykle katalog domowy)
func (a *SFTPAdapter) Getwd(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	return a.sftpClient.Getwd()
}

// Close zamyka połączenie SFTP
func (a *SFTPAdapter) Close() error {
	var firstErr error
	if a.sftpClient != nil {
		if err := a.sftpClient.Close(); err != nil && err != io.EOF {
			firstErr = fmt.Errorf("error closing SFTP client: %w", err)
		}
	}
	if a.sshClient != nil {
		if err := a.sshClient.Close(); err != nil && firstErr == nil {
			firstErr = fmt.Errorf("error closing SSH client: %w", err)
		}
	}
	return firstErr
}

// internal/files/coordinator.go

// Package files udostępnia jednolite operacje na plikach w dwóch
// przestrzeniach: lokalnej i zdalnej (SFTP).
package files

import (
	"context"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"

	apperr "sftpTerm/internal/error"
	"sftpTerm/internal/logging"
	"sftpTerm/internal/models"
	"sftpTerm/internal/privileged"
	"sftpTerm/internal/transport"

	"go.uber.org/zap"
)

// Executor wykonuje operacje zdalne z opcjonalną eskalacją
type Executor interface {
	Execute(ctx context.Context, op privileged.Operation, escalate bool) (privileged.Outcome, error)
}

// Session daje dostęp do adaptera SFTP aktywnej sesji
type Session interface {
	Files() (transport.FileSystem, models.Credentials, error)
}

// SavePicker pyta użytkownika o miejsce zapisu pliku. Pusta ścieżka bez
// błędu oznacza anulowanie.
type SavePicker interface {
	PickSavePath(ctx context.Context, suggestedName string) (string, error)
}

// LocalError oznacza błąd po stronie lokalnej. Eskalacja na zdalnym hoście
// go nie naprawi, więc UI nie proponuje dla niego sudo.
type LocalError struct {
	Err error
}

func (e *LocalError) Error() string {
	return e.Err.Error()
}

func (e *LocalError) Unwrap() error {
	return e.Err
}

func localError(err error) error {
	if err == nil {
		return nil
	}
	return &LocalError{Err: err}
}

// Listed to wpis katalogu razem z ewentualnym błędem pobrania metadanych
type Listed struct {
	Entry models.FileEntry
	Err   error
}

type Coordinator struct {
	local    transport.FileSystem
	session  Session
	executor Executor
	picker   SavePicker
	locks    *pathLocks
	logger   *zap.Logger
}

type Option func(*Coordinator)

func WithLogger(logger *zap.Logger) Option {
	return func(c *Coordinator) {
		if logger != nil {
			c.logger = logger
		}
	}
}

func WithSavePicker(picker SavePicker) Option {
	return func(c *Coordinator) { c.picker = picker }
}

// WithPathLocks serializuje zapisy do tej samej ścieżki (domyślnie
// wygrywa ostatni zapis)
func WithPathLocks() Option {
	return func(c *Coordinator) { c.locks = newPathLocks() }
}

func New(local transport.FileSystem, session Session, executor Executor, opts ...Option) *Coordinator {
	c := &Coordinator{
		local:    local,
		session:  session,
		executor: executor,
		logger:   zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Coordinator) lock(space models.Space, p string) func() {
	if c.locks == nil {
		return func() {}
	}
	return c.locks.lock(string(space) + ":" + p)
}

// fs zwraca adapter dla przestrzeni. Dla zdalnej bez sesji - NotConnected.
func (c *Coordinator) fs(space models.Space) (transport.FileSystem, error) {
	switch space {
	case models.Local:
		return c.local, nil
	case models.Remote:
		fsys, _, err := c.session.Files()
		return fsys, err
	}
	return nil, apperr.New(apperr.ValidationError, fmt.Sprintf("unknown space %q", space), nil)
}

// ListDetailed zwraca wszystkie wpisy, także te z błędem metadanych
func (c *Coordinator) ListDetailed(ctx context.Context, space models.Space, dir string) ([]Listed, error) {
	if dir == "" {
		return nil, apperr.New(apperr.ValidationError, "path cannot be empty", nil)
	}
	fsys, err := c.fs(space)
	if err != nil {
		return nil, err
	}

	raw, err := fsys.ReadDir(ctx, dir)
	if err != nil {
		err = apperr.Classify(fmt.Sprintf("list %s", dir), err)
		if space == models.Local {
			return nil, localError(err)
		}
		return nil, err
	}

	listed := make([]Listed, 0, len(raw))
	for _, r := range raw {
		if r.Err != nil {
			listed = append(listed, Listed{Entry: models.FileEntry{Name: r.Name}, Err: r.Err})
			continue
		}
		kind := models.KindFile
		if r.IsDir {
			kind = models.KindDirectory
		}
		listed = append(listed, Listed{Entry: models.FileEntry{
			Name:      r.Name,
			Kind:      kind,
			ModTime:   r.ModTime,
			Size:      r.Size,
			Mode:      r.Mode,
			IsSymlink: r.IsSymlink,
		}})
	}
	return listed, nil
}

// List zwraca wpisy katalogu; wpisy z błędem metadanych są pomijane.
// Katalogi są na początku, dalej alfabetycznie.
func (c *Coordinator) List(ctx context.Context, space models.Space, dir string) ([]models.FileEntry, error) {
	listed, err := c.ListDetailed(ctx, space, dir)
	if err != nil {
		return nil, err
	}

	entries := make([]models.FileEntry, 0, len(listed))
	dropped := 0
	for _, l := range listed {
		if l.Err != nil {
			dropped++
			continue
		}
		entries = append(entries, l.Entry)
	}
	if dropped > 0 {
		c.logger.Debug("dropped unreadable entries",
			zap.String("space", string(space)),
			logging.Path(dir),
			zap.Int("count", dropped))
	}

	sort.SliceStable(entries, func(i, j int) bool {
		if entries[i].IsDir() != entries[j].IsDir() {
			return entries[i].IsDir()
		}
		return strings.ToLower(entries[i].Name) < strings.ToLower(entries[j].Name)
	})
	return entries, nil
}

// Get pobiera zawartość zdalnego pliku
func (c *Coordinator) Get(ctx context.Context, remotePath string, useSudo bool) ([]byte, error) {
	out, err := c.executor.Execute(ctx, privileged.Operation{Kind: privileged.ReadFile, Path: remotePath}, useSudo)
	if err != nil {
		return nil, err
	}
	return out.Data, nil
}

// ReadLocal czyta cały plik lokalny
func (c *Coordinator) ReadLocal(ctx context.Context, localPath string) ([]byte, error) {
	data, err := c.local.Get(ctx, localPath, transport.GetOptions{})
	if err != nil {
		return nil, localError(apperr.Classify(fmt.Sprintf("read %s", localPath), err))
	}
	return data, nil
}

// Put wczytuje lokalny plik w całości i zapisuje go zdalnie. Odmowa dostępu
// bez useSudo zwraca PermissionDenied; ponowienie z useSudo=true to decyzja
// wywołującego.
func (c *Coordinator) Put(ctx context.Context, localPath, remotePath string, useSudo bool) error {
	if _, _, err := c.session.Files(); err != nil {
		return err
	}
	data, err := c.ReadLocal(ctx, localPath)
	if err != nil {
		return err
	}

	unlock := c.lock(models.Remote, remotePath)
	defer unlock()

	_, err = c.executor.Execute(ctx, privileged.Operation{Kind: privileged.WriteFile, Path: remotePath, Data: data}, useSudo)
	if err != nil {
		return err
	}
	c.logger.Info("uploaded file",
		logging.Path(remotePath),
		zap.Int("bytes", len(data)),
		zap.Bool("sudo", useSudo))
	return nil
}

// Download pobiera zdalny plik do katalogu lokalnego
func (c *Coordinator) Download(ctx context.Context, remotePath, localDir string, useSudo bool) (string, error) {
	data, err := c.Get(ctx, remotePath, useSudo)
	if err != nil {
		return "", err
	}
	target := filepath.Join(localDir, path.Base(remotePath))

	unlock := c.lock(models.Local, target)
	defer unlock()

	if err := c.local.Put(ctx, data, target, transport.PutOptions{}); err != nil {
		return "", localError(apperr.Classify(fmt.Sprintf("write %s", target), err))
	}
	return target, nil
}

// Delete usuwa wpis; katalogi rekursywnie. Operacja jest nieodwracalna,
// potwierdzenie należy do UI.
func (c *Coordinator) Delete(ctx context.Context, space models.Space, p string, isDir, useSudo bool) error {
	unlock := c.lock(space, p)
	defer unlock()

	if space == models.Remote {
		_, err := c.executor.Execute(ctx, privileged.Operation{Kind: privileged.Delete, Path: p, Recursive: isDir}, useSudo)
		return err
	}

	fsys, err := c.fs(space)
	if err != nil {
		return err
	}
	if isDir {
		err = fsys.RemoveAll(ctx, p)
	} else {
		err = fsys.Remove(ctx, p)
	}
	return localError(apperr.Classify(fmt.Sprintf("delete %s", p), err))
}

// CreateFile tworzy pusty plik; istniejący cel to AlreadyExists
func (c *Coordinator) CreateFile(ctx context.Context, space models.Space, p string, useSudo bool) error {
	unlock := c.lock(space, p)
	defer unlock()

	if space == models.Remote {
		_, err := c.executor.Execute(ctx, privileged.Operation{Kind: privileged.CreateFile, Path: p}, useSudo)
		return err
	}
	fsys, err := c.fs(space)
	if err != nil {
		return err
	}
	return localError(apperr.Classify(fmt.Sprintf("create %s", p), fsys.Put(ctx, nil, p, transport.PutOptions{Exclusive: true})))
}

// CreateFolder tworzy katalog; istniejący cel to AlreadyExists
func (c *Coordinator) CreateFolder(ctx context.Context, space models.Space, p string, useSudo bool) error {
	unlock := c.lock(space, p)
	defer unlock()

	if space == models.Remote {
		_, err := c.executor.Execute(ctx, privileged.Operation{Kind: privileged.CreateFolder, Path: p}, useSudo)
		return err
	}
	fsys, err := c.fs(space)
	if err != nil {
		return err
	}
	return localError(apperr.Classify(fmt.Sprintf("mkdir %s", p), fsys.Mkdir(ctx, p)))
}

// Mkdir to alias CreateFolder
func (c *Coordinator) Mkdir(ctx context.Context, space models.Space, p string, useSudo bool) error {
	return c.CreateFolder(ctx, space, p, useSudo)
}

// SaveToDisk zapisuje dane w miejscu wskazanym przez użytkownika. Zwraca
// pustą ścieżkę, gdy użytkownik anulował.
func (c *Coordinator) SaveToDisk(ctx context.Context, data []byte, suggestedName string) (string, error) {
	if c.picker == nil {
		return "", apperr.New(apperr.ValidationError, "no save picker configured", nil)
	}
	target, err := c.picker.PickSavePath(ctx, suggestedName)
	if err != nil {
		return "", apperr.Classify("pick save path", err)
	}
	if target == "" {
		return "", nil
	}

	unlock := c.lock(models.Local, target)
	defer unlock()

	if err := c.local.Put(ctx, data, target, transport.PutOptions{}); err != nil {
		return "", localError(apperr.Classify(fmt.Sprintf("save %s", target), err))
	}
	return target, nil
}

// DesktopPath zwraca ~/Desktop
func (c *Coordinator) DesktopPath(ctx context.Context) (string, error) {
	home, err := c.local.Getwd(ctx)
	if err != nil {
		return "", apperr.Classify("home directory", err)
	}
	return filepath.Join(home, "Desktop"), nil
}

// CurrentDirectory zwraca katalog roboczy procesu
func (c *Coordinator) CurrentDirectory() (string, error) {
	dir, err := os.Getwd()
	if err != nil {
		return "", apperr.Classify("current directory", err)
	}
	return dir, nil
}

// LocalHome zwraca katalog startowy panelu lokalnego
func (c *Coordinator) LocalHome(ctx context.Context) (string, error) {
	home, err := c.local.Getwd(ctx)
	if err != nil {
		return "", apperr.Classify("home directory", err)
	}
	return home, nil
}

// RemoteHome zwraca katalog startowy sesji SFTP
func (c *Coordinator) RemoteHome(ctx context.Context) (string, error) {
	fsys, err := c.fs(models.Remote)
	if err != nil {
		return "", err
	}
	dir, err := fsys.Getwd(ctx)
	if err != nil {
		return "", apperr.Classify("remote home", err)
	}
	return dir, nil
}

// internal/transport/fake/fake.go

// Package fake dostarcza adaptery w pamięci do testów. System plików udaje
// zwykłego użytkownika: odczyt wymaga bitu "other" do odczytu, zapis bitu
// "other" do zapisu na pliku (albo na rodzicu dla nowych wpisów). Runner
// działa jako root.
package fake

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path"
	"sort"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"sftpTerm/internal/models"
	"sftpTerm/internal/transport"
)

var ErrClosed = errors.New("fake: connection closed")

type node struct {
	data    []byte
	dir     bool
	mode    os.FileMode
	modTime time.Time
}

// FS to zdalny system plików w pamięci
type FS struct {
	mu     sync.Mutex
	nodes  map[string]*node
	broken map[string]error
	closed bool
	calls  atomic.Int64
	home   string
}

func NewFS() *FS {
	fsys := &FS{
		nodes:  map[string]*node{},
		broken: map[string]error{},
		home:   "/home/user",
	}
	fsys.nodes["/"] = &node{dir: true, mode: 0o755}
	return fsys
}

// MkdirAs tworzy katalog (z rodzicami) z podanymi uprawnieniami, bez sprawdzania praw
func (f *FS) MkdirAs(p string, mode os.FileMode) *FS {
	f.mu.Lock()
	defer f.mu.Unlock()
	p = path.Clean(p)
	for _, dir := range ancestors(p) {
		if _, ok := f.nodes[dir]; !ok {
			f.nodes[dir] = &node{dir: true, mode: 0o755, modTime: time.Now()}
		}
	}
	f.nodes[p] = &node{dir: true, mode: mode, modTime: time.Now()}
	return f
}

// WriteAs zapisuje plik z podanymi uprawnieniami, bez sprawdzania praw
func (f *FS) WriteAs(p string, data []byte, mode os.FileMode) *FS {
	f.mu.Lock()
	defer f.mu.Unlock()
	p = path.Clean(p)
	for _, dir := range append(ancestors(p), path.Dir(p)) {
		if _, ok := f.nodes[dir]; !ok {
			f.nodes[dir] = &node{dir: true, mode: 0o777, modTime: time.Now()}
		}
	}
	f.nodes[p] = &node{data: append([]byte(nil), data...), mode: mode, modTime: time.Now()}
	return f
}

// Break powoduje, że metadane wpisu nie dają się pobrać
func (f *FS) Break(p string, err error) *FS {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.broken[path.Clean(p)] = err
	return f
}

// Mode zwraca uprawnienia wpisu (0 jeśli nie istnieje)
func (f *FS) Mode(p string) os.FileMode {
	f.mu.Lock()
	defer f.mu.Unlock()
	if n, ok := f.nodes[path.Clean(p)]; ok {
		return n.mode
	}
	return 0
}

// Exists sprawdza czy wpis istnieje
func (f *FS) Exists(p string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.nodes[path.Clean(p)]
	return ok
}

// Calls zwraca liczbę wywołań adaptera
func (f *FS) Calls() int64 {
	return f.calls.Load()
}

func (f *FS) Closed() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.closed
}

func (f *FS) enter(op, p string) error {
	f.calls.Add(1)
	if f.closed {
		return &fs.PathError{Op: op, Path: p, Err: ErrClosed}
	}
	return nil
}

func (f *FS) ReadDir(_ context.Context, p string) ([]transport.RawEntry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.enter("readdir", p); err != nil {
		return nil, err
	}
	p = path.Clean(p)
	dir, ok := f.nodes[p]
	if !ok {
		return nil, &fs.PathError{Op: "readdir", Path: p, Err: fs.ErrNotExist}
	}
	if !dir.dir {
		return nil, &fs.PathError{Op: "readdir", Path: p, Err: errors.New("not a directory")}
	}
	if dir.mode&0o004 == 0 {
		return nil, &fs.PathError{Op: "readdir", Path: p, Err: fs.ErrPermission}
	}

	var entries []transport.RawEntry
	for name, n := range f.nodes {
		if name == p || path.Dir(name) != p {
			continue
		}
		entry := transport.RawEntry{
			Name:    path.Base(name),
			IsDir:   n.dir,
			ModTime: n.modTime,
			Size:    int64(len(n.data)),
			Mode:    n.mode,
		}
		if err, ok := f.broken[name]; ok {
			entry = transport.RawEntry{Name: path.Base(name), Err: err}
		}
		entries = append(entries, entry)
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Name < entries[j].Name })
	return entries, nil
}

func (f *FS) Stat(_ context.Context, p string) (transport.RawEntry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.enter("stat", p); err != nil {
		return transport.RawEntry{}, err
	}
	p = path.Clean(p)
	n, ok := f.nodes[p]
	if !ok {
		return transport.RawEntry{}, &fs.PathError{Op: "stat", Path: p, Err: fs.ErrNotExist}
	}
	return transport.RawEntry{Name: path.Base(p), IsDir: n.dir, ModTime: n.modTime, Size: int64(len(n.data)), Mode: n.mode}, nil
}

func (f *FS) Get(_ context.Context, p string, _ transport.GetOptions) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.enter("open", p); err != nil {
		return nil, err
	}
	p = path.Clean(p)
	n, ok := f.nodes[p]
	if !ok {
		return nil, &fs.PathError{Op: "open", Path: p, Err: fs.ErrNotExist}
	}
	if n.mode&0o004 == 0 {
		return nil, &fs.PathError{Op: "open", Path: p, Err: fs.ErrPermission}
	}
	return append([]byte(nil), n.data...), nil
}

func (f *FS) Put(_ context.Context, data []byte, p string, opts transport.PutOptions) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.enter("create", p); err != nil {
		return err
	}
	p = path.Clean(p)
	n, ok := f.nodes[p]
	switch {
	case ok && opts.Exclusive:
		return &fs.PathError{Op: "create", Path: p, Err: fs.ErrExist}
	case ok && n.dir:
		return &fs.PathError{Op: "create", Path: p, Err: errors.New("is a directory")}
	case ok && n.mode&0o002 == 0:
		return &fs.PathError{Op: "create", Path: p, Err: fs.ErrPermission}
	case !ok:
		if err := f.checkParentWritable("create", p); err != nil {
			return err
		}
		n = &node{mode: 0o644}
		f.nodes[p] = n
	}
	n.data = append([]byte(nil), data...)
	n.modTime = time.Now()
	if opts.Mode != 0 {
		n.mode = opts.Mode
	}
	return nil
}

func (f *FS) Remove(_ context.Context, p string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.enter("remove", p); err != nil {
		return err
	}
	p = path.Clean(p)
	if _, ok := f.nodes[p]; !ok {
		return &fs.PathError{Op: "remove", Path: p, Err: fs.ErrNotExist}
	}
	if err := f.checkParentWritable("remove", p); err != nil {
		return err
	}
	delete(f.nodes, p)
	return nil
}

func (f *FS) RemoveAll(_ context.Context, p string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.enter("rmdir", p); err != nil {
		return err
	}
	p = path.Clean(p)
	if _, ok := f.nodes[p]; !ok {
		return &fs.PathError{Op: "rmdir", Path: p, Err: fs.ErrNotExist}
	}
	if err := f.checkParentWritable("rmdir", p); err != nil {
		return err
	}
	f.removeTree(p)
	return nil
}

func (f *FS) Mkdir(_ context.Context, p string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.enter("mkdir", p); err != nil {
		return err
	}
	p = path.Clean(p)
	if _, ok := f.nodes[p]; ok {
		return &fs.PathError{Op: "mkdir", Path: p, Err: fs.ErrExist}
	}
	if err := f.checkParentWritable("mkdir", p); err != nil {
		return err
	}
	f.nodes[p] = &node{dir: true, mode: 0o755, modTime: time.Now()}
	return nil
}

func (f *FS) Chmod(_ context.Context, p string, mode os.FileMode) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.enter("chmod", p); err != nil {
		return err
	}
	n, ok := f.nodes[path.Clean(p)]
	if !ok {
		return &fs.PathError{Op: "chmod", Path: p, Err: fs.ErrNotExist}
	}
	if n.mode&0o002 == 0 {
		return &fs.PathError{Op: "chmod", Path: p, Err: fs.ErrPermission}
	}
	n.mode = mode
	return nil
}

func (f *FS) Getwd(context.Context) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.enter("getwd", ""); err != nil {
		return "", err
	}
	return f.home, nil
}

func (f *FS) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
	return nil
}

// Reopen przywraca zamknięty FS (kolejne połączenie do tego samego "serwera")
func (f *FS) Reopen() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = false
}

func (f *FS) checkParentWritable(op, p string) error {
	parent, ok := f.nodes[path.Dir(p)]
	if !ok {
		return &fs.PathError{Op: op, Path: p, Err: fs.ErrNotExist}
	}
	if parent.mode&0o002 == 0 {
		return &fs.PathError{Op: op, Path: p, Err: fs.ErrPermission}
	}
	return nil
}

func (f *FS) removeTree(p string) {
	for name := range f.nodes {
		if name == p || strings.HasPrefix(name, p+"/") {
			delete(f.nodes, name)
		}
	}
}

func ancestors(p string) []string {
	var dirs []string
	for dir := path.Dir(p); dir != "/" && dir != "."; dir = path.Dir(dir) {
		dirs = append([]string{dir}, dirs...)
	}
	return dirs
}

// Runner wykonuje polecenia jako root na FS. Obsługuje podzbiór poleceń
// używanych przez executor: touch, chmod, rm, mkdir, cat, id.
type Runner struct {
	FS *FS

	mu       sync.Mutex
	Commands []transport.Command
	Secrets  []string
	// Fail wymusza kod wyjścia dla wszystkich poleceń gdy != 0
	Fail int
}

func (r *Runner) RunElevated(_ context.Context, creds models.Credentials, cmd transport.Command) (transport.ExecResult, error) {
	r.mu.Lock()
	r.Commands = append(r.Commands, cmd)
	r.Secrets = append(r.Secrets, creds.Password)
	fail := r.Fail
	r.mu.Unlock()

	if fail != 0 {
		return transport.ExecResult{ExitCode: fail, Output: []byte("sudo: incorrect password")}, nil
	}
	return r.exec(cmd), nil
}

func (r *Runner) exec(cmd transport.Command) transport.ExecResult {
	f := r.FS
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls.Add(1)

	failed := func(format string, args ...any) transport.ExecResult {
		msg := fmt.Sprintf(format, args...)
		return transport.ExecResult{ExitCode: 1, Output: []byte(msg)}
	}
	args := cmd.Args
	last := ""
	if len(args) > 0 {
		last = path.Clean(args[len(args)-1])
	}

	switch cmd.Name {
	case "id":
		return transport.ExecResult{Stdout: []byte("uid=0(root)\n"), Output: []byte("uid=0(root)\n")}
	case "touch":
		if _, ok := f.nodes[last]; !ok {
			if _, ok := f.nodes[path.Dir(last)]; !ok {
				return failed("touch: cannot touch '%s': No such file or directory", last)
			}
			f.nodes[last] = &node{mode: 0o644, modTime: time.Now()}
		}
		return transport.ExecResult{}
	case "chmod":
		n, ok := f.nodes[last]
		if !ok || len(args) < 2 {
			return failed("chmod: cannot access '%s': No such file or directory", last)
		}
		mode, err := strconv.ParseUint(args[0], 8, 32)
		if err != nil {
			return failed("chmod: invalid mode")
		}
		n.mode = os.FileMode(mode)
		return transport.ExecResult{}
	case "rm":
		if _, ok := f.nodes[last]; !ok {
			return transport.ExecResult{}
		}
		f.removeTree(last)
		return transport.ExecResult{}
	case "mkdir":
		if _, ok := f.nodes[last]; ok {
			return failed("mkdir: cannot create directory '%s': File exists", last)
		}
		f.nodes[last] = &node{dir: true, mode: 0o755, modTime: time.Now()}
		return transport.ExecResult{}
	case "cat":
		n, ok := f.nodes[last]
		if !ok {
			return failed("cat: %s: No such file or directory", last)
		}
		return transport.ExecResult{Stdout: append([]byte(nil), n.data...), Output: append([]byte(nil), n.data...)}
	}
	return failed("%s: command not found", cmd.Name)
}

// Dialer zwraca ten sam FS przy każdym połączeniu
type Dialer struct {
	FS  *FS
	Err error

	mu    sync.Mutex
	dials int
	// Block, jeśli ustawiony, wstrzymuje DialFiles do jego zamknięcia
	Block chan struct{}
}

func (d *Dialer) DialFiles(ctx context.Context, _ models.Credentials) (transport.FileSystem, error) {
	d.mu.Lock()
	d.dials++
	block := d.Block
	d.mu.Unlock()

	if block != nil {
		select {
		case <-block:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if d.Err != nil {
		return nil, d.Err
	}
	d.FS.Reopen()
	return d.FS, nil
}

func (d *Dialer) Dials() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.dials
}

// Shell to powłoka oparta na io.Pipe; Emit wysyła dane "z serwera"
type Shell struct {
	pr *io.PipeReader
	pw *io.PipeWriter

	mu      sync.Mutex
	input   bytes.Buffer
	done    chan struct{}
	closed  bool
	resized [2]int
}

func NewShell() *Shell {
	pr, pw := io.Pipe()
	return &Shell{pr: pr, pw: pw, done: make(chan struct{})}
}

func (s *Shell) Emit(data string) error {
	_, err := s.pw.Write([]byte(data))
	return err
}

func (s *Shell) Input() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.input.String()
}

func (s *Shell) Output() io.Reader { return s.pr }

func (s *Shell) Write(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return 0, ErrClosed
	}
	return s.input.Write(p)
}

func (s *Shell) Resize(width, height int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.resized = [2]int{width, height}
	return nil
}

func (s *Shell) Size() (int, int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.resized[0], s.resized[1]
}

func (s *Shell) Done() <-chan struct{} { return s.done }

func (s *Shell) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	close(s.done)
	return s.pw.CloseWithError(ErrClosed)
}

func (s *Shell) Closed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

// ShellDialer zwraca kolejne powłoki z listy albo nowe
type ShellDialer struct {
	Err error

	mu     sync.Mutex
	shells []*Shell
}

func (d *ShellDialer) DialShell(_ context.Context, _ models.Credentials, _ transport.ShellOptions) (transport.Shell, error) {
	if d.Err != nil {
		return nil, d.Err
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	sh := NewShell()
	d.shells = append(d.shells, sh)
	return sh, nil
}

// Last zwraca ostatnio otwartą powłokę
func (d *ShellDialer) Last() *Shell {
	d.mu.Lock()
	defer d.mu.Unlock()
	if len(d.shells) == 0 {
		return nil
	}
	return d.shells[len(d.shells)-1]
}

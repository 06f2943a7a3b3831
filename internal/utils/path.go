package utils

import (
	"path"
	"path/filepath"
	"runtime"
	"strings"
)

// ToSFTPPath converts local path to SFTP path format
func ToSFTPPath(p string) string {
	if runtime.GOOS == "windows" {
		return strings.ReplaceAll(p, "\\", "/")
	}
	return p
}

// NormalizePath scala powtórzone separatory. Ścieżki zdalne zawsze używają "/".
func NormalizePath(p string, isRemote bool) string {
	if p == "" {
		return p
	}
	if isRemote {
		p = ToSFTPPath(p)
		for strings.Contains(p, "//") {
			p = strings.ReplaceAll(p, "//", "/")
		}
		if len(p) > 1 {
			p = strings.TrimSuffix(p, "/")
		}
		return p
	}
	return filepath.Clean(p)
}

// JoinPath łączy katalog i nazwę zgodnie z konwencją przestrzeni
func JoinPath(dir, name string, isRemote bool) string {
	if isRemote {
		return NormalizePath(path.Join(dir, name), true)
	}
	return filepath.Join(dir, name)
}

// PathCursor to bieżąca ścieżka jednego panelu
type PathCursor struct {
	current string
	home    string
	remote  bool
}

// NewPathCursor tworzy kursor ustawiony na katalogu domowym
func NewPathCursor(home string, isRemote bool) *PathCursor {
	if home == "" {
		home = "/"
	}
	home = NormalizePath(home, isRemote)
	return &PathCursor{current: home, home: home, remote: isRemote}
}

func (c *PathCursor) Path() string {
	return c.current
}

func (c *PathCursor) IsRemote() bool {
	return c.remote
}

// Set ustawia ścieżkę wpisaną ręcznie
func (c *PathCursor) Set(p string) {
	if strings.TrimSpace(p) == "" {
		return
	}
	c.current = NormalizePath(p, c.remote)
}

// Enter przechodzi do podkatalogu
func (c *PathCursor) Enter(name string) {
	if name == "" || name == "." {
		return
	}
	if name == ".." {
		c.Back()
		return
	}
	c.current = JoinPath(c.current, name, c.remote)
}

// Back przechodzi do katalogu nadrzędnego; korzeń zostaje korzeniem
func (c *PathCursor) Back() {
	if c.remote {
		c.current = path.Dir(c.current)
		return
	}
	c.current = filepath.Dir(c.current)
}

// Home wraca do katalogu domowego panelu
func (c *PathCursor) Home() {
	c.current = c.home
}

// SetHome zmienia katalog domowy (np. po połączeniu z innym hostem)
func (c *PathCursor) SetHome(home string) {
	if home == "" {
		return
	}
	c.home = NormalizePath(home, c.remote)
}

// Child zwraca pełną ścieżkę wpisu w bieżącym katalogu
func (c *PathCursor) Child(name string) string {
	return JoinPath(c.current, name, c.remote)
}

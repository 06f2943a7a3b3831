// internal/models/file.go

package models

import (
	"os"
	"time"
)

// Space wskazuje przestrzeń adresową operacji na plikach
type Space string

const (
	Local  Space = "local"
	Remote Space = "remote"
)

type FileKind string

const (
	KindFile      FileKind = "file"
	KindDirectory FileKind = "directory"
)

// FileEntry reprezentuje pojedynczy plik lub katalog w jednym z paneli
type FileEntry struct {
	Name      string      `json:"name"`
	Kind      FileKind    `json:"kind"`
	ModTime   time.Time   `json:"modified_time"`
	Size      int64       `json:"size,omitempty"`
	Mode      os.FileMode `json:"mode"`
	IsSymlink bool        `json:"is_symlink,omitempty"`
}

func (e FileEntry) IsDir() bool {
	return e.Kind == KindDirectory
}

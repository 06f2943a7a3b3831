// internal/ui/views/format.go

package views

import (
	"fmt"
	"path/filepath"
	"strings"

	"sftpTerm/internal/models"
	"sftpTerm/internal/ui"

	"github.com/charmbracelet/lipgloss"
)

// formatSize zamienia rozmiar w bajtach na czytelny tekst (B, KB, MB...)
func formatSize(size int64) string {
	const unit = 1024
	if size < unit {
		return fmt.Sprintf("%d B", size)
	}
	div, exp := int64(unit), 0
	for n := size / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %cB", float64(size)/float64(div), "KMGTPE"[exp])
}

// formatPath skraca ścieżkę od lewej do maxWidth znaków
func formatPath(path string, maxWidth int) string {
	if maxWidth < 4 || len(path) <= maxWidth {
		return path
	}
	return "..." + path[len(path)-(maxWidth-3):]
}

// truncate przycina nazwę do szerokości kolumny
func truncate(s string, width int) string {
	if width <= 1 || lipgloss.Width(s) <= width {
		return s
	}
	r := []rune(s)
	if len(r) > width-1 {
		r = r[:width-1]
	}
	return string(r) + "…"
}

func getFileType(entry models.FileEntry) string {
	if entry.IsDir() {
		return "directory"
	}

	switch strings.ToLower(filepath.Ext(entry.Name)) {
	case ".zip", ".tar", ".gz", ".bz2", ".xz", ".7z", ".rar":
		return "archive"
	case ".jpg", ".jpeg", ".png", ".gif", ".bmp", ".tiff", ".webp":
		return "image"
	case ".txt", ".doc", ".docx", ".pdf", ".md", ".csv", ".xlsx", ".odt", ".log":
		return "document"
	case ".exe", ".sh", ".bat", ".cmd", ".com", ".app":
		return "executable"
	case ".c", ".h", ".go", ".py", ".js", ".ts", ".json", ".yaml", ".yml", ".toml":
		return "code"
	}

	if entry.Mode&0111 != 0 {
		return "executable"
	}
	return "default"
}

func fileStyle(entry models.FileEntry) lipgloss.Style {
	switch getFileType(entry) {
	case "directory":
		return ui.DirectoryStyle
	case "archive":
		return ui.ArchiveStyle
	case "image":
		return ui.ImageStyle
	case "document":
		return ui.DocumentStyle
	case "executable":
		return ui.ExecutableStyle
	case "code":
		return ui.CodeStyle
	}
	return ui.DefaultFileStyle
}

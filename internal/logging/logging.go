// internal/logging/logging.go

// Package logging konfiguruje globalny logger zap
package logging

import (
	"strings"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	mu           sync.Mutex
	globalLogger *zap.Logger
	globalLevel  = zap.NewAtomicLevelAt(zapcore.InfoLevel)
)

// Config opisuje wyjście loggera
type Config struct {
	Level      string // debug, info, warn, error
	Format     string // json, console
	OutputPath string // stderr, stdout lub ścieżka pliku
}

// Init inicjalizuje globalny logger
func Init(cfg Config) error {
	var level zapcore.Level
	if err := level.UnmarshalText([]byte(cfg.Level)); err != nil {
		level = zapcore.InfoLevel
	}

	var config zap.Config
	if cfg.Format == "console" {
		config = zap.NewDevelopmentConfig()
	} else {
		config = zap.NewProductionConfig()
	}

	globalLevel.SetLevel(level)
	config.Level = globalLevel
	if cfg.OutputPath != "" {
		config.OutputPaths = []string{cfg.OutputPath}
		config.ErrorOutputPaths = []string{cfg.OutputPath}
	}

	logger, err := config.Build(zap.AddStacktrace(zapcore.ErrorLevel))
	if err != nil {
		return err
	}

	mu.Lock()
	globalLogger = logger
	mu.Unlock()
	return nil
}

// L zwraca globalny logger; przed Init jest to logger no-op
func L() *zap.Logger {
	mu.Lock()
	defer mu.Unlock()
	if globalLogger == nil {
		globalLogger = zap.NewNop()
	}
	return globalLogger
}

// Named zwraca logger komponentu
func Named(name string) *zap.Logger {
	return L().Named(name)
}

// SetLevel zmienia poziom logowania w trakcie działania
func SetLevel(level string) {
	var l zapcore.Level
	if err := l.UnmarshalText([]byte(level)); err != nil {
		return
	}
	globalLevel.SetLevel(l)
}

// Sync opróżnia bufory loggera
func Sync() error {
	mu.Lock()
	defer mu.Unlock()
	if globalLogger != nil {
		return globalLogger.Sync()
	}
	return nil
}

// Sanitize usuwa znaki nowej linii i sterujące z wartości pochodzących od
// użytkownika (ścieżki, nazwy hostów), żeby nie dało się wstrzyknąć wpisów
func Sanitize(s string) string {
	s = strings.NewReplacer("\n", " ", "\r", " ", "\t", " ").Replace(s)
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if r >= 32 && r != 127 {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// Path to pole zap ze ścieżką po sanityzacji
func Path(p string) zap.Field {
	return zap.String("path", Sanitize(p))
}

// Host to pole zap z adresem hosta po sanityzacji
func Host(h string) zap.Field {
	return zap.String("host", Sanitize(h))
}

// internal/settings/settings.go

// Package settings ładuje ustawienia aplikacji z pliku config.yaml,
// zmiennych środowiskowych SFTPTERM_* i flag CLI
package settings

import (
	"errors"
	"path/filepath"
	"strings"
	"time"

	"sftpTerm/internal/config"
	apperr "sftpTerm/internal/error"
	"sftpTerm/internal/ssh"

	"github.com/spf13/viper"
)

const EnvPrefix = "SFTPTERM"

// Klucze ustawień
const (
	KeyConfigDir      = "config_dir"
	KeyLogLevel       = "log.level"
	KeyLogFormat      = "log.format"
	KeyLogFile        = "log.file"
	KeyConnectTimeout = "ssh.connect_timeout"
	KeyKeepAlive      = "ssh.keepalive"
	KeyTerm           = "ssh.term"
	KeyKnownHosts     = "ssh.known_hosts"
	KeyAcceptNewHosts = "ssh.accept_new_hosts"
	KeyPassphrase     = "secrets.passphrase"
	KeyPathLocks      = "files.path_locks"
)

// Settings to rozwinięta konfiguracja aplikacji
type Settings struct {
	ConfigDir      string
	StatePath      string
	LogLevel       string
	LogFormat      string
	LogFile        string
	ConnectTimeout time.Duration
	KeepAlive      time.Duration
	Term           string
	KnownHosts     string
	AcceptNewHosts bool
	Passphrase     string
	PathLocks      bool
}

// New tworzy instancję viper z wartościami domyślnymi i obsługą env
func New() *viper.Viper {
	v := viper.New()

	v.SetDefault(KeyLogLevel, "info")
	v.SetDefault(KeyLogFormat, "json")
	v.SetDefault(KeyConnectTimeout, "10s")
	v.SetDefault(KeyKeepAlive, "30s")
	v.SetDefault(KeyTerm, "xterm-256color")
	v.SetDefault(KeyAcceptNewHosts, true)
	v.SetDefault(KeyPathLocks, false)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

// Load czyta opcjonalny plik konfiguracyjny i zwraca rozwinięte ustawienia.
// cfgFile="" oznacza config.yaml w katalogu konfiguracyjnym.
func Load(v *viper.Viper, cfgFile string) (Settings, error) {
	configDir := v.GetString(KeyConfigDir)
	if configDir == "" {
		dir, err := config.GetDefaultConfigDir()
		if err != nil {
			return Settings{}, apperr.New(apperr.ConfigError, "cannot resolve config directory", err)
		}
		configDir = dir
	}

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		v.AddConfigPath(configDir)
		v.SetConfigName("config")
		v.SetConfigType("yaml")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		// Brak domyślnego pliku jest normalny; jawnie wskazany musi istnieć
		if cfgFile != "" || !errors.As(err, &notFound) {
			return Settings{}, apperr.New(apperr.ConfigError, "failed to read settings", err)
		}
	}

	s := Settings{
		ConfigDir:      configDir,
		StatePath:      filepath.Join(configDir, config.DefaultConfigFileName),
		LogLevel:       v.GetString(KeyLogLevel),
		LogFormat:      v.GetString(KeyLogFormat),
		LogFile:        v.GetString(KeyLogFile),
		ConnectTimeout: v.GetDuration(KeyConnectTimeout),
		KeepAlive:      v.GetDuration(KeyKeepAlive),
		Term:           v.GetString(KeyTerm),
		KnownHosts:     v.GetString(KeyKnownHosts),
		AcceptNewHosts: v.GetBool(KeyAcceptNewHosts),
		Passphrase:     v.GetString(KeyPassphrase),
		PathLocks:      v.GetBool(KeyPathLocks),
	}
	if s.KnownHosts == "" {
		s.KnownHosts = ssh.DefaultKnownHostsPath(configDir)
	}
	if s.ConnectTimeout <= 0 {
		return Settings{}, apperr.New(apperr.ConfigError, "ssh.connect_timeout must be positive", nil)
	}
	return s, nil
}

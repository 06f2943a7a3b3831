// internal/config/config.go

package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"sftpTerm/internal/crypto"
	apperr "sftpTerm/internal/error"
	"sftpTerm/internal/models"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	DefaultConfigFileName = "state.json"
	DefaultConfigDir      = ".config/sftpterm"
	DefaultFilePerms      = 0600
	DefaultDirPerms       = 0700
)

// State to zawartość pliku stanu: geometria okna i lista połączeń
type State struct {
	WindowState json.RawMessage  `json:"windowState,omitempty"`
	Connections []models.Profile `json:"connections"`
}

// Manager to rejestr zapisanych połączeń. Profile są unikalne względem
// (host, port, username); hasła są pieczętowane przez SecretStore przed
// zapisem na dysk.
type Manager struct {
	configPath string
	secrets    crypto.SecretStore
	logger     *zap.Logger

	mu    sync.Mutex
	state State
}

type Option func(*Manager)

func WithSecretStore(store crypto.SecretStore) Option {
	return func(m *Manager) {
		if store != nil {
			m.secrets = store
		}
	}
}

func WithLogger(logger *zap.Logger) Option {
	return func(m *Manager) {
		if logger != nil {
			m.logger = logger
		}
	}
}

// NewManager tworzy nowego menedżera konfiguracji
func NewManager(configPath string, opts ...Option) *Manager {
	if configPath == "" {
		defaultPath, err := GetDefaultConfigPath()
		if err == nil {
			configPath = defaultPath
		} else {
			// Fallback do bieżącego katalogu jeśli nie można uzyskać ścieżki domowej
			configPath = DefaultConfigFileName
		}
	}

	m := &Manager{
		configPath: configPath,
		secrets:    crypto.PlainSecrets{},
		logger:     zap.NewNop(),
		state:      State{Connections: []models.Profile{}},
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// GetDefaultConfigDir zwraca ~/.config/sftpterm
func GetDefaultConfigDir() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("could not get home directory: %v", err)
	}
	return filepath.Join(homeDir, DefaultConfigDir), nil
}

func GetDefaultConfigPath() (string, error) {
	dir, err := GetDefaultConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, DefaultConfigFileName), nil
}

func (m *Manager) Path() string {
	return m.configPath
}

// Load wczytuje stan z pliku. Brak pliku oznacza pusty rejestr.
func (m *Manager) Load() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	data, err := os.ReadFile(m.configPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			m.state = State{Connections: []models.Profile{}}
			return nil
		}
		return apperr.New(apperr.ConfigError, "failed to read config file", err)
	}

	var stored State
	if err := json.Unmarshal(data, &stored); err != nil {
		return apperr.New(apperr.ConfigError, "failed to parse config file", err)
	}
	if stored.Connections == nil {
		stored.Connections = []models.Profile{}
	}

	for i := range stored.Connections {
		plain, err := m.secrets.Open(stored.Connections[i].Password)
		if err != nil {
			return apperr.New(apperr.ConfigError,
				fmt.Sprintf("failed to open secret of connection %s", stored.Connections[i].ID), err)
		}
		stored.Connections[i].Password = plain
	}

	m.state = stored
	m.logger.Debug("config loaded",
		zap.String("path", m.configPath),
		zap.Int("connections", len(stored.Connections)))
	return nil
}

// persist zapisuje stan atomowo (plik tymczasowy + rename). Wymaga m.mu.
func (m *Manager) persist() error {
	out := State{
		WindowState: m.state.WindowState,
		Connections: make([]models.Profile, len(m.state.Connections)),
	}
	for i, p := range m.state.Connections {
		sealed, err := m.secrets.Seal(p.Password)
		if err != nil {
			return apperr.New(apperr.ConfigError, "failed to seal secret", err)
		}
		p.Password = sealed
		out.Connections[i] = p
	}

	data, err := json.MarshalIndent(out, "", "    ")
	if err != nil {
		return apperr.New(apperr.ConfigError, "failed to marshal config", err)
	}

	configDir := filepath.Dir(m.configPath)
	if err := os.MkdirAll(configDir, DefaultDirPerms); err != nil {
		return apperr.New(apperr.ConfigError, "failed to create config directory", err)
	}

	tmp, err := os.CreateTemp(configDir, ".state-*.json")
	if err != nil {
		return apperr.New(apperr.ConfigError, "failed to create temp file", err)
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath)

	if err := tmp.Chmod(DefaultFilePerms); err != nil {
		tmp.Close()
		return apperr.New(apperr.ConfigError, "failed to set config permissions", err)
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return apperr.New(apperr.ConfigError, "failed to write config file", err)
	}
	if err := tmp.Close(); err != nil {
		return apperr.New(apperr.ConfigError, "failed to write config file", err)
	}
	if err := os.Rename(tmpPath, m.configPath); err != nil {
		return apperr.New(apperr.ConfigError, "failed to replace config file", err)
	}
	return nil
}

// SaveConnection zapisuje profil. Profil o tej samej tożsamości jest
// aktualizowany w miejscu (zachowuje ID i pozycję); nowy dostaje UUID.
// Pusta nazwa lub hasło nie nadpisują zapisanych wartości.
func (m *Manager) SaveConnection(profile models.Profile) (models.Profile, error) {
	if profile.Host == "" || profile.Username == "" {
		return models.Profile{}, apperr.New(apperr.ValidationError, "host and username are required", nil)
	}
	if profile.Port == 0 {
		profile.Port = models.DefaultPort
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	prev := make([]models.Profile, len(m.state.Connections))
	copy(prev, m.state.Connections)

	identity := profile.Identity()
	index := -1
	for i, existing := range m.state.Connections {
		if existing.Identity() == identity {
			index = i
			break
		}
	}

	if index >= 0 {
		existing := m.state.Connections[index]
		profile.ID = existing.ID
		if profile.Name == "" {
			profile.Name = existing.Name
		}
		if profile.Password == "" {
			profile.Password = existing.Password
		}
		m.state.Connections[index] = profile
	} else {
		profile.ID = uuid.NewString()
		m.state.Connections = append(m.state.Connections, profile)
	}

	if err := m.persist(); err != nil {
		m.state.Connections = prev
		return models.Profile{}, err
	}

	m.logger.Info("connection saved",
		zap.String("id", profile.ID),
		zap.Bool("updated", index >= 0))
	return profile, nil
}

// GetConnections zwraca profile w kolejności dodania
func (m *Manager) GetConnections() []models.Profile {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]models.Profile, len(m.state.Connections))
	copy(out, m.state.Connections)
	return out
}

// GetConnection zwraca profil o danym ID albo NotFound
func (m *Manager) GetConnection(id string) (models.Profile, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, p := range m.state.Connections {
		if p.ID == id {
			return p, nil
		}
	}
	return models.Profile{}, apperr.New(apperr.NotFound, fmt.Sprintf("connection %q not found", id), nil)
}

// DeleteConnection usuwa profil; nieistniejące ID to sukces bez zmian
func (m *Manager) DeleteConnection(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	index := -1
	for i, p := range m.state.Connections {
		if p.ID == id {
			index = i
			break
		}
	}
	if index < 0 {
		return nil
	}

	prev := m.state.Connections
	next := make([]models.Profile, 0, len(prev)-1)
	next = append(next, prev[:index]...)
	next = append(next, prev[index+1:]...)
	m.state.Connections = next

	if err := m.persist(); err != nil {
		m.state.Connections = prev
		return err
	}
	m.logger.Info("connection deleted", zap.String("id", id))
	return nil
}

// WindowState zwraca zapisaną geometrię okna (nieprzezroczysty JSON)
func (m *Manager) WindowState() json.RawMessage {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append(json.RawMessage(nil), m.state.WindowState...)
}

// SetWindowState zapisuje geometrię okna
func (m *Manager) SetWindowState(state json.RawMessage) error {
	if len(state) > 0 && !json.Valid(state) {
		return apperr.New(apperr.ValidationError, "window state is not valid JSON", nil)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	prev := m.state.WindowState
	m.state.WindowState = append(json.RawMessage(nil), state...)
	if err := m.persist(); err != nil {
		m.state.WindowState = prev
		return err
	}
	return nil
}

// internal/models/profile.go

package models

import (
	"errors"
	"fmt"
	"net"
	"strconv"
)

const DefaultPort = 22

// Credentials opisuje jedno połączenie z hostem (SFTP, powłoka i sudo używają tych samych)
type Credentials struct {
	Host     string `json:"host"`
	Port     int    `json:"port"`
	Username string `json:"username"`
	Password string `json:"password,omitempty"`
	KeyPath  string `json:"key_path,omitempty"`
}

// Address zwraca host:port gotowy dla net.Dial
func (c Credentials) Address() string {
	port := c.Port
	if port == 0 {
		port = DefaultPort
	}
	return net.JoinHostPort(c.Host, strconv.Itoa(port))
}

// Validate sprawdza poprawność danych połączenia
func (c Credentials) Validate() error {
	if c.Host == "" {
		return errors.New("host cannot be empty")
	}
	if c.Username == "" {
		return errors.New("username cannot be empty")
	}
	if c.Port < 0 || c.Port > 65535 {
		return fmt.Errorf("invalid port: %d", c.Port)
	}
	if c.Password == "" && c.KeyPath == "" {
		return errors.New("either password or key path must be provided")
	}
	return nil
}

// Profile to zapisany cel połączenia
type Profile struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Host     string `json:"host"`
	Port     int    `json:"port"`
	Username string `json:"username"`
	Password string `json:"password,omitempty"`
	KeyPath  string `json:"key_path,omitempty"`
}

// Identity to klucz deduplikacji profili
type Identity struct {
	Host     string
	Port     int
	Username string
}

func (p Profile) Identity() Identity {
	port := p.Port
	if port == 0 {
		port = DefaultPort
	}
	return Identity{Host: p.Host, Port: port, Username: p.Username}
}

func (p Profile) Credentials() Credentials {
	return Credentials{
		Host:     p.Host,
		Port:     p.Port,
		Username: p.Username,
		Password: p.Password,
		KeyPath:  p.KeyPath,
	}
}

// ProfileFromCredentials tworzy profil bez ID (ID nadaje rejestr)
func ProfileFromCredentials(name string, c Credentials) Profile {
	return Profile{
		Name:     name,
		Host:     c.Host,
		Port:     c.Port,
		Username: c.Username,
		Password: c.Password,
		KeyPath:  c.KeyPath,
	}
}

// Label zwraca nazwę do wyświetlenia w UI
func (p Profile) Label() string {
	if p.Name != "" {
		return p.Name
	}
	return fmt.Sprintf("%s@%s", p.Username, p.Identity().Host)
}

// internal/crypto/crypto.go
//
// Pakiet szyfruje hasła zapisywane w rejestrze połączeń: AES-256-GCM z kluczem
// wyprowadzonym z hasła przez Argon2id. Każda zaszyfrowana wartość ma własną
// sól i nonce.

package crypto

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"strings"

	"golang.org/x/crypto/argon2"
)

const (
	// KeySize to długość klucza AES-256 w bajtach
	KeySize = 32
	// SaltSize to długość soli Argon2id dla pojedynczej wartości
	SaltSize = 16

	// SealedPrefix oznacza wartości zaszyfrowane przez CipherSecrets
	SealedPrefix = "enc:"

	argonTime    = 1
	argonMemory  = 64 * 1024
	argonThreads = 4
)

// SecretStore szyfruje sekrety przed zapisem na dysk i odszyfrowuje po
// wczytaniu
type SecretStore interface {
	Seal(plain string) (string, error)
	Open(stored string) (string, error)
}

// PlainSecrets zapisuje sekrety bez zmian
type PlainSecrets struct{}

func (PlainSecrets) Seal(plain string) (string, error) { return plain, nil }

func (PlainSecrets) Open(stored string) (string, error) { return stored, nil }

// CipherSecrets szyfruje sekrety hasłem. Open zwraca bez zmian wartości bez
// SealedPrefix, więc jawny rejestr migruje się przy kolejnym zapisie.
type CipherSecrets struct {
	passphrase []byte
}

// NewCipherSecrets tworzy szyfrujący magazyn sekretów
func NewCipherSecrets(passphrase string) (*CipherSecrets, error) {
	if passphrase == "" {
		return nil, errors.New("passphrase cannot be empty")
	}
	return &CipherSecrets{passphrase: []byte(passphrase)}, nil
}

// DeriveKey wyprowadza klucz AES-256 z hasła i soli
func DeriveKey(passphrase, salt []byte) []byte {
	return argon2.IDKey(passphrase, salt, argonTime, argonMemory, argonThreads, KeySize)
}

func newGCM(key []byte) (cipher.AEAD, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("failed to create cipher: %v", err)
	}
	aesGCM, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("failed to create GCM: %v", err)
	}
	return aesGCM, nil
}

// Seal szyfruje sekret; pusty zostaje pusty
func (c *CipherSecrets) Seal(plain string) (string, error) {
	if plain == "" {
		return "", nil
	}

	salt := make([]byte, SaltSize)
	if _, err := io.ReadFull(rand.Reader, salt); err != nil {
		return "", fmt.Errorf("failed to generate salt: %v", err)
	}
	aesGCM, err := newGCM(DeriveKey(c.passphrase, salt))
	if err != nil {
		return "", err
	}

	nonce := make([]byte, aesGCM.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", fmt.Errorf("failed to generate nonce: %v", err)
	}

	// sól || nonce || szyfrogram
	combined := make([]byte, 0, SaltSize+len(nonce)+len(plain)+aesGCM.Overhead())
	combined = append(combined, salt...)
	combined = append(combined, nonce...)
	combined = aesGCM.Seal(combined, nonce, []byte(plain), nil)

	return SealedPrefix + hex.EncodeToString(combined), nil
}

// Open odszyfrowuje wartość z Seal
func (c *CipherSecrets) Open(stored string) (string, error) {
	if !strings.HasPrefix(stored, SealedPrefix) {
		return stored, nil
	}

	combined, err := hex.DecodeString(strings.TrimPrefix(stored, SealedPrefix))
	if err != nil {
		return "", fmt.Errorf("failed to decode hex: %v", err)
	}
	if len(combined) < SaltSize {
		return "", errors.New("ciphertext too short")
	}

	salt := combined[:SaltSize]
	aesGCM, err := newGCM(DeriveKey(c.passphrase, salt))
	if err != nil {
		return "", err
	}

	nonceSize := aesGCM.NonceSize()
	if len(combined) < SaltSize+nonceSize {
		return "", errors.New("ciphertext too short")
	}
	nonce := combined[SaltSize : SaltSize+nonceSize]
	ciphertext := combined[SaltSize+nonceSize:]

	plaintext, err := aesGCM.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return "", fmt.Errorf("failed to decrypt: %v", err)
	}
	return string(plaintext), nil
}

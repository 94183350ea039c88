package crypto

import (
	"crypto/rand"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"golang.org/x/crypto/scrypt"
)

const (
	saltSize = 32
	keySize  = 32

	scryptN = 1 << 15
	scryptR = 8
	scryptP = 1
)

// KeyFromPassphraseWithSalt derives a signing key from an operator
// passphrase. The same passphrase and salt always yield the same key.
func KeyFromPassphraseWithSalt(passphrase string, salt []byte) ([]byte, error) {
	if err := ValidateSalt(salt); err != nil {
		return nil, err
	}
	return scrypt.Key([]byte(passphrase), salt, scryptN, scryptR, scryptP, keySize)
}

func NewSalt() ([]byte, error) {
	salt := make([]byte, saltSize)
	if _, err := io.ReadFull(rand.Reader, salt); err != nil {
		return nil, err
	}
	return salt, nil
}

func ValidateSalt(salt []byte) error {
	if len(salt) != saltSize {
		return fmt.Errorf("salt must be %d bytes, got %d", saltSize, len(salt))
	}
	return nil
}

// NewRandomKey returns a key for when no passphrase is configured. Links
// signed with it do not survive a restart.
func NewRandomKey() ([]byte, error) {
	key := make([]byte, keySize)
	if _, err := io.ReadFull(rand.Reader, key); err != nil {
		return nil, err
	}
	return key, nil
}

// LoadOrCreateSalt returns the salt stored at path, creating and persisting
// a new one on first use.
func LoadOrCreateSalt(path string) ([]byte, error) {
	if data, err := os.ReadFile(path); err == nil {
		if err := ValidateSalt(data); err != nil {
			return nil, fmt.Errorf("invalid signing salt at %s: %w", path, err)
		}
		return data, nil
	} else if !os.IsNotExist(err) {
		return nil, err
	}

	salt, err := NewSalt()
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, err
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, salt, 0o600); err != nil {
		return nil, err
	}
	if err := os.Rename(tmp, path); err != nil {
		return nil, err
	}
	return salt, nil
}

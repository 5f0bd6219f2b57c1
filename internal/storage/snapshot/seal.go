package snapshot

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"errors"
	"fmt"

	"golang.org/x/crypto/argon2"
	"golang.org/x/crypto/chacha20poly1305"
)

// Sealing algorithms.
const (
	AlgorithmAESGCM   = "aes-gcm"
	AlgorithmChaCha20 = "xchacha20-poly1305"
)

const (
	// MinPassphraseLength is the shortest accepted passphrase.
	MinPassphraseLength = 8

	saltLength = 16

	argon2Time    = 3
	argon2Memory  = 64 * 1024
	argon2Threads = 4
	argon2KeyLen  = 32
)

var (
	ErrPassphraseTooWeak  = errors.New("snapshot: passphrase too short (minimum 8 characters)")
	ErrPassphraseRequired = errors.New("snapshot: sealed snapshot requires a passphrase")
	ErrDecryptionFailed   = errors.New("snapshot: decryption failed (wrong passphrase or corrupted data)")
)

type sealer struct {
	aead cipher.AEAD
}

// newSalt returns fresh random salt for one snapshot.
func newSalt() ([]byte, error) {
	salt := make([]byte, saltLength)
	if _, err := rand.Read(salt); err != nil {
		return nil, fmt.Errorf("snapshot: generate salt: %w", err)
	}
	return salt, nil
}

// newSealer derives a key from passphrase and salt and builds the AEAD.
func newSealer(passphrase, salt []byte, algorithm string) (*sealer, error) {
	if len(passphrase) < MinPassphraseLength {
		return nil, ErrPassphraseTooWeak
	}
	key := argon2.IDKey(passphrase, salt, argon2Time, argon2Memory, argon2Threads, argon2KeyLen)
	defer clear(key)

	var (
		aead cipher.AEAD
		err  error
	)
	switch algorithm {
	case "", AlgorithmAESGCM:
		var block cipher.Block
		if block, err = aes.NewCipher(key); err == nil {
			aead, err = cipher.NewGCM(block)
		}
	case AlgorithmChaCha20:
		aead, err = chacha20poly1305.NewX(key)
	default:
		return nil, fmt.Errorf("snapshot: unsupported algorithm: %s", algorithm)
	}
	if err != nil {
		return nil, fmt.Errorf("snapshot: init cipher: %w", err)
	}
	return &sealer{aead: aead}, nil
}

// seal encrypts plaintext and prepends the random nonce.
func (s *sealer) seal(plaintext, additionalData []byte) ([]byte, error) {
	nonce := make([]byte, s.aead.NonceSize(), s.aead.NonceSize()+len(plaintext)+s.aead.Overhead())
	if _, err := rand.Read(nonce); err != nil {
		return nil, fmt.Errorf("snapshot: generate nonce: %w", err)
	}
	return s.aead.Seal(nonce, nonce, plaintext, additionalData), nil
}

// open reverses seal.
func (s *sealer) open(ciphertext, additionalData []byte) ([]byte, error) {
	n := s.aead.NonceSize()
	if len(ciphertext) < n+s.aead.Overhead() {
		return nil, ErrDecryptionFailed
	}
	plain, err := s.aead.Open(nil, ciphertext[:n], ciphertext[n:], additionalData)
	if err != nil {
		return nil, ErrDecryptionFailed
	}
	return plain, nil
}

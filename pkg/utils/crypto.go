package utils

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"strings"

	"golang.org/x/crypto/scrypt"
)

const keySalt = "socialflow-salt"

var ErrDecryption = errors.New("decryption failed")

// DeriveKey turns a configured secret into a 32 byte AES-256 key.
func DeriveKey(secret string) ([]byte, error) {
	return scrypt.Key([]byte(secret), []byte(keySalt), 16384, 8, 1, 32)
}

// Encrypt seals plaintext with AES-GCM and returns "hex(nonce):hex(ciphertext)".
// The GCM tag is appended to the ciphertext.
func Encrypt(plaintext, key []byte) (string, error) {
	aesGCM, err := newGCM(key)
	if err != nil {
		return "", err
	}

	nonce := make([]byte, aesGCM.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", err
	}

	ciphertext := aesGCM.Seal(nil, nonce, plaintext, nil)
	return hex.EncodeToString(nonce) + ":" + hex.EncodeToString(ciphertext), nil
}

// Decrypt opens a value produced by Encrypt. The older "iv:tag:ciphertext" layout
// with a 16 byte IV is accepted too.
func Decrypt(encryptedData string, key []byte) (string, error) {
	parts := strings.Split(encryptedData, ":")

	var nonce, sealed []byte
	var err error

	switch len(parts) {
	case 2:
		if nonce, err = hex.DecodeString(parts[0]); err != nil {
			return "", fmt.Errorf("%w: bad iv: %v", ErrDecryption, err)
		}
		if sealed, err = hex.DecodeString(parts[1]); err != nil {
			return "", fmt.Errorf("%w: bad payload: %v", ErrDecryption, err)
		}
	case 3:
		var tag, ciphertext []byte
		if nonce, err = hex.DecodeString(parts[0]); err != nil {
			return "", fmt.Errorf("%w: bad iv: %v", ErrDecryption, err)
		}
		if tag, err = hex.DecodeString(parts[1]); err != nil {
			return "", fmt.Errorf("%w: bad tag: %v", ErrDecryption, err)
		}
		if ciphertext, err = hex.DecodeString(parts[2]); err != nil {
			return "", fmt.Errorf("%w: bad payload: %v", ErrDecryption, err)
		}
		sealed = append(ciphertext, tag...)
	default:
		return "", fmt.Errorf("%w: missing iv separator", ErrDecryption)
	}

	if len(nonce) == 0 {
		return "", fmt.Errorf("%w: empty iv", ErrDecryption)
	}

	block, err := aes.NewCipher(key)
	if err != nil {
		return "", err
	}
	aesGCM, err := cipher.NewGCMWithNonceSize(block, len(nonce))
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrDecryption, err)
	}

	plaintext, err := aesGCM.Open(nil, nonce, sealed, nil)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrDecryption, err)
	}

	return string(plaintext), nil
}

func newGCM(key []byte) (cipher.AEAD, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	return cipher.NewGCM(block)
}

type CredentialKind int

const (
	CredentialPlain CredentialKind = iota
	CredentialEncrypted
)

// Credential is a stored page token tagged by how it was persisted.
type Credential struct {
	Kind  CredentialKind
	Value string
}

// ParseCredential inspects the stored format. Values made only of hex segments joined by
// ':' (two or three of them) are treated as encrypted, anything else as legacy plaintext.
func ParseCredential(stored string) Credential {
	parts := strings.Split(stored, ":")
	if len(parts) != 2 && len(parts) != 3 {
		return Credential{Kind: CredentialPlain, Value: stored}
	}
	for _, p := range parts {
		if p == "" || !isHex(p) {
			return Credential{Kind: CredentialPlain, Value: stored}
		}
	}
	return Credential{Kind: CredentialEncrypted, Value: stored}
}

func isHex(s string) bool {
	for _, r := range s {
		switch {
		case r >= '0' && r <= '9', r >= 'a' && r <= 'f', r >= 'A' && r <= 'F':
		default:
			return false
		}
	}
	return true
}

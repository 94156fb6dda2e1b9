package utils

import (
	"crypto/aes"
	"crypto/cipher"
	"encoding/hex"
	"errors"
	"strings"
	"testing"
)

func testKey(t *testing.T) []byte {
	t.Helper()
	key, err := DeriveKey("test-secret")
	if err != nil {
		t.Fatalf("derive key: %v", err)
	}
	return key
}

func TestDeriveKeyDeterministic(t *testing.T) {
	a, err := DeriveKey("secret")
	if err != nil {
		t.Fatalf("derive: %v", err)
	}
	b, _ := DeriveKey("secret")
	c, _ := DeriveKey("other")

	if len(a) != 32 {
		t.Fatalf("expected 32 byte key got %d", len(a))
	}
	if string(a) != string(b) {
		t.Fatal("expected same secret to derive same key")
	}
	if string(a) == string(c) {
		t.Fatal("expected different secrets to derive different keys")
	}
}

func TestEncryptDecryptRoundTrip(t *testing.T) {
	key := testKey(t)

	for _, plaintext := range []string{"x", "EAAG-page-token", "émoji ✨ and: colons"} {
		encrypted, err := Encrypt([]byte(plaintext), key)
		if err != nil {
			t.Fatalf("encrypt: %v", err)
		}
		if strings.Count(encrypted, ":") != 1 {
			t.Fatalf("expected iv:payload format got %q", encrypted)
		}

		decrypted, err := Decrypt(encrypted, key)
		if err != nil {
			t.Fatalf("decrypt: %v", err)
		}
		if decrypted != plaintext {
			t.Fatalf("expected %q got %q", plaintext, decrypted)
		}
	}
}

func TestEncryptUsesFreshIV(t *testing.T) {
	key := testKey(t)
	a, _ := Encrypt([]byte("same"), key)
	b, _ := Encrypt([]byte("same"), key)
	if a == b {
		t.Fatal("expected different ciphertexts for repeated encryption")
	}
}

func TestDecryptRejectsMissingSeparator(t *testing.T) {
	_, err := Decrypt("plain-legacy-token", testKey(t))
	if !errors.Is(err, ErrDecryption) {
		t.Fatalf("expected ErrDecryption got %v", err)
	}
}

func TestDecryptRejectsTamperedPayload(t *testing.T) {
	key := testKey(t)
	encrypted, _ := Encrypt([]byte("token"), key)

	parts := strings.Split(encrypted, ":")
	payload := []byte(parts[1])
	if payload[0] == 'a' {
		payload[0] = 'b'
	} else {
		payload[0] = 'a'
	}

	_, err := Decrypt(parts[0]+":"+string(payload), key)
	if !errors.Is(err, ErrDecryption) {
		t.Fatalf("expected ErrDecryption got %v", err)
	}

	otherKey, _ := DeriveKey("other-secret")
	if _, err := Decrypt(encrypted, otherKey); !errors.Is(err, ErrDecryption) {
		t.Fatalf("expected ErrDecryption with wrong key got %v", err)
	}
}

func TestDecryptLegacyThreePartFormat(t *testing.T) {
	key := testKey(t)

	block, _ := aes.NewCipher(key)
	gcm, err := cipher.NewGCMWithNonceSize(block, 16)
	if err != nil {
		t.Fatalf("gcm: %v", err)
	}
	iv := []byte("0123456789abcdef")
	sealed := gcm.Seal(nil, iv, []byte("legacy-token"), nil)
	ciphertext, tag := sealed[:len(sealed)-16], sealed[len(sealed)-16:]

	stored := hex.EncodeToString(iv) + ":" + hex.EncodeToString(tag) + ":" + hex.EncodeToString(ciphertext)

	got, err := Decrypt(stored, key)
	if err != nil {
		t.Fatalf("decrypt legacy: %v", err)
	}
	if got != "legacy-token" {
		t.Fatalf("expected legacy-token got %q", got)
	}
}

func TestParseCredential(t *testing.T) {
	key := testKey(t)
	encrypted, _ := Encrypt([]byte("token"), key)

	cases := []struct {
		stored string
		want   CredentialKind
	}{
		{encrypted, CredentialEncrypted},
		{"abcdef:0123:ff", CredentialEncrypted},
		{"EAAGplaintexttoken", CredentialPlain},
		{"not:hex", CredentialPlain},
		{"abcd:", CredentialPlain},
		{"a:b:c:d", CredentialPlain},
		{"", CredentialPlain},
	}

	for _, tc := range cases {
		got := ParseCredential(tc.stored)
		if got.Kind != tc.want {
			t.Fatalf("ParseCredential(%q) kind = %v want %v", tc.stored, got.Kind, tc.want)
		}
		if got.Value != tc.stored {
			t.Fatalf("expected value preserved got %q", got.Value)
		}
	}
}

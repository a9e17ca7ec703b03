// Package fieldcipher encrypts individual text columns at rest.
package fieldcipher

import (
	"context"
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"fmt"
	"strings"
)

// Prefix marks a stored value as an encrypted envelope. Values without it
// are legacy plaintext.
const Prefix = "enc:"

const (
	keySize   = 32
	nonceSize = 12
	tagSize   = 16
)

// KeySource defines where key material comes from.
type KeySource interface {
	// Load returns the raw key material. An empty string means no key.
	Load(ctx context.Context) (string, error)
}

// Cipher encrypts and decrypts single fields with AES-256-GCM.
// A Cipher built without a key passes values through unchanged.
type Cipher struct {
	aead cipher.AEAD
}

// New creates a cipher from key material. Material that base64-decodes to
// exactly 32 bytes is used as the key; anything else is hashed with SHA-256.
// Empty material disables encryption.
func New(material string) (*Cipher, error) {
	if material == "" {
		return &Cipher{}, nil
	}

	block, err := aes.NewCipher(DeriveKey(material))
	if err != nil {
		return nil, fmt.Errorf("failed to create block cipher: %w", err)
	}

	aead, err := cipher.NewGCMWithNonceSize(block, nonceSize)
	if err != nil {
		return nil, fmt.Errorf("failed to create GCM: %w", err)
	}

	return &Cipher{aead: aead}, nil
}

// NewFromSource loads key material from src and builds a cipher.
func NewFromSource(ctx context.Context, src KeySource) (*Cipher, error) {
	material, err := src.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load encryption key: %w", err)
	}
	return New(strings.TrimSpace(material))
}

// DeriveKey turns configured key material into a 32-byte key.
func DeriveKey(material string) []byte {
	if raw, err := base64.StdEncoding.DecodeString(material); err == nil && len(raw) == keySize {
		return raw
	}
	sum := sha256.Sum256([]byte(material))
	return sum[:]
}

// Enabled reports whether a key is configured.
func (c *Cipher) Enabled() bool {
	return c != nil && c.aead != nil
}

// Encrypt returns Prefix + base64(nonce || tag || ciphertext), or plain
// itself when encryption is disabled.
func (c *Cipher) Encrypt(plain string) (string, error) {
	if !c.Enabled() {
		return plain, nil
	}

	nonce := make([]byte, nonceSize)
	if _, err := rand.Read(nonce); err != nil {
		return "", fmt.Errorf("failed to generate nonce: %w", err)
	}

	// Seal appends the tag after the ciphertext.
	sealed := c.aead.Seal(nil, nonce, []byte(plain), nil)
	ct, tag := sealed[:len(sealed)-tagSize], sealed[len(sealed)-tagSize:]

	payload := make([]byte, 0, nonceSize+tagSize+len(ct))
	payload = append(payload, nonce...)
	payload = append(payload, tag...)
	payload = append(payload, ct...)

	return Prefix + base64.StdEncoding.EncodeToString(payload), nil
}

// Decrypt recovers the plaintext of an envelope. Unprefixed values and
// envelopes that fail to decode or authenticate are returned unchanged.
func (c *Cipher) Decrypt(value string) string {
	if !c.Enabled() || !strings.HasPrefix(value, Prefix) {
		return value
	}

	raw, err := base64.StdEncoding.DecodeString(value[len(Prefix):])
	if err != nil || len(raw) < nonceSize+tagSize {
		return value
	}

	nonce := raw[:nonceSize]
	tag := raw[nonceSize : nonceSize+tagSize]
	ct := raw[nonceSize+tagSize:]

	sealed := make([]byte, 0, len(ct)+tagSize)
	sealed = append(sealed, ct...)
	sealed = append(sealed, tag...)

	plain, err := c.aead.Open(nil, nonce, sealed, nil)
	if err != nil {
		return value
	}
	return string(plain)
}

// EncryptPtr encrypts an optional field. Nil stays nil.
func (c *Cipher) EncryptPtr(plain *string) (*string, error) {
	if plain == nil {
		return nil, nil
	}
	enc, err := c.Encrypt(*plain)
	if err != nil {
		return nil, err
	}
	return &enc, nil
}

// DecryptPtr decrypts an optional field. Nil stays nil.
func (c *Cipher) DecryptPtr(value *string) *string {
	if value == nil {
		return nil
	}
	plain := c.Decrypt(*value)
	return &plain
}

package fieldcipher

import (
	"crypto/rand"
	"encoding/base64"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestCipher(t *testing.T) *Cipher {
	t.Helper()

	key := make([]byte, 32)
	_, err := rand.Read(key)
	require.NoError(t, err)

	c, err := New(base64.StdEncoding.EncodeToString(key))
	require.NoError(t, err)
	require.True(t, c.Enabled())
	return c
}

func TestCipher_RoundTrip(t *testing.T) {
	c := newTestCipher(t)

	inputs := []string{
		"",
		"Jane Doe",
		"jane@example.com",
		"+33 6 12 34 56 78",
		"Zoë Ünïcødé 🍕",
		strings.Repeat("x", 4096),
		"enc:looks-like-an-envelope",
	}

	for _, in := range inputs {
		enc, err := c.Encrypt(in)
		require.NoError(t, err)
		assert.True(t, strings.HasPrefix(enc, Prefix))
		assert.Equal(t, in, c.Decrypt(enc))
	}
}

func TestCipher_NonceIsRandomPerCall(t *testing.T) {
	c := newTestCipher(t)

	a, err := c.Encrypt("same")
	require.NoError(t, err)
	b, err := c.Encrypt("same")
	require.NoError(t, err)

	assert.NotEqual(t, a, b)
}

func TestCipher_EnvelopeLayout(t *testing.T) {
	c := newTestCipher(t)

	enc, err := c.Encrypt("abc")
	require.NoError(t, err)

	raw, err := base64.StdEncoding.DecodeString(strings.TrimPrefix(enc, Prefix))
	require.NoError(t, err)
	assert.Len(t, raw, nonceSize+tagSize+3)
}

func TestCipher_DisabledIsIdentity(t *testing.T) {
	c, err := New("")
	require.NoError(t, err)
	assert.False(t, c.Enabled())

	enc, err := c.Encrypt("Jane Doe")
	require.NoError(t, err)
	assert.Equal(t, "Jane Doe", enc)
	assert.Equal(t, "enc:whatever", c.Decrypt("enc:whatever"))
}

func TestCipher_DecryptLegacyPlaintext(t *testing.T) {
	c := newTestCipher(t)
	assert.Equal(t, "legacy name", c.Decrypt("legacy name"))
}

func TestCipher_DecryptMalformedReturnsInput(t *testing.T) {
	c := newTestCipher(t)
	other := newTestCipher(t)

	foreign, err := other.Encrypt("secret")
	require.NoError(t, err)

	valid, err := c.Encrypt("secret")
	require.NoError(t, err)
	raw, err := base64.StdEncoding.DecodeString(strings.TrimPrefix(valid, Prefix))
	require.NoError(t, err)
	raw[len(raw)-1] ^= 0xFF
	tampered := Prefix + base64.StdEncoding.EncodeToString(raw)

	inputs := []string{
		"enc:",
		"enc:!!!not-base64!!!",
		"enc:" + base64.StdEncoding.EncodeToString([]byte("short")),
		"enc:" + base64.StdEncoding.EncodeToString(make([]byte, nonceSize+tagSize)),
		foreign,
		tampered,
	}

	for _, in := range inputs {
		assert.NotPanics(t, func() {
			assert.Equal(t, in, c.Decrypt(in))
		})
	}
}

func TestDeriveKey(t *testing.T) {
	key := make([]byte, 32)
	for i := range key {
		key[i] = byte(i)
	}

	assert.Equal(t, key, DeriveKey(base64.StdEncoding.EncodeToString(key)))

	hashed := DeriveKey("a passphrase")
	assert.Len(t, hashed, 32)
	assert.Equal(t, hashed, DeriveKey("a passphrase"))
}

func TestCipher_PointerHelpers(t *testing.T) {
	c := newTestCipher(t)

	enc, err := c.EncryptPtr(nil)
	require.NoError(t, err)
	assert.Nil(t, enc)
	assert.Nil(t, c.DecryptPtr(nil))

	name := "Jane"
	enc, err = c.EncryptPtr(&name)
	require.NoError(t, err)
	require.NotNil(t, enc)
	assert.NotEqual(t, name, *enc)
	assert.Equal(t, name, *c.DecryptPtr(enc))
}

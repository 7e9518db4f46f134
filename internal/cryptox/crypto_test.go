package cryptox

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDeriveKey_Deterministic(t *testing.T) {
	secret := []byte("secret-password")
	salt := []byte("fixed-salt")

	key1 := DeriveKey(secret, salt)
	key2 := DeriveKey(secret, salt)

	if !bytes.Equal(key1, key2) {
		t.Errorf("expected same result for same inputs, got different")
	}
	if len(key1) != 32 {
		t.Errorf("expected 32-byte key, got %d", len(key1))
	}
}

func TestDeriveKey_DifferentInputs(t *testing.T) {
	secret := []byte("secret-password")
	salt1 := []byte("salt-1")
	salt2 := []byte("salt-2")

	key1 := DeriveKey(secret, salt1)
	key2 := DeriveKey(secret, salt2)

	if bytes.Equal(key1, key2) {
		t.Errorf("expected different results for different salts, got same")
	}
}

func TestMakeVerifier(t *testing.T) {
	v := MakeVerifier([]byte("key"))
	assert.Len(t, v, 32)
	assert.Equal(t, v, MakeVerifier([]byte("key")))
	assert.NotEqual(t, v, MakeVerifier([]byte("other")))
}

func TestNewVerifierAndVerify(t *testing.T) {
	salt, verifier := NewVerifier([]byte("hunter2"))
	assert.Len(t, salt, SaltSize)

	assert.True(t, Verify([]byte("hunter2"), salt, verifier))
	assert.False(t, Verify([]byte("hunter3"), salt, verifier))
	assert.False(t, Verify([]byte("hunter2"), []byte("another-salt-16b"), verifier))
	assert.False(t, Verify([]byte("hunter2"), salt, verifier[:10]))

	salt2, _ := NewVerifier([]byte("hunter2"))
	assert.NotEqual(t, salt, salt2, "salts are random")
}

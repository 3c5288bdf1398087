package crypto

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKeccak256Deterministic(t *testing.T) {
	a := Keccak256([]byte("hello"), []byte(" "), []byte("world"))
	b := Keccak256([]byte("hello world"))
	assert.Equal(t, a, b)
	assert.Len(t, a, DigestLength)

	c := Keccak256([]byte("hello worlD"))
	assert.NotEqual(t, a, c)
}

func TestKeccak256KnownVector(t *testing.T) {
	// keccak256("") is a well known constant
	got := Keccak256()
	want := []byte{
		0xc5, 0xd2, 0x46, 0x01, 0x86, 0xf7, 0x23, 0x3c,
		0x92, 0x7e, 0x7d, 0xb2, 0xdc, 0xc7, 0x03, 0xc0,
		0xe5, 0x00, 0xb6, 0x53, 0xca, 0x82, 0x27, 0x3b,
		0x7b, 0xfa, 0xd8, 0x04, 0x5d, 0x85, 0xa4, 0x70,
	}
	assert.Equal(t, want, got)
}

func TestSignAndRecover(t *testing.T) {
	key := PrivKeySecp256k1FromSeed([]byte("alice"))
	digest := Keccak256([]byte("a payload"))

	r, s, v, err := key.SignDigest(digest)
	require.NoError(t, err)

	signer, err := RecoverSigner(digest, r, s, v)
	require.NoError(t, err)
	assert.Equal(t, key.Address(), signer)

	// recovery over a different digest yields a different identity
	other, err := RecoverSigner(Keccak256([]byte("other")), r, s, v)
	require.NoError(t, err)
	assert.NotEqual(t, key.Address(), other)
}

func TestSignPersonalShiftsRecoveryByte(t *testing.T) {
	key := PrivKeySecp256k1FromSeed([]byte("bob"))
	digest := Keccak256([]byte("a payload"))

	r, s, v, err := key.SignPersonal(digest)
	require.NoError(t, err)
	require.True(t, v > 30, "personal signatures must be distinguishable")

	signer, err := RecoverSigner(PersonalDigest(digest), r, s, v-4)
	require.NoError(t, err)
	assert.Equal(t, key.Address(), signer)
}

func TestRecoverRejectsBadRecoveryByte(t *testing.T) {
	key := PrivKeySecp256k1FromSeed([]byte("carl"))
	digest := Keccak256([]byte("x"))
	r, s, _, err := key.SignDigest(digest)
	require.NoError(t, err)

	_, err = RecoverSigner(digest, r, s, 3)
	require.Error(t, err)
}

func TestSeededKeysAreDeterministic(t *testing.T) {
	a := PrivKeySecp256k1FromSeed([]byte("seed"))
	b := PrivKeySecp256k1FromSeed([]byte("seed"))
	assert.True(t, bytes.Equal(a.Address(), b.Address()))

	c := PrivKeySecp256k1FromSeed([]byte("other seed"))
	assert.False(t, bytes.Equal(a.Address(), c.Address()))
}

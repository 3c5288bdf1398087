package crypto

import (
	"golang.org/x/crypto/sha3"
)

// DigestLength is the byte length of every digest produced here.
const DigestLength = 32

// personalPrefix is the EIP-191 style prefix applied before recovering
// signatures that were produced over a human-confirmed message.
var personalPrefix = []byte("\x19Ethereum Signed Message:\n32")

// Keccak256 computes the legacy keccak-256 hash over the concatenation
// of all given byte slices.
func Keccak256(chunks ...[]byte) []byte {
	h := sha3.NewLegacyKeccak256()
	for _, c := range chunks {
		h.Write(c)
	}
	return h.Sum(nil)
}

// PersonalDigest recomputes the prefixed digest that wallet software
// signs when asked for a personal signature over the given 32 byte
// digest.
func PersonalDigest(digest []byte) []byte {
	return Keccak256(personalPrefix, digest)
}

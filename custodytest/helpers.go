package custodytest

import (
	"bytes"
	"encoding/binary"
	"sort"

	custody "github.com/iov-one/custody"
	"github.com/iov-one/custody/crypto"
)

// SequentialAddress returns a deterministic test address. Different n
// values give different, non-reserved addresses.
func SequentialAddress(n byte) custody.Address {
	a := make(custody.Address, custody.AddressLength)
	a[0] = 0xaa
	a[custody.AddressLength-1] = n
	return a
}

// NewKey returns a deterministic secp256k1 key. The same n always
// yields the same key.
func NewKey(n byte) *crypto.PrivateKey {
	seed := bytes.Repeat([]byte{n + 1}, 32)
	return crypto.PrivKeySecp256k1FromSeed(seed)
}

// KeysSortedByAddress returns count deterministic keys ordered by
// their derived address, the order aggregate proofs require.
func KeysSortedByAddress(count int) []*crypto.PrivateKey {
	keys := make([]*crypto.PrivateKey, count)
	for i := range keys {
		keys[i] = NewKey(byte(i))
	}
	sort.Slice(keys, func(i, j int) bool {
		return bytes.Compare(keys[i].Address(), keys[j].Address()) < 0
	})
	return keys
}

// Addresses maps keys to their derived addresses, keeping order.
func Addresses(keys []*crypto.PrivateKey) []custody.Address {
	out := make([]custody.Address, len(keys))
	for i, k := range keys {
		out[i] = k.Address()
	}
	return out
}

// ProofBuilder assembles an aggregate ownership proof from slots.
// Slots are emitted in the order they were added; the caller is
// responsible for the ascending signer order verification demands.
type ProofBuilder struct {
	slots  []proofSlot
	nested [][]byte
}

type proofSlot struct {
	raw []byte
	// index into nested, -1 for plain slots
	nestedIdx int
}

// Signed appends an EC signature slot over the digest.
func (b *ProofBuilder) Signed(key *crypto.PrivateKey, digest []byte) *ProofBuilder {
	r, s, v, err := key.SignDigest(digest)
	if err != nil {
		panic(err)
	}
	b.slots = append(b.slots, proofSlot{raw: slot(r, s, v), nestedIdx: -1})
	return b
}

// Personal appends an EC signature slot over the prefixed digest,
// with the recovery byte shifted to mark the prefixed scheme.
func (b *ProofBuilder) Personal(key *crypto.PrivateKey, digest []byte) *ProofBuilder {
	r, s, v, err := key.SignPersonal(digest)
	if err != nil {
		panic(err)
	}
	b.slots = append(b.slots, proofSlot{raw: slot(r, s, v), nestedIdx: -1})
	return b
}

// Approved appends a pre-approval slot for the owner.
func (b *ProofBuilder) Approved(owner custody.Address) *ProofBuilder {
	var r, s [32]byte
	copy(r[32-len(owner):], owner)
	b.slots = append(b.slots, proofSlot{raw: slot(r, s, 1), nestedIdx: -1})
	return b
}

// Contract appends a nested proof slot vouched for by the validator
// contract. The nested bytes are placed after the static slots and
// referenced by offset.
func (b *ProofBuilder) Contract(validator custody.Address, nested []byte) *ProofBuilder {
	var r, s [32]byte
	copy(r[32-len(validator):], validator)
	b.slots = append(b.slots, proofSlot{raw: slot(r, s, 0), nestedIdx: len(b.nested)})
	b.nested = append(b.nested, nested)
	// The offset is resolved in Build once the static size is known.
	return b
}

// RawSlot appends 65 arbitrary bytes verbatim, for malformed proof
// tests.
func (b *ProofBuilder) RawSlot(raw []byte) *ProofBuilder {
	b.slots = append(b.slots, proofSlot{raw: raw, nestedIdx: -1})
	return b
}

// Build concatenates the slots and resolves nested proof offsets.
func (b *ProofBuilder) Build() []byte {
	staticLen := 0
	for _, s := range b.slots {
		staticLen += len(s.raw)
	}
	out := make([]byte, 0, staticLen)
	offset := uint64(staticLen)
	for _, s := range b.slots {
		raw := append([]byte{}, s.raw...)
		if s.nestedIdx >= 0 {
			binary.BigEndian.PutUint64(raw[56:64], offset)
			offset += 32 + uint64(len(b.nested[s.nestedIdx]))
		}
		out = append(out, raw...)
	}
	for _, n := range b.nested {
		out = append(out, lengthWord(uint64(len(n)))...)
		out = append(out, n...)
	}
	return out
}

func slot(r, s [32]byte, v byte) []byte {
	out := make([]byte, 0, 65)
	out = append(out, r[:]...)
	out = append(out, s[:]...)
	out = append(out, v)
	return out
}

// lengthWord encodes v as a 32-byte big-endian word, the layout the
// nested proof length prefix uses.
func lengthWord(v uint64) []byte {
	raw := make([]byte, 32)
	binary.BigEndian.PutUint64(raw[24:], v)
	return raw
}

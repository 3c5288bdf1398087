package crypto

import (
	"github.com/btcsuite/btcd/btcec"
	"github.com/iov-one/custody"
	"github.com/iov-one/custody/errors"
)

// RecoveryBase is the offset added to the recovery id in the last byte
// of a compact signature.
const RecoveryBase = 27

// RecoverSigner performs elliptic curve public key recovery over the
// given 32 byte digest and returns the address of the signer. The v
// byte must carry RecoveryBase plus the recovery id, the way compact
// signatures encode it.
func RecoverSigner(digest []byte, r, s [32]byte, v byte) (custody.Address, error) {
	if len(digest) != DigestLength {
		return nil, errors.Wrapf(errors.ErrInput, "digest must be %d bytes", DigestLength)
	}
	if v != RecoveryBase && v != RecoveryBase+1 {
		return nil, errors.Wrapf(errors.ErrInput, "recovery byte: %d", v)
	}

	compact := make([]byte, 65)
	compact[0] = v
	copy(compact[1:33], r[:])
	copy(compact[33:65], s[:])

	pub, _, err := btcec.RecoverCompact(btcec.S256(), compact, digest)
	if err != nil {
		return nil, errors.Wrap(errors.ErrUnauthorized, err.Error())
	}
	return PubKeyAddress(pub), nil
}

// PubKeyAddress derives the account address of a secp256k1 public key:
// the last 20 bytes of the keccak hash over the raw curve point.
func PubKeyAddress(pub *btcec.PublicKey) custody.Address {
	raw := pub.SerializeUncompressed()
	// drop the 0x04 point marker before hashing
	h := Keccak256(raw[1:])
	return custody.Address(h[len(h)-custody.AddressLength:])
}

// PrivateKey is a secp256k1 private key that can sign digests in the
// compact, recoverable form the verifier understands.
type PrivateKey struct {
	key *btcec.PrivateKey
}

// GenPrivKeySecp256k1 returns a random new private key.
func GenPrivKeySecp256k1() (*PrivateKey, error) {
	key, err := btcec.NewPrivateKey(btcec.S256())
	if err != nil {
		return nil, errors.Wrap(err, "generate key")
	}
	return &PrivateKey{key: key}, nil
}

// PrivKeySecp256k1FromSeed will deterministically generate a private key
// from a given seed. Use if you have a strong source of external
// randomness, or for deterministic keys in test cases.
func PrivKeySecp256k1FromSeed(seed []byte) *PrivateKey {
	material := Keccak256(seed)
	key, _ := btcec.PrivKeyFromBytes(btcec.S256(), material)
	return &PrivateKey{key: key}
}

// Address returns the account address controlled by this key.
func (p *PrivateKey) Address() custody.Address {
	return PubKeyAddress(p.key.PubKey())
}

// SignDigest creates a recoverable signature over the given 32 byte
// digest and returns its compact split form.
func (p *PrivateKey) SignDigest(digest []byte) (r, s [32]byte, v byte, err error) {
	if len(digest) != DigestLength {
		return r, s, v, errors.Wrapf(errors.ErrInput, "digest must be %d bytes", DigestLength)
	}
	compact, err := btcec.SignCompact(btcec.S256(), p.key, digest, false)
	if err != nil {
		return r, s, v, errors.Wrap(err, "sign compact")
	}
	v = compact[0]
	copy(r[:], compact[1:33])
	copy(s[:], compact[33:65])
	return r, s, v, nil
}

// SignPersonal signs the EIP-191 prefixed form of the digest. The
// returned v byte is shifted so a verifier can tell both forms apart.
func (p *PrivateKey) SignPersonal(digest []byte) (r, s [32]byte, v byte, err error) {
	r, s, v, err = p.SignDigest(PersonalDigest(digest))
	if err != nil {
		return r, s, v, err
	}
	return r, s, v + 4, nil
}

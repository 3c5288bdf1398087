package account

import (
	"encoding/binary"

	"github.com/holiman/uint256"
	custody "github.com/iov-one/custody"
	"github.com/iov-one/custody/crypto"
	"github.com/iov-one/custody/env"
	"github.com/iov-one/custody/errors"
)

// Schema hashes for the domain-separated digest. Changing a schema
// string invalidates every previously signed descriptor.
var (
	domainTypeHash  = crypto.Keccak256([]byte("CustodyDomain(uint64 chainId,address account)"))
	txTypeHash      = crypto.Keccak256([]byte("CustodyTx(address to,uint256 value,bytes payload,uint8 kind,uint64 safeGas,uint64 baseGas,uint256 gasPrice,address gasToken,address refundReceiver,uint64 nonce)"))
	messageTypeHash = crypto.Keccak256([]byte("CustodyMessage(bytes message)"))
)

// Descriptor fully describes one transaction to be executed by the
// account. Owners sign the domain-separated digest of a descriptor
// plus the account's current nonce.
type Descriptor struct {
	To      custody.Address
	Value   *uint256.Int
	Payload []byte
	Kind    env.CallKind

	// SafeGas is the budget reserved for the inner call. BaseGas
	// covers the fixed overhead outside of it; both are charged to
	// the submitter refund when GasPrice is non-zero.
	SafeGas  uint64
	BaseGas  uint64
	GasPrice *uint256.Int

	// GasToken selects the refund asset; the zero address means the
	// native asset. RefundReceiver defaults to the transaction
	// origin when zero.
	GasToken       custody.Address
	RefundReceiver custody.Address
}

// Validate ensures the descriptor addresses are well formed.
func (d *Descriptor) Validate() error {
	if err := d.To.Validate(); err != nil {
		return errors.Wrap(err, "to")
	}
	if len(d.GasToken) != 0 {
		if err := d.GasToken.Validate(); err != nil {
			return errors.Wrap(err, "gas token")
		}
	}
	if len(d.RefundReceiver) != 0 {
		if err := d.RefundReceiver.Validate(); err != nil {
			return errors.Wrap(err, "refund receiver")
		}
	}
	if d.Kind != env.KindCall && d.Kind != env.KindDelegate {
		return errors.Wrapf(errors.ErrMsg, "unknown call kind %d", d.Kind)
	}
	return nil
}

// DomainHash binds digests to this account instance and chain.
func (a *Account) DomainHash() []byte {
	return crypto.Keccak256(domainTypeHash, u64be(a.chainID), addr32(a.address))
}

// EncodeTransactionData returns the exact bytes whose keccak hash is
// the transaction digest: 0x19 0x01, the domain hash and the
// descriptor struct hash under the given nonce.
func (a *Account) EncodeTransactionData(d *Descriptor, nonce int64) []byte {
	value := d.Value
	if value == nil {
		value = new(uint256.Int)
	}
	price := d.GasPrice
	if price == nil {
		price = new(uint256.Int)
	}
	structHash := crypto.Keccak256(
		txTypeHash,
		addr32(d.To),
		u256be(value),
		crypto.Keccak256(d.Payload),
		[]byte{byte(d.Kind)},
		u64be(d.SafeGas),
		u64be(d.BaseGas),
		u256be(price),
		addr32(d.GasToken),
		addr32(d.RefundReceiver),
		u64be(uint64(nonce)),
	)
	out := make([]byte, 0, 2+2*crypto.DigestLength)
	out = append(out, 0x19, 0x01)
	out = append(out, a.DomainHash()...)
	out = append(out, structHash...)
	return out
}

// TransactionHash returns the digest owners sign to authorize the
// descriptor under the given nonce.
func (a *Account) TransactionHash(d *Descriptor, nonce int64) []byte {
	return crypto.Keccak256(a.EncodeTransactionData(d, nonce))
}

// EncodeMessageData returns the bytes whose keccak hash is the digest
// of an arbitrary preimage endorsed via SignMessage or checked via
// IsValidSignature.
func (a *Account) EncodeMessageData(preimage []byte) []byte {
	structHash := crypto.Keccak256(messageTypeHash, crypto.Keccak256(preimage))
	out := make([]byte, 0, 2+2*crypto.DigestLength)
	out = append(out, 0x19, 0x01)
	out = append(out, a.DomainHash()...)
	out = append(out, structHash...)
	return out
}

// MessageHash returns the domain-separated digest of a preimage.
func (a *Account) MessageHash(preimage []byte) []byte {
	return crypto.Keccak256(a.EncodeMessageData(preimage))
}

func u64be(v uint64) []byte {
	raw := make([]byte, 8)
	binary.BigEndian.PutUint64(raw, v)
	return raw
}

func u256be(v *uint256.Int) []byte {
	raw := v.Bytes32()
	return raw[:]
}

// addr32 left-pads an address to a full word so that short or zero
// addresses cannot collide with neighbouring fields.
func addr32(a custody.Address) []byte {
	raw := make([]byte, 32)
	copy(raw[32-len(a):], a)
	return raw
}

package account

import (
	"github.com/holiman/uint256"
	custody "github.com/iov-one/custody"
	"github.com/iov-one/custody/crypto"
	"github.com/iov-one/custody/env"
)

// MagicValue is what a SignatureValidator returns to accept a proof.
// Any other value, or an error, rejects it.
var MagicValue [4]byte

func init() {
	copy(MagicValue[:], crypto.Keccak256([]byte("isValidSignature(bytes,bytes)"))[:4])
}

// SignatureValidator is implemented by contracts that can vouch for a
// preimage themselves, for example another custody account acting as
// an owner.
type SignatureValidator interface {
	IsValidSignature(ctx custody.Context, e *env.Env, preimage, proof []byte) ([4]byte, error)
}

// TokenTransferer is implemented by token contracts used for setup
// fees and gas refunds paid in a non-native asset.
type TokenTransferer interface {
	TransferToken(ctx custody.Context, e *env.Env, from, to custody.Address, amount *uint256.Int) error
}

// Guard observes and can veto transaction execution. A non-nil error
// from either hook aborts the transaction, unless the account was
// configured with an observe-only guard in which case post-check
// failures are logged and ignored.
type Guard interface {
	CheckTransaction(ctx custody.Context, e *env.Env, d *Descriptor, digest []byte, executor custody.Address) error
	CheckAfterExecution(ctx custody.Context, e *env.Env, digest []byte, success bool) error
}

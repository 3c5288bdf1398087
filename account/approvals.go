package account

import (
	custody "github.com/iov-one/custody"
	"github.com/iov-one/custody/env"
	"github.com/iov-one/custody/errors"
)

func approvedKey(owner custody.Address, digest []byte) []byte {
	key := make([]byte, 0, len(approvedPrefix)+len(owner)+len(digest))
	key = append(key, approvedPrefix...)
	key = append(key, owner...)
	key = append(key, digest...)
	return key
}

func signedMsgKey(digest []byte) []byte {
	return append(append([]byte{}, signedMsgPrefix...), digest...)
}

// ApproveHash records the caller's standing approval of a digest. The
// approval can later back a proof slot without a fresh signature.
// Only enrolled owners may approve; approving twice is a no-op.
func (a *Account) ApproveHash(ctx custody.Context, digest []byte) error {
	caller := custody.Caller(ctx)
	ok, err := a.owners.Contains(a.db, caller)
	if err != nil {
		return err
	}
	if !ok {
		return errors.Wrapf(errors.ErrUnauthorized, "%s is not an owner", caller)
	}
	if err := a.db.Set(approvedKey(caller, digest), []byte{1}); err != nil {
		return err
	}
	custody.GetLogger(ctx).Debug("hash approved", "address", a.address, "owner", caller)
	return nil
}

// HashApproved reports whether the owner has a standing approval for
// the digest.
func (a *Account) HashApproved(owner custody.Address, digest []byte) (bool, error) {
	return a.db.Has(approvedKey(owner, digest))
}

// SignMessage records the account's own endorsement of a preimage so
// that later IsValidSignature queries with an empty proof accept it.
// Only the account itself may call this.
func (a *Account) SignMessage(ctx custody.Context, preimage []byte) error {
	if err := a.authorizeSelf(ctx); err != nil {
		return err
	}
	h := a.MessageHash(preimage)
	if err := a.db.Set(signedMsgKey(h), []byte{1}); err != nil {
		return err
	}
	custody.GetLogger(ctx).Debug("message signed", "address", a.address)
	return nil
}

// MessageSigned reports whether the domain-separated digest has been
// endorsed via SignMessage.
func (a *Account) MessageSigned(digest []byte) (bool, error) {
	return a.db.Has(signedMsgKey(digest))
}

// IsValidSignature lets this account act as a nested signature
// validator for other accounts. An empty proof is accepted when the
// preimage was endorsed via SignMessage; otherwise the proof must
// satisfy this account's own threshold over the preimage's
// domain-separated digest.
func (a *Account) IsValidSignature(ctx custody.Context, _ *env.Env, preimage, proof []byte) ([4]byte, error) {
	h := a.MessageHash(preimage)
	if len(proof) == 0 {
		ok, err := a.MessageSigned(h)
		if err != nil {
			return [4]byte{}, err
		}
		if !ok {
			return [4]byte{}, errors.Wrap(ErrProofInvalid, "message not endorsed")
		}
		return MagicValue, nil
	}
	if err := a.CheckSignatures(ctx, h, preimage, proof); err != nil {
		return [4]byte{}, err
	}
	return MagicValue, nil
}

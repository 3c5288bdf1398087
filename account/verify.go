package account

import (
	"bytes"
	"encoding/binary"

	custody "github.com/iov-one/custody"
	"github.com/iov-one/custody/crypto"
	"github.com/iov-one/custody/errors"
)

// ProofSlotSize is the size of one static proof slot: two 32-byte
// words followed by a kind byte.
const ProofSlotSize = 65

// Proof slot kinds, carried in the trailing byte of each slot.
const (
	// kindContract marks a nested proof checked by the contract named
	// in the first word; the second word is the byte offset of the
	// nested proof within the blob.
	kindContract = 0
	// kindApproved marks a confirmation by prior hash approval, or by
	// the claimed identity being the immediate caller.
	kindApproved = 1
	// Above prefixedBase the slot is an EC signature over the
	// EIP-191 prefixed digest; subtract prefixedOffset to recover.
	prefixedBase   = 30
	prefixedOffset = 4
)

// CheckSignatures verifies an aggregate proof against the account's
// current threshold. A nil error means the proof carries at least
// threshold distinct, strictly ascending owner confirmations.
func (a *Account) CheckSignatures(ctx custody.Context, digest, preimage, proof []byte) error {
	threshold, err := a.Threshold()
	if err != nil {
		return err
	}
	if threshold == 0 {
		return errors.Wrap(ErrSetup, "account not set up")
	}
	return a.CheckNSignatures(ctx, digest, preimage, proof, threshold)
}

// CheckNSignatures verifies that the proof carries at least required
// confirmations. The first required*65 bytes are fixed slots, in
// strictly ascending signer order; bytes beyond the static part hold
// nested proofs referenced by contract slots.
func (a *Account) CheckNSignatures(ctx custody.Context, digest, preimage, proof []byte, required int64) error {
	if required < 1 {
		return errors.Wrap(errors.ErrInput, "required confirmations must be positive")
	}
	// Bound required before computing the static size so an absurd
	// count cannot overflow the multiplication below.
	if required > int64(len(proof))/ProofSlotSize {
		return errors.Wrapf(ErrProofFormat, "%d bytes cannot hold %d slots", len(proof), required)
	}
	staticLen := required * ProofSlotSize

	var last custody.Address
	for i := int64(0); i < required; i++ {
		slot := proof[i*ProofSlotSize : (i+1)*ProofSlotSize]
		var r, s [32]byte
		copy(r[:], slot[:32])
		copy(s[:], slot[32:64])
		v := slot[64]

		signer, err := a.slotSigner(ctx, digest, preimage, proof, staticLen, r, s, v)
		if err != nil {
			return errors.Wrapf(err, "slot %d", i)
		}
		if err := a.acceptSigner(&last, signer); err != nil {
			return errors.Wrapf(err, "slot %d", i)
		}
	}
	return nil
}

// slotSigner validates a single proof slot and returns the identity
// it confirms for.
func (a *Account) slotSigner(ctx custody.Context, digest, preimage, proof []byte, staticLen int64, r, s [32]byte, v byte) (custody.Address, error) {
	switch {
	case v == kindContract:
		signer := custody.Address(r[32-custody.AddressLength:]).Clone()
		if err := a.checkNestedProof(ctx, signer, s, preimage, proof, staticLen); err != nil {
			return nil, err
		}
		return signer, nil
	case v == kindApproved:
		signer := custody.Address(r[32-custody.AddressLength:]).Clone()
		if err := a.checkApproval(ctx, signer, digest); err != nil {
			return nil, err
		}
		return signer, nil
	case v > prefixedBase:
		signer, err := crypto.RecoverSigner(crypto.PersonalDigest(digest), r, s, v-prefixedOffset)
		if err != nil {
			return nil, errors.Wrap(ErrProofInvalid, err.Error())
		}
		return signer, nil
	default:
		signer, err := crypto.RecoverSigner(digest, r, s, v)
		if err != nil {
			return nil, errors.Wrap(ErrProofInvalid, err.Error())
		}
		return signer, nil
	}
}

// acceptSigner enforces strict ascending order (which also rules out
// duplicates) and ownership.
func (a *Account) acceptSigner(last *custody.Address, signer custody.Address) error {
	if bytes.Compare(signer, *last) <= 0 {
		return errors.Wrap(ErrProofInvalid, "signers not in strictly ascending order")
	}
	*last = signer
	ok, err := a.owners.Contains(a.db, signer)
	if err != nil {
		return err
	}
	if !ok {
		return errors.Wrapf(ErrProofInvalid, "%s is not an owner", signer)
	}
	return nil
}

func (a *Account) checkApproval(ctx custody.Context, signer custody.Address, digest []byte) error {
	if custody.Caller(ctx).Equals(signer) {
		return nil
	}
	ok, err := a.HashApproved(signer, digest)
	if err != nil {
		return err
	}
	if !ok {
		return errors.Wrapf(ErrProofInvalid, "%s did not approve the digest", signer)
	}
	return nil
}

// checkNestedProof resolves the contract at signer and asks it to
// validate the preimage against the nested proof carried at offset.
func (a *Account) checkNestedProof(ctx custody.Context, signer custody.Address, offsetWord [32]byte, preimage, proof []byte, staticLen int64) error {
	for _, b := range offsetWord[:24] {
		if b != 0 {
			return errors.Wrap(ErrProofFormat, "nested proof offset out of range")
		}
	}
	offset := int64(binary.BigEndian.Uint64(offsetWord[24:]))
	if offset < staticLen {
		return errors.Wrap(ErrProofFormat, "nested proof overlaps static slots")
	}
	if offset > int64(len(proof))-32 {
		return errors.Wrap(ErrProofFormat, "nested proof length outside blob")
	}
	// The length is a full 32-byte word; the high bytes must be zero
	// just like the offset word's.
	for _, b := range proof[offset : offset+24] {
		if b != 0 {
			return errors.Wrap(ErrProofFormat, "nested proof length out of range")
		}
	}
	length := int64(binary.BigEndian.Uint64(proof[offset+24 : offset+32]))
	if length < 0 || length > int64(len(proof))-offset-32 {
		return errors.Wrap(ErrProofFormat, "nested proof body outside blob")
	}
	nested := proof[offset+32 : offset+32+length]

	h, ok := a.env.Contract(signer)
	if !ok {
		return errors.Wrapf(ErrProofInvalid, "no validator contract at %s", signer)
	}
	sv, ok := h.(SignatureValidator)
	if !ok {
		return errors.Wrapf(ErrProofInvalid, "contract %s cannot validate signatures", signer)
	}
	magic, err := sv.IsValidSignature(ctx, a.env, preimage, nested)
	if err != nil {
		return errors.Wrap(ErrProofInvalid, err.Error())
	}
	if magic != MagicValue {
		return errors.Wrapf(ErrProofInvalid, "validator %s rejected the proof", signer)
	}
	return nil
}

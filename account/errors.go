package account

import "github.com/iov-one/custody/errors"

var (
	// ErrSetup is returned when an account is used before Setup
	// completed, or when Setup is attempted twice.
	ErrSetup = errors.Register(1200, "invalid account setup")

	// ErrThreshold is returned when a confirmation threshold is
	// outside the range allowed by the current owner count.
	ErrThreshold = errors.Register(1201, "threshold out of bounds")

	// ErrProofFormat is returned when an aggregate proof cannot be
	// decoded: short static part, nested proof pointing outside the
	// blob or overlapping the static slots.
	ErrProofFormat = errors.Register(1202, "malformed ownership proof")

	// ErrProofInvalid is returned when a well-formed proof does not
	// establish the required confirmations: bad recovery, unsorted or
	// duplicate signers, non-owner signers, rejected nested proofs.
	ErrProofInvalid = errors.Register(1203, "invalid ownership proof")

	// ErrBudget is returned when the caller did not forward enough
	// gas to honor the transaction's inner budget.
	ErrBudget = errors.Register(1204, "insufficient execution budget")

	// ErrCallFailed is returned when an inner call had to succeed
	// (estimation mode) but did not.
	ErrCallFailed = errors.Register(1205, "inner call failed")

	// ErrRefund is returned when the submitter refund payment cannot
	// be completed.
	ErrRefund = errors.Register(1206, "refund payment failed")

	// ErrGuard is returned when a configured transaction guard cannot
	// be resolved or does not implement the guard interface.
	ErrGuard = errors.Register(1207, "invalid transaction guard")

	// ErrMember is returned when an identity is required to be an
	// enrolled module but is not, so callers can tell a missing
	// enrollment apart from a plain authorization failure.
	ErrMember = errors.Register(1208, "not an enrolled module")
)

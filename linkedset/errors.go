package linkedset

import (
	"github.com/iov-one/custody/errors"
)

var (
	// ErrReservedIdentity is returned when a reserved sentinel value is
	// used as a member identity.
	ErrReservedIdentity = errors.Register(1100, "reserved sentinel identity")

	// ErrLinkage is returned when a given predecessor does not point at
	// the member it is claimed to precede.
	ErrLinkage = errors.Register(1101, "linkage mismatch")

	// ErrNotInitialized is returned when reading or mutating a set that
	// was never built.
	ErrNotInitialized = errors.Register(1102, "set not initialized")
)

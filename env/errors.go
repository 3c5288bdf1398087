package env

import (
	"github.com/iov-one/custody/errors"
)

var (
	// ErrOutOfGas is returned when a frame exceeds its gas budget.
	ErrOutOfGas = errors.Register(1150, "out of gas")

	// ErrOccupied is returned when creating a contract at an address
	// that already hosts one.
	ErrOccupied = errors.Register(1151, "address occupied")

	// ErrBalance is returned when an account cannot cover a transfer.
	ErrBalance = errors.Register(1152, "insufficient balance")

	// ErrDepth is returned when the call stack exceeds its limit.
	ErrDepth = errors.Register(1153, "call depth exceeded")
)

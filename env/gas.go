package env

import (
	"github.com/iov-one/custody/errors"
)

// GasMeter tracks the resource budget of a single call frame.
type GasMeter struct {
	limit uint64
	used  uint64
}

// NewGasMeter returns a meter allowing up to limit units.
func NewGasMeter(limit uint64) *GasMeter {
	return &GasMeter{limit: limit}
}

// Consume charges the given amount, failing with ErrOutOfGas once the
// budget is exhausted. The budget is fully consumed on failure, so a
// frame that ran out cannot keep going.
func (g *GasMeter) Consume(amount uint64) error {
	remaining := g.limit - g.used
	if amount > remaining {
		g.used = g.limit
		return errors.Wrapf(ErrOutOfGas, "requested %d, remaining %d", amount, remaining)
	}
	g.used += amount
	return nil
}

// Remaining returns how much budget is left.
func (g *GasMeter) Remaining() uint64 {
	return g.limit - g.used
}

// Used returns how much budget was charged so far.
func (g *GasMeter) Used() uint64 {
	return g.used
}

// Limit returns the total budget of this frame.
func (g *GasMeter) Limit() uint64 {
	return g.limit
}

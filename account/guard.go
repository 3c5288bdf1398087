package account

import (
	custody "github.com/iov-one/custody"
	"github.com/iov-one/custody/errors"
)

// SetGuard installs a transaction guard contract, or removes it when
// given a zero address. The target must implement the Guard
// interface. Only the account itself may call this.
func (a *Account) SetGuard(ctx custody.Context, guard custody.Address) error {
	if err := a.authorizeSelf(ctx); err != nil {
		return err
	}
	if len(guard) == 0 || guard.IsZero() {
		if err := a.db.Delete(guardKey); err != nil {
			return err
		}
		custody.GetLogger(ctx).Info("guard removed", "address", a.address)
		return nil
	}
	if err := guard.Validate(); err != nil {
		return err
	}
	h, ok := a.env.Contract(guard)
	if !ok {
		return errors.Wrapf(ErrGuard, "no contract at %s", guard)
	}
	if _, ok := h.(Guard); !ok {
		return errors.Wrapf(ErrGuard, "contract %s does not implement the guard hooks", guard)
	}
	if err := a.db.Set(guardKey, guard.Clone()); err != nil {
		return err
	}
	custody.GetLogger(ctx).Info("guard set", "address", a.address, "guard", guard)
	return nil
}

// GuardAddress returns the installed guard address, or nil when no
// guard is set.
func (a *Account) GuardAddress() (custody.Address, error) {
	raw, err := a.db.Get(guardKey)
	if err != nil || raw == nil {
		return nil, err
	}
	return custody.Address(raw), nil
}

// resolveGuard loads the installed guard hooks, if any.
func (a *Account) resolveGuard() (Guard, error) {
	addr, err := a.GuardAddress()
	if err != nil || addr == nil {
		return nil, err
	}
	h, ok := a.env.Contract(addr)
	if !ok {
		return nil, errors.Wrapf(ErrGuard, "no contract at %s", addr)
	}
	g, ok := h.(Guard)
	if !ok {
		return nil, errors.Wrapf(ErrGuard, "contract %s does not implement the guard hooks", addr)
	}
	return g, nil
}

// guardObserveOnly reports whether guard post-check failures are
// logged instead of aborting the transaction.
func (a *Account) guardObserveOnly() (bool, error) {
	return a.db.Has(guardModeKey)
}

package account

import (
	custody "github.com/iov-one/custody"
	"github.com/iov-one/custody/errors"
	"github.com/iov-one/custody/linkedset"
)

// AddOwner enrolls a new owner and atomically moves the threshold to
// newThreshold. Only the account itself may call this.
func (a *Account) AddOwner(ctx custody.Context, owner custody.Address, newThreshold int64) error {
	if err := a.authorizeSelf(ctx); err != nil {
		return err
	}
	if owner.Equals(a.address) {
		return errors.Wrap(linkedset.ErrReservedIdentity, "account cannot own itself")
	}
	if err := a.owners.Insert(a.db, owner); err != nil {
		return err
	}
	count, err := getCount(a.db, ownerCountKey)
	if err != nil {
		return err
	}
	count++
	if err := putCount(a.db, ownerCountKey, count); err != nil {
		return err
	}
	return a.applyThreshold(ctx, newThreshold, count)
}

// RemoveOwner unenrolls an owner, given its ring predecessor, and
// atomically moves the threshold to newThreshold. The remaining owner
// count must still cover the new threshold.
func (a *Account) RemoveOwner(ctx custody.Context, pred, owner custody.Address, newThreshold int64) error {
	if err := a.authorizeSelf(ctx); err != nil {
		return err
	}
	count, err := getCount(a.db, ownerCountKey)
	if err != nil {
		return err
	}
	if count-1 < newThreshold {
		return errors.Wrapf(ErrThreshold, "%d owners left cannot cover threshold %d", count-1, newThreshold)
	}
	if err := a.owners.Remove(a.db, pred, owner); err != nil {
		return err
	}
	if err := putCount(a.db, ownerCountKey, count-1); err != nil {
		return err
	}
	return a.applyThreshold(ctx, newThreshold, count-1)
}

// SwapOwner replaces an owner with a new identity at the same ring
// position, given the outgoing owner's predecessor.
func (a *Account) SwapOwner(ctx custody.Context, pred, old, new custody.Address) error {
	if err := a.authorizeSelf(ctx); err != nil {
		return err
	}
	if new.Equals(a.address) {
		return errors.Wrap(linkedset.ErrReservedIdentity, "account cannot own itself")
	}
	return a.owners.Replace(a.db, pred, old, new)
}

// ChangeThreshold moves the confirmation threshold. The new value
// must be between one and the current owner count.
func (a *Account) ChangeThreshold(ctx custody.Context, newThreshold int64) error {
	if err := a.authorizeSelf(ctx); err != nil {
		return err
	}
	count, err := getCount(a.db, ownerCountKey)
	if err != nil {
		return err
	}
	return a.applyThreshold(ctx, newThreshold, count)
}

func (a *Account) applyThreshold(ctx custody.Context, newThreshold, ownerCount int64) error {
	if newThreshold < 1 || newThreshold > ownerCount {
		return errors.Wrapf(ErrThreshold, "threshold %d with %d owners", newThreshold, ownerCount)
	}
	cur, err := getCount(a.db, thresholdKey)
	if err != nil {
		return err
	}
	if cur == newThreshold {
		return nil
	}
	if err := putCount(a.db, thresholdKey, newThreshold); err != nil {
		return err
	}
	custody.GetLogger(ctx).Info("threshold changed", "address", a.address, "threshold", newThreshold)
	return nil
}

// IsOwner reports whether the identity is an enrolled owner. Reserved
// identities are never owners.
func (a *Account) IsOwner(owner custody.Address) (bool, error) {
	return a.owners.Contains(a.db, owner)
}

// Owners returns all enrolled owners in ring order.
func (a *Account) Owners() ([]custody.Address, error) {
	return a.owners.Members(a.db)
}

// OwnersPaginated returns up to pageSize owners following startAfter,
// together with a cursor for the next page. See linkedset.Paginate.
func (a *Account) OwnersPaginated(startAfter custody.Address, pageSize int) ([]custody.Address, custody.Address, error) {
	return a.owners.Paginate(a.db, startAfter, pageSize)
}

package account

import (
	"github.com/holiman/uint256"
	custody "github.com/iov-one/custody"
	"github.com/iov-one/custody/env"
	"github.com/iov-one/custody/errors"
)

// setupModules initializes the module ring and optionally runs a
// delegate call against initTarget's code. The call is mandatory: a
// failure aborts the whole setup.
func (a *Account) setupModules(ctx custody.Context, initTarget custody.Address, initPayload []byte) error {
	if err := a.modules.Init(a.db, nil); err != nil {
		return errors.Wrap(err, "modules")
	}
	if len(initTarget) == 0 || initTarget.IsZero() {
		return nil
	}
	_, err := a.env.DelegateCall(ctx, custody.Caller(ctx), a.address, initTarget, initPayload, a.env.GasLeft())
	if err != nil {
		return errors.Wrap(err, "setup delegate call")
	}
	return nil
}

// EnableModule enrolls a module, granting it the power to execute
// calls on behalf of the account without an ownership proof. Only the
// account itself may call this.
func (a *Account) EnableModule(ctx custody.Context, module custody.Address) error {
	if err := a.authorizeSelf(ctx); err != nil {
		return err
	}
	if err := a.modules.Insert(a.db, module); err != nil {
		return err
	}
	custody.GetLogger(ctx).Info("module enabled", "address", a.address, "module", module)
	return nil
}

// DisableModule unenrolls a module, given its ring predecessor. Only
// the account itself may call this.
func (a *Account) DisableModule(ctx custody.Context, pred, module custody.Address) error {
	if err := a.authorizeSelf(ctx); err != nil {
		return err
	}
	if err := a.modules.Remove(a.db, pred, module); err != nil {
		return err
	}
	custody.GetLogger(ctx).Info("module disabled", "address", a.address, "module", module)
	return nil
}

// IsModuleEnabled reports whether the identity is an enabled module.
func (a *Account) IsModuleEnabled(module custody.Address) (bool, error) {
	return a.modules.Contains(a.db, module)
}

// Modules returns all enabled modules in ring order.
func (a *Account) Modules() ([]custody.Address, error) {
	return a.modules.Members(a.db)
}

// ModulesPaginated returns up to pageSize modules following
// startAfter, together with a cursor for the next page.
func (a *Account) ModulesPaginated(startAfter custody.Address, pageSize int) ([]custody.Address, custody.Address, error) {
	return a.modules.Paginate(a.db, startAfter, pageSize)
}

// ExecFromModule lets an enabled module execute a call on behalf of
// the account. The boolean reports whether the inner call succeeded;
// an inner failure is signalled, not escalated, and its writes are
// rolled back.
func (a *Account) ExecFromModule(ctx custody.Context, to custody.Address, value *uint256.Int, payload []byte, kind env.CallKind) (bool, error) {
	ok, _, err := a.execFromModule(ctx, to, value, payload, kind)
	return ok, err
}

// ExecFromModuleReturnData is ExecFromModule, additionally returning
// the inner call's output.
func (a *Account) ExecFromModuleReturnData(ctx custody.Context, to custody.Address, value *uint256.Int, payload []byte, kind env.CallKind) (bool, []byte, error) {
	return a.execFromModule(ctx, to, value, payload, kind)
}

func (a *Account) execFromModule(ctx custody.Context, to custody.Address, value *uint256.Int, payload []byte, kind env.CallKind) (bool, []byte, error) {
	caller := custody.Caller(ctx)
	if caller.IsReserved() {
		return false, nil, errors.Wrap(ErrMember, "reserved identity cannot act as module")
	}
	enabled, err := a.modules.Contains(a.db, caller)
	if err != nil {
		return false, nil, err
	}
	if !enabled {
		return false, nil, errors.Wrapf(ErrMember, "%s is not enabled", caller)
	}
	var out []byte
	if kind == env.KindDelegate {
		out, err = a.env.DelegateCall(ctx, a.address, a.address, to, payload, a.env.GasLeft())
	} else {
		out, err = a.env.Call(ctx, env.Call{
			Caller:  a.address,
			To:      to,
			Value:   value,
			Payload: payload,
		}, a.env.GasLeft())
	}
	if err != nil {
		custody.GetLogger(ctx).Info("module execution failed",
			"address", a.address, "module", caller, "err", err)
		return false, nil, nil
	}
	custody.GetLogger(ctx).Debug("module execution succeeded",
		"address", a.address, "module", caller, "to", to)
	return true, out, nil
}

package account

import (
	"math"

	"github.com/holiman/uint256"
	custody "github.com/iov-one/custody"
	"github.com/iov-one/custody/env"
	"github.com/iov-one/custody/errors"
)

// Execution overhead constants mirrored into the minimum budget
// check: callOverhead must survive outside the inner call budget, and
// forwarding loses 1/64 of the remaining gas per call.
const (
	callOverhead   = 2500
	checkOverhead  = 500
	forwardQuotNum = 64
	forwardQuotDen = 63
)

// Receipt reports the outcome of an executed transaction.
type Receipt struct {
	// Digest is the domain-separated hash the proof was checked
	// against.
	Digest []byte
	// Success reports whether the inner call succeeded. A false
	// value still burns the nonce and pays the refund.
	Success bool
	// Payment is the refund paid to the submitter, zero when the
	// descriptor carried no gas price.
	Payment *uint256.Int
}

// Nonce returns the replay counter the next transaction digest must
// be computed with.
func (a *Account) Nonce() (int64, error) {
	n, _, err := a.nonce.Latest(a.db)
	return n, err
}

// ExecTransaction runs the full custody pipeline for one descriptor:
// digest and nonce burn, threshold proof verification, guard
// pre-check, budget check, the inner call, submitter refund and guard
// post-check.
//
// An inner call failure is reported through Receipt.Success, not an
// error; the failed call's writes are rolled back but the nonce stays
// burnt and the refund is still paid. Every returned error aborts the
// transaction and leaves state untouched, nonce included.
func (a *Account) ExecTransaction(ctx custody.Context, d *Descriptor, proof []byte) (*Receipt, error) {
	if err := d.Validate(); err != nil {
		return nil, errors.Wrap(err, "descriptor")
	}

	snap := a.env.Snapshot()
	receipt, err := a.execTransaction(ctx, d, proof)
	if err != nil {
		a.env.Revert(snap)
		return nil, err
	}
	if err := a.env.Commit(snap); err != nil {
		return nil, err
	}
	return receipt, nil
}

func (a *Account) execTransaction(ctx custody.Context, d *Descriptor, proof []byte) (*Receipt, error) {
	nonce, _, err := a.nonce.Latest(a.db)
	if err != nil {
		return nil, err
	}
	digest := a.TransactionHash(d, nonce)
	// The nonce is burnt before anything can fail softly so a failed
	// attempt cannot be replayed.
	if _, err := a.nonce.NextVal(a.db); err != nil {
		return nil, err
	}

	if err := a.CheckSignatures(ctx, digest, a.EncodeTransactionData(d, nonce), proof); err != nil {
		return nil, err
	}

	guard, err := a.resolveGuard()
	if err != nil {
		return nil, err
	}
	if guard != nil {
		if err := guard.CheckTransaction(ctx, a.env, d, digest, custody.Caller(ctx)); err != nil {
			return nil, errors.Wrap(err, "guard rejected transaction")
		}
	}

	if err := a.checkBudget(d); err != nil {
		return nil, err
	}

	estimating := d.SafeGas == 0 && priceIsZero(d.GasPrice)
	innerBudget := d.SafeGas
	if estimating {
		innerBudget = a.env.GasLeft()
	}
	gasUsed, success, callErr := a.innerCall(ctx, d, innerBudget)
	if !success && estimating {
		return nil, errors.Wrap(ErrCallFailed, callErr.Error())
	}

	payment := new(uint256.Int)
	if !priceIsZero(d.GasPrice) {
		payment, err = a.payRefund(ctx, d, gasUsed)
		if err != nil {
			return nil, errors.Wrap(ErrRefund, err.Error())
		}
	}

	if guard != nil {
		if err := guard.CheckAfterExecution(ctx, a.env, digest, success); err != nil {
			observe, merr := a.guardObserveOnly()
			if merr != nil {
				return nil, merr
			}
			if !observe {
				return nil, errors.Wrap(err, "guard rejected outcome")
			}
			custody.GetLogger(ctx).Info("guard post-check failed",
				"address", a.address, "err", err)
		}
	}

	custody.GetLogger(ctx).Info("transaction executed",
		"address", a.address, "nonce", nonce, "success", success,
		"payment", payment.String())
	return &Receipt{Digest: digest, Success: success, Payment: payment}, nil
}

// checkBudget ensures the ambient gas can cover the inner budget plus
// the fixed overhead: forwarding keeps only 63/64 of what is left, so
// the requirement is max(safeGas*64/63, safeGas+2500)+500.
func (a *Account) checkBudget(d *Descriptor) error {
	var need uint64
	if d.SafeGas > math.MaxUint64/forwardQuotNum {
		need = math.MaxUint64 - checkOverhead
	} else {
		need = d.SafeGas * forwardQuotNum / forwardQuotDen
		if alt := d.SafeGas + callOverhead; alt > need {
			need = alt
		}
	}
	need += checkOverhead
	if a.env.GasLeft() < need {
		return errors.Wrapf(ErrBudget, "have %d gas, need %d", a.env.GasLeft(), need)
	}
	return nil
}

// innerCall runs the descriptor's call in its own frame. A failing
// frame is rolled back by the environment; the gas it burnt is
// reported either way.
func (a *Account) innerCall(ctx custody.Context, d *Descriptor, budget uint64) (uint64, bool, error) {
	var (
		used uint64
		err  error
	)
	if d.Kind == env.KindDelegate {
		_, used, err = a.env.CallMetered(ctx, env.Call{
			Caller:  a.address,
			To:      a.address,
			Code:    d.To,
			Payload: d.Payload,
			Kind:    env.KindDelegate,
		}, budget)
	} else {
		_, used, err = a.env.CallMetered(ctx, env.Call{
			Caller:  a.address,
			To:      d.To,
			Value:   d.Value,
			Payload: d.Payload,
		}, budget)
	}
	if err != nil {
		custody.GetLogger(ctx).Info("inner call failed",
			"address", a.address, "to", d.To, "err", err)
		return used, false, err
	}
	return used, true, nil
}

// payRefund compensates the submitter for gasUsed plus the
// descriptor's base overhead. Native refunds are priced at the lower
// of the descriptor's gas price and the ambient one; token refunds
// use the descriptor price exactly.
func (a *Account) payRefund(ctx custody.Context, d *Descriptor, gasUsed uint64) (*uint256.Int, error) {
	receiver := d.RefundReceiver
	if len(receiver) == 0 || receiver.IsZero() {
		receiver = custody.Origin(ctx)
	}
	price := d.GasPrice
	native := len(d.GasToken) == 0 || d.GasToken.IsZero()
	if native {
		if ambient := custody.GasPrice(ctx); !ambient.IsZero() && ambient.Lt(price) {
			price = ambient
		}
	}
	payment := new(uint256.Int).Mul(uint256.NewInt(gasUsed+d.BaseGas), price)
	if payment.IsZero() {
		return payment, nil
	}
	if native {
		if err := a.env.Transfer(a.address, receiver, payment); err != nil {
			return nil, err
		}
		return payment, nil
	}
	if err := a.transferToken(ctx, d.GasToken, receiver, payment); err != nil {
		return nil, err
	}
	return payment, nil
}

func priceIsZero(p *uint256.Int) bool {
	return p == nil || p.IsZero()
}

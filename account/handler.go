package account

import (
	custody "github.com/iov-one/custody"
	"github.com/iov-one/custody/env"
	"github.com/iov-one/custody/errors"
)

var _ env.Handler = (*Account)(nil)
var _ SignatureValidator = (*Account)(nil)

// OnCall makes the account callable as a contract. An empty payload
// is a plain deposit. A payload carrying a known message envelope is
// dispatched to the matching operation with the frame's caller
// context, so self-calls carried inside an executed transaction reach
// the privileged operations. Anything else is forwarded to the
// fallback handler when one is installed.
func (a *Account) OnCall(ctx custody.Context, e *env.Env, call *env.Call) ([]byte, error) {
	if len(call.Payload) == 0 {
		return nil, nil
	}
	msg, err := DecodeMsg(call.Payload)
	if err != nil {
		return a.forwardToFallback(ctx, call, err)
	}
	return nil, a.dispatch(ctx, msg)
}

func (a *Account) dispatch(ctx custody.Context, msg Msg) error {
	switch m := msg.(type) {
	case *SetupMsg:
		return a.Setup(ctx, SetupConfig{
			Owners:           m.Owners,
			Threshold:        m.Threshold,
			InitTarget:       m.InitTarget,
			InitPayload:      m.InitPayload,
			FallbackHandler:  m.FallbackHandler,
			ObserveOnlyGuard: m.ObserveOnlyGuard,
			FeeToken:         m.FeeToken,
			FeeAmount:        m.FeeAmount,
			FeeReceiver:      m.FeeReceiver,
		})
	case *AddOwnerMsg:
		return a.AddOwner(ctx, m.Owner, m.Threshold)
	case *RemoveOwnerMsg:
		return a.RemoveOwner(ctx, m.Pred, m.Owner, m.Threshold)
	case *SwapOwnerMsg:
		return a.SwapOwner(ctx, m.Pred, m.Old, m.New)
	case *ChangeThresholdMsg:
		return a.ChangeThreshold(ctx, m.Threshold)
	case *EnableModuleMsg:
		return a.EnableModule(ctx, m.Module)
	case *DisableModuleMsg:
		return a.DisableModule(ctx, m.Pred, m.Module)
	case *SetGuardMsg:
		return a.SetGuard(ctx, m.Guard)
	case *SetFallbackMsg:
		return a.SetFallbackHandler(ctx, m.Handler)
	case *ApproveHashMsg:
		return a.ApproveHash(ctx, m.Digest)
	case *SignMessageMsg:
		return a.SignMessage(ctx, m.Preimage)
	default:
		return errors.Wrapf(errors.ErrMsg, "no handler for %q", msg.Path())
	}
}

// forwardToFallback relays an unintelligible payload to the installed
// fallback handler. Without one the decode error surfaces.
func (a *Account) forwardToFallback(ctx custody.Context, call *env.Call, decodeErr error) ([]byte, error) {
	fallback, err := a.FallbackHandler()
	if err != nil {
		return nil, err
	}
	if fallback == nil {
		return nil, decodeErr
	}
	return a.env.Call(ctx, env.Call{
		Caller:  a.address,
		To:      fallback,
		Payload: call.Payload,
	}, a.env.GasLeft())
}

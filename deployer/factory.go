package deployer

import (
	"encoding/binary"

	custody "github.com/iov-one/custody"
	"github.com/iov-one/custody/account"
	"github.com/iov-one/custody/crypto"
	"github.com/iov-one/custody/env"
	"github.com/iov-one/custody/errors"
)

// creationPrefix feeds the creation code hash so that deployments
// from different implementation templates land on different
// addresses.
var creationPrefix = []byte("custody-account:")

// DeploymentCallback is implemented by contracts that want to be
// notified right after a deployment. The callback runs after the
// account is fully set up; a failing callback never rolls the
// deployment back.
type DeploymentCallback interface {
	DeploymentCreated(ctx custody.Context, e *env.Env, created, implementation custody.Address, initializer []byte, saltNonce uint64) error
}

// Factory deploys custody accounts at deterministic addresses.
type Factory struct {
	env     *env.Env
	address custody.Address
	chainID uint64
}

// New returns a factory bound to its own address within the
// environment. The factory address is mixed into every derived
// account address.
func New(e *env.Env, address custody.Address, chainID uint64) *Factory {
	return &Factory{env: e, address: address, chainID: chainID}
}

// Address returns the factory's own address.
func (f *Factory) Address() custody.Address {
	return f.address
}

// Salt derives the deployment salt from the initializer payload and
// the caller chosen nonce. Identical initializers with different
// nonces, or different initializers with the same nonce, yield
// different salts.
func Salt(initializer []byte, saltNonce uint64) []byte {
	return crypto.Keccak256(crypto.Keccak256(initializer), u64be(saltNonce))
}

// ComputeAddress returns the address a deployment with these
// parameters lands on, whether or not it happened yet.
func (f *Factory) ComputeAddress(implementation custody.Address, initializer []byte, saltNonce uint64) custody.Address {
	return f.addressForSalt(implementation, Salt(initializer, saltNonce))
}

func (f *Factory) addressForSalt(implementation custody.Address, salt []byte) custody.Address {
	codeHash := crypto.Keccak256(creationPrefix, implementation)
	h := crypto.Keccak256([]byte{0xff}, f.address, salt, codeHash)
	return custody.Address(h[len(h)-custody.AddressLength:])
}

// Deploy creates an account at the address ComputeAddress predicts
// and, when an initializer payload is given, runs it against the
// fresh account. A failing initializer aborts the deployment and the
// address stays free for another attempt.
func (f *Factory) Deploy(ctx custody.Context, implementation custody.Address, initializer []byte, saltNonce uint64) (*account.Account, error) {
	return f.deploy(ctx, implementation, initializer, Salt(initializer, saltNonce))
}

// DeployWithCallback is Deploy with a post-deployment notification.
// The callback address is folded into the salt, so the same
// parameters with a different callback land on a different address.
func (f *Factory) DeployWithCallback(ctx custody.Context, implementation custody.Address, initializer []byte, saltNonce uint64, callback custody.Address) (*account.Account, error) {
	nonceWithCallback := crypto.Keccak256(u64be(saltNonce), callback)
	salt := crypto.Keccak256(crypto.Keccak256(initializer), nonceWithCallback[:8])

	acct, err := f.deploy(ctx, implementation, initializer, salt)
	if err != nil {
		return nil, err
	}
	f.notify(ctx, callback, acct.Address(), implementation, initializer, saltNonce)
	return acct, nil
}

func (f *Factory) deploy(ctx custody.Context, implementation custody.Address, initializer []byte, salt []byte) (*account.Account, error) {
	addr := f.addressForSalt(implementation, salt)
	acct := account.New(f.env, addr, f.chainID)

	snap := f.env.Snapshot()
	if err := f.env.CreateAt(addr, acct); err != nil {
		f.env.Revert(snap)
		return nil, errors.Wrapf(err, "deploy at %s", addr)
	}
	if len(initializer) != 0 {
		_, err := f.env.Call(ctx, env.Call{
			Caller:  f.address,
			To:      addr,
			Payload: initializer,
		}, f.env.GasLeft())
		if err != nil {
			f.env.Revert(snap)
			return nil, errors.Wrap(err, "initializer")
		}
	}
	if err := f.env.Commit(snap); err != nil {
		return nil, err
	}
	custody.GetLogger(ctx).Info("account deployed",
		"factory", f.address, "address", addr, "implementation", implementation)
	return acct, nil
}

// notify delivers the post-deployment callback. The deployment
// already stands, so callback trouble is only logged.
func (f *Factory) notify(ctx custody.Context, callback, created, implementation custody.Address, initializer []byte, saltNonce uint64) {
	if len(callback) == 0 || callback.IsZero() {
		return
	}
	h, ok := f.env.Contract(callback)
	if !ok {
		custody.GetLogger(ctx).Info("deployment callback missing",
			"callback", callback, "address", created)
		return
	}
	cb, ok := h.(DeploymentCallback)
	if !ok {
		custody.GetLogger(ctx).Info("deployment callback not supported",
			"callback", callback, "address", created)
		return
	}
	if err := cb.DeploymentCreated(ctx, f.env, created, implementation, initializer, saltNonce); err != nil {
		custody.GetLogger(ctx).Info("deployment callback failed",
			"callback", callback, "address", created, "err", err)
	}
}

func u64be(v uint64) []byte {
	raw := make([]byte, 8)
	binary.BigEndian.PutUint64(raw, v)
	return raw
}

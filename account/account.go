package account

import (
	"encoding/binary"

	"github.com/holiman/uint256"
	custody "github.com/iov-one/custody"
	"github.com/iov-one/custody/env"
	"github.com/iov-one/custody/errors"
	"github.com/iov-one/custody/linkedset"
)

// Storage keys within the account's contract storage.
var (
	thresholdKey  = []byte("threshold")
	ownerCountKey = []byte("ownercount")
	guardKey      = []byte("guard")
	guardModeKey  = []byte("guardmode")
	fallbackKey   = []byte("fallback")

	approvedPrefix  = []byte("approved:")
	signedMsgPrefix = []byte("signedmsg:")
)

// Account is a multi-signature custody account living at a fixed
// address inside an execution environment. All methods operate on the
// environment's current storage snapshot.
type Account struct {
	address custody.Address
	chainID uint64
	env     *env.Env
	db      custody.KVStore
	owners  linkedset.Set
	modules linkedset.Set
	nonce   custody.Sequence
}

// New binds an account instance to an address within the environment.
// The chain identifier is mixed into every transaction digest so that
// proofs cannot be replayed across deployments.
func New(e *env.Env, address custody.Address, chainID uint64) *Account {
	return &Account{
		address: address,
		chainID: chainID,
		env:     e,
		db:      e.StorageFor(address),
		owners:  linkedset.NewSet("owners"),
		modules: linkedset.NewSet("modules"),
		nonce:   custody.NewSequence("account", "nonce"),
	}
}

// Address returns the account's own address.
func (a *Account) Address() custody.Address {
	return a.address
}

// SetupConfig carries the one-time initialization parameters of an
// account.
type SetupConfig struct {
	Owners    []custody.Address
	Threshold int64

	// Optional delegate call executed during setup, for example to
	// let a module wire itself in. When InitTarget is set the call
	// must succeed or the whole setup fails.
	InitTarget  custody.Address
	InitPayload []byte

	// Optional handler that receives calls the account itself cannot
	// interpret.
	FallbackHandler custody.Address

	// When true a failing guard post-check is only logged instead of
	// aborting the transaction.
	ObserveOnlyGuard bool

	// Optional setup fee, typically reimbursing whoever funded the
	// deployment. A zero FeeToken pays in the native asset.
	FeeToken    custody.Address
	FeeAmount   *uint256.Int
	FeeReceiver custody.Address
}

// Setup initializes the owner set, threshold and optional wiring.
// It can run only once; any further configuration change must be
// authorized by the account itself.
func (a *Account) Setup(ctx custody.Context, cfg SetupConfig) error {
	if t, err := a.Threshold(); err != nil {
		return err
	} else if t != 0 {
		return errors.Wrap(ErrSetup, "account already set up")
	}
	if cfg.Threshold < 1 || cfg.Threshold > int64(len(cfg.Owners)) {
		return errors.Wrapf(ErrThreshold, "threshold %d with %d owners", cfg.Threshold, len(cfg.Owners))
	}
	for i, o := range cfg.Owners {
		if o.Equals(a.address) {
			return errors.Wrapf(linkedset.ErrReservedIdentity, "owner #%d is the account itself", i)
		}
	}
	if err := a.owners.Init(a.db, cfg.Owners); err != nil {
		return errors.Wrap(err, "owners")
	}
	if err := putCount(a.db, ownerCountKey, int64(len(cfg.Owners))); err != nil {
		return err
	}
	if err := putCount(a.db, thresholdKey, cfg.Threshold); err != nil {
		return err
	}
	if err := a.setupModules(ctx, cfg.InitTarget, cfg.InitPayload); err != nil {
		return err
	}
	if len(cfg.FallbackHandler) != 0 && !cfg.FallbackHandler.IsZero() {
		if err := a.db.Set(fallbackKey, cfg.FallbackHandler.Clone()); err != nil {
			return errors.Wrap(err, "fallback handler")
		}
	}
	if cfg.ObserveOnlyGuard {
		if err := a.db.Set(guardModeKey, []byte{1}); err != nil {
			return err
		}
	}
	if cfg.FeeAmount != nil && !cfg.FeeAmount.IsZero() {
		if err := a.paySetupFee(ctx, cfg); err != nil {
			return errors.Wrap(ErrRefund, err.Error())
		}
	}
	custody.GetLogger(ctx).Info("account set up",
		"address", a.address, "owners", len(cfg.Owners), "threshold", cfg.Threshold)
	return nil
}

func (a *Account) paySetupFee(ctx custody.Context, cfg SetupConfig) error {
	receiver := cfg.FeeReceiver
	if len(receiver) == 0 || receiver.IsZero() {
		receiver = custody.Origin(ctx)
	}
	if len(cfg.FeeToken) == 0 || cfg.FeeToken.IsZero() {
		return a.env.Transfer(a.address, receiver, cfg.FeeAmount)
	}
	return a.transferToken(ctx, cfg.FeeToken, receiver, cfg.FeeAmount)
}

func (a *Account) transferToken(ctx custody.Context, token, to custody.Address, amount *uint256.Int) error {
	h, ok := a.env.Contract(token)
	if !ok {
		return errors.Wrapf(errors.ErrNotFound, "token %s", token)
	}
	tt, ok := h.(TokenTransferer)
	if !ok {
		return errors.Wrapf(errors.ErrType, "contract %s cannot transfer tokens", token)
	}
	return tt.TransferToken(ctx, a.env, a.address, to, amount)
}

// Threshold returns the current confirmation threshold. Zero means
// the account has not been set up.
func (a *Account) Threshold() (int64, error) {
	return getCount(a.db, thresholdKey)
}

// OwnerCount returns the number of enrolled owners.
func (a *Account) OwnerCount() (int64, error) {
	return getCount(a.db, ownerCountKey)
}

// FallbackHandler returns the configured fallback handler address, or
// nil when none is set.
func (a *Account) FallbackHandler() (custody.Address, error) {
	raw, err := a.db.Get(fallbackKey)
	if err != nil || raw == nil {
		return nil, err
	}
	return custody.Address(raw), nil
}

// SetFallbackHandler changes the fallback handler. A zero address
// clears it. Only the account itself may call this.
func (a *Account) SetFallbackHandler(ctx custody.Context, handler custody.Address) error {
	if err := a.authorizeSelf(ctx); err != nil {
		return err
	}
	if len(handler) == 0 || handler.IsZero() {
		return a.db.Delete(fallbackKey)
	}
	if err := handler.Validate(); err != nil {
		return err
	}
	return a.db.Set(fallbackKey, handler.Clone())
}

// authorizeSelf ensures the immediate caller is the account address.
// Configuration changes reach this point through a self-call carried
// inside an executed transaction.
func (a *Account) authorizeSelf(ctx custody.Context) error {
	if !custody.Caller(ctx).Equals(a.address) {
		return errors.Wrap(errors.ErrUnauthorized, "only callable by the account itself")
	}
	return nil
}

func putCount(db custody.SetDeleter, key []byte, v int64) error {
	raw := make([]byte, 8)
	binary.BigEndian.PutUint64(raw, uint64(v))
	return db.Set(key, raw)
}

func getCount(db custody.ReadOnlyKVStore, key []byte) (int64, error) {
	raw, err := db.Get(key)
	if err != nil {
		return 0, err
	}
	if raw == nil {
		return 0, nil
	}
	if len(raw) != 8 {
		return 0, errors.Wrapf(errors.ErrModel, "counter %q is %d bytes", key, len(raw))
	}
	return int64(binary.BigEndian.Uint64(raw)), nil
}

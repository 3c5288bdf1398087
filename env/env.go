package env

import (
	"math"

	"github.com/holiman/uint256"
	"github.com/iov-one/custody"
	"github.com/iov-one/custody/errors"
	"github.com/tendermint/tendermint/libs/log"
)

const (
	// MaxCallDepth bounds nested call frames.
	MaxCallDepth = 1024

	// balancePrefix is the key space of native balances.
	balancePrefix = "bal:"
	// codePrefix marks addresses that host a contract. The marker lives
	// in the snapshotted store so a reverted deployment disappears.
	codePrefix = "code:"
	// storagePrefix is the per-contract storage key space.
	storagePrefix = "c:"
)

// CallKind tells apart an ordinary call from a context-preserving
// delegated call.
type CallKind byte

const (
	// KindCall runs the target's code against the target's storage.
	KindCall CallKind = iota
	// KindDelegate runs the target's code against the caller's storage
	// and identity.
	KindDelegate
)

// Call describes one call frame.
type Call struct {
	// Caller is the identity this frame acts on behalf of.
	Caller custody.Address
	// To is the identity whose storage and balance this frame touches.
	To custody.Address
	// Code is the identity whose code runs. Equal to To except in a
	// delegated call.
	Code custody.Address
	// Value is the native amount moved from Caller to To, may be nil.
	Value *uint256.Int
	// Payload is opaque input handed to the contract.
	Payload []byte
	// Kind tells how this frame was created.
	Kind CallKind
}

// Handler is the code of a registered contract.
type Handler interface {
	OnCall(ctx custody.Context, e *Env, call *Call) ([]byte, error)
}

// Env is the in-process execution environment.
type Env struct {
	base      custody.CacheableKVStore
	wraps     []custody.KVCacheWrap
	contracts map[string]Handler
	meter     *GasMeter
	depth     int
	logger    log.Logger
}

// New returns an environment over the given backing store.
func New(db custody.CacheableKVStore) *Env {
	return &Env{
		base:      db,
		contracts: make(map[string]Handler),
		logger:    custody.DefaultLogger,
	}
}

// WithLogger sets the environment logger and returns the same instance.
func (e *Env) WithLogger(logger log.Logger) *Env {
	e.logger = logger
	return e
}

// KV exposes the current (inner-most) store layer.
func (e *Env) KV() custody.KVStore {
	if n := len(e.wraps); n > 0 {
		return e.wraps[n-1]
	}
	return e.base
}

func (e *Env) top() custody.CacheableKVStore {
	if n := len(e.wraps); n > 0 {
		return e.wraps[n-1]
	}
	return e.base
}

// Snapshot pushes a new cache-wrap layer and returns its id for a later
// Commit or Revert. Snapshots must be resolved in stack order.
func (e *Env) Snapshot() int {
	e.wraps = append(e.wraps, e.top().CacheWrap())
	return len(e.wraps) - 1
}

// Commit writes the snapshot layer into its parent.
func (e *Env) Commit(id int) error {
	if id != len(e.wraps)-1 {
		return errors.Wrapf(errors.ErrHuman, "commit out of order: %d", id)
	}
	wrap := e.wraps[id]
	e.wraps = e.wraps[:id]
	return wrap.Write()
}

// Revert discards the snapshot layer and everything above it.
func (e *Env) Revert(id int) {
	for i := len(e.wraps) - 1; i >= id; i-- {
		e.wraps[i].Discard()
	}
	e.wraps = e.wraps[:id]
}

// StorageFor returns the private storage of the given contract. The
// view always resolves against the current snapshot layer.
func (e *Env) StorageFor(addr custody.Address) custody.KVStore {
	return &prefixStore{env: e, prefix: []byte(storagePrefix + string(addr) + "/")}
}

// CreateAt installs contract code at the given address. It fails if the
// address already hosts code.
func (e *Env) CreateAt(addr custody.Address, code Handler) error {
	if err := addr.Validate(); err != nil {
		return err
	}
	if has, err := e.KV().Has(codeKey(addr)); err != nil {
		return err
	} else if has {
		return errors.Wrapf(ErrOccupied, "%s", addr)
	}
	if err := e.KV().Set(codeKey(addr), []byte{1}); err != nil {
		return err
	}
	e.contracts[string(addr)] = code
	return nil
}

// Contract returns the code hosted at addr, if any. Capability
// interfaces (signature validation, token transfer, deployment
// callbacks) are discovered by type asserting the returned handler.
func (e *Env) Contract(addr custody.Address) (Handler, bool) {
	has, err := e.KV().Has(codeKey(addr))
	if err != nil || !has {
		return nil, false
	}
	h, ok := e.contracts[string(addr)]
	return h, ok
}

// Exists returns true if the address hosts a contract.
func (e *Env) Exists(addr custody.Address) bool {
	_, ok := e.Contract(addr)
	return ok
}

func codeKey(addr custody.Address) []byte {
	return []byte(codePrefix + string(addr))
}

func balanceKey(addr custody.Address) []byte {
	return []byte(balancePrefix + string(addr))
}

// Balance returns the native balance of the given address.
func (e *Env) Balance(addr custody.Address) (*uint256.Int, error) {
	raw, err := e.KV().Get(balanceKey(addr))
	if err != nil {
		return nil, err
	}
	val := uint256.NewInt(0)
	if len(raw) != 0 {
		val.SetBytes(raw)
	}
	return val, nil
}

func (e *Env) setBalance(addr custody.Address, val *uint256.Int) error {
	return e.KV().Set(balanceKey(addr), val.Bytes())
}

// Mint credits the address out of thin air. Test and genesis helper.
func (e *Env) Mint(addr custody.Address, amount *uint256.Int) error {
	bal, err := e.Balance(addr)
	if err != nil {
		return err
	}
	return e.setBalance(addr, bal.Add(bal, amount))
}

// Transfer moves native value between two addresses.
func (e *Env) Transfer(from, to custody.Address, amount *uint256.Int) error {
	if amount == nil || amount.IsZero() {
		return nil
	}
	bal, err := e.Balance(from)
	if err != nil {
		return err
	}
	if bal.Lt(amount) {
		return errors.Wrapf(ErrBalance, "%s has %s, needs %s", from, bal, amount)
	}
	if err := e.setBalance(from, bal.Sub(bal, amount)); err != nil {
		return err
	}
	dst, err := e.Balance(to)
	if err != nil {
		return err
	}
	return e.setBalance(to, dst.Add(dst, amount))
}

// GasLeft returns the remaining budget of the current frame. Without an
// active frame the budget is unbounded.
func (e *Env) GasLeft() uint64 {
	if e.meter == nil {
		return math.MaxUint64
	}
	return e.meter.Remaining()
}

// Meter exposes the current frame meter so contract code can charge for
// its own work. Nil outside of any call frame.
func (e *Env) Meter() *GasMeter {
	return e.meter
}

// Call executes one call frame with its own gas budget and snapshot.
// On handler failure the frame's writes and value movement are
// discarded and the error returned; gas spent stays spent either way.
func (e *Env) Call(ctx custody.Context, call Call, budget uint64) ([]byte, error) {
	out, _, err := e.CallMetered(ctx, call, budget)
	return out, err
}

// CallMetered is Call, additionally reporting the gas the frame
// consumed. The gas count is meaningful on failure too.
func (e *Env) CallMetered(ctx custody.Context, call Call, budget uint64) ([]byte, uint64, error) {
	if len(call.Code) == 0 {
		call.Code = call.To
	}
	if e.depth >= MaxCallDepth {
		return nil, 0, errors.Wrapf(ErrDepth, "depth %d", e.depth)
	}

	parent := e.meter
	if parent != nil && budget > parent.Remaining() {
		budget = parent.Remaining()
	}
	child := NewGasMeter(budget)
	e.meter = child
	e.depth++
	defer func() {
		e.depth--
		e.meter = parent
		if parent != nil {
			// Gas burnt below is burnt above, success or not.
			_ = parent.Consume(child.Used())
		}
	}()

	snap := e.Snapshot()

	if call.Kind == KindCall {
		if err := e.Transfer(call.Caller, call.To, call.Value); err != nil {
			e.Revert(snap)
			return nil, child.Used(), err
		}
	}

	handler, ok := e.Contract(call.Code)
	if !ok {
		if call.Kind == KindDelegate {
			e.Revert(snap)
			return nil, child.Used(), errors.Wrapf(errors.ErrNotFound, "no code at %s", call.Code)
		}
		// plain payment to a codeless address
		if err := e.Commit(snap); err != nil {
			return nil, child.Used(), err
		}
		return nil, child.Used(), nil
	}

	frameCtx := custody.WithCaller(ctx, call.Caller)
	out, err := handler.OnCall(frameCtx, e, &call)
	if err != nil {
		e.Revert(snap)
		e.logger.Debug("call reverted",
			"to", call.To.String(), "code", call.Code.String(), "err", err)
		return nil, child.Used(), err
	}
	if err := e.Commit(snap); err != nil {
		return nil, child.Used(), err
	}
	return out, child.Used(), nil
}

// DelegateCall runs the code hosted at code against the storage and
// identity of self. Value is never moved by a delegated call.
func (e *Env) DelegateCall(ctx custody.Context, caller, self, code custody.Address, payload []byte, budget uint64) ([]byte, error) {
	return e.Call(ctx, Call{
		Caller:  caller,
		To:      self,
		Code:    code,
		Payload: payload,
		Kind:    KindDelegate,
	}, budget)
}

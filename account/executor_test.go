package account

import (
	"context"
	"testing"

	"github.com/holiman/uint256"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	custody "github.com/iov-one/custody"
	"github.com/iov-one/custody/custodytest"
	"github.com/iov-one/custody/env"
	"github.com/iov-one/custody/errors"
	"github.com/iov-one/custody/store"
)

// signedProof builds a threshold proof over the descriptor digest at
// the account's current nonce.
func signedProof(t testing.TB, acct *Account, signers int, d *Descriptor) []byte {
	t.Helper()
	nonce, err := acct.Nonce()
	require.NoError(t, err)
	digest := acct.TransactionHash(d, nonce)
	pb := new(custodytest.ProofBuilder)
	for _, k := range custodytest.KeysSortedByAddress(3)[:signers] {
		pb.Signed(k, digest)
	}
	return pb.Build()
}

func TestExecTransactionTransfersValue(t *testing.T) {
	e, acct, _ := newTestAccount(t, 3, 2)
	require.NoError(t, e.Mint(acct.Address(), uint256.NewInt(100)))
	recipient := custodytest.SequentialAddress(0x61)

	d := &Descriptor{To: recipient, Value: uint256.NewInt(40)}
	receipt, err := acct.ExecTransaction(context.Background(), d, signedProof(t, acct, 2, d))
	require.NoError(t, err)
	assert.True(t, receipt.Success)
	assert.True(t, receipt.Payment.IsZero())

	bal, err := e.Balance(recipient)
	require.NoError(t, err)
	assert.Equal(t, uint256.NewInt(40), bal)

	nonce, err := acct.Nonce()
	require.NoError(t, err)
	assert.Equal(t, int64(1), nonce)
}

func TestExecTransactionRejectsReplay(t *testing.T) {
	e, acct, _ := newTestAccount(t, 3, 2)
	require.NoError(t, e.Mint(acct.Address(), uint256.NewInt(100)))
	recipient := custodytest.SequentialAddress(0x61)

	d := &Descriptor{To: recipient, Value: uint256.NewInt(10)}
	proof := signedProof(t, acct, 2, d)

	_, err := acct.ExecTransaction(context.Background(), d, proof)
	require.NoError(t, err)

	// The nonce moved, so the same proof no longer matches.
	_, err = acct.ExecTransaction(context.Background(), d, proof)
	assert.True(t, ErrProofInvalid.Is(err))
}

func TestExecTransactionSignalsInnerFailure(t *testing.T) {
	e, acct, _ := newTestAccount(t, 3, 2)
	target := custodytest.SequentialAddress(0x62)
	fail := custodytest.HandlerFunc(func(ctx custody.Context, e *env.Env, call *env.Call) ([]byte, error) {
		if err := e.StorageFor(call.To).Set([]byte("k"), []byte("v")); err != nil {
			return nil, err
		}
		return nil, errors.ErrState.New("broken")
	})
	require.NoError(t, e.CreateAt(target, fail))

	d := &Descriptor{To: target, SafeGas: 1000}
	receipt, err := acct.ExecTransaction(context.Background(), d, signedProof(t, acct, 2, d))
	require.NoError(t, err)
	assert.False(t, receipt.Success)

	// The failed frame's writes are gone, the nonce burn is not.
	raw, err := e.StorageFor(target).Get([]byte("k"))
	require.NoError(t, err)
	assert.Nil(t, raw)
	nonce, err := acct.Nonce()
	require.NoError(t, err)
	assert.Equal(t, int64(1), nonce)
}

func TestExecTransactionBadProofLeavesStateUntouched(t *testing.T) {
	_, acct, _ := newTestAccount(t, 3, 2)
	d := &Descriptor{To: custodytest.SequentialAddress(0x61)}

	nonce, err := acct.Nonce()
	require.NoError(t, err)
	digest := acct.TransactionHash(d, nonce)
	proof := new(custodytest.ProofBuilder).
		Signed(custodytest.NewKey(8), digest).
		Signed(custodytest.NewKey(9), digest).
		Build()

	_, err = acct.ExecTransaction(context.Background(), d, proof)
	assert.True(t, ErrProofInvalid.Is(err))

	after, err := acct.Nonce()
	require.NoError(t, err)
	assert.Equal(t, nonce, after)
}

func TestExecTransactionEstimationModeRequiresSuccess(t *testing.T) {
	e, acct, _ := newTestAccount(t, 3, 2)
	target := custodytest.SequentialAddress(0x62)
	rec := &custodytest.RecordingContract{Err: errors.ErrState.New("broken")}
	require.NoError(t, e.CreateAt(target, rec))

	// Zero inner budget and zero gas price marks an estimation run.
	d := &Descriptor{To: target}
	_, err := acct.ExecTransaction(context.Background(), d, signedProof(t, acct, 2, d))
	assert.True(t, ErrCallFailed.Is(err))
}

func TestExecTransactionNativeRefund(t *testing.T) {
	e, acct, _ := newTestAccount(t, 3, 2)
	require.NoError(t, e.Mint(acct.Address(), uint256.NewInt(10000)))
	target := custodytest.SequentialAddress(0x62)
	require.NoError(t, e.CreateAt(target, &custodytest.RecordingContract{Charge: 100}))
	submitter := custodytest.SequentialAddress(0x63)

	ctx := custody.WithOrigin(context.Background(), submitter)
	// The ambient price is below the descriptor's, so it wins.
	ctx = custody.WithGasPrice(ctx, uint256.NewInt(2))

	d := &Descriptor{To: target, SafeGas: 1000, BaseGas: 10, GasPrice: uint256.NewInt(5)}
	receipt, err := acct.ExecTransaction(ctx, d, signedProof(t, acct, 2, d))
	require.NoError(t, err)
	require.True(t, receipt.Success)

	want := uint256.NewInt((100 + 10) * 2)
	assert.Equal(t, want, receipt.Payment)
	bal, err := e.Balance(submitter)
	require.NoError(t, err)
	assert.Equal(t, want, bal)
}

// tokenStub records token transfers requested through it.
type tokenStub struct {
	from, to custody.Address
	amount   *uint256.Int
}

func (ts *tokenStub) OnCall(ctx custody.Context, e *env.Env, call *env.Call) ([]byte, error) {
	return nil, nil
}

func (ts *tokenStub) TransferToken(ctx custody.Context, e *env.Env, from, to custody.Address, amount *uint256.Int) error {
	ts.from, ts.to, ts.amount = from, to, amount.Clone()
	return nil
}

func TestExecTransactionTokenRefund(t *testing.T) {
	e, acct, _ := newTestAccount(t, 3, 2)
	target := custodytest.SequentialAddress(0x62)
	require.NoError(t, e.CreateAt(target, &custodytest.RecordingContract{Charge: 100}))
	token := custodytest.SequentialAddress(0x64)
	ts := &tokenStub{}
	require.NoError(t, e.CreateAt(token, ts))
	receiver := custodytest.SequentialAddress(0x65)

	// Token refunds use the descriptor price exactly, no ambient clamp.
	ctx := custody.WithGasPrice(context.Background(), uint256.NewInt(1))
	d := &Descriptor{
		To:             target,
		SafeGas:        1000,
		BaseGas:        10,
		GasPrice:       uint256.NewInt(5),
		GasToken:       token,
		RefundReceiver: receiver,
	}
	receipt, err := acct.ExecTransaction(ctx, d, signedProof(t, acct, 2, d))
	require.NoError(t, err)

	want := uint256.NewInt((100 + 10) * 5)
	assert.Equal(t, want, receipt.Payment)
	assert.Equal(t, acct.Address(), ts.from)
	assert.Equal(t, receiver, ts.to)
	assert.Equal(t, want, ts.amount)
}

func TestExecTransactionSelfAdministration(t *testing.T) {
	_, acct, _ := newTestAccount(t, 3, 2)
	extra := custodytest.SequentialAddress(0x99)

	payload, err := EncodeMsg(&AddOwnerMsg{Owner: extra, Threshold: 2})
	require.NoError(t, err)

	d := &Descriptor{To: acct.Address(), Payload: payload, SafeGas: 10000}
	receipt, err := acct.ExecTransaction(context.Background(), d, signedProof(t, acct, 2, d))
	require.NoError(t, err)
	require.True(t, receipt.Success)

	ok, err := acct.IsOwner(extra)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestExecTransactionBudgetCheck(t *testing.T) {
	e, acct, _ := newTestAccount(t, 3, 2)
	recipient := custodytest.SequentialAddress(0x61)
	d := &Descriptor{To: recipient, SafeGas: 100000}
	proof := signedProof(t, acct, 2, d)

	orch := custodytest.HandlerFunc(func(ctx custody.Context, e *env.Env, call *env.Call) ([]byte, error) {
		_, err := acct.ExecTransaction(ctx, d, proof)
		return nil, err
	})
	orchAddr := custodytest.SequentialAddress(0x66)
	require.NoError(t, e.CreateAt(orchAddr, orch))

	_, err := e.Call(context.Background(), env.Call{
		Caller: custodytest.SequentialAddress(0x67),
		To:     orchAddr,
	}, 5000)
	assert.True(t, ErrBudget.Is(err))
}

// guardStub implements the guard hooks with scriptable outcomes.
type guardStub struct {
	preErr, postErr error

	preCalls  int
	postCalls int
	success   []bool
}

func (g *guardStub) OnCall(ctx custody.Context, e *env.Env, call *env.Call) ([]byte, error) {
	return nil, nil
}

func (g *guardStub) CheckTransaction(ctx custody.Context, e *env.Env, d *Descriptor, digest []byte, executor custody.Address) error {
	g.preCalls++
	return g.preErr
}

func (g *guardStub) CheckAfterExecution(ctx custody.Context, e *env.Env, digest []byte, success bool) error {
	g.postCalls++
	g.success = append(g.success, success)
	return g.postErr
}

func installGuard(t testing.TB, e *env.Env, acct *Account, g *guardStub) {
	t.Helper()
	addr := custodytest.SequentialAddress(0x68)
	require.NoError(t, e.CreateAt(addr, g))
	require.NoError(t, acct.SetGuard(selfCtx(acct), addr))
}

func TestGuardObservesExecution(t *testing.T) {
	e, acct, _ := newTestAccount(t, 3, 2)
	g := &guardStub{}
	installGuard(t, e, acct, g)

	d := &Descriptor{To: custodytest.SequentialAddress(0x61), SafeGas: 1000}
	receipt, err := acct.ExecTransaction(context.Background(), d, signedProof(t, acct, 2, d))
	require.NoError(t, err)
	require.True(t, receipt.Success)
	assert.Equal(t, 1, g.preCalls)
	assert.Equal(t, 1, g.postCalls)
	assert.Equal(t, []bool{true}, g.success)
}

func TestGuardPreCheckVetoes(t *testing.T) {
	e, acct, _ := newTestAccount(t, 3, 2)
	g := &guardStub{preErr: errors.ErrUnauthorized.New("vetoed")}
	installGuard(t, e, acct, g)

	d := &Descriptor{To: custodytest.SequentialAddress(0x61), SafeGas: 1000}
	_, err := acct.ExecTransaction(context.Background(), d, signedProof(t, acct, 2, d))
	assert.True(t, errors.ErrUnauthorized.Is(err))

	nonce, err := acct.Nonce()
	require.NoError(t, err)
	assert.Equal(t, int64(0), nonce)
}

func TestGuardPostCheckRevertsEverything(t *testing.T) {
	e, acct, _ := newTestAccount(t, 3, 2)
	require.NoError(t, e.Mint(acct.Address(), uint256.NewInt(100)))
	g := &guardStub{postErr: errors.ErrState.New("outcome rejected")}
	installGuard(t, e, acct, g)
	recipient := custodytest.SequentialAddress(0x61)

	d := &Descriptor{To: recipient, Value: uint256.NewInt(40), SafeGas: 1000}
	_, err := acct.ExecTransaction(context.Background(), d, signedProof(t, acct, 2, d))
	assert.Error(t, err)

	// The transfer and the nonce burn are both rolled back.
	bal, err := e.Balance(recipient)
	require.NoError(t, err)
	assert.True(t, bal.IsZero())
	nonce, err := acct.Nonce()
	require.NoError(t, err)
	assert.Equal(t, int64(0), nonce)
}

func TestObserveOnlyGuardKeepsOutcome(t *testing.T) {
	e := env.New(store.MemStore())
	acct := New(e, custodytest.SequentialAddress(0x50), testChainID)
	require.NoError(t, e.CreateAt(acct.Address(), acct))
	require.NoError(t, acct.Setup(context.Background(), SetupConfig{
		Owners:           custodytest.Addresses(custodytest.KeysSortedByAddress(3)),
		Threshold:        2,
		ObserveOnlyGuard: true,
	}))
	require.NoError(t, e.Mint(acct.Address(), uint256.NewInt(100)))
	g := &guardStub{postErr: errors.ErrState.New("outcome rejected")}
	installGuard(t, e, acct, g)
	recipient := custodytest.SequentialAddress(0x61)

	d := &Descriptor{To: recipient, Value: uint256.NewInt(40), SafeGas: 1000}
	receipt, err := acct.ExecTransaction(context.Background(), d, signedProof(t, acct, 2, d))
	require.NoError(t, err)
	assert.True(t, receipt.Success)

	bal, err := e.Balance(recipient)
	require.NoError(t, err)
	assert.Equal(t, uint256.NewInt(40), bal)
}

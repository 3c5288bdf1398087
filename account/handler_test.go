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
)

func TestOnCallPlainDeposit(t *testing.T) {
	e, acct, _ := newTestAccount(t, 2, 1)
	sender := custodytest.SequentialAddress(0x77)
	require.NoError(t, e.Mint(sender, uint256.NewInt(100)))

	_, err := e.Call(context.Background(), env.Call{
		Caller: sender,
		To:     acct.Address(),
		Value:  uint256.NewInt(60),
	}, 10000)
	require.NoError(t, err)

	bal, err := e.Balance(acct.Address())
	require.NoError(t, err)
	assert.Equal(t, uint256.NewInt(60), bal)
}

func TestOnCallRejectsStrangerAdminMsg(t *testing.T) {
	e, acct, owners := newTestAccount(t, 2, 1)
	payload, err := EncodeMsg(&ChangeThresholdMsg{Threshold: 2})
	require.NoError(t, err)

	_, err = e.Call(context.Background(), env.Call{
		Caller:  owners[0],
		To:      acct.Address(),
		Payload: payload,
	}, 10000)
	assert.True(t, errors.ErrUnauthorized.Is(err))
}

func TestOnCallForwardsToFallback(t *testing.T) {
	e, acct, _ := newTestAccount(t, 2, 1)
	fallback := custodytest.SequentialAddress(0x7a)
	rec := &custodytest.RecordingContract{Output: []byte("handled")}
	require.NoError(t, e.CreateAt(fallback, rec))
	require.NoError(t, acct.SetFallbackHandler(selfCtx(acct), fallback))

	out, err := e.Call(context.Background(), env.Call{
		Caller:  custodytest.SequentialAddress(0x77),
		To:      acct.Address(),
		Payload: []byte("not an envelope"),
	}, 10000)
	require.NoError(t, err)
	assert.Equal(t, []byte("handled"), out)
	require.Equal(t, 1, rec.CallCount())
	assert.Equal(t, []byte("not an envelope"), rec.Calls[0].Payload)
}

func TestOnCallWithoutFallbackSurfacesDecodeError(t *testing.T) {
	e, acct, _ := newTestAccount(t, 2, 1)

	_, err := e.Call(context.Background(), env.Call{
		Caller:  custodytest.SequentialAddress(0x77),
		To:      acct.Address(),
		Payload: []byte("not an envelope"),
	}, 10000)
	assert.True(t, errors.ErrMsg.Is(err))
}

func TestMsgCodecRoundTrip(t *testing.T) {
	msgs := []Msg{
		&SetupMsg{
			Owners:    custodytest.Addresses(custodytest.KeysSortedByAddress(2)),
			Threshold: 2,
			FeeAmount: uint256.NewInt(11),
		},
		&AddOwnerMsg{Owner: custodytest.SequentialAddress(1), Threshold: 1},
		&RemoveOwnerMsg{Pred: custody.HeadSentinel, Owner: custodytest.SequentialAddress(1), Threshold: 1},
		&SwapOwnerMsg{Pred: custody.HeadSentinel, Old: custodytest.SequentialAddress(1), New: custodytest.SequentialAddress(2)},
		&ChangeThresholdMsg{Threshold: 3},
		&EnableModuleMsg{Module: custodytest.SequentialAddress(3)},
		&DisableModuleMsg{Pred: custody.HeadSentinel, Module: custodytest.SequentialAddress(3)},
		&SetGuardMsg{Guard: custodytest.SequentialAddress(4)},
		&SetFallbackMsg{Handler: custodytest.SequentialAddress(5)},
		&ApproveHashMsg{Digest: []byte{1, 2, 3}},
		&SignMessageMsg{Preimage: []byte("msg")},
	}
	for _, m := range msgs {
		t.Run(m.Path(), func(t *testing.T) {
			raw, err := EncodeMsg(m)
			require.NoError(t, err)
			got, err := DecodeMsg(raw)
			require.NoError(t, err)
			assert.Equal(t, m, got)
		})
	}
}

func TestDecodeMsgUnknownPath(t *testing.T) {
	_, err := DecodeMsg([]byte(`{"path": "account/unknown", "body": {}}`))
	assert.True(t, errors.ErrMsg.Is(err))
}

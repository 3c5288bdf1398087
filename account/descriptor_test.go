package account

import (
	"testing"

	"github.com/holiman/uint256"
	"github.com/stretchr/testify/assert"

	"github.com/iov-one/custody/custodytest"
	"github.com/iov-one/custody/env"
	"github.com/iov-one/custody/store"
)

func TestEncodeTransactionDataLayout(t *testing.T) {
	e := env.New(store.MemStore())
	acct := New(e, custodytest.SequentialAddress(0x50), testChainID)

	d := &Descriptor{To: custodytest.SequentialAddress(0x61)}
	raw := acct.EncodeTransactionData(d, 0)
	assert.Len(t, raw, 66)
	assert.Equal(t, byte(0x19), raw[0])
	assert.Equal(t, byte(0x01), raw[1])
	assert.Equal(t, acct.DomainHash(), raw[2:34])
}

func TestTransactionHashBindsEveryField(t *testing.T) {
	e := env.New(store.MemStore())
	acct := New(e, custodytest.SequentialAddress(0x50), testChainID)

	base := func() *Descriptor {
		return &Descriptor{
			To:      custodytest.SequentialAddress(0x61),
			Value:   uint256.NewInt(5),
			Payload: []byte("data"),
			SafeGas: 100,
			BaseGas: 10,
		}
	}
	ref := acct.TransactionHash(base(), 3)

	variants := map[string]func(*Descriptor){
		"to":              func(d *Descriptor) { d.To = custodytest.SequentialAddress(0x62) },
		"value":           func(d *Descriptor) { d.Value = uint256.NewInt(6) },
		"payload":         func(d *Descriptor) { d.Payload = []byte("tata") },
		"kind":            func(d *Descriptor) { d.Kind = env.KindDelegate },
		"safe gas":        func(d *Descriptor) { d.SafeGas = 101 },
		"base gas":        func(d *Descriptor) { d.BaseGas = 11 },
		"gas price":       func(d *Descriptor) { d.GasPrice = uint256.NewInt(1) },
		"gas token":       func(d *Descriptor) { d.GasToken = custodytest.SequentialAddress(0x63) },
		"refund receiver": func(d *Descriptor) { d.RefundReceiver = custodytest.SequentialAddress(0x64) },
	}
	for name, mutate := range variants {
		t.Run(name, func(t *testing.T) {
			d := base()
			mutate(d)
			assert.NotEqual(t, ref, acct.TransactionHash(d, 3))
		})
	}

	t.Run("nonce", func(t *testing.T) {
		assert.NotEqual(t, ref, acct.TransactionHash(base(), 4))
	})
	t.Run("account", func(t *testing.T) {
		other := New(e, custodytest.SequentialAddress(0x51), testChainID)
		assert.NotEqual(t, ref, other.TransactionHash(base(), 3))
	})
	t.Run("chain", func(t *testing.T) {
		other := New(e, acct.Address(), testChainID+1)
		assert.NotEqual(t, ref, other.TransactionHash(base(), 3))
	})
	t.Run("stable", func(t *testing.T) {
		assert.Equal(t, ref, acct.TransactionHash(base(), 3))
	})
}

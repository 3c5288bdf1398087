package custody

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memStore map[string][]byte

var _ KVStore = memStore{}

func (m memStore) Get(key []byte) ([]byte, error) { return m[string(key)], nil }
func (m memStore) Has(key []byte) (bool, error)   { return m[string(key)] != nil, nil }
func (m memStore) Set(key, value []byte) error    { m[string(key)] = value; return nil }
func (m memStore) Delete(key []byte) error        { delete(m, string(key)); return nil }
func (m memStore) NewBatch() Batch                { return memBatch{db: m} }
func (m memStore) Iterator(start, end []byte) (Iterator, error) {
	panic("not implemented")
}
func (m memStore) ReverseIterator(start, end []byte) (Iterator, error) {
	panic("not implemented")
}

// memBatch writes through immediately, good enough for tests.
type memBatch struct {
	db memStore
}

func (b memBatch) Set(key, value []byte) error { return b.db.Set(key, value) }
func (b memBatch) Delete(key []byte) error     { return b.db.Delete(key) }
func (b memBatch) Write() error                { return nil }

func TestSequenceMonotonic(t *testing.T) {
	db := memStore{}
	s := NewSequence("account", "nonce")

	for i := int64(1); i <= 10; i++ {
		n, err := s.NextInt(db)
		require.NoError(t, err)
		assert.Equal(t, i, n)

		val, _, err := s.Latest(db)
		require.NoError(t, err)
		assert.Equal(t, i, val)
	}

	var prev []byte
	for i := 0; i < 10; i++ {
		bz, err := s.NextVal(db)
		require.NoError(t, err)
		if prev != nil && bytes.Compare(bz, prev) <= 0 {
			t.Fatalf("sequence bytes not increasing: %X then %X", prev, bz)
		}
		prev = bz
	}
}

func TestSequencesAreIndependent(t *testing.T) {
	db := memStore{}
	a := NewSequence("account", "nonce")
	b := NewSequence("account", "other")

	n, err := a.NextInt(db)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	n, err = b.NextInt(db)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
}

func TestSequenceCodec(t *testing.T) {
	assert.Equal(t, int64(0), DecodeSequence(nil))
	for _, v := range []int64{0, 1, 255, 256, 1 << 40} {
		assert.Equal(t, v, DecodeSequence(EncodeSequence(v)))
	}
}

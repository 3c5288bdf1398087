package env

import (
	"github.com/iov-one/custody"
)

// prefixStore is a view of the environment store limited to one key
// prefix. It resolves against the current snapshot layer on every
// operation, so contract storage handles stay valid across snapshots.
type prefixStore struct {
	env    *Env
	prefix []byte
}

var _ custody.KVStore = (*prefixStore)(nil)

func (p *prefixStore) key(key []byte) []byte {
	return append(append([]byte{}, p.prefix...), key...)
}

func (p *prefixStore) Get(key []byte) ([]byte, error) {
	return p.env.KV().Get(p.key(key))
}

func (p *prefixStore) Has(key []byte) (bool, error) {
	return p.env.KV().Has(p.key(key))
}

func (p *prefixStore) Set(key, value []byte) error {
	return p.env.KV().Set(p.key(key), value)
}

func (p *prefixStore) Delete(key []byte) error {
	return p.env.KV().Delete(p.key(key))
}

func (p *prefixStore) NewBatch() custody.Batch {
	return &prefixBatch{store: p, batch: p.env.KV().NewBatch()}
}

// prefixRange returns the absolute iteration bounds for a relative
// range. A nil end means "everything with the prefix".
func (p *prefixStore) prefixRange(start, end []byte) ([]byte, []byte) {
	absStart := p.key(start)
	var absEnd []byte
	if end != nil {
		absEnd = p.key(end)
	} else {
		// smallest key strictly above all prefixed keys
		absEnd = append([]byte{}, p.prefix...)
		for i := len(absEnd) - 1; i >= 0; i-- {
			if absEnd[i] < 0xff {
				absEnd[i]++
				absEnd = absEnd[:i+1]
				break
			}
		}
	}
	return absStart, absEnd
}

func (p *prefixStore) Iterator(start, end []byte) (custody.Iterator, error) {
	absStart, absEnd := p.prefixRange(start, end)
	iter, err := p.env.KV().Iterator(absStart, absEnd)
	if err != nil {
		return nil, err
	}
	return &prefixIterator{iter: iter, skip: len(p.prefix)}, nil
}

func (p *prefixStore) ReverseIterator(start, end []byte) (custody.Iterator, error) {
	absStart, absEnd := p.prefixRange(start, end)
	iter, err := p.env.KV().ReverseIterator(absStart, absEnd)
	if err != nil {
		return nil, err
	}
	return &prefixIterator{iter: iter, skip: len(p.prefix)}, nil
}

type prefixIterator struct {
	iter custody.Iterator
	skip int
}

var _ custody.Iterator = (*prefixIterator)(nil)

func (i *prefixIterator) Valid() bool   { return i.iter.Valid() }
func (i *prefixIterator) Next() error   { return i.iter.Next() }
func (i *prefixIterator) Key() []byte   { return i.iter.Key()[i.skip:] }
func (i *prefixIterator) Value() []byte { return i.iter.Value() }
func (i *prefixIterator) Close()        { i.iter.Close() }

type prefixBatch struct {
	store *prefixStore
	batch custody.Batch
}

var _ custody.Batch = (*prefixBatch)(nil)

func (b *prefixBatch) Set(key, value []byte) error {
	return b.batch.Set(b.store.key(key), value)
}

func (b *prefixBatch) Delete(key []byte) error {
	return b.batch.Delete(b.store.key(key))
}

func (b *prefixBatch) Write() error {
	return b.batch.Write()
}

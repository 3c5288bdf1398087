package linkedset

import (
	"github.com/iov-one/custody"
	"github.com/iov-one/custody/errors"
)

// maxWalk caps ring traversal so a corrupted store cannot spin forever.
const maxWalk = 1 << 20

// Set is a sentinel-headed singly linked set of addresses. Each member
// is stored under <prefix>:<member> with the value being its successor.
// The zero value is not usable, use NewSet.
type Set struct {
	prefix []byte
}

// NewSet returns a set storing its members under the given key prefix.
// Two sets with different prefixes are fully independent even when
// sharing a store.
func NewSet(prefix string) Set {
	return Set{prefix: []byte(prefix + ":")}
}

func (s Set) key(member custody.Address) []byte {
	return append(append([]byte{}, s.prefix...), member...)
}

func (s Set) successor(db custody.KVStore, member custody.Address) (custody.Address, error) {
	raw, err := db.Get(s.key(member))
	if err != nil {
		return nil, errors.Wrap(err, "successor lookup")
	}
	return custody.Address(raw), nil
}

func validMember(member custody.Address) error {
	if err := member.Validate(); err != nil {
		return err
	}
	if member.IsReserved() {
		return errors.Wrapf(ErrReservedIdentity, "%s", member)
	}
	return nil
}

// Initialized returns true once Init successfully built the ring.
func (s Set) Initialized(db custody.KVStore) (bool, error) {
	return db.Has(s.key(custody.HeadSentinel))
}

// Init builds the ring in input order: the first listed member ends up
// directly after the head sentinel. It fails if the set was already
// initialized, or if members contain a reserved value or a duplicate.
func (s Set) Init(db custody.KVStore, members []custody.Address) error {
	if ok, err := s.Initialized(db); err != nil {
		return err
	} else if ok {
		return errors.Wrap(errors.ErrImmutable, "already initialized")
	}

	prev := custody.HeadSentinel
	for i, m := range members {
		if err := validMember(m); err != nil {
			return errors.Field("Members", err, "member %d", i)
		}
		if has, err := db.Has(s.key(m)); err != nil {
			return err
		} else if has {
			return errors.Field("Members", errors.Wrapf(errors.ErrDuplicate, "%s", m), "member %d", i)
		}
		if err := db.Set(s.key(prev), m); err != nil {
			return err
		}
		prev = m
	}
	// close the ring
	return db.Set(s.key(prev), custody.HeadSentinel)
}

// Contains returns true if member is currently part of the set. O(1).
func (s Set) Contains(db custody.KVStore, member custody.Address) (bool, error) {
	if member.IsReserved() {
		return false, nil
	}
	succ, err := s.successor(db, member)
	if err != nil {
		return false, err
	}
	return len(succ) != 0, nil
}

// Insert adds a member directly after the head sentinel. It fails on a
// reserved identity, an existing member, or an uninitialized set.
func (s Set) Insert(db custody.KVStore, member custody.Address) error {
	if err := validMember(member); err != nil {
		return err
	}
	if has, err := s.Contains(db, member); err != nil {
		return err
	} else if has {
		return errors.Wrapf(errors.ErrDuplicate, "%s", member)
	}
	first, err := s.successor(db, custody.HeadSentinel)
	if err != nil {
		return err
	}
	if len(first) == 0 {
		return errors.Wrap(ErrNotInitialized, "no head")
	}
	if err := db.Set(s.key(member), first); err != nil {
		return err
	}
	return db.Set(s.key(custody.HeadSentinel), member)
}

// Remove unlinks member, given its current predecessor. It fails unless
// the predecessor's successor is exactly the member.
func (s Set) Remove(db custody.KVStore, pred, member custody.Address) error {
	if err := validMember(member); err != nil {
		return err
	}
	next, err := s.successor(db, pred)
	if err != nil {
		return err
	}
	if !next.Equals(member) {
		return errors.Wrapf(ErrLinkage, "%s does not precede %s", pred, member)
	}
	succ, err := s.successor(db, member)
	if err != nil {
		return err
	}
	if err := db.Set(s.key(pred), succ); err != nil {
		return err
	}
	return db.Delete(s.key(member))
}

// Replace atomically swaps oldMember for newMember, preserving the ring
// position. Identity guards are the combination of Insert and Remove.
func (s Set) Replace(db custody.KVStore, pred, oldMember, newMember custody.Address) error {
	if err := validMember(newMember); err != nil {
		return err
	}
	if has, err := s.Contains(db, newMember); err != nil {
		return err
	} else if has {
		return errors.Wrapf(errors.ErrDuplicate, "%s", newMember)
	}
	if err := validMember(oldMember); err != nil {
		return err
	}
	next, err := s.successor(db, pred)
	if err != nil {
		return err
	}
	if !next.Equals(oldMember) {
		return errors.Wrapf(ErrLinkage, "%s does not precede %s", pred, oldMember)
	}
	succ, err := s.successor(db, oldMember)
	if err != nil {
		return err
	}
	if err := db.Set(s.key(newMember), succ); err != nil {
		return err
	}
	if err := db.Set(s.key(pred), newMember); err != nil {
		return err
	}
	return db.Delete(s.key(oldMember))
}

// Walk visits every member in ring order. The callback returns false to
// stop early.
func (s Set) Walk(db custody.KVStore, fn func(member custody.Address) (bool, error)) error {
	cursor, err := s.successor(db, custody.HeadSentinel)
	if err != nil {
		return err
	}
	if len(cursor) == 0 {
		return errors.Wrap(ErrNotInitialized, "no head")
	}
	for steps := 0; !cursor.Equals(custody.HeadSentinel); steps++ {
		if steps >= maxWalk {
			return errors.Wrap(errors.ErrDatabase, "ring does not close")
		}
		more, err := fn(cursor)
		if err != nil {
			return err
		}
		if !more {
			return nil
		}
		cursor, err = s.successor(db, cursor)
		if err != nil {
			return err
		}
		if len(cursor) == 0 {
			return errors.Wrap(errors.ErrDatabase, "dangling successor")
		}
	}
	return nil
}

// Members returns all members in ring order.
func (s Set) Members(db custody.KVStore) ([]custody.Address, error) {
	var members []custody.Address
	err := s.Walk(db, func(m custody.Address) (bool, error) {
		members = append(members, m)
		return true, nil
	})
	return members, err
}

// Paginate returns up to pageSize members beginning after startAfter,
// plus a cursor for the next page. Passing an empty or zero address
// starts from the beginning. The head sentinel cursor signals
// end-of-list.
func (s Set) Paginate(db custody.KVStore, startAfter custody.Address, pageSize int) ([]custody.Address, custody.Address, error) {
	if pageSize < 1 {
		return nil, nil, errors.Wrap(errors.ErrInput, "page size must be positive")
	}
	start := startAfter
	if start.IsZero() {
		start = custody.HeadSentinel
	}
	if !start.Equals(custody.HeadSentinel) {
		if has, err := s.Contains(db, start); err != nil {
			return nil, nil, err
		} else if !has {
			return nil, nil, errors.Wrapf(errors.ErrNotFound, "cursor %s", start)
		}
	}

	page := make([]custody.Address, 0, pageSize)
	cursor, err := s.successor(db, start)
	if err != nil {
		return nil, nil, err
	}
	if len(cursor) == 0 {
		return nil, nil, errors.Wrap(ErrNotInitialized, "no head")
	}
	for len(page) < pageSize && !cursor.Equals(custody.HeadSentinel) {
		page = append(page, cursor)
		cursor, err = s.successor(db, cursor)
		if err != nil {
			return nil, nil, err
		}
		if len(cursor) == 0 {
			return nil, nil, errors.Wrap(errors.ErrDatabase, "dangling successor")
		}
	}

	next := custody.HeadSentinel
	if !cursor.Equals(custody.HeadSentinel) {
		// more members remain, continue after the last returned one
		next = page[len(page)-1]
	}
	return page, next, nil
}

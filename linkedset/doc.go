/*
Package linkedset implements a sentinel-headed singly linked set of
addresses stored directly in a key-value store.

Every member maps to its successor and the ring is closed: walking from
the head sentinel by successor always returns to the head sentinel.
This gives O(1) insert, remove and membership checks without keeping a
separate count, and a natural paginated traversal.

The set enforces structural invariants only. Callers gate who may
mutate it.
*/
package linkedset

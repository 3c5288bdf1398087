/*
Package env provides the execution environment the custody account runs
atop: registered contracts addressable by identity, native balances, a
per-frame gas budget, and atomic call execution with snapshot based
rollback.

Every call runs in its own cache-wrap of the backing store. A failing
call discards its wrap, so its writes and balance movements are never
observed by the caller. Nested calls into registered contracts are
fully re-entrant: a contract may call back into any other contract,
including the one that invoked it.
*/
package env

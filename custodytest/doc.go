/*
Package custodytest provides helpers for testing custody accounts:
deterministic identities and keys, aggregate proof builders and
scriptable contracts for plugging into a test environment.
*/
package custodytest

/*
Package account implements a multi-signature custody account.

An account is owned by a set of member identities kept in a
sentinel-linked ring together with a confirmation threshold. State
transitions against the outside world go through ExecTransaction,
which verifies an aggregate ownership proof over a domain-separated
transaction digest, burns a replay nonce and optionally refunds the
submitter for the gas spent. Privileged configuration changes (owner
and module management, threshold, guard and fallback wiring) are only
accepted when the account calls itself, which in practice means they
ride inside an executed transaction.

Modules are trusted co-signers: once enabled they may execute calls
on behalf of the account without any ownership proof.
*/
package account

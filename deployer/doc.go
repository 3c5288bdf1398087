/*
Package deployer creates custody accounts at addresses that can be
computed ahead of time. The address depends only on the factory, the
implementation template, the initializer payload and a caller chosen
salt nonce, so counterparties can fund or reference an account before
it exists.
*/
package deployer

/*

Package custody defines the interfaces shared by every part of the
multi-signature custody account: storage, identity addressing, call
context and counters. Look into this package for an overview of the
building blocks before diving into account, env or deployer.

*/

package custody

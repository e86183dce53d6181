/*
Package x contains the helpers shared by all extensions.

Extensions never read signatures directly. They receive an Authenticator and
ask it which conditions were fulfilled by the current transaction, so the
same handler works with signatures, with an identity executing on its own
behalf or with a batch of both.
*/
package x

package weavetest

import (
	"encoding/binary"

	weave "github.com/iov-one/weave-identity"
	"github.com/iov-one/weave-identity/crypto"
)

// NewKey returns a new, random ed25519 private key.
func NewKey() *crypto.PrivateKey {
	return crypto.GenPrivKeyEd25519()
}

// NewCondition returns a condition of a random signature.
func NewCondition() weave.Condition {
	return NewKey().PublicKey().Condition()
}

// SequenceID returns the binary representation of a sequence value, as
// produced by the orm sequence.
func SequenceID(n uint64) []byte {
	b := make([]byte, 8)
	binary.BigEndian.PutUint64(b, n)
	return b
}

package sigs

import (
	weave "github.com/iov-one/weave-identity"
	"github.com/iov-one/weave-identity/weavetest"
)

// StdTx implements a signed transaction for tests.
type StdTx struct {
	weave.Tx
	Signatures []*StdSignature
}

var _ SignedTx = (*StdTx)(nil)
var _ weave.Tx = (*StdTx)(nil)

func NewStdTx(payload []byte) *StdTx {
	msg := &weavetest.Msg{RoutePath: "test/mock", Serialized: payload}
	return &StdTx{Tx: &weavetest.Tx{Msg: msg}}
}

func (tx StdTx) GetSignatures() []*StdSignature {
	return tx.Signatures
}

func (tx StdTx) GetSignBytes() ([]byte, error) {
	msg, err := tx.Tx.GetMsg()
	if err != nil {
		return nil, err
	}
	return msg.Marshal()
}

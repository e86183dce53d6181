package identityd

import (
	weave "github.com/iov-one/weave-identity"
	"github.com/iov-one/weave-identity/codec"
	"github.com/iov-one/weave-identity/errors"
	"github.com/iov-one/weave-identity/x/sigs"
)

// Tx is the transaction format of the identity chain: one message and the
// signatures authorizing it.
type Tx struct {
	Msg        weave.Msg
	Signatures []*sigs.StdSignature
}

var (
	_ weave.Tx      = (*Tx)(nil)
	_ sigs.SignedTx = (*Tx)(nil)
)

// TxDecoder creates a Tx and unmarshals bytes into it
func TxDecoder(bz []byte) (weave.Tx, error) {
	tx := new(Tx)
	if err := tx.Unmarshal(bz); err != nil {
		return nil, err
	}
	return tx, nil
}

func (tx *Tx) GetMsg() (weave.Msg, error) {
	if tx.Msg == nil {
		return nil, errors.Wrap(errors.ErrEmpty, "no message")
	}
	return tx.Msg, nil
}

func (tx *Tx) GetSignatures() []*sigs.StdSignature {
	return tx.Signatures
}

// GetSignBytes returns the bytes to sign: the transaction serialized
// without any signatures.
func (tx *Tx) GetSignBytes() ([]byte, error) {
	unsigned := Tx{Msg: tx.Msg}
	return unsigned.Marshal()
}

func (tx *Tx) Marshal() ([]byte, error) {
	var e codec.Encoder
	if tx.Msg != nil {
		e.Message(1, sum{msg: tx.Msg})
	}
	for _, s := range tx.Signatures {
		e.Message(2, s)
	}
	return e.Finish()
}

func (tx *Tx) Unmarshal(raw []byte) error {
	*tx = Tx{}
	return codec.Walk(raw, func(f codec.Field) error {
		switch f.Num {
		case 1:
			b, err := f.Bytes()
			if err != nil {
				return err
			}
			tx.Msg, err = DecodeMsg(b)
			return err
		case 2:
			var s sigs.StdSignature
			if err := f.Message(&s); err != nil {
				return err
			}
			tx.Signatures = append(tx.Signatures, &s)
		}
		return nil
	})
}

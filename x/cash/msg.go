package cash

import (
	weave "github.com/iov-one/weave-identity"
	"github.com/iov-one/weave-identity/codec"
	"github.com/iov-one/weave-identity/coin"
	"github.com/iov-one/weave-identity/errors"
)

const (
	sendTxCost int64 = 100

	maxMemoSize int = 128
	maxRefSize  int = 64
)

// SendMsg moves coins from the source to the destination account.
type SendMsg struct {
	Metadata    *weave.Metadata
	Source      weave.Address
	Destination weave.Address
	Amount      *coin.Coin
	Memo        string
	Ref         []byte
}

var _ weave.Msg = (*SendMsg)(nil)

// Path returns the routing path for this message
func (SendMsg) Path() string {
	return "cash/send"
}

// Validate makes sure that this is sensible
func (m *SendMsg) Validate() error {
	var err error
	err = errors.AppendField(err, "Metadata", m.Metadata.Validate())
	if coin.IsEmpty(m.Amount) || !m.Amount.IsPositive() {
		err = errors.AppendField(err, "Amount", errors.Wrapf(errors.ErrAmount, "non-positive amount: %v", m.Amount))
	} else {
		err = errors.AppendField(err, "Amount", m.Amount.Validate())
	}
	err = errors.AppendField(err, "Source", m.Source.Validate())
	err = errors.AppendField(err, "Destination", m.Destination.Validate())
	if len(m.Memo) > maxMemoSize {
		err = errors.AppendField(err, "Memo", errors.Wrap(errors.ErrInput, "memo too long"))
	}
	if len(m.Ref) > maxRefSize {
		err = errors.AppendField(err, "Ref", errors.Wrap(errors.ErrInput, "ref too long"))
	}
	return err
}

func (m *SendMsg) Marshal() ([]byte, error) {
	var e codec.Encoder
	e.Message(1, m.Metadata)
	e.Bytes(2, m.Source)
	e.Bytes(3, m.Destination)
	e.Message(4, m.Amount)
	e.String(5, m.Memo)
	e.Bytes(6, m.Ref)
	return e.Finish()
}

func (m *SendMsg) Unmarshal(raw []byte) error {
	*m = SendMsg{}
	return codec.Walk(raw, func(f codec.Field) error {
		var err error
		switch f.Num {
		case 1:
			m.Metadata = &weave.Metadata{}
			err = f.Message(m.Metadata)
		case 2:
			m.Source, err = f.Bytes()
		case 3:
			m.Destination, err = f.Bytes()
		case 4:
			m.Amount = &coin.Coin{}
			err = f.Message(m.Amount)
		case 5:
			m.Memo, err = f.Text()
		case 6:
			m.Ref, err = f.Bytes()
		}
		return err
	})
}

package sigs

import (
	weave "github.com/iov-one/weave-identity"
	"github.com/iov-one/weave-identity/codec"
	"github.com/iov-one/weave-identity/errors"
)

// BumpSequenceMsg increments the sequence of the main signer.
type BumpSequenceMsg struct {
	Metadata *weave.Metadata
	// Increment is the value the sequence is increased by. Processing the
	// transaction itself already counts as one.
	Increment uint32
}

var _ weave.Msg = (*BumpSequenceMsg)(nil)

func (BumpSequenceMsg) Path() string {
	return "sigs/bump_sequence"
}

func (msg *BumpSequenceMsg) Validate() error {
	var errs error
	errs = errors.AppendField(errs, "Metadata", msg.Metadata.Validate())
	if msg.Increment < 1 {
		errs = errors.AppendField(errs, "Increment", errors.Wrap(errors.ErrMsg, "increment must be greater than zero"))
	}
	if msg.Increment > 1000 {
		errs = errors.AppendField(errs, "Increment", errors.Wrap(errors.ErrMsg, "increment must not be greater than 1000"))
	}
	return errs
}

func (msg *BumpSequenceMsg) Marshal() ([]byte, error) {
	var e codec.Encoder
	e.Message(1, msg.Metadata)
	e.Uint64(2, uint64(msg.Increment))
	return e.Finish()
}

func (msg *BumpSequenceMsg) Unmarshal(raw []byte) error {
	*msg = BumpSequenceMsg{}
	return codec.Walk(raw, func(f codec.Field) error {
		switch f.Num {
		case 1:
			msg.Metadata = &weave.Metadata{}
			return f.Message(msg.Metadata)
		case 2:
			v, err := f.Uint64()
			msg.Increment = uint32(v)
			return err
		}
		return nil
	})
}

package batch

import (
	weave "github.com/iov-one/weave-identity"
	"github.com/iov-one/weave-identity/errors"
)

// MaxBatchMessages is the maximum number of messages a batch can carry.
const MaxBatchMessages = 10

// Msg is implemented by every application specific batch message.
type Msg interface {
	weave.Msg
	MsgList() ([]weave.Msg, error)
}

// Validate checks the size of the batch and the validity of every
// contained message. Application batch messages call it from their own
// Validate method.
func Validate(msg Msg) error {
	l, err := msg.MsgList()
	if err != nil {
		return errors.Wrap(err, "cannot retrieve batch message")
	}
	if len(l) > MaxBatchMessages {
		return errors.Wrapf(errors.ErrInput, "transaction is too large, max: %d", MaxBatchMessages)
	}
	for i, m := range l {
		if m == nil {
			return errors.Wrapf(errors.ErrEmpty, "message %d", i)
		}
		if _, ok := m.(Msg); ok {
			return errors.Wrapf(errors.ErrMsg, "message %d: nested batch", i)
		}
		if err := m.Validate(); err != nil {
			return errors.Wrapf(err, "message %d", i)
		}
	}
	return nil
}

package identityd

import (
	weave "github.com/iov-one/weave-identity"
	"github.com/iov-one/weave-identity/codec"
	"github.com/iov-one/weave-identity/errors"
	"github.com/iov-one/weave-identity/x/batch"
	"github.com/iov-one/weave-identity/x/cash"
	"github.com/iov-one/weave-identity/x/identity"
	"github.com/iov-one/weave-identity/x/sigs"
)

// Every message the application accepts is serialized as a single field
// of a "sum" message. The field number selects the type.
func msgField(msg weave.Msg) (int, bool) {
	switch msg.(type) {
	case *cash.SendMsg:
		return 1, true
	case *sigs.BumpSequenceMsg:
		return 2, true
	case *identity.CreateIdentityMsg:
		return 10, true
	case *identity.AddKeyMsg:
		return 11, true
	case *identity.RemoveKeyMsg:
		return 12, true
	case *identity.SubmitMsg:
		return 13, true
	case *identity.ApproveMsg:
		return 14, true
	case *identity.ChangeThresholdMsg:
		return 15, true
	case *identity.PauseMsg:
		return 16, true
	case *identity.UnpauseMsg:
		return 17, true
	case *identity.DestroyMsg:
		return 18, true
	case *identity.UpdateConfigurationMsg:
		return 19, true
	case *ExecuteBatchMsg:
		return 20, true
	}
	return 0, false
}

func newMsg(field int) (weave.Msg, bool) {
	switch field {
	case 1:
		return &cash.SendMsg{}, true
	case 2:
		return &sigs.BumpSequenceMsg{}, true
	case 10:
		return &identity.CreateIdentityMsg{}, true
	case 11:
		return &identity.AddKeyMsg{}, true
	case 12:
		return &identity.RemoveKeyMsg{}, true
	case 13:
		return &identity.SubmitMsg{}, true
	case 14:
		return &identity.ApproveMsg{}, true
	case 15:
		return &identity.ChangeThresholdMsg{}, true
	case 16:
		return &identity.PauseMsg{}, true
	case 17:
		return &identity.UnpauseMsg{}, true
	case 18:
		return &identity.DestroyMsg{}, true
	case 19:
		return &identity.UpdateConfigurationMsg{}, true
	case 20:
		return &ExecuteBatchMsg{}, true
	}
	return nil, false
}

// EncodeMsg serializes a message together with its type. This is the format
// of transaction messages and of execution request payloads.
func EncodeMsg(msg weave.Msg) ([]byte, error) {
	field, ok := msgField(msg)
	if !ok {
		return nil, errors.Wrapf(errors.ErrMsg, "unsupported message %T", msg)
	}
	var e codec.Encoder
	e.Message(field, msg)
	return e.Finish()
}

// DecodeMsg parses a message serialized with EncodeMsg.
func DecodeMsg(raw []byte) (weave.Msg, error) {
	var msg weave.Msg
	err := codec.Walk(raw, func(f codec.Field) error {
		m, ok := newMsg(f.Num)
		if !ok {
			return errors.Wrapf(errors.ErrMsg, "unknown message field %d", f.Num)
		}
		if msg != nil {
			return errors.Wrap(errors.ErrMsg, "more than one message")
		}
		msg = m
		return f.Message(m)
	})
	if err != nil {
		return nil, err
	}
	if msg == nil {
		return nil, errors.Wrap(errors.ErrEmpty, "no message")
	}
	return msg, nil
}

// sum adapts a message to its EncodeMsg form so it can be nested.
type sum struct {
	msg weave.Msg
}

func (s sum) Marshal() ([]byte, error) {
	return EncodeMsg(s.msg)
}

// ExecuteBatchMsg delivers a list of messages in a single transaction. All
// of them succeed or the whole transaction fails.
type ExecuteBatchMsg struct {
	Metadata *weave.Metadata
	Messages []weave.Msg
}

var _ batch.Msg = (*ExecuteBatchMsg)(nil)

func (ExecuteBatchMsg) Path() string {
	return "batch/execute"
}

func (m *ExecuteBatchMsg) MsgList() ([]weave.Msg, error) {
	return m.Messages, nil
}

func (m *ExecuteBatchMsg) Validate() error {
	if err := m.Metadata.Validate(); err != nil {
		return errors.Wrap(err, "metadata")
	}
	return batch.Validate(m)
}

func (m *ExecuteBatchMsg) Marshal() ([]byte, error) {
	var e codec.Encoder
	e.Message(1, m.Metadata)
	for _, msg := range m.Messages {
		e.Message(2, sum{msg: msg})
	}
	return e.Finish()
}

func (m *ExecuteBatchMsg) Unmarshal(raw []byte) error {
	*m = ExecuteBatchMsg{}
	return codec.Walk(raw, func(f codec.Field) error {
		switch f.Num {
		case 1:
			m.Metadata = &weave.Metadata{}
			return f.Message(m.Metadata)
		case 2:
			b, err := f.Bytes()
			if err != nil {
				return err
			}
			msg, err := DecodeMsg(b)
			if err != nil {
				return errors.Wrapf(err, "batch message %d", len(m.Messages))
			}
			m.Messages = append(m.Messages, msg)
		}
		return nil
	})
}

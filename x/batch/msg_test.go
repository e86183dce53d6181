package batch_test

import (
	"testing"

	weave "github.com/iov-one/weave-identity"
	"github.com/iov-one/weave-identity/errors"
	"github.com/iov-one/weave-identity/weavetest"
	"github.com/iov-one/weave-identity/x/batch"
	. "github.com/smartystreets/goconvey/convey"
	"github.com/stretchr/testify/mock"
)

var _ batch.Msg = (*mockMsg)(nil)

type mockMsg struct {
	mock.Mock
}

func (m *mockMsg) Marshal() ([]byte, error) {
	panic("implement me")
}

func (m *mockMsg) Unmarshal([]byte) error {
	panic("implement me")
}

func (m *mockMsg) Path() string {
	return "batch/execute"
}

func (m *mockMsg) Validate() error {
	args := m.Mock.Called()
	return args.Error(0)
}

func (m *mockMsg) MsgList() ([]weave.Msg, error) {
	args := m.Mock.Called()
	return args.Get(0).([]weave.Msg), args.Error(1)
}

func msgs(n int) []weave.Msg {
	l := make([]weave.Msg, n)
	for i := range l {
		l[i] = &weavetest.Msg{RoutePath: "identity/approve"}
	}
	return l
}

func TestValidate(t *testing.T) {
	Convey("Test Validate", t, func() {
		msg := &mockMsg{}

		Convey("Test happy flow", func() {
			msg.On("MsgList").Return(msgs(batch.MaxBatchMessages), nil)
			So(batch.Validate(msg), ShouldBeNil)
		})

		Convey("Test list too long", func() {
			msg.On("MsgList").Return(msgs(batch.MaxBatchMessages+1), nil)
			So(errors.ErrInput.Is(batch.Validate(msg)), ShouldBeTrue)
		})

		Convey("Test list error", func() {
			msg.On("MsgList").Return(msgs(2), errors.ErrHuman)
			So(errors.ErrHuman.Is(batch.Validate(msg)), ShouldBeTrue)
		})

		Convey("Test invalid element", func() {
			l := msgs(3)
			l[1] = &weavetest.Msg{ValidErr: errors.ErrMsg}
			msg.On("MsgList").Return(l, nil)
			So(errors.ErrMsg.Is(batch.Validate(msg)), ShouldBeTrue)
		})

		Convey("Test missing element", func() {
			l := msgs(3)
			l[2] = nil
			msg.On("MsgList").Return(l, nil)
			So(errors.ErrEmpty.Is(batch.Validate(msg)), ShouldBeTrue)
		})

		Convey("Test nested batch", func() {
			msg.On("MsgList").Return([]weave.Msg{&mockMsg{}}, nil)
			So(errors.ErrMsg.Is(batch.Validate(msg)), ShouldBeTrue)
		})
	})
}

package identity

import (
	"encoding/hex"
	"fmt"

	weave "github.com/iov-one/weave-identity"
	"github.com/iov-one/weave-identity/codec"
	"github.com/iov-one/weave-identity/coin"
	"github.com/iov-one/weave-identity/errors"
	"github.com/iov-one/weave-identity/orm"
	"github.com/tendermint/tendermint/libs/common"
)

// EventType names a notification emitted by the execution engine.
type EventType uint32

const (
	SubmittedEvent        EventType = 1
	ApprovedEvent         EventType = 2
	ExecutedEvent         EventType = 3
	ExecutionFailedEvent  EventType = 4
	ThresholdChangedEvent EventType = 5
)

func (t EventType) String() string {
	switch t {
	case SubmittedEvent:
		return "submitted"
	case ApprovedEvent:
		return "approved"
	case ExecutedEvent:
		return "executed"
	case ExecutionFailedEvent:
		return "execution_failed"
	case ThresholdChangedEvent:
		return "threshold_changed"
	}
	return fmt.Sprintf("event(%d)", uint32(t))
}

// Event is an append only record of what happened to an identity. Only the
// fields relevant for the type are set.
type Event struct {
	Metadata   *weave.Metadata
	IdentityID []byte
	Type       EventType
	Height     int64
	RequestID  RequestID
	Target     weave.Address
	Value      *coin.Coin
	Payload    []byte
	Approve    bool
	Purpose    Purpose
	Threshold  uint32
}

var _ orm.Model = (*Event)(nil)

func (ev *Event) Marshal() ([]byte, error) {
	var e codec.Encoder
	e.Message(1, ev.Metadata)
	e.Bytes(2, ev.IdentityID)
	e.Uint64(3, uint64(ev.Type))
	e.Int64(4, ev.Height)
	e.Bytes(5, ev.RequestID)
	e.Bytes(6, ev.Target)
	e.Message(7, ev.Value)
	e.Bytes(8, ev.Payload)
	e.Bool(9, ev.Approve)
	e.Uint64(10, uint64(ev.Purpose))
	e.Uint64(11, uint64(ev.Threshold))
	return e.Finish()
}

func (ev *Event) Unmarshal(raw []byte) error {
	*ev = Event{}
	return codec.Walk(raw, func(f codec.Field) error {
		var err error
		var v uint64
		switch f.Num {
		case 1:
			ev.Metadata = &weave.Metadata{}
			err = f.Message(ev.Metadata)
		case 2:
			ev.IdentityID, err = f.Bytes()
		case 3:
			v, err = f.Uint64()
			ev.Type = EventType(v)
		case 4:
			ev.Height, err = f.Int64()
		case 5:
			ev.RequestID, err = f.Bytes()
		case 6:
			ev.Target, err = f.Bytes()
		case 7:
			ev.Value = &coin.Coin{}
			err = f.Message(ev.Value)
		case 8:
			ev.Payload, err = f.Bytes()
		case 9:
			ev.Approve, err = f.Bool()
		case 10:
			v, err = f.Uint64()
			ev.Purpose = Purpose(v)
		case 11:
			v, err = f.Uint64()
			ev.Threshold = uint32(v)
		}
		return err
	})
}

func (ev *Event) Validate() error {
	var errs error
	errs = errors.AppendField(errs, "Metadata", ev.Metadata.Validate())
	if len(ev.IdentityID) == 0 {
		errs = errors.AppendField(errs, "IdentityID", errors.ErrEmpty)
	}
	if ev.Type < SubmittedEvent || ev.Type > ThresholdChangedEvent {
		errs = errors.AppendField(errs, "Type", errors.Wrapf(errors.ErrModel, "unknown event %d", ev.Type))
	}
	return errs
}

func (ev *Event) Copy() orm.CloneableData {
	cpy := *ev
	cpy.Metadata = ev.Metadata.Copy()
	cpy.Value = ev.Value.Clone()
	return &cpy
}

// Tag returns the ABCI tag announcing this event on the delivering
// transaction.
func (ev *Event) Tag() common.KVPair {
	value := ev.Type.String()
	if len(ev.RequestID) != 0 {
		value += ":" + hex.EncodeToString(ev.RequestID)
	}
	return common.KVPair{
		Key:   []byte("identity/" + hex.EncodeToString(ev.IdentityID)),
		Value: []byte(value),
	}
}

// journal stores emitted events and remembers them so the handler can tag
// the transaction.
type journal struct {
	bucket orm.ModelBucket
	events []*Event
	kv     []common.KVPair
}

func newJournal(b orm.ModelBucket) *journal {
	return &journal{bucket: b}
}

func (j *journal) emit(ctx weave.Context, db weave.KVStore, ev *Event) error {
	ev.Metadata = &weave.Metadata{Schema: 1}
	ev.Height, _ = weave.GetHeight(ctx)
	if _, err := j.bucket.Put(db, nil, ev); err != nil {
		return errors.Wrapf(err, "store %s event", ev.Type)
	}
	j.events = append(j.events, ev)
	j.kv = append(j.kv, ev.Tag())
	return nil
}

// attach adds tags produced by a nested execution.
func (j *journal) attach(tags []common.KVPair) {
	j.kv = append(j.kv, tags...)
}

// tags returns the tags of all events emitted so far, nested ones included,
// in emission order.
func (j *journal) tags() []common.KVPair {
	return j.kv
}

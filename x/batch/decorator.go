package batch

import (
	"strings"

	weave "github.com/iov-one/weave-identity"
	"github.com/tendermint/go-amino"
	"github.com/tendermint/tendermint/libs/common"
)

// Decorator iterates through batch transaction messages and passes them down the stack
type Decorator struct{}

var _ weave.Decorator = Decorator{}

// NewDecorator returns a batch transaction decorator
func NewDecorator() Decorator {
	return Decorator{}
}

// BatchTx presents a single message of a batch as its own transaction.
type BatchTx struct {
	weave.Tx
	msg weave.Msg
}

// GetMsg returns the single message.
func (tx *BatchTx) GetMsg() (weave.Msg, error) {
	return tx.msg, nil
}

// Check iterates through messages in a batch transaction and passes them
// down the stack
func (d Decorator) Check(ctx weave.Context, store weave.KVStore, tx weave.Tx, next weave.Checker) (*weave.CheckResult, error) {
	msgs, ok, err := batchMessages(tx)
	if err != nil {
		return nil, err
	}
	if !ok {
		return next.Check(ctx, store, tx)
	}

	checks := make([]*weave.CheckResult, len(msgs))
	for i, msg := range msgs {
		checks[i], err = next.Check(ctx, store, &BatchTx{Tx: tx, msg: msg})
		if err != nil {
			return nil, err
		}
	}
	return combineChecks(checks), nil
}

// Deliver iterates through messages in a batch transaction and passes them
// down the stack
func (d Decorator) Deliver(ctx weave.Context, store weave.KVStore, tx weave.Tx, next weave.Deliverer) (*weave.DeliverResult, error) {
	msgs, ok, err := batchMessages(tx)
	if err != nil {
		return nil, err
	}
	if !ok {
		return next.Deliver(ctx, store, tx)
	}

	delivers := make([]*weave.DeliverResult, len(msgs))
	for i, msg := range msgs {
		delivers[i], err = next.Deliver(ctx, store, &BatchTx{Tx: tx, msg: msg})
		if err != nil {
			return nil, err
		}
	}
	return combineDelivers(delivers), nil
}

// batchMessages returns the list of messages when the transaction carries a
// batch message. The flag is false for any other message.
func batchMessages(tx weave.Tx) ([]weave.Msg, bool, error) {
	msg, err := tx.GetMsg()
	if err != nil {
		return nil, false, err
	}
	bmsg, ok := msg.(Msg)
	if !ok {
		return nil, false, nil
	}
	if err := bmsg.Validate(); err != nil {
		return nil, false, err
	}
	msgs, err := bmsg.MsgList()
	if err != nil {
		return nil, false, err
	}
	return msgs, true, nil
}

// combineChecks combines all data bytes as a go-amino array and joins all
// log messages with \n
func combineChecks(checks []*weave.CheckResult) *weave.CheckResult {
	datas := make([][]byte, len(checks))
	logs := make([]string, len(checks))
	var allocated, payments int64
	for i, r := range checks {
		datas[i] = r.Data
		logs[i] = r.Log
		allocated += r.GasAllocated
		payments += r.GasPayment
	}
	return &weave.CheckResult{
		Data:         amino.MustMarshalBinaryBare(datas),
		Log:          strings.Join(logs, "\n"),
		GasAllocated: allocated,
		GasPayment:   payments,
	}
}

// combineDelivers combines all data bytes as a go-amino array and joins all
// log messages with \n
func combineDelivers(delivers []*weave.DeliverResult) *weave.DeliverResult {
	datas := make([][]byte, len(delivers))
	logs := make([]string, len(delivers))
	var used int64
	var tags []common.KVPair
	for i, r := range delivers {
		datas[i] = r.Data
		logs[i] = r.Log
		used += r.GasUsed
		tags = append(tags, r.Tags...)
	}
	return &weave.DeliverResult{
		Data:    amino.MustMarshalBinaryBare(datas),
		Log:     strings.Join(logs, "\n"),
		GasUsed: used,
		Tags:    tags,
	}
}

// DecodeData splits the combined data of a batch result back into the data
// of every message.
func DecodeData(raw []byte) ([][]byte, error) {
	var datas [][]byte
	if err := amino.UnmarshalBinaryBare(raw, &datas); err != nil {
		return nil, err
	}
	return datas, nil
}

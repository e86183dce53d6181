package identity

import (
	"bytes"

	weave "github.com/iov-one/weave-identity"
	"github.com/iov-one/weave-identity/coin"
	"github.com/iov-one/weave-identity/errors"
	"github.com/iov-one/weave-identity/orm"
	"github.com/tendermint/tendermint/libs/common"
)

// Executable is the target of an execution request. The value is already
// transferred when Call is invoked. The returned tags are attached to the
// delivering transaction when the call succeeds.
type Executable interface {
	Call(ctx weave.Context, db weave.KVStore, caller weave.Address, value *coin.Coin, payload []byte) ([]common.KVPair, error)
}

// Resolver returns the Executable behind a target address.
type Resolver interface {
	Resolve(db weave.ReadOnlyKVStore, target weave.Address) (Executable, error)
}

// MsgDecoder parses a request payload into a message.
type MsgDecoder func(payload []byte) (weave.Msg, error)

// IdentityMsg is implemented by all messages that operate on an identity.
type IdentityMsg interface {
	weave.Msg
	GetIdentityID() []byte
}

// RouterResolver dispatches payloads sent to identities through a message
// handler, usually the application router. Any other address only accepts
// plain value transfers.
type RouterResolver struct {
	identities orm.ModelBucket
	handler    weave.Deliverer
	decode     MsgDecoder
}

var _ Resolver = (*RouterResolver)(nil)

// NewRouterResolver returns a resolver routing decoded payloads to handler.
func NewRouterResolver(handler weave.Deliverer, decode MsgDecoder) *RouterResolver {
	return &RouterResolver{
		identities: NewIdentityBucket(),
		handler:    handler,
		decode:     decode,
	}
}

func (r *RouterResolver) Resolve(db weave.ReadOnlyKVStore, target weave.Address) (Executable, error) {
	key, _, err := IdentityByAddress(db, r.identities, target)
	switch {
	case err == nil:
		return &dispatcher{identityID: key, handler: r.handler, decode: r.decode}, nil
	case errors.ErrNotFound.Is(err):
		return transfer{}, nil
	default:
		return nil, err
	}
}

// transfer is the Executable of an address without code.
type transfer struct{}

func (transfer) Call(ctx weave.Context, db weave.KVStore, caller weave.Address, value *coin.Coin, payload []byte) ([]common.KVPair, error) {
	if len(payload) != 0 {
		return nil, errors.Wrap(errors.ErrInput, "target cannot process a payload")
	}
	return nil, nil
}

// dispatcher delivers payloads addressed to one identity.
type dispatcher struct {
	identityID []byte
	handler    weave.Deliverer
	decode     MsgDecoder
}

func (d *dispatcher) Call(ctx weave.Context, db weave.KVStore, caller weave.Address, value *coin.Coin, payload []byte) ([]common.KVPair, error) {
	if len(payload) == 0 {
		return nil, nil
	}
	if d.decode == nil {
		return nil, errors.Wrap(errors.ErrHuman, "no payload decoder")
	}
	msg, err := d.decode(payload)
	if err != nil {
		return nil, errors.Wrap(err, "decode payload")
	}
	imsg, ok := msg.(IdentityMsg)
	if !ok {
		return nil, errors.Wrapf(errors.ErrMsg, "%T is not an identity message", msg)
	}
	if !bytes.Equal(imsg.GetIdentityID(), d.identityID) {
		return nil, errors.Wrap(errors.ErrMsg, "message addressed to another identity")
	}
	res, err := d.handler.Deliver(ctx, db, &execTx{msg: msg})
	if err != nil {
		return nil, err
	}
	if res == nil {
		return nil, nil
	}
	return res.Tags, nil
}

// execTx wraps a payload message so it can be processed by a handler.
type execTx struct {
	msg weave.Msg
}

var _ weave.Tx = (*execTx)(nil)

func (tx *execTx) GetMsg() (weave.Msg, error) {
	return tx.msg, nil
}

func (tx *execTx) Marshal() ([]byte, error) {
	return tx.msg.Marshal()
}

func (tx *execTx) Unmarshal(data []byte) error {
	return tx.msg.Unmarshal(data)
}

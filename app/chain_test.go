package app

import (
	"context"
	"testing"

	weave "github.com/iov-one/weave-identity"
	"github.com/iov-one/weave-identity/errors"
	"github.com/iov-one/weave-identity/weavetest"
	"github.com/iov-one/weave-identity/x/utils"
	"github.com/stretchr/testify/assert"
)

// panicAtHeight panics when the block height is at least the given value.
type panicAtHeight int64

func (p panicAtHeight) Check(ctx weave.Context, db weave.KVStore, tx weave.Tx, next weave.Checker) (*weave.CheckResult, error) {
	if h, _ := weave.GetHeight(ctx); h >= int64(p) {
		panic("too high")
	}
	return next.Check(ctx, db, tx)
}

func (p panicAtHeight) Deliver(ctx weave.Context, db weave.KVStore, tx weave.Tx, next weave.Deliverer) (*weave.DeliverResult, error) {
	if h, _ := weave.GetHeight(ctx); h >= int64(p) {
		panic("too high")
	}
	return next.Deliver(ctx, db, tx)
}

func TestChain(t *testing.T) {
	c1 := &weavetest.Decorator{}
	c2 := &weavetest.Decorator{}
	c3 := &weavetest.Decorator{}
	h := &weavetest.Handler{}

	var skipped *weavetest.Decorator
	stack := ChainDecorators(
		c1,
		utils.NewLogging(),
		utils.NewRecovery(),
		c2,
		skipped,
		panicAtHeight(6),
		c3,
	).WithHandler(h)

	bg := context.Background()
	tx := &weavetest.Tx{Msg: &weavetest.Msg{RoutePath: "test"}}

	_, err := stack.Check(bg, nil, tx)
	assert.NoError(t, err)
	ctx := weave.WithHeight(bg, 4)
	_, err = stack.Deliver(ctx, nil, tx)
	assert.NoError(t, err)

	assert.Equal(t, 2, c1.CallCount())
	assert.Equal(t, 2, c2.CallCount())
	assert.Equal(t, 2, c3.CallCount())
	assert.Equal(t, 2, h.CallCount())

	// the panic is converted into an error by the recovery decorator
	ctx = weave.WithHeight(bg, 8)
	_, err = stack.Check(ctx, nil, tx)
	assert.True(t, errors.ErrPanic.Is(err))
	_, err = stack.Deliver(ctx, nil, tx)
	assert.True(t, errors.ErrPanic.Is(err))

	assert.Equal(t, 4, c1.CallCount())
	assert.Equal(t, 4, c2.CallCount())
	assert.Equal(t, 2, c3.CallCount())
	assert.Equal(t, 2, h.CallCount())
}

func TestChainExtends(t *testing.T) {
	outer := &weavetest.Decorator{DeliverErr: errors.ErrUnauthorized}
	h := &weavetest.Handler{}

	base := ChainDecorators(&weavetest.Decorator{})
	stack := base.Chain(outer).WithHandler(h)

	tx := &weavetest.Tx{Msg: &weavetest.Msg{RoutePath: "test"}}
	_, err := stack.Deliver(context.Background(), nil, tx)
	assert.True(t, errors.ErrUnauthorized.Is(err))
	assert.Equal(t, 0, h.CallCount())

	// the original chain is not modified
	_, err = base.WithHandler(h).Deliver(context.Background(), nil, tx)
	assert.NoError(t, err)
	assert.Equal(t, 1, h.CallCount())
}

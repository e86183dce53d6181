package utils

import (
	"bytes"
	"context"
	"testing"

	weave "github.com/iov-one/weave-identity"
	"github.com/iov-one/weave-identity/errors"
	"github.com/iov-one/weave-identity/store"
	"github.com/iov-one/weave-identity/weavetest"
	"github.com/stretchr/testify/assert"
	"github.com/tendermint/tendermint/libs/log"
)

func TestLogging(t *testing.T) {
	var buf bytes.Buffer
	ctx := weave.WithLogger(context.Background(), log.NewTMLogger(&buf))
	tx := &weavetest.Tx{Msg: &weavetest.Msg{RoutePath: "identity/submit"}}

	_, err := NewLogging().Deliver(ctx, store.MemStore(), tx, &weavetest.Handler{})
	assert.NoError(t, err)
	assert.Contains(t, buf.String(), "path=identity/submit")

	buf.Reset()
	_, err = NewLogging().Deliver(ctx, store.MemStore(), tx, &weavetest.Handler{DeliverErr: errors.ErrHuman})
	assert.True(t, errors.ErrHuman.Is(err))
	assert.Contains(t, buf.String(), "err=")
}

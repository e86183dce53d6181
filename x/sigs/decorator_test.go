package sigs

import (
	"context"
	"testing"

	weave "github.com/iov-one/weave-identity"
	"github.com/iov-one/weave-identity/crypto"
	"github.com/iov-one/weave-identity/errors"
	"github.com/iov-one/weave-identity/store"
	"github.com/iov-one/weave-identity/weavetest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type signerRecorder struct {
	weavetest.Handler
	signers []weave.Condition
}

func (s *signerRecorder) Deliver(ctx weave.Context, db weave.KVStore, tx weave.Tx) (*weave.DeliverResult, error) {
	s.signers = Authenticate{}.GetConditions(ctx)
	return s.Handler.Deliver(ctx, db, tx)
}

func TestDecorator(t *testing.T) {
	kv := store.MemStore()
	chainID := "deco-rate"
	ctx := weave.WithChainID(context.Background(), chainID)

	priv := crypto.GenPrivKeyEd25519()
	perm := priv.PublicKey().Condition()

	tx := NewStdTx([]byte("dings"))
	sig, err := SignTx(priv, tx, chainID, 0)
	require.NoError(t, err)
	sig1, err := SignTx(priv, tx, chainID, 1)
	require.NoError(t, err)

	h := &signerRecorder{}
	d := NewDecorator()

	// no signature
	_, err = d.Check(ctx, kv, tx, h)
	assert.True(t, errors.ErrUnauthorized.Is(err))
	assert.Equal(t, 0, h.CallCount())

	// missing signatures allowed
	_, err = d.AllowMissingSigs().Deliver(ctx, kv, tx, h)
	require.NoError(t, err)
	assert.Empty(t, h.signers)

	tx.Signatures = []*StdSignature{sig}
	res, err := d.Check(ctx, kv, tx, h)
	require.NoError(t, err)
	assert.Equal(t, int64(signatureVerifyCost), res.GasPayment)

	// the check consumed sequence zero
	_, err = d.Deliver(ctx, kv, tx, h)
	assert.True(t, ErrInvalidSequence.Is(err))

	tx.Signatures = []*StdSignature{sig1}
	_, err = d.Deliver(ctx, kv, tx, h)
	require.NoError(t, err)
	assert.Equal(t, []weave.Condition{perm}, h.signers)
	assert.True(t, Authenticate{}.HasAddress(withSigners(ctx, h.signers), perm.Address()))

	// non signed transactions pass through untouched
	plain := &weavetest.Tx{Msg: &weavetest.Msg{RoutePath: "test/mock"}}
	_, err = d.Deliver(ctx, kv, plain, h)
	require.NoError(t, err)
	assert.Empty(t, h.signers)
}

package cash

import (
	"encoding/json"
	"testing"

	weave "github.com/iov-one/weave-identity"
	"github.com/iov-one/weave-identity/coin"
	"github.com/iov-one/weave-identity/errors"
	"github.com/iov-one/weave-identity/store"
	"github.com/iov-one/weave-identity/weavetest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSendHandler(t *testing.T) {
	owner := weavetest.NewCondition()
	stranger := weavetest.NewCondition()
	dest := weavetest.NewCondition().Address()

	cases := map[string]struct {
		signer         weave.Condition
		msg            *SendMsg
		wantCheckErr   *errors.Error
		wantDeliverErr *errors.Error
	}{
		"owner sends": {
			signer: owner,
			msg: &SendMsg{
				Metadata:    &weave.Metadata{Schema: 1},
				Source:      owner.Address(),
				Destination: dest,
				Amount:      coin.NewCoinp(2, 0, "IOV"),
			},
		},
		"stranger cannot send": {
			signer: stranger,
			msg: &SendMsg{
				Metadata:    &weave.Metadata{Schema: 1},
				Source:      owner.Address(),
				Destination: dest,
				Amount:      coin.NewCoinp(2, 0, "IOV"),
			},
			wantCheckErr:   errors.ErrUnauthorized,
			wantDeliverErr: errors.ErrUnauthorized,
		},
		"missing amount": {
			signer: owner,
			msg: &SendMsg{
				Metadata:    &weave.Metadata{Schema: 1},
				Source:      owner.Address(),
				Destination: dest,
			},
			wantCheckErr:   errors.ErrAmount,
			wantDeliverErr: errors.ErrAmount,
		},
		"too much": {
			signer: owner,
			msg: &SendMsg{
				Metadata:    &weave.Metadata{Schema: 1},
				Source:      owner.Address(),
				Destination: dest,
				Amount:      coin.NewCoinp(200, 0, "IOV"),
			},
			wantDeliverErr: errors.ErrAmount,
		},
	}

	for testName, tc := range cases {
		t.Run(testName, func(t *testing.T) {
			db := store.MemStore()
			ctrl := NewController(NewBucket())
			require.NoError(t, ctrl.CoinMint(db, owner.Address(), coin.NewCoin(10, 0, "IOV")))

			h := NewSendHandler(&weavetest.Auth{Signer: tc.signer}, ctrl)
			tx := &weavetest.Tx{Msg: tc.msg}

			if _, err := h.Check(nil, db, tx); !tc.wantCheckErr.Is(err) {
				t.Fatalf("unexpected check error: %+v", err)
			}
			if _, err := h.Deliver(nil, db, tx); !tc.wantDeliverErr.Is(err) {
				t.Fatalf("unexpected deliver error: %+v", err)
			}
			if tc.wantDeliverErr == nil {
				assertBalance(t, db, dest, coin.Coins{tc.msg.Amount})
			}
		})
	}
}

func TestGenesis(t *testing.T) {
	const genesis = `{
		"cash": [
			{"address": "b1ca7e78f74423ae01da3b51e676934d9105f282", "coins": ["10 IOV", "2.5 ETH"]}
		]
	}`
	var opts weave.Options
	require.NoError(t, json.Unmarshal([]byte(genesis), &opts))

	db := store.MemStore()
	require.NoError(t, Initializer{}.FromGenesis(opts, db))

	addr := weavetest.DecodeAddr(t, "b1ca7e78f74423ae01da3b51e676934d9105f282")
	assertBalance(t, db, addr, coin.Coins{
		coin.NewCoinp(2, 500000000, "ETH"),
		coin.NewCoinp(10, 0, "IOV"),
	})
}

func TestSendMsgSerialization(t *testing.T) {
	msg := &SendMsg{
		Metadata:    &weave.Metadata{Schema: 1},
		Source:      weavetest.NewCondition().Address(),
		Destination: weavetest.NewCondition().Address(),
		Amount:      coin.NewCoinp(1, 2, "IOV"),
		Memo:        "for the coffee",
		Ref:         []byte{1, 2, 3},
	}
	raw, err := msg.Marshal()
	require.NoError(t, err)

	var got SendMsg
	require.NoError(t, got.Unmarshal(raw))
	assert.Equal(t, msg, &got)
	assert.NoError(t, got.Validate())
}

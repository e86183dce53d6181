package cash

import (
	"testing"

	weave "github.com/iov-one/weave-identity"
	"github.com/iov-one/weave-identity/coin"
	"github.com/iov-one/weave-identity/errors"
	"github.com/iov-one/weave-identity/store"
	"github.com/iov-one/weave-identity/weavetest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCoinMint(t *testing.T) {
	db := store.MemStore()
	ctrl := NewController(NewBucket())
	addr := weavetest.NewCondition().Address()

	_, err := ctrl.Balance(db, addr)
	require.True(t, errors.ErrNotFound.Is(err))

	require.NoError(t, ctrl.CoinMint(db, addr, coin.NewCoin(5, 0, "IOV")))
	require.NoError(t, ctrl.CoinMint(db, addr, coin.NewCoin(1, 0, "ETH")))

	got, err := ctrl.Balance(db, addr)
	require.NoError(t, err)
	assert.Equal(t, coin.Coins{coin.NewCoinp(1, 0, "ETH"), coin.NewCoinp(5, 0, "IOV")}, got)

	// overflow is rejected
	err = ctrl.CoinMint(db, addr, coin.NewCoin(coin.MaxInt, 0, "IOV"))
	require.True(t, errors.ErrOverflow.Is(err), "%+v", err)
}

func TestMoveCoins(t *testing.T) {
	src := weavetest.NewCondition().Address()
	dst := weavetest.NewCondition().Address()

	cases := map[string]struct {
		funds    coin.Coins
		from, to weave.Address
		amount   coin.Coin
		wantErr  *errors.Error
		wantSrc  coin.Coins
		wantDst  coin.Coins
	}{
		"partial move": {
			funds:   coin.Coins{coin.NewCoinp(10, 0, "IOV")},
			from:    src,
			to:      dst,
			amount:  coin.NewCoin(4, 0, "IOV"),
			wantSrc: coin.Coins{coin.NewCoinp(6, 0, "IOV")},
			wantDst: coin.Coins{coin.NewCoinp(4, 0, "IOV")},
		},
		"full move removes the source account": {
			funds:   coin.Coins{coin.NewCoinp(10, 0, "IOV")},
			from:    src,
			to:      dst,
			amount:  coin.NewCoin(10, 0, "IOV"),
			wantSrc: nil,
			wantDst: coin.Coins{coin.NewCoinp(10, 0, "IOV")},
		},
		"move to self keeps the balance": {
			funds:   coin.Coins{coin.NewCoinp(10, 0, "IOV")},
			from:    src,
			to:      src,
			amount:  coin.NewCoin(3, 0, "IOV"),
			wantSrc: coin.Coins{coin.NewCoinp(10, 0, "IOV")},
		},
		"insufficient funds": {
			funds:   coin.Coins{coin.NewCoinp(10, 0, "IOV")},
			from:    src,
			to:      dst,
			amount:  coin.NewCoin(11, 0, "IOV"),
			wantErr: errors.ErrAmount,
		},
		"wrong currency": {
			funds:   coin.Coins{coin.NewCoinp(10, 0, "IOV")},
			from:    src,
			to:      dst,
			amount:  coin.NewCoin(1, 0, "ETH"),
			wantErr: errors.ErrAmount,
		},
		"empty source": {
			from:    src,
			to:      dst,
			amount:  coin.NewCoin(1, 0, "ETH"),
			wantErr: errors.ErrEmpty,
		},
		"non positive amount": {
			funds:   coin.Coins{coin.NewCoinp(10, 0, "IOV")},
			from:    src,
			to:      dst,
			amount:  coin.NewCoin(-1, 0, "IOV"),
			wantErr: errors.ErrAmount,
		},
	}

	for testName, tc := range cases {
		t.Run(testName, func(t *testing.T) {
			db := store.MemStore()
			ctrl := NewController(NewBucket())
			for _, c := range tc.funds {
				require.NoError(t, ctrl.CoinMint(db, src, *c))
			}

			err := ctrl.MoveCoins(db, tc.from, tc.to, tc.amount)
			if !tc.wantErr.Is(err) {
				t.Fatalf("unexpected error: %+v", err)
			}
			if tc.wantErr != nil {
				return
			}
			assertBalance(t, db, src, tc.wantSrc)
			if !tc.from.Equals(tc.to) {
				assertBalance(t, db, dst, tc.wantDst)
			}
		})
	}
}

func assertBalance(t testing.TB, db weave.KVStore, addr weave.Address, want coin.Coins) {
	t.Helper()
	got, err := NewController(NewBucket()).Balance(db, addr)
	if want == nil {
		if !errors.ErrNotFound.Is(err) {
			t.Fatalf("want no account, got %v (%v)", got, err)
		}
		return
	}
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

package coin

import (
	"testing"

	"github.com/iov-one/weave-identity/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCombineCoins(t *testing.T) {
	cs, err := CombineCoins(
		NewCoin(1, 0, "IOV"),
		NewCoin(2, 0, "ETH"),
		NewCoin(3, 0, "IOV"),
	)
	require.NoError(t, err)
	assert.Equal(t, Coins{NewCoinp(2, 0, "ETH"), NewCoinp(4, 0, "IOV")}, cs)

	assert.True(t, cs.Contains(NewCoin(4, 0, "IOV")))
	assert.False(t, cs.Contains(NewCoin(4, 1, "IOV")))
	assert.False(t, cs.Contains(NewCoin(1, 0, "BTC")))

	cs, err = cs.Subtract(NewCoin(2, 0, "ETH"))
	require.NoError(t, err)
	assert.Equal(t, Coins{NewCoinp(4, 0, "IOV")}, cs)
	assert.True(t, cs.IsPositive())
}

func TestCoinsValidate(t *testing.T) {
	cases := map[string]struct {
		cs      Coins
		wantErr *errors.Error
	}{
		"empty":      {cs: nil},
		"sorted":     {cs: Coins{NewCoinp(1, 0, "ETH"), NewCoinp(1, 0, "IOV")}},
		"not sorted": {cs: Coins{NewCoinp(1, 0, "IOV"), NewCoinp(1, 0, "ETH")}, wantErr: errors.ErrState},
		"duplicated": {cs: Coins{NewCoinp(1, 0, "IOV"), NewCoinp(1, 0, "IOV")}, wantErr: errors.ErrState},
		"zero coin":  {cs: Coins{NewCoinp(0, 0, "IOV")}, wantErr: errors.ErrState},
	}
	for testName, tc := range cases {
		t.Run(testName, func(t *testing.T) {
			if err := tc.cs.Validate(); !tc.wantErr.Is(err) {
				t.Fatalf("unexpected error: %+v", err)
			}
		})
	}
}

func TestNormalizeCoins(t *testing.T) {
	got, err := NormalizeCoins(Coins{
		NewCoinp(1, 0, "IOV"),
		NewCoinp(0, 0, "BTC"),
		NewCoinp(2, 0, "ETH"),
		NewCoinp(-1, 0, "IOV"),
		nil,
		NewCoinp(1, 0, "ETH"),
	})
	require.NoError(t, err)
	assert.Equal(t, Coins{NewCoinp(3, 0, "ETH")}, got)

	got, err = NormalizeCoins(nil)
	require.NoError(t, err)
	assert.Nil(t, got)
}

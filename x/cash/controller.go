package cash

import (
	weave "github.com/iov-one/weave-identity"
	"github.com/iov-one/weave-identity/coin"
	"github.com/iov-one/weave-identity/errors"
)

// CoinMover moves coins between accounts.
type CoinMover interface {
	MoveCoins(db weave.KVStore, src, dest weave.Address, amount coin.Coin) error
}

// Balancer returns the funds of an account.
type Balancer interface {
	Balance(db weave.KVStore, addr weave.Address) (coin.Coins, error)
}

// CoinMinter issues new coins.
type CoinMinter interface {
	CoinMint(db weave.KVStore, dest weave.Address, amount coin.Coin) error
}

// Controller is the functionality other extensions need from this one.
type Controller interface {
	CoinMover
	Balancer
	CoinMinter
}

// BaseController is a simple implementation of Controller backed by a
// wallet bucket.
type BaseController struct {
	bucket Bucket
}

var _ Controller = BaseController{}

// NewController returns a controller using given bucket.
func NewController(bucket Bucket) BaseController {
	return BaseController{bucket: bucket}
}

// Balance returns the coins held by the account. ErrNotFound is returned
// when the account does not exist.
func (c BaseController) Balance(db weave.KVStore, addr weave.Address) (coin.Coins, error) {
	obj, err := c.bucket.Get(db, addr)
	if err != nil {
		return nil, errors.Wrap(err, "cannot get account state")
	}
	if obj == nil {
		return nil, errors.Wrap(errors.ErrNotFound, "no account")
	}
	return AsSet(obj).Coins.Clone(), nil
}

// MoveCoins moves the given amount from src to dest.
// If src doesn't exist, or doesn't have sufficient
// coins, it fails.
func (c BaseController) MoveCoins(db weave.KVStore, src weave.Address, dest weave.Address, amount coin.Coin) error {
	if !amount.IsPositive() {
		return errors.Wrapf(errors.ErrAmount, "non-positive amount: %s", amount)
	}

	sender, err := c.bucket.Get(db, src)
	if err != nil {
		return errors.Wrap(err, "cannot get sender")
	}
	if sender == nil {
		return errors.Wrapf(errors.ErrEmpty, "empty account %s", src)
	}
	if !AsSet(sender).Coins.Contains(amount) {
		return errors.Wrap(errors.ErrAmount, "insufficient funds")
	}
	if err := Subtract(sender, amount); err != nil {
		return err
	}
	if err := c.bucket.Save(db, sender); err != nil {
		return errors.Wrap(err, "cannot save sender")
	}

	// Load after saving the sender, in case both are the same account.
	recipient, err := c.bucket.GetOrCreate(db, dest)
	if err != nil {
		return errors.Wrap(err, "cannot get recipient")
	}
	if err := Add(recipient, amount); err != nil {
		return err
	}
	return c.bucket.Save(db, recipient)
}

// CoinMint attempts to add the given amount of coins to the destination
// address. Fails if it overflows the wallet.
func (c BaseController) CoinMint(db weave.KVStore, dest weave.Address, amount coin.Coin) error {
	recipient, err := c.bucket.GetOrCreate(db, dest)
	if err != nil {
		return err
	}
	if err := Add(recipient, amount); err != nil {
		return err
	}
	return c.bucket.Save(db, recipient)
}

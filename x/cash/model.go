package cash

import (
	weave "github.com/iov-one/weave-identity"
	"github.com/iov-one/weave-identity/codec"
	"github.com/iov-one/weave-identity/coin"
	"github.com/iov-one/weave-identity/errors"
	"github.com/iov-one/weave-identity/orm"
)

// BucketName is where we store the balances
const BucketName = "cash"

// Set is the balance of a single account.
type Set struct {
	Metadata *weave.Metadata
	Coins    coin.Coins
}

var _ orm.CloneableData = (*Set)(nil)

func (s *Set) Marshal() ([]byte, error) {
	var e codec.Encoder
	e.Message(1, s.Metadata)
	for _, c := range s.Coins {
		e.Message(2, c)
	}
	return e.Finish()
}

func (s *Set) Unmarshal(raw []byte) error {
	*s = Set{}
	return codec.Walk(raw, func(f codec.Field) error {
		switch f.Num {
		case 1:
			s.Metadata = &weave.Metadata{}
			return f.Message(s.Metadata)
		case 2:
			var c coin.Coin
			if err := f.Message(&c); err != nil {
				return err
			}
			s.Coins = append(s.Coins, &c)
		}
		return nil
	})
}

// Validate requires that all coins are in alphabetical order and non zero.
func (s *Set) Validate() error {
	if err := s.Metadata.Validate(); err != nil {
		return errors.Wrap(err, "metadata")
	}
	return s.Coins.Validate()
}

// Copy makes a new set with the same coins
func (s *Set) Copy() orm.CloneableData {
	return &Set{
		Metadata: s.Metadata.Copy(),
		Coins:    s.Coins.Clone(),
	}
}

// NewWallet creates an empty wallet with this address.
func NewWallet(key weave.Address) orm.Object {
	return orm.NewSimpleObj(key, &Set{Metadata: &weave.Metadata{Schema: 1}})
}

// WalletWith creates a wallet holding given coins.
func WalletWith(key weave.Address, coins ...*coin.Coin) (orm.Object, error) {
	obj := NewWallet(key)
	if err := Concat(obj, coins); err != nil {
		return nil, err
	}
	return obj, obj.Validate()
}

// AsSet returns the balance of a wallet object. It panics if the object
// does not hold a Set.
func AsSet(obj orm.Object) *Set {
	if obj == nil || obj.Value() == nil {
		return nil
	}
	return obj.Value().(*Set)
}

// Concat combines the coins to make sure they are sorted and rounded off,
// with no duplicates or zero values.
func Concat(obj orm.Object, coins coin.Coins) error {
	s := AsSet(obj)
	joint, err := s.Coins.Combine(coins)
	if err != nil {
		return err
	}
	s.Coins = joint
	return nil
}

// Add increases the wallet balance.
func Add(obj orm.Object, c coin.Coin) error {
	s := AsSet(obj)
	cs, err := s.Coins.Add(c)
	if err != nil {
		return err
	}
	s.Coins = cs
	return nil
}

// Subtract decreases the wallet balance.
func Subtract(obj orm.Object, c coin.Coin) error {
	return Add(obj, c.Negative())
}

// Bucket is a type-safe wrapper around orm.Bucket
type Bucket struct {
	orm.Bucket
}

// NewBucket initializes a cash.Bucket with default name
func NewBucket() Bucket {
	return Bucket{
		Bucket: orm.NewBucket(BucketName, NewWallet(nil)),
	}
}

// GetOrCreate returns the wallet of given address, or an empty one.
func (b Bucket) GetOrCreate(db weave.KVStore, key weave.Address) (orm.Object, error) {
	obj, err := b.Get(db, key)
	if err == nil && obj == nil {
		obj = NewWallet(key)
	}
	return obj, err
}

// Save validates the wallet and writes it. An empty wallet is removed.
func (b Bucket) Save(db weave.KVStore, obj orm.Object) error {
	if _, ok := obj.Value().(*Set); !ok {
		return errors.WithType(errors.ErrModel, obj.Value())
	}
	if len(AsSet(obj).Coins) == 0 {
		has, err := db.Has(b.DBKey(obj.Key()))
		if err != nil || !has {
			return err
		}
		return b.Bucket.Delete(db, obj.Key())
	}
	return b.Bucket.Save(db, obj)
}

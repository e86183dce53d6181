package identity

import (
	"encoding/binary"
	"encoding/hex"
	"math/big"

	weave "github.com/iov-one/weave-identity"
	"github.com/iov-one/weave-identity/coin"
	"github.com/iov-one/weave-identity/errors"
	"golang.org/x/crypto/sha3"
)

// RequestIDLength is the size of a request ID, a 256 bit unsigned integer
// in big endian order.
const RequestIDLength = 32

// RequestID identifies an execution request.
type RequestID []byte

// BuildRequestID derives the ID of a request as the Keccak-256 hash of
//
//	identity(20) | target(20) | value | len(payload) 8 BE | payload | nonce 32 BE
//
// where value is whole 8 BE | fractional 8 BE | len(ticker) 1 | ticker, all
// zero bytes when there is no value.
func BuildRequestID(identity, target weave.Address, value *coin.Coin, payload []byte, nonce uint64) RequestID {
	h := sha3.NewLegacyKeccak256()
	h.Write(identity)
	h.Write(target)

	var num [8]byte
	if coin.IsEmpty(value) {
		h.Write(make([]byte, 17))
	} else {
		binary.BigEndian.PutUint64(num[:], uint64(value.Whole))
		h.Write(num[:])
		binary.BigEndian.PutUint64(num[:], uint64(value.Fractional))
		h.Write(num[:])
		h.Write([]byte{byte(len(value.Ticker))})
		h.Write([]byte(value.Ticker))
	}

	binary.BigEndian.PutUint64(num[:], uint64(len(payload)))
	h.Write(num[:])
	h.Write(payload)

	var n [32]byte
	binary.BigEndian.PutUint64(n[24:], nonce)
	h.Write(n[:])

	return h.Sum(nil)
}

// Validate returns an error unless the ID is a non zero 256 bit value.
func (id RequestID) Validate() error {
	if len(id) != RequestIDLength {
		return errors.Wrapf(errors.ErrInput, "request id must be %d bytes", RequestIDLength)
	}
	for _, b := range id {
		if b != 0 {
			return nil
		}
	}
	return errors.Wrap(errors.ErrInput, "zero request id")
}

// Int returns the ID as an unsigned integer.
func (id RequestID) Int() *big.Int {
	return new(big.Int).SetBytes(id)
}

func (id RequestID) String() string {
	return hex.EncodeToString(id)
}

/*
Package crypto holds the key material used to authenticate transactions.

Only ed25519 is supported. Keys and signatures are serialized as protobuf
compatible messages with the algorithm specific payload stored under field
number 1, leaving room for other algorithms.
*/
package crypto

import (
	weave "github.com/iov-one/weave-identity"
	"github.com/iov-one/weave-identity/codec"
	"github.com/iov-one/weave-identity/errors"
)

// ExtensionName is used for the Conditions we get from signatures
const ExtensionName = "sigs"

// PubKey represents a crypto public key we use
type PubKey interface {
	Verify(message []byte, sig *Signature) bool
	Condition() weave.Condition
}

// Signer is the functionality we use from a private key
// No serializing to support hardware devices as well.
type Signer interface {
	Sign(message []byte) (*Signature, error)
	PublicKey() *PublicKey
}

const fieldEd25519 = 1

// PublicKey is a serializable public key.
type PublicKey struct {
	Ed25519 []byte
}

// PrivateKey is a serializable private key.
type PrivateKey struct {
	Ed25519 []byte
}

// Signature is a serializable signature.
type Signature struct {
	Ed25519 []byte
}

func (p *PublicKey) Marshal() ([]byte, error)  { return marshalBytes(p.Ed25519) }
func (p *PublicKey) Unmarshal(raw []byte) error { return unmarshalBytes(raw, &p.Ed25519) }

func (p *PrivateKey) Marshal() ([]byte, error)  { return marshalBytes(p.Ed25519) }
func (p *PrivateKey) Unmarshal(raw []byte) error { return unmarshalBytes(raw, &p.Ed25519) }

func (s *Signature) Marshal() ([]byte, error)  { return marshalBytes(s.Ed25519) }
func (s *Signature) Unmarshal(raw []byte) error { return unmarshalBytes(raw, &s.Ed25519) }

// Validate ensures the signature carries ed25519 data of a correct size.
func (s *Signature) Validate() error {
	if s == nil || len(s.Ed25519) == 0 {
		return errors.Wrap(errors.ErrEmpty, "signature")
	}
	if len(s.Ed25519) != signatureSize {
		return errors.Wrapf(errors.ErrInput, "signature must be %d bytes", signatureSize)
	}
	return nil
}

// Validate ensures the public key carries ed25519 data of a correct size.
func (p *PublicKey) Validate() error {
	if p == nil || len(p.Ed25519) == 0 {
		return errors.Wrap(errors.ErrEmpty, "public key")
	}
	if len(p.Ed25519) != publicKeySize {
		return errors.Wrapf(errors.ErrInput, "public key must be %d bytes", publicKeySize)
	}
	return nil
}

func marshalBytes(b []byte) ([]byte, error) {
	var e codec.Encoder
	e.Bytes(fieldEd25519, b)
	return e.Finish()
}

func unmarshalBytes(raw []byte, dst *[]byte) error {
	*dst = nil
	return codec.Walk(raw, func(f codec.Field) error {
		if f.Num != fieldEd25519 {
			return errors.Wrapf(errors.ErrInput, "unsupported key algorithm field %d", f.Num)
		}
		b, err := f.Bytes()
		*dst = b
		return err
	})
}

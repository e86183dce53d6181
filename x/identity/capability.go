package identity

import (
	weave "github.com/iov-one/weave-identity"
	"github.com/iov-one/weave-identity/errors"
	"github.com/iov-one/weave-identity/orm"
)

// Interface identifiers an identity advertises.
const (
	InterfaceDetection   uint32 = 0x01ffc9a7
	InterfaceKeyHolder   uint32 = 0xfccbffbc
	InterfaceClaimHolder uint32 = 0xcb1c73dc
	InterfaceIdentity           = InterfaceKeyHolder ^ InterfaceClaimHolder
)

// SupportsInterface returns true for the fixed set of interfaces every
// identity implements.
func SupportsInterface(id uint32) bool {
	switch id {
	case InterfaceDetection, InterfaceKeyHolder, InterfaceClaimHolder, InterfaceIdentity:
		return true
	}
	return false
}

// CapabilityProvider answers interface detection queries for an address.
type CapabilityProvider interface {
	SupportsInterface(id uint32) (bool, error)
}

// CapabilityLookup returns the provider for given address or nil if the
// address has no code that could answer.
type CapabilityLookup func(db weave.ReadOnlyKVStore, target weave.Address) (CapabilityProvider, error)

// SafeSupportsInterface queries the target and reports non support instead
// of failing when the target is missing, returns an error or panics.
func SafeSupportsInterface(db weave.ReadOnlyKVStore, lookup CapabilityLookup, target weave.Address, id uint32) (supported bool) {
	defer func() {
		if r := recover(); r != nil {
			supported = false
		}
	}()
	p, err := lookup(db, target)
	if err != nil || p == nil {
		return false
	}
	ok, err := p.SupportsInterface(id)
	return err == nil && ok
}

type identityCapabilities struct{}

func (identityCapabilities) SupportsInterface(id uint32) (bool, error) {
	return SupportsInterface(id), nil
}

// IdentityCapabilities returns a lookup that knows only identities.
func IdentityCapabilities(identities orm.ModelBucket) CapabilityLookup {
	return func(db weave.ReadOnlyKVStore, target weave.Address) (CapabilityProvider, error) {
		_, _, err := IdentityByAddress(db, identities, target)
		switch {
		case err == nil:
			return identityCapabilities{}, nil
		case errors.ErrNotFound.Is(err):
			return nil, nil
		default:
			return nil, err
		}
	}
}

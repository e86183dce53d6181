package identity

import (
	"encoding/binary"

	weave "github.com/iov-one/weave-identity"
	"github.com/iov-one/weave-identity/errors"
	"github.com/iov-one/weave-identity/orm"
)

// RegisterQuery exposes the identity buckets and the interface detection
// and threshold queries.
func RegisterQuery(qr weave.QueryRouter) {
	identities := NewIdentityBucket()
	identities.Register("identities", qr)
	NewRequestBucket().Register("execrequests", qr)
	NewApprovalBucket().Register("approvalsets", qr)
	NewEventBucket().Register("idevents", qr)
	qr.Register("/identities/supports", supportsQuery{lookup: IdentityCapabilities(identities)})
	qr.Register("/identities/threshold", thresholdQuery{identities: identities})
}

// supportsQuery answers interface detection requests. The query data is the
// 20 byte target address followed by the 4 byte big endian interface ID. The
// value of the single result is 1 if the interface is supported, 0 otherwise.
type supportsQuery struct {
	lookup CapabilityLookup
}

func (q supportsQuery) Query(db weave.ReadOnlyKVStore, mod string, data []byte) ([]weave.Model, error) {
	if mod != weave.KeyQueryMod {
		return nil, errors.Wrapf(errors.ErrInput, "unsupported query mod %q", mod)
	}
	if len(data) != weave.AddressLength+4 {
		return nil, errors.Wrap(errors.ErrInput, "expected address and interface id")
	}
	target := weave.Address(data[:weave.AddressLength])
	id := binary.BigEndian.Uint32(data[weave.AddressLength:])
	value := []byte{0}
	if SafeSupportsInterface(db, q.lookup, target, id) {
		value[0] = 1
	}
	return []weave.Model{weave.Pair(data, value)}, nil
}

// thresholdQuery returns the number of approvals required for a purpose.
// The query data is the identity ID followed by a single purpose byte, the
// result value is the threshold as 4 byte big endian.
type thresholdQuery struct {
	identities orm.ModelBucket
}

func (q thresholdQuery) Query(db weave.ReadOnlyKVStore, mod string, data []byte) ([]weave.Model, error) {
	if mod != weave.KeyQueryMod {
		return nil, errors.Wrapf(errors.ErrInput, "unsupported query mod %q", mod)
	}
	if len(data) < 2 {
		return nil, errors.Wrap(errors.ErrInput, "expected identity id and purpose")
	}
	id, purpose := data[:len(data)-1], Purpose(data[len(data)-1])

	var identity Identity
	switch err := q.identities.One(db, id, &identity); {
	case errors.ErrNotFound.Is(err):
		return nil, nil
	case err != nil:
		return nil, err
	}
	n, err := identity.RequiredApprovals(purpose)
	if err != nil {
		return nil, err
	}
	value := make([]byte, 4)
	binary.BigEndian.PutUint32(value, n)
	return []weave.Model{weave.Pair(data, value)}, nil
}

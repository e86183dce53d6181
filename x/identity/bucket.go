package identity

import (
	weave "github.com/iov-one/weave-identity"
	"github.com/iov-one/weave-identity/errors"
	"github.com/iov-one/weave-identity/orm"
)

// identitySeq generates identity IDs. The ID must be known before the
// identity is stored because the address is derived from it.
var identitySeq = orm.NewSequence("identity", "id")

// NewIdentityBucket returns a bucket storing identities under a sequence
// ID, indexed by their address.
func NewIdentityBucket() orm.ModelBucket {
	return orm.NewModelBucket("identity", &Identity{},
		orm.WithIDSequence(identitySeq),
		orm.WithIndex("address", identityAddressIndexer, true),
	)
}

// nextIdentityID reserves the ID of a new identity.
func nextIdentityID(db weave.KVStore) ([]byte, error) {
	seq := identitySeq
	return seq.NextVal(db)
}

func identityAddressIndexer(obj orm.Object) ([]byte, error) {
	if obj == nil {
		return nil, errors.Wrap(errors.ErrHuman, "cannot take index of nil")
	}
	i, ok := obj.Value().(*Identity)
	if !ok {
		return nil, errors.Wrapf(errors.ErrHuman, "can only take index of Identity, got %T", obj.Value())
	}
	return i.Address, nil
}

// NewRequestBucket returns a bucket storing pending execution requests
// under their request ID.
func NewRequestBucket() orm.ModelBucket {
	return orm.NewModelBucket("execrequest", &ExecutionRequest{},
		orm.WithIndex("identity", requestIdentityIndexer, false),
	)
}

func requestIdentityIndexer(obj orm.Object) ([]byte, error) {
	if obj == nil {
		return nil, errors.Wrap(errors.ErrHuman, "cannot take index of nil")
	}
	r, ok := obj.Value().(*ExecutionRequest)
	if !ok {
		return nil, errors.Wrapf(errors.ErrHuman, "can only take index of ExecutionRequest, got %T", obj.Value())
	}
	return r.IdentityID, nil
}

// NewApprovalBucket returns a bucket storing the approval set of every
// pending request under the request ID.
func NewApprovalBucket() orm.ModelBucket {
	return orm.NewModelBucket("approvalset", &ApprovalSet{})
}

// NewEventBucket returns an append only bucket of events, keyed by a
// sequence and indexed by identity.
func NewEventBucket() orm.ModelBucket {
	return orm.NewModelBucket("idevent", &Event{},
		orm.WithIndex("identity", eventIdentityIndexer, false),
	)
}

func eventIdentityIndexer(obj orm.Object) ([]byte, error) {
	if obj == nil {
		return nil, errors.Wrap(errors.ErrHuman, "cannot take index of nil")
	}
	ev, ok := obj.Value().(*Event)
	if !ok {
		return nil, errors.Wrapf(errors.ErrHuman, "can only take index of Event, got %T", obj.Value())
	}
	return ev.IdentityID, nil
}

// IdentityByAddress loads the identity owning given address.
func IdentityByAddress(db weave.ReadOnlyKVStore, b orm.ModelBucket, addr weave.Address) ([]byte, *Identity, error) {
	var found []*Identity
	keys, err := b.ByIndex(db, "address", addr, &found)
	if err != nil {
		return nil, nil, errors.Wrap(err, "address index")
	}
	if len(found) == 0 {
		return nil, nil, errors.Wrapf(errors.ErrNotFound, "no identity with address %s", addr)
	}
	return keys[0], found[0], nil
}

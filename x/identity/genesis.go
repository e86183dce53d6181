package identity

import (
	weave "github.com/iov-one/weave-identity"
	"github.com/iov-one/weave-identity/errors"
	"github.com/iov-one/weave-identity/gconf"
)

// GenesisIdentity is an identity created at genesis. IDs are assigned in
// the order identities are listed.
type GenesisIdentity struct {
	Keys                []*Key `json:"keys"`
	ManagementThreshold uint32 `json:"management_threshold"`
	ExecutionThreshold  uint32 `json:"execution_threshold"`
}

// Initializer creates genesis identities and stores the configuration
// found in the "conf" section.
type Initializer struct{}

var _ weave.Initializer = Initializer{}

func (Initializer) FromGenesis(opts weave.Options, db weave.KVStore) error {
	switch err := gconf.InitConfig(db, opts, packageName, &Configuration{}); {
	case err == nil, errors.ErrNotFound.Is(err):
	default:
		return errors.Wrap(err, "identity configuration")
	}

	var genesis []GenesisIdentity
	if err := opts.ReadOptions(packageName, &genesis); err != nil {
		return errors.Wrap(err, "cannot read identity genesis")
	}
	identities := NewIdentityBucket()
	for i, g := range genesis {
		msg := CreateIdentityMsg{
			Metadata:            &weave.Metadata{Schema: 1},
			Keys:                g.Keys,
			ManagementThreshold: g.ManagementThreshold,
			ExecutionThreshold:  g.ExecutionThreshold,
		}
		if err := msg.Validate(); err != nil {
			return errors.Wrapf(err, "identity %d", i)
		}
		id, err := nextIdentityID(db)
		if err != nil {
			return errors.Wrap(err, "identity id")
		}
		identity := &Identity{
			Metadata:            &weave.Metadata{Schema: 1},
			Address:             Condition(id).Address(),
			Keys:                g.Keys,
			ManagementThreshold: g.ManagementThreshold,
			ExecutionThreshold:  g.ExecutionThreshold,
		}
		if _, err := identities.Put(db, id, identity); err != nil {
			return errors.Wrapf(err, "identity %d", i)
		}
	}
	return nil
}

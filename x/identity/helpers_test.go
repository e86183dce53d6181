package identity

import (
	"testing"

	weave "github.com/iov-one/weave-identity"
	"github.com/iov-one/weave-identity/coin"
	"github.com/iov-one/weave-identity/errors"
	"github.com/stretchr/testify/require"
	"github.com/tendermint/tendermint/libs/common"
)

// memResolver returns registered executables and a plain transfer for
// every other address.
type memResolver map[string]Executable

func (r memResolver) Resolve(db weave.ReadOnlyKVStore, target weave.Address) (Executable, error) {
	if exe, ok := r[string(target)]; ok {
		return exe, nil
	}
	return transfer{}, nil
}

// recorder counts calls and can be told to write to the store before it
// fails or panics. Tags are returned from a successful call.
type recorder struct {
	calls   int
	payload []byte
	caller  weave.Address
	write   []byte
	tags    []common.KVPair
	err     error
	panics  bool
}

func (r *recorder) Call(ctx weave.Context, db weave.KVStore, caller weave.Address, value *coin.Coin, payload []byte) ([]common.KVPair, error) {
	r.calls++
	r.caller = caller
	r.payload = payload
	if r.write != nil {
		if err := db.Set(r.write, []byte("written")); err != nil {
			return nil, err
		}
	}
	if r.panics {
		panic("call panic")
	}
	if r.err != nil {
		return nil, r.err
	}
	return r.tags, nil
}

var errCallFailed = errors.Wrap(errors.ErrState, "call failed")

func mgmtKey(addr weave.Address) *Key {
	return &Key{Address: addr, Purposes: []Purpose{ManagementPurpose}}
}

func execKey(addr weave.Address) *Key {
	return &Key{Address: addr, Purposes: []Purpose{ExecutionPurpose}}
}

func dualKey(addr weave.Address) *Key {
	return &Key{Address: addr, Purposes: []Purpose{ManagementPurpose, ExecutionPurpose}}
}

// createIdentity stores a new identity the same way the create handler
// does.
func createIdentity(t testing.TB, db weave.KVStore, mgmt, exec uint32, keys ...*Key) ([]byte, *Identity) {
	t.Helper()
	id, err := nextIdentityID(db)
	require.NoError(t, err)
	identity := &Identity{
		Metadata:            &weave.Metadata{Schema: 1},
		Address:             Condition(id).Address(),
		Keys:                keys,
		ManagementThreshold: mgmt,
		ExecutionThreshold:  exec,
	}
	_, err = NewIdentityBucket().Put(db, id, identity)
	require.NoError(t, err)
	return id, identity
}

func loadIdentity(t testing.TB, db weave.KVStore, id []byte) *Identity {
	t.Helper()
	var identity Identity
	require.NoError(t, NewIdentityBucket().One(db, id, &identity))
	return &identity
}

func eventTypes(j *journal) []EventType {
	types := make([]EventType, len(j.events))
	for i, ev := range j.events {
		types[i] = ev.Type
	}
	return types
}

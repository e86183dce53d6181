package orm

import (
	"bytes"
	"regexp"

	weave "github.com/iov-one/weave-identity"
	"github.com/iov-one/weave-identity/codec"
	"github.com/iov-one/weave-identity/errors"
)

// Index represents a secondary index on some data. It is indexed by an
// arbitrary key returned by Indexer. The value is one primary key (unique),
// or an array of primary keys (!unique).
type Index interface {
	weave.QueryHandler

	// Name returns the name of this index.
	Name() string

	// Update updates the index. It should be called when any of the bucket
	// entities has changed in the store.
	//
	// prev == nil means insert
	// save == nil means delete
	// both == nil is error
	// if both != nil and prev.Key() != save.Key() this is an error
	Update(db weave.KVStore, prev Object, save Object) error

	// Keys returns all entity keys that were indexed under given value.
	Keys(db weave.ReadOnlyKVStore, value []byte) ([][]byte, error)
}

const compactIdxPrefix = "_i."

var isIndexName = regexp.MustCompile(`^[a-z_]{3,20}$`).MatchString

// Indexer calculates the secondary index key for a given object
type Indexer func(Object) ([]byte, error)

// MultiKeyIndexer calculates the secondary index keys for a given object
type MultiKeyIndexer func(Object) ([][]byte, error)

// compactIndex is an index implementation that stores all indexed entity
// keys as a set, serialized and stored under single key. This
// implementation should be used only for small sized index collections.
type compactIndex struct {
	name   string
	id     []byte
	unique bool
	index  MultiKeyIndexer
	refKey func([]byte) []byte
}

var _ Index = compactIndex{}

// NewMultiKeyIndex constructs an index with multi key indexer.
// Indexer calculates the index for an object
// unique enforces a unique constraint on the index
// refKey calculates the absolute dbkey for a ref
func NewMultiKeyIndex(name string, indexer MultiKeyIndexer, unique bool, refKey func([]byte) []byte) Index {
	if !isIndexName(name) {
		panic("illegal index name: " + name)
	}
	return compactIndex{
		name:   name,
		id:     append([]byte(compactIdxPrefix), []byte(name+":")...),
		index:  indexer,
		unique: unique,
		refKey: refKey,
	}
}

func asMultiKeyIndexer(indexer Indexer) MultiKeyIndexer {
	return func(obj Object) ([][]byte, error) {
		key, err := indexer(obj)
		switch {
		case err != nil:
			return nil, err
		case key == nil:
			return nil, nil
		}
		return [][]byte{key}, nil
	}
}

func (i compactIndex) Name() string {
	return i.name
}

// indexKey is the full key we store in the db, including prefix
// We copy into a new array rather than use append, as we don't
// want consecutive calls to overwrite the same byte array.
func (i compactIndex) indexKey(key []byte) []byte {
	l := len(i.id)
	out := make([]byte, l+len(key))
	copy(out, i.id)
	copy(out[l:], key)
	return out
}

// Update handles updating the reference to the object in
// the secondary index.
func (i compactIndex) Update(db weave.KVStore, prev Object, save Object) error {
	switch {
	case prev == nil && save == nil:
		return errors.Wrap(errors.ErrHuman, "update requires at least one non-nil object")
	case prev == nil:
		keys, err := i.index(save)
		if err != nil {
			return err
		}
		for _, key := range keys {
			if err := i.insert(db, key, save.Key()); err != nil {
				return err
			}
		}
		return nil
	case save == nil:
		keys, err := i.index(prev)
		if err != nil {
			return err
		}
		for _, key := range keys {
			if err := i.remove(db, key, prev.Key()); err != nil {
				return err
			}
		}
		return nil
	default:
		return i.move(db, prev, save)
	}
}

func (i compactIndex) move(db weave.KVStore, prev Object, save Object) error {
	if !bytes.Equal(prev.Key(), save.Key()) {
		return errors.Wrap(errors.ErrImmutable, "cannot modify the primary key of an object")
	}
	oldKeys, err := i.index(prev)
	if err != nil {
		return err
	}
	newKeys, err := i.index(save)
	if err != nil {
		return err
	}
	for _, k := range oldKeys {
		if !containsKey(newKeys, k) {
			if err := i.remove(db, k, prev.Key()); err != nil {
				return err
			}
		}
	}
	for _, k := range newKeys {
		if !containsKey(oldKeys, k) {
			if err := i.insert(db, k, save.Key()); err != nil {
				return err
			}
		}
	}
	return nil
}

func (i compactIndex) insert(db weave.KVStore, key []byte, pk []byte) error {
	dbkey := i.indexKey(key)
	refs, err := i.load(db, dbkey)
	if err != nil {
		return err
	}
	if i.unique && len(refs) > 0 && !containsKey(refs, pk) {
		return errors.Wrapf(errors.ErrDuplicate, "index %s", i.name)
	}
	if containsKey(refs, pk) {
		return nil
	}
	refs = insertSorted(refs, pk)
	return i.store(db, dbkey, refs)
}

func (i compactIndex) remove(db weave.KVStore, key []byte, pk []byte) error {
	dbkey := i.indexKey(key)
	refs, err := i.load(db, dbkey)
	if err != nil {
		return err
	}
	var res [][]byte
	for _, r := range refs {
		if !bytes.Equal(r, pk) {
			res = append(res, r)
		}
	}
	if len(res) == len(refs) {
		return errors.Wrapf(errors.ErrNotFound, "index %s does not reference the key", i.name)
	}
	if len(res) == 0 {
		return db.Delete(dbkey)
	}
	return i.store(db, dbkey, res)
}

func (i compactIndex) load(db weave.ReadOnlyKVStore, dbkey []byte) ([][]byte, error) {
	raw, err := db.Get(dbkey)
	if err != nil {
		return nil, err
	}
	if raw == nil {
		return nil, nil
	}
	var refs MultiRef
	if err := refs.Unmarshal(raw); err != nil {
		return nil, errors.Wrap(err, "cannot decode index")
	}
	return refs.Refs, nil
}

func (i compactIndex) store(db weave.KVStore, dbkey []byte, refs [][]byte) error {
	raw, err := (&MultiRef{Refs: refs}).Marshal()
	if err != nil {
		return err
	}
	return db.Set(dbkey, raw)
}

// Keys returns a list of all entity keys that were indexed under given value.
func (i compactIndex) Keys(db weave.ReadOnlyKVStore, index []byte) ([][]byte, error) {
	return i.load(db, i.indexKey(index))
}

// Query handles queries from the QueryRouter
func (i compactIndex) Query(db weave.ReadOnlyKVStore, mod string, data []byte) ([]weave.Model, error) {
	switch mod {
	case weave.KeyQueryMod:
		refs, err := i.Keys(db, data)
		if err != nil {
			return nil, err
		}
		return i.loadRefs(db, refs)
	case weave.PrefixQueryMod:
		models, err := queryPrefix(db, i.indexKey(data))
		if err != nil {
			return nil, err
		}
		var refs [][]byte
		for _, m := range models {
			var mr MultiRef
			if err := mr.Unmarshal(m.Value); err != nil {
				return nil, errors.Wrap(err, "cannot decode index")
			}
			refs = append(refs, mr.Refs...)
		}
		return i.loadRefs(db, refs)
	default:
		return nil, errors.Wrapf(errors.ErrInput, "unknown query mod: %q", mod)
	}
}

func (i compactIndex) loadRefs(db weave.ReadOnlyKVStore, refs [][]byte) ([]weave.Model, error) {
	if len(refs) == 0 {
		return nil, nil
	}
	res := make([]weave.Model, len(refs))
	for j, ref := range refs {
		key := i.refKey(ref)
		value, err := db.Get(key)
		if err != nil {
			return nil, err
		}
		res[j] = weave.Pair(key, value)
	}
	return res, nil
}

// MultiRef is the persisted representation of a non unique index entry.
type MultiRef struct {
	Refs [][]byte
}

func (m *MultiRef) Marshal() ([]byte, error) {
	var e codec.Encoder
	e.RepeatedBytes(1, m.Refs)
	return e.Finish()
}

func (m *MultiRef) Unmarshal(raw []byte) error {
	m.Refs = nil
	return codec.Walk(raw, func(f codec.Field) error {
		if f.Num != 1 {
			return nil
		}
		b, err := f.Bytes()
		if err != nil {
			return err
		}
		m.Refs = append(m.Refs, b)
		return nil
	})
}

func containsKey(keys [][]byte, k []byte) bool {
	for _, x := range keys {
		if bytes.Equal(x, k) {
			return true
		}
	}
	return false
}

func insertSorted(refs [][]byte, pk []byte) [][]byte {
	pos := len(refs)
	for j, r := range refs {
		if bytes.Compare(pk, r) < 0 {
			pos = j
			break
		}
	}
	refs = append(refs, nil)
	copy(refs[pos+1:], refs[pos:])
	refs[pos] = pk
	return refs
}

package app

import (
	weave "github.com/iov-one/weave-identity"
	"github.com/iov-one/weave-identity/codec"
	"github.com/iov-one/weave-identity/errors"
)

// ResultSet is the serialized form of query results. A query response
// carries one set for the keys and one for the values, of the same size.
type ResultSet struct {
	Results [][]byte
}

func (r *ResultSet) Marshal() ([]byte, error) {
	var e codec.Encoder
	e.RepeatedBytes(1, r.Results)
	return e.Finish()
}

func (r *ResultSet) Unmarshal(raw []byte) error {
	*r = ResultSet{}
	return codec.Walk(raw, func(f codec.Field) error {
		if f.Num != 1 {
			return nil
		}
		b, err := f.Bytes()
		r.Results = append(r.Results, b)
		return err
	})
}

// ResultsFromKeys returns a ResultSet of all keys of given models.
func ResultsFromKeys(models []weave.Model) *ResultSet {
	res := make([][]byte, len(models))
	for i, m := range models {
		res[i] = m.Key
	}
	return &ResultSet{Results: res}
}

// ResultsFromValues returns a ResultSet of all values of given models.
func ResultsFromValues(models []weave.Model) *ResultSet {
	res := make([][]byte, len(models))
	for i, m := range models {
		res[i] = m.Value
	}
	return &ResultSet{Results: res}
}

// JoinResults inverts ResultsFromKeys and ResultsFromValues.
func JoinResults(keys, values *ResultSet) ([]weave.Model, error) {
	kref, vref := keys.Results, values.Results
	if len(kref) != len(vref) {
		return nil, errors.Wrap(errors.ErrState, "mismatched result set size")
	}
	mods := make([]weave.Model, len(kref))
	for i := range mods {
		mods[i] = weave.Pair(kref[i], vref[i])
	}
	return mods, nil
}

// UnmarshalOneResult parses a result set and, if it is not empty,
// unmarshals the first result into o.
func UnmarshalOneResult(raw []byte, o weave.Persistent) error {
	var res ResultSet
	if err := res.Unmarshal(raw); err != nil {
		return err
	}
	if len(res.Results) == 0 {
		return nil
	}
	return o.Unmarshal(res.Results[0])
}

package weave

import (
	"github.com/iov-one/weave-identity/codec"
	"github.com/iov-one/weave-identity/errors"
)

// Metadata is attached to every persisted entity and message. The schema
// version allows the data format to evolve.
type Metadata struct {
	Schema uint32
}

// Validate returns an error if the metadata is missing or declares an
// unsupported schema version.
func (m *Metadata) Validate() error {
	if m == nil {
		return errors.Wrap(errors.ErrMetadata, "missing metadata")
	}
	if m.Schema < 1 {
		return errors.Wrap(errors.ErrMetadata, "schema version must be greater than zero")
	}
	return nil
}

// Copy returns a copy of this object. This method is helpful when implementing
// orm.CloneableData interface to make a copy of the header.
func (m *Metadata) Copy() *Metadata {
	if m == nil {
		return nil
	}
	cpy := *m
	return &cpy
}

func (m *Metadata) Marshal() ([]byte, error) {
	var e codec.Encoder
	e.Uint64(1, uint64(m.Schema))
	return e.Finish()
}

func (m *Metadata) Unmarshal(raw []byte) error {
	return codec.Walk(raw, func(f codec.Field) error {
		if f.Num == 1 {
			v, err := f.Uint64()
			m.Schema = uint32(v)
			return err
		}
		return nil
	})
}

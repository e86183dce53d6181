package orm

import (
	"github.com/iov-one/weave-identity/codec"
	"github.com/iov-one/weave-identity/errors"
)

// counter is a minimal model used to exercise buckets and indexes.
type counter struct {
	Count int64
	Tags  [][]byte
}

func (c *counter) Marshal() ([]byte, error) {
	var e codec.Encoder
	e.Int64(1, c.Count)
	e.RepeatedBytes(2, c.Tags)
	return e.Finish()
}

func (c *counter) Unmarshal(raw []byte) error {
	*c = counter{}
	return codec.Walk(raw, func(f codec.Field) error {
		switch f.Num {
		case 1:
			v, err := f.Int64()
			c.Count = v
			return err
		case 2:
			b, err := f.Bytes()
			c.Tags = append(c.Tags, b)
			return err
		}
		return nil
	})
}

func (c *counter) Validate() error {
	if c.Count < 0 {
		return errors.Wrap(errors.ErrModel, "negative count")
	}
	return nil
}

func (c *counter) Copy() CloneableData {
	cpy := &counter{Count: c.Count}
	for _, t := range c.Tags {
		cpy.Tags = append(cpy.Tags, append([]byte(nil), t...))
	}
	return cpy
}

// byCount indexes a counter by its big endian count value.
func byCount(obj Object) ([]byte, error) {
	c, ok := obj.Value().(*counter)
	if !ok {
		return nil, errors.Wrapf(errors.ErrType, "%T", obj.Value())
	}
	return EncodeSequence(c.Count), nil
}

func byTags(obj Object) ([][]byte, error) {
	c, ok := obj.Value().(*counter)
	if !ok {
		return nil, errors.Wrapf(errors.ErrType, "%T", obj.Value())
	}
	return c.Tags, nil
}

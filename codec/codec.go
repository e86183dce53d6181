/*
Package codec implements the binary encoding of models and messages.

The format is the protobuf wire format restricted to varint and length
delimited fields, so every entity stays readable by any protobuf client that
knows its field numbers. Zero values are omitted, exactly as proto3 does.

	func (m *Thing) Marshal() ([]byte, error) {
		var e codec.Encoder
		e.Uint64(1, m.Counter)
		e.Bytes(2, m.Owner)
		e.Message(3, m.Metadata)
		return e.Finish()
	}
*/
package codec

import (
	"reflect"

	"github.com/gogo/protobuf/proto"
	"github.com/iov-one/weave-identity/errors"
)

const (
	wireVarint = 0
	wireBytes  = 2
)

// Marshaller is anything that can be represented in binary.
type Marshaller interface {
	Marshal() ([]byte, error)
}

// Unmarshaller is anything that can load its state from binary.
type Unmarshaller interface {
	Unmarshal([]byte) error
}

// Encoder builds a binary representation field by field. The zero value is
// ready to use. The first error returned by a nested marshaller is kept and
// returned by Finish.
type Encoder struct {
	buf []byte
	err error
}

func (e *Encoder) key(field int, wire int) {
	e.buf = append(e.buf, proto.EncodeVarint(uint64(field)<<3|uint64(wire))...)
}

// Uint64 writes an unsigned integer field.
func (e *Encoder) Uint64(field int, v uint64) {
	if v == 0 {
		return
	}
	e.key(field, wireVarint)
	e.buf = append(e.buf, proto.EncodeVarint(v)...)
}

// Int64 writes a signed integer field.
func (e *Encoder) Int64(field int, v int64) {
	e.Uint64(field, uint64(v))
}

// Bool writes a boolean field.
func (e *Encoder) Bool(field int, v bool) {
	if v {
		e.Uint64(field, 1)
	}
}

// Bytes writes a length delimited field.
func (e *Encoder) Bytes(field int, v []byte) {
	if len(v) == 0 {
		return
	}
	e.rawBytes(field, v)
}

func (e *Encoder) rawBytes(field int, v []byte) {
	e.key(field, wireBytes)
	e.buf = append(e.buf, proto.EncodeVarint(uint64(len(v)))...)
	e.buf = append(e.buf, v...)
}

// String writes a string field.
func (e *Encoder) String(field int, s string) {
	e.Bytes(field, []byte(s))
}

// RepeatedBytes writes one length delimited field per element. Empty
// elements are preserved.
func (e *Encoder) RepeatedBytes(field int, vs [][]byte) {
	for _, v := range vs {
		e.rawBytes(field, v)
	}
}

// PackedUint64 writes a packed repeated varint field.
func (e *Encoder) PackedUint64(field int, vs []uint64) {
	if len(vs) == 0 {
		return
	}
	var packed []byte
	for _, v := range vs {
		packed = append(packed, proto.EncodeVarint(v)...)
	}
	e.rawBytes(field, packed)
}

// Message writes a nested message. Nil values are omitted.
func (e *Encoder) Message(field int, m Marshaller) {
	if isNil(m) {
		return
	}
	raw, err := m.Marshal()
	if err != nil {
		if e.err == nil {
			e.err = errors.Wrapf(err, "field %d", field)
		}
		return
	}
	e.rawBytes(field, raw)
}

// Finish returns the encoded representation.
func (e *Encoder) Finish() ([]byte, error) {
	if e.err != nil {
		return nil, e.err
	}
	return e.buf, nil
}

// Field is a single decoded field. Depending on the wire type either Varint
// or Raw is set.
type Field struct {
	Num    int
	Wire   int
	Varint uint64
	Raw    []byte
}

// Walk decodes given data and calls fn for every field, in order. Unknown
// fields can be ignored by fn.
func Walk(data []byte, fn func(Field) error) error {
	for len(data) > 0 {
		key, n := proto.DecodeVarint(data)
		if n == 0 {
			return errors.Wrap(errors.ErrInput, "malformed field key")
		}
		data = data[n:]

		f := Field{Num: int(key >> 3), Wire: int(key & 7)}
		switch f.Wire {
		case wireVarint:
			v, n := proto.DecodeVarint(data)
			if n == 0 {
				return errors.Wrapf(errors.ErrInput, "malformed varint field %d", f.Num)
			}
			f.Varint = v
			data = data[n:]
		case wireBytes:
			size, n := proto.DecodeVarint(data)
			if n == 0 || size > uint64(len(data)-n) {
				return errors.Wrapf(errors.ErrInput, "malformed bytes field %d", f.Num)
			}
			end := n + int(size)
			f.Raw = data[n:end]
			data = data[end:]
		default:
			return errors.Wrapf(errors.ErrInput, "unsupported wire type %d", f.Wire)
		}

		if err := fn(f); err != nil {
			return err
		}
	}
	return nil
}

// Uint64 returns the varint value of this field.
func (f Field) Uint64() (uint64, error) {
	if f.Wire != wireVarint {
		return 0, errors.Wrapf(errors.ErrInput, "field %d is not a varint", f.Num)
	}
	return f.Varint, nil
}

// Int64 returns the signed varint value of this field.
func (f Field) Int64() (int64, error) {
	v, err := f.Uint64()
	return int64(v), err
}

// Bool returns the boolean value of this field.
func (f Field) Bool() (bool, error) {
	v, err := f.Uint64()
	return v != 0, err
}

// Bytes returns a copy of the length delimited value of this field.
func (f Field) Bytes() ([]byte, error) {
	if f.Wire != wireBytes {
		return nil, errors.Wrapf(errors.ErrInput, "field %d is not length delimited", f.Num)
	}
	cpy := make([]byte, len(f.Raw))
	copy(cpy, f.Raw)
	return cpy, nil
}

// Text returns the string value of this field.
func (f Field) Text() (string, error) {
	b, err := f.Bytes()
	return string(b), err
}

// PackedUint64 decodes a packed repeated varint field.
func (f Field) PackedUint64() ([]uint64, error) {
	if f.Wire != wireBytes {
		return nil, errors.Wrapf(errors.ErrInput, "field %d is not packed", f.Num)
	}
	var res []uint64
	raw := f.Raw
	for len(raw) > 0 {
		v, n := proto.DecodeVarint(raw)
		if n == 0 {
			return nil, errors.Wrapf(errors.ErrInput, "malformed packed field %d", f.Num)
		}
		res = append(res, v)
		raw = raw[n:]
	}
	return res, nil
}

// Message decodes this field into given destination.
func (f Field) Message(dst Unmarshaller) error {
	if f.Wire != wireBytes {
		return errors.Wrapf(errors.ErrInput, "field %d is not a message", f.Num)
	}
	return dst.Unmarshal(f.Raw)
}

func isNil(m Marshaller) bool {
	if m == nil {
		return true
	}
	v := reflect.ValueOf(m)
	return v.Kind() == reflect.Ptr && v.IsNil()
}

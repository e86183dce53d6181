package identity

import (
	weave "github.com/iov-one/weave-identity"
	"github.com/iov-one/weave-identity/codec"
	"github.com/iov-one/weave-identity/errors"
	"github.com/iov-one/weave-identity/gconf"
)

const packageName = "identity"

// Configuration holds the limits enforced on identities. A zero limit is
// not enforced.
type Configuration struct {
	Metadata       *weave.Metadata `json:"metadata"`
	Owner          weave.Address   `json:"owner"`
	MaxKeys        int32           `json:"max_keys"`
	MaxPayloadSize int32           `json:"max_payload_size"`
}

var _ gconf.OwnedConfig = (*Configuration)(nil)

func (c *Configuration) GetOwner() weave.Address {
	return c.Owner
}

func (c *Configuration) Validate() error {
	var errs error
	errs = errors.AppendField(errs, "Metadata", c.Metadata.Validate())
	if len(c.Owner) != 0 {
		errs = errors.AppendField(errs, "Owner", c.Owner.Validate())
	}
	if c.MaxKeys < 0 {
		errs = errors.AppendField(errs, "MaxKeys", errors.Wrap(errors.ErrInput, "negative"))
	}
	if c.MaxPayloadSize < 0 {
		errs = errors.AppendField(errs, "MaxPayloadSize", errors.Wrap(errors.ErrInput, "negative"))
	}
	return errs
}

func (c *Configuration) Marshal() ([]byte, error) {
	var e codec.Encoder
	e.Message(1, c.Metadata)
	e.Bytes(2, c.Owner)
	e.Int64(3, int64(c.MaxKeys))
	e.Int64(4, int64(c.MaxPayloadSize))
	return e.Finish()
}

func (c *Configuration) Unmarshal(raw []byte) error {
	*c = Configuration{}
	return codec.Walk(raw, func(f codec.Field) error {
		var err error
		var v int64
		switch f.Num {
		case 1:
			c.Metadata = &weave.Metadata{}
			err = f.Message(c.Metadata)
		case 2:
			c.Owner, err = f.Bytes()
		case 3:
			v, err = f.Int64()
			c.MaxKeys = int32(v)
		case 4:
			v, err = f.Int64()
			c.MaxPayloadSize = int32(v)
		}
		return err
	})
}

// loadConf returns the stored configuration or one without limits if none
// was saved yet.
func loadConf(db gconf.ReadStore) (*Configuration, error) {
	var conf Configuration
	switch err := gconf.Load(db, packageName, &conf); {
	case err == nil:
		return &conf, nil
	case errors.ErrNotFound.Is(err):
		return &Configuration{Metadata: &weave.Metadata{Schema: 1}}, nil
	default:
		return nil, errors.Wrap(err, "load configuration")
	}
}

func (c *Configuration) checkKeys(n int) error {
	if c.MaxKeys > 0 && n > int(c.MaxKeys) {
		return errors.Wrapf(errors.ErrInput, "at most %d keys allowed", c.MaxKeys)
	}
	return nil
}

func (c *Configuration) checkPayload(payload []byte) error {
	if c.MaxPayloadSize > 0 && len(payload) > int(c.MaxPayloadSize) {
		return errors.Wrapf(errors.ErrInput, "payload larger than %d bytes", c.MaxPayloadSize)
	}
	return nil
}

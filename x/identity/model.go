package identity

import (
	"fmt"

	weave "github.com/iov-one/weave-identity"
	"github.com/iov-one/weave-identity/codec"
	"github.com/iov-one/weave-identity/coin"
	"github.com/iov-one/weave-identity/errors"
	"github.com/iov-one/weave-identity/orm"
)

// Purpose is a role tag on a key.
type Purpose uint32

const (
	ManagementPurpose Purpose = 1
	ExecutionPurpose  Purpose = 2
	ClaimPurpose      Purpose = 3
	EncryptionPurpose Purpose = 4
)

// Validate returns an error for unknown purposes.
func (p Purpose) Validate() error {
	switch p {
	case ManagementPurpose, ExecutionPurpose, ClaimPurpose, EncryptionPurpose:
		return nil
	}
	return errors.Wrapf(errors.ErrInput, "unknown purpose %d", p)
}

// HasThreshold is true for purposes that require a number of approvals.
func (p Purpose) HasThreshold() bool {
	return p == ManagementPurpose || p == ExecutionPurpose
}

func (p Purpose) String() string {
	switch p {
	case ManagementPurpose:
		return "management"
	case ExecutionPurpose:
		return "execution"
	case ClaimPurpose:
		return "claim"
	case EncryptionPurpose:
		return "encryption"
	}
	return fmt.Sprintf("purpose(%d)", uint32(p))
}

// Key is an address registered on an identity together with its purposes.
type Key struct {
	Address  weave.Address `json:"address"`
	Purposes []Purpose     `json:"purposes"`
}

func (k *Key) Marshal() ([]byte, error) {
	var e codec.Encoder
	e.Bytes(1, k.Address)
	ps := make([]uint64, len(k.Purposes))
	for i, p := range k.Purposes {
		ps[i] = uint64(p)
	}
	e.PackedUint64(2, ps)
	return e.Finish()
}

func (k *Key) Unmarshal(raw []byte) error {
	*k = Key{}
	return codec.Walk(raw, func(f codec.Field) error {
		switch f.Num {
		case 1:
			var err error
			k.Address, err = f.Bytes()
			return err
		case 2:
			ps, err := f.PackedUint64()
			if err != nil {
				return err
			}
			for _, p := range ps {
				k.Purposes = append(k.Purposes, Purpose(p))
			}
		}
		return nil
	})
}

// Validate ensures the key has an address and a set of known purposes.
func (k *Key) Validate() error {
	if k == nil {
		return errors.Wrap(errors.ErrEmpty, "key")
	}
	var errs error
	errs = errors.AppendField(errs, "Address", k.Address.Validate())
	if len(k.Purposes) == 0 {
		errs = errors.AppendField(errs, "Purposes", errors.Wrap(errors.ErrEmpty, "at least one purpose required"))
	}
	seen := make(map[Purpose]struct{}, len(k.Purposes))
	for _, p := range k.Purposes {
		if err := p.Validate(); err != nil {
			errs = errors.AppendField(errs, "Purposes", err)
			continue
		}
		if _, ok := seen[p]; ok {
			errs = errors.AppendField(errs, "Purposes", errors.Wrapf(errors.ErrDuplicate, "purpose %s", p))
		}
		seen[p] = struct{}{}
	}
	return errs
}

// HasPurpose returns true if the key is tagged with given purpose.
func (k *Key) HasPurpose(p Purpose) bool {
	for _, kp := range k.Purposes {
		if kp == p {
			return true
		}
	}
	return false
}

func (k *Key) clone() *Key {
	return &Key{
		Address:  append(weave.Address(nil), k.Address...),
		Purposes: append([]Purpose(nil), k.Purposes...),
	}
}

// Identity is the state owned by a single identity. The execution engine is
// the only writer of the nonce.
type Identity struct {
	Metadata            *weave.Metadata
	Address             weave.Address
	Keys                []*Key
	ManagementThreshold uint32
	ExecutionThreshold  uint32
	Nonce               uint64
	Paused              bool
}

var _ orm.Model = (*Identity)(nil)

func (i *Identity) Marshal() ([]byte, error) {
	var e codec.Encoder
	e.Message(1, i.Metadata)
	e.Bytes(2, i.Address)
	for _, k := range i.Keys {
		e.Message(3, k)
	}
	e.Uint64(4, uint64(i.ManagementThreshold))
	e.Uint64(5, uint64(i.ExecutionThreshold))
	e.Uint64(6, i.Nonce)
	e.Bool(7, i.Paused)
	return e.Finish()
}

func (i *Identity) Unmarshal(raw []byte) error {
	*i = Identity{}
	return codec.Walk(raw, func(f codec.Field) error {
		var err error
		var v uint64
		switch f.Num {
		case 1:
			i.Metadata = &weave.Metadata{}
			err = f.Message(i.Metadata)
		case 2:
			i.Address, err = f.Bytes()
		case 3:
			var k Key
			err = f.Message(&k)
			i.Keys = append(i.Keys, &k)
		case 4:
			v, err = f.Uint64()
			i.ManagementThreshold = uint32(v)
		case 5:
			v, err = f.Uint64()
			i.ExecutionThreshold = uint32(v)
		case 6:
			i.Nonce, err = f.Uint64()
		case 7:
			i.Paused, err = f.Bool()
		}
		return err
	})
}

// Validate checks the stored state. Thresholds are not compared with the
// key count, removing a key never invalidates an identity.
func (i *Identity) Validate() error {
	var errs error
	errs = errors.AppendField(errs, "Metadata", i.Metadata.Validate())
	errs = errors.AppendField(errs, "Address", i.Address.Validate())
	seen := make(map[string]struct{}, len(i.Keys))
	for _, k := range i.Keys {
		if err := k.Validate(); err != nil {
			errs = errors.AppendField(errs, "Keys", err)
			continue
		}
		if _, ok := seen[string(k.Address)]; ok {
			errs = errors.AppendField(errs, "Keys", errors.Wrapf(errors.ErrDuplicate, "key %s", k.Address))
		}
		seen[string(k.Address)] = struct{}{}
	}
	if i.ManagementThreshold < 1 {
		errs = errors.AppendField(errs, "ManagementThreshold", errors.Wrap(errors.ErrModel, "must be at least 1"))
	}
	if i.ExecutionThreshold < 1 {
		errs = errors.AppendField(errs, "ExecutionThreshold", errors.Wrap(errors.ErrModel, "must be at least 1"))
	}
	return errs
}

func (i *Identity) Copy() orm.CloneableData {
	keys := make([]*Key, len(i.Keys))
	for n, k := range i.Keys {
		keys[n] = k.clone()
	}
	return &Identity{
		Metadata:            i.Metadata.Copy(),
		Address:             append(weave.Address(nil), i.Address...),
		Keys:                keys,
		ManagementThreshold: i.ManagementThreshold,
		ExecutionThreshold:  i.ExecutionThreshold,
		Nonce:               i.Nonce,
		Paused:              i.Paused,
	}
}

// HasPurpose returns true if given address holds given purpose on this
// identity.
func (i *Identity) HasPurpose(addr weave.Address, p Purpose) bool {
	k := i.key(addr)
	return k != nil && k.HasPurpose(p)
}

// CountByPurpose returns the number of keys that hold given purpose.
func (i *Identity) CountByPurpose(p Purpose) uint32 {
	var n uint32
	for _, k := range i.Keys {
		if k.HasPurpose(p) {
			n++
		}
	}
	return n
}

func (i *Identity) key(addr weave.Address) *Key {
	for _, k := range i.Keys {
		if k.Address.Equals(addr) {
			return k
		}
	}
	return nil
}

// RequiredApprovals returns the threshold configured for given purpose.
func (i *Identity) RequiredApprovals(p Purpose) (uint32, error) {
	switch p {
	case ManagementPurpose:
		return i.ManagementThreshold, nil
	case ExecutionPurpose:
		return i.ExecutionThreshold, nil
	}
	return 0, errors.Wrapf(errors.ErrInput, "purpose %s has no threshold", p)
}

// validateThreshold checks that n approvals can be collected from the
// current keys holding purpose p.
func (i *Identity) validateThreshold(p Purpose, n uint32) error {
	if !p.HasThreshold() {
		return errors.Wrapf(errors.ErrInput, "purpose %s has no threshold", p)
	}
	if n < 1 {
		return errors.Wrapf(errors.ErrInput, "%s threshold must be at least 1", p)
	}
	if have := i.CountByPurpose(p); n > have {
		return errors.Wrapf(errors.ErrInput, "%s threshold %d exceeds %d keys", p, n, have)
	}
	return nil
}

// ExecutionRequest is a pending request waiting for approvals. Requests
// executed on submission are never stored.
type ExecutionRequest struct {
	Metadata   *weave.Metadata
	IdentityID []byte
	Target     weave.Address
	Value      *coin.Coin
	Payload    []byte
	// Remaining is the number of approvals still needed.
	Remaining uint32
}

var _ orm.Model = (*ExecutionRequest)(nil)

func (r *ExecutionRequest) Marshal() ([]byte, error) {
	var e codec.Encoder
	e.Message(1, r.Metadata)
	e.Bytes(2, r.IdentityID)
	e.Bytes(3, r.Target)
	e.Message(4, r.Value)
	e.Bytes(5, r.Payload)
	e.Uint64(6, uint64(r.Remaining))
	return e.Finish()
}

func (r *ExecutionRequest) Unmarshal(raw []byte) error {
	*r = ExecutionRequest{}
	return codec.Walk(raw, func(f codec.Field) error {
		var err error
		switch f.Num {
		case 1:
			r.Metadata = &weave.Metadata{}
			err = f.Message(r.Metadata)
		case 2:
			r.IdentityID, err = f.Bytes()
		case 3:
			r.Target, err = f.Bytes()
		case 4:
			r.Value = &coin.Coin{}
			err = f.Message(r.Value)
		case 5:
			r.Payload, err = f.Bytes()
		case 6:
			var v uint64
			v, err = f.Uint64()
			r.Remaining = uint32(v)
		}
		return err
	})
}

func (r *ExecutionRequest) Validate() error {
	var errs error
	errs = errors.AppendField(errs, "Metadata", r.Metadata.Validate())
	if len(r.IdentityID) == 0 {
		errs = errors.AppendField(errs, "IdentityID", errors.ErrEmpty)
	}
	if err := r.Target.Validate(); err != nil {
		errs = errors.AppendField(errs, "Target", err)
	} else if r.Target.IsZero() {
		errs = errors.AppendField(errs, "Target", errors.Wrap(errors.ErrInput, "zero address"))
	}
	if !coin.IsEmpty(r.Value) {
		errs = errors.AppendField(errs, "Value", r.Value.Validate())
	}
	return errs
}

func (r *ExecutionRequest) Copy() orm.CloneableData {
	return &ExecutionRequest{
		Metadata:   r.Metadata.Copy(),
		IdentityID: append([]byte(nil), r.IdentityID...),
		Target:     append(weave.Address(nil), r.Target...),
		Value:      r.Value.Clone(),
		Payload:    append([]byte(nil), r.Payload...),
		Remaining:  r.Remaining,
	}
}

// ApprovalSet is the ordered list of addresses that approved a pending
// request. It is stored under the request ID.
type ApprovalSet struct {
	Metadata  *weave.Metadata
	Approvers []weave.Address
}

var _ orm.Model = (*ApprovalSet)(nil)

func (a *ApprovalSet) Marshal() ([]byte, error) {
	var e codec.Encoder
	e.Message(1, a.Metadata)
	raw := make([][]byte, len(a.Approvers))
	for i, addr := range a.Approvers {
		raw[i] = addr
	}
	e.RepeatedBytes(2, raw)
	return e.Finish()
}

func (a *ApprovalSet) Unmarshal(raw []byte) error {
	*a = ApprovalSet{}
	return codec.Walk(raw, func(f codec.Field) error {
		switch f.Num {
		case 1:
			a.Metadata = &weave.Metadata{}
			return f.Message(a.Metadata)
		case 2:
			b, err := f.Bytes()
			a.Approvers = append(a.Approvers, b)
			return err
		}
		return nil
	})
}

func (a *ApprovalSet) Validate() error {
	var errs error
	errs = errors.AppendField(errs, "Metadata", a.Metadata.Validate())
	for n, addr := range a.Approvers {
		if err := addr.Validate(); err != nil {
			errs = errors.AppendField(errs, "Approvers", err)
		}
		for _, prev := range a.Approvers[:n] {
			if prev.Equals(addr) {
				errs = errors.AppendField(errs, "Approvers", errors.Wrapf(errors.ErrDuplicate, "approver %s", addr))
			}
		}
	}
	return errs
}

func (a *ApprovalSet) Copy() orm.CloneableData {
	approvers := make([]weave.Address, len(a.Approvers))
	for i, addr := range a.Approvers {
		approvers[i] = append(weave.Address(nil), addr...)
	}
	return &ApprovalSet{
		Metadata:  a.Metadata.Copy(),
		Approvers: approvers,
	}
}

// Contains returns true if addr already approved.
func (a *ApprovalSet) Contains(addr weave.Address) bool {
	return a.index(addr) >= 0
}

// Remove drops addr from the set, keeping the order of the remaining
// approvers. It returns false if addr was not present.
func (a *ApprovalSet) Remove(addr weave.Address) bool {
	n := a.index(addr)
	if n < 0 {
		return false
	}
	a.Approvers = append(a.Approvers[:n], a.Approvers[n+1:]...)
	return true
}

func (a *ApprovalSet) index(addr weave.Address) int {
	for n, approver := range a.Approvers {
		if approver.Equals(addr) {
			return n
		}
	}
	return -1
}

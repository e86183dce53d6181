package identity

import (
	weave "github.com/iov-one/weave-identity"
	"github.com/iov-one/weave-identity/codec"
	"github.com/iov-one/weave-identity/coin"
	"github.com/iov-one/weave-identity/errors"
)

const (
	pathCreateIdentityMsg      = "identity/create"
	pathAddKeyMsg              = "identity/add_key"
	pathRemoveKeyMsg           = "identity/remove_key"
	pathSubmitMsg              = "identity/submit"
	pathApproveMsg             = "identity/approve"
	pathChangeThresholdMsg     = "identity/change_threshold"
	pathPauseMsg               = "identity/pause"
	pathUnpauseMsg             = "identity/unpause"
	pathDestroyMsg             = "identity/destroy"
	pathUpdateConfigurationMsg = "identity/update_configuration"
)

var (
	_ weave.Msg   = (*CreateIdentityMsg)(nil)
	_ IdentityMsg = (*AddKeyMsg)(nil)
	_ IdentityMsg = (*RemoveKeyMsg)(nil)
	_ IdentityMsg = (*SubmitMsg)(nil)
	_ IdentityMsg = (*ApproveMsg)(nil)
	_ IdentityMsg = (*ChangeThresholdMsg)(nil)
	_ IdentityMsg = (*PauseMsg)(nil)
	_ IdentityMsg = (*UnpauseMsg)(nil)
	_ IdentityMsg = (*DestroyMsg)(nil)
	_ weave.Msg   = (*UpdateConfigurationMsg)(nil)
)

// validateRef checks the fields every message acting on an existing
// identity carries.
func validateRef(errs error, meta *weave.Metadata, id []byte, sender weave.Address) error {
	errs = errors.AppendField(errs, "Metadata", meta.Validate())
	if len(id) != 8 {
		errs = errors.AppendField(errs, "IdentityID", errors.Wrap(errors.ErrInput, "must be 8 bytes"))
	}
	if len(sender) != 0 {
		errs = errors.AppendField(errs, "Sender", sender.Validate())
	}
	return errs
}

// CreateIdentityMsg creates a new identity with an initial key set.
type CreateIdentityMsg struct {
	Metadata            *weave.Metadata
	Keys                []*Key
	ManagementThreshold uint32
	ExecutionThreshold  uint32
}

func (CreateIdentityMsg) Path() string { return pathCreateIdentityMsg }

func (m *CreateIdentityMsg) Validate() error {
	var errs error
	errs = errors.AppendField(errs, "Metadata", m.Metadata.Validate())
	if len(m.Keys) == 0 {
		errs = errors.AppendField(errs, "Keys", errors.ErrEmpty)
	}
	draft := Identity{Keys: m.Keys}
	seen := make(map[string]struct{}, len(m.Keys))
	for _, k := range m.Keys {
		if k == nil {
			errs = errors.AppendField(errs, "Keys", errors.Wrap(errors.ErrEmpty, "nil key"))
			return errs
		}
		if err := k.Validate(); err != nil {
			errs = errors.AppendField(errs, "Keys", err)
		}
		if _, ok := seen[string(k.Address)]; ok {
			errs = errors.AppendField(errs, "Keys", errors.Wrapf(errors.ErrDuplicate, "key %s", k.Address))
		}
		seen[string(k.Address)] = struct{}{}
	}
	errs = errors.AppendField(errs, "ManagementThreshold", draft.validateThreshold(ManagementPurpose, m.ManagementThreshold))
	errs = errors.AppendField(errs, "ExecutionThreshold", draft.validateThreshold(ExecutionPurpose, m.ExecutionThreshold))
	return errs
}

func (m *CreateIdentityMsg) Marshal() ([]byte, error) {
	var e codec.Encoder
	e.Message(1, m.Metadata)
	for _, k := range m.Keys {
		e.Message(2, k)
	}
	e.Uint64(3, uint64(m.ManagementThreshold))
	e.Uint64(4, uint64(m.ExecutionThreshold))
	return e.Finish()
}

func (m *CreateIdentityMsg) Unmarshal(raw []byte) error {
	*m = CreateIdentityMsg{}
	return codec.Walk(raw, func(f codec.Field) error {
		var err error
		var v uint64
		switch f.Num {
		case 1:
			m.Metadata = &weave.Metadata{}
			err = f.Message(m.Metadata)
		case 2:
			var k Key
			err = f.Message(&k)
			m.Keys = append(m.Keys, &k)
		case 3:
			v, err = f.Uint64()
			m.ManagementThreshold = uint32(v)
		case 4:
			v, err = f.Uint64()
			m.ExecutionThreshold = uint32(v)
		}
		return err
	})
}

// AddKeyMsg registers a new key on an identity.
type AddKeyMsg struct {
	Metadata   *weave.Metadata
	IdentityID []byte
	Sender     weave.Address
	Key        *Key
}

func (AddKeyMsg) Path() string             { return pathAddKeyMsg }
func (m *AddKeyMsg) GetIdentityID() []byte { return m.IdentityID }

func (m *AddKeyMsg) Validate() error {
	errs := validateRef(nil, m.Metadata, m.IdentityID, m.Sender)
	if m.Key == nil {
		return errors.AppendField(errs, "Key", errors.ErrEmpty)
	}
	return errors.AppendField(errs, "Key", m.Key.Validate())
}

func (m *AddKeyMsg) Marshal() ([]byte, error) {
	var e codec.Encoder
	e.Message(1, m.Metadata)
	e.Bytes(2, m.IdentityID)
	e.Bytes(3, m.Sender)
	e.Message(4, m.Key)
	return e.Finish()
}

func (m *AddKeyMsg) Unmarshal(raw []byte) error {
	*m = AddKeyMsg{}
	return codec.Walk(raw, func(f codec.Field) error {
		var err error
		switch f.Num {
		case 1:
			m.Metadata = &weave.Metadata{}
			err = f.Message(m.Metadata)
		case 2:
			m.IdentityID, err = f.Bytes()
		case 3:
			m.Sender, err = f.Bytes()
		case 4:
			m.Key = &Key{}
			err = f.Message(m.Key)
		}
		return err
	})
}

// RemoveKeyMsg removes a key with all its purposes from an identity.
type RemoveKeyMsg struct {
	Metadata   *weave.Metadata
	IdentityID []byte
	Sender     weave.Address
	Address    weave.Address
}

func (RemoveKeyMsg) Path() string             { return pathRemoveKeyMsg }
func (m *RemoveKeyMsg) GetIdentityID() []byte { return m.IdentityID }

func (m *RemoveKeyMsg) Validate() error {
	errs := validateRef(nil, m.Metadata, m.IdentityID, m.Sender)
	return errors.AppendField(errs, "Address", m.Address.Validate())
}

func (m *RemoveKeyMsg) Marshal() ([]byte, error) {
	var e codec.Encoder
	e.Message(1, m.Metadata)
	e.Bytes(2, m.IdentityID)
	e.Bytes(3, m.Sender)
	e.Bytes(4, m.Address)
	return e.Finish()
}

func (m *RemoveKeyMsg) Unmarshal(raw []byte) error {
	*m = RemoveKeyMsg{}
	return codec.Walk(raw, func(f codec.Field) error {
		var err error
		switch f.Num {
		case 1:
			m.Metadata = &weave.Metadata{}
			err = f.Message(m.Metadata)
		case 2:
			m.IdentityID, err = f.Bytes()
		case 3:
			m.Sender, err = f.Bytes()
		case 4:
			m.Address, err = f.Bytes()
		}
		return err
	})
}

// SubmitMsg creates an execution request. The target address can be the
// identity itself, in which case the payload must be a message addressed to
// this identity.
type SubmitMsg struct {
	Metadata   *weave.Metadata
	IdentityID []byte
	Sender     weave.Address
	Target     weave.Address
	Value      *coin.Coin
	Payload    []byte
}

func (SubmitMsg) Path() string             { return pathSubmitMsg }
func (m *SubmitMsg) GetIdentityID() []byte { return m.IdentityID }

func (m *SubmitMsg) Validate() error {
	errs := validateRef(nil, m.Metadata, m.IdentityID, m.Sender)
	errs = errors.AppendField(errs, "Target", m.Target.Validate())
	if !coin.IsEmpty(m.Value) {
		if err := m.Value.Validate(); err != nil {
			errs = errors.AppendField(errs, "Value", err)
		} else if !m.Value.IsPositive() {
			errs = errors.AppendField(errs, "Value", errors.Wrap(errors.ErrAmount, "must be positive"))
		}
	}
	return errs
}

func (m *SubmitMsg) Marshal() ([]byte, error) {
	var e codec.Encoder
	e.Message(1, m.Metadata)
	e.Bytes(2, m.IdentityID)
	e.Bytes(3, m.Sender)
	e.Bytes(4, m.Target)
	e.Message(5, m.Value)
	e.Bytes(6, m.Payload)
	return e.Finish()
}

func (m *SubmitMsg) Unmarshal(raw []byte) error {
	*m = SubmitMsg{}
	return codec.Walk(raw, func(f codec.Field) error {
		var err error
		switch f.Num {
		case 1:
			m.Metadata = &weave.Metadata{}
			err = f.Message(m.Metadata)
		case 2:
			m.IdentityID, err = f.Bytes()
		case 3:
			m.Sender, err = f.Bytes()
		case 4:
			m.Target, err = f.Bytes()
		case 5:
			m.Value = &coin.Coin{}
			err = f.Message(m.Value)
		case 6:
			m.Payload, err = f.Bytes()
		}
		return err
	})
}

// ApproveMsg approves a pending request, or withdraws an approval when
// Approve is false.
type ApproveMsg struct {
	Metadata   *weave.Metadata
	IdentityID []byte
	Sender     weave.Address
	RequestID  RequestID
	Approve    bool
}

func (ApproveMsg) Path() string             { return pathApproveMsg }
func (m *ApproveMsg) GetIdentityID() []byte { return m.IdentityID }

func (m *ApproveMsg) Validate() error {
	errs := validateRef(nil, m.Metadata, m.IdentityID, m.Sender)
	return errors.AppendField(errs, "RequestID", m.RequestID.Validate())
}

func (m *ApproveMsg) Marshal() ([]byte, error) {
	var e codec.Encoder
	e.Message(1, m.Metadata)
	e.Bytes(2, m.IdentityID)
	e.Bytes(3, m.Sender)
	e.Bytes(4, m.RequestID)
	e.Bool(5, m.Approve)
	return e.Finish()
}

func (m *ApproveMsg) Unmarshal(raw []byte) error {
	*m = ApproveMsg{}
	return codec.Walk(raw, func(f codec.Field) error {
		var err error
		switch f.Num {
		case 1:
			m.Metadata = &weave.Metadata{}
			err = f.Message(m.Metadata)
		case 2:
			m.IdentityID, err = f.Bytes()
		case 3:
			m.Sender, err = f.Bytes()
		case 4:
			m.RequestID, err = f.Bytes()
		case 5:
			m.Approve, err = f.Bool()
		}
		return err
	})
}

// ChangeThresholdMsg sets the number of approvals required for a purpose.
type ChangeThresholdMsg struct {
	Metadata   *weave.Metadata
	IdentityID []byte
	Sender     weave.Address
	Purpose    Purpose
	Threshold  uint32
}

func (ChangeThresholdMsg) Path() string             { return pathChangeThresholdMsg }
func (m *ChangeThresholdMsg) GetIdentityID() []byte { return m.IdentityID }

func (m *ChangeThresholdMsg) Validate() error {
	errs := validateRef(nil, m.Metadata, m.IdentityID, m.Sender)
	if !m.Purpose.HasThreshold() {
		errs = errors.AppendField(errs, "Purpose", errors.Wrapf(errors.ErrInput, "purpose %s has no threshold", m.Purpose))
	}
	if m.Threshold < 1 {
		errs = errors.AppendField(errs, "Threshold", errors.Wrap(errors.ErrInput, "must be at least 1"))
	}
	return errs
}

func (m *ChangeThresholdMsg) Marshal() ([]byte, error) {
	var e codec.Encoder
	e.Message(1, m.Metadata)
	e.Bytes(2, m.IdentityID)
	e.Bytes(3, m.Sender)
	e.Uint64(4, uint64(m.Purpose))
	e.Uint64(5, uint64(m.Threshold))
	return e.Finish()
}

func (m *ChangeThresholdMsg) Unmarshal(raw []byte) error {
	*m = ChangeThresholdMsg{}
	return codec.Walk(raw, func(f codec.Field) error {
		var err error
		var v uint64
		switch f.Num {
		case 1:
			m.Metadata = &weave.Metadata{}
			err = f.Message(m.Metadata)
		case 2:
			m.IdentityID, err = f.Bytes()
		case 3:
			m.Sender, err = f.Bytes()
		case 4:
			v, err = f.Uint64()
			m.Purpose = Purpose(v)
		case 5:
			v, err = f.Uint64()
			m.Threshold = uint32(v)
		}
		return err
	})
}

// PauseMsg stops an identity from accepting requests and approvals.
type PauseMsg struct {
	Metadata   *weave.Metadata
	IdentityID []byte
	Sender     weave.Address
}

func (PauseMsg) Path() string             { return pathPauseMsg }
func (m *PauseMsg) GetIdentityID() []byte { return m.IdentityID }

func (m *PauseMsg) Validate() error {
	return validateRef(nil, m.Metadata, m.IdentityID, m.Sender)
}

func (m *PauseMsg) Marshal() ([]byte, error) {
	return marshalRef(m.Metadata, m.IdentityID, m.Sender)
}

func (m *PauseMsg) Unmarshal(raw []byte) error {
	*m = PauseMsg{}
	return unmarshalRef(raw, &m.Metadata, &m.IdentityID, &m.Sender)
}

// UnpauseMsg lifts a pause.
type UnpauseMsg struct {
	Metadata   *weave.Metadata
	IdentityID []byte
	Sender     weave.Address
}

func (UnpauseMsg) Path() string             { return pathUnpauseMsg }
func (m *UnpauseMsg) GetIdentityID() []byte { return m.IdentityID }

func (m *UnpauseMsg) Validate() error {
	return validateRef(nil, m.Metadata, m.IdentityID, m.Sender)
}

func (m *UnpauseMsg) Marshal() ([]byte, error) {
	return marshalRef(m.Metadata, m.IdentityID, m.Sender)
}

func (m *UnpauseMsg) Unmarshal(raw []byte) error {
	*m = UnpauseMsg{}
	return unmarshalRef(raw, &m.Metadata, &m.IdentityID, &m.Sender)
}

func marshalRef(meta *weave.Metadata, id []byte, sender weave.Address) ([]byte, error) {
	var e codec.Encoder
	e.Message(1, meta)
	e.Bytes(2, id)
	e.Bytes(3, sender)
	return e.Finish()
}

func unmarshalRef(raw []byte, meta **weave.Metadata, id *[]byte, sender *weave.Address) error {
	return codec.Walk(raw, func(f codec.Field) error {
		var err error
		switch f.Num {
		case 1:
			*meta = &weave.Metadata{}
			err = f.Message(*meta)
		case 2:
			*id, err = f.Bytes()
		case 3:
			*sender, err = f.Bytes()
		}
		return err
	})
}

// DestroyMsg deletes an identity together with its pending requests. The
// remaining balance is sent to the recipient.
type DestroyMsg struct {
	Metadata   *weave.Metadata
	IdentityID []byte
	Sender     weave.Address
	Recipient  weave.Address
}

func (DestroyMsg) Path() string             { return pathDestroyMsg }
func (m *DestroyMsg) GetIdentityID() []byte { return m.IdentityID }

func (m *DestroyMsg) Validate() error {
	errs := validateRef(nil, m.Metadata, m.IdentityID, m.Sender)
	return errors.AppendField(errs, "Recipient", m.Recipient.Validate())
}

func (m *DestroyMsg) Marshal() ([]byte, error) {
	var e codec.Encoder
	e.Message(1, m.Metadata)
	e.Bytes(2, m.IdentityID)
	e.Bytes(3, m.Sender)
	e.Bytes(4, m.Recipient)
	return e.Finish()
}

func (m *DestroyMsg) Unmarshal(raw []byte) error {
	*m = DestroyMsg{}
	return codec.Walk(raw, func(f codec.Field) error {
		var err error
		switch f.Num {
		case 1:
			m.Metadata = &weave.Metadata{}
			err = f.Message(m.Metadata)
		case 2:
			m.IdentityID, err = f.Bytes()
		case 3:
			m.Sender, err = f.Bytes()
		case 4:
			m.Recipient, err = f.Bytes()
		}
		return err
	})
}

// UpdateConfigurationMsg patches the stored configuration. Only non zero
// fields of the patch are applied.
type UpdateConfigurationMsg struct {
	Metadata *weave.Metadata
	Patch    *Configuration
}

func (UpdateConfigurationMsg) Path() string { return pathUpdateConfigurationMsg }

func (m *UpdateConfigurationMsg) Validate() error {
	var errs error
	errs = errors.AppendField(errs, "Metadata", m.Metadata.Validate())
	if m.Patch == nil {
		return errors.AppendField(errs, "Patch", errors.ErrEmpty)
	}
	if len(m.Patch.Owner) != 0 {
		errs = errors.AppendField(errs, "Patch.Owner", m.Patch.Owner.Validate())
	}
	if m.Patch.MaxKeys < 0 || m.Patch.MaxPayloadSize < 0 {
		errs = errors.AppendField(errs, "Patch", errors.Wrap(errors.ErrInput, "negative limit"))
	}
	return errs
}

func (m *UpdateConfigurationMsg) Marshal() ([]byte, error) {
	var e codec.Encoder
	e.Message(1, m.Metadata)
	e.Message(2, m.Patch)
	return e.Finish()
}

func (m *UpdateConfigurationMsg) Unmarshal(raw []byte) error {
	*m = UpdateConfigurationMsg{}
	return codec.Walk(raw, func(f codec.Field) error {
		var err error
		switch f.Num {
		case 1:
			m.Metadata = &weave.Metadata{}
			err = f.Message(m.Metadata)
		case 2:
			m.Patch = &Configuration{}
			err = f.Message(m.Patch)
		}
		return err
	})
}

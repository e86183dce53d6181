package identity

import (
	weave "github.com/iov-one/weave-identity"
	"github.com/iov-one/weave-identity/errors"
	"github.com/iov-one/weave-identity/gconf"
	"github.com/iov-one/weave-identity/orm"
	"github.com/iov-one/weave-identity/x"
	"github.com/iov-one/weave-identity/x/cash"
)

const (
	createIdentityCost  int64 = 300
	updateIdentityCost  int64 = 100
	submitRequestCost   int64 = 200
	approveRequestCost  int64 = 100
	destroyIdentityCost int64 = 300
)

// RegisterRoutes registers all identity message handlers. Requests are
// executed by resolving their targets with resolver and coins are moved
// with bank.
func RegisterRoutes(r weave.Registry, auth x.Authenticator, bank cash.Controller, resolver Resolver) {
	auth = x.ChainAuth(auth, Authenticate{})
	engine := NewEngine(bank, resolver)
	base := identityHandler{
		auth:       auth,
		identities: engine.identities,
		events:     engine.events,
	}
	r.Handle(pathCreateIdentityMsg, &createIdentityHandler{auth: auth, identities: engine.identities})
	r.Handle(pathAddKeyMsg, &addKeyHandler{base})
	r.Handle(pathRemoveKeyMsg, &removeKeyHandler{base})
	r.Handle(pathSubmitMsg, &submitHandler{identityHandler: base, engine: engine})
	r.Handle(pathApproveMsg, &approveHandler{identityHandler: base, engine: engine})
	r.Handle(pathChangeThresholdMsg, &changeThresholdHandler{identityHandler: base, engine: engine})
	r.Handle(pathPauseMsg, &pauseHandler{identityHandler: base, pause: true})
	r.Handle(pathUnpauseMsg, &pauseHandler{identityHandler: base, pause: false})
	r.Handle(pathDestroyMsg, &destroyHandler{identityHandler: base, engine: engine, bank: bank})
	r.Handle(pathUpdateConfigurationMsg, gconf.NewUpdateConfigurationHandler(packageName, &Configuration{}, auth, nil))
}

// identityHandler loads the identity a message is addressed to and the
// caller acting on it.
type identityHandler struct {
	auth       x.Authenticator
	identities orm.ModelBucket
	events     orm.ModelBucket
}

func (h identityHandler) load(ctx weave.Context, db weave.ReadOnlyKVStore, id []byte, sender weave.Address) (*Identity, weave.Address, error) {
	var identity Identity
	if err := h.identities.One(db, id, &identity); err != nil {
		return nil, nil, errors.Wrap(err, "load identity")
	}
	caller, err := resolveCaller(ctx, h.auth, sender)
	if err != nil {
		return nil, nil, err
	}
	return &identity, caller, nil
}

type createIdentityHandler struct {
	auth       x.Authenticator
	identities orm.ModelBucket
}

func (h *createIdentityHandler) Check(ctx weave.Context, db weave.KVStore, tx weave.Tx) (*weave.CheckResult, error) {
	if _, err := h.validate(ctx, db, tx); err != nil {
		return nil, err
	}
	return &weave.CheckResult{GasAllocated: createIdentityCost}, nil
}

func (h *createIdentityHandler) Deliver(ctx weave.Context, db weave.KVStore, tx weave.Tx) (*weave.DeliverResult, error) {
	msg, err := h.validate(ctx, db, tx)
	if err != nil {
		return nil, err
	}
	id, err := nextIdentityID(db)
	if err != nil {
		return nil, errors.Wrap(err, "identity id")
	}
	identity := &Identity{
		Metadata:            &weave.Metadata{Schema: 1},
		Address:             Condition(id).Address(),
		Keys:                msg.Keys,
		ManagementThreshold: msg.ManagementThreshold,
		ExecutionThreshold:  msg.ExecutionThreshold,
	}
	if _, err := h.identities.Put(db, id, identity); err != nil {
		return nil, errors.Wrap(err, "save identity")
	}
	return &weave.DeliverResult{Data: id}, nil
}

func (h *createIdentityHandler) validate(ctx weave.Context, db weave.KVStore, tx weave.Tx) (*CreateIdentityMsg, error) {
	var msg CreateIdentityMsg
	if err := weave.LoadMsg(tx, &msg); err != nil {
		return nil, errors.Wrap(err, "load msg")
	}
	if x.MainSigner(ctx, h.auth) == nil {
		return nil, errors.Wrap(errors.ErrUnauthorized, "missing signature")
	}
	conf, err := loadConf(db)
	if err != nil {
		return nil, err
	}
	if err := conf.checkKeys(len(msg.Keys)); err != nil {
		return nil, err
	}
	return &msg, nil
}

type addKeyHandler struct {
	identityHandler
}

func (h *addKeyHandler) Check(ctx weave.Context, db weave.KVStore, tx weave.Tx) (*weave.CheckResult, error) {
	if _, _, err := h.validate(ctx, db, tx); err != nil {
		return nil, err
	}
	return &weave.CheckResult{GasAllocated: updateIdentityCost}, nil
}

func (h *addKeyHandler) Deliver(ctx weave.Context, db weave.KVStore, tx weave.Tx) (*weave.DeliverResult, error) {
	msg, identity, err := h.validate(ctx, db, tx)
	if err != nil {
		return nil, err
	}
	identity.Keys = append(identity.Keys, msg.Key)
	if _, err := h.identities.Put(db, msg.IdentityID, identity); err != nil {
		return nil, errors.Wrap(err, "save identity")
	}
	return &weave.DeliverResult{}, nil
}

func (h *addKeyHandler) validate(ctx weave.Context, db weave.KVStore, tx weave.Tx) (*AddKeyMsg, *Identity, error) {
	var msg AddKeyMsg
	if err := weave.LoadMsg(tx, &msg); err != nil {
		return nil, nil, errors.Wrap(err, "load msg")
	}
	identity, caller, err := h.load(ctx, db, msg.IdentityID, msg.Sender)
	if err != nil {
		return nil, nil, err
	}
	if err := requireNotPaused(identity); err != nil {
		return nil, nil, err
	}
	if err := managementOrSelf(identity, caller); err != nil {
		return nil, nil, err
	}
	if identity.key(msg.Key.Address) != nil {
		return nil, nil, errors.Wrapf(errors.ErrDuplicate, "key %s", msg.Key.Address)
	}
	conf, err := loadConf(db)
	if err != nil {
		return nil, nil, err
	}
	if err := conf.checkKeys(len(identity.Keys) + 1); err != nil {
		return nil, nil, err
	}
	return &msg, identity, nil
}

// removeKeyHandler drops a key. Thresholds are not lowered, an identity
// left with fewer keys than a threshold cannot reach it anymore.
type removeKeyHandler struct {
	identityHandler
}

func (h *removeKeyHandler) Check(ctx weave.Context, db weave.KVStore, tx weave.Tx) (*weave.CheckResult, error) {
	if _, _, err := h.validate(ctx, db, tx); err != nil {
		return nil, err
	}
	return &weave.CheckResult{GasAllocated: updateIdentityCost}, nil
}

func (h *removeKeyHandler) Deliver(ctx weave.Context, db weave.KVStore, tx weave.Tx) (*weave.DeliverResult, error) {
	msg, identity, err := h.validate(ctx, db, tx)
	if err != nil {
		return nil, err
	}
	keys := identity.Keys[:0]
	for _, k := range identity.Keys {
		if !k.Address.Equals(msg.Address) {
			keys = append(keys, k)
		}
	}
	identity.Keys = keys
	if _, err := h.identities.Put(db, msg.IdentityID, identity); err != nil {
		return nil, errors.Wrap(err, "save identity")
	}
	return &weave.DeliverResult{}, nil
}

func (h *removeKeyHandler) validate(ctx weave.Context, db weave.KVStore, tx weave.Tx) (*RemoveKeyMsg, *Identity, error) {
	var msg RemoveKeyMsg
	if err := weave.LoadMsg(tx, &msg); err != nil {
		return nil, nil, errors.Wrap(err, "load msg")
	}
	identity, caller, err := h.load(ctx, db, msg.IdentityID, msg.Sender)
	if err != nil {
		return nil, nil, err
	}
	if err := requireNotPaused(identity); err != nil {
		return nil, nil, err
	}
	if err := managementOrSelf(identity, caller); err != nil {
		return nil, nil, err
	}
	if identity.key(msg.Address) == nil {
		return nil, nil, errors.Wrapf(errors.ErrNotFound, "key %s", msg.Address)
	}
	return &msg, identity, nil
}

type submitHandler struct {
	identityHandler
	engine *Engine
}

func (h *submitHandler) Check(ctx weave.Context, db weave.KVStore, tx weave.Tx) (*weave.CheckResult, error) {
	msg, identity, caller, err := h.validate(ctx, db, tx)
	if err != nil {
		return nil, err
	}
	if err := requireNotPaused(identity); err != nil {
		return nil, err
	}
	if _, err := submitThreshold(identity, caller, msg.Target); err != nil {
		return nil, err
	}
	return &weave.CheckResult{GasAllocated: submitRequestCost}, nil
}

// Deliver returns the request id followed by one RequestStatus byte. A
// request executed on submission reports RequestExecuted or RequestFailed.
func (h *submitHandler) Deliver(ctx weave.Context, db weave.KVStore, tx weave.Tx) (*weave.DeliverResult, error) {
	msg, identity, caller, err := h.validate(ctx, db, tx)
	if err != nil {
		return nil, err
	}
	j := newJournal(h.events)
	reqID, status, err := h.engine.Submit(ctx, db, j, msg.IdentityID, identity, caller, msg.Target, msg.Value, msg.Payload)
	if err != nil {
		return nil, err
	}
	data := make([]byte, 0, RequestIDLength+1)
	data = append(append(data, reqID...), byte(status))
	return &weave.DeliverResult{Data: data, Tags: j.tags()}, nil
}

// ParseSubmitResult splits the result data of a submit message.
func ParseSubmitResult(data []byte) (RequestID, RequestStatus, error) {
	if len(data) != RequestIDLength+1 {
		return nil, RequestUnsubmitted, errors.Wrapf(errors.ErrInput, "submit result of %d bytes", len(data))
	}
	status := RequestStatus(data[RequestIDLength])
	if status < RequestPendingApproval || status > RequestFailed {
		return nil, RequestUnsubmitted, errors.Wrapf(errors.ErrInput, "invalid status %d", status)
	}
	return RequestID(data[:RequestIDLength]), status, nil
}

func (h *submitHandler) validate(ctx weave.Context, db weave.KVStore, tx weave.Tx) (*SubmitMsg, *Identity, weave.Address, error) {
	var msg SubmitMsg
	if err := weave.LoadMsg(tx, &msg); err != nil {
		return nil, nil, nil, errors.Wrap(err, "load msg")
	}
	conf, err := loadConf(db)
	if err != nil {
		return nil, nil, nil, err
	}
	if err := conf.checkPayload(msg.Payload); err != nil {
		return nil, nil, nil, err
	}
	identity, caller, err := h.load(ctx, db, msg.IdentityID, msg.Sender)
	if err != nil {
		return nil, nil, nil, err
	}
	return &msg, identity, caller, nil
}

type approveHandler struct {
	identityHandler
	engine *Engine
}

func (h *approveHandler) Check(ctx weave.Context, db weave.KVStore, tx weave.Tx) (*weave.CheckResult, error) {
	msg, identity, caller, err := h.validate(ctx, db, tx)
	if err != nil {
		return nil, err
	}
	if _, err := h.engine.checkApproval(db, msg.IdentityID, identity, caller, msg.RequestID); err != nil {
		return nil, err
	}
	return &weave.CheckResult{GasAllocated: approveRequestCost}, nil
}

// Deliver returns a single byte, 1 when the vote was counted and the
// request did not fail, 0 otherwise.
func (h *approveHandler) Deliver(ctx weave.Context, db weave.KVStore, tx weave.Tx) (*weave.DeliverResult, error) {
	msg, identity, caller, err := h.validate(ctx, db, tx)
	if err != nil {
		return nil, err
	}
	j := newJournal(h.events)
	ok, _, err := h.engine.Approve(ctx, db, j, msg.IdentityID, identity, caller, msg.RequestID, msg.Approve)
	if err != nil {
		return nil, err
	}
	data := []byte{0}
	if ok {
		data[0] = 1
	}
	return &weave.DeliverResult{Data: data, Tags: j.tags()}, nil
}

func (h *approveHandler) validate(ctx weave.Context, db weave.KVStore, tx weave.Tx) (*ApproveMsg, *Identity, weave.Address, error) {
	var msg ApproveMsg
	if err := weave.LoadMsg(tx, &msg); err != nil {
		return nil, nil, nil, errors.Wrap(err, "load msg")
	}
	identity, caller, err := h.load(ctx, db, msg.IdentityID, msg.Sender)
	if err != nil {
		return nil, nil, nil, err
	}
	return &msg, identity, caller, nil
}

type changeThresholdHandler struct {
	identityHandler
	engine *Engine
}

func (h *changeThresholdHandler) Check(ctx weave.Context, db weave.KVStore, tx weave.Tx) (*weave.CheckResult, error) {
	msg, identity, caller, err := h.validate(ctx, db, tx)
	if err != nil {
		return nil, err
	}
	if err := requireNotPaused(identity); err != nil {
		return nil, err
	}
	if err := managementOrSelf(identity, caller); err != nil {
		return nil, err
	}
	if err := identity.validateThreshold(msg.Purpose, msg.Threshold); err != nil {
		return nil, err
	}
	return &weave.CheckResult{GasAllocated: updateIdentityCost}, nil
}

func (h *changeThresholdHandler) Deliver(ctx weave.Context, db weave.KVStore, tx weave.Tx) (*weave.DeliverResult, error) {
	msg, identity, caller, err := h.validate(ctx, db, tx)
	if err != nil {
		return nil, err
	}
	j := newJournal(h.events)
	if err := h.engine.ChangeRequiredApprovals(ctx, db, j, msg.IdentityID, identity, caller, msg.Purpose, msg.Threshold); err != nil {
		return nil, err
	}
	return &weave.DeliverResult{Tags: j.tags()}, nil
}

func (h *changeThresholdHandler) validate(ctx weave.Context, db weave.KVStore, tx weave.Tx) (*ChangeThresholdMsg, *Identity, weave.Address, error) {
	var msg ChangeThresholdMsg
	if err := weave.LoadMsg(tx, &msg); err != nil {
		return nil, nil, nil, errors.Wrap(err, "load msg")
	}
	identity, caller, err := h.load(ctx, db, msg.IdentityID, msg.Sender)
	if err != nil {
		return nil, nil, nil, err
	}
	return &msg, identity, caller, nil
}

// pauseHandler handles both PauseMsg and UnpauseMsg.
type pauseHandler struct {
	identityHandler
	pause bool
}

func (h *pauseHandler) Check(ctx weave.Context, db weave.KVStore, tx weave.Tx) (*weave.CheckResult, error) {
	if _, _, err := h.validate(ctx, db, tx); err != nil {
		return nil, err
	}
	return &weave.CheckResult{GasAllocated: updateIdentityCost}, nil
}

func (h *pauseHandler) Deliver(ctx weave.Context, db weave.KVStore, tx weave.Tx) (*weave.DeliverResult, error) {
	id, identity, err := h.validate(ctx, db, tx)
	if err != nil {
		return nil, err
	}
	identity.Paused = h.pause
	if _, err := h.identities.Put(db, id, identity); err != nil {
		return nil, errors.Wrap(err, "save identity")
	}
	return &weave.DeliverResult{}, nil
}

func (h *pauseHandler) validate(ctx weave.Context, db weave.KVStore, tx weave.Tx) ([]byte, *Identity, error) {
	var (
		id     []byte
		sender weave.Address
	)
	if h.pause {
		var msg PauseMsg
		if err := weave.LoadMsg(tx, &msg); err != nil {
			return nil, nil, errors.Wrap(err, "load msg")
		}
		id, sender = msg.IdentityID, msg.Sender
	} else {
		var msg UnpauseMsg
		if err := weave.LoadMsg(tx, &msg); err != nil {
			return nil, nil, errors.Wrap(err, "load msg")
		}
		id, sender = msg.IdentityID, msg.Sender
	}
	identity, caller, err := h.load(ctx, db, id, sender)
	if err != nil {
		return nil, nil, err
	}
	if err := managementOrSelf(identity, caller); err != nil {
		return nil, nil, err
	}
	if identity.Paused == h.pause {
		return nil, nil, errors.Wrapf(errors.ErrState, "paused is already %v", h.pause)
	}
	return id, identity, nil
}

type destroyHandler struct {
	identityHandler
	engine *Engine
	bank   cash.Controller
}

func (h *destroyHandler) Check(ctx weave.Context, db weave.KVStore, tx weave.Tx) (*weave.CheckResult, error) {
	if _, _, err := h.validate(ctx, db, tx); err != nil {
		return nil, err
	}
	return &weave.CheckResult{GasAllocated: destroyIdentityCost}, nil
}

func (h *destroyHandler) Deliver(ctx weave.Context, db weave.KVStore, tx weave.Tx) (*weave.DeliverResult, error) {
	msg, identity, err := h.validate(ctx, db, tx)
	if err != nil {
		return nil, err
	}

	var pending []*ExecutionRequest
	keys, err := h.engine.requests.ByIndex(db, "identity", msg.IdentityID, &pending)
	if err != nil {
		return nil, errors.Wrap(err, "pending requests")
	}
	for _, key := range keys {
		if err := h.engine.requests.Delete(db, key); err != nil {
			return nil, errors.Wrap(err, "delete request")
		}
		if err := h.engine.approvals.Delete(db, key); err != nil {
			return nil, errors.Wrap(err, "delete approvals")
		}
	}

	balance, err := h.bank.Balance(db, identity.Address)
	if err != nil && !errors.ErrNotFound.Is(err) {
		return nil, errors.Wrap(err, "balance")
	}
	for _, c := range balance {
		if err := h.bank.MoveCoins(db, identity.Address, msg.Recipient, *c); err != nil {
			return nil, errors.Wrapf(err, "move %s", c)
		}
	}

	if err := h.identities.Delete(db, msg.IdentityID); err != nil {
		return nil, errors.Wrap(err, "delete identity")
	}
	return &weave.DeliverResult{}, nil
}

func (h *destroyHandler) validate(ctx weave.Context, db weave.KVStore, tx weave.Tx) (*DestroyMsg, *Identity, error) {
	var msg DestroyMsg
	if err := weave.LoadMsg(tx, &msg); err != nil {
		return nil, nil, errors.Wrap(err, "load msg")
	}
	identity, caller, err := h.load(ctx, db, msg.IdentityID, msg.Sender)
	if err != nil {
		return nil, nil, err
	}
	if err := requireNotPaused(identity); err != nil {
		return nil, nil, err
	}
	if err := managementOrSelf(identity, caller); err != nil {
		return nil, nil, err
	}
	if msg.Recipient.Equals(identity.Address) {
		return nil, nil, errors.Wrap(errors.ErrInput, "recipient is the destroyed identity")
	}
	return &msg, identity, nil
}

package identity

import (
	"bytes"
	"strconv"

	weave "github.com/iov-one/weave-identity"
	"github.com/iov-one/weave-identity/coin"
	"github.com/iov-one/weave-identity/errors"
	"github.com/iov-one/weave-identity/orm"
	"github.com/iov-one/weave-identity/x/cash"
	"github.com/iov-one/weave-identity/x/utils"
	"github.com/tendermint/tendermint/libs/common"
)

// RequestStatus is the lifecycle state of an execution request.
type RequestStatus uint8

const (
	RequestUnsubmitted RequestStatus = iota
	RequestPendingApproval
	RequestExecuted
	RequestFailed
)

func (s RequestStatus) String() string {
	switch s {
	case RequestUnsubmitted:
		return "unsubmitted"
	case RequestPendingApproval:
		return "pending_approval"
	case RequestExecuted:
		return "executed"
	case RequestFailed:
		return "failed"
	}
	return "unknown"
}

// Engine implements the execution request protocol of identities. It holds
// no state, all operations work on the identity passed in and the store.
type Engine struct {
	identities orm.ModelBucket
	requests   orm.ModelBucket
	approvals  orm.ModelBucket
	events     orm.ModelBucket
	bank       cash.CoinMover
	resolver   Resolver
}

// NewEngine returns an engine that moves request values with bank and
// dispatches payloads to the executables returned by resolver.
func NewEngine(bank cash.CoinMover, resolver Resolver) *Engine {
	return &Engine{
		identities: NewIdentityBucket(),
		requests:   NewRequestBucket(),
		approvals:  NewApprovalBucket(),
		events:     NewEventBucket(),
		bank:       bank,
		resolver:   resolver,
	}
}

// submitThreshold returns how many approvals a request submitted by caller
// still needs.
func submitThreshold(identity *Identity, caller, target weave.Address) (uint32, error) {
	self := caller.Equals(identity.Address)
	if target.Equals(identity.Address) {
		if self || identity.HasPurpose(caller, ManagementPurpose) {
			return identity.ManagementThreshold - 1, nil
		}
		return 0, errors.Wrap(errors.ErrUnauthorized, "management key required")
	}
	if err := target.Validate(); err != nil {
		return 0, errors.Wrap(err, "target")
	}
	if target.IsZero() {
		return 0, errors.Wrap(errors.ErrInput, "zero target address")
	}
	switch {
	case self:
		return identity.ExecutionThreshold, nil
	case identity.HasPurpose(caller, ExecutionPurpose):
		return identity.ExecutionThreshold - 1, nil
	}
	return 0, errors.Wrap(errors.ErrUnauthorized, "execution key required")
}

// Submit registers a new request. When the submitter alone satisfies the
// threshold the request is executed right away and never stored.
func (e *Engine) Submit(ctx weave.Context, db weave.KVStore, j *journal, id []byte, identity *Identity,
	caller, target weave.Address, value *coin.Coin, payload []byte) (RequestID, RequestStatus, error) {

	if err := requireNotPaused(identity); err != nil {
		return nil, RequestUnsubmitted, err
	}
	remaining, err := submitThreshold(identity, caller, target)
	if err != nil {
		return nil, RequestUnsubmitted, err
	}

	reqID := BuildRequestID(identity.Address, target, value, payload, identity.Nonce)
	identity.Nonce++
	if _, err := e.identities.Put(db, id, identity); err != nil {
		return nil, RequestUnsubmitted, errors.Wrap(err, "save identity")
	}
	ev := &Event{
		IdentityID: id,
		Type:       SubmittedEvent,
		RequestID:  reqID,
		Target:     target,
		Value:      value,
		Payload:    payload,
	}
	if err := j.emit(ctx, db, ev); err != nil {
		return nil, RequestUnsubmitted, err
	}

	req := &ExecutionRequest{
		Metadata:   &weave.Metadata{Schema: 1},
		IdentityID: id,
		Target:     target,
		Value:      value,
		Payload:    payload,
		Remaining:  remaining,
	}
	if remaining == 0 {
		status, err := e.execute(ctx, db, j, id, identity.Address, reqID, req, false)
		if err != nil {
			return nil, status, err
		}
		submittedRequests.Inc()
		return reqID, status, nil
	}

	if _, err := e.requests.Put(db, reqID, req); err != nil {
		return nil, RequestUnsubmitted, errors.Wrap(err, "save request")
	}
	set := &ApprovalSet{
		Metadata:  &weave.Metadata{Schema: 1},
		Approvers: []weave.Address{caller},
	}
	if _, err := e.approvals.Put(db, reqID, set); err != nil {
		return nil, RequestUnsubmitted, errors.Wrap(err, "save approvals")
	}
	submittedRequests.Inc()
	return reqID, RequestPendingApproval, nil
}

// Approve records an approval or withdraws a previous one. The returned
// flag is false for a withdrawal without a previous approval and for a
// request whose execution failed.
func (e *Engine) Approve(ctx weave.Context, db weave.KVStore, j *journal, id []byte, identity *Identity,
	caller weave.Address, reqID RequestID, approve bool) (bool, RequestStatus, error) {

	req, err := e.checkApproval(db, id, identity, caller, reqID)
	if err != nil {
		return false, RequestUnsubmitted, err
	}

	// Recorded for withdrawals without a previous approval too.
	ev := &Event{
		IdentityID: id,
		Type:       ApprovedEvent,
		RequestID:  reqID,
		Approve:    approve,
	}
	if err := j.emit(ctx, db, ev); err != nil {
		return false, RequestPendingApproval, err
	}

	var set ApprovalSet
	if err := e.approvals.One(db, reqID, &set); err != nil {
		return false, RequestPendingApproval, errors.Wrap(err, "load approvals")
	}

	if !approve {
		if !set.Remove(caller) {
			countApproval(approve)
			return false, RequestPendingApproval, nil
		}
		req.Remaining++
		if err := e.savePending(db, reqID, req, &set); err != nil {
			return false, RequestPendingApproval, err
		}
		countApproval(approve)
		return true, RequestPendingApproval, nil
	}

	if set.Contains(caller) {
		return false, RequestPendingApproval, errors.Wrapf(errors.ErrDuplicate, "%s already approved", caller)
	}
	set.Approvers = append(set.Approvers, caller)
	if req.Remaining > 0 {
		req.Remaining--
	}
	if req.Remaining == 0 {
		status, err := e.execute(ctx, db, j, id, identity.Address, reqID, req, true)
		if err != nil {
			return false, status, err
		}
		countApproval(approve)
		return status == RequestExecuted, status, nil
	}
	if err := e.savePending(db, reqID, req, &set); err != nil {
		return false, RequestPendingApproval, err
	}
	countApproval(approve)
	return true, RequestPendingApproval, nil
}

func countApproval(approve bool) {
	requestApprovals.WithLabelValues(strconv.FormatBool(approve)).Inc()
}

// checkApproval loads the pending request and ensures the caller may vote
// on it.
func (e *Engine) checkApproval(db weave.ReadOnlyKVStore, id []byte, identity *Identity,
	caller weave.Address, reqID RequestID) (*ExecutionRequest, error) {

	if err := reqID.Validate(); err != nil {
		return nil, errors.Wrap(err, "request id")
	}
	var req ExecutionRequest
	if err := e.requests.One(db, reqID, &req); err != nil {
		return nil, errors.Wrap(err, "load request")
	}
	if !bytes.Equal(req.IdentityID, id) {
		return nil, errors.Wrap(errors.ErrNotFound, "request of another identity")
	}
	if err := requireNotPaused(identity); err != nil {
		return nil, err
	}
	purpose := ExecutionPurpose
	if req.Target.Equals(identity.Address) {
		purpose = ManagementPurpose
	}
	if !caller.Equals(identity.Address) && !identity.HasPurpose(caller, purpose) {
		return nil, errors.Wrapf(errors.ErrUnauthorized, "%s key required", purpose)
	}
	return &req, nil
}

func (e *Engine) savePending(db weave.KVStore, reqID RequestID, req *ExecutionRequest, set *ApprovalSet) error {
	if _, err := e.requests.Put(db, reqID, req); err != nil {
		return errors.Wrap(err, "save request")
	}
	if _, err := e.approvals.Put(db, reqID, set); err != nil {
		return errors.Wrap(err, "save approvals")
	}
	return nil
}

// execute moves the value and calls the target. Changes made by a failing
// call are discarded and reported as RequestFailed, only storage errors of
// the engine itself are returned. With cleanup the stored request is
// removed before the call, whatever its outcome.
func (e *Engine) execute(ctx weave.Context, db weave.KVStore, j *journal, id []byte, from weave.Address,
	reqID RequestID, req *ExecutionRequest, cleanup bool) (RequestStatus, error) {

	if cleanup {
		if err := e.requests.Delete(db, reqID); err != nil {
			return RequestPendingApproval, errors.Wrap(err, "delete request")
		}
		if err := e.approvals.Delete(db, reqID); err != nil {
			return RequestPendingApproval, errors.Wrap(err, "delete approvals")
		}
	}

	var nested []common.KVPair
	err := utils.InSavepoint(db, func(db weave.KVStore) (err error) {
		defer errors.Recover(&err)
		nested, err = e.call(withIdentity(ctx, id), db, from, req)
		return err
	})

	ev := &Event{
		IdentityID: id,
		Type:       ExecutedEvent,
		RequestID:  reqID,
		Target:     req.Target,
		Value:      req.Value,
		Payload:    req.Payload,
	}
	status := RequestExecuted
	if err != nil {
		weave.GetLogger(ctx).Debug("identity request execution failed",
			"request", reqID.String(), "target", req.Target.String(), "err", err)
		ev.Type = ExecutionFailedEvent
		status = RequestFailed
		failedRequests.Inc()
	} else {
		j.attach(nested)
		executedRequests.Inc()
	}
	if err := j.emit(ctx, db, ev); err != nil {
		return status, err
	}
	return status, nil
}

func (e *Engine) call(ctx weave.Context, db weave.KVStore, from weave.Address, req *ExecutionRequest) ([]common.KVPair, error) {
	if !coin.IsEmpty(req.Value) {
		if err := e.bank.MoveCoins(db, from, req.Target, *req.Value); err != nil {
			return nil, errors.Wrap(err, "transfer value")
		}
	}
	exe, err := e.resolver.Resolve(db, req.Target)
	if err != nil {
		return nil, errors.Wrap(err, "resolve target")
	}
	if exe == nil {
		return nil, errors.Wrapf(errors.ErrNotFound, "no executable at %s", req.Target)
	}
	return exe.Call(ctx, db, from, req.Value, req.Payload)
}

// ChangeRequiredApprovals updates the threshold of a purpose. Pending
// requests keep the counter they were created with.
func (e *Engine) ChangeRequiredApprovals(ctx weave.Context, db weave.KVStore, j *journal, id []byte, identity *Identity,
	caller weave.Address, purpose Purpose, n uint32) error {

	if err := requireNotPaused(identity); err != nil {
		return err
	}
	if err := managementOrSelf(identity, caller); err != nil {
		return err
	}
	if err := identity.validateThreshold(purpose, n); err != nil {
		return err
	}
	switch purpose {
	case ManagementPurpose:
		identity.ManagementThreshold = n
	case ExecutionPurpose:
		identity.ExecutionThreshold = n
	}
	if _, err := e.identities.Put(db, id, identity); err != nil {
		return errors.Wrap(err, "save identity")
	}
	return j.emit(ctx, db, &Event{
		IdentityID: id,
		Type:       ThresholdChangedEvent,
		Purpose:    purpose,
		Threshold:  n,
	})
}

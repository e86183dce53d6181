package identity

import (
	weave "github.com/iov-one/weave-identity"
	"github.com/iov-one/weave-identity/errors"
	"github.com/iov-one/weave-identity/x"
)

func requireNotPaused(identity *Identity) error {
	if identity.Paused {
		return errors.Wrapf(ErrPaused, "identity %s", identity.Address)
	}
	return nil
}

// managementOrSelf succeeds when the caller is the identity itself or
// holds the MANAGEMENT purpose.
func managementOrSelf(identity *Identity, caller weave.Address) error {
	if caller.Equals(identity.Address) || identity.HasPurpose(caller, ManagementPurpose) {
		return nil
	}
	return errors.Wrap(errors.ErrUnauthorized, "management key or identity required")
}

// resolveCaller returns the address a message acts for. An explicit sender
// must be authenticated. Without it the innermost executing identity is the
// caller, otherwise the main signer of the transaction.
//
// Inside an identity execution only executing identities can be named as
// the sender. Signatures of the outer transaction do not carry over.
func resolveCaller(ctx weave.Context, auth x.Authenticator, sender weave.Address) (weave.Address, error) {
	conds := (Authenticate{}).GetConditions(ctx)
	if len(sender) != 0 {
		if len(conds) > 0 && !(Authenticate{}).HasAddress(ctx, sender) {
			return nil, errors.Wrapf(errors.ErrUnauthorized, "sender %s is not an executing identity", sender)
		}
		if !auth.HasAddress(ctx, sender) {
			return nil, errors.Wrapf(errors.ErrUnauthorized, "sender %s did not sign", sender)
		}
		return sender, nil
	}
	if len(conds) > 0 {
		return conds[len(conds)-1].Address(), nil
	}
	signer := x.MainSigner(ctx, auth)
	if signer == nil {
		return nil, errors.Wrap(errors.ErrUnauthorized, "missing signature")
	}
	return signer.Address(), nil
}

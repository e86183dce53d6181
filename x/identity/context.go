package identity

import (
	"context"

	weave "github.com/iov-one/weave-identity"
	"github.com/iov-one/weave-identity/x"
)

type contextKey int

const (
	contextKeyIdentity contextKey = iota
)

// Condition returns the condition of the identity with given ID. The
// address of this condition is the identity address.
func Condition(id []byte) weave.Condition {
	return weave.NewCondition("identity", "self", id)
}

// withIdentity authenticates the context as the identity with given ID.
// Only an executing identity request can do this.
func withIdentity(ctx weave.Context, id []byte) weave.Context {
	val, _ := ctx.Value(contextKeyIdentity).([]weave.Condition)
	conds := make([]weave.Condition, 0, len(val)+1)
	conds = append(conds, val...)
	return context.WithValue(ctx, contextKeyIdentity, append(conds, Condition(id)))
}

// Authenticate gets the conditions of identities executing in this context.
type Authenticate struct{}

var _ x.Authenticator = Authenticate{}

// GetConditions returns the identity conditions set on this context.
func (a Authenticate) GetConditions(ctx weave.Context) []weave.Condition {
	val, _ := ctx.Value(contextKeyIdentity).([]weave.Condition)
	return val
}

// HasAddress returns true iff this address is in GetConditions.
func (a Authenticate) HasAddress(ctx weave.Context, addr weave.Address) bool {
	for _, s := range a.GetConditions(ctx) {
		if addr.Equals(s.Address()) {
			return true
		}
	}
	return false
}

package identity

import "github.com/iov-one/weave-identity/errors"

// ErrPaused is returned by every state changing operation of a paused
// identity.
var ErrPaused = errors.Register(130, "identity paused")

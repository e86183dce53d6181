package sigs

import "github.com/iov-one/weave-identity/errors"

// ErrInvalidSequence is returned when a signature declares a sequence that
// does not match the account state.
var ErrInvalidSequence = errors.Register(120, "invalid sequence number")

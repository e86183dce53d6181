package weavetest

import (
	"encoding/hex"
	"testing"

	weave "github.com/iov-one/weave-identity"
)

// DecodeAddr takes a hex encoded address string and returns it's raw
// representation as a weave address. This function ensures that returned value
// is a valid address.
func DecodeAddr(t testing.TB, encoded string) weave.Address {
	t.Helper()
	raw, err := hex.DecodeString(encoded)
	if err != nil {
		t.Fatalf("cannot decode hex string: %s", err)
	}
	a := weave.Address(raw)
	if err := a.Validate(); err != nil {
		t.Fatalf("decoded string is not a valid address: %s", err)
	}
	return a
}

package errors

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAppend(t *testing.T) {
	cases := map[string]struct {
		errs     []error
		wantNil  bool
		wantSize int
	}{
		"no errors": {
			errs:    nil,
			wantNil: true,
		},
		"only nil errors": {
			errs:    []error{nil, nil},
			wantNil: true,
		},
		"single error is returned as it is": {
			errs:     []error{ErrNotFound, nil},
			wantSize: 1,
		},
		"two errors": {
			errs:     []error{ErrNotFound, ErrState},
			wantSize: 2,
		},
		"nested multi errors are flattened": {
			errs:     []error{Append(ErrNotFound, ErrState), ErrInput},
			wantSize: 3,
		},
	}

	for testName, tc := range cases {
		t.Run(testName, func(t *testing.T) {
			err := Append(tc.errs...)
			if tc.wantNil {
				assert.Nil(t, err)
				return
			}
			if u, ok := err.(unpacker); ok {
				assert.Equal(t, tc.wantSize, len(u.Unpack()))
			} else {
				assert.Equal(t, tc.wantSize, 1)
			}
		})
	}
}

func TestMultiErrABCICode(t *testing.T) {
	err := Append(Wrap(ErrState, "first"), ErrNotFound)
	code, log := ABCIInfo(err, false)
	assert.Equal(t, ErrState.code, code)
	assert.Contains(t, log, "2 errors occurred")
	assert.True(t, ErrNotFound.Is(err))
	assert.True(t, ErrState.Is(err))
	assert.False(t, ErrInput.Is(err))
}

func TestRegisterDuplicatedCodePanics(t *testing.T) {
	assert.Panics(t, func() {
		Register(ErrNotFound.code, "again")
	})
}
